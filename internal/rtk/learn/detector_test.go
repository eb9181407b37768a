package learn

import (
	"strings"
	"testing"
)

func TestIsCommandErrorRequiresErrorFlag(t *testing.T) {
	if IsCommandError(false, "error: unknown flag") {
		t.Error("expected false when is_error=false")
	}
	if !IsCommandError(true, "error: unknown flag") {
		t.Error("expected true when is_error=true with error content")
	}
}

func TestIsCommandErrorFiltersUserRejection(t *testing.T) {
	if IsCommandError(true, "The user doesn't want to proceed") {
		t.Error("expected false for user rejection")
	}
	if IsCommandError(true, "Operation cancelled by user") {
		t.Error("expected false for cancelled operation")
	}
	if !IsCommandError(true, "error: permission denied") {
		t.Error("expected true for actual error")
	}
}

func TestIsCommandErrorRequiresErrorContent(t *testing.T) {
	if IsCommandError(true, "All good, success!") {
		t.Error("expected false without error-indicating content")
	}
	if !IsCommandError(true, "error: something failed") {
		t.Error("expected true")
	}
	if !IsCommandError(true, "unknown flag --foo") {
		t.Error("expected true")
	}
	if !IsCommandError(true, "invalid option") {
		t.Error("expected true")
	}
}

func TestClassifyErrorUnknownFlag(t *testing.T) {
	for _, output := range []string{
		"error: unexpected argument '--foo'",
		"unknown option: --bar",
		"unrecognized flag: -x",
	} {
		if !ClassifyError(output).Equal(ErrorUnknownFlag) {
			t.Errorf("expected UnknownFlag for %q", output)
		}
	}
}

func TestClassifyErrorCommandNotFound(t *testing.T) {
	if !ClassifyError("bash: foobar: command not found").Equal(ErrorCommandNotFound) {
		t.Error("expected CommandNotFound")
	}
	if !ClassifyError("'xyz' is not recognized as an internal or external command").Equal(ErrorCommandNotFound) {
		t.Error("expected CommandNotFound")
	}
}

func TestClassifyErrorAllTypes(t *testing.T) {
	if !ClassifyError("No such file or directory: foo.txt").Equal(ErrorWrongPath) {
		t.Error("expected WrongPath")
	}
	if !ClassifyError("error: --output requires a value").Equal(ErrorMissingArg) {
		t.Error("expected MissingArg")
	}
	if !ClassifyError("permission denied: /etc/shadow").Equal(ErrorPermissionDenied) {
		t.Error("expected PermissionDenied")
	}
	if ClassifyError("something went wrong").kind != "other" {
		t.Error("expected Other")
	}
}

func TestExtractBaseCommand(t *testing.T) {
	cases := map[string]string{
		"git commit":                      "git commit",
		"cargo test":                      "cargo test",
		"git commit --amend -m 'fix'":     "git commit",
		"RUST_BACKTRACE=1 cargo test":     "cargo test",
	}
	for input, want := range cases {
		if got := ExtractBaseCommand(input); got != want {
			t.Errorf("ExtractBaseCommand(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCommandSimilaritySameBase(t *testing.T) {
	if got := CommandSimilarity("git commit", "git commit"); got != 1.0 {
		t.Errorf("expected 1.0, got %v", got)
	}
	if got := CommandSimilarity("git status", "npm install"); got != 0.0 {
		t.Errorf("expected 0.0, got %v", got)
	}
	sim := CommandSimilarity("git commit --amend", "git commit --ammend")
	if sim != 0.5 {
		t.Errorf("expected 0.5, got %v", sim)
	}
}

func TestFindCorrectionsBasic(t *testing.T) {
	commands := []CommandExecution{
		{Command: "git commit --ammend", IsError: true, Output: "error: unexpected argument '--ammend'"},
		{Command: "git commit --amend", IsError: false, Output: "[main abc123] Fix bug"},
	}
	corrections := FindCorrections(commands)
	if len(corrections) != 1 {
		t.Fatalf("expected 1 correction, got %d", len(corrections))
	}
	if corrections[0].WrongCommand != "git commit --ammend" || corrections[0].RightCommand != "git commit --amend" {
		t.Errorf("got %+v", corrections[0])
	}
	if corrections[0].Confidence < 0.6 {
		t.Errorf("expected confidence >= 0.6, got %v", corrections[0].Confidence)
	}
}

func TestFindCorrectionsWindowLimit(t *testing.T) {
	commands := []CommandExecution{
		{Command: "git commit --ammend", IsError: true, Output: "error: unexpected argument '--ammend'"},
		{Command: "ls", IsError: false, Output: "file1.txt\nfile2.txt"},
		{Command: "pwd", IsError: false, Output: "/home/user"},
		{Command: "echo test", IsError: false, Output: "test"},
		{Command: "git commit --amend", IsError: false, Output: "[main abc123] Fix"},
	}
	corrections := FindCorrections(commands)
	if len(corrections) != 0 {
		t.Fatalf("expected 0 corrections (too far apart), got %d", len(corrections))
	}
}

func TestFindCorrectionsExcludesTDDCycle(t *testing.T) {
	commands := []CommandExecution{
		{Command: "go test ./...", IsError: true, Output: "error[E0425]: cannot find value `x`\ntest result: FAILED"},
		{Command: "go test ./...", IsError: false, Output: "test result: ok. 5 passed"},
	}
	corrections := FindCorrections(commands)
	if len(corrections) != 0 {
		t.Fatalf("expected 0 corrections (TDD cycle), got %d", len(corrections))
	}
}

func TestFindCorrectionsPathExploration(t *testing.T) {
	commands := []CommandExecution{
		{Command: "cat file1.txt", IsError: true, Output: "cat: file1.txt: No such file or directory"},
		{Command: "cat file2.txt", IsError: false, Output: "content here"},
	}
	corrections := FindCorrections(commands)
	if len(corrections) != 0 {
		t.Fatalf("expected 0 corrections (different files = exploration), got %d", len(corrections))
	}
}

func TestFindCorrectionsMinConfidence(t *testing.T) {
	commands := []CommandExecution{
		{Command: "git commit --foo --bar --baz", IsError: true, Output: "error: unexpected argument '--foo'"},
		{Command: "git commit --qux", IsError: false, Output: "[main abc123] Fix"},
	}
	corrections := FindCorrections(commands)
	if len(corrections) != 1 {
		t.Fatalf("expected 1 correction despite differing args, got %d", len(corrections))
	}
}

func TestDeduplicateCorrectionsMergesSame(t *testing.T) {
	pairs := []CorrectionPair{
		{WrongCommand: "git commit --ammend", RightCommand: "git commit --amend", ErrorOutput: "error: unexpected argument '--ammend'", ErrorType: ErrorUnknownFlag, Confidence: 0.8},
		{WrongCommand: "git commit --ammend -m 'fix'", RightCommand: "git commit --amend -m 'fix'", ErrorOutput: "error: unexpected argument '--ammend'", ErrorType: ErrorUnknownFlag, Confidence: 0.9},
		{WrongCommand: "git commit --ammend", RightCommand: "git commit --amend", ErrorOutput: "error: unexpected argument '--ammend'", ErrorType: ErrorUnknownFlag, Confidence: 0.7},
	}
	rules := DeduplicateCorrections(pairs)
	if len(rules) != 1 {
		t.Fatalf("expected 1 merged rule, got %d", len(rules))
	}
	if rules[0].Occurrences != 3 {
		t.Errorf("expected 3 occurrences, got %d", rules[0].Occurrences)
	}
	if rules[0].BaseCommand != "git commit" {
		t.Errorf("expected base 'git commit', got %q", rules[0].BaseCommand)
	}
	if !strings.Contains(rules[0].WrongPattern, "'fix'") {
		t.Errorf("expected highest-confidence example retained, got %q", rules[0].WrongPattern)
	}
}

func TestDeduplicateCorrectionsKeepsDistinct(t *testing.T) {
	pairs := []CorrectionPair{
		{WrongCommand: "git commit --ammend", RightCommand: "git commit --amend", ErrorOutput: "error: unexpected argument '--ammend'", ErrorType: ErrorUnknownFlag, Confidence: 0.8},
		{WrongCommand: "git push --force", RightCommand: "git push --force-with-lease", ErrorOutput: "error: --force is dangerous", ErrorType: ErrorWrongSyntax, Confidence: 0.7},
	}
	rules := DeduplicateCorrections(pairs)
	if len(rules) != 2 {
		t.Fatalf("expected 2 distinct rules, got %d", len(rules))
	}
	if rules[0].Occurrences != 1 || rules[1].Occurrences != 1 {
		t.Errorf("expected both occurrences=1, got %+v", rules)
	}
}
