package formatter

import (
	"strings"
	"testing"

	"github.com/rtk-proxy/rtk/internal/rtk/types"
)

func int64p(v int64) *int64 { return &v }

func TestFormatModesDistinctAndNonEmpty(t *testing.T) {
	r := types.TestResult{
		Total: 15, Passed: 13, Failed: 1, Skipped: 1,
		DurationMs: int64p(450),
		Failures: []types.TestFailure{
			{TestName: "TestFoo", FilePath: "a_test.go", ErrorMessage: "assertion failed: got 1 want 2"},
		},
	}
	f := ForTestResult(r)
	compact := Format(f, Compact)
	verbose := Format(f, Verbose)
	ultra := Format(f, Ultra)

	for name, s := range map[string]string{"compact": compact, "verbose": verbose, "ultra": ultra} {
		if s == "" {
			t.Errorf("%s rendering is empty", name)
		}
	}
	if compact == verbose || verbose == ultra || compact == ultra {
		t.Fatal("expected three distinct renderings")
	}

	// verbose counts are a superset of compact counts: compact shows
	// Passed/Failed, verbose must mention Passed, Failed, and Skipped.
	if !strings.Contains(verbose, "13 passed") || !strings.Contains(verbose, "1 failed") || !strings.Contains(verbose, "1 skipped") {
		t.Errorf("verbose rendering missing counts: %q", verbose)
	}
}

func TestTestResultUltraSymbolic(t *testing.T) {
	r := types.TestResult{Passed: 137, DurationMs: int64p(1450)}
	got := Format(ForTestResult(r), Ultra)
	want := "✓137 ✗0 ⊘0 (1450ms)"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestLintResultGroupsByRuleDescending(t *testing.T) {
	r := types.LintResult{
		Errors: 3, Warnings: 0, FilesWithIssues: 2, TotalIssues: 3,
		Issues: []types.LintIssue{
			{FilePath: "a.go", Line: 1, RuleID: "unused", Severity: types.SeverityError, Message: "x"},
			{FilePath: "b.go", Line: 2, RuleID: "unused", Severity: types.SeverityError, Message: "y"},
			{FilePath: "c.go", Line: 3, RuleID: "shadow", Severity: types.SeverityError, Message: "z"},
		},
	}
	out := Format(ForLintResult(r), Compact)
	unusedIdx := strings.Index(out, "unused: 2 occurrences")
	shadowIdx := strings.Index(out, "shadow: 1 occurrences")
	if unusedIdx == -1 || shadowIdx == -1 {
		t.Fatalf("missing grouped rule lines: %q", out)
	}
	if unusedIdx > shadowIdx {
		t.Fatalf("expected unused (2 occurrences) before shadow (1): %q", out)
	}
}

func TestDependencyStateAllUpToDate(t *testing.T) {
	out := Format(ForDependencyState(types.DependencyState{TotalPackages: 5}), Compact)
	if out != "All packages up-to-date ✓" {
		t.Fatalf("got %q", out)
	}
}

func TestFromVerbosity(t *testing.T) {
	cases := map[int]Mode{0: Compact, 1: Verbose, 2: Ultra, 5: Ultra}
	for v, want := range cases {
		if got := FromVerbosity(v); got != want {
			t.Errorf("FromVerbosity(%d) = %v, want %v", v, got, want)
		}
	}
}
