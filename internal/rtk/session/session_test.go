package session

import (
	"os"
	"path/filepath"
	"testing"
)

func writeJSONL(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	var content string
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write jsonl: %v", err)
	}
	return path
}

func TestExtractAssistantBash(t *testing.T) {
	path := writeJSONL(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_abc","name":"Bash","input":{"command":"git status"}}]}}`,
		`{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_abc","content":"On branch master\nnothing to commit"}]}}`,
	)
	cmds, err := ExtractCommands(path)
	if err != nil {
		t.Fatalf("ExtractCommands failed: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds[0].Command != "git status" {
		t.Errorf("got command %q", cmds[0].Command)
	}
	if cmds[0].OutputLen == nil || *cmds[0].OutputLen != len("On branch master\nnothing to commit") {
		t.Errorf("unexpected output len %v", cmds[0].OutputLen)
	}
}

func TestExtractNonBashIgnored(t *testing.T) {
	path := writeJSONL(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_abc","name":"Read","input":{"file_path":"/tmp/foo"}}]}}`,
	)
	cmds, err := ExtractCommands(path)
	if err != nil {
		t.Fatalf("ExtractCommands failed: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("expected 0 commands, got %d", len(cmds))
	}
}

func TestExtractNonMessageIgnored(t *testing.T) {
	path := writeJSONL(t, `{"type":"file-history-snapshot","messageId":"abc","snapshot":{}}`)
	cmds, err := ExtractCommands(path)
	if err != nil {
		t.Fatalf("ExtractCommands failed: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("expected 0 commands, got %d", len(cmds))
	}
}

func TestExtractMultipleTools(t *testing.T) {
	path := writeJSONL(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_1","name":"Bash","input":{"command":"git status"}},{"type":"tool_use","id":"toolu_2","name":"Bash","input":{"command":"git diff"}}]}}`,
	)
	cmds, err := ExtractCommands(path)
	if err != nil {
		t.Fatalf("ExtractCommands failed: %v", err)
	}
	if len(cmds) != 2 || cmds[0].Command != "git status" || cmds[1].Command != "git diff" {
		t.Fatalf("got %+v", cmds)
	}
}

func TestExtractMalformedLineSkipped(t *testing.T) {
	path := writeJSONL(t,
		"this is not json at all",
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_ok","name":"Bash","input":{"command":"ls"}}]}}`,
	)
	cmds, err := ExtractCommands(path)
	if err != nil {
		t.Fatalf("ExtractCommands failed: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Command != "ls" {
		t.Fatalf("got %+v", cmds)
	}
}

func TestEncodeProjectPath(t *testing.T) {
	if got := EncodeProjectPath("/Users/foo/bar"); got != "-Users-foo-bar" {
		t.Errorf("got %q", got)
	}
	if got := EncodeProjectPath("/Users/foo/bar/"); got != "-Users-foo-bar-" {
		t.Errorf("got %q", got)
	}
}

func TestExtractOutputContentAndErrorFlag(t *testing.T) {
	path := writeJSONL(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_abc","name":"Bash","input":{"command":"git commit --ammend"}}]}}`,
		`{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_abc","content":"error: unexpected argument '--ammend'","is_error":true}]}}`,
	)
	cmds, err := ExtractCommands(path)
	if err != nil {
		t.Fatalf("ExtractCommands failed: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if !cmds[0].IsError {
		t.Error("expected is_error=true")
	}
	if cmds[0].OutputContent == nil || *cmds[0].OutputContent != "error: unexpected argument '--ammend'" {
		t.Errorf("got output content %v", cmds[0].OutputContent)
	}
}

func TestExtractSequenceOrdering(t *testing.T) {
	path := writeJSONL(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_1","name":"Bash","input":{"command":"first"}},{"type":"tool_use","id":"toolu_2","name":"Bash","input":{"command":"second"}},{"type":"tool_use","id":"toolu_3","name":"Bash","input":{"command":"third"}}]}}`,
	)
	cmds, err := ExtractCommands(path)
	if err != nil {
		t.Fatalf("ExtractCommands failed: %v", err)
	}
	if len(cmds) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(cmds))
	}
	for i, want := range []string{"first", "second", "third"} {
		if cmds[i].SequenceIndex != i || cmds[i].Command != want {
			t.Errorf("index %d: got %+v", i, cmds[i])
		}
	}
}
