package hook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHookAlreadyPresentExactMatch(t *testing.T) {
	root := map[string]any{
		"hooks": map[string]any{
			"PreToolUse": []any{
				map[string]any{
					"matcher": "Bash",
					"hooks": []any{
						map[string]any{"type": "command", "command": "/home/u/.claude/hooks/rtk-rewrite.sh"},
					},
				},
			},
		},
	}
	if !hookAlreadyPresent(root, "/home/u/.claude/hooks/rtk-rewrite.sh") {
		t.Fatal("expected hook to be detected as present")
	}
}

func TestHookAlreadyPresentDifferentPathSameScript(t *testing.T) {
	root := map[string]any{
		"hooks": map[string]any{
			"PreToolUse": []any{
				map[string]any{
					"matcher": "Bash",
					"hooks": []any{
						map[string]any{"type": "command", "command": "/other/path/rtk-rewrite.sh"},
					},
				},
			},
		},
	}
	if !hookAlreadyPresent(root, "/home/u/.claude/hooks/rtk-rewrite.sh") {
		t.Fatal("expected hook to be detected as present regardless of absolute path")
	}
}

func TestHookAlreadyPresentEmptySettings(t *testing.T) {
	root := map[string]any{}
	if hookAlreadyPresent(root, "/home/u/.claude/hooks/rtk-rewrite.sh") {
		t.Fatal("expected no hook present in empty settings")
	}
}

func TestHookAlreadyPresentOtherHooksOnly(t *testing.T) {
	root := map[string]any{
		"hooks": map[string]any{
			"PreToolUse": []any{
				map[string]any{
					"matcher": "Bash",
					"hooks": []any{
						map[string]any{"type": "command", "command": "/some/other/hook.sh"},
					},
				},
			},
		},
	}
	if hookAlreadyPresent(root, "/home/u/.claude/hooks/rtk-rewrite.sh") {
		t.Fatal("expected rtk hook not to be detected among unrelated hooks")
	}
}

func TestInsertHookEntryEmptyRoot(t *testing.T) {
	root := map[string]any{}
	insertHookEntry(root, "/h/rtk-rewrite.sh")
	if !hookAlreadyPresent(root, "/h/rtk-rewrite.sh") {
		t.Fatal("expected inserted hook to be detected")
	}
}

func TestInsertHookEntryPreservesExistingHooks(t *testing.T) {
	root := map[string]any{
		"hooks": map[string]any{
			"PreToolUse": []any{
				map[string]any{
					"matcher": "Write",
					"hooks": []any{
						map[string]any{"type": "command", "command": "/other/hook.sh"},
					},
				},
			},
		},
	}
	insertHookEntry(root, "/h/rtk-rewrite.sh")

	hooksVal := root["hooks"].(map[string]any)
	preToolUse := hooksVal["PreToolUse"].([]any)
	if len(preToolUse) != 2 {
		t.Fatalf("expected 2 PreToolUse entries, got %d", len(preToolUse))
	}
	if !hookAlreadyPresent(root, "/h/rtk-rewrite.sh") {
		t.Fatal("expected rtk hook present after insert")
	}
}

func TestInsertHookEntryPreservesOtherTopLevelKeys(t *testing.T) {
	root := map[string]any{
		"theme": "dark",
	}
	insertHookEntry(root, "/h/rtk-rewrite.sh")
	if root["theme"] != "dark" {
		t.Fatal("expected unrelated top-level key to survive insert")
	}
}

func TestAtomicWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	if err := atomicWrite(path, `{"a":1}`); err != nil {
		t.Fatalf("atomicWrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("unexpected content: %q", data)
	}

	if err := atomicWrite(path, `{"a":2}`); err != nil {
		t.Fatalf("atomicWrite overwrite: %v", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back after overwrite: %v", err)
	}
	if string(data) != `{"a":2}` {
		t.Fatalf("unexpected content after overwrite: %q", data)
	}
}

func TestCleanDoubleBlanksCollapsesRuns(t *testing.T) {
	input := "a\n\n\n\n\nb"
	got := cleanDoubleBlanks(input)
	want := "a\n\n\nb"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCleanDoubleBlanksPreservesSingleBlank(t *testing.T) {
	input := "a\n\nb"
	got := cleanDoubleBlanks(input)
	if got != input {
		t.Fatalf("expected single blank line preserved, got %q", got)
	}
}

func TestRemoveHookFromJSON(t *testing.T) {
	root := map[string]any{
		"hooks": map[string]any{
			"PreToolUse": []any{
				map[string]any{
					"matcher": "Bash",
					"hooks": []any{
						map[string]any{"type": "command", "command": "/h/rtk-rewrite.sh"},
					},
				},
				map[string]any{
					"matcher": "Write",
					"hooks": []any{
						map[string]any{"type": "command", "command": "/other/hook.sh"},
					},
				},
			},
		},
	}
	removed := removeHookFromJSON(root)
	if !removed {
		t.Fatal("expected rtk hook to be removed")
	}
	if hookAlreadyPresent(root, "/h/rtk-rewrite.sh") {
		t.Fatal("expected rtk hook gone after removal")
	}
	hooksVal := root["hooks"].(map[string]any)
	preToolUse := hooksVal["PreToolUse"].([]any)
	if len(preToolUse) != 1 {
		t.Fatalf("expected other hook preserved, got %d entries", len(preToolUse))
	}
}

func TestRemoveHookFromJSONNotPresent(t *testing.T) {
	root := map[string]any{
		"hooks": map[string]any{
			"PreToolUse": []any{
				map[string]any{
					"matcher": "Write",
					"hooks": []any{
						map[string]any{"type": "command", "command": "/other/hook.sh"},
					},
				},
			},
		},
	}
	if removeHookFromJSON(root) {
		t.Fatal("expected no removal when rtk hook isn't present")
	}
}

func TestRemoveRTKBlockMigratesLegacyInjection(t *testing.T) {
	content := "# My Project\n\n<!-- rtk-instructions v1 -->\nold stuff here\n<!-- /rtk-instructions -->\n\nMore notes.\n"
	result, migrated := removeRTKBlock(content)
	if !migrated {
		t.Fatal("expected migration to be detected")
	}
	if strings.Contains(result, "rtk-instructions") {
		t.Fatalf("expected legacy block removed, got %q", result)
	}
	if !strings.Contains(result, "# My Project") || !strings.Contains(result, "More notes.") {
		t.Fatalf("expected surrounding content preserved, got %q", result)
	}
}

func TestRemoveRTKBlockMissingEndMarkerWarns(t *testing.T) {
	content := "# My Project\n\n<!-- rtk-instructions v1 -->\nunterminated\n"
	result, migrated := removeRTKBlock(content)
	if migrated {
		t.Fatal("expected no migration when end marker is missing")
	}
	if result != content {
		t.Fatal("expected content unchanged when end marker is missing")
	}
}

func TestRemoveRTKBlockNoBlockPresent(t *testing.T) {
	content := "# My Project\n\nNothing rtk-related here.\n"
	result, migrated := removeRTKBlock(content)
	if migrated {
		t.Fatal("expected no migration when no block is present")
	}
	if result != content {
		t.Fatal("expected content unchanged")
	}
}

func TestWriteIfChangedSkipsIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "RTK.md")

	changed, err := writeIfChanged(path, "hello\n", "RTK.md", 0)
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	if !changed {
		t.Fatal("expected first write to report changed")
	}

	changed, err = writeIfChanged(path, "hello\n", "RTK.md", 0)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if changed {
		t.Fatal("expected identical content to report unchanged")
	}
}

func TestValidateSettingsShapeRejectsMalformedHooksEntry(t *testing.T) {
	root := map[string]any{
		"hooks": map[string]any{
			"PreToolUse": []any{
				map[string]any{
					"matcher": "Bash",
					"hooks": []any{
						map[string]any{"type": "command"},
					},
				},
			},
		},
	}
	if err := ValidateSettingsShape(root); err == nil {
		t.Fatal("expected validation error for hook entry missing command")
	}
}

func TestValidateSettingsShapeAcceptsWellFormed(t *testing.T) {
	root := map[string]any{
		"hooks": map[string]any{
			"PreToolUse": []any{
				map[string]any{
					"matcher": "Bash",
					"hooks": []any{
						map[string]any{"type": "command", "command": "/h/rtk-rewrite.sh"},
					},
				},
			},
		},
	}
	if err := ValidateSettingsShape(root); err != nil {
		t.Fatalf("expected well-formed settings to validate, got %v", err)
	}
}
