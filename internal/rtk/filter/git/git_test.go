package git

import (
	"strings"
	"testing"
)

func TestCompactDiffIncludesFileAndCounts(t *testing.T) {
	diff := "diff --git a/foo.go b/foo.go\n--- a/foo.go\n+++ b/foo.go\n@@ -1,3 +1,4 @@\n fn main() {\n+    println()\n }\n"
	result := compactDiff(diff, 100)
	if !strings.Contains(result, "foo.go") {
		t.Errorf("expected file name in output, got %q", result)
	}
	if !strings.Contains(result, "+1 -0") {
		t.Errorf("expected +1 -0 count, got %q", result)
	}
}

func TestFilterBranchOutputSeparatesRemoteOnly(t *testing.T) {
	output := "* main\n  feature/auth\n  fix/bug-123\n  remotes/origin/HEAD -> origin/main\n  remotes/origin/main\n  remotes/origin/feature/auth\n  remotes/origin/release/v2\n"
	result := filterBranchOutput(output)
	if !strings.Contains(result, "* main") || !strings.Contains(result, "feature/auth") || !strings.Contains(result, "fix/bug-123") {
		t.Fatalf("expected local branches preserved, got %q", result)
	}
	if !strings.Contains(result, "remote-only") || !strings.Contains(result, "release/v2") {
		t.Fatalf("expected remote-only section with release/v2, got %q", result)
	}
}

func TestFilterBranchOutputNoRemotes(t *testing.T) {
	result := filterBranchOutput("* main\n  develop\n")
	if !strings.Contains(result, "* main") || !strings.Contains(result, "develop") {
		t.Fatalf("got %q", result)
	}
	if strings.Contains(result, "remote-only") {
		t.Fatalf("expected no remote-only section, got %q", result)
	}
}

func TestFilterStashListStripsWipPrefix(t *testing.T) {
	output := "stash@{0}: WIP on main: abc1234 fix login\nstash@{1}: On feature: def5678 wip\n"
	result := filterStashList(output)
	if !strings.Contains(result, "stash@{0}: abc1234 fix login") {
		t.Fatalf("got %q", result)
	}
	if !strings.Contains(result, "stash@{1}: def5678 wip") {
		t.Fatalf("got %q", result)
	}
}

func TestFormatStatusOutputCleanTree(t *testing.T) {
	result := formatStatusOutput("")
	if result != "Clean working tree" {
		t.Fatalf("got %q", result)
	}
}

func TestFormatStatusOutputMixedChanges(t *testing.T) {
	porcelain := "## main\nM  staged.go\n M modified.go\nA  added.go\n?? untracked.txt\n"
	result := formatStatusOutput(porcelain)
	if !strings.Contains(result, "main") {
		t.Fatalf("expected branch in output, got %q", result)
	}
	if !strings.Contains(result, "Staged: 2 files") || !strings.Contains(result, "staged.go") || !strings.Contains(result, "added.go") {
		t.Fatalf("expected staged group, got %q", result)
	}
	if !strings.Contains(result, "Modified: 1 files") || !strings.Contains(result, "modified.go") {
		t.Fatalf("expected modified group, got %q", result)
	}
	if !strings.Contains(result, "Untracked: 1 files") || !strings.Contains(result, "untracked.txt") {
		t.Fatalf("expected untracked group, got %q", result)
	}
}

func TestFormatStatusOutputTruncatesLongGroups(t *testing.T) {
	porcelain := "## main\nM  file1.go\nM  file2.go\nM  file3.go\nM  file4.go\nM  file5.go\nM  file6.go\nM  file7.go\n"
	result := formatStatusOutput(porcelain)
	if !strings.Contains(result, "Staged: 7 files") {
		t.Fatalf("got %q", result)
	}
	if !strings.Contains(result, "file5.go") {
		t.Fatalf("expected first 5 files shown, got %q", result)
	}
	if strings.Contains(result, "file6.go") || strings.Contains(result, "file7.go") {
		t.Fatalf("expected files beyond cap to be dropped, got %q", result)
	}
	if !strings.Contains(result, "+2 more") {
		t.Fatalf("expected truncation marker, got %q", result)
	}
}

func TestFilterStatusWithArgsStripsHints(t *testing.T) {
	output := "On branch main\n  (use \"git add <file>...\" to update what will be committed)\n\tmodified:   src/main.go\n"
	result := filterStatusWithArgs(output)
	if !strings.Contains(result, "On branch main") || !strings.Contains(result, "modified:   src/main.go") {
		t.Fatalf("got %q", result)
	}
	if strings.Contains(result, "(use \"git") {
		t.Fatalf("expected hint line stripped, got %q", result)
	}
}

func TestFilterLogOutputCapsLinesAndTruncates(t *testing.T) {
	longLine := "abc1234 " + strings.Repeat("x", 100) + " (2 days ago) <author>"
	result := filterLogOutput(longLine, 10)
	if len(result) > 81 {
		t.Fatalf("expected line truncated to ~80 chars, got %d chars", len(result))
	}
	if !strings.Contains(result, "...") {
		t.Fatalf("expected ellipsis marker, got %q", result)
	}
}

func TestFilterLogOutputCapsLineCount(t *testing.T) {
	lines := ""
	for i := 0; i < 20; i++ {
		lines += "hash message (1 day ago) <author>\n"
	}
	result := filterLogOutput(lines, 5)
	count := 1
	for _, c := range result {
		if c == '\n' {
			count++
		}
	}
	if count != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", count, result)
	}
}

func TestFilterWorktreeListCollapsesHomeDir(t *testing.T) {
	result := filterWorktreeList("/tmp/nonexistent-worktree-root  abc1234 [main]\n")
	if !strings.Contains(result, "abc1234") || !strings.Contains(result, "[main]") {
		t.Fatalf("got %q", result)
	}

	t.Setenv("HOME", "/home/tester")
	collapsed := filterWorktreeList("/home/tester/worktrees/feature  abc1234 [main]\n")
	if !strings.Contains(collapsed, "~/worktrees/feature") {
		t.Fatalf("expected home dir collapsed to ~, got %q", collapsed)
	}
}

func TestSummarizePushUpToDate(t *testing.T) {
	if got := summarizePush(runOutput{Stderr: "Everything up-to-date\n"}); got != "ok (up-to-date)" {
		t.Fatalf("got %q", got)
	}
}

func TestSummarizePushWithRef(t *testing.T) {
	got := summarizePush(runOutput{Stderr: "   abc123..def456  main -> main\n"})
	if got != "ok ✓ main" {
		t.Fatalf("got %q", got)
	}
}

func TestSummarizePullUpToDate(t *testing.T) {
	if got := summarizePull(runOutput{Stdout: "Already up to date.\n"}); got != "ok (up-to-date)" {
		t.Fatalf("got %q", got)
	}
}

func TestSummarizePullWithStats(t *testing.T) {
	got := summarizePull(runOutput{Stdout: "3 files changed, 10 insertions(+), 2 deletions(-)\n"})
	if got != "ok ✓ 3 files +10 -2" {
		t.Fatalf("got %q", got)
	}
}

func TestSummarizeFetchNewRefs(t *testing.T) {
	got := summarizeFetch(runOutput{Stderr: " * [new branch]      feature -> origin/feature\n"})
	if got != "ok fetched (1 new refs)" {
		t.Fatalf("got %q", got)
	}
}

func TestSummarizeFetchNoChanges(t *testing.T) {
	if got := summarizeFetch(runOutput{Stderr: ""}); got != "ok fetched" {
		t.Fatalf("got %q", got)
	}
}
