// Package git implements the git filter: status/diff/log/show get a
// compact rendering, add/commit/push/pull/branch/fetch/stash/worktree
// get an ultra-compact one-line confirmation, and any other git
// subcommand passes through unfiltered.
//
// Ported from original_source/rtk/src/git.rs: compact_diff's
// per-hunk/per-file +added/-removed summary with a 10-line-per-hunk cap,
// format_status_output's staged/modified/untracked/conflict grouping
// with per-group truncation (5 staged, 5 modified, 3 untracked),
// filter_log_output's 80-column
// truncation, filter_branch_output's local-vs-remote-only split,
// filter_stash_list's "WIP on branch:" prefix strip, and
// filter_worktree_list's home-directory tilde-collapsing.
package git

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rtk-proxy/rtk/internal/rtk/filter"
	"github.com/rtk-proxy/rtk/internal/rtk/formatter"
)

const toolName = "git"

// Filter implements filter.Filter for git.
type Filter struct{}

// New returns a ready-to-register git filter.
func New() *Filter { return &Filter{} }

func (*Filter) Run(ctx context.Context, io filter.IO, args []string, mode formatter.Mode) (int, error) {
	if len(args) == 0 {
		return runPassthrough(ctx, io, args)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "status":
		return runStatus(ctx, io, rest)
	case "diff":
		return runDiff(ctx, io, rest)
	case "show":
		return runShow(ctx, io, rest)
	case "log":
		return runLog(ctx, io, rest)
	case "add":
		return runAdd(ctx, io, rest)
	case "commit":
		return runCommit(ctx, io, rest)
	case "push":
		return runSimpleConfirm(ctx, io, "push", rest, summarizePush)
	case "pull":
		return runSimpleConfirm(ctx, io, "pull", rest, summarizePull)
	case "fetch":
		return runSimpleConfirm(ctx, io, "fetch", rest, summarizeFetch)
	case "branch":
		return runBranch(ctx, io, rest)
	case "stash":
		return runStash(ctx, io, rest)
	case "worktree":
		return runWorktree(ctx, io, rest)
	default:
		return runPassthrough(ctx, io, args)
	}
}

func hasAny(args []string, needles ...string) bool {
	for _, a := range args {
		for _, n := range needles {
			if a == n {
				return true
			}
		}
	}
	return false
}

func record(io filter.IO, original, rtkCmd, rawOutput, rendered string, elapsedMs int64) {
	if io.Tel == nil {
		return
	}
	inTok := len(rawOutput) / 4
	outTok := len(rendered) / 4
	_ = io.Tel.Record(original, rtkCmd, inTok, outTok, elapsedMs)
}

func recordPassthrough(io filter.IO, original, rtkCmd string, elapsedMs int64) {
	if io.Tel == nil {
		return
	}
	_ = io.Tel.RecordPassthrough(original, rtkCmd, elapsedMs)
}

func runPassthrough(ctx context.Context, io filter.IO, args []string) (int, error) {
	res, err := io.Runner.Run(ctx, io.Dir, "git", args, 0)
	if err != nil {
		return 1, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	fmt.Fprint(io.Stdout, res.Stdout)
	fmt.Fprint(io.Stderr, res.Stderr)
	recordPassthrough(io, "git "+strings.Join(args, " "), "rtk git "+strings.Join(args, " ")+" (passthrough)", 0)
	return res.ExitCode, nil
}

func runStatus(ctx context.Context, io filter.IO, args []string) (int, error) {
	if len(args) > 0 {
		res, err := io.Runner.Run(ctx, io.Dir, "git", append([]string{"status"}, args...), 0)
		if err != nil {
			return 1, fmt.Errorf("git status: %w", err)
		}
		filtered := filterStatusWithArgs(res.Stdout)
		fmt.Fprint(io.Stdout, filtered)
		record(io, "git status "+strings.Join(args, " "), "rtk git status "+strings.Join(args, " "), res.Stdout, filtered, 0)
		return res.ExitCode, nil
	}

	res, err := io.Runner.Run(ctx, io.Dir, "git", []string{"status", "--porcelain", "-b"}, 0)
	if err != nil {
		return 1, fmt.Errorf("git status: %w", err)
	}
	var formatted string
	if strings.Contains(res.Stderr, "not a git repository") {
		formatted = "Not a git repository"
	} else {
		formatted = formatStatusOutput(res.Stdout)
	}
	fmt.Fprintln(io.Stdout, formatted)
	record(io, "git status", "rtk git status", res.Stdout, formatted, 0)
	return res.ExitCode, nil
}

func filterStatusWithArgs(output string) string {
	var result []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, `(use "git`) ||
			strings.HasPrefix(trimmed, "(create/copy files") ||
			strings.Contains(trimmed, `(use "git add`) ||
			strings.Contains(trimmed, `(use "git restore`) {
			continue
		}
		if strings.Contains(trimmed, "nothing to commit") && strings.Contains(trimmed, "working tree clean") {
			result = append(result, trimmed)
			break
		}
		result = append(result, line)
	}
	if len(result) == 0 {
		return "ok ✓"
	}
	return strings.Join(result, "\n")
}

func formatStatusOutput(porcelain string) string {
	lines := strings.Split(strings.TrimRight(porcelain, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return "Clean working tree"
	}

	var b strings.Builder
	if strings.HasPrefix(lines[0], "##") {
		fmt.Fprintf(&b, "[branch] %s\n", strings.TrimPrefix(lines[0], "## "))
		lines = lines[1:]
	}

	var stagedFiles, modifiedFiles, untrackedFiles []string
	conflicts := 0

	for _, line := range lines {
		if len(line) < 3 {
			continue
		}
		status := line[:2]
		file := line[3:]

		switch status[0] {
		case 'M', 'A', 'D', 'R', 'C':
			stagedFiles = append(stagedFiles, file)
		case 'U':
			conflicts++
		}
		if len(status) > 1 {
			switch status[1] {
			case 'M', 'D':
				modifiedFiles = append(modifiedFiles, file)
			}
		}
		if status == "??" {
			untrackedFiles = append(untrackedFiles, file)
		}
	}

	appendGroup(&b, "Staged", stagedFiles, 5)
	appendGroup(&b, "Modified", modifiedFiles, 5)
	appendGroup(&b, "Untracked", untrackedFiles, 3)
	if conflicts > 0 {
		fmt.Fprintf(&b, "Conflicts: %d\n", conflicts)
	}

	return strings.TrimRight(b.String(), "\n")
}

func appendGroup(b *strings.Builder, label string, files []string, cap int) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %d files\n", label, len(files))
	for i, f := range files {
		if i >= cap {
			fmt.Fprintf(b, "   ... +%d more\n", len(files)-cap)
			break
		}
		fmt.Fprintf(b, "   %s\n", f)
	}
}

func runDiff(ctx context.Context, io filter.IO, args []string) (int, error) {
	wantsStat := hasAny(args, "--stat", "--numstat", "--shortstat")
	wantsCompact := !hasAny(args, "--no-compact")

	if wantsStat || !wantsCompact {
		runArgs := append([]string{"diff"}, args...)
		res, err := io.Runner.Run(ctx, io.Dir, "git", runArgs, 0)
		if err != nil {
			return 1, fmt.Errorf("git diff: %w", err)
		}
		out := strings.TrimSpace(res.Stdout)
		fmt.Fprintln(io.Stdout, out)
		recordPassthrough(io, "git diff "+strings.Join(args, " "), "rtk git diff "+strings.Join(args, " ")+" (passthrough)", 0)
		return res.ExitCode, nil
	}

	statRes, err := io.Runner.Run(ctx, io.Dir, "git", append([]string{"diff", "--stat"}, args...), 0)
	if err != nil {
		return 1, fmt.Errorf("git diff --stat: %w", err)
	}
	fmt.Fprintln(io.Stdout, strings.TrimSpace(statRes.Stdout))

	diffRes, err := io.Runner.Run(ctx, io.Dir, "git", append([]string{"diff"}, args...), 0)
	if err != nil {
		return 1, fmt.Errorf("git diff: %w", err)
	}

	final := statRes.Stdout
	if diffRes.Stdout != "" {
		fmt.Fprintln(io.Stdout, "\n--- Changes ---")
		compacted := compactDiff(diffRes.Stdout, 100)
		fmt.Fprintln(io.Stdout, compacted)
		final += "\n--- Changes ---\n" + compacted
	}

	record(io, "git diff "+strings.Join(args, " "), "rtk git diff "+strings.Join(args, " "), statRes.Stdout+diffRes.Stdout, final, 0)
	return diffRes.ExitCode, nil
}

func compactDiff(diff string, maxLines int) string {
	var result []string
	currentFile := ""
	added, removed := 0, 0
	inHunk := false
	hunkLines := 0
	const maxHunkLines = 10

	flushCounts := func() {
		if currentFile != "" && (added > 0 || removed > 0) {
			result = append(result, fmt.Sprintf("  +%d -%d", added, removed))
		}
	}

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") {
			flushCounts()
			idx := strings.Index(line, " b/")
			if idx >= 0 {
				currentFile = line[idx+3:]
			} else {
				currentFile = "unknown"
			}
			result = append(result, "\n"+currentFile)
			added, removed = 0, 0
			inHunk = false
		} else if strings.HasPrefix(line, "@@") {
			inHunk = true
			hunkLines = 0
			parts := strings.SplitN(line, "@@", 3)
			info := ""
			if len(parts) >= 2 {
				info = strings.TrimSpace(parts[1])
			}
			result = append(result, fmt.Sprintf("  @@ %s @@", info))
		} else if inHunk {
			switch {
			case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
				added++
				if hunkLines < maxHunkLines {
					result = append(result, "  "+line)
					hunkLines++
				}
			case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
				removed++
				if hunkLines < maxHunkLines {
					result = append(result, "  "+line)
					hunkLines++
				}
			case hunkLines < maxHunkLines && !strings.HasPrefix(line, "\\"):
				if hunkLines > 0 {
					result = append(result, "  "+line)
					hunkLines++
				}
			}
			if hunkLines == maxHunkLines {
				result = append(result, "  ... (truncated)")
				hunkLines++
			}
		}

		if len(result) >= maxLines {
			result = append(result, "\n... (more changes truncated)")
			break
		}
	}
	flushCounts()

	return strings.Join(result, "\n")
}

func runShow(ctx context.Context, io filter.IO, args []string) (int, error) {
	wantsStatOnly := hasAny(args, "--stat", "--numstat", "--shortstat")
	wantsFormat := false
	for _, a := range args {
		if strings.HasPrefix(a, "--pretty") || strings.HasPrefix(a, "--format") {
			wantsFormat = true
		}
	}

	if wantsStatOnly || wantsFormat {
		res, err := io.Runner.Run(ctx, io.Dir, "git", append([]string{"show"}, args...), 0)
		if err != nil {
			return 1, fmt.Errorf("git show: %w", err)
		}
		fmt.Fprintln(io.Stdout, strings.TrimSpace(res.Stdout))
		recordPassthrough(io, "git show "+strings.Join(args, " "), "rtk git show "+strings.Join(args, " ")+" (passthrough)", 0)
		return res.ExitCode, nil
	}

	rawRes, _ := io.Runner.Run(ctx, io.Dir, "git", append([]string{"show"}, args...), 0)

	summaryArgs := append([]string{"show", "--no-patch", "--pretty=format:%h %s (%ar) <%an>"}, args...)
	summaryRes, err := io.Runner.Run(ctx, io.Dir, "git", summaryArgs, 0)
	if err != nil {
		return 1, fmt.Errorf("git show: %w", err)
	}
	summary := strings.TrimSpace(summaryRes.Stdout)
	fmt.Fprintln(io.Stdout, summary)

	statArgs := append([]string{"show", "--stat", "--pretty=format:"}, args...)
	statRes, _ := io.Runner.Run(ctx, io.Dir, "git", statArgs, 0)
	statText := strings.TrimSpace(statRes.Stdout)
	if statText != "" {
		fmt.Fprintln(io.Stdout, statText)
	}

	diffArgs := append([]string{"show", "--pretty=format:"}, args...)
	diffRes, _ := io.Runner.Run(ctx, io.Dir, "git", diffArgs, 0)
	diffText := strings.TrimSpace(diffRes.Stdout)

	final := summary
	if diffText != "" {
		compacted := compactDiff(diffText, 100)
		fmt.Fprintln(io.Stdout, compacted)
		final += "\n" + compacted
	}

	record(io, "git show "+strings.Join(args, " "), "rtk git show "+strings.Join(args, " "), rawRes.Stdout, final, 0)
	return summaryRes.ExitCode, nil
}

func runLog(ctx context.Context, io filter.IO, args []string) (int, error) {
	hasFormatFlag := false
	hasLimitFlag := false
	wantsMerges := hasAny(args, "--merges", "--min-parents=2")
	limit := 10

	for _, a := range args {
		if strings.HasPrefix(a, "--oneline") || strings.HasPrefix(a, "--pretty") || strings.HasPrefix(a, "--format") {
			hasFormatFlag = true
		}
		if strings.HasPrefix(a, "-") && len(a) > 1 && a[1] >= '0' && a[1] <= '9' {
			hasLimitFlag = true
			if n, err := strconv.Atoi(a[1:]); err == nil {
				limit = n
			}
		}
	}

	runArgs := []string{"log"}
	if !hasFormatFlag {
		runArgs = append(runArgs, "--pretty=format:%h %s (%ar) <%an>")
	}
	if !hasLimitFlag {
		runArgs = append(runArgs, "-10")
	}
	if !wantsMerges {
		runArgs = append(runArgs, "--no-merges")
	}
	runArgs = append(runArgs, args...)

	res, err := io.Runner.Run(ctx, io.Dir, "git", runArgs, 0)
	if err != nil {
		return 1, fmt.Errorf("git log: %w", err)
	}
	filtered := filterLogOutput(res.Stdout, limit)
	fmt.Fprintln(io.Stdout, filtered)
	record(io, "git log "+strings.Join(args, " "), "rtk git log "+strings.Join(args, " "), res.Stdout, filtered, 0)
	return res.ExitCode, nil
}

func filterLogOutput(output string, limit int) string {
	lines := strings.Split(output, "\n")
	if limit < len(lines) {
		lines = lines[:limit]
	}
	for i, line := range lines {
		r := []rune(line)
		if len(r) > 80 {
			lines[i] = string(r[:77]) + "..."
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func runAdd(ctx context.Context, io filter.IO, args []string) (int, error) {
	runArgs := []string{"add"}
	if len(args) == 0 {
		runArgs = append(runArgs, ".")
	} else {
		runArgs = append(runArgs, args...)
	}

	res, err := io.Runner.Run(ctx, io.Dir, "git", runArgs, 0)
	if err != nil {
		return 1, fmt.Errorf("git add: %w", err)
	}
	raw := res.Stdout + "\n" + res.Stderr

	if res.ExitCode != 0 {
		fmt.Fprintln(io.Stderr, "FAILED: git add")
		if strings.TrimSpace(res.Stderr) != "" {
			fmt.Fprintln(io.Stderr, res.Stderr)
		}
		return res.ExitCode, nil
	}

	statRes, _ := io.Runner.Run(ctx, io.Dir, "git", []string{"diff", "--cached", "--stat", "--shortstat"}, 0)
	stat := strings.TrimSpace(statRes.Stdout)
	compact := "ok (nothing to add)"
	if stat != "" {
		lines := strings.Split(stat, "\n")
		short := strings.TrimSpace(lines[len(lines)-1])
		if short != "" {
			compact = "ok ✓ " + short
		} else {
			compact = "ok ✓"
		}
	}
	fmt.Fprintln(io.Stdout, compact)
	record(io, "git add "+strings.Join(args, " "), "rtk git add "+strings.Join(args, " "), raw, compact, 0)
	return 0, nil
}

func runCommit(ctx context.Context, io filter.IO, args []string) (int, error) {
	message := ""
	for i, a := range args {
		if a == "-m" && i+1 < len(args) {
			message = args[i+1]
			break
		}
	}

	runArgs := []string{"commit"}
	if message != "" {
		runArgs = append(runArgs, "-m", message)
	} else {
		runArgs = append(runArgs, args...)
	}

	res, err := io.Runner.Run(ctx, io.Dir, "git", runArgs, 0)
	if err != nil {
		return 1, fmt.Errorf("git commit: %w", err)
	}
	raw := res.Stdout + "\n" + res.Stderr

	if res.ExitCode == 0 {
		compact := "ok ✓"
		firstLine := ""
		if idx := strings.Index(res.Stdout, "\n"); idx >= 0 {
			firstLine = res.Stdout[:idx]
		} else {
			firstLine = res.Stdout
		}
		if sp := strings.Index(firstLine, " "); sp > 1 {
			inner := firstLine[1:sp]
			fields := strings.Fields(inner)
			hash := ""
			if len(fields) > 0 {
				hash = fields[len(fields)-1]
			}
			if len(hash) >= 7 {
				compact = "ok ✓ " + hash[:7]
			}
		}
		fmt.Fprintln(io.Stdout, compact)
		record(io, "git commit -m \""+message+"\"", "rtk git commit", raw, compact, 0)
		return 0, nil
	}

	if strings.Contains(res.Stderr, "nothing to commit") || strings.Contains(res.Stdout, "nothing to commit") {
		fmt.Fprintln(io.Stdout, "ok (nothing to commit)")
		record(io, "git commit -m \""+message+"\"", "rtk git commit", raw, "ok (nothing to commit)", 0)
		return 0, nil
	}

	fmt.Fprintln(io.Stderr, "FAILED: git commit")
	if strings.TrimSpace(res.Stderr) != "" {
		fmt.Fprintln(io.Stderr, res.Stderr)
	}
	return res.ExitCode, nil
}

func runSimpleConfirm(ctx context.Context, io filter.IO, sub string, args []string, summarize func(res runOutput) string) (int, error) {
	runArgs := append([]string{sub}, args...)
	res, err := io.Runner.Run(ctx, io.Dir, "git", runArgs, 0)
	if err != nil {
		return 1, fmt.Errorf("git %s: %w", sub, err)
	}
	raw := res.Stdout + res.Stderr

	if res.ExitCode != 0 {
		fmt.Fprintf(io.Stderr, "FAILED: git %s\n", sub)
		if strings.TrimSpace(res.Stderr) != "" {
			fmt.Fprintln(io.Stderr, res.Stderr)
		}
		return res.ExitCode, nil
	}

	compact := summarize(runOutput{Stdout: res.Stdout, Stderr: res.Stderr})
	fmt.Fprintln(io.Stdout, compact)
	record(io, "git "+sub+" "+strings.Join(args, " "), "rtk git "+sub+" "+strings.Join(args, " "), raw, compact, 0)
	return 0, nil
}

// runOutput is the minimal shape a summarize func needs from an exec.Result.
type runOutput struct {
	Stdout, Stderr string
}

func summarizePush(res runOutput) string {
	if strings.Contains(res.Stderr, "Everything up-to-date") {
		return "ok (up-to-date)"
	}
	for _, line := range strings.Split(res.Stderr, "\n") {
		if strings.Contains(line, "->") {
			parts := strings.Fields(line)
			if len(parts) >= 3 {
				return "ok ✓ " + parts[len(parts)-1]
			}
		}
	}
	return "ok ✓"
}

func summarizePull(res runOutput) string {
	if strings.Contains(res.Stdout, "Already up to date") || strings.Contains(res.Stdout, "Already up-to-date") {
		return "ok (up-to-date)"
	}
	files, insertions, deletions := 0, 0, 0
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.Contains(line, "file") && strings.Contains(line, "changed") {
			for _, part := range strings.Split(line, ",") {
				part = strings.TrimSpace(part)
				fields := strings.Fields(part)
				if len(fields) == 0 {
					continue
				}
				n, _ := strconv.Atoi(fields[0])
				switch {
				case strings.Contains(part, "file"):
					files = n
				case strings.Contains(part, "insertion"):
					insertions = n
				case strings.Contains(part, "deletion"):
					deletions = n
				}
			}
		}
	}
	if files > 0 {
		return fmt.Sprintf("ok ✓ %d files +%d -%d", files, insertions, deletions)
	}
	return "ok ✓"
}

func summarizeFetch(res runOutput) string {
	newRefs := 0
	for _, line := range strings.Split(res.Stderr, "\n") {
		if strings.Contains(line, "->") || strings.Contains(line, "[new") {
			newRefs++
		}
	}
	if newRefs > 0 {
		return fmt.Sprintf("ok fetched (%d new refs)", newRefs)
	}
	return "ok fetched"
}

func runBranch(ctx context.Context, io filter.IO, args []string) (int, error) {
	hasActionFlag := hasAny(args, "-d", "-D", "-m", "-M", "-c", "-C")

	if hasActionFlag {
		res, err := io.Runner.Run(ctx, io.Dir, "git", append([]string{"branch"}, args...), 0)
		if err != nil {
			return 1, fmt.Errorf("git branch: %w", err)
		}
		combined := res.Stdout + res.Stderr
		if res.ExitCode == 0 {
			fmt.Fprintln(io.Stdout, "ok ✓")
			record(io, "git branch "+strings.Join(args, " "), "rtk git branch "+strings.Join(args, " "), combined, "ok ✓", 0)
		} else {
			fmt.Fprintln(io.Stderr, "FAILED: git branch")
			if strings.TrimSpace(res.Stderr) != "" {
				fmt.Fprintln(io.Stderr, res.Stderr)
			}
		}
		return res.ExitCode, nil
	}

	runArgs := append([]string{"branch", "-a", "--no-color"}, args...)
	res, err := io.Runner.Run(ctx, io.Dir, "git", runArgs, 0)
	if err != nil {
		return 1, fmt.Errorf("git branch: %w", err)
	}
	filtered := filterBranchOutput(res.Stdout)
	fmt.Fprintln(io.Stdout, filtered)
	record(io, "git branch "+strings.Join(args, " "), "rtk git branch "+strings.Join(args, " "), res.Stdout, filtered, 0)
	return res.ExitCode, nil
}

func filterBranchOutput(output string) string {
	current := ""
	var local, remote []string

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "* "):
			current = strings.TrimPrefix(line, "* ")
		case strings.HasPrefix(line, "remotes/origin/"):
			branch := strings.TrimPrefix(line, "remotes/origin/")
			if strings.HasPrefix(branch, "HEAD ") {
				continue
			}
			remote = append(remote, branch)
		default:
			local = append(local, line)
		}
	}

	result := []string{"* " + current}
	for _, b := range local {
		result = append(result, "  "+b)
	}

	if len(remote) > 0 {
		var remoteOnly []string
		for _, r := range remote {
			if r == current {
				continue
			}
			found := false
			for _, l := range local {
				if l == r {
					found = true
					break
				}
			}
			if !found {
				remoteOnly = append(remoteOnly, r)
			}
		}
		if len(remoteOnly) > 0 {
			result = append(result, fmt.Sprintf("  remote-only (%d):", len(remoteOnly)))
			for i, b := range remoteOnly {
				if i >= 10 {
					result = append(result, fmt.Sprintf("    ... +%d more", len(remoteOnly)-10))
					break
				}
				result = append(result, "    "+b)
			}
		}
	}

	return strings.Join(result, "\n")
}

func runStash(ctx context.Context, io filter.IO, args []string) (int, error) {
	sub := ""
	rest := args
	if len(args) > 0 {
		sub, rest = args[0], args[1:]
	}

	switch sub {
	case "list":
		res, err := io.Runner.Run(ctx, io.Dir, "git", []string{"stash", "list"}, 0)
		if err != nil {
			return 1, fmt.Errorf("git stash list: %w", err)
		}
		if strings.TrimSpace(res.Stdout) == "" {
			fmt.Fprintln(io.Stdout, "No stashes")
			record(io, "git stash list", "rtk git stash list", res.Stdout, "No stashes", 0)
			return res.ExitCode, nil
		}
		filtered := filterStashList(res.Stdout)
		fmt.Fprintln(io.Stdout, filtered)
		record(io, "git stash list", "rtk git stash list", res.Stdout, filtered, 0)
		return res.ExitCode, nil
	case "show":
		res, err := io.Runner.Run(ctx, io.Dir, "git", append([]string{"stash", "show", "-p"}, rest...), 0)
		if err != nil {
			return 1, fmt.Errorf("git stash show: %w", err)
		}
		filtered := "Empty stash"
		if strings.TrimSpace(res.Stdout) != "" {
			filtered = compactDiff(res.Stdout, 100)
		}
		fmt.Fprintln(io.Stdout, filtered)
		record(io, "git stash show", "rtk git stash show", res.Stdout, filtered, 0)
		return res.ExitCode, nil
	case "pop", "apply", "drop", "push":
		res, err := io.Runner.Run(ctx, io.Dir, "git", append([]string{"stash", sub}, rest...), 0)
		if err != nil {
			return 1, fmt.Errorf("git stash %s: %w", sub, err)
		}
		combined := res.Stdout + res.Stderr
		if res.ExitCode == 0 {
			msg := "ok stash " + sub
			fmt.Fprintln(io.Stdout, msg)
			record(io, "git stash "+sub, "rtk git stash "+sub, combined, msg, 0)
		} else {
			fmt.Fprintf(io.Stderr, "FAILED: git stash %s\n", sub)
			if strings.TrimSpace(res.Stderr) != "" {
				fmt.Fprintln(io.Stderr, res.Stderr)
			}
		}
		return res.ExitCode, nil
	default:
		res, err := io.Runner.Run(ctx, io.Dir, "git", append([]string{"stash"}, args...), 0)
		if err != nil {
			return 1, fmt.Errorf("git stash: %w", err)
		}
		combined := res.Stdout + res.Stderr
		if res.ExitCode == 0 {
			msg := "ok stashed"
			if strings.Contains(res.Stdout, "No local changes") {
				msg = "ok (nothing to stash)"
			}
			fmt.Fprintln(io.Stdout, msg)
			record(io, "git stash", "rtk git stash", combined, msg, 0)
		} else {
			fmt.Fprintln(io.Stderr, "FAILED: git stash")
			if strings.TrimSpace(res.Stderr) != "" {
				fmt.Fprintln(io.Stderr, res.Stderr)
			}
		}
		return res.ExitCode, nil
	}
}

func filterStashList(output string) string {
	var result []string
	for _, line := range strings.Split(output, "\n") {
		colonPos := strings.Index(line, ": ")
		if colonPos < 0 {
			if line != "" {
				result = append(result, line)
			}
			continue
		}
		index := line[:colonPos]
		rest := line[colonPos+2:]
		message := rest
		if secondColon := strings.Index(rest, ": "); secondColon >= 0 {
			message = strings.TrimSpace(rest[secondColon+2:])
		} else {
			message = strings.TrimSpace(rest)
		}
		result = append(result, fmt.Sprintf("%s: %s", index, message))
	}
	return strings.Join(result, "\n")
}

func runWorktree(ctx context.Context, io filter.IO, args []string) (int, error) {
	hasAction := hasAny(args, "add", "remove", "prune", "lock", "unlock", "move")

	if hasAction {
		res, err := io.Runner.Run(ctx, io.Dir, "git", append([]string{"worktree"}, args...), 0)
		if err != nil {
			return 1, fmt.Errorf("git worktree: %w", err)
		}
		combined := res.Stdout + res.Stderr
		if res.ExitCode == 0 {
			fmt.Fprintln(io.Stdout, "ok ✓")
			record(io, "git worktree "+strings.Join(args, " "), "rtk git worktree "+strings.Join(args, " "), combined, "ok ✓", 0)
		} else {
			fmt.Fprintf(io.Stderr, "FAILED: git worktree %s\n", strings.Join(args, " "))
			if strings.TrimSpace(res.Stderr) != "" {
				fmt.Fprintln(io.Stderr, res.Stderr)
			}
		}
		return res.ExitCode, nil
	}

	res, err := io.Runner.Run(ctx, io.Dir, "git", []string{"worktree", "list"}, 0)
	if err != nil {
		return 1, fmt.Errorf("git worktree list: %w", err)
	}
	filtered := filterWorktreeList(res.Stdout)
	fmt.Fprintln(io.Stdout, filtered)
	record(io, "git worktree list", "rtk git worktree", res.Stdout, filtered, 0)
	return res.ExitCode, nil
}

func filterWorktreeList(output string) string {
	home, _ := os.UserHomeDir()

	var result []string
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 3 {
			path := parts[0]
			if home != "" && strings.HasPrefix(path, home) {
				path = "~" + path[len(home):]
			}
			hash := parts[1]
			branch := strings.Join(parts[2:], " ")
			result = append(result, fmt.Sprintf("%s %s %s", path, hash, branch))
		} else {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
