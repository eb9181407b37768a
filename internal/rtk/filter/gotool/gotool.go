// Package gotool implements the go filter: `go test`, `go build`, and
// `go vet`, re-emitted as a compact structured summary instead of raw
// `go test -v` or build-error noise.
//
// Grounded on original_source/rtk/src/go_cmd.rs: the NDJSON event-folding
// logic for `go test -json`, the relevant-line filter for build/vet
// output, and compact_package_name are ported directly; rendering goes
// through the shared parseresult/formatter pipeline (§4.1) rather than
// go_cmd.rs's own ad-hoc string building, so the go filter behaves like
// every other filter in the registry.
package gotool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rtk-proxy/rtk/internal/rtk/filter"
	"github.com/rtk-proxy/rtk/internal/rtk/formatter"
	"github.com/rtk-proxy/rtk/internal/rtk/parseresult"
	"github.com/rtk-proxy/rtk/internal/rtk/textutil"
	"github.com/rtk-proxy/rtk/internal/rtk/types"
)

const toolName = "go"

// goTestEvent mirrors `go test -json`'s line-delimited event schema
// (encoding/testing/json in the Go standard library): one JSON object per
// test lifecycle event.
type goTestEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
	Output  string  `json:"Output"`
}

// Filter implements filter.Filter for the go toolchain.
type Filter struct{}

// New returns a ready-to-register go filter.
func New() *Filter { return &Filter{} }

func (*Filter) Run(ctx context.Context, io filter.IO, args []string, mode formatter.Mode) (int, error) {
	sub := subcommand(args)
	start := time.Now()

	runArgs := args
	if sub == "test" && !hasFlag(args, "-json") {
		runArgs = append(append([]string{}, args...), "-json")
	}

	res, err := io.Runner.Run(ctx, io.Dir, "go", runArgs, 0)
	if err != nil {
		return 1, fmt.Errorf("go %s: %w", sub, err)
	}
	elapsed := time.Since(start).Milliseconds()

	var rendered string
	isPassthrough := false
	switch sub {
	case "test":
		tr, ok := filterGoTestJSON(res.Stdout)
		if ok {
			full := parseresult.Full(tr)
			rendered = formatter.Format(formatter.ForTestResult(full.Value()), mode)
		} else {
			raw := res.Stdout + res.Stderr
			filter.EmitPassthroughWarning(io.Stderr, toolName, "unrecognized go test -json output")
			rendered = filter.TruncatePassthrough(raw)
			isPassthrough = true
		}
	case "build":
		lines, _ := filterGoBuild(res.Stdout + res.Stderr)
		rendered = renderLineSummary("go build", res.ExitCode == 0, lines)
	case "vet":
		lines, _ := filterGoVet(res.Stdout + res.Stderr)
		rendered = renderLineSummary("go vet", res.ExitCode == 0, lines)
	default:
		raw := res.Stdout + res.Stderr
		filter.EmitPassthroughWarning(io.Stderr, toolName, "unrecognized go subcommand: "+sub)
		rendered = filter.TruncatePassthrough(raw)
		isPassthrough = true
	}

	fmt.Fprintln(io.Stdout, rendered)

	originalCmd := "go " + strings.Join(args, " ")
	rtkCmd := originalCmd
	inTok := textutil.EstimateTokens(res.Stdout + res.Stderr)
	outTok := textutil.EstimateTokens(rendered)
	if io.Tel != nil {
		if isPassthrough {
			_ = io.Tel.RecordPassthrough(originalCmd, rtkCmd, elapsed)
		} else {
			_ = io.Tel.Record(originalCmd, rtkCmd, inTok, outTok, elapsed)
		}
	}

	if res.TimedOut {
		return 124, nil
	}
	if res.Signaled {
		return 1, nil
	}
	return res.ExitCode, nil
}

func subcommand(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return ""
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag || strings.HasPrefix(a, flag+"=") {
			return true
		}
	}
	return false
}

// filterGoTestJSON folds a `go test -json` NDJSON stream into a canonical
// TestResult, directly porting go_cmd.rs's filter_go_test_json: count
// pass/fail/skip per test-scoped event and collect relevant output lines
// for each failing test. Package-scoped events (no Test name) are skipped,
// so no per-package totals are kept.
func filterGoTestJSON(stdout string) (types.TestResult, bool) {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var result types.TestResult
	currentOutput := make(map[string][]string) // "package/Test" -> relevant lines
	sawEvent := false

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var ev goTestEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		sawEvent = true
		if ev.Test == "" {
			continue // package-scoped event
		}
		key := ev.Package + "/" + ev.Test

		switch ev.Action {
		case "pass":
			result.Passed++
		case "fail":
			result.Failed++
			result.Failures = append(result.Failures, types.TestFailure{
				TestName:     ev.Test,
				FilePath:     compactPackageName(ev.Package),
				ErrorMessage: joinRelevant(currentOutput[key]),
			})
		case "skip":
			result.Skipped++
		case "output":
			if isRelevantGoTestLine(ev.Output) {
				lines := currentOutput[key]
				if len(lines) < 5 {
					lines = append(lines, truncateLine(ev.Output, 100))
				}
				currentOutput[key] = lines
			}
		}
	}
	if !sawEvent {
		return types.TestResult{}, false
	}
	result.Total = result.Passed + result.Failed + result.Skipped
	return result, true
}

// isRelevantGoTestLine mirrors go_cmd.rs's relevant-line filter: keep
// error/expected/got/panic/"at "-prefixed lines, drop RUN/FAIL banners.
func isRelevantGoTestLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "=== RUN") || strings.HasPrefix(trimmed, "--- FAIL") {
		return false
	}
	lower := strings.ToLower(trimmed)
	switch {
	case strings.Contains(lower, "error"),
		strings.Contains(lower, "expected"),
		strings.Contains(lower, "got"),
		strings.Contains(lower, "panic"),
		strings.HasPrefix(trimmed, "at "):
		return true
	}
	return false
}

func joinRelevant(lines []string) string {
	return strings.Join(lines, "; ")
}

func truncateLine(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// filterGoBuild mirrors go_cmd.rs's filter_go_build: keep lines mentioning
// error/.go:/undefined/cannot, drop bare `#` package markers, cap at 20
// lines with a "+N more errors" summary line.
func filterGoBuild(output string) ([]string, int) {
	var kept []string
	var dropped int
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		lower := strings.ToLower(trimmed)
		if strings.Contains(lower, "error") || strings.Contains(trimmed, ".go:") ||
			strings.Contains(lower, "undefined") || strings.Contains(lower, "cannot") {
			if len(kept) < 20 {
				kept = append(kept, trimmed)
			} else {
				dropped++
			}
		}
	}
	if dropped > 0 {
		kept = append(kept, fmt.Sprintf("+%d more errors", dropped))
	}
	return kept, dropped
}

// filterGoVet mirrors go_cmd.rs's filter_go_vet: keep `.go:`-containing
// non-`#` lines, cap at 20.
func filterGoVet(output string) ([]string, int) {
	var kept []string
	var dropped int
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.Contains(trimmed, ".go:") {
			if len(kept) < 20 {
				kept = append(kept, trimmed)
			} else {
				dropped++
			}
		}
	}
	if dropped > 0 {
		kept = append(kept, fmt.Sprintf("+%d more issues", dropped))
	}
	return kept, dropped
}

// compactPackageName mirrors go_cmd.rs's compact_package_name: keep only
// the last two path segments of a package import path.
func compactPackageName(pkg string) string {
	parts := strings.Split(pkg, "/")
	if len(parts) <= 2 {
		return pkg
	}
	return strings.Join(parts[len(parts)-2:], "/")
}

func renderLineSummary(label string, success bool, lines []string) string {
	if success && len(lines) == 0 {
		return fmt.Sprintf("%s: ✓ success", label)
	}
	var b strings.Builder
	status := "✓ success"
	if !success {
		status = "✗ failed"
	}
	fmt.Fprintf(&b, "%s: %s\n", label, status)
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
