// Package vitest implements the vitest filter: runs `vitest run
// --reporter=json` and re-emits a compact structured summary.
//
// Grounded directly on original_source/rtk/src/vitest_cmd.rs: the JSON
// schema (VitestJsonOutput/VitestTestFile/VitestTest), the tier-1 JSON
// parse with extract_json_object prefix-stripping fallback for
// pnpm/dotenv noise, the tier-2 regex fallback (TEST_FILES_RE/TESTS_RE/
// DURATION_RE), and extract_failures_regex are all ported line for line.
package vitest

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rtk-proxy/rtk/internal/rtk/filter"
	"github.com/rtk-proxy/rtk/internal/rtk/formatter"
	"github.com/rtk-proxy/rtk/internal/rtk/parseresult"
	"github.com/rtk-proxy/rtk/internal/rtk/textutil"
	"github.com/rtk-proxy/rtk/internal/rtk/types"
)

const toolName = "vitest"

type vitestJSONOutput struct {
	TestResults     []vitestTestFile `json:"testResults"`
	NumTotalTests   int              `json:"numTotalTests"`
	NumPassedTests  int              `json:"numPassedTests"`
	NumFailedTests  int              `json:"numFailedTests"`
	NumPendingTests int              `json:"numPendingTests"`
	StartTime       *int64           `json:"startTime"`
	EndTime         *int64           `json:"endTime"`
}

type vitestTestFile struct {
	Name             string       `json:"name"`
	AssertionResults []vitestTest `json:"assertionResults"`
}

type vitestTest struct {
	FullName        string   `json:"fullName"`
	Status          string   `json:"status"`
	FailureMessages []string `json:"failureMessages"`
}

var (
	testFilesRe = regexp.MustCompile(`Test Files\s+(?:(\d+)\s+failed\s+\|\s+)?(\d+)\s+passed`)
	testsRe     = regexp.MustCompile(`Tests\s+(?:(\d+)\s+failed\s+\|\s+)?(\d+)\s+passed`)
	durationRe  = regexp.MustCompile(`Duration\s+([\d.]+)(ms|s)`)
)

// Parse implements the three-tier parse contract for vitest's output,
// exactly mirroring VitestParser::parse.
func Parse(input string) parseresult.ParseResult[types.TestResult] {
	var raw vitestJSONOutput
	if err := json.Unmarshal([]byte(input), &raw); err == nil {
		return parseresult.Full(fromJSON(raw))
	}
	if extracted, ok := textutil.ExtractJSONObject(input); ok {
		var raw2 vitestJSONOutput
		if err := json.Unmarshal([]byte(extracted), &raw2); err == nil {
			return parseresult.Full(fromJSON(raw2))
		}
	}

	if tr, ok := extractStatsRegex(input); ok {
		return parseresult.Degraded(tr, []string{"JSON parse failed"})
	}
	return parseresult.Passthrough[types.TestResult](filter.TruncatePassthrough(input))
}

func fromJSON(j vitestJSONOutput) types.TestResult {
	var durationMs *int64
	if j.StartTime != nil && j.EndTime != nil {
		d := *j.EndTime - *j.StartTime
		if d < 0 {
			d = 0
		}
		durationMs = &d
	}
	var failures []types.TestFailure
	for _, file := range j.TestResults {
		for _, test := range file.AssertionResults {
			if test.Status == "failed" {
				msg := strings.Join(test.FailureMessages, "\n")
				failures = append(failures, types.TestFailure{
					TestName:     test.FullName,
					FilePath:     file.Name,
					ErrorMessage: msg,
				})
			}
		}
	}
	return types.TestResult{
		Total:       j.NumTotalTests,
		Passed:      j.NumPassedTests,
		Failed:      j.NumFailedTests,
		Skipped:     j.NumPendingTests,
		DurationMs:  durationMs,
		Failures:    failures,
	}
}

func extractStatsRegex(output string) (types.TestResult, bool) {
	clean := textutil.StripANSI(output)

	var passed, failed, total int
	if m := testsRe.FindStringSubmatch(clean); m != nil {
		if m[1] != "" {
			failed, _ = strconv.Atoi(m[1])
		}
		if m[2] != "" {
			passed, _ = strconv.Atoi(m[2])
		}
		total = passed + failed
	}

	var durationMs *int64
	if m := durationRe.FindStringSubmatch(clean); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			var ms int64
			if m[2] == "ms" {
				ms = int64(value)
			} else {
				ms = int64(value * 1000.0)
			}
			durationMs = &ms
		}
	}

	if total == 0 {
		return types.TestResult{}, false
	}
	return types.TestResult{
		Total:      total,
		Passed:     passed,
		Failed:     failed,
		Skipped:    0,
		DurationMs: durationMs,
		Failures:   extractFailuresRegex(clean),
	}, true
}

func extractFailuresRegex(output string) []types.TestFailure {
	var failures []types.TestFailure
	lines := strings.Split(output, "\n")
	for i := 0; i < len(lines); {
		line := lines[i]
		if strings.Contains(line, "✗") || strings.Contains(line, "FAIL") {
			errorLines := []string{line}
			i++
			for i < len(lines) && strings.HasPrefix(lines[i], "  ") {
				errorLines = append(errorLines, strings.TrimSpace(lines[i]))
				i++
			}
			failures = append(failures, types.TestFailure{
				TestName:     errorLines[0],
				ErrorMessage: strings.Join(errorLines[1:], "\n"),
			})
			continue
		}
		i++
	}
	return failures
}

// Filter implements filter.Filter for vitest.
type Filter struct{}

// New returns a ready-to-register vitest filter.
func New() *Filter { return &Filter{} }

func (*Filter) Run(ctx context.Context, io filter.IO, args []string, mode formatter.Mode) (int, error) {
	runArgs := buildArgs(args)
	start := time.Now()
	res, err := io.Runner.Run(ctx, io.Dir, "vitest", runArgs, 0)
	if err != nil {
		return 1, fmt.Errorf("vitest: %w", err)
	}
	elapsed := time.Since(start).Milliseconds()

	pr := Parse(res.Stdout)
	var rendered string
	switch pr.Tier() {
	case parseresult.TierFull:
		rendered = formatter.Format(formatter.ForTestResult(pr.Value()), mode)
	case parseresult.TierDegraded:
		if mode != formatter.Compact {
			filter.EmitDegradationWarning(io.Stderr, toolName, strings.Join(pr.Warnings(), "; "))
		}
		rendered = formatter.Format(formatter.ForTestResult(pr.Value()), mode)
	default:
		filter.EmitPassthroughWarning(io.Stderr, toolName, "unrecognized vitest output")
		rendered = pr.Raw()
	}
	fmt.Fprintln(io.Stdout, rendered)

	originalCmd := "vitest " + strings.Join(args, " ")
	if io.Tel != nil {
		if pr.Tier() == parseresult.TierPassthrough {
			_ = io.Tel.RecordPassthrough(originalCmd, originalCmd, elapsed)
		} else {
			inTok := textutil.EstimateTokens(res.Stdout)
			outTok := textutil.EstimateTokens(rendered)
			_ = io.Tel.Record(originalCmd, originalCmd, inTok, outTok, elapsed)
		}
	}

	if res.TimedOut {
		return 124, nil
	}
	return res.ExitCode, nil
}

// buildArgs forces non-watch `run` mode and injects --reporter=json unless
// the caller already specified a reporter, mirroring run_vitest.
func buildArgs(args []string) []string {
	out := []string{"run"}
	hasReporter := false
	for _, a := range args {
		if a == "run" {
			continue
		}
		if strings.HasPrefix(a, "--reporter") {
			hasReporter = true
		}
		out = append(out, a)
	}
	if !hasReporter {
		out = append(out, "--reporter=json")
	}
	return out
}
