// Package formatter renders canonical types (internal/rtk/types) into
// token-dense strings at one of three verbosities, directly mirroring the
// original rtk implementation's TokenFormatter trait (parser/formatter.rs).
package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rtk-proxy/rtk/internal/rtk/types"
)

// Mode selects which of the three renderings TokenFormatter.Format produces.
type Mode int

const (
	// Compact is the default: summary + top-N issues.
	Compact Mode = iota
	// Verbose includes all fields and more context.
	Verbose
	// Ultra is a single symbolic line.
	Ultra
)

// FromVerbosity maps a repeatable -v counter to a Mode: 0 -> Compact,
// 1 -> Verbose, 2+ -> Ultra.
func FromVerbosity(v int) Mode {
	switch {
	case v <= 0:
		return Compact
	case v == 1:
		return Verbose
	default:
		return Ultra
	}
}

// TokenFormatter is implemented by every canonical type.
type TokenFormatter interface {
	FormatCompact() string
	FormatVerbose() string
	FormatUltra() string
}

// Format dispatches to the renderer matching mode.
func Format(f TokenFormatter, mode Mode) string {
	switch mode {
	case Verbose:
		return f.FormatVerbose()
	case Ultra:
		return f.FormatUltra()
	default:
		return f.FormatCompact()
	}
}

type testResultFormatter struct{ r types.TestResult }

// ForTestResult wraps a TestResult for formatting.
func ForTestResult(r types.TestResult) TokenFormatter { return testResultFormatter{r} }

func (f testResultFormatter) FormatCompact() string {
	r := f.r
	var lines []string
	lines = append(lines, fmt.Sprintf("PASS (%d) FAIL (%d)", r.Passed, r.Failed))

	if len(r.Failures) > 0 {
		lines = append(lines, "")
		max := 5
		for i, fail := range r.Failures {
			if i >= max {
				break
			}
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, fail.TestName))
			preview := firstNLines(fail.ErrorMessage, 2)
			lines = append(lines, "   "+preview)
		}
		if len(r.Failures) > max {
			lines = append(lines, fmt.Sprintf("\n... +%d more failures", len(r.Failures)-max))
		}
	}

	if r.DurationMs != nil {
		lines = append(lines, fmt.Sprintf("\nTime: %dms", *r.DurationMs))
	}
	return strings.Join(lines, "\n")
}

func (f testResultFormatter) FormatVerbose() string {
	r := f.r
	lines := []string{fmt.Sprintf("Tests: %d passed, %d failed, %d skipped (total: %d)",
		r.Passed, r.Failed, r.Skipped, r.Total)}

	if len(r.Failures) > 0 {
		lines = append(lines, "\nFailures:")
		for i, fail := range r.Failures {
			lines = append(lines, fmt.Sprintf("\n%d. %s (%s)", i+1, fail.TestName, fail.FilePath))
			lines = append(lines, "   "+fail.ErrorMessage)
			if fail.StackTrace != nil {
				lines = append(lines, "   "+firstNLines(*fail.StackTrace, 3))
			}
		}
	}

	if r.DurationMs != nil {
		lines = append(lines, fmt.Sprintf("\nDuration: %dms", *r.DurationMs))
	}
	return strings.Join(lines, "\n")
}

func (f testResultFormatter) FormatUltra() string {
	r := f.r
	var d int64
	if r.DurationMs != nil {
		d = *r.DurationMs
	}
	return fmt.Sprintf("✓%d ✗%d ⊘%d (%dms)", r.Passed, r.Failed, r.Skipped, d)
}

type lintResultFormatter struct{ r types.LintResult }

// ForLintResult wraps a LintResult for formatting.
func ForLintResult(r types.LintResult) TokenFormatter { return lintResultFormatter{r} }

func (f lintResultFormatter) FormatCompact() string {
	r := f.r
	lines := []string{fmt.Sprintf("Errors: %d | Warnings: %d | Files: %d",
		r.Errors, r.Warnings, r.FilesWithIssues)}

	if len(r.Issues) > 0 {
		byRule := map[string][]types.LintIssue{}
		for _, issue := range r.Issues {
			byRule[issue.RuleID] = append(byRule[issue.RuleID], issue)
		}
		rules := make([]string, 0, len(byRule))
		for rule := range byRule {
			rules = append(rules, rule)
		}
		sort.Slice(rules, func(i, j int) bool {
			return len(byRule[rules[i]]) > len(byRule[rules[j]])
		})

		lines = append(lines, "")
		max := 5
		for i, rule := range rules {
			if i >= max {
				break
			}
			issues := byRule[rule]
			lines = append(lines, fmt.Sprintf("%s: %d occurrences", rule, len(issues)))
			for j, issue := range issues {
				if j >= 2 {
					break
				}
				lines = append(lines, fmt.Sprintf("  %s:%d", issue.FilePath, issue.Line))
			}
		}
		if len(rules) > max {
			lines = append(lines, fmt.Sprintf("\n... +%d more rule violations", len(rules)-max))
		}
	}
	return strings.Join(lines, "\n")
}

func (f lintResultFormatter) FormatVerbose() string {
	r := f.r
	lines := []string{fmt.Sprintf("Total issues: %d (%d errors, %d warnings) in %d files",
		r.TotalIssues, r.Errors, r.Warnings, r.FilesWithIssues)}

	if len(r.Issues) > 0 {
		lines = append(lines, "\nIssues:")
		max := 20
		for i, issue := range r.Issues {
			if i >= max {
				break
			}
			sym := severitySymbol(issue.Severity)
			lines = append(lines, fmt.Sprintf("%s %s:%d:%d [%s] %s",
				sym, issue.FilePath, issue.Line, issue.Column, issue.RuleID, issue.Message))
		}
		if len(r.Issues) > max {
			lines = append(lines, fmt.Sprintf("\n... +%d more issues", len(r.Issues)-max))
		}
	}
	return strings.Join(lines, "\n")
}

func (f lintResultFormatter) FormatUltra() string {
	r := f.r
	return fmt.Sprintf("✗%d ⚠%d 📁%d", r.Errors, r.Warnings, r.FilesWithIssues)
}

func severitySymbol(s types.LintSeverity) string {
	switch s {
	case types.SeverityError:
		return "✗"
	case types.SeverityWarning:
		return "⚠"
	default:
		return "ℹ"
	}
}

type dependencyStateFormatter struct{ r types.DependencyState }

// ForDependencyState wraps a DependencyState for formatting.
func ForDependencyState(r types.DependencyState) TokenFormatter { return dependencyStateFormatter{r} }

func (f dependencyStateFormatter) FormatCompact() string {
	r := f.r
	if r.OutdatedCount == 0 {
		return "All packages up-to-date ✓"
	}

	lines := []string{fmt.Sprintf("%d outdated packages (of %d)", r.OutdatedCount, r.TotalPackages)}
	max := 10
	shown := 0
	for _, dep := range r.Dependencies {
		if shown >= max {
			break
		}
		if dep.LatestVersion != nil && *dep.LatestVersion != dep.CurrentVersion {
			lines = append(lines, fmt.Sprintf("%s: %s → %s", dep.Name, dep.CurrentVersion, *dep.LatestVersion))
			shown++
		}
	}
	if r.OutdatedCount > max {
		lines = append(lines, fmt.Sprintf("\n... +%d more", r.OutdatedCount-max))
	}
	return strings.Join(lines, "\n")
}

func (f dependencyStateFormatter) FormatVerbose() string {
	r := f.r
	lines := []string{fmt.Sprintf("Total packages: %d (%d outdated)", r.TotalPackages, r.OutdatedCount)}

	if r.OutdatedCount > 0 {
		lines = append(lines, "\nOutdated packages:")
		for _, dep := range r.Dependencies {
			if dep.LatestVersion == nil || *dep.LatestVersion == dep.CurrentVersion {
				continue
			}
			devMarker := ""
			if dep.DevDependency {
				devMarker = " (dev)"
			}
			lines = append(lines, fmt.Sprintf("  %s: %s → %s%s", dep.Name, dep.CurrentVersion, *dep.LatestVersion, devMarker))
			if dep.WantedVersion != nil && *dep.WantedVersion != *dep.LatestVersion {
				lines = append(lines, fmt.Sprintf("    (wanted: %s)", *dep.WantedVersion))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func (f dependencyStateFormatter) FormatUltra() string {
	r := f.r
	return fmt.Sprintf("📦%d ⬆️%d", r.TotalPackages, r.OutdatedCount)
}

type buildOutputFormatter struct{ r types.BuildOutput }

// ForBuildOutput wraps a BuildOutput for formatting.
func ForBuildOutput(r types.BuildOutput) TokenFormatter { return buildOutputFormatter{r} }

func (f buildOutputFormatter) FormatCompact() string {
	r := f.r
	status := "✓"
	if !r.Success {
		status = "✗"
	}
	lines := []string{fmt.Sprintf("%s Build: %d errors, %d warnings", status, r.Errors, r.Warnings)}

	if len(r.Bundles) > 0 {
		var total uint64
		for _, b := range r.Bundles {
			total += b.SizeBytes
		}
		lines = append(lines, fmt.Sprintf("Bundles: %d (%.1f KB)", len(r.Bundles), float64(total)/1024.0))
	}
	if len(r.Routes) > 0 {
		lines = append(lines, fmt.Sprintf("Routes: %d", len(r.Routes)))
	}
	if r.DurationMs != nil {
		lines = append(lines, fmt.Sprintf("Time: %dms", *r.DurationMs))
	}
	return strings.Join(lines, "\n")
}

func (f buildOutputFormatter) FormatVerbose() string {
	r := f.r
	status := "Success"
	if !r.Success {
		status = "Failed"
	}
	lines := []string{fmt.Sprintf("Build %s: %d errors, %d warnings", status, r.Errors, r.Warnings)}

	if len(r.Bundles) > 0 {
		lines = append(lines, "\nBundles:")
		for _, b := range r.Bundles {
			gzipInfo := ""
			if b.GzipSizeBytes != nil {
				gzipInfo = fmt.Sprintf(" (gzip: %.1f KB)", float64(*b.GzipSizeBytes)/1024.0)
			}
			lines = append(lines, fmt.Sprintf("  %s: %.1f KB%s", b.Name, float64(b.SizeBytes)/1024.0, gzipInfo))
		}
	}
	if len(r.Routes) > 0 {
		lines = append(lines, "\nRoutes:")
		max := 10
		for i, route := range r.Routes {
			if i >= max {
				break
			}
			lines = append(lines, fmt.Sprintf("  %s: %.1f KB", route.Path, route.SizeKB))
		}
		if len(r.Routes) > max {
			lines = append(lines, fmt.Sprintf("  ... +%d more routes", len(r.Routes)-max))
		}
	}
	if r.DurationMs != nil {
		lines = append(lines, fmt.Sprintf("\nDuration: %dms", *r.DurationMs))
	}
	return strings.Join(lines, "\n")
}

func (f buildOutputFormatter) FormatUltra() string {
	r := f.r
	status := "✓"
	if !r.Success {
		status = "✗"
	}
	var d int64
	if r.DurationMs != nil {
		d = *r.DurationMs
	}
	return fmt.Sprintf("%s ✗%d ⚠%d (%dms)", status, r.Errors, r.Warnings, d)
}

func firstNLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, " ")
}
