// Package learn mines a stream of command executions for CLI-usage
// corrections: a command that errored, immediately followed by a fixed
// variant of the same command that succeeded. It groups the repeated
// mistakes it finds into ranked correction rules.
//
// Ported line for line from original_source/rtk/src/learn/detector.rs:
// the error-classification regex set, is_command_error's user-rejection
// filter, command_similarity's Jaccard-over-arguments scoring,
// is_tdd_cycle_error's compiler/test-failure exclusion,
// differs_only_by_path's high-similarity-but-not-identical heuristic,
// the windowed find_corrections scan, and deduplicate_corrections'
// group-by-(base,error_type,diff_token) merge.
package learn

import (
	"regexp"
	"sort"
	"strings"
)

// ErrorType classifies the kind of CLI mistake a command's error output
// indicates.
type ErrorType struct {
	kind  string
	other string // populated only when kind == "other"
}

var (
	ErrorUnknownFlag      = ErrorType{kind: "unknown_flag"}
	ErrorCommandNotFound  = ErrorType{kind: "command_not_found"}
	ErrorWrongSyntax      = ErrorType{kind: "wrong_syntax"}
	ErrorWrongPath        = ErrorType{kind: "wrong_path"}
	ErrorMissingArg       = ErrorType{kind: "missing_arg"}
	ErrorPermissionDenied = ErrorType{kind: "permission_denied"}
)

// ErrorOther constructs the catch-all error type, mirroring
// ErrorType::Other(String).
func ErrorOther(label string) ErrorType { return ErrorType{kind: "other", other: label} }

// String renders a human-readable label, mirroring ErrorType::as_str.
func (e ErrorType) String() string {
	switch e.kind {
	case "unknown_flag":
		return "Unknown Flag"
	case "command_not_found":
		return "Command Not Found"
	case "wrong_syntax":
		return "Wrong Syntax"
	case "wrong_path":
		return "Wrong Path"
	case "missing_arg":
		return "Missing Argument"
	case "permission_denied":
		return "Permission Denied"
	default:
		return e.other
	}
}

// Equal compares two ErrorTypes by kind (and label, for Other).
func (e ErrorType) Equal(other ErrorType) bool {
	return e.kind == other.kind && e.other == other.other
}

// CorrectionPair is one observed error-then-fix instance.
type CorrectionPair struct {
	WrongCommand string
	RightCommand string
	ErrorOutput  string
	ErrorType    ErrorType
	Confidence   float64
}

// CorrectionRule is a deduplicated, ranked correction learned from one
// or more observed CorrectionPairs sharing the same base command, error
// type, and token-level diff.
type CorrectionRule struct {
	WrongPattern string
	RightPattern string
	ErrorType    ErrorType
	Occurrences  int
	BaseCommand  string
	ExampleError string
}

// CommandExecution is a single command run with its outcome, the input
// to correction detection.
type CommandExecution struct {
	Command string
	IsError bool
	Output  string
}

var (
	unknownFlagRe      = regexp.MustCompile(`(?i)(unexpected argument|unknown (option|flag)|unrecognized (option|flag)|invalid (option|flag))`)
	cmdNotFoundRe      = regexp.MustCompile(`(?i)(command not found|not recognized as an internal|no such file or directory.*command)`)
	wrongPathRe        = regexp.MustCompile(`(?i)(no such file or directory|cannot find the path|file not found)`)
	missingArgRe       = regexp.MustCompile(`(?i)(requires a value|requires an argument|missing (required )?argument|expected.*argument)`)
	permissionDeniedRe = regexp.MustCompile(`(?i)(permission denied|access denied|not permitted)`)
	userRejectionRe    = regexp.MustCompile(`(?i)(user (doesn't want|declined|rejected|cancelled)|operation (cancelled|aborted) by user)`)
)

// IsCommandError filters out user rejections and successful runs,
// requiring actual error-indicating content.
func IsCommandError(isError bool, output string) bool {
	if !isError {
		return false
	}
	if userRejectionRe.MatchString(output) {
		return false
	}
	lower := strings.ToLower(output)
	for _, needle := range []string{"error", "failed", "unknown", "invalid", "not found", "permission denied", "cannot"} {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

// ClassifyError maps error output to an ErrorType.
func ClassifyError(output string) ErrorType {
	switch {
	case unknownFlagRe.MatchString(output):
		return ErrorUnknownFlag
	case cmdNotFoundRe.MatchString(output):
		return ErrorCommandNotFound
	case missingArgRe.MatchString(output):
		return ErrorMissingArg
	case permissionDeniedRe.MatchString(output):
		return ErrorPermissionDenied
	case wrongPathRe.MatchString(output):
		return ErrorWrongPath
	default:
		return ErrorOther("General Error")
	}
}

const (
	correctionWindow = 3
	minConfidence    = 0.6
)

var envPrefixes = []string{"RUST_BACKTRACE=1 ", "NODE_ENV=production ", "DEBUG=* "}

// ExtractBaseCommand returns the first one or two whitespace-separated
// tokens of a command, after stripping a known env-var prefix.
func ExtractBaseCommand(cmd string) string {
	trimmed := strings.TrimSpace(cmd)
	for _, prefix := range envPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = strings.TrimPrefix(trimmed, prefix)
			break
		}
	}
	parts := strings.Fields(trimmed)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + " " + parts[1]
	}
}

// CommandSimilarity scores two commands by Jaccard similarity over
// their arguments, with a 0.5 floor when they share a base command.
func CommandSimilarity(a, b string) float64 {
	baseA := ExtractBaseCommand(a)
	baseB := ExtractBaseCommand(b)
	if baseA != baseB {
		return 0.0
	}

	argsA := toArgSet(a, baseA)
	argsB := toArgSet(b, baseB)

	if len(argsA) == 0 && len(argsB) == 0 {
		return 1.0
	}

	intersection := 0
	union := make(map[string]bool, len(argsA)+len(argsB))
	for arg := range argsA {
		union[arg] = true
		if argsB[arg] {
			intersection++
		}
	}
	for arg := range argsB {
		union[arg] = true
	}

	if len(union) == 0 {
		return 0.5
	}
	return 0.5 + (float64(intersection)/float64(len(union)))*0.5
}

func toArgSet(cmd, base string) map[string]bool {
	rest := strings.TrimPrefix(cmd, base)
	set := make(map[string]bool)
	for _, f := range strings.Fields(rest) {
		set[f] = true
	}
	return set
}

// isTDDCycleError recognizes compiler/test-runner failures, which are
// development iteration, not CLI-usage mistakes. The original only
// checks Rust's own diagnostics (error[E..], "aborting due to"); this
// port also recognizes Go's (`# command-line-arguments`, `cannot find
// package`) and JS/TS's (`error TS`, `FAIL `) equivalents, since rtk's
// filters target exactly those three toolchains.
func isTDDCycleError(errType ErrorType, output string) bool {
	compilerSignals := []string{"error[E", "aborting due to", "# command-line-arguments", "cannot find package", "error TS"}
	for _, signal := range compilerSignals {
		if strings.Contains(output, signal) {
			return true
		}
	}
	if strings.Contains(output, "test result: FAILED") || strings.Contains(output, "tests failed") || strings.Contains(output, "FAIL ") {
		return true
	}
	isSyntaxish := errType.Equal(ErrorCommandNotFound) || errType.kind == "other"
	return isSyntaxish && (strings.Contains(output, "error[E") || strings.Contains(output, "FAILED"))
}

// differsOnlyByPath recognizes a high-similarity-but-not-identical pair
// as path exploration rather than a correction.
func differsOnlyByPath(a, b string) bool {
	if ExtractBaseCommand(a) != ExtractBaseCommand(b) {
		return false
	}
	sim := CommandSimilarity(a, b)
	return sim > 0.9 && sim < 1.0
}

// FindCorrections scans a chronological command stream for
// error-then-fix pairs within a short lookahead window.
func FindCorrections(commands []CommandExecution) []CorrectionPair {
	var corrections []CorrectionPair

	for i, cmd := range commands {
		if !IsCommandError(cmd.IsError, cmd.Output) {
			continue
		}

		errType := ClassifyError(cmd.Output)
		if isTDDCycleError(errType, cmd.Output) {
			continue
		}

		end := i + 1 + correctionWindow
		if end > len(commands) {
			end = len(commands)
		}
		for j := i + 1; j < end; j++ {
			candidate := commands[j]

			similarity := CommandSimilarity(cmd.Command, candidate.Command)
			if similarity < 0.5 {
				continue
			}
			if differsOnlyByPath(cmd.Command, candidate.Command) {
				continue
			}
			if cmd.Command == candidate.Command {
				continue
			}

			confidence := similarity
			if !IsCommandError(candidate.IsError, candidate.Output) {
				confidence += 0.2
				if confidence > 1.0 {
					confidence = 1.0
				}
			}
			if confidence < minConfidence {
				continue
			}

			corrections = append(corrections, CorrectionPair{
				WrongCommand: cmd.Command,
				RightCommand: candidate.Command,
				ErrorOutput:  firstNRunes(cmd.Output, 500),
				ErrorType:    errType,
				Confidence:   confidence,
			})
			break
		}
	}

	return corrections
}

func firstNRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// extractDiffToken names the single most distinctive token that
// changed between a wrong and right command.
func extractDiffToken(wrong, right string) string {
	wrongSet := make(map[string]bool)
	for _, f := range strings.Fields(wrong) {
		wrongSet[f] = true
	}
	rightSet := make(map[string]bool)
	for _, f := range strings.Fields(right) {
		rightSet[f] = true
	}

	var removed, added []string
	for _, f := range strings.Fields(wrong) {
		if !rightSet[f] {
			removed = append(removed, f)
		}
	}
	for _, f := range strings.Fields(right) {
		if !wrongSet[f] {
			added = append(added, f)
		}
	}

	switch {
	case len(removed) > 0 && len(added) > 0:
		return removed[0] + " -> " + added[0]
	case len(removed) > 0:
		return "removed " + removed[0]
	case len(added) > 0:
		return "added " + added[0]
	default:
		return "unknown"
	}
}

// DeduplicateCorrections groups correction pairs by (base command,
// error type, diff token), keeping the highest-confidence example from
// each group and ranking groups by occurrence count.
func DeduplicateCorrections(pairs []CorrectionPair) []CorrectionRule {
	type key struct {
		base, errType, diff string
	}
	groups := make(map[key][]CorrectionPair)
	var order []key

	for _, pair := range pairs {
		k := key{
			base:    ExtractBaseCommand(pair.WrongCommand),
			errType: pair.ErrorType.String(),
			diff:    extractDiffToken(pair.WrongCommand, pair.RightCommand),
		}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], pair)
	}

	rules := make([]CorrectionRule, 0, len(order))
	for _, k := range order {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Confidence > group[j].Confidence
		})
		best := group[0]
		rules = append(rules, CorrectionRule{
			WrongPattern: best.WrongCommand,
			RightPattern: best.RightCommand,
			ErrorType:    best.ErrorType,
			Occurrences:  len(group),
			BaseCommand:  k.base,
			ExampleError: best.ErrorOutput,
		})
	}

	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Occurrences > rules[j].Occurrences
	})

	return rules
}
