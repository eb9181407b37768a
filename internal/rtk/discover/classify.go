// Package discover scans an assistant application's session transcripts
// and classifies the Bash commands it finds against the filters this
// module ships, producing a report of commands that should have been
// routed through rtk but weren't.
//
// The classification rules (classify_command, extract_base_command,
// split_command_chain, category_avg_tokens, the PATTERNS/RULES table,
// IGNORED_PREFIXES/IGNORED_EXACT, ENV_PREFIX) are ported line for line
// from original_source/rtk/src/discover/registry.rs, using Go's regexp
// package in place of Rust's RegexSet/lazy_static.
package discover

import (
	"regexp"
	"strings"
)

// RtkStatus describes whether a classified subcommand is already
// implemented as a filter or only ever passed through unchanged.
//
// registry.rs references super::report::RtkStatus but that module
// (discover/report.rs) is absent from the retrieval pack; only its two
// usages (RtkStatus::Existing on the default path, RtkStatus::Passthrough
// on cargo fmt) survive, so the type is reconstructed from those call
// sites rather than ported from a source file.
type RtkStatus int

const (
	StatusExisting RtkStatus = iota
	StatusPassthrough
)

func (s RtkStatus) String() string {
	if s == StatusPassthrough {
		return "passthrough"
	}
	return "existing"
}

// ClassificationKind discriminates the Classification sum type.
type ClassificationKind int

const (
	KindSupported ClassificationKind = iota
	KindUnsupported
	KindIgnored
)

// Classification is the result of classifying a single shell command.
// Exactly one of the Supported/Unsupported field groups is meaningful,
// selected by Kind.
type Classification struct {
	Kind ClassificationKind

	// Populated when Kind == KindSupported.
	RTKEquivalent       string
	Category            string
	EstimatedSavingsPct float64
	Status              RtkStatus

	// Populated when Kind == KindUnsupported.
	BaseCommand string
}

func supported(rtkCmd, category string, pct float64, status RtkStatus) Classification {
	return Classification{
		Kind:                KindSupported,
		RTKEquivalent:       rtkCmd,
		Category:            category,
		EstimatedSavingsPct: pct,
		Status:              status,
	}
}

func unsupported(base string) Classification {
	return Classification{Kind: KindUnsupported, BaseCommand: base}
}

var ignored = Classification{Kind: KindIgnored}

// rtkRule maps one shell command pattern to its rtk equivalent.
type rtkRule struct {
	rtkCmd        string
	category      string
	savingsPct    float64
	subcmdSavings map[string]float64
	subcmdStatus  map[string]RtkStatus
}

// CategoryAvgTokens returns the average token count for a category/
// subcommand pairing, used for estimation when no observed output
// length is available.
func CategoryAvgTokens(category, subcmd string) int {
	switch category {
	case "Git":
		switch subcmd {
		case "log", "diff", "show":
			return 200
		default:
			return 40
		}
	case "Cargo":
		switch subcmd {
		case "test":
			return 500
		default:
			return 150
		}
	case "Tests":
		return 800
	case "Files":
		return 100
	case "Build":
		return 300
	case "Infra":
		return 120
	case "Network":
		return 150
	case "GitHub":
		return 200
	case "PackageManager":
		return 150
	default:
		return 150
	}
}

// patterns is ordered to align with rules indices exactly.
var patterns = []string{
	`^git\s+(status|log|diff|show|add|commit|push|pull|branch|fetch|stash|worktree)`,
	`^gh\s+(pr|issue|run|repo|api)`,
	`^cargo\s+(build|test|clippy|check|fmt)`,
	`^pnpm\s+(list|ls|outdated|install)`,
	`^npm\s+(run|exec)`,
	`^npx\s+`,
	`^(cat|head|tail)\s+`,
	`^(rg|grep)\s+`,
	`^ls(\s|$)`,
	`^find\s+`,
	`^(npx\s+|pnpm\s+)?tsc(\s|$)`,
	`^(npx\s+|pnpm\s+)?(eslint|biome|lint)(\s|$)`,
	`^(npx\s+|pnpm\s+)?prettier`,
	`^(npx\s+|pnpm\s+)?next\s+build`,
	`^(pnpm\s+|npx\s+)?(vitest|jest|test)(\s|$)`,
	`^(npx\s+|pnpm\s+)?playwright`,
	`^(npx\s+|pnpm\s+)?prisma`,
	`^docker\s+(ps|images|logs)`,
	`^kubectl\s+(get|logs)`,
	`^curl\s+`,
	`^wget\s+`,
}

var rules = []rtkRule{
	{rtkCmd: "rtk git", category: "Git", savingsPct: 70.0, subcmdSavings: map[string]float64{
		"diff": 80.0, "show": 80.0, "add": 59.0, "commit": 59.0,
	}},
	{rtkCmd: "rtk gh", category: "GitHub", savingsPct: 82.0, subcmdSavings: map[string]float64{
		"pr": 87.0, "run": 82.0, "issue": 80.0,
	}},
	{rtkCmd: "rtk cargo", category: "Cargo", savingsPct: 80.0, subcmdSavings: map[string]float64{
		"test": 90.0, "check": 80.0,
	}, subcmdStatus: map[string]RtkStatus{"fmt": StatusPassthrough}},
	{rtkCmd: "rtk pnpm", category: "PackageManager", savingsPct: 80.0},
	{rtkCmd: "rtk npm", category: "PackageManager", savingsPct: 70.0},
	{rtkCmd: "rtk npx", category: "PackageManager", savingsPct: 70.0},
	{rtkCmd: "rtk read", category: "Files", savingsPct: 60.0},
	{rtkCmd: "rtk grep", category: "Files", savingsPct: 75.0},
	{rtkCmd: "rtk ls", category: "Files", savingsPct: 65.0},
	{rtkCmd: "rtk find", category: "Files", savingsPct: 70.0},
	{rtkCmd: "rtk tsc", category: "Build", savingsPct: 83.0},
	{rtkCmd: "rtk lint", category: "Build", savingsPct: 84.0},
	{rtkCmd: "rtk prettier", category: "Build", savingsPct: 70.0},
	{rtkCmd: "rtk next", category: "Build", savingsPct: 87.0},
	{rtkCmd: "rtk vitest", category: "Tests", savingsPct: 99.0},
	{rtkCmd: "rtk playwright", category: "Tests", savingsPct: 94.0},
	{rtkCmd: "rtk prisma", category: "Build", savingsPct: 88.0},
	{rtkCmd: "rtk docker", category: "Infra", savingsPct: 85.0},
	{rtkCmd: "rtk kubectl", category: "Infra", savingsPct: 85.0},
	{rtkCmd: "rtk curl", category: "Network", savingsPct: 70.0},
	{rtkCmd: "rtk wget", category: "Network", savingsPct: 65.0},
}

// ignoredPrefixes lists shell builtins and control-flow keywords that
// never merit an rtk filter.
var ignoredPrefixes = []string{
	"cd ", "cd\t", "echo ", "printf ", "export ", "source ", "mkdir ",
	"rm ", "mv ", "cp ", "chmod ", "chown ", "touch ", "which ", "type ",
	"command ", "test ", "true", "false", "sleep ", "wait", "kill ",
	"set ", "unset ", "wc ", "sort ", "uniq ", "tr ", "cut ", "awk ",
	"sed ", "python3 -c", "python -c", "node -e", "ruby -e", "rtk ",
	"pwd", "bash ", "sh ", "then\n", "then ", "else\n", "else ", "fi",
	"do\n", "do ", "done", "for ", "while ", "if ", "case ",
}

var ignoredExact = map[string]bool{
	"cd": true, "echo": true, "true": true, "false": true,
	"wait": true, "pwd": true, "bash": true, "sh": true,
}

var envPrefixRe = regexp.MustCompile(`^(?:sudo\s+|env\s+|[A-Z_][A-Z0-9_]*=\S*\s+)+`)

var compiledPatterns []*regexp.Regexp

func init() {
	compiledPatterns = make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiledPatterns[i] = regexp.MustCompile(p)
	}
}

// ClassifyCommand classifies a single, already-split shell command.
func ClassifyCommand(cmd string) Classification {
	trimmed := strings.TrimSpace(cmd)
	if trimmed == "" {
		return ignored
	}

	if ignoredExact[trimmed] {
		return ignored
	}
	for _, prefix := range ignoredPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return ignored
		}
	}

	cmdClean := strings.TrimSpace(envPrefixRe.ReplaceAllString(trimmed, ""))
	if cmdClean == "" {
		return ignored
	}

	// Take the last (most specific) match, mirroring RegexSet's
	// "collect all matching indices, use the last" behavior.
	lastIdx := -1
	var lastMatch []string
	for i, re := range compiledPatterns {
		if m := re.FindStringSubmatch(cmdClean); m != nil {
			lastIdx = i
			lastMatch = m
		}
	}

	if lastIdx == -1 {
		base := extractBaseCommand(cmdClean)
		if base == "" {
			return ignored
		}
		return unsupported(base)
	}

	rule := rules[lastIdx]
	savings := rule.savingsPct
	status := StatusExisting
	if len(lastMatch) > 1 && lastMatch[1] != "" {
		subcmd := lastMatch[1]
		if st, ok := rule.subcmdStatus[subcmd]; ok {
			status = st
		}
		if pct, ok := rule.subcmdSavings[subcmd]; ok {
			savings = pct
		}
	}

	return supported(rule.rtkCmd, rule.category, savings, status)
}

// extractBaseCommand returns the first word, or the first two words
// when the second looks like a subcommand rather than a flag or path.
func extractBaseCommand(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	if len(fields) == 1 {
		return fields[0]
	}
	second := fields[1]
	if !strings.HasPrefix(second, "-") && !strings.Contains(second, "/") && !strings.Contains(second, ".") {
		return fields[0] + " " + second
	}
	return fields[0]
}

// SplitCommandChain splits a shell line on &&, ||, ; outside quotes,
// keeping only the first command of a pipe chain. Heredoc (<<) or
// arithmetic-expansion ($(() lines are returned whole since they are
// not safe to split lexically.
func SplitCommandChain(cmd string) []string {
	trimmed := strings.TrimSpace(cmd)
	if trimmed == "" {
		return nil
	}
	if strings.Contains(trimmed, "<<") || strings.Contains(trimmed, "$((") {
		return []string{trimmed}
	}

	var results []string
	bytes := []byte(trimmed)
	length := len(bytes)
	start := 0
	i := 0
	inSingle := false
	inDouble := false
	pipeSeen := false

	pushSegment := func(end int) {
		seg := strings.TrimSpace(string(bytes[start:end]))
		if seg != "" {
			results = append(results, seg)
		}
	}

	for i < length {
		b := bytes[i]
		switch {
		case b == '\'' && !inDouble:
			inSingle = !inSingle
			i++
		case b == '"' && !inSingle:
			inDouble = !inDouble
			i++
		case b == '|' && !inSingle && !inDouble:
			if i+1 < length && bytes[i+1] == '|' {
				pushSegment(i)
				i += 2
				start = i
			} else {
				pushSegment(i)
				pipeSeen = true
				i = length
			}
		case b == '&' && !inSingle && !inDouble && i+1 < length && bytes[i+1] == '&':
			pushSegment(i)
			i += 2
			start = i
		case b == ';' && !inSingle && !inDouble:
			pushSegment(i)
			i++
			start = i
		default:
			i++
		}
	}

	if !pipeSeen && start < length {
		pushSegment(length)
	}

	return results
}
