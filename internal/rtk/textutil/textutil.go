// Package textutil holds the small, dependency-free string helpers shared
// by every filter: ANSI escape stripping, UTF-8-safe truncation, path
// compaction, and the character-count token estimator.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*[a-zA-Z]")

// StripANSI removes ANSI escape/control sequences from s. It is idempotent:
// StripANSI(StripANSI(x)) == StripANSI(x).
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// EstimateTokens approximates a token count from a character count using
// the chars/4 heuristic the whole system relies on for "tokens saved"
// figures. It is intentionally crude: real tokenizers vary by ±20% on
// code-heavy content (see SPEC_FULL.md open questions).
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// Truncate cuts s to at most maxChars runes, never splitting a UTF-8
// codepoint, and reports whether truncation occurred.
func Truncate(s string, maxChars int) (string, bool) {
	if maxChars <= 0 {
		return "", s != ""
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s, false
	}
	return string(runes[:maxChars]), true
}

// TruncateLines keeps at most maxLines of lines and returns them together
// with the number of lines dropped; it appends no marker itself, so the
// caller renders any "+N more" line (§4.1 tie-break rules).
func TruncateLines(lines []string, maxLines int) ([]string, int) {
	if len(lines) <= maxLines {
		return lines, 0
	}
	dropped := len(lines) - maxLines
	return lines[:maxLines], dropped
}

// pathMarkers are checked in order; the rightmost occurrence in s of any
// marker wins (§4.1: "rightmost occurrence of /src/, /lib/, /tests/ wins").
var pathMarkers = []string{"/src/", "/lib/", "/tests/"}

// CompactPath normalizes backslashes to forward slashes, then returns the
// suffix starting at the rightmost occurrence of /src/, /lib/, or /tests/;
// falling back to the basename when none match.
func CompactPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")

	bestIdx := -1
	var bestMarker string
	for _, marker := range pathMarkers {
		if idx := strings.LastIndex(p, marker); idx > bestIdx {
			bestIdx = idx
			bestMarker = marker
		}
	}
	if bestIdx >= 0 {
		return p[bestIdx+len(bestMarker):]
	}

	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

// CompactPackageName strips a Go/JS-style package path down to its
// basename, e.g. "github.com/foo/bar/baz" -> "baz".
func CompactPackageName(pkg string) string {
	if idx := strings.LastIndex(pkg, "/"); idx >= 0 {
		return pkg[idx+1:]
	}
	return pkg
}

// ExtractJSONObject locates a single JSON object embedded in otherwise
// noisy tool output (pnpm banners, dotenv warnings printed before the
// reporter's JSON) and returns it. It prefers the vitest-specific
// "numTotalTests" marker to anchor the opening brace, falling back to the
// first line that starts with '{'; then brace-balances forward, tracking
// string/escape state so braces inside string literals don't count.
func ExtractJSONObject(input string) (string, bool) {
	startPos := -1
	if idx := strings.Index(input, `"numTotalTests"`); idx >= 0 {
		if brace := strings.LastIndex(input[:idx], "{"); brace >= 0 {
			startPos = brace
		} else {
			startPos = 0
		}
	} else {
		offset := 0
		for _, line := range strings.SplitAfter(input, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "{") {
				startPos = offset
				break
			}
			offset += len(line)
		}
	}
	if startPos < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escapeNext := false
	runes := []rune(input[startPos:])
	for i, ch := range runes {
		if escapeNext {
			escapeNext = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escapeNext = true
		case ch == '"':
			inString = !inString
		case ch == '{' && !inString:
			depth++
		case ch == '}' && !inString:
			depth--
			if depth == 0 {
				end := startPos + len(string(runes[:i+1]))
				return input[startPos:end], true
			}
		}
	}
	return "", false
}
