package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/rtk-proxy/rtk/internal/rtk/session"
)

// There is no discover/report.rs in the retrieval pack (only provider.rs
// and registry.rs exist under discover/ there) — this file's aggregation
// and report shape is therefore designed from the specification's §4.3
// prose ("group by rtk equivalent; sum observed output length if present
// (else category average) and apply savings percentage... text or JSON
// listing supported-but-missed commands ranked by potential savings,
// unsupported base commands ranked by frequency, ignored commands'
// count") rather than ported from a Rust source file.

// SupportedAgg is one row of the supported-but-missed section of a
// Report: commands that rtk already has a filter for, observed in
// session history running through the raw tool instead.
type SupportedAgg struct {
	RTKEquivalent        string
	Category             string
	Status               RtkStatus
	Count                int
	EstimatedTokensSaved int
}

// UnsupportedAgg is one row of the unsupported section of a Report:
// base commands rtk has no filter for at all.
type UnsupportedAgg struct {
	BaseCommand string
	Count       int
}

// Report is the output of the discovery pipeline: a savings-ranked view
// of what a set of assistant sessions ran through the shell that rtk
// could have intercepted.
type Report struct {
	Supported    []SupportedAgg
	Unsupported  []UnsupportedAgg
	IgnoredCount int
	TotalSessions int
	TotalCommands int
}

// Options configures a discovery run.
type Options struct {
	ProjectFilter string
	SinceDays     int
	Query         string // optional full-text filter over command+output
	RtkignorePath string // optional .rtkignore, gitignore syntax
}

// Run walks session history, classifies every Bash command it finds,
// and returns a ranked savings report.
func Run(opts Options) (Report, error) {
	sessions, err := session.DiscoverSessions(opts.ProjectFilter, opts.SinceDays)
	if err != nil {
		return Report{}, err
	}

	if opts.RtkignorePath != "" {
		sessions, err = filterIgnored(sessions, opts.RtkignorePath)
		if err != nil {
			return Report{}, err
		}
	}

	var observations []session.ExtractedCommand
	for _, path := range sessions {
		cmds, err := session.ExtractCommands(path)
		if err != nil {
			continue // tolerate unreadable session files, same as a malformed line
		}
		observations = append(observations, cmds...)
	}

	if opts.Query != "" {
		matched, err := filterByQuery(observations, opts.Query)
		if err != nil {
			return Report{}, err
		}
		observations = matched
	}

	report := aggregate(observations)
	report.TotalSessions = len(sessions)
	return report, nil
}

// filterIgnored drops session file paths matched by an .rtkignore file
// (gitignore syntax), mirroring the teacher's walker.go use of
// go-gitignore for workspace-indexing exclusions.
func filterIgnored(paths []string, rtkignorePath string) ([]string, error) {
	if _, err := os.Stat(rtkignorePath); os.IsNotExist(err) {
		return paths, nil
	}
	matcher, err := gitignore.CompileIgnoreFile(rtkignorePath)
	if err != nil {
		return nil, fmt.Errorf("compile .rtkignore: %w", err)
	}
	base := filepath.Dir(rtkignorePath)
	var kept []string
	for _, p := range paths {
		rel, err := filepath.Rel(base, p)
		if err != nil {
			rel = p
		}
		if !matcher.MatchesPath(rel) {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

// aggregate classifies every observed command (after splitting compound
// shell lines) and groups the results per §4.3 step 4.
func aggregate(observations []session.ExtractedCommand) Report {
	type supportedKey struct {
		rtkCmd string
	}
	supportedCounts := make(map[supportedKey]*SupportedAgg)
	unsupportedCounts := make(map[string]*UnsupportedAgg)
	ignoredCount := 0
	total := 0

	for _, obs := range observations {
		for _, single := range SplitCommandChain(obs.Command) {
			total++
			class := ClassifyCommand(single)
			switch class.Kind {
			case KindSupported:
				key := supportedKey{rtkCmd: class.RTKEquivalent}
				agg, ok := supportedCounts[key]
				if !ok {
					agg = &SupportedAgg{
						RTKEquivalent: class.RTKEquivalent,
						Category:      class.Category,
						Status:        class.Status,
					}
					supportedCounts[key] = agg
				}
				agg.Count++
				agg.EstimatedTokensSaved += estimateSavedTokens(obs, class)
			case KindUnsupported:
				agg, ok := unsupportedCounts[class.BaseCommand]
				if !ok {
					agg = &UnsupportedAgg{BaseCommand: class.BaseCommand}
					unsupportedCounts[class.BaseCommand] = agg
				}
				agg.Count++
			case KindIgnored:
				ignoredCount++
			}
		}
	}

	supported := make([]SupportedAgg, 0, len(supportedCounts))
	for _, agg := range supportedCounts {
		supported = append(supported, *agg)
	}
	sort.Slice(supported, func(i, j int) bool {
		return supported[i].EstimatedTokensSaved > supported[j].EstimatedTokensSaved
	})

	unsupported := make([]UnsupportedAgg, 0, len(unsupportedCounts))
	for _, agg := range unsupportedCounts {
		unsupported = append(unsupported, *agg)
	}
	sort.Slice(unsupported, func(i, j int) bool {
		return unsupported[i].Count > unsupported[j].Count
	})

	return Report{
		Supported:     supported,
		Unsupported:   unsupported,
		IgnoredCount:  ignoredCount,
		TotalCommands: total,
	}
}

// estimateSavedTokens uses the observed tool output length when present,
// falling back to the per-category average from CategoryAvgTokens, and
// applies the estimated savings percentage to it.
func estimateSavedTokens(obs session.ExtractedCommand, class Classification) int {
	var outputTokens int
	if obs.OutputLen != nil {
		outputTokens = *obs.OutputLen / 4 // rough chars-per-token
	} else {
		outputTokens = CategoryAvgTokens(class.Category, subcommandOf(obs.Command))
	}
	saved := float64(outputTokens) * (class.EstimatedSavingsPct / 100.0)
	if saved < 0 {
		return 0
	}
	return int(saved)
}

func subcommandOf(cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
