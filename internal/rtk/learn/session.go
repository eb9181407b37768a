package learn

import (
	"sort"

	"github.com/rtk-proxy/rtk/internal/rtk/session"
)

// DetectFromSessions adapts assistant session transcripts into
// correction rules: the same session.DiscoverSessions/ExtractCommands
// pair discover/report.go uses to build a Report, fed instead through
// FindCorrections/DeduplicateCorrections. Each session's commands are
// sorted by SequenceIndex and scanned independently so the windowed
// error-then-fix search never crosses from one transcript into
// another's unrelated command stream.
func DetectFromSessions(observations []session.ExtractedCommand) []CorrectionRule {
	bySession := make(map[string][]session.ExtractedCommand)
	var order []string
	for _, obs := range observations {
		if _, ok := bySession[obs.SessionID]; !ok {
			order = append(order, obs.SessionID)
		}
		bySession[obs.SessionID] = append(bySession[obs.SessionID], obs)
	}

	var pairs []CorrectionPair
	for _, sid := range order {
		cmds := bySession[sid]
		sort.SliceStable(cmds, func(i, j int) bool {
			return cmds[i].SequenceIndex < cmds[j].SequenceIndex
		})
		pairs = append(pairs, FindCorrections(toExecutions(cmds))...)
	}
	return DeduplicateCorrections(pairs)
}

func toExecutions(cmds []session.ExtractedCommand) []CommandExecution {
	out := make([]CommandExecution, 0, len(cmds))
	for _, c := range cmds {
		output := ""
		if c.OutputContent != nil {
			output = *c.OutputContent
		}
		out = append(out, CommandExecution{Command: c.Command, IsError: c.IsError, Output: output})
	}
	return out
}
