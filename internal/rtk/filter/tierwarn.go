package filter

import (
	"fmt"
	"io"

	"github.com/rtk-proxy/rtk/internal/rtk/textutil"
)

// EmitDegradationWarning writes the stable [RTK:DEGRADED] marker line used
// by every filter that falls back to tier 2 (§4.1, §7).
func EmitDegradationWarning(w io.Writer, tool, reason string) {
	fmt.Fprintf(w, "[RTK:DEGRADED] %s: %s\n", tool, reason)
}

// EmitPassthroughWarning writes the stable [RTK:PASSTHROUGH] marker line
// used by every filter that falls back to tier 3 (§4.1, §7). The
// truncated-size marker line comes from TruncatePassthrough, not from here.
func EmitPassthroughWarning(w io.Writer, tool, reason string) {
	fmt.Fprintf(w, "[RTK:PASSTHROUGH] %s: %s\n", tool, reason)
}

// TruncatePassthrough clips raw to the tier-3 character budget (~500 chars)
// and returns it with the "Output truncated (N chars -> M chars)" marker
// line appended, exactly as §4.1 Tier 3 requires.
func TruncatePassthrough(raw string) string {
	const budget = 500
	original := len([]rune(raw))
	truncated, _ := textutil.Truncate(raw, budget)
	return fmt.Sprintf("%s\n[RTK:PASSTHROUGH] Output truncated (%d chars → %d chars)", truncated, original, len([]rune(truncated)))
}
