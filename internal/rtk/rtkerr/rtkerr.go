// Package rtkerr defines the error taxonomy from SPEC_FULL.md §7: sentinel
// errors filters and the installer wrap with context via fmt.Errorf("...:
// %w", err), usable with errors.Is/errors.As, matching the teacher
// codebase's wrapping style throughout internal/indexer/db.go.
package rtkerr

import "errors"

var (
	// ErrToolMissing means the subprocess could not be spawned at all.
	ErrToolMissing = errors.New("tool not found")
	// ErrToolSignaled means the subprocess was killed by a signal (no exit code).
	ErrToolSignaled = errors.New("tool killed by signal")
	// ErrConfigConflict means an installer mutation was refused to avoid
	// corrupting an existing artifact (orphan legacy block, malformed JSON).
	ErrConfigConflict = errors.New("configuration conflict")
	// ErrInvalidInput means a user-supplied argument failed a safety check.
	ErrInvalidInput = errors.New("invalid input")
)

// ToolMissing wraps err with ErrToolMissing and names the tool, so callers
// can print an installation hint.
func ToolMissing(tool string, err error) error {
	return &wrapped{tool: tool, sentinel: ErrToolMissing, cause: err}
}

// ToolSignaled wraps a signal-kill outcome for tool.
func ToolSignaled(tool string, err error) error {
	return &wrapped{tool: tool, sentinel: ErrToolSignaled, cause: err}
}

// ConfigConflict wraps a detail message describing why an installer
// mutation was refused.
func ConfigConflict(detail string) error {
	return &wrapped{tool: detail, sentinel: ErrConfigConflict}
}

// InvalidInput wraps a detail message describing why input was rejected.
func InvalidInput(detail string) error {
	return &wrapped{tool: detail, sentinel: ErrInvalidInput}
}

type wrapped struct {
	tool     string
	sentinel error
	cause    error
}

func (w *wrapped) Error() string {
	if w.cause != nil {
		return w.tool + ": " + w.sentinel.Error() + ": " + w.cause.Error()
	}
	return w.tool + ": " + w.sentinel.Error()
}

func (w *wrapped) Unwrap() error {
	if w.cause != nil {
		return &sentinelPair{w.sentinel, w.cause}
	}
	return w.sentinel
}

// sentinelPair lets errors.Is match either the sentinel or the underlying cause.
type sentinelPair struct {
	sentinel error
	cause    error
}

func (p *sentinelPair) Error() string { return p.sentinel.Error() }
func (p *sentinelPair) Unwrap() []error {
	return []error{p.sentinel, p.cause}
}
