// Package filter defines the per-tool Filter contract (SPEC_FULL.md §4.1)
// and the registry dispatching a tool family name to its implementation.
// Each concrete filter lives in its own subpackage (gotool, vitest, git,
// docker, generic) and is wired into the registry from cmd/rtk.
package filter

import (
	"context"
	"io"

	"github.com/rtk-proxy/rtk/internal/rtk/exec"
	"github.com/rtk-proxy/rtk/internal/rtk/formatter"
)

// Telemetry is the subset of the telemetry store every filter needs: one
// record call per invocation. Defined here (rather than importing the
// telemetry package directly) to keep filter implementations testable
// without a real database.
type Telemetry interface {
	Record(originalCmd, rtkCmd string, inputTokens, outputTokens int, elapsedMs int64) error
	RecordPassthrough(originalCmd, rtkCmd string, elapsedMs int64) error
}

// IO bundles the streams a filter writes to and the subprocess runner it
// invokes, so tests can substitute fakes for both.
type IO struct {
	Stdout io.Writer
	Stderr io.Writer
	Runner exec.Runner
	Tel    Telemetry
	Dir    string
}

// Filter is the uniform per-tool operation contract from §4.1: build a
// subprocess, capture streams, parse in tier order, format at the chosen
// verbosity, record telemetry, and propagate the exit code.
type Filter interface {
	// Run executes the tool with args, renders output at mode, and returns
	// the exit code RTK itself should exit with (mirroring the subprocess's
	// own exit code per the exit-code-preservation invariant).
	Run(ctx context.Context, io IO, args []string, mode formatter.Mode) (exitCode int, err error)
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(ctx context.Context, io IO, args []string, mode formatter.Mode) (int, error)

func (f FilterFunc) Run(ctx context.Context, io IO, args []string, mode formatter.Mode) (int, error) {
	return f(ctx, io, args, mode)
}

// Registry maps a CLI subcommand name to its Filter implementation.
type Registry struct {
	filters map[string]Filter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{filters: make(map[string]Filter)}
}

// Register adds or replaces the filter for name.
func (r *Registry) Register(name string, f Filter) {
	r.filters[name] = f
}

// Lookup returns the filter registered for name, if any.
func (r *Registry) Lookup(name string) (Filter, bool) {
	f, ok := r.filters[name]
	return f, ok
}

// Names returns every registered subcommand name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	return names
}
