// Package generic implements the fallback filter registered for every
// tool family the spec names a subcommand for but that has no
// tool-specific structured parser of its own (cargo, pnpm, npm, npx,
// kubectl, gh, playwright, tsc, next, eslint, biome, lint, prettier,
// format, ruff, pytest, pip, prisma, curl, wget, grep, find, ls, tree,
// read, diff, log, json, deps, test).
//
// It always runs at passthrough tier: the underlying command's own
// stdout/stderr and exit code are preserved verbatim, just captured and
// replayed through the same Runner/IO plumbing every other filter uses,
// so that even an unrecognized tool still gets accurate telemetry and a
// consistent [RTK:PASSTHROUGH] marker at non-zero verbosity. Each filter
// in the registry (gotool, git, docker) has its own copy of this same
// passthrough path for the subcommands it doesn't specially parse; this
// package is that shared shape pulled out for every tool family that has
// no special parsing at all.
package generic

import (
	"context"
	"fmt"
	"time"

	"github.com/rtk-proxy/rtk/internal/rtk/filter"
	"github.com/rtk-proxy/rtk/internal/rtk/formatter"
)

const defaultTimeout = 2 * time.Minute

// Filter runs toolName with the given args and relays its output and
// exit code unchanged.
type Filter struct {
	ToolName string
}

// New creates a passthrough filter for the given underlying command name.
func New(toolName string) *Filter {
	return &Filter{ToolName: toolName}
}

func (f *Filter) Run(ctx context.Context, io filter.IO, args []string, mode formatter.Mode) (int, error) {
	start := time.Now()
	res, err := io.Runner.Run(ctx, io.Dir, f.ToolName, args, defaultTimeout)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return 1, fmt.Errorf("run %s: %w", f.ToolName, err)
	}

	if res.Stdout != "" {
		fmt.Fprint(io.Stdout, res.Stdout)
	}
	if res.Stderr != "" {
		fmt.Fprint(io.Stderr, res.Stderr)
	}
	if mode != formatter.Compact {
		fmt.Fprintf(io.Stderr, "[RTK:PASSTHROUGH] %s: no structured filter for this tool, relaying raw output\n", f.ToolName)
	}

	original := f.ToolName
	for _, a := range args {
		original += " " + a
	}
	if io.Tel != nil {
		_ = io.Tel.RecordPassthrough(original, original, elapsed)
	}

	return res.ExitCode, nil
}
