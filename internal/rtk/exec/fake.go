package exec

import (
	"context"
	"time"
)

// FakeRunner is a scripted Runner for filter unit tests: it returns a fixed
// Result (or error) regardless of the requested command, and records the
// last invocation for assertions.
type FakeRunner struct {
	Result  Result
	Err     error
	LastDir string
	LastCmd string
	LastArgs []string
}

func (f *FakeRunner) Run(ctx context.Context, dir string, name string, args []string, timeout time.Duration) (Result, error) {
	f.LastDir = dir
	f.LastCmd = name
	f.LastArgs = args
	return f.Result, f.Err
}
