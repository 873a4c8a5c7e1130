package tools

import (
	"context"
	"sync"
)

// Recorder is a ToolExecutor that records invocations instead of running
// anything. Hook, when set, runs for each call and decides the result.
type Recorder struct {
	mu    sync.Mutex
	Calls []ExecuteOptions
	Hook  func(opts ExecuteOptions) (*ExecuteResult, error)
}

func (r *Recorder) Name() string                 { return "recorder" }
func (r *Recorder) IsAvailable(tool string) bool { return true }

// Execute records opts and returns the hook's result or a zero exit.
func (r *Recorder) Execute(_ context.Context, opts ExecuteOptions) (*ExecuteResult, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, opts)
	hook := r.Hook
	r.mu.Unlock()
	if hook != nil {
		return hook(opts)
	}
	return &ExecuteResult{Executor: "recorder"}, nil
}

// Count returns how many invocations used args[0] == verb.
func (r *Recorder) Count(verb string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Calls {
		if len(c.Args) > 0 && c.Args[0] == verb {
			n++
		}
	}
	return n
}
