// Package runnertest provides a recording runner.Runner for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/runner"
)

// Recorder records every command instead of executing it. Commands whose
// rendered line starts with a prefix registered through FailOn return an
// *runner.ExitError with the given code.
type Recorder struct {
	mu       sync.Mutex
	Cmds     []runner.Cmd
	failures map[string]int
	// OnRun, when set, is invoked for every recorded command before the
	// failure check. Tests use it to emulate side effects such as a clone
	// creating its target directory.
	OnRun func(c runner.Cmd) error
}

// FailOn makes commands starting with prefix fail with code.
func (r *Recorder) FailOn(prefix string, code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures == nil {
		r.failures = map[string]int{}
	}
	r.failures[prefix] = code
}

func (r *Recorder) Run(_ context.Context, c runner.Cmd) error {
	r.mu.Lock()
	r.Cmds = append(r.Cmds, c)
	hook := r.OnRun
	failures := r.failures
	r.mu.Unlock()
	if hook != nil {
		if err := hook(c); err != nil {
			return err
		}
	}
	line := c.String()
	for prefix, code := range failures {
		if strings.HasPrefix(line, prefix) {
			return &runner.ExitError{Cmd: c, Code: code}
		}
	}
	return nil
}

// Lines returns the recorded commands rendered as "name arg...".
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Cmds))
	for _, c := range r.Cmds {
		out = append(out, c.String())
	}
	return out
}

// Contains reports whether any recorded command line starts with prefix.
func (r *Recorder) Contains(prefix string) bool {
	for _, line := range r.Lines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
