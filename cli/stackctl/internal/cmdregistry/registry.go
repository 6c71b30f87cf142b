package cmdregistry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/config"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/runner"
)

// Context carries the pre-parsed data and handles that command handlers need.
type Context struct {
	DryRun  bool
	Project string
	Root    string
	Args    []string
	Config  config.Config
	Runner  runner.Runner
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// Handler executes a command given the shared context.
type Handler func(ctx context.Context, c *Context) error

// UsageError marks an error caused by bad command-line input.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// Usagef builds a UsageError.
func Usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// IsUsage reports whether err is, or wraps, a UsageError.
func IsUsage(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// Registry maps command names to handlers.
type Registry struct {
	commands map[string]Handler
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{commands: make(map[string]Handler)}
}

// Register sets the handler for cmd. It panics if cmd already exists.
func (r *Registry) Register(cmd string, h Handler) {
	if _, exists := r.commands[cmd]; exists {
		panic(fmt.Sprintf("command %s already registered", cmd))
	}
	r.commands[cmd] = h
}

// Lookup returns the handler and whether it exists.
func (r *Registry) Lookup(cmd string) (Handler, bool) {
	h, ok := r.commands[cmd]
	return h, ok
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
