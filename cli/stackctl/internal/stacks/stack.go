// Package stacks wires the Repository Syncer, environment preparation, the
// Compose Patcher and the Service Launcher into the provisioning sequence
// of each third-party stack.
package stacks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/config"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/gitsync"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/runner"
)

// Env is what every stack step needs from the caller.
type Env struct {
	Root    string
	Project string
	Runner  runner.Runner
	DryRun  bool
}

// Stack is one provisionable service group.
type Stack interface {
	Name() string
	Sync(ctx context.Context, env Env) error
	Prepare(ctx context.Context, env Env) error
	Start(ctx context.Context, env Env) error
	// ComposeFile is relative to the workspace root unless the checkout
	// directory was overridden with an absolute path.
	ComposeFile() string
}

// Names lists the built-in stacks in provisioning order.
func Names() []string {
	return []string{"litellm", "supabase"}
}

// All returns the built-in stacks with per-stack overrides applied.
func All(overrides map[string]config.StackConfig) []Stack {
	return []Stack{
		NewLiteLLM(overrides["litellm"]),
		NewSupabase(overrides["supabase"]),
	}
}

// Select returns the stacks named in names, in the order given. An empty
// names selects every stack.
func Select(all []Stack, names []string) ([]Stack, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := map[string]Stack{}
	for _, s := range all {
		byName[s.Name()] = s
	}
	var out []Stack
	for _, n := range names {
		s, ok := byName[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("unknown stack %q (known: %s)", n, strings.Join(Names(), ", "))
		}
		out = append(out, s)
	}
	return out, nil
}

// Provision runs Sync, Prepare and Start for each stack in turn and stops at
// the first failure.
func Provision(ctx context.Context, env Env, stacks ...Stack) error {
	for _, s := range stacks {
		log.WithField("stack", s.Name()).Info("provisioning")
		if err := s.Sync(ctx, env); err != nil {
			return fmt.Errorf("%s: sync: %w", s.Name(), err)
		}
		if err := s.Prepare(ctx, env); err != nil {
			return fmt.Errorf("%s: prepare: %w", s.Name(), err)
		}
		if err := s.Start(ctx, env); err != nil {
			return fmt.Errorf("%s: start: %w", s.Name(), err)
		}
	}
	return nil
}

// source is the upstream checkout shared by the built-in stacks.
type source struct {
	label    string
	checkout gitsync.Checkout
}

func newSource(label string, c gitsync.Checkout, o config.StackConfig) source {
	if o.Repo != "" {
		c.URL = o.Repo
	}
	if o.Branch != "" {
		c.Branch = o.Branch
	}
	if o.Dir != "" {
		c.Dir = o.Dir
	}
	c.Name = label
	return source{label: label, checkout: c}
}

// Checkout returns the upstream repository settings of the stack.
func (s source) Checkout() gitsync.Checkout { return s.checkout }

func (s source) Sync(ctx context.Context, env Env) error {
	return gitsync.Sync(ctx, env.Runner, env.Root, s.checkout)
}

func (s source) start(ctx context.Context, env Env, file string) error {
	log.Infof("Starting %s services...", s.label)
	return runner.ComposeUp(ctx, env.Runner, env.Root, env.Project, file)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
