package stackcmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/cmdregistry"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/compose"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/stacks"
)

// Register adds the provisioning commands to the registry.
func Register(r *cmdregistry.Registry) {
	r.Register("sync", eachStack(func(ctx context.Context, s stacks.Stack, env stacks.Env) error {
		return s.Sync(ctx, env)
	}))
	r.Register("prepare", eachStack(func(ctx context.Context, s stacks.Stack, env stacks.Env) error {
		return s.Prepare(ctx, env)
	}))
	r.Register("up", eachStack(func(ctx context.Context, s stacks.Stack, env stacks.Env) error {
		return s.Start(ctx, env)
	}))
	r.Register("provision", handleProvision)
	r.Register("patch", handlePatch)
}

func stackEnv(c *cmdregistry.Context) stacks.Env {
	return stacks.Env{Root: c.Root, Project: c.Project, Runner: c.Runner, DryRun: c.DryRun}
}

// Selected resolves the stack names in c.Args.
func Selected(c *cmdregistry.Context) ([]stacks.Stack, error) {
	sel, err := stacks.Select(stacks.All(c.Config.Stacks), c.Args)
	if err != nil {
		return nil, cmdregistry.Usagef("%v", err)
	}
	return sel, nil
}

func ensureProject(c *cmdregistry.Context) error {
	if strings.TrimSpace(c.Project) == "" {
		return cmdregistry.Usagef("-p <project> is required")
	}
	return nil
}

func eachStack(step func(context.Context, stacks.Stack, stacks.Env) error) cmdregistry.Handler {
	return func(ctx context.Context, c *cmdregistry.Context) error {
		if err := ensureProject(c); err != nil {
			return err
		}
		sel, err := Selected(c)
		if err != nil {
			return err
		}
		env := stackEnv(c)
		for _, s := range sel {
			if err := step(ctx, s, env); err != nil {
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
		}
		return nil
	}
}

func handleProvision(ctx context.Context, c *cmdregistry.Context) error {
	if err := ensureProject(c); err != nil {
		return err
	}
	sel, err := Selected(c)
	if err != nil {
		return err
	}
	return stacks.Provision(ctx, stackEnv(c), sel...)
}

// handlePatch runs the Compose Patcher on an arbitrary file:
// patch --file F [--service S] [--port P] [--default-port D] [--container-port C] [--old K --new K2]
func handlePatch(_ context.Context, c *cmdregistry.Context) error {
	fs := pflag.NewFlagSet("patch", pflag.ContinueOnError)
	fs.SetOutput(c.Stderr)
	file := fs.String("file", "", "compose file to rewrite")
	var p compose.Patch
	fs.StringVar(&p.Service, "service", "", "service whose ports are replaced")
	fs.StringVar(&p.Port, "port", "", "host port; empty or equal to --default-port keeps the ports")
	fs.StringVar(&p.DefaultPort, "default-port", "4000", "port the upstream file already publishes")
	fs.StringVar(&p.ContainerPort, "container-port", "", "container side of the mapping (default: --default-port)")
	fs.StringVar(&p.OldKey, "old", "", "service key to rename")
	fs.StringVar(&p.NewKey, "new", "", "new service key")
	if err := fs.Parse(c.Args); err != nil {
		return cmdregistry.Usagef("patch: %v", err)
	}
	if strings.TrimSpace(*file) == "" {
		return cmdregistry.Usagef("patch: --file is required")
	}
	if p.Port != "" && p.Service == "" {
		return cmdregistry.Usagef("patch: --port needs --service")
	}
	if (p.OldKey == "") != (p.NewKey == "") {
		return cmdregistry.Usagef("patch: --old and --new go together")
	}
	path := *file
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.Root, path)
	}
	if c.DryRun {
		out, res, err := compose.Preview(path, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Stderr, "+ patch %s (ports changed: %t, renamed: %t)\n", path, res.PortsChanged, res.Renamed)
		_, err = c.Stdout.Write(out)
		return err
	}
	res, err := compose.PatchFile(path, p)
	if err != nil {
		return err
	}
	if !res.Changed() {
		fmt.Fprintf(c.Stdout, "%s: already up to date\n", path)
		return nil
	}
	fmt.Fprintf(c.Stdout, "%s: ports changed: %t, renamed: %t", path, res.PortsChanged, res.Renamed)
	if len(res.Rewritten) > 0 {
		fmt.Fprintf(c.Stdout, ", rewritten: %s", strings.Join(res.Rewritten, ", "))
	}
	fmt.Fprintln(c.Stdout)
	return nil
}
