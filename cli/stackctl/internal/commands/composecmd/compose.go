package composecmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/cmdregistry"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/commands/stackcmd"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/compose"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/runner"
)

// Register adds compose lifecycle commands to the registry.
func Register(r *cmdregistry.Registry) {
	r.Register("down", handleDown)
	r.Register("status", handleStatus)
	r.Register("logs", handleLogs)
}

func ensureProject(c *cmdregistry.Context) error {
	if strings.TrimSpace(c.Project) == "" {
		return cmdregistry.Usagef("-p <project> is required")
	}
	return nil
}

// fileArgs returns -f arguments for the selected stacks that have a compose
// file on disk.
func fileArgs(c *cmdregistry.Context) ([]string, error) {
	sel, err := stackcmd.Selected(c)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(sel))
	for _, s := range sel {
		files = append(files, s.ComposeFile())
	}
	args := compose.ExistingFileArgs(c.Root, files...)
	if len(args) == 0 {
		return nil, fmt.Errorf("no compose files found under %s; run sync first", c.Root)
	}
	return args, nil
}

func handleDown(ctx context.Context, c *cmdregistry.Context) error {
	if err := ensureProject(c); err != nil {
		return err
	}
	files, err := fileArgs(c)
	if err != nil {
		return err
	}
	return runner.Compose(ctx, c.Runner, c.Root, c.Project, files, "down")
}

func handleStatus(ctx context.Context, c *cmdregistry.Context) error {
	if err := ensureProject(c); err != nil {
		return err
	}
	files, err := fileArgs(c)
	if err != nil {
		return err
	}
	return runner.Compose(ctx, c.Runner, c.Root, c.Project, files, "ps")
}

// logs [--follow] [--tail N] [stack...]
func handleLogs(ctx context.Context, c *cmdregistry.Context) error {
	if err := ensureProject(c); err != nil {
		return err
	}
	fs := pflag.NewFlagSet("logs", pflag.ContinueOnError)
	fs.SetOutput(c.Stderr)
	follow := fs.BoolP("follow", "f", false, "follow log output")
	tail := fs.Int("tail", -1, "number of lines to show from the end of the logs")
	if err := fs.Parse(c.Args); err != nil {
		return cmdregistry.Usagef("logs: %v", err)
	}
	sub := *c
	sub.Args = fs.Args()
	files, err := fileArgs(&sub)
	if err != nil {
		return err
	}
	args := []string{"logs"}
	if *follow {
		args = append(args, "--follow")
	}
	if *tail >= 0 {
		args = append(args, "--tail", strconv.Itoa(*tail))
	}
	return runner.Compose(ctx, c.Runner, c.Root, c.Project, files, args...)
}
