package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/execx"
)

// ErrCommandFailed is wrapped by every error returned for a non-zero exit.
var ErrCommandFailed = errors.New("command failed")

// Cmd is a single external command invocation.
type Cmd struct {
	Dir  string
	Name string
	Args []string
}

// Command builds a Cmd that runs in dir.
func Command(dir, name string, args ...string) Cmd {
	return Cmd{Dir: dir, Name: name, Args: args}
}

func (c Cmd) String() string {
	return execx.CommandLine(c.Name, c.Args...)
}

// Runner executes external commands. A non-zero exit is a hard failure.
type Runner interface {
	Run(ctx context.Context, c Cmd) error
}

// ExitError reports a command that exited with a non-zero status.
type ExitError struct {
	Cmd  Cmd
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit %d", e.Cmd, e.Code)
	if e.Cmd.Dir != "" {
		msg += " (in " + e.Cmd.Dir + ")"
	}
	return msg
}

func (e *ExitError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCommandFailed}
	}
	return []error{ErrCommandFailed, e.Err}
}

// Host runs commands on the host through execx. When DryRun is set it only
// prints the command to Out (stderr when nil).
type Host struct {
	DryRun bool
	Out    io.Writer
}

func (h *Host) Run(ctx context.Context, c Cmd) error {
	if h.DryRun {
		line := "+ " + c.String()
		if strings.TrimSpace(c.Dir) != "" {
			line += "  (in " + c.Dir + ")"
		}
		out := h.Out
		if out == nil {
			out = os.Stderr
		}
		fmt.Fprintln(out, line)
		return nil
	}
	log.WithField("dir", c.Dir).Infof("Running: %s", c)
	res := execx.RunCtx(ctx, c.Dir, c.Name, c.Args...)
	if res.Code != 0 {
		return &ExitError{Cmd: c, Code: res.Code, Err: res.Err}
	}
	return nil
}
