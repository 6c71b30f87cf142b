package execx

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Result is the outcome of a process run. Code is the exit status, 124 when
// the context deadline expired, and 1 when the process could not be started.
type Result struct {
	Code int
	Err  error
}

// RunCtx executes name in dir, streaming stdout/stderr to the host. An empty
// dir means the current working directory of the process.
func RunCtx(ctx context.Context, dir, name string, args ...string) Result {
	log.Debugf("+ %s", CommandLine(name, args...))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	return Result{Code: exitCode(ctx, err), Err: err}
}

// Capture runs a command and returns stdout as string and exit code.
func Capture(ctx context.Context, dir, name string, args ...string) (string, Result) {
	log.Debugf("+ %s", CommandLine(name, args...))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	return string(out), Result{Code: exitCode(ctx, err), Err: err}
}

// CommandLine renders name and args the way they are echoed in logs.
func CommandLine(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

func exitCode(ctx context.Context, err error) int {
	if err == nil {
		return 0
	}
	// A killed process also surfaces as *exec.ExitError, so check the deadline first.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return 124
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 1
}
