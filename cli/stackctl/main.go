package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/cmdregistry"
	composecmd "github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/commands/composecmd"
	forwardcmd "github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/commands/forwardcmd"
	preflightcmd "github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/commands/preflight"
	stackcmd "github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/commands/stackcmd"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/config"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/envfile"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/logging"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/runner"
)

func usage(w io.Writer) {
	fmt.Fprint(w, `stackctl - provision the local AI stack and talk to n8n
Usage: stackctl [-p <project>] [--root DIR] [--config FILE] [--dry-run] <command> [args]

Commands:
  sync [stack...]        clone or update the upstream repositories (sparse, docker/ only)
  prepare [stack...]     write .env files and patch compose files
  up [stack...]          docker compose up -d for each stack
  provision [stack...]   sync, prepare and up, stack by stack
  down|status [stack...] docker compose down / ps across synced stacks
  logs [-f] [--tail N] [stack...]
  patch --file F [--service S] [--port P] [--default-port D] [--container-port C] [--old K --new K2]
  forward [--session ID] [--body FILE|-] [--json] [message...]
  preflight              host checks: git, docker, .env, LITELLM_*, config

Stacks: litellm, supabase (default: all, in that order)

Flags:
  -p, --project   compose project name (default from config, else localai)
  --root          workspace directory holding .env and the checkouts (default: cwd)
  --config        config file (default: $STACKCTL_CONFIG, else <root>/stackctl.yaml)
  --dry-run       print external commands instead of running them
  --log-level     debug, info, warn, error (overrides config)

Environment:
  LITELLM_MASTER_KEY, LITELLM_SALT_KEY, LITELLM_PORT  litellm prepare
  STACKCTL_PROJECT, STACKCTL_LOG_LEVEL, N8N_URL, N8N_BEARER_TOKEN  config overrides
`)
}

func newRegistry() *cmdregistry.Registry {
	registry := cmdregistry.New()
	stackcmd.Register(registry)
	composecmd.Register(registry)
	preflightcmd.Register(registry)
	forwardcmd.Register(registry)
	return registry
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one CLI invocation and returns the process exit code:
// 0 on success, 1 when the command fails and 2 on usage errors.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("stackctl", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	project := fs.StringP("project", "p", "", "compose project name")
	root := fs.String("root", "", "workspace directory")
	cfgPath := fs.String("config", "", "config file")
	dryRun := fs.Bool("dry-run", false, "print commands instead of running them")
	logLevel := fs.String("log-level", "", "log level")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr)
		return 2
	}
	if rest[0] == "help" {
		usage(stdout)
		return 0
	}

	wd, err := workspace(*root)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logging.Setup(stderr, *logLevel)
	if err := envfile.LoadDotenv(filepath.Join(wd, ".env")); err != nil {
		log.WithError(err).Warn("could not load workspace .env")
	}
	cfg, err := config.Load(config.Path(*cfgPath, wd))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if !fs.Changed("log-level") {
		logging.Setup(stderr, cfg.LogLevel)
	}
	if fs.Changed("project") {
		cfg.Project = *project
	}

	cmd, sub := rest[0], rest[1:]
	handler, ok := newRegistry().Lookup(cmd)
	if !ok {
		fmt.Fprintf(stderr, "unknown command: %s\n", cmd)
		usage(stderr)
		return 2
	}
	c := &cmdregistry.Context{
		DryRun:  *dryRun,
		Project: cfg.Project,
		Root:    wd,
		Args:    sub,
		Config:  cfg,
		Runner:  &runner.Host{DryRun: *dryRun, Out: stderr},
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
	}
	if err := handler(ctx, c); err != nil {
		fmt.Fprintln(stderr, err)
		if cmdregistry.IsUsage(err) {
			return 2
		}
		return 1
	}
	return 0
}

func workspace(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if st, err := os.Stat(abs); err != nil || !st.IsDir() {
		return "", fmt.Errorf("--root %s is not a directory", root)
	}
	return abs, nil
}
