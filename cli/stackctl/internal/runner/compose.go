package runner

import (
	"context"
	"strings"
)

// ComposeArgs builds the docker CLI arguments for `docker compose`, adding an
// explicit project name (-p) before the -f file arguments and the subcommand.
func ComposeArgs(projectName string, fileArgs []string, args ...string) []string {
	all := []string{"compose"}
	if strings.TrimSpace(projectName) != "" {
		all = append(all, "-p", projectName)
	}
	all = append(all, fileArgs...)
	return append(all, args...)
}

// Compose runs docker compose in dir scoped to projectName.
func Compose(ctx context.Context, r Runner, dir, projectName string, fileArgs []string, args ...string) error {
	return r.Run(ctx, Command(dir, "docker", ComposeArgs(projectName, fileArgs, args...)...))
}

// ComposeUp starts the services of a single compose file in detached mode:
// docker compose -p <project> -f <file> up -d.
func ComposeUp(ctx context.Context, r Runner, dir, projectName, file string) error {
	return Compose(ctx, r, dir, projectName, []string{"-f", file}, "up", "-d")
}
