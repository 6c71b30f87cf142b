// Package gitsync keeps a sparse, blobless git checkout of an upstream
// repository up to date. A checkout is cloned on first sync and pulled on
// every later one; it is never removed.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/runner"
)

// DefaultSparsePath is the only subtree materialized by a fresh clone.
const DefaultSparsePath = "docker"

var ErrNotDirectory = errors.New("checkout path is not a directory")

// Checkout describes one local working copy of an upstream repository.
type Checkout struct {
	Name       string // human label used in log lines
	Dir        string // relative to the workspace root unless absolute
	URL        string
	Branch     string
	SparsePath string
}

func (c Checkout) sparsePath() string {
	if strings.TrimSpace(c.SparsePath) == "" {
		return DefaultSparsePath
	}
	return c.SparsePath
}

func (c Checkout) label() string {
	if c.Name != "" {
		return c.Name
	}
	return filepath.Base(c.Dir)
}

// Path resolves the checkout directory against root.
func (c Checkout) Path(root string) string {
	if filepath.IsAbs(c.Dir) {
		return filepath.Clean(c.Dir)
	}
	return filepath.Join(root, c.Dir)
}

// Sync clones the checkout if its directory is absent, otherwise pulls it.
// The first failing git command aborts the sync; a partial clone is left in
// place.
func Sync(ctx context.Context, r runner.Runner, root string, c Checkout) error {
	if strings.TrimSpace(c.URL) == "" || strings.TrimSpace(c.Dir) == "" {
		return fmt.Errorf("gitsync: checkout %q needs a url and a dir", c.label())
	}
	dir := c.Path(root)
	st, err := os.Stat(dir)
	switch {
	case err == nil && !st.IsDir():
		return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	case err == nil:
		log.Infof("%s repository already exists, updating...", c.label())
		return pull(ctx, r, dir)
	case errors.Is(err, os.ErrNotExist):
		log.Infof("Cloning the %s repository...", c.label())
		return clone(ctx, r, root, dir, c)
	default:
		return err
	}
}

func clone(ctx context.Context, r runner.Runner, root, dir string, c Checkout) error {
	steps := []runner.Cmd{
		runner.Command(root, "git", "clone", "--filter=blob:none", "--no-checkout", c.URL, dir),
		runner.Command(dir, "git", "sparse-checkout", "init", "--cone"),
		runner.Command(dir, "git", "sparse-checkout", "set", c.sparsePath()),
	}
	if c.Branch != "" {
		steps = append(steps, runner.Command(dir, "git", "checkout", c.Branch))
	}
	for _, step := range steps {
		if err := r.Run(ctx, step); err != nil {
			return fmt.Errorf("clone %s: %w", c.label(), err)
		}
	}
	return nil
}

func pull(ctx context.Context, r runner.Runner, dir string) error {
	if err := r.Run(ctx, runner.Command(dir, "git", "pull")); err != nil {
		return fmt.Errorf("update %s: %w", dir, err)
	}
	return nil
}
