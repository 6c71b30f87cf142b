package stacks

import (
	"context"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/config"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/envfile"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/gitsync"
)

// Supabase runs the self-hosting compose setup shipped in the docker/
// directory of the Supabase repository.
type Supabase struct {
	source
}

func NewSupabase(o config.StackConfig) *Supabase {
	return &Supabase{source: newSource("Supabase", gitsync.Checkout{
		Dir:    "supabase",
		URL:    "https://github.com/supabase/supabase.git",
		Branch: "master",
	}, o)}
}

func (s *Supabase) Name() string { return "supabase" }

func (s *Supabase) ComposeFile() string {
	return filepath.Join(s.checkout.Dir, "docker", "docker-compose.yml")
}

// Prepare copies the workspace .env into the docker directory of the
// checkout. A missing workspace .env is an error.
func (s *Supabase) Prepare(_ context.Context, env Env) error {
	src := filepath.Join(env.Root, ".env")
	dst := filepath.Join(s.checkout.Path(env.Root), "docker", ".env")
	if env.DryRun {
		log.Infof("dry-run: would copy %s to %s", src, dst)
		return nil
	}
	log.Info("Copying .env in root to .env in supabase/docker...")
	return envfile.Copy(src, dst)
}

func (s *Supabase) Start(ctx context.Context, env Env) error {
	return s.start(ctx, env, s.ComposeFile())
}
