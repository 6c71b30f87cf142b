package stacks

import (
	"context"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/compose"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/config"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/envfile"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/files"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/gitsync"
)

const (
	LiteLLMMasterKey = "LITELLM_MASTER_KEY"
	LiteLLMSaltKey   = "LITELLM_SALT_KEY"
	LiteLLMPort      = "LITELLM_PORT"

	liteLLMDefaultPort = "4000"
)

// LiteLLM is the LiteLLM proxy stack. Its database service is renamed to
// db_litellm so it can share a compose project with other stacks.
type LiteLLM struct {
	source
}

func NewLiteLLM(o config.StackConfig) *LiteLLM {
	return &LiteLLM{source: newSource("LiteLLM", gitsync.Checkout{
		Dir:    "litellm",
		URL:    "https://github.com/BerriAI/litellm",
		Branch: "main",
	}, o)}
}

func (s *LiteLLM) Name() string { return "litellm" }

func (s *LiteLLM) ComposeFile() string {
	return filepath.Join(s.checkout.Dir, "docker-compose.yml")
}

// Patch returns the compose edits applied for the given host port.
func (s *LiteLLM) Patch(port string) compose.Patch {
	return compose.Patch{
		Service:       "litellm",
		Port:          port,
		DefaultPort:   liteLLMDefaultPort,
		ContainerPort: liteLLMDefaultPort,
		OldKey:        "db",
		NewKey:        "db_litellm",
	}
}

// Prepare writes litellm/.env from LITELLM_MASTER_KEY and LITELLM_SALT_KEY
// when the checkout exists, then patches the compose file for LITELLM_PORT.
// LITELLM_PORT must be set; an empty value keeps the upstream port.
func (s *LiteLLM) Prepare(_ context.Context, env Env) error {
	dir := s.checkout.Path(env.Root)
	composePath := resolve(env.Root, s.ComposeFile())
	if env.DryRun {
		log.Infof("dry-run: would write %s and patch %s", filepath.Join(dir, ".env"), composePath)
		return nil
	}
	if files.DirExists(dir) {
		log.Info("Creating .env in litellm folder...")
		vars, err := envfile.FromEnv(LiteLLMMasterKey, LiteLLMSaltKey)
		if err != nil {
			return err
		}
		if err := envfile.Write(filepath.Join(dir, ".env"), vars); err != nil {
			return err
		}
		log.Info("LiteLLM env file created successfully.")
	}
	portVars, err := envfile.FromEnv(LiteLLMPort)
	if err != nil {
		return err
	}
	res, err := compose.PatchFile(composePath, s.Patch(portVars[LiteLLMPort]))
	if err != nil {
		return fmt.Errorf("update compose file: %w", err)
	}
	log.WithFields(log.Fields{
		"ports_changed": res.PortsChanged,
		"renamed":       res.Renamed,
		"rewritten":     res.Rewritten,
	}).Info("LiteLLM docker-compose.yml updated successfully.")
	return nil
}

func (s *LiteLLM) Start(ctx context.Context, env Env) error {
	return s.start(ctx, env, s.ComposeFile())
}
