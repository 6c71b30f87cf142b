package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/cmdregistry"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/config"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/execx"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/stacks"
)

var capture = execx.Capture

const probeTimeout = 15 * time.Second

// Register adds the preflight command to the registry.
func Register(r *cmdregistry.Registry) {
	r.Register("preflight", handle)
}

func handle(ctx context.Context, c *cmdregistry.Context) error {
	ok := true
	probe := func(label, name string, args ...string) {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if _, res := capture(pctx, c.Root, name, args...); res.Code != 0 {
			fmt.Fprintf(c.Stderr, "[preflight] %s not available\n", label)
			ok = false
			return
		}
		fmt.Fprintf(c.Stdout, "[preflight] %s: OK\n", label)
	}
	probe("git", "git", "--version")
	probe("docker", "docker", "version")
	probe("docker compose", "docker", "compose", "version")

	if _, err := os.Stat(filepath.Join(c.Root, ".env")); err != nil {
		fmt.Fprintf(c.Stderr, "[preflight] %s missing; supabase prepare will fail\n", filepath.Join(c.Root, ".env"))
	} else {
		fmt.Fprintln(c.Stdout, "[preflight] .env: OK")
	}
	for _, k := range []string{stacks.LiteLLMMasterKey, stacks.LiteLLMSaltKey, stacks.LiteLLMPort} {
		if _, set := os.LookupEnv(k); !set {
			fmt.Fprintf(c.Stderr, "[preflight] %s not set; litellm prepare will fail\n", k)
		}
	}

	warnings, errs := config.Validate(c.Config, stacks.Names())
	for _, w := range warnings {
		fmt.Fprintf(c.Stderr, "[preflight] warning: %s\n", w)
	}
	for _, e := range errs {
		fmt.Fprintf(c.Stderr, "[preflight] error: %s\n", e)
	}
	if len(errs) > 0 {
		ok = false
	}
	if !ok {
		return fmt.Errorf("preflight checks failed")
	}
	return nil
}
