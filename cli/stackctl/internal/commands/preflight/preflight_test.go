package preflight

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/cmdregistry"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/config"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/execx"
)

func stubCapture(t *testing.T, failing ...string) {
	t.Helper()
	orig := capture
	t.Cleanup(func() { capture = orig })
	capture = func(_ context.Context, _ string, name string, args ...string) (string, execx.Result) {
		line := execx.CommandLine(name, args...)
		for _, f := range failing {
			if line == f {
				return "", execx.Result{Code: 1, Err: errors.New("not found")}
			}
		}
		return "ok", execx.Result{}
	}
}

func newContext(t *testing.T) (*cmdregistry.Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("A=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LITELLM_MASTER_KEY", "k")
	t.Setenv("LITELLM_SALT_KEY", "s")
	t.Setenv("LITELLM_PORT", "4000")
	cfg := config.Default()
	cfg.N8N.URL = "http://n8n/webhook"
	var out, errOut bytes.Buffer
	return &cmdregistry.Context{Project: "localai", Root: root, Config: cfg, Stdout: &out, Stderr: &errOut}, &out, &errOut
}

func TestPreflightAllGood(t *testing.T) {
	stubCapture(t)
	c, out, errOut := newContext(t)
	if err := handle(context.Background(), c); err != nil {
		t.Fatalf("preflight: %v (stderr: %s)", err, errOut.String())
	}
	for _, want := range []string{"[preflight] git: OK", "[preflight] docker: OK", "[preflight] docker compose: OK", "[preflight] .env: OK"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("missing %q in %q", want, out.String())
		}
	}
	if errOut.Len() != 0 {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
}

func TestPreflightMissingDocker(t *testing.T) {
	stubCapture(t, "docker version")
	c, _, errOut := newContext(t)
	if err := handle(context.Background(), c); err == nil {
		t.Fatal("expected failure without docker")
	}
	if !strings.Contains(errOut.String(), "[preflight] docker not available") {
		t.Fatalf("stderr=%q", errOut.String())
	}
}

func TestPreflightWarningsDoNotFail(t *testing.T) {
	stubCapture(t)
	c, _, errOut := newContext(t)
	os.Unsetenv("LITELLM_PORT")
	c.Config.N8N.URL = ""
	if err := os.Remove(filepath.Join(c.Root, ".env")); err != nil {
		t.Fatal(err)
	}
	if err := handle(context.Background(), c); err != nil {
		t.Fatalf("warnings should not fail preflight: %v", err)
	}
	for _, want := range []string{"LITELLM_PORT not set", ".env missing", "warning: n8n.url is not set"} {
		if !strings.Contains(errOut.String(), want) {
			t.Fatalf("missing %q in %q", want, errOut.String())
		}
	}
}

func TestPreflightConfigErrorsFail(t *testing.T) {
	stubCapture(t)
	c, _, errOut := newContext(t)
	c.Config.Stacks["ollama"] = config.StackConfig{}
	if err := handle(context.Background(), c); err == nil {
		t.Fatal("expected failure for unknown stack override")
	}
	if !strings.Contains(errOut.String(), `error: unknown stack "ollama"`) {
		t.Fatalf("stderr=%q", errOut.String())
	}
}
