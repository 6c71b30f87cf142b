package stacks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/config"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/envfile"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/runner"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/runner/runnertest"
)

const upstreamLiteLLM = `services:
  litellm:
    image: ghcr.io/berriai/litellm:main-stable
    ports:
      - "4000:4000"
    environment:
      DATABASE_URL: "postgresql://llmproxy:dbpassword9090@db:5432/litellm"
    depends_on:
      - db
  db:
    image: postgres:16
`

// fakeUpstream emulates git clone by creating the checkout with the files an
// upstream sparse checkout would contain.
func fakeUpstream(t *testing.T) func(runner.Cmd) error {
	return func(c runner.Cmd) error {
		if c.Name != "git" || len(c.Args) == 0 || c.Args[0] != "clone" {
			return nil
		}
		dir := c.Args[len(c.Args)-1]
		switch filepath.Base(dir) {
		case "litellm":
			require.NoError(t, os.MkdirAll(dir, 0o755))
			return os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte(upstreamLiteLLM), 0o644)
		case "supabase":
			require.NoError(t, os.MkdirAll(filepath.Join(dir, "docker"), 0o755))
			return os.WriteFile(filepath.Join(dir, "docker", "docker-compose.yml"), []byte("services: {}\n"), 0o644)
		}
		return nil
	}
}

func setLiteLLMEnv(t *testing.T, port string) {
	t.Setenv(LiteLLMMasterKey, "sk-master")
	t.Setenv(LiteLLMSaltKey, "sk-salt")
	t.Setenv(LiteLLMPort, port)
}

func newEnv(t *testing.T, rec *runnertest.Recorder) Env {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("POSTGRES_PASSWORD=secret\n"), 0o644))
	return Env{Root: root, Project: "localai", Runner: rec}
}

func TestProvisionAllStacks(t *testing.T) {
	setLiteLLMEnv(t, "4001")
	rec := &runnertest.Recorder{OnRun: fakeUpstream(t)}
	env := newEnv(t, rec)

	require.NoError(t, Provision(context.Background(), env, All(nil)...))

	lines := rec.Lines()
	assert.Equal(t, []string{
		"git clone --filter=blob:none --no-checkout https://github.com/BerriAI/litellm " + filepath.Join(env.Root, "litellm"),
		"git sparse-checkout init --cone",
		"git sparse-checkout set docker",
		"git checkout main",
		"docker compose -p localai -f litellm/docker-compose.yml up -d",
		"git clone --filter=blob:none --no-checkout https://github.com/supabase/supabase.git " + filepath.Join(env.Root, "supabase"),
		"git sparse-checkout init --cone",
		"git sparse-checkout set docker",
		"git checkout master",
		"docker compose -p localai -f supabase/docker/docker-compose.yml up -d",
	}, lines)
	for _, c := range rec.Cmds {
		if c.Name == "docker" {
			assert.Equal(t, env.Root, c.Dir)
		}
	}

	dotenv, err := envfile.Read(filepath.Join(env.Root, "litellm", ".env"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"LITELLM_MASTER_KEY": "sk-master", "LITELLM_SALT_KEY": "sk-salt"}, dotenv)

	patched, err := os.ReadFile(filepath.Join(env.Root, "litellm", "docker-compose.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(patched), `"4001:4000"`)
	assert.Contains(t, string(patched), "db_litellm:")
	assert.Contains(t, string(patched), "@db_litellm:5432")

	copied, err := os.ReadFile(filepath.Join(env.Root, "supabase", "docker", ".env"))
	require.NoError(t, err)
	assert.Equal(t, "POSTGRES_PASSWORD=secret\n", string(copied))
}

func TestProvisionSecondRunPulls(t *testing.T) {
	setLiteLLMEnv(t, "")
	rec := &runnertest.Recorder{OnRun: fakeUpstream(t)}
	env := newEnv(t, rec)
	ctx := context.Background()

	require.NoError(t, Provision(ctx, env, All(nil)...))
	before := len(rec.Cmds)
	require.NoError(t, Provision(ctx, env, All(nil)...))

	second := rec.Lines()[before:]
	assert.Equal(t, []string{
		"git pull",
		"docker compose -p localai -f litellm/docker-compose.yml up -d",
		"git pull",
		"docker compose -p localai -f supabase/docker/docker-compose.yml up -d",
	}, second)
}

func TestProvisionStopsAtFirstFailure(t *testing.T) {
	setLiteLLMEnv(t, "4001")
	rec := &runnertest.Recorder{OnRun: fakeUpstream(t)}
	rec.FailOn("docker compose -p localai -f litellm", 1)
	env := newEnv(t, rec)

	err := Provision(context.Background(), env, All(nil)...)
	require.ErrorIs(t, err, runner.ErrCommandFailed)
	assert.True(t, strings.HasPrefix(err.Error(), "litellm: start:"), err.Error())
	assert.False(t, rec.Contains("git clone --filter=blob:none --no-checkout https://github.com/supabase"))
}

func TestLiteLLMPrepareRequiresPort(t *testing.T) {
	t.Setenv(LiteLLMMasterKey, "k")
	t.Setenv(LiteLLMSaltKey, "s")
	t.Setenv(LiteLLMPort, "")
	os.Unsetenv(LiteLLMPort)
	rec := &runnertest.Recorder{OnRun: fakeUpstream(t)}
	env := newEnv(t, rec)
	s := NewLiteLLM(config.StackConfig{})
	require.NoError(t, s.Sync(context.Background(), env))

	err := s.Prepare(context.Background(), env)
	require.ErrorIs(t, err, envfile.ErrMissingVariable)
	assert.Contains(t, err.Error(), LiteLLMPort)
}

func TestLiteLLMPrepareRequiresKeys(t *testing.T) {
	setLiteLLMEnv(t, "4000")
	os.Unsetenv(LiteLLMSaltKey)
	rec := &runnertest.Recorder{OnRun: fakeUpstream(t)}
	env := newEnv(t, rec)
	s := NewLiteLLM(config.StackConfig{})
	require.NoError(t, s.Sync(context.Background(), env))

	err := s.Prepare(context.Background(), env)
	require.ErrorIs(t, err, envfile.ErrMissingVariable)
	assert.NoFileExists(t, filepath.Join(env.Root, "litellm", ".env"))
}

func TestLiteLLMPrepareDefaultPortKeepsMappings(t *testing.T) {
	setLiteLLMEnv(t, "4000")
	rec := &runnertest.Recorder{OnRun: fakeUpstream(t)}
	env := newEnv(t, rec)
	s := NewLiteLLM(config.StackConfig{})
	require.NoError(t, s.Sync(context.Background(), env))
	require.NoError(t, s.Prepare(context.Background(), env))

	patched, err := os.ReadFile(filepath.Join(env.Root, "litellm", "docker-compose.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(patched), `4000:4000`)
	assert.Contains(t, string(patched), "db_litellm:")
}

func TestLiteLLMPrepareWithoutCheckoutFails(t *testing.T) {
	setLiteLLMEnv(t, "4001")
	env := newEnv(t, &runnertest.Recorder{})
	err := NewLiteLLM(config.StackConfig{}).Prepare(context.Background(), env)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSupabasePrepareMissingRootEnv(t *testing.T) {
	rec := &runnertest.Recorder{OnRun: fakeUpstream(t)}
	env := newEnv(t, rec)
	require.NoError(t, os.Remove(filepath.Join(env.Root, ".env")))
	s := NewSupabase(config.StackConfig{})
	require.NoError(t, s.Sync(context.Background(), env))
	require.ErrorIs(t, s.Prepare(context.Background(), env), os.ErrNotExist)
}

func TestPrepareDryRunTouchesNothing(t *testing.T) {
	env := newEnv(t, &runnertest.Recorder{})
	env.DryRun = true
	for _, s := range All(nil) {
		require.NoError(t, s.Prepare(context.Background(), env))
	}
	entries, err := os.ReadDir(env.Root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOverrides(t *testing.T) {
	all := All(map[string]config.StackConfig{
		"litellm":  {Repo: "https://mirror.example/litellm.git", Branch: "v1"},
		"supabase": {Dir: "vendor/supabase"},
	})
	l := all[0].(*LiteLLM)
	assert.Equal(t, "https://mirror.example/litellm.git", l.Checkout().URL)
	assert.Equal(t, "v1", l.Checkout().Branch)
	assert.Equal(t, "litellm", l.Checkout().Dir)

	s := all[1].(*Supabase)
	assert.Equal(t, "https://github.com/supabase/supabase.git", s.Checkout().URL)
	assert.Equal(t, filepath.Join("vendor", "supabase", "docker", "docker-compose.yml"), s.ComposeFile())
}

func TestSelect(t *testing.T) {
	all := All(nil)
	got, err := Select(all, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = Select(all, []string{"Supabase"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "supabase", got[0].Name())

	_, err = Select(all, []string{"ollama"})
	assert.ErrorContains(t, err, `unknown stack "ollama"`)
}
