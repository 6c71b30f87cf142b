package envfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteRendersSortedQuotedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	err := Write(path, map[string]string{
		"LITELLM_SALT_KEY":   "sk-salt",
		"LITELLM_MASTER_KEY": "sk-1234",
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "LITELLM_MASTER_KEY=\"sk-1234\"\nLITELLM_SALT_KEY=\"sk-salt\"\n"
	if string(data) != want {
		t.Fatalf("got %q want %q", data, want)
	}
}

func TestWriteOverwritesAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("STALE=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Write(path, map[string]string{"KEY": `va"lue with spaces`}); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got["KEY"] != `va"lue with spaces` {
		t.Fatalf("round trip=%v", got)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LITELLM_MASTER_KEY", "sk-1234")
	t.Setenv("LITELLM_SALT_KEY", "")
	vars, err := FromEnv("LITELLM_MASTER_KEY", "LITELLM_SALT_KEY")
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if vars["LITELLM_MASTER_KEY"] != "sk-1234" || vars["LITELLM_SALT_KEY"] != "" {
		t.Fatalf("vars=%v", vars)
	}
}

func TestFromEnvMissing(t *testing.T) {
	os.Unsetenv("STACKCTL_TEST_UNSET_B")
	os.Unsetenv("STACKCTL_TEST_UNSET_A")
	_, err := FromEnv("STACKCTL_TEST_UNSET_B", "STACKCTL_TEST_UNSET_A")
	if !errors.Is(err, ErrMissingVariable) {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(err.Error(), "STACKCTL_TEST_UNSET_A STACKCTL_TEST_UNSET_B") {
		t.Fatalf("error should name both variables: %v", err)
	}
}

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, ".env")
	dst := filepath.Join(dir, "docker", ".env")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("POSTGRES_PASSWORD=secret\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Copy(src, dst); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "POSTGRES_PASSWORD=secret\n" {
		t.Fatalf("dst=%q", data)
	}
	if err := Copy(filepath.Join(dir, "missing"), dst); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v", err)
	}
}

func TestLoadDotenvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("STACKCTL_TEST_SET=file\nSTACKCTL_TEST_NEW=file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STACKCTL_TEST_SET", "shell")
	t.Setenv("STACKCTL_TEST_NEW", "")
	os.Unsetenv("STACKCTL_TEST_NEW")
	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("STACKCTL_TEST_SET"); got != "shell" {
		t.Fatalf("existing variable overridden: %q", got)
	}
	if got := os.Getenv("STACKCTL_TEST_NEW"); got != "file" {
		t.Fatalf("variable not loaded: %q", got)
	}
	if err := LoadDotenv(filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
