package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// RequireBinary skips the test when name is not on PATH.
func RequireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

// MustRun executes a command with an isolated git config and fails the test on error.
func MustRun(t *testing.T, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v failed: %v\n%s", name, args, err, out)
	}
}

// ReadTrim runs a command and returns its trimmed combined output.
func ReadTrim(t *testing.T, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v failed: %v\n%s", name, args, err, out)
	}
	return strings.TrimSpace(string(out))
}

// Remote is a bare repository plus the scratch working copy used to push to it.
type Remote struct {
	t    *testing.T
	URL  string
	work string
}

// InitRemote creates a bare repository whose main branch holds files
// (relative path -> content). Tests are skipped when git is unavailable.
func InitRemote(t *testing.T, files map[string]string) *Remote {
	t.Helper()
	RequireBinary(t, "git")
	root := t.TempDir()
	bare := filepath.Join(root, "remote.git")
	work := filepath.Join(root, "seed")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	MustRun(t, "git", "init", "--bare", bare)
	MustRun(t, "git", "-C", bare, "symbolic-ref", "HEAD", "refs/heads/main")
	MustRun(t, "git", "-C", work, "init")
	MustRun(t, "git", "-C", work, "checkout", "-b", "main")
	MustRun(t, "git", "-C", work, "remote", "add", "origin", bare)
	r := &Remote{t: t, URL: bare, work: work}
	r.Commit("init", files)
	return r
}

// Commit writes files into the seed copy, commits and pushes them to main.
func (r *Remote) Commit(msg string, files map[string]string) {
	r.t.Helper()
	for rel, content := range files {
		p := filepath.Join(r.work, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			r.t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			r.t.Fatal(err)
		}
	}
	MustRun(r.t, "git", "-C", r.work, "add", "-A")
	MustRun(r.t, "git", "-C", r.work, "-c", "user.email=test@example.com", "-c", "user.name=test", "commit", "-m", msg)
	MustRun(r.t, "git", "-C", r.work, "push", "-u", "origin", "main")
}
