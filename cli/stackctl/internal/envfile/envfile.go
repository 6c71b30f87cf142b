// Package envfile renders, copies and loads dotenv files.
package envfile

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/files"
)

var ErrMissingVariable = errors.New("missing environment variable")

// Write renders vars as KEY="value" lines sorted by key and replaces path
// atomically.
func Write(path string, vars map[string]string) error {
	content, err := godotenv.Marshal(vars)
	if err != nil {
		return err
	}
	if content != "" {
		content += "\n"
	}
	return files.WriteAtomic(path, []byte(content), 0o644)
}

// Read parses the dotenv file at path.
func Read(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

// FromEnv collects keys from the process environment. Every missing key is
// reported in the returned error.
func FromEnv(keys ...string) (map[string]string, error) {
	vars := make(map[string]string, len(keys))
	var missing []string
	for _, k := range keys {
		v, ok := os.LookupEnv(k)
		if !ok {
			missing = append(missing, k)
			continue
		}
		vars[k] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %v", ErrMissingVariable, missing)
	}
	return vars, nil
}

// Copy copies the dotenv file src over dst.
func Copy(src, dst string) error {
	if err := files.CopyAtomic(src, dst); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// LoadDotenv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotenv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}
