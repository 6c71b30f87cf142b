package compose

import (
	"os"
	"path/filepath"
)

// FileArgs builds docker compose -f arguments for files, resolving relative
// paths against root and dropping duplicates while keeping order.
func FileArgs(root string, files ...string) []string {
	var args []string
	for _, f := range uniquePaths(resolve(root, files)) {
		args = append(args, "-f", f)
	}
	return args
}

// ExistingFileArgs is FileArgs restricted to files present on disk. Stacks
// that were never synced have no compose file yet and are skipped.
func ExistingFileArgs(root string, files ...string) []string {
	var present []string
	for _, f := range resolve(root, files) {
		if fileExists(f) {
			present = append(present, f)
		}
	}
	return FileArgs(root, present...)
}

func resolve(root string, files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f == "" {
			continue
		}
		if !filepath.IsAbs(f) {
			f = filepath.Join(root, f)
		}
		out = append(out, f)
	}
	return out
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func uniquePaths(paths []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		c := filepath.Clean(p)
		if !seen[c] {
			seen[c] = true
			result = append(result, c)
		}
	}
	return result
}
