// Package filex contains small filesystem helpers used by the storage layer.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirPerm is the mode used for every directory the server creates.
const DirPerm os.FileMode = 0o700

// EnsureDir creates dir with its parents if needed and returns its absolute
// path. Relative paths are taken from the working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, DirPerm); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// CanonicalDir is EnsureDir followed by symlink resolution, so the returned
// path can be used as a prefix for containment checks.
func CanonicalDir(dir string) (string, error) {
	abs, err := EnsureDir(dir)
	if err != nil {
		return "", err
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("eval symlinks %s: %w", abs, err)
	}
	return canonical, nil
}

// IsRegular reports whether path names an existing regular file, following
// symlinks. A missing path is not an error.
func IsRegular(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}
