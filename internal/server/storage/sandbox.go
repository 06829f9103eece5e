// Package storage keeps each user's files in a private directory under a
// common root. Every user-supplied path is canonicalized (symlinks
// included) and checked to stay inside the owner's directory before any
// file is opened or created.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/filex"
)

// maxNameLen is the longest file name most filesystems accept.
const maxNameLen = 255

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Sandbox maps user ids to directories under a canonical root.
type Sandbox struct {
	root string
}

// NewSandbox creates root if needed and canonicalizes it.
func NewSandbox(root string) (*Sandbox, error) {
	canonical, err := filex.CanonicalDir(root)
	if err != nil {
		return nil, fmt.Errorf("storage root: %w", err)
	}
	return &Sandbox{root: canonical}, nil
}

// Root returns the canonical storage root.
func (s *Sandbox) Root() string {
	return s.root
}

// UserRoot returns the canonical directory of userID, creating it if
// absent. The id must be a single plain path component.
func (s *Sandbox) UserRoot(userID string) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", err
	}

	dir, err := filex.CanonicalDir(filepath.Join(s.root, userID))
	if err != nil {
		return "", err
	}
	if !within(s.root, dir) || dir == s.root {
		return "", fmt.Errorf("%w: user directory escapes storage root", common.ErrorInvalidPath)
	}
	return dir, nil
}

// Resolve joins rel to the user's directory and returns the canonical
// result. It fails with common.ErrorInvalidPath for empty or absolute
// paths and for anything that canonicalizes outside the user directory.
// The target itself does not need to exist.
func (s *Sandbox) Resolve(userID, rel string) (string, error) {
	_, p, err := s.resolve(userID, rel)
	return p, err
}

func (s *Sandbox) resolve(userID, rel string) (userRoot, path string, err error) {
	if strings.TrimSpace(rel) == "" {
		return "", "", fmt.Errorf("%w: empty path", common.ErrorInvalidPath)
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) || filepath.VolumeName(rel) != "" {
		return "", "", fmt.Errorf("%w: path must be relative", common.ErrorInvalidPath)
	}
	if strings.ContainsRune(rel, 0) {
		return "", "", fmt.Errorf("%w: NUL in path", common.ErrorInvalidPath)
	}

	userRoot, err = s.UserRoot(userID)
	if err != nil {
		return "", "", err
	}

	path, err = canonicalize(filepath.Join(userRoot, rel))
	if err != nil {
		return "", "", err
	}
	if !within(userRoot, path) {
		return "", "", fmt.Errorf("%w: path escapes user directory", common.ErrorInvalidPath)
	}
	return userRoot, path, nil
}

func validateUserID(userID string) error {
	if userID == "" ||
		strings.HasPrefix(userID, ".") ||
		strings.ContainsAny(userID, `/\`) ||
		strings.ContainsRune(userID, 0) ||
		filepath.Base(userID) != userID {
		return fmt.Errorf("%w: bad user id %q", common.ErrorInvalidPath, userID)
	}
	return nil
}

// canonicalize resolves symlinks in the longest existing prefix of p and
// appends the remaining, not yet existing, components unchanged.
func canonicalize(p string) (string, error) {
	cur := filepath.Clean(p)
	var missing []string

	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		}
		// Symlink loops, non-directory components and permission errors
		// all leave the path unresolvable.
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: canonicalize %s: %v", common.ErrorInvalidPath, cur, err)
		}
		// A dangling symlink has no resolvable target to contain.
		if _, lerr := os.Lstat(cur); lerr == nil {
			return "", fmt.Errorf("%w: dangling symlink %s", common.ErrorInvalidPath, cur)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("canonicalize %s: %w", p, err)
		}
		missing = append(missing, filepath.Base(cur))
		cur = parent
	}
}

// within reports whether p equals root or lies below it. Both must be clean
// absolute paths.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// SanitizeFilename reduces a client-supplied name to a safe file name:
// the last path component only, every byte outside [A-Za-z0-9_.-]
// replaced by '_', leading dots removed. An empty result becomes
// "f_<unix seconds>". Names longer than 255 bytes fail with
// common.ErrorInvalidInput. The function is idempotent.
func SanitizeFilename(raw string) (string, error) {
	return sanitizeFilename(raw, time.Now())
}

func sanitizeFilename(raw string, now time.Time) (string, error) {
	name := strings.TrimRight(raw, `/\`)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")

	if name == "" {
		name = fmt.Sprintf("f_%d", now.Unix())
	}
	if len(name) > maxNameLen {
		return "", fmt.Errorf("%w: file name longer than %d bytes", common.ErrorInvalidInput, maxNameLen)
	}
	return name, nil
}

// StripTraversal removes "../" sequences and leading slashes for display.
// It is cosmetic only; containment is enforced by Resolve.
func StripTraversal(p string) string {
	return strings.TrimLeft(strings.ReplaceAll(p, "../", ""), "/")
}

// UsedBytes sums the sizes of the regular files directly inside the user's
// directory. Subdirectories are not descended into. It is recomputed on
// every call.
func (s *Sandbox) UsedBytes(userID string) (int64, error) {
	dir, err := s.UserRoot(userID)
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read user dir: %w", err)
	}

	var total int64
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		total += info.Size()
	}
	return total, nil
}
