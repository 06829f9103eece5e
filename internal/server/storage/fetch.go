package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// IsDownloadMode reports whether mode asks for the raw file stream.
// Anything other than "download" (in any case) means base64.
func IsDownloadMode(mode string) bool {
	return strings.EqualFold(strings.TrimSpace(mode), common.FetchModeDownload)
}

// Fetch reads back a file from the user's directory. In download mode the
// returned file carries an open Reader the caller must close; otherwise
// Content holds the standard base64 encoding of the file.
func (s *Store) Fetch(ctx context.Context, userID, rel, mode string) (*models.FetchedFile, error) {
	userRoot, p, err := s.sandbox.resolve(userID, rel)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrorNotFound, rel)
		}
		return nil, fmt.Errorf("stat: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a file", common.ErrorNotFound, rel)
	}

	relPath, err := filepath.Rel(userRoot, p)
	if err != nil {
		return nil, fmt.Errorf("relative path: %w", err)
	}

	out := &models.FetchedFile{
		Path:    filepath.ToSlash(relPath),
		Name:    fi.Name(),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}

	if IsDownloadMode(mode) {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		out.Reader = f
		return out, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	out.Content = base64.StdEncoding.EncodeToString(data)
	return out, nil
}
