package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// Upload streams a local file to the server under its base name.
func (a *App) Upload(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := a.api.Upload(ctx, filepath.Base(localPath), f)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Stored as %s (%d bytes)\n", res.StrippedPath, res.Size)
	return nil
}

// Get prints a stored file. Binary content is summarized instead of dumped
// to the terminal.
func (a *App) Get(ctx context.Context, path string) error {
	f, err := a.api.Get(ctx, path)
	if err != nil {
		return err
	}

	if !utf8.Valid(f.Content) {
		fmt.Fprintf(a.out, "%s: %d bytes of binary data, use download to save it\n", f.Path, len(f.Content))
		return nil
	}
	fmt.Fprintf(a.out, "--- %s (%d bytes)\n%s\n", f.Path, len(f.Content), f.Content)
	return nil
}

// Download saves a stored file to out, or to its base name in the current
// directory when out is empty. An existing file is never overwritten and a
// failed transfer leaves nothing behind.
func (a *App) Download(ctx context.Context, path, out string) (err error) {
	if out == "" {
		out = filepath.Base(filepath.FromSlash(path))
	}

	f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists", out)
		}
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(out)
		}
	}()

	n, err := a.api.Download(ctx, path, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", out, n)
	return nil
}
