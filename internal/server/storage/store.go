package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/filex"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

const (
	// DefaultChunkSize is the unit in which uploads are read and counted.
	DefaultChunkSize = 64 * 1024

	stagingDirName = ".staging"
	stagingPattern = "upload-*"

	// maxNameCandidates bounds the search for a free alternate name.
	maxNameCandidates = 1000
)

// Limits bounds what a single upload may write.
type Limits struct {
	MaxFileSize int64
	UserQuota   int64
	ChunkSize   int
}

// Store writes and reads user files inside a Sandbox.
//
// Uploads are streamed into a staging file under the storage root and only
// linked into the user's directory once complete, so an aborted upload
// never leaves a partial file behind. When serialization is enabled, uploads
// of the same user run one at a time, which makes the quota check exact.
// Without it, concurrent uploads each check against their own snapshot and
// the user may end up above quota.
type Store struct {
	sandbox *Sandbox
	limits  Limits
	locks   *KeyedMutex
	staging string
	logger  logging.Logger
	now     func() time.Time
}

// NewStore prepares the staging directory and removes staging files left
// by a previous run.
func NewStore(sb *Sandbox, limits Limits, serialize bool, logger logging.Logger) (*Store, error) {
	if limits.ChunkSize <= 0 {
		limits.ChunkSize = DefaultChunkSize
	}
	if limits.MaxFileSize <= 0 || limits.UserQuota <= 0 {
		return nil, fmt.Errorf("%w: limits must be positive", common.ErrorInvalidInput)
	}

	staging, err := filex.EnsureDir(filepath.Join(sb.Root(), stagingDirName))
	if err != nil {
		return nil, fmt.Errorf("staging dir: %w", err)
	}

	s := &Store{
		sandbox: sb,
		limits:  limits,
		staging: staging,
		logger:  logger,
		now:     time.Now,
	}
	if serialize {
		s.locks = NewKeyedMutex()
	}

	s.sweepStaging()
	return s, nil
}

func (s *Store) Sandbox() *Sandbox {
	return s.sandbox
}

func (s *Store) Limits() Limits {
	return s.limits
}

func (s *Store) sweepStaging() {
	leftovers, err := filepath.Glob(filepath.Join(s.staging, stagingPattern))
	if err != nil {
		return
	}
	for _, f := range leftovers {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn(context.Background(), "remove stale staging file", "path", f, "error", err)
		}
	}
}

// Save streams r into the user's directory under a sanitized form of
// rawName. An existing file is never overwritten: the upload gets
// "<stem>_<unix seconds><ext>" instead, with a counter appended if that is
// taken too.
//
// The upload is rejected with common.ErrorPayloadTooLarge as soon as it
// passes MaxFileSize, and with common.ErrorQuotaExceeded as soon as the
// bytes already stored plus the bytes read so far pass UserQuota. In every
// failure case nothing is left on disk.
func (s *Store) Save(ctx context.Context, userID, rawName string, r io.Reader) (*models.StoredFile, error) {
	started := s.now()

	name, err := sanitizeFilename(rawName, started)
	if err != nil {
		return nil, err
	}

	if s.locks != nil {
		unlock, err := s.locks.Lock(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("wait for upload lock: %w", err)
		}
		defer unlock()
	}

	dst, err := s.sandbox.Resolve(userID, name)
	if err != nil {
		return nil, err
	}

	used, err := s.sandbox.UsedBytes(userID)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.staging, stagingPattern)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	defer s.removeStaging(ctx, tmp.Name())

	size, err := s.copyChunks(ctx, tmp, r, used)
	if err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("sync staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close staging file: %w", err)
	}

	final, err := s.publish(tmp.Name(), dst, started)
	if err != nil {
		return nil, err
	}

	return &models.StoredFile{Name: filepath.Base(final), Size: size}, nil
}

func (s *Store) copyChunks(ctx context.Context, w io.Writer, r io.Reader, used int64) (int64, error) {
	buf := make([]byte, s.limits.ChunkSize)
	var size int64

	for {
		if err := ctx.Err(); err != nil {
			return size, fmt.Errorf("upload aborted: %w", err)
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			size += int64(n)
			if size > s.limits.MaxFileSize {
				return size, fmt.Errorf("%w: limit is %d bytes", common.ErrorPayloadTooLarge, s.limits.MaxFileSize)
			}
			if used+size > s.limits.UserQuota {
				return size, fmt.Errorf("%w: limit is %d bytes", common.ErrorQuotaExceeded, s.limits.UserQuota)
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return size, fmt.Errorf("write chunk: %w", err)
			}
		}

		if rerr == io.EOF {
			return size, nil
		}
		if rerr != nil {
			return size, fmt.Errorf("read upload: %w", rerr)
		}
	}
}

// publish hard-links the staging file to the first free candidate name.
// Linking fails instead of replacing an existing file, so a name taken by
// a concurrent upload just moves on to the next candidate.
func (s *Store) publish(tmp, dst string, started time.Time) (string, error) {
	for i := 0; i < maxNameCandidates; i++ {
		cand := candidateName(dst, started, i)

		err := os.Link(tmp, cand)
		if err == nil {
			return cand, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}

		// Filesystems without hard links.
		if _, statErr := os.Lstat(cand); !errors.Is(statErr, fs.ErrNotExist) {
			continue
		}
		if err := os.Rename(tmp, cand); err != nil {
			return "", fmt.Errorf("commit upload: %w", err)
		}
		return cand, nil
	}
	return "", fmt.Errorf("no free name for %s", filepath.Base(dst))
}

// candidateName returns the i-th name to try for dst: dst itself, then
// stem_<unix>ext, then stem_<unix>_<i-1>ext. The stem is shortened if
// needed to keep the name within maxNameLen.
func candidateName(dst string, ts time.Time, i int) string {
	if i == 0 {
		return dst
	}

	dir, base := filepath.Split(dst)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	suffix := "_" + strconv.FormatInt(ts.Unix(), 10)
	if i > 1 {
		suffix += "_" + strconv.Itoa(i-1)
	}

	if over := len(stem) + len(suffix) + len(ext) - maxNameLen; over > 0 {
		if over >= len(stem) {
			stem = "f"
		} else {
			stem = stem[:len(stem)-over]
		}
	}
	return filepath.Join(dir, stem+suffix+ext)
}

func (s *Store) removeStaging(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn(ctx, "remove staging file", "path", path, "error", err)
	}
}
