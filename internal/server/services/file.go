package services

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/storage"
)

// FileStore is the part of storage.Store the service depends on.
type FileStore interface {
	Save(ctx context.Context, userID, rawName string, r io.Reader) (*models.StoredFile, error)
	Fetch(ctx context.Context, userID, rel, mode string) (*models.FetchedFile, error)
}

// FileService stores and returns user files. Errors outside the file
// taxonomy are logged and reported as common.ErrorInternal.
type FileService struct {
	store  FileStore
	logger logging.Logger
}

func NewFileService(store FileStore, logger logging.Logger) *FileService {
	return &FileService{store: store, logger: logger}
}

var clientErrors = []error{
	common.ErrorInvalidPath,
	common.ErrorInvalidInput,
	common.ErrorNotFound,
	common.ErrorPayloadTooLarge,
	common.ErrorQuotaExceeded,
}

func (s *FileService) log(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *FileService) classify(ctx context.Context, op, userID string, err error) error {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			s.log(ctx).Debug(ctx, op+" rejected", "user_id", userID, "error", err)
			return err
		}
	}
	s.log(ctx).Error(ctx, op+" failed", "user_id", userID, "error", err)
	return common.ErrorInternal
}

// Upload streams r into the user's directory. The returned StoredFile names
// the file actually written, which may be an alternate name.
func (s *FileService) Upload(ctx context.Context, userID, filename string, r io.Reader) (*models.StoredFile, error) {
	stored, err := s.store.Save(ctx, userID, filename, r)
	if err != nil {
		return nil, s.classify(ctx, "upload", userID, err)
	}
	s.log(ctx).Info(ctx, "file stored", "user_id", userID, "name", stored.Name, "size", stored.Size)
	return stored, nil
}

// Get reads a file back. In download mode the caller must close the
// returned Reader.
func (s *FileService) Get(ctx context.Context, userID, path, mode string) (*models.FetchedFile, error) {
	f, err := s.store.Fetch(ctx, userID, path, mode)
	if err != nil {
		return nil, s.classify(ctx, "fetch", userID, err)
	}
	return f, nil
}

// DisplayPath returns the cleaned-up form of a requested path echoed back
// to clients.
func DisplayPath(p string) string {
	return storage.StripTraversal(p)
}
