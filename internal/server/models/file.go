package models

import (
	"io"
	"time"
)

// StoredFile is the result of a successful upload.
type StoredFile struct {
	// Name is the final file name inside the user's directory. It differs
	// from the requested name when that one was already taken.
	Name string
	// Size is the number of bytes written.
	Size int64
}

// FetchedFile is a file read back for a user.
//
// In download mode Content is empty and the caller streams from Reader and
// must close it. In base64 mode Content holds the encoded payload and
// Reader is nil.
type FetchedFile struct {
	// Path is relative to the user's directory, with forward slashes.
	Path    string
	Name    string
	Size    int64
	ModTime time.Time

	Reader  io.ReadSeekCloser
	Content string
}
