// Package storage persists pipeline output as plain files: the channel video
// list (JSON and CSV), the append-only transcript store (JSON Lines) and
// atomically replaced documents.
package storage

import (
	"errors"

	"ewintr.nl/ytscript/model"
)

var (
	ErrNotFound       = errors.New("storage: not found")
	ErrStorageCorrupt = errors.New("storage: corrupt data")
)

// StorageError records the failed operation and the file it touched.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

type TranscriptRepository interface {
	ProcessedURLs() (map[string]struct{}, error)
	Append(record model.TranscriptRecord) error
	Close() error
}
