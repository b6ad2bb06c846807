package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"

	"ewintr.nl/ytscript/model"
)

// JSONLStore is the append-only transcript store: one TranscriptRecord per
// line. Existing lines are never rewritten.
type JSONLStore struct {
	path   string
	file   *os.File
	logger *slog.Logger
}

func NewJSONLStore(path string, logger *slog.Logger) *JSONLStore {
	return &JSONLStore{
		path:   path,
		logger: logger,
	}
}

func (s *JSONLStore) Path() string {
	return s.path
}

// ProcessedURLs scans the store once and returns the urls it already holds.
// A missing store is empty. Unreadable lines are logged and skipped.
func (s *JSONLStore) ProcessedURLs() (map[string]struct{}, error) {
	urls := map[string]struct{}{}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return urls, nil
		}
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}
	defer f.Close()

	s.logger.Info("loading processed videos", slog.String("path", s.path))
	err = ScanLines(f, func(lineNo int, line []byte) error {
		var entry struct {
			URL *string `json:"url"`
		}
		if err := json.Unmarshal(line, &entry); err != nil {
			s.logger.Warn("skipping corrupt line in store", slog.String("path", s.path), slog.Int("line", lineNo), slog.String("content", string(line)))
			return nil
		}
		if entry.URL != nil {
			urls[*entry.URL] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}
	s.logger.Info("loaded processed videos", slog.Int("count", len(urls)))

	return urls, nil
}

// Append writes one record as a single line and flushes it to the file.
func (s *JSONLStore) Append(record model.TranscriptRecord) error {
	if s.file == nil {
		if err := s.open(); err != nil {
			return &StorageError{Op: "open", Path: s.path, Err: err}
		}
	}

	data, err := encodeLine(record)
	if err != nil {
		return &StorageError{Op: "encode", Path: s.path, Err: err}
	}
	if _, err := s.file.Write(data); err != nil {
		return &StorageError{Op: "append", Path: s.path, Err: err}
	}

	return nil
}

func (s *JSONLStore) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil

	return err
}

// open opens the store for appending. A last line cut short by an earlier
// crash is terminated first so the next record starts on its own line.
func (s *JSONLStore) open() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	if info.Size() > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err != nil {
			f.Close()
			return err
		}
		if last[0] != '\n' {
			if _, err := f.Write([]byte{'\n'}); err != nil {
				f.Close()
				return err
			}
		}
	}
	s.file = f

	return nil
}

func encodeLine(record model.TranscriptRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ScanLines calls fn for every non-blank line of r, without a length limit.
// Line numbers start at 1. Returning an error from fn stops the scan.
func ScanLines(r io.Reader, fn func(lineNo int, line []byte) error) error {
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			trimmed := bytes.TrimSpace(line)
			if len(trimmed) > 0 {
				if ferr := fn(lineNo, trimmed); ferr != nil {
					return ferr
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
