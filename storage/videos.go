package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"ewintr.nl/ytscript/model"
)

// utf8BOM lets spreadsheet tools detect the CSV encoding.
const utf8BOM = "\ufeff"

// VideoFiles are the paths written by WriteVideos.
type VideoFiles struct {
	JSON string
	CSV  string
}

func VideoFilesFor(dir string, channelID model.YoutubeChannelID) VideoFiles {
	base := filepath.Join(dir, string(channelID)+"_videos")
	return VideoFiles{
		JSON: base + ".json",
		CSV:  base + ".csv",
	}
}

// WriteVideos stores the video list of a channel as a JSON array and as CSV.
func WriteVideos(dir string, channelID model.YoutubeChannelID, videos []model.VideoRecord) (VideoFiles, error) {
	files := VideoFilesFor(dir, channelID)
	if videos == nil {
		videos = []model.VideoRecord{}
	}

	if err := writeAtomic(files.JSON, func(w io.Writer) error {
		return EncodeVideosJSON(w, videos)
	}); err != nil {
		return VideoFiles{}, &StorageError{Op: "write", Path: files.JSON, Err: err}
	}

	if err := writeAtomic(files.CSV, func(w io.Writer) error {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return err
		}
		return EncodeVideosCSV(w, videos)
	}); err != nil {
		return VideoFiles{}, &StorageError{Op: "write", Path: files.CSV, Err: err}
	}

	return files, nil
}

// EncodeVideosJSON writes a 4-space indented array without escaping HTML
// characters or non-ASCII text.
func EncodeVideosJSON(w io.Writer, videos []model.VideoRecord) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(videos)
}

func EncodeVideosCSV(w io.Writer, videos []model.VideoRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.CSVHeader); err != nil {
		return err
	}
	for _, v := range videos {
		row := []string{
			v.Title,
			v.Description,
			v.URL,
			v.PublishedAt,
			"",
			"",
			strconv.FormatBool(v.IsShort),
		}
		if v.DurationISO8601 != nil {
			row[4] = *v.DurationISO8601
		}
		if v.DurationSeconds != nil {
			row[5] = strconv.Itoa(*v.DurationSeconds)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}

// ReadVideos loads a JSON array written by WriteVideos.
func ReadVideos(path string) ([]model.VideoRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &StorageError{Op: "read", Path: path, Err: ErrNotFound}
		}
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}

	var videos []model.VideoRecord
	if err := json.Unmarshal(bytes.TrimPrefix(data, []byte(utf8BOM)), &videos); err != nil {
		return nil, &StorageError{Op: "read", Path: path, Err: fmt.Errorf("%w: %v", ErrStorageCorrupt, err)}
	}

	return videos, nil
}

func writeAtomic(path string, write func(w io.Writer) error) error {
	aw, err := NewAtomicWriter(path)
	if err != nil {
		return err
	}
	if err := write(aw); err != nil {
		aw.Abort()
		return err
	}

	return aw.Commit()
}
