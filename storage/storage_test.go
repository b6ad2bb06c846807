package storage

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ewintr.nl/ytscript/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, nil))
}

func TestWriteAndReadVideos(t *testing.T) {
	dir := t.TempDir()
	d := "PT1M30S"
	videos := []model.VideoRecord{
		model.NewVideoRecord("a1", "첫 번째 <video>", "line1\nline2", "2024-01-02T03:04:05Z", &d),
		model.NewVideoRecord("b2", "second, with comma", "", "2024-01-01T00:00:00Z", nil),
	}

	files, err := WriteVideos(dir, "UCchan", videos)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "UCchan_videos.json"), files.JSON)
	assert.Equal(t, filepath.Join(dir, "UCchan_videos.csv"), files.CSV)

	jsonData, err := os.ReadFile(files.JSON)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), "첫 번째 <video>")
	assert.Contains(t, string(jsonData), `    {`)
	assert.Contains(t, string(jsonData), `"duration_seconds": null`)

	back, err := ReadVideos(files.JSON)
	require.NoError(t, err)
	assert.Equal(t, videos, back)

	csvData, err := os.ReadFile(files.CSV)
	require.NoError(t, err)
	csvText := string(csvData)
	assert.True(t, strings.HasPrefix(csvText, "\ufefftitle,description,url,publishedAt,duration_iso8601,duration_seconds,is_short\n"))
	assert.Contains(t, csvText, "PT1M30S,90,false")
	assert.Contains(t, csvText, `"second, with comma",,https://www.youtube.com/watch?v=b2,2024-01-01T00:00:00Z,,,false`)
}

func TestWriteVideosEmpty(t *testing.T) {
	dir := t.TempDir()

	files, err := WriteVideos(dir, "UCempty", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(files.JSON)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestReadVideosErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadVideos(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrNotFound)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("[{"), 0644))
	_, err = ReadVideos(bad)
	assert.ErrorIs(t, err, ErrStorageCorrupt)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "read", storageErr.Op)
	assert.Equal(t, bad, storageErr.Path)
}

func TestJSONLStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.jsonl")
	var logs bytes.Buffer
	store := NewJSONLStore(path, testLogger(&logs))

	urls, err := store.ProcessedURLs()
	require.NoError(t, err)
	assert.Empty(t, urls)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "scanning must not create the store")

	video := model.VideoRecord{Title: "t", URL: "https://www.youtube.com/watch?v=a"}
	require.NoError(t, store.Append(model.NewTranscriptRecord(video, model.Success("hi & bye"))))
	video.URL = "https://www.youtube.com/watch?v=b"
	require.NoError(t, store.Append(model.NewTranscriptRecord(video, model.Failure("nope"))))
	require.NoError(t, store.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"script":"hi & bye"`)
	assert.Contains(t, lines[1], `"script":"ERROR: nope"`)

	reopened := NewJSONLStore(path, testLogger(nil))
	urls, err = reopened.ProcessedURLs()
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{
		"https://www.youtube.com/watch?v=a": {},
		"https://www.youtube.com/watch?v=b": {},
	}, urls)
}

func TestJSONLStoreCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.jsonl")
	content := `{"url":"u1","script":"x"}` + "\n" +
		`{not json` + "\n" +
		"\n" +
		`{"title":"no url"}` + "\n" +
		`{"url":"u2","script":"y"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	var logs bytes.Buffer
	store := NewJSONLStore(path, testLogger(&logs))
	urls, err := store.ProcessedURLs()
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"u1": {}, "u2": {}}, urls)
	assert.Contains(t, logs.String(), "skipping corrupt line")

	// the last line has no newline; the next record must start a new line
	require.NoError(t, store.Append(model.TranscriptRecord{URL: "u3", Script: model.Success("z")}))
	require.NoError(t, store.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), content+"\n{"))
	assert.True(t, strings.HasSuffix(string(data), "}\n"))
}

func TestScanLines(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	in := "a\n\n  \n" + long + "\nb"

	var got []string
	var nums []int
	err := ScanLines(strings.NewReader(in), func(lineNo int, line []byte) error {
		got = append(got, string(line))
		nums = append(nums, lineNo)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", long, "b"}, got)
	assert.Equal(t, []int{1, 4, 5}, nums)
}

func TestAtomicWriterAbort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	w, err := NewAtomicWriter(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
