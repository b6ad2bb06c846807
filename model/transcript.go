package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrorPrefix marks a failed script in the serialized form.
const ErrorPrefix = "ERROR:"

// Placeholders rendered for fields a record does not carry.
const (
	PlaceholderTitle       = "제목 없음"
	PlaceholderDescription = "내용 없음"
	PlaceholderDate        = "날짜 없음"
	PlaceholderScript      = "스크립트 없음"
)

var ErrNotAnObject = errors.New("model: transcript record is not a JSON object")

type ScriptStatus string

const (
	ScriptOK     ScriptStatus = "ok"
	ScriptFailed ScriptStatus = "error"
)

// Script is the outcome of a transcript fetch: either the transcript text or
// the reason none could be obtained.
type Script struct {
	Status ScriptStatus
	Text   string
	Reason string

	// stored is the failure text as read from the store, when it differs
	// from what String would render.
	stored *string
}

func Success(text string) Script {
	return Script{Status: ScriptOK, Text: text}
}

func Failure(reason string) Script {
	return Script{Status: ScriptFailed, Reason: reason}
}

func (s Script) Failed() bool {
	return s.Status == ScriptFailed
}

// String renders the script the way it is stored: the text, or the reason
// behind the ERROR: prefix.
func (s Script) String() string {
	if s.Failed() {
		if s.stored != nil {
			return *s.stored
		}
		return ErrorPrefix + " " + s.Reason
	}
	return s.Text
}

func parseScript(raw string) Script {
	if strings.HasPrefix(raw, ErrorPrefix) {
		return storedFailure(raw)
	}
	return Success(raw)
}

// storedFailure decodes a failure and keeps raw verbatim for String.
func storedFailure(raw string) Script {
	s := Failure(trimErrorPrefix(raw))
	if s.String() != raw {
		s.stored = &raw
	}
	return s
}

func trimErrorPrefix(raw string) string {
	return strings.TrimPrefix(strings.TrimPrefix(raw, ErrorPrefix), " ")
}

// TranscriptRecord is one line of the transcript store.
type TranscriptRecord struct {
	Title       string
	Description string
	URL         string
	Date        string
	Script      Script
}

// NewTranscriptRecord copies the identifying fields of a video.
func NewTranscriptRecord(v VideoRecord, script Script) TranscriptRecord {
	return TranscriptRecord{
		Title:       v.Title,
		Description: v.Description,
		URL:         v.URL,
		Date:        v.PublishedAt,
		Script:      script,
	}
}

type transcriptLine struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	URL         string       `json:"url"`
	Date        string       `json:"date"`
	Status      ScriptStatus `json:"status,omitempty"`
	Script      *string      `json:"script"`
}

func (r TranscriptRecord) MarshalJSON() ([]byte, error) {
	script := r.Script.String()
	status := r.Script.Status
	if status == "" {
		status = ScriptOK
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(transcriptLine{
		Title:       r.Title,
		Description: r.Description,
		URL:         r.URL,
		Date:        r.Date,
		Status:      status,
		Script:      &script,
	}); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON accepts lines with and without the status field. Without it
// the ERROR: prefix decides the variant. Anything but a JSON object, null
// included, is rejected.
func (r *TranscriptRecord) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrNotAnObject
	}

	var line transcriptLine
	if err := json.Unmarshal(data, &line); err != nil {
		return err
	}

	*r = TranscriptRecord{
		Title:       line.Title,
		Description: line.Description,
		URL:         line.URL,
		Date:        line.Date,
	}

	raw := ""
	if line.Script != nil {
		raw = *line.Script
	}
	switch line.Status {
	case ScriptFailed:
		r.Script = storedFailure(raw)
	case ScriptOK:
		r.Script = Success(raw)
	default:
		r.Script = parseScript(raw)
	}

	return nil
}
