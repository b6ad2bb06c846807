// Package transcript fetches caption text for YouTube videos through the
// endpoints the web player uses.
package transcript

import (
	"errors"
	"strings"
)

var (
	ErrTranscriptsDisabled = errors.New("transcript: transcripts disabled")
	ErrNoTranscriptFound   = errors.New("transcript: no transcript found")
	ErrVideoUnavailable    = errors.New("transcript: video unavailable")
	ErrVideoUnplayable     = errors.New("transcript: video unplayable")
	ErrRequestBlocked      = errors.New("transcript: request blocked")
	ErrUnparsable          = errors.New("transcript: unparsable response")
	ErrInvalidVideoID      = errors.New("transcript: invalid video id")
)

// generatedPrefix selects only the auto-generated track of a language, as in
// "a.ko".
const generatedPrefix = "a."

// TranscriptError wraps a failed fetch with the video and the languages
// involved.
type TranscriptError struct {
	VideoID   string
	Requested []string
	Available []string
	Err       error
}

func (e *TranscriptError) Error() string {
	msg := "transcript: " + e.VideoID + ": " + e.Err.Error()
	if len(e.Requested) > 0 {
		msg += " (requested " + strings.Join(e.Requested, ",")
		if len(e.Available) > 0 {
			msg += "; available " + strings.Join(e.Available, ",")
		}
		msg += ")"
	}
	return msg
}

func (e *TranscriptError) Unwrap() error { return e.Err }

// Track is one caption track offered for a video.
type Track struct {
	LanguageCode string
	Language     string
	IsGenerated  bool
	BaseURL      string
}

// Code returns the language code, prefixed with "a." for generated tracks.
func (t Track) Code() string {
	if t.IsGenerated {
		return generatedPrefix + t.LanguageCode
	}
	return t.LanguageCode
}

// Snippet is one timed caption fragment.
type Snippet struct {
	Text     string
	Start    float64
	Duration float64
}

type Transcript struct {
	VideoID      string
	LanguageCode string
	Language     string
	IsGenerated  bool
	Snippets     []Snippet
}

// Text joins the trimmed fragments with single spaces in the order received.
func (t *Transcript) Text() string {
	parts := make([]string, 0, len(t.Snippets))
	for _, s := range t.Snippets {
		if text := strings.TrimSpace(s.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// FindTrack picks the first track matching the ordered language codes. A
// plain code prefers a manually created track over a generated one; an "a."
// code only matches the generated track of that language.
func FindTrack(tracks []Track, languages []string) (Track, bool) {
	for _, code := range languages {
		if lang, ok := strings.CutPrefix(code, generatedPrefix); ok {
			if t, found := findByCode(tracks, lang, true); found {
				return t, true
			}
			continue
		}
		if t, found := findByCode(tracks, code, false); found {
			return t, true
		}
		if t, found := findByCode(tracks, code, true); found {
			return t, true
		}
	}

	return Track{}, false
}

func findByCode(tracks []Track, code string, generated bool) (Track, bool) {
	for _, t := range tracks {
		if t.LanguageCode == code && t.IsGenerated == generated {
			return t, true
		}
	}
	return Track{}, false
}

func trackCodes(tracks []Track) []string {
	codes := make([]string, 0, len(tracks))
	for _, t := range tracks {
		codes = append(codes, t.Code())
	}
	return codes
}
