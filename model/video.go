package model

import (
	"net/url"
	"strings"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

type YoutubeVideoID string

type YoutubeChannelID string

// IsCanonical reports whether id looks like a channel ID rather than a handle.
func (id YoutubeChannelID) IsCanonical() bool {
	return strings.HasPrefix(string(id), "UC")
}

// VideoRecord is one entry of a channel's video list. Field order is the CSV
// column order.
type VideoRecord struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	URL             string  `json:"url"`
	PublishedAt     string  `json:"publishedAt"`
	DurationISO8601 *string `json:"duration_iso8601"`
	DurationSeconds *int    `json:"duration_seconds"`
	IsShort         bool    `json:"is_short"`
}

// NewVideoRecord builds a record and derives the duration fields from the raw
// duration string. A nil duration means the detail lookup had no entry.
func NewVideoRecord(id YoutubeVideoID, title, description, publishedAt string, duration *string) VideoRecord {
	v := VideoRecord{
		Title:           title,
		Description:     description,
		URL:             WatchURL(id),
		PublishedAt:     publishedAt,
		DurationISO8601: duration,
	}
	if duration != nil {
		if secs, ok := ParseDuration(*duration); ok {
			v.DurationSeconds = &secs
		}
	}
	v.IsShort = v.DurationSeconds != nil && IsShort(*v.DurationSeconds, true)

	return v
}

func WatchURL(id YoutubeVideoID) string {
	return watchURLPrefix + string(id)
}

// VideoID extracts the v parameter of a watch URL. It returns "" when the URL
// carries none.
func VideoID(watchURL string) YoutubeVideoID {
	u, err := url.Parse(watchURL)
	if err != nil {
		return ""
	}

	return YoutubeVideoID(u.Query().Get("v"))
}

// CSVHeader lists the VideoRecord columns in JSON field order.
var CSVHeader = []string{
	"title",
	"description",
	"url",
	"publishedAt",
	"duration_iso8601",
	"duration_seconds",
	"is_short",
}
