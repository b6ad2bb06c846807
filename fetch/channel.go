package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ewintr.nl/ytscript/model"
)

const (
	// PageSize is the largest page the playlistItems endpoint returns.
	PageSize = 50
	// DefaultMaxPages bounds pagination far above the size of any real
	// uploads playlist.
	DefaultMaxPages = 10000
)

var (
	ErrChannelNotFound         = errors.New("fetch: channel not found")
	ErrPaginationNotTerminated = errors.New("fetch: pagination did not terminate")
)

// Snippet is the part of a playlist item needed to build a VideoRecord.
type Snippet struct {
	VideoID     model.YoutubeVideoID
	Title       string
	Description string
	PublishedAt string
}

type PlaylistPage struct {
	Items         []Snippet
	NextPageToken string
}

type ChannelReader interface {
	ChannelIDForHandle(ctx context.Context, handle string) (model.YoutubeChannelID, bool, error)
	UploadsPlaylist(ctx context.Context, channelID model.YoutubeChannelID) (string, error)
	PlaylistPage(ctx context.Context, playlistID, pageToken string) (PlaylistPage, error)
	FetchDurations(ctx context.Context, ytIDs []model.YoutubeVideoID) (map[model.YoutubeVideoID]string, error)
}

// ListerError wraps a failed enumeration step with the channel it concerned.
type ListerError struct {
	Op      string
	Channel string
	Err     error
}

func (e *ListerError) Error() string {
	return "fetch: " + e.Op + " " + e.Channel + ": " + e.Err.Error()
}

func (e *ListerError) Unwrap() error { return e.Err }

// Enumerator lists all videos of a channel with their durations.
type Enumerator struct {
	reader   ChannelReader
	maxPages int
	logger   *slog.Logger
}

func NewEnumerator(reader ChannelReader, maxPages int, logger *slog.Logger) *Enumerator {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Enumerator{
		reader:   reader,
		maxPages: maxPages,
		logger:   logger,
	}
}

// ResolveChannel turns a channel ID or handle into a channel ID. IDs are used
// as given; handles cost exactly one lookup.
func (e *Enumerator) ResolveChannel(ctx context.Context, identifier string) (model.YoutubeChannelID, error) {
	if id := model.YoutubeChannelID(identifier); id.IsCanonical() {
		e.logger.Info("identifier is a channel id", slog.String("channelid", identifier))
		return id, nil
	}

	handle := strings.TrimPrefix(identifier, "@")
	e.logger.Info("resolving handle", slog.String("handle", handle))
	id, found, err := e.reader.ChannelIDForHandle(ctx, handle)
	if err != nil {
		return "", &ListerError{Op: "resolve", Channel: identifier, Err: err}
	}
	if !found {
		return "", &ListerError{Op: "resolve", Channel: identifier, Err: ErrChannelNotFound}
	}
	e.logger.Info("resolved handle", slog.String("handle", handle), slog.String("channelid", string(id)))

	return id, nil
}

// ListChannelVideos pages through the uploads playlist of a channel in API
// order. Every page costs one playlist call and, when it holds videos, one
// batched duration lookup.
func (e *Enumerator) ListChannelVideos(ctx context.Context, channelID model.YoutubeChannelID) ([]model.VideoRecord, error) {
	playlistID, err := e.reader.UploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, &ListerError{Op: "uploads playlist", Channel: string(channelID), Err: err}
	}
	if playlistID == "" {
		return nil, &ListerError{Op: "uploads playlist", Channel: string(channelID), Err: ErrChannelNotFound}
	}

	e.logger.Info("fetching channel videos", slog.String("channelid", string(channelID)), slog.String("playlistid", playlistID))
	videos := []model.VideoRecord{}
	token := ""
	for page := 1; ; page++ {
		if page > e.maxPages {
			return nil, &ListerError{
				Op:      "list videos",
				Channel: string(channelID),
				Err:     fmt.Errorf("%w: still paging after %d pages", ErrPaginationNotTerminated, e.maxPages),
			}
		}

		var pageVideos []model.VideoRecord
		pageVideos, token, err = e.fetchPage(ctx, playlistID, token)
		if err != nil {
			return nil, &ListerError{Op: "list videos", Channel: string(channelID), Err: err}
		}
		videos = append(videos, pageVideos...)

		if token == "" {
			break
		}
	}
	e.logger.Info("fetched channel videos", slog.String("channelid", string(channelID)), slog.Int("count", len(videos)))

	return videos, nil
}

func (e *Enumerator) fetchPage(ctx context.Context, playlistID, pageToken string) ([]model.VideoRecord, string, error) {
	e.logger.Debug("fetching video page", slog.String("playlistid", playlistID), slog.String("pagetoken", pageToken))
	page, err := e.reader.PlaylistPage(ctx, playlistID, pageToken)
	if err != nil {
		return nil, "", fmt.Errorf("playlist page: %w", err)
	}
	if len(page.Items) == 0 {
		return nil, page.NextPageToken, nil
	}

	ids := make([]model.YoutubeVideoID, 0, len(page.Items))
	for _, item := range page.Items {
		ids = append(ids, item.VideoID)
	}
	durations, err := e.reader.FetchDurations(ctx, ids)
	if err != nil {
		return nil, "", fmt.Errorf("video durations: %w", err)
	}

	videos := make([]model.VideoRecord, 0, len(page.Items))
	for _, item := range page.Items {
		var duration *string
		if d, ok := durations[item.VideoID]; ok {
			duration = &d
		} else {
			e.logger.Warn("no duration for video", slog.String("video", string(item.VideoID)))
		}
		videos = append(videos, model.NewVideoRecord(item.VideoID, item.Title, item.Description, item.PublishedAt, duration))
	}
	e.logger.Debug("fetched video page", slog.String("playlistid", playlistID), slog.String("pagetoken", pageToken), slog.Int("count", len(videos)))

	return videos, page.NextPageToken, nil
}
