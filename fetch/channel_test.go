package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"ewintr.nl/ytscript/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	handles   map[string]model.YoutubeChannelID
	uploads   map[model.YoutubeChannelID]string
	pages     map[string]PlaylistPage
	durations map[model.YoutubeVideoID]string
	pageErr   error

	handleCalls   []string
	pageCalls     []string
	durationCalls [][]model.YoutubeVideoID
}

func (f *fakeReader) ChannelIDForHandle(_ context.Context, handle string) (model.YoutubeChannelID, bool, error) {
	f.handleCalls = append(f.handleCalls, handle)
	id, ok := f.handles[handle]
	return id, ok, nil
}

func (f *fakeReader) UploadsPlaylist(_ context.Context, channelID model.YoutubeChannelID) (string, error) {
	return f.uploads[channelID], nil
}

func (f *fakeReader) PlaylistPage(_ context.Context, _, pageToken string) (PlaylistPage, error) {
	f.pageCalls = append(f.pageCalls, pageToken)
	if f.pageErr != nil {
		return PlaylistPage{}, f.pageErr
	}
	return f.pages[pageToken], nil
}

func (f *fakeReader) FetchDurations(_ context.Context, ytIDs []model.YoutubeVideoID) (map[model.YoutubeVideoID]string, error) {
	f.durationCalls = append(f.durationCalls, ytIDs)
	res := map[model.YoutubeVideoID]string{}
	for _, id := range ytIDs {
		if d, ok := f.durations[id]; ok {
			res[id] = d
		}
	}
	return res, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveChannel(t *testing.T) {
	for _, tc := range []struct {
		name       string
		identifier string
		exp        model.YoutubeChannelID
		expErr     error
		expLookups []string
	}{
		{
			name:       "channel id",
			identifier: "UCabc",
			exp:        "UCabc",
		},
		{
			name:       "handle with at",
			identifier: "@someone",
			exp:        "UCsomeone",
			expLookups: []string{"someone"},
		},
		{
			name:       "handle without at",
			identifier: "someone",
			exp:        "UCsomeone",
			expLookups: []string{"someone"},
		},
		{
			name:       "unknown handle",
			identifier: "@nobody",
			expErr:     ErrChannelNotFound,
			expLookups: []string{"nobody"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			reader := &fakeReader{handles: map[string]model.YoutubeChannelID{"someone": "UCsomeone"}}
			e := NewEnumerator(reader, 0, discardLogger())

			act, err := e.ResolveChannel(context.Background(), tc.identifier)
			if tc.expErr != nil {
				assert.ErrorIs(t, err, tc.expErr)
				var lerr *ListerError
				assert.True(t, errors.As(err, &lerr))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.exp, act)
			}
			assert.Equal(t, tc.expLookups, reader.handleCalls)
		})
	}
}

func TestListChannelVideos(t *testing.T) {
	reader := &fakeReader{
		uploads: map[model.YoutubeChannelID]string{"UCchan": "UUchan"},
		pages: map[string]PlaylistPage{
			"": {
				Items: []Snippet{
					{VideoID: "v1", Title: "one", PublishedAt: "2024-03-01T00:00:00Z"},
					{VideoID: "v2", Title: "two", PublishedAt: "2024-02-01T00:00:00Z"},
				},
				NextPageToken: "p2",
			},
			"p2": {NextPageToken: "p3"},
			"p3": {
				Items: []Snippet{
					{VideoID: "v3", Title: "three", Description: "desc", PublishedAt: "2024-01-01T00:00:00Z"},
				},
			},
		},
		durations: map[model.YoutubeVideoID]string{
			"v1": "PT45S",
			"v3": "PT1H",
		},
	}
	e := NewEnumerator(reader, 0, discardLogger())

	act, err := e.ListChannelVideos(context.Background(), "UCchan")
	require.NoError(t, err)

	d1, d3 := "PT45S", "PT1H"
	exp := []model.VideoRecord{
		model.NewVideoRecord("v1", "one", "", "2024-03-01T00:00:00Z", &d1),
		model.NewVideoRecord("v2", "two", "", "2024-02-01T00:00:00Z", nil),
		model.NewVideoRecord("v3", "three", "desc", "2024-01-01T00:00:00Z", &d3),
	}
	assert.Equal(t, exp, act)
	assert.True(t, act[0].IsShort)
	assert.False(t, act[1].IsShort)
	assert.Nil(t, act[1].DurationSeconds)

	assert.Equal(t, []string{"", "p2", "p3"}, reader.pageCalls)
	assert.Equal(t, [][]model.YoutubeVideoID{{"v1", "v2"}, {"v3"}}, reader.durationCalls)
}

func TestListChannelVideosErrors(t *testing.T) {
	t.Run("no uploads playlist", func(t *testing.T) {
		e := NewEnumerator(&fakeReader{}, 0, discardLogger())

		_, err := e.ListChannelVideos(context.Background(), "UCnone")
		assert.ErrorIs(t, err, ErrChannelNotFound)
	})

	t.Run("api error", func(t *testing.T) {
		apiErr := errors.New("quota exceeded")
		reader := &fakeReader{
			uploads: map[model.YoutubeChannelID]string{"UCchan": "UUchan"},
			pageErr: apiErr,
		}
		e := NewEnumerator(reader, 0, discardLogger())

		_, err := e.ListChannelVideos(context.Background(), "UCchan")
		assert.ErrorIs(t, err, apiErr)
		var lerr *ListerError
		require.True(t, errors.As(err, &lerr))
		assert.Equal(t, "UCchan", lerr.Channel)
	})

	t.Run("pagination ceiling", func(t *testing.T) {
		reader := &fakeReader{
			uploads: map[model.YoutubeChannelID]string{"UCchan": "UUchan"},
			pages: map[string]PlaylistPage{
				"":     {NextPageToken: "loop"},
				"loop": {Items: []Snippet{{VideoID: "v1"}}, NextPageToken: "loop"},
			},
		}
		e := NewEnumerator(reader, 3, discardLogger())

		_, err := e.ListChannelVideos(context.Background(), "UCchan")
		assert.ErrorIs(t, err, ErrPaginationNotTerminated)
		assert.Len(t, reader.pageCalls, 3)
	})
}
