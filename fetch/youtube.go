package fetch

import (
	"context"
	"strings"

	"ewintr.nl/ytscript/model"
	"google.golang.org/api/youtube/v3"
)

// Youtube reads channel and video data from the YouTube Data API v3.
type Youtube struct {
	Client *youtube.Service
}

func NewYoutube(client *youtube.Service) *Youtube {
	return &Youtube{Client: client}
}

func (y *Youtube) ChannelIDForHandle(ctx context.Context, handle string) (model.YoutubeChannelID, bool, error) {
	call := y.Client.Channels.
		List([]string{"id"}).
		ForHandle(handle).
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		return "", false, err
	}
	if len(response.Items) == 0 {
		return "", false, nil
	}

	return model.YoutubeChannelID(response.Items[0].Id), true, nil
}

// UploadsPlaylist returns the ID of the playlist holding all uploads of a
// channel, or "" when the channel has none.
func (y *Youtube) UploadsPlaylist(ctx context.Context, channelID model.YoutubeChannelID) (string, error) {
	call := y.Client.Channels.
		List([]string{"contentDetails"}).
		Id(string(channelID)).
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		return "", err
	}
	if len(response.Items) == 0 {
		return "", nil
	}

	cd := response.Items[0].ContentDetails
	if cd == nil || cd.RelatedPlaylists == nil {
		return "", nil
	}

	return cd.RelatedPlaylists.Uploads, nil
}

func (y *Youtube) PlaylistPage(ctx context.Context, playlistID, pageToken string) (PlaylistPage, error) {
	call := y.Client.PlaylistItems.
		List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(PageSize).
		Context(ctx)

	if pageToken != "" {
		call.PageToken(pageToken)
	}

	response, err := call.Do()
	if err != nil {
		return PlaylistPage{}, err
	}

	page := PlaylistPage{
		Items:         make([]Snippet, 0, len(response.Items)),
		NextPageToken: response.NextPageToken,
	}
	for _, item := range response.Items {
		if item.Snippet == nil || item.Snippet.ResourceId == nil || item.Snippet.ResourceId.VideoId == "" {
			continue
		}
		page.Items = append(page.Items, Snippet{
			VideoID:     model.YoutubeVideoID(item.Snippet.ResourceId.VideoId),
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}

	return page, nil
}

// FetchDurations looks up the raw ISO-8601 durations of up to PageSize videos
// in one call. Videos the API does not return are absent from the map.
func (y *Youtube) FetchDurations(ctx context.Context, ytIDs []model.YoutubeVideoID) (map[model.YoutubeVideoID]string, error) {
	strIDs := make([]string, len(ytIDs))
	for i, id := range ytIDs {
		strIDs[i] = string(id)
	}
	call := y.Client.Videos.
		List([]string{"contentDetails"}).
		Id(strings.Join(strIDs, ",")).
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		return map[model.YoutubeVideoID]string{}, err
	}

	durations := make(map[model.YoutubeVideoID]string, len(response.Items))
	for _, item := range response.Items {
		if item.ContentDetails == nil || item.ContentDetails.Duration == "" {
			continue
		}
		durations[model.YoutubeVideoID(item.Id)] = item.ContentDetails.Duration
	}

	return durations, nil
}
