package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultBaseURL = "https://www.youtube.com"

	playerClientName    = "ANDROID"
	playerClientVersion = "20.10.38"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	consentAction    = "https://consent.youtube.com/s"
)

var (
	apiKeyRegex  = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)
	videoIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	tagRegex     = regexp.MustCompile(`<[^>]*>`)
)

// Client talks to the watch page, the innertube player endpoint and the
// timedtext endpoint. It does not retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL points the client at another host, for tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch downloads the transcript of the first track matching languages.
func (c *Client) Fetch(ctx context.Context, videoID string, languages []string) (*Transcript, error) {
	tracks, err := c.List(ctx, videoID)
	if err != nil {
		return nil, err
	}

	track, found := FindTrack(tracks, languages)
	if !found {
		return nil, &TranscriptError{
			VideoID:   videoID,
			Requested: languages,
			Available: trackCodes(tracks),
			Err:       ErrNoTranscriptFound,
		}
	}

	snippets, err := c.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, &TranscriptError{VideoID: videoID, Err: err}
	}

	return &Transcript{
		VideoID:      videoID,
		LanguageCode: track.LanguageCode,
		Language:     track.Language,
		IsGenerated:  track.IsGenerated,
		Snippets:     snippets,
	}, nil
}

// List returns the caption tracks offered for a video.
func (c *Client) List(ctx context.Context, videoID string) ([]Track, error) {
	if !videoIDRegex.MatchString(videoID) {
		return nil, &TranscriptError{VideoID: videoID, Err: ErrInvalidVideoID}
	}

	apiKey, err := c.fetchAPIKey(ctx, videoID)
	if err != nil {
		return nil, &TranscriptError{VideoID: videoID, Err: err}
	}

	player, err := c.fetchPlayer(ctx, videoID, apiKey)
	if err != nil {
		return nil, &TranscriptError{VideoID: videoID, Err: err}
	}
	if err := player.PlayabilityStatus.err(); err != nil {
		return nil, &TranscriptError{VideoID: videoID, Err: err}
	}

	tracks := player.tracks()
	if len(tracks) == 0 {
		return nil, &TranscriptError{VideoID: videoID, Err: ErrTranscriptsDisabled}
	}

	return tracks, nil
}

// fetchAPIKey loads the watch page and extracts the innertube api key. A
// consent interstitial is accepted once.
func (c *Client) fetchAPIKey(ctx context.Context, videoID string) (string, error) {
	watchURL := c.baseURL + "/watch?" + url.Values{"v": {videoID}}.Encode()

	page, err := c.get(ctx, watchURL, nil)
	if err != nil {
		return "", fmt.Errorf("watch page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("%w: watch page: %v", ErrUnparsable, err)
	}
	if consent, ok := consentValue(doc); ok {
		page, err = c.get(ctx, watchURL, map[string]string{"Cookie": "CONSENT=YES+" + consent})
		if err != nil {
			return "", fmt.Errorf("watch page: %w", err)
		}
		if doc, err = goquery.NewDocumentFromReader(bytes.NewReader(page)); err != nil {
			return "", fmt.Errorf("%w: watch page: %v", ErrUnparsable, err)
		}
	}

	if m := apiKeyRegex.FindSubmatch(page); m != nil {
		return string(m[1]), nil
	}
	if doc.Find(".g-recaptcha").Length() > 0 {
		return "", ErrRequestBlocked
	}

	return "", fmt.Errorf("%w: no api key on watch page", ErrUnparsable)
}

func consentValue(doc *goquery.Document) (string, bool) {
	form := doc.Find(`form[action="` + consentAction + `"]`)
	if form.Length() == 0 {
		return "", false
	}
	return form.Find(`input[name="v"]`).Attr("value")
}

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

type playerResponse struct {
	PlayabilityStatus playabilityStatus `json:"playabilityStatus"`
	Captions          *struct {
		Renderer *struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type playabilityStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (p playabilityStatus) err() error {
	switch p.Status {
	case "OK", "":
		return nil
	case "ERROR":
		return fmt.Errorf("%w: %s", ErrVideoUnavailable, p.Reason)
	case "LOGIN_REQUIRED":
		if strings.Contains(p.Reason, "not a bot") {
			return fmt.Errorf("%w: %s", ErrRequestBlocked, p.Reason)
		}
	}
	return fmt.Errorf("%w: %s: %s", ErrVideoUnplayable, p.Status, p.Reason)
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
	Name         struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
}

func (p *playerResponse) tracks() []Track {
	if p.Captions == nil || p.Captions.Renderer == nil {
		return nil
	}

	tracks := make([]Track, 0, len(p.Captions.Renderer.CaptionTracks))
	for _, ct := range p.Captions.Renderer.CaptionTracks {
		name := ct.Name.SimpleText
		if name == "" {
			var parts []string
			for _, run := range ct.Name.Runs {
				parts = append(parts, run.Text)
			}
			name = strings.Join(parts, "")
		}
		tracks = append(tracks, Track{
			LanguageCode: ct.LanguageCode,
			Language:     name,
			IsGenerated:  ct.Kind == "asr",
			BaseURL:      strings.Replace(ct.BaseURL, "&fmt=srv3", "", 1),
		})
	}

	return tracks
}

func (c *Client) fetchPlayer(ctx context.Context, videoID, apiKey string) (*playerResponse, error) {
	var reqBody playerRequest
	reqBody.Context.Client.ClientName = playerClientName
	reqBody.Context.Client.ClientVersion = playerClientVersion
	reqBody.VideoID = videoID

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal player request: %w", err)
	}

	playerURL := c.baseURL + "/youtubei/v1/player?" + url.Values{"key": {apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, playerURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}

	var resp playerResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: player response: %v", ErrUnparsable, err)
	}

	return &resp, nil
}

type timedText struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",innerxml"`
	} `xml:"text"`
}

func (c *Client) fetchTimedText(ctx context.Context, trackURL string) ([]Snippet, error) {
	data, err := c.get(ctx, trackURL, nil)
	if err != nil {
		return nil, fmt.Errorf("timedtext: %w", err)
	}

	return parseTimedText(data)
}

// parseTimedText reads the <transcript><text start dur>...</text></transcript>
// format. Text bodies carry escaped markup which is unescaped and stripped.
func parseTimedText(data []byte) ([]Snippet, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("%w: timedtext: %v", ErrUnparsable, err)
	}

	snippets := make([]Snippet, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		start, _ := strconv.ParseFloat(t.Start, 64)
		dur, _ := strconv.ParseFloat(t.Dur, 64)
		// innerxml is still XML-escaped once, and the escaped text is HTML.
		text := html.UnescapeString(html.UnescapeString(t.Body))
		text = tagRegex.ReplaceAllString(text, "")
		snippets = append(snippets, Snippet{
			Text:     text,
			Start:    start,
			Duration: dur,
		})
	}

	return snippets, nil
}

func (c *Client) get(ctx context.Context, target string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrRequestBlocked, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}
