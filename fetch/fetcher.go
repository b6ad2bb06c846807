package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ewintr.nl/ytscript/model"
	"ewintr.nl/ytscript/storage"
	"ewintr.nl/ytscript/transcript"
)

// DefaultLanguages is the transcript preference order: Korean, English, then
// auto-generated Korean.
var DefaultLanguages = []string{"ko", "en", "a.ko"}

type TranscriptSource interface {
	Fetch(ctx context.Context, videoID string, languages []string) (*transcript.Transcript, error)
}

// Result counts what one Run did.
type Result struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Fetcher appends one transcript record per video not yet in the store.
// Videos already recorded, successfully or not, are never fetched again.
type Fetcher struct {
	repo      storage.TranscriptRepository
	source    TranscriptSource
	languages []string
	logger    *slog.Logger
}

func NewFetcher(repo storage.TranscriptRepository, source TranscriptSource, languages []string, logger *slog.Logger) *Fetcher {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &Fetcher{
		repo:      repo,
		source:    source,
		languages: languages,
		logger:    logger,
	}
}

// Pending returns the videos whose url is not in the store yet, in input
// order, capped at batchSize when it is positive.
func (f *Fetcher) Pending(videos []model.VideoRecord, batchSize int) ([]model.VideoRecord, error) {
	processed, err := f.repo.ProcessedURLs()
	if err != nil {
		return nil, err
	}

	pending := []model.VideoRecord{}
	for _, v := range videos {
		if batchSize > 0 && len(pending) >= batchSize {
			break
		}
		if _, ok := processed[v.URL]; ok {
			continue
		}
		processed[v.URL] = struct{}{}
		pending = append(pending, v)
	}

	return pending, nil
}

// Run fetches and stores transcripts for the pending videos one at a time.
// Fetch failures become failure records; only store errors and cancellation
// stop the run. A fetch cut short by cancellation is not recorded, so the
// video stays pending.
func (f *Fetcher) Run(ctx context.Context, videos []model.VideoRecord, batchSize int) (Result, error) {
	pending, err := f.Pending(videos, batchSize)
	if err != nil {
		return Result{}, err
	}
	if len(pending) == 0 {
		f.logger.Info("no new videos to process")
		return Result{}, nil
	}
	f.logger.Info("processing new videos", slog.Int("count", len(pending)))

	var res Result
	for _, video := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		script := f.FetchScript(ctx, video)
		if err := ctx.Err(); err != nil {
			f.logger.Info("run interrupted, video left for the next run", slog.String("url", video.URL))
			return res, err
		}
		if err := f.repo.Append(model.NewTranscriptRecord(video, script)); err != nil {
			return res, fmt.Errorf("store transcript: %w", err)
		}

		res.Attempted++
		if script.Failed() {
			res.Failed++
		} else {
			res.Succeeded++
		}
	}
	f.logger.Info("processed videos", slog.Int("succeeded", res.Succeeded), slog.Int("attempted", res.Attempted))

	return res, nil
}

// FetchScript never fails: errors are turned into a failure Script.
func (f *Fetcher) FetchScript(ctx context.Context, video model.VideoRecord) model.Script {
	videoID := model.VideoID(video.URL)
	f.logger.Info("fetching transcript", slog.String("title", video.Title), slog.String("video", string(videoID)))
	if videoID == "" {
		err := fmt.Errorf("no video id in url %q", video.URL)
		f.logger.Warn("invalid video url", slog.String("url", video.URL))
		return model.Failure(FailureReason(err))
	}

	tr, err := f.source.Fetch(ctx, string(videoID), f.languages)
	if err != nil {
		if isUnavailable(err) {
			f.logger.Warn("transcript not available", slog.String("video", string(videoID)), slog.String("error", err.Error()))
		} else {
			f.logger.Error("failed to fetch transcript", slog.String("video", string(videoID)), slog.String("error", err.Error()))
		}
		return model.Failure(FailureReason(err))
	}

	return model.Success(tr.Text())
}

// FailureReason is the text stored behind the ERROR: prefix.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, transcript.ErrNoTranscriptFound):
		return "Transcript not available or disabled. (NoTranscriptFound)"
	case errors.Is(err, transcript.ErrTranscriptsDisabled):
		return "Transcript not available or disabled. (TranscriptsDisabled)"
	default:
		return fmt.Sprintf("Unknown error during fetch. (%v)", err)
	}
}

func isUnavailable(err error) bool {
	return errors.Is(err, transcript.ErrNoTranscriptFound) || errors.Is(err, transcript.ErrTranscriptsDisabled)
}
