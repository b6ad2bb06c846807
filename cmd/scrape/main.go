package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"ewintr.nl/ytscript/config"
	"ewintr.nl/ytscript/fetch"
	"ewintr.nl/ytscript/logging"
	"ewintr.nl/ytscript/storage"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const sampleSize = 3

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s <channel id or @handle>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	identifier := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New("info", os.Stderr).Error("unable to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.WithRun(logging.New(cfg.LogLevel, os.Stderr))
	if err := cfg.RequireAPIKey(); err != nil {
		logger.Error("no youtube api key, set YOUTUBE_API_KEY in the environment or .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ytClient, err := youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		logger.Error("unable to create youtube service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	enumerator := fetch.NewEnumerator(fetch.NewYoutube(ytClient), cfg.MaxPages, logger)

	channelID, err := enumerator.ResolveChannel(ctx, identifier)
	if err != nil {
		logger.Error("unable to resolve channel", slog.String("identifier", identifier), slog.String("error", err.Error()))
		os.Exit(1)
	}

	videos, err := enumerator.ListChannelVideos(ctx, channelID)
	if err != nil {
		logger.Error("unable to list channel videos", slog.String("channelid", string(channelID)), slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(videos) == 0 {
		logger.Warn("channel has no uploaded videos", slog.String("channelid", string(channelID)))
	}
	for _, v := range videos[:min(sampleSize, len(videos))] {
		attrs := []any{slog.String("title", v.Title), slog.String("url", v.URL), slog.Bool("short", v.IsShort)}
		if v.DurationSeconds != nil {
			attrs = append(attrs, slog.Int("seconds", *v.DurationSeconds))
		}
		logger.Info("sample video", attrs...)
	}

	files, err := storage.WriteVideos(cfg.OutputDir, channelID, videos)
	if err != nil {
		logger.Error("unable to save videos", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("saved videos", slog.Int("count", len(videos)), slog.String("json", files.JSON), slog.String("csv", files.CSV))
}
