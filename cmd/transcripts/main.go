package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"ewintr.nl/ytscript/config"
	"ewintr.nl/ytscript/fetch"
	"ewintr.nl/ytscript/logging"
	"ewintr.nl/ytscript/storage"
	"ewintr.nl/ytscript/transcript"
)

func main() {
	var outputFile string
	var batchSize int
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&outputFile, "o", "", "output .jsonl file, results are appended (default result_<input name>.jsonl)")
	fs.StringVar(&outputFile, "output_file", "", "same as -o")
	fs.IntVar(&batchSize, "batch_size", 0, "number of videos to process in this run, 0 processes all")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s <input_file> [-o output_file] [--batch_size n]\n", os.Args[0])
		fs.PrintDefaults()
	}

	args, err := parseArgs(fs, os.Args[1:])
	if err != nil || len(args) != 1 {
		fs.Usage()
		os.Exit(2)
	}
	inputFile := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New("info", os.Stderr).Error("unable to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.WithRun(logging.New(cfg.LogLevel, os.Stderr))

	if outputFile == "" {
		name := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
		outputFile = filepath.Join(cfg.OutputDir, "result_"+name+".jsonl")
		logger.Info("no output file given, using default", slog.String("output", outputFile))
	}

	videos, err := storage.ReadVideos(inputFile)
	if err != nil {
		logger.Error("unable to read input file", slog.String("input", inputFile), slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := storage.NewJSONLStore(outputFile, logger)
	fetcher := fetch.NewFetcher(store, transcript.NewClient(), cfg.Languages, logger)
	res, err := fetcher.Run(ctx, videos, batchSize)
	if cerr := store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		logger.Error("transcript run stopped", slog.Int("attempted", res.Attempted), slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("transcript run finished",
		slog.Int("attempted", res.Attempted),
		slog.Int("succeeded", res.Succeeded),
		slog.Int("failed", res.Failed),
		slog.String("output", outputFile),
	)
}

// parseArgs allows flags before and after the positional arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}
