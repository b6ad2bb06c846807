package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ewintr.nl/ytscript/config"
	"ewintr.nl/ytscript/format"
	"ewintr.nl/ytscript/logging"
	"ewintr.nl/ytscript/storage"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s <input_file.jsonl>\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	inputFile := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		logging.New("info", os.Stderr).Error("unable to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.WithRun(logging.New(cfg.LogLevel, os.Stderr))

	name := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
	outputFile := filepath.Join(cfg.OutputDir, "doc_"+name+".txt")
	logger.Info("converting transcripts", slog.String("input", inputFile), slog.String("output", outputFile))

	count, err := convert(inputFile, outputFile, logger)
	if err != nil {
		logger.Error("unable to convert transcripts", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("converted transcripts", slog.Int("count", count), slog.String("output", outputFile))
}

func convert(inputFile, outputFile string, logger *slog.Logger) (int, error) {
	in, err := os.Open(inputFile)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := storage.NewAtomicWriter(outputFile)
	if err != nil {
		return 0, err
	}
	count, err := format.Convert(in, out, logger)
	if err != nil {
		out.Abort()
		return 0, err
	}
	if err := out.Commit(); err != nil {
		return 0, err
	}

	return count, nil
}
