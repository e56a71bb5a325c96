package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/menu-crawler/internal/ai"
	"github.com/jonathan/menu-crawler/internal/browser"
	"github.com/jonathan/menu-crawler/internal/config"
	"github.com/jonathan/menu-crawler/internal/notify"
	"github.com/jonathan/menu-crawler/internal/observability"
	"github.com/jonathan/menu-crawler/internal/ocr"
	"github.com/jonathan/menu-crawler/internal/pipeline"
	"github.com/jonathan/menu-crawler/internal/store"
)

var crawlCommand = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl configured menu pages end-to-end",
	Long: `Visits every start URL and extracts menu products: structured API responses first,
DOM scraping when no structured data arrives, then an OCR+AI pass over full-page
screenshots of the menu, its category tabs and deals pages.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runCrawlCmd,
}

var (
	crawlConfigPath string
	crawlStartURL   string
	crawlDataset    string
	crawlOutputDir  string
	crawlHeadful    bool
	crawlVerbose    bool
)

func init() {
	crawlCommand.Flags().StringVar(&crawlConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	crawlCommand.Flags().StringVarP(&crawlStartURL, "start-url", "u", "", "Single menu URL to crawl (replaces configured start URLs)")
	crawlCommand.Flags().StringVarP(&crawlDataset, "dataset", "d", "", "Primary dataset name")
	crawlCommand.Flags().StringVarP(&crawlOutputDir, "output-dir", "o", "", "Directory for filesystem output")
	crawlCommand.Flags().BoolVar(&crawlHeadful, "headful", false, "Run the browser with a visible window")
	crawlCommand.Flags().BoolVarP(&crawlVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(crawlCommand)
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	level := zerolog.InfoLevel
	if crawlVerbose {
		level = zerolog.DebugLevel
	}
	runID := uuid.NewString()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Str("run_id", runID).Logger()
	log.Logger = logger

	cfg, err := config.Load(crawlConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("start-url") {
		cfg.StartURLs = []string{crawlStartURL}
	}
	if cmd.Flags().Changed("dataset") {
		cfg.DatasetName = crawlDataset
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = crawlOutputDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if crawlVerbose {
		observability.NewPrinter(os.Stdout).PrintCrawlPlan(cfg)
	}

	deps, cleanup, err := buildDeps(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		return err
	}

	logger.Info().
		Int("pages", len(cfg.StartURLs)).
		Str("dataset", cfg.DatasetName).
		Str("ocr_dataset", cfg.OCRDatasetName).
		Msg("starting crawl")

	return pipeline.NewCrawler(cfg, deps).Run(ctx)
}

// buildDeps wires the storage backend, OCR, AI and browser collaborators from
// configuration. Optional collaborators that fail to initialize are disabled
// with a warning rather than aborting the run.
func buildDeps(ctx context.Context, cfg config.Config, logger zerolog.Logger) (pipeline.Deps, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var primary, ocrDataset store.Dataset
	var kv store.KeyValueStore
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPGStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return pipeline.Deps{}, cleanup, fmt.Errorf("failed to open database store: %w", err)
		}
		cleanups = append(cleanups, pg.Close)
		primary = pg.Dataset(cfg.DatasetName)
		ocrDataset = pg.Dataset(cfg.OCRDatasetName)
		kv = pg
		logger.Info().Msg("using PostgreSQL store")
	} else {
		fs, err := store.NewFSStore(cfg.OutputDir)
		if err != nil {
			return pipeline.Deps{}, cleanup, err
		}
		primary = fs.Dataset(cfg.DatasetName)
		ocrDataset = fs.Dataset(cfg.OCRDatasetName)
		kv = fs
		logger.Info().Str("dir", cfg.OutputDir).Msg("using filesystem store")
	}

	var ocrReader pipeline.OCRReader
	if cfg.UseOCRBackup {
		reader, err := ocr.NewVisionReader(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("OCR unavailable, secondary pass disabled")
		} else {
			cleanups = append(cleanups, func() { _ = reader.Close() })
			ocrReader = reader
		}
	}

	var extractor pipeline.AIExtractor
	if cfg.UseAIParser {
		ex, err := ai.NewExtractor(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			logger.Warn().Err(err).Msg("AI parsing unavailable, OCR text will not be structured")
		} else {
			extractor = ex
		}
	}

	opts := browser.Options{
		Headless:    !crawlHeadful,
		ProxyServer: cfg.ProxyURL,
	}
	newPage := func() (pipeline.Page, error) {
		return browser.NewSession(ctx, opts)
	}

	deps := pipeline.Deps{
		NewPage:    newPage,
		OCR:        ocrReader,
		AI:         extractor,
		Primary:    primary,
		OCRDataset: ocrDataset,
		KV:         kv,
		Notifier:   notify.NewWebhook(cfg.WebhookURL),
		Logger:     logger,
	}
	return deps, cleanup, nil
}
