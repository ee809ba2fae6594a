// Package main provides the oasis CLI entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"github.com/KinGao294/oasis/internal/api"
	"github.com/KinGao294/oasis/internal/cache"
	"github.com/KinGao294/oasis/internal/config"
	"github.com/KinGao294/oasis/internal/fetch"
	"github.com/KinGao294/oasis/internal/logger"
	"github.com/KinGao294/oasis/internal/middleware"
	"github.com/KinGao294/oasis/internal/publish"
	"github.com/KinGao294/oasis/internal/sources"
	"github.com/KinGao294/oasis/internal/store"
	"github.com/KinGao294/oasis/internal/summary"
	"github.com/KinGao294/oasis/internal/transcript"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "oasis",
		Short:   "Aggregate and enrich content from YouTube, Bilibili, X and podcasts",
		Long:    "Oasis fetches content from configured sources into one feed, then enriches items with transcripts and AI timeline summaries.",
		Version: version,
	}

	rootCmd.SetVersionTemplate("oasis version {{.Version}}\n")

	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newTranscriptCmd())
	rootCmd.AddCommand(newSummarizeCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// setup loads configuration, initializes logging and opens the store.
func setup(ctx context.Context) (*config.Config, *store.Store, error) {
	cfg := config.Load()

	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: "stdout",
		Pretty: true,
	}); err != nil {
		return nil, nil, err
	}

	var uploader *publish.S3Uploader
	s3cfg := publish.S3Config{
		Endpoint:  cfg.R2Endpoint,
		AccessKey: cfg.R2AccessKey,
		SecretKey: cfg.R2SecretKey,
		Bucket:    cfg.R2Bucket,
	}
	if s3cfg.Enabled() {
		var err error
		uploader, err = publish.NewS3Uploader(ctx, s3cfg)
		if err != nil {
			return nil, nil, err
		}
	}

	publisher := publish.New(cfg.DataDir, cfg.PublishDir, uploader)
	st, err := store.New(cfg.DataDir, publisher)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch all configured sources into the feed document",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, st, err := setup(ctx)
			if err != nil {
				return err
			}
			log := logger.Get()

			srcs, err := sources.Load(cfg.SourcesFile)
			if err != nil {
				return err
			}
			log.Info().Int("sources", len(srcs)).Msg("starting fetch")

			fetcher := fetch.NewFetcher(cfg.FetchTimeout)
			items, stats := fetcher.FetchAll(ctx, srcs)

			doc, err := st.UpsertAll(items)
			if err != nil {
				return err
			}
			if err := st.Save(ctx, doc); err != nil {
				return err
			}

			log.Info().
				Int("fetched", stats.Items).
				Int("failed_sources", stats.Failed).
				Int("total", doc.Count).
				Msg("fetch complete")
			return nil
		},
	}
}

func newTranscriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcript",
		Short: "Fetch transcripts for video items",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, st, err := setup(ctx)
			if err != nil {
				return err
			}

			stage := transcript.NewStage(st,
				transcript.NewYouTubeFetcher(cfg.APITimeout),
				transcript.NewBilibiliFetcher(cfg.APITimeout),
			)
			_, err = stage.Run(ctx)
			return err
		},
	}
}

func newSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Generate AI timeline summaries for transcribed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, st, err := setup(ctx)
			if err != nil {
				return err
			}
			if err := cfg.RequireAIKey(); err != nil {
				return err
			}

			generator := summary.NewGLMClient(
				cfg.AIBaseURL,
				cfg.AIApiKey,
				cfg.AIModel,
				cfg.AIMaxTokens,
				cfg.AITimeout,
			)
			stage := summary.NewStage(st, generator)
			_, err = stage.Run(ctx)
			return err
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the feed and artifacts over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, st, err := setup(ctx)
			if err != nil {
				return err
			}
			log := logger.Get()

			var responseCache cache.Cache
			if cfg.RedisURL != "" {
				responseCache, err = cache.NewRedisCache(cfg.RedisURL)
				if err != nil {
					return err
				}
			} else {
				responseCache = cache.NewMemoryCache()
			}
			defer func() {
				if err := responseCache.Close(); err != nil {
					log.Error().Err(err).Msg("error closing cache")
				}
			}()

			app := fiber.New(fiber.Config{
				ReadTimeout:  cfg.HTTPTimeout,
				WriteTimeout: cfg.HTTPTimeout,
				IdleTimeout:  120 * time.Second,
				ErrorHandler: middleware.ErrorHandler,
			})
			api.SetupRoutes(app, api.NewHandlers(st, responseCache, cfg.CacheTTL))

			go func() {
				log.Info().Str("port", cfg.Port).Msg("starting server")
				if err := app.Listen(":" + cfg.Port); err != nil {
					log.Fatal().Err(err).Msg("server error")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			select {
			case <-quit:
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("server forced to shutdown")
			}
			return nil
		},
	}
}
