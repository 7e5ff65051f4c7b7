package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/agamai/meet/internal/adapters/http"
	"github.com/agamai/meet/internal/app"
	"github.com/agamai/meet/internal/collab"
	"github.com/agamai/meet/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	var transcriber collab.Transcriber = collab.Disabled{}
	if cfg.Collab.TranscriberURL != "" {
		transcriber = collab.NewHTTPTranscriber(cfg.Collab.TranscriberURL, cfg.Collab.APIKey, cfg.Collab.Timeout)
	}
	var summarizer collab.Summarizer = collab.Disabled{}
	if cfg.Collab.SummarizerURL != "" {
		summarizer = collab.NewHTTPSummarizer(cfg.Collab.SummarizerURL, cfg.Collab.APIKey, cfg.Collab.Timeout)
	}

	coord := app.NewCoordinator(app.NewRegistry(), transcriber, collab.Lexicon{}, summarizer, app.Options{
		FlushInterval:  cfg.Flush.Interval,
		FlushMinBytes:  cfg.Flush.MinBytes,
		RecoveryDwell:  cfg.Network.RecoveryDwell,
		NudgeAfter:     cfg.Network.NudgeAfter,
		IdleNudgeAfter: cfg.Engagement.IdleNudgeAfter,
		NudgeBelow:     cfg.Engagement.NudgeBelow,
	})
	defer coord.Close()

	r := router.SetupRouter(ctx, cfg, coord)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("meet server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
