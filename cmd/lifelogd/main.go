// Package main provides the lifelog daemon: the HTTP API, the job
// worker and the event stream.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/lifelog/internal/config"
	"github.com/raphaelgruber/lifelog/internal/db"
	"github.com/raphaelgruber/lifelog/internal/events"
	"github.com/raphaelgruber/lifelog/internal/extract"
	"github.com/raphaelgruber/lifelog/internal/jobs"
	"github.com/raphaelgruber/lifelog/internal/llm"
	"github.com/raphaelgruber/lifelog/internal/models"
	"github.com/raphaelgruber/lifelog/internal/prompt"
	"github.com/raphaelgruber/lifelog/internal/ratelimit"
	"github.com/raphaelgruber/lifelog/internal/server"
)

func main() {
	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg)
	defer func() {
		if err := closeLog(); err != nil {
			slog.Error("closing log file", "error", err)
		}
	}()
	slog.SetDefault(logger)

	slog.Info("starting lifelogd", "port", cfg.ServerPort, "provider", cfg.LLMProvider)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		slog.Error("connecting to database", "error", err)
		cancel()
		os.Exit(1)
	}
	if err := dbClient.InitSchema(ctx); err != nil {
		slog.Error("initializing schema", "error", err)
		cancel()
		os.Exit(1)
	}
	cancel()
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			slog.Error("closing database", "error", err)
		}
	}()

	model, err := llm.NewModel(cfg)
	if err != nil {
		slog.Error("initializing model", "error", err)
		os.Exit(1)
	}

	vocab, err := config.LoadVocabulary(cfg.VocabFile)
	if err != nil {
		slog.Error("loading vocabulary", "error", err, "file", cfg.VocabFile)
		os.Exit(1)
	}

	tracker := ratelimit.New(ratelimit.Limits{
		RequestsPerMinute: cfg.RequestsPerMinute,
		RequestsPerHour:   cfg.RequestsPerHour,
		RequestsPerDay:    cfg.RequestsPerDay,
		TokensPerMinute:   cfg.TokensPerMinute,
		TokensPerHour:     cfg.TokensPerHour,
		TokensPerDay:      cfg.TokensPerDay,
	}, cfg.RateLimitEnabled)

	assembler := prompt.NewAssembler(dbClient, vocab)
	extractor := extract.NewExtractor(dbClient, assembler, model, tracker, logger)
	summarizer := extract.NewSummarizer(dbClient, model, tracker, logger)

	hub := events.NewHub(logger)

	handlers := map[string]jobs.Handler{
		jobs.KindExtractSlack:    extractHandler(extractor, models.SourceSlack),
		jobs.KindExtractGitHub:   extractHandler(extractor, models.SourceGitHub),
		jobs.KindExtractMemos:    extractHandler(extractor, models.SourceMemo),
		jobs.KindSummarizeWindow: func(ctx context.Context, params map[string]string) (*jobs.Result, error) {
			outcome, err := summarizer.Run(ctx, params)
			if err != nil {
				return nil, err
			}
			return &jobs.Result{Summary: outcome.Summary, Data: outcome.Data}, nil
		},
	}
	dispatcher := jobs.NewDispatcher(dbClient, hub, tracker, handlers, logger)

	runCtx, stopWorkers := context.WithCancel(context.Background())
	go dispatcher.Run(runCtx)
	go hub.Run(runCtx)

	srv := server.New(dispatcher, dbClient, tracker, hub, cfg.AdminToken, logger)
	httpServer := srv.HTTPServer(cfg.ServerPort)

	go func() {
		slog.Info("API listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")
	stopWorkers()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("stopped")
}

func extractHandler(e *extract.Extractor, sourceKind string) jobs.Handler {
	return func(ctx context.Context, params map[string]string) (*jobs.Result, error) {
		outcome, err := e.Run(ctx, sourceKind, params)
		if err != nil {
			return nil, err
		}
		return &jobs.Result{Summary: outcome.Summary, Data: outcome.Data}, nil
	}
}
