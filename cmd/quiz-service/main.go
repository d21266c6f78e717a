package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"quiz-trainer/internal/config"
	"quiz-trainer/internal/httpapi"
	"quiz-trainer/internal/logger"
	"quiz-trainer/internal/questionsource"
	"quiz-trainer/internal/quiz"
	"quiz-trainer/internal/storage"
	"quiz-trainer/internal/validator"
)

func main() {
	cfg := config.Load()

	flag.StringVar(&cfg.ServerPort, "port", cfg.ServerPort, "HTTP listen port")
	flag.StringVar(&cfg.QuestionsSource, "source", cfg.QuestionsSource, "question file path or http(s) URL")
	flag.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "stats store driver: memory, file, sqlite, redis, postgres")
	flag.Parse()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, nil)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Msg("Starting quiz service")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	raw, err := questionsource.Load(ctx, questionsource.NewClient(nil), cfg.QuestionsSource)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.QuestionsSource).Msg("Failed to load questions")
	}
	catalog := quiz.NewCatalog(quiz.BuildQuestions(raw), cfg.GroupSize)
	log.Info().Int("questions", catalog.Len()).Int("groups", catalog.GroupCount()).Msg("Questions loaded")

	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stats store")
	}

	api := httpapi.NewAPI(catalog, store, quiz.Options{
		SessionSeconds: cfg.SessionSeconds,
		WarningSeconds: cfg.WarningSeconds,
		RandomCount:    cfg.RandomCount,
		Logger:         log,
	}, log, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr: ":" + cfg.ServerPort,
		Handler: httpapi.NewRouter(api, httpapi.RouterConfig{
			GinMode:        cfg.GinMode,
			AllowedOrigins: cfg.AllowedOrigins,
		}, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Timers stop before the store closes so no tick persists into a closed backend.
	api.Close()
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("Stats store close error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
