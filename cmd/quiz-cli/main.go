package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"quiz-trainer/internal/cli"
	"quiz-trainer/internal/config"
	"quiz-trainer/internal/logger"
	"quiz-trainer/internal/questionsource"
	"quiz-trainer/internal/quiz"
	"quiz-trainer/internal/storage"
)

func main() {
	cfg := config.Load()

	flag.StringVar(&cfg.QuestionsSource, "source", cfg.QuestionsSource, "question file path or http(s) URL")
	flag.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "stats store driver: memory, file, sqlite, redis, postgres")
	flag.StringVar(&cfg.StorePath, "store-path", cfg.StorePath, "stats file for the file and sqlite drivers")
	flag.IntVar(&cfg.GroupSize, "group-size", cfg.GroupSize, "questions per group")
	flag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// Logs go to stderr so they never interleave with the quiz on stdout.
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	raw, err := questionsource.Load(ctx, questionsource.NewClient(nil), cfg.QuestionsSource)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	catalog := quiz.NewCatalog(quiz.BuildQuestions(raw), cfg.GroupSize)
	log.Debug().
		Str("source", cfg.QuestionsSource).
		Int("questions", catalog.Len()).
		Int("groups", catalog.GroupCount()).
		Msg("Questions loaded")

	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open stats store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close stats store")
		}
	}()

	return cli.Run(ctx, os.Stdin, os.Stdout, cli.Deps{
		Catalog: catalog,
		Stats:   quiz.NewStatStore(store, quiz.DefaultStatKeys(), log),
		Options: quiz.Options{
			SessionSeconds: cfg.SessionSeconds,
			WarningSeconds: cfg.WarningSeconds,
			RandomCount:    cfg.RandomCount,
			Logger:         log,
		},
		Terminal: term.IsTerminal(int(os.Stdout.Fd())),
	})
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
