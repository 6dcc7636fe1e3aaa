package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdesk/internal/articles"
	"newsdesk/internal/config"
	"newsdesk/internal/content"
	"newsdesk/internal/database"
	"newsdesk/internal/notify"
	"newsdesk/internal/scheduler"
	"newsdesk/internal/server"
	"newsdesk/internal/speech"
	"newsdesk/internal/summarizer"

	"github.com/joho/godotenv"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err == nil {
		log.InfoContext(ctx, ".env file is loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize DB",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.ErrorContext(ctx, "Failed to close DB",
				"error", closeErr,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	sum := initSummarizer(ctx, cfg, log)
	synth := initSynthesizer(ctx, cfg, log)
	notifier := initNotifier(ctx, cfg, log)

	fetcher := content.NewClient(cfg.FetchTimeout, log)
	archive := content.NewArchive(cfg.DataDir)

	svc := articles.NewService(db, fetcher, sum, archive, notifier, articles.Options{
		SummaryMaxChars: cfg.SummaryMaxChars,
		StrictSummaries: cfg.SummaryStrict,
	}, log)

	srv := server.New(svc, synth, db, server.Options{
		SpeechVoice:  cfg.SpeechVoice,
		SpeechFormat: cfg.SpeechFormat,
		SpeechSpeed:  cfg.SpeechSpeed,
		Version:      version,
	}, log)

	if cfg.SummaryBackfillSpec != "" && sum != nil {
		sched := scheduler.New(ctx, svc, cfg.SummaryBackfillSpec, log)
		if err = sched.Start(); err != nil {
			log.ErrorContext(ctx, "Failed to start scheduler",
				"error", err,
				"spec", cfg.SummaryBackfillSpec)

			return
		}
		defer sched.Stop()
		log.InfoContext(ctx, "Summary backfill scheduler is started",
			"spec", cfg.SummaryBackfillSpec)
	}

	go func() {
		if serveErr := srv.Start(cfg.Addr); serveErr != nil &&
			!errors.Is(serveErr, http.ErrServerClosed) {
			log.ErrorContext(ctx, "Server stopped",
				"error", serveErr,
				"addr", cfg.Addr)
			cancel()
		}
	}()
	log.InfoContext(ctx, "Server is started",
		"addr", cfg.Addr)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "Failed to shut down server",
			"error", err)
	}
	log.InfoContext(ctx, "Server is stopped")
}

func initSummarizer(ctx context.Context, cfg config.Config, log *slog.Logger) summarizer.Summarizer {
	switch cfg.SummaryProvider {
	case "mock":
		log.InfoContext(ctx, "Mock summarizer is initialized")

		return summarizer.NewMockSummarizer()
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.WarnContext(ctx, "OPENAI_API_KEY is missing so summaries are disabled",
				"envVar", "OPENAI_API_KEY")

			return nil
		}

		s, err := summarizer.NewOpenAISummarizer(cfg.OpenAIAPIKey, cfg.SummaryModel, cfg.SummaryTimeout)
		if err != nil {
			log.ErrorContext(ctx, "Failed to create OpenAI summarizer so summaries are disabled",
				"error", err)

			return nil
		}

		log.InfoContext(ctx, "OpenAI summarizer is initialized",
			"provider", "openai")

		return s
	default:
		log.WarnContext(ctx, "Unknown summary provider so summaries are disabled",
			"provider", cfg.SummaryProvider)

		return nil
	}
}

func initSynthesizer(ctx context.Context, cfg config.Config, log *slog.Logger) speech.Synthesizer {
	switch cfg.SpeechProvider {
	case "azure":
		s, err := speech.NewAzureSynthesizer(cfg.AzureSpeechKey, cfg.AzureSpeechRegion, cfg.SpeechTimeout)
		if err != nil {
			log.WarnContext(ctx, "Azure speech is not configured so the mock synthesizer is used",
				"error", err)

			return speech.NewMockSynthesizer()
		}

		log.InfoContext(ctx, "Azure synthesizer is initialized",
			"region", cfg.AzureSpeechRegion)

		return s
	case "openai":
		s, err := speech.NewOpenAISynthesizer(cfg.OpenAIAPIKey, cfg.SpeechTimeout)
		if err != nil {
			log.WarnContext(ctx, "OpenAI speech is not configured so the mock synthesizer is used",
				"error", err)

			return speech.NewMockSynthesizer()
		}

		log.InfoContext(ctx, "OpenAI synthesizer is initialized")

		return s
	default:
		log.InfoContext(ctx, "Mock synthesizer is initialized",
			"provider", cfg.SpeechProvider)

		return speech.NewMockSynthesizer()
	}
}

func initNotifier(ctx context.Context, cfg config.Config, log *slog.Logger) articles.Notifier {
	if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
		return nil
	}

	n, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, log)
	if err != nil {
		log.WarnContext(ctx, "Failed to create Telegram notifier so notifications are disabled",
			"error", err)

		return nil
	}

	log.InfoContext(ctx, "Telegram notifier is initialized",
		"chatID", cfg.TelegramChatID)

	return n
}
