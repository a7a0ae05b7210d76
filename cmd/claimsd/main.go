package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/yuki-ame/MediClaim.AI/internal/claims"
	"github.com/yuki-ame/MediClaim.AI/internal/common"
	"github.com/yuki-ame/MediClaim.AI/internal/extract"
	"github.com/yuki-ame/MediClaim.AI/internal/llm/gemini"
	"github.com/yuki-ame/MediClaim.AI/internal/mailer"
	"github.com/yuki-ame/MediClaim.AI/internal/rules"
	"github.com/yuki-ame/MediClaim.AI/internal/server"
	"github.com/yuki-ame/MediClaim.AI/internal/textextract"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		logger.Error("loading rule table", "path", cfg.Rules.Path, "error", err)
		os.Exit(1)
	}
	logger.Info("rule table loaded", "path", cfg.Rules.Path, "codes", table.Len())

	llmClient, err := gemini.NewClient(ctx, gemini.Config{
		ProjectID:   cfg.LLM.ProjectID,
		Region:      cfg.LLM.Region,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		logger.Error("creating gemini client", "error", err)
		os.Exit(1)
	}
	defer llmClient.Close()

	texts := textextract.NewExtractor(textextract.Config{
		Pdftotext:     cfg.Extract.Pdftotext,
		Tesseract:     cfg.Extract.Tesseract,
		TesseractLang: cfg.Extract.TesseractLang,
	}, logger)

	adapter := extract.NewAdapter(texts, llmClient, logger)
	engine := claims.NewEngine(table, llmClient, logger)
	assembler := claims.NewAssembler(llmClient, logger)
	smtp := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		From:     cfg.SMTP.From,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	}, logger)

	h := server.NewHandler(adapter, engine, assembler, smtp, logger)
	e := server.New(server.Config{BodyLimit: cfg.Server.BodyLimit}, h, logger)

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := e.Start(cfg.Server.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
