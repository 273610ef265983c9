package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/xiaot623/visionassist/internal/adapter/genai"
	"github.com/xiaot623/visionassist/internal/adapter/speech"
	"github.com/xiaot623/visionassist/internal/adapter/vision"
	"github.com/xiaot623/visionassist/internal/config"
	"github.com/xiaot623/visionassist/internal/logging"
	"github.com/xiaot623/visionassist/internal/policy"
	"github.com/xiaot623/visionassist/internal/repository"
	"github.com/xiaot623/visionassist/internal/service"
	transporthttp "github.com/xiaot623/visionassist/internal/transport/http"
	v1 "github.com/xiaot623/visionassist/internal/transport/http/v1"
	"github.com/xiaot623/visionassist/internal/transport/hub"
	"github.com/xiaot623/visionassist/internal/transport/ws"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("assistant stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting assistant",
		"http_port", cfg.HTTPPort,
		"model", cfg.GenAIModel,
		"vision_url", cfg.VisionURL,
		"enhancer", cfg.AnalysisEnhancer,
		"mode", cfg.Mode,
	)

	db, err := repository.NewSQLiteStore(cfg.HistoryDSN)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	genaiClient, err := genai.NewGenAIClient(ctx, genai.Config{
		APIKey:           cfg.GeminiAPIKey,
		BaseURL:          cfg.GenAIBaseURL,
		Model:            cfg.GenAIModel,
		Temperature:      cfg.GenAITemperature,
		TopP:             cfg.GenAITopP,
		TopK:             cfg.GenAITopK,
		MaxOutputTokens:  cfg.GenAIMaxOutputTokens,
		ResponseMIMEType: cfg.GenAIResponseMIMEType,
		Timeout:          cfg.GenAITimeout(),
		PollInterval:     cfg.MediaPollInterval(),
		MaxWait:          cfg.MediaMaxWait(),
	}, cfg.Mode)
	if err != nil {
		return fmt.Errorf("failed to initialize generative client: %w", err)
	}

	var detector vision.Detector = vision.NewHTTPDetector(cfg.VisionURL, cfg.VisionTimeout())
	if cfg.Mode == genai.ModeMock {
		slog.Info("ASSIST_MODE=MOCK detected, using mock detector")
		detector = vision.NewMockDetector()
	}
	visionAdapter := vision.NewAdapter(detector, cfg.VisionTimeout())

	var synth speech.Synthesizer
	if cfg.SpeechEnabled {
		g, err := speech.NewGoogleSynthesizer(ctx, cfg.SpeechCredentialsFile, cfg.SpeechLanguageCode)
		if err != nil {
			slog.Warn("speech synthesis disabled", "error", err)
		} else {
			synth = g
		}
	}
	speechAdapter := speech.NewAdapter(synth, cfg.SpeechTimeout())
	defer speechAdapter.Close()

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	enhancer, err := cfg.Enhancer()
	if err != nil {
		return err
	}
	svc := service.New(db, genaiClient, visionAdapter, speechAdapter, policyEngine, service.Options{
		Enhancer:      enhancer,
		MaxImageBytes: cfg.MaxImageBytes,
	})

	connectionHub := hub.NewHub()
	go connectionHub.Run(ctx)

	wsServer := ws.NewServer(ws.Config{
		PingInterval:   cfg.WSPingInterval(),
		WriteTimeout:   cfg.WSWriteTimeout(),
		ReadTimeout:    cfg.WSReadTimeout(),
		MaxMessageSize: cfg.WSMaxMessageSize,
	}, connectionHub, svc)

	server := transporthttp.NewServer(svc, v1.UploadConfig{Dir: cfg.UploadDir}, wsServer)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	slog.Info("assistant API started", "port", cfg.HTTPPort)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	slog.Info("shutting down assistant")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("failed to shutdown server gracefully", "error", err)
	}

	slog.Info("assistant stopped")
	return nil
}
