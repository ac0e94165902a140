package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studyassist/chat"
	"studyassist/config"
	"studyassist/gateway"
	"studyassist/ingest"
	"studyassist/logging"
	"studyassist/retrieval"
	"studyassist/server"
	"studyassist/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		os.Stderr.WriteString("failed to init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Warn("config incomplete, API-dependent paths will fail", "error", err)
	}

	ctx := context.Background()
	store := storage.Open(ctx, cfg, logger)
	defer store.Close(ctx)

	api := gateway.NewOpenAI(cfg)
	ingestor := ingest.NewIngestor(store, api, logger, cfg.ChunkSize, cfg.ChunkOverlap)
	ranker := retrieval.NewRanker(store, logger, cfg.ScanHardCap)
	sessions := chat.NewMemorySessionStore(cfg.SessionTurnCap, cfg.MaxMessageLength)
	thresholds := retrieval.Thresholds{
		High: cfg.HighConfidence,
		Low:  cfg.LowConfidence,
		Min:  cfg.MinConfidence,
	}
	chatService := chat.NewService(api, api, ranker, sessions, thresholds, logger)

	srv := server.New(ingestor, chatService, logger)

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "store", cfg.Store)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
