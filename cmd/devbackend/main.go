package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Purab2001/CourseHub-client/internal/backend"
	"github.com/Purab2001/CourseHub-client/internal/config"
	"github.com/Purab2001/CourseHub-client/internal/identity/provider/local"
	"github.com/Purab2001/CourseHub-client/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.Init(cfg.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseDSN == "" {
		zl.Fatal("DATABASE_DSN is required for the dev backend")
	}

	db, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		zl.Fatal("ping database", zap.Error(err))
	}
	if err := backend.RunMigration(ctx, db); err != nil {
		zl.Fatal("run migration", zap.Error(err))
	}

	srv := backend.NewServer(
		backend.NewPGStore(db),
		local.NewVerifier(cfg.LocalTokenSecret),
		zl,
	)

	httpServer := &http.Server{
		Addr:    ":" + cfg.DevBackendPort,
		Handler: srv.Router(),
	}

	go func() {
		zl.Info("dev backend listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
}
