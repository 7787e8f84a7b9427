package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"meetingrooms/internal/app"
	"meetingrooms/internal/config"
	"meetingrooms/internal/database"
	"meetingrooms/internal/events"
	"meetingrooms/internal/logger"
	"meetingrooms/internal/tracing"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	shutdownTracer, err := tracing.InitTracer(cfg.Tracing, cfg.App.Name, cfg.App.Env)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			zlog.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database, zlog)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	locker, lockCloser, err := app.NewLocker(cfg.Redis, zlog)
	if err != nil {
		return err
	}
	defer closeQuietly(lockCloser, "redis", zlog)

	hub := events.NewHub(zlog)
	publisher, pubCloser, err := app.NewPublisher(cfg.Kafka, hub, zlog)
	if err != nil {
		return err
	}
	defer closeQuietly(pubCloser, "kafka", zlog)

	router := app.NewRouter(app.Deps{
		Config:    cfg,
		DB:        db,
		Log:       zlog,
		Locker:    locker,
		Publisher: publisher,
		Hub:       hub,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      otelhttp.NewHandler(router, "http.server"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("http server listening", zap.String("addr", cfg.HTTP.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func closeQuietly(c io.Closer, name string, zlog *zap.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		zlog.Warn("close "+name, zap.Error(err))
	}
}
