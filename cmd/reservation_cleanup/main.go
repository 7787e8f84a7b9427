package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"meetingrooms/internal/config"
	"meetingrooms/internal/database"
	"meetingrooms/internal/domain/reservation"
	"meetingrooms/internal/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config.yaml")
	retention := flag.Duration("retention", 90*24*time.Hour, "keep reservations that ended (or were cancelled) within this period")
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

	db, err := database.Connect(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}

	cutoff := time.Now().UTC().Add(-*retention)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := reservation.NewRepository(db).PurgeEndedBefore(ctx, cutoff)
	if err != nil {
		zlog.Fatal("cleanup reservations failed", zap.Error(err))
	}

	zlog.Info("reservation cleanup completed", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
}
