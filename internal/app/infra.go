package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"meetingrooms/internal/config"
	"meetingrooms/internal/events"
	"meetingrooms/internal/lock"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewLocker picks the Redis lock when redis.addr is configured and the
// in-process lock otherwise. The returned closer may be nil.
func NewLocker(cfg config.RedisConfig, log *zap.Logger) (lock.RoomLocker, io.Closer, error) {
	if cfg.Addr == "" {
		log.Info("using in-process room lock")
		return lock.NewLocalLocker(), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	log.Info("using redis room lock", zap.String("addr", cfg.Addr))
	return lock.NewRedisLocker(client, cfg.KeyPrefix, cfg.LockTTL, cfg.LockRetry, log), client, nil
}

// NewPublisher fans reservation events out to the websocket hub and, when
// brokers are configured, to Kafka.
func NewPublisher(cfg config.KafkaConfig, hub *events.Hub, log *zap.Logger) (events.Publisher, io.Closer, error) {
	pubs := events.Multi{hub}
	if len(cfg.Brokers) == 0 {
		return pubs, nil, nil
	}

	kp, err := events.NewKafkaPublisher(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info("publishing reservation events to kafka",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return append(pubs, kp), kp, nil
}
