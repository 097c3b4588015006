package main

import (
	"context"
	"fmt"
	"log/slog"

	isolationconfig "isolationd/internal/isolation/config"
	isolationmetrics "isolationd/internal/isolation/metrics"
	"isolationd/internal/isolation/observability"
	"isolationd/internal/isolation/ports"
	"isolationd/internal/isolation/store"
	"isolationd/internal/isolation/store/memory"
	"isolationd/internal/isolation/store/postgres"
	isoredis "isolationd/internal/isolation/store/redis"
	"isolationd/internal/isolation/store/sqlite"
	"isolationd/internal/platform/config"
	platformredis "isolationd/internal/platform/redis"
	id "isolationd/pkg/domain"
)

// backend is the selected state backend plus its lifecycle hooks.
type backend struct {
	store.Backend
	health func(ctx context.Context) error
	close  func()
}

func openBackend(ctx context.Context, cfg config.Config, log *slog.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		log.WarnContext(ctx, "using in-memory isolation storage; state is lost on restart")
		return &backend{
			Backend: memory.New(),
			health:  func(context.Context) error { return nil },
			close:   func() {},
		}, nil
	case "sqlite":
		b, err := sqlite.Open(cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		return &backend{Backend: b, health: b.Health, close: func() { _ = b.Close() }}, nil
	case "postgres":
		b, err := postgres.Open(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		return &backend{Backend: b, health: b.Health, close: func() { _ = b.Close() }}, nil
	case "redis":
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, fmt.Errorf("redis storage selected but REDIS_URL is empty")
		}
		b := isoredis.NewRedis(client.Client, isoredis.WithKeyPrefix(cfg.Redis.KeyPrefix+":"))
		return &backend{Backend: b, health: client.Health, close: func() { _ = client.Close() }}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func newCodec(cfg config.StorageConfig, log *slog.Logger) (*store.Codec, error) {
	if cfg.EncryptionKey == "" {
		log.Warn("isolation state is stored unencrypted")
		return store.NewCodec(nil)
	}
	codec, err := store.NewCodecFromHex(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("storage encryption key: %w", err)
	}
	return codec, nil
}

func newPolicyCache(ctx context.Context, cfg config.PolicyConfig, persistence isolationconfig.Persistence, log *slog.Logger) (*isolationconfig.Cache, error) {
	country, err := id.ParseCountry(cfg.Country)
	if err != nil {
		return nil, fmt.Errorf("policy country: %w", err)
	}

	var fetcher isolationconfig.Fetcher
	switch {
	case cfg.S3Bucket != "":
		s3Fetcher, err := isolationconfig.NewS3Fetcher(ctx, isolationconfig.S3Config{
			Bucket:    cfg.S3Bucket,
			Key:       cfg.S3Key,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3Endpoint != "",
		})
		if err != nil {
			return nil, err
		}
		fetcher = s3Fetcher
	case cfg.File != "":
		fetcher = isolationconfig.FileFetcher{Path: cfg.File}
	default:
		log.InfoContext(ctx, "no isolation policy source configured; using defaults")
	}

	return isolationconfig.NewCache(country, fetcher,
		isolationconfig.WithLogger(log),
		isolationconfig.WithPersistence(persistence),
		isolationconfig.WithRefreshInterval(cfg.RefreshInterval),
	), nil
}

// sinks are where signposts and notification commands go.
type sinks struct {
	signposter ports.Signposter
	notifier   ports.Notifier
	health     func(ctx context.Context) error
	close      func()
}

func newSinks(ctx context.Context, cfg config.KafkaConfig, m *isolationmetrics.Metrics, log *slog.Logger) (*sinks, error) {
	counting := observability.NewCountingSignposter(m)
	if len(cfg.Brokers) == 0 {
		return &sinks{
			signposter: observability.Fanout{counting, observability.NewLogSignposter(log)},
			notifier:   observability.NewLogNotifier(log),
			close:      func() {},
		}, nil
	}

	producer, err := observability.NewKafka(cfg.Brokers, cfg.Topic, observability.WithKafkaLogger(log))
	if err != nil {
		return nil, err
	}
	if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
		log.WarnContext(ctx, "could not ensure signpost topic", "topic", cfg.Topic, "error", err)
	}
	return &sinks{
		signposter: observability.Fanout{counting, producer},
		notifier:   producer,
		health:     producer.Health,
		close:      producer.Close,
	}, nil
}
