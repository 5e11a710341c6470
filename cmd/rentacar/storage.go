package main

import (
	"context"
	"fmt"
	"log/slog"

	"rentacar/internal/app/bootstrap"
	appoutbox "rentacar/internal/app/outbox"
	"rentacar/internal/infra/broker/kafka"
	"rentacar/internal/infra/config"
	mongostore "rentacar/internal/infra/db/mongo"
	"rentacar/internal/infra/outbox"
	"rentacar/internal/infra/storage/memory"
)

// storage bundles the persistence side of one storage mode.
type storage struct {
	deps   bootstrap.Deps
	relay  *outbox.Worker
	ready  func(ctx context.Context) error
	closer []func()
}

func (s *storage) close() {
	for i := len(s.closer) - 1; i >= 0; i-- {
		s.closer[i]()
	}
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	if cfg.StorageMode == config.StorageMongo {
		return openMongo(ctx, cfg, logger)
	}
	return openMemory(cfg, logger), nil
}

// openMemory logs flushed events instead of publishing them.
func openMemory(cfg config.Config, logger *slog.Logger) *storage {
	box := memory.NewOutbox(func(ctx context.Context, records []appoutbox.EventRecord) error {
		for _, rec := range records {
			logger.InfoContext(ctx, "event", "name", rec.Name, "aggregate", rec.Aggregate, "id", rec.ID)
		}
		return nil
	})
	return &storage{
		deps: bootstrap.Deps{
			UoWFactory:  memory.NewFactory(),
			Outbox:      box,
			Idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		},
	}
}

func openMongo(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	s := &storage{}
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	s.closer = append(s.closer, func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("mongo disconnect failed", "error", err)
		}
	})
	if err := client.Ping(ctx); err != nil {
		s.close()
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		s.close()
		return nil, err
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		s.close()
		return nil, err
	}
	box, err := outbox.NewStore(ctx, client.DB)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("outbox store: %w", err)
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("rentacar"))
	if err != nil {
		s.close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	s.closer = append(s.closer, func() {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	})

	s.deps = bootstrap.Deps{
		UoWFactory:  mongostore.NewFactory(client.DB),
		Outbox:      box,
		Idempotency: idem,
	}
	s.relay = &outbox.Worker{
		Queue:       box,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger.With("component", "outbox"),
	}
	s.ready = client.Ping
	return s, nil
}
