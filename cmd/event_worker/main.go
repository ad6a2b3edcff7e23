package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/scent-recommender/config"
	"github.com/oksasatya/scent-recommender/internal/application"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/archive"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/search"
	"github.com/oksasatya/scent-recommender/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-events", cfg.Env, cfg.LogLevel)

	if !cfg.EventsEnabled {
		logger.Info("EVENTS_ENABLED=false; event worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEventsQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.Fatalf("elasticsearch client: %v", err)
	}
	index := search.NewPreferenceIndex(es, cfg.ESPreferencesIndex, logger)
	if err := index.Ensure(ctx); err != nil {
		logger.Fatalf("ensure index %s: %v", cfg.ESPreferencesIndex, err)
	}

	var archiver application.SnapshotArchiver
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		archiver = archive.NewSnapshotArchive(gcsClient, cfg.GCSBucket)
	} else {
		logger.Info("GCS_BUCKET not set; snapshots are indexed but not archived")
	}

	projector := application.NewEventProjector(index, archiver, logger)

	conn, ch, err := helpers.DialQueue(cfg.RabbitMQURL, cfg.RabbitMQEventsQueue)
	if err != nil {
		logger.Fatalf("amqp: %v", err)
	}
	defer func() { _ = conn.Close() }()
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			c, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := projector.Handle(c, msg.Body)
			cancel()
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, application.ErrBadEvent):
				logger.WithError(err).Warn("dropping malformed event")
				_ = msg.Nack(false, false)
			default:
				logger.WithError(err).Warn("projection failed; requeueing")
				_ = msg.Nack(false, true)
			}
		}
	}()

	logger.Infof("event worker listening on queue=%s", cfg.RabbitMQEventsQueue)
	<-ctx.Done()
	logger.Info("shutting down...")
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
