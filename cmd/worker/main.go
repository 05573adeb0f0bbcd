package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-analytics/internal/amqp"
	"github.com/dvloznov/finance-analytics/internal/config"
	"github.com/dvloznov/finance-analytics/internal/logger"
	"github.com/dvloznov/finance-analytics/internal/notionsync"
)

// The worker consumes alert.raised events and mirrors each alert as a page
// in the Notion alerts database.
func main() {
	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if !cfg.AMQPEnabled() {
		log.Fatal().Msg("AMQP_URL is required for the worker")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to AMQP")
	}
	defer client.Close()

	var notion notionsync.NotionService
	if cfg.NotionToken != "" && cfg.NotionAlertsDBID != "" {
		notion = notionsync.NewNotionClient(cfg.NotionToken)
	} else {
		log.Warn().Msg("Notion alerts database not configured - alerts will only be logged")
	}

	handler := func(ctx context.Context, msg *amqp.AlertRaisedMessage) error {
		msgLog := log.With().
			Str("alert_id", msg.AlertID).
			Str("user_id", msg.UserID).
			Str("severity", msg.Severity).
			Logger()

		if notion == nil {
			msgLog.Info().Str("title", msg.Title).Msg("Alert raised")
			return nil
		}

		pushCtx, cancel := context.WithTimeout(logger.WithContext(ctx, msgLog), 30*time.Second)
		defer cancel()

		created, err := notionsync.PushAlert(pushCtx, notion, cfg.NotionAlertsDBID, msg.Alert())
		if err != nil {
			msgLog.Error().Err(err).Msg("Failed to push alert to Notion")
			return err
		}
		if created {
			msgLog.Info().Msg("Alert pushed to Notion")
		} else {
			msgLog.Debug().Msg("Alert already in Notion")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- client.ConsumeWithReconnect(ctx, handler)
	}()

	log.Info().Str("queue", cfg.AMQPQueue).Msg("Worker started, waiting for alerts...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutting down worker...")
		cancel()
		select {
		case <-done:
		case <-time.After(30 * time.Second):
			log.Warn().Msg("Consumer did not stop in time")
		}
	case err := <-done:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Consumer stopped")
		}
	}

	log.Info().Msg("Worker exited")
}
