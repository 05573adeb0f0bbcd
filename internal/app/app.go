// Package app wires the configured stores, publisher and narrative service
// into an engine. It is shared by the binaries under cmd/.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-analytics/internal/amqp"
	"github.com/dvloznov/finance-analytics/internal/config"
	"github.com/dvloznov/finance-analytics/internal/engine"
	"github.com/dvloznov/finance-analytics/internal/gcsdocs"
	infraBQ "github.com/dvloznov/finance-analytics/internal/infra/bigquery"
	"github.com/dvloznov/finance-analytics/internal/infra/sqlite"
	"github.com/dvloznov/finance-analytics/internal/narrative"
	"github.com/rs/zerolog"
)

// App holds the wired components. Close releases them.
type App struct {
	Engine   *engine.Service
	Repo     *infraBQ.Repository
	Docs     *gcsdocs.Store
	Alerts   engine.RiskAlertStore
	Insights engine.InsightStore

	// Events is nil when AMQP is not configured.
	Events *amqp.Client

	closers []func() error
}

// Options selects optional components.
type Options struct {
	// Offline skips the AMQP publisher and the narrative service.
	Offline bool
}

// New builds an App from cfg. On failure every component opened so far is
// closed.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.Repo, err = infraBQ.NewRepository(ctx, cfg.GCPProjectID, cfg.BQDataset)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	a.closers = append(a.closers, a.Repo.Close)

	a.Docs, err = gcsdocs.NewStore(ctx, cfg.TaxDocsBucket)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	a.closers = append(a.closers, a.Docs.Close)

	switch cfg.AlertBackend {
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLiteDBPath, log)
		if err != nil {
			return nil, fmt.Errorf("app.New: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.Alerts, a.Insights = store, store
	default:
		a.Alerts, a.Insights = a.Repo, a.Repo
	}

	deps := engine.Deps{
		Transactions: a.Repo,
		Accounts:     a.Repo,
		Budgets:      a.Repo,
		Goals:        a.Repo,
		TaxDocuments: a.Docs,
		Alerts:       a.Alerts,
		Insights:     a.Insights,
	}

	if !opts.Offline && cfg.AMQPEnabled() {
		events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, log)
		if err != nil {
			return nil, fmt.Errorf("app.New: %w", err)
		}
		a.Events = events
		a.closers = append(a.closers, events.Close)
		deps.Publisher = events
	}

	if !opts.Offline {
		client, err := narrative.NewGeminiClient(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Narrative service unavailable, using fallbacks")
		} else {
			deps.Narrative = narrative.NewGeminiService(client, cfg.GeminiModel)
		}
	}

	a.Engine, err = engine.New(deps, engine.Options{
		NarrativeTimeout:     cfg.NarrativeTimeout,
		DuplicateScanTimeout: cfg.DuplicateScanTimeout,
		Logger:               &log,
	})
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}

	log.Info().
		Str("project_id", cfg.GCPProjectID).
		Str("dataset", cfg.BQDataset).
		Str("alert_backend", cfg.AlertBackend).
		Bool("events", a.Events != nil).
		Bool("narrative", deps.Narrative != nil).
		Msg("Engine initialized")
	return a, nil
}

// Close releases every component in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
