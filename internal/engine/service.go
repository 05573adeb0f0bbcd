// Package engine runs the analysis operations for a single user: it fetches
// the required data slices concurrently, hands them to the pure computations
// in package analytics, and appends the resulting insights and alerts.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/narrative"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultNarrativeTimeout bounds a call to the narrative service.
	DefaultNarrativeTimeout = 15 * time.Second

	healthWindowDays   = 90
	cashFlowWindowDays = 180
)

// Deps are the collaborators of the engine. Publisher and Narrative are
// optional.
type Deps struct {
	Transactions TransactionStore
	Accounts     AccountStore
	Budgets      BudgetStore
	Goals        GoalStore
	TaxDocuments TaxDocumentStore
	Alerts       RiskAlertStore
	Insights     InsightStore
	Publisher    AlertPublisher
	Narrative    narrative.Service
}

// Options tunes the engine. Zero values select the defaults.
type Options struct {
	NarrativeTimeout     time.Duration
	DuplicateScanTimeout time.Duration
	Logger               *zerolog.Logger
	Now                  func() time.Time
}

// Service is the analytics engine. It holds no per-user state and is safe
// for concurrent use.
type Service struct {
	deps             Deps
	narrativeTimeout time.Duration
	assessor         *analytics.Assessor
	log              zerolog.Logger
	now              func() time.Time
}

// New creates a Service. Every store except the optional publisher and
// narrative service is required.
func New(deps Deps, opts Options) (*Service, error) {
	var missing []string
	if deps.Transactions == nil {
		missing = append(missing, "transactions")
	}
	if deps.Accounts == nil {
		missing = append(missing, "accounts")
	}
	if deps.Budgets == nil {
		missing = append(missing, "budgets")
	}
	if deps.Goals == nil {
		missing = append(missing, "goals")
	}
	if deps.TaxDocuments == nil {
		missing = append(missing, "tax documents")
	}
	if deps.Alerts == nil {
		missing = append(missing, "alerts")
	}
	if deps.Insights == nil {
		missing = append(missing, "insights")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("engine.New: missing stores: %v", missing)
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if opts.NarrativeTimeout <= 0 {
		opts.NarrativeTimeout = DefaultNarrativeTimeout
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		deps:             deps,
		narrativeTimeout: opts.NarrativeTimeout,
		assessor:         analytics.NewAssessor(opts.DuplicateScanTimeout, log),
		log:              log,
		now:              opts.Now,
	}, nil
}

// fail logs the root cause and wraps it as the operation's error.
func (s *Service) fail(op Operation, userID string, err error) error {
	s.log.Error().
		Err(err).
		Str("operation", string(op)).
		Str("user_id", userID).
		Msg("Operation failed")
	return &OperationError{Op: op, UserID: userID, Err: err}
}

func validateUser(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	return nil
}

// snapshot is the data an operation reads. Only the requested parts are set.
type snapshot struct {
	transactions []domain.Transaction
	accounts     []domain.Account
	budgets      []domain.Budget
	goals        []domain.FinancialGoal
	documents    []domain.TaxDocument
	unresolved   []domain.RiskAlert
}

// fetchSpec selects which parts of the snapshot to load.
type fetchSpec struct {
	start, end   time.Time
	transactions bool
	accounts     bool
	budgets      bool
	goals        bool
	documents    bool
	unresolved   bool
	year         int
}

// fetch loads the requested slices concurrently and returns once all of them
// are in. The first failure cancels the remaining fetches.
func (s *Service) fetch(ctx context.Context, userID string, spec fetchSpec) (*snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	if spec.transactions {
		g.Go(func() error {
			txs, err := s.deps.Transactions.QueryTransactions(gctx, userID, spec.start, spec.end)
			if err != nil {
				return fmt.Errorf("fetch transactions: %w", err)
			}
			snap.transactions = txs
			return nil
		})
	}
	if spec.accounts {
		g.Go(func() error {
			accounts, err := s.deps.Accounts.ListAccounts(gctx, userID)
			if err != nil {
				return fmt.Errorf("fetch accounts: %w", err)
			}
			snap.accounts = accounts
			return nil
		})
	}
	if spec.budgets {
		g.Go(func() error {
			budgets, err := s.deps.Budgets.ListActiveBudgets(gctx, userID)
			if err != nil {
				return fmt.Errorf("fetch budgets: %w", err)
			}
			snap.budgets = budgets
			return nil
		})
	}
	if spec.goals {
		g.Go(func() error {
			goals, err := s.deps.Goals.ListActiveGoals(gctx, userID)
			if err != nil {
				return fmt.Errorf("fetch goals: %w", err)
			}
			snap.goals = goals
			return nil
		})
	}
	if spec.documents {
		g.Go(func() error {
			docs, err := s.deps.TaxDocuments.ListTaxDocuments(gctx, userID, spec.year)
			if err != nil {
				return fmt.Errorf("fetch tax documents: %w", err)
			}
			snap.documents = docs
			return nil
		})
	}
	if spec.unresolved {
		g.Go(func() error {
			alerts, err := s.deps.Alerts.ListUnresolvedAlerts(gctx, userID)
			if err != nil {
				return fmt.Errorf("fetch unresolved alerts: %w", err)
			}
			snap.unresolved = alerts
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// callNarrative sends facts to the narrative service under the configured
// timeout. The call is abandoned when the timeout fires even if the service
// ignores its context.
func (s *Service) callNarrative(ctx context.Context, facts any) ([]byte, error) {
	if s.deps.Narrative == nil {
		return nil, errors.New("no narrative service configured")
	}
	payload, err := narrative.Encode(facts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.narrativeTimeout)
	defer cancel()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := s.deps.Narrative.Generate(ctx, payload)
		done <- result{out: out, err: err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("narrative service: %w", ctx.Err())
	}
}

func yearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}
