package engine

import (
	"context"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// TransactionStore returns a user's transactions dated in [start, end),
// newest first.
type TransactionStore interface {
	QueryTransactions(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error)
}

// AccountStore returns a user's accounts.
type AccountStore interface {
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
}

// BudgetStore returns a user's active budgets.
type BudgetStore interface {
	ListActiveBudgets(ctx context.Context, userID string) ([]domain.Budget, error)
}

// GoalStore returns a user's active financial goals.
type GoalStore interface {
	ListActiveGoals(ctx context.Context, userID string) ([]domain.FinancialGoal, error)
}

// TaxDocumentStore returns the documents filed for a tax year.
type TaxDocumentStore interface {
	ListTaxDocuments(ctx context.Context, userID string, year int) ([]domain.TaxDocument, error)
}

// RiskAlertStore persists compliance alerts. Alerts are only ever appended.
type RiskAlertStore interface {
	AppendAlert(ctx context.Context, alert domain.RiskAlert) (string, error)
	ListUnresolvedAlerts(ctx context.Context, userID string) ([]domain.RiskAlert, error)
}

// InsightStore persists insights. Insights are only ever appended.
type InsightStore interface {
	AppendInsight(ctx context.Context, insight domain.Insight) (string, error)
	ListInsights(ctx context.Context, userID string, unreadOnly bool) ([]domain.Insight, error)
}

// AlertPublisher announces newly raised alerts.
type AlertPublisher interface {
	PublishAlertRaised(ctx context.Context, alert domain.RiskAlert) error
}
