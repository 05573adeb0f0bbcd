package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

type mockTransactionStore struct {
	QueryTransactionsFunc func(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error)
}

func (m *mockTransactionStore) QueryTransactions(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error) {
	if m.QueryTransactionsFunc != nil {
		return m.QueryTransactionsFunc(ctx, userID, start, end)
	}
	return nil, nil
}

type mockAccountStore struct {
	ListAccountsFunc func(ctx context.Context, userID string) ([]domain.Account, error)
}

func (m *mockAccountStore) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, userID)
	}
	return nil, nil
}

type mockBudgetStore struct {
	ListActiveBudgetsFunc func(ctx context.Context, userID string) ([]domain.Budget, error)
}

func (m *mockBudgetStore) ListActiveBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	if m.ListActiveBudgetsFunc != nil {
		return m.ListActiveBudgetsFunc(ctx, userID)
	}
	return nil, nil
}

type mockGoalStore struct {
	ListActiveGoalsFunc func(ctx context.Context, userID string) ([]domain.FinancialGoal, error)
}

func (m *mockGoalStore) ListActiveGoals(ctx context.Context, userID string) ([]domain.FinancialGoal, error) {
	if m.ListActiveGoalsFunc != nil {
		return m.ListActiveGoalsFunc(ctx, userID)
	}
	return nil, nil
}

type mockTaxDocumentStore struct {
	ListTaxDocumentsFunc func(ctx context.Context, userID string, year int) ([]domain.TaxDocument, error)
}

func (m *mockTaxDocumentStore) ListTaxDocuments(ctx context.Context, userID string, year int) ([]domain.TaxDocument, error) {
	if m.ListTaxDocumentsFunc != nil {
		return m.ListTaxDocumentsFunc(ctx, userID, year)
	}
	return nil, nil
}

// memoryAlertStore is an append-only alert store that records every call.
type memoryAlertStore struct {
	mu         sync.Mutex
	alerts     []domain.RiskAlert
	AppendErr  error
	ListErr    error
	appendCall int
}

func (m *memoryAlertStore) AppendAlert(_ context.Context, alert domain.RiskAlert) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendCall++
	if m.AppendErr != nil {
		return "", m.AppendErr
	}
	alert.ID = fmt.Sprintf("alert-%d", len(m.alerts)+1)
	m.alerts = append(m.alerts, alert)
	return alert.ID, nil
}

func (m *memoryAlertStore) ListUnresolvedAlerts(_ context.Context, userID string) ([]domain.RiskAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []domain.RiskAlert
	for _, a := range m.alerts {
		if a.UserID == userID && !a.Resolved {
			out = append(out, a)
		}
	}
	return out, nil
}

type memoryInsightStore struct {
	mu        sync.Mutex
	insights  []domain.Insight
	AppendErr error
}

func (m *memoryInsightStore) AppendInsight(_ context.Context, insight domain.Insight) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return "", m.AppendErr
	}
	if insight.ID == "" {
		insight.ID = fmt.Sprintf("insight-%d", len(m.insights)+1)
	}
	m.insights = append(m.insights, insight)
	return insight.ID, nil
}

func (m *memoryInsightStore) ListInsights(_ context.Context, userID string, unreadOnly bool) ([]domain.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Insight
	for _, in := range m.insights {
		if in.UserID == userID && (!unreadOnly || !in.IsRead) {
			out = append(out, in)
		}
	}
	return out, nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []domain.RiskAlert
	Err       error
}

func (m *mockPublisher) PublishAlertRaised(_ context.Context, alert domain.RiskAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.published = append(m.published, alert)
	return nil
}

type mockNarrative struct {
	GenerateFunc func(ctx context.Context, facts []byte) ([]byte, error)
}

func (m *mockNarrative) Generate(ctx context.Context, facts []byte) ([]byte, error) {
	return m.GenerateFunc(ctx, facts)
}
