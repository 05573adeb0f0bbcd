package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "analytics.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.db")
	for i := 0; i < 2; i++ {
		store, err := Open(path, zerolog.Nop())
		if err != nil {
			t.Fatalf("Open() #%d error = %v", i+1, err)
		}
		store.Close()
	}
}

func TestAlertsAppendAndListUnresolved(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	created := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	deadline := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	receipt := domain.RiskAlert{
		ID:                    "ignored",
		UserID:                "user-1",
		Type:                  domain.AlertMissingReceipt,
		Severity:              domain.SeverityMedium,
		Title:                 "Missing receipt for Office Depot",
		RelatedTransactionIDs: []string{"tx-1"},
		CreatedAt:             created,
	}
	filing := domain.RiskAlert{
		UserID:    "user-1",
		Type:      domain.AlertUpcomingDeadline,
		Severity:  domain.SeverityHigh,
		Title:     "Annual tax filing deadline",
		Deadline:  &deadline,
		CreatedAt: created.Add(time.Minute),
	}
	resolved := domain.RiskAlert{
		UserID:    "user-1",
		Type:      domain.AlertMissingReceipt,
		Severity:  domain.SeverityMedium,
		Title:     "Old alert",
		Resolved:  true,
		CreatedAt: created,
	}
	otherUser := domain.RiskAlert{
		UserID:    "user-2",
		Type:      domain.AlertMissingReceipt,
		Severity:  domain.SeverityLow,
		Title:     "Someone else",
		CreatedAt: created,
	}

	ids := map[string]bool{}
	for _, a := range []domain.RiskAlert{receipt, filing, resolved, otherUser} {
		id, err := store.AppendAlert(ctx, a)
		if err != nil {
			t.Fatalf("AppendAlert() error = %v", err)
		}
		if id == "" || id == "ignored" || ids[id] {
			t.Fatalf("AppendAlert() id = %q, want a fresh id", id)
		}
		ids[id] = true
	}

	got, err := store.ListUnresolvedAlerts(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListUnresolvedAlerts() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListUnresolvedAlerts() returned %d alerts, want 2", len(got))
	}

	if got[0].Title != receipt.Title || got[1].Title != filing.Title {
		t.Errorf("order = [%s, %s], want oldest first", got[0].Title, got[1].Title)
	}
	if len(got[0].RelatedTransactionIDs) != 1 || got[0].RelatedTransactionIDs[0] != "tx-1" {
		t.Errorf("RelatedTransactionIDs = %v", got[0].RelatedTransactionIDs)
	}
	if got[0].Deadline != nil {
		t.Errorf("receipt alert Deadline = %v, want nil", got[0].Deadline)
	}
	if got[1].Deadline == nil || !got[1].Deadline.Equal(deadline) {
		t.Errorf("filing alert Deadline = %v, want %v", got[1].Deadline, deadline)
	}
	if !got[0].CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, created)
	}
	if got[1].Severity != domain.SeverityHigh || got[1].Type != domain.AlertUpcomingDeadline {
		t.Errorf("filing alert = %+v", got[1])
	}
}

func TestInsightsAppendAndList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	insights := []domain.Insight{
		{ID: "ins-1", UserID: "user-1", Type: domain.InsightHealthScore, Title: "Health is good", Priority: domain.PriorityMedium, CreatedAt: base},
		{UserID: "user-1", Type: domain.InsightSpendingPattern, Title: "Groceries dominate", Priority: domain.PriorityMedium,
			Data: map[string]any{"category": "Groceries"}, Actionable: true, CreatedAt: base.Add(time.Second)},
		{ID: "ins-3", UserID: "user-1", Type: domain.InsightGoalProgress, Title: "Read already", Priority: domain.PriorityLow, IsRead: true, CreatedAt: base.Add(2 * time.Second)},
	}

	for i, in := range insights {
		id, err := store.AppendInsight(ctx, in)
		if err != nil {
			t.Fatalf("AppendInsight() error = %v", err)
		}
		if in.ID != "" && id != in.ID {
			t.Errorf("AppendInsight(%d) id = %q, want caller id %q", i, id, in.ID)
		}
		if id == "" {
			t.Errorf("AppendInsight(%d) returned empty id", i)
		}
	}

	tests := []struct {
		name       string
		unreadOnly bool
		wantTitles []string
	}{
		{"all newest first", false, []string{"Read already", "Groceries dominate", "Health is good"}},
		{"unread only", true, []string{"Groceries dominate", "Health is good"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListInsights(ctx, "user-1", tt.unreadOnly)
			if err != nil {
				t.Fatalf("ListInsights() error = %v", err)
			}
			if len(got) != len(tt.wantTitles) {
				t.Fatalf("ListInsights() returned %d insights, want %d", len(got), len(tt.wantTitles))
			}
			for i, want := range tt.wantTitles {
				if got[i].Title != want {
					t.Errorf("insight[%d].Title = %q, want %q", i, got[i].Title, want)
				}
			}
		})
	}

	got, err := store.ListInsights(ctx, "user-1", true)
	if err != nil {
		t.Fatalf("ListInsights() error = %v", err)
	}
	if got[0].Data["category"] != "Groceries" || !got[0].Actionable {
		t.Errorf("spending insight = %+v", got[0])
	}

	none, err := store.ListInsights(ctx, "user-2", false)
	if err != nil {
		t.Fatalf("ListInsights() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListInsights(user-2) = %v, want none", none)
	}
}
