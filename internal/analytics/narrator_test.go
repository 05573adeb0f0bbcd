package analytics

import (
	"testing"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

func TestHealthTier(t *testing.T) {
	tests := []struct {
		overall int
		want    string
	}{
		{100, "excellent"},
		{80, "excellent"},
		{79, "good"},
		{60, "good"},
		{59, "needs attention"},
		{0, "needs attention"},
	}
	for _, tt := range tests {
		if got := HealthTier(tt.overall); got != tt.want {
			t.Errorf("HealthTier(%d) = %q, want %q", tt.overall, got, tt.want)
		}
	}
}

func TestHealthNarrative_Callouts(t *testing.T) {
	tests := []struct {
		name     string
		cats     domain.HealthCategories
		wantRecs int
	}{
		{"all healthy", domain.HealthCategories{Savings: 100, Budget: 100, Emergency: 100}, 0},
		{"low emergency", domain.HealthCategories{Savings: 100, Budget: 100, Emergency: 59}, 1},
		{"everything low", domain.HealthCategories{Savings: 49, Budget: 59, Emergency: 0}, 3},
		{"exactly on thresholds", domain.HealthCategories{Savings: 50, Budget: 60, Emergency: 60}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insights, recs := HealthNarrative(70, tt.cats)
			if len(recs) != tt.wantRecs {
				t.Errorf("Expected %d recommendations, got %d: %v", tt.wantRecs, len(recs), recs)
			}
			if len(insights) != tt.wantRecs+1 {
				t.Errorf("Expected %d insights, got %d: %v", tt.wantRecs+1, len(insights), insights)
			}
		})
	}
}

func TestBuildInsights(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	facts := InsightFacts{
		UserID: "user-1",
		Health: domain.HealthScore{
			Overall:    85,
			Categories: domain.HealthCategories{Savings: 100, Budget: 100, Debt: 100, Spending: 100, Emergency: 100},
		},
		Summary: domain.SpendingSummary{ByCategory: []domain.CategoryTotal{
			{Category: "Rent", Total: 600},
			{Category: "Food", Total: 400},
		}},
		Goals: []domain.FinancialGoal{
			{
				ID: "behind", Name: "Car", TargetAmount: 1000, CurrentAmount: 100,
				CreatedAt: now.AddDate(0, -6, 0), TargetDate: now.AddDate(0, 6, 0),
			},
			{
				ID: "on-track", Name: "Trip", TargetAmount: 1000, CurrentAmount: 500,
				CreatedAt: now.AddDate(0, -6, 0), TargetDate: now.AddDate(0, 6, 0),
			},
			{
				ID: "overdue", Name: "Laptop", TargetAmount: 1000, CurrentAmount: 10,
				CreatedAt: now.AddDate(-1, 0, 0), TargetDate: now.AddDate(0, -1, 0),
			},
		},
		TaxRisk: &domain.TaxRiskAssessment{
			RiskScore: 75,
			Factors: []domain.RiskFactor{
				{Type: domain.RiskDuplicateExpense, Severity: domain.SeverityHigh, Description: "Found 1 pair"},
				{Type: domain.RiskIncomeDiscrepancy, Severity: domain.SeverityMedium, Description: "income"},
			},
		},
		Now: now,
	}

	got := BuildInsights(facts)

	counts := map[domain.InsightType]int{}
	ids := map[string]bool{}
	for _, in := range got {
		counts[in.Type]++
		if in.ID == "" || ids[in.ID] {
			t.Errorf("Expected unique non-empty id, got %q", in.ID)
		}
		ids[in.ID] = true
		if in.UserID != "user-1" || !in.CreatedAt.Equal(now) {
			t.Errorf("Unexpected insight metadata %+v", in)
		}
	}
	want := map[domain.InsightType]int{
		domain.InsightHealthScore:     1,
		domain.InsightSpendingPattern: 1,
		domain.InsightGoalProgress:    2,
		domain.InsightTaxRisk:         1,
	}
	for typ, n := range want {
		if counts[typ] != n {
			t.Errorf("Expected %d %s insights, got %d", n, typ, counts[typ])
		}
	}

	for i := 1; i < len(got); i++ {
		if priorityRank(got[i-1].Priority) < priorityRank(got[i].Priority) {
			t.Errorf("Insights not sorted by priority at %d: %s before %s", i, got[i-1].Priority, got[i].Priority)
		}
	}
	if got[len(got)-1].Type != domain.InsightHealthScore || got[len(got)-1].Priority != domain.PriorityLow {
		t.Errorf("Expected the excellent health insight last, got %+v", got[len(got)-1])
	}
}

func TestBuildInsights_NoTaxRiskOrSpending(t *testing.T) {
	got := BuildInsights(InsightFacts{
		UserID: "user-1",
		Health: domain.HealthScore{Overall: 40, Categories: domain.HealthCategories{Savings: 10, Budget: 50, Emergency: 20}},
		Now:    time.Now(),
	})

	if len(got) != 4 {
		t.Fatalf("Expected tier plus three callouts, got %d: %+v", len(got), got)
	}
	if got[0].Priority != domain.PriorityHigh {
		t.Errorf("Expected high priority first, got %s", got[0].Priority)
	}
}
