package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

func TestProjectCashFlow(t *testing.T) {
	got := ProjectCashFlow(1000, 50, day0, ProjectionOptions{DaysAhead: 3})

	want := []float64{950, 900, 850}
	if len(got) != len(want) {
		t.Fatalf("Expected %d predictions, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].PredictedBalance != w {
			t.Errorf("day %d: balance %v, want %v", i+1, got[i].PredictedBalance, w)
		}
		if got[i].Confidence != DefaultConfidence {
			t.Errorf("day %d: confidence %v, want %v", i+1, got[i].Confidence, DefaultConfidence)
		}
		if len(got[i].Recommendations) != 0 {
			t.Errorf("day %d: unexpected recommendations %v", i+1, got[i].Recommendations)
		}
	}
}

func TestProjectCashFlow_DatesAreConsecutive(t *testing.T) {
	got := ProjectCashFlow(100, 1, day0, ProjectionOptions{})

	if len(got) != DefaultDaysAhead {
		t.Fatalf("Expected default horizon %d, got %d", DefaultDaysAhead, len(got))
	}
	first := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	for i, p := range got {
		if want := first.AddDate(0, 0, i); !p.Date.Equal(want) {
			t.Errorf("prediction %d dated %v, want %v", i, p.Date, want)
		}
	}
}

func TestProjectCashFlow_NegativeBalanceCaution(t *testing.T) {
	got := ProjectCashFlow(100, 60, day0, ProjectionOptions{DaysAhead: 2})

	if len(got[0].Recommendations) != 0 {
		t.Errorf("Expected no caution at balance 40, got %v", got[0].Recommendations)
	}
	if len(got[1].Recommendations) != 1 || !strings.HasPrefix(got[1].Recommendations[0], "Caution") {
		t.Errorf("Expected caution at balance -20, got %v", got[1].Recommendations)
	}
}

func TestProjectionOptions_Defaults(t *testing.T) {
	tests := []struct {
		in   ProjectionOptions
		want ProjectionOptions
	}{
		{ProjectionOptions{}, ProjectionOptions{DaysAhead: 30, Confidence: 0.75}},
		{ProjectionOptions{DaysAhead: 1000}, ProjectionOptions{DaysAhead: 365, Confidence: 0.75}},
		{ProjectionOptions{DaysAhead: 7, Confidence: 1.5}, ProjectionOptions{DaysAhead: 7, Confidence: 1}},
		{ProjectionOptions{DaysAhead: -3, Confidence: -1}, ProjectionOptions{DaysAhead: 30, Confidence: 0}},
	}
	for _, tt := range tests {
		if got := tt.in.withDefaults(); got != tt.want {
			t.Errorf("withDefaults(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestAverageDailySpending(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", domain.TransactionExpense, -450, "Rent", day0.AddDate(0, 0, -10)),
		tx("2", domain.TransactionExpense, -450, "Rent", day0.AddDate(0, 0, -80)),
		tx("3", domain.TransactionExpense, -9000, "Rent", day0.AddDate(0, 0, -120)),
		tx("4", domain.TransactionIncome, 5000, "Salary", day0.AddDate(0, 0, -5)),
	}

	if got := AverageDailySpending(txs, day0); got != 10 {
		t.Errorf("AverageDailySpending() = %v, want 10", got)
	}
	if got := AverageDailySpending(nil, day0); got != 0 {
		t.Errorf("AverageDailySpending(nil) = %v, want 0", got)
	}
}
