package analytics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

func purchase(id, merchant string, amount float64, at time.Time) domain.Transaction {
	t := tx(id, domain.TransactionExpense, amount, "Food", at)
	t.MerchantName = merchant
	return t
}

func TestDetectDuplicates(t *testing.T) {
	morning := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		txs  []domain.Transaction
		want int
	}{
		{
			name: "same amount same day",
			txs:  []domain.Transaction{purchase("a", "Cafe", 4.50, morning), purchase("b", "Cafe", 4.50, evening)},
			want: 1,
		},
		{
			name: "two cents apart",
			txs:  []domain.Transaction{purchase("a", "Cafe", 4.50, morning), purchase("b", "Cafe", 4.52, evening)},
			want: 0,
		},
		{
			name: "adjacent cent buckets",
			txs:  []domain.Transaction{purchase("a", "Cafe", 4.499, morning), purchase("b", "Cafe", 4.505, evening)},
			want: 1,
		},
		{
			name: "different merchants",
			txs:  []domain.Transaction{purchase("a", "Cafe", 4.50, morning), purchase("b", "Bakery", 4.50, evening)},
			want: 0,
		},
		{
			name: "more than a day apart",
			txs:  []domain.Transaction{purchase("a", "Cafe", 4.50, morning), purchase("b", "Cafe", 4.50, morning.Add(25*time.Hour))},
			want: 0,
		},
		{
			name: "three of a kind",
			txs: []domain.Transaction{
				purchase("a", "Cafe", 4.50, morning),
				purchase("b", "Cafe", 4.50, evening),
				purchase("c", "Cafe", 4.50, morning.Add(time.Hour)),
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectDuplicates(context.Background(), tt.txs)
			if err != nil {
				t.Fatalf("DetectDuplicates() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Expected %d pairs, got %d", tt.want, len(got))
			}
		})
	}
}

func TestDetectDuplicates_MatchesPairwiseScan(t *testing.T) {
	var txs []domain.Transaction
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		merchant := fmt.Sprintf("m%d", i%7)
		amount := float64(i%2) + float64(i%3)*0.006
		txs = append(txs, purchase(fmt.Sprintf("t%d", i), merchant, amount, base.Add(time.Duration(i*20)*time.Minute)))
	}

	want := 0
	for i := 0; i < len(txs); i++ {
		for j := i + 1; j < len(txs); j++ {
			if IsDuplicatePair(txs[i], txs[j]) {
				want++
			}
		}
	}

	if want == 0 {
		t.Fatal("Expected the fixture to contain duplicate pairs")
	}

	got, err := DetectDuplicates(context.Background(), txs)
	if err != nil {
		t.Fatalf("DetectDuplicates() error = %v", err)
	}
	if len(got) != want {
		t.Errorf("bucketed scan found %d pairs, pairwise scan found %d", len(got), want)
	}
}

func TestDetectDuplicates_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DetectDuplicates(ctx, []domain.Transaction{purchase("a", "Cafe", 1, day0)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestAnomalyHooksReturnNothing(t *testing.T) {
	txs := []domain.Transaction{purchase("a", "Cafe", 1, day0)}
	if got := DetectSpendingAnomalies(txs); got == nil || len(got) != 0 {
		t.Errorf("DetectSpendingAnomalies() = %v, want empty", got)
	}
	if got := DetectPatternAnomalies(txs); got == nil || len(got) != 0 {
		t.Errorf("DetectPatternAnomalies() = %v, want empty", got)
	}
	if got := DetectTimingAnomalies(txs); got == nil || len(got) != 0 {
		t.Errorf("DetectTimingAnomalies() = %v, want empty", got)
	}
}
