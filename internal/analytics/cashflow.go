package analytics

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

const (
	// DefaultDaysAhead is the projection horizon when none is requested.
	DefaultDaysAhead = 30
	// MaxDaysAhead caps the projection horizon.
	MaxDaysAhead = 365
	// SpendingLookbackDays is the fixed window used for the spending velocity,
	// independent of the projection horizon.
	SpendingLookbackDays = 90
	// DefaultConfidence is the constant confidence attached to projections.
	DefaultConfidence = 0.75
)

// ProjectionOptions tunes a cash-flow projection. Zero values select the
// defaults.
type ProjectionOptions struct {
	DaysAhead  int
	Confidence float64
}

func (o ProjectionOptions) withDefaults() ProjectionOptions {
	if o.DaysAhead <= 0 {
		o.DaysAhead = DefaultDaysAhead
	}
	if o.DaysAhead > MaxDaysAhead {
		o.DaysAhead = MaxDaysAhead
	}
	if o.Confidence == 0 {
		o.Confidence = DefaultConfidence
	}
	o.Confidence = clampUnit(o.Confidence)
	return o
}

// AverageDailySpending divides the expense total of the 90 days before now
// by 90.
func AverageDailySpending(txs []domain.Transaction, now time.Time) float64 {
	since := now.AddDate(0, 0, -SpendingLookbackDays)
	var total float64
	for _, t := range txs {
		if !t.IsExpense() || t.Date.Before(since) || t.Date.After(now) {
			continue
		}
		total += t.Magnitude()
	}
	return total / SpendingLookbackDays
}

// ProjectCashFlow forecasts the balance day by day starting the day after
// start. Each day depends on the previous day's output, so the loop is
// strictly sequential.
func ProjectCashFlow(currentBalance, avgDailySpending float64, start time.Time, opts ProjectionOptions) []domain.CashFlowPrediction {
	opts = opts.withDefaults()
	day0 := startOfDay(start)

	factors := []string{
		fmt.Sprintf("Average daily spending: $%.2f", avgDailySpending),
		fmt.Sprintf("Based on %d days of transaction history", SpendingLookbackDays),
		fmt.Sprintf("Starting balance: $%.2f", currentBalance),
	}

	predictions := make([]domain.CashFlowPrediction, 0, opts.DaysAhead)
	balance := currentBalance
	for i := 1; i <= opts.DaysAhead; i++ {
		balance -= avgDailySpending
		date := day0.AddDate(0, 0, i)

		recs := []string{}
		if balance < 0 {
			recs = append(recs, fmt.Sprintf(
				"Caution: balance is projected to be negative ($%.2f) on %s. Reduce discretionary spending or move funds before then.",
				balance, date.Format(DayLayout)))
		}

		predictions = append(predictions, domain.CashFlowPrediction{
			Date:             date,
			PredictedBalance: balance,
			Confidence:       opts.Confidence,
			Factors:          factors,
			Recommendations:  recs,
		})
	}
	return predictions
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
