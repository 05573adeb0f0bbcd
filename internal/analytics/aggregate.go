// Package analytics holds the pure computations behind the analysis
// operations: aggregation, health scoring, cash-flow projection, tax-risk
// assessment, duplicate detection, compliance monitoring and the rule-based
// insight narrator. Nothing in this package performs I/O.
package analytics

import (
	"sort"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/shopspring/decimal"
)

// DayLayout is the key format used for per-day totals.
const DayLayout = "2006-01-02"

// monthlyScale converts a 90-day sample total into the monthly approximation
// used by the health scorer.
var monthlyScale = decimal.NewFromInt(4).Div(decimal.NewFromInt(3))

// SumExpensesByCategory sums expense magnitudes per category name.
func SumExpensesByCategory(txs []domain.Transaction) map[string]float64 {
	acc := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if !t.IsExpense() {
			continue
		}
		acc[t.Category] = acc[t.Category].Add(decimal.NewFromFloat(t.Magnitude()))
	}
	return toFloats(acc)
}

// SumExpensesByDay sums expense magnitudes per UTC calendar day.
func SumExpensesByDay(txs []domain.Transaction) map[string]float64 {
	acc := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if !t.IsExpense() {
			continue
		}
		day := t.Date.UTC().Format(DayLayout)
		acc[day] = acc[day].Add(decimal.NewFromFloat(t.Magnitude()))
	}
	return toFloats(acc)
}

// TotalByType sums magnitudes of all transactions of the given type.
func TotalByType(txs []domain.Transaction, typ domain.TransactionType) float64 {
	return totalByType(txs, typ).InexactFloat64()
}

// MonthlyIncome approximates monthly income from a 90-day sample.
func MonthlyIncome(txs []domain.Transaction) float64 {
	return totalByType(txs, domain.TransactionIncome).Mul(monthlyScale).InexactFloat64()
}

// MonthlyExpenses approximates monthly expenses from a 90-day sample.
func MonthlyExpenses(txs []domain.Transaction) float64 {
	return totalByType(txs, domain.TransactionExpense).Mul(monthlyScale).InexactFloat64()
}

// FilterSince returns the transactions dated at or after since.
func FilterSince(txs []domain.Transaction, since time.Time) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, t := range txs {
		if !t.Date.Before(since) {
			out = append(out, t)
		}
	}
	return out
}

// Summarize builds the spending summary for a 90-day window. Categories are
// ordered by total descending, ties broken by name.
func Summarize(txs []domain.Transaction) domain.SpendingSummary {
	byCategory := SumExpensesByCategory(txs)
	totals := make([]domain.CategoryTotal, 0, len(byCategory))
	for name, total := range byCategory {
		totals = append(totals, domain.CategoryTotal{Category: name, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Category < totals[j].Category
	})

	return domain.SpendingSummary{
		ByCategory:      totals,
		ByDay:           SumExpensesByDay(txs),
		MonthlyIncome:   MonthlyIncome(txs),
		MonthlyExpenses: MonthlyExpenses(txs),
	}
}

func totalByType(txs []domain.Transaction, typ domain.TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Type == typ {
			total = total.Add(decimal.NewFromFloat(t.Magnitude()))
		}
	}
	return total
}

func toFloats(acc map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(acc))
	for k, v := range acc {
		out[k] = v.InexactFloat64()
	}
	return out
}
