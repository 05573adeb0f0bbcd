package analytics

import (
	"math"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// Sub-score weights of the overall health score.
const (
	weightSavings   = 0.25
	weightBudget    = 0.25
	weightDebt      = 0.2
	weightEmergency = 0.2
	weightSpending  = 0.1

	// neutralBudgetScore is used when the user has no active budgets.
	neutralBudgetScore = 50
)

// HealthInputs is the data snapshot the health scorer reads.
// Transactions are expected to cover the last 90 days.
type HealthInputs struct {
	Transactions []domain.Transaction
	Goals        []domain.FinancialGoal
	Budgets      []domain.Budget
	Accounts     []domain.Account
}

// SubScores holds the unrounded sub-scores, each in [0,100].
type SubScores struct {
	Savings   float64
	Budget    float64
	Debt      float64
	Emergency float64
	Spending  float64
}

// ScoreHealth computes the complete health score. It never fails: every
// zero-denominator path falls back to the documented default.
func ScoreHealth(in HealthInputs) domain.HealthScore {
	subs := ComputeSubScores(in)
	overall := OverallScore(subs)

	cats := domain.HealthCategories{
		Savings:   roundScore(subs.Savings),
		Debt:      roundScore(subs.Debt),
		Spending:  roundScore(subs.Spending),
		Budget:    roundScore(subs.Budget),
		Emergency: roundScore(subs.Emergency),
	}
	insights, recs := HealthNarrative(overall, cats)

	return domain.HealthScore{
		Overall:         overall,
		Categories:      cats,
		Insights:        insights,
		Recommendations: recs,
	}
}

// ComputeSubScores derives the five sub-scores from the inputs.
func ComputeSubScores(in HealthInputs) SubScores {
	income := MonthlyIncome(in.Transactions)
	expenses := MonthlyExpenses(in.Transactions)

	return SubScores{
		Savings:   SavingsScore(SavingsRate(income, expenses)),
		Budget:    BudgetScore(in.Budgets),
		Debt:      DebtScore(in.Accounts),
		Emergency: EmergencyScore(TotalBalance(in.Accounts), expenses),
		Spending:  SpendingScore(SumExpensesByDay(in.Transactions)),
	}
}

// OverallScore combines the sub-scores with their weights.
func OverallScore(s SubScores) int {
	weighted := s.Savings*weightSavings +
		s.Budget*weightBudget +
		s.Debt*weightDebt +
		s.Emergency*weightEmergency +
		s.Spending*weightSpending
	return roundScore(weighted)
}

// SavingsRate is (income-expenses)/income, or 0 without income.
func SavingsRate(monthlyIncome, monthlyExpenses float64) float64 {
	if monthlyIncome <= 0 {
		return 0
	}
	return (monthlyIncome - monthlyExpenses) / monthlyIncome
}

// SavingsScore maps a savings rate to a score; a 20% rate yields 100.
func SavingsScore(rate float64) float64 {
	return clampScore(rate * 100 * 5)
}

// BudgetUtilizationScore scores a single budget by spent/amount.
func BudgetUtilizationScore(spent, amount float64) float64 {
	if amount <= 0 {
		if spent > 0 {
			return 0
		}
		return 100
	}
	utilization := spent / amount
	switch {
	case utilization <= 0.8:
		return 100
	case utilization <= 1.0:
		return 80
	default:
		return clampScore(100 - (utilization-1)*100)
	}
}

// BudgetScore is the mean utilization score across active budgets.
func BudgetScore(budgets []domain.Budget) float64 {
	var sum float64
	var n int
	for _, b := range budgets {
		if !b.IsActive {
			continue
		}
		sum += BudgetUtilizationScore(b.Spent, b.Amount)
		n++
	}
	if n == 0 {
		return neutralBudgetScore
	}
	return clampScore(sum / float64(n))
}

// DebtScore scores the ratio of credit-card debt to positive assets.
func DebtScore(accounts []domain.Account) float64 {
	var debt, assets float64
	for _, a := range accounts {
		if a.Type == domain.AccountCreditCard && a.Balance < 0 {
			debt += math.Abs(a.Balance)
		}
		if a.Balance > 0 {
			assets += a.Balance
		}
	}
	if assets == 0 {
		if debt == 0 {
			return 100
		}
		return 0
	}
	return clampScore(100 - (debt/assets)*100)
}

// EmergencyScore scores how many months of expenses the balance covers.
func EmergencyScore(totalBalance, monthlyExpenses float64) float64 {
	if monthlyExpenses <= 0 {
		return 100
	}
	months := totalBalance / monthlyExpenses
	switch {
	case months >= 6:
		return 100
	case months >= 3:
		return 80
	case months >= 1:
		return 60
	default:
		return clampScore(months * 60)
	}
}

// SpendingScore penalizes volatile daily spending by its coefficient of
// variation.
func SpendingScore(daily map[string]float64) float64 {
	if len(daily) == 0 {
		return 100
	}
	var sum float64
	for _, v := range daily {
		sum += v
	}
	mean := sum / float64(len(daily))
	if mean == 0 {
		return 100
	}
	var sq float64
	for _, v := range daily {
		sq += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(sq / float64(len(daily)))
	return clampScore(100 - (stddev/mean)*100)
}

// TotalBalance sums the signed balances of all accounts.
func TotalBalance(accounts []domain.Account) float64 {
	var total float64
	for _, a := range accounts {
		total += a.Balance
	}
	return total
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func roundScore(v float64) int {
	return int(math.Round(clampScore(v)))
}
