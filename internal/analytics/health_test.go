package analytics

import (
	"math"
	"testing"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

func TestOverallScore(t *testing.T) {
	subs := SubScores{Savings: 100, Budget: 80, Debt: 100, Emergency: 100, Spending: 90}

	if got := OverallScore(subs); got != 94 {
		t.Errorf("OverallScore() = %d, want 94", got)
	}
}

func TestScoreHealth_NoData(t *testing.T) {
	got := ScoreHealth(HealthInputs{})

	if got.Overall != 63 {
		t.Errorf("Overall = %d, want 63", got.Overall)
	}
	want := domain.HealthCategories{Savings: 0, Debt: 100, Spending: 100, Budget: 50, Emergency: 100}
	if got.Categories != want {
		t.Errorf("Categories = %+v, want %+v", got.Categories, want)
	}
	if len(got.Insights) == 0 {
		t.Error("Expected at least the tier insight")
	}
	if got.Recommendations == nil {
		t.Error("Expected non-nil recommendations")
	}
}

func TestSavingsAndEmergency_ZeroIncomeAndExpenses(t *testing.T) {
	savings := SavingsScore(SavingsRate(0, 0))
	if savings != 0 || math.IsNaN(savings) {
		t.Errorf("SavingsScore = %v, want 0", savings)
	}
	if got := EmergencyScore(0, 0); got != 100 {
		t.Errorf("EmergencyScore = %v, want 100", got)
	}
}

func TestBudgetUtilizationScore(t *testing.T) {
	tests := []struct {
		spent, amount float64
		want          float64
	}{
		{80, 100, 100},
		{90, 100, 80},
		{110, 100, 90},
		{100, 100, 80},
		{300, 100, 0},
		{0, 0, 100},
		{10, 0, 0},
	}

	for _, tt := range tests {
		got := BudgetUtilizationScore(tt.spent, tt.amount)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("BudgetUtilizationScore(%v, %v) = %v, want %v", tt.spent, tt.amount, got, tt.want)
		}
	}
}

func TestBudgetScore(t *testing.T) {
	budgets := []domain.Budget{
		{Amount: 100, Spent: 50, IsActive: true},
		{Amount: 100, Spent: 95, IsActive: true},
		{Amount: 100, Spent: 500, IsActive: false},
	}
	if got := BudgetScore(budgets); got != 90 {
		t.Errorf("BudgetScore() = %v, want 90", got)
	}
	if got := BudgetScore(nil); got != 50 {
		t.Errorf("BudgetScore(nil) = %v, want 50", got)
	}
}

func TestDebtScore(t *testing.T) {
	tests := []struct {
		name     string
		accounts []domain.Account
		want     float64
	}{
		{"no accounts", nil, 100},
		{"debt without assets", []domain.Account{{Type: domain.AccountCreditCard, Balance: -500}}, 0},
		{
			"quarter of assets",
			[]domain.Account{
				{Type: domain.AccountChecking, Balance: 2000},
				{Type: domain.AccountCreditCard, Balance: -500},
			},
			75,
		},
		{
			"loan is not credit card debt",
			[]domain.Account{
				{Type: domain.AccountChecking, Balance: 1000},
				{Type: domain.AccountLoan, Balance: -5000},
			},
			100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DebtScore(tt.accounts); got != tt.want {
				t.Errorf("DebtScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmergencyScore(t *testing.T) {
	tests := []struct {
		balance, expenses, want float64
	}{
		{6000, 1000, 100},
		{3000, 1000, 80},
		{1000, 1000, 60},
		{500, 1000, 30},
		{-500, 1000, 0},
	}
	for _, tt := range tests {
		if got := EmergencyScore(tt.balance, tt.expenses); got != tt.want {
			t.Errorf("EmergencyScore(%v, %v) = %v, want %v", tt.balance, tt.expenses, got, tt.want)
		}
	}
}

func TestSpendingScore(t *testing.T) {
	if got := SpendingScore(nil); got != 100 {
		t.Errorf("SpendingScore(nil) = %v, want 100", got)
	}
	steady := map[string]float64{"2025-01-01": 20, "2025-01-02": 20, "2025-01-03": 20}
	if got := SpendingScore(steady); got != 100 {
		t.Errorf("SpendingScore(steady) = %v, want 100", got)
	}
	// mean 20, population stddev 10 → CV 0.5
	volatile := map[string]float64{"2025-01-01": 10, "2025-01-02": 30}
	if got := SpendingScore(volatile); math.Abs(got-50) > 1e-9 {
		t.Errorf("SpendingScore(volatile) = %v, want 50", got)
	}
}

func TestScoreHealth_Bounds(t *testing.T) {
	inputs := []HealthInputs{
		{},
		{
			Transactions: []domain.Transaction{
				tx("1", domain.TransactionExpense, -100000, "Rent", day0),
				tx("2", domain.TransactionIncome, 10, "Salary", day0),
			},
			Accounts: []domain.Account{{Type: domain.AccountCreditCard, Balance: -1e6}},
			Budgets:  []domain.Budget{{Amount: 1, Spent: 1e9, IsActive: true}},
		},
		{
			Transactions: []domain.Transaction{
				tx("1", domain.TransactionIncome, 1e6, "Salary", day0),
			},
			Accounts: []domain.Account{{Type: domain.AccountSavings, Balance: 1e9}},
		},
	}

	for i, in := range inputs {
		got := ScoreHealth(in)
		for name, v := range map[string]int{
			"overall":   got.Overall,
			"savings":   got.Categories.Savings,
			"debt":      got.Categories.Debt,
			"spending":  got.Categories.Spending,
			"budget":    got.Categories.Budget,
			"emergency": got.Categories.Emergency,
		} {
			if v < 0 || v > 100 {
				t.Errorf("input %d: %s = %d out of [0,100]", i, name, v)
			}
		}
	}
}
