// Package narrative is the contract with the external text-generation service
// used for prose insights and budget-allocation strategies, plus the defensive
// parsing of its untrusted responses.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// Service generates a JSON response for a JSON facts payload.
type Service interface {
	Generate(ctx context.Context, facts []byte) ([]byte, error)
}

// Task selects what the service is asked to produce.
type Task string

const (
	TaskInsights           Task = "insights"
	TaskBudgetOptimization Task = "budget_optimization"
)

// InsightFacts is the payload sent when asking for a prose insight.
type InsightFacts struct {
	Task            Task                   `json:"task"`
	HealthScore     domain.HealthScore     `json:"health_score"`
	MonthlyIncome   float64                `json:"monthly_income"`
	MonthlyExpenses float64                `json:"monthly_expenses"`
	TopCategories   []domain.CategoryTotal `json:"top_categories"`
	Goals           []GoalFact             `json:"goals"`
	RiskFactors     []domain.RiskFactor    `json:"risk_factors,omitempty"`
	RiskLevel       domain.RiskLevel       `json:"risk_level,omitempty"`
}

// BudgetFacts is the payload sent when asking for a budget strategy.
type BudgetFacts struct {
	Task            Task                   `json:"task"`
	MonthlyIncome   float64                `json:"monthly_income"`
	MonthlyExpenses float64                `json:"monthly_expenses"`
	Categories      []domain.CategoryTotal `json:"categories"`
	Budgets         []BudgetFact           `json:"budgets"`
	Goals           []GoalFact             `json:"goals"`
}

// GoalFact is the goal view shared with the service.
type GoalFact struct {
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"target_amount"`
	CurrentAmount float64 `json:"current_amount"`
	TargetDate    string  `json:"target_date,omitempty"`
}

// BudgetFact is the budget view shared with the service.
type BudgetFact struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Spent  float64 `json:"spent"`
	Period string  `json:"period"`
}

// NewGoalFacts converts goals for a payload.
func NewGoalFacts(goals []domain.FinancialGoal) []GoalFact {
	out := make([]GoalFact, 0, len(goals))
	for _, g := range goals {
		f := GoalFact{Name: g.Name, TargetAmount: g.TargetAmount, CurrentAmount: g.CurrentAmount}
		if !g.TargetDate.IsZero() {
			f.TargetDate = g.TargetDate.Format("2006-01-02")
		}
		out = append(out, f)
	}
	return out
}

// NewBudgetFacts converts budgets for a payload.
func NewBudgetFacts(budgets []domain.Budget) []BudgetFact {
	out := make([]BudgetFact, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, BudgetFact{Name: b.Name, Amount: b.Amount, Spent: b.Spent, Period: b.Period})
	}
	return out
}

// Encode marshals a facts payload.
func Encode(facts any) ([]byte, error) {
	b, err := json.Marshal(facts)
	if err != nil {
		return nil, fmt.Errorf("Encode: marshal facts: %w", err)
	}
	return b, nil
}

// taskOf reads the task field of an encoded payload.
func taskOf(facts []byte) (Task, error) {
	var head struct {
		Task Task `json:"task"`
	}
	if err := json.Unmarshal(facts, &head); err != nil {
		return "", fmt.Errorf("taskOf: unmarshal facts: %w", err)
	}
	switch head.Task {
	case TaskInsights, TaskBudgetOptimization:
		return head.Task, nil
	}
	return "", fmt.Errorf("taskOf: unknown task %q", head.Task)
}
