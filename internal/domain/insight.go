package domain

import "time"

// Priority of an insight or deadline.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// InsightType groups insights by the facts they were derived from.
type InsightType string

const (
	InsightHealthScore     InsightType = "health_score"
	InsightSpendingPattern InsightType = "spending_pattern"
	InsightGoalProgress    InsightType = "goal_progress"
	InsightTaxRisk         InsightType = "tax_risk"
	InsightNarrative       InsightType = "narrative"
)

// Insight is a prioritized, user-facing finding. Insights are created by the
// engine and appended to the insight store.
type Insight struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Type        InsightType    `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Actionable  bool           `json:"actionable"`
	Priority    Priority       `json:"priority"`
	Data        map[string]any `json:"data,omitempty"`
	IsRead      bool           `json:"is_read"`
	CreatedAt   time.Time      `json:"created_at"`
}

// HealthCategories holds the five sub-scores, each in [0,100].
type HealthCategories struct {
	Savings   int `json:"savings"`
	Debt      int `json:"debt"`
	Spending  int `json:"spending"`
	Budget    int `json:"budget"`
	Emergency int `json:"emergency"`
}

// HealthScore is the financial-health result.
type HealthScore struct {
	Overall         int              `json:"overall"`
	Categories      HealthCategories `json:"categories"`
	Insights        []string         `json:"insights"`
	Recommendations []string         `json:"recommendations"`
}

// CashFlowPrediction is the projected balance for one day.
type CashFlowPrediction struct {
	Date             time.Time `json:"date"`
	PredictedBalance float64   `json:"predicted_balance"`
	Confidence       float64   `json:"confidence"`
	Factors          []string  `json:"factors"`
	Recommendations  []string  `json:"recommendations"`
}

// CategoryTotal is the summed magnitude of one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// SpendingSummary is the aggregated view of a transaction window.
type SpendingSummary struct {
	ByCategory      []CategoryTotal    `json:"by_category"`
	ByDay           map[string]float64 `json:"by_day"`
	MonthlyIncome   float64            `json:"monthly_income"`
	MonthlyExpenses float64            `json:"monthly_expenses"`
}

// BudgetAllocation is one recommended budget line.
type BudgetAllocation struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// BudgetStrategy is the budget-allocation recommendation. Fallback is set
// when the default strategy replaced an unusable service response.
type BudgetStrategy struct {
	Budgets          []BudgetAllocation `json:"budgets"`
	Rationale        string             `json:"rationale"`
	ExpectedOutcomes []string           `json:"expected_outcomes"`
	Fallback         bool               `json:"fallback"`
}
