package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"google.golang.org/api/iterator"
)

// ListActiveBudgets returns the user's active budgets.
func (r *Repository) ListActiveBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	q := r.client.Query(`
		SELECT budget_id, user_id, name, amount, spent, period, is_active
		FROM ` + r.table(budgetsTable) + `
		WHERE user_id = @user_id
		  AND is_active
		ORDER BY name, budget_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActiveBudgets: query read: %w", err)
	}

	var budgets []domain.Budget
	for {
		var row BudgetRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActiveBudgets: iter next: %w", err)
		}
		budgets = append(budgets, row.toDomain())
	}
	return budgets, nil
}

// ListActiveGoals returns the user's active financial goals, nearest target
// date first.
func (r *Repository) ListActiveGoals(ctx context.Context, userID string) ([]domain.FinancialGoal, error) {
	q := r.client.Query(`
		SELECT goal_id, user_id, name, target_amount, current_amount, target_date, created_ts
		FROM ` + r.table(goalsTable) + `
		WHERE user_id = @user_id
		  AND is_active
		ORDER BY target_date, goal_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActiveGoals: query read: %w", err)
	}

	var goals []domain.FinancialGoal
	for {
		var row GoalRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActiveGoals: iter next: %w", err)
		}
		goals = append(goals, row.toDomain())
	}
	return goals, nil
}
