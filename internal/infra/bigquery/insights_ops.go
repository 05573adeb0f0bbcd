package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// AppendInsight inserts an insight and returns its id. A missing id is
// generated.
func (r *Repository) AppendInsight(ctx context.Context, insight domain.Insight) (string, error) {
	if insight.ID == "" {
		insight.ID = uuid.New().String()
	}
	row, err := newInsightRow(insight)
	if err != nil {
		return "", fmt.Errorf("AppendInsight: encoding data: %w", err)
	}

	err = r.exec(ctx, "AppendInsight", `
		INSERT INTO `+r.table(insightsTable)+` (
			insight_id, user_id, insight_type, title, description,
			actionable, priority, data, is_read, created_ts
		)
		VALUES (
			@insight_id, @user_id, @insight_type, @title, @description,
			@actionable, @priority, IF(@data = '', NULL, PARSE_JSON(@data)), @is_read, @created_ts
		)
	`, []bigquery.QueryParameter{
		{Name: "insight_id", Value: row.InsightID},
		{Name: "user_id", Value: row.UserID},
		{Name: "insight_type", Value: row.InsightType},
		{Name: "title", Value: row.Title},
		{Name: "description", Value: row.Description},
		{Name: "actionable", Value: row.Actionable},
		{Name: "priority", Value: row.Priority},
		{Name: "data", Value: row.Data.JSONVal},
		{Name: "is_read", Value: row.IsRead},
		{Name: "created_ts", Value: row.CreatedTS},
	})
	if err != nil {
		return "", err
	}
	return row.InsightID, nil
}

// ListInsights returns the user's insights, newest first.
func (r *Repository) ListInsights(ctx context.Context, userID string, unreadOnly bool) ([]domain.Insight, error) {
	q := r.client.Query(`
		SELECT
			insight_id, user_id, insight_type, title, description,
			actionable, priority, data, is_read, created_ts
		FROM ` + r.table(insightsTable) + `
		WHERE user_id = @user_id
		  AND (NOT @unread_only OR NOT is_read)
		ORDER BY created_ts DESC, insight_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "unread_only", Value: unreadOnly},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: query read: %w", err)
	}

	var insights []domain.Insight
	for {
		var row InsightRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListInsights: iter next: %w", err)
		}
		insights = append(insights, row.toDomain())
	}
	return insights, nil
}
