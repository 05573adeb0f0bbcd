package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// AppendAlert inserts a risk alert under a new id and returns the id.
func (r *Repository) AppendAlert(ctx context.Context, alert domain.RiskAlert) (string, error) {
	alert.ID = uuid.New().String()
	row := newRiskAlertRow(alert)

	deadline := ""
	if row.Deadline.Valid {
		deadline = row.Deadline.Date.String()
	}
	related := row.RelatedTransactionIDs
	if related == nil {
		related = []string{}
	}

	err := r.exec(ctx, "AppendAlert", `
		INSERT INTO `+r.table(riskAlertsTable)+` (
			alert_id, user_id, alert_type, severity, title, description,
			related_transaction_ids, deadline, resolved, created_ts
		)
		VALUES (
			@alert_id, @user_id, @alert_type, @severity, @title, @description,
			@related_transaction_ids, SAFE.PARSE_DATE('%Y-%m-%d', NULLIF(@deadline, '')),
			@resolved, @created_ts
		)
	`, []bigquery.QueryParameter{
		{Name: "alert_id", Value: row.AlertID},
		{Name: "user_id", Value: row.UserID},
		{Name: "alert_type", Value: row.AlertType},
		{Name: "severity", Value: row.Severity},
		{Name: "title", Value: row.Title},
		{Name: "description", Value: row.Description},
		{Name: "related_transaction_ids", Value: related},
		{Name: "deadline", Value: deadline},
		{Name: "resolved", Value: row.Resolved},
		{Name: "created_ts", Value: row.CreatedTS},
	})
	if err != nil {
		return "", err
	}
	return row.AlertID, nil
}

// ListUnresolvedAlerts returns the user's unresolved alerts, oldest first.
func (r *Repository) ListUnresolvedAlerts(ctx context.Context, userID string) ([]domain.RiskAlert, error) {
	q := r.client.Query(`
		SELECT
			alert_id, user_id, alert_type, severity, title, description,
			related_transaction_ids, deadline, resolved, created_ts
		FROM ` + r.table(riskAlertsTable) + `
		WHERE user_id = @user_id
		  AND NOT resolved
		ORDER BY created_ts, alert_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListUnresolvedAlerts: query read: %w", err)
	}

	var alerts []domain.RiskAlert
	for {
		var row RiskAlertRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListUnresolvedAlerts: iter next: %w", err)
		}
		alerts = append(alerts, row.toDomain())
	}
	return alerts, nil
}
