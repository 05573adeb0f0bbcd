package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"google.golang.org/api/iterator"
)

// ListAccounts returns the user's open accounts.
func (r *Repository) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	q := r.client.Query(`
		SELECT
			account_id,
			user_id,
			account_name,
			account_type,
			balance
		FROM ` + r.table(accountsTable) + `
		WHERE user_id = @user_id
		  AND closed_date IS NULL
		ORDER BY account_name, account_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: query read: %w", err)
	}

	var accounts []domain.Account
	for {
		var row AccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: iter next: %w", err)
		}
		accounts = append(accounts, row.toDomain())
	}
	return accounts, nil
}
