package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"google.golang.org/api/iterator"
)

// QueryTransactions returns the user's transactions dated in [start, end),
// newest first. A transaction is dated by its booking timestamp when present
// and by its transaction date otherwise.
func (r *Repository) QueryTransactions(ctx context.Context, userID string, start, end time.Time) ([]domain.Transaction, error) {
	q := r.client.Query(`
		SELECT
			t.transaction_id,
			t.user_id,
			t.transaction_date,
			t.booking_ts,
			t.amount,
			t.transaction_type,
			t.category_name,
			t.merchant_name,
			t.description,
			t.receipt_url,
			t.tags
		FROM ` + r.table(transactionsTable) + ` t
		WHERE t.user_id = @user_id
		  AND COALESCE(t.booking_ts, TIMESTAMP(t.transaction_date)) >= @start_ts
		  AND COALESCE(t.booking_ts, TIMESTAMP(t.transaction_date)) < @end_ts
		ORDER BY COALESCE(t.booking_ts, TIMESTAMP(t.transaction_date)) DESC, t.transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_ts", Value: start.UTC()},
		{Name: "end_ts", Value: end.UTC()},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: query read: %w", err)
	}

	var txs []domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactions: iter next: %w", err)
		}
		txs = append(txs, row.toDomain())
	}
	return txs, nil
}

// InsertTransactions appends transaction rows. It is used by the seeding
// command; the engine never writes transactions.
func (r *Repository) InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}
