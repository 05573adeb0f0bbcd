// Package bigquery implements the engine's stores on top of a BigQuery
// dataset. One Repository serves every table and shares a single client.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const (
	transactionsTable = "transactions"
	accountsTable     = "accounts"
	budgetsTable      = "budgets"
	goalsTable        = "goals"
	insightsTable     = "insights"
	riskAlertsTable   = "risk_alerts"
)

// Repository is the BigQuery-backed store for transactions, accounts,
// budgets, goals, insights and risk alerts.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a Repository with its own client.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, projectID, datasetID), nil
}

// NewRepositoryWithClient creates a Repository on an existing client.
func NewRepositoryWithClient(client *bigquery.Client, projectID, datasetID string) *Repository {
	return &Repository{client: client, projectID: projectID, datasetID: datasetID}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// table returns the fully qualified, backtick-quoted name of a table.
func (r *Repository) table(name string) string {
	return qualifiedTable(r.projectID, r.datasetID, name)
}

func qualifiedTable(projectID, datasetID, name string) string {
	return "`" + projectID + "." + datasetID + "." + name + "`"
}

// exec runs a DML statement and waits for it to finish. DML is used for
// writes instead of streaming inserts so rows are immediately queryable.
func (r *Repository) exec(ctx context.Context, caller, sql string, params []bigquery.QueryParameter) error {
	q := r.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", caller, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", caller, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", caller, err)
	}
	return nil
}
