// Package sqlite is the local backend for the append-only alert and insight
// stores.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

const (
	// Fixed-width so created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dateLayout = "2006-01-02"
)

// Store keeps risk alerts and insights in a SQLite database.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open creates the database file if needed, applies migrations and returns
// a ready Store.
func Open(dbPath string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("Open: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("Open: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: ping database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("SQLite store ready")
	return &Store{db: db, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// AppendAlert inserts a risk alert under a new id and returns the id.
func (s *Store) AppendAlert(ctx context.Context, alert domain.RiskAlert) (string, error) {
	id := uuid.New().String()

	related := alert.RelatedTransactionIDs
	if related == nil {
		related = []string{}
	}
	relatedJSON, err := json.Marshal(related)
	if err != nil {
		return "", fmt.Errorf("AppendAlert: encode related ids: %w", err)
	}

	var deadline sql.NullString
	if alert.Deadline != nil {
		deadline = sql.NullString{String: alert.Deadline.UTC().Format(dateLayout), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_alerts (
			alert_id, user_id, alert_type, severity, title, description,
			related_transaction_ids, deadline, resolved, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, alert.UserID, string(alert.Type), string(alert.Severity), alert.Title, alert.Description,
		string(relatedJSON), deadline, alert.Resolved, alert.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("AppendAlert: insert: %w", err)
	}
	return id, nil
}

// ListUnresolvedAlerts returns the user's unresolved alerts, oldest first.
func (s *Store) ListUnresolvedAlerts(ctx context.Context, userID string) ([]domain.RiskAlert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT alert_id, user_id, alert_type, severity, title, description,
		       related_transaction_ids, deadline, resolved, created_at
		FROM risk_alerts
		WHERE user_id = ? AND resolved = 0
		ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListUnresolvedAlerts: query: %w", err)
	}
	defer rows.Close()

	var alerts []domain.RiskAlert
	for rows.Next() {
		var (
			a                    domain.RiskAlert
			alertType, severity  string
			relatedJSON, created string
			deadline             sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &alertType, &severity, &a.Title, &a.Description,
			&relatedJSON, &deadline, &a.Resolved, &created); err != nil {
			return nil, fmt.Errorf("ListUnresolvedAlerts: scan: %w", err)
		}
		a.Type = domain.RiskAlertType(alertType)
		a.Severity = domain.Severity(severity)

		if err := json.Unmarshal([]byte(relatedJSON), &a.RelatedTransactionIDs); err != nil {
			return nil, fmt.Errorf("ListUnresolvedAlerts: decode related ids of %s: %w", a.ID, err)
		}
		if len(a.RelatedTransactionIDs) == 0 {
			a.RelatedTransactionIDs = nil
		}
		if deadline.Valid {
			d, err := time.Parse(dateLayout, deadline.String)
			if err != nil {
				return nil, fmt.Errorf("ListUnresolvedAlerts: parse deadline of %s: %w", a.ID, err)
			}
			a.Deadline = &d
		}
		if a.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("ListUnresolvedAlerts: parse created_at of %s: %w", a.ID, err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUnresolvedAlerts: rows: %w", err)
	}
	return alerts, nil
}

// AppendInsight inserts an insight and returns its id. A missing id is
// generated.
func (s *Store) AppendInsight(ctx context.Context, insight domain.Insight) (string, error) {
	if insight.ID == "" {
		insight.ID = uuid.New().String()
	}

	var data sql.NullString
	if len(insight.Data) > 0 {
		b, err := json.Marshal(insight.Data)
		if err != nil {
			return "", fmt.Errorf("AppendInsight: encode data: %w", err)
		}
		data = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO insights (
			insight_id, user_id, insight_type, title, description,
			actionable, priority, data, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		insight.ID, insight.UserID, string(insight.Type), insight.Title, insight.Description,
		insight.Actionable, string(insight.Priority), data, insight.IsRead, insight.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("AppendInsight: insert: %w", err)
	}
	return insight.ID, nil
}

// ListInsights returns the user's insights, newest first.
func (s *Store) ListInsights(ctx context.Context, userID string, unreadOnly bool) ([]domain.Insight, error) {
	query := `
		SELECT insight_id, user_id, insight_type, title, description,
		       actionable, priority, data, is_read, created_at
		FROM insights
		WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: query: %w", err)
	}
	defer rows.Close()

	var insights []domain.Insight
	for rows.Next() {
		var (
			in                    domain.Insight
			insightType, priority string
			data                  sql.NullString
			created               string
		)
		if err := rows.Scan(&in.ID, &in.UserID, &insightType, &in.Title, &in.Description,
			&in.Actionable, &priority, &data, &in.IsRead, &created); err != nil {
			return nil, fmt.Errorf("ListInsights: scan: %w", err)
		}
		in.Type = domain.InsightType(insightType)
		in.Priority = domain.Priority(priority)

		if data.Valid {
			if err := json.Unmarshal([]byte(data.String), &in.Data); err != nil {
				s.log.Warn().Err(err).Str("insight_id", in.ID).Msg("Dropping undecodable insight data")
			}
		}
		if in.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("ListInsights: parse created_at of %s: %w", in.ID, err)
		}
		insights = append(insights, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListInsights: rows: %w", err)
	}
	return insights, nil
}
