package bigquery

import (
	"encoding/json"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/shopspring/decimal"
)

// numericScale is the fractional precision of BigQuery NUMERIC.
const numericScale = 9

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	TransactionDate civil.Date             `bigquery:"transaction_date"` // REQUIRED
	BookingTS       bigquery.NullTimestamp `bigquery:"booking_ts"`       // NULLABLE

	Amount          *big.Rat `bigquery:"amount"`           // REQUIRED NUMERIC
	TransactionType string   `bigquery:"transaction_type"` // income|expense|cashback|transfer

	CategoryName bigquery.NullString `bigquery:"category_name"` // NULLABLE
	MerchantName bigquery.NullString `bigquery:"merchant_name"` // NULLABLE
	Description  bigquery.NullString `bigquery:"description"`   // NULLABLE
	ReceiptURL   bigquery.NullString `bigquery:"receipt_url"`   // NULLABLE

	Tags []string `bigquery:"tags"` // REPEATED STRING
}

type AccountRow struct {
	AccountID   string              `bigquery:"account_id"`   // REQUIRED
	UserID      string              `bigquery:"user_id"`      // REQUIRED
	AccountName bigquery.NullString `bigquery:"account_name"` // NULLABLE
	AccountType string              `bigquery:"account_type"` // REQUIRED
	Balance     *big.Rat            `bigquery:"balance"`      // NUMERIC, NULL treated as 0
}

type BudgetRow struct {
	BudgetID string              `bigquery:"budget_id"`
	UserID   string              `bigquery:"user_id"`
	Name     string              `bigquery:"name"`
	Amount   *big.Rat            `bigquery:"amount"`
	Spent    *big.Rat            `bigquery:"spent"`
	Period   bigquery.NullString `bigquery:"period"`
	IsActive bool                `bigquery:"is_active"`
}

type GoalRow struct {
	GoalID        string                 `bigquery:"goal_id"`
	UserID        string                 `bigquery:"user_id"`
	Name          string                 `bigquery:"name"`
	TargetAmount  *big.Rat               `bigquery:"target_amount"`
	CurrentAmount *big.Rat               `bigquery:"current_amount"`
	TargetDate    bigquery.NullDate      `bigquery:"target_date"`
	CreatedTS     bigquery.NullTimestamp `bigquery:"created_ts"`
}

type InsightRow struct {
	InsightID   string            `bigquery:"insight_id"`
	UserID      string            `bigquery:"user_id"`
	InsightType string            `bigquery:"insight_type"`
	Title       string            `bigquery:"title"`
	Description string            `bigquery:"description"`
	Actionable  bool              `bigquery:"actionable"`
	Priority    string            `bigquery:"priority"`
	Data        bigquery.NullJSON `bigquery:"data"`
	IsRead      bool              `bigquery:"is_read"`
	CreatedTS   time.Time         `bigquery:"created_ts"`
}

type RiskAlertRow struct {
	AlertID               string            `bigquery:"alert_id"`
	UserID                string            `bigquery:"user_id"`
	AlertType             string            `bigquery:"alert_type"`
	Severity              string            `bigquery:"severity"`
	Title                 string            `bigquery:"title"`
	Description           string            `bigquery:"description"`
	RelatedTransactionIDs []string          `bigquery:"related_transaction_ids"`
	Deadline              bigquery.NullDate `bigquery:"deadline"`
	Resolved              bool              `bigquery:"resolved"`
	CreatedTS             time.Time         `bigquery:"created_ts"`
}

// ratToFloat converts a NUMERIC value to float64. NULL becomes 0.
func ratToFloat(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		f, _ := r.Float64()
		return f
	}
	return d.InexactFloat64()
}

// floatToRat converts a float64 to a NUMERIC value rounded to its scale.
func floatToRat(f float64) *big.Rat {
	return decimal.NewFromFloat(f).Round(numericScale).Rat()
}

func civilToTime(d civil.Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func (r *TransactionRow) toDomain() domain.Transaction {
	date := civilToTime(r.TransactionDate)
	if r.BookingTS.Valid {
		date = r.BookingTS.Timestamp.UTC()
	}
	return domain.Transaction{
		ID:           r.TransactionID,
		UserID:       r.UserID,
		Date:         date,
		Amount:       ratToFloat(r.Amount),
		Type:         domain.TransactionType(r.TransactionType),
		Category:     r.CategoryName.StringVal,
		MerchantName: r.MerchantName.StringVal,
		Description:  r.Description.StringVal,
		ReceiptURL:   r.ReceiptURL.StringVal,
		Tags:         r.Tags,
	}
}

func (r *AccountRow) toDomain() domain.Account {
	return domain.Account{
		ID:      r.AccountID,
		UserID:  r.UserID,
		Name:    r.AccountName.StringVal,
		Balance: ratToFloat(r.Balance),
		Type:    domain.AccountType(r.AccountType),
	}
}

func (r *BudgetRow) toDomain() domain.Budget {
	return domain.Budget{
		ID:       r.BudgetID,
		UserID:   r.UserID,
		Name:     r.Name,
		Amount:   ratToFloat(r.Amount),
		Spent:    ratToFloat(r.Spent),
		Period:   r.Period.StringVal,
		IsActive: r.IsActive,
	}
}

func (r *GoalRow) toDomain() domain.FinancialGoal {
	g := domain.FinancialGoal{
		ID:            r.GoalID,
		UserID:        r.UserID,
		Name:          r.Name,
		TargetAmount:  ratToFloat(r.TargetAmount),
		CurrentAmount: ratToFloat(r.CurrentAmount),
	}
	if r.TargetDate.Valid {
		g.TargetDate = civilToTime(r.TargetDate.Date)
	}
	if r.CreatedTS.Valid {
		g.CreatedAt = r.CreatedTS.Timestamp.UTC()
	}
	return g
}

func newInsightRow(in domain.Insight) (*InsightRow, error) {
	row := &InsightRow{
		InsightID:   in.ID,
		UserID:      in.UserID,
		InsightType: string(in.Type),
		Title:       in.Title,
		Description: in.Description,
		Actionable:  in.Actionable,
		Priority:    string(in.Priority),
		IsRead:      in.IsRead,
		CreatedTS:   in.CreatedAt.UTC(),
	}
	if len(in.Data) > 0 {
		b, err := json.Marshal(in.Data)
		if err != nil {
			return nil, err
		}
		row.Data = bigquery.NullJSON{JSONVal: string(b), Valid: true}
	}
	return row, nil
}

func (r *InsightRow) toDomain() domain.Insight {
	in := domain.Insight{
		ID:          r.InsightID,
		UserID:      r.UserID,
		Type:        domain.InsightType(r.InsightType),
		Title:       r.Title,
		Description: r.Description,
		Actionable:  r.Actionable,
		Priority:    domain.Priority(r.Priority),
		IsRead:      r.IsRead,
		CreatedAt:   r.CreatedTS.UTC(),
	}
	if r.Data.Valid && r.Data.JSONVal != "" {
		var data map[string]any
		if err := json.Unmarshal([]byte(r.Data.JSONVal), &data); err == nil {
			in.Data = data
		}
	}
	return in
}

func newRiskAlertRow(a domain.RiskAlert) *RiskAlertRow {
	row := &RiskAlertRow{
		AlertID:               a.ID,
		UserID:                a.UserID,
		AlertType:             string(a.Type),
		Severity:              string(a.Severity),
		Title:                 a.Title,
		Description:           a.Description,
		RelatedTransactionIDs: a.RelatedTransactionIDs,
		Resolved:              a.Resolved,
		CreatedTS:             a.CreatedAt.UTC(),
	}
	if a.Deadline != nil {
		row.Deadline = bigquery.NullDate{Date: civil.DateOf(a.Deadline.UTC()), Valid: true}
	}
	return row
}

func (r *RiskAlertRow) toDomain() domain.RiskAlert {
	a := domain.RiskAlert{
		ID:                    r.AlertID,
		UserID:                r.UserID,
		Type:                  domain.RiskAlertType(r.AlertType),
		Severity:              domain.Severity(r.Severity),
		Title:                 r.Title,
		Description:           r.Description,
		RelatedTransactionIDs: r.RelatedTransactionIDs,
		Resolved:              r.Resolved,
		CreatedAt:             r.CreatedTS.UTC(),
	}
	if r.Deadline.Valid {
		d := civilToTime(r.Deadline.Date)
		a.Deadline = &d
	}
	return a
}

// NewTransactionRow builds the storage row for a transaction.
func NewTransactionRow(t domain.Transaction) *TransactionRow {
	utc := t.Date.UTC()
	return &TransactionRow{
		TransactionID:   t.ID,
		UserID:          t.UserID,
		TransactionDate: civil.DateOf(utc),
		BookingTS:       bigquery.NullTimestamp{Timestamp: utc, Valid: !utc.IsZero()},
		Amount:          floatToRat(t.Amount),
		TransactionType: string(t.Type),
		CategoryName:    nullString(t.Category),
		MerchantName:    nullString(t.MerchantName),
		Description:     nullString(t.Description),
		ReceiptURL:      nullString(t.ReceiptURL),
		Tags:            t.Tags,
	}
}
