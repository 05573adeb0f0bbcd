package analytics

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

const (
	// ReceiptThreshold is the expense magnitude above which a receipt is expected.
	ReceiptThreshold = 75.0
	// DeadlineAlertWindow is how far ahead deadlines raise alerts.
	DeadlineAlertWindow = 30
	// urgentDeadlineDays marks a deadline alert as high severity.
	urgentDeadlineDays = 7
)

// ComplianceInput is the snapshot examined by a compliance pass.
type ComplianceInput struct {
	UserID       string
	Year         int
	Transactions []domain.Transaction
	Documents    []domain.TaxDocument
	// Unresolved are the user's open alerts. Their subjects are not alerted again.
	Unresolved []domain.RiskAlert
	Now        time.Time
}

// MonitorCompliance returns the new alerts for expenses lacking receipts and
// for deadlines due within the alert window. Alert IDs are left empty for the
// store to assign.
func MonitorCompliance(in ComplianceInput) []domain.RiskAlert {
	covered := make(map[string]bool, len(in.Unresolved))
	for _, a := range in.Unresolved {
		for _, k := range alertKeys(a) {
			covered[k] = true
		}
	}

	receipts := newReceiptIndex(in.Transactions, in.Documents)
	alerts := []domain.RiskAlert{}

	for _, t := range in.Transactions {
		if !t.IsExpense() || t.Magnitude() <= ReceiptThreshold || receipts.has(t) {
			continue
		}
		key := receiptKey(t.ID)
		if covered[key] {
			continue
		}
		covered[key] = true
		alerts = append(alerts, domain.RiskAlert{
			UserID:                in.UserID,
			Type:                  domain.AlertMissingReceipt,
			Severity:              domain.SeverityMedium,
			Title:                 fmt.Sprintf("Missing receipt for %s", merchantOrCategory(t)),
			Description:           fmt.Sprintf("Expense of $%.2f on %s has no receipt attached", t.Magnitude(), t.Date.UTC().Format(DayLayout)),
			RelatedTransactionIDs: []string{t.ID},
			CreatedAt:             in.Now,
		})
	}

	// The previous year's Q4 payment and annual filing fall in the current year.
	deadlines := append(TaxDeadlines(in.Year-1, in.Now), TaxDeadlines(in.Year, in.Now)...)
	for _, d := range deadlines {
		days := DaysUntil(in.Now, d.Date)
		if days > DeadlineAlertWindow {
			continue
		}
		key := deadlineKey(d.Description, d.Date)
		if covered[key] {
			continue
		}
		covered[key] = true

		severity := domain.SeverityMedium
		if days <= urgentDeadlineDays {
			severity = domain.SeverityHigh
		}
		deadline := d.Date
		alerts = append(alerts, domain.RiskAlert{
			UserID:      in.UserID,
			Type:        domain.AlertUpcomingDeadline,
			Severity:    severity,
			Title:       d.Description,
			Description: fmt.Sprintf("%s in %d day(s) on %s", d.Description, days, d.Date.Format(DayLayout)),
			Deadline:    &deadline,
			CreatedAt:   in.Now,
		})
	}
	return alerts
}

// alertKeys returns the subjects an alert covers.
func alertKeys(a domain.RiskAlert) []string {
	switch a.Type {
	case domain.AlertMissingReceipt:
		keys := make([]string, 0, len(a.RelatedTransactionIDs))
		for _, id := range a.RelatedTransactionIDs {
			keys = append(keys, receiptKey(id))
		}
		return keys
	case domain.AlertUpcomingDeadline:
		if a.Deadline == nil {
			return nil
		}
		return []string{deadlineKey(a.Title, *a.Deadline)}
	}
	return nil
}

func receiptKey(txID string) string {
	return "receipt:" + txID
}

// deadlineKey identifies a deadline by its title and date. Each calendar
// deadline has a distinct title, so two deadlines on the same day stay apart.
func deadlineKey(title string, date time.Time) string {
	return "deadline:" + title + ":" + date.UTC().Format(DayLayout)
}

func merchantOrCategory(t domain.Transaction) string {
	if t.MerchantName != "" {
		return t.MerchantName
	}
	if t.Category != "" {
		return t.Category
	}
	return "expense " + t.ID
}
