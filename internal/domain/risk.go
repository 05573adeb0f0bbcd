package domain

import "time"

// Severity of a risk factor or alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of the enumerated severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// RiskLevel is the aggregate level derived from a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskFactorType identifies which rule produced a risk factor.
type RiskFactorType string

const (
	RiskAuditTrigger         RiskFactorType = "audit_trigger"
	RiskMissingDocumentation RiskFactorType = "missing_documentation"
	RiskUnusualDeduction     RiskFactorType = "unusual_deduction"
	RiskIncomeDiscrepancy    RiskFactorType = "income_discrepancy"
	RiskDuplicateExpense     RiskFactorType = "duplicate_expense"
)

// RiskFactor is a single finding of the tax-risk assessment.
type RiskFactor struct {
	Type                  RiskFactorType `json:"type"`
	Severity              Severity       `json:"severity"`
	Description           string         `json:"description"`
	RelatedTransactionIDs []string       `json:"related_transaction_ids,omitempty"`
	SuggestedAction       string         `json:"suggested_action"`
	Deadline              *time.Time     `json:"deadline,omitempty"`
}

// TaxDeadlineType identifies a kind of tax deadline.
type TaxDeadlineType string

const (
	DeadlineQuarterlyPayment   TaxDeadlineType = "quarterly_payment"
	DeadlineAnnualFiling       TaxDeadlineType = "annual_filing"
	DeadlineExtension          TaxDeadlineType = "extension_deadline"
	DeadlineDocumentSubmission TaxDeadlineType = "document_submission"
)

// TaxDeadline is an upcoming compliance date.
type TaxDeadline struct {
	Type        TaxDeadlineType `json:"type"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Priority    Priority        `json:"priority"`
	Completed   bool            `json:"completed"`
	Amount      *float64        `json:"amount,omitempty"`
}

// TaxRiskAssessment is the result of assessing one tax year. OpenAlerts are
// the user's unresolved alerts at assessment time; they do not affect the score.
type TaxRiskAssessment struct {
	UserID     string        `json:"user_id"`
	Year       int           `json:"year"`
	RiskScore  int           `json:"risk_score"`
	RiskLevel  RiskLevel     `json:"risk_level"`
	Factors    []RiskFactor  `json:"factors"`
	Deadlines  []TaxDeadline `json:"deadlines"`
	OpenAlerts []RiskAlert   `json:"open_alerts"`
	AssessedAt time.Time     `json:"assessed_at"`
}

// RiskAlertType identifies what a compliance alert is about.
type RiskAlertType string

const (
	AlertMissingReceipt   RiskAlertType = "missing_receipt"
	AlertUpcomingDeadline RiskAlertType = "upcoming_deadline"
)

// RiskAlert is a compliance alert created by the engine and appended to the
// alert store. The engine never modifies stored alerts.
type RiskAlert struct {
	ID                    string        `json:"id"`
	UserID                string        `json:"user_id"`
	Type                  RiskAlertType `json:"type"`
	Severity              Severity      `json:"severity"`
	Title                 string        `json:"title"`
	Description           string        `json:"description"`
	RelatedTransactionIDs []string      `json:"related_transaction_ids,omitempty"`
	Deadline              *time.Time    `json:"deadline,omitempty"`
	Resolved              bool          `json:"resolved"`
	CreatedAt             time.Time     `json:"created_at"`
}
