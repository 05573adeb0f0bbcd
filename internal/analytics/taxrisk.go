package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/rs/zerolog"
)

// Rule thresholds of the tax-risk checks.
const (
	CashAuditThreshold       = 10000.0
	LargeBusinessThreshold   = 1000.0
	LargeBusinessCountLimit  = 50
	LargeIncomeThreshold     = 5000.0
	DeductionBenchmarkFactor = 2.0

	businessCategory = "Business"
	salaryCategory   = "Salary"
)

// DeductionBenchmarks are the yearly per-category expense benchmarks.
var DeductionBenchmarks = map[string]float64{
	"Business":   25000,
	"Charitable": 5000,
	"Medical":    10000,
	"Education":  4000,
}

// DefaultDuplicateTimeout bounds the duplicate scan when the assessor has no
// explicit budget.
const DefaultDuplicateTimeout = 5 * time.Second

// TaxRiskInput is the snapshot assessed for one tax year.
type TaxRiskInput struct {
	UserID       string
	Year         int
	Transactions []domain.Transaction
	Documents    []domain.TaxDocument
	Unresolved   []domain.RiskAlert
	Now          time.Time
}

// riskCheck is one independent rule. A failing check contributes no factors.
type riskCheck struct {
	name string
	run  func(ctx context.Context, in TaxRiskInput, receipts receiptIndex) ([]domain.RiskFactor, error)
}

// Assessor runs the tax-risk rule checks.
type Assessor struct {
	DuplicateTimeout time.Duration
	Log              zerolog.Logger
	checks           []riskCheck
}

// NewAssessor creates an assessor with the standard rule set.
func NewAssessor(duplicateTimeout time.Duration, log zerolog.Logger) *Assessor {
	if duplicateTimeout <= 0 {
		duplicateTimeout = DefaultDuplicateTimeout
	}
	a := &Assessor{DuplicateTimeout: duplicateTimeout, Log: log}
	a.checks = []riskCheck{
		{name: "audit_triggers", run: checkAuditTriggers},
		{name: "missing_documentation", run: checkMissingDocumentation},
		{name: "unusual_deductions", run: checkUnusualDeductions},
		{name: "income_discrepancies", run: checkIncomeDiscrepancies},
		{name: "duplicate_expenses", run: a.checkDuplicates},
	}
	return a
}

// Assess runs every check and aggregates the factors into a score, level and
// the upcoming deadlines of the year. The result depends only on the input
// snapshot and in.Now.
func (a *Assessor) Assess(ctx context.Context, in TaxRiskInput) domain.TaxRiskAssessment {
	receipts := newReceiptIndex(in.Transactions, in.Documents)

	factors := []domain.RiskFactor{}
	for _, c := range a.checks {
		factors = append(factors, a.runCheck(ctx, c, in, receipts)...)
	}

	open := make([]domain.RiskAlert, len(in.Unresolved))
	copy(open, in.Unresolved)

	score := RiskScore(factors)
	return domain.TaxRiskAssessment{
		UserID:     in.UserID,
		Year:       in.Year,
		RiskScore:  score,
		RiskLevel:  RiskLevelFor(score),
		Factors:    factors,
		Deadlines:  TaxDeadlines(in.Year, in.Now),
		OpenAlerts: open,
		AssessedAt: in.Now,
	}
}

func (a *Assessor) runCheck(ctx context.Context, c riskCheck, in TaxRiskInput, receipts receiptIndex) (factors []domain.RiskFactor) {
	defer func() {
		if r := recover(); r != nil {
			a.Log.Error().
				Str("check", c.name).
				Str("user_id", in.UserID).
				Interface("panic", r).
				Msg("Tax risk check panicked")
			factors = nil
		}
	}()

	out, err := c.run(ctx, in, receipts)
	if err != nil {
		a.Log.Warn().
			Err(err).
			Str("check", c.name).
			Str("user_id", in.UserID).
			Msg("Tax risk check failed, skipping")
		return nil
	}
	for _, f := range out {
		if !f.Severity.Valid() {
			a.Log.Warn().Str("check", c.name).Str("severity", string(f.Severity)).Msg("Dropping factor with invalid severity")
			return nil
		}
	}
	return out
}

// SeverityWeight is the score contribution of one factor.
func SeverityWeight(s domain.Severity) int {
	switch s {
	case domain.SeverityHigh:
		return 50
	case domain.SeverityMedium:
		return 25
	case domain.SeverityLow:
		return 10
	}
	return 0
}

// RiskScore sums the severity weights, capped at 100.
func RiskScore(factors []domain.RiskFactor) int {
	total := 0
	for _, f := range factors {
		total += SeverityWeight(f.Severity)
	}
	if total > 100 {
		return 100
	}
	return total
}

// RiskLevelFor maps a score to its level.
func RiskLevelFor(score int) domain.RiskLevel {
	switch {
	case score >= 80:
		return domain.RiskCritical
	case score >= 50:
		return domain.RiskHigh
	case score >= 25:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func isBusiness(t domain.Transaction) bool {
	return strings.EqualFold(strings.TrimSpace(t.Category), businessCategory)
}

func checkAuditTriggers(_ context.Context, in TaxRiskInput, _ receiptIndex) ([]domain.RiskFactor, error) {
	var factors []domain.RiskFactor

	var cashIDs []string
	largeBusiness := 0
	for _, t := range in.Transactions {
		if t.Magnitude() > CashAuditThreshold && strings.Contains(strings.ToLower(t.Description), "cash") {
			cashIDs = append(cashIDs, t.ID)
		}
		if isBusiness(t) && t.Magnitude() > LargeBusinessThreshold {
			largeBusiness++
		}
	}

	if len(cashIDs) > 0 {
		factors = append(factors, domain.RiskFactor{
			Type:                  domain.RiskAuditTrigger,
			Severity:              domain.SeverityHigh,
			Description:           fmt.Sprintf("%d cash transaction(s) over $%.0f may trigger reporting requirements", len(cashIDs), CashAuditThreshold),
			RelatedTransactionIDs: cashIDs,
			SuggestedAction:       "Keep records explaining the source and purpose of large cash transactions",
		})
	}
	if largeBusiness > LargeBusinessCountLimit {
		factors = append(factors, domain.RiskFactor{
			Type:            domain.RiskAuditTrigger,
			Severity:        domain.SeverityMedium,
			Description:     fmt.Sprintf("%d business transactions over $%.0f this year", largeBusiness, LargeBusinessThreshold),
			SuggestedAction: "Make sure every large business expense is documented and clearly business-related",
		})
	}
	return factors, nil
}

func checkMissingDocumentation(_ context.Context, in TaxRiskInput, receipts receiptIndex) ([]domain.RiskFactor, error) {
	var ids []string
	for _, t := range in.Transactions {
		if isBusiness(t) && !receipts.has(t) {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	deadline := AnnualFilingDate(in.Year)
	return []domain.RiskFactor{{
		Type:                  domain.RiskMissingDocumentation,
		Severity:              domain.SeverityMedium,
		Description:           fmt.Sprintf("%d business transaction(s) have no receipt or supporting document", len(ids)),
		RelatedTransactionIDs: ids,
		SuggestedAction:       "Upload receipts for these business expenses before filing",
		Deadline:              &deadline,
	}}, nil
}

func checkUnusualDeductions(_ context.Context, in TaxRiskInput, _ receiptIndex) ([]domain.RiskFactor, error) {
	byCategory := SumExpensesByCategory(in.Transactions)

	names := make([]string, 0, len(DeductionBenchmarks))
	for name := range DeductionBenchmarks {
		names = append(names, name)
	}
	sort.Strings(names)

	var factors []domain.RiskFactor
	for _, name := range names {
		benchmark := DeductionBenchmarks[name]
		var total float64
		for cat, sum := range byCategory {
			if strings.EqualFold(strings.TrimSpace(cat), name) {
				total += sum
			}
		}
		if total > benchmark*DeductionBenchmarkFactor {
			factors = append(factors, domain.RiskFactor{
				Type:            domain.RiskUnusualDeduction,
				Severity:        domain.SeverityMedium,
				Description:     fmt.Sprintf("%s expenses of $%.2f are more than twice the typical $%.0f", name, total, benchmark),
				SuggestedAction: fmt.Sprintf("Review %s deductions and keep documentation for each", strings.ToLower(name)),
			})
		}
	}
	return factors, nil
}

func checkIncomeDiscrepancies(_ context.Context, in TaxRiskInput, _ receiptIndex) ([]domain.RiskFactor, error) {
	var ids []string
	for _, t := range in.Transactions {
		if t.IsIncome() && t.Amount > LargeIncomeThreshold && !strings.EqualFold(strings.TrimSpace(t.Category), salaryCategory) {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return []domain.RiskFactor{{
		Type:                  domain.RiskIncomeDiscrepancy,
		Severity:              domain.SeverityMedium,
		Description:           fmt.Sprintf("%d large non-salary income transaction(s) over $%.0f", len(ids), LargeIncomeThreshold),
		RelatedTransactionIDs: ids,
		SuggestedAction:       "Confirm this income is reported and matches the forms you expect to receive",
	}}, nil
}

func (a *Assessor) checkDuplicates(ctx context.Context, in TaxRiskInput, _ receiptIndex) ([]domain.RiskFactor, error) {
	ctx, cancel := context.WithTimeout(ctx, a.DuplicateTimeout)
	defer cancel()

	pairs, err := DetectDuplicates(ctx, in.Transactions)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("duplicate scan exceeded %s over %d transactions: %w", a.DuplicateTimeout, len(in.Transactions), err)
		}
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	return []domain.RiskFactor{{
		Type:            domain.RiskDuplicateExpense,
		Severity:        domain.SeverityHigh,
		Description:     fmt.Sprintf("Found %d potential duplicate transaction pair(s)", len(pairs)),
		SuggestedAction: "Review the duplicates and make sure each expense is deducted only once",
	}}, nil
}

// receiptIndex answers whether a transaction has a receipt reference: an
// attached receipt URL or a tax document linked to it.
type receiptIndex map[string]bool

func newReceiptIndex(txs []domain.Transaction, docs []domain.TaxDocument) receiptIndex {
	idx := make(receiptIndex)
	for _, t := range txs {
		if t.HasReceipt() {
			idx[t.ID] = true
		}
	}
	for _, d := range docs {
		for _, id := range d.RelatedTransactionIDs {
			idx[id] = true
		}
	}
	return idx
}

func (r receiptIndex) has(t domain.Transaction) bool {
	return t.HasReceipt() || r[t.ID]
}
