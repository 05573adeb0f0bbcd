package analytics

import "github.com/dvloznov/finance-analytics/internal/domain"

// Anomaly is a finding of one of the anomaly detectors.
type Anomaly struct {
	Kind                  string
	Description           string
	RelatedTransactionIDs []string
}

// The detectors below are extension points. No detection rules have been
// specified for them yet, so they return no findings.

// DetectSpendingAnomalies reports unusual spending amounts.
func DetectSpendingAnomalies(_ []domain.Transaction) []Anomaly {
	return []Anomaly{}
}

// DetectPatternAnomalies reports unusual merchant/category patterns.
func DetectPatternAnomalies(_ []domain.Transaction) []Anomaly {
	return []Anomaly{}
}

// DetectTimingAnomalies reports unusual transaction timing.
func DetectTimingAnomalies(_ []domain.Transaction) []Anomaly {
	return []Anomaly{}
}
