package engine

import (
	"errors"
	"fmt"
)

// Operation names a top-level engine operation.
type Operation string

const (
	OpHealthScore          Operation = "health_score"
	OpCashFlowPrediction   Operation = "cash_flow_prediction"
	OpTaxRiskAssessment    Operation = "tax_risk_assessment"
	OpComplianceMonitoring Operation = "compliance_monitoring"
	OpPersonalizedInsights Operation = "personalized_insights"
	OpBudgetOptimization   Operation = "budget_optimization"
	OpListInsights         Operation = "list_insights"
)

// ErrInvalidArgument is returned for a request the engine cannot serve, such
// as an empty user id or an out-of-range tax year.
var ErrInvalidArgument = errors.New("invalid argument")

// OperationError is the single failure an operation surfaces.
type OperationError struct {
	Op     Operation
	UserID string
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed for user %q: %v", e.Op, e.UserID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
