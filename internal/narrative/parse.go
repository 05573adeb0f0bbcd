package narrative

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// DefaultRationale is used when the service response cannot be used.
const DefaultRationale = "We could not generate a personalized budget right now. Keep tracking your spending and try again later."

// ErrInvalidResponse marks a response that does not match the expected schema.
var ErrInvalidResponse = errors.New("invalid narrative response")

// Prose is a generated insight.
type Prose struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FallbackStrategy is the strategy returned when the service fails.
func FallbackStrategy() domain.BudgetStrategy {
	return domain.BudgetStrategy{
		Budgets:          []domain.BudgetAllocation{},
		Rationale:        DefaultRationale,
		ExpectedOutcomes: []string{},
		Fallback:         true,
	}
}

// ParseInsight validates a prose insight response.
func ParseInsight(raw []byte) (Prose, error) {
	var p Prose
	if err := json.Unmarshal([]byte(cleanModelJSON(string(raw))), &p); err != nil {
		return Prose{}, fmt.Errorf("ParseInsight: %w: %v", ErrInvalidResponse, err)
	}
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	if p.Title == "" || p.Description == "" {
		return Prose{}, fmt.Errorf("ParseInsight: %w: title and description are required", ErrInvalidResponse)
	}
	return p, nil
}

type strategyResponse struct {
	Budgets          *[]allocationResponse `json:"budgets"`
	Rationale        string                `json:"rationale"`
	ExpectedOutcomes json.RawMessage       `json:"expectedOutcomes"`
}

type allocationResponse struct {
	Category   string   `json:"category"`
	Amount     *float64 `json:"amount"`
	Percentage *float64 `json:"percentage"`
}

// ParseBudgetStrategy validates a budget strategy response. Every allocation
// needs a category, a non-negative amount and a percentage in [0,100].
func ParseBudgetStrategy(raw []byte) (domain.BudgetStrategy, error) {
	var resp strategyResponse
	if err := json.Unmarshal([]byte(cleanModelJSON(string(raw))), &resp); err != nil {
		return domain.BudgetStrategy{}, fmt.Errorf("ParseBudgetStrategy: %w: %v", ErrInvalidResponse, err)
	}
	if resp.Budgets == nil {
		return domain.BudgetStrategy{}, fmt.Errorf("ParseBudgetStrategy: %w: missing budgets", ErrInvalidResponse)
	}

	allocations := make([]domain.BudgetAllocation, 0, len(*resp.Budgets))
	for i, b := range *resp.Budgets {
		category := strings.TrimSpace(b.Category)
		switch {
		case category == "":
			return domain.BudgetStrategy{}, fmt.Errorf("ParseBudgetStrategy: %w: budget %d has no category", ErrInvalidResponse, i)
		case b.Amount == nil || *b.Amount < 0:
			return domain.BudgetStrategy{}, fmt.Errorf("ParseBudgetStrategy: %w: budget %q has an invalid amount", ErrInvalidResponse, category)
		case b.Percentage == nil || *b.Percentage < 0 || *b.Percentage > 100:
			return domain.BudgetStrategy{}, fmt.Errorf("ParseBudgetStrategy: %w: budget %q has an invalid percentage", ErrInvalidResponse, category)
		}
		allocations = append(allocations, domain.BudgetAllocation{
			Category:   category,
			Amount:     *b.Amount,
			Percentage: *b.Percentage,
		})
	}

	rationale := strings.TrimSpace(resp.Rationale)
	if rationale == "" {
		return domain.BudgetStrategy{}, fmt.Errorf("ParseBudgetStrategy: %w: missing rationale", ErrInvalidResponse)
	}

	outcomes, err := parseOutcomes(resp.ExpectedOutcomes)
	if err != nil {
		return domain.BudgetStrategy{}, fmt.Errorf("ParseBudgetStrategy: %w", err)
	}

	return domain.BudgetStrategy{
		Budgets:          allocations,
		Rationale:        rationale,
		ExpectedOutcomes: outcomes,
	}, nil
}

// parseOutcomes accepts a single string or a list of strings.
func parseOutcomes(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one = strings.TrimSpace(one); one == "" {
			return []string{}, nil
		}
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("%w: expectedOutcomes must be text or a list of text", ErrInvalidResponse)
	}
	out := make([]string, 0, len(many))
	for _, s := range many {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// cleanModelJSON strips Markdown fences and any text around the outermost
// JSON object of a model response.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}
