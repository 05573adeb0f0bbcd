package narrative

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced bare", "```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"surrounding prose", "Here is your budget:\n{\"a\":{\"b\":2}}\nGood luck!", `{"a":{"b":2}}`},
		{"no object", "sorry, I can't help", "sorry, I can't help"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseBudgetStrategy(t *testing.T) {
	raw := "```json\n" + `{
		"budgets": [
			{"category": "Housing", "amount": 1500, "percentage": 30},
			{"category": " Food ", "amount": 600, "percentage": 12.5}
		],
		"rationale": "Keep housing at 30%.",
		"expectedOutcomes": ["Save $500 a month", " "]
	}` + "\n```"

	got, err := ParseBudgetStrategy([]byte(raw))
	if err != nil {
		t.Fatalf("ParseBudgetStrategy() error = %v", err)
	}

	want := domain.BudgetStrategy{
		Budgets: []domain.BudgetAllocation{
			{Category: "Housing", Amount: 1500, Percentage: 30},
			{Category: "Food", Amount: 600, Percentage: 12.5},
		},
		Rationale:        "Keep housing at 30%.",
		ExpectedOutcomes: []string{"Save $500 a month"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseBudgetStrategy() = %+v, want %+v", got, want)
	}
}

func TestParseBudgetStrategy_OutcomesAsText(t *testing.T) {
	raw := `{"budgets": [], "rationale": "Fine as is.", "expectedOutcomes": "More savings"}`

	got, err := ParseBudgetStrategy([]byte(raw))
	if err != nil {
		t.Fatalf("ParseBudgetStrategy() error = %v", err)
	}
	if !reflect.DeepEqual(got.ExpectedOutcomes, []string{"More savings"}) {
		t.Errorf("ExpectedOutcomes = %v", got.ExpectedOutcomes)
	}
	if got.Budgets == nil || len(got.Budgets) != 0 {
		t.Errorf("Expected empty budgets, got %v", got.Budgets)
	}
}

func TestParseBudgetStrategy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "I think you should spend less."},
		{"truncated", `{"budgets": [{"category": "Food"`},
		{"missing budgets", `{"rationale": "x"}`},
		{"budgets not a list", `{"budgets": "none", "rationale": "x"}`},
		{"empty category", `{"budgets": [{"category": " ", "amount": 1, "percentage": 1}], "rationale": "x"}`},
		{"negative amount", `{"budgets": [{"category": "Food", "amount": -1, "percentage": 1}], "rationale": "x"}`},
		{"missing amount", `{"budgets": [{"category": "Food", "percentage": 1}], "rationale": "x"}`},
		{"percentage over 100", `{"budgets": [{"category": "Food", "amount": 1, "percentage": 101}], "rationale": "x"}`},
		{"amount as text", `{"budgets": [{"category": "Food", "amount": "lots", "percentage": 1}], "rationale": "x"}`},
		{"missing rationale", `{"budgets": []}`},
		{"outcomes as number", `{"budgets": [], "rationale": "x", "expectedOutcomes": 3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBudgetStrategy([]byte(tt.raw))
			if !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("Expected ErrInvalidResponse, got %v", err)
			}
		})
	}
}

func TestFallbackStrategy(t *testing.T) {
	got := FallbackStrategy()
	if !got.Fallback || got.Rationale != DefaultRationale {
		t.Errorf("Unexpected fallback %+v", got)
	}
	if got.Budgets == nil || len(got.Budgets) != 0 {
		t.Errorf("Expected empty non-nil budgets, got %v", got.Budgets)
	}
}

func TestParseInsight(t *testing.T) {
	got, err := ParseInsight([]byte("```json\n{\"title\": \" Nice work \", \"description\": \"You saved 20%.\"}\n```"))
	if err != nil {
		t.Fatalf("ParseInsight() error = %v", err)
	}
	if got.Title != "Nice work" || got.Description != "You saved 20%." {
		t.Errorf("ParseInsight() = %+v", got)
	}

	for _, raw := range []string{`{"title": "only title"}`, `[]`, `nope`} {
		if _, err := ParseInsight([]byte(raw)); !errors.Is(err, ErrInvalidResponse) {
			t.Errorf("ParseInsight(%q) error = %v, want ErrInvalidResponse", raw, err)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	facts, err := Encode(BudgetFacts{Task: TaskBudgetOptimization, MonthlyIncome: 4000})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	task, err := taskOf(facts)
	if err != nil || task != TaskBudgetOptimization {
		t.Fatalf("taskOf() = %q, %v", task, err)
	}
	prompt, err := buildPrompt(task, facts)
	if err != nil {
		t.Fatalf("buildPrompt() error = %v", err)
	}
	if !strings.Contains(prompt, "expectedOutcomes") || !strings.Contains(prompt, `"monthly_income":4000`) {
		t.Errorf("Prompt is missing schema or facts:\n%s", prompt)
	}

	if _, err := taskOf([]byte(`{"task": "poetry"}`)); err == nil {
		t.Error("Expected error for unknown task")
	}
}
