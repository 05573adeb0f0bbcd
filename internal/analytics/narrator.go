package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/google/uuid"
)

const (
	tierExcellent      = "excellent"
	tierGood           = "good"
	tierNeedsAttention = "needs attention"

	calloutEmergency = 60
	calloutSavings   = 50
	calloutBudget    = 60

	// topCategoryShare is the share of spending that makes a category worth
	// calling out.
	topCategoryShare = 0.3
	// goalLagTolerance is how far progress may trail the linear schedule.
	goalLagTolerance = 0.1
)

// HealthTier names the band an overall score falls in.
func HealthTier(overall int) string {
	switch {
	case overall >= 80:
		return tierExcellent
	case overall >= 60:
		return tierGood
	default:
		return tierNeedsAttention
	}
}

// HealthNarrative produces the short insight lines and recommendations that
// accompany a health score.
func HealthNarrative(overall int, cats domain.HealthCategories) (insights, recs []string) {
	insights = []string{fmt.Sprintf("Your financial health is %s (%d/100)", HealthTier(overall), overall)}
	recs = []string{}

	if cats.Emergency < calloutEmergency {
		insights = append(insights, "Your emergency fund covers less than a month of expenses")
		recs = append(recs, "Build an emergency fund covering 3-6 months of expenses")
	}
	if cats.Savings < calloutSavings {
		insights = append(insights, "Your savings rate is below 10% of income")
		recs = append(recs, "Aim to save at least 20% of your monthly income")
	}
	if cats.Budget < calloutBudget {
		insights = append(insights, "Some budgets are over their limits")
		recs = append(recs, "Review the budgets you are exceeding and adjust spending or limits")
	}
	return insights, recs
}

// InsightFacts are the computed results the rule insights are derived from.
type InsightFacts struct {
	UserID  string
	Health  domain.HealthScore
	Summary domain.SpendingSummary
	Goals   []domain.FinancialGoal
	// TaxRisk is nil when the assessment could not be produced.
	TaxRisk *domain.TaxRiskAssessment
	Now     time.Time
}

// BuildInsights derives the rule-based insights, highest priority first.
func BuildInsights(f InsightFacts) []domain.Insight {
	var out []domain.Insight
	add := func(typ domain.InsightType, prio domain.Priority, actionable bool, title, desc string, data map[string]any) {
		out = append(out, domain.Insight{
			ID:          uuid.New().String(),
			UserID:      f.UserID,
			Type:        typ,
			Title:       title,
			Description: desc,
			Actionable:  actionable,
			Priority:    prio,
			Data:        data,
			CreatedAt:   f.Now,
		})
	}

	tier := HealthTier(f.Health.Overall)
	healthPrio := domain.PriorityLow
	switch tier {
	case tierGood:
		healthPrio = domain.PriorityMedium
	case tierNeedsAttention:
		healthPrio = domain.PriorityHigh
	}
	add(domain.InsightHealthScore, healthPrio, tier != tierExcellent,
		fmt.Sprintf("Financial health: %s", tier),
		fmt.Sprintf("Your overall financial health score is %d/100.", f.Health.Overall),
		map[string]any{"overall": f.Health.Overall})

	c := f.Health.Categories
	if c.Emergency < calloutEmergency {
		add(domain.InsightHealthScore, domain.PriorityHigh, true,
			"Emergency fund is low",
			"Build an emergency fund covering 3-6 months of expenses.",
			map[string]any{"emergency_score": c.Emergency})
	}
	if c.Savings < calloutSavings {
		add(domain.InsightHealthScore, domain.PriorityMedium, true,
			"Savings rate is low",
			"Aim to save at least 20% of your monthly income.",
			map[string]any{"savings_score": c.Savings})
	}
	if c.Budget < calloutBudget {
		add(domain.InsightHealthScore, domain.PriorityMedium, true,
			"Budgets are over their limits",
			"Review the budgets you are exceeding and adjust spending or limits.",
			map[string]any{"budget_score": c.Budget})
	}

	if top, share, ok := topCategory(f.Summary); ok && share >= topCategoryShare {
		add(domain.InsightSpendingPattern, domain.PriorityMedium, true,
			fmt.Sprintf("%s is your largest expense", top.Category),
			fmt.Sprintf("%s accounts for %.0f%% of your spending ($%.2f).", top.Category, share*100, top.Total),
			map[string]any{"category": top.Category, "total": top.Total, "share": share})
	}

	for _, g := range f.Goals {
		status, lag := goalStatus(g, f.Now)
		switch status {
		case goalOverdue:
			add(domain.InsightGoalProgress, domain.PriorityHigh, true,
				fmt.Sprintf("Goal %q is past its target date", g.Name),
				fmt.Sprintf("You have saved $%.2f of $%.2f. Consider a new target date or a higher contribution.", g.CurrentAmount, g.TargetAmount),
				map[string]any{"goal_id": g.ID})
		case goalBehind:
			add(domain.InsightGoalProgress, domain.PriorityMedium, true,
				fmt.Sprintf("Goal %q is behind schedule", g.Name),
				fmt.Sprintf("Progress trails the schedule by %.0f%% of the target.", lag*100),
				map[string]any{"goal_id": g.ID, "lag": lag})
		}
	}

	if f.TaxRisk != nil {
		for _, factor := range f.TaxRisk.Factors {
			if factor.Severity != domain.SeverityHigh {
				continue
			}
			add(domain.InsightTaxRisk, domain.PriorityHigh, true,
				"Tax risk: "+string(factor.Type),
				factor.Description+". "+factor.SuggestedAction,
				map[string]any{"risk_score": f.TaxRisk.RiskScore, "related_transaction_ids": factor.RelatedTransactionIDs})
		}
	}

	SortInsights(out)
	return out
}

// SortInsights orders insights by priority, keeping the relative order of
// equal priorities.
func SortInsights(in []domain.Insight) {
	sort.SliceStable(in, func(i, j int) bool {
		return priorityRank(in[i].Priority) > priorityRank(in[j].Priority)
	})
}

func priorityRank(p domain.Priority) int {
	switch p {
	case domain.PriorityHigh:
		return 3
	case domain.PriorityMedium:
		return 2
	case domain.PriorityLow:
		return 1
	}
	return 0
}

func topCategory(s domain.SpendingSummary) (domain.CategoryTotal, float64, bool) {
	if len(s.ByCategory) == 0 {
		return domain.CategoryTotal{}, 0, false
	}
	var total float64
	for _, c := range s.ByCategory {
		total += c.Total
	}
	if total <= 0 {
		return domain.CategoryTotal{}, 0, false
	}
	top := s.ByCategory[0]
	return top, top.Total / total, true
}

type goalProgress int

const (
	goalOnTrack goalProgress = iota
	goalBehind
	goalOverdue
)

// goalStatus compares saved progress against a linear schedule from the
// goal's creation to its target date.
func goalStatus(g domain.FinancialGoal, now time.Time) (goalProgress, float64) {
	if g.TargetAmount <= 0 || g.CurrentAmount >= g.TargetAmount {
		return goalOnTrack, 0
	}
	if !g.TargetDate.IsZero() && now.After(g.TargetDate) {
		return goalOverdue, 0
	}
	if g.CreatedAt.IsZero() || g.TargetDate.IsZero() || !g.TargetDate.After(g.CreatedAt) {
		return goalOnTrack, 0
	}
	elapsed := clampUnit(float64(now.Sub(g.CreatedAt)) / float64(g.TargetDate.Sub(g.CreatedAt)))
	progress := g.CurrentAmount / g.TargetAmount
	lag := elapsed - progress
	if lag > goalLagTolerance {
		return goalBehind, lag
	}
	return goalOnTrack, 0
}
