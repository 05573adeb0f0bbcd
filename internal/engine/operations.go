package engine

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/narrative"
)

const minTaxYear = 1900

// HealthScore scores the user's financial health from the last 90 days of
// transactions, active goals and budgets, and accounts.
func (s *Service) HealthScore(ctx context.Context, userID string) (domain.HealthScore, error) {
	if err := validateUser(userID); err != nil {
		return domain.HealthScore{}, s.fail(OpHealthScore, userID, err)
	}
	now := s.now()

	snap, err := s.fetch(ctx, userID, fetchSpec{
		start:        now.AddDate(0, 0, -healthWindowDays),
		end:          now,
		transactions: true,
		accounts:     true,
		budgets:      true,
		goals:        true,
	})
	if err != nil {
		return domain.HealthScore{}, s.fail(OpHealthScore, userID, err)
	}

	score := analytics.ScoreHealth(analytics.HealthInputs{
		Transactions: snap.transactions,
		Goals:        snap.goals,
		Budgets:      snap.budgets,
		Accounts:     snap.accounts,
	})
	s.log.Info().
		Str("operation", string(OpHealthScore)).
		Str("user_id", userID).
		Int("overall", score.Overall).
		Msg("Health score computed")
	return score, nil
}

// PredictCashFlow projects the user's total balance daysAhead days forward.
// daysAhead <= 0 selects the default horizon.
func (s *Service) PredictCashFlow(ctx context.Context, userID string, daysAhead int) ([]domain.CashFlowPrediction, error) {
	if err := validateUser(userID); err != nil {
		return nil, s.fail(OpCashFlowPrediction, userID, err)
	}
	now := s.now()

	snap, err := s.fetch(ctx, userID, fetchSpec{
		start:        now.AddDate(0, 0, -cashFlowWindowDays),
		end:          now,
		transactions: true,
		accounts:     true,
	})
	if err != nil {
		return nil, s.fail(OpCashFlowPrediction, userID, err)
	}

	avg := analytics.AverageDailySpending(snap.transactions, now)
	balance := analytics.TotalBalance(snap.accounts)
	return analytics.ProjectCashFlow(balance, avg, now, analytics.ProjectionOptions{DaysAhead: daysAhead}), nil
}

// AssessTaxRisk assesses the given calendar year. year <= 0 selects the
// current year.
func (s *Service) AssessTaxRisk(ctx context.Context, userID string, year int) (domain.TaxRiskAssessment, error) {
	if err := validateUser(userID); err != nil {
		return domain.TaxRiskAssessment{}, s.fail(OpTaxRiskAssessment, userID, err)
	}
	now := s.now()
	if year <= 0 {
		year = now.Year()
	}
	if year < minTaxYear || year > now.Year()+1 {
		return domain.TaxRiskAssessment{}, s.fail(OpTaxRiskAssessment, userID, fmt.Errorf("%w: tax year %d", ErrInvalidArgument, year))
	}

	assessment, err := s.assessTaxRisk(ctx, userID, year)
	if err != nil {
		return domain.TaxRiskAssessment{}, s.fail(OpTaxRiskAssessment, userID, err)
	}
	s.log.Info().
		Str("operation", string(OpTaxRiskAssessment)).
		Str("user_id", userID).
		Int("year", year).
		Int("risk_score", assessment.RiskScore).
		Str("risk_level", string(assessment.RiskLevel)).
		Int("factors", len(assessment.Factors)).
		Msg("Tax risk assessed")
	return assessment, nil
}

func (s *Service) assessTaxRisk(ctx context.Context, userID string, year int) (domain.TaxRiskAssessment, error) {
	start, end := yearBounds(year)
	snap, err := s.fetch(ctx, userID, fetchSpec{
		start:        start,
		end:          end,
		year:         year,
		transactions: true,
		documents:    true,
		unresolved:   true,
	})
	if err != nil {
		return domain.TaxRiskAssessment{}, err
	}

	return s.assessor.Assess(ctx, analytics.TaxRiskInput{
		UserID:       userID,
		Year:         year,
		Transactions: snap.transactions,
		Documents:    snap.documents,
		Unresolved:   snap.unresolved,
		Now:          s.now(),
	}), nil
}

// MonitorCompliance runs the compliance pass for the current year and
// appends the new alerts. Alerts that fail to persist are logged and left
// out of the result.
func (s *Service) MonitorCompliance(ctx context.Context, userID string) ([]domain.RiskAlert, error) {
	if err := validateUser(userID); err != nil {
		return nil, s.fail(OpComplianceMonitoring, userID, err)
	}
	now := s.now()
	year := now.Year()
	start, end := yearBounds(year)

	snap, err := s.fetch(ctx, userID, fetchSpec{
		start:        start,
		end:          end,
		year:         year,
		transactions: true,
		documents:    true,
		unresolved:   true,
	})
	if err != nil {
		return nil, s.fail(OpComplianceMonitoring, userID, err)
	}

	candidates := analytics.MonitorCompliance(analytics.ComplianceInput{
		UserID:       userID,
		Year:         year,
		Transactions: snap.transactions,
		Documents:    snap.documents,
		Unresolved:   snap.unresolved,
		Now:          now,
	})

	raised := make([]domain.RiskAlert, 0, len(candidates))
	for _, alert := range candidates {
		id, err := s.deps.Alerts.AppendAlert(ctx, alert)
		if err != nil {
			s.log.Error().
				Err(err).
				Str("user_id", userID).
				Str("alert_type", string(alert.Type)).
				Msg("Failed to append risk alert")
			continue
		}
		alert.ID = id
		raised = append(raised, alert)

		if s.deps.Publisher != nil {
			if err := s.deps.Publisher.PublishAlertRaised(ctx, alert); err != nil {
				s.log.Warn().
					Err(err).
					Str("alert_id", id).
					Msg("Failed to publish alert raised event")
			}
		}
	}

	s.log.Info().
		Str("operation", string(OpComplianceMonitoring)).
		Str("user_id", userID).
		Int("raised", len(raised)).
		Int("already_open", len(snap.unresolved)).
		Msg("Compliance monitoring completed")
	return raised, nil
}

// PersonalizedInsights derives the user's insights, appends them to the
// insight store and returns them highest priority first. The tax-risk and
// narrative insights are best effort.
func (s *Service) PersonalizedInsights(ctx context.Context, userID string) ([]domain.Insight, error) {
	if err := validateUser(userID); err != nil {
		return nil, s.fail(OpPersonalizedInsights, userID, err)
	}
	now := s.now()

	snap, err := s.fetch(ctx, userID, fetchSpec{
		start:        now.AddDate(0, 0, -healthWindowDays),
		end:          now,
		transactions: true,
		accounts:     true,
		budgets:      true,
		goals:        true,
	})
	if err != nil {
		return nil, s.fail(OpPersonalizedInsights, userID, err)
	}

	health := analytics.ScoreHealth(analytics.HealthInputs{
		Transactions: snap.transactions,
		Goals:        snap.goals,
		Budgets:      snap.budgets,
		Accounts:     snap.accounts,
	})
	summary := analytics.Summarize(snap.transactions)

	var taxRisk *domain.TaxRiskAssessment
	if assessment, err := s.assessTaxRisk(ctx, userID, now.Year()); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Skipping tax risk insights")
	} else {
		taxRisk = &assessment
	}

	insights := analytics.BuildInsights(analytics.InsightFacts{
		UserID:  userID,
		Health:  health,
		Summary: summary,
		Goals:   snap.goals,
		TaxRisk: taxRisk,
		Now:     now,
	})

	if prose, ok := s.narrativeInsight(ctx, userID, health, summary, snap.goals, taxRisk); ok {
		insights = append(insights, domain.Insight{
			UserID:      userID,
			Type:        domain.InsightNarrative,
			Title:       prose.Title,
			Description: prose.Description,
			Priority:    domain.PriorityMedium,
			CreatedAt:   now,
		})
		analytics.SortInsights(insights)
	}

	stored := make([]domain.Insight, 0, len(insights))
	for _, in := range insights {
		id, err := s.deps.Insights.AppendInsight(ctx, in)
		if err != nil {
			s.log.Error().
				Err(err).
				Str("user_id", userID).
				Str("insight_type", string(in.Type)).
				Msg("Failed to append insight")
			continue
		}
		if id != "" {
			in.ID = id
		}
		stored = append(stored, in)
	}
	return stored, nil
}

func (s *Service) narrativeInsight(ctx context.Context, userID string, health domain.HealthScore, summary domain.SpendingSummary, goals []domain.FinancialGoal, taxRisk *domain.TaxRiskAssessment) (narrative.Prose, bool) {
	if s.deps.Narrative == nil {
		return narrative.Prose{}, false
	}

	top := summary.ByCategory
	if len(top) > 5 {
		top = top[:5]
	}
	facts := narrative.InsightFacts{
		Task:            narrative.TaskInsights,
		HealthScore:     health,
		MonthlyIncome:   summary.MonthlyIncome,
		MonthlyExpenses: summary.MonthlyExpenses,
		TopCategories:   top,
		Goals:           narrative.NewGoalFacts(goals),
	}
	if taxRisk != nil {
		facts.RiskFactors = taxRisk.Factors
		facts.RiskLevel = taxRisk.RiskLevel
	}

	raw, err := s.callNarrative(ctx, facts)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Narrative insight unavailable")
		return narrative.Prose{}, false
	}
	prose, err := narrative.ParseInsight(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Discarding narrative insight")
		return narrative.Prose{}, false
	}
	return prose, true
}

// ListInsights returns the stored insights of a user.
func (s *Service) ListInsights(ctx context.Context, userID string, unreadOnly bool) ([]domain.Insight, error) {
	if err := validateUser(userID); err != nil {
		return nil, s.fail(OpListInsights, userID, err)
	}
	insights, err := s.deps.Insights.ListInsights(ctx, userID, unreadOnly)
	if err != nil {
		return nil, s.fail(OpListInsights, userID, fmt.Errorf("list insights: %w", err))
	}
	return insights, nil
}

// OptimizeBudget asks the narrative service for a budget allocation. Any
// service failure yields the fallback strategy rather than an error.
func (s *Service) OptimizeBudget(ctx context.Context, userID string) (domain.BudgetStrategy, error) {
	if err := validateUser(userID); err != nil {
		return domain.BudgetStrategy{}, s.fail(OpBudgetOptimization, userID, err)
	}
	now := s.now()

	snap, err := s.fetch(ctx, userID, fetchSpec{
		start:        now.AddDate(0, 0, -healthWindowDays),
		end:          now,
		transactions: true,
		budgets:      true,
		goals:        true,
	})
	if err != nil {
		return domain.BudgetStrategy{}, s.fail(OpBudgetOptimization, userID, err)
	}

	summary := analytics.Summarize(snap.transactions)
	raw, err := s.callNarrative(ctx, narrative.BudgetFacts{
		Task:            narrative.TaskBudgetOptimization,
		MonthlyIncome:   summary.MonthlyIncome,
		MonthlyExpenses: summary.MonthlyExpenses,
		Categories:      summary.ByCategory,
		Budgets:         narrative.NewBudgetFacts(snap.budgets),
		Goals:           narrative.NewGoalFacts(snap.goals),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Budget strategy unavailable, using fallback")
		return narrative.FallbackStrategy(), nil
	}

	strategy, err := narrative.ParseBudgetStrategy(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Invalid budget strategy, using fallback")
		return narrative.FallbackStrategy(), nil
	}
	return strategy, nil
}
