package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/finance-analytics/internal/jobs"
	"github.com/dvloznov/finance-analytics/internal/logger"
)

// HandleJob runs a queued analysis job and returns its encoded result. It
// satisfies jobs.JobHandler.
func (s *Service) HandleJob(ctx context.Context, job *jobs.AnalysisJob) (json.RawMessage, error) {
	log := s.log.With().
		Str("job_id", job.JobID).
		Str("job_type", string(job.Type)).
		Str("user_id", job.UserID).
		Logger()
	ctx = logger.WithContext(ctx, log)

	var result any
	switch job.Type {
	case jobs.JobTypeTaxRiskAssessment:
		assessment, err := s.AssessTaxRisk(ctx, job.UserID, job.Year)
		if err != nil {
			return nil, err
		}
		result = assessment
	case jobs.JobTypeComplianceMonitoring:
		alerts, err := s.MonitorCompliance(ctx, job.UserID)
		if err != nil {
			return nil, err
		}
		result = map[string]any{
			"alerts": alerts,
			"count":  len(alerts),
		}
	default:
		return nil, fmt.Errorf("HandleJob: unknown job type %q", job.Type)
	}

	body, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("HandleJob: encode result: %w", err)
	}
	log.Debug().Int("bytes", len(body)).Msg("Job result encoded")
	return body, nil
}
