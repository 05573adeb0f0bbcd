package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/jobs"
)

func TestHandleJob(t *testing.T) {
	s := newFixture().service(t, Options{})

	t.Run("tax risk defaults to current year", func(t *testing.T) {
		body, err := s.HandleJob(context.Background(), &jobs.AnalysisJob{
			JobID:  "job-1",
			Type:   jobs.JobTypeTaxRiskAssessment,
			UserID: "user-1",
		})
		if err != nil {
			t.Fatalf("HandleJob() error = %v", err)
		}
		var got domain.TaxRiskAssessment
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("result is not an assessment: %v", err)
		}
		if got.Year != fixedNow.Year() || got.UserID != "user-1" {
			t.Errorf("assessment = %+v", got)
		}
	})

	t.Run("compliance reports alert count", func(t *testing.T) {
		body, err := s.HandleJob(context.Background(), &jobs.AnalysisJob{
			JobID:  "job-2",
			Type:   jobs.JobTypeComplianceMonitoring,
			UserID: "user-1",
		})
		if err != nil {
			t.Fatalf("HandleJob() error = %v", err)
		}
		var got struct {
			Alerts []domain.RiskAlert `json:"alerts"`
			Count  int                `json:"count"`
		}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if got.Count != len(got.Alerts) {
			t.Errorf("count = %d, alerts = %d", got.Count, len(got.Alerts))
		}
	})

	t.Run("operation errors propagate", func(t *testing.T) {
		_, err := s.HandleJob(context.Background(), &jobs.AnalysisJob{
			Type:   jobs.JobTypeTaxRiskAssessment,
			UserID: "user-1",
			Year:   1700,
		})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("HandleJob() error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := s.HandleJob(context.Background(), &jobs.AnalysisJob{Type: "reindex", UserID: "user-1"}); err == nil {
			t.Error("HandleJob() error = nil, want error")
		}
	})
}
