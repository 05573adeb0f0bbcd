package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/finance-analytics/internal/api/middleware"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/engine"
	"github.com/dvloznov/finance-analytics/internal/jobs"
	"github.com/dvloznov/finance-analytics/internal/logger"
)

// Analyzer is the engine surface the HTTP API exposes.
type Analyzer interface {
	HealthScore(ctx context.Context, userID string) (domain.HealthScore, error)
	PredictCashFlow(ctx context.Context, userID string, daysAhead int) ([]domain.CashFlowPrediction, error)
	AssessTaxRisk(ctx context.Context, userID string, year int) (domain.TaxRiskAssessment, error)
	MonitorCompliance(ctx context.Context, userID string) ([]domain.RiskAlert, error)
	PersonalizedInsights(ctx context.Context, userID string) ([]domain.Insight, error)
	ListInsights(ctx context.Context, userID string, unreadOnly bool) ([]domain.Insight, error)
	OptimizeBudget(ctx context.Context, userID string) (domain.BudgetStrategy, error)
}

// AnalyticsHandler serves the per-user analysis endpoints.
type AnalyticsHandler struct {
	engine Analyzer
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(a Analyzer) *AnalyticsHandler {
	return &AnalyticsHandler{engine: a}
}

// HealthScore handles GET /api/users/{id}/health-score
func (h *AnalyticsHandler) HealthScore(w http.ResponseWriter, r *http.Request) {
	score, err := h.engine.HealthScore(r.Context(), r.PathValue("id"))
	if err != nil {
		writeOperationError(w, r, err, "Failed to compute health score")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, score)
}

// CashFlow handles GET /api/users/{id}/cash-flow?days=N
func (h *AnalyticsHandler) CashFlow(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(w, r, "days", 0)
	if !ok {
		return
	}
	if days < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "days must not be negative")
		return
	}

	predictions, err := h.engine.PredictCashFlow(r.Context(), r.PathValue("id"), days)
	if err != nil {
		writeOperationError(w, r, err, "Failed to predict cash flow")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": predictions,
		"count":       len(predictions),
	})
}

// TaxRisk handles GET /api/users/{id}/tax-risk?year=YYYY
func (h *AnalyticsHandler) TaxRisk(w http.ResponseWriter, r *http.Request) {
	year, ok := intParam(w, r, "year", 0)
	if !ok {
		return
	}

	assessment, err := h.engine.AssessTaxRisk(r.Context(), r.PathValue("id"), year)
	if err != nil {
		writeOperationError(w, r, err, "Failed to assess tax risk")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, assessment)
}

// Compliance handles POST /api/users/{id}/compliance
func (h *AnalyticsHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.engine.MonitorCompliance(r.Context(), r.PathValue("id"))
	if err != nil {
		writeOperationError(w, r, err, "Failed to run compliance monitoring")
		return
	}
	if alerts == nil {
		alerts = []domain.RiskAlert{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// ListInsights handles GET /api/users/{id}/insights?unread=true
func (h *AnalyticsHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	unreadOnly := false
	if v := r.URL.Query().Get("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid unread value")
			return
		}
		unreadOnly = b
	}

	insights, err := h.engine.ListInsights(r.Context(), r.PathValue("id"), unreadOnly)
	if err != nil {
		writeOperationError(w, r, err, "Failed to list insights")
		return
	}
	writeInsights(w, insights)
}

// GenerateInsights handles POST /api/users/{id}/insights
func (h *AnalyticsHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.engine.PersonalizedInsights(r.Context(), r.PathValue("id"))
	if err != nil {
		writeOperationError(w, r, err, "Failed to generate insights")
		return
	}
	writeInsights(w, insights)
}

// OptimizeBudget handles POST /api/users/{id}/budget-optimization
func (h *AnalyticsHandler) OptimizeBudget(w http.ResponseWriter, r *http.Request) {
	strategy, err := h.engine.OptimizeBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeOperationError(w, r, err, "Failed to optimize budget")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, strategy)
}

func writeInsights(w http.ResponseWriter, insights []domain.Insight) {
	if insights == nil {
		insights = []domain.Insight{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"insights": insights,
		"count":    len(insights),
	})
}

// writeOperationError maps engine failures to status codes. The cause is
// logged, the client only sees the message.
func writeOperationError(w http.ResponseWriter, r *http.Request, err error, message string) {
	log := logger.FromContext(r.Context())

	var opErr *engine.OperationError
	if errors.As(err, &opErr) {
		log = log.With().Str("operation", string(opErr.Op)).Str("user_id", opErr.UserID).Logger()
	}

	switch {
	case errors.Is(err, engine.ErrInvalidArgument):
		log.Warn().Err(err).Msg("Rejected request")
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Msg("Request timed out")
		middleware.WriteError(w, http.StatusGatewayTimeout, message)
	default:
		log.Error().Err(err).Msg(message)
		middleware.WriteError(w, http.StatusInternalServerError, message)
	}
}

// intParam reads an optional integer query parameter. It writes a 400 and
// returns false when the value is malformed.
func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid "+name+" value")
		return 0, false
	}
	return i, true
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(publisher jobs.Publisher, store jobs.JobStore) *JobsHandler {
	return &JobsHandler{
		publisher: publisher,
		store:     store,
	}
}

// CreateJob handles POST /api/jobs
func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type   jobs.JobType `json:"type"`
		UserID string       `json:"user_id"`
		Year   int          `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Type.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown job type")
		return
	}
	if req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	job := &jobs.AnalysisJob{
		Type:   req.Type,
		UserID: req.UserID,
		Year:   req.Year,
	}
	if err := h.publisher.Publish(r.Context(), job); err != nil {
		reqLog := logger.FromContext(r.Context())
		reqLog.Error().Err(err).Msg("Failed to enqueue job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue job")
		return
	}

	reqLog := logger.FromContext(r.Context())
	reqLog.Info().
		Str("job_id", job.JobID).
		Str("job_type", string(job.Type)).
		Str("user_id", job.UserID).
		Msg("Job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		reqLog := logger.FromContext(r.Context())
		reqLog.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: query.Get("user_id"),
		Type:   jobs.JobType(query.Get("type")),
		Status: jobs.JobStatus(query.Get("status")),
	}

	var ok bool
	if filter.Limit, ok = intParam(w, r, "limit", 0); !ok {
		return
	}
	if filter.Offset, ok = intParam(w, r, "offset", 0); !ok {
		return
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		reqLog := logger.FromContext(r.Context())
		reqLog.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	if jobsList == nil {
		jobsList = []*jobs.AnalysisJob{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Routes registers every endpoint on a new mux.
func Routes(analytics *AnalyticsHandler, jobsHandler *JobsHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/users/{id}/health-score", analytics.HealthScore)
	mux.HandleFunc("GET /api/users/{id}/cash-flow", analytics.CashFlow)
	mux.HandleFunc("GET /api/users/{id}/tax-risk", analytics.TaxRisk)
	mux.HandleFunc("POST /api/users/{id}/compliance", analytics.Compliance)
	mux.HandleFunc("GET /api/users/{id}/insights", analytics.ListInsights)
	mux.HandleFunc("POST /api/users/{id}/insights", analytics.GenerateInsights)
	mux.HandleFunc("POST /api/users/{id}/budget-optimization", analytics.OptimizeBudget)

	mux.HandleFunc("POST /api/jobs", jobsHandler.CreateJob)
	mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", jobsHandler.GetJob)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}
