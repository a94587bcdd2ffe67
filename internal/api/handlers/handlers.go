package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/household-reports/internal/api/middleware"
	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/jobs"
	"github.com/dvloznov/household-reports/internal/pipeline"
	"github.com/dvloznov/household-reports/internal/storage"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ReportService is the report surface exposed over HTTP.
type ReportService interface {
	Start(ctx context.Context, householdID, reportID string, trigger domain.ReportKind) (*jobs.GenerateReportJob, error)
	GetStatus(ctx context.Context, householdID, reportID string) (*pipeline.StatusView, error)
	GetReport(ctx context.Context, householdID, reportID string) (*domain.Report, error)
}

// triggers are the kinds accepted by the generate route.
var triggers = map[domain.ReportKind]bool{
	domain.ReportKindInitial: true,
	domain.ReportKindWeekly:  true,
	domain.ReportKindMonthly: true,
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	reports ReportService
	log     zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reports ReportService, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		reports: reports,
		log:     log,
	}
}

// GenerateResponse acknowledges an accepted generation request.
type GenerateResponse struct {
	JobID    string              `json:"job_id"`
	ReportID string              `json:"report_id"`
	Status   domain.ReportStatus `json:"status"`
	Attempt  int64               `json:"attempt"`
}

// ReportView is the JSON form of a report.
type ReportView struct {
	ID               string              `json:"id"`
	HouseholdID      string              `json:"household_id"`
	Kind             domain.ReportKind   `json:"kind"`
	Status           domain.ReportStatus `json:"status"`
	StartDate        time.Time           `json:"start_date"`
	EndDate          time.Time           `json:"end_date"`
	Currency         string              `json:"currency"`
	TransactionCount int                 `json:"transaction_count"`
	Attempt          int64               `json:"attempt"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Data             *domain.ReportData  `json:"data,omitempty"`
}

// NewReportView converts a report for the wire.
func NewReportView(r *domain.Report) ReportView {
	return ReportView{
		ID:               r.ID,
		HouseholdID:      r.HouseholdID,
		Kind:             r.Kind,
		Status:           r.Status,
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
		Currency:         r.Currency,
		TransactionCount: r.TransactionCount,
		Attempt:          r.Attempt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		Data:             r.Data,
	}
}

// Generate handles POST /api/reports/{kind}/{id}/generate
func (h *ReportsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	householdID := middleware.HouseholdFromContext(ctx)

	kind, err := domain.ParseReportKind(vars["kind"])
	if err != nil || !triggers[kind] {
		middleware.WriteError(w, http.StatusBadRequest, "Unsupported report trigger")
		return
	}

	job, err := h.reports.Start(ctx, householdID, vars["id"], kind)
	if err != nil {
		h.writeServiceError(w, err, vars["id"], "Failed to start report generation")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, GenerateResponse{
		JobID:    job.JobID,
		ReportID: job.ReportID,
		Status:   domain.ReportStatusGenerating,
		Attempt:  job.Attempt,
	})
}

// GetStatus handles GET /api/reports/{id}/status
func (h *ReportsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reportID := mux.Vars(r)["id"]

	status, err := h.reports.GetStatus(ctx, middleware.HouseholdFromContext(ctx), reportID)
	if err != nil {
		h.writeServiceError(w, err, reportID, "Failed to get report status")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, status)
}

// GetReport handles GET /api/reports/{id}
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reportID := mux.Vars(r)["id"]

	report, err := h.reports.GetReport(ctx, middleware.HouseholdFromContext(ctx), reportID)
	if err != nil {
		h.writeServiceError(w, err, reportID, "Failed to get report")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, NewReportView(report))
}

func (h *ReportsHandler) writeServiceError(w http.ResponseWriter, err error, reportID, msg string) {
	switch {
	case errors.Is(err, pipeline.ErrReportNotFound), errors.Is(err, storage.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Report not found")
	case errors.Is(err, pipeline.ErrPeriodMismatch), errors.Is(err, domain.ErrInvalidReport):
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrStaleAttempt):
		middleware.WriteError(w, http.StatusConflict, "Report generation was superseded")
	default:
		h.log.Error().Err(err).Str("report_id", reportID).Msg(msg)
		middleware.WriteError(w, http.StatusInternalServerError, msg)
	}
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := mux.Vars(r)["id"]

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil || job.HouseholdID != middleware.HouseholdFromContext(ctx) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		HouseholdID: middleware.HouseholdFromContext(ctx),
		ReportID:    query.Get("report_id"),
		Status:      jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// NewRouter registers every endpoint. /api routes require a household id.
func NewRouter(reports *ReportsHandler, jobsHandler *JobsHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Household)

	api.HandleFunc("/reports/{kind}/{id}/generate", reports.Generate).Methods(http.MethodPost)
	api.HandleFunc("/reports/{id}/status", reports.GetStatus).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}", reports.GetReport).Methods(http.MethodGet)

	api.HandleFunc("/jobs", jobsHandler.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", jobsHandler.GetJob).Methods(http.MethodGet)

	return r
}
