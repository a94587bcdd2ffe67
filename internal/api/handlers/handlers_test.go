package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dvloznov/household-reports/internal/api/middleware"
	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/jobs"
	"github.com/dvloznov/household-reports/internal/jobs/inmemory"
	"github.com/dvloznov/household-reports/internal/pipeline"
	"github.com/rs/zerolog"
)

type mockReportService struct {
	StartFunc     func(ctx context.Context, householdID, reportID string, trigger domain.ReportKind) (*jobs.GenerateReportJob, error)
	GetStatusFunc func(ctx context.Context, householdID, reportID string) (*pipeline.StatusView, error)
	GetReportFunc func(ctx context.Context, householdID, reportID string) (*domain.Report, error)
}

func (m *mockReportService) Start(ctx context.Context, householdID, reportID string, trigger domain.ReportKind) (*jobs.GenerateReportJob, error) {
	return m.StartFunc(ctx, householdID, reportID, trigger)
}

func (m *mockReportService) GetStatus(ctx context.Context, householdID, reportID string) (*pipeline.StatusView, error) {
	return m.GetStatusFunc(ctx, householdID, reportID)
}

func (m *mockReportService) GetReport(ctx context.Context, householdID, reportID string) (*domain.Report, error) {
	return m.GetReportFunc(ctx, householdID, reportID)
}

func newTestRouter(svc ReportService, store jobs.JobStore) http.Handler {
	log := zerolog.Nop()
	return NewRouter(NewReportsHandler(svc, log), NewJobsHandler(store, log))
}

func do(h http.Handler, method, path, household string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if household != "" {
		req.Header.Set(middleware.HouseholdHeader, household)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerate(t *testing.T) {
	var gotHousehold, gotReport string
	var gotKind domain.ReportKind

	svc := &mockReportService{
		StartFunc: func(_ context.Context, householdID, reportID string, trigger domain.ReportKind) (*jobs.GenerateReportJob, error) {
			gotHousehold, gotReport, gotKind = householdID, reportID, trigger
			switch reportID {
			case "missing":
				return nil, fmt.Errorf("Start: %w", pipeline.ErrReportNotFound)
			case "mismatch":
				return nil, fmt.Errorf("Start: %w", pipeline.ErrPeriodMismatch)
			case "no-currency":
				return nil, fmt.Errorf("%w: currency \"\" is not an ISO 4217 code", domain.ErrInvalidReport)
			case "broken":
				return nil, errors.New("database unavailable")
			}
			return &jobs.GenerateReportJob{JobID: "job-1", ReportID: reportID, Attempt: 3}, nil
		},
	}
	h := newTestRouter(svc, inmemory.NewStore())

	tests := []struct {
		name       string
		path       string
		household  string
		wantStatus int
	}{
		{"accepted", "/api/reports/weekly/rep-1/generate", "hh-1", http.StatusAccepted},
		{"initial trigger", "/api/reports/initial/rep-1/generate", "hh-1", http.StatusAccepted},
		{"unknown kind", "/api/reports/daily/rep-1/generate", "hh-1", http.StatusBadRequest},
		{"kind without trigger", "/api/reports/yearly/rep-1/generate", "hh-1", http.StatusBadRequest},
		{"not found", "/api/reports/monthly/missing/generate", "hh-1", http.StatusNotFound},
		{"period mismatch", "/api/reports/monthly/mismatch/generate", "hh-1", http.StatusUnprocessableEntity},
		{"invalid report", "/api/reports/monthly/no-currency/generate", "hh-1", http.StatusUnprocessableEntity},
		{"internal error", "/api/reports/monthly/broken/generate", "hh-1", http.StatusInternalServerError},
		{"no household", "/api/reports/weekly/rep-1/generate", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, tt.path, tt.household)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	rec := do(h, http.MethodPost, "/api/reports/weekly/rep-1/generate", "hh-1")
	var resp GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.JobID != "job-1" || resp.Attempt != 3 || resp.Status != domain.ReportStatusGenerating {
		t.Errorf("response = %+v", resp)
	}
	if gotHousehold != "hh-1" || gotReport != "rep-1" || gotKind != domain.ReportKindWeekly {
		t.Errorf("Start called with %q %q %q", gotHousehold, gotReport, gotKind)
	}
}

func TestGetStatusAndReport(t *testing.T) {
	updated := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	svc := &mockReportService{
		GetStatusFunc: func(_ context.Context, householdID, reportID string) (*pipeline.StatusView, error) {
			if householdID != "hh-1" {
				return nil, pipeline.ErrReportNotFound
			}
			return &pipeline.StatusView{ReportID: reportID, Status: domain.ReportStatusCompleted, Attempt: 1, UpdatedAt: updated}, nil
		},
		GetReportFunc: func(_ context.Context, householdID, reportID string) (*domain.Report, error) {
			if householdID != "hh-1" {
				return nil, pipeline.ErrReportNotFound
			}
			return &domain.Report{
				ID:          reportID,
				HouseholdID: householdID,
				Kind:        domain.ReportKindMonthly,
				Status:      domain.ReportStatusCompleted,
				Data:        &domain.ReportData{Meta: domain.Meta{Currency: "USD", Label: "January 2024"}},
			}, nil
		},
	}
	h := newTestRouter(svc, inmemory.NewStore())

	rec := do(h, http.MethodGet, "/api/reports/rep-1/status", "hh-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", rec.Code)
	}
	var status map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status["status"] != "COMPLETED" || status["report_id"] != "rep-1" {
		t.Errorf("status body = %v", status)
	}

	rec = do(h, http.MethodGet, "/api/reports/rep-1", "hh-1")
	var view ReportView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.Data == nil || view.Data.Meta.Label != "January 2024" {
		t.Errorf("report view = %+v", view)
	}

	if rec := do(h, http.MethodGet, "/api/reports/rep-1", "hh-other"); rec.Code != http.StatusNotFound {
		t.Errorf("other household got %d, want 404", rec.Code)
	}
}

func TestJobs(t *testing.T) {
	store := inmemory.NewStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, j := range []*jobs.GenerateReportJob{
		{JobID: "j1", HouseholdID: "hh-1", ReportID: "r1", Status: jobs.JobStatusCompleted, CreatedAt: base},
		{JobID: "j2", HouseholdID: "hh-1", ReportID: "r2", Status: jobs.JobStatusFailed, CreatedAt: base.Add(time.Minute)},
		{JobID: "j3", HouseholdID: "hh-2", ReportID: "r3", Status: jobs.JobStatusCompleted, CreatedAt: base.Add(2 * time.Minute)},
	} {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatal(err)
		}
	}
	h := newTestRouter(&mockReportService{}, store)

	tests := []struct {
		name      string
		path      string
		wantCount int
	}{
		{"household scoped", "/api/jobs", 2},
		{"by report", "/api/jobs?report_id=r2", 1},
		{"by status", "/api/jobs?status=completed", 1},
		{"limit", "/api/jobs?limit=1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodGet, tt.path, "hh-1")
			var body struct {
				Count int `json:"count"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Count != tt.wantCount {
				t.Errorf("count = %d, want %d", body.Count, tt.wantCount)
			}
		})
	}

	if rec := do(h, http.MethodGet, "/api/jobs/j1", "hh-1"); rec.Code != http.StatusOK {
		t.Errorf("own job = %d, want 200", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/api/jobs/j3", "hh-1"); rec.Code != http.StatusNotFound {
		t.Errorf("other household's job = %d, want 404", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/api/jobs/nope", "hh-1"); rec.Code != http.StatusNotFound {
		t.Errorf("missing job = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestRouter(&mockReportService{}, inmemory.NewStore())
	if rec := do(h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health = %d, want 200", rec.Code)
	}
}
