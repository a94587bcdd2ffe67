package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/jobs"
	"github.com/dvloznov/household-reports/internal/storage"
)

// fakeStore is an in-memory storage.Store. The Func fields override reads and writes.
type fakeStore struct {
	mu           sync.Mutex
	reports      map[string]*domain.Report
	transactions []domain.TransactionProjection
	categories   []domain.Category
	accounts     []domain.Account
	budgets      []domain.Budget
	created      []domain.Budget

	completeCalls     int
	updateStatusCalls []domain.ReportStatus
	txQueries         [][2]time.Time
	budgetQueries     [][2]time.Time

	ListTransactionsFunc func(ctx context.Context, householdID string, start, end time.Time) ([]domain.TransactionProjection, error)
	ListCategoriesFunc   func(ctx context.Context, householdID string) ([]domain.Category, error)
	CreateBudgetFunc     func(ctx context.Context, budget *domain.Budget) error
	MarkGeneratingFunc   func(ctx context.Context, reportID string) (int64, error)
	CompleteFunc         func(ctx context.Context, reportID string, attempt int64) error
}

func newFakeStore(reports ...*domain.Report) *fakeStore {
	s := &fakeStore{reports: make(map[string]*domain.Report)}
	for _, r := range reports {
		s.reports[r.ID] = r
	}
	return s
}

func (s *fakeStore) report(id string) domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.reports[id]
}

func (s *fakeStore) CreateReport(ctx context.Context, r *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Status = domain.ReportStatusPending
	s.reports[r.ID] = r
	return nil
}

func (s *fakeStore) GetReport(ctx context.Context, householdID, reportID string) (*domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[reportID]
	if !ok || r.HouseholdID != householdID {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) MarkGenerating(ctx context.Context, reportID string) (int64, error) {
	if s.MarkGeneratingFunc != nil {
		return s.MarkGeneratingFunc(ctx, reportID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[reportID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	r.Status = domain.ReportStatusGenerating
	r.Attempt++
	return r.Attempt, nil
}

func (s *fakeStore) guarded(reportID string, attempt int64) (*domain.Report, error) {
	r, ok := s.reports[reportID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if r.Attempt != attempt || r.Status != domain.ReportStatusGenerating {
		return nil, storage.ErrStaleAttempt
	}
	return r, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, reportID string, attempt int64, status domain.ReportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateStatusCalls = append(s.updateStatusCalls, status)
	if status != domain.ReportStatusFailed {
		return fmt.Errorf("UpdateStatus: invalid target status %q", status)
	}
	r, err := s.guarded(reportID, attempt)
	if err != nil {
		return err
	}
	r.Status = status
	return nil
}

func (s *fakeStore) Complete(ctx context.Context, reportID string, attempt int64, data *domain.ReportData, count int) error {
	s.mu.Lock()
	s.completeCalls++
	s.mu.Unlock()
	if s.CompleteFunc != nil {
		if err := s.CompleteFunc(ctx, reportID, attempt); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.guarded(reportID, attempt)
	if err != nil {
		return err
	}
	r.Status = domain.ReportStatusCompleted
	r.Data = data
	r.TransactionCount = count
	return nil
}

func (s *fakeStore) ListTransactions(ctx context.Context, householdID string, start, end time.Time) ([]domain.TransactionProjection, error) {
	s.mu.Lock()
	s.txQueries = append(s.txQueries, [2]time.Time{start, end})
	s.mu.Unlock()
	if s.ListTransactionsFunc != nil {
		return s.ListTransactionsFunc(ctx, householdID, start, end)
	}
	var out []domain.TransactionProjection
	for _, tx := range s.transactions {
		if !tx.OccurredAt.Before(start) && !tx.OccurredAt.After(end) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *fakeStore) CountTransactions(ctx context.Context, householdID string, start, end time.Time) (int, error) {
	txs, err := s.ListTransactions(ctx, householdID, start, end)
	return len(txs), err
}

func (s *fakeStore) ListCategories(ctx context.Context, householdID string) ([]domain.Category, error) {
	if s.ListCategoriesFunc != nil {
		return s.ListCategoriesFunc(ctx, householdID)
	}
	return s.categories, nil
}

func (s *fakeStore) ListAccounts(ctx context.Context, householdID string) ([]domain.Account, error) {
	return s.accounts, nil
}

func (s *fakeStore) ListOverlappingBudgets(ctx context.Context, householdID string, start, end time.Time) ([]domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgetQueries = append(s.budgetQueries, [2]time.Time{start, end})
	var out []domain.Budget
	for _, b := range s.budgets {
		if b.Overlaps(start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateBudget(ctx context.Context, b *domain.Budget) error {
	if s.CreateBudgetFunc != nil {
		if err := s.CreateBudgetFunc(ctx, b); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = "budget-" + b.CategoryID
	}
	s.created = append(s.created, *b)
	return nil
}

func (s *fakeStore) Close() error { return nil }

var _ storage.Store = (*fakeStore)(nil)

// recordingPublisher keeps published jobs so tests can run them synchronously.
type recordingPublisher struct {
	mu        sync.Mutex
	published []*jobs.GenerateReportJob
	err       error
}

func (p *recordingPublisher) PublishGenerateReport(ctx context.Context, job *jobs.GenerateReportJob) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	job.JobID = "job-" + job.ReportID
	p.published = append(p.published, job)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// mockGenerator is a NarrativeGenerator with a Func override.
type mockGenerator struct {
	GenerateFunc func(ctx context.Context, in domain.NarrativeInput) (*domain.NarrativeOutput, error)
	calls        int
	lastInput    domain.NarrativeInput
}

func (m *mockGenerator) Generate(ctx context.Context, in domain.NarrativeInput) (*domain.NarrativeOutput, error) {
	m.calls++
	m.lastInput = in
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, in)
	}
	return &domain.NarrativeOutput{Summary: "Steady month."}, nil
}

// mockSink records published reports and can fail.
type mockSink struct {
	name      string
	err       error
	published []string
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Publish(ctx context.Context, report *domain.Report) error {
	m.published = append(m.published, report.ID)
	return m.err
}

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func endOfDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.UTC)
}
