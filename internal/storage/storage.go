// Package storage declares the repositories the report pipeline reads from and writes to.
// Implementations live under internal/infra.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to another household.
	ErrNotFound = errors.New("not found")

	// ErrStaleAttempt is returned when a write targets a generation attempt that has
	// been superseded, or a report that is no longer GENERATING.
	ErrStaleAttempt = errors.New("stale generation attempt")
)

// ReportRepository is the report status store polled by clients.
type ReportRepository interface {
	// CreateReport inserts a PENDING report.
	CreateReport(ctx context.Context, report *domain.Report) error

	// GetReport returns the report if it belongs to the household, ErrNotFound otherwise.
	GetReport(ctx context.Context, householdID, reportID string) (*domain.Report, error)

	// MarkGenerating sets status=GENERATING, bumps the attempt counter and returns it.
	MarkGenerating(ctx context.Context, reportID string) (int64, error)

	// UpdateStatus moves a GENERATING report to FAILED for the given attempt without
	// touching the payload. Any other target status is rejected.
	UpdateStatus(ctx context.Context, reportID string, attempt int64, status domain.ReportStatus) error

	// Complete stores the payload, the transaction count and status=COMPLETED in one
	// guarded write for the given attempt. Either all three change or none do.
	Complete(ctx context.Context, reportID string, attempt int64, data *domain.ReportData, transactionCount int) error
}

// TransactionRepository reads transaction projections.
type TransactionRepository interface {
	// ListTransactions returns transactions with occurred_at in [start, end].
	ListTransactions(ctx context.Context, householdID string, start, end time.Time) ([]domain.TransactionProjection, error)

	// CountTransactions counts transactions with occurred_at in [start, end].
	CountTransactions(ctx context.Context, householdID string, start, end time.Time) (int, error)
}

// CategoryRepository reads household categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context, householdID string) ([]domain.Category, error)
}

// AccountRepository reads household accounts.
type AccountRepository interface {
	ListAccounts(ctx context.Context, householdID string) ([]domain.Account, error)
}

// BudgetRepository reads and creates budgets.
type BudgetRepository interface {
	// ListOverlappingBudgets returns budgets with start_date <= end AND end_date >= start.
	ListOverlappingBudgets(ctx context.Context, householdID string, start, end time.Time) ([]domain.Budget, error)

	// CreateBudget persists a new budget. The ID is generated when empty.
	CreateBudget(ctx context.Context, budget *domain.Budget) error
}

// Store bundles every repository a backend provides.
type Store interface {
	ReportRepository
	TransactionRepository
	CategoryRepository
	AccountRepository
	BudgetRepository
	Close() error
}
