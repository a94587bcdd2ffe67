// Package bigquery is the warehouse-backed implementation of storage.Store.
//
// Every operation exists as a *WithClient function taking a shared client; Repository
// binds them to one client and dataset.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/storage"
	"google.golang.org/api/option"
)

// Repository is the concrete implementation of storage.Store that interacts with
// BigQuery. It holds a shared BigQuery client to avoid creating a new connection for
// each operation.
type Repository struct {
	client  *bigquery.Client
	dataset string
}

// NewRepository creates a Repository for the dataset in projectID.
func NewRepository(ctx context.Context, projectID, dataset string, opts ...option.ClientOption) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{
		client:  client,
		dataset: dataset,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) CreateReport(ctx context.Context, report *domain.Report) error {
	return CreateReportWithClient(ctx, r.client, r.dataset, report)
}

func (r *Repository) GetReport(ctx context.Context, householdID, reportID string) (*domain.Report, error) {
	return GetReportWithClient(ctx, r.client, r.dataset, householdID, reportID)
}

func (r *Repository) MarkGenerating(ctx context.Context, reportID string) (int64, error) {
	return MarkGeneratingWithClient(ctx, r.client, r.dataset, reportID)
}

func (r *Repository) UpdateStatus(ctx context.Context, reportID string, attempt int64, status domain.ReportStatus) error {
	return UpdateReportStatusWithClient(ctx, r.client, r.dataset, reportID, attempt, status)
}

func (r *Repository) Complete(ctx context.Context, reportID string, attempt int64, data *domain.ReportData, transactionCount int) error {
	return CompleteReportWithClient(ctx, r.client, r.dataset, reportID, attempt, data, transactionCount)
}

func (r *Repository) ListTransactions(ctx context.Context, householdID string, start, end time.Time) ([]domain.TransactionProjection, error) {
	return ListTransactionsWithClient(ctx, r.client, r.dataset, householdID, start, end)
}

func (r *Repository) CountTransactions(ctx context.Context, householdID string, start, end time.Time) (int, error) {
	return CountTransactionsWithClient(ctx, r.client, r.dataset, householdID, start, end)
}

func (r *Repository) ListCategories(ctx context.Context, householdID string) ([]domain.Category, error) {
	return ListCategoriesWithClient(ctx, r.client, r.dataset, householdID)
}

func (r *Repository) ListAccounts(ctx context.Context, householdID string) ([]domain.Account, error) {
	return ListAccountsWithClient(ctx, r.client, r.dataset, householdID)
}

func (r *Repository) ListOverlappingBudgets(ctx context.Context, householdID string, start, end time.Time) ([]domain.Budget, error) {
	return ListOverlappingBudgetsWithClient(ctx, r.client, r.dataset, householdID, start, end)
}

func (r *Repository) CreateBudget(ctx context.Context, budget *domain.Budget) error {
	return CreateBudgetWithClient(ctx, r.client, r.dataset, budget)
}

// InsertTransactions streams transactions for a household.
func (r *Repository) InsertTransactions(ctx context.Context, householdID string, txs []domain.TransactionProjection) error {
	return InsertTransactionsWithClient(ctx, r.client, r.dataset, householdID, txs)
}

// Ensure Repository implements storage.Store.
var _ storage.Store = (*Repository)(nil)
