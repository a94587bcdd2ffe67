package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ContextReader is the read side of the store used to assemble a run's context.
type ContextReader interface {
	ListTransactions(ctx context.Context, householdID string, start, end time.Time) ([]domain.TransactionProjection, error)
	ListCategories(ctx context.Context, householdID string) ([]domain.Category, error)
	ListAccounts(ctx context.Context, householdID string) ([]domain.Account, error)
	ListOverlappingBudgets(ctx context.Context, householdID string, start, end time.Time) ([]domain.Budget, error)
}

// ReportContext is everything one generation run reads from storage.
type ReportContext struct {
	Period               PeriodContext
	Transactions         []domain.TransactionProjection
	Categories           []domain.Category
	Accounts             []domain.Account
	Budgets              []domain.Budget
	MonthlyTransactions  []domain.TransactionProjection // WEEKLY only
	PreviousTransactions []domain.TransactionProjection
}

// Aggregator loads a report's context with all reads in flight at once.
type Aggregator struct {
	reader ContextReader
}

// NewAggregator creates an Aggregator over the given reader.
func NewAggregator(reader ContextReader) *Aggregator {
	return &Aggregator{reader: reader}
}

// Fetch runs every read concurrently. The first failure cancels the others and is returned.
func (a *Aggregator) Fetch(ctx context.Context, report *domain.Report) (*ReportContext, error) {
	period := ResolvePeriodContext(report.Kind, report.StartDate, report.EndDate)
	rc := &ReportContext{Period: period}
	household := report.HouseholdID

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := a.reader.ListTransactions(gctx, household, report.StartDate, report.EndDate)
		if err != nil {
			return fmt.Errorf("Fetch: listing transactions: %w", err)
		}
		rc.Transactions = txs
		return nil
	})

	g.Go(func() error {
		cats, err := a.reader.ListCategories(gctx, household)
		if err != nil {
			return fmt.Errorf("Fetch: listing categories: %w", err)
		}
		rc.Categories = cats
		return nil
	})

	g.Go(func() error {
		accounts, err := a.reader.ListAccounts(gctx, household)
		if err != nil {
			return fmt.Errorf("Fetch: listing accounts: %w", err)
		}
		rc.Accounts = accounts
		return nil
	})

	g.Go(func() error {
		budgets, err := a.reader.ListOverlappingBudgets(gctx, household, period.BudgetStart, period.BudgetEnd)
		if err != nil {
			return fmt.Errorf("Fetch: listing budgets: %w", err)
		}
		rc.Budgets = budgets
		return nil
	})

	if period.IncludesMonth {
		g.Go(func() error {
			txs, err := a.reader.ListTransactions(gctx, household, period.BudgetStart, period.BudgetEnd)
			if err != nil {
				return fmt.Errorf("Fetch: listing month transactions: %w", err)
			}
			rc.MonthlyTransactions = txs
			return nil
		})
	}

	g.Go(func() error {
		txs, err := a.reader.ListTransactions(gctx, household, period.PreviousStart, period.PreviousEnd)
		if err != nil {
			return fmt.Errorf("Fetch: listing previous transactions: %w", err)
		}
		rc.PreviousTransactions = txs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rc, nil
}
