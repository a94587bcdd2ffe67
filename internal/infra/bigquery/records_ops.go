package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const (
	transactionsTable = "transactions"
	categoriesTable   = "categories"
	accountsTable     = "accounts"
	budgetsTable      = "budgets"
)

// ListTransactionsWithClient returns the household's transactions with occurred_at in
// [start, end], with category names joined in.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset, householdID string, start, end time.Time) ([]domain.TransactionProjection, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			t.transaction_id,
			t.type,
			t.amount,
			t.occurred_at,
			t.description,
			t.category_id,
			c.name AS category_name,
			t.from_account_id,
			t.to_account_id
		FROM %[1]s.%[2]s t
		LEFT JOIN %[1]s.%[3]s c
		  ON c.category_id = t.category_id
		WHERE t.household_id = @household_id
		  AND t.occurred_at >= @start_ts
		  AND t.occurred_at <= @end_ts
		ORDER BY t.occurred_at, t.transaction_id
	`, dataset, transactionsTable, categoriesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
		{Name: "start_ts", Value: start},
		{Name: "end_ts", Value: end},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var result []domain.TransactionProjection
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		tx, err := transactionFromRow(&row)
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		result = append(result, tx)
	}

	return result, nil
}

// CountTransactionsWithClient counts the household's transactions in [start, end].
func CountTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset, householdID string, start, end time.Time) (int, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s.%s
		WHERE household_id = @household_id
		  AND occurred_at >= @start_ts
		  AND occurred_at <= @end_ts
	`, dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
		{Name: "start_ts", Value: start},
		{Name: "end_ts", Value: end},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountTransactions: query read: %w", err)
	}
	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return 0, fmt.Errorf("CountTransactions: iter next: %w", err)
	}
	return int(row.N), nil
}

// ListCategoriesWithClient returns the household's categories ordered by name.
func ListCategoriesWithClient(ctx context.Context, client *bigquery.Client, dataset, householdID string) ([]domain.Category, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT category_id, household_id, name, type
		FROM %s.%s
		WHERE household_id = @household_id
		ORDER BY name
	`, dataset, categoriesTable))
	q.Parameters = []bigquery.QueryParameter{{Name: "household_id", Value: householdID}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: query read: %w", err)
	}

	var result []domain.Category
	for {
		var row CategoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCategories: iter next: %w", err)
		}
		result = append(result, domain.Category{
			ID:          row.CategoryID,
			HouseholdID: row.HouseholdID,
			Name:        row.Name,
			Type:        domain.TransactionType(row.Type),
		})
	}
	return result, nil
}

// ListAccountsWithClient returns the household's accounts ordered by name.
func ListAccountsWithClient(ctx context.Context, client *bigquery.Client, dataset, householdID string) ([]domain.Account, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT account_id, household_id, name, type, currency
		FROM %s.%s
		WHERE household_id = @household_id
		ORDER BY name
	`, dataset, accountsTable))
	q.Parameters = []bigquery.QueryParameter{{Name: "household_id", Value: householdID}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: query read: %w", err)
	}

	var result []domain.Account
	for {
		var row AccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: iter next: %w", err)
		}
		result = append(result, domain.Account{
			ID:          row.AccountID,
			HouseholdID: row.HouseholdID,
			Name:        row.Name,
			Type:        row.Type,
			Currency:    row.Currency,
		})
	}
	return result, nil
}

// ListOverlappingBudgetsWithClient returns budgets with start_date <= end and end_date >= start.
func ListOverlappingBudgetsWithClient(ctx context.Context, client *bigquery.Client, dataset, householdID string, start, end time.Time) ([]domain.Budget, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT budget_id, household_id, category_id, name, amount, start_date, end_date, source, created_ts
		FROM %s.%s
		WHERE household_id = @household_id
		  AND start_date <= @ctx_end
		  AND end_date >= @ctx_start
		ORDER BY start_date, budget_id
	`, dataset, budgetsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "household_id", Value: householdID},
		{Name: "ctx_start", Value: civil.DateOf(start.UTC())},
		{Name: "ctx_end", Value: civil.DateOf(end.UTC())},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListOverlappingBudgets: query read: %w", err)
	}

	var result []domain.Budget
	for {
		var row BudgetRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListOverlappingBudgets: iter next: %w", err)
		}
		b, err := budgetFromRow(&row)
		if err != nil {
			return nil, fmt.Errorf("ListOverlappingBudgets: %w", err)
		}
		result = append(result, b)
	}
	return result, nil
}

// CreateBudgetWithClient inserts a budget. The ID is generated when empty.
func CreateBudgetWithClient(ctx context.Context, client *bigquery.Client, dataset string, b *domain.Budget) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if b.Source == "" {
		b.Source = "manual"
	}
	row := budgetToRow(b)

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			budget_id, household_id, category_id, name, amount, start_date, end_date, source, created_ts
		)
		VALUES (
			@budget_id, @household_id, @category_id, @name, @amount, @start_date, @end_date, @source, @created_ts
		)
	`, dataset, budgetsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "budget_id", Value: row.BudgetID},
		{Name: "household_id", Value: row.HouseholdID},
		{Name: "category_id", Value: row.CategoryID},
		{Name: "name", Value: row.Name},
		{Name: "amount", Value: row.Amount},
		{Name: "start_date", Value: row.StartDate},
		{Name: "end_date", Value: row.EndDate},
		{Name: "source", Value: row.Source},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("CreateBudget: %w", err)
	}
	return nil
}

// InsertTransactionsWithClient streams transaction rows into <dataset>.transactions.
// It is used for seeding and imports; reports only read transactions.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset, householdID string, txs []domain.TransactionProjection) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([]*transactionInsertRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, &transactionInsertRow{
			TransactionID: tx.ID,
			HouseholdID:   householdID,
			Type:          string(tx.Type),
			Amount:        decimalToRat(tx.Amount),
			OccurredAt:    tx.OccurredAt,
			Description:   tx.Description,
			CategoryID:    nullString(&tx.CategoryID),
			FromAccountID: nullString(tx.FromAccountID),
			ToAccountID:   nullString(tx.ToAccountID),
		})
	}

	inserter := client.Dataset(dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}
