package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListTransactions returns the household's transactions with occurred_at in [start, end].
func (s *Store) ListTransactions(ctx context.Context, householdID string, start, end time.Time) ([]domain.TransactionProjection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.transaction_id, t.type, t.amount, t.occurred_at, t.description,
		       t.category_id, c.name, t.from_account_id, t.to_account_id
		FROM transactions t
		LEFT JOIN categories c ON c.category_id = t.category_id
		WHERE t.household_id = ?
		  AND t.occurred_at >= ?
		  AND t.occurred_at <= ?
		ORDER BY t.occurred_at, t.transaction_id`,
		householdID, formatTime(start), formatTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: querying: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []domain.TransactionProjection
	for rows.Next() {
		var (
			tx                  domain.TransactionProjection
			typ, amount, at     string
			categoryID, catName sql.NullString
			from, to            sql.NullString
		)
		if err := rows.Scan(&tx.ID, &typ, &amount, &at, &tx.Description, &categoryID, &catName, &from, &to); err != nil {
			return nil, fmt.Errorf("ListTransactions: scanning: %w", err)
		}
		tx.Type = domain.TransactionType(typ)
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("ListTransactions: amount of %s: %w", tx.ID, err)
		}
		if tx.OccurredAt, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("ListTransactions: occurred_at of %s: %w", tx.ID, err)
		}
		tx.CategoryID = categoryID.String
		tx.CategoryName = catName.String
		tx.FromAccountID = stringPtr(from)
		tx.ToAccountID = stringPtr(to)
		result = append(result, tx)
	}
	return result, rows.Err()
}

// CountTransactions counts the household's transactions with occurred_at in [start, end].
func (s *Store) CountTransactions(ctx context.Context, householdID string, start, end time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE household_id = ? AND occurred_at >= ? AND occurred_at <= ?`,
		householdID, formatTime(start), formatTime(end),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountTransactions: %w", err)
	}
	return n, nil
}

// ListCategories returns all categories of the household.
func (s *Store) ListCategories(ctx context.Context, householdID string) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category_id, household_id, name, type
		FROM categories
		WHERE household_id = ?
		ORDER BY name`, householdID)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: querying: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		var typ string
		if err := rows.Scan(&c.ID, &c.HouseholdID, &c.Name, &typ); err != nil {
			return nil, fmt.Errorf("ListCategories: scanning: %w", err)
		}
		c.Type = domain.TransactionType(typ)
		result = append(result, c)
	}
	return result, rows.Err()
}

// ListAccounts returns all accounts of the household.
func (s *Store) ListAccounts(ctx context.Context, householdID string) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, household_id, name, account_type, currency
		FROM accounts
		WHERE household_id = ?
		ORDER BY name`, householdID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: querying: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.HouseholdID, &a.Name, &a.Type, &a.Currency); err != nil {
			return nil, fmt.Errorf("ListAccounts: scanning: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// ListOverlappingBudgets returns budgets whose period intersects [start, end].
func (s *Store) ListOverlappingBudgets(ctx context.Context, householdID string, start, end time.Time) ([]domain.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT budget_id, household_id, category_id, name, amount, start_date, end_date, source, created_at
		FROM budgets
		WHERE household_id = ?
		  AND start_date <= ?
		  AND end_date >= ?
		ORDER BY start_date, budget_id`,
		householdID, formatTime(end), formatTime(start),
	)
	if err != nil {
		return nil, fmt.Errorf("ListOverlappingBudgets: querying: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []domain.Budget
	for rows.Next() {
		var (
			b                           domain.Budget
			amount, from, to, createdAt string
		)
		if err := rows.Scan(&b.ID, &b.HouseholdID, &b.CategoryID, &b.Name, &amount, &from, &to, &b.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("ListOverlappingBudgets: scanning: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("ListOverlappingBudgets: amount of %s: %w", b.ID, err)
		}
		if b.StartDate, err = parseTime(from); err != nil {
			return nil, fmt.Errorf("ListOverlappingBudgets: start_date of %s: %w", b.ID, err)
		}
		if b.EndDate, err = parseTime(to); err != nil {
			return nil, fmt.Errorf("ListOverlappingBudgets: end_date of %s: %w", b.ID, err)
		}
		if b.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("ListOverlappingBudgets: created_at of %s: %w", b.ID, err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// CreateBudget inserts a budget, generating its ID when empty.
func (s *Store) CreateBudget(ctx context.Context, b *domain.Budget) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if b.Source == "" {
		b.Source = "manual"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (budget_id, household_id, category_id, name, amount, start_date, end_date, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.HouseholdID, b.CategoryID, b.Name, b.Amount.String(),
		formatTime(b.StartDate), formatTime(b.EndDate), b.Source, formatTime(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("CreateBudget: inserting row: %w", err)
	}
	return nil
}

// InsertCategories adds categories. Used to seed local databases and tests.
func (s *Store) InsertCategories(ctx context.Context, categories []domain.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InsertCategories: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (category_id, household_id, name, type) VALUES (?, ?, ?, ?)`,
			c.ID, c.HouseholdID, c.Name, string(c.Type)); err != nil {
			return fmt.Errorf("InsertCategories: inserting %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// InsertAccounts adds accounts. Used to seed local databases and tests.
func (s *Store) InsertAccounts(ctx context.Context, accounts []domain.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InsertAccounts: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (account_id, household_id, name, account_type, currency) VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.HouseholdID, a.Name, a.Type, a.Currency); err != nil {
			return fmt.Errorf("InsertAccounts: inserting %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// InsertTransactions adds transactions for a household. Used to seed local databases and tests.
func (s *Store) InsertTransactions(ctx context.Context, householdID string, txs []domain.TransactionProjection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InsertTransactions: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range txs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		category := t.CategoryID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (transaction_id, household_id, type, amount, occurred_at, description,
			                          category_id, from_account_id, to_account_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, householdID, string(t.Type), t.Amount.String(), formatTime(t.OccurredAt), t.Description,
			nullString(&category), nullString(t.FromAccountID), nullString(t.ToAccountID),
		); err != nil {
			return fmt.Errorf("InsertTransactions: inserting %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}
