package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a transaction.
type TransactionType string

const (
	TransactionTypeExpense  TransactionType = "EXPENSE"
	TransactionTypeIncome   TransactionType = "INCOME"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// TransactionProjection is the read-only view of a transaction used by one generation run.
type TransactionProjection struct {
	ID            string
	Type          TransactionType
	Amount        decimal.Decimal // positive; direction comes from Type
	OccurredAt    time.Time
	Description   string
	CategoryID    string // empty when uncategorised
	CategoryName  string
	FromAccountID *string // source account, required for EXPENSE and TRANSFER
	ToAccountID   *string // destination account, required for INCOME and TRANSFER
}

// Category is a household spending or income category.
type Category struct {
	ID          string
	HouseholdID string
	Name        string
	Type        TransactionType // EXPENSE or INCOME
}

// Account is a household money account.
type Account struct {
	ID          string
	HouseholdID string
	Name        string
	Type        string // CHECKING, SAVINGS, CREDIT_CARD, CASH, ...
	Currency    string
}

// Budget is a spending limit for one category over a date range.
type Budget struct {
	ID          string
	HouseholdID string
	CategoryID  string
	Name        string
	Amount      decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time
	Source      string // "manual" or "suggestion"
	CreatedAt   time.Time
}

// Overlaps reports whether the budget period intersects [start, end].
func (b Budget) Overlaps(start, end time.Time) bool {
	return !b.StartDate.After(end) && !b.EndDate.Before(start)
}
