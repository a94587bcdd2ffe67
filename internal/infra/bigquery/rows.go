package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

type ReportRow struct {
	ReportID         string            `bigquery:"report_id"`    // REQUIRED
	HouseholdID      string            `bigquery:"household_id"` // REQUIRED
	Kind             string            `bigquery:"kind"`         // REQUIRED
	StartDate        time.Time         `bigquery:"start_date"`   // REQUIRED TIMESTAMP
	EndDate          time.Time         `bigquery:"end_date"`     // REQUIRED TIMESTAMP
	Status           string            `bigquery:"status"`       // REQUIRED
	Currency         string            `bigquery:"currency"`     // REQUIRED
	Payload          bigquery.NullJSON `bigquery:"payload"`      // NULLABLE JSON
	TransactionCount int64             `bigquery:"transaction_count"`
	Attempt          int64             `bigquery:"attempt"`
	CreatedTS        time.Time         `bigquery:"created_ts"`
	UpdatedTS        time.Time         `bigquery:"updated_ts"`
}

type TransactionRow struct {
	TransactionID string              `bigquery:"transaction_id"`  // REQUIRED
	Type          string              `bigquery:"type"`            // REQUIRED: EXPENSE, INCOME, TRANSFER
	Amount        *big.Rat            `bigquery:"amount"`          // REQUIRED NUMERIC
	OccurredAt    time.Time           `bigquery:"occurred_at"`     // REQUIRED TIMESTAMP
	Description   string              `bigquery:"description"`     // NULLABLE
	CategoryID    bigquery.NullString `bigquery:"category_id"`     // NULLABLE
	CategoryName  bigquery.NullString `bigquery:"category_name"`   // NULLABLE, joined from categories
	FromAccountID bigquery.NullString `bigquery:"from_account_id"` // NULLABLE
	ToAccountID   bigquery.NullString `bigquery:"to_account_id"`   // NULLABLE
}

type CategoryRow struct {
	CategoryID  string `bigquery:"category_id"`
	HouseholdID string `bigquery:"household_id"`
	Name        string `bigquery:"name"`
	Type        string `bigquery:"type"` // EXPENSE or INCOME
}

type AccountRow struct {
	AccountID   string `bigquery:"account_id"`
	HouseholdID string `bigquery:"household_id"`
	Name        string `bigquery:"name"`
	Type        string `bigquery:"type"`
	Currency    string `bigquery:"currency"`
}

type BudgetRow struct {
	BudgetID    string     `bigquery:"budget_id"`    // REQUIRED
	HouseholdID string     `bigquery:"household_id"` // REQUIRED
	CategoryID  string     `bigquery:"category_id"`  // REQUIRED
	Name        string     `bigquery:"name"`
	Amount      *big.Rat   `bigquery:"amount"`     // REQUIRED NUMERIC
	StartDate   civil.Date `bigquery:"start_date"` // REQUIRED DATE
	EndDate     civil.Date `bigquery:"end_date"`   // REQUIRED DATE, inclusive
	Source      string     `bigquery:"source"`     // manual or suggestion
	CreatedTS   time.Time  `bigquery:"created_ts"`
}

// transactionInsertRow is the write shape of a transaction; category names live in
// the categories table.
type transactionInsertRow struct {
	TransactionID string              `bigquery:"transaction_id"`
	HouseholdID   string              `bigquery:"household_id"`
	Type          string              `bigquery:"type"`
	Amount        *big.Rat            `bigquery:"amount"`
	OccurredAt    time.Time           `bigquery:"occurred_at"`
	Description   string              `bigquery:"description"`
	CategoryID    bigquery.NullString `bigquery:"category_id"`
	FromAccountID bigquery.NullString `bigquery:"from_account_id"`
	ToAccountID   bigquery.NullString `bigquery:"to_account_id"`
}
