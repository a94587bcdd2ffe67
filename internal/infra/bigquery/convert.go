package bigquery

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/shopspring/decimal"
)

// numericScale is the number of decimal places kept when reading NUMERIC columns.
const numericScale = 4

func decimalToRat(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(r.FloatString(numericScale))
}

func nullString(s *string) bigquery.NullString {
	if s == nil || *s == "" {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: *s, Valid: true}
}

func stringPtr(ns bigquery.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.StringVal
	return &s
}

// dateStart and dateEnd map an inclusive DATE range onto the timestamps used in the domain.
func dateStart(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func dateEnd(d civil.Date) time.Time {
	return d.In(time.UTC).Add(24*time.Hour - time.Millisecond)
}

func reportFromRow(row *ReportRow) (*domain.Report, error) {
	r := &domain.Report{
		ID:               row.ReportID,
		HouseholdID:      row.HouseholdID,
		Kind:             domain.ReportKind(row.Kind),
		StartDate:        row.StartDate.UTC(),
		EndDate:          row.EndDate.UTC(),
		Status:           domain.ReportStatus(row.Status),
		Currency:         row.Currency,
		TransactionCount: int(row.TransactionCount),
		Attempt:          row.Attempt,
		CreatedAt:        row.CreatedTS,
		UpdatedAt:        row.UpdatedTS,
	}
	if row.Payload.Valid && row.Payload.JSONVal != "" {
		var data domain.ReportData
		if err := json.Unmarshal([]byte(row.Payload.JSONVal), &data); err != nil {
			return nil, fmt.Errorf("decoding payload of %s: %w", row.ReportID, err)
		}
		r.Data = &data
	}
	return r, nil
}

func transactionFromRow(row *TransactionRow) (domain.TransactionProjection, error) {
	amount, err := ratToDecimal(row.Amount)
	if err != nil {
		return domain.TransactionProjection{}, fmt.Errorf("amount of %s: %w", row.TransactionID, err)
	}
	return domain.TransactionProjection{
		ID:            row.TransactionID,
		Type:          domain.TransactionType(row.Type),
		Amount:        amount,
		OccurredAt:    row.OccurredAt,
		Description:   row.Description,
		CategoryID:    row.CategoryID.StringVal,
		CategoryName:  row.CategoryName.StringVal,
		FromAccountID: stringPtr(row.FromAccountID),
		ToAccountID:   stringPtr(row.ToAccountID),
	}, nil
}

func budgetFromRow(row *BudgetRow) (domain.Budget, error) {
	amount, err := ratToDecimal(row.Amount)
	if err != nil {
		return domain.Budget{}, fmt.Errorf("amount of budget %s: %w", row.BudgetID, err)
	}
	return domain.Budget{
		ID:          row.BudgetID,
		HouseholdID: row.HouseholdID,
		CategoryID:  row.CategoryID,
		Name:        row.Name,
		Amount:      amount,
		StartDate:   dateStart(row.StartDate),
		EndDate:     dateEnd(row.EndDate),
		Source:      row.Source,
		CreatedAt:   row.CreatedTS,
	}, nil
}

func budgetToRow(b *domain.Budget) *BudgetRow {
	return &BudgetRow{
		BudgetID:    b.ID,
		HouseholdID: b.HouseholdID,
		CategoryID:  b.CategoryID,
		Name:        b.Name,
		Amount:      decimalToRat(b.Amount),
		StartDate:   civil.DateOf(b.StartDate.UTC()),
		EndDate:     civil.DateOf(b.EndDate.UTC()),
		Source:      b.Source,
		CreatedTS:   b.CreatedAt,
	}
}
