package bigquery

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/shopspring/decimal"
)

func TestRatToDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   *big.Rat
		want string
	}{
		{"nil", nil, "0"},
		{"integer", big.NewRat(1200, 1), "1200"},
		{"cents", big.NewRat(12345, 100), "123.45"},
		{"rounded to scale", big.NewRat(1, 3), "0.3333"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ratToDecimal(tt.in)
			if err != nil {
				t.Fatalf("ratToDecimal() error = %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ratToDecimal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("87.65")
	got, err := ratToDecimal(decimalToRat(d))
	if err != nil {
		t.Fatalf("ratToDecimal() error = %v", err)
	}
	if !got.Equal(d) {
		t.Errorf("round trip = %s, want %s", got, d)
	}
}

func TestBudgetRowDates(t *testing.T) {
	b := &domain.Budget{
		ID:         "b1",
		CategoryID: "food",
		Amount:     decimal.NewFromInt(300),
		StartDate:  time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, time.April, 30, 23, 59, 59, int(999*time.Millisecond), time.UTC),
	}

	row := budgetToRow(b)
	if row.StartDate != (civil.Date{Year: 2024, Month: time.April, Day: 1}) {
		t.Errorf("StartDate = %v", row.StartDate)
	}
	if row.EndDate != (civil.Date{Year: 2024, Month: time.April, Day: 30}) {
		t.Errorf("EndDate = %v", row.EndDate)
	}

	back, err := budgetFromRow(row)
	if err != nil {
		t.Fatalf("budgetFromRow() error = %v", err)
	}
	if !back.StartDate.Equal(b.StartDate) || !back.EndDate.Equal(b.EndDate) {
		t.Errorf("dates = [%v, %v], want [%v, %v]", back.StartDate, back.EndDate, b.StartDate, b.EndDate)
	}
	if !back.Amount.Equal(b.Amount) {
		t.Errorf("Amount = %s, want %s", back.Amount, b.Amount)
	}
}

func TestReportFromRow(t *testing.T) {
	row := &ReportRow{
		ReportID:    "r1",
		HouseholdID: "h1",
		Kind:        "WEEKLY",
		Status:      "COMPLETED",
		Currency:    "USD",
		Payload: bigquery.NullJSON{
			JSONVal: `{"totals":{"income":"10","expenses":"4","net":"6","savingsRate":0.6},"categories":[],"llm":{"weekly":{"budgetSuggestions":[]}},"meta":{"currency":"USD","label":"x"}}`,
			Valid:   true,
		},
		TransactionCount: 3,
		Attempt:          2,
	}

	r, err := reportFromRow(row)
	if err != nil {
		t.Fatalf("reportFromRow() error = %v", err)
	}
	if r.Kind != domain.ReportKindWeekly || r.Status != domain.ReportStatusCompleted || r.Attempt != 2 {
		t.Errorf("report = %+v", r)
	}
	if r.Data == nil || !r.Data.Totals.Income.Equal(decimal.NewFromInt(10)) {
		t.Errorf("payload = %+v", r.Data)
	}

	row.Payload = bigquery.NullJSON{}
	r, err = reportFromRow(row)
	if err != nil || r.Data != nil {
		t.Errorf("reportFromRow() without payload = %+v, %v", r, err)
	}

	row.Payload = bigquery.NullJSON{JSONVal: "{", Valid: true}
	if _, err := reportFromRow(row); err == nil {
		t.Error("reportFromRow() expected error for broken payload")
	}
}

func TestTransactionFromRow(t *testing.T) {
	row := &TransactionRow{
		TransactionID: "t1",
		Type:          "EXPENSE",
		Amount:        big.NewRat(4250, 100),
		CategoryID:    bigquery.NullString{StringVal: "food", Valid: true},
		FromAccountID: bigquery.NullString{StringVal: "acc", Valid: true},
	}
	tx, err := transactionFromRow(row)
	if err != nil {
		t.Fatalf("transactionFromRow() error = %v", err)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("Amount = %s", tx.Amount)
	}
	if tx.FromAccountID == nil || *tx.FromAccountID != "acc" || tx.ToAccountID != nil {
		t.Errorf("accounts = %v / %v", tx.FromAccountID, tx.ToAccountID)
	}
}
