package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/shopspring/decimal"
)

func tx(id string, typ domain.TransactionType, amount, categoryID string, at time.Time) domain.TransactionProjection {
	return domain.TransactionProjection{
		ID:         id,
		Type:       typ,
		Amount:     decimal.RequireFromString(amount),
		OccurredAt: at,
		CategoryID: categoryID,
	}
}

func findRollup(t *testing.T, rollups []domain.CategoryRollup, id string, typ domain.TransactionType) domain.CategoryRollup {
	t.Helper()
	for _, r := range rollups {
		if r.CategoryID == id && r.Type == typ {
			return r
		}
	}
	t.Fatalf("no rollup for %s/%s", id, typ)
	return domain.CategoryRollup{}
}

func TestComputeSnapshot_Totals(t *testing.T) {
	at := date(2024, time.March, 10)
	txs := []domain.TransactionProjection{
		tx("1", domain.TransactionTypeIncome, "1000", "salary", at),
		tx("2", domain.TransactionTypeExpense, "300", "groceries", at),
		tx("3", domain.TransactionTypeExpense, "100", "groceries", at),
		tx("4", domain.TransactionTypeExpense, "200", "rent", at),
		tx("5", domain.TransactionTypeTransfer, "5000", "", at),
	}
	categories := []domain.Category{
		{ID: "salary", Name: "Salary"},
		{ID: "groceries", Name: "Groceries"},
		{ID: "rent", Name: "Rent"},
	}

	snap := ComputeSnapshot(txs, nil, categories, date(2024, time.March, 1), endOfDay(2024, time.March, 31))

	if !snap.Totals.Income.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Income = %s, want 1000", snap.Totals.Income)
	}
	if !snap.Totals.Expenses.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expenses = %s, want 600", snap.Totals.Expenses)
	}
	if !snap.Totals.Net.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Net = %s, want 400", snap.Totals.Net)
	}
	if math.Abs(snap.Totals.SavingsRate-0.4) > 1e-9 {
		t.Errorf("SavingsRate = %v, want 0.4", snap.Totals.SavingsRate)
	}

	if len(snap.Categories) != 3 {
		t.Fatalf("got %d rollups, want 3 (transfers excluded)", len(snap.Categories))
	}

	groceries := findRollup(t, snap.Categories, "groceries", domain.TransactionTypeExpense)
	if groceries.CategoryName != "Groceries" {
		t.Errorf("CategoryName = %q, want name from category list", groceries.CategoryName)
	}
	if groceries.TransactionCount != 2 {
		t.Errorf("TransactionCount = %d, want 2", groceries.TransactionCount)
	}
	if math.Abs(groceries.Share-400.0/600.0) > 1e-9 {
		t.Errorf("Share = %v, want 2/3 of expenses", groceries.Share)
	}
	salary := findRollup(t, snap.Categories, "salary", domain.TransactionTypeIncome)
	if salary.Share != 1 {
		t.Errorf("income Share = %v, want 1", salary.Share)
	}
}

func TestComputeSnapshot_SharesSumToOnePerType(t *testing.T) {
	at := date(2024, time.March, 10)
	txs := []domain.TransactionProjection{
		tx("1", domain.TransactionTypeExpense, "33.33", "a", at),
		tx("2", domain.TransactionTypeExpense, "33.33", "b", at),
		tx("3", domain.TransactionTypeExpense, "33.34", "c", at),
		tx("4", domain.TransactionTypeIncome, "10", "x", at),
		tx("5", domain.TransactionTypeIncome, "20", "y", at),
	}

	snap := ComputeSnapshot(txs, nil, nil, date(2024, time.March, 1), endOfDay(2024, time.March, 31))

	sums := map[domain.TransactionType]float64{}
	for _, r := range snap.Categories {
		sums[r.Type] += r.Share
	}
	for typ, sum := range sums {
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("%s shares sum to %v, want 1", typ, sum)
		}
	}
}

func TestComputeSnapshot_ZeroIncome(t *testing.T) {
	txs := []domain.TransactionProjection{
		tx("1", domain.TransactionTypeExpense, "50", "food", date(2024, time.March, 2)),
	}
	snap := ComputeSnapshot(txs, nil, nil, date(2024, time.March, 1), endOfDay(2024, time.March, 7))
	if snap.Totals.SavingsRate != 0 {
		t.Errorf("SavingsRate = %v, want 0 without income", snap.Totals.SavingsRate)
	}
	if !snap.Totals.Net.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("Net = %s, want -50", snap.Totals.Net)
	}
}

func TestComputeSnapshot_Empty(t *testing.T) {
	snap := ComputeSnapshot(nil, nil, nil, date(2024, time.March, 1), endOfDay(2024, time.March, 7))
	if !snap.Totals.Income.IsZero() || !snap.Totals.Expenses.IsZero() {
		t.Errorf("Totals = %+v, want zero", snap.Totals)
	}
	if len(snap.Categories) != 0 {
		t.Errorf("Categories = %v, want none", snap.Categories)
	}
	if snap.Totals.SavingsRate != 0 {
		t.Errorf("SavingsRate = %v, want 0", snap.Totals.SavingsRate)
	}
}

func TestComputeSnapshot_AverageMonthly(t *testing.T) {
	txs := []domain.TransactionProjection{
		tx("1", domain.TransactionTypeExpense, "100", "rent", date(2024, time.January, 5)),
		tx("2", domain.TransactionTypeExpense, "100", "rent", date(2024, time.February, 5)),
		tx("3", domain.TransactionTypeExpense, "100.01", "rent", date(2024, time.March, 5)),
	}

	tests := []struct {
		name       string
		start, end time.Time
		want       string
	}{
		{"quarter", date(2024, time.January, 1), endOfDay(2024, time.March, 31), "100"},
		{"single month window", date(2024, time.March, 1), endOfDay(2024, time.March, 1), "300.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := ComputeSnapshot(txs, nil, nil, tt.start, tt.end)
			r := findRollup(t, snap.Categories, "rent", domain.TransactionTypeExpense)
			if !r.AverageMonthly.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("AverageMonthly = %s, want %s", r.AverageMonthly, tt.want)
			}
		})
	}
}

func TestComputeSnapshot_Uncategorized(t *testing.T) {
	txs := []domain.TransactionProjection{
		tx("1", domain.TransactionTypeExpense, "10", "", date(2024, time.March, 2)),
		tx("2", domain.TransactionTypeExpense, "15", "", date(2024, time.March, 3)),
	}
	snap := ComputeSnapshot(txs, nil, nil, date(2024, time.March, 1), endOfDay(2024, time.March, 7))

	r := findRollup(t, snap.Categories, "uncategorized", domain.TransactionTypeExpense)
	if r.CategoryName != "Uncategorized" || r.TransactionCount != 2 {
		t.Errorf("uncategorized rollup = %+v", r)
	}
}

func TestComputeSnapshot_ChangePercent(t *testing.T) {
	current := []domain.TransactionProjection{
		tx("1", domain.TransactionTypeExpense, "150", "food", date(2024, time.March, 12)),
		tx("2", domain.TransactionTypeExpense, "40", "fun", date(2024, time.March, 12)),
	}
	previous := []domain.TransactionProjection{
		tx("p1", domain.TransactionTypeExpense, "100", "food", date(2024, time.March, 5)),
		tx("p2", domain.TransactionTypeIncome, "40", "fun", date(2024, time.March, 5)),
	}

	snap := ComputeSnapshot(current, previous, nil, date(2024, time.March, 11), endOfDay(2024, time.March, 17))

	food := findRollup(t, snap.Categories, "food", domain.TransactionTypeExpense)
	if food.ChangePercent == nil || *food.ChangePercent != 50 {
		t.Errorf("food ChangePercent = %v, want 50", food.ChangePercent)
	}
	fun := findRollup(t, snap.Categories, "fun", domain.TransactionTypeExpense)
	if fun.ChangePercent != nil {
		t.Errorf("fun ChangePercent = %v, want nil (no previous expense)", *fun.ChangePercent)
	}
}

func TestComputeSnapshot_SortedByAmount(t *testing.T) {
	at := date(2024, time.March, 2)
	txs := []domain.TransactionProjection{
		tx("1", domain.TransactionTypeExpense, "5", "small", at),
		tx("2", domain.TransactionTypeExpense, "500", "big", at),
		tx("3", domain.TransactionTypeIncome, "50", "mid", at),
	}
	snap := ComputeSnapshot(txs, nil, nil, date(2024, time.March, 1), endOfDay(2024, time.March, 7))

	want := []string{"big", "mid", "small"}
	for i, id := range want {
		if snap.Categories[i].CategoryID != id {
			t.Errorf("Categories[%d] = %s, want %s", i, snap.Categories[i].CategoryID, id)
		}
	}
}

func TestComputeSnapshot_Deterministic(t *testing.T) {
	at := date(2024, time.March, 2)
	txs := []domain.TransactionProjection{
		tx("1", domain.TransactionTypeExpense, "20", "b", at),
		tx("2", domain.TransactionTypeExpense, "20", "a", at),
		tx("3", domain.TransactionTypeIncome, "20", "c", at),
	}
	start, end := date(2024, time.March, 1), endOfDay(2024, time.March, 7)

	first := ComputeSnapshot(txs, nil, nil, start, end)
	reversed := []domain.TransactionProjection{txs[2], txs[1], txs[0]}
	second := ComputeSnapshot(reversed, nil, nil, start, end)

	for i := range first.Categories {
		if first.Categories[i].CategoryID != second.Categories[i].CategoryID {
			t.Fatalf("order depends on input order: %v vs %v", first.Categories, second.Categories)
		}
	}
}
