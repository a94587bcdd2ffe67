package pipeline

import (
	"sort"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	uncategorizedID   = "uncategorized"
	uncategorizedName = "Uncategorized"
)

// Snapshot is the deterministic numeric part of a report.
type Snapshot struct {
	Totals     domain.Totals
	Categories []domain.CategoryRollup
}

type rollupKey struct {
	categoryID string
	typ        domain.TransactionType
}

// ComputeSnapshot aggregates the window's transactions. Transfers move money between
// the household's own accounts and are left out. previous feeds changePercent.
func ComputeSnapshot(txs, previous []domain.TransactionProjection, categories []domain.Category, start, end time.Time) Snapshot {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	var totals domain.Totals
	rollups := make(map[rollupKey]*domain.CategoryRollup)
	var order []rollupKey

	for _, tx := range txs {
		switch tx.Type {
		case domain.TransactionTypeIncome:
			totals.Income = totals.Income.Add(tx.Amount)
		case domain.TransactionTypeExpense:
			totals.Expenses = totals.Expenses.Add(tx.Amount)
		default:
			continue
		}

		key := rollupKey{categoryID: categoryKey(tx), typ: tx.Type}
		r, ok := rollups[key]
		if !ok {
			r = &domain.CategoryRollup{
				CategoryID:   key.categoryID,
				CategoryName: categoryName(tx, names),
				Type:         tx.Type,
			}
			rollups[key] = r
			order = append(order, key)
		}
		r.Amount = r.Amount.Add(tx.Amount)
		r.TransactionCount++
	}

	totals.Net = totals.Income.Sub(totals.Expenses)
	if !totals.Income.IsZero() {
		totals.SavingsRate = totals.Net.Div(totals.Income).InexactFloat64()
	}

	prev := previousAmounts(previous)
	months := decimal.NewFromInt(int64(MonthsSpanned(start, end)))

	result := make([]domain.CategoryRollup, 0, len(order))
	for _, key := range order {
		r := rollups[key]
		typeTotal := totals.Expenses
		if key.typ == domain.TransactionTypeIncome {
			typeTotal = totals.Income
		}
		if !typeTotal.IsZero() {
			r.Share = r.Amount.Div(typeTotal).InexactFloat64()
		}
		r.AverageMonthly = r.Amount.Div(months).Round(2)
		if p, ok := prev[key]; ok && !p.IsZero() {
			change := r.Amount.Sub(p).Div(p).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
			r.ChangePercent = &change
		}
		result = append(result, *r)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Amount.Equal(result[j].Amount) {
			return result[i].Amount.GreaterThan(result[j].Amount)
		}
		if result[i].Type != result[j].Type {
			return result[i].Type < result[j].Type
		}
		return result[i].CategoryID < result[j].CategoryID
	})

	return Snapshot{Totals: totals, Categories: result}
}

func previousAmounts(txs []domain.TransactionProjection) map[rollupKey]decimal.Decimal {
	out := make(map[rollupKey]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != domain.TransactionTypeIncome && tx.Type != domain.TransactionTypeExpense {
			continue
		}
		key := rollupKey{categoryID: categoryKey(tx), typ: tx.Type}
		out[key] = out[key].Add(tx.Amount)
	}
	return out
}

func categoryKey(tx domain.TransactionProjection) string {
	if tx.CategoryID == "" {
		return uncategorizedID
	}
	return tx.CategoryID
}

func categoryName(tx domain.TransactionProjection, names map[string]string) string {
	if tx.CategoryID == "" {
		return uncategorizedName
	}
	if tx.CategoryName != "" {
		return tx.CategoryName
	}
	if n, ok := names[tx.CategoryID]; ok && n != "" {
		return n
	}
	return tx.CategoryID
}
