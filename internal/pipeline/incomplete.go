package pipeline

import (
	"fmt"

	"github.com/dvloznov/household-reports/internal/domain"
)

// IncompleteSummary counts transactions missing the accounts their type requires.
type IncompleteSummary struct {
	Expense  int
	Income   int
	Transfer int
}

// Total is the number of incomplete transactions of any type.
func (s IncompleteSummary) Total() int {
	return s.Expense + s.Income + s.Transfer
}

// Warning returns the log line for the summary, or "" when nothing is incomplete.
func (s IncompleteSummary) Warning() string {
	n := s.Total()
	if n == 0 {
		return ""
	}
	noun := "transactions"
	if n == 1 {
		noun = "transaction"
	}
	return fmt.Sprintf("Found %d incomplete %s (%d expense, %d income, %d transfer)",
		n, noun, s.Expense, s.Income, s.Transfer)
}

// DetectIncomplete checks account links: EXPENSE needs a source account, INCOME a
// destination account, TRANSFER both.
func DetectIncomplete(txs []domain.TransactionProjection) IncompleteSummary {
	var s IncompleteSummary
	for _, tx := range txs {
		hasFrom := present(tx.FromAccountID)
		hasTo := present(tx.ToAccountID)
		switch tx.Type {
		case domain.TransactionTypeExpense:
			if !hasFrom {
				s.Expense++
			}
		case domain.TransactionTypeIncome:
			if !hasTo {
				s.Income++
			}
		case domain.TransactionTypeTransfer:
			if !hasFrom || !hasTo {
				s.Transfer++
			}
		}
	}
	return s
}

func present(id *string) bool {
	return id != nil && *id != ""
}
