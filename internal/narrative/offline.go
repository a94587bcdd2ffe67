package narrative

import (
	"context"
	"fmt"

	"github.com/dvloznov/household-reports/internal/domain"
)

// Offline is a deterministic generator used when no model is configured. It writes a
// one-line summary from the totals and never suggests budgets.
type Offline struct{}

// Generate implements the pipeline's narrative generator.
func (Offline) Generate(ctx context.Context, in domain.NarrativeInput) (*domain.NarrativeOutput, error) {
	t := in.Totals
	summary := fmt.Sprintf("Income %s %s, expenses %s %s, net %s %s.",
		t.Income.StringFixed(2), in.Currency,
		t.Expenses.StringFixed(2), in.Currency,
		t.Net.StringFixed(2), in.Currency)
	if !t.Income.IsZero() {
		summary += fmt.Sprintf(" Savings rate %.1f%%.", t.SavingsRate*100)
	}
	return &domain.NarrativeOutput{Summary: summary}, nil
}
