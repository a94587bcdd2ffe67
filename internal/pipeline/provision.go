package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/logger"
	"github.com/google/uuid"
)

// BudgetCreator persists budgets proposed by the generator.
type BudgetCreator interface {
	CreateBudget(ctx context.Context, budget *domain.Budget) error
}

// Provisioner turns CREATE suggestions into budgets.
type Provisioner struct {
	budgets BudgetCreator
	newID   func() string
}

// NewProvisioner creates a Provisioner that writes through budgets.
func NewProvisioner(budgets BudgetCreator) *Provisioner {
	return &Provisioner{budgets: budgets, newID: uuid.NewString}
}

// Provision assigns every suggestion a fresh ID and creates a budget for each CREATE
// suggestion with a usable proposal. A failed create is logged and the suggestion is
// returned unlinked; it never fails the run.
func (p *Provisioner) Provision(ctx context.Context, householdID string, suggestions []domain.BudgetSuggestion) []domain.BudgetSuggestion {
	log := logger.FromContext(ctx)
	out := make([]domain.BudgetSuggestion, 0, len(suggestions))

	for _, s := range suggestions {
		s.ID = p.newID()

		if s.Kind != domain.SuggestionKindCreate || s.Proposal.IsEmpty() {
			out = append(out, s)
			continue
		}

		b := &domain.Budget{
			HouseholdID: householdID,
			CategoryID:  s.Proposal.CategoryID,
			Name:        budgetName(s),
			Amount:      s.Proposal.Amount,
			StartDate:   s.Proposal.StartDate,
			EndDate:     s.Proposal.EndDate,
			Source:      "suggestion",
		}
		if err := p.create(ctx, b); err != nil {
			log.Warn().
				Err(err).
				Str("suggestion_id", s.ID).
				Str("category_id", s.CategoryID).
				Msg("Failed to create budget from suggestion")
			out = append(out, s)
			continue
		}

		id := b.ID
		s.BudgetID = &id
		s.CurrentBudget = &domain.BudgetEcho{
			ID:        b.ID,
			Name:      b.Name,
			Amount:    b.Amount,
			StartDate: b.StartDate,
			EndDate:   b.EndDate,
		}
		log.Info().
			Str("suggestion_id", s.ID).
			Str("budget_id", b.ID).
			Msg("Created budget from suggestion")
		out = append(out, s)
	}

	return out
}

// create calls the budget store and turns a panic into an error so that one suggestion
// cannot take down the run.
func (p *Provisioner) create(ctx context.Context, b *domain.Budget) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("CreateBudget: panic: %v", r)
		}
	}()
	return p.budgets.CreateBudget(ctx, b)
}

func budgetName(s domain.BudgetSuggestion) string {
	if s.Proposal.Name != "" {
		return s.Proposal.Name
	}
	if s.CategoryName != "" {
		return s.CategoryName + " budget"
	}
	return "Suggested budget"
}
