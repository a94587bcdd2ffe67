package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SuggestionKind tags the budget suggestion variant.
type SuggestionKind string

const (
	SuggestionKindCreate SuggestionKind = "CREATE"
	SuggestionKindUpdate SuggestionKind = "UPDATE"
)

// SuggestionStatus tracks human review of a suggestion.
type SuggestionStatus string

const (
	SuggestionStatusPending  SuggestionStatus = "PENDING"
	SuggestionStatusApproved SuggestionStatus = "APPROVED"
	SuggestionStatusRejected SuggestionStatus = "REJECTED"
	SuggestionStatusEdited   SuggestionStatus = "EDITED"
)

func (s SuggestionStatus) valid() bool {
	switch s {
	case SuggestionStatusPending, SuggestionStatusApproved, SuggestionStatusRejected, SuggestionStatusEdited:
		return true
	}
	return false
}

// BudgetProposal is the new budget a CREATE suggestion asks for.
type BudgetProposal struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
}

// IsEmpty reports whether the proposal carries nothing that could be persisted.
func (p *BudgetProposal) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.CategoryID == "" || p.Amount.IsZero() || p.StartDate.IsZero() || p.EndDate.IsZero()
}

// BudgetAdjustment is the change an UPDATE suggestion asks for.
type BudgetAdjustment struct {
	BudgetID  string          `json:"budgetId"`
	NewAmount decimal.Decimal `json:"newAmount"`
}

// BudgetEcho mirrors the budget created for a suggestion.
type BudgetEcho struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	StartDate time.Time       `json:"startDate"`
	EndDate   time.Time       `json:"endDate"`
}

// BudgetSuggestion is a generator-proposed budget action.
//
// Exactly one of Proposal (CREATE) or Adjustment (UPDATE) is set. BudgetID and
// CurrentBudget are only set once a CREATE suggestion has been provisioned.
type BudgetSuggestion struct {
	ID            string            `json:"id"`
	Kind          SuggestionKind    `json:"kind"`
	CategoryID    string            `json:"categoryId"`
	CategoryName  string            `json:"categoryName,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Proposal      *BudgetProposal   `json:"proposal,omitempty"`
	Adjustment    *BudgetAdjustment `json:"adjustment,omitempty"`
	BudgetID      *string           `json:"budgetId,omitempty"`
	CurrentBudget *BudgetEcho       `json:"currentBudget,omitempty"`
	Status        SuggestionStatus  `json:"status"`
}

// NewCreateSuggestion builds a CREATE suggestion. A nil or empty proposal is kept; it
// just won't be provisioned.
func NewCreateSuggestion(categoryID, categoryName, reason string, proposal *BudgetProposal) (BudgetSuggestion, error) {
	if strings.TrimSpace(categoryID) == "" {
		return BudgetSuggestion{}, errors.New("create suggestion: category is required")
	}
	if proposal != nil && !proposal.IsEmpty() {
		if proposal.Amount.IsNegative() {
			return BudgetSuggestion{}, fmt.Errorf("create suggestion: negative amount %s", proposal.Amount)
		}
		if proposal.EndDate.Before(proposal.StartDate) {
			return BudgetSuggestion{}, errors.New("create suggestion: end date before start date")
		}
	}
	return BudgetSuggestion{
		Kind:         SuggestionKindCreate,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		Reason:       reason,
		Proposal:     proposal,
		Status:       SuggestionStatusPending,
	}, nil
}

// NewUpdateSuggestion builds an UPDATE suggestion for an existing budget.
func NewUpdateSuggestion(categoryID, categoryName, reason string, adj BudgetAdjustment) (BudgetSuggestion, error) {
	if strings.TrimSpace(categoryID) == "" {
		return BudgetSuggestion{}, errors.New("update suggestion: category is required")
	}
	if adj.BudgetID == "" {
		return BudgetSuggestion{}, errors.New("update suggestion: budget id is required")
	}
	if !adj.NewAmount.IsPositive() {
		return BudgetSuggestion{}, fmt.Errorf("update suggestion: amount must be positive, got %s", adj.NewAmount)
	}
	return BudgetSuggestion{
		Kind:         SuggestionKindUpdate,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		Reason:       reason,
		Adjustment:   &adj,
		Status:       SuggestionStatusPending,
	}, nil
}

// Validate checks the variant invariants of a suggestion about to be persisted.
func (s BudgetSuggestion) Validate() error {
	if s.ID == "" {
		return errors.New("missing id")
	}
	if !s.Status.valid() {
		return fmt.Errorf("invalid status %q", s.Status)
	}
	if s.CategoryID == "" {
		return errors.New("missing category")
	}
	switch s.Kind {
	case SuggestionKindCreate:
		if s.Adjustment != nil {
			return errors.New("create suggestion carries an adjustment")
		}
		if s.BudgetID != nil && s.Proposal.IsEmpty() {
			return errors.New("linked budget without a proposal")
		}
	case SuggestionKindUpdate:
		if s.Adjustment == nil || s.Adjustment.BudgetID == "" {
			return errors.New("update suggestion without a target budget")
		}
		if s.Proposal != nil || s.BudgetID != nil {
			return errors.New("update suggestion carries create fields")
		}
	default:
		return fmt.Errorf("invalid kind %q", s.Kind)
	}
	return nil
}
