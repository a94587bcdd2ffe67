package domain

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidPayload is returned when a ReportData fails validation.
var ErrInvalidPayload = errors.New("invalid report payload")

const maxSummaryLen = 4000

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Totals are the headline numbers of a report.
type Totals struct {
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Net         decimal.Decimal `json:"net"`
	SavingsRate float64         `json:"savingsRate"` // (income - expenses) / income, 0 without income
}

// CategoryRollup aggregates one category over the report window.
type CategoryRollup struct {
	CategoryID       string          `json:"categoryId"`
	CategoryName     string          `json:"categoryName"`
	Type             TransactionType `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Share            float64         `json:"share"` // of the total for the same type
	TransactionCount int             `json:"transactionCount"`
	AverageMonthly   decimal.Decimal `json:"averageMonthly"`
	ChangePercent    *float64        `json:"changePercent,omitempty"` // vs the previous window
}

// Narrative is the generator output stored under the llm section.
type Narrative struct {
	Summary           string             `json:"summary,omitempty"`
	Insights          []string           `json:"insights,omitempty"`
	Suggestions       []string           `json:"suggestions,omitempty"`
	BudgetSuggestions []BudgetSuggestion `json:"budgetSuggestions"`
	BehaviorPatterns  []string           `json:"behaviorPatterns,omitempty"`
	Risks             []string           `json:"risks,omitempty"`
	Opportunities     []string           `json:"opportunities,omitempty"`
}

// Meta carries presentation details.
type Meta struct {
	Currency string `json:"currency"`
	Label    string `json:"label"`
}

// ReportData is the persisted payload of a completed report.
type ReportData struct {
	Totals     Totals                `json:"totals"`
	Categories []CategoryRollup      `json:"categories"`
	LLM        map[string]*Narrative `json:"llm"`
	Meta       Meta                  `json:"meta"`
}

// Validate checks the payload shape for the given report kind. All problems are
// reported together, wrapped in ErrInvalidPayload.
func (d *ReportData) Validate(kind ReportKind) error {
	if d == nil {
		return fmt.Errorf("%w: nil payload", ErrInvalidPayload)
	}

	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if d.Totals.Income.IsNegative() {
		add("totals.income is negative")
	}
	if d.Totals.Expenses.IsNegative() {
		add("totals.expenses is negative")
	}
	if math.IsNaN(d.Totals.SavingsRate) || math.IsInf(d.Totals.SavingsRate, 0) {
		add("totals.savingsRate is not finite")
	}

	for i, c := range d.Categories {
		if c.CategoryID == "" || c.CategoryName == "" {
			add("categories[%d]: missing id or name", i)
		}
		if c.Type != TransactionTypeExpense && c.Type != TransactionTypeIncome {
			add("categories[%d]: invalid type %q", i, c.Type)
		}
		if c.Share < 0 || c.Share > 1.000001 || math.IsNaN(c.Share) {
			add("categories[%d]: share %v out of range", i, c.Share)
		}
		if c.TransactionCount < 1 {
			add("categories[%d]: empty rollup", i)
		}
	}

	if !currencyPattern.MatchString(d.Meta.Currency) {
		add("meta.currency %q is not an ISO 4217 code", d.Meta.Currency)
	}
	if strings.TrimSpace(d.Meta.Label) == "" {
		add("meta.label is empty")
	}

	if len(d.LLM) != 1 {
		add("llm must hold exactly one section, got %d", len(d.LLM))
	}
	n, ok := d.LLM[kind.Key()]
	switch {
	case !ok:
		add("llm.%s is missing", kind.Key())
	case n == nil:
		add("llm.%s is null", kind.Key())
	default:
		errs = append(errs, n.validate("llm."+kind.Key())...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, errors.Join(errs...))
	}
	return nil
}

func (n *Narrative) validate(prefix string) []error {
	var errs []error
	if len(n.Summary) > maxSummaryLen {
		errs = append(errs, fmt.Errorf("%s.summary exceeds %d characters", prefix, maxSummaryLen))
	}
	lists := map[string][]string{
		"insights":         n.Insights,
		"suggestions":      n.Suggestions,
		"behaviorPatterns": n.BehaviorPatterns,
		"risks":            n.Risks,
		"opportunities":    n.Opportunities,
	}
	for name, items := range lists {
		for i, item := range items {
			if strings.TrimSpace(item) == "" {
				errs = append(errs, fmt.Errorf("%s.%s[%d] is blank", prefix, name, i))
			}
		}
	}
	seen := make(map[string]bool, len(n.BudgetSuggestions))
	for i, s := range n.BudgetSuggestions {
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s.budgetSuggestions[%d]: %w", prefix, i, err))
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("%s.budgetSuggestions[%d]: duplicate id %s", prefix, i, s.ID))
		}
		seen[s.ID] = true
	}
	return errs
}
