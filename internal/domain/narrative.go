package domain

import "time"

// NarrativeInput is everything the narrative generator is given for one report.
type NarrativeInput struct {
	Kind                ReportKind
	StartDate           time.Time
	EndDate             time.Time
	Currency            string
	Transactions        []TransactionProjection
	Categories          []Category
	Accounts            []Account
	Budgets             []Budget
	MonthlyTransactions []TransactionProjection // WEEKLY only
	Totals              Totals
}

// NarrativeOutput is the generator result after boundary validation.
type NarrativeOutput struct {
	Summary           string
	Insights          []string
	Recommendations   []string
	BudgetSuggestions []BudgetSuggestion
	BehaviorPatterns  []string
	Risks             []string
	Opportunities     []string
}
