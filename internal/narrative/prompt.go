package narrative

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/shopspring/decimal"
)

// maxPromptTransactions caps the transaction listing; totals always cover everything.
const maxPromptTransactions = 200

// buildPrompt renders the report context for the model.
func buildPrompt(in domain.NarrativeInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write the %s financial report for a household.\n", in.Kind.Key())
	fmt.Fprintf(&b, "Period: %s to %s. Currency: %s.\n\n",
		in.StartDate.Format(dateLayout), in.EndDate.Format(dateLayout), in.Currency)

	b.WriteString("TOTALS:\n")
	fmt.Fprintf(&b, "- income: %s\n", in.Totals.Income.StringFixed(2))
	fmt.Fprintf(&b, "- expenses: %s\n", in.Totals.Expenses.StringFixed(2))
	fmt.Fprintf(&b, "- net: %s\n", in.Totals.Net.StringFixed(2))
	fmt.Fprintf(&b, "- savings rate: %.1f%%\n\n", in.Totals.SavingsRate*100)

	b.WriteString(categoriesSection(in.Categories))
	b.WriteString(accountsSection(in.Accounts))
	b.WriteString(budgetsSection(in.Budgets, in.Transactions))
	b.WriteString(transactionsSection("TRANSACTIONS", in.Transactions))

	if in.Kind == domain.ReportKindWeekly && len(in.MonthlyTransactions) > 0 {
		b.WriteString("MONTH CONTEXT (spending by category for the whole month around this week):\n")
		for _, line := range spendByCategory(in.MonthlyTransactions) {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(outputRules(in.Kind))
	return b.String()
}

func categoriesSection(categories []domain.Category) string {
	var b strings.Builder
	b.WriteString("CATEGORIES (id | name | type):\n")
	if len(categories) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, c := range categories {
		fmt.Fprintf(&b, "  %s | %s | %s\n", c.ID, c.Name, c.Type)
	}
	b.WriteString("\n")
	return b.String()
}

func accountsSection(accounts []domain.Account) string {
	if len(accounts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("ACCOUNTS (name | type | currency):\n")
	for _, a := range accounts {
		fmt.Fprintf(&b, "  %s | %s | %s\n", a.Name, a.Type, a.Currency)
	}
	b.WriteString("\n")
	return b.String()
}

func budgetsSection(budgets []domain.Budget, txs []domain.TransactionProjection) string {
	var b strings.Builder
	b.WriteString("EXISTING BUDGETS (id | category id | name | amount | from | to | spent in period):\n")
	if len(budgets) == 0 {
		b.WriteString("  (none)\n\n")
		return b.String()
	}
	spent := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type == domain.TransactionTypeExpense {
			spent[tx.CategoryID] = spent[tx.CategoryID].Add(tx.Amount)
		}
	}
	for _, bg := range budgets {
		fmt.Fprintf(&b, "  %s | %s | %s | %s | %s | %s | %s\n",
			bg.ID, bg.CategoryID, bg.Name, bg.Amount.StringFixed(2),
			bg.StartDate.Format(dateLayout), bg.EndDate.Format(dateLayout),
			spent[bg.CategoryID].StringFixed(2))
	}
	b.WriteString("\n")
	return b.String()
}

func transactionsSection(title string, txs []domain.TransactionProjection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (date | type | amount | category | description):\n", title)
	if len(txs) == 0 {
		b.WriteString("  (none)\n\n")
		return b.String()
	}
	shown := txs
	if len(shown) > maxPromptTransactions {
		shown = shown[:maxPromptTransactions]
	}
	for _, tx := range shown {
		category := tx.CategoryName
		if category == "" {
			category = "Uncategorized"
		}
		fmt.Fprintf(&b, "  %s | %s | %s | %s | %s\n",
			tx.OccurredAt.Format(dateLayout), tx.Type, tx.Amount.StringFixed(2), category, tx.Description)
	}
	if len(txs) > len(shown) {
		fmt.Fprintf(&b, "  ... %d more transactions not listed\n", len(txs)-len(shown))
	}
	b.WriteString("\n")
	return b.String()
}

// spendByCategory lists expense totals per category name, largest first.
func spendByCategory(txs []domain.TransactionProjection) []string {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != domain.TransactionTypeExpense {
			continue
		}
		name := tx.CategoryName
		if name == "" {
			name = "Uncategorized"
		}
		sums[name] = sums[name].Add(tx.Amount)
	}
	names := make([]string, 0, len(sums))
	for n := range sums {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if !sums[names[i]].Equal(sums[names[j]]) {
			return sums[names[i]].GreaterThan(sums[names[j]])
		}
		return names[i] < names[j]
	})
	lines := make([]string, 0, len(names))
	for _, n := range names {
		lines = append(lines, n+": "+sums[n].StringFixed(2))
	}
	return lines
}

func outputRules(kind domain.ReportKind) string {
	var b strings.Builder
	b.WriteString("OUTPUT FORMAT:\n")
	b.WriteString("Return ONE JSON object with these fields:\n")
	b.WriteString("- \"summary\": string, at most 3 short paragraphs\n")
	b.WriteString("- \"insights\": array of strings\n")
	b.WriteString("- \"recommendations\": array of strings\n")
	if kind == domain.ReportKindInitial {
		b.WriteString("- \"behaviorPatterns\": array of strings describing recurring habits\n")
	}
	b.WriteString("- \"risks\": array of strings\n")
	b.WriteString("- \"opportunities\": array of strings\n")
	b.WriteString("- \"budgetSuggestions\": array of objects, each either\n")
	b.WriteString("    {\"type\": \"CREATE\", \"categoryId\", \"reason\", \"name\", \"amount\": number, \"startDate\": \"YYYY-MM-DD\", \"endDate\": \"YYYY-MM-DD\"}\n")
	b.WriteString("    {\"type\": \"UPDATE\", \"categoryId\", \"reason\", \"budgetId\", \"newAmount\": number}\n\n")
	b.WriteString("RULES:\n")
	b.WriteString("1. categoryId must be EXACTLY one of the category ids listed above.\n")
	b.WriteString("2. budgetId must be EXACTLY one of the existing budget ids listed above.\n")
	b.WriteString("3. Only suggest CREATE for categories without an existing budget.\n")
	b.WriteString("4. Use the numbers given; do not invent transactions.\n")
	b.WriteString("5. Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n")
	return b.String()
}
