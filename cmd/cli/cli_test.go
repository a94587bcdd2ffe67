package main

import (
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/jobs"
	"github.com/shopspring/decimal"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
	}{
		{"single day", "2024-01-01", "2024-01-01", false},
		{"month", "2024-01-01", "2024-01-31", false},
		{"reversed", "2024-02-01", "2024-01-31", true},
		{"bad start", "01/01/2024", "2024-01-31", true},
		{"bad end", "2024-01-01", "tomorrow", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := parsePeriod(tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePeriod() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if start.Hour() != 0 || start.Location() != time.UTC {
				t.Errorf("start = %v, want UTC midnight", start)
			}
			if end.Format("15:04:05.000") != "23:59:59.999" {
				t.Errorf("end = %v, want the last millisecond of the day", end)
			}
		})
	}
}

func TestJobsURL(t *testing.T) {
	got, err := jobsURL("http://localhost:8080/", "rep-1", "failed", 5)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "http://localhost:8080/api/jobs?") {
		t.Errorf("jobsURL() = %q", got)
	}
	for _, part := range []string{"report_id=rep-1", "status=failed", "limit=5"} {
		if !strings.Contains(got, part) {
			t.Errorf("jobsURL() = %q, missing %s", got, part)
		}
	}

	if _, err := jobsURL("://bad", "", "", 0); err == nil {
		t.Error("jobsURL() expected error for a malformed server URL")
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "Amount"},
		Rows:    [][]string{{"Rent", "1200.00"}, {"Groceries", "85.50"}},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// top, header, separator, two rows, bottom
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "Groceries") || !strings.Contains(out, "1200.00") {
		t.Errorf("table is missing cells:\n%s", out)
	}
	if RenderTable(Table{}) != "" {
		t.Error("empty table should render nothing")
	}
}

func TestRenderReport(t *testing.T) {
	change := 0.25
	budgetID := "budget-1"
	r := &domain.Report{
		ID:   "rep-1",
		Kind: domain.ReportKindMonthly,
		Data: &domain.ReportData{
			Totals: domain.Totals{
				Income:      decimal.NewFromInt(3000),
				Expenses:    decimal.NewFromInt(1200),
				Net:         decimal.NewFromInt(1800),
				SavingsRate: 0.6,
			},
			Categories: []domain.CategoryRollup{{
				CategoryID: "cat-rent", CategoryName: "Rent", Type: domain.TransactionTypeExpense,
				Amount: decimal.NewFromInt(1200), Share: 1, TransactionCount: 1,
				AverageMonthly: decimal.NewFromInt(1200), ChangePercent: &change,
			}},
			LLM: map[string]*domain.Narrative{"monthly": {
				Summary:  "A steady month.",
				Insights: []string{"Rent dominates spending"},
				BudgetSuggestions: []domain.BudgetSuggestion{{
					ID: "s1", Kind: domain.SuggestionKindCreate, CategoryName: "Rent",
					Proposal: &domain.BudgetProposal{Amount: decimal.NewFromInt(1250)},
					BudgetID: &budgetID,
				}},
			}},
			Meta: domain.Meta{Currency: "USD", Label: "January 2024"},
		},
	}

	out := renderReport(r)
	for _, want := range []string{"JANUARY 2024", "1800.00", "60.0%", "+25.0%", "A steady month.", "Rent dominates spending", "1250.00", "budget-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered report is missing %q", want)
		}
	}
}

func TestRenderJobs(t *testing.T) {
	if !strings.Contains(renderJobs(nil), "No jobs") {
		t.Error("empty list should say so")
	}
	out := renderJobs([]jobs.GenerateReportJob{{JobID: "job-1", ReportID: "rep-1", Status: jobs.JobStatusRunning, Attempt: 2}})
	if !strings.Contains(out, "job-1") || !strings.Contains(out, "running") {
		t.Errorf("renderJobs() =\n%s", out)
	}
}

func TestParseImport(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{
			name: "expense and income",
			input: `[
				{"type": "expense", "amount": "42.50", "occurred_at": "2024-01-05", "category_id": "cat-food", "from_account_id": "acc-1"},
				{"id": "tx-2", "type": "INCOME", "amount": 3000, "occurred_at": "2024-01-01T09:00:00Z", "to_account_id": "acc-1"}
			]`,
			wantLen: 2,
		},
		{name: "empty", input: `[]`, wantLen: 0},
		{name: "unknown type", input: `[{"type": "refund", "amount": "1", "occurred_at": "2024-01-01"}]`, wantErr: true},
		{name: "negative amount", input: `[{"type": "expense", "amount": "-1", "occurred_at": "2024-01-01"}]`, wantErr: true},
		{name: "bad date", input: `[{"type": "expense", "amount": "1", "occurred_at": "yesterday"}]`, wantErr: true},
		{name: "not json", input: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := parseImport([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseImport() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(txs) != tt.wantLen {
				t.Fatalf("parseImport() returned %d transactions, want %d", len(txs), tt.wantLen)
			}
		})
	}

	txs, err := parseImport([]byte(`[{"type": "expense", "amount": "42.50", "occurred_at": "2024-01-05", "from_account_id": "acc-1"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if txs[0].Type != domain.TransactionTypeExpense || !txs[0].Amount.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("parsed %+v", txs[0])
	}
	if txs[0].FromAccountID == nil || *txs[0].FromAccountID != "acc-1" {
		t.Errorf("FromAccountID = %v, want acc-1", txs[0].FromAccountID)
	}
}
