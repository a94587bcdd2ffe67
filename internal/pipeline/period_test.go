package pipeline

import (
	"testing"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
)

func TestResolvePeriodContext_WeeklyUsesEnclosingMonths(t *testing.T) {
	start := date(2024, time.January, 29)
	end := endOfDay(2024, time.February, 4)

	pc := ResolvePeriodContext(domain.ReportKindWeekly, start, end)

	if !pc.IncludesMonth {
		t.Fatal("weekly context should include month transactions")
	}
	if want := date(2024, time.January, 1); !pc.BudgetStart.Equal(want) {
		t.Errorf("BudgetStart = %v, want %v", pc.BudgetStart, want)
	}
	if want := endOfDay(2024, time.February, 29); !pc.BudgetEnd.Equal(want) {
		t.Errorf("BudgetEnd = %v, want %v", pc.BudgetEnd, want)
	}
}

func TestResolvePeriodContext_OtherKindsUseOwnRange(t *testing.T) {
	start := date(2024, time.March, 1)
	end := endOfDay(2024, time.March, 31)

	for _, kind := range []domain.ReportKind{
		domain.ReportKindMonthly, domain.ReportKindInitial, domain.ReportKindQuarterly, domain.ReportKindCustom,
	} {
		pc := ResolvePeriodContext(kind, start, end)
		if pc.IncludesMonth {
			t.Errorf("%s: IncludesMonth = true", kind)
		}
		if !pc.BudgetStart.Equal(start) || !pc.BudgetEnd.Equal(end) {
			t.Errorf("%s: budget window = [%v, %v], want report range", kind, pc.BudgetStart, pc.BudgetEnd)
		}
	}
}

func TestMonthBounds_YearBoundary(t *testing.T) {
	start, end := MonthBounds(date(2024, time.December, 30), endOfDay(2025, time.January, 5))
	if want := date(2024, time.December, 1); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if want := endOfDay(2025, time.January, 31); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
}

func TestPreviousWindow(t *testing.T) {
	start := date(2024, time.February, 5)
	end := endOfDay(2024, time.February, 11)

	prevStart, prevEnd := PreviousWindow(start, end)

	if want := endOfDay(2024, time.February, 4); !prevEnd.Equal(want) {
		t.Errorf("prevEnd = %v, want %v", prevEnd, want)
	}
	if got := prevEnd.Sub(prevStart); got != end.Sub(start) {
		t.Errorf("previous window length = %v, want %v", got, end.Sub(start))
	}
	if want := date(2024, time.January, 29); !prevStart.Equal(want) {
		t.Errorf("prevStart = %v, want %v", prevStart, want)
	}
}

func TestMonthsSpanned(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"single week", date(2024, time.March, 4), endOfDay(2024, time.March, 10), 1},
		{"week across months", date(2024, time.January, 29), endOfDay(2024, time.February, 4), 2},
		{"quarter", date(2024, time.January, 1), endOfDay(2024, time.March, 31), 3},
		{"across years", date(2023, time.November, 1), endOfDay(2024, time.February, 29), 4},
		{"inverted", date(2024, time.March, 1), date(2024, time.January, 1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsSpanned(tt.start, tt.end); got != tt.want {
				t.Errorf("MonthsSpanned() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		kind       domain.ReportKind
		start, end time.Time
		want       string
	}{
		{domain.ReportKindWeekly, date(2024, time.January, 29), endOfDay(2024, time.February, 4), "Week of Jan 29 - Feb 4, 2024"},
		{domain.ReportKindWeekly, date(2024, time.December, 30), endOfDay(2025, time.January, 5), "Week of Dec 30, 2024 - Jan 5, 2025"},
		{domain.ReportKindMonthly, date(2024, time.January, 1), endOfDay(2024, time.January, 31), "January 2024"},
		{domain.ReportKindQuarterly, date(2024, time.April, 1), endOfDay(2024, time.June, 30), "Q2 2024"},
		{domain.ReportKindYearly, date(2024, time.January, 1), endOfDay(2024, time.December, 31), "2024"},
		{domain.ReportKindInitial, date(2024, time.January, 1), endOfDay(2024, time.March, 31), "Initial report (Jan 1 - Mar 31, 2024)"},
		{domain.ReportKindCustom, date(2024, time.January, 1), endOfDay(2024, time.March, 31), "Jan 1 - Mar 31, 2024"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Label(tt.kind, tt.start, tt.end); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}
