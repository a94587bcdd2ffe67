package pipeline

import (
	"fmt"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
)

// PeriodContext holds the windows a run reads besides the report's own range.
type PeriodContext struct {
	// BudgetStart and BudgetEnd bound the overlapping-budget query. For WEEKLY reports
	// they are the enclosing month bounds, otherwise the report's own range.
	BudgetStart time.Time
	BudgetEnd   time.Time

	// IncludesMonth is set for WEEKLY reports, which also load the month's transactions.
	IncludesMonth bool

	// PreviousStart and PreviousEnd are the equal-length window right before the report.
	PreviousStart time.Time
	PreviousEnd   time.Time
}

// ResolvePeriodContext computes the extra windows for a report.
func ResolvePeriodContext(kind domain.ReportKind, start, end time.Time) PeriodContext {
	pc := PeriodContext{
		BudgetStart: start,
		BudgetEnd:   end,
	}
	if kind == domain.ReportKindWeekly {
		pc.BudgetStart, pc.BudgetEnd = MonthBounds(start, end)
		pc.IncludesMonth = true
	}
	pc.PreviousStart, pc.PreviousEnd = PreviousWindow(start, end)
	return pc
}

// MonthBounds returns 00:00 on the first day of start's month and 23:59:59.999 on the
// last day of end's month, in start's location.
func MonthBounds(start, end time.Time) (time.Time, time.Time) {
	loc := start.Location()
	monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, loc)
	end = end.In(loc)
	nextMonth := time.Date(end.Year(), end.Month()+1, 1, 0, 0, 0, 0, loc)
	return monthStart, nextMonth.Add(-time.Millisecond)
}

// PreviousWindow returns the window of the same length ending just before start.
func PreviousWindow(start, end time.Time) (time.Time, time.Time) {
	length := end.Sub(start)
	prevEnd := start.Add(-time.Millisecond)
	return prevEnd.Add(-length), prevEnd
}

// MonthsSpanned counts the calendar months touched by [start, end], at least 1.
func MonthsSpanned(start, end time.Time) int {
	end = end.In(start.Location())
	n := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
	if n < 1 {
		return 1
	}
	return n
}

// Label renders the human title stored in meta.label.
func Label(kind domain.ReportKind, start, end time.Time) string {
	end = end.In(start.Location())
	switch kind {
	case domain.ReportKindWeekly:
		return "Week of " + dateRange(start, end)
	case domain.ReportKindMonthly:
		return start.Format("January 2006")
	case domain.ReportKindQuarterly:
		return fmt.Sprintf("Q%d %d", (int(start.Month())-1)/3+1, start.Year())
	case domain.ReportKindYearly:
		return start.Format("2006")
	case domain.ReportKindInitial:
		return "Initial report (" + dateRange(start, end) + ")"
	default:
		return dateRange(start, end)
	}
}

func dateRange(start, end time.Time) string {
	if start.Year() != end.Year() {
		return start.Format("Jan 2, 2006") + " - " + end.Format("Jan 2, 2006")
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
}
