package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidReport is returned when a report record cannot be generated as stored.
var ErrInvalidReport = errors.New("invalid report")

// ReportKind is the period a report covers.
type ReportKind string

const (
	ReportKindInitial   ReportKind = "INITIAL"
	ReportKindWeekly    ReportKind = "WEEKLY"
	ReportKindMonthly   ReportKind = "MONTHLY"
	ReportKindQuarterly ReportKind = "QUARTERLY"
	ReportKindYearly    ReportKind = "YEARLY"
	ReportKindCustom    ReportKind = "CUSTOM"
)

// ParseReportKind accepts either the stored form ("WEEKLY") or the route form ("weekly").
func ParseReportKind(s string) (ReportKind, error) {
	k := ReportKind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case ReportKindInitial, ReportKindWeekly, ReportKindMonthly,
		ReportKindQuarterly, ReportKindYearly, ReportKindCustom:
		return k, nil
	}
	return "", fmt.Errorf("unknown report kind %q", s)
}

// Key is the lowercase form used for the llm section of the payload.
func (k ReportKind) Key() string {
	return strings.ToLower(string(k))
}

// IsPeriodic reports whether triggers for this kind must match the stored kind.
func (k ReportKind) IsPeriodic() bool {
	return k != ReportKindInitial
}

// ReportStatus is the lifecycle state of a report.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "PENDING"
	ReportStatusGenerating ReportStatus = "GENERATING"
	ReportStatusCompleted  ReportStatus = "COMPLETED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// IsTerminal reports whether no automatic transition may follow this status.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusCompleted || s == ReportStatusFailed
}

// CanTransition reports whether moving from s to next is allowed.
//
// Any status may move to GENERATING because a caller can re-trigger a report.
// COMPLETED and FAILED are only reachable from GENERATING.
func (s ReportStatus) CanTransition(next ReportStatus) bool {
	switch next {
	case ReportStatusGenerating:
		return true
	case ReportStatusCompleted, ReportStatusFailed:
		return s == ReportStatusGenerating
	default:
		return false
	}
}

// Report is the persisted record polled by clients.
type Report struct {
	ID               string
	HouseholdID      string
	Kind             ReportKind
	StartDate        time.Time
	EndDate          time.Time
	Status           ReportStatus
	Currency         string      // ISO 4217, copied from the household when the report was created
	Data             *ReportData // nil until generation completes
	TransactionCount int
	Attempt          int64 // bumped on every GENERATING transition
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks the fields a generation run depends on. The payload schema requires
// an ISO 4217 currency, so a report without one would fail every run.
func (r *Report) Validate() error {
	var errs []error
	if r.HouseholdID == "" {
		errs = append(errs, errors.New("household is required"))
	}
	if _, err := ParseReportKind(string(r.Kind)); err != nil {
		errs = append(errs, err)
	}
	if !currencyPattern.MatchString(r.Currency) {
		errs = append(errs, fmt.Errorf("currency %q is not an ISO 4217 code", r.Currency))
	}
	if r.StartDate.IsZero() || r.EndDate.Before(r.StartDate) {
		errs = append(errs, errors.New("period end must not be before its start"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidReport, errors.Join(errs...))
	}
	return nil
}
