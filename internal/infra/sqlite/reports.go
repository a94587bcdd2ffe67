package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/storage"
	"github.com/google/uuid"
)

// CreateReport inserts a PENDING report.
func (s *Store) CreateReport(ctx context.Context, r *domain.Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	r.Status = domain.ReportStatusPending
	if err := r.Validate(); err != nil {
		return fmt.Errorf("CreateReport: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (report_id, household_id, kind, start_date, end_date, status, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.HouseholdID, string(r.Kind), formatTime(r.StartDate), formatTime(r.EndDate),
		string(r.Status), r.Currency, formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("CreateReport: inserting row: %w", err)
	}
	return nil
}

// GetReport returns the report scoped to the household.
func (s *Store) GetReport(ctx context.Context, householdID, reportID string) (*domain.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT report_id, household_id, kind, start_date, end_date, status, currency,
		       payload, transaction_count, attempt, created_at, updated_at
		FROM reports
		WHERE report_id = ? AND household_id = ?`, reportID, householdID)

	var (
		r                    domain.Report
		kind, status         string
		start, end           string
		createdAt, updatedAt string
		payload              sql.NullString
	)
	err := row.Scan(&r.ID, &r.HouseholdID, &kind, &start, &end, &status, &r.Currency,
		&payload, &r.TransactionCount, &r.Attempt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetReport: scanning row: %w", err)
	}

	r.Kind = domain.ReportKind(kind)
	r.Status = domain.ReportStatus(status)
	for _, f := range []struct {
		dst *time.Time
		src string
	}{{&r.StartDate, start}, {&r.EndDate, end}, {&r.CreatedAt, createdAt}, {&r.UpdatedAt, updatedAt}} {
		t, err := parseTime(f.src)
		if err != nil {
			return nil, fmt.Errorf("GetReport: parsing time %q: %w", f.src, err)
		}
		*f.dst = t
	}

	if payload.Valid {
		var data domain.ReportData
		if err := json.Unmarshal([]byte(payload.String), &data); err != nil {
			return nil, fmt.Errorf("GetReport: decoding payload: %w", err)
		}
		r.Data = &data
	}

	return &r, nil
}

// MarkGenerating moves the report to GENERATING and returns the new attempt number.
func (s *Store) MarkGenerating(ctx context.Context, reportID string) (int64, error) {
	var attempt int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE reports
		SET status = ?, attempt = attempt + 1, updated_at = ?
		WHERE report_id = ?
		RETURNING attempt`,
		string(domain.ReportStatusGenerating), formatTime(time.Now()), reportID,
	).Scan(&attempt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("MarkGenerating: updating row: %w", err)
	}
	return attempt, nil
}

// UpdateStatus sets FAILED if the attempt is still current. COMPLETED goes through Complete
// so that it is never stored without its payload.
func (s *Store) UpdateStatus(ctx context.Context, reportID string, attempt int64, status domain.ReportStatus) error {
	if status != domain.ReportStatusFailed {
		return fmt.Errorf("UpdateStatus: invalid target status %q", status)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET status = ?, updated_at = ?
		WHERE report_id = ? AND attempt = ? AND status = ?`,
		string(status), formatTime(time.Now()), reportID, attempt, string(domain.ReportStatusGenerating),
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: updating row: %w", err)
	}
	return s.checkGuardedWrite(ctx, res, reportID)
}

// Complete stores the payload and marks the report COMPLETED if the attempt is still current.
func (s *Store) Complete(ctx context.Context, reportID string, attempt int64, data *domain.ReportData, transactionCount int) error {
	if data == nil {
		return fmt.Errorf("Complete: nil payload")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("Complete: encoding payload: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET payload = ?, transaction_count = ?, status = ?, updated_at = ?
		WHERE report_id = ? AND attempt = ? AND status = ?`,
		string(raw), transactionCount, string(domain.ReportStatusCompleted), formatTime(time.Now()),
		reportID, attempt, string(domain.ReportStatusGenerating),
	)
	if err != nil {
		return fmt.Errorf("Complete: updating row: %w", err)
	}
	return s.checkGuardedWrite(ctx, res, reportID)
}

// checkGuardedWrite turns a zero-row update into ErrNotFound or ErrStaleAttempt.
func (s *Store) checkGuardedWrite(ctx context.Context, res sql.Result, reportID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports WHERE report_id = ?`, reportID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking report existence: %w", err)
	}
	if exists == 0 {
		return storage.ErrNotFound
	}
	return storage.ErrStaleAttempt
}
