package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/storage"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const reportsTable = "reports"

// CreateReportWithClient inserts a PENDING report into <dataset>.reports.
func CreateReportWithClient(ctx context.Context, client *bigquery.Client, dataset string, r *domain.Report) error {
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

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			report_id, household_id, kind, start_date, end_date, status, currency,
			transaction_count, attempt, created_ts, updated_ts
		)
		VALUES (
			@report_id, @household_id, @kind, @start_date, @end_date, @status, @currency,
			0, 0, @created_ts, @updated_ts
		)
	`, dataset, reportsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "report_id", Value: r.ID},
		{Name: "household_id", Value: r.HouseholdID},
		{Name: "kind", Value: string(r.Kind)},
		{Name: "start_date", Value: r.StartDate},
		{Name: "end_date", Value: r.EndDate},
		{Name: "status", Value: string(r.Status)},
		{Name: "currency", Value: r.Currency},
		{Name: "created_ts", Value: r.CreatedAt},
		{Name: "updated_ts", Value: r.UpdatedAt},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("CreateReport: %w", err)
	}
	return nil
}

// GetReportWithClient reads a report scoped to the household.
func GetReportWithClient(ctx context.Context, client *bigquery.Client, dataset, householdID, reportID string) (*domain.Report, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			report_id, household_id, kind, start_date, end_date, status, currency,
			payload, transaction_count, attempt, created_ts, updated_ts
		FROM %s.%s
		WHERE report_id = @report_id
		  AND household_id = @household_id
		LIMIT 1
	`, dataset, reportsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "report_id", Value: reportID},
		{Name: "household_id", Value: householdID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetReport: query read: %w", err)
	}

	var row ReportRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetReport: iter next: %w", err)
	}

	r, err := reportFromRow(&row)
	if err != nil {
		return nil, fmt.Errorf("GetReport: %w", err)
	}
	return r, nil
}

// MarkGeneratingWithClient sets status=GENERATING, bumps the attempt and returns it.
// BigQuery has no UPDATE ... RETURNING, so the attempt is read back after the update.
func MarkGeneratingWithClient(ctx context.Context, client *bigquery.Client, dataset, reportID string) (int64, error) {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    attempt = attempt + 1,
		    updated_ts = @updated_ts
		WHERE report_id = @report_id
	`, dataset, reportsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: string(domain.ReportStatusGenerating)},
		{Name: "updated_ts", Value: time.Now()},
		{Name: "report_id", Value: reportID},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("MarkGenerating: %w", err)
	}
	if affected == 0 {
		return 0, storage.ErrNotFound
	}

	sel := client.Query(fmt.Sprintf(`
		SELECT attempt FROM %s.%s WHERE report_id = @report_id
	`, dataset, reportsTable))
	sel.Parameters = []bigquery.QueryParameter{{Name: "report_id", Value: reportID}}

	it, err := sel.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("MarkGenerating: query read: %w", err)
	}
	var row struct {
		Attempt int64 `bigquery:"attempt"`
	}
	if err := it.Next(&row); err != nil {
		return 0, fmt.Errorf("MarkGenerating: reading attempt: %w", err)
	}
	return row.Attempt, nil
}

// UpdateReportStatusWithClient moves a GENERATING report to FAILED for the attempt.
// COMPLETED is written by CompleteReportWithClient together with the payload.
func UpdateReportStatusWithClient(ctx context.Context, client *bigquery.Client, dataset, reportID string, attempt int64, status domain.ReportStatus) error {
	if status != domain.ReportStatusFailed {
		return fmt.Errorf("UpdateStatus: invalid target status %q", status)
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    updated_ts = @updated_ts
		WHERE report_id = @report_id
		  AND attempt = @attempt
		  AND status = @generating
	`, dataset, reportsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: string(status)},
		{Name: "updated_ts", Value: time.Now()},
		{Name: "report_id", Value: reportID},
		{Name: "attempt", Value: attempt},
		{Name: "generating", Value: string(domain.ReportStatusGenerating)},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	return checkGuardedWrite(ctx, client, dataset, reportID, affected)
}

// CompleteReportWithClient stores the payload and transaction count and marks the report
// COMPLETED in a single DML statement for the attempt.
func CompleteReportWithClient(ctx context.Context, client *bigquery.Client, dataset, reportID string, attempt int64, data *domain.ReportData, transactionCount int) error {
	if data == nil {
		return fmt.Errorf("Complete: nil payload")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("Complete: encoding payload: %w", err)
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET payload = PARSE_JSON(@payload),
		    transaction_count = @transaction_count,
		    status = @completed,
		    updated_ts = @updated_ts
		WHERE report_id = @report_id
		  AND attempt = @attempt
		  AND status = @generating
	`, dataset, reportsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "payload", Value: string(raw)},
		{Name: "transaction_count", Value: int64(transactionCount)},
		{Name: "completed", Value: string(domain.ReportStatusCompleted)},
		{Name: "updated_ts", Value: time.Now()},
		{Name: "report_id", Value: reportID},
		{Name: "attempt", Value: attempt},
		{Name: "generating", Value: string(domain.ReportStatusGenerating)},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	return checkGuardedWrite(ctx, client, dataset, reportID, affected)
}

// checkGuardedWrite turns a zero-row update into ErrNotFound or ErrStaleAttempt.
func checkGuardedWrite(ctx context.Context, client *bigquery.Client, dataset, reportID string, affected int64) error {
	if affected > 0 {
		return nil
	}

	q := client.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS n FROM %s.%s WHERE report_id = @report_id
	`, dataset, reportsTable))
	q.Parameters = []bigquery.QueryParameter{{Name: "report_id", Value: reportID}}

	it, err := q.Read(ctx)
	if err != nil {
		return fmt.Errorf("checking report existence: %w", err)
	}
	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return fmt.Errorf("checking report existence: %w", err)
	}
	if row.N == 0 {
		return storage.ErrNotFound
	}
	return storage.ErrStaleAttempt
}

// runDML runs a DML statement, waits for it and returns the number of affected rows.
func runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}
