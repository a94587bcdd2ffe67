// Package pipeline turns a stored report window into a persisted report: it moves the
// report through its status lifecycle and runs the generation steps on a job worker.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/jobs"
	"github.com/dvloznov/household-reports/internal/logger"
	"github.com/dvloznov/household-reports/internal/storage"
	"github.com/rs/zerolog"
)

var (
	// ErrReportNotFound is returned when the report does not exist for the household.
	ErrReportNotFound = errors.New("report not found")

	// ErrPeriodMismatch is returned when a periodic trigger targets a report of another kind.
	ErrPeriodMismatch = errors.New("report period does not match trigger")
)

const defaultFinalWriteTimeout = 30 * time.Second

// ReportSink receives completed reports. Failures are logged and never change the
// report status.
type ReportSink interface {
	Name() string
	Publish(ctx context.Context, report *domain.Report) error
}

// Dependencies are the collaborators of an Orchestrator.
type Dependencies struct {
	Store     storage.Store
	Publisher jobs.Publisher
	Generator NarrativeGenerator
	Sinks     []ReportSink
	Logger    zerolog.Logger

	// FinalWriteTimeout bounds the terminal status write. Defaults to 30s.
	FinalWriteTimeout time.Duration
}

// Orchestrator starts generation runs and executes them on the job queue.
type Orchestrator struct {
	store        storage.Store
	publisher    jobs.Publisher
	pipeline     *Pipeline
	sinks        []ReportSink
	logger       zerolog.Logger
	finalTimeout time.Duration
}

// NewOrchestrator wires the standard pipeline over the given dependencies.
func NewOrchestrator(deps Dependencies) *Orchestrator {
	timeout := deps.FinalWriteTimeout
	if timeout <= 0 {
		timeout = defaultFinalWriteTimeout
	}
	return &Orchestrator{
		store:     deps.Store,
		publisher: deps.Publisher,
		pipeline: NewReportPipeline(
			NewAggregator(deps.Store),
			deps.Generator,
			NewProvisioner(deps.Store),
		),
		sinks:        deps.Sinks,
		logger:       deps.Logger,
		finalTimeout: timeout,
	}
}

// Start validates the trigger, moves the report to GENERATING and schedules the run.
// It returns once the GENERATING write is stored; the run itself is detached from ctx.
//
// Periodic triggers must match the stored kind. The INITIAL trigger accepts any kind.
func (o *Orchestrator) Start(ctx context.Context, householdID, reportID string, trigger domain.ReportKind) (*jobs.GenerateReportJob, error) {
	report, err := o.getReport(ctx, householdID, reportID)
	if err != nil {
		return nil, err
	}
	if trigger.IsPeriodic() && report.Kind != trigger {
		return nil, fmt.Errorf("%w: report is %s, trigger is %s", ErrPeriodMismatch, report.Kind, trigger)
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}

	attempt, err := o.store.MarkGenerating(ctx, report.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("Start: marking generating: %w", err)
	}

	job := &jobs.GenerateReportJob{
		ReportID:    report.ID,
		HouseholdID: householdID,
		Kind:        trigger.Key(),
		Attempt:     attempt,
	}
	if err := o.publisher.PublishGenerateReport(ctx, job); err != nil {
		o.markFailed(context.WithoutCancel(ctx), reportID, attempt, logger.ForReport(o.logger, householdID, reportID, attempt))
		return nil, fmt.Errorf("Start: scheduling run: %w", err)
	}

	o.logger.Info().
		Str("household_id", householdID).
		Str("report_id", reportID).
		Int64("attempt", attempt).
		Str("job_id", job.JobID).
		Msg("Report generation started")

	return job, nil
}

// HandleJob is the job queue handler for generation runs.
func (o *Orchestrator) HandleJob(ctx context.Context, job jobs.Job) error {
	j, ok := job.(*jobs.GenerateReportJob)
	if !ok {
		return fmt.Errorf("HandleJob: unexpected job type %s", job.GetType())
	}
	return o.Run(ctx, j.HouseholdID, j.ReportID, j.Attempt)
}

// Run executes one generation attempt. Any error or panic after the report entered
// GENERATING ends in a single FAILED write, and no partial payload is stored.
func (o *Orchestrator) Run(ctx context.Context, householdID, reportID string, attempt int64) (err error) {
	log := logger.ForReport(o.logger, householdID, reportID, attempt)
	ctx = logger.WithContext(ctx, log)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Report generation panicked")
			err = fmt.Errorf("Run: panic: %v", r)
		}
		if err != nil && !errors.Is(err, storage.ErrStaleAttempt) {
			log.Error().Err(err).Msg("Report generation failed")
			o.markFailed(ctx, reportID, attempt, log)
		}
	}()

	report, err := o.store.GetReport(ctx, householdID, reportID)
	if err != nil {
		return fmt.Errorf("Run: loading report: %w", err)
	}
	if report.Attempt != attempt || report.Status != domain.ReportStatusGenerating {
		log.Warn().
			Int64("current_attempt", report.Attempt).
			Str("status", string(report.Status)).
			Msg("Skipping superseded generation attempt")
		return nil
	}

	state := &RunState{Report: report, Attempt: attempt}
	if err := o.pipeline.Execute(ctx, state); err != nil {
		return err
	}

	if err := o.complete(ctx, state); err != nil {
		if errors.Is(err, storage.ErrStaleAttempt) {
			log.Warn().Msg("Dropping result of superseded generation attempt")
			return nil
		}
		return err
	}

	log.Info().
		Int("transactions", len(state.Context.Transactions)).
		Int("categories", len(state.Data.Categories)).
		Dur("duration", time.Since(started)).
		Msg("Report generation completed")

	report.Status = domain.ReportStatusCompleted
	report.Data = state.Data
	report.TransactionCount = len(state.Context.Transactions)
	o.publish(ctx, report, log)
	return nil
}

// complete stores the payload together with the COMPLETED status for the attempt.
func (o *Orchestrator) complete(ctx context.Context, state *RunState) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.finalTimeout)
	defer cancel()

	if err := o.store.Complete(wctx, state.Report.ID, state.Attempt, state.Data, len(state.Context.Transactions)); err != nil {
		return fmt.Errorf("Run: completing report: %w", err)
	}
	return nil
}

func (o *Orchestrator) markFailed(ctx context.Context, reportID string, attempt int64, log zerolog.Logger) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.finalTimeout)
	defer cancel()

	err := o.store.UpdateStatus(wctx, reportID, attempt, domain.ReportStatusFailed)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrStaleAttempt):
		log.Warn().Msg("Report was re-triggered before it could be marked failed")
	default:
		log.Error().Err(err).Msg("Failed to mark report as failed")
	}
}

func (o *Orchestrator) publish(ctx context.Context, report *domain.Report, log zerolog.Logger) {
	for _, sink := range o.sinks {
		if err := sink.Publish(ctx, report); err != nil {
			log.Warn().Err(err).Str("sink", sink.Name()).Msg("Report sink failed")
			continue
		}
		log.Debug().Str("sink", sink.Name()).Msg("Report published to sink")
	}
}

// StatusView is the polling response for a report.
type StatusView struct {
	ReportID         string              `json:"report_id"`
	Kind             domain.ReportKind   `json:"kind"`
	Status           domain.ReportStatus `json:"status"`
	Attempt          int64               `json:"attempt"`
	TransactionCount int                 `json:"transaction_count"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// GetStatus returns the current status of a household's report.
func (o *Orchestrator) GetStatus(ctx context.Context, householdID, reportID string) (*StatusView, error) {
	report, err := o.getReport(ctx, householdID, reportID)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		ReportID:         report.ID,
		Kind:             report.Kind,
		Status:           report.Status,
		Attempt:          report.Attempt,
		TransactionCount: report.TransactionCount,
		UpdatedAt:        report.UpdatedAt,
	}, nil
}

// GetReport returns a household's report including its payload once completed.
func (o *Orchestrator) GetReport(ctx context.Context, householdID, reportID string) (*domain.Report, error) {
	return o.getReport(ctx, householdID, reportID)
}

func (o *Orchestrator) getReport(ctx context.Context, householdID, reportID string) (*domain.Report, error) {
	report, err := o.store.GetReport(ctx, householdID, reportID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetReport: %w", err)
	}
	return report, nil
}
