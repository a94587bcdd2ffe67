package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/logger"
)

// NarrativeGenerator produces the text part of a report.
type NarrativeGenerator interface {
	Generate(ctx context.Context, in domain.NarrativeInput) (*domain.NarrativeOutput, error)
}

// PipelineStep represents a single step of a generation run.
type PipelineStep interface {
	Execute(ctx context.Context, state *RunState) error
}

// RunState holds the shared state across all steps of one run.
type RunState struct {
	Report     *domain.Report
	Attempt    int64
	Context    *ReportContext
	Incomplete IncompleteSummary
	Snapshot   Snapshot
	Narrative  *domain.NarrativeOutput
	Data       *domain.ReportData
}

// Step 1: FetchContextStep loads transactions, categories, accounts and budgets.
type FetchContextStep struct {
	Aggregator *Aggregator
}

func (s *FetchContextStep) Execute(ctx context.Context, state *RunState) error {
	rc, err := s.Aggregator.Fetch(ctx, state.Report)
	if err != nil {
		return err
	}
	state.Context = rc
	return nil
}

// Step 2: DetectIncompleteStep logs transactions missing required accounts.
type DetectIncompleteStep struct{}

func (s *DetectIncompleteStep) Execute(ctx context.Context, state *RunState) error {
	state.Incomplete = DetectIncomplete(state.Context.Transactions)
	if msg := state.Incomplete.Warning(); msg != "" {
		log := logger.FromContext(ctx)
		log.Warn().
			Int("expense", state.Incomplete.Expense).
			Int("income", state.Incomplete.Income).
			Int("transfer", state.Incomplete.Transfer).
			Msg(msg)
	}
	return nil
}

// Step 3: ComputeSnapshotStep computes totals and category rollups.
type ComputeSnapshotStep struct{}

func (s *ComputeSnapshotStep) Execute(ctx context.Context, state *RunState) error {
	rc := state.Context
	state.Snapshot = ComputeSnapshot(rc.Transactions, rc.PreviousTransactions, rc.Categories,
		state.Report.StartDate, state.Report.EndDate)
	return nil
}

// Step 4: GenerateNarrativeStep asks the generator for the narrative.
type GenerateNarrativeStep struct {
	Generator NarrativeGenerator
}

func (s *GenerateNarrativeStep) Execute(ctx context.Context, state *RunState) error {
	rc := state.Context
	out, err := s.Generator.Generate(ctx, domain.NarrativeInput{
		Kind:                state.Report.Kind,
		StartDate:           state.Report.StartDate,
		EndDate:             state.Report.EndDate,
		Currency:            state.Report.Currency,
		Transactions:        rc.Transactions,
		Categories:          rc.Categories,
		Accounts:            rc.Accounts,
		Budgets:             rc.Budgets,
		MonthlyTransactions: rc.MonthlyTransactions,
		Totals:              state.Snapshot.Totals,
	})
	if err != nil {
		return fmt.Errorf("GenerateNarrative: %w", err)
	}
	if out == nil {
		out = &domain.NarrativeOutput{}
	}
	state.Narrative = out
	return nil
}

// Step 5: ProvisionBudgetsStep creates budgets for CREATE suggestions.
type ProvisionBudgetsStep struct {
	Provisioner *Provisioner
}

func (s *ProvisionBudgetsStep) Execute(ctx context.Context, state *RunState) error {
	state.Narrative.BudgetSuggestions = s.Provisioner.Provision(ctx, state.Report.HouseholdID, state.Narrative.BudgetSuggestions)
	return nil
}

// Step 6: BuildPayloadStep assembles and validates the payload.
type BuildPayloadStep struct{}

func (s *BuildPayloadStep) Execute(ctx context.Context, state *RunState) error {
	data := BuildReportData(state.Report, state.Snapshot, state.Narrative)
	if err := data.Validate(state.Report.Kind); err != nil {
		return fmt.Errorf("BuildPayload: %w", err)
	}
	state.Data = data
	return nil
}

// BuildReportData assembles the persisted payload. The llm section is keyed by kind.
func BuildReportData(report *domain.Report, snap Snapshot, out *domain.NarrativeOutput) *domain.ReportData {
	suggestions := out.BudgetSuggestions
	if suggestions == nil {
		suggestions = []domain.BudgetSuggestion{}
	}
	categories := snap.Categories
	if categories == nil {
		categories = []domain.CategoryRollup{}
	}
	return &domain.ReportData{
		Totals:     snap.Totals,
		Categories: categories,
		LLM: map[string]*domain.Narrative{
			report.Kind.Key(): {
				Summary:           out.Summary,
				Insights:          out.Insights,
				Suggestions:       out.Recommendations,
				BudgetSuggestions: suggestions,
				BehaviorPatterns:  out.BehaviorPatterns,
				Risks:             out.Risks,
				Opportunities:     out.Opportunities,
			},
		},
		Meta: domain.Meta{
			Currency: report.Currency,
			Label:    Label(report.Kind, report.StartDate, report.EndDate),
		},
	}
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *RunState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewReportPipeline creates the standard generation pipeline. Persisting the payload
// is left to the orchestrator.
func NewReportPipeline(agg *Aggregator, gen NarrativeGenerator, prov *Provisioner) *Pipeline {
	return NewPipeline(
		&FetchContextStep{Aggregator: agg},
		&DetectIncompleteStep{},
		&ComputeSnapshotStep{},
		&GenerateNarrativeStep{Generator: gen},
		&ProvisionBudgetsStep{Provisioner: prov},
		&BuildPayloadStep{},
	)
}
