package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/dvloznov/household-reports/internal/pipeline"
	"github.com/spf13/cobra"
)

const pollInterval = 250 * time.Millisecond

var (
	flagTrigger string
	flagWait    bool
	flagTimeout time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate <report-id>",
	Short: "Generate a report",
	Long: `Generate a report in this process. The command returns once the run reaches
COMPLETED or FAILED; with --wait the finished report is rendered as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&flagTrigger, "trigger", "t", "monthly", "Trigger kind: initial, weekly, monthly")
	generateCmd.Flags().BoolVarP(&flagWait, "wait", "w", false, "Render the report once generation finishes")
	generateCmd.Flags().DurationVar(&flagTimeout, "timeout", 5*time.Minute, "Give up waiting after this long")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	trigger, err := domain.ParseReportKind(flagTrigger)
	if err != nil {
		return err
	}

	a, ctx, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Shutdown(context.Background()) }()

	if err := a.Start(ctx); err != nil {
		return err
	}

	job, err := a.Orchestrator.Start(ctx, flagHousehold, args[0], trigger)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "  Generating %s (attempt %d, job %s)...\n", args[0], job.Attempt, job.JobID)

	status, err := waitForTerminal(ctx, a.Orchestrator, flagHousehold, args[0], flagTimeout)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("  " + renderStatus(status.Status))
	if status.Status == domain.ReportStatusFailed {
		return fmt.Errorf("report %s failed, rerun with --verbose for details", args[0])
	}

	if flagWait {
		report, err := a.Orchestrator.GetReport(ctx, flagHousehold, args[0])
		if err != nil {
			return err
		}
		fmt.Print(renderReport(report))
	}
	return nil
}

// waitForTerminal polls until the report leaves GENERATING or timeout passes.
func waitForTerminal(ctx context.Context, o *pipeline.Orchestrator, householdID, reportID string, timeout time.Duration) (*pipeline.StatusView, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		view, err := o.GetStatus(ctx, householdID, reportID)
		if err != nil {
			return nil, err
		}
		if view.Status.IsTerminal() {
			return view, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("report %s still %s after %s", reportID, view.Status, timeout)
		case <-ticker.C:
		}
	}
}
