package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <report-id>",
	Short: "Show the generation status of a report",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var showCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Render a completed report",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(showCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, ctx, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Shutdown(context.Background()) }()

	view, err := a.Orchestrator.GetStatus(ctx, flagHousehold, args[0])
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(RenderTable(Table{
		Headers: []string{"Report", "Kind", "Status", "Attempt", "Transactions", "Updated"},
		Rows: [][]string{{
			view.ReportID,
			string(view.Kind),
			string(view.Status),
			strconv.FormatInt(view.Attempt, 10),
			strconv.Itoa(view.TransactionCount),
			view.UpdatedAt.Local().Format("2006-01-02 15:04"),
		}},
	}))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, ctx, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Shutdown(context.Background()) }()

	report, err := a.Orchestrator.GetReport(ctx, flagHousehold, args[0])
	if err != nil {
		return err
	}
	if report.Data == nil {
		fmt.Println()
		fmt.Println("  " + renderStatus(report.Status) + mutedStyle.Render("  (no payload yet)"))
		fmt.Println()
		return nil
	}

	fmt.Print(renderReport(report))
	return nil
}
