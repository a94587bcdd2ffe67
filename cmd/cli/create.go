package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var (
	flagKind     string
	flagStart    string
	flagEnd      string
	flagCurrency string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a PENDING report for a period",
	Example: `  reports create --kind monthly --start 2024-01-01 --end 2024-01-31
  reports create --kind weekly --start 2024-01-29 --end 2024-02-04 --currency EUR`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&flagKind, "kind", "k", "monthly", "Report kind: initial, weekly, monthly, quarterly, yearly, custom")
	createCmd.Flags().StringVar(&flagStart, "start", "", "First day of the period (YYYY-MM-DD)")
	createCmd.Flags().StringVar(&flagEnd, "end", "", "Last day of the period, inclusive (YYYY-MM-DD)")
	createCmd.Flags().StringVar(&flagCurrency, "currency", "", "ISO 4217 currency (defaults to reports.default_currency)")
	_ = createCmd.MarkFlagRequired("start")
	_ = createCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(createCmd)
}

// parsePeriod turns inclusive calendar days into the report's [start, end] instants.
func parsePeriod(start, end string) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation(dateLayout, start, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start %q: %w", start, err)
	}
	to, err := time.ParseInLocation(dateLayout, end, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --end %q: %w", end, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end %s is before --start %s", end, start)
	}
	return from, to.Add(24*time.Hour - time.Millisecond), nil
}

func runCreate(cmd *cobra.Command, _ []string) error {
	kind, err := domain.ParseReportKind(flagKind)
	if err != nil {
		return err
	}
	start, end, err := parsePeriod(flagStart, flagEnd)
	if err != nil {
		return err
	}

	a, ctx, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Shutdown(context.Background()) }()

	currency := strings.ToUpper(flagCurrency)
	if currency == "" {
		currency = a.Config.Reports.DefaultCurrency
	}

	report := &domain.Report{
		HouseholdID: flagHousehold,
		Kind:        kind,
		StartDate:   start,
		EndDate:     end,
		Currency:    currency,
	}
	if err := a.Store.CreateReport(ctx, report); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  Created %s report %s\n", kind, valueStyle.Render(report.ID))
	fmt.Printf("  Period  %s\n", mutedStyle.Render(start.Format(dateLayout)+" to "+end.Format(dateLayout)))

	n, err := a.Store.CountTransactions(ctx, flagHousehold, start, end)
	switch {
	case err != nil:
		fmt.Println(warnStyle.Render("  Could not count transactions: " + err.Error()))
	case n == 0:
		fmt.Println(warnStyle.Render("  No transactions fall in this period yet."))
	default:
		fmt.Printf("  %d transactions in period\n", n)
	}
	fmt.Println()
	return nil
}
