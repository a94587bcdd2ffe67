package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dvloznov/household-reports/internal/app"
	"github.com/dvloznov/household-reports/internal/config"
	"github.com/dvloznov/household-reports/internal/logger"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagHousehold string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "reports",
	Short:         "Household finance reports",
	Long:          "Create household reports, generate them and inspect the results.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("  error: ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "config.toml", "Path to the service config file")
	rootCmd.PersistentFlags().StringVarP(&flagHousehold, "household", "H", os.Getenv("HOUSEHOLD_ID"), "Household id (or set HOUSEHOLD_ID)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log pipeline progress")
}

// openApp builds the in-process services. The caller must call Shutdown.
func openApp(ctx context.Context) (*app.App, context.Context, error) {
	if flagHousehold == "" {
		return nil, nil, fmt.Errorf("household is required: pass --household or set HOUSEHOLD_ID")
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}

	level := "warn"
	if flagVerbose {
		level = "debug"
	}
	log := logger.NewWithOptions(logger.Options{Level: level, Pretty: true})
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a, ctx, nil
}
