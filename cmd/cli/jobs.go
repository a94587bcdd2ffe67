package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dvloznov/household-reports/internal/api/middleware"
	"github.com/dvloznov/household-reports/internal/jobs"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagJobReport string
	flagJobStatus string
	flagJobLimit  int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List generation jobs on a running API server",
	Long: `Jobs live in the memory of the process that ran them, so this command asks the
API server rather than opening the store.`,
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().StringVar(&flagServer, "server", "http://localhost:8080", "API server base URL")
	jobsCmd.Flags().StringVar(&flagJobReport, "report", "", "Only jobs for this report id")
	jobsCmd.Flags().StringVar(&flagJobStatus, "status", "", "Only jobs in this status (pending, running, completed, failed)")
	jobsCmd.Flags().IntVar(&flagJobLimit, "limit", 20, "Maximum number of jobs")
	rootCmd.AddCommand(jobsCmd)
}

type jobsResponse struct {
	Jobs  []jobs.GenerateReportJob `json:"jobs"`
	Count int                      `json:"count"`
}

func jobsURL(server, reportID, status string, limit int) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid --server %q: %w", server, err)
	}
	u = u.JoinPath("api", "jobs")

	q := url.Values{}
	if reportID != "" {
		q.Set("report_id", reportID)
	}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func runJobs(cmd *cobra.Command, _ []string) error {
	if flagHousehold == "" {
		return fmt.Errorf("household is required: pass --household or set HOUSEHOLD_ID")
	}

	endpoint, err := jobsURL(flagServer, flagJobReport, flagJobStatus, flagJobLimit)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set(middleware.HouseholdHeader, flagHousehold)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("contacting %s: %w", flagServer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var body jobsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	fmt.Println()
	fmt.Print(renderJobs(body.Jobs))
	return nil
}
