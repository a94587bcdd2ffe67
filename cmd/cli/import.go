package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/household-reports/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// transactionImporter is implemented by backends that accept bulk transaction loads.
type transactionImporter interface {
	InsertTransactions(ctx context.Context, householdID string, txs []domain.TransactionProjection) error
}

// importRecord is one transaction in an import file.
type importRecord struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    string          `json:"occurred_at"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"category_id"`
	FromAccountID *string         `json:"from_account_id"`
	ToAccountID   *string         `json:"to_account_id"`
}

var flagImportFile string

var importCmd = &cobra.Command{
	Use:     "import",
	Short:   "Load transactions from a JSON file",
	Example: `  reports import --file transactions.json`,
	RunE:    runImport,
}

func init() {
	importCmd.Flags().StringVarP(&flagImportFile, "file", "f", "", "JSON array of transactions")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

// parseImport decodes and validates an import file.
func parseImport(data []byte) ([]domain.TransactionProjection, error) {
	var records []importRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding import file: %w", err)
	}

	txs := make([]domain.TransactionProjection, 0, len(records))
	for i, r := range records {
		typ := domain.TransactionType(strings.ToUpper(r.Type))
		switch typ {
		case domain.TransactionTypeExpense, domain.TransactionTypeIncome, domain.TransactionTypeTransfer:
		default:
			return nil, fmt.Errorf("record %d: unknown type %q", i, r.Type)
		}
		if !r.Amount.IsPositive() {
			return nil, fmt.Errorf("record %d: amount must be positive", i)
		}
		occurred, err := parseOccurredAt(r.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		txs = append(txs, domain.TransactionProjection{
			ID:            r.ID,
			Type:          typ,
			Amount:        r.Amount,
			OccurredAt:    occurred,
			Description:   r.Description,
			CategoryID:    r.CategoryID,
			FromAccountID: r.FromAccountID,
			ToAccountID:   r.ToAccountID,
		})
	}
	return txs, nil
}

// parseOccurredAt accepts RFC 3339 timestamps or plain dates.
func parseOccurredAt(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid occurred_at %q", s)
	}
	return t, nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(flagImportFile)
	if err != nil {
		return err
	}
	txs, err := parseImport(data)
	if err != nil {
		return err
	}

	a, ctx, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Shutdown(context.Background()) }()

	importer, ok := a.Store.(transactionImporter)
	if !ok {
		return fmt.Errorf("storage backend %q does not support imports", a.Config.Storage.Backend)
	}
	if err := importer.InsertTransactions(ctx, flagHousehold, txs); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  Imported %s transactions\n", valueStyle.Render(fmt.Sprint(len(txs))))
	fmt.Println()
	return nil
}
