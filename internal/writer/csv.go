package writer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

// Columns is the column order shared by every tabular export.
var Columns = []string{"Date", "Description", "Mode", "Type", "Amount", "Balance", "Receiver"}

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, info *models.StatementInfo) error {
	return writeFile(path, func(out io.Writer) error { return w.Write(out, info) })
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, info *models.StatementInfo) error {
	writer := csv.NewWriter(out)

	// Metadata as comment-style rows above the table
	if w.IncludeHeader {
		for _, kv := range metadata(info) {
			if err := writer.Write([]string{"# " + kv[0], kv[1]}); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range info.Transactions {
		if err := writer.Write(row(txn)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// metadata lists the statement fields worth printing above a table.
func metadata(info *models.StatementInfo) [][2]string {
	var kv [][2]string
	if info.Bank != "" {
		kv = append(kv, [2]string{"Bank", string(info.Bank)})
	}
	if info.AccountNumber != "" {
		kv = append(kv, [2]string{"Account Number", info.AccountNumber})
	}
	if info.StatementPeriod != "" {
		kv = append(kv, [2]string{"Statement Period", info.StatementPeriod})
	}
	return kv
}

func row(txn models.Transaction) []string {
	amount := formatAmount(txn.Amount)
	if txn.Type == models.TypeBalance {
		amount = ""
	}
	return []string{
		txn.Date,
		txn.Description,
		txn.Mode,
		txn.Type,
		amount,
		formatAmount(txn.Balance),
		txn.Receiver,
	}
}

func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
