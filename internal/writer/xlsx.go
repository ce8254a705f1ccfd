package writer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

const transactionsSheet = "Transactions"

// XLSXWriter writes transactions to an Excel workbook with one sheet.
type XLSXWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the workbook to path.
func (w *XLSXWriter) WriteToFile(path string, info *models.StatementInfo) error {
	return writeFile(path, func(out io.Writer) error { return w.Write(out, info) })
}

// Write writes the workbook to out. Amount and Balance are numeric cells.
func (w *XLSXWriter) Write(out io.Writer, info *models.StatementInfo) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	r := 1
	if w.IncludeHeader {
		for _, kv := range metadata(info) {
			if err := setRow(f, r, []any{kv[0], kv[1]}); err != nil {
				return err
			}
			r++
		}
		if r > 1 {
			r++ // blank spacer row
		}
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := setRow(f, r, header); err != nil {
		return err
	}
	r++

	for _, txn := range info.Transactions {
		var amount any = txn.Amount.InexactFloat64()
		if txn.Type == models.TypeBalance {
			amount = nil
		}
		values := []any{
			txn.Date,
			txn.Description,
			txn.Mode,
			txn.Type,
			amount,
			txn.Balance.InexactFloat64(),
			txn.Receiver,
		}
		if err := setRow(f, r, values); err != nil {
			return err
		}
		r++
	}

	if err := f.SetColWidth(transactionsSheet, "B", "B", 60); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, r int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(transactionsSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", r, err)
	}
	return nil
}
