package writer

import (
	"encoding/json"
	"io"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

// JSONStatement is the document JSONWriter produces.
type JSONStatement struct {
	Bank            models.BankType      `json:"bank"`
	AccountNumber   string               `json:"accountNumber,omitempty"`
	StatementPeriod string               `json:"statementPeriod,omitempty"`
	Transactions    []models.Transaction `json:"transactions"`
	Summary         Summary              `json:"summary"`
}

// JSONWriter writes the statement and its totals as indented JSON.
type JSONWriter struct{}

func (w *JSONWriter) WriteToFile(path string, info *models.StatementInfo) error {
	return writeFile(path, func(out io.Writer) error { return w.Write(out, info) })
}

func (w *JSONWriter) Write(out io.Writer, info *models.StatementInfo) error {
	txns := info.Transactions
	if txns == nil {
		txns = []models.Transaction{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(JSONStatement{
		Bank:            info.Bank,
		AccountNumber:   info.AccountNumber,
		StatementPeriod: info.StatementPeriod,
		Transactions:    txns,
		Summary:         Summarize(info.Transactions),
	})
}
