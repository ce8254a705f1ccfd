package writer

import (
	"fmt"
	"io"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

// Summary totals a statement's movements.
type Summary struct {
	Count      int             `json:"count"`
	Credits    decimal.Decimal `json:"totalCredits"`
	Debits     decimal.Decimal `json:"totalDebits"`
	Opening    decimal.Decimal `json:"openingBalance"`
	Closing    decimal.Decimal `json:"closingBalance"`
	HasOpening bool            `json:"hasOpening"`
}

// Summarize totals credits and debits. Balance-forward records seed Opening
// but are not counted as movements.
func Summarize(txns []models.Transaction) Summary {
	var s Summary
	for _, txn := range txns {
		switch txn.Type {
		case models.TypeBalance:
			if !s.HasOpening {
				s.Opening, s.HasOpening = txn.Balance, true
			}
		case models.TypeCredit:
			s.Credits = s.Credits.Add(txn.Amount)
			s.Count++
		case models.TypeDebit:
			s.Debits = s.Debits.Add(txn.Amount)
			s.Count++
		}
		s.Closing = txn.Balance
	}
	return s
}

// FormatINR renders an amount as Indian rupees, e.g. ₹1,000.00.
func FormatINR(d decimal.Decimal) string {
	paise := d.Shift(2).Round(0).IntPart()
	return money.New(paise, money.INR).Display()
}

// WriteSummary prints the totals as plain text.
func WriteSummary(out io.Writer, s Summary) error {
	lines := []string{
		fmt.Sprintf("Transactions: %d", s.Count),
		"Total credits: " + FormatINR(s.Credits),
		"Total debits:  " + FormatINR(s.Debits),
	}
	if s.HasOpening {
		lines = append(lines, "Opening balance: "+FormatINR(s.Opening))
	}
	lines = append(lines, "Closing balance: "+FormatINR(s.Closing))

	for _, l := range lines {
		if _, err := fmt.Fprintln(out, l); err != nil {
			return err
		}
	}
	return nil
}
