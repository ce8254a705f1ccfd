package storage

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

// Transaction represents a stored statement record.
type Transaction struct {
	gorm.Model
	Date        string          `gorm:"index;not null"` // yyyy-mm-dd
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2)"`
	Balance     decimal.Decimal `gorm:"type:decimal(15,2)"`
	Mode        string
	Type        string `gorm:"index"`
	Receiver    string
	Bank        string `gorm:"index"`
	AccountNo   string `gorm:"index"`
	ImportID    string `gorm:"index"`
	DedupKey    string `gorm:"uniqueIndex;not null"`
}

// ImportMeta describes where a batch of transactions came from.
type ImportMeta struct {
	Bank      string
	AccountNo string
}

// ImportResult reports what Save did with a batch.
type ImportResult struct {
	ImportID string `json:"importId"`
	Total    int    `json:"total"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
}

// newRow builds the stored row for t. key is the dedup key already
// qualified with its occurrence within the statement.
func newRow(t models.Transaction, meta ImportMeta, importID, key string) (Transaction, error) {
	d, err := t.ParsedDate()
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Date:        d.Format(models.ISODateLayout),
		Description: t.Description,
		Amount:      t.Amount,
		Balance:     t.Balance,
		Mode:        t.Mode,
		Type:        t.Type,
		Receiver:    t.Receiver,
		Bank:        meta.Bank,
		AccountNo:   meta.AccountNo,
		ImportID:    importID,
		DedupKey:    key,
	}, nil
}

// occurrenceKeys returns one dedup key per transaction. The n-th repeat of
// the same date, amount and description within a batch gets a "|n" suffix,
// so genuine repeats in one statement are kept while a re-import of that
// statement still produces the same keys.
func occurrenceKeys(txns []models.Transaction) ([]string, error) {
	keys := make([]string, len(txns))
	seen := make(map[string]int, len(txns))
	for i, t := range txns {
		key, err := t.DedupKey()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s|%d", key, n)
		}
		keys[i] = key
	}
	return keys, nil
}
