package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TypeDebit   = "DEBIT"
	TypeCredit  = "CREDIT"
	TypeBalance = "BALANCE"
)

// Channel labels printed on statements. Mode is free text; these are only the
// values the parser assigns itself.
const (
	ModeBalanceForward = "B/F"
	ModeNetBanking     = "NET BANKING"
	ModeMobileBanking  = "MOBILE BANKING"
	ModeICICIDirect    = "ICICI DIRECT"
)

// DateLayout is the dd-mm-yyyy layout statements print dates in.
const DateLayout = "02-01-2006"

// ISODateLayout is the layout dates are persisted in.
const ISODateLayout = "2006-01-02"

// Transaction represents a single bank statement transaction.
type Transaction struct {
	Date        string          `json:"date"` // dd-mm-yyyy, as printed
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
	Mode        string          `json:"mode"`
	Type        string          `json:"type"` // DEBIT, CREDIT or BALANCE
	Receiver    string          `json:"receiver,omitempty"`
	ParseMethod string          `json:"parseMethod,omitempty"` // debug: which recognizer matched
}

// ParsedDate returns the transaction date as a calendar date.
func (t Transaction) ParsedDate() (time.Time, error) {
	d, err := time.Parse(DateLayout, t.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid transaction date %q: %w", t.Date, err)
	}
	return d, nil
}

// DedupKey returns the natural key used to avoid storing the same movement
// twice: ISO date, amount to two places and description.
func (t Transaction) DedupKey() (string, error) {
	d, err := t.ParsedDate()
	if err != nil {
		return "", err
	}
	return d.Format(ISODateLayout) + "|" + t.Amount.StringFixed(2) + "|" + t.Description, nil
}

// BankType represents supported bank statement formats.
type BankType string

const (
	BankICICI BankType = "icici"
)

// DebugLine captures what the parser did with each input line.
type DebugLine struct {
	Page    int    `json:"page"`
	LineNum int    `json:"lineNum"`
	Text    string `json:"text"`
	Result  string `json:"result"` // "parsed", "header", "balance-forward", "continuation", "unmatched", "malformed"
	Method  string `json:"method,omitempty"`
}

// StatementInfo holds metadata extracted from the statement.
type StatementInfo struct {
	Bank            BankType
	AccountNumber   string
	StatementPeriod string
	Transactions    []Transaction
	DebugLines      []DebugLine

	// Unrecognized counts lines no recognizer claimed; Malformed counts lines
	// that matched a shape but carried an unparseable date or amount.
	Unrecognized int
	Malformed    int
}
