package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

func sampleInfo() *models.StatementInfo {
	return &models.StatementInfo{
		Bank:            models.BankICICI,
		AccountNumber:   "XXXXXXXX6193",
		StatementPeriod: "01-04-2025 to 30-04-2025",
		Transactions: []models.Transaction{
			{Date: "01-04-2025", Description: "Balance Forward", Mode: "B/F", Type: models.TypeBalance, Balance: decimal.RequireFromString("9841.12")},
			{Date: "02-04-2025", Description: "UPI/ABC STORES/abc@ybl/ Payment", Mode: "UPI", Type: models.TypeDebit, Amount: decimal.RequireFromString("341.12"), Balance: decimal.RequireFromString("9500"), Receiver: "ABC STORES"},
			{Date: "03-04-2025", Description: "Salary, April", Mode: "NET BANKING", Type: models.TypeCredit, Amount: decimal.RequireFromString("25000"), Balance: decimal.RequireFromString("34500")},
		},
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	err := w.Write(&buf, sampleInfo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "# Bank,icici") {
		t.Error("expected bank metadata header")
	}
	if !strings.Contains(output, "# Account Number,XXXXXXXX6193") {
		t.Error("expected account number metadata")
	}
	if !strings.Contains(output, "Date,Description,Mode,Type,Amount,Balance,Receiver") {
		t.Error("expected column headers")
	}
	if !strings.Contains(output, "01-04-2025,Balance Forward,B/F,BALANCE,,9841.12,") {
		t.Error("expected balance-forward row with empty amount")
	}
	if !strings.Contains(output, "02-04-2025,UPI/ABC STORES/abc@ybl/ Payment,UPI,DEBIT,341.12,9500.00,ABC STORES") {
		t.Error("expected UPI row")
	}
	if !strings.Contains(output, `"Salary, April"`) {
		t.Error("expected quoted description containing a comma")
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 3 metadata lines + 1 header + 3 transactions = 7
	if len(lines) != 7 {
		t.Errorf("expected 7 lines, got %d", len(lines))
	}
}

func TestCSVWriter_WriteNoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: false}
	err := w.Write(&buf, sampleInfo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if strings.Contains(output, "# Bank") {
		t.Error("should not have bank metadata when header=false")
	}
	if !strings.HasPrefix(output, "Date,Description,Mode,Type,Amount,Balance,Receiver") {
		t.Error("expected column headers even without metadata")
	}
}

func TestCSVWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&CSVWriter{}).Write(&buf, &models.StatementInfo{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != strings.Join(Columns, ",") {
		t.Errorf("got %q", got)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"25.99", "25.99"},
		{"1234.5", "1234.50"},
		{"0", "0.00"},
		{"2500", "2500.00"},
	}

	for _, tt := range tests {
		got := formatAmount(decimal.RequireFromString(tt.input))
		if got != tt.expected {
			t.Errorf("formatAmount(%s): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}
