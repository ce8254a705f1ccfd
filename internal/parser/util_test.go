package parser

import (
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"25.99", "25.99", false},
		{"1,234.56", "1234.56", false},
		{"9,841.12", "9841.12", false},
		{"1,00,000.00", "100000", false},
		{"0.00", "0", false},
		{" 25.99 ", "25.99", false},
		{"", "", true},
		{",.50", "", true},
		{"12a.00", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(dec(tt.expected)) {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestCheckDate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"01-04-2025", false},
		{"29-02-2024", false},
		{"29-02-2025", true},
		{"31-04-2025", true},
		{"00-01-2025", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := checkDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeLine(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  01-04-2025 B/F 9,841.12  ", "01-04-2025 B/F 9,841.12"},
		{"UPI/\u200BXYZ", "UPI/XYZ"},
		{"ICICI\u00A0DIRECT", "ICICI DIRECT"},
		{"a b\tc", "a b c"},
		{"\t\t", ""},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := normalizeLine(tt.input); got != tt.expected {
				t.Errorf("normalizeLine(%q): got %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestJoinNonEmpty(t *testing.T) {
	if got := joinNonEmpty("", " a ", "", "b"); got != "a b" {
		t.Errorf("got %q, want %q", got, "a b")
	}
	if got := joinNonEmpty("", " "); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestFindAccountNumber(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"masked", "Savings Account XXXXXXXX6193 in INR", "XXXXXXXX6193"},
		{"labelled", "Account Number: 000401234567", "XXXXXXXX4567"},
		{"labelled short form", "Account No. 123456789", "XXXXX6789"},
		{"absent", "Statement of Transactions", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findAccountNumber(tt.text); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestMaskAccountNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"000401234567", "XXXXXXXX4567"},
		{"1234", "1234"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := MaskAccountNumber(tt.input); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractPeriod(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"period line", "Transactions for the period 01-04-2025 to 30-04-2025", "01-04-2025 to 30-04-2025"},
		{"from line", "Statement from 01-04-2025 - 30-04-2025", "01-04-2025 to 30-04-2025"},
		{"single date", "Period ending 30-04-2025", ""},
		{"no keyword", "01-04-2025 B/F 9,841.12\n02-04-2025 341.12 9,500.00", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPeriod(tt.text); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
