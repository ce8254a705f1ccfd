package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

// Date and amount fragments shared by the line recognizers.
const (
	dateExpr   = `(\d{2}-\d{2}-\d{4})`
	amountExpr = `([\d,]+\.\d{2})`
)

var (
	// DD-MM-YYYY anywhere in a line
	datePatternDash = regexp.MustCompile(`\b\d{2}-\d{2}-\d{4}\b`)
	// ICICI prints masked account numbers, e.g. XXXXXXXX6193
	maskedAccountPattern = regexp.MustCompile(`\b(X{4,}\d{4})\b`)
	// Unmasked account numbers next to their label
	accountNumberPattern = regexp.MustCompile(`(?i)account\s*(?:number|no\.?)\s*[:\-]?\s*(\d{9,18})\b`)
)

// parseAmount converts a string like "1,234.56" to a decimal. Commas are
// thousands separators and are dropped before conversion.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	if s == "" || strings.HasPrefix(s, ".") {
		return decimal.Zero, fmt.Errorf("malformed amount %q", s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed amount %q: %w", s, err)
	}
	return d, nil
}

// checkDate rejects dd-mm-yyyy literals that are not calendar dates.
func checkDate(s string) error {
	if _, err := time.Parse(models.DateLayout, s); err != nil {
		return fmt.Errorf("malformed date %q", s)
	}
	return nil
}

// normalizeLine cleans up common PDF extraction artifacts.
func normalizeLine(line string) string {
	line = strings.ReplaceAll(line, "\u200B", "")
	line = strings.ReplaceAll(line, "\u00A0", " ")
	line = strings.ReplaceAll(line, "\t", " ")
	return strings.TrimSpace(line)
}

// joinNonEmpty joins trimmed parts with single spaces, dropping empty ones.
func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// findAccountNumber returns the statement account number, masked to its last
// four digits the way ICICI prints it.
func findAccountNumber(text string) string {
	if m := maskedAccountPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := accountNumberPattern.FindStringSubmatch(text); m != nil {
		return MaskAccountNumber(m[1])
	}
	return ""
}

// MaskAccountNumber replaces all but the last four digits with X.
func MaskAccountNumber(number string) string {
	number = strings.TrimSpace(number)
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("X", len(number)-4) + number[len(number)-4:]
}

// extractPeriod finds a "from <date> to <date>" / "period" line and returns
// the date range.
func extractPeriod(text string) string {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "period") && !strings.Contains(lower, "from") {
			continue
		}
		dates := datePatternDash.FindAllString(line, 2)
		if len(dates) == 2 {
			return dates[0] + " to " + dates[1]
		}
	}
	return ""
}
