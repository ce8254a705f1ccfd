package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

var (
	// ErrUnsupportedBank is returned by New for a bank with no parser.
	ErrUnsupportedBank = errors.New("unsupported bank type")
	// ErrUnknownBank is returned by AutoDetect when no bank identifier is found.
	ErrUnknownBank = errors.New("could not auto-detect bank from statement content")
)

// Parser defines the interface for bank statement parsers.
type Parser interface {
	// Parse takes raw text from PDF pages and returns structured statement data.
	// An empty page contributes no lines.
	Parse(pages []string) (*models.StatementInfo, error)
	// BankName returns the human-readable bank name.
	BankName() string
}

// PageText is one page handed over by the PDF text-extraction layer. ok is
// false when extraction produced nothing for the page.
type PageText interface {
	Text() (text string, ok bool)
}

// TextPage adapts plain text to PageText.
type TextPage string

func (p TextPage) Text() (string, bool) {
	return string(p), p != ""
}

// TextPages wraps plain page strings.
func TextPages(pages []string) []PageText {
	out := make([]PageText, len(pages))
	for i, p := range pages {
		out[i] = TextPage(p)
	}
	return out
}

// PageStrings flattens pages to the text Parse consumes, in document order.
// Absent pages become empty strings so page numbering is preserved.
func PageStrings(pages []PageText) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		if text, ok := p.Text(); ok {
			out[i] = text
		}
	}
	return out
}

// Option configures a parser.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for per-page diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns the appropriate parser for the given bank type.
func New(bankType models.BankType, opts ...Option) (Parser, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	switch bankType {
	case models.BankICICI:
		return &ICICIParser{logger: o.logger}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBank, bankType)
	}
}

// ParseBankType maps a user-supplied bank name to a BankType.
func ParseBankType(name string) (models.BankType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "icici", "icici bank", "icicibank":
		return models.BankICICI, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBank, name)
	}
}

// bankIdentifiers lists text that identifies each bank's statements.
var bankIdentifiers = []struct {
	bank    models.BankType
	needles []string
}{
	{models.BankICICI, []string{"icici bank", "icicibank", "icici direct", "date mode particulars"}},
}

// AutoDetect tries to identify the bank from the PDF text content.
func AutoDetect(pages []string) (models.BankType, error) {
	combined := strings.ToLower(strings.Join(pages, "\n"))

	for _, id := range bankIdentifiers {
		if containsAny(combined, id.needles) {
			return id.bank, nil
		}
	}

	return "", fmt.Errorf("%w; please specify the bank explicitly", ErrUnknownBank)
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
