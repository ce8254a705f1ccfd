package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

// ICICIParser handles ICICI Bank savings account statement PDFs.
//
// Extracted statement text looks like:
//
//	DATE MODE PARTICULARS DEPOSITS WITHDRAWALS BALANCE
//	01-04-2025 B/F 9,841.12
//	UPI/XYZ CORP/xyz@okicici/
//	02-04-2025 341.12 9,500.00
//	Payment from Ph/123456789012
//	05-04-2025NET BANKING Fund Transfer to Jane 1,000.00 8,500.00
//
// UPI movements wrap around their date line: the narrative starts on the line
// above and ends on the line below.
type ICICIParser struct {
	logger *slog.Logger
}

func (p *ICICIParser) BankName() string {
	return "ICICI Bank"
}

const iciciHeaderPrefix = "DATE MODE PARTICULARS"

var (
	iciciBalanceForward = regexp.MustCompile(`^` + dateExpr + `\s+B/F\s+` + amountExpr + `$`)

	// Date, optional narrative fragment, amount, balance.
	iciciThreeLine = regexp.MustCompile(`^` + dateExpr + `\s+(?:(.*?)\s+)?` + amountExpr + `\s+` + amountExpr + `$`)

	// The channel label is glued to the date with no space.
	iciciChannel = regexp.MustCompile(`^` + dateExpr + `(NET BANKING|MOBILE BANKING|ICICI DIRECT)\s+(.+?)\s+` + amountExpr + `\s+` + amountExpr + `$`)

	// Any line opening with a date belongs to a record of its own.
	iciciDatePrefix = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}`)
)

// iciciShapes lists the line recognizers in priority order.
var iciciShapes = []shape{
	{name: "header", match: matchICICIHeader},
	{name: "balance-forward", match: matchICICIBalanceForward},
	{name: "upi-three-line", match: matchICICIThreeLine},
	{name: "channel", match: matchICICIChannel},
}

func (p *ICICIParser) Parse(pages []string) (*models.StatementInfo, error) {
	info := &models.StatementInfo{
		Bank: models.BankICICI,
	}

	allText := strings.Join(pages, "\n")
	info.AccountNumber = findAccountNumber(allText)
	info.StatementPeriod = extractPeriod(allText)

	log := p.logger
	if log == nil {
		log = slog.Default()
	}
	s := &scanner{
		shapes:    iciciShapes,
		startsOwn: iciciStartsRecord,
		logger:    log,
		info:      info,
		balance:   &runningBalance{},
	}
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		s.scanPage(i+1, strings.Split(page, "\n"))
	}

	return info, nil
}

// iciciStartsRecord reports whether a line opens a record of its own and so
// may not be absorbed into a neighbour's description.
func iciciStartsRecord(line string) bool {
	return strings.HasPrefix(line, iciciHeaderPrefix) || iciciDatePrefix.MatchString(line)
}

func matchICICIHeader(w window) (recognized, bool, error) {
	if !strings.HasPrefix(w.cur, iciciHeaderPrefix) {
		return recognized{}, false, nil
	}
	return recognized{kind: kindSkip, consumed: 1}, true, nil
}

func matchICICIBalanceForward(w window) (recognized, bool, error) {
	m := iciciBalanceForward.FindStringSubmatch(w.cur)
	if m == nil {
		return recognized{}, false, nil
	}
	if err := checkDate(m[1]); err != nil {
		return recognized{}, true, err
	}
	bal, err := parseAmount(m[2])
	if err != nil {
		return recognized{}, true, err
	}

	return recognized{
		kind: kindOpening,
		txn: models.Transaction{
			Date:        m[1],
			Description: "Balance Forward",
			Balance:     bal,
			Mode:        models.ModeBalanceForward,
			Type:        models.TypeBalance,
		},
		consumed: 1,
	}, true, nil
}

func matchICICIThreeLine(w window) (recognized, bool, error) {
	m := iciciThreeLine.FindStringSubmatch(w.cur)
	if m == nil {
		return recognized{}, false, nil
	}
	if err := checkDate(m[1]); err != nil {
		return recognized{}, true, err
	}
	amt, err := parseAmount(m[3])
	if err != nil {
		return recognized{}, true, err
	}
	bal, err := parseAmount(m[4])
	if err != nil {
		return recognized{}, true, err
	}

	consumed := 1
	if w.hasNext {
		consumed = 2
	}
	desc := joinNonEmpty(w.prev, m[2], w.next)
	mode, receiver := splitNarrative(desc)

	return recognized{
		kind: kindMovement,
		txn: models.Transaction{
			Date:        m[1],
			Description: desc,
			Amount:      amt,
			Balance:     bal,
			Mode:        mode,
			Receiver:    receiver,
		},
		consumed: consumed,
		usedPrev: w.hasPrev,
	}, true, nil
}

func matchICICIChannel(w window) (recognized, bool, error) {
	m := iciciChannel.FindStringSubmatch(w.cur)
	if m == nil {
		return recognized{}, false, nil
	}
	if err := checkDate(m[1]); err != nil {
		return recognized{}, true, err
	}
	amt, err := parseAmount(m[4])
	if err != nil {
		return recognized{}, true, err
	}
	bal, err := parseAmount(m[5])
	if err != nil {
		return recognized{}, true, err
	}

	return recognized{
		kind: kindMovement,
		txn: models.Transaction{
			Date:        m[1],
			Description: strings.TrimSpace(m[3]),
			Amount:      amt,
			Balance:     bal,
			Mode:        m[2],
		},
		consumed: 1,
	}, true, nil
}

// splitNarrative splits a UPI-style narrative such as
// "UPI/XYZ CORP/xyz@okicici/Payment" into its channel and counter-party.
// Narratives without a slash carry neither.
func splitNarrative(desc string) (mode, receiver string) {
	parts := strings.SplitN(desc, "/", 3)
	if len(parts) < 2 {
		return "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
