package parser

import (
	"log/slog"
	"unicode/utf8"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

// recordKind says what a recognized line contributes to the output.
type recordKind int

const (
	kindSkip     recordKind = iota // page furniture such as table headers
	kindOpening                    // balance brought forward; seeds the running balance
	kindMovement                   // debit or credit, direction from the running balance
)

// window is the three-line view a recognizer sees. prev and next are empty
// with has* false at page edges, or when the neighbour belongs to another
// record.
type window struct {
	prev, cur, next  string
	hasPrev, hasNext bool
}

// recognized is a recognizer's verdict on the current line.
type recognized struct {
	kind     recordKind
	txn      models.Transaction
	consumed int  // lines taken from the cursor onwards
	usedPrev bool // the line above was absorbed into the description
}

// shape is one line recognizer. match reports ok=false when the line does not
// have the shape, and a non-nil error when it does but carries a malformed
// date or amount.
type shape struct {
	name  string
	match func(w window) (recognized, bool, error)
}

// scanner walks the lines of a statement once, in document order.
type scanner struct {
	shapes    []shape
	startsOwn func(line string) bool
	logger    *slog.Logger
	info      *models.StatementInfo
	balance   *runningBalance
}

func (s *scanner) scanPage(pageNum int, raw []string) {
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = normalizeLine(l)
	}
	claimed := make([]bool, len(lines))

	s.logger.Debug("parsing statement page", "page", pageNum, "lines", len(lines))

	for i := 0; i < len(lines); {
		if lines[i] == "" {
			i++
			continue
		}

		dl := models.DebugLine{Page: pageNum, LineNum: i + 1, Text: truncate(lines[i])}
		rec, name, err := s.match(s.window(lines, claimed, i))

		switch {
		case err != nil:
			s.info.Malformed++
			dl.Result = "malformed"
			dl.Method = name
			s.info.DebugLines = append(s.info.DebugLines, dl)
			s.logger.Debug("skipping malformed statement line",
				"page", pageNum, "line", i+1, "shape", name, "error", err)
			i++

		case name == "":
			s.info.Unrecognized++
			dl.Result = "unmatched"
			s.info.DebugLines = append(s.info.DebugLines, dl)
			i++

		default:
			if rec.usedPrev {
				s.reclaimPrevious(pageNum, i)
			}
			dl.Method = name
			s.emit(rec, &dl)
			s.info.DebugLines = append(s.info.DebugLines, dl)

			for k := 0; k < rec.consumed; k++ {
				claimed[i+k] = true
				if k > 0 {
					s.info.DebugLines = append(s.info.DebugLines, models.DebugLine{
						Page: pageNum, LineNum: i + k + 1, Text: truncate(lines[i+k]),
						Result: "continuation", Method: name,
					})
				}
			}
			i += rec.consumed
		}
	}
}

// match tries every shape in priority order; the first one that claims the
// line wins, even when its fields turn out to be malformed.
func (s *scanner) match(w window) (recognized, string, error) {
	for _, sh := range s.shapes {
		rec, ok, err := sh.match(w)
		if !ok {
			continue
		}
		if err != nil {
			return recognized{}, sh.name, err
		}
		if rec.consumed < 1 {
			rec.consumed = 1
		}
		return rec, sh.name, nil
	}
	return recognized{}, "", nil
}

func (s *scanner) window(lines []string, claimed []bool, i int) window {
	w := window{cur: lines[i]}
	if i > 0 && !claimed[i-1] && lines[i-1] != "" && !s.startsOwn(lines[i-1]) {
		w.prev, w.hasPrev = lines[i-1], true
	}
	if i+1 < len(lines) && lines[i+1] != "" && !s.startsOwn(lines[i+1]) {
		w.next, w.hasNext = lines[i+1], true
	}
	return w
}

// emit applies the running balance and appends the record, if any.
func (s *scanner) emit(rec recognized, dl *models.DebugLine) {
	switch rec.kind {
	case kindSkip:
		dl.Result = "header"
		return
	case kindOpening:
		s.balance.seed(rec.txn.Balance)
		dl.Result = "balance-forward"
	case kindMovement:
		rec.txn.Type = s.balance.direction(rec.txn.Balance)
		s.balance.advance(rec.txn.Balance)
		dl.Result = "parsed"
	}
	rec.txn.ParseMethod = dl.Method
	s.info.Transactions = append(s.info.Transactions, rec.txn)
}

// reclaimPrevious re-labels the line above the cursor, first recorded as
// unmatched, once a recognizer has absorbed it.
func (s *scanner) reclaimPrevious(pageNum, cursor int) {
	n := len(s.info.DebugLines)
	if n == 0 {
		return
	}
	last := &s.info.DebugLines[n-1]
	if last.Page != pageNum || last.LineNum != cursor || last.Result != "unmatched" {
		return
	}
	last.Result = "continuation"
	s.info.Unrecognized--
}

const maxDebugLineBytes = 120

// truncate shortens line to at most maxDebugLineBytes without splitting a
// multi-byte rune.
func truncate(line string) string {
	if len(line) <= maxDebugLineBytes {
		return line
	}
	cut := maxDebugLineBytes
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	return line[:cut] + "..."
}
