package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrNoReadableText means no extraction method produced statement-like text.
	ErrNoReadableText = errors.New("no readable text could be extracted from PDF")
	// ErrPasswordRequired means the PDF is encrypted and the password was
	// missing or wrong.
	ErrPasswordRequired = errors.New("PDF is encrypted: password missing or incorrect")
)

// Page is the text of one PDF page. A page that yielded no text is absent.
type Page struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
	Method  string `json:"method"` // "row", "plain" or "pdftotext"
}

// Text implements parser.PageText.
func (p Page) Text() (string, bool) {
	return p.Content, strings.TrimSpace(p.Content) != ""
}

// ExtractPages reads a PDF file and returns the text of every page in
// document order. password is tried once when the file is encrypted.
// If the Go library cannot produce readable text, falls back to the external
// pdftotext command (poppler-utils).
func ExtractPages(ctx context.Context, filePath, password string) ([]Page, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, libErr := extractWithLibrary(filePath, password)
	if errors.Is(libErr, ErrPasswordRequired) {
		return nil, libErr
	}
	if libErr == nil && isReadableText(pageTexts(pages)) {
		return pages, nil
	}

	popplerPages, popplerErr := extractWithPdftotext(ctx, filePath, password)
	if popplerErr == nil && isReadableText(pageTexts(popplerPages)) {
		return popplerPages, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if libErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoReadableText, libErr)
	}
	return nil, fmt.Errorf("%w: the file may be image-based or use fonts that cannot be decoded", ErrNoReadableText)
}

// extractWithLibrary uses the ledongthuc/pdf library, by rows first and then
// as plain text per page.
func extractWithLibrary(filePath, password string) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	tried := false
	r, err := pdf.NewReaderEncrypted(f, st.Size(), func() string {
		if tried {
			return ""
		}
		tried = true
		return password
	})
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, ErrPasswordRequired
		}
		return nil, err
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	pages = extractByRow(r, numPages)
	if isReadableText(pageTexts(pages)) {
		return pages, nil
	}

	pages = extractByPagePlainText(r, numPages)
	return pages, nil
}

// extractByRow is best for well-structured PDFs: words grouped by baseline.
func extractByRow(r *pdf.Reader, numPages int) []Page {
	pages := make([]Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := Page{Number: i, Method: "row"}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, page)
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			pages = append(pages, page)
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		page.Content = strings.Join(lines, "\n")
		pages = append(pages, page)
	}
	return pages
}

func extractByPagePlainText(r *pdf.Reader, numPages int) []Page {
	pages := make([]Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := Page{Number: i, Method: "plain"}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, page)
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range p.Fonts() {
			f := p.Font(name)
			fonts[name] = &f
		}

		text, err := p.GetPlainText(fonts)
		if err == nil {
			page.Content = strings.TrimSpace(text)
		}
		pages = append(pages, page)
	}
	return pages
}

// extractWithPdftotext shells out to poppler-utils, one page at a time so
// page boundaries survive.
func extractWithPdftotext(ctx context.Context, filePath, password string) ([]Page, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	var pwArgs []string
	if password != "" {
		pwArgs = []string{"-upw", password}
	}

	numPages := 1
	infoArgs := append(append([]string{}, pwArgs...), filePath)
	if out, err := exec.CommandContext(ctx, "pdfinfo", infoArgs...).Output(); err == nil {
		numPages = pdfinfoPageCount(string(out), 1)
	}

	pages := make([]Page, 0, numPages)
	found := false
	for i := 1; i <= numPages; i++ {
		n := strconv.Itoa(i)
		args := append(append([]string{"-layout", "-f", n, "-l", n}, pwArgs...), filePath, "-")
		page := Page{Number: i, Method: "pdftotext"}
		if out, err := exec.CommandContext(ctx, "pdftotext", args...).Output(); err == nil {
			page.Content = strings.TrimSpace(string(out))
			found = found || page.Content != ""
		}
		pages = append(pages, page)
	}
	if !found {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// pdfinfoPageCount reads the "Pages:" line of pdfinfo output.
func pdfinfoPageCount(out string, fallback int) int {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func pageTexts(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Content
	}
	return out
}

// textQuality returns the ratio of basic ASCII readable characters (a-z, A-Z,
// 0-9, common punctuation, whitespace) to total characters. Returns 0.0-1.0.
// unicode.IsLetter is too broad: it matches the accented characters that
// show up in garbage from identity-encoded fonts.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(".,-/:;()'\"₹%&@#!?+=*_", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords appear in virtually every Indian bank statement.
var commonWords = []string{
	"bank", "account", "balance", "date", "statement", "particulars",
	"deposits", "withdrawals", "transaction", "upi", "neft", "imps",
	"b/f", "ifsc", "branch", "period", "page",
}

func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// isReadableText requires more than 50 characters of text, over 60% of it
// readable ASCII, and at least one word a statement would contain.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
