package writer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

// StatementWriter renders a parsed statement in one output format.
type StatementWriter interface {
	Write(out io.Writer, info *models.StatementInfo) error
	WriteToFile(path string, info *models.StatementInfo) error
}

// Formats lists the names ForFormat accepts.
var Formats = []string{"csv", "xlsx", "json"}

// ForFormat returns the writer for a format name. includeHeader adds the
// account metadata rows to tabular formats.
func ForFormat(format string, includeHeader bool) (StatementWriter, error) {
	switch strings.ToLower(format) {
	case "csv":
		return &CSVWriter{IncludeHeader: includeHeader}, nil
	case "xlsx":
		return &XLSXWriter{IncludeHeader: includeHeader}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: use %s", format, strings.Join(Formats, ", "))
	}
}

// writeFile creates path and hands it to write. The file's close error is
// reported when write succeeds.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
