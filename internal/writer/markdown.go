package writer

import (
	"fmt"
	"io"
	"strings"
)

// NoDataMessage is printed in place of an empty result table.
const NoDataMessage = "No data found."

// WriteMarkdown renders query results as a GitHub-flavoured markdown table.
func WriteMarkdown(out io.Writer, columns []string, rows [][]any) error {
	if len(rows) == 0 || len(columns) == 0 {
		_, err := fmt.Fprintln(out, NoDataMessage)
		return err
	}

	var b strings.Builder
	b.WriteString("| " + strings.Join(escapeCells(columns), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")
	for _, r := range rows {
		cells := make([]string, len(columns))
		for i := range columns {
			if i < len(r) {
				cells[i] = cellString(r[i])
			}
		}
		b.WriteString("| " + strings.Join(escapeCells(cells), " | ") + " |\n")
	}

	_, err := io.WriteString(out, b.String())
	return err
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		out[i] = strings.ReplaceAll(c, "\n", " ")
	}
	return out
}
