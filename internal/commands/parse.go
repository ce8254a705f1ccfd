package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-assistant/internal/statement"
	"github.com/insightdelivered/statement-assistant/internal/writer"
)

func newParseCommand(rt *session) *cobra.Command {
	var src sourceFlags
	var output string
	var format string
	var header bool

	cmd := &cobra.Command{
		Use:   "parse <statement.pdf> [statement2.pdf ...]",
		Short: "Convert statements to CSV, XLSX or JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.validate(); err != nil {
				return err
			}
			format = strings.ToLower(format)
			w, err := writer.ForFormat(format, header)
			if err != nil {
				return err
			}
			if output != "" && output != "-" && len(args) > 1 {
				return fmt.Errorf("--output names a single file; omit it to convert %d inputs", len(args))
			}

			svc := rt.service(nil, nil)
			for _, in := range args {
				if err := runParse(cmd, svc, in, &src, w, output, format); err != nil {
					return fmt.Errorf("processing %s: %w", in, err)
				}
			}
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", `output path, "-" for stdout (defaults to the input name with the format's extension)`)
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv, xlsx or json")
	cmd.Flags().BoolVar(&header, "header", true, "include account metadata rows in CSV and XLSX output")

	return cmd
}

func runParse(cmd *cobra.Command, svc *statement.Service, in string, src *sourceFlags, w writer.StatementWriter, output, format string) error {
	log := cmd.ErrOrStderr()
	fmt.Fprintf(log, "Processing: %s\n", in)

	info, err := parseInput(cmd, svc, in, src)
	if err != nil {
		return err
	}

	fmt.Fprintf(log, "  Bank: %s\n", info.Bank)
	fmt.Fprintf(log, "  Found %d transaction(s)\n", len(info.Transactions))
	if len(info.Transactions) == 0 {
		fmt.Fprintln(log, "  Warning: No transactions found. The PDF format may not match expected patterns.")
	}
	if info.Malformed > 0 {
		fmt.Fprintf(log, "  Skipped %d malformed line(s)\n", info.Malformed)
	}

	outPath := output
	if outPath == "" {
		outPath = strings.TrimSuffix(in, filepath.Ext(in)) + "." + format
	}

	if outPath == "-" {
		err = w.Write(cmd.OutOrStdout(), info)
	} else {
		err = w.WriteToFile(outPath, info)
		if err == nil {
			fmt.Fprintf(log, "  Output: %s\n", outPath)
		}
	}
	if err != nil {
		return err
	}

	if info.AccountNumber != "" {
		fmt.Fprintf(log, "  Account number: %s\n", info.AccountNumber)
	}
	if info.StatementPeriod != "" {
		fmt.Fprintf(log, "  Period: %s\n", info.StatementPeriod)
	}
	return writer.WriteSummary(log, writer.Summarize(info.Transactions))
}
