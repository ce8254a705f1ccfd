package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-assistant/internal/writer"
)

func newQueryCommand(rt *session) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a read-only SQL query against stored transactions",
		Long: `Run a single SELECT (or WITH) statement against the transactions table:

  transactions(id, date, description, amount, balance, mode, type,
               receiver, bank, account_no, import_id, dedup_key,
               created_at, updated_at, deleted_at)

Dates are stored as yyyy-mm-dd; type is DEBIT, CREDIT or BALANCE.`,
		Example: `  statement-assistant query "SELECT receiver, SUM(amount) FROM transactions WHERE type = 'DEBIT' GROUP BY receiver"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rt.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := rt.service(db, nil).Query(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writer.WriteMarkdown(cmd.OutOrStdout(), res.Columns, res.Rows)
		},
	}
}
