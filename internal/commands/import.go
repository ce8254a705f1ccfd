package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCommand(rt *session) *cobra.Command {
	var src sourceFlags
	var accountNo string

	cmd := &cobra.Command{
		Use:   "import <statement.pdf> [statement2.pdf ...]",
		Short: "Parse statements and store their transactions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.validate(); err != nil {
				return err
			}

			db, err := rt.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := rt.service(db, nil)
			out := cmd.OutOrStdout()
			for _, in := range args {
				info, err := parseInput(cmd, svc, in, &src)
				if err != nil {
					return fmt.Errorf("processing %s: %w", in, err)
				}
				res, err := svc.Import(cmd.Context(), info, accountNo)
				if err != nil {
					return fmt.Errorf("importing %s: %w", in, err)
				}
				fmt.Fprintf(out, "%s: inserted %d new transactions out of %d (%d already stored), import %s\n",
					in, res.Inserted, res.Total, res.Skipped, res.ImportID)
			}
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&accountNo, "account-no", "", "account number to record (defaults to the one on the statement)")

	return cmd
}
