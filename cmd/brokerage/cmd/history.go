package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/finvault/brokerage/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history <username>",
	Short: "List every committed transaction, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var historyCSV bool

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyCSV, "csv", false, "emit CSV instead of a table")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.resolveUser(cmd, args[0])
	if err != nil {
		return err
	}

	txns, err := a.engine.History(cmd.Context(), u.ID)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if historyCSV {
		return ledger.WriteCSV(os.Stdout, txns)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tSYMBOL\tSHARES\tPRICE")
	for _, txn := range txns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			fmtTime(txn.CreatedAt), txn.Kind, txn.Symbol, txn.Quantity, usd(txn.Price))
	}
	return w.Flush()
}
