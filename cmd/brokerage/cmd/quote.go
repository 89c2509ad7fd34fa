package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <symbol>",
	Short: "Look up the current price for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := a.engine.Quote(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("quote: %w", err)
	}

	fmt.Printf("%s (%s): %s\n", q.Name, q.Symbol, usd(q.Price))
	return nil
}
