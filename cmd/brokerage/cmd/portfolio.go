package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio <username>",
	Short: "Show current holdings valued at live quotes",
	Args:  cobra.ExactArgs(1),
	RunE:  runPortfolio,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.resolveUser(cmd, args[0])
	if err != nil {
		return err
	}

	p, err := a.engine.Portfolio(cmd.Context(), u.ID)
	if err != nil {
		return fmt.Errorf("portfolio: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tSHARES\tPRICE\tVALUE")
	for _, h := range p.Holdings {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", h.Symbol, h.Name, h.Quantity, usd(h.Price), usd(h.Value))
	}
	fmt.Fprintf(w, "\tCASH\t\t\t%s\n", usd(p.Cash))
	fmt.Fprintf(w, "\tTOTAL\t\t\t%s\n", usd(p.GrandTotal))
	return w.Flush()
}
