package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var depositCmd = &cobra.Command{
	Use:   "deposit <username> <amount>",
	Short: "Add cash to an account",
	Args:  cobra.ExactArgs(2),
	RunE:  runDeposit,
}

func init() {
	rootCmd.AddCommand(depositCmd)
}

func runDeposit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.resolveUser(cmd, args[0])
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", args[1], err)
	}

	if err := a.engine.AddCash(cmd.Context(), u.ID, amount); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}

	balance, err := a.store.Balance(cmd.Context(), u.ID)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}

	fmt.Printf("deposited %s; balance is now %s\n", usd(amount), usd(balance))
	return nil
}
