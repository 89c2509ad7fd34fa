package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var buyCmd = &cobra.Command{
	Use:   "buy <username> <symbol> <quantity>",
	Short: "Buy shares at the current quoted price",
	Args:  cobra.ExactArgs(3),
	RunE:  runBuy,
}

var sellCmd = &cobra.Command{
	Use:   "sell <username> <symbol> <quantity>",
	Short: "Sell held shares at the current quoted price",
	Args:  cobra.ExactArgs(3),
	RunE:  runSell,
}

func init() {
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(sellCmd)
}

func runBuy(cmd *cobra.Command, args []string) error {
	return runTrade(cmd, args, true)
}

func runSell(cmd *cobra.Command, args []string) error {
	return runTrade(cmd, args, false)
}

func runTrade(cmd *cobra.Command, args []string, buy bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.resolveUser(cmd, args[0])
	if err != nil {
		return err
	}

	qty, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("parse quantity %q: %w", args[2], err)
	}

	var txnID string
	if buy {
		txnID, err = a.engine.Buy(cmd.Context(), u.ID, args[1], qty)
	} else {
		txnID, err = a.engine.Sell(cmd.Context(), u.ID, args[1], qty)
	}
	if err != nil {
		return fmt.Errorf("trade rejected: %w", err)
	}

	balance, err := a.store.Balance(cmd.Context(), u.ID)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}

	fmt.Printf("committed %s; balance is now %s\n", txnID, usd(balance))
	return nil
}
