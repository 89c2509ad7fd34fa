package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create a new account with the configured starting cash",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cash := decimal.NewFromFloat(a.cfg.Account.StartingCash)
	u, err := a.store.CreateUser(cmd.Context(), args[0], cash)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	fmt.Printf("registered %s (id %s) with %s\n", u.Username, u.ID, usd(u.Cash))
	return nil
}
