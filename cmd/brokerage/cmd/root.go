package cmd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finvault/brokerage/config"
	"github.com/finvault/brokerage/ledger"
	"github.com/finvault/brokerage/quote"
)

var rootCmd = &cobra.Command{
	Use:   "brokerage",
	Short: "A simulated brokerage account with an append-only trade ledger",
	Long: `Brokerage tracks simulated trading accounts: hold cash, buy and sell
quoted securities, and review holdings and trade history.

Every trade is validated (funds, shares, symbol) and committed atomically
to an append-only SQLite transaction log; positions and balances are
always derived from that log.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var cfgFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults apply when omitted")
}

// app bundles everything a subcommand needs. Close it when done.
type app struct {
	cfg    *config.Config
	store  *ledger.Store
	engine *ledger.Engine
	log    *zap.Logger
}

func openApp() (*app, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	log, err := cfg.Logging.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	store, err := ledger.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	var provider quote.Provider
	switch cfg.Quotes.Provider {
	case "http":
		provider = quote.NewClient(cfg.Quotes.BaseURL, cfg.Quotes.Token)
	default:
		provider = quote.NewStatic(cfg.Quotes.StaticQuotes()...)
	}

	timeout, err := cfg.Quotes.ParseTimeout()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("quote timeout: %w", err)
	}

	opts := []ledger.Option{ledger.WithLogger(log)}
	if timeout > 0 {
		opts = append(opts, ledger.WithQuoteTimeout(timeout))
	}

	return &app{
		cfg:    cfg,
		store:  store,
		engine: ledger.NewEngine(store, provider, opts...),
		log:    log,
	}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
	_ = a.log.Sync()
}

// resolveUser maps a CLI username to the stored account.
func (a *app) resolveUser(cmd *cobra.Command, username string) (ledger.User, error) {
	u, err := a.store.UserByName(cmd.Context(), username)
	if err != nil {
		return ledger.User{}, fmt.Errorf("resolve user %q: %w", username, err)
	}
	return u, nil
}

// usd renders a decimal amount the way statements do.
func usd(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func fmtTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
