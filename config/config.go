package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/finvault/brokerage/quote"
)

// Config represents the complete brokerage configuration
type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database"`
	Account  AccountConfig  `json:"account" yaml:"account"`
	Quotes   QuotesConfig   `json:"quotes" yaml:"quotes"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// DatabaseConfig locates the SQLite ledger database
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"`
}

// AccountConfig contains account creation parameters
type AccountConfig struct {
	StartingCash float64 `json:"starting_cash" yaml:"starting_cash"`
}

// QuotesConfig selects and configures the quote provider
type QuotesConfig struct {
	Provider string        `json:"provider" yaml:"provider"` // "http" or "static"
	BaseURL  string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Token    string        `json:"token,omitempty" yaml:"token,omitempty"`
	Timeout  string        `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "5s"
	Symbols  []StaticQuote `json:"symbols,omitempty" yaml:"symbols,omitempty"`
}

// StaticQuote is one entry of the static provider's price table
type StaticQuote struct {
	Symbol string  `json:"symbol" yaml:"symbol"`
	Name   string  `json:"name" yaml:"name"`
	Price  float64 `json:"price" yaml:"price"`
}

// LoggingConfig contains structured-logging parameters
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
}

// ParseTimeout converts the quote timeout string to time.Duration
func (q QuotesConfig) ParseTimeout() (time.Duration, error) {
	if q.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(q.Timeout)
}

// StaticQuotes converts the configured symbol table into provider quotes
func (q QuotesConfig) StaticQuotes() []quote.Quote {
	out := make([]quote.Quote, 0, len(q.Symbols))
	for _, s := range q.Symbols {
		out = append(out, quote.Quote{
			Symbol: s.Symbol,
			Name:   s.Name,
			Price:  decimal.NewFromFloat(s.Price),
		})
	}
	return out
}

// Build constructs the zap logger described by the logging section. With a
// file configured, output goes through a size-rotated lumberjack sink;
// otherwise zap's production setup writes to stderr.
func (l LoggingConfig) Build() (*zap.Logger, error) {
	levelStr := l.Level
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := zap.ParseAtomicLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	if l.File == "" {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		return cfg.Build()
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   l.File,
		MaxSize:    l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAgeDays,
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, level)
	return zap.New(core), nil
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Account.StartingCash < 0 {
		return fmt.Errorf("account.starting_cash must not be negative")
	}
	switch c.Quotes.Provider {
	case "http":
		if c.Quotes.Token == "" {
			return fmt.Errorf("quotes.token required for http provider")
		}
	case "static":
		if len(c.Quotes.Symbols) == 0 {
			return fmt.Errorf("quotes.symbols required for static provider")
		}
		for _, s := range c.Quotes.Symbols {
			if s.Symbol == "" {
				return fmt.Errorf("quotes.symbols entries need a symbol")
			}
			if s.Price <= 0 {
				return fmt.Errorf("quotes.symbols price must be positive for %s", s.Symbol)
			}
		}
	default:
		return fmt.Errorf("quotes.provider must be 'http' or 'static'")
	}
	if _, err := c.Quotes.ParseTimeout(); err != nil {
		return fmt.Errorf("quotes.timeout: %w", err)
	}
	if c.Logging.Level != "" {
		if _, err := zap.ParseAtomicLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "./brokerage.sqlite",
		},
		Account: AccountConfig{
			StartingCash: 10000,
		},
		Quotes: QuotesConfig{
			Provider: "static",
			Timeout:  "5s",
			Symbols: []StaticQuote{
				{Symbol: "AAPL", Name: "Apple Inc", Price: 190.50},
				{Symbol: "MSFT", Name: "Microsoft Corporation", Price: 420.10},
				{Symbol: "NFLX", Name: "Netflix Inc", Price: 610.25},
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
