package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
initial_cash: 10000
start: "2017-01-01"
end: "2019-12-31"
tickers: [SPY, AAPL, KEYS]
strategy:
  name: trailing_stop
  risk_pct: 0.1
sizer:
  name: weight
  price_field: adj_close
  weights:
    SPY: 0.5
    AAPL: 0.3
    KEYS: 0.2
risk:
  max_quantity: 1000
feed:
  kind: csv
  csv_dir: ./data
log:
  level: debug
  file: /tmp/gosig.log
metrics:
  listen: ":9102"
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, "run.yaml", sampleYAML), writeFile(t, "empty.env", ""))
	require.NoError(t, err)

	assert.Equal(t, 10000.0, cfg.InitialCash)
	assert.Equal(t, []string{"SPY", "AAPL", "KEYS"}, cfg.Tickers)
	assert.Equal(t, "trailing_stop", cfg.Strategy.Name)
	assert.Equal(t, 0.1, cfg.Strategy.RiskPct)
	assert.Equal(t, "weight", cfg.Sizer.Name)
	assert.Equal(t, "adj_close", cfg.Sizer.PriceField)
	assert.Equal(t, 0.3, cfg.Sizer.Weights["AAPL"])
	assert.Equal(t, int64(1000), cfg.Risk.MaxQuantity)
	assert.Equal(t, "./data", cfg.Feed.CSVDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9102", cfg.Metrics.Listen)

	start, end, err := cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("tickers: [SPY]\nfeed:\n  csv_dir: data\n"))
	require.NoError(t, err)
	assert.Equal(t, 100_000.0, cfg.InitialCash)
	assert.Equal(t, "buy_and_hold", cfg.Strategy.Name)
	assert.Equal(t, "close", cfg.Sizer.PriceField)
	assert.Equal(t, FeedCSV, cfg.Feed.Kind)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParseDefaultsRiskForStopStrategies(t *testing.T) {
	for _, name := range []string{"trailing_stop", "buy_and_hold_stop_loss", "stop_loss_rebalance"} {
		cfg, err := Parse([]byte("tickers: [SPY]\nfeed:\n  csv_dir: data\nstrategy:\n  name: " + name + "\n"))
		require.NoError(t, err, name)
		assert.Equal(t, DefaultRiskPct, cfg.Strategy.RiskPct, name)
	}

	cfg, err := Parse([]byte("tickers: [SPY]\nfeed:\n  csv_dir: data\nstrategy:\n  name: trailing_stop\n  risk_pct: 0.25\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Strategy.RiskPct)

	cfg, err = Parse([]byte("tickers: [SPY]\nfeed:\n  csv_dir: data\nstrategy:\n  name: monthly_rebalance\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Strategy.RiskPct)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvFeedDSN, "file:bars.db")

	cfg, err := Parse([]byte("tickers: [SPY]\nfeed:\n  kind: sqlite\nlog:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "file:bars.db", cfg.Feed.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadReadsEnvFile(t *testing.T) {
	// register cleanup, then clear so the env file is allowed to set it
	t.Setenv(EnvFeedDSN, "")
	require.NoError(t, os.Unsetenv(EnvFeedDSN))

	envFile := writeFile(t, "test.env", EnvFeedDSN+"=postgres://localhost/bars?sslmode=disable\n")
	cfg, err := Load(writeFile(t, "run.yaml", "tickers: [SPY]\nfeed:\n  kind: postgres\n"), envFile)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/bars?sslmode=disable", cfg.Feed.DSN)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), writeFile(t, "empty.env", ""))
	assert.Error(t, err)

	_, err = Parse([]byte("tickers: [SPY\n"))
	assert.ErrorContains(t, err, "decode yaml")
}

func TestValidateFailures(t *testing.T) {
	valid := func() Config {
		return Config{
			InitialCash: 1000,
			Tickers:     []string{"SPY"},
			Sizer:       SizerConfig{PriceField: "close"},
			Feed:        FeedConfig{Kind: FeedCSV, CSVDir: "data"},
		}
	}
	base := valid()
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"initial_cash":       func(c *Config) { c.InitialCash = -1 },
		"tickers":            func(c *Config) { c.Tickers = nil },
		"empty symbol":       func(c *Config) { c.Tickers = []string{"SPY", " "} },
		"end":                func(c *Config) { c.Start, c.End = "2020-01-02", "2020-01-01" },
		"start":              func(c *Config) { c.Start = "01/02/2020" },
		"risk_pct":           func(c *Config) { c.Strategy.RiskPct = 1 },
		"stop without risk":  func(c *Config) { c.Strategy.Name = "stop_loss_rebalance" },
		"support_buffer":     func(c *Config) { c.Strategy.SupportBuffer = -0.1 },
		"base_quantity":      func(c *Config) { c.Strategy.BaseQuantity = -1 },
		"default_quantity":   func(c *Config) { c.Sizer.DefaultQuantity = -5 },
		"price_field":        func(c *Config) { c.Sizer.PriceField = "open" },
		"weights":            func(c *Config) { c.Sizer.Weights = map[string]float64{"SPY": -0.5} },
		"max_quantity":       func(c *Config) { c.Risk.MaxQuantity = -1 },
		"max_risk_per_trade": func(c *Config) { c.Risk.MaxRiskPerTrade = 0.6 },
		"stop_loss_pct":      func(c *Config) { c.Risk.StopLossPct = 0.5 },
		"csv_dir":            func(c *Config) { c.Feed.CSVDir = "" },
		"dsn":                func(c *Config) { c.Feed.Kind = FeedSQLite },
		"kind":               func(c *Config) { c.Feed.Kind = "kafka" },
	}
	for name, mutate := range cases {
		c := valid()
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}
