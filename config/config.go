// Package config loads the YAML description of a backtest run.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/evdnx/gosig/logger"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DateLayout is the format of start and end in the YAML file.
const DateLayout = "2006-01-02"

const (
	FeedCSV      = "csv"
	FeedSQLite   = "sqlite"
	FeedPostgres = "postgres"
)

// Environment variables that override values from the file.
const (
	EnvFeedDSN       = "GOSIG_FEED_DSN"
	EnvLogLevel      = "GOSIG_LOG_LEVEL"
	EnvMetricsListen = "GOSIG_METRICS_LISTEN"
)

// StrategyConfig selects the strategy and holds its tunable parameters.
type StrategyConfig struct {
	Name          string  `yaml:"name"`
	RiskPct       float64 `yaml:"risk_pct"`       // e.g. 0.1 = stop 10 % under the running high
	BaseQuantity  int64   `yaml:"base_quantity"`  // breakout size when no sizer is set
	SupportBuffer float64 `yaml:"support_buffer"` // breakout stop distance, default 0.03
}

// DefaultRiskPct is the trailing-stop drawdown used when none is configured.
const DefaultRiskPct = 0.1

// usesStop reports whether the named strategy trails a stop off RiskPct.
func (s StrategyConfig) usesStop() bool {
	switch strings.ToLower(strings.TrimSpace(s.Name)) {
	case "trailing_stop", "buy_and_hold_stop_loss", "stop_loss_rebalance":
		return true
	}
	return false
}

// SizerConfig selects the sizing policy.
type SizerConfig struct {
	Name            string             `yaml:"name"`
	DefaultQuantity int64              `yaml:"default_quantity"`
	PriceField      string             `yaml:"price_field"`
	Weights         map[string]float64 `yaml:"weights"`
}

// RiskConfig bounds orders that add exposure. Zero disables a limit.
type RiskConfig struct {
	MaxQuantity     int64   `yaml:"max_quantity"`
	MaxRiskPerTrade float64 `yaml:"max_risk_per_trade"` // e.g. 0.01 = 1 % of equity
	StopLossPct     float64 `yaml:"stop_loss_pct"`      // e.g. 0.015 = 1.5 %
}

// FeedConfig says where bars come from.
type FeedConfig struct {
	Kind   string `yaml:"kind"`
	CSVDir string `yaml:"csv_dir"`
	DSN    string `yaml:"dsn"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Config is the whole run description.
type Config struct {
	InitialCash float64        `yaml:"initial_cash"`
	Start       string         `yaml:"start"`
	End         string         `yaml:"end"`
	Tickers     []string       `yaml:"tickers"`
	Strategy    StrategyConfig `yaml:"strategy"`
	Sizer       SizerConfig    `yaml:"sizer"`
	Risk        RiskConfig     `yaml:"risk"`
	Feed        FeedConfig     `yaml:"feed"`
	Log         logger.Config  `yaml:"log"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}

// Load reads path, applies defaults and environment overrides and validates
// the result. envFiles are loaded first; without any, a .env file in the
// working directory is used when present.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnv(envFiles); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML bytes the same way Load does.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnv(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errors.Wrap(err, "load .env")
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.Wrap(err, "load env files")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.InitialCash == 0 {
		c.InitialCash = 100_000
	}
	if c.Strategy.Name == "" {
		c.Strategy.Name = "buy_and_hold"
	}
	if c.Strategy.RiskPct == 0 && c.Strategy.usesStop() {
		c.Strategy.RiskPct = DefaultRiskPct
	}
	if c.Sizer.PriceField == "" {
		c.Sizer.PriceField = "close"
	}
	if c.Feed.Kind == "" {
		c.Feed.Kind = FeedCSV
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvFeedDSN); v != "" {
		c.Feed.DSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvMetricsListen); v != "" {
		c.Metrics.Listen = v
	}
}

// Window returns the parsed start and end dates; a zero time means open.
func (c *Config) Window() (start, end time.Time, err error) {
	if c.Start != "" {
		if start, err = time.Parse(DateLayout, c.Start); err != nil {
			return start, end, errors.Wrap(err, "start")
		}
	}
	if c.End != "" {
		if end, err = time.Parse(DateLayout, c.End); err != nil {
			return start, end, errors.Wrap(err, "end")
		}
	}
	return start, end, nil
}

// Validate checks that all fields are within sensible bounds and returns the
// first problem found.
func (c *Config) Validate() error {
	if c.InitialCash <= 0 {
		return errors.Errorf("initial_cash (%f) must be positive", c.InitialCash)
	}
	if len(c.Tickers) == 0 {
		return errors.New("tickers cannot be empty")
	}
	for _, t := range c.Tickers {
		if strings.TrimSpace(t) == "" {
			return errors.New("tickers cannot contain an empty symbol")
		}
	}
	start, end, err := c.Window()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return errors.Errorf("end %s is before start %s", c.End, c.Start)
	}

	if c.Strategy.RiskPct < 0 || c.Strategy.RiskPct >= 1 {
		return errors.Errorf("strategy.risk_pct (%f) must be >=0 and <1", c.Strategy.RiskPct)
	}
	if c.Strategy.RiskPct == 0 && c.Strategy.usesStop() {
		return errors.Errorf("strategy.risk_pct must be positive for %s", c.Strategy.Name)
	}
	if c.Strategy.SupportBuffer < 0 || c.Strategy.SupportBuffer >= 1 {
		return errors.Errorf("strategy.support_buffer (%f) must be >=0 and <1", c.Strategy.SupportBuffer)
	}
	if c.Strategy.BaseQuantity < 0 {
		return errors.New("strategy.base_quantity cannot be negative")
	}

	if c.Sizer.DefaultQuantity < 0 {
		return errors.New("sizer.default_quantity cannot be negative")
	}
	switch c.Sizer.PriceField {
	case "close", "adj_close":
	default:
		return errors.Errorf("sizer.price_field %q must be close or adj_close", c.Sizer.PriceField)
	}
	for t, w := range c.Sizer.Weights {
		if w < 0 {
			return errors.Errorf("sizer.weights[%s] (%f) cannot be negative", t, w)
		}
	}

	if c.Risk.MaxQuantity < 0 {
		return errors.New("risk.max_quantity cannot be negative")
	}
	if c.Risk.MaxRiskPerTrade < 0 || c.Risk.MaxRiskPerTrade > 0.5 {
		return errors.Errorf("risk.max_risk_per_trade (%f) must be >=0 and <=0.5", c.Risk.MaxRiskPerTrade)
	}
	if c.Risk.StopLossPct < 0 || c.Risk.StopLossPct > 0.2 {
		return errors.Errorf("risk.stop_loss_pct (%f) must be >=0 and <=0.2", c.Risk.StopLossPct)
	}

	switch c.Feed.Kind {
	case FeedCSV:
		if c.Feed.CSVDir == "" {
			return errors.New("feed.csv_dir is required for the csv feed")
		}
	case FeedSQLite, FeedPostgres:
		if c.Feed.DSN == "" {
			return errors.Errorf("feed.dsn (or %s) is required for the %s feed", EnvFeedDSN, c.Feed.Kind)
		}
	default:
		return errors.Errorf("feed.kind %q must be csv, sqlite or postgres", c.Feed.Kind)
	}
	return nil
}
