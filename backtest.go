// Package gosig assembles a runnable backtest from a config.Config: logger,
// paper executor, sizer, strategy, risk filter and feed.
package gosig

import (
	"context"
	"strings"

	"github.com/evdnx/gosig/config"
	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/feed"
	"github.com/evdnx/gosig/logger"
	"github.com/evdnx/gosig/risk"
	"github.com/evdnx/gosig/session"
	"github.com/evdnx/gosig/sizer"
	"github.com/evdnx/gosig/strategy"
	"github.com/evdnx/gosig/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Backtest is one configured run.
type Backtest struct {
	Config   *config.Config
	Log      logger.Logger
	Executor *executor.PaperExecutor
	Strategy strategy.Strategy

	feed    feed.Feed
	session *session.Session
}

type Option func(*options)

type options struct {
	log  logger.Logger
	feed feed.Feed
}

// WithLogger replaces the zap logger built from cfg.Log.
func WithLogger(l logger.Logger) Option { return func(o *options) { o.log = l } }

// WithFeed bypasses cfg.Feed.
func WithFeed(f feed.Feed) Option { return func(o *options) { o.feed = f } }

// NewBacktest validates cfg and builds every component.
func NewBacktest(ctx context.Context, cfg *config.Config, opts ...Option) (*Backtest, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	log := o.log
	if log == nil {
		var err error
		if log, err = logger.NewZapLogger(cfg.Log); err != nil {
			return nil, err
		}
	}

	sz, err := sizer.Build(SizerConfig(cfg.Sizer))
	if err != nil {
		return nil, err
	}
	queue := session.NewQueue()
	strat, err := strategy.Build(cfg.Strategy.Name, StrategyParams(cfg), sz, queue, log)
	if err != nil {
		return nil, errors.Wrap(err, "build strategy")
	}
	exec := executor.NewPaperExecutor(decimal.NewFromFloat(cfg.InitialCash), log)
	filter := risk.NewFilter(RiskLimits(cfg.Risk), log)

	f := o.feed
	if f == nil {
		if f, err = OpenFeed(ctx, cfg); err != nil {
			return nil, err
		}
	}
	sess, err := session.New(f, exec, queue, strat, filter, log)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Backtest{
		Config:   cfg,
		Log:      log,
		Executor: exec,
		Strategy: strat,
		feed:     f,
		session:  sess,
	}, nil
}

func (b *Backtest) Run(ctx context.Context) (*session.Result, error) {
	return b.session.Run(ctx)
}

// Close releases the feed and flushes the logger.
func (b *Backtest) Close() error {
	err := b.feed.Close()
	_ = logger.Sync(b.Log)
	return err
}

// SizerConfig converts the YAML sizer section.
func SizerConfig(c config.SizerConfig) sizer.Config {
	var weights types.WeightTable
	if len(c.Weights) > 0 {
		weights = types.NewWeightTable(c.Weights)
	}
	return sizer.Config{
		Name:            c.Name,
		Weights:         weights,
		DefaultQuantity: c.DefaultQuantity,
		PriceField:      types.PriceField(c.PriceField),
	}
}

// StrategyParams converts the YAML strategy section.
func StrategyParams(c *config.Config) strategy.Params {
	return strategy.Params{
		Tickers:       c.Tickers,
		RiskPct:       decimal.NewFromFloat(c.Strategy.RiskPct),
		BaseQuantity:  c.Strategy.BaseQuantity,
		SupportBuffer: decimal.NewFromFloat(c.Strategy.SupportBuffer),
	}
}

// RiskLimits converts the YAML risk section.
func RiskLimits(c config.RiskConfig) risk.Limits {
	return risk.Limits{
		MaxQuantity:     c.MaxQuantity,
		MaxRiskPerTrade: decimal.NewFromFloat(c.MaxRiskPerTrade),
		StopLossPct:     decimal.NewFromFloat(c.StopLossPct),
	}
}

// OpenFeed opens the configured bar source restricted to the run window.
func OpenFeed(ctx context.Context, cfg *config.Config) (feed.Feed, error) {
	start, end, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	w := feed.Window{Start: start, End: end}
	switch strings.ToLower(cfg.Feed.Kind) {
	case config.FeedCSV:
		return feed.NewCSVFeed(cfg.Feed.CSVDir, cfg.Tickers, w)
	case config.FeedSQLite, config.FeedPostgres:
		store, err := feed.OpenStore(ctx, feed.Dialect(cfg.Feed.Kind), cfg.Feed.DSN)
		if err != nil {
			return nil, err
		}
		f, err := feed.NewSQLFeed(ctx, store, cfg.Tickers, w)
		if err != nil {
			store.Close()
			return nil, err
		}
		return f, nil
	default:
		return nil, errors.Errorf("unknown feed kind %q", cfg.Feed.Kind)
	}
}
