// Package session runs a backtest: bars from a feed go through the strategy,
// the signals it queues are refined into orders and filled by the executor.
package session

import (
	"context"
	"time"

	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/feed"
	"github.com/evdnx/gosig/logger"
	"github.com/evdnx/gosig/metrics"
	"github.com/evdnx/gosig/risk"
	"github.com/evdnx/gosig/strategy"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// EquityPoint is the portfolio value after all fills at one timestamp.
type EquityPoint struct {
	Time   time.Time
	Equity decimal.Decimal
}

// Result summarises a finished (or interrupted) run.
type Result struct {
	RunID          string
	Strategy       string
	Bars           int
	Signals        int
	Orders         int
	Rejected       int
	StrategyErrors int
	StartEquity    decimal.Decimal
	FinalEquity    decimal.Decimal
	TotalReturn    decimal.Decimal // final/start - 1
	MaxDrawdown    decimal.Decimal // largest peak-to-trough fall as a fraction of the peak
	EquityCurve    []EquityPoint
	Fills          []executor.Fill
	Elapsed        time.Duration
}

// Session wires one feed, strategy, filter and executor together. It is
// single-threaded: Run must not be called concurrently.
type Session struct {
	feed   feed.Feed
	exec   executor.Executor
	queue  *Queue
	strat  strategy.Strategy
	filter *risk.Filter
	log    logger.Logger
}

// New returns a session. The strategy must put its signals on queue.
func New(f feed.Feed, exec executor.Executor, queue *Queue, strat strategy.Strategy, filter *risk.Filter, log logger.Logger) (*Session, error) {
	switch {
	case f == nil:
		return nil, errors.New("session needs a feed")
	case exec == nil:
		return nil, errors.New("session needs an executor")
	case queue == nil:
		return nil, errors.New("session needs a queue")
	case strat == nil:
		return nil, errors.New("session needs a strategy")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if filter == nil {
		filter = risk.NewFilter(risk.Limits{}, log)
	}
	return &Session{feed: f, exec: exec, queue: queue, strat: strat, filter: filter, log: log}, nil
}

type fillRecorder interface {
	Fills() []executor.Fill
}

// Run consumes the feed until it is exhausted or ctx is done. A partial
// result is returned together with any feed error.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	began := time.Now()
	res := &Result{
		RunID:       uuid.NewString(),
		Strategy:    s.strat.Name(),
		StartEquity: s.exec.Equity(),
	}
	s.log.Info("session_started", logger.String("run_id", res.RunID), logger.String("strategy", res.Strategy),
		logger.Decimal("equity", res.StartEquity))

	peak := res.StartEquity
	res.MaxDrawdown = decimal.Zero

	var runErr error
	for {
		bar, ok, err := s.feed.Next(ctx)
		if err != nil {
			runErr = errors.Wrap(err, "next bar")
			break
		}
		if !ok {
			break
		}
		s.exec.Update(bar)
		res.Bars++
		metrics.BarsProcessed.Inc()

		if err := s.strat.CalculateSignals(bar, s.exec); err != nil {
			res.StrategyErrors++
			s.log.Warn("strategy_error", logger.String("ticker", bar.Ticker),
				logger.Time("bar_time", bar.Time), logger.Err(err))
		}
		s.drain(res)

		eq := s.exec.Equity()
		if n := len(res.EquityCurve); n > 0 && res.EquityCurve[n-1].Time.Equal(bar.Time) {
			res.EquityCurve[n-1].Equity = eq
		} else {
			res.EquityCurve = append(res.EquityCurve, EquityPoint{Time: bar.Time, Equity: eq})
		}
		if eq.GreaterThan(peak) {
			peak = eq
		}
		if peak.Sign() > 0 {
			if dd := peak.Sub(eq).Div(peak); dd.GreaterThan(res.MaxDrawdown) {
				res.MaxDrawdown = dd
			}
		}
	}

	res.FinalEquity = s.exec.Equity()
	if res.StartEquity.Sign() > 0 {
		res.TotalReturn = res.FinalEquity.Div(res.StartEquity).Sub(decimal.NewFromInt(1))
	}
	if fr, ok := s.exec.(fillRecorder); ok {
		res.Fills = fr.Fills()
	}
	res.Elapsed = time.Since(began)

	s.log.Info("session_finished",
		logger.String("run_id", res.RunID),
		logger.Int("bars", res.Bars),
		logger.Int("signals", res.Signals),
		logger.Int("orders", res.Orders),
		logger.Int("rejected", res.Rejected),
		logger.Decimal("final_equity", res.FinalEquity),
		logger.Decimal("total_return", res.TotalReturn),
	)
	return res, runErr
}

// drain refines and submits every queued signal in FIFO order.
func (s *Session) drain(res *Result) {
	for {
		sig, ok := s.queue.Get()
		if !ok {
			return
		}
		res.Signals++

		order, ok, err := s.filter.Refine(s.exec, sig)
		if err != nil {
			res.Rejected++
			s.log.Warn("refine_failed", logger.String("ticker", sig.Ticker), logger.Err(err))
			continue
		}
		if !ok {
			res.Rejected++
			continue
		}
		if err := s.exec.Submit(order); err != nil {
			res.Rejected++
			metrics.OrdersRejected.WithLabelValues("executor").Inc()
			s.log.Warn("order_rejected",
				logger.String("ticker", order.Ticker),
				logger.String("side", string(order.Side)),
				logger.Int64("qty", order.Quantity),
				logger.Err(err),
			)
			continue
		}
		res.Orders++
	}
}
