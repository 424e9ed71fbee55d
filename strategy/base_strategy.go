package strategy

import (
	"fmt"

	"github.com/evdnx/gosig/executor"
	"github.com/evdnx/gosig/logger"
	"github.com/evdnx/gosig/metrics"
	"github.com/evdnx/gosig/sizer"
	"github.com/evdnx/gosig/types"
)

// BaseStrategy bundles the common dependencies and helpers.
type BaseStrategy struct {
	Log   logger.Logger
	Sink  Sink
	Sizer sizer.Sizer // optional; nil leaves signals unsized
	name  string
}

// NewBaseStrategy validates the shared dependencies. All concrete strategies
// call this from their own constructors.
func NewBaseStrategy(name string, sink Sink, sz sizer.Sizer, log logger.Logger) (*BaseStrategy, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &BaseStrategy{Log: log, Sink: sink, Sizer: sz, name: name}, nil
}

func (b *BaseStrategy) Name() string { return b.name }

// size runs the configured sizer. Failures are logged and counted, and the
// error is returned so the caller can skip the signal.
func (b *BaseStrategy) size(p executor.Portfolio, sig types.Signal) (types.Signal, error) {
	if b.Sizer == nil {
		return sig, nil
	}
	sized, err := b.Sizer.Size(p, sig)
	if err != nil {
		b.Log.Warn("signal_sizing_failed",
			logger.String("strategy", b.name),
			logger.String("sizer", b.Sizer.Name()),
			logger.String("ticker", sig.Ticker),
			logger.String("action", string(sig.Action)),
			logger.Err(err),
		)
		metrics.SizingFailures.WithLabelValues(b.Sizer.Name()).Inc()
		return sig, fmt.Errorf("%s: size %s %s: %w", b.name, sig.Action, sig.Ticker, err)
	}
	return sized, nil
}

// put stamps the signal and hands it to the sink as-is.
func (b *BaseStrategy) put(sig types.Signal, bar types.Bar) {
	sig.Strategy = b.name
	sig.Time = bar.Time
	b.Log.Info("signal_emitted",
		logger.String("strategy", b.name),
		logger.String("ticker", sig.Ticker),
		logger.String("action", string(sig.Action)),
		logger.Int64("qty", sig.SuggestedQuantity),
		logger.Time("bar_time", bar.Time),
	)
	metrics.SignalsEmitted.WithLabelValues(b.name, string(sig.Action)).Inc()
	b.Sink.Put(sig)
}

// emit sizes the signal and puts it; a sizing failure drops the signal.
func (b *BaseStrategy) emit(p executor.Portfolio, sig types.Signal, bar types.Bar) error {
	sized, err := b.size(p, sig)
	if err != nil {
		return err
	}
	b.put(sized, bar)
	return nil
}
