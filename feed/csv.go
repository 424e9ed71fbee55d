package feed

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evdnx/gosig/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339Nano, "2006-01-02 15:04:05"}

// NewCSVFeed loads <dir>/<TICKER>.csv for every ticker. Files carry a header
// row with Date, Open, High, Low, Close, Volume and optionally Adj Close.
func NewCSVFeed(dir string, tickers []string, w Window) (*SliceFeed, error) {
	var all []types.Bar
	for _, t := range tickers {
		bars, err := ReadCSVFile(filepath.Join(dir, t+".csv"), t)
		if err != nil {
			return nil, err
		}
		all = append(all, bars...)
	}
	return NewSliceFeed(all, w), nil
}

// ReadCSVFile parses one ticker's daily bars.
func ReadCSVFile(path, ticker string) ([]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", ticker)
	}
	defer f.Close()

	bars, err := ReadCSV(f, ticker)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return bars, nil
}

// ReadCSV parses bars from r, locating columns by header name.
func ReadCSV(r io.Reader, ticker string) ([]types.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrap(ErrNoData, ticker)
	}
	if err != nil {
		return nil, errors.Wrap(err, "header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := cols[req]; !ok {
			return nil, errors.Errorf("missing column %q", req)
		}
	}
	adjCol, hasAdj := cols["adj close"]

	var bars []types.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		b := types.Bar{Ticker: ticker}
		if b.Time, err = parseTime(rec[cols["date"]]); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		fields := []struct {
			col string
			dst *decimal.Decimal
		}{
			{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close},
		}
		for _, fd := range fields {
			if *fd.dst, err = decimal.NewFromString(strings.TrimSpace(rec[cols[fd.col]])); err != nil {
				return nil, errors.Wrapf(err, "line %d %s", line, fd.col)
			}
		}
		if hasAdj {
			if b.AdjClose, err = decimal.NewFromString(strings.TrimSpace(rec[adjCol])); err != nil {
				return nil, errors.Wrapf(err, "line %d adj close", line)
			}
		}
		vol, err := decimal.NewFromString(strings.TrimSpace(rec[cols["volume"]]))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d volume", line)
		}
		b.Volume = vol.IntPart()
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, errors.Wrap(ErrNoData, ticker)
	}
	return bars, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, errors.Wrapf(firstErr, "date %q", s)
}
