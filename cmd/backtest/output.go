package main

import (
	"io"

	"github.com/evdnx/gosig/config"
	"github.com/evdnx/gosig/session"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func pct(d decimal.Decimal) string { return d.Mul(hundred).StringFixed(2) + "%" }

func printSummary(w io.Writer, cfg *config.Config, res *session.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("BACKTEST RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Run ID", res.RunID},
		{"Strategy", res.Strategy},
		{"Sizer", cfg.Sizer.Name},
		{"Tickers", len(cfg.Tickers)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Bars", res.Bars},
		{"Signals", res.Signals},
		{"Orders filled", res.Orders},
		{"Rejected", res.Rejected},
		{"Strategy errors", res.StrategyErrors},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Initial equity", res.StartEquity.StringFixed(2)},
		{"Final equity", res.FinalEquity.StringFixed(2)},
		{"Total return", pct(res.TotalReturn)},
		{"Max drawdown", pct(res.MaxDrawdown)},
		{"Elapsed", res.Elapsed.String()},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 16, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, Align: text.AlignRight},
	})
	t.Render()
}

func printFills(w io.Writer, res *session.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("FILLS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Ticker", "Side", "Qty", "Price", "Cash after", "Comment"})
	for i, f := range res.Fills {
		t.AppendRow(table.Row{i + 1, f.Order.Ticker, f.Order.Side, f.Order.Quantity,
			f.Price.StringFixed(2), f.Cash.StringFixed(2), f.Order.Comment})
	}
	t.Render()
}
