package testutils

import (
	"github.com/evdnx/gosig/types"
	"github.com/shopspring/decimal"
)

// MockPortfolio is a hand-set portfolio snapshot. Nothing in it moves unless
// a test calls one of the setters, which makes sizing results reproducible.
type MockPortfolio struct {
	cash      decimal.Decimal
	initCash  decimal.Decimal
	equity    *decimal.Decimal
	positions map[string]int64
	prices    map[string]map[types.PriceField]decimal.Decimal
}

// NewMockPortfolio creates a snapshot holding only cash.
func NewMockPortfolio(cash float64) *MockPortfolio {
	c := decimal.NewFromFloat(cash)
	return &MockPortfolio{
		cash:      c,
		initCash:  c,
		positions: make(map[string]int64),
		prices:    make(map[string]map[types.PriceField]decimal.Decimal),
	}
}

func (m *MockPortfolio) SetCash(cash float64) *MockPortfolio {
	m.cash = decimal.NewFromFloat(cash)
	return m
}

func (m *MockPortfolio) SetInitCash(cash float64) *MockPortfolio {
	m.initCash = decimal.NewFromFloat(cash)
	return m
}

// SetEquity pins equity; otherwise it is cash plus marked positions.
func (m *MockPortfolio) SetEquity(equity float64) *MockPortfolio {
	e := decimal.NewFromFloat(equity)
	m.equity = &e
	return m
}

func (m *MockPortfolio) SetPosition(ticker string, qty int64) *MockPortfolio {
	m.positions[ticker] = qty
	return m
}

// SetPrice sets both close and adjusted close.
func (m *MockPortfolio) SetPrice(ticker string, price float64) *MockPortfolio {
	p := decimal.NewFromFloat(price)
	m.prices[ticker] = map[types.PriceField]decimal.Decimal{types.Close: p, types.AdjClose: p}
	return m
}

func (m *MockPortfolio) SetFieldPrice(ticker string, field types.PriceField, price float64) *MockPortfolio {
	if m.prices[ticker] == nil {
		m.prices[ticker] = make(map[types.PriceField]decimal.Decimal)
	}
	m.prices[ticker][field] = decimal.NewFromFloat(price)
	return m
}

func (m *MockPortfolio) Cash() decimal.Decimal     { return m.cash }
func (m *MockPortfolio) InitCash() decimal.Decimal { return m.initCash }

func (m *MockPortfolio) Equity() decimal.Decimal {
	if m.equity != nil {
		return *m.equity
	}
	total := m.cash
	for t, q := range m.positions {
		if p, ok := m.LastPrice(t, types.Close); ok {
			total = total.Add(p.Mul(decimal.NewFromInt(q)))
		}
	}
	return total
}

func (m *MockPortfolio) Position(ticker string) (int64, bool) {
	q, ok := m.positions[ticker]
	if !ok || q == 0 {
		return 0, false
	}
	return q, true
}

func (m *MockPortfolio) LastPrice(ticker string, field types.PriceField) (decimal.Decimal, bool) {
	fields, ok := m.prices[ticker]
	if !ok {
		return decimal.Decimal{}, false
	}
	p, ok := fields[field]
	return p, ok
}
