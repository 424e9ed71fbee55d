package types

import "github.com/shopspring/decimal"

// WeightTable maps a ticker to its target fraction of capital.
type WeightTable map[string]decimal.Decimal

// NewWeightTable converts conventionally entered float weights.
func NewWeightTable(in map[string]float64) WeightTable {
	out := make(WeightTable, len(in))
	for k, v := range in {
		out[k] = decimal.NewFromFloat(v)
	}
	return out
}

// Weight returns the weight for ticker, zero when the ticker is absent.
func (w WeightTable) Weight(ticker string) decimal.Decimal {
	if v, ok := w[ticker]; ok {
		return v
	}
	return decimal.Zero
}

// Sum adds up every weight in the table.
func (w WeightTable) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range w {
		total = total.Add(v)
	}
	return total
}

// Clone returns an independent copy that can be modified freely.
func (w WeightTable) Clone() WeightTable {
	out := make(WeightTable, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
