package models

import (
	"github.com/shopspring/decimal"
)

// Money is a peso amount. It scans and computes like decimal.Decimal but is
// always rendered with two decimals, e.g. "215.00".
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}
