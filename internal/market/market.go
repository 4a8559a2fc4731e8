package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Close is one daily closing price.
type Close struct {
	Date  time.Time
	Price decimal.Decimal
}

// History provides daily closing prices for a symbol over a date range.
type History interface {
	Closes(ctx context.Context, symbol string, start, end time.Time) ([]Close, error)
}

// Returns holds the per-date return metrics computed from a price series.
type Returns struct {
	Daily  *float64
	Weekly *float64
}

// ReturnsOn computes the daily and 5-trading-day returns for the closest
// trading day at or before date. Prices are forward-filled: a weekend or
// holiday date resolves to the previous close.
func ReturnsOn(closes []Close, date time.Time) Returns {
	idx := -1
	for i, c := range closes {
		if c.Date.After(date) {
			break
		}
		idx = i
	}
	if idx < 0 {
		return Returns{}
	}

	var r Returns
	end := closes[idx].Price
	if idx > 0 {
		r.Daily = fraction(closes[idx-1].Price, end)
	}
	if idx >= 5 {
		r.Weekly = fraction(closes[idx-5].Price, end)
	}
	return r
}

func fraction(start, end decimal.Decimal) *float64 {
	if start.IsZero() {
		return nil
	}
	f, _ := end.Sub(start).Div(start).Float64()
	return &f
}
