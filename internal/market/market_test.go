package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// Ten trading days of rising prices: 100, 101, ..., 109.
func risingCloses() []Close {
	var closes []Close
	for i := 0; i < 10; i++ {
		closes = append(closes, Close{
			Date:  day(i + 1),
			Price: decimal.NewFromInt(int64(100 + i)),
		})
	}
	return closes
}

func TestReturnsOn(t *testing.T) {
	closes := risingCloses()

	r := ReturnsOn(closes, day(10))
	if r.Daily == nil {
		t.Fatal("expected daily return")
	}
	// (109-108)/108
	assertClose(t, *r.Daily, 1.0/108)

	if r.Weekly == nil {
		t.Fatal("expected weekly return")
	}
	// (109-104)/104
	assertClose(t, *r.Weekly, 5.0/104)
}

func TestReturnsOnForwardFill(t *testing.T) {
	closes := risingCloses()

	// Jan 13 is past the last close; should resolve to Jan 10.
	r := ReturnsOn(closes, day(13))
	if r.Daily == nil || r.Weekly == nil {
		t.Fatal("expected returns via forward fill")
	}
	assertClose(t, *r.Daily, 1.0/108)
}

func TestReturnsOnShortHistory(t *testing.T) {
	closes := risingCloses()[:3]

	r := ReturnsOn(closes, day(3))
	if r.Daily == nil {
		t.Error("expected daily return with 3 closes")
	}
	if r.Weekly != nil {
		t.Error("weekly return needs at least 6 closes")
	}
}

func TestReturnsOnBeforeHistory(t *testing.T) {
	closes := risingCloses()

	r := ReturnsOn(closes, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC))
	if r.Daily != nil || r.Weekly != nil {
		t.Error("expected no returns before the first close")
	}
}

func TestReturnsOnEmpty(t *testing.T) {
	r := ReturnsOn(nil, day(5))
	if r.Daily != nil || r.Weekly != nil {
		t.Error("expected no returns for empty history")
	}
}

func assertClose(t *testing.T, got, want float64) {
	t.Helper()
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}
