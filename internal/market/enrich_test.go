package market

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/realmistic/long-term-news-llm-rag/internal/news"
	"github.com/shopspring/decimal"
)

func init() {
	downloadDelay = 0 // keep retry loops fast in tests
}

type fakeHistory struct {
	closes map[string][]Close
	calls  []string
}

func (f *fakeHistory) Closes(_ context.Context, symbol string, _, _ time.Time) ([]Close, error) {
	f.calls = append(f.calls, symbol)
	closes, ok := f.closes[symbol]
	if !ok {
		return nil, fmt.Errorf("no data for %s", symbol)
	}
	return closes, nil
}

// seriesCloses returns ten days of linearly moving prices so expected
// returns are exact fractions.
func seriesCloses(base int64, step int64) []Close {
	var closes []Close
	for i := int64(0); i < 10; i++ {
		closes = append(closes, Close{
			Date:  day(int(i) + 1),
			Price: decimal.NewFromInt(base + i*step),
		})
	}
	return closes
}

func TestEnrichIndividual(t *testing.T) {
	history := &fakeHistory{closes: map[string][]Close{
		"NVDA":  seriesCloses(100, 2), // weekly: (118-108)/108
		"^GSPC": seriesCloses(100, 1), // weekly: (109-104)/104
	}}
	e := &Enricher{History: history, Benchmark: "^GSPC"}

	records := []news.Record{{
		Type:      news.TypeIndividual,
		StartDate: "2024-01-03",
		EndDate:   "2024-01-10",
		Ticker:    "NVDA",
		Count:     5,
		Growth:    "2.5",
		Text:      "chips",
	}}

	enriched, err := e.Enrich(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(enriched) != 1 {
		t.Fatalf("expected 1 record, got %d", len(enriched))
	}

	r := enriched[0]
	if r.GrowthLastDay == nil {
		t.Fatal("expected growth_last_day")
	}
	assertClose(t, *r.GrowthLastDay, 0.025)

	if r.WeeklyReturn == nil || r.MarketWeeklyReturn == nil || r.GrowthAboveMarket == nil {
		t.Fatalf("missing return metrics: %+v", r)
	}
	nvdaWeekly := 10.0 / 108 // NVDA closes step by 2
	marketWeekly := 5.0 / 104
	assertClose(t, *r.WeeklyReturn, nvdaWeekly)
	assertClose(t, *r.MarketWeeklyReturn, marketWeekly)
	assertClose(t, *r.GrowthAboveMarket, nvdaWeekly-marketWeekly)
}

func TestEnrichMarketRow(t *testing.T) {
	history := &fakeHistory{closes: map[string][]Close{
		"^GSPC": seriesCloses(100, 1),
	}}
	e := &Enricher{History: history, Benchmark: "^GSPC"}

	records := []news.Record{{
		Type:      news.TypeMarketWeek,
		StartDate: "2024-01-09",
		EndDate:   "2024-01-10",
		Ticker:    news.MultipleTickers,
		Count:     40,
		Model:     "gpt-4o-mini",
		Text:      "markets moved",
	}}

	enriched, err := e.Enrich(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := enriched[0]

	if r.WeeklyReturn == nil || r.MarketWeeklyReturn == nil {
		t.Fatal("market row should mirror benchmark returns")
	}
	if *r.WeeklyReturn != *r.MarketWeeklyReturn {
		t.Errorf("weekly %v != market weekly %v", *r.WeeklyReturn, *r.MarketWeeklyReturn)
	}
	if r.GrowthAboveMarket != nil {
		t.Error("market row should have no growth above market")
	}
	// multiple_tickers must not be downloaded as a symbol
	for _, s := range history.calls {
		if s == news.MultipleTickers {
			t.Error("downloaded history for multiple_tickers")
		}
	}
}

func TestEnrichMissingTicker(t *testing.T) {
	history := &fakeHistory{closes: map[string][]Close{
		"^GSPC": seriesCloses(100, 1),
	}}
	var failed []string
	e := &Enricher{
		History:   history,
		Benchmark: "^GSPC",
		OnSymbol: func(symbol string, _ int, err error) {
			if err != nil {
				failed = append(failed, symbol)
			}
		},
	}

	records := []news.Record{{
		Type:    news.TypeIndividual,
		EndDate: "2024-01-10",
		Ticker:  "DELISTED",
		Text:    "gone",
	}}

	enriched, err := e.Enrich(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := enriched[0]
	if r.WeeklyReturn != nil || r.GrowthAboveMarket != nil {
		t.Error("missing ticker should leave ticker metrics null")
	}
	if r.MarketWeeklyReturn == nil {
		t.Error("benchmark metrics should still be present")
	}
	if len(failed) != 1 || failed[0] != "DELISTED" {
		t.Errorf("expected DELISTED reported as failed, got %v", failed)
	}
}

func TestEnrichNoDates(t *testing.T) {
	e := &Enricher{History: &fakeHistory{}, Benchmark: "^GSPC"}
	records := []news.Record{{Type: news.TypeIndividual, Ticker: "X", EndDate: "garbage", Growth: "1.0", Text: "x"}}

	enriched, err := e.Enrich(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(enriched) != 1 {
		t.Fatalf("expected passthrough record")
	}
	if enriched[0].GrowthLastDay == nil {
		t.Error("growth_last_day should still be parsed")
	}
	if enriched[0].WeeklyReturn != nil {
		t.Error("no dates means no return metrics")
	}
}

func TestSymbols(t *testing.T) {
	records := []news.Record{
		{Type: news.TypeIndividual, Ticker: "NVDA"},
		{Type: news.TypeIndividual, Ticker: "NVDA"},
		{Type: news.TypeIndividual, Ticker: "AAPL"},
		{Type: news.TypeMarketDay, Ticker: news.MultipleTickers},
	}
	got := symbols(records, "^GSPC")
	want := []string{"NVDA", "AAPL", "^GSPC"}
	if len(got) != len(want) {
		t.Fatalf("symbols = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("symbols[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
