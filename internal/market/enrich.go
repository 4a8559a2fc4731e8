package market

import (
	"context"
	"time"

	"github.com/realmistic/long-term-news-llm-rag/internal/news"
)

const (
	downloadRetries = 3

	// Extra days of history before the first end date so the weekly
	// window has enough trading days.
	windowPadding = 10 * 24 * time.Hour
)

var downloadDelay = 5 * time.Second

// Progress is called once per downloaded symbol.
type Progress func(symbol string, bars int, err error)

// Enricher joins market-return statistics onto extracted records.
type Enricher struct {
	History   History
	Benchmark string
	OnSymbol  Progress
}

// Enrich downloads history for every individual ticker plus the benchmark
// and computes per-record return metrics. Tickers whose download fails are
// reported and left with null stats.
func (e *Enricher) Enrich(ctx context.Context, records []news.Record) ([]news.EnrichedRecord, error) {
	start, end, ok := dateWindow(records)
	if !ok {
		return plain(records), nil
	}

	history := map[string][]Close{}
	for _, symbol := range symbols(records, e.Benchmark) {
		closes, err := e.download(ctx, symbol, start, end)
		if e.OnSymbol != nil {
			e.OnSymbol(symbol, len(closes), err)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		history[symbol] = closes
	}

	enriched := make([]news.EnrichedRecord, 0, len(records))
	for _, r := range records {
		er := news.EnrichedRecord{Record: r, GrowthLastDay: r.GrowthFraction()}

		date, err := r.End()
		if err == nil {
			market := ReturnsOn(history[e.Benchmark], date)
			er.MarketDailyReturn = market.Daily
			er.MarketWeeklyReturn = market.Weekly

			if r.IsIndividual() {
				ticker := ReturnsOn(history[r.Ticker], date)
				er.WeeklyReturn = ticker.Weekly
				if ticker.Weekly != nil && market.Weekly != nil {
					diff := *ticker.Weekly - *market.Weekly
					er.GrowthAboveMarket = &diff
				}
			} else {
				// Market rows: the record is the market, so weekly
				// return mirrors the benchmark and there is no
				// growth above market.
				er.WeeklyReturn = market.Weekly
			}
		}
		enriched = append(enriched, er)
	}
	return enriched, nil
}

func (e *Enricher) download(ctx context.Context, symbol string, start, end time.Time) ([]Close, error) {
	var lastErr error
	for attempt := 0; attempt < downloadRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(downloadDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		closes, err := e.History.Closes(ctx, symbol, start, end)
		if err == nil {
			return closes, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// dateWindow returns [min(end_date) - padding, max(end_date) + 1d].
func dateWindow(records []news.Record) (time.Time, time.Time, bool) {
	var min, max time.Time
	for _, r := range records {
		d, err := r.End()
		if err != nil {
			continue
		}
		if min.IsZero() || d.Before(min) {
			min = d
		}
		if max.IsZero() || d.After(max) {
			max = d
		}
	}
	if min.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return min.Add(-windowPadding), max.Add(24 * time.Hour), true
}

func symbols(records []news.Record, benchmark string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range records {
		if !r.IsIndividual() || seen[r.Ticker] {
			continue
		}
		seen[r.Ticker] = true
		out = append(out, r.Ticker)
	}
	if !seen[benchmark] {
		out = append(out, benchmark)
	}
	return out
}

func plain(records []news.Record) []news.EnrichedRecord {
	out := make([]news.EnrichedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, news.EnrichedRecord{Record: r, GrowthLastDay: r.GrowthFraction()})
	}
	return out
}
