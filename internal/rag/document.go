package rag

import (
	"fmt"
	"strings"

	"github.com/realmistic/long-term-news-llm-rag/internal/news"
	"github.com/tmc/langchaingo/schema"
)

// BuildDocuments renders enriched records into retrieval documents. The
// page content carries the metrics inline so the answer model sees them;
// the metadata mirrors what --show-sources prints.
func BuildDocuments(records []news.EnrichedRecord) []schema.Document {
	docs := make([]schema.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, FromRecord(r))
	}
	return docs
}

// FromRecord builds one retrieval document.
func FromRecord(r news.EnrichedRecord) schema.Document {
	var b strings.Builder
	fmt.Fprintf(&b, "Type: %s\n", r.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n", r.StartDate, r.EndDate)
	fmt.Fprintf(&b, "Ticker: %s\n", r.Ticker)
	writeMetric(&b, "Growth (last day)", r.GrowthLastDay)
	writeMetric(&b, "Weekly Return", r.WeeklyReturn)
	writeMetric(&b, "Market Daily Return", r.MarketDailyReturn)
	writeMetric(&b, "Market Weekly Return", r.MarketWeeklyReturn)
	writeMetric(&b, "Growth Above Market", r.GrowthAboveMarket)
	fmt.Fprintf(&b, "Count: %d\n", r.Count)
	fmt.Fprintf(&b, "Content: %s", r.Text)

	meta := map[string]any{
		"type":       r.Type,
		"ticker":     r.Ticker,
		"link":       r.Link,
		"start_date": r.StartDate,
		"end_date":   r.EndDate,
	}
	addMetric(meta, "weekly_return", r.WeeklyReturn)
	addMetric(meta, "market_daily_return", r.MarketDailyReturn)
	addMetric(meta, "market_weekly_return", r.MarketWeeklyReturn)
	addMetric(meta, "growth_above_market", r.GrowthAboveMarket)

	return schema.Document{PageContent: b.String(), Metadata: meta}
}

func writeMetric(b *strings.Builder, label string, v *float64) {
	if v == nil {
		return
	}
	fmt.Fprintf(b, "%s: %.2f%%\n", label, *v*100)
}

func addMetric(meta map[string]any, key string, v *float64) {
	if v != nil {
		meta[key] = *v
	}
}
