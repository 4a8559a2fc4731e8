package cmd

import (
	"context"
	"fmt"

	"github.com/realmistic/long-term-news-llm-rag/internal/config"
	"github.com/realmistic/long-term-news-llm-rag/internal/market"
	"github.com/realmistic/long-term-news-llm-rag/internal/news"
	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Join market-return statistics onto the flattened records",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runEnrich(cmd.Context(), cfg)
	},
}

func runEnrich(ctx context.Context, cfg *config.Config) error {
	inPath := cfg.ArtifactPath(news.FlattenedFile)
	records, err := news.ReadFlattened(inPath)
	if err != nil {
		return fmt.Errorf("run `newsrag flatten` first: %w", err)
	}
	fmt.Printf("Loaded %d records from %s\n", len(records), inPath)

	enricher := &market.Enricher{
		History:   market.NewYahooHistory(),
		Benchmark: cfg.BenchmarkSymbol(),
		OnSymbol: func(symbol string, bars int, err error) {
			if err != nil {
				fmt.Printf("  [warn] %s: %v\n", symbol, err)
				return
			}
			fmt.Printf("  %s: %d trading days\n", symbol, bars)
		},
	}

	enriched, err := enricher.Enrich(ctx, records)
	if err != nil {
		return err
	}

	outPath := cfg.ArtifactPath(news.EnrichedFile)
	if err := news.WriteEnriched(outPath, enriched); err != nil {
		return err
	}

	fmt.Printf("Saved %d enriched records to %s\n", len(enriched), outPath)
	printCoverage(enriched)
	return nil
}

// printCoverage reports how many rows actually got each metric, the quickest
// way to spot a ticker whose history download silently failed.
func printCoverage(records []news.EnrichedRecord) {
	metrics := []struct {
		name string
		get  func(news.EnrichedRecord) *float64
	}{
		{"weekly_return", func(r news.EnrichedRecord) *float64 { return r.WeeklyReturn }},
		{"market_daily_return", func(r news.EnrichedRecord) *float64 { return r.MarketDailyReturn }},
		{"market_weekly_return", func(r news.EnrichedRecord) *float64 { return r.MarketWeeklyReturn }},
		{"growth_above_market", func(r news.EnrichedRecord) *float64 { return r.GrowthAboveMarket }},
	}

	for _, m := range metrics {
		n := 0
		for _, r := range records {
			if m.get(r) != nil {
				n++
			}
		}
		fmt.Printf("  %s: %d/%d non-null\n", m.name, n, len(records))
	}
}
