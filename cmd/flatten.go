package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/realmistic/long-term-news-llm-rag/internal/ai"
	"github.com/realmistic/long-term-news-llm-rag/internal/config"
	"github.com/realmistic/long-term-news-llm-rag/internal/feed"
	"github.com/realmistic/long-term-news-llm-rag/internal/flatten"
	"github.com/realmistic/long-term-news-llm-rag/internal/news"
	"github.com/realmistic/long-term-news-llm-rag/internal/store"
	"github.com/spf13/cobra"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Extract structured records from stored entries with the LLM",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runFlatten(cmd.Context(), cfg)
	},
}

func runFlatten(ctx context.Context, cfg *config.Config) error {
	client, err := ai.New(cfg.AI, cfg.AIKey())
	if err != nil {
		return err
	}

	entries, err := loadEntries(cfg)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no entries to flatten; run `newsrag fetch` first")
	}
	fmt.Printf("Processing %d entries\n", len(entries))

	f := &flatten.Flattener{
		Extractor: ai.NewExtractor(client),
		OnEntry: func(entry string, records int, took time.Duration, err error) {
			if err != nil {
				fmt.Printf("  [warn] %s: %v\n", entry, err)
				return
			}
			fmt.Printf("  %s: %d records in %.2fs\n", entry, records, took.Seconds())
		},
	}

	result, err := f.Run(ctx, entries)
	if err != nil {
		return err
	}
	if len(result.Records) == 0 {
		return fmt.Errorf("extraction produced no records")
	}

	path := cfg.ArtifactPath(news.FlattenedFile)
	if err := news.WriteFlattened(path, result.Records); err != nil {
		return err
	}

	fmt.Printf("Data saved to %s (%d records, %d entries skipped, %.2fs total)\n",
		path, len(result.Records), result.Skipped, result.Took.Seconds())
	return nil
}

// loadEntries prefers the store; a previously exported JSON artifact works
// as a fallback when the store is empty (e.g. copied between machines).
func loadEntries(cfg *config.Config) ([]store.Entry, error) {
	db, err := store.Open(config.StorePath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	entries, err := db.GetEntries(time.Time{})
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return entries, nil
	}

	doc, err := feed.ReadJSON(cfg.ArtifactPath(news.FeedFile))
	if err != nil {
		return nil, nil // no artifact either; caller reports
	}
	return doc.Entries(time.Now()), nil
}
