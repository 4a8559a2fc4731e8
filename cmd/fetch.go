package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/realmistic/long-term-news-llm-rag/internal/config"
	"github.com/realmistic/long-term-news-llm-rag/internal/feed"
	"github.com/realmistic/long-term-news-llm-rag/internal/news"
	"github.com/realmistic/long-term-news-llm-rag/internal/store"
	"github.com/spf13/cobra"
)

var flagForceRefresh bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the RSS feed and export the raw JSON artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runFetch(cmd.Context(), cfg)
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&flagForceRefresh, "refresh", false, "fetch even if the store is fresh")
}

func runFetch(ctx context.Context, cfg *config.Config) error {
	db, err := store.Open(config.StorePath())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	artifact := cfg.ArtifactPath(news.FeedFile)
	if !flagForceRefresh && !db.NeedsRefresh(cfg.RefreshDuration()) {
		if _, err := os.Stat(artifact); err == nil {
			fmt.Println("Feed is fresh; use --refresh to fetch anyway.")
			return nil
		}
	}

	fmt.Printf("Fetching %s\n", cfg.FeedURL)
	fetchCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	doc, err := feed.NewRSSFetcher().Fetch(fetchCtx, cfg.FeedURL)
	if err != nil {
		return err
	}

	entries := doc.Entries(time.Now())
	if err := db.UpsertEntries(entries); err != nil {
		return fmt.Errorf("storing entries: %w", err)
	}
	if err := db.SetLastFetch(); err != nil {
		return fmt.Errorf("recording fetch time: %w", err)
	}
	if pruned, err := db.Prune(cfg.RetentionDuration()); err != nil {
		fmt.Printf("  [warn] pruning old entries: %v\n", err)
	} else if pruned > 0 {
		fmt.Printf("Pruned %d entries past retention.\n", pruned)
	}

	if err := doc.WriteJSON(artifact); err != nil {
		return fmt.Errorf("writing feed artifact: %w", err)
	}

	fmt.Printf("Fetched %d items; feed data saved to %s\n", len(entries), artifact)
	return nil
}
