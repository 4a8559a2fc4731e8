package cmd

import (
	"context"
	"fmt"

	"github.com/realmistic/long-term-news-llm-rag/internal/config"
	"github.com/realmistic/long-term-news-llm-rag/internal/news"
	"github.com/realmistic/long-term-news-llm-rag/internal/rag"
	"github.com/realmistic/long-term-news-llm-rag/internal/search"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the retrieval layer from the enriched records",
	Long: `Build a bleve keyword index from the enriched parquet file, and, when a
Postgres DSN is configured, embed the documents into a pgvector collection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runIndex(cmd.Context(), cfg)
	},
}

func runIndex(ctx context.Context, cfg *config.Config) error {
	records, err := news.ReadEnriched(cfg.ArtifactPath(news.EnrichedFile))
	if err != nil {
		return fmt.Errorf("run `newsrag enrich` first: %w", err)
	}

	engine, err := search.Build(config.IndexPath(), records)
	if err != nil {
		return fmt.Errorf("building keyword index: %w", err)
	}
	engine.Close()
	fmt.Printf("Keyword index: %d records at %s\n", len(records), config.IndexPath())

	if cfg.RAG.PostgresDSN == "" {
		fmt.Println("No postgres_dsn configured; skipping vector index (keyword mode still works).")
		return nil
	}

	vs, err := rag.OpenVectorStore(ctx, rag.VectorConfig{
		DSN:            cfg.RAG.PostgresDSN,
		Collection:     cfg.CollectionName(),
		EmbeddingModel: cfg.RAG.EmbeddingModel,
		APIKey:         cfg.EmbeddingKey(),
		Rebuild:        true,
	})
	if err != nil {
		return err
	}
	defer vs.Close()

	chunks, err := vs.Index(ctx, rag.BuildDocuments(records), cfg.ChunkSize(), cfg.ChunkOverlap())
	if err != nil {
		return err
	}
	fmt.Printf("Vector index: %d chunks in collection %q\n", chunks, cfg.CollectionName())
	return nil
}
