package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/realmistic/long-term-news-llm-rag/internal/ai"
	"github.com/realmistic/long-term-news-llm-rag/internal/config"
	"github.com/realmistic/long-term-news-llm-rag/internal/rag"
	"github.com/realmistic/long-term-news-llm-rag/internal/search"
	"github.com/realmistic/long-term-news-llm-rag/internal/tui"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/schema"
)

var (
	flagMode        string
	flagShowSources bool
	flagTopK        int
)

var answerCmd = &cobra.Command{
	Use:   "answer [question]",
	Short: "Answer a question over the enriched news dataset",
	Long: `Retrieve the most relevant news documents and generate an answer.

With a question argument, prints the answer and exits. Without one, opens an
interactive ask session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runAnswer(cmd.Context(), cfg, strings.Join(args, " "))
	},
}

func init() {
	answerCmd.Flags().StringVar(&flagMode, "mode", "vector", "retrieval mode: vector or keyword")
	answerCmd.Flags().BoolVar(&flagShowSources, "show-sources", true, "print source documents")
	answerCmd.Flags().IntVar(&flagTopK, "top-k", 0, "number of documents to retrieve (default from config)")
}

func runAnswer(ctx context.Context, cfg *config.Config, question string) error {
	client, err := ai.New(cfg.AI, cfg.AIKey())
	if err != nil {
		return err
	}

	topK := cfg.TopK()
	if flagTopK > 0 {
		topK = flagTopK
	}

	retriever, cleanup, err := buildRetriever(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	answerer := &rag.Answerer{LLM: client, Retriever: retriever, TopK: topK}

	if question == "" {
		return tui.Run(answerer, flagShowSources)
	}

	resp, err := answerer.Answer(ctx, question)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n\n", rag.Headline(resp.Sources))
	fmt.Println(resp.Answer)

	if flagShowSources {
		printSources(resp.Sources)
	}
	return nil
}

func buildRetriever(ctx context.Context, cfg *config.Config) (rag.Retriever, func(), error) {
	switch flagMode {
	case "vector":
		vs, err := rag.OpenVectorStore(ctx, rag.VectorConfig{
			DSN:            cfg.RAG.PostgresDSN,
			Collection:     cfg.CollectionName(),
			EmbeddingModel: cfg.RAG.EmbeddingModel,
			APIKey:         cfg.EmbeddingKey(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("vector mode unavailable (try --mode keyword): %w", err)
		}
		return vs, vs.Close, nil
	case "keyword":
		engine, err := search.Open(config.IndexPath())
		if err != nil {
			return nil, nil, fmt.Errorf("run `newsrag index` first: %w", err)
		}
		return &rag.KeywordRetriever{Engine: engine}, func() { engine.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown mode %q (valid: vector, keyword)", flagMode)
	}
}

func printSources(sources []schema.Document) {
	fmt.Println("\nSource Documents:")
	for i, doc := range sources {
		fmt.Printf("\nSource %d:\n", i+1)
		printMetaString(doc, "Type", "type")
		printMetaString(doc, "Ticker", "ticker")
		start, _ := doc.Metadata["start_date"].(string)
		end, _ := doc.Metadata["end_date"].(string)
		fmt.Printf("Period: %s to %s\n", start, end)
		printMetaString(doc, "Link", "link")
		printMetaPercent(doc, "Weekly Return", "weekly_return")
		printMetaPercent(doc, "Market Weekly Return", "market_weekly_return")
		printMetaPercent(doc, "Growth Above Market", "growth_above_market")
	}
}

func printMetaString(doc schema.Document, label, key string) {
	if v, ok := doc.Metadata[key].(string); ok && v != "" {
		fmt.Printf("%s: %s\n", label, v)
	}
}

func printMetaPercent(doc schema.Document, label, key string) {
	if v, ok := doc.Metadata[key].(float64); ok {
		fmt.Printf("%s: %.2f%%\n", label, v*100)
	}
}
