package rag

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/tmc/langchaingo/vectorstores/pgvector"
)

// VectorStore wraps a pgvector collection of embedded document chunks.
type VectorStore struct {
	pool  *pgxpool.Pool
	store pgvector.Store
}

// VectorConfig holds everything needed to reach the collection.
type VectorConfig struct {
	DSN            string
	Collection     string
	EmbeddingModel string
	APIKey         string
	ChunkSize      int
	ChunkOverlap   int

	// Rebuild drops the collection before adding documents.
	Rebuild bool
}

// OpenVectorStore connects to Postgres and binds the named collection with
// an OpenAI embedder.
func OpenVectorStore(ctx context.Context, cfg VectorConfig) (*VectorStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres_dsn not configured")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key not configured")
	}

	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	opts := []pgvector.Option{
		pgvector.WithConn(pool),
		pgvector.WithEmbedder(embedder),
		pgvector.WithCollectionName(cfg.Collection),
	}
	if cfg.Rebuild {
		opts = append(opts, pgvector.WithPreDeleteCollection(true))
	}

	store, err := pgvector.New(ctx, opts...)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("opening vector collection %q: %w", cfg.Collection, err)
	}

	return &VectorStore{pool: pool, store: store}, nil
}

// Index splits the documents into chunks and embeds them into the collection.
// Returns the number of chunks stored.
func (v *VectorStore) Index(ctx context.Context, docs []schema.Document, chunkSize, chunkOverlap int) (int, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
	chunks, err := textsplitter.SplitDocuments(splitter, docs)
	if err != nil {
		return 0, fmt.Errorf("splitting documents: %w", err)
	}

	if _, err := v.store.AddDocuments(ctx, chunks); err != nil {
		return 0, fmt.Errorf("embedding documents: %w", err)
	}
	return len(chunks), nil
}

// Retrieve returns the k most similar chunks.
func (v *VectorStore) Retrieve(ctx context.Context, query string, k int) ([]schema.Document, error) {
	docs, err := v.store.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return docs, nil
}

func (v *VectorStore) Close() {
	if v.pool != nil {
		v.pool.Close()
	}
}
