package news

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// Artifact file names, relative to the data directory.
const (
	FeedFile      = "input_news_feed.json"
	FlattenedFile = "news_feed_flattened.parquet"
	EnrichedFile  = "news_feed_with_market_stats.parquet"
)

// WriteFlattened persists extracted records as a brotli-compressed parquet file.
func WriteFlattened(path string, records []Record) error {
	return writeParquet(path, records)
}

// ReadFlattened loads the flattened-stage artifact.
func ReadFlattened(path string) ([]Record, error) {
	rows, err := parquet.ReadFile[Record](path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// WriteEnriched persists market-stat-enriched records.
func WriteEnriched(path string, records []EnrichedRecord) error {
	return writeParquet(path, records)
}

// ReadEnriched loads the enriched-stage artifact.
func ReadEnriched(path string) ([]EnrichedRecord, error) {
	rows, err := parquet.ReadFile[EnrichedRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

func writeParquet[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := parquet.NewGenericWriter[T](f, parquet.Compression(&parquet.Brotli))
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("closing writer for %s: %w", path, err)
	}
	return f.Close()
}
