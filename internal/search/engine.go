package search

import (
	"strings"

	"github.com/realmistic/long-term-news-llm-rag/internal/news"
)

// Engine retrieves enriched records by keyword.
type Engine interface {
	Search(query string, size int) ([]news.EnrichedRecord, error)
	Close() error
}

// InMemoryEngine is a substring-match fallback, mostly for tests.
type InMemoryEngine struct {
	records []news.EnrichedRecord
}

func NewInMemoryEngine(records []news.EnrichedRecord) *InMemoryEngine {
	return &InMemoryEngine{records: records}
}

func (e *InMemoryEngine) Search(query string, size int) ([]news.EnrichedRecord, error) {
	q := strings.ToLower(query)
	var results []news.EnrichedRecord
	for _, r := range e.records {
		if strings.EqualFold(r.Ticker, q) ||
			strings.Contains(strings.ToLower(r.Text), q) {
			results = append(results, r)
			if len(results) >= size {
				break
			}
		}
	}
	return results, nil
}

func (e *InMemoryEngine) Close() error { return nil }
