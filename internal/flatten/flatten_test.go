package flatten

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/realmistic/long-term-news-llm-rag/internal/ai"
	"github.com/realmistic/long-term-news-llm-rag/internal/store"
)

type scriptedClient struct {
	responses map[string]string // keyed by a substring of the prompt
	err       error
}

func (c *scriptedClient) Complete(_ context.Context, prompt string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	for key, resp := range c.responses {
		if key == "" || strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return "", errors.New("no scripted response")
}

func entry(id, content string) store.Entry {
	return store.Entry{
		ID:        id,
		Title:     "digest " + id,
		Link:      "https://example.com/" + id,
		Content:   content,
		Published: time.Now(),
	}
}

const goodResponse = `{"content": [
	{"type": "individual", "start_date": "2024-01-08", "end_date": "2024-01-15",
	 "ticker": "NVDA", "count": 12, "growth": "3.4", "text": "chips"},
	{"type": "market_1week", "start_date": "2024-01-14", "end_date": "2024-01-15",
	 "ticker": "multiple_tickers", "count": 40, "model": "gpt-4o-mini", "text": "rally"}
]}`

func TestRunExtractsAllEntries(t *testing.T) {
	client := &scriptedClient{responses: map[string]string{"digest body": goodResponse}}
	f := &Flattener{Extractor: ai.NewExtractor(client)}

	result, err := f.Run(context.Background(), []store.Entry{
		entry("a", "digest body one"),
		entry("b", "digest body two"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(result.Records))
	}
	if result.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", result.Skipped)
	}
	if result.Records[0].Link != "https://example.com/a" {
		t.Errorf("record link = %q", result.Records[0].Link)
	}
	if result.Records[2].Link != "https://example.com/b" {
		t.Errorf("record link = %q", result.Records[2].Link)
	}
}

func TestRunSkipsEmptyContent(t *testing.T) {
	client := &scriptedClient{responses: map[string]string{"digest body": goodResponse}}

	var reported []string
	f := &Flattener{
		Extractor: ai.NewExtractor(client),
		OnEntry: func(entry string, _ int, _ time.Duration, err error) {
			if err != nil {
				reported = append(reported, entry)
			}
		},
	}

	result, err := f.Run(context.Background(), []store.Entry{
		entry("empty", ""),
		entry("full", "digest body"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if len(result.Records) != 2 {
		t.Errorf("records = %d, want 2", len(result.Records))
	}
	if len(reported) != 1 || reported[0] != "digest empty" {
		t.Errorf("expected empty entry reported, got %v", reported)
	}
}

func TestRunSkipsFailedExtraction(t *testing.T) {
	client := &scriptedClient{responses: map[string]string{"digest body": "this is not json"}}
	f := &Flattener{Extractor: ai.NewExtractor(client)}

	result, err := f.Run(context.Background(), []store.Entry{entry("a", "digest body")})
	if err != nil {
		t.Fatalf("failed extraction must not be fatal: %v", err)
	}
	if result.Skipped != 1 || len(result.Records) != 0 {
		t.Errorf("skipped = %d, records = %d", result.Skipped, len(result.Records))
	}
}

func TestRunDropsInvalidRecords(t *testing.T) {
	// Second record has no end_date and must be dropped.
	resp := `{"content": [
		{"type": "individual", "end_date": "2024-01-15", "ticker": "NVDA", "count": 1, "text": "ok"},
		{"type": "individual", "ticker": "AAPL", "count": 1, "text": "no date"}
	]}`
	client := &scriptedClient{responses: map[string]string{"digest body": resp}}
	f := &Flattener{Extractor: ai.NewExtractor(client)}

	result, err := f.Run(context.Background(), []store.Entry{entry("a", "digest body")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].Ticker != "NVDA" {
		t.Errorf("unexpected records: %+v", result.Records)
	}
}

func TestRunHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &scriptedClient{responses: map[string]string{"": goodResponse}}
	f := &Flattener{Extractor: ai.NewExtractor(client)}

	_, err := f.Run(ctx, []store.Entry{entry("a", "digest body")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
