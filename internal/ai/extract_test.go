package ai

import (
	"context"
	"testing"

	"github.com/realmistic/long-term-news-llm-rag/internal/news"
)

func TestParseExtraction(t *testing.T) {
	input := `{
		"content": [
			{
				"type": "individual",
				"start_date": "2024-01-08",
				"end_date": "2024-01-15",
				"ticker": "NVDA",
				"count": 12,
				"growth": 3.4,
				"text": "NVDA announced new chips."
			},
			{
				"type": "market_1week",
				"start_date": "2024-01-14",
				"end_date": "2024-01-15",
				"ticker": "multiple_tickers",
				"count": "48",
				"model": "gpt-4o-mini",
				"text": "Markets rallied."
			}
		]
	}`

	records, err := parseExtraction(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Type != news.TypeIndividual || first.Ticker != "NVDA" {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.Count != 12 {
		t.Errorf("count = %d, want 12 (numeric JSON)", first.Count)
	}
	if first.Growth != "3.4" {
		t.Errorf("growth = %q, want \"3.4\" (number coerced to string)", first.Growth)
	}

	second := records[1]
	if second.Count != 48 {
		t.Errorf("count = %d, want 48 (string JSON)", second.Count)
	}
	if second.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", second.Model)
	}
	if second.Ticker != news.MultipleTickers {
		t.Errorf("ticker = %q, want %q", second.Ticker, news.MultipleTickers)
	}
}

func TestParseExtractionFenced(t *testing.T) {
	input := "```json\n{\"content\": [{\"type\": \"individual\", \"ticker\": \"AAPL\", \"end_date\": \"2024-02-01\", \"count\": 3, \"text\": \"x\"}]}\n```"
	records, err := parseExtraction(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Ticker != "AAPL" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestParseExtractionMalformed(t *testing.T) {
	if _, err := parseExtraction("not json at all"); err == nil {
		t.Error("expected error for malformed response")
	}
}

func TestParseExtractionEmpty(t *testing.T) {
	records, err := parseExtraction(`{"content": []}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"```json\n{}\n```", "{}"},
		{"{}", "{}"},
		{"  {} ", "{}"},
		{"```\n{}\n```", "{}"},
	}
	for _, tt := range tests {
		if got := stripFences(tt.input); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

type fakeClient struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeClient) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestExtractRecordsStampsLink(t *testing.T) {
	client := &fakeClient{response: `{"content": [{"type": "individual", "ticker": "TSLA", "start_date": "2024-05-01", "end_date": "2024-05-08", "count": 5, "growth": "1.1", "text": "deliveries up"}]}`}
	ex := NewExtractor(client)

	records, err := ex.ExtractRecords(context.Background(), "<div>html</div>", "https://example.com/digest-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Link != "https://example.com/digest-1" {
		t.Errorf("link = %q", records[0].Link)
	}
	if len(client.prompts) != 1 {
		t.Fatalf("expected 1 LLM call, got %d", len(client.prompts))
	}
}
