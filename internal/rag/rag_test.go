package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/realmistic/long-term-news-llm-rag/internal/news"
	"github.com/realmistic/long-term-news-llm-rag/internal/search"
	"github.com/tmc/langchaingo/schema"
)

func ptr(v float64) *float64 { return &v }

func sampleRecord() news.EnrichedRecord {
	return news.EnrichedRecord{
		Record: news.Record{
			Type:      news.TypeIndividual,
			StartDate: "2024-01-08",
			EndDate:   "2024-01-15",
			Ticker:    "NVDA",
			Count:     12,
			Text:      "Nvidia announced record revenue.",
			Link:      "https://example.com/digest-42",
		},
		GrowthLastDay:      ptr(0.021),
		WeeklyReturn:       ptr(0.05),
		MarketDailyReturn:  ptr(0.002),
		MarketWeeklyReturn: ptr(0.01),
		GrowthAboveMarket:  ptr(0.04),
	}
}

func TestFromRecord(t *testing.T) {
	doc := FromRecord(sampleRecord())

	for _, want := range []string{
		"Type: individual",
		"Period: 2024-01-08 to 2024-01-15",
		"Ticker: NVDA",
		"Weekly Return: 5.00%",
		"Growth Above Market: 4.00%",
		"Count: 12",
		"Content: Nvidia announced record revenue.",
	} {
		if !strings.Contains(doc.PageContent, want) {
			t.Errorf("page content missing %q:\n%s", want, doc.PageContent)
		}
	}

	if doc.Metadata["ticker"] != "NVDA" {
		t.Errorf("metadata ticker = %v", doc.Metadata["ticker"])
	}
	if doc.Metadata["weekly_return"] != 0.05 {
		t.Errorf("metadata weekly_return = %v", doc.Metadata["weekly_return"])
	}
}

func TestFromRecordNilMetrics(t *testing.T) {
	r := sampleRecord()
	r.WeeklyReturn = nil
	r.GrowthAboveMarket = nil

	doc := FromRecord(r)
	if strings.Contains(doc.PageContent, "Weekly Return:") {
		t.Error("nil weekly return should be omitted from content")
	}
	if _, ok := doc.Metadata["weekly_return"]; ok {
		t.Error("nil weekly return should be omitted from metadata")
	}
	if _, ok := doc.Metadata["market_weekly_return"]; !ok {
		t.Error("present metrics should remain")
	}
}

func TestHeadlineIndividual(t *testing.T) {
	sources := []schema.Document{
		{Metadata: map[string]any{"type": "individual", "ticker": "NVDA", "start_date": "2024-01-01", "end_date": "2024-01-15"}},
		{Metadata: map[string]any{"type": "individual", "ticker": "NVDA", "start_date": "2024-01-08", "end_date": "2024-01-22"}},
		{Metadata: map[string]any{"type": "individual", "ticker": "AAPL", "start_date": "2024-01-08", "end_date": "2024-01-15"}},
	}

	got := Headline(sources)
	if !strings.Contains(got, "NVDA") {
		t.Errorf("headline should name the dominant ticker: %q", got)
	}
	if !strings.Contains(got, "3 weeks") {
		t.Errorf("headline should span 3 weeks (Jan 1..Jan 22): %q", got)
	}
	if !strings.Contains(got, "2024-01-01..2024-01-22") {
		t.Errorf("headline should show the full window: %q", got)
	}
}

func TestHeadlineMarketOnly(t *testing.T) {
	sources := []schema.Document{
		{Metadata: map[string]any{"type": "market_1week", "ticker": "multiple_tickers", "start_date": "2024-01-14", "end_date": "2024-01-15"}},
	}
	got := Headline(sources)
	if strings.Contains(got, "multiple_tickers") {
		t.Errorf("market-only headline should not name a ticker: %q", got)
	}
	if !strings.HasPrefix(got, "Analysis for the last") {
		t.Errorf("unexpected headline: %q", got)
	}
}

func TestHeadlineEmpty(t *testing.T) {
	if got := Headline(nil); got != "Analysis:" {
		t.Errorf("empty headline = %q", got)
	}
}

type fakeLLM struct {
	response string
	prompts  []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, nil
}

func TestAnswererUsesRetrievedContext(t *testing.T) {
	llm := &fakeLLM{response: "NVDA outperformed the market."}
	retriever := &KeywordRetriever{
		Engine: search.NewInMemoryEngine([]news.EnrichedRecord{sampleRecord()}),
	}
	a := &Answerer{LLM: llm, Retriever: retriever, TopK: 5}

	resp, err := a.Answer(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "NVDA outperformed the market." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(resp.Sources))
	}
	if len(llm.prompts) != 1 {
		t.Fatalf("expected 1 LLM call, got %d", len(llm.prompts))
	}
	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "Question: NVDA") {
		t.Error("prompt missing the question")
	}
	if !strings.Contains(prompt, "Nvidia announced record revenue.") {
		t.Error("prompt missing retrieved context")
	}
}

func TestAnswererNoSources(t *testing.T) {
	a := &Answerer{
		LLM:       &fakeLLM{response: "x"},
		Retriever: &KeywordRetriever{Engine: search.NewInMemoryEngine(nil)},
		TopK:      5,
	}
	if _, err := a.Answer(context.Background(), "anything"); err == nil {
		t.Error("expected error when retrieval finds nothing")
	}
}
