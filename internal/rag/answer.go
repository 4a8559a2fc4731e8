package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/realmistic/long-term-news-llm-rag/internal/ai"
	"github.com/realmistic/long-term-news-llm-rag/internal/news"
	"github.com/realmistic/long-term-news-llm-rag/internal/search"
	"github.com/tmc/langchaingo/schema"
)

// Retriever finds the documents most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]schema.Document, error)
}

// KeywordRetriever adapts the bleve engine to the retriever interface.
type KeywordRetriever struct {
	Engine search.Engine
}

func (r *KeywordRetriever) Retrieve(ctx context.Context, query string, k int) ([]schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := r.Engine.Search(query, k)
	if err != nil {
		return nil, err
	}
	return BuildDocuments(records), nil
}

const answerPrompt = `You are a financial news analyst assistant. Your task is to provide accurate,
well-structured responses based on the provided news articles context. Present the
information in chronological order, from earliest to most recent events.

Format each section with a concise header showing period and performance:
[YYYY-MM-DD..YYYY-MM-DD, +/-X.X%% vs market]

For individual stocks:
1. Start each section with the period and growth header format shown above
2. Follow with key developments and context during that period
3. Include weekly returns comparison (stock vs market) if significant
4. Explain what drove the performance

For market-wide analysis:
1. Use the same chronological structure with period headers
2. Highlight notable sector or stock-specific movements
3. Include market-wide return metrics when relevant

Keep each section concise and focused. Do not exceed the line length of 80
characters to ensure readability.

Structure your response to tell a compelling story, even without showing sources.
Focus on chronological progression while maintaining accuracy and including all
key metrics.

USE ONLY FACTS YOU SEE IN THE NEWS, DO NOT HALLUCINATE. If details are missing,
omit them or state that the information is not available.

Question: %s
Context: %s

Answer: Let's analyze this based on the provided information.`

// Answerer runs retrieval-augmented question answering.
type Answerer struct {
	LLM       ai.Client
	Retriever Retriever
	TopK      int
}

// Response is the generated answer plus the documents it was grounded on.
type Response struct {
	Answer  string
	Sources []schema.Document
}

func (a *Answerer) Answer(ctx context.Context, question string) (*Response, error) {
	sources, err := a.Retriever.Retrieve(ctx, question, a.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no relevant documents found")
	}

	var contextText strings.Builder
	for _, doc := range sources {
		contextText.WriteString(doc.PageContent)
		contextText.WriteString("\n\n")
	}

	answer, err := a.LLM.Complete(ctx, fmt.Sprintf(answerPrompt, question, contextText.String()))
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &Response{Answer: strings.TrimSpace(answer), Sources: sources}, nil
}

// Headline summarizes the retrieved window: the dominant ticker (when the
// sources are individual-stock records) and how many weeks they span.
func Headline(sources []schema.Document) string {
	minDate, maxDate := "", ""
	tickerCounts := map[string]int{}

	for _, doc := range sources {
		start, _ := doc.Metadata["start_date"].(string)
		end, _ := doc.Metadata["end_date"].(string)
		if start != "" && (minDate == "" || start < minDate) {
			minDate = start
		}
		if end != "" && (maxDate == "" || end > maxDate) {
			maxDate = end
		}
		if t, _ := doc.Metadata["type"].(string); t == news.TypeIndividual {
			if ticker, _ := doc.Metadata["ticker"].(string); ticker != "" {
				tickerCounts[ticker]++
			}
		}
	}

	if minDate == "" || maxDate == "" {
		return "Analysis:"
	}

	weeks := weeksBetween(minDate, maxDate)
	ticker := dominantTicker(tickerCounts)
	if ticker != "" {
		return fmt.Sprintf("Long term news for %s in the last %d weeks (%s..%s):", ticker, weeks, minDate, maxDate)
	}
	return fmt.Sprintf("Analysis for the last %d weeks (%s..%s):", weeks, minDate, maxDate)
}

func weeksBetween(minDate, maxDate string) int {
	start, err1 := news.ParseDate(minDate)
	end, err2 := news.ParseDate(maxDate)
	if err1 != nil || err2 != nil {
		return 0
	}
	days := end.Sub(start).Hours() / 24
	weeks := int(days/7 + 0.5)
	if weeks < 1 {
		weeks = 1
	}
	return weeks
}

func dominantTicker(counts map[string]int) string {
	best, bestCount := "", 0
	for ticker, n := range counts {
		if n > bestCount || (n == bestCount && ticker < best) {
			best, bestCount = ticker, n
		}
	}
	return best
}
