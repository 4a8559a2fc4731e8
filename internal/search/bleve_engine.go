package search

import (
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/realmistic/long-term-news-llm-rag/internal/news"
)

// indexDoc is the shape stored in the bleve index. Return metrics are kept
// as stored fields so hits can be turned back into records.
type indexDoc struct {
	Type               string   `json:"type"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	Ticker             string   `json:"ticker"`
	Count              float64  `json:"count"`
	Text               string   `json:"text"`
	Link               string   `json:"link"`
	GrowthLastDay      *float64 `json:"growth_last_day"`
	WeeklyReturn       *float64 `json:"weekly_return"`
	MarketDailyReturn  *float64 `json:"market_daily_return"`
	MarketWeeklyReturn *float64 `json:"market_weekly_return"`
	GrowthAboveMarket  *float64 `json:"growth_above_market"`
}

type BleveEngine struct {
	index bleve.Index
}

// Build replaces any index at path with a fresh one over the given records.
func Build(path string, records []news.EnrichedRecord) (*BleveEngine, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("clearing old index: %w", err)
	}

	index, err := bleve.New(path, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	batch := index.NewBatch()
	for i, r := range records {
		id := fmt.Sprintf("%s-%s-%d", r.Ticker, r.EndDate, i)
		if err := batch.Index(id, toDoc(r)); err != nil {
			index.Close()
			return nil, fmt.Errorf("adding %s to batch: %w", id, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, fmt.Errorf("indexing batch: %w", err)
	}

	return &BleveEngine{index: index}, nil
}

// Open opens an index previously written by Build.
func Open(path string) (*BleveEngine, error) {
	index, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	return &BleveEngine{index: index}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Store = true
	textFieldMapping.Index = true
	for _, field := range []string{"ticker", "type", "text", "start_date", "end_date", "link"} {
		docMapping.AddFieldMappingsAt(field, textFieldMapping)
	}

	numericFieldMapping := bleve.NewNumericFieldMapping()
	numericFieldMapping.Store = true
	numericFieldMapping.Index = true
	for _, field := range []string{"count", "growth_last_day", "weekly_return", "market_daily_return", "market_weekly_return", "growth_above_market"} {
		docMapping.AddFieldMappingsAt(field, numericFieldMapping)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Search ranks ticker matches above free-text matches: exact ticker terms
// get the highest boost, then ticker prefixes, then text match queries.
func (e *BleveEngine) Search(query string, size int) ([]news.EnrichedRecord, error) {
	tickerQuery := bleve.NewTermQuery(strings.ToLower(query))
	tickerQuery.SetField("ticker")
	tickerQuery.SetBoost(10.0)

	prefixQuery := bleve.NewPrefixQuery(strings.ToLower(query))
	prefixQuery.SetField("ticker")
	prefixQuery.SetBoost(5.0)

	textQuery := bleve.NewMatchQuery(query)
	textQuery.SetField("text")
	textQuery.SetBoost(2.0)

	anyQuery := bleve.NewMatchQuery(query)

	searchQuery := bleve.NewDisjunctionQuery(tickerQuery, prefixQuery, textQuery, anyQuery)

	req := bleve.NewSearchRequest(searchQuery)
	req.Fields = []string{"*"}
	req.Size = size

	results, err := e.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	records := make([]news.EnrichedRecord, 0, len(results.Hits))
	for _, hit := range results.Hits {
		records = append(records, fromFields(hit.Fields))
	}
	return records, nil
}

func (e *BleveEngine) Close() error {
	return e.index.Close()
}

func toDoc(r news.EnrichedRecord) indexDoc {
	return indexDoc{
		Type:               r.Type,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		Ticker:             r.Ticker,
		Count:              float64(r.Count),
		Text:               r.Text,
		Link:               r.Link,
		GrowthLastDay:      r.GrowthLastDay,
		WeeklyReturn:       r.WeeklyReturn,
		MarketDailyReturn:  r.MarketDailyReturn,
		MarketWeeklyReturn: r.MarketWeeklyReturn,
		GrowthAboveMarket:  r.GrowthAboveMarket,
	}
}

func fromFields(fields map[string]interface{}) news.EnrichedRecord {
	getString := func(key string) string {
		if v, ok := fields[key].(string); ok {
			return v
		}
		return ""
	}
	getFloat := func(key string) *float64 {
		if v, ok := fields[key].(float64); ok {
			return &v
		}
		return nil
	}

	r := news.EnrichedRecord{
		Record: news.Record{
			Type:      getString("type"),
			StartDate: getString("start_date"),
			EndDate:   getString("end_date"),
			Ticker:    getString("ticker"),
			Text:      getString("text"),
			Link:      getString("link"),
		},
		GrowthLastDay:      getFloat("growth_last_day"),
		WeeklyReturn:       getFloat("weekly_return"),
		MarketDailyReturn:  getFloat("market_daily_return"),
		MarketWeeklyReturn: getFloat("market_weekly_return"),
		GrowthAboveMarket:  getFloat("growth_above_market"),
	}
	if count, ok := fields["count"].(float64); ok {
		r.Count = int64(count)
	}
	return r
}
