package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/realmistic/long-term-news-llm-rag/internal/news"
)

const extractPrompt = `Expert Web Scraper.

HTML Content: %s

Perform different types of text extraction:

1) Extract individual news text AS IT IS from given HTML.

HTML Content format:
INDIVIDUAL NEWS SUMMARY
Start date for the articles: <start_date>; End date for the articles: <end_date>
NEWS SUMMARY for (<ticker>, <count>), which changed on <growth>%% last trading day:
<text>

You need to extract all fields in <> :
- Date ranges
- mentioned ticker
- news count
- growth percentage
- news for the ticker

Format:
{
  "content": [
    {
      "type": "individual",
      "start_date": <start date for articles>,
      "end_date": <end date for articles>,
      "ticker": <ticker symbol from news>,
      "count": <articles count from news>,
      "growth": <growth %%>,
      "text": <news for the ticker from html>
    },
    // repeat for all news
  ]
}

2) Extract market news 1 day or 1 week text AS IT IS from given HTML:
HTML Content format:
[<model_name> <period> summary] MARKET NEWS SUMMARY ('multiple_tickers', <news_count> ) -- i.e. <news_count> news summary for the last 24 hours before <end_date> UTC time:

Extract text AS IT IS from given HTML:
- <model_name>
- <period>
- <news_count>
- <news_summary>

Output JSON format:
{
  "content": [
    {
      "type": "market_"+<period>,
      "end_date": <end_date>,
      "start_date": <24 hours before end_date>,
      "ticker": "multiple_tickers",
      "count": <news_count>,
      "model": <model_name>,
      "text": <news_summary>
    }
  ]
}

Constraints:
Return JSON only.
`

// Extractor turns a digest entry's HTML body into flat news records.
type Extractor struct {
	client Client
}

func NewExtractor(client Client) *Extractor {
	return &Extractor{client: client}
}

// ExtractRecords asks the LLM to pull structured fields out of the HTML and
// stamps each record with the entry link.
func (e *Extractor) ExtractRecords(ctx context.Context, html, link string) ([]news.Record, error) {
	text, err := e.client.Complete(ctx, fmt.Sprintf(extractPrompt, html))
	if err != nil {
		return nil, err
	}

	records, err := parseExtraction(text)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Link = link
	}
	return records, nil
}

type extractionEnvelope struct {
	Content []extractedItem `json:"content"`
}

// extractedItem tolerates the model returning numbers where strings are
// expected and vice versa.
type extractedItem struct {
	Type      string     `json:"type"`
	StartDate flexString `json:"start_date"`
	EndDate   flexString `json:"end_date"`
	Ticker    string     `json:"ticker"`
	Count     flexInt    `json:"count"`
	Growth    flexString `json:"growth"`
	Model     string     `json:"model"`
	Text      string     `json:"text"`
}

func parseExtraction(text string) ([]news.Record, error) {
	cleaned := stripFences(text)

	var env extractionEnvelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return nil, fmt.Errorf("parsing extraction response: %w", err)
	}

	records := make([]news.Record, 0, len(env.Content))
	for _, item := range env.Content {
		records = append(records, news.Record{
			Type:      item.Type,
			StartDate: string(item.StartDate),
			EndDate:   string(item.EndDate),
			Ticker:    item.Ticker,
			Count:     int64(item.Count),
			Growth:    string(item.Growth),
			Model:     item.Model,
			Text:      item.Text,
		})
	}
	return records, nil
}

// stripFences removes markdown code fences the model sometimes wraps
// around its JSON output.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt decodes a JSON number or numeric string into an int64.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*f = 0
		return nil
	}
	n := json.Number(s)
	v, err := n.Int64()
	if err != nil {
		// Accept floats like 12.0
		fv, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("parsing count %q: %w", s, err)
		}
		v = int64(fv)
	}
	*f = flexInt(v)
	return nil
}
