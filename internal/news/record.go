package news

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record types produced by the extraction stage.
const (
	TypeIndividual  = "individual"
	TypeMarketDay   = "market_1day"
	TypeMarketWeek  = "market_1week"
	MultipleTickers = "multiple_tickers"
)

// Record is one flattened news item extracted from a feed entry.
// Individual records carry a ticker and its last-day growth; market records
// cover multiple tickers and name the model that wrote the summary.
type Record struct {
	Type      string `json:"type" parquet:"type"`
	StartDate string `json:"start_date" parquet:"start_date"`
	EndDate   string `json:"end_date" parquet:"end_date"`
	Ticker    string `json:"ticker" parquet:"ticker"`
	Count     int64  `json:"count" parquet:"count"`
	Growth    string `json:"growth,omitempty" parquet:"growth,optional"`
	Model     string `json:"model,omitempty" parquet:"model,optional"`
	Text      string `json:"text" parquet:"text"`
	Link      string `json:"link" parquet:"link"`
}

// EnrichedRecord is a Record plus market-return statistics. The return
// fields are nullable: history may be missing for a ticker or too short
// for a weekly window.
type EnrichedRecord struct {
	Record
	GrowthLastDay      *float64 `json:"growth_last_day,omitempty" parquet:"growth_last_day,optional"`
	WeeklyReturn       *float64 `json:"weekly_return,omitempty" parquet:"weekly_return,optional"`
	MarketDailyReturn  *float64 `json:"market_daily_return,omitempty" parquet:"market_daily_return,optional"`
	MarketWeeklyReturn *float64 `json:"market_weekly_return,omitempty" parquet:"market_weekly_return,optional"`
	GrowthAboveMarket  *float64 `json:"growth_above_market,omitempty" parquet:"growth_above_market,optional"`
}

// IsIndividual reports whether the record is about a single ticker.
func (r Record) IsIndividual() bool {
	return r.Type == TypeIndividual
}

// End parses the record's end date. Dates arrive from the extractor as
// YYYY-MM-DD strings but occasionally come back in RFC3339 form.
func (r Record) End() (time.Time, error) {
	return ParseDate(r.EndDate)
}

// ParseDate accepts the date shapes the extractor is known to emit.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// GrowthFraction converts the extracted growth percentage ("3.1", "-0.8%")
// into a fraction. Returns nil when the field is empty or unparseable.
func (r Record) GrowthFraction() *float64 {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(r.Growth), "%"))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v /= 100
	return &v
}

// Validate checks field presence for the flattened-file contract.
func (r Record) Validate() error {
	if r.Type == "" {
		return fmt.Errorf("record missing type")
	}
	if r.Ticker == "" {
		return fmt.Errorf("record missing ticker")
	}
	if r.EndDate == "" {
		return fmt.Errorf("record %s/%s missing end_date", r.Type, r.Ticker)
	}
	if _, err := r.End(); err != nil {
		return fmt.Errorf("record %s/%s: %w", r.Type, r.Ticker, err)
	}
	if r.Text == "" {
		return fmt.Errorf("record %s/%s missing text", r.Type, r.Ticker)
	}
	return nil
}
