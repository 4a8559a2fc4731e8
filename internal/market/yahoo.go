package market

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// YahooHistory downloads daily bars from Yahoo Finance.
type YahooHistory struct{}

func NewYahooHistory() *YahooHistory {
	return &YahooHistory{}
}

func (y *YahooHistory) Closes(ctx context.Context, symbol string, start, end time.Time) ([]Close, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	var closes []Close
	for iter.Next() {
		bar := iter.Bar()
		closes = append(closes, Close{
			Date:  time.Unix(int64(bar.Timestamp), 0).UTC().Truncate(24 * time.Hour),
			Price: bar.Close,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("downloading %s history: %w", symbol, err)
	}

	sort.Slice(closes, func(i, j int) bool { return closes[i].Date.Before(closes[j].Date) })
	return closes, nil
}
