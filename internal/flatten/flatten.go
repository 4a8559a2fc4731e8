package flatten

import (
	"context"
	"fmt"
	"time"

	"github.com/realmistic/long-term-news-llm-rag/internal/ai"
	"github.com/realmistic/long-term-news-llm-rag/internal/news"
	"github.com/realmistic/long-term-news-llm-rag/internal/store"
)

// Progress is called after each entry is processed.
type Progress func(entry string, records int, took time.Duration, err error)

// Flattener runs the extraction stage: every stored entry's HTML body goes
// through the LLM and comes back as flat records.
type Flattener struct {
	Extractor *ai.Extractor
	OnEntry   Progress
}

// Result summarizes one flatten run.
type Result struct {
	Records []news.Record
	Skipped int
	Took    time.Duration
}

// Run extracts records from all entries. Entries that fail extraction or
// produce invalid records are skipped, never fatal.
func (f *Flattener) Run(ctx context.Context, entries []store.Entry) (Result, error) {
	start := time.Now()
	var res Result

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if e.Content == "" {
			res.Skipped++
			f.report(e.Title, 0, 0, fmt.Errorf("entry has no content"))
			continue
		}

		entryStart := time.Now()
		records, err := f.Extractor.ExtractRecords(ctx, e.Content, e.Link)
		took := time.Since(entryStart)
		if err != nil {
			res.Skipped++
			f.report(e.Title, 0, took, err)
			continue
		}

		kept := 0
		for _, r := range records {
			if err := r.Validate(); err != nil {
				continue
			}
			res.Records = append(res.Records, r)
			kept++
		}
		f.report(e.Title, kept, took, nil)
	}

	res.Took = time.Since(start)
	return res, nil
}

func (f *Flattener) report(entry string, records int, took time.Duration, err error) {
	if f.OnEntry != nil {
		f.OnEntry(entry, records, took, err)
	}
}
