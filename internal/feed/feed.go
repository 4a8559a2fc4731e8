package feed

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/realmistic/long-term-news-llm-rag/internal/store"
)

// Document mirrors the exported JSON artifact: feed metadata plus the raw
// items, with the turbo:content body promoted to a first-class field.
type Document struct {
	Meta  Meta   `json:"meta"`
	Items []Item `json:"items"`
}

type Meta struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

type Item struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	PubDate     string     `json:"pubDate"`
	Author      *string    `json:"author"`
	Category    *string    `json:"category"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Enclosure   *Enclosure `json:"enclosure"`

	// Published is gofeed's parsed pubDate. Not part of the JSON artifact;
	// documents loaded from disk fall back to parsing PubDate.
	Published time.Time `json:"-"`
}

type Enclosure struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Fetcher downloads and parses the news feed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Document, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
}

func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{parser: gofeed.NewParser()}
}

func (f *RSSFetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	parsed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	return fromGofeed(parsed), nil
}

func fromGofeed(parsed *gofeed.Feed) *Document {
	doc := &Document{
		Meta: Meta{
			Title:       parsed.Title,
			Link:        parsed.Link,
			Description: parsed.Description,
			Language:    parsed.Language,
		},
		Items: make([]Item, 0, len(parsed.Items)),
	}

	for _, it := range parsed.Items {
		item := Item{
			Title:       it.Title,
			Link:        it.Link,
			PubDate:     it.Published,
			Description: it.Description,
			Content:     turboContent(it),
		}
		if it.PublishedParsed != nil {
			item.Published = *it.PublishedParsed
		}
		if it.Author != nil && it.Author.Name != "" {
			name := it.Author.Name
			item.Author = &name
		}
		if len(it.Categories) > 0 {
			cat := it.Categories[0]
			item.Category = &cat
		}
		if len(it.Enclosures) > 0 {
			item.Enclosure = &Enclosure{URL: it.Enclosures[0].URL, Type: it.Enclosures[0].Type}
		}
		doc.Items = append(doc.Items, item)
	}
	return doc
}

// turboContent pulls the Yandex Turbo page body out of the item extensions.
// The feed publishes the full weekly digest HTML there; Description only
// carries a teaser.
func turboContent(it *gofeed.Item) string {
	ns, ok := it.Extensions["turbo"]
	if !ok {
		return it.Content
	}
	exts, ok := ns["content"]
	if !ok || len(exts) == 0 {
		return it.Content
	}
	return exts[0].Value
}

// Entries converts the document items into store entries.
func (d *Document) Entries(now time.Time) []store.Entry {
	entries := make([]store.Entry, 0, len(d.Items))
	for _, it := range d.Items {
		pub := it.Published
		if pub.IsZero() {
			pub = parsePubDate(it.PubDate, now)
		}

		e := store.Entry{
			ID:          entryID(it.Link),
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
			Content:     it.Content,
			Published:   pub,
			FetchedAt:   now,
		}
		if it.Author != nil {
			e.Author = *it.Author
		}
		if it.Category != nil {
			e.Category = *it.Category
		}
		entries = append(entries, e)
	}
	return entries
}

// WriteJSON exports the document as the fetch-stage artifact.
func (d *Document) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding feed document: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a previously exported fetch-stage artifact.
func ReadJSON(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &doc, nil
}

// parsePubDate recovers the publish time from the artifact's raw pubDate
// string. Feeds parsed live carry Item.Published instead.
func parsePubDate(s string, fallback time.Time) time.Time {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}

func entryID(link string) string {
	h := sha256.Sum256([]byte(link))
	return fmt.Sprintf("%x", h[:16])
}
