package store

import "time"

// Entry is one raw feed item as fetched, before extraction.
type Entry struct {
	ID          string
	Title       string
	Link        string
	Author      string
	Category    string
	Description string
	Content     string // turbo:content HTML body
	Published   time.Time
	FetchedAt   time.Time
}
