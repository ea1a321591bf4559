// Package models defines data structures for the crawl engine.
package models

import (
	"encoding/json"
	"time"
)

// SessionStatus is the lifecycle state of a scraping session.
type SessionStatus string

const (
	StatusIdle      SessionStatus = "idle"
	StatusRunning   SessionStatus = "running"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
	StatusError     SessionStatus = "error"
)

// Terminal reports whether the session can no longer change.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusPaused
}

// Statistics aggregates session-wide counters.
type Statistics struct {
	TotalLinks     int `json:"totalLinks"`
	ProcessedLinks int `json:"processedLinks"`
	TotalImages    int `json:"totalImages"`
	TotalProducts  int `json:"totalProducts"`
	TotalPages     int `json:"totalPages"`
}

// ScrapingSession is one crawl run from a seed URL to completion.
// It is owned by the host and mutated only by folding events from the
// crawl isolate.
type ScrapingSession struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Status      SessionStatus     `json:"status"`
	Progress    float64           `json:"progress"`
	TotalURLs   int               `json:"totalUrls"`
	ScrapedURLs int               `json:"scrapedUrls"`
	Products    []*ScrapedProduct `json:"products"`
	Pages       []*PageRecord     `json:"pages"`
	Errors      []string          `json:"errors"`
	Statistics  Statistics        `json:"statistics"`
	StartTime   time.Time         `json:"startTime"`
	EndTime     time.Time         `json:"endTime,omitempty"`
}

// SpecEntry is a single key/value pair of a specification table.
type SpecEntry struct {
	Key   string
	Value string
}

// SpecList keeps specification pairs in extraction order.
// Later Set calls overwrite earlier values for the same key.
type SpecList []SpecEntry

// Set inserts or overwrites a key, preserving first-seen order.
func (s *SpecList) Set(key, value string) {
	for i := range *s {
		if (*s)[i].Key == key {
			(*s)[i].Value = value
			return
		}
	}
	*s = append(*s, SpecEntry{Key: key, Value: value})
}

// Get returns the value for key and whether it exists.
func (s SpecList) Get(key string) (string, bool) {
	for _, e := range s {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// MarshalJSON renders the list as a JSON object in insertion order.
func (s SpecList) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, e := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

// UnmarshalJSON restores the list from a JSON object. Order of keys
// follows Go's map iteration and is not guaranteed.
func (s *SpecList) UnmarshalJSON(data []byte) error {
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	out := make(SpecList, 0, len(m))
	for k, v := range m {
		out = append(out, SpecEntry{Key: k, Value: v})
	}
	*s = out
	return nil
}

// ProductReviews summarises review data found near a product item.
type ProductReviews struct {
	Count         int      `json:"count"`
	AverageRating float64  `json:"averageRating"`
	Comments      []string `json:"comments,omitempty"`
}

// ScrapedProduct is a wide, mostly-optional record extracted from one
// candidate item element. Price fields hold the raw matched substring,
// currency indicator included; they are not normalised numerics.
type ScrapedProduct struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Category         string            `json:"category,omitempty"`
	Subcategory      string            `json:"subcategory,omitempty"`
	Price            string            `json:"price,omitempty"`
	OriginalPrice    string            `json:"originalPrice,omitempty"`
	Discount         string            `json:"discount,omitempty"`
	Description      string            `json:"description,omitempty"`
	ShortDescription string            `json:"shortDescription,omitempty"`
	Specifications   SpecList          `json:"specifications,omitempty"`
	Features         []string          `json:"features,omitempty"`
	Images           []string          `json:"images,omitempty"`
	Thumbnails       []string          `json:"thumbnails,omitempty"`
	Videos           []string          `json:"videos,omitempty"`
	Documents        []string          `json:"documents,omitempty"`
	URL              string            `json:"url"`
	ProductURL       string            `json:"productUrl,omitempty"`
	Availability     string            `json:"availability,omitempty"`
	Stock            string            `json:"stock,omitempty"`
	SKU              string            `json:"sku,omitempty"`
	Brand            string            `json:"brand,omitempty"`
	Model            string            `json:"model,omitempty"`
	Weight           string            `json:"weight,omitempty"`
	Dimensions       string            `json:"dimensions,omitempty"`
	Colors           []string          `json:"colors,omitempty"`
	Sizes            []string          `json:"sizes,omitempty"`
	Materials        []string          `json:"materials,omitempty"`
	Warranty         string            `json:"warranty,omitempty"`
	Shipping         string            `json:"shipping,omitempty"`
	Reviews          *ProductReviews   `json:"reviews,omitempty"`
	RelatedProducts  []string          `json:"relatedProducts,omitempty"`
	Breadcrumbs      []string          `json:"breadcrumbs,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	ScrapedAt        time.Time         `json:"scrapedAt"`
}

// Empty reports whether the record fails the admission rule: a product
// is retained only when at least one of name, price, or description is
// non-empty.
func (p *ScrapedProduct) Empty() bool {
	return p.Name == "" && p.Price == "" && p.Description == ""
}

// TableRecord is a raw table captured from a page.
type TableRecord struct {
	Caption string     `json:"caption,omitempty"`
	Rows    [][]string `json:"rows"`
}

// FormRecord is a raw form captured from a page.
type FormRecord struct {
	Action string   `json:"action,omitempty"`
	Method string   `json:"method,omitempty"`
	Inputs []string `json:"inputs,omitempty"`
}

// PageRecord holds everything extracted from one successfully fetched
// URL. Records are immutable once built.
type PageRecord struct {
	URL      string            `json:"url"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Links    []string          `json:"links"`
	Images   []string          `json:"images"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Headers  []string          `json:"headers,omitempty"`
	Tables   []TableRecord     `json:"tables,omitempty"`
	Forms    []FormRecord      `json:"forms,omitempty"`
	Scripts  []string          `json:"scripts,omitempty"`
	Styles   []string          `json:"styles,omitempty"`
	FetchedAt time.Time        `json:"fetchedAt"`
}
