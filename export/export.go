// Package export renders finished sessions as downloadable documents.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kalinav4l/site-scraper/models"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// sessionSummary is the session header of a JSON export. Result slices
// live at the top level, not inside the summary.
type sessionSummary struct {
	ID         string            `json:"id"`
	URL        string            `json:"url"`
	Status     string            `json:"status"`
	StartTime  time.Time         `json:"startTime"`
	EndTime    time.Time         `json:"endTime,omitempty"`
	Statistics models.Statistics `json:"statistics"`
}

type document struct {
	Session  sessionSummary           `json:"session"`
	Products []*models.ScrapedProduct `json:"products"`
	Pages    []*models.PageRecord     `json:"pages"`
	Errors   []string                 `json:"errors"`
}

// JSON renders the full session, products and pages included, as an
// indented JSON document.
func JSON(s *models.ScrapingSession) ([]byte, error) {
	doc := document{
		Session: sessionSummary{
			ID:         s.ID,
			URL:        s.URL,
			Status:     string(s.Status),
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
			Statistics: s.Statistics,
		},
		Products: s.Products,
		Pages:    s.Pages,
		Errors:   s.Errors,
	}
	if doc.Products == nil {
		doc.Products = []*models.ScrapedProduct{}
	}
	if doc.Pages == nil {
		doc.Pages = []*models.PageRecord{}
	}
	if doc.Errors == nil {
		doc.Errors = []string{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session export: %w", err)
	}
	return data, nil
}

// csvHeader fixes the flat product schema. Multi-value fields are
// joined with "; ", specifications are embedded as a JSON object.
var csvHeader = []string{
	"name", "category", "subcategory", "price", "originalPrice", "discount",
	"description", "availability", "brand", "model", "sku", "stock",
	"weight", "dimensions", "colors", "sizes", "materials", "warranty",
	"shipping", "url", "productUrl", "images", "specifications",
}

// CSV renders the session's products as a spreadsheet with one fixed
// header row. Pages and errors are not part of the CSV form.
func CSV(s *models.ScrapingSession) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range s.Products {
		specs := ""
		if len(p.Specifications) > 0 {
			encoded, err := json.Marshal(p.Specifications)
			if err != nil {
				return nil, fmt.Errorf("encode specifications for %s: %w", p.ID, err)
			}
			specs = string(encoded)
		}

		record := []string{
			p.Name,
			p.Category,
			p.Subcategory,
			p.Price,
			p.OriginalPrice,
			p.Discount,
			p.Description,
			p.Availability,
			p.Brand,
			p.Model,
			p.SKU,
			p.Stock,
			p.Weight,
			p.Dimensions,
			joinList(p.Colors),
			joinList(p.Sizes),
			joinList(p.Materials),
			p.Warranty,
			p.Shipping,
			p.URL,
			p.ProductURL,
			joinList(p.Images),
			specs,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv export: %w", err)
	}
	return buf.Bytes(), nil
}

// Render dispatches on format.
func Render(s *models.ScrapingSession, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return JSON(s)
	case FormatCSV:
		return CSV(s)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// Filename builds the canonical download name for a session export.
func Filename(sessionID string, format Format) string {
	return fmt.Sprintf("scraping-complet-%s.%s", sessionID, format)
}

func joinList(values []string) string {
	return strings.Join(values, "; ")
}
