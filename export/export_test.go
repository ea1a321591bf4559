package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kalinav4l/site-scraper/models"
)

func sampleSession() *models.ScrapingSession {
	specs := models.SpecList{}
	specs.Set("Diagonala", "80 cm")
	specs.Set("Rezolutie", "HD Ready")

	return &models.ScrapingSession{
		ID:     "abc-123",
		URL:    "https://shop.example/",
		Status: models.StatusCompleted,
		Products: []*models.ScrapedProduct{
			{
				ID:             "shop.example-1",
				Name:           "Televizor LED 80cm",
				Price:          "€19.99",
				Category:       "Electronice",
				Colors:         []string{"alb", "negru"},
				Images:         []string{"https://shop.example/img/tv.jpg"},
				Specifications: specs,
				URL:            "https://shop.example/tv",
			},
			{
				ID:   "shop.example-2",
				Name: `Boxa "Compact", 10W`,
				URL:  "https://shop.example/boxa",
			},
		},
		Pages: []*models.PageRecord{
			{URL: "https://shop.example/", Title: "Acasa"},
		},
		Errors:     []string{"failed to fetch https://shop.example/broken: boom"},
		Statistics: models.Statistics{TotalPages: 1, TotalProducts: 2},
		StartTime:  time.Now(),
	}
}

func TestJSONShape(t *testing.T) {
	data, err := JSON(sampleSession())
	if err != nil {
		t.Fatalf("json export: %v", err)
	}

	var doc struct {
		Session struct {
			ID         string            `json:"id"`
			URL        string            `json:"url"`
			Statistics models.Statistics `json:"statistics"`
		} `json:"session"`
		Products []json.RawMessage `json:"products"`
		Pages    []json.RawMessage `json:"pages"`
		Errors   []string          `json:"errors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid json: %v", err)
	}
	if doc.Session.ID != "abc-123" || doc.Session.Statistics.TotalProducts != 2 {
		t.Fatalf("session header = %+v", doc.Session)
	}
	if len(doc.Products) != 2 || len(doc.Pages) != 1 || len(doc.Errors) != 1 {
		t.Fatalf("got %d products, %d pages, %d errors", len(doc.Products), len(doc.Pages), len(doc.Errors))
	}
	if !bytes.Contains(data, []byte("\n  ")) {
		t.Fatalf("export should be indented")
	}
}

func TestJSONEmptySession(t *testing.T) {
	s := &models.ScrapingSession{ID: "empty", Status: models.StatusCompleted}
	data, err := JSON(s)
	if err != nil {
		t.Fatalf("json export: %v", err)
	}
	for _, key := range []string{`"products": []`, `"pages": []`, `"errors": []`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("empty collections must render as [], missing %s in %s", key, data)
		}
	}
}

func TestCSVShape(t *testing.T) {
	data, err := CSV(sampleSession())
	if err != nil {
		t.Fatalf("csv export: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2 products", len(rows))
	}
	if len(rows[0]) != len(csvHeader) {
		t.Fatalf("header has %d columns, want %d", len(rows[0]), len(csvHeader))
	}

	first := rows[1]
	if first[0] != "Televizor LED 80cm" || first[3] != "€19.99" {
		t.Fatalf("first row = %v", first)
	}
	if first[14] != "alb; negru" {
		t.Fatalf("colors = %q, want joined list", first[14])
	}
	if !strings.Contains(first[22], `"Diagonala":"80 cm"`) {
		t.Fatalf("specifications = %q, want embedded json", first[22])
	}

	// Quoted value survives the round trip intact.
	if rows[2][0] != `Boxa "Compact", 10W` {
		t.Fatalf("second name = %q", rows[2][0])
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if _, err := Render(sampleSession(), Format("xml")); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("abc-123", FormatCSV); got != "scraping-complet-abc-123.csv" {
		t.Fatalf("filename = %q", got)
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports", "nested")

	path, err := WriteFile(dir, sampleSession(), FormatJSON)
	if err != nil {
		t.Fatalf("write file: %v", err)
	}
	if filepath.Base(path) != "scraping-complet-abc-123.json" {
		t.Fatalf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !json.Valid(data) {
		t.Fatalf("written file is not valid json")
	}
}
