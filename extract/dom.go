// Package extract turns parsed documents into page records and
// structured product records. Extraction is best-effort: malformed or
// partial markup degrades to empty fields, never to an error.
package extract

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kalinav4l/site-scraper/config"
	"github.com/kalinav4l/site-scraper/models"
	"github.com/kalinav4l/site-scraper/scope"
)

// lazyImageAttrs are checked in order when img[src] is absent or a
// placeholder. Many storefronts defer the real source to one of these.
var lazyImageAttrs = []string{"data-src", "data-lazy", "data-lazy-src", "data-original", "data-srcset"}

// BuildPageRecord extracts everything the toolkit knows about one
// fetched document. Fields gated off by settings stay empty.
func BuildPageRecord(doc *goquery.Document, pageURL *url.URL, settings *config.CrawlSettings) *models.PageRecord {
	record := &models.PageRecord{
		URL:       pageURL.String(),
		Title:     Title(doc),
		Content:   TextContent(doc),
		Links:     Links(doc, pageURL),
		Headers:   Headers(doc),
		Tables:    Tables(doc),
		Forms:     Forms(doc, pageURL),
		Scripts:   Scripts(doc, pageURL),
		Styles:    Styles(doc, pageURL),
		FetchedAt: time.Now(),
	}
	if settings == nil || settings.ExtractImages {
		record.Images = Images(doc, pageURL)
	}
	if settings == nil || settings.ExtractMetadata {
		record.Metadata = Metadata(doc, settings == nil || settings.ExtractStructuredData)
	}
	return record
}

// Title returns the document title, empty when missing.
func Title(doc *goquery.Document) string {
	return cleanText(doc.Find("title").First().Text())
}

// TextContent returns the flattened visible text of the document.
func TextContent(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	if body.Length() == 0 {
		return cleanText(doc.Text())
	}
	body.Find("script, style, noscript").Remove()
	return cleanText(body.Text())
}

// Links returns deduplicated absolute URLs from every href-bearing
// anchor. Out-of-scope links are included: the scope filter applies at
// enqueue time, not here.
func Links(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	links := []string{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved, ok := scope.Resolve(base, href)
		if !ok {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})
	return links
}

// Images returns deduplicated absolute image URLs, consulting common
// lazy-load attributes and srcset when src is absent.
func Images(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	images := []string{}

	add := func(raw string) {
		resolved, ok := scope.Resolve(base, raw)
		if !ok {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		images = append(images, resolved)
	}

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if src := imageSource(sel); src != "" {
			add(src)
		}
	})
	doc.Find("source[srcset]").Each(func(_ int, sel *goquery.Selection) {
		if srcset, ok := sel.Attr("srcset"); ok {
			if first := firstSrcsetURL(srcset); first != "" {
				add(first)
			}
		}
	})
	return images
}

// imageSource picks the best available source attribute of one img.
func imageSource(sel *goquery.Selection) string {
	if src, ok := sel.Attr("src"); ok {
		trimmed := strings.TrimSpace(src)
		if trimmed != "" && !strings.HasPrefix(trimmed, "data:") {
			return trimmed
		}
	}
	for _, attr := range lazyImageAttrs {
		if value, ok := sel.Attr(attr); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				if attr == "data-srcset" {
					return firstSrcsetURL(trimmed)
				}
				return trimmed
			}
		}
	}
	if srcset, ok := sel.Attr("srcset"); ok {
		return firstSrcsetURL(srcset)
	}
	return ""
}

func firstSrcsetURL(srcset string) string {
	first := strings.Split(srcset, ",")[0]
	fields := strings.Fields(strings.TrimSpace(first))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Metadata collects key/value pairs from meta tags, and from JSON-LD
// and microdata blocks when structured is true.
func Metadata(doc *goquery.Document, structured bool) map[string]string {
	meta := make(map[string]string)

	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		content, ok := sel.Attr("content")
		if !ok {
			return
		}
		content = cleanText(content)
		if content == "" {
			return
		}
		if name, ok := sel.Attr("name"); ok && strings.TrimSpace(name) != "" {
			meta[strings.ToLower(strings.TrimSpace(name))] = content
			return
		}
		if property, ok := sel.Attr("property"); ok && strings.TrimSpace(property) != "" {
			meta[strings.ToLower(strings.TrimSpace(property))] = content
		}
	})

	if structured {
		collectJSONLD(doc, meta)
		collectMicrodata(doc, meta)
	}
	return meta
}

// collectJSONLD flattens scalar top-level fields of every JSON-LD block
// under a "jsonld:" prefix. Malformed blocks are skipped.
func collectJSONLD(doc *goquery.Document, meta map[string]string) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var block map[string]any
		if err := json.Unmarshal([]byte(sel.Text()), &block); err != nil {
			return
		}
		for key, value := range block {
			switch v := value.(type) {
			case string:
				if cleaned := cleanText(v); cleaned != "" {
					meta["jsonld:"+strings.ToLower(key)] = cleaned
				}
			case float64, bool:
				if scalar := jsonScalar(v); scalar != "" {
					meta["jsonld:"+strings.ToLower(key)] = scalar
				}
			}
		}
	})
}

func jsonScalar(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// collectMicrodata records itemprop values under an "itemprop:" prefix.
// First occurrence wins so page-level properties are not clobbered by
// repeated listing items.
func collectMicrodata(doc *goquery.Document, meta map[string]string) {
	doc.Find("[itemprop]").Each(func(_ int, sel *goquery.Selection) {
		name, ok := sel.Attr("itemprop")
		if !ok {
			return
		}
		key := "itemprop:" + strings.ToLower(strings.TrimSpace(name))
		if _, exists := meta[key]; exists {
			return
		}
		value := ""
		if content, ok := sel.Attr("content"); ok {
			value = cleanText(content)
		}
		if value == "" {
			value = cleanText(sel.Text())
		}
		if value != "" && len(value) <= 500 {
			meta[key] = value
		}
	})
}

// Headers returns the text of every h1-h6 element in document order.
func Headers(doc *goquery.Document) []string {
	headers := []string{}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		if text := cleanText(sel.Text()); text != "" {
			headers = append(headers, text)
		}
	})
	return headers
}

// Tables captures every table as caption plus cell rows.
func Tables(doc *goquery.Document) []models.TableRecord {
	tables := []models.TableRecord{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		record := models.TableRecord{
			Caption: cleanText(table.Find("caption").First().Text()),
		}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, cleanText(cell.Text()))
			})
			if len(cells) > 0 {
				record.Rows = append(record.Rows, cells)
			}
		})
		if len(record.Rows) > 0 {
			tables = append(tables, record)
		}
	})
	return tables
}

// Forms captures form targets and input names.
func Forms(doc *goquery.Document, base *url.URL) []models.FormRecord {
	forms := []models.FormRecord{}
	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		record := models.FormRecord{
			Method: strings.ToUpper(strings.TrimSpace(form.AttrOr("method", "GET"))),
		}
		if action, ok := form.Attr("action"); ok {
			if resolved, ok := scope.Resolve(base, action); ok {
				record.Action = resolved
			}
		}
		form.Find("input[name], select[name], textarea[name]").Each(func(_ int, input *goquery.Selection) {
			if name, ok := input.Attr("name"); ok {
				record.Inputs = append(record.Inputs, strings.TrimSpace(name))
			}
		})
		forms = append(forms, record)
	})
	return forms
}

// Scripts returns absolute URLs of external scripts.
func Scripts(doc *goquery.Document, base *url.URL) []string {
	scripts := []string{}
	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok {
			if resolved, ok := scope.Resolve(base, src); ok {
				scripts = append(scripts, resolved)
			}
		}
	})
	return scripts
}

// Styles returns absolute URLs of linked stylesheets.
func Styles(doc *goquery.Document, base *url.URL) []string {
	styles := []string{}
	doc.Find("link[href]").Each(func(_ int, sel *goquery.Selection) {
		rel, ok := sel.Attr("rel")
		if !ok || !strings.Contains(strings.ToLower(rel), "stylesheet") {
			return
		}
		if href, ok := sel.Attr("href"); ok {
			if resolved, ok := scope.Resolve(base, href); ok {
				styles = append(styles, resolved)
			}
		}
	})
	return styles
}
