package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/kalinav4l/site-scraper/config"
	"github.com/kalinav4l/site-scraper/models"
	"github.com/kalinav4l/site-scraper/scope"
)

// unknownName is the sentinel used when no name-bearing text qualifies.
const unknownName = "unknown"

const (
	descriptionMaxLen = 1500
	maxItemsPerPage   = 100
)

// containerSelectors is the ordered cascade of item-container
// selectors. The first selector that matches at least one element wins;
// match sets from different selectors are never merged.
var containerSelectors = []string{
	`[itemtype*="schema.org/Product"]`,
	".product-item",
	".product-card",
	".product-box",
	".product",
	".item-product",
	".card-product",
	".listing-item",
	".catalog-item",
	".shop-item",
	".grid-item",
	"li.item",
	"article.item",
}

// ProductExtractor locates item elements on a page and extracts one
// ScrapedProduct per candidate. It is safe for use from a single crawl
// goroutine per session; the ID counter tolerates concurrent sessions
// sharing one extractor.
type ProductExtractor struct {
	settings *config.CrawlSettings
	logger   *slog.Logger

	mu      sync.Mutex
	counter int
}

// NewProductExtractor builds an extractor honouring the session's
// per-category toggles.
func NewProductExtractor(settings *config.CrawlSettings, logger *slog.Logger) *ProductExtractor {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductExtractor{settings: settings, logger: logger}
}

// Extract locates candidate item elements and returns the admitted
// product records in document order.
func (e *ProductExtractor) Extract(doc *goquery.Document, pageURL *url.URL) []*models.ScrapedProduct {
	items := findItems(doc)
	if len(items) == 0 {
		return nil
	}
	if len(items) > maxItemsPerPage {
		items = items[:maxItemsPerPage]
	}

	breadcrumbs := pageBreadcrumbs(doc)

	products := []*models.ScrapedProduct{}
	for _, item := range items {
		product := e.extractItem(item, pageURL, breadcrumbs)
		if product == nil || product.Empty() {
			continue
		}
		product.ID = e.nextID(pageURL.Host)
		products = append(products, product)
	}
	return products
}

func (e *ProductExtractor) nextID(host string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counter++
	return fmt.Sprintf("%s-%d", host, e.counter)
}

// extractItem builds one record from one candidate element. A panic
// during extraction skips this single item; siblings keep processing.
func (e *ProductExtractor) extractItem(item *goquery.Selection, pageURL *url.URL, breadcrumbs []string) (product *models.ScrapedProduct) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("item extraction panicked",
				slog.String("url", pageURL.String()),
				slog.Any("panic", r),
			)
			product = nil
		}
	}()

	product = &models.ScrapedProduct{
		URL:       pageURL.String(),
		ScrapedAt: time.Now(),
	}

	product.Name = extractName(item)
	product.ProductURL = itemLink(item, pageURL)

	if e.settings.ExtractPrices {
		product.Price = extractPrice(item, priceRules)
		product.OriginalPrice = extractPrice(item, originalPriceRules)
		product.Discount = extractDiscount(item)
	}

	product.Description = extractDescription(item)
	product.ShortDescription = firstMatch(item, shortDescriptionRules)
	if product.ShortDescription == "" && product.Description != "" {
		product.ShortDescription = truncate(product.Description, 160)
	}

	if e.settings.ExtractSpecifications {
		product.Specifications = extractSpecifications(item)
		product.Features = allMatches(item, featureRules, 20)
		product.Weight = specOrRule(item, product.Specifications, weightRules, "greutate", "weight")
		product.Dimensions = specOrRule(item, product.Specifications, dimensionsRules, "dimensiuni", "dimensions")
		product.Materials = materialValues(item, product.Specifications)
	}

	if e.settings.ExtractImages {
		product.Images = itemImages(item, pageURL)
		product.Thumbnails = thumbnails(product.Images)
		product.Videos = itemVideos(item, pageURL)
		product.Documents = itemDocuments(item, pageURL)
	}

	if e.settings.ExtractCategories {
		product.Category = firstMatch(item, categoryRules)
		product.Breadcrumbs = breadcrumbs
		if product.Category == "" && len(breadcrumbs) > 1 {
			product.Category = breadcrumbs[1]
		}
		if len(breadcrumbs) > 2 {
			product.Subcategory = breadcrumbs[2]
		}
		product.Tags = allMatches(item, tagRules, 15)
	}

	product.Brand = firstMatch(item, brandRules)
	product.SKU = firstMatch(item, skuRules)
	product.Model = firstMatch(item, modelRules)
	product.Availability = firstMatch(item, availabilityRules)
	product.Stock = firstMatch(item, stockRules)
	product.Warranty = firstMatch(item, warrantyRules)
	product.Shipping = firstMatch(item, shippingRules)
	product.Colors = allMatches(item, colorRules, 15)
	product.Sizes = allMatches(item, sizeRules, 15)

	if e.settings.ExtractReviews {
		product.Reviews = extractReviews(item)
	}

	if e.settings.ExtractRelated {
		product.RelatedProducts = relatedProducts(item, pageURL)
	}

	if e.settings.ExtractMetadata {
		product.Metadata = dataAttributes(item)
	}

	// Sentinel name, but only for records that carry real signal;
	// otherwise the admission rule could never discard anything.
	if product.Name == "" && (product.Price != "" || product.Description != "") {
		product.Name = unknownName
	}

	return product
}

// findItems runs the selector cascade, then the structural fallback.
func findItems(doc *goquery.Document) []*goquery.Selection {
	for _, selector := range containerSelectors {
		found := doc.Find(selector)
		if found.Length() == 0 {
			continue
		}
		items := make([]*goquery.Selection, 0, found.Length())
		found.Each(func(_ int, sel *goquery.Selection) {
			items = append(items, sel)
		})
		return items
	}
	return structuralFallback(doc)
}

// structuralFallback guesses item boundaries when no known selector
// matches: the largest group of repeated same-shaped siblings whose
// members look like listing entries.
func structuralFallback(doc *goquery.Document) []*goquery.Selection {
	var best []*goquery.Selection

	doc.Find("ul, ol, div, section").Each(func(_ int, parent *goquery.Selection) {
		children := parent.ChildrenFiltered("li, div, article")
		if children.Length() < 3 {
			return
		}

		groups := make(map[string][]*goquery.Selection)
		children.Each(func(_ int, child *goquery.Selection) {
			key := goquery.NodeName(child) + "|" + child.AttrOr("class", "")
			groups[key] = append(groups[key], child)
		})

		for _, group := range groups {
			if len(group) < 3 || len(group) <= len(best) {
				continue
			}
			if looksLikeItems(group) {
				best = group
			}
		}
	})

	return best
}

// looksLikeItems accepts a sibling group when at least half its members
// carry price-like text, or an image together with a link or heading.
func looksLikeItems(group []*goquery.Selection) bool {
	hits := 0
	for _, member := range group {
		if MatchPrice(member.Text()) != "" {
			hits++
			continue
		}
		if member.Find("img").Length() > 0 &&
			(member.Find("a[href]").Length() > 0 || member.Find("h1, h2, h3, h4").Length() > 0) {
			hits++
		}
	}
	return hits*2 >= len(group)
}

// extractName tries the name rule chain, then the longest qualifying
// text node. Text that is entirely a price is never a name. Returns
// empty when nothing qualifies; the sentinel is applied later, only to
// otherwise-admissible records.
func extractName(item *goquery.Selection) string {
	if name := firstMatch(item, nameRules); name != "" {
		return name
	}
	return longestTextNode(item, 5, 150)
}

// longestTextNode walks the subtree and picks the longest single text
// node within the given length bounds.
func longestTextNode(item *goquery.Selection, minLen, maxLen int) string {
	best := ""
	for _, node := range item.Nodes {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.TextNode {
				text := cleanText(n.Data)
				if len(text) >= minLen && len(text) <= maxLen && len(text) > len(best) && MatchPrice(text) != text {
					best = text
				}
				return
			}
			if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(node)
	}
	return best
}

// extractPrice walks price-bearing rules and keeps the first candidate
// string in which the pattern cascade finds a match. The raw matched
// substring is stored, currency indicator included.
func extractPrice(item *goquery.Selection, rules []fieldRule) string {
	for _, rule := range rules {
		var price string
		matchSet(item, rule.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			candidate := ruleValue(sel, rule)
			if candidate == "" {
				return true
			}
			if match := MatchPrice(candidate); match != "" {
				price = match
				return false
			}
			return true
		})
		if price != "" {
			return price
		}
	}
	return ""
}

func extractDiscount(item *goquery.Selection) string {
	for _, rule := range discountRules {
		var discount string
		matchSet(item, rule.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if candidate := ruleValue(sel, rule); candidate != "" {
				if match := MatchDiscount(candidate); match != "" {
					discount = match
					return false
				}
			}
			return true
		})
		if discount != "" {
			return discount
		}
	}
	return ""
}

// extractDescription concatenates deduplicated description fragments
// and truncates the result.
func extractDescription(item *goquery.Selection) string {
	fragments := allMatches(item, descriptionRules, 10)
	if len(fragments) == 0 {
		return ""
	}
	return truncate(strings.Join(fragments, " "), descriptionMaxLen)
}

// extractSpecifications merges pairs from three sources, in order:
// spec-captioned (or captionless) tables, colon-separated list items,
// and definition lists. Later sources overwrite earlier keys.
func extractSpecifications(item *goquery.Selection) models.SpecList {
	specs := models.SpecList{}

	item.Find("table").Each(func(_ int, table *goquery.Selection) {
		caption := cleanText(table.Find("caption").First().Text())
		if !specCaption(caption) {
			return
		}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("th, td")
			if cells.Length() < 2 {
				return
			}
			key := cleanText(cells.Eq(0).Text())
			value := cleanText(cells.Eq(1).Text())
			if key != "" && value != "" && len(key) <= 80 {
				specs.Set(key, value)
			}
		})
	})

	item.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := cleanText(li.Text())
		key, value, found := strings.Cut(text, ":")
		if !found {
			return
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key != "" && value != "" && len(key) <= 80 && len(value) <= 300 {
			specs.Set(key, value)
		}
	})

	item.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		terms := dl.Find("dt")
		defs := dl.Find("dd")
		count := terms.Length()
		if defs.Length() < count {
			count = defs.Length()
		}
		for i := 0; i < count; i++ {
			key := cleanText(terms.Eq(i).Text())
			value := cleanText(defs.Eq(i).Text())
			if key != "" && value != "" && len(key) <= 80 {
				specs.Set(key, value)
			}
		}
	})

	return specs
}

// specOrRule prefers a specification value under any of the given keys
// and falls back to a selector chain.
func specOrRule(item *goquery.Selection, specs models.SpecList, rules []fieldRule, keys ...string) string {
	for _, entry := range specs {
		lowerKey := strings.ToLower(entry.Key)
		for _, key := range keys {
			if strings.Contains(lowerKey, key) {
				return entry.Value
			}
		}
	}
	return firstMatch(item, rules)
}

func materialValues(item *goquery.Selection, specs models.SpecList) []string {
	for _, entry := range specs {
		if strings.Contains(strings.ToLower(entry.Key), "material") {
			return splitList(entry.Value)
		}
	}
	return allMatches(item, materialRules, 10)
}

func splitList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '/'
	})
	out := []string{}
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func extractReviews(item *goquery.Selection) *models.ProductReviews {
	reviews := &models.ProductReviews{}

	countText := firstMatch(item, []fieldRule{
		{selector: "[itemprop='reviewCount']", attr: "content", maxLen: 20},
		{selector: "[itemprop='reviewCount']", maxLen: 20},
		{selector: "[class*='review-count']", maxLen: 60},
	})
	reviews.Count = firstInt(countText)

	ratingText := firstMatch(item, []fieldRule{
		{selector: "[itemprop='ratingValue']", attr: "content", maxLen: 20},
		{selector: "[itemprop='ratingValue']", maxLen: 20},
		{selector: "[data-rating]", attr: "data-rating", maxLen: 20},
		{selector: "[class*='rating']", maxLen: 40},
	})
	reviews.AverageRating = firstFloat(ratingText)

	reviews.Comments = allMatches(item, reviewCommentRules, 10)

	if reviews.Count == 0 && reviews.AverageRating == 0 && len(reviews.Comments) == 0 {
		return nil
	}
	return reviews
}

func firstInt(text string) int {
	digits := strings.Builder{}
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			continue
		}
		if digits.Len() > 0 {
			break
		}
	}
	value, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return value
}

var ratingPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

func firstFloat(text string) float64 {
	normalized := strings.ReplaceAll(text, ",", ".")
	match := ratingPattern.FindString(normalized)
	if match == "" {
		return 0
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value < 0 || value > 100 {
		return 0
	}
	return value
}

func relatedProducts(item *goquery.Selection, pageURL *url.URL) []string {
	seen := make(map[string]struct{})
	related := []string{}
	item.Find("[class*='related'] a[href], [class*='similar'] a[href]").Each(func(_ int, sel *goquery.Selection) {
		if len(related) >= 10 {
			return
		}
		href, _ := sel.Attr("href")
		resolved, ok := scope.Resolve(pageURL, href)
		if !ok {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		related = append(related, resolved)
	})
	return related
}

// itemLink returns the first resolvable anchor inside the item.
func itemLink(item *goquery.Selection, pageURL *url.URL) string {
	link := ""
	item.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if resolved, ok := scope.Resolve(pageURL, href); ok {
			link = resolved
			return false
		}
		return true
	})
	return link
}

func itemVideos(item *goquery.Selection, pageURL *url.URL) []string {
	videos := []string{}
	item.Find("video source[src], video[src], iframe[src*='youtube'], iframe[src*='vimeo']").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok {
			if resolved, ok := scope.Resolve(pageURL, src); ok {
				videos = append(videos, resolved)
			}
		}
	})
	return videos
}

func itemDocuments(item *goquery.Selection, pageURL *url.URL) []string {
	documents := []string{}
	item.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		lower := strings.ToLower(href)
		if !strings.HasSuffix(lower, ".pdf") && !strings.HasSuffix(lower, ".doc") && !strings.HasSuffix(lower, ".docx") {
			return
		}
		if resolved, ok := scope.Resolve(pageURL, href); ok {
			documents = append(documents, resolved)
		}
	})
	return documents
}

func thumbnails(images []string) []string {
	thumbs := []string{}
	for _, image := range images {
		if strings.Contains(strings.ToLower(image), "thumb") {
			thumbs = append(thumbs, image)
		}
	}
	return thumbs
}

// pageBreadcrumbs extracts the page-level breadcrumb trail once per
// document; items inherit it.
func pageBreadcrumbs(doc *goquery.Document) []string {
	selectors := []string{
		"nav[aria-label='breadcrumb'] a",
		"[itemtype*='BreadcrumbList'] [itemprop='name']",
		".breadcrumbs a",
		".breadcrumb a",
	}
	for _, selector := range selectors {
		crumbs := []string{}
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if text := cleanText(sel.Text()); text != "" && len(text) <= 80 {
				crumbs = append(crumbs, text)
			}
		})
		if len(crumbs) > 0 {
			return crumbs
		}
	}
	return nil
}

// dataAttributes captures the item root's data-* attributes.
func dataAttributes(item *goquery.Selection) map[string]string {
	if len(item.Nodes) == 0 {
		return nil
	}
	meta := map[string]string{}
	for _, attr := range item.Nodes[0].Attr {
		if !strings.HasPrefix(attr.Key, "data-") {
			continue
		}
		if value := cleanText(attr.Val); value != "" && len(value) <= 200 {
			meta[attr.Key] = value
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
