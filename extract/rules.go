package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fieldRule is one step of a field's fallback chain: a selector, the
// attribute to read (empty means element text), and acceptable length
// bounds for the cleaned value.
type fieldRule struct {
	selector string
	attr     string
	minLen   int
	maxLen   int
}

const (
	defaultMinLen = 1
	defaultMaxLen = 500
)

// ruleValue evaluates one rule against one matched element.
func ruleValue(sel *goquery.Selection, rule fieldRule) string {
	var raw string
	if rule.attr != "" {
		raw, _ = sel.Attr(rule.attr)
	} else {
		raw = sel.Text()
	}

	value := cleanText(raw)
	minLen, maxLen := rule.minLen, rule.maxLen
	if minLen == 0 {
		minLen = defaultMinLen
	}
	if maxLen == 0 {
		maxLen = defaultMaxLen
	}
	if len(value) < minLen || len(value) > maxLen {
		return ""
	}
	return value
}

// matchSet selects rule targets inside an item, including the item
// root itself when it matches (attributes like data-sku often sit on
// the container element).
func matchSet(item *goquery.Selection, selector string) *goquery.Selection {
	found := item.Find(selector)
	if item.Is(selector) {
		return item.AddSelection(found)
	}
	return found
}

// firstMatch walks a rule chain and returns the first acceptable value.
// Rules are evaluated strictly in order; within one rule the first
// matching element wins.
func firstMatch(item *goquery.Selection, rules []fieldRule) string {
	for _, rule := range rules {
		var value string
		matchSet(item, rule.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if candidate := ruleValue(sel, rule); candidate != "" {
				value = candidate
				return false
			}
			return true
		})
		if value != "" {
			return value
		}
	}
	return ""
}

// allMatches collects every acceptable value across the whole rule
// chain, deduplicating exact strings and preserving encounter order.
func allMatches(item *goquery.Selection, rules []fieldRule, limit int) []string {
	seen := make(map[string]struct{})
	values := []string{}
	for _, rule := range rules {
		matchSet(item, rule.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if limit > 0 && len(values) >= limit {
				return false
			}
			candidate := ruleValue(sel, rule)
			if candidate == "" {
				return true
			}
			if _, dup := seen[candidate]; dup {
				return true
			}
			seen[candidate] = struct{}{}
			values = append(values, candidate)
			return true
		})
		if limit > 0 && len(values) >= limit {
			break
		}
	}
	return values
}

// Rule tables. Adding a field is a data change: extend the chain, not
// the interpreter.
var (
	nameRules = []fieldRule{
		{selector: "h1", minLen: 2, maxLen: 200},
		{selector: "h2", minLen: 2, maxLen: 200},
		{selector: "h3", minLen: 2, maxLen: 200},
		{selector: "h4", minLen: 2, maxLen: 200},
		{selector: "[itemprop='name']", minLen: 2, maxLen: 200},
		{selector: ".product-title", minLen: 2, maxLen: 200},
		{selector: ".product-name", minLen: 2, maxLen: 200},
		{selector: ".item-title", minLen: 2, maxLen: 200},
		{selector: ".title", minLen: 2, maxLen: 200},
		{selector: ".name", minLen: 2, maxLen: 200},
		{selector: "a[title]", attr: "title", minLen: 2, maxLen: 200},
		{selector: "img[alt]", attr: "alt", minLen: 2, maxLen: 200},
	}

	priceRules = []fieldRule{
		{selector: "[itemprop='price']", attr: "content", maxLen: 50},
		{selector: "[data-price]", attr: "data-price", maxLen: 50},
		{selector: ".price-new", maxLen: 100},
		{selector: ".special-price", maxLen: 100},
		{selector: ".current-price", maxLen: 100},
		{selector: ".product-price", maxLen: 100},
		{selector: ".price", maxLen: 100},
		{selector: "[class*='price']", maxLen: 100},
	}

	originalPriceRules = []fieldRule{
		{selector: ".old-price", maxLen: 100},
		{selector: ".price-old", maxLen: 100},
		{selector: ".original-price", maxLen: 100},
		{selector: ".regular-price", maxLen: 100},
		{selector: "del", maxLen: 100},
		{selector: "s", maxLen: 100},
		{selector: "strike", maxLen: 100},
	}

	discountRules = []fieldRule{
		{selector: ".discount", maxLen: 50},
		{selector: ".sale-badge", maxLen: 50},
		{selector: "[class*='discount']", maxLen: 50},
		{selector: "[class*='reducere']", maxLen: 50},
	}

	descriptionRules = []fieldRule{
		{selector: "[itemprop='description']", minLen: 20, maxLen: 2000},
		{selector: ".product-description", minLen: 20, maxLen: 2000},
		{selector: ".description", minLen: 20, maxLen: 2000},
		{selector: "[class*='description']", minLen: 20, maxLen: 2000},
		{selector: ".details", minLen: 20, maxLen: 2000},
		{selector: "p", minLen: 20, maxLen: 2000},
	}

	shortDescriptionRules = []fieldRule{
		{selector: ".short-description", minLen: 10, maxLen: 300},
		{selector: ".excerpt", minLen: 10, maxLen: 300},
		{selector: ".summary", minLen: 10, maxLen: 300},
	}

	brandRules = []fieldRule{
		{selector: "[itemprop='brand']", maxLen: 100},
		{selector: "[data-brand]", attr: "data-brand", maxLen: 100},
		{selector: ".brand", maxLen: 100},
		{selector: ".manufacturer", maxLen: 100},
		{selector: "[class*='brand']", maxLen: 100},
	}

	skuRules = []fieldRule{
		{selector: "[itemprop='sku']", maxLen: 80},
		{selector: "[data-sku]", attr: "data-sku", maxLen: 80},
		{selector: "[data-product-id]", attr: "data-product-id", maxLen: 80},
		{selector: ".sku", maxLen: 80},
		{selector: "[class*='sku']", maxLen: 80},
	}

	modelRules = []fieldRule{
		{selector: "[itemprop='model']", maxLen: 100},
		{selector: ".model", maxLen: 100},
		{selector: "[data-model]", attr: "data-model", maxLen: 100},
	}

	availabilityRules = []fieldRule{
		{selector: "[itemprop='availability']", attr: "content", maxLen: 100},
		{selector: "[itemprop='availability']", attr: "href", maxLen: 100},
		{selector: ".availability", maxLen: 100},
		{selector: ".stock-status", maxLen: 100},
		{selector: ".in-stock", maxLen: 100},
		{selector: ".out-of-stock", maxLen: 100},
		{selector: "[class*='availability']", maxLen: 100},
		{selector: "[class*='stoc']", maxLen: 100},
	}

	stockRules = []fieldRule{
		{selector: "[data-stock]", attr: "data-stock", maxLen: 40},
		{selector: ".stock-qty", maxLen: 40},
		{selector: "[class*='stock-count']", maxLen: 40},
	}

	weightRules = []fieldRule{
		{selector: "[itemprop='weight']", maxLen: 60},
		{selector: ".weight", maxLen: 60},
		{selector: "[class*='greutate']", maxLen: 60},
	}

	dimensionsRules = []fieldRule{
		{selector: ".dimensions", maxLen: 120},
		{selector: "[class*='dimensiuni']", maxLen: 120},
		{selector: "[class*='dimension']", maxLen: 120},
	}

	warrantyRules = []fieldRule{
		{selector: "[class*='warrant']", maxLen: 200},
		{selector: "[class*='garantie']", maxLen: 200},
		{selector: "[class*='garant']", maxLen: 200},
	}

	shippingRules = []fieldRule{
		{selector: "[class*='shipping']", maxLen: 200},
		{selector: "[class*='livrare']", maxLen: 200},
		{selector: "[class*='delivery']", maxLen: 200},
	}

	categoryRules = []fieldRule{
		{selector: "[itemprop='category']", maxLen: 120},
		{selector: "[data-category]", attr: "data-category", maxLen: 120},
		{selector: ".category", maxLen: 120},
		{selector: "[class*='category']", maxLen: 120},
	}

	featureRules = []fieldRule{
		{selector: "[class*='feature'] li", minLen: 3, maxLen: 200},
		{selector: ".benefits li", minLen: 3, maxLen: 200},
		{selector: ".advantages li", minLen: 3, maxLen: 200},
	}

	colorRules = []fieldRule{
		{selector: "[data-color]", attr: "data-color", maxLen: 40},
		{selector: "[class*='color'] [title]", attr: "title", maxLen: 40},
		{selector: "[class*='culoare']", maxLen: 40},
		{selector: ".color-option", maxLen: 40},
	}

	sizeRules = []fieldRule{
		{selector: "[data-size]", attr: "data-size", maxLen: 30},
		{selector: "[class*='size'] option", maxLen: 30},
		{selector: ".size-option", maxLen: 30},
		{selector: "[class*='marime']", maxLen: 30},
	}

	materialRules = []fieldRule{
		{selector: "[data-material]", attr: "data-material", maxLen: 60},
		{selector: "[class*='material']", maxLen: 60},
	}

	tagRules = []fieldRule{
		{selector: "[rel='tag']", maxLen: 60},
		{selector: ".tags a", maxLen: 60},
		{selector: ".tag", maxLen: 60},
	}

	reviewCommentRules = []fieldRule{
		{selector: ".review-text", minLen: 10, maxLen: 500},
		{selector: ".review-body", minLen: 10, maxLen: 500},
		{selector: "[class*='review'] p", minLen: 10, maxLen: 500},
	}
)

// specCaptionKeywords mark a table as specification-bearing. A table
// with no caption at all is treated as specification-bearing too.
var specCaptionKeywords = []string{
	"spec", "caracteristici", "detalii", "technical", "tehnice", "details",
}

func specCaption(caption string) bool {
	if caption == "" {
		return true
	}
	lower := strings.ToLower(caption)
	for _, keyword := range specCaptionKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
