package extract

import "regexp"

// Price patterns are tried in order; the first pattern that matches
// anywhere in the candidate text wins and the raw matched substring is
// kept, currency indicator included. A bare grouped-decimal fallback
// closes the cascade, so an amount with no currency marker can still be
// picked up (and can be wrong — a product code matches it just as
// well).
var pricePatterns = []*regexp.Regexp{
	// currency-symbol-prefixed amounts: €19.99, $ 1,299.00
	regexp.MustCompile(`[€$£]\s*\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?`),
	// suffix-currency amounts: 19,99 lei, 49.90 RON, 12 €
	regexp.MustCompile(`(?i)\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?\s*(?:lei|ron|eur|euro|usd|gbp|€|\$|£)`),
	// labeled amounts: "preț: 19,99", "price 19.99"
	regexp.MustCompile(`(?i)(?:preț|pret|price)\s*:?\s*\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?`),
	// bare grouped decimal: 1.299,00 or 19.99
	regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{1,2})?|\d+[.,]\d{1,2}`),
}

// discountPattern matches percentage reductions: -20%, 20 %.
var discountPattern = regexp.MustCompile(`-?\s*\d{1,2}\s*%`)

// MatchPrice runs the pattern cascade over text and returns the first
// matched substring, or empty when nothing price-like is present.
func MatchPrice(text string) string {
	if text == "" {
		return ""
	}
	for _, pattern := range pricePatterns {
		if match := pattern.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

// MatchDiscount returns the first percentage-style discount in text.
func MatchDiscount(text string) string {
	return discountPattern.FindString(text)
}
