package extract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kalinav4l/site-scraper/scope"
)

// excludeImageKeywords mark chrome imagery (logos, icons, ads, social
// buttons) that is never product media unless the element declares a
// large enough pixel size.
var excludeImageKeywords = []string{
	"logo", "icon", "sprite", "banner", "advert", "ads/", "ad-", "-ad.",
	"social", "facebook", "twitter", "instagram", "pixel", "placeholder",
	"spinner", "loading",
}

const minRelevantPixels = 200

// itemImages returns deduplicated absolute image URLs inside one item
// element, filtered by the relevance heuristic.
func itemImages(item *goquery.Selection, pageURL *url.URL) []string {
	seen := make(map[string]struct{})
	images := []string{}

	item.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src := imageSource(sel)
		if src == "" {
			return
		}
		resolved, ok := scope.Resolve(pageURL, src)
		if !ok {
			return
		}
		if !relevantImage(sel, resolved) {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		images = append(images, resolved)
	})

	return images
}

// relevantImage checks filename, alt, and class against the exclusion
// keywords. An excluded match is still accepted when the element
// declares a width or height of at least minRelevantPixels.
func relevantImage(sel *goquery.Selection, resolved string) bool {
	combined := strings.ToLower(resolved + " " + sel.AttrOr("alt", "") + " " + sel.AttrOr("class", ""))
	for _, keyword := range excludeImageKeywords {
		if strings.Contains(combined, keyword) {
			return declaredPixels(sel) >= minRelevantPixels
		}
	}
	return true
}

func declaredPixels(sel *goquery.Selection) int {
	max := 0
	for _, attr := range []string{"width", "height"} {
		if raw, ok := sel.Attr(attr); ok {
			if value, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(raw), "px")); err == nil && value > max {
				max = value
			}
		}
	}
	return max
}
