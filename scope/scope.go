// Package scope decides which discovered URLs are eligible for crawling.
package scope

import (
	"net/url"
	"path"
	"strings"

	"github.com/kalinav4l/site-scraper/config"
)

// assetExtensions lists path suffixes that never resolve to crawlable HTML.
var assetExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico", ".bmp",
	".css", ".js", ".mjs", ".json", ".xml", ".rss", ".atom",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt",
	".zip", ".rar", ".7z", ".gz", ".tar", ".bz2",
	".mp3", ".wav", ".ogg", ".mp4", ".avi", ".mov", ".mkv", ".webm",
	".woff", ".woff2", ".ttf", ".eot", ".otf",
}

// excludedPatterns lists path fragments of pages that carry no content
// worth extracting (search, auth, cart and account surfaces).
var excludedPatterns = []string{
	"/search", "/cauta", "/login", "/logout", "/register", "/signin",
	"/signup", "/cart", "/cos", "/checkout", "/account", "/cont",
	"/wishlist", "/compare", "/admin", "/wp-admin", "/wp-login",
}

// Resolve resolves href against base and returns an absolute HTTP(S)
// URL. The second return value is false for empty, fragment-only,
// malformed, or non-HTTP references.
func Resolve(base *url.URL, href string) (string, bool) {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	if !supportedScheme(parsed.Scheme) {
		return "", false
	}

	resolved := parsed
	if parsed.Scheme == "" && base != nil {
		resolved = base.ResolveReference(parsed)
	}
	if !supportedScheme(resolved.Scheme) || resolved.Scheme == "" || resolved.Host == "" {
		return "", false
	}

	resolved.Fragment = ""
	return resolved.String(), true
}

func supportedScheme(scheme string) bool {
	return scheme == "" || scheme == "http" || scheme == "https"
}

// InScope reports whether a candidate URL may be enqueued for the
// session seeded at seed. It is the sole gate against explosive or
// useless traversal: out-of-scope links may still be recorded on page
// records, but must never enter the frontier.
func InScope(rawURL string, seed *url.URL, settings *config.CrawlSettings) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !supportedScheme(parsed.Scheme) || parsed.Host == "" {
		return false
	}

	if seed != nil && !settings.FollowExternalLinks && !sameHost(parsed.Host, seed.Host) {
		return false
	}

	lowerPath := strings.ToLower(parsed.Path)
	if ext := path.Ext(lowerPath); ext != "" {
		for _, excluded := range assetExtensions {
			if ext == excluded {
				return false
			}
		}
	}

	for _, pattern := range excludedPatterns {
		if strings.Contains(lowerPath, pattern) {
			return false
		}
	}

	return true
}

func sameHost(a, b string) bool {
	return strings.EqualFold(stripWWW(a), stripWWW(b))
}

func stripWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
