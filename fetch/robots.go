package fetch

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/temoto/robotstxt"
)

const robotsCacheSize = 128

// robotsGate enforces robots.txt rules with a bounded per-host cache.
// A host whose robots.txt cannot be fetched or parsed is treated as
// allow-all.
type robotsGate struct {
	client    *http.Client
	userAgent string
	cache     *lru.Cache[string, *robotstxt.RobotsData]
}

func newRobotsGate(transport http.RoundTripper, timeout time.Duration, userAgent string) (*robotsGate, error) {
	cache, err := lru.New[string, *robotstxt.RobotsData](robotsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("robots cache: %w", err)
	}
	return &robotsGate{
		client:    &http.Client{Transport: transport, Timeout: timeout},
		userAgent: userAgent,
		cache:     cache,
	}, nil
}

// Check returns ErrRobotsDisallowed when rawURL may not be fetched.
func (g *robotsGate) Check(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil
	}

	data := g.rules(parsed)
	if data == nil {
		return nil
	}
	if !data.FindGroup(g.userAgent).Test(parsed.Path) {
		return ErrRobotsDisallowed{URL: rawURL}
	}
	return nil
}

func (g *robotsGate) rules(page *url.URL) *robotstxt.RobotsData {
	key := page.Scheme + "://" + page.Host
	if data, ok := g.cache.Get(key); ok {
		return data
	}

	var data *robotstxt.RobotsData
	resp, err := g.client.Get(key + "/robots.txt")
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			if parsed, parseErr := robotstxt.FromResponse(resp); parseErr == nil {
				data = parsed
			}
		}
	}

	// nil is cached too, so unreachable robots.txt is only probed once.
	g.cache.Add(key, data)
	return data
}
