// Package fetch retrieves single pages for the crawl loop. Failures are
// page-scoped: the caller records the error and keeps traversing.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/kalinav4l/site-scraper/config"
)

// Result is one fetched page.
type Result struct {
	URL        string
	StatusCode int
	Body       string
	Duration   time.Duration
}

// Client fetches pages through a colly collector configured from the
// session settings. Fetching is sequential; the client keeps no state
// between calls beyond the robots cache.
type Client struct {
	settings  *config.CrawlSettings
	transport http.RoundTripper
	robots    *robotsGate
}

// Option customises a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport, used by tests to inject a
// mock round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// NewClient builds a fetch client from crawl settings.
func NewClient(settings *config.CrawlSettings, opts ...Option) (*Client, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings are required")
	}

	c := &Client{settings: settings}
	for _, opt := range opts {
		opt(c)
	}

	if settings.RespectRobots {
		gate, err := newRobotsGate(c.transport, settings.Timeout, settings.UserAgent)
		if err != nil {
			return nil, err
		}
		c.robots = gate
	}

	return c, nil
}

// Fetch retrieves one URL's HTML with a bounded timeout. Redirects are
// followed and relative URLs resolve against the final location.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if c.robots != nil {
		if err := c.robots.Check(rawURL); err != nil {
			return Result{}, err
		}
	}

	collector := c.newCollector()

	var (
		body       []byte
		statusCode int
		fetchErr   error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
		statusCode = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	start := time.Now()
	visitErr := collector.Visit(rawURL)
	collector.Wait()
	duration := time.Since(start)

	if fetchErr == nil {
		fetchErr = visitErr
	}
	if fetchErr != nil {
		return Result{URL: rawURL, StatusCode: statusCode, Duration: duration},
			classifyError(fetchErr, statusCode)
	}

	return Result{
		URL:        rawURL,
		StatusCode: statusCode,
		Body:       string(body),
		Duration:   duration,
	}, nil
}

// newCollector builds a fresh synchronous collector per fetch so no
// visit bookkeeping leaks between URLs.
func (c *Client) newCollector() *colly.Collector {
	collector := colly.NewCollector(
		colly.UserAgent(c.settings.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	collector.SetRequestTimeout(c.settings.Timeout)
	if c.transport != nil {
		collector.WithTransport(c.transport)
	}
	return collector
}
