package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kalinav4l/site-scraper/config"
	"github.com/kalinav4l/site-scraper/extract"
	"github.com/kalinav4l/site-scraper/fetch"
	"github.com/kalinav4l/site-scraper/frontier"
	"github.com/kalinav4l/site-scraper/models"
	"github.com/kalinav4l/site-scraper/scope"
)

// Fetcher retrieves one page. Satisfied by *fetch.Client.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (fetch.Result, error)
}

// Controller runs one crawl in isolation. It owns the frontier and all
// working state and talks to the host only through the event channel
// returned by Run. A fetch failure is page-scoped: the URL is counted
// against the page budget and traversal continues.
type Controller struct {
	settings  *config.CrawlSettings
	fetcher   Fetcher
	extractor *extract.ProductExtractor
	logger    *slog.Logger
	metrics   *Metrics
}

// NewController wires a crawl isolate. Logger may be nil; metrics may
// be nil when no registry is exposed.
func NewController(settings *config.CrawlSettings, fetcher Fetcher, logger *slog.Logger, metrics *Metrics) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		settings:  settings,
		fetcher:   fetcher,
		extractor: extract.NewProductExtractor(settings, logger),
		logger:    logger,
		metrics:   metrics,
	}
}

// Run starts the crawl goroutine and returns its event channel. The
// channel closes when the crawl ends. A close without a preceding
// completed or error event means the crawl was cancelled mid-flight.
func (c *Controller) Run(ctx context.Context, seedURL string) <-chan Event {
	events := make(chan Event, 64)
	go c.crawl(ctx, seedURL, events)
	return events
}

func (c *Controller) crawl(ctx context.Context, seedURL string, events chan<- Event) {
	defer close(events)

	seed, err := url.Parse(strings.TrimSpace(seedURL))
	if err != nil || seed.Scheme == "" || seed.Host == "" {
		events <- Event{Type: EventError, Error: fmt.Sprintf("invalid start url %q", seedURL)}
		return
	}

	events <- Event{Type: EventStatus, Status: string(models.StatusRunning)}

	front := frontier.New()
	front.Enqueue(seed.String(), 0)

	var (
		stats   models.Statistics
		errs    []string
		scraped int
	)
	stats.TotalLinks = 1
	seedAttempt := true

	for front.Pending() > 0 && scraped < c.settings.MaxPages {
		if ctx.Err() != nil {
			return
		}

		entry, ok := front.Next()
		if !ok {
			break
		}

		totalURLs := scraped + 1 + front.Pending()
		events <- Event{Type: EventProgress, Progress: &ProgressPayload{
			Progress:    progressPercent(scraped, totalURLs),
			CurrentURL:  entry.URL,
			TotalURLs:   totalURLs,
			ScrapedURLs: scraped,
			Statistics:  stats,
		}}

		result, err := c.fetcher.Fetch(ctx, entry.URL)
		front.MarkVisited(entry.URL)
		scraped++

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			label := fetch.ErrorLabel(err)
			c.metrics.IncError(label)
			c.logger.Warn("fetch failed", "url", entry.URL, "category", label, "error", err)
			// An unreachable seed fails the whole session; later
			// failures are page-scoped.
			if seedAttempt {
				events <- Event{Type: EventError, Error: fmt.Sprintf("failed to fetch %s: %v", entry.URL, err)}
				return
			}
			errs = append(errs, fmt.Sprintf("failed to fetch %s: %v", entry.URL, err))
			continue
		}
		seedAttempt = false
		c.metrics.IncPages()
		c.metrics.ObserveFetch(result.Duration)

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.Body))
		if err != nil {
			errs = append(errs, fmt.Sprintf("failed to parse %s: %v", entry.URL, err))
			c.logger.Warn("parse failed", "url", entry.URL, "error", err)
			continue
		}

		pageURL, err := url.Parse(result.URL)
		if err != nil {
			pageURL = seed
		}

		page := extract.BuildPageRecord(doc, pageURL, c.settings)
		stats.TotalPages++
		stats.ProcessedLinks++
		stats.TotalImages += len(page.Images)

		if entry.Depth < c.settings.MaxDepth {
			for _, link := range page.Links {
				if !scope.InScope(link, seed, c.settings) {
					continue
				}
				if front.Enqueue(link, entry.Depth+1) {
					stats.TotalLinks++
				}
			}
		}

		products := c.extractor.Extract(doc, pageURL)
		stats.TotalProducts += len(products)
		c.metrics.AddProducts(len(products))

		c.logger.Info("page scraped",
			"url", entry.URL,
			"depth", entry.Depth,
			"links", len(page.Links),
			"products", len(products))

		events <- Event{Type: EventPage, Page: page}
		if len(products) > 0 {
			events <- Event{Type: EventProducts, Products: products}
		}

		if c.settings.Delay > 0 && front.Pending() > 0 && scraped < c.settings.MaxPages {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.settings.Delay):
			}
		}
	}

	events <- Event{Type: EventCompleted, Completion: &CompletionPayload{
		Statistics:    stats,
		TotalProducts: stats.TotalProducts,
		TotalPages:    stats.TotalPages,
		Errors:        errs,
	}}
}

func progressPercent(scraped, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(scraped) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}
