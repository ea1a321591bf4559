package session

import "github.com/kalinav4l/site-scraper/models"

// EventType tags a message from the crawl isolate to the host.
type EventType string

const (
	EventStatus    EventType = "status"
	EventProgress  EventType = "progress"
	EventProducts  EventType = "products"
	EventPage      EventType = "page"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// ProgressPayload is a statistics snapshot emitted once per loop
// iteration, before the fetch.
type ProgressPayload struct {
	Progress    float64           `json:"progress"`
	CurrentURL  string            `json:"currentUrl"`
	TotalURLs   int               `json:"totalUrls"`
	ScrapedURLs int               `json:"scrapedUrls"`
	Statistics  models.Statistics `json:"statistics"`
}

// CompletionPayload is the terminal success message.
type CompletionPayload struct {
	Statistics    models.Statistics `json:"statistics"`
	TotalProducts int               `json:"totalProducts"`
	TotalPages    int               `json:"totalPages"`
	Errors        []string          `json:"errors"`
}

// Event is one message on the isolate-to-host channel. Payload fields
// are copies: the isolate never shares its working state by reference.
type Event struct {
	Type       EventType                `json:"type"`
	Status     string                   `json:"status,omitempty"`
	Progress   *ProgressPayload         `json:"progress,omitempty"`
	Products   []*models.ScrapedProduct `json:"products,omitempty"`
	Page       *models.PageRecord       `json:"page,omitempty"`
	Completion *CompletionPayload       `json:"completion,omitempty"`
	Error      string                   `json:"error,omitempty"`
}
