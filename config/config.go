package config

import (
	"fmt"
	"time"
)

// CrawlSettings holds the immutable per-session crawl configuration.
type CrawlSettings struct {
	MaxDepth            int
	MaxPages            int
	Delay               time.Duration
	Timeout             time.Duration
	UserAgent           string
	RespectRobots       bool
	FollowExternalLinks bool

	// Per-category extraction toggles.
	ExtractImages         bool
	ExtractPrices         bool
	ExtractCategories     bool
	ExtractReviews        bool
	ExtractSpecifications bool
	ExtractRelated        bool
	ExtractMetadata       bool
	ExtractStructuredData bool
}

// DefaultSettings returns conservative defaults for a polite crawl.
func DefaultSettings() *CrawlSettings {
	return &CrawlSettings{
		MaxDepth:            3,
		MaxPages:            50,
		Delay:               500 * time.Millisecond,
		Timeout:             10 * time.Second,
		UserAgent:           "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		RespectRobots:       false,
		FollowExternalLinks: false,

		ExtractImages:         true,
		ExtractPrices:         true,
		ExtractCategories:     true,
		ExtractReviews:        true,
		ExtractSpecifications: true,
		ExtractRelated:        true,
		ExtractMetadata:       true,
		ExtractStructuredData: true,
	}
}

// Validate ensures all configuration values are coherent.
func (s *CrawlSettings) Validate() error {
	if s.MaxDepth < 0 {
		return fmt.Errorf("max depth cannot be negative")
	}
	if s.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if s.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if s.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}
