// Package session runs site crawls. A Manager hosts sessions; each
// session's crawl loop runs in its own goroutine (the isolate) and the
// Manager folds its typed events into the session record.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalinav4l/site-scraper/config"
	"github.com/kalinav4l/site-scraper/models"
)

// Manager owns all session records. Isolates never touch them: every
// mutation happens here, under the manager lock, by applying events.
type Manager struct {
	settings *config.CrawlSettings
	fetcher  Fetcher
	logger   *slog.Logger
	metrics  *Metrics

	mu       sync.Mutex
	sessions map[string]*models.ScrapingSession
	cancels  map[string]context.CancelFunc
	done     map[string]chan struct{}
}

// NewManager builds a session host. Logger may be nil.
func NewManager(settings *config.CrawlSettings, fetcher Fetcher, logger *slog.Logger, metrics *Metrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		settings: settings,
		fetcher:  fetcher,
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[string]*models.ScrapingSession),
		cancels:  make(map[string]context.CancelFunc),
		done:     make(map[string]chan struct{}),
	}
}

// Start launches a new crawl session for the given URL and returns its
// ID immediately. Progress is observed through Get.
func (m *Manager) Start(ctx context.Context, seedURL string) (string, error) {
	if seedURL == "" {
		return "", fmt.Errorf("start url is required")
	}

	id := uuid.NewString()
	session := &models.ScrapingSession{
		ID:        id,
		URL:       seedURL,
		Status:    models.StatusIdle,
		Products:  []*models.ScrapedProduct{},
		Pages:     []*models.PageRecord{},
		Errors:    []string{},
		StartTime: time.Now(),
	}

	runCtx, cancel := context.WithCancel(ctx)
	controller := NewController(m.settings, m.fetcher, m.logger.With("session", id), m.metrics)
	events := controller.Run(runCtx, seedURL)
	done := make(chan struct{})

	m.mu.Lock()
	m.sessions[id] = session
	m.cancels[id] = cancel
	m.done[id] = done
	m.mu.Unlock()

	m.metrics.SessionStarted()
	m.logger.Info("session started", "session", id, "url", seedURL)

	go m.fold(id, events, done, cancel)
	return id, nil
}

// fold drains the isolate's event channel into the session record. A
// channel that closes without a terminal event means the crawl was
// cancelled: the session is marked paused.
func (m *Manager) fold(id string, events <-chan Event, done chan struct{}, cancel context.CancelFunc) {
	defer cancel()
	defer close(done)
	defer m.metrics.SessionEnded()

	for ev := range events {
		m.apply(id, ev)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && !s.Status.Terminal() {
		s.Status = models.StatusPaused
		s.EndTime = time.Now()
		m.logger.Info("session paused", "session", id)
	}
}

func (m *Manager) apply(id string, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}

	switch ev.Type {
	case EventStatus:
		s.Status = models.SessionStatus(ev.Status)
	case EventProgress:
		s.Progress = ev.Progress.Progress
		s.TotalURLs = ev.Progress.TotalURLs
		s.ScrapedURLs = ev.Progress.ScrapedURLs
		s.Statistics = ev.Progress.Statistics
	case EventPage:
		s.Pages = append(s.Pages, ev.Page)
	case EventProducts:
		s.Products = append(s.Products, ev.Products...)
	case EventCompleted:
		s.Status = models.StatusCompleted
		s.Statistics = ev.Completion.Statistics
		s.Errors = append(s.Errors, ev.Completion.Errors...)
		s.Progress = 100
		s.ScrapedURLs = ev.Completion.TotalPages + len(ev.Completion.Errors)
		s.EndTime = time.Now()
		m.logger.Info("session completed", "session", id,
			"pages", ev.Completion.TotalPages,
			"products", ev.Completion.TotalProducts,
			"errors", len(ev.Completion.Errors))
	case EventError:
		s.Status = models.StatusError
		s.Errors = append(s.Errors, ev.Error)
		s.EndTime = time.Now()
		m.logger.Error("session failed", "session", id, "error", ev.Error)
	}
}

// Get returns a snapshot copy of a session. Slices are copied so the
// caller can read them while the crawl keeps appending.
func (m *Manager) Get(id string) (models.ScrapingSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return models.ScrapingSession{}, false
	}

	snapshot := *s
	snapshot.Products = append([]*models.ScrapedProduct(nil), s.Products...)
	snapshot.Pages = append([]*models.PageRecord(nil), s.Pages...)
	snapshot.Errors = append([]string(nil), s.Errors...)
	return snapshot, true
}

// List returns snapshots of all sessions.
func (m *Manager) List() []models.ScrapingSession {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	out := make([]models.ScrapingSession, 0, len(ids))
	for _, id := range ids {
		if s, ok := m.Get(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// Stop cancels a running session. The crawl halts at the next loop
// check and the session lands in the paused state; a stopped session
// cannot be resumed. Stopping an unknown or finished session is a
// no-op.
func (m *Manager) Stop(id string) bool {
	m.mu.Lock()
	cancel, ok := m.cancels[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Wait blocks until the session's crawl goroutine has exited.
func (m *Manager) Wait(id string) {
	m.mu.Lock()
	done, ok := m.done[id]
	m.mu.Unlock()
	if !ok {
		return
	}
	<-done
}
