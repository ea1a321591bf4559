// Package frontier implements the BFS queue and visited set that drive
// crawl traversal order and termination.
package frontier

// Entry is one pending URL with the depth at which it was discovered.
type Entry struct {
	URL   string
	Depth int
}

// Frontier is a FIFO queue of pending URLs plus a visited set. It is
// owned by a single crawl goroutine and is not safe for concurrent use.
type Frontier struct {
	queue   []Entry
	queued  map[string]struct{}
	visited map[string]struct{}
}

// New creates an empty frontier.
func New() *Frontier {
	return &Frontier{
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// Enqueue adds a URL at the given depth unless it is already queued or
// was already visited. It reports whether the URL was accepted.
func (f *Frontier) Enqueue(url string, depth int) bool {
	if _, ok := f.visited[url]; ok {
		return false
	}
	if _, ok := f.queued[url]; ok {
		return false
	}
	f.queue = append(f.queue, Entry{URL: url, Depth: depth})
	f.queued[url] = struct{}{}
	return true
}

// Next pops the oldest pending entry. It reports false when the
// frontier is exhausted.
func (f *Frontier) Next() (Entry, bool) {
	for len(f.queue) > 0 {
		entry := f.queue[0]
		f.queue = f.queue[1:]
		delete(f.queued, entry.URL)
		if _, ok := f.visited[entry.URL]; ok {
			continue
		}
		return entry, true
	}
	return Entry{}, false
}

// MarkVisited records that a URL has been fetched. Visited URLs are
// never returned by Next again.
func (f *Frontier) MarkVisited(url string) {
	f.visited[url] = struct{}{}
}

// Visited reports whether a URL has been fetched already.
func (f *Frontier) Visited(url string) bool {
	_, ok := f.visited[url]
	return ok
}

// Pending returns the number of queued URLs.
func (f *Frontier) Pending() int {
	return len(f.queue)
}

// VisitedCount returns the number of fetched URLs.
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}
