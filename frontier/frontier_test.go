package frontier

import "testing"

func TestFIFOOrder(t *testing.T) {
	t.Parallel()

	f := New()
	f.Enqueue("https://shop.example/a", 0)
	f.Enqueue("https://shop.example/b", 1)
	f.Enqueue("https://shop.example/c", 1)

	want := []string{"https://shop.example/a", "https://shop.example/b", "https://shop.example/c"}
	for i, expected := range want {
		entry, ok := f.Next()
		if !ok {
			t.Fatalf("Next() exhausted at index %d", i)
		}
		if entry.URL != expected {
			t.Fatalf("Next() = %q, want %q", entry.URL, expected)
		}
	}
	if _, ok := f.Next(); ok {
		t.Fatalf("frontier should be exhausted")
	}
}

func TestDedup(t *testing.T) {
	t.Parallel()

	f := New()
	if !f.Enqueue("https://shop.example/a", 0) {
		t.Fatalf("first enqueue should be accepted")
	}
	if f.Enqueue("https://shop.example/a", 1) {
		t.Fatalf("queued URL should not be accepted twice")
	}

	entry, _ := f.Next()
	f.MarkVisited(entry.URL)

	if f.Enqueue("https://shop.example/a", 2) {
		t.Fatalf("visited URL should not be re-enqueued")
	}
	if _, ok := f.Next(); ok {
		t.Fatalf("nothing should remain queued")
	}
}

func TestNextSkipsLateVisited(t *testing.T) {
	t.Parallel()

	f := New()
	f.Enqueue("https://shop.example/a", 0)
	f.Enqueue("https://shop.example/b", 0)

	// a is marked visited while still queued; Next must skip it.
	f.MarkVisited("https://shop.example/a")

	entry, ok := f.Next()
	if !ok || entry.URL != "https://shop.example/b" {
		t.Fatalf("Next() = (%q, %v), want b", entry.URL, ok)
	}
}

func TestCounters(t *testing.T) {
	t.Parallel()

	f := New()
	f.Enqueue("https://shop.example/a", 0)
	f.Enqueue("https://shop.example/b", 0)
	if got := f.Pending(); got != 2 {
		t.Fatalf("Pending() = %d, want 2", got)
	}

	entry, _ := f.Next()
	f.MarkVisited(entry.URL)
	if got := f.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1", got)
	}
	if got := f.VisitedCount(); got != 1 {
		t.Fatalf("VisitedCount() = %d, want 1", got)
	}
	if !f.Visited(entry.URL) {
		t.Fatalf("Visited(%q) = false, want true", entry.URL)
	}
}
