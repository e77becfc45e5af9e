package cache

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"
)

// Prefetcher warms image URLs ahead of display. URLs are processed one
// at a time with a small delay between requests so speculative loading
// never saturates the network. A URL is queued at most once; a failed
// URL is marked failed and not retried.
type Prefetcher struct {
	mu      sync.Mutex
	queued  map[string]bool
	failed  map[string]bool
	queue   chan string
	client  *http.Client
	delay   time.Duration
	started bool
}

const prefetchQueueSize = 256

// NewPrefetcher creates a prefetcher using the given HTTP client; a nil
// client gets a sane default timeout.
func NewPrefetcher(client *http.Client, delay time.Duration) *Prefetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Prefetcher{
		queued: make(map[string]bool),
		failed: make(map[string]bool),
		queue:  make(chan string, prefetchQueueSize),
		client: client,
		delay:  delay,
	}
}

// Enqueue adds a URL to the prefetch queue. Duplicates and previously
// failed URLs are ignored; a full queue drops the URL silently
// (prefetching is best-effort).
func (p *Prefetcher) Enqueue(url string) {
	if url == "" {
		return
	}
	p.mu.Lock()
	if p.queued[url] || p.failed[url] {
		p.mu.Unlock()
		return
	}
	p.queued[url] = true
	p.mu.Unlock()

	select {
	case p.queue <- url:
	default:
		p.mu.Lock()
		delete(p.queued, url)
		p.mu.Unlock()
	}
}

// Failed reports whether a URL's fetch failed, so the UI can show a
// placeholder instead of re-requesting it.
func (p *Prefetcher) Failed(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed[url]
}

// Run processes the queue until the context is cancelled. Call it once
// in its own goroutine.
func (p *Prefetcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case url := <-p.queue:
			p.fetch(ctx, url)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.delay):
			}
		}
	}
}

func (p *Prefetcher) fetch(ctx context.Context, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		p.markFailed(url)
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.markFailed(url)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		p.markFailed(url)
	}
}

func (p *Prefetcher) markFailed(url string) {
	log.Printf("WARN: prefetch: %s failed, marking", url)
	p.mu.Lock()
	p.failed[url] = true
	p.mu.Unlock()
}
