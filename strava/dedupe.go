package strava

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// defaultDedupWindow is how long an identical request shares a single
// execution when deduplication is enabled without an explicit window.
const defaultDedupWindow = time.Second

// inflightCall is the shared outcome of one deduplicated execution. done is
// closed once resp and err are final; after that they are never written
// again.
type inflightCall struct {
	done chan struct{}
	resp *apiResponse
	err  error
}

// deduplicator collapses identical requests issued within a window into a
// single execution whose outcome every caller shares. Entries expire after
// the window and are evicted by a sweep ticker running at the same interval.
type deduplicator struct {
	window time.Duration
	cache  *gocache.Cache

	stop     chan struct{}
	stopOnce sync.Once

	log *zap.Logger
}

// newDeduplicator starts the background sweep; callers own the teardown via
// destroy.
func newDeduplicator(window time.Duration, log *zap.Logger) *deduplicator {
	if window <= 0 {
		window = defaultDedupWindow
	}
	d := &deduplicator{
		window: window,
		// Sweeping is handled by our own ticker below so teardown is
		// deterministic; the cache's own janitor stays disabled.
		cache: gocache.New(window, 0),
		stop:  make(chan struct{}),
		log:   log,
	}
	go d.sweep()
	return d
}

func (d *deduplicator) sweep() {
	ticker := time.NewTicker(d.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.cache.DeleteExpired()
		case <-d.stop:
			return
		}
	}
}

// run returns the shared result for key, invoking fn at most once per key per
// window. Late arrivals block on the first caller's outcome; a canceled
// context releases only the waiting caller, never the execution itself.
func (d *deduplicator) run(ctx context.Context, key string, fn func(context.Context) (*apiResponse, error)) (*apiResponse, error) {
	for {
		if v, ok := d.cache.Get(key); ok {
			call := v.(*inflightCall)
			d.log.Debug("request deduplicated", zap.String("key", key))
			select {
			case <-call.done:
				return call.resp, call.err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		call := &inflightCall{done: make(chan struct{})}
		if err := d.cache.Add(key, call, gocache.DefaultExpiration); err != nil {
			// Lost the insert race; loop around and join the winner.
			continue
		}
		call.resp, call.err = fn(ctx)
		close(call.done)
		return call.resp, call.err
	}
}

// destroy stops the sweep and drops all entries. Safe to call more than once.
func (d *deduplicator) destroy() {
	d.stopOnce.Do(func() {
		close(d.stop)
		d.cache.Flush()
	})
}

// requestKey builds the deduplication key for a request. url.Values.Encode
// sorts query parameters by key, so logically identical requests collide
// regardless of parameter order.
func requestKey(method, path string, query url.Values, body []byte) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte('|')
	b.WriteString(path)
	b.WriteByte('|')
	b.WriteString(query.Encode())
	if len(body) > 0 {
		b.WriteByte('|')
		b.Write(body)
	}
	return b.String()
}
