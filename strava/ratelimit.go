package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitStrategy selects how the client behaves when the local rate
// limiter has no capacity left.
type RateLimitStrategy string

const (
	// RateLimitQueue parks the request in a FIFO queue until capacity frees
	// up. This is the default.
	RateLimitQueue RateLimitStrategy = "queue"
	// RateLimitThrow fails the request immediately with a RateLimitError.
	RateLimitThrow RateLimitStrategy = "throw"
	// RateLimitWait polls for capacity without queueing, so concurrent
	// waiters are admitted in whatever order they observe free capacity.
	RateLimitWait RateLimitStrategy = "wait"
)

// Strava enforces two limits per application: a 15-minute window and a daily
// window. The defaults below match the limits granted to new applications;
// the limiter adjusts itself from the X-RateLimit-Limit response header.
const (
	defaultShortTermLimit = 600
	defaultDailyLimit     = 30000

	shortTermWindow = 15 * time.Minute
	dailyWindow     = 24 * time.Hour

	defaultQueuePollInterval = time.Second
)

// RateLimitSnapshot reports rate limiter state at a point in time.
type RateLimitSnapshot struct {
	ShortTermUsage int
	ShortTermLimit int
	DailyUsage     int
	DailyLimit     int
}

// slidingWindow tracks request timestamps inside a trailing horizon.
type slidingWindow struct {
	horizon time.Duration
	stamps  []time.Time
}

// purge drops timestamps that have fallen out of the horizon.
func (w *slidingWindow) purge(now time.Time) {
	cutoff := now.Add(-w.horizon)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

func (w *slidingWindow) count() int {
	return len(w.stamps)
}

func (w *slidingWindow) record(now time.Time) {
	w.stamps = append(w.stamps, now)
}

// reconcile pads the window with synthetic timestamps when the server
// reports more usage than was observed locally, so admission decisions
// respect usage accumulated outside this process. The count only ratchets
// up to the report; local timestamps are never discarded by it.
func (w *slidingWindow) reconcile(reported int, now time.Time) {
	for len(w.stamps) < reported {
		w.stamps = append(w.stamps, now)
	}
}

// rateWaiter is one queued request waiting for capacity.
type rateWaiter struct {
	ch       chan struct{}
	granted  bool
	canceled bool
}

// rateLimiter tracks request timestamps against Strava's two sliding windows
// and admits, queues or rejects requests according to the configured
// strategy. Admission records the timestamp immediately, so a granted slot is
// counted even if the request subsequently fails.
type rateLimiter struct {
	mu    sync.Mutex
	short slidingWindow
	daily slidingWindow

	shortLimit int
	dailyLimit int

	// Usage as last reported by the API. Local timestamps drive admission;
	// reports only ratchet the local count upward via reconcile.
	reportedShortUsage int
	reportedDailyUsage int

	strategy     RateLimitStrategy
	queue        []*rateWaiter
	draining     bool
	pollInterval time.Duration

	// probe paces capacity checks for the wait strategy.
	probe *rate.Limiter

	isAutoLimiting atomic.Bool

	now func() time.Time
	log *zap.Logger
}

// newRateLimiter initializes a limiter with Strava's default application
// limits (600 requests per 15 minutes, 30000 per day).
func newRateLimiter(strategy RateLimitStrategy, log *zap.Logger) *rateLimiter {
	rl := &rateLimiter{
		short:        slidingWindow{horizon: shortTermWindow},
		daily:        slidingWindow{horizon: dailyWindow},
		shortLimit:   defaultShortTermLimit,
		dailyLimit:   defaultDailyLimit,
		strategy:     strategy,
		pollInterval: defaultQueuePollInterval,
		probe:        rate.NewLimiter(rate.Every(defaultQueuePollInterval), 1),
		now:          time.Now,
		log:          log,
	}
	rl.isAutoLimiting.Store(true)
	return rl
}

// SetAutoLimiting enables or disables local rate limiting.
func (rl *rateLimiter) SetAutoLimiting(enabled bool) {
	rl.isAutoLimiting.Store(enabled)
}

// canAdmitLocked reports whether both windows have capacity. Callers must
// hold mu and have purged first.
func (rl *rateLimiter) canAdmitLocked() bool {
	return rl.short.count() < rl.shortLimit && rl.daily.count() < rl.dailyLimit
}

// CanMakeRequest purges both windows and reports whether a request would be
// admitted right now.
func (rl *rateLimiter) CanMakeRequest() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	rl.short.purge(now)
	rl.daily.purge(now)
	return rl.canAdmitLocked()
}

// Snapshot returns current usage against the local windows.
func (rl *rateLimiter) Snapshot() RateLimitSnapshot {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	rl.short.purge(now)
	rl.daily.purge(now)
	return RateLimitSnapshot{
		ShortTermUsage: rl.short.count(),
		ShortTermLimit: rl.shortLimit,
		DailyUsage:     rl.daily.count(),
		DailyLimit:     rl.dailyLimit,
	}
}

// snapshotLocked builds a snapshot without re-locking. Callers must hold mu.
func (rl *rateLimiter) snapshotLocked() *RateLimitSnapshot {
	return &RateLimitSnapshot{
		ShortTermUsage: rl.short.count(),
		ShortTermLimit: rl.shortLimit,
		DailyUsage:     rl.daily.count(),
		DailyLimit:     rl.dailyLimit,
	}
}

// Wait blocks until the request is admitted, fails fast, polls or queues per
// the configured strategy. On success a timestamp has been recorded in both
// windows.
func (rl *rateLimiter) Wait(ctx context.Context) error {
	if !rl.isAutoLimiting.Load() {
		return nil
	}

	rl.mu.Lock()
	now := rl.now()
	rl.short.purge(now)
	rl.daily.purge(now)

	// Fresh capacity only bypasses the queue when nobody is already parked
	// in it, otherwise later requests would overtake earlier ones.
	if len(rl.queue) == 0 && rl.canAdmitLocked() {
		rl.short.record(now)
		rl.daily.record(now)
		rl.mu.Unlock()
		return nil
	}

	switch rl.strategy {
	case RateLimitThrow:
		snap := rl.snapshotLocked()
		rl.mu.Unlock()
		return &RateLimitError{Snapshot: snap}
	case RateLimitWait:
		rl.mu.Unlock()
		return rl.waitForCapacity(ctx)
	default:
		return rl.enqueueLocked(ctx)
	}
}

// waitForCapacity repeatedly probes for free capacity. The probe limiter
// paces the polls so concurrent waiters do not spin on the lock.
func (rl *rateLimiter) waitForCapacity(ctx context.Context) error {
	for {
		if err := rl.probe.Wait(ctx); err != nil {
			return err
		}
		rl.mu.Lock()
		now := rl.now()
		rl.short.purge(now)
		rl.daily.purge(now)
		if rl.canAdmitLocked() {
			rl.short.record(now)
			rl.daily.record(now)
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()
		rl.log.Debug("rate limit reached, waiting for capacity")
	}
}

// enqueueLocked parks the caller in the FIFO queue. Called with mu held;
// releases it before blocking.
func (rl *rateLimiter) enqueueLocked(ctx context.Context) error {
	w := &rateWaiter{ch: make(chan struct{})}
	rl.queue = append(rl.queue, w)
	depth := len(rl.queue)
	if !rl.draining {
		rl.draining = true
		go rl.drainLoop()
	}
	rl.mu.Unlock()

	rl.log.Debug("rate limit reached, request queued", zap.Int("queue_depth", depth))

	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		rl.mu.Lock()
		if w.granted {
			// Grant raced with cancellation. The slot is already recorded,
			// so let the request proceed and fail on its dead context.
			rl.mu.Unlock()
			return nil
		}
		w.canceled = true
		rl.mu.Unlock()
		return ctx.Err()
	}
}

// drainLoop periodically grants queued waiters as windows slide. It exits
// once the queue empties; a later waiter spawns a new loop.
func (rl *rateLimiter) drainLoop() {
	ticker := time.NewTicker(rl.pollInterval)
	defer ticker.Stop()
	for range ticker.C {
		if rl.processQueue() {
			return
		}
	}
}

// processQueue drops canceled waiters and grants the head of the queue while
// capacity allows, in arrival order. It reports whether the queue is empty,
// releasing the drain loop when it is.
func (rl *rateLimiter) processQueue() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.short.purge(now)
	rl.daily.purge(now)

	kept := rl.queue[:0]
	for _, w := range rl.queue {
		if w.canceled {
			continue
		}
		kept = append(kept, w)
	}
	rl.queue = kept

	for len(rl.queue) > 0 && rl.canAdmitLocked() {
		w := rl.queue[0]
		rl.queue = rl.queue[1:]
		rl.short.record(now)
		rl.daily.record(now)
		w.granted = true
		close(w.ch)
	}

	if len(rl.queue) == 0 {
		rl.draining = false
		return true
	}
	return false
}

// UpdateFromHeaders adjusts the limiter's ceilings and reported usage from a
// response's X-RateLimit-Limit and X-RateLimit-Usage headers. Values are
// comma-separated pairs, 15-minute first, daily second.
func (rl *rateLimiter) UpdateFromHeaders(h http.Header) {
	shortLimit, dailyLimit, okLimit := parseRatePair(h.Get("X-RateLimit-Limit"))
	shortUsage, dailyUsage, okUsage := parseRatePair(h.Get("X-RateLimit-Usage"))
	if !okLimit && !okUsage {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if okLimit {
		if shortLimit > 0 {
			rl.shortLimit = shortLimit
		}
		if dailyLimit > 0 {
			rl.dailyLimit = dailyLimit
		}
	}
	if okUsage {
		now := rl.now()
		rl.short.purge(now)
		rl.daily.purge(now)
		if shortUsage >= 0 {
			rl.reportedShortUsage = shortUsage
			rl.short.reconcile(shortUsage, now)
		}
		if dailyUsage >= 0 {
			rl.reportedDailyUsage = dailyUsage
			rl.daily.reconcile(dailyUsage, now)
		}
	}
}

// parseRatePair parses a "600,30000" style header value. A single value
// applies to the short-term window only; the second return is -1 when absent.
func parseRatePair(v string) (short, daily int, ok bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, 0, false
	}
	parts := strings.Split(v, ",")
	short, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	daily = -1
	if len(parts) > 1 {
		d, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, false
		}
		daily = d
	}
	return short, daily, true
}

// snapshotFromHeaders builds a snapshot from the server-reported rate headers
// on a response, or nil when they are absent.
func snapshotFromHeaders(h http.Header) *RateLimitSnapshot {
	shortLimit, dailyLimit, okLimit := parseRatePair(h.Get("X-RateLimit-Limit"))
	shortUsage, dailyUsage, okUsage := parseRatePair(h.Get("X-RateLimit-Usage"))
	if !okLimit && !okUsage {
		return nil
	}
	snap := &RateLimitSnapshot{}
	if okLimit {
		snap.ShortTermLimit = shortLimit
		if dailyLimit >= 0 {
			snap.DailyLimit = dailyLimit
		}
	}
	if okUsage {
		snap.ShortTermUsage = shortUsage
		if dailyUsage >= 0 {
			snap.DailyUsage = dailyUsage
		}
	}
	return snap
}
