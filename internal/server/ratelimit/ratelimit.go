// Package ratelimit provides per-client rate limiting using token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultIdleTTL is how long an untouched bucket survives cleanup.
const DefaultIdleTTL = time.Hour

// bucket refills continuously at refillRate tokens per second up to capacity.
type bucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

func newBucket(capacity int, refillRate float64, now time.Time) *bucket {
	return &bucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: now,
		lastAccess: now,
	}
}

// take refills the bucket to now and consumes one token when available.
func (b *bucket) take(now time.Time) (allowed bool, remaining int, reset time.Time, retry time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed.Seconds()*b.refillRate)
	}
	b.lastRefill = now
	b.lastAccess = now

	if b.tokens >= 1 {
		b.tokens--
		allowed = true
	} else if b.refillRate > 0 {
		retry = seconds((1 - b.tokens) / b.refillRate)
	}

	reset = now
	if b.tokens < b.capacity && b.refillRate > 0 {
		reset = now.Add(seconds((b.capacity - b.tokens) / b.refillRate))
	}
	return allowed, int(b.tokens), reset, retry
}

func (b *bucket) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAccess.Before(cutoff)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// Limiter manages rate limiting for multiple clients using token buckets.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	config  *Config
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a rate limiter. A nil config allows 1000 requests per
// minute per client and endpoint.
func NewLimiter(config *Config, opts ...Option) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		}
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		config:  config,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanupLoop(config.CleanupInterval)
	}
	return l
}

// Allow reports whether a request from clientID to method+path may proceed.
func (l *Limiter) Allow(clientID, path, method string) Info {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return Info{}
	}

	ep := MatchEndpoint(path, method, l.config.EndpointConfigs)
	if ep == nil {
		ep = &EndpointConfig{
			Path:   "*",
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
		}
	}
	if ep.Limit <= 0 || ep.Window <= 0 {
		return Info{Allowed: true}
	}

	// Buckets are shared per matched rule, so /interviews/a/confirm and
	// /interviews/b/confirm draw from one allowance.
	key := clientID + "|" + method + "|" + ep.Path
	now := l.now()
	b := l.bucketFor(key, ep, now)

	allowed, remaining, reset, retry := b.take(now)
	return Info{
		Allowed:    allowed,
		Limit:      ep.Limit,
		Remaining:  remaining,
		ResetTime:  reset,
		RetryAfter: retry,
	}
}

func (l *Limiter) bucketFor(key string, ep *EndpointConfig, now time.Time) *bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	capacity := ep.Burst
	if capacity <= 0 {
		capacity = ep.Limit
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	b = newBucket(capacity, float64(ep.Limit)/ep.Window.Seconds(), now)
	l.buckets[key] = b
	return b
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-l.stop:
			return
		}
	}
}

// Cleanup drops buckets that have not been used within the idle TTL.
func (l *Limiter) Cleanup() int {
	ttl := l.config.IdleTTL
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	cutoff := l.now().Add(-ttl)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if b.idleSince(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Size is the number of live buckets.
func (l *Limiter) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
