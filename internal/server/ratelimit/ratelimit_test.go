package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, clock *fakeClock, configs ...EndpointConfig) *Limiter {
	t.Helper()
	l := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    60,
		DefaultWindow:   time.Minute,
		Whitelist:       map[string]bool{"10.0.0.1": true},
		Blacklist:       map[string]bool{"10.0.0.2": true},
		EndpointConfigs: configs,
	}, WithClock(clock.Now))
	t.Cleanup(l.Stop)
	return l
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, clock, EndpointConfig{Path: "/interviews", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 10})

	for i := 0; i < 10; i++ {
		info := l.Allow("client", "/interviews", http.MethodPost)
		require.True(t, info.Allowed, "request %d", i+1)
		assert.Equal(t, 9-i, info.Remaining)
	}

	denied := l.Allow("client", "/interviews", http.MethodPost)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 60, denied.Limit)
	assert.Equal(t, time.Second, denied.RetryAfter)
	assert.Equal(t, clock.Now().Add(10*time.Second), denied.ResetTime)

	clock.Advance(time.Second)
	assert.True(t, l.Allow("client", "/interviews", http.MethodPost).Allowed)
	assert.False(t, l.Allow("client", "/interviews", http.MethodPost).Allowed)

	clock.Advance(time.Hour)
	info := l.Allow("client", "/interviews", http.MethodPost)
	assert.True(t, info.Allowed)
	assert.Equal(t, 9, info.Remaining, "refill is capped at the burst size")
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l := newTestLimiter(t, newFakeClock(), EndpointConfig{Path: "/interviews", Method: http.MethodPost, Limit: 1, Window: time.Minute})

	assert.True(t, l.Allow("a", "/interviews", http.MethodPost).Allowed)
	assert.False(t, l.Allow("a", "/interviews", http.MethodPost).Allowed)
	assert.True(t, l.Allow("b", "/interviews", http.MethodPost).Allowed)
}

func TestLimiter_PrefixRulesShareOneBucket(t *testing.T) {
	l := newTestLimiter(t, newFakeClock(), EndpointConfig{Path: "/interviews/", Method: http.MethodPatch, Limit: 2, Window: time.Minute})

	assert.True(t, l.Allow("a", "/interviews/1/confirm", http.MethodPatch).Allowed)
	assert.True(t, l.Allow("a", "/interviews/2/cancel", http.MethodPatch).Allowed)
	assert.False(t, l.Allow("a", "/interviews/3/start", http.MethodPatch).Allowed)
}

func TestLimiter_ListsAndDisabled(t *testing.T) {
	l := newTestLimiter(t, newFakeClock(), EndpointConfig{Path: "/interviews", Method: http.MethodPost, Limit: 1, Window: time.Minute})

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("10.0.0.1", "/interviews", http.MethodPost).Allowed)
	}
	assert.False(t, l.Allow("10.0.0.2", "/health", http.MethodGet).Allowed)

	off := NewLimiter(&Config{Enabled: false})
	defer off.Stop()
	for i := 0; i < 5; i++ {
		assert.True(t, off.Allow("x", "/interviews", http.MethodPost).Allowed)
	}
	assert.Zero(t, off.Size())
}

func TestLimiter_Cleanup(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, clock)

	l.Allow("old", "/interviews", http.MethodGet)
	clock.Advance(59 * time.Minute)
	l.Allow("fresh", "/interviews", http.MethodGet)
	require.Equal(t, 2, l.Size())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, l.Cleanup())
	assert.Equal(t, 1, l.Size())
}

func TestLimiter_Concurrent(t *testing.T) {
	l := newTestLimiter(t, newFakeClock(), EndpointConfig{Path: "/interviews", Method: http.MethodPost, Limit: 50, Window: time.Minute})

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("c", "/interviews", http.MethodPost).Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(50), allowed.Load())
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		method, path string
		wantPath     string
		wantLimit    int
	}{
		{http.MethodPost, "/interviews", "/interviews", 30},
		{http.MethodGet, "/interviews/available-slots", "/interviews/available-slots", 120},
		{http.MethodPatch, "/interviews/abc/confirm", "/interviews/", 100},
		{http.MethodPost, "/interviews/abc/feedback", "/interviews/", 100},
		{http.MethodDelete, "/interviews/abc", "/interviews/", 100},
		{http.MethodGet, "/health", "unlimited", 0},
		{http.MethodGet, "/metrics", "unlimited", 0},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}

	assert.Nil(t, MatchEndpoint("/interviews", http.MethodGet, configs))
	assert.Nil(t, MatchEndpoint("/interviews/abc", http.MethodGet, configs))
}

func TestMatchEndpoint_LongestPrefixWins(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/interviews/", Method: http.MethodPost, Limit: 100},
		{Path: "/interviews/abc/", Method: http.MethodPost, Limit: 5},
	}
	got := MatchEndpoint("/interviews/abc/feedback", http.MethodPost, configs)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.Limit)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_WHITELIST", " 10.0.0.1 , 10.0.0.3,")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.3": true}, cfg.Whitelist)
	assert.Empty(t, cfg.Blacklist)
	assert.NotEmpty(t, cfg.EndpointConfigs)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}

func TestMiddleware(t *testing.T) {
	l := newTestLimiter(t, newFakeClock(), EndpointConfig{Path: "/interviews", Method: http.MethodPost, Limit: 30, Window: time.Minute, Burst: 1})
	h := Middleware(l, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/interviews", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "30", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/interviews", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])
	assert.EqualValues(t, 2, body["retry_after"])

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestClientID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "203.0.113.7", ClientID(r))

	r.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", ClientID(r))
}
