package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu     sync.Mutex
	events map[uuid.UUID][]Event
}

func newRecorder() *recorder {
	return &recorder{events: make(map[uuid.UUID][]Event)}
}

func (r *recorder) Notify(_ context.Context, partyID uuid.UUID, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[partyID] = append(r.events[partyID], ev)
	return nil
}

func (r *recorder) count(partyID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events[partyID])
}

func sampleEvent() Event {
	return Event{
		Type:      EventScheduled,
		Interview: scheduling.Interview{ID: uuid.New(), Title: "screening Interview - SRE"},
		Message:   "New interview scheduled",
		Timestamp: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	a, b := newRecorder(), newRecorder()
	boom := errors.New("boom")
	failing := NotifierFunc(func(context.Context, uuid.UUID, Event) error { return boom })
	party := uuid.New()

	err := Multi{a, nil, failing, b}.Notify(context.Background(), party, sampleEvent())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.count(party))
	assert.Equal(t, 1, b.count(party))

	assert.NoError(t, Multi{a}.Notify(context.Background(), party, sampleEvent()))
	assert.NoError(t, Discard.Notify(context.Background(), party, sampleEvent()))
}

// setupTestRedis creates a miniredis instance and a redis client for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisPublisher_RelayDelivers(t *testing.T) {
	mr, client := setupTestRedis(t)
	target := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Relay(ctx, client, "", target, zap.NewNop()) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(DefaultChannel)[DefaultChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	party := uuid.New()
	ev := sampleEvent()
	require.NoError(t, NewRedisPublisher(client, "").Notify(ctx, party, ev))

	require.Eventually(t, func() bool { return target.count(party) == 1 }, 2*time.Second, 10*time.Millisecond)
	target.mu.Lock()
	got := target.events[party][0]
	target.mu.Unlock()
	assert.Equal(t, ev.Type, got.Type)
	assert.Equal(t, ev.Interview.ID, got.Interview.ID)
	assert.True(t, ev.Timestamp.Equal(got.Timestamp))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}

func TestRelay_SkipsMalformed(t *testing.T) {
	mr, client := setupTestRedis(t)
	target := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = Relay(ctx, client, "events", target, nil) }()
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("events")["events"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	mr.Publish("events", "not json")
	party := uuid.New()
	require.NoError(t, NewRedisPublisher(client, "events").Notify(ctx, party, sampleEvent()))

	require.Eventually(t, func() bool { return target.count(party) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_DeliversToConnectedParty(t *testing.T) {
	hub := NewHub(zap.NewNop())
	party := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, party)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connected(party) == 1 }, 2*time.Second, 10*time.Millisecond)

	ev := sampleEvent()
	require.NoError(t, hub.Notify(context.Background(), party, ev))
	// other parties get nothing and do not error
	require.NoError(t, hub.Notify(context.Background(), uuid.New(), ev))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, EventScheduled, got.Type)
	assert.Equal(t, ev.Interview.ID, got.Interview.ID)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Connected(party) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_NotifyWithoutConnection(t *testing.T) {
	hub := NewHub(nil)
	assert.NoError(t, hub.Notify(context.Background(), uuid.New(), sampleEvent()))
	assert.Equal(t, 0, hub.Connected(uuid.New()))
	hub.Close()
}
