package ws

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splax/teamboard/internal/domain"
)

type fakeSubscriber struct {
	mu       sync.Mutex
	payloads [][]byte
	failWith error
	closed   bool
}

func (f *fakeSubscriber) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeSubscriber) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSubscriber) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.payloads...)
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(hub.Close)
	return hub
}

func TestPublishFansOutToMemberAndAllTopics(t *testing.T) {
	hub := newTestHub(t)
	member := &fakeSubscriber{}
	other := &fakeSubscriber{}
	all := &fakeSubscriber{}
	hub.Register("Member1", member)
	hub.Register("Member2", other)
	hub.Register(AllMembers, all)

	hub.Publish(domain.MemberEvent{
		Type:       domain.MemberDeleted,
		MemberID:   "Member1",
		OccurredAt: time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Equal(t, 3, hub.Subscribers())

	require.Eventually(t, func() bool {
		return len(member.received()) == 1 && len(all.received()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, other.received())

	var event domain.MemberEvent
	require.NoError(t, json.Unmarshal(member.received()[0], &event))
	assert.Equal(t, domain.MemberDeleted, event.Type)
	assert.Equal(t, "Member1", event.MemberID)
	assert.Nil(t, event.Member)
}

func TestFailingSubscriberIsDropped(t *testing.T) {
	hub := newTestHub(t)
	broken := &fakeSubscriber{failWith: errors.New("broken pipe")}
	hub.Register("Member1", broken)
	require.Equal(t, 1, hub.Subscribers())

	hub.Broadcast([]byte(`{}`), "Member1")
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, broken.isClosed, time.Second, 5*time.Millisecond)
}

// stalledSubscriber blocks in Send until release is closed.
type stalledSubscriber struct {
	fakeSubscriber
	release chan struct{}
}

func (s *stalledSubscriber) Send(payload []byte) error {
	<-s.release
	return s.fakeSubscriber.Send(payload)
}

func TestStalledSubscriberDoesNotBlockBroadcast(t *testing.T) {
	hub := newTestHub(t)
	stalled := &stalledSubscriber{release: make(chan struct{})}
	hub.Register(AllMembers, stalled)
	healthy := &fakeSubscriber{}
	hub.Register("Member1", healthy)

	done := make(chan struct{})
	go func() {
		// One payload is held by Send, peerQueueSize fill the queue, the next overflows.
		for range peerQueueSize + 2 {
			hub.Broadcast([]byte(`{}`), AllMembers)
		}
		hub.Broadcast([]byte(`{"member_id":"Member1"}`), "Member1")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked behind a stalled subscriber")
	}

	assert.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(healthy.received()) == 1 }, time.Second, 5*time.Millisecond)

	close(stalled.release)
	assert.Eventually(t, stalled.isClosed, time.Second, 5*time.Millisecond)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub := newTestHub(t)
	sub := &fakeSubscriber{}
	hub.Register(AllMembers, sub)
	hub.Unregister(AllMembers, sub)

	hub.Broadcast([]byte(`{}`), AllMembers)
	assert.Equal(t, 0, hub.Subscribers())
	assert.Empty(t, sub.received())
}

func TestCloseClosesClientsAndUnblocksCallers(t *testing.T) {
	hub := NewHub(nil)
	sub := &fakeSubscriber{}
	hub.Register(AllMembers, sub)
	hub.Close()

	done := make(chan struct{})
	go func() {
		hub.Broadcast([]byte(`{}`), AllMembers)
		late := &fakeSubscriber{}
		hub.Register(AllMembers, late)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after Close")
	}
	assert.Eventually(t, sub.isClosed, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestSSEClientFramesPayloads(t *testing.T) {
	rec := httptest.NewRecorder()
	client := NewSSEClient(rec, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second)

	require.NoError(t, client.Heartbeat())
	require.NoError(t, client.Send([]byte(`{"type":"member.created"}`)))
	client.Close()

	assert.ErrorIs(t, client.Send([]byte("late")), io.EOF)
	select {
	case <-client.Done():
	default:
		t.Fatal("expected done channel closed")
	}
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, ": ping\n\n"))
	assert.Contains(t, body, "data: {\"type\":\"member.created\"}\n\n")
	assert.True(t, rec.Flushed)
}
