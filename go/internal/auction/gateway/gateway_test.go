package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zigaf/car-auction/go/internal/auction/events"
)

func newTestManager() *ConnectionManager {
	return NewConnectionManager(DefaultConnectionConfig())
}

// addSubscriber registers a connection without a real websocket; events land
// in its Send channel.
func addSubscriber(cm *ConnectionManager, scope string) *Connection {
	conn := &Connection{
		ID:          uuid.New().String(),
		UserID:      "tester",
		Scope:       scope,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}
	cm.registerConnection(conn)
	return conn
}

// drainBroadcasts pumps queued broadcast messages synchronously.
func drainBroadcasts(cm *ConnectionManager) {
	for {
		select {
		case msg := <-cm.broadcastCh:
			cm.handleBroadcast(msg)
		default:
			return
		}
	}
}

func feedUpdate(t *testing.T, lotID uuid.UUID, amount int64) events.Envelope {
	t.Helper()
	env, err := events.NewEnvelope(events.EventTypeFeedUpdate, lotID, time.Now(), events.FeedUpdatePayload{
		LotID:  lotID.String(),
		Amount: amount,
	})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	return env
}

func TestDeliverReachesLotAndFeedSubscribers(t *testing.T) {
	cm := newTestManager()

	lotID := uuid.New()
	lotSub := addSubscriber(cm, LotScope(lotID))
	feedSub := addSubscriber(cm, FeedScope)
	otherSub := addSubscriber(cm, LotScope(uuid.New()))

	cm.Deliver(feedUpdate(t, lotID, 5100))
	drainBroadcasts(cm)

	if len(lotSub.Send) != 1 {
		t.Fatalf("lot subscriber got %d messages, want 1", len(lotSub.Send))
	}
	if len(feedSub.Send) != 1 {
		t.Fatalf("feed subscriber got %d messages, want 1", len(feedSub.Send))
	}
	if len(otherSub.Send) != 0 {
		t.Fatalf("unrelated lot subscriber got %d messages, want 0", len(otherSub.Send))
	}

	var env events.Envelope
	if err := json.Unmarshal(<-lotSub.Send, &env); err != nil {
		t.Fatalf("unmarshal delivered event: %v", err)
	}
	if env.EventType != events.EventTypeFeedUpdate {
		t.Fatalf("expected feed_update, got %s", env.EventType)
	}
	if env.LotID != lotID.String() {
		t.Fatalf("expected lot %s, got %s", lotID, env.LotID)
	}
}

func TestLifecycleEventsAreNotRecordedInFeedBuffer(t *testing.T) {
	cm := newTestManager()
	lotID := uuid.New()

	env, err := events.NewEnvelope(events.EventTypeAuctionPaused, lotID, time.Now(), events.AuctionPausedPayload{
		LotID:             lotID.String(),
		PausedRemainingMs: 500_000,
	})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	cm.Deliver(env)

	if got := len(cm.RecentFeed()); got != 0 {
		t.Fatalf("pause event recorded in feed buffer: %d entries", got)
	}
}

func TestRecentFeedCapsAtLimitNewestFirst(t *testing.T) {
	cm := newTestManager()
	lotID := uuid.New()

	for i := 0; i < RecentFeedSize+20; i++ {
		cm.Deliver(feedUpdate(t, lotID, int64(1000+i)))
	}

	recent := cm.RecentFeed()
	if len(recent) != RecentFeedSize {
		t.Fatalf("expected %d retained entries, got %d", RecentFeedSize, len(recent))
	}

	// Newest first: the most recent amount leads.
	var first events.Envelope
	if err := json.Unmarshal(recent[0], &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var payload events.FeedUpdatePayload
	if err := json.Unmarshal(first.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	wantNewest := int64(1000 + RecentFeedSize + 19)
	if payload.Amount != wantNewest {
		t.Fatalf("expected newest amount %d first, got %d", wantNewest, payload.Amount)
	}
}

func TestFeedJoinReplaysRecentActivity(t *testing.T) {
	cm := newTestManager()
	lotID := uuid.New()

	for i := 0; i < 5; i++ {
		cm.Deliver(feedUpdate(t, lotID, int64(1000+i*100)))
	}
	drainBroadcasts(cm)

	late := addSubscriber(cm, FeedScope)
	if len(late.Send) != 5 {
		t.Fatalf("late feed join replayed %d entries, want 5", len(late.Send))
	}

	// Replay runs newest first.
	var env events.Envelope
	if err := json.Unmarshal(<-late.Send, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var payload events.FeedUpdatePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Amount != 1400 {
		t.Fatalf("expected newest entry (1400) first, got %d", payload.Amount)
	}
}

func TestConnectionStats(t *testing.T) {
	cm := newTestManager()
	lotID := uuid.New()

	addSubscriber(cm, LotScope(lotID))
	addSubscriber(cm, LotScope(lotID))
	addSubscriber(cm, FeedScope)

	total, scopes := cm.GetConnectionStats()
	if total != 3 {
		t.Fatalf("expected 3 connections, got %d", total)
	}
	if scopes[LotScope(lotID)] != 2 {
		t.Fatalf("expected 2 lot subscribers, got %d", scopes[LotScope(lotID)])
	}
	if scopes[FeedScope] != 1 {
		t.Fatalf("expected 1 feed subscriber, got %d", scopes[FeedScope])
	}
}

func TestUnregisterRemovesEmptyScope(t *testing.T) {
	cm := newTestManager()
	conn := addSubscriber(cm, FeedScope)

	cm.unregisterConnection(conn)

	total, scopes := cm.GetConnectionStats()
	if total != 0 {
		t.Fatalf("expected 0 connections, got %d", total)
	}
	if _, exists := scopes[FeedScope]; exists {
		t.Fatal("empty scope pool should be removed")
	}

	// Repeated unregister is a no-op rather than a double close.
	cm.unregisterConnection(conn)
}

func TestLoopbackPublisherDelivers(t *testing.T) {
	cm := newTestManager()
	sub := addSubscriber(cm, FeedScope)

	pub := NewLoopbackPublisher(cm)
	for i := 0; i < 3; i++ {
		env := feedUpdate(t, uuid.New(), int64(2000+i))
		if err := pub.Publish(context.Background(), env); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	drainBroadcasts(cm)

	if len(sub.Send) != 3 {
		t.Fatalf("expected 3 delivered events, got %d", len(sub.Send))
	}
	if got := len(cm.RecentFeed()); got != 3 {
		t.Fatalf("expected 3 retained entries, got %d", got)
	}
}

func TestLotScopeFormat(t *testing.T) {
	lotID := uuid.New()
	if got, want := LotScope(lotID), fmt.Sprintf("lot:%s", lotID); got != want {
		t.Fatalf("LotScope = %q, want %q", got, want)
	}
}
