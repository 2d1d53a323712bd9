package realtime

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

type fakeSubscriber struct {
	frames [][]byte
	full   bool
}

func (f *fakeSubscriber) TrySend(frame []byte) bool {
	if f.full {
		return false
	}
	f.frames = append(f.frames, frame)
	return true
}

func newTestRegistry(t *testing.T) (*Registry, *snowflake.Node) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	return NewRegistry(zap.NewNop(), nil), node
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	registry, node := newTestRegistry(t)
	channelID := node.Generate()

	subs := make([]*fakeSubscriber, 5)
	for i := range subs {
		subs[i] = &fakeSubscriber{}
		if err := registry.Subscribe(subs[i], channelID); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
	}

	registry.Broadcast(channelID, ServerFrame{Type: FrameMessage, ChannelID: channelID.String()})

	for i, sub := range subs {
		if len(sub.frames) != 1 {
			t.Fatalf("subscriber %d got %d frames, want 1", i, len(sub.frames))
		}
		var frame ServerFrame
		if err := json.Unmarshal(sub.frames[0], &frame); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if frame.ChannelID != channelID.String() {
			t.Fatalf("frame for wrong channel %s", frame.ChannelID)
		}
	}
}

func TestBroadcastScopedToChannel(t *testing.T) {
	registry, node := newTestRegistry(t)
	chA, chB := node.Generate(), node.Generate()

	subA, subB := &fakeSubscriber{}, &fakeSubscriber{}
	if err := registry.Subscribe(subA, chA); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := registry.Subscribe(subB, chB); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	registry.Broadcast(chA, ServerFrame{Type: FrameMessage})

	if len(subA.frames) != 1 {
		t.Fatalf("expected frame for channel A subscriber")
	}
	if len(subB.frames) != 0 {
		t.Fatalf("channel B subscriber must not receive channel A traffic")
	}
}

func TestSlowSubscriberIsSkipped(t *testing.T) {
	registry, node := newTestRegistry(t)
	channelID := node.Generate()

	healthy := &fakeSubscriber{}
	stuck := &fakeSubscriber{full: true}
	if err := registry.Subscribe(healthy, channelID); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := registry.Subscribe(stuck, channelID); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	registry.Broadcast(channelID, ServerFrame{Type: FrameMessage})

	if len(healthy.frames) != 1 {
		t.Fatalf("healthy subscriber should still receive the frame")
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	registry, node := newTestRegistry(t)
	channelID := node.Generate()
	sub := &fakeSubscriber{}

	if err := registry.Subscribe(sub, channelID); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := registry.Subscribe(sub, channelID); err != nil {
		t.Fatalf("repeated subscribe failed: %v", err)
	}

	registry.Broadcast(channelID, ServerFrame{Type: FrameMessage})
	if len(sub.frames) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(sub.frames))
	}
}

func TestSubscriptionCap(t *testing.T) {
	registry, node := newTestRegistry(t)
	sub := &fakeSubscriber{}

	for i := 0; i < MaxSubscriptionsPerConn; i++ {
		if err := registry.Subscribe(sub, node.Generate()); err != nil {
			t.Fatalf("subscribe %d failed: %v", i, err)
		}
	}

	err := registry.Subscribe(sub, node.Generate())
	if err != ErrTooManySubscriptions {
		t.Fatalf("expected ErrTooManySubscriptions, got %v", err)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	registry, node := newTestRegistry(t)
	channelID := node.Generate()
	sub := &fakeSubscriber{}

	if err := registry.Subscribe(sub, channelID); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	registry.Unsubscribe(sub, channelID)

	registry.Broadcast(channelID, ServerFrame{Type: FrameMessage})
	if len(sub.frames) != 0 {
		t.Fatalf("unsubscribed subscriber must not receive frames")
	}
}

func TestRemoveCleansEverySubscription(t *testing.T) {
	registry, node := newTestRegistry(t)
	sub := &fakeSubscriber{}

	channels := make([]snowflake.ID, 4)
	for i := range channels {
		channels[i] = node.Generate()
		if err := registry.Subscribe(sub, channels[i]); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
	}

	registry.Remove(sub)

	if got := registry.Subscriptions(sub); got != 0 {
		t.Fatalf("expected 0 subscriptions after remove, got %d", got)
	}
	for _, channelID := range channels {
		registry.Broadcast(channelID, ServerFrame{Type: FrameMessage})
	}
	if len(sub.frames) != 0 {
		t.Fatalf("removed subscriber must not receive frames")
	}

	// A removed connection can immediately resubscribe up to the cap.
	if err := registry.Subscribe(sub, channels[0]); err != nil {
		t.Fatalf("resubscribe failed: %v", err)
	}
}

func TestAccountIndexTracksConnections(t *testing.T) {
	registry, node := newTestRegistry(t)
	accountID := node.Generate()

	first, second := &fakeSubscriber{}, &fakeSubscriber{}
	registry.Attach(first, accountID)
	registry.Attach(second, accountID)

	if got := registry.ConnectionsForAccount(accountID); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}

	registry.Remove(first)
	if got := registry.ConnectionsForAccount(accountID); got != 1 {
		t.Fatalf("expected 1 connection after remove, got %d", got)
	}

	registry.Remove(second)
	if got := registry.ConnectionsForAccount(accountID); got != 0 {
		t.Fatalf("expected empty index after last remove, got %d", got)
	}
}

func TestConcurrentBroadcastAndChurn(t *testing.T) {
	registry, node := newTestRegistry(t)
	channelID := node.Generate()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			registry.Broadcast(channelID, ServerFrame{Type: FrameMessage, Message: fmt.Sprintf("m%d", i)})
		}
	}()

	for i := 0; i < 100; i++ {
		sub := &fakeSubscriber{}
		if err := registry.Subscribe(sub, channelID); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		registry.Remove(sub)
	}
	<-done
}
