package realtime

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/steeplehq/steeple/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// MaxSubscriptionsPerConn caps how many channels a single connection
// may subscribe to.
const MaxSubscriptionsPerConn = 32

var ErrTooManySubscriptions = errors.New("subscription limit reached for this connection")

// Subscriber receives marshaled frames without blocking the sender.
type Subscriber interface {
	TrySend(frame []byte) bool
}

// Registry tracks which subscribers are attached to which channels and
// fans out published frames. All state is in-process.
type Registry struct {
	log     *zap.Logger
	metrics *metrics.Metrics

	mu        sync.RWMutex
	channels  map[snowflake.ID]map[Subscriber]struct{}
	bySub     map[Subscriber]map[snowflake.ID]struct{}
	byAccount map[snowflake.ID]map[Subscriber]struct{}
	accountOf map[Subscriber]snowflake.ID
}

func NewRegistry(log *zap.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		log:       log.Named("realtime.registry"),
		metrics:   m,
		channels:  make(map[snowflake.ID]map[Subscriber]struct{}),
		bySub:     make(map[Subscriber]map[snowflake.ID]struct{}),
		byAccount: make(map[snowflake.ID]map[Subscriber]struct{}),
		accountOf: make(map[Subscriber]snowflake.ID),
	}
}

// Attach records a live connection under its owning account. Call once
// per connection, before any Subscribe.
func (r *Registry) Attach(sub Subscriber, accountID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byAccount[accountID] == nil {
		r.byAccount[accountID] = make(map[Subscriber]struct{})
	}
	r.byAccount[accountID][sub] = struct{}{}
	r.accountOf[sub] = accountID
}

// ConnectionsForAccount reports how many live connections an account
// currently holds.
func (r *Registry) ConnectionsForAccount(accountID snowflake.ID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAccount[accountID])
}

// Subscribe attaches sub to a channel. Subscribing twice to the same
// channel is a no-op.
func (r *Registry) Subscribe(sub Subscriber, channelID snowflake.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.bySub[sub]
	if _, ok := existing[channelID]; ok {
		return nil
	}
	if len(existing) >= MaxSubscriptionsPerConn {
		return ErrTooManySubscriptions
	}

	if r.channels[channelID] == nil {
		r.channels[channelID] = make(map[Subscriber]struct{})
	}
	r.channels[channelID][sub] = struct{}{}

	if existing == nil {
		existing = make(map[snowflake.ID]struct{})
		r.bySub[sub] = existing
	}
	existing[channelID] = struct{}{}

	if r.metrics != nil {
		r.metrics.SubscriptionAdded()
	}
	return nil
}

// Unsubscribe detaches sub from a channel.
func (r *Registry) Unsubscribe(sub Subscriber, channelID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bySub[sub][channelID]; !ok {
		return
	}
	r.detach(sub, channelID)
	if r.metrics != nil {
		r.metrics.SubscriptionRemoved(1)
	}
}

// Remove detaches sub from every channel and from the account index.
// Called when a connection closes for any reason.
func (r *Registry) Remove(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.bySub[sub])
	for channelID := range r.bySub[sub] {
		r.detach(sub, channelID)
	}
	if removed > 0 && r.metrics != nil {
		r.metrics.SubscriptionRemoved(removed)
	}

	if accountID, ok := r.accountOf[sub]; ok {
		delete(r.byAccount[accountID], sub)
		if len(r.byAccount[accountID]) == 0 {
			delete(r.byAccount, accountID)
		}
		delete(r.accountOf, sub)
	}
}

// detach updates both indexes. Callers must hold the write lock.
func (r *Registry) detach(sub Subscriber, channelID snowflake.ID) {
	delete(r.channels[channelID], sub)
	if len(r.channels[channelID]) == 0 {
		delete(r.channels, channelID)
	}
	delete(r.bySub[sub], channelID)
	if len(r.bySub[sub]) == 0 {
		delete(r.bySub, sub)
	}
}

// Subscriptions returns how many channels sub is attached to.
func (r *Registry) Subscriptions(sub Subscriber) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySub[sub])
}

// Broadcast delivers a frame to every current subscriber of the
// channel. Slow subscribers are skipped rather than blocked on.
func (r *Registry) Broadcast(channelID snowflake.ID, frame ServerFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		r.log.Error("failed to marshal frame", zap.Error(err))
		return
	}

	r.mu.RLock()
	subs := make([]Subscriber, 0, len(r.channels[channelID]))
	for sub := range r.channels[channelID] {
		subs = append(subs, sub)
	}
	r.mu.RUnlock()

	for _, sub := range subs {
		if sub.TrySend(payload) {
			if r.metrics != nil {
				r.metrics.MessageDelivered(frame.Type)
			}
		} else if r.metrics != nil {
			r.metrics.MessageDropped(frame.Type)
		}
	}
}

var Module = fx.Module("realtime",
	fx.Provide(NewRegistry),
)
