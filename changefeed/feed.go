package changefeed

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SnapshotFunc re-runs the subscriber's query and returns the full current
// snapshot. Subscribers get whole snapshots on every change, never deltas.
type SnapshotFunc func(ctx context.Context) (interface{}, error)

type Subscription struct {
	ID       string
	StoreId  string
	Table    string
	Snapshot SnapshotFunc

	// Out carries one full snapshot per delivered change. Sends are
	// non-blocking with capacity 1: a slow consumer coalesces bursts into
	// the latest snapshot instead of stalling the feed.
	Out chan interface{}

	feed *Feed
}

func (s *Subscription) Close() {
	if s.feed != nil {
		s.feed.unsubscribe(s)
	}
}

// Feed fans committed-change notifications out to in-process subscribers,
// keyed by (storeId, table).
type Feed struct {
	mu     sync.RWMutex
	subs   map[string]map[string][]*Subscription // storeId -> table -> subs
	logger *logrus.Logger
}

func NewFeed(logger *logrus.Logger) *Feed {
	return &Feed{
		subs:   make(map[string]map[string][]*Subscription),
		logger: logger,
	}
}

// Subscribe registers interest in one table of one store. The initial
// snapshot is delivered immediately so a new subscriber never starts blank.
func (f *Feed) Subscribe(ctx context.Context, storeId string, table string, snapshot SnapshotFunc) (*Subscription, error) {
	sub := &Subscription{
		ID:       uuid.NewString(),
		StoreId:  storeId,
		Table:    table,
		Snapshot: snapshot,
		Out:      make(chan interface{}, 1),
		feed:     f,
	}

	initial, err := snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sub.Out <- initial

	f.mu.Lock()
	byTable, ok := f.subs[storeId]
	if !ok {
		byTable = make(map[string][]*Subscription)
		f.subs[storeId] = byTable
	}
	byTable[table] = append(byTable[table], sub)
	f.mu.Unlock()

	return sub, nil
}

func (f *Feed) unsubscribe(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byTable, ok := f.subs[sub.StoreId]
	if !ok {
		return
	}
	list := byTable[sub.Table]
	for i, s := range list {
		if s.ID == sub.ID {
			byTable[sub.Table] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(byTable[sub.Table]) == 0 {
		delete(byTable, sub.Table)
	}
	if len(byTable) == 0 {
		delete(f.subs, sub.StoreId)
	}
}

// Broadcast re-queries and delivers a fresh snapshot to every subscriber of
// (storeId, table). Each subscriber runs its own snapshot query, so
// concurrent subscribers stay independent.
func (f *Feed) Broadcast(ctx context.Context, storeId string, table string) {
	f.mu.RLock()
	var targets []*Subscription
	if byTable, ok := f.subs[storeId]; ok {
		targets = append(targets, byTable[table]...)
	}
	f.mu.RUnlock()

	for _, sub := range targets {
		snapshot, err := sub.Snapshot(ctx)
		if err != nil {
			if f.logger != nil {
				f.logger.WithFields(logrus.Fields{
					"store_id": storeId,
					"table":    table,
					"sub_id":   sub.ID,
				}).Error("changefeed snapshot query failed: " + err.Error())
			}
			continue
		}
		// drain the stale snapshot, if any, then deliver the fresh one
		select {
		case <-sub.Out:
		default:
		}
		select {
		case sub.Out <- snapshot:
		default:
		}
	}
}

// SubscriberCount reports active subscriptions for one (store, table) pair.
func (f *Feed) SubscriberCount(storeId string, table string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if byTable, ok := f.subs[storeId]; ok {
		return len(byTable[table])
	}
	return 0
}
