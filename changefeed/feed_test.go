package changefeed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	feed := NewFeed(nil)
	ctx := context.Background()

	var calls int32
	sub, err := feed.Subscribe(ctx, "store-1", "orders", func(ctx context.Context) (interface{}, error) {
		n := atomic.AddInt32(&calls, 1)
		return int(n), nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case got := <-sub.Out:
		if got.(int) != 1 {
			t.Fatalf("expected initial snapshot 1; got %v", got)
		}
	default:
		t.Fatalf("no initial snapshot delivered")
	}
}

func TestSubscribeFailsWhenSnapshotFails(t *testing.T) {
	feed := NewFeed(nil)
	boom := errors.New("boom")

	_, err := feed.Subscribe(context.Background(), "store-1", "orders", func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected snapshot error; got %v", err)
	}
	if feed.SubscriberCount("store-1", "orders") != 0 {
		t.Fatalf("failed subscribe leaked a subscription")
	}
}

func TestBroadcastIsScopedAndCoalesces(t *testing.T) {
	feed := NewFeed(nil)
	ctx := context.Background()

	next := int32(0)
	snapshot := func(ctx context.Context) (interface{}, error) {
		return int(atomic.AddInt32(&next, 1)), nil
	}

	sub, err := feed.Subscribe(ctx, "store-1", "orders", snapshot)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	otherStore, err := feed.Subscribe(ctx, "store-2", "orders", snapshot)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer otherStore.Close()

	otherTable, err := feed.Subscribe(ctx, "store-1", "inventory_items", snapshot)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer otherTable.Close()

	// drain initial snapshots
	<-sub.Out
	<-otherStore.Out
	<-otherTable.Out

	// slow consumer: two broadcasts without a read coalesce to the latest
	feed.Broadcast(ctx, "store-1", "orders")
	feed.Broadcast(ctx, "store-1", "orders")

	got := <-sub.Out
	latest := int(atomic.LoadInt32(&next))
	if got.(int) != latest {
		t.Fatalf("expected latest snapshot %d; got %v", latest, got)
	}
	select {
	case extra := <-sub.Out:
		t.Fatalf("expected coalesced delivery, got extra %v", extra)
	default:
	}

	// unrelated subscribers saw nothing
	select {
	case v := <-otherStore.Out:
		t.Fatalf("other store received %v", v)
	default:
	}
	select {
	case v := <-otherTable.Out:
		t.Fatalf("other table received %v", v)
	default:
	}
}

func TestCloseRemovesSubscription(t *testing.T) {
	feed := NewFeed(nil)
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx, "store-1", "orders", func(ctx context.Context) (interface{}, error) {
		return "snap", nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if feed.SubscriberCount("store-1", "orders") != 1 {
		t.Fatalf("expected 1 subscriber")
	}
	sub.Close()
	if feed.SubscriberCount("store-1", "orders") != 0 {
		t.Fatalf("expected 0 subscribers after close")
	}
	// double close is harmless
	sub.Close()
}
