package models_test

import (
	"testing"
	"time"

	"github.com/mmfurniture/store_backend/changefeed"
	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/models"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
)

// End to end over the outbox: a committed mutation leaves pending change
// records, one dispatch pass marks them processed and pushes a fresh snapshot
// to the subscriber, and a pass with nothing to claim stays silent.
func TestDispatchDeliversCommittedChanges(t *testing.T) {
	ctx := setupIntegration(t)
	storeId, _ := utils.GetStoreIdFromContext(ctx)
	db := config.GetDB()

	feed := changefeed.NewFeed(config.GetLogger())
	dispatcher := changefeed.NewDispatcher(db, feed, config.GetLogger())

	// drain the records setup left behind so the assertions see only ours
	dispatcher.DispatchOnce(ctx)

	sub, err := feed.Subscribe(ctx, storeId, "orders", changefeed.OrdersView(storeId))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	initial := <-sub.Out
	if orders, ok := initial.([]*models.Order); !ok || len(orders) != 0 {
		t.Fatalf("expected empty initial snapshot; got %#v", initial)
	}

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductName: "Stool", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(25)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	dispatcher.DispatchOnce(ctx)

	select {
	case got := <-sub.Out:
		orders, ok := got.([]*models.Order)
		if !ok || len(orders) != 1 || orders[0].ID != order.ID {
			t.Fatalf("expected snapshot carrying the new order; got %#v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no snapshot delivered after dispatch")
	}

	var pending int64
	err = db.WithContext(ctx).Model(&models.ChangeRecord{}).
		Where("store_id = ? AND status = ?", storeId, models.ChangeStatusPending).
		Count(&pending).Error
	if err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pending != 0 {
		t.Fatalf("expected no pending records after dispatch; got %d", pending)
	}

	var stamped int64
	err = db.WithContext(ctx).Model(&models.ChangeRecord{}).
		Where("store_id = ? AND table_name = ? AND status = ? AND processed_at IS NOT NULL",
			storeId, "orders", models.ChangeStatusProcessed).
		Count(&stamped).Error
	if err != nil {
		t.Fatalf("count processed: %v", err)
	}
	if stamped == 0 {
		t.Fatalf("processed records missing processed_at")
	}

	// nothing left to claim: a second pass must not broadcast
	dispatcher.DispatchOnce(ctx)
	select {
	case got := <-sub.Out:
		t.Fatalf("dispatch with empty outbox broadcast %#v", got)
	case <-time.After(300 * time.Millisecond):
	}
}
