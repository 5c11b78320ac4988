package changefeed

import (
	"context"

	"github.com/mmfurniture/store_backend/models"
	"github.com/mmfurniture/store_backend/utils"
)

// The view constructors below are the snapshot queries the UI tier
// subscribes with. Each closure carries its own storeId so a subscription
// keeps working regardless of what context the dispatcher broadcasts with.

func OrdersView(storeId string) SnapshotFunc {
	return func(ctx context.Context) (interface{}, error) {
		ctx = utils.SetStoreIdInContext(ctx, storeId)
		return models.GetOrders(ctx, nil)
	}
}

func OrderItemsView(storeId string, orderId int) SnapshotFunc {
	return func(ctx context.Context) (interface{}, error) {
		ctx = utils.SetStoreIdInContext(ctx, storeId)
		return models.GetOrderItems(ctx, orderId)
	}
}

func InventoryView(storeId string) SnapshotFunc {
	return func(ctx context.Context) (interface{}, error) {
		ctx = utils.SetStoreIdInContext(ctx, storeId)
		return models.GetInventoryItems(ctx)
	}
}

func StatusLogsView(storeId string, orderItemId int) SnapshotFunc {
	return func(ctx context.Context) (interface{}, error) {
		ctx = utils.SetStoreIdInContext(ctx, storeId)
		return models.GetOrderItemStatusLogs(ctx, orderItemId)
	}
}

// SubscribeOrders and friends wrap Subscribe with the matching view; the
// table names line up with what the models layer passes to RecordChange.

func (f *Feed) SubscribeOrders(ctx context.Context, storeId string) (*Subscription, error) {
	return f.Subscribe(ctx, storeId, "orders", OrdersView(storeId))
}

func (f *Feed) SubscribeOrderItems(ctx context.Context, storeId string, orderId int) (*Subscription, error) {
	return f.Subscribe(ctx, storeId, "order_items", OrderItemsView(storeId, orderId))
}

func (f *Feed) SubscribeInventory(ctx context.Context, storeId string) (*Subscription, error) {
	return f.Subscribe(ctx, storeId, "inventory_items", InventoryView(storeId))
}

func (f *Feed) SubscribeStatusLogs(ctx context.Context, storeId string, orderItemId int) (*Subscription, error) {
	return f.Subscribe(ctx, storeId, "order_item_status_logs", StatusLogsView(storeId, orderItemId))
}
