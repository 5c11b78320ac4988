package models_test

import (
	"errors"
	"testing"

	"github.com/mmfurniture/store_backend/models"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
)

func TestCreateOrderComputesTotalsAndIsAtomic(t *testing.T) {
	ctx := setupIntegration(t)

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "U Ba"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	// 2 x 50 + 1 x 30 = 130; discount 10 -> final 120
	order, err := models.CreateOrder(ctx, &models.NewOrder{
		OrderNumber: "ORD-T-1",
		CustomerId:  &customer.ID,
		Discount:    decimal.NewFromInt(10),
		Items: []*models.NewOrderItem{
			{ProductName: "Sofa", Quantity: decimal.NewFromInt(2), ActualUnitPrice: decimal.NewFromInt(50)},
			{ProductName: "Lamp", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(30)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.TotalAmount.Cmp(decimal.NewFromInt(130)) != 0 {
		t.Fatalf("expected total 130; got %s", order.TotalAmount)
	}
	if order.FinalAmount.Cmp(decimal.NewFromInt(120)) != 0 {
		t.Fatalf("expected final 120; got %s", order.FinalAmount)
	}
	if order.Status != models.OrderStatusPending {
		t.Fatalf("expected Pending; got %s", order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items; got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if item.Status != models.OrderItemStatusNotOrdered {
			t.Fatalf("expected item NotOrdered; got %s", item.Status)
		}
		if item.OrderId != order.ID {
			t.Fatalf("item not bound to order")
		}
	}

	// duplicate order number must fail and leave no partial rows behind
	before, err := models.GetOrderItems(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrderItems: %v", err)
	}
	_, err = models.CreateOrder(ctx, &models.NewOrder{
		OrderNumber: "ORD-T-1",
		Items: []*models.NewOrderItem{
			{ProductName: "Chair", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(5)},
		},
	})
	if err == nil {
		t.Fatalf("expected duplicate order number to fail")
	}
	orders, err := models.GetOrders(ctx, nil)
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order after failed create; got %d", len(orders))
	}
	after, err := models.GetOrderItems(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrderItems: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("failed create leaked items: %d -> %d", len(before), len(after))
	}

	// rejected inputs
	if _, err := models.CreateOrder(ctx, &models.NewOrder{Items: nil}); err == nil {
		t.Fatalf("expected empty items to fail")
	}
	_, err = models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductName: "Bad", Quantity: decimal.Zero, ActualUnitPrice: decimal.NewFromInt(5)},
		},
	})
	if err == nil {
		t.Fatalf("expected zero quantity to fail")
	}
}

func TestItemStatusWalkCompletesOrder(t *testing.T) {
	ctx := setupIntegration(t)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductName: "Wardrobe", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(500)},
			{ProductName: "Mirror", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(80)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	first, second := order.Items[0], order.Items[1]

	walk := []models.OrderItemStatus{
		models.OrderItemStatusOrdered,
		models.OrderItemStatusInTransit,
		models.OrderItemStatusInStock,
		models.OrderItemStatusInstalling,
		models.OrderItemStatusInstalled,
	}
	for _, status := range walk {
		if _, err := models.UpdateOrderItemStatus(ctx, first.ID, status); err != nil {
			t.Fatalf("UpdateOrderItemStatus(%s): %v", status, err)
		}
	}

	logs, err := models.GetOrderItemStatusLogs(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetOrderItemStatusLogs: %v", err)
	}
	if len(logs) != 5 {
		t.Fatalf("expected 5 log rows; got %d", len(logs))
	}
	for i, log := range logs {
		if log.ToStatus != walk[i] {
			t.Fatalf("log %d: expected %s; got %s", i, walk[i], log.ToStatus)
		}
		if i > 0 && logs[i].CreatedAt.Before(logs[i-1].CreatedAt) {
			t.Fatalf("log timestamps not monotonic at %d", i)
		}
	}

	item, err := models.GetOrderItem(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetOrderItem: %v", err)
	}
	if item.OrderedFromVendorAt == nil || item.ArrivedAtStockAt == nil || item.InstalledAt == nil {
		t.Fatalf("milestone timestamps not stamped: %+v", item)
	}
	if item.StatusLastUpdateStaffId == nil || item.StatusLastUpdatedAt == nil {
		t.Fatalf("status stamps missing")
	}

	// one item still open: order is Processing, not Completed
	got, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Status != models.OrderStatusProcessing {
		t.Fatalf("expected Processing with one open item; got %s", got.Status)
	}

	for _, status := range walk {
		if _, err := models.UpdateOrderItemStatus(ctx, second.ID, status); err != nil {
			t.Fatalf("UpdateOrderItemStatus(%s): %v", status, err)
		}
	}

	got, err = models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Status != models.OrderStatusCompleted {
		t.Fatalf("expected Completed after last install; got %s", got.Status)
	}
	if got.CompletionDate == nil {
		t.Fatalf("completion date not set")
	}

	// strict mode: jumps and backward moves are rejected
	extra, err := models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductName: "Desk", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(60)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	itemId := extra.Items[0].ID
	if _, err := models.UpdateOrderItemStatus(ctx, itemId, models.OrderItemStatusInStock); err == nil {
		t.Fatalf("expected jump NotOrdered->InStock to fail")
	}
	if _, err := models.UpdateOrderItemStatus(ctx, itemId, models.OrderItemStatusOrdered); err != nil {
		t.Fatalf("single step failed: %v", err)
	}
	if _, err := models.UpdateOrderItemStatus(ctx, itemId, models.OrderItemStatusNotOrdered); err == nil {
		t.Fatalf("expected backward move to fail")
	}
}

func TestDeleteOrderKeepsPayments(t *testing.T) {
	ctx := setupIntegration(t)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductName: "Bed", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(200)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	itemId := order.Items[0].ID

	payment, err := models.CreatePayment(ctx, &models.NewPayment{
		OrderId: &order.ID,
		Amount:  decimal.NewFromInt(100),
		Method:  models.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	if _, err := models.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}

	if _, err := models.GetOrder(ctx, order.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected order gone; got %v", err)
	}
	items, err := models.GetOrderItems(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrderItems: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected items cascaded; got %d", len(items))
	}
	logs, err := models.GetOrderItemStatusLogs(ctx, itemId)
	if err != nil {
		t.Fatalf("GetOrderItemStatusLogs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected status logs cascaded; got %d", len(logs))
	}

	// the payment survives with its order reference nulled
	kept, err := models.GetPayment(ctx, payment.ID)
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if kept.OrderId != nil {
		t.Fatalf("expected payment order_id nulled; got %v", *kept.OrderId)
	}
	if kept.Amount.Cmp(decimal.NewFromInt(100)) != 0 {
		t.Fatalf("payment amount changed: %s", kept.Amount)
	}
}

func TestCancelAndCompleteAreGuarded(t *testing.T) {
	ctx := setupIntegration(t)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductName: "Shelf", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(40)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// not complete while the item is open
	completed, err := models.CheckAndCompleteOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("CheckAndCompleteOrder: %v", err)
	}
	if completed {
		t.Fatalf("order completed with open items")
	}

	cancelled, err := models.CancelOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if cancelled.Status != models.OrderStatusCancelled {
		t.Fatalf("expected Cancelled; got %s", cancelled.Status)
	}

	// cancel is idempotent; completion never revives a cancelled order
	if _, err := models.CancelOrder(ctx, order.ID); err != nil {
		t.Fatalf("second CancelOrder: %v", err)
	}
	completed, err = models.CheckAndCompleteOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("CheckAndCompleteOrder: %v", err)
	}
	if completed {
		t.Fatalf("cancelled order flipped to completed")
	}
}
