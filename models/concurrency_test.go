package models_test

import (
	"sync"
	"testing"

	"github.com/mmfurniture/store_backend/models"
	"github.com/shopspring/decimal"
)

// Two staff installing the last two items of an order at the same moment must
// still leave the order Completed: the completion check locks the order row,
// so the later transaction counts the earlier one's committed install instead
// of a stale snapshot.
func TestConcurrentLastInstallsCompleteOrder(t *testing.T) {
	ctx := setupIntegration(t)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductName: "Bed Frame", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(400)},
			{ProductName: "Headboard", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(120)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	walk := []models.OrderItemStatus{
		models.OrderItemStatusOrdered,
		models.OrderItemStatusInTransit,
		models.OrderItemStatusInStock,
		models.OrderItemStatusInstalling,
	}
	for _, item := range order.Items {
		for _, status := range walk {
			if _, err := models.UpdateOrderItemStatus(ctx, item.ID, status); err != nil {
				t.Fatalf("UpdateOrderItemStatus(%s): %v", status, err)
			}
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, len(order.Items))
	for i, item := range order.Items {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			_, errs[i] = models.UpdateOrderItemStatus(ctx, id, models.OrderItemStatusInstalled)
		}(i, item.ID)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent install %d: %v", i, err)
		}
	}

	got, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Status != models.OrderStatusCompleted {
		t.Fatalf("expected Completed after both installs; got %s", got.Status)
	}
	if got.CompletionDate == nil {
		t.Fatalf("completion date not stamped")
	}
}

// Two identical transitions racing on one line item must apply once. The item
// row lock serializes them: the loser re-validates against the winner's
// committed status, fails, and leaves neither a duplicate log row nor a
// second stock decrement behind.
func TestConcurrentSameTransitionAppliesOnce(t *testing.T) {
	ctx := setupIntegration(t)

	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:      "Side Table",
		UnitPrice: decimal.NewFromInt(90),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if err := models.IncreaseStock(ctx, product.ID, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("IncreaseStock: %v", err)
	}

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductId: &product.ID, Quantity: decimal.NewFromInt(2), ActualUnitPrice: decimal.NewFromInt(90)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	item := order.Items[0]
	for _, status := range []models.OrderItemStatus{
		models.OrderItemStatusOrdered,
		models.OrderItemStatusInTransit,
	} {
		if _, err := models.UpdateOrderItemStatus(ctx, item.ID, status); err != nil {
			t.Fatalf("UpdateOrderItemStatus(%s): %v", status, err)
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = models.UpdateOrderItemStatus(ctx, item.ID, models.OrderItemStatusInStock)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one racing transition to win; got %d (errs: %v)", succeeded, errs)
	}

	logs, err := models.GetOrderItemStatusLogs(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetOrderItemStatusLogs: %v", err)
	}
	arrivals := 0
	for _, log := range logs {
		if log.ToStatus == models.OrderItemStatusInStock {
			arrivals++
		}
	}
	if arrivals != 1 {
		t.Fatalf("expected one InStock log row; got %d", arrivals)
	}

	qty, err := models.GetStandardStock(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetStandardStock: %v", err)
	}
	if qty.Cmp(decimal.NewFromInt(3)) != 0 {
		t.Fatalf("expected stock consumed once (5-2=3); got %s", qty)
	}
}
