package models_test

import (
	"errors"
	"testing"

	"github.com/mmfurniture/store_backend/models"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
)

func TestStandardStockDecrementGuardsAvailability(t *testing.T) {
	ctx := setupIntegration(t)

	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:      "Dining Table",
		Category:  "Tables",
		UnitPrice: decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	if err := models.IncreaseStock(ctx, product.ID, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("IncreaseStock: %v", err)
	}
	if err := models.DecreaseStock(ctx, product.ID, decimal.NewFromInt(3)); err != nil {
		t.Fatalf("DecreaseStock(3): %v", err)
	}

	qty, err := models.GetStandardStock(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetStandardStock: %v", err)
	}
	if qty.Cmp(decimal.NewFromInt(2)) != 0 {
		t.Fatalf("expected 2 on hand; got %s", qty)
	}

	// 3 > 2: fails with diagnostics and changes nothing
	err = models.DecreaseStock(ctx, product.ID, decimal.NewFromInt(3))
	var insufficient *utils.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError; got %v", err)
	}
	if insufficient.Requested.Cmp(decimal.NewFromInt(3)) != 0 ||
		insufficient.Available.Cmp(decimal.NewFromInt(2)) != 0 {
		t.Fatalf("expected requested=3 available=2; got %+v", insufficient)
	}

	qty, err = models.GetStandardStock(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetStandardStock: %v", err)
	}
	if qty.Cmp(decimal.NewFromInt(2)) != 0 {
		t.Fatalf("failed decrement mutated quantity: %s", qty)
	}

	// decrement against a product with no stock row at all
	other, err := models.CreateProduct(ctx, &models.NewProduct{Name: "Bench"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	err = models.DecreaseStock(ctx, other.ID, decimal.NewFromInt(1))
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError for missing row; got %v", err)
	}
	if !insufficient.Available.IsZero() {
		t.Fatalf("expected available=0; got %s", insufficient.Available)
	}

	// repeated increases accumulate
	if err := models.IncreaseStock(ctx, product.ID, decimal.NewFromInt(4)); err != nil {
		t.Fatalf("IncreaseStock: %v", err)
	}
	qty, _ = models.GetStandardStock(ctx, product.ID)
	if qty.Cmp(decimal.NewFromInt(6)) != 0 {
		t.Fatalf("expected 6 after accumulate; got %s", qty)
	}
}

func TestReservationBindsOneUnitToOneItem(t *testing.T) {
	ctx := setupIntegration(t)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductName: "Custom Sofa A", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(900), IsCustomized: true},
			{ProductName: "Custom Sofa B", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(900), IsCustomized: true},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	itemA, itemB := order.Items[0], order.Items[1]

	unit, err := models.AddCustomizedUnit(ctx, &models.NewCustomizedUnit{
		CustomizationDetails: "green velvet, L-shape",
	})
	if err != nil {
		t.Fatalf("AddCustomizedUnit: %v", err)
	}
	if unit.Quantity.Cmp(decimal.NewFromInt(1)) != 0 {
		t.Fatalf("customized unit quantity must be 1; got %s", unit.Quantity)
	}

	reserved, err := models.ReserveForOrderItem(ctx, unit.ID, itemA.ID)
	if err != nil {
		t.Fatalf("ReserveForOrderItem: %v", err)
	}
	if reserved.Status != models.InventoryItemStatusReserved {
		t.Fatalf("expected Reserved; got %s", reserved.Status)
	}

	// same binding again is a no-op, different item is refused
	if _, err := models.ReserveForOrderItem(ctx, unit.ID, itemA.ID); err != nil {
		t.Fatalf("repeat reservation should be idempotent: %v", err)
	}
	_, err = models.ReserveForOrderItem(ctx, unit.ID, itemB.ID)
	if !errors.Is(err, models.ErrorAlreadyReserved) {
		t.Fatalf("expected ErrorAlreadyReserved; got %v", err)
	}
	got, err := models.GetInventoryItems(ctx)
	if err != nil {
		t.Fatalf("GetInventoryItems: %v", err)
	}
	if len(got) != 1 || *got[0].ReservedForOrderItemId != itemA.ID {
		t.Fatalf("failed reservation mutated the row: %+v", got[0])
	}

	// installing the reserved item consumes the unit by marking it Sold
	walk := []models.OrderItemStatus{
		models.OrderItemStatusOrdered,
		models.OrderItemStatusInTransit,
		models.OrderItemStatusInStock,
		models.OrderItemStatusInstalling,
		models.OrderItemStatusInstalled,
	}
	for _, status := range walk {
		if _, err := models.UpdateOrderItemStatus(ctx, itemA.ID, status); err != nil {
			t.Fatalf("UpdateOrderItemStatus(%s): %v", status, err)
		}
	}
	got, err = models.GetInventoryItems(ctx)
	if err != nil {
		t.Fatalf("GetInventoryItems: %v", err)
	}
	if got[0].Status != models.InventoryItemStatusSold {
		t.Fatalf("expected Sold after install; got %s", got[0].Status)
	}

	released, err := models.ReleaseReservation(ctx, unit.ID)
	if err != nil {
		t.Fatalf("ReleaseReservation: %v", err)
	}
	if released.ReservedForOrderItemId != nil {
		t.Fatalf("release did not unbind the unit")
	}
}

func TestInStockTransitionConsumesStandardStock(t *testing.T) {
	ctx := setupIntegration(t)

	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:      "Bookcase",
		UnitPrice: decimal.NewFromInt(150),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if err := models.IncreaseStock(ctx, product.ID, decimal.NewFromInt(4)); err != nil {
		t.Fatalf("IncreaseStock: %v", err)
	}

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductId: &product.ID, Quantity: decimal.NewFromInt(3), ActualUnitPrice: decimal.NewFromInt(150)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	item := order.Items[0]
	if item.ProductName != "Bookcase" {
		t.Fatalf("catalog snapshot not copied: %q", item.ProductName)
	}

	for _, status := range []models.OrderItemStatus{
		models.OrderItemStatusOrdered,
		models.OrderItemStatusInTransit,
		models.OrderItemStatusInStock,
	} {
		if _, err := models.UpdateOrderItemStatus(ctx, item.ID, status); err != nil {
			t.Fatalf("UpdateOrderItemStatus(%s): %v", status, err)
		}
	}

	qty, err := models.GetStandardStock(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetStandardStock: %v", err)
	}
	if qty.Cmp(decimal.NewFromInt(1)) != 0 {
		t.Fatalf("expected 1 left after arrival consumed 3; got %s", qty)
	}
}
