package models_test

import (
	"testing"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/models"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
)

func TestMutationsLeaveChangeRecords(t *testing.T) {
	ctx := setupIntegration(t)
	storeId, _ := utils.GetStoreIdFromContext(ctx)
	db := config.GetDB()

	countPending := func(table string) int64 {
		var n int64
		err := db.WithContext(ctx).Model(&models.ChangeRecord{}).
			Where("store_id = ? AND table_name = ? AND status = ?", storeId, table, models.ChangeStatusPending).
			Count(&n).Error
		if err != nil {
			t.Fatalf("count change records: %v", err)
		}
		return n
	}

	ordersBefore := countPending("orders")
	itemsBefore := countPending("order_items")

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductName: "Stool", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(25)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if countPending("orders") != ordersBefore+1 {
		t.Fatalf("expected one new pending record for orders")
	}
	if countPending("order_items") != itemsBefore+1 {
		t.Fatalf("expected one new pending record for order_items")
	}

	// a failed mutation must not leave records behind
	pendingBefore := countPending("orders")
	_, err = models.CreateOrder(ctx, &models.NewOrder{
		OrderNumber: order.OrderNumber,
		Items: []*models.NewOrderItem{
			{ProductName: "Stool", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(25)},
		},
	})
	if err == nil {
		t.Fatalf("expected duplicate order number to fail")
	}
	if countPending("orders") != pendingBefore {
		t.Fatalf("rolled-back mutation left change records")
	}
}
