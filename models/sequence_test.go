package models_test

import (
	"testing"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/models"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
)

// A cold cache must resync from max(sequence_no) in the db and keep
// advancing, never re-handing a number an existing row already holds.
func TestSequenceRecoversFromColdCache(t *testing.T) {
	ctx := setupIntegration(t)
	storeId, _ := utils.GetStoreIdFromContext(ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		Items: []*models.NewOrderItem{
			{ProductName: "Bench", Quantity: decimal.NewFromInt(1), ActualUnitPrice: decimal.NewFromInt(60)},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	taken := order.SequenceNo.IntPart()

	if err := config.ClearRedis(ctx); err != nil {
		t.Fatalf("ClearRedis: %v", err)
	}

	first, err := utils.GetSequence[models.Order](ctx, storeId)
	if err != nil {
		t.Fatalf("GetSequence after cold cache: %v", err)
	}
	if first != taken+1 {
		t.Fatalf("expected %d after resync; got %d", taken+1, first)
	}

	second, err := utils.GetSequence[models.Order](ctx, storeId)
	if err != nil {
		t.Fatalf("GetSequence: %v", err)
	}
	if second <= first {
		t.Fatalf("sequence did not advance: %d then %d", first, second)
	}
}
