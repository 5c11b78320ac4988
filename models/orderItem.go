package models

import (
	"context"
	"fmt"
	"time"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderItem carries a snapshot of the catalog fields at order time, so later
// product edits never rewrite what the customer agreed to.
type OrderItem struct {
	ID                      int             `gorm:"primary_key" json:"id"`
	StoreId                 string          `gorm:"index;not null" json:"store_id"`
	OrderId                 int             `gorm:"index;not null" json:"order_id"`
	ProductId               *int            `gorm:"index" json:"product_id"`
	ProductName             string          `gorm:"size:255;not null" json:"product_name"`
	Category                string          `gorm:"size:100" json:"category"`
	Model                   string          `gorm:"size:100" json:"model"`
	Dimensions              string          `gorm:"size:100" json:"dimensions"`
	Color                   string          `gorm:"size:50" json:"color"`
	Quantity                decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	ActualUnitPrice         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"actual_unit_price"`
	ItemTotalAmount         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"item_total_amount"`
	IsCustomized            bool            `gorm:"not null;default:false" json:"is_customized"`
	CustomizationDetails    *string         `gorm:"type:text" json:"customization_details"`
	Status                  OrderItemStatus `gorm:"type:enum('NotOrdered','Ordered','InTransit','InStock','Installing','Installed');not null;default:'NotOrdered'" json:"status"`
	OrderedFromVendorAt     *time.Time      `json:"ordered_from_vendor_at"`
	ArrivedAtStockAt        *time.Time      `json:"arrived_at_stock_at"`
	InstalledAt             *time.Time      `json:"installed_at"`
	StatusLastUpdateStaffId *int            `json:"status_last_update_staff_id"`
	StatusLastUpdatedAt     *time.Time      `json:"status_last_updated_at"`
	Notes                   string          `gorm:"type:text" json:"notes"`
	CreatedAt               time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i OrderItem) GetStoreId() string { return i.StoreId }

type NewOrderItem struct {
	ProductId            *int            `json:"product_id"`
	ProductName          string          `json:"product_name"`
	Quantity             decimal.Decimal `json:"quantity"`
	ActualUnitPrice      decimal.Decimal `json:"actual_unit_price"`
	IsCustomized         bool            `json:"is_customized"`
	CustomizationDetails *string         `json:"customization_details"`
	Notes                string          `json:"notes"`
}

func (input *NewOrderItem) validate(ctx context.Context, storeId string) error {
	if !input.Quantity.IsPositive() {
		return utils.NewValidationError("quantity", "quantity must be positive")
	}
	if input.ActualUnitPrice.IsNegative() {
		return utils.NewValidationError("actual_unit_price", "unit price cannot be negative")
	}
	if input.ProductId == nil && input.ProductName == "" {
		return utils.NewValidationError("product_name", "free-form items need a product name")
	}
	if input.ProductId != nil {
		if err := utils.ValidateResourceId[Product](ctx, storeId, *input.ProductId); err != nil {
			return utils.NewValidationError("product_id", "product not found")
		}
	}
	return nil
}

// build turns the input into a row, copying the catalog snapshot when the
// item references a product.
func (input *NewOrderItem) build(ctx context.Context, storeId string, staffId int) (*OrderItem, error) {
	item := OrderItem{
		StoreId:              storeId,
		ProductId:            input.ProductId,
		ProductName:          input.ProductName,
		Quantity:             input.Quantity,
		ActualUnitPrice:      input.ActualUnitPrice,
		ItemTotalAmount:      input.Quantity.Mul(input.ActualUnitPrice),
		IsCustomized:         input.IsCustomized,
		CustomizationDetails: input.CustomizationDetails,
		Status:               OrderItemStatusNotOrdered,
		Notes:                input.Notes,
	}

	if input.ProductId != nil {
		product, err := GetProduct(ctx, *input.ProductId)
		if err != nil {
			return nil, err
		}
		item.ProductName = product.Name
		item.Category = product.Category
		item.Model = product.Model
		item.Dimensions = product.Dimensions
		item.Color = product.Color
	}
	return &item, nil
}

type OrderItemStatusLog struct {
	ID          int             `gorm:"primary_key" json:"id"`
	StoreId     string          `gorm:"index;not null" json:"store_id"`
	OrderItemId int             `gorm:"index;not null" json:"order_item_id"`
	FromStatus  OrderItemStatus `gorm:"size:20;not null" json:"from_status"`
	ToStatus    OrderItemStatus `gorm:"size:20;not null" json:"to_status"`
	StaffId     int             `gorm:"not null" json:"staff_id"`
	StaffName   string          `gorm:"size:100" json:"staff_name"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func validateTransition(current, next OrderItemStatus) error {
	if !next.IsValid() {
		return utils.NewValidationError("status", "unknown status "+string(next))
	}
	if config.LenientStatusJumps() {
		// legacy mode: any forward move, still never backwards or in place
		if next.Ordinal() <= current.Ordinal() {
			return utils.NewValidationError("status",
				fmt.Sprintf("cannot move from %s to %s", current, next))
		}
		return nil
	}
	expected, err := current.Next()
	if err != nil || next != expected {
		return utils.NewValidationError("status",
			fmt.Sprintf("cannot move from %s to %s", current, next))
	}
	return nil
}

// UpdateOrderItemStatus advances one line item through its lifecycle. The
// item update, the log row, any stock movement and a possible order
// completion all commit together or not at all.
func UpdateOrderItemStatus(ctx context.Context, id int, newStatus OrderItemStatus) (*OrderItem, error) {
	storeId, staffId, err := utils.RequireStoreAndStaff(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	// lock the row so concurrent transitions serialize; the validation below
	// then runs against the committed status, not a stale snapshot
	var item OrderItem
	err = tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ?", storeId).
		First(&item, id).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}
	prevStatus := item.Status
	if err := validateTransition(prevStatus, newStatus); err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"Status":                  newStatus,
		"StatusLastUpdateStaffId": staffId,
		"StatusLastUpdatedAt":     &now,
	}
	switch newStatus {
	case OrderItemStatusOrdered:
		updates["OrderedFromVendorAt"] = &now
	case OrderItemStatusInStock:
		updates["ArrivedAtStockAt"] = &now
	case OrderItemStatusInstalled:
		updates["InstalledAt"] = &now
	}

	if err := tx.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("update item status", err)
	}

	staffName, _ := utils.GetStaffNameFromContext(ctx)
	log := OrderItemStatusLog{
		StoreId:     storeId,
		OrderItemId: id,
		FromStatus:  prevStatus,
		ToStatus:    newStatus,
		StaffId:     staffId,
		StaffName:   staffName,
	}
	if err := tx.WithContext(ctx).Create(&log).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("create status log", err)
	}

	changedTables := []string{"order_items", "order_item_status_logs"}

	if newStatus == OrderItemStatusInStock {
		touched, err := applyArrivalStockEffects(tx.WithContext(ctx), storeId, &item)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if touched {
			changedTables = append(changedTables, "inventory_items")
		}
	}

	if newStatus == OrderItemStatusInstalled {
		if item.IsCustomized {
			if err := markCustomizedUnitSold(tx.WithContext(ctx), storeId, item.ID); err != nil {
				tx.Rollback()
				return nil, err
			}
			changedTables = append(changedTables, "inventory_items")
		}
		if _, err := checkAndCompleteOrder(tx.WithContext(ctx), storeId, item.OrderId); err != nil {
			tx.Rollback()
			return nil, err
		}
	} else {
		// first progress on any item moves the order out of Pending
		err := tx.WithContext(ctx).Model(&Order{}).
			Where("id = ? AND status = ?", item.OrderId, OrderStatusPending).
			UpdateColumn("status", OrderStatusProcessing).Error
		if err != nil {
			tx.Rollback()
			return nil, utils.NewPersistenceError("update order status", err)
		}
	}
	changedTables = append(changedTables, "orders")

	if err := createActionLog(tx.WithContext(ctx), "Update", id, "order_items", prevStatus, newStatus,
		"Item "+item.ProductName+" moved to "+string(newStatus)); err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("update item status", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, changedTables...); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "models", "UpdateOrderItemStatus", "commit", newStatus, err)
		return nil, utils.NewPersistenceError("update item status", err)
	}

	item.Status = newStatus
	item.StatusLastUpdateStaffId = &staffId
	item.StatusLastUpdatedAt = &now
	return &item, nil
}

// applyArrivalStockEffects runs when an item reaches InStock. Standard
// products consume the aggregate stock row; customized pieces optionally get
// a reserved unit created for them.
func applyArrivalStockEffects(tx *gorm.DB, storeId string, item *OrderItem) (bool, error) {
	if !item.IsCustomized && item.ProductId != nil {
		if err := decreaseStandardStock(tx, storeId, *item.ProductId, item.Quantity); err != nil {
			return false, err
		}
		return true, nil
	}

	if item.IsCustomized && config.AutoReserveOnArrival() {
		itemId := item.ID
		details := ""
		if item.CustomizationDetails != nil {
			details = *item.CustomizationDetails
		}
		unit := InventoryItem{
			StoreId:                storeId,
			ProductId:              item.ProductId,
			IsStandardStock:        false,
			Quantity:               decimal.NewFromInt(1),
			CustomizationDetails:   &details,
			ReservedForOrderItemId: &itemId,
			Status:                 InventoryItemStatusReserved,
		}
		if err := tx.Create(&unit).Error; err != nil {
			return false, utils.NewPersistenceError("create reserved unit", err)
		}
		return true, nil
	}
	return false, nil
}

// DeleteOrderItem removes one line from an order and recomputes the order
// totals from the surviving lines. Status logs cascade; a reserved inventory
// unit is unbound, not deleted.
func DeleteOrderItem(ctx context.Context, id int) (*OrderItem, error) {
	storeId, _, err := utils.RequireStoreAndStaff(ctx)
	if err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[OrderItem](ctx, storeId, id)
	if err != nil {
		return nil, err
	}
	if item.Status != OrderItemStatusNotOrdered {
		return nil, utils.NewValidationError("status", "cannot remove a line once fulfillment has begun")
	}
	order, err := utils.FetchModel[Order](ctx, storeId, item.OrderId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := applyDeletionPolicy(tx.WithContext(ctx), RelationsOfOrderItem, id); err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("delete item relations", err)
	}
	if err := tx.WithContext(ctx).Delete(&OrderItem{}, id).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("delete order item", err)
	}

	newTotal := order.TotalAmount.Sub(item.ItemTotalAmount)
	err = tx.WithContext(ctx).Model(order).Updates(map[string]interface{}{
		"TotalAmount": newTotal,
		"FinalAmount": newTotal.Sub(order.Discount),
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("update order totals", err)
	}

	if err := createActionLog(tx.WithContext(ctx), "Delete", id, "order_items", item, nil,
		"Item "+item.ProductName+" removed from "+order.OrderNumber); err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("delete order item", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId,
		"orders", "order_items", "order_item_status_logs", "inventory_items"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("delete order item", err)
	}
	return item, nil
}

func GetOrderItem(ctx context.Context, id int) (*OrderItem, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	return utils.FetchModel[OrderItem](ctx, storeId, id)
}

func GetOrderItems(ctx context.Context, orderId int) ([]*OrderItem, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	var items []*OrderItem
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("store_id = ? AND order_id = ?", storeId, orderId).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, utils.NewPersistenceError("list order items", err)
	}
	return items, nil
}

func GetOrderItemStatusLogs(ctx context.Context, orderItemId int) ([]*OrderItemStatusLog, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	var logs []*OrderItemStatusLog
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("store_id = ? AND order_item_id = ?", storeId, orderItemId).
		Order("created_at, id").
		Find(&logs).Error
	if err != nil {
		return nil, utils.NewPersistenceError("list status logs", err)
	}
	return logs, nil
}
