package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryItem holds either an aggregate standard-stock count (one row per
// store+product) or a single customized unit (quantity fixed at 1, one row
// per physical piece).
type InventoryItem struct {
	ID                     int                 `gorm:"primary_key" json:"id"`
	StoreId                string              `gorm:"index:idx_inventory_store_product,priority:1;not null" json:"store_id"`
	ProductId              *int                `gorm:"index:idx_inventory_store_product,priority:2" json:"product_id"`
	IsStandardStock        bool                `gorm:"not null;default:true" json:"is_standard_stock"`
	Quantity               decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"quantity"`
	CustomizationDetails   *string             `gorm:"type:text" json:"customization_details"`
	ReservedForOrderItemId *int                `gorm:"uniqueIndex" json:"reserved_for_order_item_id"`
	Status                 InventoryItemStatus `gorm:"type:enum('Available','Reserved','Sold');not null;default:'Available'" json:"status"`
	LocationInWarehouse    string              `gorm:"size:100" json:"location_in_warehouse"`
	LastUpdatedAt          time.Time           `gorm:"autoUpdateTime" json:"last_updated_at"`
	CreatedAt              time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

var ErrorAlreadyReserved = errors.New("inventory item is already reserved for another order item")

// IncreaseStock adds to the standard-stock row of (store, product), creating
// it when absent. Each call accumulates; it does not set.
func IncreaseStock(ctx context.Context, productId int, amount decimal.Decimal) error {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return utils.ErrorStoreRequired
	}
	if !amount.IsPositive() {
		return utils.NewValidationError("amount", "amount must be positive")
	}
	if err := utils.ValidateResourceId[Product](ctx, storeId, productId); err != nil {
		return err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := increaseStandardStock(tx.WithContext(ctx), storeId, productId, amount); err != nil {
		tx.Rollback()
		return err
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "inventory_items"); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return utils.NewPersistenceError("increase stock", err)
	}
	return nil
}

func increaseStandardStock(tx *gorm.DB, storeId string, productId int, amount decimal.Decimal) error {
	var row InventoryItem
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ? AND product_id = ? AND is_standard_stock = 1", storeId, productId).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pid := productId
		row = InventoryItem{
			StoreId:         storeId,
			ProductId:       &pid,
			IsStandardStock: true,
			Quantity:        amount,
			Status:          InventoryItemStatusAvailable,
		}
		if err := tx.Create(&row).Error; err != nil {
			return utils.NewPersistenceError("create stock row", err)
		}
		return nil
	}
	if err != nil {
		return utils.NewPersistenceError("load stock row", err)
	}

	err = tx.Model(&row).Updates(map[string]interface{}{
		"Quantity":      row.Quantity.Add(amount),
		"LastUpdatedAt": time.Now().UTC(),
	}).Error
	if err != nil {
		return utils.NewPersistenceError("increase stock row", err)
	}
	return nil
}

// DecreaseStock subtracts from the standard-stock row inside its own
// transaction. Fails with InsufficientStockError and no change when the row
// is absent or short.
func DecreaseStock(ctx context.Context, productId int, amount decimal.Decimal) error {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return utils.ErrorStoreRequired
	}
	if !amount.IsPositive() {
		return utils.NewValidationError("amount", "amount must be positive")
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := decreaseStandardStock(tx.WithContext(ctx), storeId, productId, amount); err != nil {
		tx.Rollback()
		return err
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "inventory_items"); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return utils.NewPersistenceError("decrease stock", err)
	}
	return nil
}

// decreaseStandardStock is the in-transaction check-then-act: the SELECT ...
// FOR UPDATE serializes concurrent decrements against the same row so two
// requests can never both pass the availability check.
func decreaseStandardStock(tx *gorm.DB, storeId string, productId int, amount decimal.Decimal) error {
	var row InventoryItem
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ? AND product_id = ? AND is_standard_stock = 1", storeId, productId).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &utils.InsufficientStockError{
			ProductId: productId,
			Requested: amount,
			Available: decimal.Zero,
		}
	}
	if err != nil {
		return utils.NewPersistenceError("load stock row", err)
	}

	if row.Quantity.LessThan(amount) {
		return &utils.InsufficientStockError{
			ProductId: productId,
			Requested: amount,
			Available: row.Quantity,
		}
	}

	err = tx.Model(&row).Updates(map[string]interface{}{
		"Quantity":      row.Quantity.Sub(amount),
		"LastUpdatedAt": time.Now().UTC(),
	}).Error
	if err != nil {
		return utils.NewPersistenceError("decrease stock row", err)
	}
	return nil
}

type NewCustomizedUnit struct {
	ProductId            *int    `json:"product_id"`
	CustomizationDetails string  `json:"customization_details" binding:"required"`
	LocationInWarehouse  string  `json:"location_in_warehouse"`
}

// AddCustomizedUnit records one physical customized piece; quantity is fixed
// at 1 for these rows.
func AddCustomizedUnit(ctx context.Context, input *NewCustomizedUnit) (*InventoryItem, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError("", err.Error())
	}
	if input.ProductId != nil {
		if err := utils.ValidateResourceId[Product](ctx, storeId, *input.ProductId); err != nil {
			return nil, utils.NewValidationError("product_id", "product not found")
		}
	}

	details := input.CustomizationDetails
	unit := InventoryItem{
		StoreId:              storeId,
		ProductId:            input.ProductId,
		IsStandardStock:      false,
		Quantity:             decimal.NewFromInt(1),
		CustomizationDetails: &details,
		Status:               InventoryItemStatusAvailable,
		LocationInWarehouse:  input.LocationInWarehouse,
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Create(&unit).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("create customized unit", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "inventory_items"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("create customized unit", err)
	}
	return &unit, nil
}

// ReserveForOrderItem binds one inventory unit to one order line item. The
// unique index on reserved_for_order_item_id backs up the in-transaction
// check, so a double allocation cannot slip through a race either.
func ReserveForOrderItem(ctx context.Context, inventoryItemId int, orderItemId int) (*InventoryItem, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	if err := utils.ValidateResourceId[OrderItem](ctx, storeId, orderItemId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	var row InventoryItem
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ?", storeId).
		First(&row, inventoryItemId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("load inventory item", err)
	}

	if row.ReservedForOrderItemId != nil {
		tx.Rollback()
		if *row.ReservedForOrderItemId == orderItemId {
			return &row, nil
		}
		return nil, ErrorAlreadyReserved
	}
	if row.Status == InventoryItemStatusSold {
		tx.Rollback()
		return nil, utils.NewValidationError("status", "inventory item is already sold")
	}

	err = tx.WithContext(ctx).Model(&row).Updates(map[string]interface{}{
		"ReservedForOrderItemId": orderItemId,
		"Status":                 InventoryItemStatusReserved,
		"LastUpdatedAt":          time.Now().UTC(),
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("reserve inventory item", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "inventory_items"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("reserve inventory item", err)
	}

	itemId := orderItemId
	row.ReservedForOrderItemId = &itemId
	row.Status = InventoryItemStatusReserved
	return &row, nil
}

// ReleaseReservation unbinds a unit from its order item and makes it
// available again.
func ReleaseReservation(ctx context.Context, inventoryItemId int) (*InventoryItem, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	var row InventoryItem
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ?", storeId).
		First(&row, inventoryItemId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("load inventory item", err)
	}

	err = tx.WithContext(ctx).Model(&row).Updates(map[string]interface{}{
		"ReservedForOrderItemId": nil,
		"Status":                 InventoryItemStatusAvailable,
		"LastUpdatedAt":          time.Now().UTC(),
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("release reservation", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "inventory_items"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("release reservation", err)
	}

	row.ReservedForOrderItemId = nil
	row.Status = InventoryItemStatusAvailable
	return &row, nil
}

// markCustomizedUnitSold consumes the specific reserved unit for an order
// item; "decrease" never means arithmetic on customized rows.
func markCustomizedUnitSold(tx *gorm.DB, storeId string, orderItemId int) error {
	var row InventoryItem
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ? AND reserved_for_order_item_id = ? AND is_standard_stock = 0", storeId, orderItemId).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// nothing reserved for this line; not an error
		return nil
	}
	if err != nil {
		return utils.NewPersistenceError("load reserved unit", err)
	}

	err = tx.Model(&row).Updates(map[string]interface{}{
		"Status":        InventoryItemStatusSold,
		"LastUpdatedAt": time.Now().UTC(),
	}).Error
	if err != nil {
		return utils.NewPersistenceError("mark unit sold", err)
	}
	return nil
}

// InventoryItemWithProduct is the read-side row for the inventory screen:
// the unit joined with its catalog metadata.
type InventoryItemWithProduct struct {
	InventoryItem
	ProductName     string `json:"product_name"`
	ProductCategory string `json:"product_category"`
	ProductModel    string `json:"product_model"`
}

func GetInventoryItems(ctx context.Context) ([]*InventoryItemWithProduct, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	sql := `
	SELECT
		inventory_items.*,
		products.name AS product_name,
		products.category AS product_category,
		products.model AS product_model
	FROM
		inventory_items
		LEFT JOIN products ON products.id = inventory_items.product_id
	WHERE
		inventory_items.store_id = ?
	ORDER BY inventory_items.id
`
	var rows []*InventoryItemWithProduct
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, storeId).Scan(&rows).Error; err != nil {
		return nil, utils.NewPersistenceError("list inventory", err)
	}
	return rows, nil
}

// GetStandardStock returns the aggregate quantity for (store, product);
// zero when no row exists.
func GetStandardStock(ctx context.Context, productId int) (decimal.Decimal, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return decimal.Zero, utils.ErrorStoreRequired
	}

	var row InventoryItem
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("store_id = ? AND product_id = ? AND is_standard_stock = 1", storeId, productId).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, utils.NewPersistenceError("load stock row", err)
	}
	return row.Quantity, nil
}
