package models

import (
	"context"
	"time"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int             `gorm:"primary_key" json:"id"`
	StoreId       string          `gorm:"index;not null" json:"store_id"`
	SupplierId    int             `gorm:"index" json:"supplier_id"`
	Name          string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Category      string          `gorm:"size:100" json:"category"`
	Model         string          `gorm:"size:100" json:"model"`
	Dimensions    string          `gorm:"size:100" json:"dimensions"`
	Color         string          `gorm:"size:60" json:"color"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	Description   string          `gorm:"type:text" json:"description"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	SupplierId    int             `json:"supplier_id"`
	Name          string          `json:"name" binding:"required"`
	Category      string          `json:"category"`
	Model         string          `json:"model"`
	Dimensions    string          `json:"dimensions"`
	Color         string          `json:"color"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Description   string          `json:"description"`
}

func (p Product) GetStoreId() string { return p.StoreId }

func (input *NewProduct) validate(ctx context.Context, storeId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return utils.NewValidationError("", err.Error())
	}
	if input.UnitPrice.IsNegative() || input.PurchasePrice.IsNegative() {
		return utils.NewValidationError("unit_price", "price cannot be negative")
	}
	if err := utils.ValidateUnique[Product](ctx, storeId, "name", input.Name, id); err != nil {
		return utils.NewValidationError("name", "duplicate product name")
	}
	if input.SupplierId != 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, storeId, input.SupplierId); err != nil {
			return utils.NewValidationError("supplier_id", "supplier not found")
		}
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	if err := input.validate(ctx, storeId, 0); err != nil {
		return nil, err
	}

	product := Product{
		StoreId:       storeId,
		SupplierId:    input.SupplierId,
		Name:          input.Name,
		Category:      input.Category,
		Model:         input.Model,
		Dimensions:    input.Dimensions,
		Color:         input.Color,
		UnitPrice:     input.UnitPrice,
		PurchasePrice: input.PurchasePrice,
		Description:   input.Description,
		IsActive:      utils.NewTrue(),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, utils.NewPersistenceError("create product", err)
	}
	if err := utils.RemoveRedisList[Product](storeId); err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	if err := input.validate(ctx, storeId, id); err != nil {
		return nil, err
	}
	product, err := utils.FetchModel[Product](ctx, storeId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"SupplierId":    input.SupplierId,
		"Name":          input.Name,
		"Category":      input.Category,
		"Model":         input.Model,
		"Dimensions":    input.Dimensions,
		"Color":         input.Color,
		"UnitPrice":     input.UnitPrice,
		"PurchasePrice": input.PurchasePrice,
		"Description":   input.Description,
	}).Error
	if err != nil {
		return nil, utils.NewPersistenceError("update product", err)
	}
	if err := utils.RemoveRedisItem[Product](id); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Product](storeId); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a catalog product. Per the deletion policy table,
// inventory rows of the product are cascade-deleted while order items keep
// their snapshot fields and get product_id nulled.
func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	product, err := utils.FetchModel[Product](ctx, storeId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := applyDeletionPolicy(tx.WithContext(ctx), RelationsOfProduct, id); err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("delete product relations", err)
	}
	if err := tx.WithContext(ctx).Delete(&Product{}, id).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("delete product", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "products", "inventory_items", "order_items"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("delete product", err)
	}

	if err := utils.RemoveRedisItem[Product](id); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Product](storeId); err != nil {
		return nil, err
	}
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return GetResource[Product](ctx, id)
}

func GetProducts(ctx context.Context, name *string) ([]*Product, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("store_id = ?", storeId)
	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%").Limit(config.SearchLimit)
	}
	var products []*Product
	if err := dbCtx.Order("name").Find(&products).Error; err != nil {
		return nil, utils.NewPersistenceError("list products", err)
	}
	return products, nil
}
