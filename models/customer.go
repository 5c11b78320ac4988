package models

import (
	"context"
	"time"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
)

type Customer struct {
	ID        int       `gorm:"primary_key" json:"id"`
	StoreId   string    `gorm:"index;not null" json:"store_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Email     string    `gorm:"size:255" json:"email"`
	Address   string    `gorm:"type:text" json:"address"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (c Customer) GetStoreId() string { return c.StoreId }

func (input *NewCustomer) validate(ctx context.Context, storeId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return utils.NewValidationError("", err.Error())
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("phone", "invalid phone number")
		}
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("email", "invalid email address")
	}
	if input.Phone != "" {
		if err := utils.ValidateUnique[Customer](ctx, storeId, "phone", input.Phone, id); err != nil {
			return utils.NewValidationError("phone", "duplicate phone number")
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	if err := input.validate(ctx, storeId, 0); err != nil {
		return nil, err
	}

	customer := Customer{
		StoreId: storeId,
		Name:    input.Name,
		Phone:   input.Phone,
		Email:   input.Email,
		Address: input.Address,
		Notes:   input.Notes,
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Create(&customer).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("create customer", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "customers"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("create customer", err)
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	if err := input.validate(ctx, storeId, id); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, storeId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	err = tx.WithContext(ctx).Model(customer).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Phone":   input.Phone,
		"Email":   input.Email,
		"Address": input.Address,
		"Notes":   input.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("update customer", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "customers"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("update customer", err)
	}
	return customer, nil
}

// DeleteCustomer keeps the customer's orders; their customer_id goes null so
// sales history survives.
func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	customer, err := utils.FetchModel[Customer](ctx, storeId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := applyDeletionPolicy(tx.WithContext(ctx), RelationsOfCustomer, id); err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("delete customer relations", err)
	}
	if err := tx.WithContext(ctx).Delete(&Customer{}, id).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("delete customer", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "customers", "orders"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("delete customer", err)
	}
	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return GetResource[Customer](ctx, id)
}

func GetCustomers(ctx context.Context, name *string) ([]*Customer, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("store_id = ?", storeId)
	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%").Limit(config.SearchLimit)
	}
	var customers []*Customer
	if err := dbCtx.Order("name").Find(&customers).Error; err != nil {
		return nil, utils.NewPersistenceError("list customers", err)
	}
	return customers, nil
}
