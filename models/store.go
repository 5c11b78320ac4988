package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
)

type Store struct {
	ID          uuid.UUID `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	ContactName string    `gorm:"size:100" json:"contact_name"`
	Email       string    `gorm:"size:255" json:"email"`
	Phone       string    `gorm:"size:20" json:"phone"`
	Address     string    `gorm:"type:text" json:"address"`
	City        string    `gorm:"size:100" json:"city"`
	Timezone    string    `gorm:"size:50" json:"timezone"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStore struct {
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Timezone    string `json:"timezone"`
}

func (store *Store) StoreRedis() error {
	return config.SetRedisObject("Store:"+fmt.Sprint(store.ID), store, 0)
}

func (store *Store) RemoveRedis() error {
	return config.RemoveRedisKey("Store:" + fmt.Sprint(store.ID))
}

func CreateStore(ctx context.Context, input *NewStore) (*Store, error) {
	db := config.GetDB()

	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError("", err.Error())
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, utils.NewValidationError("email", "invalid email")
	}

	store := Store{
		ID:          uuid.New(),
		Name:        input.Name,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
		City:        input.City,
		Timezone:    input.Timezone,
	}
	if err := db.WithContext(ctx).Create(&store).Error; err != nil {
		return nil, utils.NewPersistenceError("create store", err)
	}
	if err := store.StoreRedis(); err != nil {
		return nil, err
	}
	return &store, nil
}

// first find in redis, then in db, cache result
func GetStoreById(ctx context.Context, storeId string) (*Store, error) {
	var store Store
	exists, err := config.GetRedisObject("Store:"+storeId, &store)
	if err != nil {
		return nil, err
	}
	if exists {
		return &store, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", storeId).First(&store).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := store.StoreRedis(); err != nil {
		return nil, err
	}
	return &store, nil
}
