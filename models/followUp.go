package models

import (
	"context"
	"time"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
)

type FollowUp struct {
	ID              int            `gorm:"primary_key" json:"id"`
	StoreId         string         `gorm:"index;not null" json:"store_id"`
	OrderId         int            `gorm:"index;not null" json:"order_id"`
	DueDate         time.Time      `json:"due_date"`
	Reason          string         `gorm:"size:255;not null" json:"reason"`
	Status          FollowUpStatus `gorm:"type:enum('Open','Done');not null;default:'Open'" json:"status"`
	AssignedStaffId *int           `json:"assigned_staff_id"`
	CompletedAt     *time.Time     `json:"completed_at"`
	Notes           string         `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f FollowUp) GetStoreId() string { return f.StoreId }

type NewFollowUp struct {
	OrderId         int       `json:"order_id" binding:"required"`
	DueDate         time.Time `json:"due_date"`
	Reason          string    `json:"reason" binding:"required"`
	AssignedStaffId *int      `json:"assigned_staff_id"`
	Notes           string    `json:"notes"`
}

func CreateFollowUp(ctx context.Context, input *NewFollowUp) (*FollowUp, error) {
	storeId, _, err := utils.RequireStoreAndStaff(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError("", err.Error())
	}
	if err := utils.ValidateResourceId[Order](ctx, storeId, input.OrderId); err != nil {
		return nil, utils.NewValidationError("order_id", "order not found")
	}
	if input.AssignedStaffId != nil {
		if err := utils.ValidateResourceId[Staff](ctx, storeId, *input.AssignedStaffId); err != nil {
			return nil, utils.NewValidationError("assigned_staff_id", "staff not found")
		}
	}

	followUp := FollowUp{
		StoreId:         storeId,
		OrderId:         input.OrderId,
		DueDate:         input.DueDate,
		Reason:          input.Reason,
		Status:          FollowUpStatusOpen,
		AssignedStaffId: input.AssignedStaffId,
		Notes:           input.Notes,
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Create(&followUp).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("create follow-up", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "follow_ups"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("create follow-up", err)
	}
	return &followUp, nil
}

// CompleteFollowUp marks the reminder done; repeat calls are harmless.
func CompleteFollowUp(ctx context.Context, id int) (*FollowUp, error) {
	storeId, _, err := utils.RequireStoreAndStaff(ctx)
	if err != nil {
		return nil, err
	}

	followUp, err := utils.FetchModel[FollowUp](ctx, storeId, id)
	if err != nil {
		return nil, err
	}
	if followUp.Status == FollowUpStatusDone {
		return followUp, nil
	}

	now := time.Now().UTC()

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	err = tx.WithContext(ctx).Model(followUp).Updates(map[string]interface{}{
		"Status":      FollowUpStatusDone,
		"CompletedAt": &now,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("complete follow-up", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "follow_ups"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("complete follow-up", err)
	}
	followUp.Status = FollowUpStatusDone
	followUp.CompletedAt = &now
	return followUp, nil
}

func GetFollowUps(ctx context.Context, orderId *int, openOnly bool) ([]*FollowUp, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("store_id = ?", storeId)
	if orderId != nil {
		dbCtx = dbCtx.Where("order_id = ?", *orderId)
	}
	if openOnly {
		dbCtx = dbCtx.Where("status = ?", FollowUpStatusOpen)
	}
	var followUps []*FollowUp
	if err := dbCtx.Order("due_date, id").Find(&followUps).Error; err != nil {
		return nil, utils.NewPersistenceError("list follow-ups", err)
	}
	return followUps, nil
}
