package models

import (
	"encoding/json"
	"time"

	"github.com/mmfurniture/store_backend/utils"
	"gorm.io/gorm"
)

// ActionLog is the staff-facing audit trail: one row per mutating action,
// append-only.
type ActionLog struct {
	ID            int       `gorm:"primary_key" json:"id"`
	StoreId       string    `gorm:"index;not null" json:"store_id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"size:255" json:"reference_type"`
	StaffId       int       `gorm:"index;not null" json:"staff_id"`
	StaffName     string    `gorm:"size:100" json:"staff_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func createActionLog(tx *gorm.DB,
	actionType string,
	referenceId int,
	referenceType string,
	before interface{},
	after interface{},
	description string) (err error) {

	var actionLog ActionLog

	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)

	ctx := tx.Statement.Context
	// get storeId, staffId, staffName from context
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return utils.ErrorStoreRequired
	}
	staffId, ok := utils.GetStaffIdFromContext(ctx)
	if !ok {
		return utils.ErrorStaffRequired
	}
	staffName, _ := utils.GetStaffNameFromContext(ctx)

	actionLog.StoreId = storeId
	actionLog.ActionType = actionType
	actionLog.Before = string(b)
	actionLog.After = string(a)
	actionLog.Description = description
	actionLog.ReferenceID = referenceId
	actionLog.ReferenceType = referenceType
	actionLog.StaffId = staffId
	actionLog.StaffName = staffName

	err = tx.Create(&actionLog).Error
	return err
}
