package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mmfurniture/store_backend/utils"
	"gorm.io/gorm"
)

const (
	ChangeStatusPending   = "PENDING"
	ChangeStatusProcessed = "PROCESSED"
)

// ChangeRecord is a transactional outbox row: every committed mutation leaves
// one record naming the touched table and tenant. The change-feed dispatcher
// polls these after commit and notifies in-process subscribers, so a change is
// never announced for a transaction that rolled back.
type ChangeRecord struct {
	ID            int        `gorm:"primary_key" json:"id"`
	StoreId       string     `gorm:"index;not null" json:"store_id"`
	TableName     string     `gorm:"size:64;index;not null" json:"table_name"`
	Status        string     `gorm:"size:12;index;not null;default:'PENDING'" json:"status"`
	CorrelationId string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at"`
}

// RecordChange writes the change record inside the caller's DB transaction.
// Dispatching happens asynchronously after commit.
func RecordChange(tx *gorm.DB, storeId string, tables ...string) error {
	correlationId := correlationIdFromContextOrNew(tx)
	for _, table := range tables {
		record := ChangeRecord{
			StoreId:       storeId,
			TableName:     table,
			Status:        ChangeStatusPending,
			CorrelationId: correlationId,
		}
		if err := tx.Create(&record).Error; err != nil {
			return utils.NewPersistenceError("record change", err)
		}
	}
	return nil
}

func correlationIdFromContextOrNew(tx *gorm.DB) string {
	if tx != nil && tx.Statement != nil && tx.Statement.Context != nil {
		if v, ok := utils.GetCorrelationIdFromContext(tx.Statement.Context); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
