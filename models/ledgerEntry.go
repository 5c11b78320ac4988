package models

import (
	"context"
	"time"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntry is append-only. There is deliberately no update or delete:
// corrections are new entries with the opposite sign.
type LedgerEntry struct {
	ID            int             `gorm:"primary_key" json:"id"`
	StoreId       string          `gorm:"index;not null" json:"store_id"`
	EntryType     LedgerEntryType `gorm:"type:enum('Income','Expense');not null" json:"entry_type"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Description   string          `gorm:"size:255" json:"description"`
	EntryDate     time.Time       `json:"entry_date"`
	ReferenceType string          `gorm:"size:50" json:"reference_type"`
	ReferenceId   *int            `json:"reference_id"`
	StaffId       int             `gorm:"not null" json:"staff_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (e LedgerEntry) GetStoreId() string { return e.StoreId }

type NewLedgerEntry struct {
	EntryType   LedgerEntryType `json:"entry_type" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	EntryDate   time.Time       `json:"entry_date"`
}

func appendLedgerEntry(tx *gorm.DB, entry *LedgerEntry) error {
	if entry.EntryDate.IsZero() {
		entry.EntryDate = time.Now().UTC()
	}
	if err := tx.Create(entry).Error; err != nil {
		return utils.NewPersistenceError("append ledger entry", err)
	}
	return nil
}

func CreateLedgerEntry(ctx context.Context, input *NewLedgerEntry) (*LedgerEntry, error) {
	storeId, staffId, err := utils.RequireStoreAndStaff(ctx)
	if err != nil {
		return nil, err
	}
	if input.EntryType != LedgerEntryTypeIncome && input.EntryType != LedgerEntryTypeExpense {
		return nil, utils.NewValidationError("entry_type", "unknown entry type")
	}
	if !input.Amount.IsPositive() {
		return nil, utils.NewValidationError("amount", "amount must be positive")
	}

	entry := LedgerEntry{
		StoreId:     storeId,
		EntryType:   input.EntryType,
		Amount:      input.Amount,
		Description: input.Description,
		EntryDate:   input.EntryDate,
		StaffId:     staffId,
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := appendLedgerEntry(tx.WithContext(ctx), &entry); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "ledger_entries"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("append ledger entry", err)
	}
	return &entry, nil
}

func GetLedgerEntries(ctx context.Context, entryType *LedgerEntryType, from, to *time.Time) ([]*LedgerEntry, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("store_id = ?", storeId)
	if entryType != nil {
		dbCtx = dbCtx.Where("entry_type = ?", *entryType)
	}
	if from != nil {
		dbCtx = dbCtx.Where("entry_date >= ?", *from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("entry_date < ?", *to)
	}
	var entries []*LedgerEntry
	if err := dbCtx.Order("entry_date DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, utils.NewPersistenceError("list ledger entries", err)
	}
	return entries, nil
}

// LedgerBalance sums income minus expense over an optional date window.
func LedgerBalance(ctx context.Context, from, to *time.Time) (decimal.Decimal, error) {
	entries, err := GetLedgerEntries(ctx, nil, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, e := range entries {
		if e.EntryType == LedgerEntryTypeIncome {
			balance = balance.Add(e.Amount)
		} else {
			balance = balance.Sub(e.Amount)
		}
	}
	return balance, nil
}
