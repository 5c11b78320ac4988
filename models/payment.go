package models

import (
	"context"
	"time"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
)

// Payment optionally references an order. The reference is nullable on
// purpose: when the order is deleted the payment survives with order_id set
// to null.
type Payment struct {
	ID                int             `gorm:"primary_key" json:"id"`
	StoreId           string          `gorm:"index;not null" json:"store_id"`
	OrderId           *int            `gorm:"index" json:"order_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Method            PaymentMethod   `gorm:"type:enum('Cash','BankTransfer','MobilePay');not null" json:"method"`
	PaymentDate       time.Time       `json:"payment_date"`
	ReceivedByStaffId int             `gorm:"not null" json:"received_by_staff_id"`
	Notes             string          `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (p Payment) GetStoreId() string { return p.StoreId }

type NewPayment struct {
	OrderId     *int            `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      PaymentMethod   `json:"method" binding:"required"`
	PaymentDate time.Time       `json:"payment_date"`
	Notes       string          `json:"notes"`
}

// CreatePayment records the receipt and appends the matching Income ledger
// entry in the same transaction, so money never shows up in one book only.
func CreatePayment(ctx context.Context, input *NewPayment) (*Payment, error) {
	storeId, staffId, err := utils.RequireStoreAndStaff(ctx)
	if err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, utils.NewValidationError("amount", "amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, utils.NewValidationError("method", "unknown payment method")
	}
	description := "Payment received"
	if input.OrderId != nil {
		order, err := utils.FetchModel[Order](ctx, storeId, *input.OrderId)
		if err != nil {
			return nil, utils.NewValidationError("order_id", "order not found")
		}
		description = "Payment for " + order.OrderNumber
	}

	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}

	payment := Payment{
		StoreId:           storeId,
		OrderId:           input.OrderId,
		Amount:            input.Amount,
		Method:            input.Method,
		PaymentDate:       paymentDate,
		ReceivedByStaffId: staffId,
		Notes:             input.Notes,
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("create payment", err)
	}

	entry := LedgerEntry{
		StoreId:       storeId,
		EntryType:     LedgerEntryTypeIncome,
		Amount:        input.Amount,
		Description:   description,
		EntryDate:     paymentDate,
		ReferenceType: "payments",
		ReferenceId:   &payment.ID,
		StaffId:       staffId,
	}
	if err := appendLedgerEntry(tx.WithContext(ctx), &entry); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := RecordChange(tx.WithContext(ctx), storeId, "payments", "ledger_entries"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "models", "CreatePayment", "commit", input, err)
		return nil, utils.NewPersistenceError("create payment", err)
	}
	return &payment, nil
}

func GetPayment(ctx context.Context, id int) (*Payment, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	return utils.FetchModel[Payment](ctx, storeId, id)
}

func GetPayments(ctx context.Context, orderId *int) ([]*Payment, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("store_id = ?", storeId)
	if orderId != nil {
		dbCtx = dbCtx.Where("order_id = ?", *orderId)
	}
	var payments []*Payment
	if err := dbCtx.Order("payment_date DESC, id DESC").Find(&payments).Error; err != nil {
		return nil, utils.NewPersistenceError("list payments", err)
	}
	return payments, nil
}

// PaidTotal sums all payments recorded against an order.
func PaidTotal(ctx context.Context, orderId int) (decimal.Decimal, error) {
	payments, err := GetPayments(ctx, &orderId)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total, nil
}
