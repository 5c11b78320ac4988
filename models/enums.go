package models

import "errors"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItemStatus is the per-line fulfillment state. The guided path moves
// forward one step at a time; ordinal order is load-bearing.
type OrderItemStatus string

const (
	OrderItemStatusNotOrdered OrderItemStatus = "NotOrdered"
	OrderItemStatusOrdered    OrderItemStatus = "Ordered"
	OrderItemStatusInTransit  OrderItemStatus = "InTransit"
	OrderItemStatusInStock    OrderItemStatus = "InStock"
	OrderItemStatusInstalling OrderItemStatus = "Installing"
	OrderItemStatusInstalled  OrderItemStatus = "Installed"
)

var orderItemStatusOrdinals = map[OrderItemStatus]int{
	OrderItemStatusNotOrdered: 0,
	OrderItemStatusOrdered:    1,
	OrderItemStatusInTransit:  2,
	OrderItemStatusInStock:    3,
	OrderItemStatusInstalling: 4,
	OrderItemStatusInstalled:  5,
}

func (s OrderItemStatus) IsValid() bool {
	_, ok := orderItemStatusOrdinals[s]
	return ok
}

func (s OrderItemStatus) Ordinal() int {
	ord, ok := orderItemStatusOrdinals[s]
	if !ok {
		return -1
	}
	return ord
}

// Next returns the single next status on the guided path, or an error when the
// item is already Installed.
func (s OrderItemStatus) Next() (OrderItemStatus, error) {
	switch s {
	case OrderItemStatusNotOrdered:
		return OrderItemStatusOrdered, nil
	case OrderItemStatusOrdered:
		return OrderItemStatusInTransit, nil
	case OrderItemStatusInTransit:
		return OrderItemStatusInStock, nil
	case OrderItemStatusInStock:
		return OrderItemStatusInstalling, nil
	case OrderItemStatusInstalling:
		return OrderItemStatusInstalled, nil
	case OrderItemStatusInstalled:
		return "", errors.New("item is already installed")
	}
	return "", errors.New("invalid order item status")
}

type InventoryItemStatus string

const (
	InventoryItemStatusAvailable InventoryItemStatus = "Available"
	InventoryItemStatusReserved  InventoryItemStatus = "Reserved"
	InventoryItemStatusSold      InventoryItemStatus = "Sold"
)

func (s InventoryItemStatus) IsValid() bool {
	switch s {
	case InventoryItemStatusAvailable, InventoryItemStatusReserved, InventoryItemStatusSold:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "Cash"
	PaymentMethodBankTransfer PaymentMethod = "BankTransfer"
	PaymentMethodMobilePay    PaymentMethod = "MobilePay"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodMobilePay:
		return true
	}
	return false
}

type LedgerEntryType string

const (
	LedgerEntryTypeIncome  LedgerEntryType = "Income"
	LedgerEntryTypeExpense LedgerEntryType = "Expense"
)

type FollowUpStatus string

const (
	FollowUpStatusOpen FollowUpStatus = "Open"
	FollowUpStatusDone FollowUpStatus = "Done"
)
