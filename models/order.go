package models

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Order struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	StoreId             string          `gorm:"index;not null" json:"store_id"`
	SequenceNo          decimal.Decimal `gorm:"type:decimal(20,0);default:0" json:"sequence_no"`
	OrderNumber         string          `gorm:"size:50;not null;unique" json:"order_number"`
	CustomerId          *int            `gorm:"index" json:"customer_id"`
	OrderDate           time.Time       `json:"order_date"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Discount            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	FinalAmount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"final_amount"`
	DownPayment         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"down_payment"`
	Status              OrderStatus     `gorm:"type:enum('Pending','Processing','Completed','Cancelled');not null;default:'Pending'" json:"status"`
	CompletionDate      *time.Time      `json:"completion_date"`
	ResponsibleStaffIds string          `gorm:"size:255" json:"responsible_staff_ids"`
	CreatingStaffId     int             `gorm:"index;not null" json:"creating_staff_id"`
	Notes               string          `gorm:"type:text" json:"notes"`
	Items               []OrderItem     `json:"items"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOrder struct {
	OrderNumber         string          `json:"order_number"`
	CustomerId          *int            `json:"customer_id"`
	OrderDate           time.Time       `json:"order_date"`
	Discount            decimal.Decimal `json:"discount"`
	DownPayment         decimal.Decimal `json:"down_payment"`
	ResponsibleStaffIds []int           `json:"responsible_staff_ids"`
	Notes               string          `json:"notes"`
	Items               []*NewOrderItem `json:"items" binding:"required"`
}

// returns decoded cursor string
func (o Order) GetCursor() string {
	return o.CreatedAt.String()
}

func (o Order) GetStoreId() string { return o.StoreId }

// ResponsibleStaff decodes the stored id list, preserving order.
func (o Order) ResponsibleStaff() []int {
	if o.ResponsibleStaffIds == "" {
		return nil
	}
	parts := strings.Split(o.ResponsibleStaffIds, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func joinStaffIds(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}

func (input *NewOrder) validate(ctx context.Context, storeId string, id int) error {
	if len(input.Items) == 0 {
		return utils.NewValidationError("items", "order must have at least one item")
	}
	if input.Discount.IsNegative() {
		return utils.NewValidationError("discount", "discount cannot be negative")
	}
	if input.DownPayment.IsNegative() {
		return utils.NewValidationError("down_payment", "down payment cannot be negative")
	}
	for _, item := range input.Items {
		if err := item.validate(ctx, storeId); err != nil {
			return err
		}
	}
	if input.OrderNumber != "" {
		// order numbers are unique across stores
		if err := utils.ValidateUnique[Order](ctx, "", "order_number", input.OrderNumber, id); err != nil {
			return utils.NewValidationError("order_number", "duplicate order number")
		}
	}
	if input.CustomerId != nil {
		if err := utils.ValidateResourceId[Customer](ctx, storeId, *input.CustomerId); err != nil {
			return utils.NewValidationError("customer_id", "customer not found")
		}
	}
	if len(input.ResponsibleStaffIds) > 0 {
		if err := utils.ValidateResourcesId[Staff](ctx, storeId, input.ResponsibleStaffIds); err != nil {
			return utils.NewValidationError("responsible_staff_ids", "staff not found")
		}
	}
	return nil
}

// CreateOrder inserts the order row and all of its line items as one atomic
// unit; on any failure nothing is visible afterwards.
func CreateOrder(ctx context.Context, input *NewOrder) (*Order, error) {
	db := config.GetDB()

	storeId, staffId, err := utils.RequireStoreAndStaff(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, storeId, 0); err != nil {
		return nil, err
	}

	var orderItems []OrderItem
	var totalAmount decimal.Decimal

	for _, item := range input.Items {
		orderItem, err := item.build(ctx, storeId, staffId)
		if err != nil {
			return nil, err
		}
		totalAmount = totalAmount.Add(orderItem.ItemTotalAmount)
		orderItems = append(orderItems, *orderItem)
	}

	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}

	order := Order{
		StoreId:             storeId,
		OrderNumber:         input.OrderNumber,
		CustomerId:          input.CustomerId,
		OrderDate:           orderDate,
		TotalAmount:         totalAmount,
		Discount:            input.Discount,
		FinalAmount:         totalAmount.Sub(input.Discount),
		DownPayment:         input.DownPayment,
		Status:              OrderStatusPending,
		ResponsibleStaffIds: joinStaffIds(input.ResponsibleStaffIds),
		CreatingStaffId:     staffId,
		Notes:               input.Notes,
		Items:               orderItems,
	}

	tx := db.Begin()

	if order.OrderNumber == "" {
		seqNo, err := utils.GetSequence[Order](ctx, storeId)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		order.SequenceNo = decimal.NewFromInt(seqNo)
		order.OrderNumber = "ORD-" + fmt.Sprint(seqNo)
	}

	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("create order", err)
	}

	if err := createActionLog(tx.WithContext(ctx), "Create", order.ID, "orders", nil, nil,
		"Order "+order.OrderNumber+" created"); err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("create order", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "orders", "order_items"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(config.GetLogger(), "models", "CreateOrder", "commit", input, err)
		return nil, utils.NewPersistenceError("create order", err)
	}
	return &order, nil
}

type UpdatedOrderFields struct {
	CustomerId          *int            `json:"customer_id"`
	OrderDate           time.Time       `json:"order_date"`
	Discount            decimal.Decimal `json:"discount"`
	DownPayment         decimal.Decimal `json:"down_payment"`
	ResponsibleStaffIds []int           `json:"responsible_staff_ids"`
	Notes               string          `json:"notes"`
}

// UpdateOrder is a plain field update; FinalAmount is recomputed here from
// the stored TotalAmount so it can never drift from the invariant.
func UpdateOrder(ctx context.Context, id int, input *UpdatedOrderFields) (*Order, error) {
	storeId, _, err := utils.RequireStoreAndStaff(ctx)
	if err != nil {
		return nil, err
	}
	if input.Discount.IsNegative() {
		return nil, utils.NewValidationError("discount", "discount cannot be negative")
	}
	if input.CustomerId != nil {
		if err := utils.ValidateResourceId[Customer](ctx, storeId, *input.CustomerId); err != nil {
			return nil, utils.NewValidationError("customer_id", "customer not found")
		}
	}

	order, err := utils.FetchModel[Order](ctx, storeId, id)
	if err != nil {
		return nil, err
	}

	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = order.OrderDate
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	err = tx.WithContext(ctx).Model(order).Updates(map[string]interface{}{
		"CustomerId":          input.CustomerId,
		"OrderDate":           orderDate,
		"Discount":            input.Discount,
		"FinalAmount":         order.TotalAmount.Sub(input.Discount),
		"DownPayment":         input.DownPayment,
		"ResponsibleStaffIds": joinStaffIds(input.ResponsibleStaffIds),
		"Notes":               input.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("update order", err)
	}
	if err := createActionLog(tx.WithContext(ctx), "Update", id, "orders", nil, nil,
		"Order "+order.OrderNumber+" updated"); err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("update order", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "orders"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("update order", err)
	}
	return order, nil
}

// DeleteOrder applies the explicit per-relationship deletion policy: items
// and follow-ups cascade, payments keep their row with order_id nulled.
func DeleteOrder(ctx context.Context, id int) (*Order, error) {
	storeId, _, err := utils.RequireStoreAndStaff(ctx)
	if err != nil {
		return nil, err
	}

	order, err := utils.FetchModel[Order](ctx, storeId, id, "Items")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := applyDeletionPolicy(tx.WithContext(ctx), RelationsOfOrder, id); err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("delete order relations", err)
	}
	if err := tx.WithContext(ctx).Delete(&Order{}, id).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("delete order", err)
	}
	if err := createActionLog(tx.WithContext(ctx), "Delete", id, "orders", order, nil,
		"Order "+order.OrderNumber+" deleted"); err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("delete order", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId,
		"orders", "order_items", "payments", "follow_ups", "inventory_items"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("delete order", err)
	}
	return order, nil
}

// CancelOrder is the only explicit status mutation on orders; completion is
// always system-detected.
func CancelOrder(ctx context.Context, id int) (*Order, error) {
	storeId, _, err := utils.RequireStoreAndStaff(ctx)
	if err != nil {
		return nil, err
	}

	order, err := utils.FetchModel[Order](ctx, storeId, id)
	if err != nil {
		return nil, err
	}
	if order.Status == OrderStatusCompleted {
		return nil, utils.NewValidationError("status", "completed orders cannot be cancelled")
	}
	if order.Status == OrderStatusCancelled {
		return order, nil
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Model(order).UpdateColumn("Status", OrderStatusCancelled).Error; err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("cancel order", err)
	}
	if err := createActionLog(tx.WithContext(ctx), "Update", id, "orders", nil, nil,
		"Order "+order.OrderNumber+" cancelled"); err != nil {
		tx.Rollback()
		return nil, utils.NewPersistenceError("cancel order", err)
	}
	if err := RecordChange(tx.WithContext(ctx), storeId, "orders"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("cancel order", err)
	}
	order.Status = OrderStatusCancelled
	return order, nil
}

// checkAndCompleteOrder flips the order to Completed when no item remains
// short of Installed. Runs inside the caller's transaction so the completion
// lands atomically with the final item transition. Idempotent.
func checkAndCompleteOrder(tx *gorm.DB, storeId string, orderId int) (bool, error) {
	// lock the order row first; the item count below then reads post-lock
	// state instead of a repeatable-read snapshot, so two items installed
	// concurrently cannot both miss the completion
	var order Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ?", storeId).
		First(&order, orderId).Error
	if err != nil {
		return false, utils.ErrorRecordNotFound
	}
	if order.Status == OrderStatusCompleted || order.Status == OrderStatusCancelled {
		return false, nil
	}

	var remaining int64
	err = tx.Model(&OrderItem{}).
		Where("order_id = ? AND status != ?", orderId, OrderItemStatusInstalled).
		Count(&remaining).Error
	if err != nil {
		return false, utils.NewPersistenceError("count remaining items", err)
	}
	if remaining > 0 {
		return false, nil
	}

	now := time.Now().UTC()
	err = tx.Model(&order).Updates(map[string]interface{}{
		"Status":         OrderStatusCompleted,
		"CompletionDate": &now,
	}).Error
	if err != nil {
		return false, utils.NewPersistenceError("complete order", err)
	}
	if err := RecordChange(tx, storeId, "orders"); err != nil {
		return false, err
	}
	return true, nil
}

// CheckAndCompleteOrder is the standalone variant running its own
// transaction; the state machine calls the in-tx form instead.
func CheckAndCompleteOrder(ctx context.Context, orderId int) (bool, error) {
	storeId, _, err := utils.RequireStoreAndStaff(ctx)
	if err != nil {
		return false, err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	completed, err := checkAndCompleteOrder(tx.WithContext(ctx), storeId, orderId)
	if err != nil {
		tx.Rollback()
		return false, err
	}
	if err := tx.Commit().Error; err != nil {
		return false, utils.NewPersistenceError("complete order", err)
	}
	return completed, nil
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	return utils.FetchModel[Order](ctx, storeId, id, "Items")
}

func GetOrders(ctx context.Context, orderNumber *string) ([]*Order, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("store_id = ?", storeId).Preload("Items")
	if orderNumber != nil && *orderNumber != "" {
		dbCtx = dbCtx.Where("order_number LIKE ?", "%"+*orderNumber+"%").Limit(config.SearchLimit)
	}
	var orders []*Order
	if err := dbCtx.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, utils.NewPersistenceError("list orders", err)
	}
	return orders, nil
}

type OrdersEdge = Edge[Order]
type OrdersConnection struct {
	PageInfo *PageInfo     `json:"pageInfo"`
	Edges    []*OrdersEdge `json:"edges"`
}

func PaginateOrders(ctx context.Context, limit *int, after *string, status *OrderStatus) (*OrdersConnection, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	pageLimit := config.SearchLimit
	if limit != nil && *limit > 0 {
		pageLimit = *limit
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Order{}).Where("store_id = ?", storeId).Preload("Items")
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}

	edges, pageInfo, err := FetchPagePureCursor[Order](dbCtx, pageLimit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}

	conn := OrdersConnection{PageInfo: pageInfo}
	for i := range edges {
		conn.Edges = append(conn.Edges, &edges[i])
	}
	return &conn, nil
}
