package models

import (
	"fmt"

	"gorm.io/gorm"
)

// DeletionAction says what happens to a dependent table when its parent row
// is deleted. The policy is applied in application code, not by database
// cascade annotations, so every relationship has one explicit, testable rule.
type DeletionAction string

const (
	DeletionActionCascade DeletionAction = "Cascade"
	DeletionActionNullify DeletionAction = "Nullify"
)

type DeletionRule struct {
	Table  string
	Column string
	Action DeletionAction
}

// RelationsOfOrder: items and follow-ups die with the order; payments survive
// with a dangling null reference because financial history must outlive it.
var RelationsOfOrder = []DeletionRule{
	{Table: "order_items", Column: "order_id", Action: DeletionActionCascade},
	{Table: "follow_ups", Column: "order_id", Action: DeletionActionCascade},
	{Table: "payments", Column: "order_id", Action: DeletionActionNullify},
}

// RelationsOfOrderItem: status logs die with the item; inventory reservations
// are released, the unit itself stays.
var RelationsOfOrderItem = []DeletionRule{
	{Table: "order_item_status_logs", Column: "order_item_id", Action: DeletionActionCascade},
	{Table: "inventory_items", Column: "reserved_for_order_item_id", Action: DeletionActionNullify},
}

// RelationsOfProduct: physical stock rows die with the catalog product;
// order items keep their snapshot fields and lose only the reference.
var RelationsOfProduct = []DeletionRule{
	{Table: "inventory_items", Column: "product_id", Action: DeletionActionCascade},
	{Table: "order_items", Column: "product_id", Action: DeletionActionNullify},
}

// RelationsOfCustomer: orders are never deleted with their customer; the
// reference goes null.
var RelationsOfCustomer = []DeletionRule{
	{Table: "orders", Column: "customer_id", Action: DeletionActionNullify},
}

// applyDeletionPolicy executes the per-relationship rules for one parent id
// inside the caller's transaction.
func applyDeletionPolicy(tx *gorm.DB, rules []DeletionRule, parentId int) error {
	for _, rule := range rules {
		switch rule.Action {
		case DeletionActionCascade:
			if err := cascadeDelete(tx, rule, parentId); err != nil {
				return err
			}
		case DeletionActionNullify:
			if err := tx.Table(rule.Table).
				Where(rule.Column+" = ?", parentId).
				Update(rule.Column, nil).Error; err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown deletion action %q for table %s", rule.Action, rule.Table)
		}
	}
	return nil
}

func cascadeDelete(tx *gorm.DB, rule DeletionRule, parentId int) error {
	// order_items have their own dependents; resolve those first.
	if rule.Table == "order_items" {
		var itemIds []int
		if err := tx.Table("order_items").
			Where(rule.Column+" = ?", parentId).
			Pluck("id", &itemIds).Error; err != nil {
			return err
		}
		for _, itemId := range itemIds {
			if err := applyDeletionPolicy(tx, RelationsOfOrderItem, itemId); err != nil {
				return err
			}
		}
	}
	return tx.Exec("DELETE FROM "+rule.Table+" WHERE "+rule.Column+" = ?", parentId).Error
}
