package models_test

import (
	"testing"

	"github.com/mmfurniture/store_backend/models"
)

func TestOrderItemStatusOrdinalsAndNext(t *testing.T) {
	walk := []models.OrderItemStatus{
		models.OrderItemStatusNotOrdered,
		models.OrderItemStatusOrdered,
		models.OrderItemStatusInTransit,
		models.OrderItemStatusInStock,
		models.OrderItemStatusInstalling,
		models.OrderItemStatusInstalled,
	}
	for i, status := range walk {
		if !status.IsValid() {
			t.Fatalf("%s should be valid", status)
		}
		if status.Ordinal() != i {
			t.Fatalf("%s: expected ordinal %d; got %d", status, i, status.Ordinal())
		}
		if i < len(walk)-1 {
			next, err := status.Next()
			if err != nil {
				t.Fatalf("%s.Next(): %v", status, err)
			}
			if next != walk[i+1] {
				t.Fatalf("%s.Next(): expected %s; got %s", status, walk[i+1], next)
			}
		}
	}

	if _, err := models.OrderItemStatusInstalled.Next(); err == nil {
		t.Fatalf("Installed must be terminal")
	}
	if models.OrderItemStatus("Shipped").IsValid() {
		t.Fatalf("unknown status accepted")
	}
	if models.OrderItemStatus("Shipped").Ordinal() != -1 {
		t.Fatalf("unknown status should have ordinal -1")
	}
}

func TestDeletionRulesAreExplicit(t *testing.T) {
	find := func(rules []models.DeletionRule, table string) *models.DeletionRule {
		for i := range rules {
			if rules[i].Table == table {
				return &rules[i]
			}
		}
		return nil
	}

	if r := find(models.RelationsOfOrder, "payments"); r == nil || r.Action != models.DeletionActionNullify {
		t.Fatalf("payments must be nullified on order delete, never cascaded")
	}
	if r := find(models.RelationsOfOrder, "order_items"); r == nil || r.Action != models.DeletionActionCascade {
		t.Fatalf("order items must cascade with their order")
	}
	if r := find(models.RelationsOfOrderItem, "inventory_items"); r == nil || r.Action != models.DeletionActionNullify {
		t.Fatalf("reservations must be released on item delete, unit kept")
	}
	if r := find(models.RelationsOfProduct, "order_items"); r == nil || r.Action != models.DeletionActionNullify {
		t.Fatalf("order items keep their snapshot when the product goes")
	}
}
