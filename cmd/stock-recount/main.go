// stock-recount audits inventory rows against the order items that reference
// them and reports (optionally repairs) drift:
//   - standard-stock rows with negative quantity
//   - duplicate standard-stock rows for one (store, product)
//   - reserved units whose order item no longer exists
//   - reserved units whose order item is already Installed (should be Sold)
//
// Usage:
//   go run ./cmd/stock-recount [-store-id uuid] [-fix]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/models"
	"github.com/mmfurniture/store_backend/utils"
)

func main() {
	storeID := flag.String("store-id", "", "Optional: audit only one store. If empty, audits all stores.")
	fix := flag.Bool("fix", false, "Apply repairs instead of only reporting.")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	ctx = utils.SetStaffIdInContext(ctx, 0)
	ctx = utils.SetStaffNameInContext(ctx, "StockRecount")
	ctx = utils.SetIsAdminInContext(ctx, true)
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	scope := func(sql string) (string, []interface{}) {
		if *storeID != "" {
			return sql + " AND inventory_items.store_id = ?", []interface{}{*storeID}
		}
		return sql, nil
	}

	// negative standard quantities
	var negatives []models.InventoryItem
	sql, args := scope("is_standard_stock = 1 AND quantity < 0")
	if err := db.WithContext(ctx).Where(sql, args...).Find(&negatives).Error; err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(1)
	}
	for _, row := range negatives {
		fmt.Printf("NEGATIVE  store=%s product=%v quantity=%s\n", row.StoreId, row.ProductId, row.Quantity)
	}

	// duplicate standard rows per (store, product)
	type dup struct {
		StoreId   string
		ProductId int
		N         int
	}
	var dups []dup
	err := db.WithContext(ctx).Raw(`
		SELECT store_id, product_id, COUNT(*) AS n
		FROM inventory_items
		WHERE is_standard_stock = 1 AND product_id IS NOT NULL
		GROUP BY store_id, product_id
		HAVING COUNT(*) > 1`).Scan(&dups).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(1)
	}
	for _, d := range dups {
		if *storeID != "" && d.StoreId != *storeID {
			continue
		}
		fmt.Printf("DUPLICATE store=%s product=%d rows=%d\n", d.StoreId, d.ProductId, d.N)
	}

	// reserved units pointing at missing order items
	var orphans []models.InventoryItem
	sql, args = scope(`is_standard_stock = 0
		AND reserved_for_order_item_id IS NOT NULL
		AND NOT EXISTS (SELECT 1 FROM order_items WHERE order_items.id = inventory_items.reserved_for_order_item_id)`)
	if err := db.WithContext(ctx).Where(sql, args...).Find(&orphans).Error; err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(1)
	}
	for _, row := range orphans {
		fmt.Printf("ORPHANED  store=%s unit=%d reserved_for=%d\n", row.StoreId, row.ID, *row.ReservedForOrderItemId)
		if *fix {
			storeCtx := utils.SetStoreIdInContext(ctx, row.StoreId)
			if _, err := models.ReleaseReservation(storeCtx, row.ID); err != nil {
				fmt.Fprintf(os.Stderr, "  release failed: %v\n", err)
			} else {
				fmt.Printf("  released\n")
			}
		}
	}

	// reserved units whose item is already installed
	var stale []models.InventoryItem
	sql, args = scope(`is_standard_stock = 0
		AND inventory_items.status = 'Reserved'
		AND EXISTS (SELECT 1 FROM order_items
			WHERE order_items.id = inventory_items.reserved_for_order_item_id
			AND order_items.status = 'Installed')`)
	if err := db.WithContext(ctx).Where(sql, args...).Find(&stale).Error; err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(1)
	}
	for _, row := range stale {
		fmt.Printf("STALE     store=%s unit=%d reserved_for=%d should be Sold\n",
			row.StoreId, row.ID, *row.ReservedForOrderItemId)
		if *fix {
			err := db.WithContext(ctx).Model(&models.InventoryItem{}).
				Where("id = ?", row.ID).
				Update("status", models.InventoryItemStatusSold).Error
			if err != nil {
				fmt.Fprintf(os.Stderr, "  update failed: %v\n", err)
			} else {
				fmt.Printf("  marked sold\n")
			}
		}
	}

	total := len(negatives) + len(dups) + len(orphans) + len(stale)
	fmt.Printf("findings: %d\n", total)
	if total > 0 && !*fix {
		fmt.Println("re-run with -fix to repair what can be repaired")
	}
}
