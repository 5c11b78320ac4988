package models

import (
	"log"

	"github.com/mmfurniture/store_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Store{}, &Staff{},
		&Customer{}, &Supplier{},
		&Product{}, &InventoryItem{},
		&Order{}, &OrderItem{}, &OrderItemStatusLog{},
		&Payment{}, &LedgerEntry{}, &FollowUp{},
		&ActionLog{}, &ChangeRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
