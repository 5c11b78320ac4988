// seed-admin creates or updates the console admin user (username: storeAdmin).
// Admin staff have role 'A' and no store binding; they bypass tenant scoping.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/models"
	"github.com/mmfurniture/store_backend/utils"
	"gorm.io/gorm"
)

const (
	adminUsername = "storeAdmin"
	adminPassword = "St0re@dmin"
	adminName     = "Store Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	models.MigrateTable()

	ctx = utils.SetStaffIdInContext(ctx, 1)
	ctx = utils.SetStaffNameInContext(ctx, "Seed")
	ctx = utils.SetUsernameInContext(ctx, adminUsername)
	ctx = utils.SetIsAdminInContext(ctx, true)
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var existing models.Staff
	err = db.WithContext(ctx).Where("username = ?", adminUsername).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		admin := models.Staff{
			Username: adminUsername,
			Name:     adminName,
			Password: string(hashed),
			Role:     models.StaffRoleAdmin,
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created admin user %q (id %d)\n", adminUsername, admin.ID)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup admin: %v\n", err)
		os.Exit(1)
	}

	err = db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"Password": hashed,
		"Role":     models.StaffRoleAdmin,
		"IsActive": true,
	}).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("updated admin user %q (id %d)\n", adminUsername, existing.ID)
}
