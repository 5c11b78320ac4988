package models

import (
	"context"
	"time"

	"github.com/mmfurniture/store_backend/config"
	"github.com/mmfurniture/store_backend/utils"
)

type StaffRole string

const (
	StaffRoleAdmin   StaffRole = "A"
	StaffRoleManager StaffRole = "M"
	StaffRoleStaff   StaffRole = "S"
)

type Staff struct {
	ID        int       `gorm:"primary_key" json:"id"`
	StoreId   string    `gorm:"index" json:"store_id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     *string   `gorm:"size:100;unique" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Password  string    `gorm:"size:255;not null" json:"password"`
	Role      StaffRole `gorm:"type:enum('A','M','S');default:S" json:"role"`
	IsActive  *bool     `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStaff struct {
	Username        string    `json:"username" binding:"required"`
	Name            string    `json:"name" binding:"required"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Password        string    `json:"password" binding:"required"`
	ConfirmPassword string    `json:"confirm_password" binding:"required"`
	Role            StaffRole `json:"role"`
}

func (staff *Staff) PrepareGive() {
	staff.Password = ""
}

func (input *NewStaff) validate(ctx context.Context, storeId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return utils.NewValidationError("", err.Error())
	}
	if input.Password != input.ConfirmPassword {
		return utils.NewValidationError("confirm_password", "password confirmation does not match")
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("email", "invalid email")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("phone", "invalid phone number")
		}
	}
	// username is globally unique
	if err := utils.ValidateUnique[Staff](ctx, "", "username", input.Username, id); err != nil {
		return utils.NewValidationError("username", "duplicate username")
	}
	return nil
}

func CreateStaff(ctx context.Context, input *NewStaff) (*Staff, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}

	if err := input.validate(ctx, storeId, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = StaffRoleStaff
	}
	email := input.Email
	staff := Staff{
		StoreId:  storeId,
		Username: input.Username,
		Name:     input.Name,
		Phone:    input.Phone,
		Password: string(hashed),
		Role:     role,
		IsActive: utils.NewTrue(),
	}
	if email != "" {
		staff.Email = &email
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&staff).Error; err != nil {
		return nil, utils.NewPersistenceError("create staff", err)
	}
	staff.PrepareGive()
	return &staff, nil
}

func GetStaff(ctx context.Context, id int) (*Staff, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	staff, err := utils.FetchModel[Staff](ctx, storeId, id)
	if err != nil {
		return nil, err
	}
	staff.PrepareGive()
	return staff, nil
}

func GetStaffByUsername(ctx context.Context, username string) (*Staff, error) {
	db := config.GetDB()
	var staff Staff
	if err := db.WithContext(ctx).Where("username = ?", username).First(&staff).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &staff, nil
}

func GetStaffs(ctx context.Context) ([]*Staff, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	staffs, err := utils.FetchAllModels[Staff](ctx, storeId)
	if err != nil {
		return nil, err
	}
	for _, s := range staffs {
		s.PrepareGive()
	}
	return staffs, nil
}

// VerifyStaffLogin checks the password and returns the staff row on success.
func VerifyStaffLogin(ctx context.Context, username string, password string) (*Staff, error) {
	staff, err := GetStaffByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if staff.IsActive != nil && !*staff.IsActive {
		return nil, utils.NewValidationError("username", "account is inactive")
	}
	if err := utils.ComparePassword(staff.Password, password); err != nil {
		return nil, utils.NewValidationError("password", "incorrect password")
	}
	staff.PrepareGive()
	return staff, nil
}

func ToggleActiveStaff(ctx context.Context, id int, isActive bool) (*Staff, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, utils.ErrorStoreRequired
	}
	staff, err := utils.FetchModel[Staff](ctx, storeId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(staff).UpdateColumn("IsActive", isActive).Error; err != nil {
		return nil, utils.NewPersistenceError("toggle staff", err)
	}
	staff.PrepareGive()
	return staff, nil
}
