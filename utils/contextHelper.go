package utils

import (
	"context"

	"github.com/mmfurniture/store_backend/appctx"
)

var (
	ContextKeyToken         = appctx.ContextKeyToken
	ContextKeyStoreId       = appctx.ContextKeyStoreId
	ContextKeyUsername      = appctx.ContextKeyUsername
	ContextKeyStaffId       = appctx.ContextKeyStaffId
	ContextKeyStaffName     = appctx.ContextKeyStaffName
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId

	ContextKeyIsAdmin         = appctx.ContextKeyIsAdmin
	ContextKeySkipTenantScope = appctx.ContextKeySkipTenantScope
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetStoreIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyStoreId)
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUsername)
}

func GetStaffIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyStaffId)
}

func GetStaffNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyStaffName)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetStoreIdInContext(ctx context.Context, storeId string) context.Context {
	return appctx.Set(ctx, ContextKeyStoreId, storeId)
}

func SetUsernameInContext(ctx context.Context, username string) context.Context {
	return appctx.Set(ctx, ContextKeyUsername, username)
}

func SetStaffIdInContext(ctx context.Context, staffId int) context.Context {
	return appctx.Set(ctx, ContextKeyStaffId, staffId)
}

func SetStaffNameInContext(ctx context.Context, staffName string) context.Context {
	return appctx.Set(ctx, ContextKeyStaffName, staffName)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetIsAdminFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeyIsAdmin)
}

func SetIsAdminInContext(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsAdmin, isAdmin)
}

func GetSkipTenantScopeFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeySkipTenantScope)
}

func SetSkipTenantScopeInContext(ctx context.Context, skip bool) context.Context {
	return appctx.Set(ctx, ContextKeySkipTenantScope, skip)
}

// RequireStoreAndStaff resolves the tenant and actor identity every core
// operation needs; fails fast when the session context is missing.
func RequireStoreAndStaff(ctx context.Context) (string, int, error) {
	storeId, ok := GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return "", 0, ErrorStoreRequired
	}
	staffId, ok := GetStaffIdFromContext(ctx)
	if !ok || staffId == 0 {
		return "", 0, ErrorStaffRequired
	}
	return storeId, staffId, nil
}
