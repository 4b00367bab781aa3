package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
)

type contextKey string

const (
	ctxProviderID contextKey = "provider_id"
	ctxRole       contextKey = "provider_role"
)

func ProviderIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxProviderID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.ProviderRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.ProviderRole); ok {
		return v
	}
	return ""
}

// WithProviderID injects the provider identifier into the context.
func WithProviderID(ctx context.Context, providerID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxProviderID, providerID)
}

// WithRole injects the actor role into the context for downstream handlers.
func WithRole(ctx context.Context, role enums.ProviderRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}
