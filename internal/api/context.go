package api

import (
	"context"
)

type contextKey string

const userContextKey contextKey = "acting_user"

// UserFromContext extracts the acting user ID from context
func UserFromContext(ctx context.Context) string {
	userID, ok := ctx.Value(userContextKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// ContextWithUser adds the acting user ID to context
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}
