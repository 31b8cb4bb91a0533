// Файл: pkg/utils/context_utils.go

package utils

import (
	"context"

	"permanence-system/internal/entities"
	"permanence-system/pkg/contextkeys"
	apperrors "permanence-system/pkg/errors"
)

// GetActorFromContext: пользователь, загруженный AuthMiddleware.
func GetActorFromContext(ctx context.Context) (*entities.User, error) {
	actor, ok := ctx.Value(contextkeys.ActorKey).(*entities.User)
	if !ok || actor == nil {
		return nil, apperrors.ErrActorNotFoundInContext
	}
	return actor, nil
}

func WithActor(ctx context.Context, actor *entities.User) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, actor.ID)
	return context.WithValue(ctx, contextkeys.ActorKey, actor)
}

func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(contextkeys.ClientIPKey).(string)
	return ip
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextkeys.RequestIDKey).(string)
	return id
}
