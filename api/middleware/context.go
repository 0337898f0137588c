package middleware

import (
	"context"

	"github.com/angelmondragon/pickupz-backend/pkg/enums"
)

type actorKey struct{}

// Actor is the authenticated caller. StoreID is set only for merchants acting on a store.
type Actor struct {
	UserID  string
	Role    enums.UserRole
	StoreID string
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the zero Actor for unauthenticated requests.
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}

func UserIDFromContext(ctx context.Context) string {
	return ActorFromContext(ctx).UserID
}

func RoleFromContext(ctx context.Context) string {
	return string(ActorFromContext(ctx).Role)
}

func StoreIDFromContext(ctx context.Context) string {
	return ActorFromContext(ctx).StoreID
}

func WithUserID(ctx context.Context, userID string) context.Context {
	actor := ActorFromContext(ctx)
	actor.UserID = userID
	return WithActor(ctx, actor)
}

func WithRole(ctx context.Context, role enums.UserRole) context.Context {
	actor := ActorFromContext(ctx)
	actor.Role = role
	return WithActor(ctx, actor)
}

func WithStoreID(ctx context.Context, storeID string) context.Context {
	actor := ActorFromContext(ctx)
	actor.StoreID = storeID
	return WithActor(ctx, actor)
}
