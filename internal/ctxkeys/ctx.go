package ctxkeys

import "context"

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	ActorKey  contextKey = "actor_id"
	TenantKey contextKey = "tenant_id"
)

// SystemActor attributes writes that no user initiated, such as ledger postings.
const SystemActor = "system"

func Actor(ctx context.Context) string {
	actor, _ := ctx.Value(ActorKey).(string)
	return actor
}

func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ActorKey, actorID)
}

func Tenant(ctx context.Context) string {
	tenant, _ := ctx.Value(TenantKey).(string)
	return tenant
}

func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantKey, tenantID)
}

// WithIdentity sets both the acting user and the owning tenant.
func WithIdentity(ctx context.Context, actorID, tenantID string) context.Context {
	return WithTenant(WithActor(ctx, actorID), tenantID)
}
