package obscontext

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	tenantIDKey  contextKey = "tenant_id"
	actorIDKey   contextKey = "actor_id"
	actorRoleKey contextKey = "actor_role"
)

// WithRequestID attaches a request identifier to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request identifier, or "".
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDKey)
}

// WithTenantID attaches the acting tenant identifier to the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantIDFromContext returns the tenant identifier, or "".
func TenantIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, tenantIDKey)
}

// WithActor attaches the acting account identifier and role to the context.
func WithActor(ctx context.Context, accountID, role string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, accountID)
	return context.WithValue(ctx, actorRoleKey, role)
}

// ActorFromContext returns the acting account identifier and role, or "".
func ActorFromContext(ctx context.Context) (string, string) {
	return stringFromContext(ctx, actorIDKey), stringFromContext(ctx, actorRoleKey)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}
	return ""
}
