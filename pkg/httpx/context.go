package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyRoles  ctxKey = "roles"
)

func rolesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyRoles).([]string); ok {
		return v
	}
	return nil
}

// RolesFromContext returns the roles attached to the request context, if any.
func RolesFromContext(ctx context.Context) []string {
	return rolesFromCtx(ctx)
}
