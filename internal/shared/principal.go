package shared

import (
	"context"
	"net/http"
	"strconv"
)

// Role identifies the authorization level of a request principal.
type Role string

const (
	// RoleAdmin may confirm payments and manage the catalog.
	RoleAdmin Role = "admin"
	// RoleCashier operates the self-service checkout lane.
	RoleCashier Role = "cashier"
)

// Principal is the authenticated caller as asserted by the upstream
// auth gateway. Credential verification happens outside this service;
// we only consume the identity headers the gateway injects.
type Principal struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalContextKey{}).(Principal)
	return p
}

// PrincipalFromHeaders builds a Principal from gateway identity headers.
func PrincipalFromHeaders(r *http.Request) Principal {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return Principal{
		ID:   id,
		Role: Role(r.Header.Get("X-Actor-Role")),
	}
}
