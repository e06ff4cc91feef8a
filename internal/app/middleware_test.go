package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nusapos/nusapos/internal/shared"
)

func TestPrincipalMiddlewareLiftsHeaders(t *testing.T) {
	var got shared.Principal
	handler := principalMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Actor-ID", "42")
	req.Header.Set("X-Actor-Role", "admin")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.EqualValues(t, 42, got.ID)
	require.Equal(t, shared.RoleAdmin, got.Role)
	require.True(t, got.IsAdmin())
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := principalMiddleware(RequireAdmin(next))

	cases := []struct {
		name string
		role string
		want int
	}{
		{"admin passes", "admin", http.StatusNoContent},
		{"cashier rejected", "cashier", http.StatusForbidden},
		{"missing role rejected", "", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/confirm_payment", nil)
			if tc.role != "" {
				req.Header.Set("X-Actor-Role", tc.role)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusForbidden {
				require.JSONEq(t, `{"status":"fail","message":"admin role required"}`, rec.Body.String())
			}
		})
	}
}
