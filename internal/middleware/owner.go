package middleware

import (
	"context"
	"net/http"
)

const headerOwnerID = "X-Owner-ID"

type ownerCtxKey struct{}

// OwnerID is middleware that extracts the authenticated owner identity from
// the X-Owner-ID header and stores it in the request context. Authentication
// itself happens upstream; a request without the header is rejected.
func OwnerID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		oid := r.Header.Get(headerOwnerID)
		if oid == "" {
			http.Error(w, `{"error":"missing owner identity"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ownerCtxKey{}, oid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerIDFromContext returns the owner ID stored in ctx, or empty if absent.
func OwnerIDFromContext(ctx context.Context) string {
	if oid, ok := ctx.Value(ownerCtxKey{}).(string); ok {
		return oid
	}
	return ""
}
