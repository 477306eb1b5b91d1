package middleware

import (
	"context"
	"net/http"

	"github.com/nkiryanov/accountd/internal/handlers/render"
)

type authService interface {
	// Authenticate request and return client name
	Auth(ctx context.Context, r *http.Request) (string, error)
}

type ctxKey string

const clientKey ctxKey = "client"

// Create a new context with the authenticated client name
func NewContextWithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, clientKey, client)
}

// Extract the authenticated client name from the context
func ClientFromContext(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(clientKey).(string)
	return c, ok
}

func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, err := as.Auth(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := NewContextWithClient(r.Context(), client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
