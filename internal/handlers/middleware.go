package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/markjakearzadon/projectpay-gobackend/internal/services"
)

type TokenParser interface {
	Parse(token string) (*services.Principal, error)
}

type principalKey struct{}

// AuthMiddleware requires a valid bearer token and puts the caller's
// principal on the request context.
func AuthMiddleware(tokens TokenParser) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeMessage(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			parts := strings.Fields(auth)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeMessage(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}
			principal, err := tokens.Parse(parts[1])
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// AdminOnly rejects callers without the admin role. It must run after
// AuthMiddleware.
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFrom(r.Context()).IsAdmin() {
			writeMessage(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

func WithPrincipal(ctx context.Context, p *services.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) *services.Principal {
	p, _ := ctx.Value(principalKey{}).(*services.Principal)
	return p
}
