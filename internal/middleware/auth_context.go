package middleware

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"softpet/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// IdentityResolver resuelve quién llama a partir del request (cookie de sesión).
type IdentityResolver interface {
	CurrentUser(r *http.Request) (auth.Claims, bool)
}

// AuthContext:
// - Resuelve la identidad una sola vez por request y la deja en el contexto.
// - Si no hay sesión válida el request sigue igual; los handlers deciden 401.
// - Marca el span del request (si hay) con el usuario.
func AuthContext(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := resolver.CurrentUser(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("softpet.user_id", claims.UserID))
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims guarda la identidad en el contexto (también lo usan los tests).
func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	if !ok || c.Anonymous() {
		return auth.Claims{}, false
	}
	return c, true
}
