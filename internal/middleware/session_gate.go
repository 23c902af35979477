package middleware

import (
	"net/http"
	"strings"
)

// SessionGate es el filtro de borde para páginas: si la ruta cae bajo un
// prefijo protegido y no hay sesión válida, redirige a loginPath (307).
// Las rutas /api/* no pasan por acá; ahí cada handler responde 401.
func SessionGate(resolver IdentityResolver, protectedPrefixes []string, loginPath string) func(http.Handler) http.Handler {
	prefixes := normalizePrefixes(protectedPrefixes)
	if loginPath == "" {
		loginPath = "/login"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isProtected(r.URL.Path, prefixes) {
				next.ServeHTTP(w, r)
				return
			}

			// Si AuthContext ya resolvió la identidad no se verifica de nuevo.
			if _, ok := GetClaims(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			if resolver != nil {
				if claims, ok := resolver.CurrentUser(r); ok {
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
					return
				}
			}

			http.Redirect(w, r, loginPath, http.StatusTemporaryRedirect)
		})
	}
}

func normalizePrefixes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// isProtected: match exacto o por segmento ("/pets" cubre "/pets/1" pero no "/petshop").
func isProtected(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
