package web

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed pages/*.html
var pages embed.FS

// RegisterRoutes monta las páginas. El filtro de sesión (middleware.SessionGate)
// se aplica desde el router, no acá.
func RegisterRoutes(r chi.Router) {
	r.Get("/", page("pages/index.html"))
	r.Get("/login", page("pages/login.html"))
	r.Get("/register", page("pages/register.html"))
	r.Get("/dashboard", page("pages/dashboard.html"))
}

func page(name string) http.HandlerFunc {
	body, err := pages.ReadFile(name)
	if err != nil {
		// Solo pasa si el embed no incluye el archivo: error de build.
		panic("web: missing page " + name)
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
