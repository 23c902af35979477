package session

import (
	"net/http"
	"strings"
	"time"
)

const (
	DefaultCookieName = "auth_token"
	DefaultMaxAge     = 7 * 24 * time.Hour
)

type CookieConfig struct {
	Name string

	// Secure solo en despliegues productivos; en local se sirve HTTP plano.
	Secure bool

	// MaxAge debe coincidir con la expiración del token.
	MaxAge time.Duration
}

// Cookies lee/escribe el token de sesión en la cookie.
// Atributos fijos: HttpOnly, SameSite=Lax, Path=/.
type Cookies struct {
	name   string
	secure bool
	maxAge time.Duration
}

func NewCookies(cfg CookieConfig) *Cookies {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = DefaultCookieName
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Cookies{name: name, secure: cfg.Secure, maxAge: maxAge}
}

func (c *Cookies) Write(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.base(token, int(c.maxAge/time.Second)))
}

// Read devuelve el token si la cookie existe y no está vacía.
func (c *Cookies) Read(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.name)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(ck.Value)
	if v == "" {
		return "", false
	}
	return v, true
}

// Clear emite Max-Age=0 + Expires en el pasado para que el cliente la descarte.
func (c *Cookies) Clear(w http.ResponseWriter) {
	ck := c.base("", -1)
	ck.Expires = time.Unix(0, 0)
	http.SetCookie(w, ck)
}

func (c *Cookies) base(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
