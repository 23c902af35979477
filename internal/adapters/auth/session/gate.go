package session

import (
	"net/http"

	"softpet/internal/platform/logger"
	"softpet/internal/ports/auth"
)

// Gate responde "quién llama": cookie -> verificación del token.
type Gate struct {
	cookies  *Cookies
	verifier auth.AuthVerifier
	log      logger.Logger
}

func NewGate(cookies *Cookies, verifier auth.AuthVerifier, log logger.Logger) *Gate {
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{cookies: cookies, verifier: verifier, log: log}
}

// CurrentUser devuelve la identidad completa o (Claims{}, false). Nunca parcial.
func (g *Gate) CurrentUser(r *http.Request) (auth.Claims, bool) {
	if g == nil || g.cookies == nil || g.verifier == nil {
		return auth.Claims{}, false
	}

	token, ok := g.cookies.Read(r)
	if !ok {
		return auth.Claims{}, false
	}

	claims, err := g.verifier.Verify(r.Context(), token)
	if err != nil {
		g.log.Debug("session token rejected", map[string]any{
			"path": r.URL.Path,
			"err":  err,
		})
		return auth.Claims{}, false
	}
	if claims.Anonymous() {
		return auth.Claims{}, false
	}
	return claims, true
}
