package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"softpet/internal/domain/validation"
	"softpet/internal/middleware"
	"softpet/internal/platform/logger"
)

const maxBodyBytes = 1 << 20

// SessionCookies es lo que el handler necesita del adapter de cookies.
type SessionCookies interface {
	Write(w http.ResponseWriter, token string)
	Clear(w http.ResponseWriter)
}

func RegisterRoutes(r chi.Router, svc *Service, cookies SessionCookies, log logger.Logger) {
	r.Route("/api/auth", func(ar chi.Router) {
		ar.Post("/register", registerHandler(svc, cookies, log))
		ar.Post("/login", loginHandler(svc, cookies, log))
		ar.Post("/logout", logoutHandler(cookies))
		ar.Get("/me", meHandler())
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// sessionResponse nunca incluye el token: solo viaja en la cookie HttpOnly.
type sessionResponse struct {
	Success bool         `json:"success"`
	User    userResponse `json:"user"`
}

type meResponse struct {
	User userResponse `json:"user"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Error   string                 `json:"error"`
	Details []validation.Violation `json:"details,omitempty"`
}

// registerHandler godoc
// @Summary  Registrar usuario
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body credentialsRequest true "credenciales"
// @Success  201 {object} sessionResponse
// @Failure  400 {object} errorResponse
// @Failure  500 {object} errorResponse
// @Router   /api/auth/register [post]
func registerHandler(svc *Service, cookies SessionCookies, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		sess, err := svc.Register(r.Context(), Credentials{Email: req.Email, Password: req.Password})
		if err != nil {
			var verr *validation.Error
			switch {
			case errors.As(err, &verr):
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Dados inválidos", Details: verr.Violations})
			case errors.Is(err, ErrEmailTaken):
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Email já está em uso"})
			default:
				internalError(w, r, log, "register failed", err)
			}
			return
		}

		cookies.Write(w, sess.Token)
		log.Info("user registered", map[string]any{"user_id": sess.User.ID})
		writeJSON(w, http.StatusCreated, sessionResponse{Success: true, User: toUserResponse(sess.User)})
	}
}

// loginHandler godoc
// @Summary  Login
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body credentialsRequest true "credenciales"
// @Success  200 {object} sessionResponse
// @Failure  400 {object} errorResponse
// @Failure  401 {object} errorResponse
// @Failure  500 {object} errorResponse
// @Router   /api/auth/login [post]
func loginHandler(svc *Service, cookies SessionCookies, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		sess, err := svc.Login(r.Context(), Credentials{Email: req.Email, Password: req.Password})
		if err != nil {
			var verr *validation.Error
			switch {
			case errors.As(err, &verr):
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Dados inválidos", Details: verr.Violations})
			case errors.Is(err, ErrInvalidCredentials):
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Email ou senha inválidos"})
			default:
				internalError(w, r, log, "login failed", err)
			}
			return
		}

		cookies.Write(w, sess.Token)
		writeJSON(w, http.StatusOK, sessionResponse{Success: true, User: toUserResponse(sess.User)})
	}
}

// logoutHandler godoc
// @Summary  Logout (borra la cookie de sesión)
// @Tags     auth
// @Produce  json
// @Success  200 {object} messageResponse
// @Router   /api/auth/logout [post]
func logoutHandler(cookies SessionCookies) http.HandlerFunc {
	// No exige sesión: borrar una cookie inexistente es inofensivo.
	return func(w http.ResponseWriter, _ *http.Request) {
		cookies.Clear(w)
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logout realizado com sucesso"})
	}
}

// meHandler godoc
// @Summary  Usuario actual
// @Tags     auth
// @Produce  json
// @Success  200 {object} meResponse
// @Failure  401 {object} errorResponse
// @Router   /api/auth/me [get]
func meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Não autenticado"})
			return
		}
		writeJSON(w, http.StatusOK, meResponse{User: userResponse{ID: claims.UserID, Email: claims.Email}})
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Dados inválidos"})
		return false
	}
	return true
}

func internalError(w http.ResponseWriter, r *http.Request, log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]any{
		"request_id": chimw.GetReqID(r.Context()),
		"err":        err,
	})
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Erro interno do servidor"})
}

// writeJSON está duplicado a propósito en users/pets (igual que en el resto de módulos).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
