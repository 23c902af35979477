package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"softpet/internal/domain/validation"
	"softpet/internal/middleware"
	"softpet/internal/platform/logger"
)

const maxBodyBytes = 1 << 20

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/api/pets", func(pr chi.Router) {
		// Listado y alta: cualquier usuario autenticado.
		pr.Get("/", listPetsHandler(svc, log))
		pr.Post("/", createPetHandler(svc, log))

		// Solo el dueño.
		pr.Get("/{petID}", getPetHandler(svc, log))
		pr.Put("/{petID}", updatePetHandler(svc, log))
		pr.Delete("/{petID}", deletePetHandler(svc, log))
	})
}

type petRequest struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Breed       string  `json:"breed"`
	BirthDate   string  `json:"birthDate"`
	Description *string `json:"description"`
	OwnerName   string  `json:"ownerName"`
	OwnerPhone  string  `json:"ownerPhone"`
}

type petResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        Type      `json:"type"`
	Breed       string    `json:"breed"`
	BirthDate   time.Time `json:"birthDate"`
	Description *string   `json:"description"`
	OwnerName   string    `json:"ownerName"`
	OwnerPhone  string    `json:"ownerPhone"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type petEnvelope struct {
	Pet petResponse `json:"pet"`
}

// listResponse lleva currentUserId para que la UI distinga "mías" de "de otros".
type listResponse struct {
	Pets          []petResponse `json:"pets"`
	CurrentUserID string        `json:"currentUserId"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Error   string                 `json:"error"`
	Details []validation.Violation `json:"details,omitempty"`
}

// listPetsHandler godoc
// @Summary  Listar todas las mascotas
// @Tags     pets
// @Produce  json
// @Param    search query string false "filtro por nombre de mascota o del tutor"
// @Success  200 {object} listResponse
// @Failure  401 {object} errorResponse
// @Failure  500 {object} errorResponse
// @Router   /api/pets [get]
func listPetsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Não autenticado"})
			return
		}

		items, err := svc.List(r.Context(), ListFilter{Search: r.URL.Query().Get("search")})
		if err != nil {
			internalError(w, r, log, "list pets failed", err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}

		writeJSON(w, http.StatusOK, listResponse{Pets: out, CurrentUserID: claims.UserID})
	}
}

// createPetHandler godoc
// @Summary  Crear mascota (el usuario actual queda como dueño)
// @Tags     pets
// @Accept   json
// @Produce  json
// @Param    body body petRequest true "mascota"
// @Success  201 {object} petEnvelope
// @Failure  400 {object} errorResponse
// @Failure  401 {object} errorResponse
// @Failure  500 {object} errorResponse
// @Router   /api/pets [post]
func createPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Não autenticado"})
			return
		}

		var req petRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.Create(r.Context(), claims.UserID, req.toInput())
		if err != nil {
			if writeValidation(w, err) {
				return
			}
			internalError(w, r, log, "create pet failed", err)
			return
		}

		writeJSON(w, http.StatusCreated, petEnvelope{Pet: toPetResponse(p)})
	}
}

// getPetHandler godoc
// @Summary  Ver mascota (solo dueño)
// @Tags     pets
// @Produce  json
// @Param    petID path string true "id"
// @Success  200 {object} petEnvelope
// @Failure  401 {object} errorResponse
// @Failure  403 {object} errorResponse
// @Failure  404 {object} errorResponse
// @Router   /api/pets/{petID} [get]
func getPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Não autenticado"})
			return
		}

		p, err := svc.GetOwned(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			writeOwnershipError(w, r, log, err, "Acesso negado")
			return
		}

		writeJSON(w, http.StatusOK, petEnvelope{Pet: toPetResponse(p)})
	}
}

// updatePetHandler godoc
// @Summary  Actualizar mascota (solo dueño, reemplazo completo)
// @Tags     pets
// @Accept   json
// @Produce  json
// @Param    petID path string true "id"
// @Param    body body petRequest true "mascota"
// @Success  200 {object} petEnvelope
// @Failure  400 {object} errorResponse
// @Failure  401 {object} errorResponse
// @Failure  403 {object} errorResponse
// @Failure  404 {object} errorResponse
// @Router   /api/pets/{petID} [put]
func updatePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Não autenticado"})
			return
		}

		// Ownership antes que el body: un no-dueño recibe 403 aunque mande basura.
		petID := chi.URLParam(r, "petID")
		if _, err := svc.GetOwned(r.Context(), petID, claims.UserID); err != nil {
			writeOwnershipError(w, r, log, err, "Você não tem permissão para editar este pet")
			return
		}

		var req petRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.Update(r.Context(), petID, claims.UserID, req.toInput())
		if err != nil {
			if writeValidation(w, err) {
				return
			}
			writeOwnershipError(w, r, log, err, "Você não tem permissão para editar este pet")
			return
		}

		writeJSON(w, http.StatusOK, petEnvelope{Pet: toPetResponse(p)})
	}
}

// deletePetHandler godoc
// @Summary  Borrar mascota (solo dueño)
// @Tags     pets
// @Produce  json
// @Param    petID path string true "id"
// @Success  200 {object} messageResponse
// @Failure  401 {object} errorResponse
// @Failure  403 {object} errorResponse
// @Failure  404 {object} errorResponse
// @Router   /api/pets/{petID} [delete]
func deletePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Não autenticado"})
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID"), claims.UserID); err != nil {
			writeOwnershipError(w, r, log, err, "Você não tem permissão para deletar este pet")
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Pet deletado com sucesso"})
	}
}

func (req petRequest) toInput() Input {
	return Input{
		Name:        req.Name,
		Type:        req.Type,
		Breed:       req.Breed,
		BirthDate:   req.BirthDate,
		Description: req.Description,
		OwnerName:   req.OwnerName,
		OwnerPhone:  req.OwnerPhone,
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.Type,
		Breed:       p.Breed,
		BirthDate:   p.BirthDate,
		Description: p.Description,
		OwnerName:   p.OwnerName,
		OwnerPhone:  p.OwnerPhone,
		UserID:      p.UserID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// writeOwnershipError traduce ErrNotFound/ErrForbidden; forbiddenMsg depende de la operación.
func writeOwnershipError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error, forbiddenMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Pet não encontrado"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: forbiddenMsg})
	default:
		internalError(w, r, log, "pet operation failed", err)
	}
}

func writeValidation(w http.ResponseWriter, err error) bool {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Dados inválidos", Details: verr.Violations})
	return true
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
