package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"softpet/internal/domain/validation"
	"softpet/internal/platform/logger"
	"softpet/internal/ports/events"
)

var (
	ErrNotFound  = errors.New("pet not found")
	ErrForbidden = errors.New("forbidden")
)

const (
	EventCreated = "pet.created"
	EventUpdated = "pet.updated"
	EventDeleted = "pet.deleted"
)

type Service struct {
	repo Repository
	pub  events.Publisher
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, pub events.Publisher, log logger.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		pub:  pub,
		log:  log,
		now:  time.Now,
	}
}

// Input es el payload de create/update (PUT reemplaza todos los campos).
type Input struct {
	Name        string
	Type        string
	Breed       string
	BirthDate   string // YYYY-MM-DD o RFC3339
	Description *string
	OwnerName   string
	OwnerPhone  string
}

// Create asigna como dueño a ownerUserID; no hay chequeo de ownership.
func (s *Service) Create(ctx context.Context, ownerUserID string, in Input) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrForbidden
	}

	fields, err := normalize(in)
	if err != nil {
		return Pet{}, err
	}

	now := s.now()
	p := fields
	p.ID = uuid.NewString()
	p.UserID = ownerUserID
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, fmt.Errorf("pets: create: %w", err)
	}

	s.publish(ctx, EventCreated, p, ownerUserID)
	return p, nil
}

// List devuelve las mascotas de todos los usuarios, más nuevas primero.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Pet, error) {
	f.Search = strings.TrimSpace(f.Search)
	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("pets: list: %w", err)
	}
	return items, nil
}

// GetOwned devuelve la mascota solo si callerID es el dueño.
func (s *Service) GetOwned(ctx context.Context, id, callerID string) (Pet, error) {
	return s.loadOwned(ctx, id, callerID)
}

// Update: cargar -> ownership -> validar -> escribir (condicionado por dueño).
func (s *Service) Update(ctx context.Context, id, callerID string, in Input) (Pet, error) {
	current, err := s.loadOwned(ctx, id, callerID)
	if err != nil {
		return Pet{}, err
	}

	fields, err := normalize(in)
	if err != nil {
		return Pet{}, err
	}

	updated := fields
	updated.ID = current.ID
	updated.UserID = current.UserID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, updated); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Borrada entre la lectura y la escritura.
			return Pet{}, ErrNotFound
		}
		return Pet{}, fmt.Errorf("pets: update: %w", err)
	}

	s.publish(ctx, EventUpdated, updated, callerID)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	current, err := s.loadOwned(ctx, id, callerID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, current.ID, callerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("pets: delete: %w", err)
	}

	s.publish(ctx, EventDeleted, current, callerID)
	return nil
}

func (s *Service) loadOwned(ctx context.Context, id, callerID string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Pet{}, ErrNotFound
		}
		return Pet{}, fmt.Errorf("pets: get: %w", err)
	}

	if callerID == "" || p.UserID != callerID {
		return Pet{}, ErrForbidden
	}
	return p, nil
}

// publish es best-effort: un broker caído no invalida la escritura ya hecha.
func (s *Service) publish(ctx context.Context, typ string, p Pet, actorID string) {
	err := s.pub.Publish(ctx, events.Event{
		Type:        typ,
		AggregateID: p.ID,
		ActorID:     actorID,
		OccurredAt:  s.now(),
		Payload: map[string]any{
			"name": p.Name,
			"type": string(p.Type),
		},
	})
	if err != nil {
		s.log.Warn("pet event publish failed", map[string]any{
			"event":  typ,
			"pet_id": p.ID,
			"err":    err,
		})
	}
}

type petRules struct {
	Name       string `json:"name" validate:"required"`
	Type       string `json:"type" validate:"oneof=DOG CAT"`
	Breed      string `json:"breed" validate:"required"`
	BirthDate  string `json:"birthDate" validate:"required,birthdate"`
	OwnerName  string `json:"ownerName" validate:"min=3"`
	OwnerPhone string `json:"ownerPhone" validate:"min=14"` // "(11) 9123-4567"
}

var petMessages = validation.Messages{
	"name":                "Nome do pet é obrigatório",
	"type":                "Tipo deve ser Cachorro ou Gato",
	"breed":               "Raça é obrigatória",
	"birthDate.required":  "Data de nascimento é obrigatória",
	"birthDate.birthdate": "Data de nascimento inválida",
	"ownerName":           "Nome do dono deve ter no mínimo 3 caracteres",
	"ownerPhone":          "Telefone é obrigatório",
}

func init() {
	validation.MustRegister("birthdate", func(fl validator.FieldLevel) bool {
		_, ok := parseBirthDate(fl.Field().String())
		return ok
	})
}

// normalize recorta, valida y devuelve los campos de dominio.
func normalize(in Input) (Pet, error) {
	rules := petRules{
		Name:       strings.TrimSpace(in.Name),
		Type:       strings.TrimSpace(in.Type),
		Breed:      strings.TrimSpace(in.Breed),
		BirthDate:  strings.TrimSpace(in.BirthDate),
		OwnerName:  strings.TrimSpace(in.OwnerName),
		OwnerPhone: strings.TrimSpace(in.OwnerPhone),
	}
	if err := validation.Struct(rules, petMessages); err != nil {
		return Pet{}, err
	}

	birth, _ := parseBirthDate(rules.BirthDate)

	var desc *string
	if in.Description != nil {
		if d := strings.TrimSpace(*in.Description); d != "" {
			desc = &d
		}
	}

	return Pet{
		Name:        rules.Name,
		Type:        Type(rules.Type),
		Breed:       rules.Breed,
		BirthDate:   birth,
		Description: desc,
		OwnerName:   rules.OwnerName,
		OwnerPhone:  rules.OwnerPhone,
	}, nil
}

func parseBirthDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
