package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"softpet/internal/domain/pets"
)

type petRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID: make(map[string]pets.Pet),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("pet already exists")
	}
	r.byID[p.ID] = clonePet(p)
	return nil
}

// Update solo escribe si la fila sigue existiendo y es de p.UserID.
func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[p.ID]
	if !exists || cur.UserID != p.UserID {
		return pets.ErrNotFound
	}

	// Dueño y fecha de alta no se tocan.
	p.UserID = cur.UserID
	p.CreatedAt = cur.CreatedAt
	r.byID[p.ID] = clonePet(p)
	return nil
}

func (r *petRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[id]
	if !exists || cur.UserID != userID {
		return pets.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return clonePet(p), nil
}

func (r *petRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]pets.Pet, 0, len(r.byID))
	for _, p := range r.byID {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.OwnerName), q) {
			continue
		}
		out = append(out, clonePet(p))
	}

	// Más nuevas primero; desempate por id para que el orden sea estable.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

// clonePet evita que el caller comparta el puntero de Description con el store.
func clonePet(p pets.Pet) pets.Pet {
	if p.Description != nil {
		d := *p.Description
		p.Description = &d
	}
	return p
}
