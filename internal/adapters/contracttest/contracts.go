package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"softpet/internal/domain/pets"
	"softpet/internal/domain/users"
)

type CleanupFunc = func()

type UserRepoFactory func(t *testing.T) (users.Repository, CleanupFunc)
type PetRepoFactory func(t *testing.T) (pets.Repository, CleanupFunc)

// RunUserRepo: alta, búsqueda exacta por email y unicidad.
func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	tag := uuid.NewString()[:8]
	email := "alice-" + tag + "@example.com"

	u := users.User{ID: uuid.NewString(), Email: email, PasswordHash: "hash", CreatedAt: now}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %#v", got)
	}

	// Email único.
	dup := users.User{ID: uuid.NewString(), Email: email, PasswordHash: "other", CreatedAt: now}
	if err := repo.Create(ctx, dup); !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// Comparación sensible a mayúsculas.
	if _, err := repo.GetByEmail(ctx, "ALICE-"+tag+"@example.com"); !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for different case, got %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "nobody-"+tag+"@example.com"); !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown email, got %v", err)
	}
}

// RunPetRepo: CRUD, orden, búsqueda y escrituras condicionadas por dueño.
// Los dueños se dan de alta en el repo de usuarios (en postgres hay FK).
func RunPetRepo(t *testing.T, newUsers UserRepoFactory, newPets PetRepoFactory) {
	t.Helper()
	ctx := context.Background()

	userRepo, uCleanup := newUsers(t)
	if uCleanup != nil {
		t.Cleanup(uCleanup)
	}
	repo, pCleanup := newPets(t)
	if pCleanup != nil {
		t.Cleanup(pCleanup)
	}

	tag := uuid.NewString()[:8]
	seed := func(name string) string {
		id := uuid.NewString()
		if err := userRepo.Create(ctx, users.User{
			ID:           id,
			Email:        name + "-" + tag + "@example.com",
			PasswordHash: "hash",
			CreatedAt:    time.Unix(1000, 0).UTC(),
		}); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
		return id
	}
	ownerA := seed("a")
	ownerB := seed("b")

	base := time.Unix(2000, 0).UTC()
	desc := "dócil"
	mk := func(owner, name, ownerName string, offset time.Duration) pets.Pet {
		p := pets.Pet{
			ID:          uuid.NewString(),
			UserID:      owner,
			Name:        name,
			Type:        pets.TypeDog,
			Breed:       "Lab",
			BirthDate:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			Description: &desc,
			OwnerName:   ownerName,
			OwnerPhone:  "(11) 91234-5678",
			CreatedAt:   base.Add(offset),
			UpdatedAt:   base.Add(offset),
		}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		return p
	}

	older := mk(ownerA, "Rex "+tag, "Ana", 0)
	newer := mk(ownerB, "Mimi", "Bruno "+tag, time.Minute)

	got, err := repo.GetByID(ctx, older.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UserID != ownerA || got.Type != pets.TypeDog || !got.BirthDate.Equal(older.BirthDate) {
		t.Fatalf("unexpected pet: %#v", got)
	}
	if got.Description == nil || *got.Description != desc {
		t.Fatalf("description not persisted: %v", got.Description)
	}
	if _, err := repo.GetByID(ctx, uuid.NewString()); !errors.Is(err, pets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "not-a-uuid"); !errors.Is(err, pets.ErrNotFound) {
		t.Fatalf("malformed id: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "not-a-uuid", ownerA); !errors.Is(err, pets.ErrNotFound) {
		t.Fatalf("malformed id delete: expected ErrNotFound, got %v", err)
	}

	// Búsqueda case-insensitive en name u ownerName, más nuevas primero.
	found, err := repo.List(ctx, pets.ListFilter{Search: tag})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(found) != 2 || found[0].ID != newer.ID || found[1].ID != older.ID {
		t.Fatalf("unexpected list: %#v", found)
	}
	all, err := repo.List(ctx, pets.ListFilter{})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) < 2 {
		t.Fatalf("expected pets of every owner, got %d", len(all))
	}

	// Comodines LIKE se tratan como texto.
	if res, err := repo.List(ctx, pets.ListFilter{Search: "%" + tag}); err != nil || len(res) != 0 {
		t.Fatalf("wildcards must be literal: n=%d err=%v", len(res), err)
	}

	// Update de un no-dueño no toca la fila.
	hijack := older
	hijack.UserID = ownerB
	hijack.Name = "Hijacked"
	if err := repo.Update(ctx, hijack); !errors.Is(err, pets.ErrNotFound) {
		t.Fatalf("update by non-owner: expected ErrNotFound, got %v", err)
	}
	if got, _ := repo.GetByID(ctx, older.ID); got.Name != older.Name {
		t.Fatalf("record changed by non-owner update: %#v", got)
	}

	upd := older
	upd.Name = "Rex II " + tag
	upd.Type = pets.TypeCat
	upd.Description = nil
	upd.UpdatedAt = base.Add(time.Hour)
	if err := repo.Update(ctx, upd); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.GetByID(ctx, older.ID)
	if got.Name != upd.Name || got.Type != pets.TypeCat || got.Description != nil || !got.UpdatedAt.Equal(upd.UpdatedAt) {
		t.Fatalf("unexpected updated pet: %#v", got)
	}

	// Delete condicionado por dueño.
	if err := repo.Delete(ctx, older.ID, ownerB); !errors.Is(err, pets.ErrNotFound) {
		t.Fatalf("delete by non-owner: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, older.ID, ownerA); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, older.ID); !errors.Is(err, pets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, older.ID, ownerA); !errors.Is(err, pets.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}
