package memory

import (
	"testing"

	"softpet/internal/adapters/contracttest"
	"softpet/internal/domain/pets"
	"softpet/internal/domain/users"
)

func TestContract_MemoryUserRepo(t *testing.T) {
	contracttest.RunUserRepo(t, func(t *testing.T) (users.Repository, func()) {
		return NewUserRepo(), nil
	})
}

func TestContract_MemoryPetRepo(t *testing.T) {
	contracttest.RunPetRepo(t,
		func(t *testing.T) (users.Repository, func()) { return NewUserRepo(), nil },
		func(t *testing.T) (pets.Repository, func()) { return NewPetRepo(), nil },
	)
}
