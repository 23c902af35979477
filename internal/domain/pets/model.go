package pets

import "time"

// Type es la especie de la mascota.
// @Enum DOG, CAT
type Type string

const (
	TypeDog Type = "DOG"
	TypeCat Type = "CAT"
)

// Pet es el registro de una mascota. UserID es el dueño: se fija al crear
// y no cambia nunca (no existe transferencia).
type Pet struct {
	ID     string
	UserID string

	Name        string
	Type        Type
	Breed       string
	BirthDate   time.Time
	Description *string

	// Datos de contacto del tutor, libres (no son el User dueño del registro).
	OwnerName  string
	OwnerPhone string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter: Search busca (case-insensitive) en Name u OwnerName.
type ListFilter struct {
	Search string
}
