package users

import "time"

// User es el registro de credenciales. El email es la clave de búsqueda
// (comparación exacta, sensible a mayúsculas).
type User struct {
	ID           string
	Email        string
	PasswordHash string

	CreatedAt time.Time
}
