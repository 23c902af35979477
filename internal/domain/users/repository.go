package users

import "context"

// Repository: GetByEmail devuelve ErrNotFound si no existe;
// Create devuelve ErrEmailTaken si el email ya está registrado.
type Repository interface {
	Create(ctx context.Context, u User) error
	GetByEmail(ctx context.Context, email string) (User, error)
}
