package pets

import "context"

// Repository. Update/Delete van condicionados por (id, user_id): si la fila
// no existe o ya no pertenece a userID devuelven ErrNotFound.
type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	List(ctx context.Context, f ListFilter) ([]Pet, error)
	Update(ctx context.Context, p Pet) error
	Delete(ctx context.Context, id, userID string) error
}
