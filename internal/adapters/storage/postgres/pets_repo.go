package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"softpet/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, user_id,
	name, type, breed,
	birth_date, description,
	owner_name, owner_phone,
	created_at, updated_at
`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		p.ID,
		p.UserID,
		p.Name,
		string(p.Type),
		p.Breed,
		p.BirthDate,
		toNullString(p.Description),
		p.OwnerName,
		p.OwnerPhone,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update va condicionado por (id, user_id): 0 filas => borrada o ajena.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	if !validIDs(p.ID, p.UserID) {
		return pets.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $3,
			type = $4,
			breed = $5,
			birth_date = $6,
			description = $7,
			owner_name = $8,
			owner_phone = $9,
			updated_at = $10
		WHERE id = $1 AND user_id = $2
	`,
		p.ID,
		p.UserID,
		p.Name,
		string(p.Type),
		p.Breed,
		p.BirthDate,
		toNullString(p.Description),
		p.OwnerName,
		p.OwnerPhone,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PetsRepo) Delete(ctx context.Context, id, userID string) error {
	if !validIDs(id, userID) {
		return pets.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM pets
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if !validIDs(id) {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE id = $1
	`, id)

	p, err := scanPet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

// List devuelve todas las mascotas (de todos los usuarios), más nuevas primero.
func (r *PetsRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pets`
	args := []any{}

	if q := strings.TrimSpace(f.Search); q != "" {
		query += ` WHERE name ILIKE $1 ESCAPE '\' OR owner_name ILIKE $1 ESCAPE '\'`
		args = append(args, "%"+escapeLike(q)+"%")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(s rowScanner) (pets.Pet, error) {
	var p pets.Pet
	var typ string
	var desc sql.NullString

	if err := s.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&typ,
		&p.Breed,
		&p.BirthDate,
		&desc,
		&p.OwnerName,
		&p.OwnerPhone,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}

	p.Type = pets.Type(typ)
	// birth_date es DATE: pgx lo trae como medianoche, lo normalizamos a UTC.
	p.BirthDate = p.BirthDate.UTC()
	if desc.Valid {
		d := desc.String
		p.Description = &d
	}
	return p, nil
}

// validIDs: un id que no es UUID no existe en la tabla (y Postgres rechazaría el cast).
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// escapeLike neutraliza comodines para que la búsqueda sea literal.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
