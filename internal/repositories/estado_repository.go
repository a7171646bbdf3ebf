package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taller-backend/internal/models"
)

type EstadoRepository struct {
	DB *pgxpool.Pool
}

func NewEstadoRepository(db *pgxpool.Pool) *EstadoRepository {
	return &EstadoRepository{DB: db}
}

func (r *EstadoRepository) Create(ctx context.Context, e *models.Estado) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO estados(nombre, color, orden)
         VALUES($1, NULLIF($2,''), $3)
         RETURNING id, created_at, updated_at`,
		e.Nombre, e.Color, e.Orden,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EstadoRepository) Get(ctx context.Context, id int) (*models.Estado, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, nombre, COALESCE(color, '') as color, orden, created_at, updated_at
         FROM estados WHERE id=$1`, id)

	var e models.Estado
	err := row.Scan(&e.ID, &e.Nombre, &e.Color, &e.Orden, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *EstadoRepository) List(ctx context.Context) ([]*models.Estado, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, nombre, COALESCE(color, '') as color, orden, created_at, updated_at
         FROM estados ORDER BY orden, nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var estados []*models.Estado
	for rows.Next() {
		var e models.Estado
		if err := rows.Scan(&e.ID, &e.Nombre, &e.Color, &e.Orden, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		estados = append(estados, &e)
	}
	return estados, rows.Err()
}

func (r *EstadoRepository) Update(ctx context.Context, e *models.Estado) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE estados SET nombre=$1, color=NULLIF($2,''), orden=$3, updated_at=CURRENT_TIMESTAMP
         WHERE id=$4`,
		e.Nombre, e.Color, e.Orden, e.ID)
	return err
}

func (r *EstadoRepository) Delete(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM estados WHERE id=$1`, id)
	return err
}
