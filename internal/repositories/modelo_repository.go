package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taller-backend/internal/models"
)

type ModeloRepository struct {
	DB *pgxpool.Pool
}

func NewModeloRepository(db *pgxpool.Pool) *ModeloRepository {
	return &ModeloRepository{DB: db}
}

func (r *ModeloRepository) Create(ctx context.Context, m *models.Modelo) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO modelos(marca_id, nombre, anio, activo)
         VALUES($1, $2, $3, true)
         RETURNING id, created_at, updated_at`,
		m.MarcaID, m.Nombre, m.Anio,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *ModeloRepository) Get(ctx context.Context, id int) (*models.Modelo, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, marca_id, nombre, anio, activo, created_at, updated_at
         FROM modelos WHERE id=$1`, id)

	var m models.Modelo
	err := row.Scan(&m.ID, &m.MarcaID, &m.Nombre, &m.Anio, &m.Activo, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *ModeloRepository) ListByMarca(ctx context.Context, marcaID int) ([]*models.Modelo, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, marca_id, nombre, anio, activo, created_at, updated_at
         FROM modelos WHERE marca_id=$1 AND activo ORDER BY nombre`, marcaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modelos []*models.Modelo
	for rows.Next() {
		var m models.Modelo
		if err := rows.Scan(&m.ID, &m.MarcaID, &m.Nombre, &m.Anio, &m.Activo, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		modelos = append(modelos, &m)
	}
	return modelos, rows.Err()
}

func (r *ModeloRepository) ExistsByNombre(ctx context.Context, marcaID int, nombre string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM modelos WHERE marca_id=$1 AND LOWER(nombre)=LOWER($2))`,
		marcaID, nombre).Scan(&exists)
	return exists, err
}

func (r *ModeloRepository) Update(ctx context.Context, m *models.Modelo) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE modelos SET nombre=$1, anio=$2, updated_at=CURRENT_TIMESTAMP WHERE id=$3`,
		m.Nombre, m.Anio, m.ID)
	return err
}

func (r *ModeloRepository) Delete(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `UPDATE modelos SET activo=false, updated_at=CURRENT_TIMESTAMP WHERE id=$1`, id)
	return err
}
