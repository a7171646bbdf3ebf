package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taller-backend/internal/models"
)

type MarcaRepository struct {
	DB *pgxpool.Pool
}

func NewMarcaRepository(db *pgxpool.Pool) *MarcaRepository {
	return &MarcaRepository{DB: db}
}

func (r *MarcaRepository) Create(ctx context.Context, m *models.Marca) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO marcas(nombre, icono_url, activa)
         VALUES($1, NULLIF($2,''), true)
         RETURNING id, created_at, updated_at`,
		m.Nombre, m.IconoURL,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MarcaRepository) Get(ctx context.Context, id int) (*models.Marca, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, nombre, COALESCE(icono_url, '') as icono_url, activa, created_at, updated_at
         FROM marcas WHERE id=$1`, id)

	var m models.Marca
	err := row.Scan(&m.ID, &m.Nombre, &m.IconoURL, &m.Activa, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *MarcaRepository) ExistsByNombre(ctx context.Context, nombre string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM marcas WHERE LOWER(nombre)=LOWER($1))`, nombre).Scan(&exists)
	return exists, err
}

func (r *MarcaRepository) List(ctx context.Context) ([]*models.Marca, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, nombre, COALESCE(icono_url, '') as icono_url, activa, created_at, updated_at
         FROM marcas WHERE activa ORDER BY nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var marcas []*models.Marca
	for rows.Next() {
		var m models.Marca
		if err := rows.Scan(&m.ID, &m.Nombre, &m.IconoURL, &m.Activa, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		marcas = append(marcas, &m)
	}
	return marcas, rows.Err()
}

func (r *MarcaRepository) Update(ctx context.Context, m *models.Marca) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE marcas SET nombre=$1, icono_url=NULLIF($2,''), updated_at=CURRENT_TIMESTAMP
         WHERE id=$3`,
		m.Nombre, m.IconoURL, m.ID)
	return err
}

// Delete deactivates the brand. Cascades over dependent models are
// resolved here, not by callers.
func (r *MarcaRepository) Delete(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `UPDATE marcas SET activa=false, updated_at=CURRENT_TIMESTAMP WHERE id=$1`, id)
	return err
}
