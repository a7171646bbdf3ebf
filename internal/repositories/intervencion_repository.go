package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taller-backend/internal/models"
)

type IntervencionRepository struct {
	DB *pgxpool.Pool
}

func NewIntervencionRepository(db *pgxpool.Pool) *IntervencionRepository {
	return &IntervencionRepository{DB: db}
}

func (r *IntervencionRepository) Create(ctx context.Context, iv *models.Intervencion) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO intervenciones(nombre, descripcion, precio, tipo, averia_id, modelo_id)
         VALUES($1, NULLIF($2,''), $3, $4, $5, $6)
         RETURNING id, created_at`,
		iv.Nombre, iv.Descripcion, iv.Precio, iv.Tipo, iv.AveriaID, iv.ModeloID,
	).Scan(&iv.ID, &iv.CreatedAt)
}

// ListFiltradas returns interventions applicable to a model/fault pair.
// Catalog entries without a model or fault scope match everything.
func (r *IntervencionRepository) ListFiltradas(ctx context.Context, modeloID, averiaID *int) ([]*models.Intervencion, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, nombre, COALESCE(descripcion, '') as descripcion, precio, tipo, averia_id, modelo_id, created_at
         FROM intervenciones
         WHERE ($1::int IS NULL OR modelo_id IS NULL OR modelo_id = $1)
           AND ($2::int IS NULL OR averia_id IS NULL OR averia_id = $2)
         ORDER BY tipo, nombre`, modeloID, averiaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIntervenciones(rows)
}

// Sugerencias ranks interventions by how often they were quoted for the
// given fault (and model, when known).
func (r *IntervencionRepository) Sugerencias(ctx context.Context, averiaID, modeloID *int, limit int) ([]*models.Intervencion, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT i.id, i.nombre, COALESCE(i.descripcion, '') as descripcion, i.precio, i.tipo,
                i.averia_id, i.modelo_id, i.created_at
         FROM intervenciones i
         LEFT JOIN presupuesto_items pi ON pi.intervencion_id = i.id
         WHERE ($1::int IS NULL OR i.averia_id IS NULL OR i.averia_id = $1)
           AND ($2::int IS NULL OR i.modelo_id IS NULL OR i.modelo_id = $2)
         GROUP BY i.id
         ORDER BY COUNT(pi.id) DESC, i.nombre
         LIMIT $3`, averiaID, modeloID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIntervenciones(rows)
}

func scanIntervenciones(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]*models.Intervencion, error) {
	var out []*models.Intervencion
	for rows.Next() {
		var iv models.Intervencion
		if err := rows.Scan(&iv.ID, &iv.Nombre, &iv.Descripcion, &iv.Precio, &iv.Tipo,
			&iv.AveriaID, &iv.ModeloID, &iv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &iv)
	}
	return out, rows.Err()
}
