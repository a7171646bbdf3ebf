package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taller-backend/internal/models"
)

type AveriaRepository struct {
	DB *pgxpool.Pool
}

func NewAveriaRepository(db *pgxpool.Pool) *AveriaRepository {
	return &AveriaRepository{DB: db}
}

func (r *AveriaRepository) Create(ctx context.Context, a *models.Averia) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO averias(nombre, descripcion)
         VALUES($1, NULLIF($2,''))
         RETURNING id, created_at`,
		a.Nombre, a.Descripcion,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *AveriaRepository) ExistsByNombre(ctx context.Context, nombre string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM averias WHERE LOWER(nombre)=LOWER($1))`, nombre).Scan(&exists)
	return exists, err
}

func (r *AveriaRepository) List(ctx context.Context) ([]*models.Averia, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, nombre, COALESCE(descripcion, '') as descripcion, created_at
         FROM averias ORDER BY nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var averias []*models.Averia
	for rows.Next() {
		var a models.Averia
		if err := rows.Scan(&a.ID, &a.Nombre, &a.Descripcion, &a.CreatedAt); err != nil {
			return nil, err
		}
		averias = append(averias, &a)
	}
	return averias, rows.Err()
}

// SugerenciasPorModelo counts how often each fault appeared on prior
// repairs of the exact (marca, modelo) pair, matched case-insensitively.
func (r *AveriaRepository) SugerenciasPorModelo(ctx context.Context, marca, modelo string) ([]models.SugerenciaPlantilla, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT ta.averia, COUNT(*) as n
         FROM terminales_averias ta
         JOIN terminales t ON t.id = ta.terminal_id
         JOIN dispositivos d ON d.id = t.dispositivo_id
         WHERE LOWER(d.marca) = LOWER($1) AND LOWER(d.modelo) = LOWER($2)
         GROUP BY ta.averia
         ORDER BY n DESC, ta.averia`, marca, modelo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SugerenciaPlantilla
	for rows.Next() {
		var s models.SugerenciaPlantilla
		if err := rows.Scan(&s.Averia, &s.Count); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
