package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taller-backend/internal/models"
)

type PlantillaRepository struct {
	DB *pgxpool.Pool
}

func NewPlantillaRepository(db *pgxpool.Pool) *PlantillaRepository {
	return &PlantillaRepository{DB: db}
}

func (r *PlantillaRepository) List(ctx context.Context) (*models.PlantillasResponse, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, nombre, categoria, COALESCE(tipo_servicio, '') as tipo_servicio,
                averias, COALESCE(prioridad, '') as prioridad, uso_count, created_at
         FROM plantillas ORDER BY uso_count DESC, nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &models.PlantillasResponse{
		Plantillas: []models.PlantillaReparacion{},
		Categorias: []string{},
	}
	seen := make(map[string]bool)
	for rows.Next() {
		var p models.PlantillaReparacion
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Categoria, &p.TipoServicio,
			&p.Averias, &p.Prioridad, &p.UsoCount, &p.CreatedAt); err != nil {
			return nil, err
		}
		res.Plantillas = append(res.Plantillas, p)
		if !seen[p.Categoria] {
			seen[p.Categoria] = true
			res.Categorias = append(res.Categorias, p.Categoria)
		}
	}
	return res, rows.Err()
}

func (r *PlantillaRepository) Create(ctx context.Context, p *models.PlantillaReparacion) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO plantillas(nombre, categoria, tipo_servicio, averias, prioridad, uso_count)
         VALUES($1, $2, NULLIF($3,''), $4, NULLIF($5,''), 0)
         RETURNING id, created_at`,
		p.Nombre, p.Categoria, p.TipoServicio, p.Averias, p.Prioridad,
	).Scan(&p.ID, &p.CreatedAt)
}

// IncrementUso bumps the usage counter when a template pre-fills a
// diagnosis. Feeds the customer-history suggestion backfill.
func (r *PlantillaRepository) IncrementUso(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `UPDATE plantillas SET uso_count = uso_count + 1 WHERE id=$1`, id)
	return err
}

// UsoPorCliente counts template usage across one customer's prior
// repairs, grouped by the template's first fault name.
func (r *PlantillaRepository) UsoPorCliente(ctx context.Context, dni string) (map[string]int, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT ta.averia, COUNT(*)
         FROM terminales_averias ta
         JOIN terminales t ON t.id = ta.terminal_id
         JOIN reparaciones rep ON rep.id = t.reparacion_id
         JOIN clientes c ON c.id = rep.cliente_id
         WHERE UPPER(c.dni) = UPPER($1)
         GROUP BY ta.averia`, dni)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var averia string
		var n int
		if err := rows.Scan(&averia, &n); err != nil {
			return nil, err
		}
		out[averia] = n
	}
	return out, rows.Err()
}
