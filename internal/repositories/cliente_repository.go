package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taller-backend/internal/models"
)

type ClienteRepository struct {
	DB *pgxpool.Pool
}

func NewClienteRepository(db *pgxpool.Pool) *ClienteRepository {
	return &ClienteRepository{DB: db}
}

const clienteColumns = `id, nombre, apellidos, dni, telefono,
       COALESCE(email, '') as email, COALESCE(direccion, '') as direccion,
       COALESCE(ciudad, '') as ciudad, COALESCE(codigo_postal, '') as codigo_postal,
       created_at, updated_at`

func scanCliente(row interface{ Scan(...interface{}) error }) (*models.Cliente, error) {
	var c models.Cliente
	err := row.Scan(&c.ID, &c.Nombre, &c.Apellidos, &c.DNI, &c.Telefono, &c.Email,
		&c.Direccion, &c.Ciudad, &c.CodigoPostal, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *ClienteRepository) Create(ctx context.Context, c *models.Cliente) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO clientes(nombre, apellidos, dni, telefono, email, direccion, ciudad, codigo_postal)
         VALUES($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), NULLIF($8,''))
         RETURNING id, created_at, updated_at`,
		c.Nombre, c.Apellidos, c.DNI, c.Telefono, c.Email, c.Direccion, c.Ciudad, c.CodigoPostal,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Upsert inserts the wizard's client record, or refreshes the existing
// row when the DNI is already known. DNI is the natural key the shop
// works with.
func (r *ClienteRepository) Upsert(ctx context.Context, c *models.Cliente) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO clientes(nombre, apellidos, dni, telefono, email, direccion, ciudad, codigo_postal)
         VALUES($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), NULLIF($8,''))
         ON CONFLICT (dni) DO UPDATE SET
           nombre=EXCLUDED.nombre, apellidos=EXCLUDED.apellidos, telefono=EXCLUDED.telefono,
           email=COALESCE(EXCLUDED.email, clientes.email),
           direccion=COALESCE(EXCLUDED.direccion, clientes.direccion),
           ciudad=COALESCE(EXCLUDED.ciudad, clientes.ciudad),
           codigo_postal=COALESCE(EXCLUDED.codigo_postal, clientes.codigo_postal),
           updated_at=CURRENT_TIMESTAMP
         RETURNING id, created_at, updated_at`,
		c.Nombre, c.Apellidos, c.DNI, c.Telefono, c.Email, c.Direccion, c.Ciudad, c.CodigoPostal,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ClienteRepository) Get(ctx context.Context, id int) (*models.Cliente, error) {
	return scanCliente(r.DB.QueryRow(ctx,
		`SELECT `+clienteColumns+` FROM clientes WHERE id=$1`, id))
}

func (r *ClienteRepository) GetByDNI(ctx context.Context, dni string) (*models.Cliente, error) {
	return scanCliente(r.DB.QueryRow(ctx,
		`SELECT `+clienteColumns+` FROM clientes WHERE UPPER(dni)=UPPER($1)`, dni))
}

func (r *ClienteRepository) GetByTelefono(ctx context.Context, telefono string) (*models.Cliente, error) {
	return scanCliente(r.DB.QueryRow(ctx,
		`SELECT `+clienteColumns+` FROM clientes WHERE telefono=$1`, telefono))
}

func (r *ClienteRepository) GetByEmail(ctx context.Context, email string) (*models.Cliente, error) {
	return scanCliente(r.DB.QueryRow(ctx,
		`SELECT `+clienteColumns+` FROM clientes WHERE LOWER(email)=LOWER($1)`, email))
}

func (r *ClienteRepository) SearchByNombre(ctx context.Context, term string) ([]*models.Cliente, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+clienteColumns+` FROM clientes
         WHERE (nombre || ' ' || apellidos) ILIKE '%' || $1 || '%'
         ORDER BY apellidos, nombre LIMIT 20`, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Cliente
	for rows.Next() {
		c, err := scanCliente(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
