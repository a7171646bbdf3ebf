package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taller-backend/internal/models"
	"taller-backend/internal/timeutil"
)

type ReparacionRepository struct {
	DB       *pgxpool.Pool
	Clientes *ClienteRepository
}

func NewReparacionRepository(db *pgxpool.Pool, clientes *ClienteRepository) *ReparacionRepository {
	return &ReparacionRepository{DB: db, Clientes: clientes}
}

const reparacionColumns = `id, numero, cliente_id, estado, subtotal, descuento, total, anticipo,
       COALESCE(notas, '') as notas, fecha_cierre, created_at, updated_at`

func scanReparacion(row interface{ Scan(...interface{}) error }) (*models.Reparacion, error) {
	var rep models.Reparacion
	err := row.Scan(&rep.ID, &rep.Numero, &rep.ClienteID, &rep.Estado, &rep.Subtotal,
		&rep.Descuento, &rep.Total, &rep.Anticipo, &rep.Notas, &rep.FechaCierre,
		&rep.CreatedAt, &rep.UpdatedAt)
	return &rep, err
}

func (r *ReparacionRepository) List(ctx context.Context, estado string) ([]*models.Reparacion, error) {
	query := `SELECT ` + reparacionColumns + ` FROM reparaciones`
	args := []interface{}{}
	if estado != "" {
		query += ` WHERE estado=$1`
		args = append(args, estado)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Reparacion
	for rows.Next() {
		rep, err := scanReparacion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *ReparacionRepository) Get(ctx context.Context, id int) (*models.Reparacion, error) {
	return scanReparacion(r.DB.QueryRow(ctx,
		`SELECT `+reparacionColumns+` FROM reparaciones WHERE id=$1`, id))
}

// GetDetalle loads the full order: header, client and every terminal
// with its diagnosis and quote.
func (r *ReparacionRepository) GetDetalle(ctx context.Context, id int) (*models.ReparacionDetalle, error) {
	rep, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cliente, err := r.Clientes.Get(ctx, rep.ClienteID)
	if err != nil {
		return nil, err
	}
	terminales, err := r.terminales(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ReparacionDetalle{
		Reparacion: *rep,
		Cliente:    *cliente,
		Terminales: terminales,
	}, nil
}

func (r *ReparacionRepository) terminales(ctx context.Context, reparacionID int) ([]models.TerminalCompleto, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT t.dispositivo_id, t.diagnostico, t.presupuesto,
                t.diagnostico_completado, t.presupuesto_completado, t.fecha_ultima_modificacion,
                d.orden, d.marca, d.modelo, COALESCE(d.capacidad, ''), COALESCE(d.color, ''),
                d.imei, COALESCE(d.numero_serie, ''), COALESCE(d.observaciones, ''),
                d.requiere_backup, COALESCE(d.patron_desbloqueo, ''), d.backup_realizado,
                COALESCE(d.estado_dispositivo, ''), d.fecha_recepcion, d.fecha_entrega, d.created_at
         FROM terminales t
         JOIN dispositivos d ON d.id = t.dispositivo_id
         WHERE t.reparacion_id = $1
         ORDER BY d.orden`, reparacionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TerminalCompleto
	for rows.Next() {
		var t models.TerminalCompleto
		var dispositivoID int
		var diagRaw, presRaw []byte
		d := &t.Dispositivo
		if err := rows.Scan(&dispositivoID, &diagRaw, &presRaw,
			&t.DiagnosticoCompletado, &t.PresupuestoCompletado, &t.FechaUltimaModificacion,
			&d.Orden, &d.Marca, &d.Modelo, &d.Capacidad, &d.Color,
			&d.IMEI, &d.NumeroSerie, &d.Observaciones,
			&d.RequiereBackup, &d.PatronDesbloqueo, &d.BackupRealizado,
			&d.EstadoDispositivo, &d.FechaRecepcion, &d.FechaEntrega, &d.FechaCreacion); err != nil {
			return nil, err
		}
		d.Ref = models.DispositivoRef{Kind: models.DispositivoPersistido, ID: dispositivoID}
		if len(diagRaw) > 0 {
			var diag models.DiagnosticoData
			if err := json.Unmarshal(diagRaw, &diag); err == nil {
				t.Diagnostico = &diag
			}
		}
		if len(presRaw) > 0 {
			var pres models.PresupuestoData
			if err := json.Unmarshal(presRaw, &pres); err == nil {
				t.Presupuesto = &pres
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateCompleta persists a wizard submission atomically: client
// upsert, order header, one device + terminal row per terminal, the
// fault index and the quote line index. Everything or nothing.
func (r *ReparacionRepository) CreateCompleta(ctx context.Context, req *models.CrearReparacionCompletaRequest) (*models.Reparacion, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cliente := &models.Cliente{
		Nombre: req.Cliente.Nombre, Apellidos: req.Cliente.Apellidos,
		DNI: req.Cliente.DNI, Telefono: req.Cliente.Telefono,
		Email: req.Cliente.Email, Direccion: req.Cliente.Direccion,
		Ciudad: req.Cliente.Ciudad, CodigoPostal: req.Cliente.CodigoPostal,
	}
	if err := upsertClienteTx(ctx, tx, cliente); err != nil {
		return nil, err
	}

	numero := fmt.Sprintf("REP-%s", timeutil.Now().Format("20060102-150405"))
	var rep models.Reparacion
	err = tx.QueryRow(ctx,
		`INSERT INTO reparaciones(numero, cliente_id, estado, subtotal, descuento, total, anticipo, notas)
         VALUES($1, $2, 'recibido', $3, $4, $5, $6, NULLIF($7,''))
         RETURNING `+reparacionColumns,
		numero, cliente.ID, req.Totales.Subtotal, req.Totales.Descuento,
		req.Totales.Total, req.Totales.Anticipo, req.Notas,
	).Scan(&rep.ID, &rep.Numero, &rep.ClienteID, &rep.Estado, &rep.Subtotal,
		&rep.Descuento, &rep.Total, &rep.Anticipo, &rep.Notas, &rep.FechaCierre,
		&rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := insertTerminalesTx(ctx, tx, rep.ID, req.Terminales); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &rep, nil
}

// UpdateCompleta replaces an existing order's contents with a fresh
// wizard submission. Terminal rows are rebuilt, not patched.
func (r *ReparacionRepository) UpdateCompleta(ctx context.Context, id int, req *models.CrearReparacionCompletaRequest) (*models.Reparacion, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cliente := &models.Cliente{
		Nombre: req.Cliente.Nombre, Apellidos: req.Cliente.Apellidos,
		DNI: req.Cliente.DNI, Telefono: req.Cliente.Telefono,
		Email: req.Cliente.Email, Direccion: req.Cliente.Direccion,
		Ciudad: req.Cliente.Ciudad, CodigoPostal: req.Cliente.CodigoPostal,
	}
	if err := upsertClienteTx(ctx, tx, cliente); err != nil {
		return nil, err
	}

	var rep models.Reparacion
	err = tx.QueryRow(ctx,
		`UPDATE reparaciones
         SET cliente_id=$1, subtotal=$2, descuento=$3, total=$4, anticipo=$5,
             notas=NULLIF($6,''), updated_at=CURRENT_TIMESTAMP
         WHERE id=$7
         RETURNING `+reparacionColumns,
		cliente.ID, req.Totales.Subtotal, req.Totales.Descuento,
		req.Totales.Total, req.Totales.Anticipo, req.Notas, id,
	).Scan(&rep.ID, &rep.Numero, &rep.ClienteID, &rep.Estado, &rep.Subtotal,
		&rep.Descuento, &rep.Total, &rep.Anticipo, &rep.Notas, &rep.FechaCierre,
		&rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, err
	}

	// Old terminal/device rows go away with the order rebuild; the
	// fault and item indexes cascade from terminales.
	if _, err := tx.Exec(ctx, `DELETE FROM terminales WHERE reparacion_id=$1`, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM dispositivos WHERE reparacion_id=$1`, id); err != nil {
		return nil, err
	}
	if err := insertTerminalesTx(ctx, tx, id, req.Terminales); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &rep, nil
}

// UpdateEstado moves an order through the repair workflow.
func (r *ReparacionRepository) UpdateEstado(ctx context.Context, id int, estado string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE reparaciones SET estado=$1, updated_at=CURRENT_TIMESTAMP,
             fecha_cierre = CASE WHEN $1 IN ('entregado','cancelado') THEN CURRENT_TIMESTAMP ELSE fecha_cierre END
         WHERE id=$2`, estado, id)
	return err
}

// Historial returns prior repairs flattened per terminal, feeding the
// suggestion engines.
func (r *ReparacionRepository) Historial(ctx context.Context) ([]*models.ReparacionHistorial, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT rep.id, c.dni, c.nombre || ' ' || c.apellidos, d.marca, d.modelo,
                COALESCE(array_agg(ta.averia) FILTER (WHERE ta.averia IS NOT NULL), '{}'), rep.created_at
         FROM reparaciones rep
         JOIN clientes c ON c.id = rep.cliente_id
         JOIN terminales t ON t.reparacion_id = rep.id
         JOIN dispositivos d ON d.id = t.dispositivo_id
         LEFT JOIN terminales_averias ta ON ta.terminal_id = t.id
         GROUP BY rep.id, c.dni, c.nombre, c.apellidos, d.marca, d.modelo, rep.created_at
         ORDER BY rep.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ReparacionHistorial
	for rows.Next() {
		var h models.ReparacionHistorial
		if err := rows.Scan(&h.ID, &h.ClienteDNI, &h.ClienteNombre, &h.Marca, &h.Modelo,
			&h.Averias, &h.Fecha); err != nil {
			return nil, err
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

func upsertClienteTx(ctx context.Context, tx pgx.Tx, c *models.Cliente) error {
	return tx.QueryRow(ctx,
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

func insertTerminalesTx(ctx context.Context, tx pgx.Tx, reparacionID int, terminales []models.TerminalCompleto) error {
	for i, t := range terminales {
		d := t.Dispositivo
		var dispositivoID int
		err := tx.QueryRow(ctx,
			`INSERT INTO dispositivos(reparacion_id, orden, marca, modelo, capacidad, color, imei,
                 numero_serie, observaciones, requiere_backup, patron_desbloqueo, backup_realizado,
                 estado_dispositivo, fecha_recepcion, fecha_entrega)
             VALUES($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), $7, NULLIF($8,''), NULLIF($9,''),
                 $10, NULLIF($11,''), $12, NULLIF($13,''), $14, $15)
             RETURNING id`,
			reparacionID, i+1, d.Marca, d.Modelo, d.Capacidad, d.Color, d.IMEI,
			d.NumeroSerie, d.Observaciones, d.RequiereBackup, d.PatronDesbloqueo,
			d.BackupRealizado, d.EstadoDispositivo, d.FechaRecepcion, d.FechaEntrega,
		).Scan(&dispositivoID)
		if err != nil {
			return err
		}

		diagRaw, err := json.Marshal(t.Diagnostico)
		if err != nil {
			return err
		}
		presRaw, err := json.Marshal(t.Presupuesto)
		if err != nil {
			return err
		}
		var terminalID int
		err = tx.QueryRow(ctx,
			`INSERT INTO terminales(reparacion_id, dispositivo_id, diagnostico, presupuesto,
                 diagnostico_completado, presupuesto_completado, fecha_ultima_modificacion)
             VALUES($1, $2, $3, $4, $5, $6, $7)
             RETURNING id`,
			reparacionID, dispositivoID, diagRaw, presRaw,
			t.DiagnosticoCompletado, t.PresupuestoCompletado, t.FechaUltimaModificacion,
		).Scan(&terminalID)
		if err != nil {
			return err
		}

		if t.Diagnostico != nil {
			for _, averia := range t.Diagnostico.ProblemasReportados {
				if _, err := tx.Exec(ctx,
					`INSERT INTO terminales_averias(terminal_id, averia) VALUES($1, $2)`,
					terminalID, averia); err != nil {
					return err
				}
			}
		}
		if t.Presupuesto != nil {
			for _, item := range t.Presupuesto.Items {
				if _, err := tx.Exec(ctx,
					`INSERT INTO presupuesto_items(terminal_id, intervencion_id, concepto, precio, cantidad, tipo)
                     VALUES($1, $2, $3, $4, $5, NULLIF($6,''))`,
					terminalID, item.IntervencionID, item.Concepto, item.Precio, item.Cantidad, item.Tipo); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
