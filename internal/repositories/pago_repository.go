package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taller-backend/internal/models"
)

type PagoRepository struct {
	DB *pgxpool.Pool
}

func NewPagoRepository(db *pgxpool.Pool) *PagoRepository {
	return &PagoRepository{DB: db}
}

const pagoColumns = `id, reparacion_id, razorpay_order_id, COALESCE(payment_id, '') as payment_id,
       importe, estado, COALESCE(motivo_fallo, '') as motivo_fallo, created_at, pagado_at`

func (r *PagoRepository) Create(ctx context.Context, p *models.PagoAnticipo) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO pagos_anticipo(reparacion_id, razorpay_order_id, importe, estado)
         VALUES($1, $2, $3, $4)
         RETURNING id, created_at`,
		p.ReparacionID, p.RazorpayOrderID, p.Importe, p.Estado,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *PagoRepository) GetByOrderID(ctx context.Context, orderID string) (*models.PagoAnticipo, error) {
	var p models.PagoAnticipo
	err := r.DB.QueryRow(ctx,
		`SELECT `+pagoColumns+` FROM pagos_anticipo WHERE razorpay_order_id=$1`, orderID,
	).Scan(&p.ID, &p.ReparacionID, &p.RazorpayOrderID, &p.PaymentID,
		&p.Importe, &p.Estado, &p.MotivoFallo, &p.CreatedAt, &p.PagadoAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PagoRepository) MarkPagado(ctx context.Context, orderID, paymentID string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE pagos_anticipo
         SET estado=$1, payment_id=$2, pagado_at=CURRENT_TIMESTAMP
         WHERE razorpay_order_id=$3`,
		models.PagoEstadoPagado, paymentID, orderID)
	return err
}

func (r *PagoRepository) MarkFallido(ctx context.Context, orderID, motivo string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE pagos_anticipo SET estado=$1, motivo_fallo=$2 WHERE razorpay_order_id=$3`,
		models.PagoEstadoFallido, motivo, orderID)
	return err
}

func (r *PagoRepository) ListByReparacion(ctx context.Context, reparacionID int) ([]*models.PagoAnticipo, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+pagoColumns+` FROM pagos_anticipo WHERE reparacion_id=$1 ORDER BY created_at DESC`,
		reparacionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PagoAnticipo
	for rows.Next() {
		var p models.PagoAnticipo
		if err := rows.Scan(&p.ID, &p.ReparacionID, &p.RazorpayOrderID, &p.PaymentID,
			&p.Importe, &p.Estado, &p.MotivoFallo, &p.CreatedAt, &p.PagadoAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
