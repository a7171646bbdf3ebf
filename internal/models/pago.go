package models

import "time"

const (
	PagoEstadoPendiente = "pendiente"
	PagoEstadoPagado    = "pagado"
	PagoEstadoFallido   = "fallido"
)

// PagoAnticipo tracks one online deposit payment for a repair order.
type PagoAnticipo struct {
	ID              int        `json:"id"`
	ReparacionID    int        `json:"reparacion_id"`
	RazorpayOrderID string     `json:"razorpay_order_id"`
	PaymentID       string     `json:"payment_id,omitempty"`
	Importe         float64    `json:"importe"`
	Estado          string     `json:"estado"`
	MotivoFallo     string     `json:"motivo_fallo,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	PagadoAt        *time.Time `json:"pagado_at,omitempty"`
}

// CreatePagoRequest starts an online deposit payment
type CreatePagoRequest struct {
	ReparacionID int `json:"reparacion_id"`
}

// CreatePagoResponse carries the checkout material for the client
type CreatePagoResponse struct {
	OrderID  string  `json:"order_id"`
	Importe  float64 `json:"importe"`
	Currency string  `json:"currency"`
	KeyID    string  `json:"key_id"`
}

// VerifyPagoRequest confirms a completed checkout
type VerifyPagoRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}
