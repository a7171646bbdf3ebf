package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	razorpay "github.com/razorpay/razorpay-go"

	"taller-backend/internal/config"
	"taller-backend/internal/models"
	"taller-backend/internal/repositories"
	"taller-backend/internal/timeutil"
)

var (
	ErrPagosDeshabilitados = errors.New("online payments are not configured")
	ErrSinAnticipo         = errors.New("la orden no requiere anticipo")
	ErrFirmaInvalida       = errors.New("invalid payment signature")
)

// PagoService collects online deposit payments for repair orders
// through Razorpay checkout.
type PagoService struct {
	cfg          *config.Config
	pagos        *repositories.PagoRepository
	reparaciones *repositories.ReparacionRepository
}

func NewPagoService(cfg *config.Config, pagos *repositories.PagoRepository,
	reparaciones *repositories.ReparacionRepository) *PagoService {
	return &PagoService{cfg: cfg, pagos: pagos, reparaciones: reparaciones}
}

func (s *PagoService) client() *razorpay.Client {
	if s.cfg.Razorpay.KeyID == "" || s.cfg.Razorpay.KeySecret == "" {
		return nil
	}
	return razorpay.NewClient(s.cfg.Razorpay.KeyID, s.cfg.Razorpay.KeySecret)
}

// CreateOrder opens a checkout order for the deposit amount stored on
// the repair order.
func (s *PagoService) CreateOrder(ctx context.Context, req *models.CreatePagoRequest) (*models.CreatePagoResponse, error) {
	client := s.client()
	if client == nil {
		return nil, ErrPagosDeshabilitados
	}

	rep, err := s.reparaciones.Get(ctx, req.ReparacionID)
	if err != nil {
		return nil, err
	}
	if rep.Anticipo <= 0 {
		return nil, ErrSinAnticipo
	}

	// Razorpay amounts are integer minor units
	amountCents := int(rep.Anticipo*100 + 0.5)
	orderData := map[string]interface{}{
		"amount":   amountCents,
		"currency": "EUR",
		"receipt":  fmt.Sprintf("ant_%d_%d", rep.ID, timeutil.Now().Unix()),
		"notes": map[string]interface{}{
			"reparacion_id": rep.ID,
			"numero":        rep.Numero,
		},
	}
	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID := order["id"].(string)

	pago := &models.PagoAnticipo{
		ReparacionID:    rep.ID,
		RazorpayOrderID: orderID,
		Importe:         rep.Anticipo,
		Estado:          models.PagoEstadoPendiente,
	}
	if err := s.pagos.Create(ctx, pago); err != nil {
		return nil, fmt.Errorf("failed to store payment: %w", err)
	}

	return &models.CreatePagoResponse{
		OrderID:  orderID,
		Importe:  rep.Anticipo,
		Currency: "EUR",
		KeyID:    s.cfg.Razorpay.KeyID,
	}, nil
}

// VerifyPayment checks the checkout signature and marks the deposit as
// collected.
func (s *PagoService) VerifyPayment(ctx context.Context, req *models.VerifyPagoRequest) (*models.PagoAnticipo, error) {
	if !s.verifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if err := s.pagos.MarkFallido(ctx, req.RazorpayOrderID, "invalid signature"); err != nil {
			log.Printf("[Pagos] Failed to mark payment as failed: %v", err)
		}
		return nil, ErrFirmaInvalida
	}

	pago, err := s.pagos.GetByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, fmt.Errorf("payment not found: %w", err)
	}
	if pago.Estado == models.PagoEstadoPagado {
		return pago, nil
	}

	if err := s.pagos.MarkPagado(ctx, req.RazorpayOrderID, req.RazorpayPaymentID); err != nil {
		return nil, err
	}
	return s.pagos.GetByOrderID(ctx, req.RazorpayOrderID)
}

func (s *PagoService) verifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.cfg.Razorpay.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature validates the X-Razorpay-Signature header on
// webhook deliveries.
func (s *PagoService) VerifyWebhookSignature(body []byte, signature string) bool {
	if s.cfg.Razorpay.WebhookSecret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.cfg.Razorpay.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ProcessWebhook handles asynchronous payment events.
func (s *PagoService) ProcessWebhook(ctx context.Context, event string, paymentData map[string]interface{}) error {
	orderID, _ := paymentData["order_id"].(string)
	paymentID, _ := paymentData["id"].(string)
	if orderID == "" {
		return errors.New("webhook payload missing order_id")
	}

	switch event {
	case "payment.captured":
		return s.pagos.MarkPagado(ctx, orderID, paymentID)
	case "payment.failed":
		motivo, _ := paymentData["error_description"].(string)
		return s.pagos.MarkFallido(ctx, orderID, motivo)
	default:
		log.Printf("[Pagos] Ignoring webhook event %s", event)
		return nil
	}
}

func (s *PagoService) ListByReparacion(ctx context.Context, reparacionID int) ([]*models.PagoAnticipo, error) {
	return s.pagos.ListByReparacion(ctx, reparacionID)
}
