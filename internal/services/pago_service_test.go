package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"taller-backend/internal/config"
)

func signHMAC(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	cfg := &config.Config{}
	cfg.Razorpay.KeySecret = "test_secret"
	s := &PagoService{cfg: cfg}

	orderID := "order_ABC123"
	paymentID := "pay_XYZ789"
	good := signHMAC("test_secret", orderID+"|"+paymentID)

	if !s.verifySignature(orderID, paymentID, good) {
		t.Fatal("expected valid signature to verify")
	}
	if s.verifySignature(orderID, paymentID, signHMAC("wrong_secret", orderID+"|"+paymentID)) {
		t.Fatal("signature from wrong secret verified")
	}
	if s.verifySignature(orderID, "pay_OTRO", good) {
		t.Fatal("signature accepted for a different payment id")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	cfg := &config.Config{}
	cfg.Razorpay.WebhookSecret = "hook_secret"
	s := &PagoService{cfg: cfg}

	body := []byte(`{"event":"payment.captured"}`)
	if !s.VerifyWebhookSignature(body, signHMAC("hook_secret", string(body))) {
		t.Fatal("expected valid webhook signature to verify")
	}
	if s.VerifyWebhookSignature(body, signHMAC("hook_secret", `{"event":"payment.failed"}`)) {
		t.Fatal("signature for different body verified")
	}

	// Without a configured secret nothing verifies
	cfg.Razorpay.WebhookSecret = ""
	if s.VerifyWebhookSignature(body, signHMAC("", string(body))) {
		t.Fatal("webhook verified with no secret configured")
	}
}
