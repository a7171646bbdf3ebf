package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"taller-backend/internal/models"
	"taller-backend/internal/services"
	"taller-backend/pkg/utils"
)

type PagoHandler struct {
	Service *services.PagoService
}

func NewPagoHandler(s *services.PagoService) *PagoHandler {
	return &PagoHandler{Service: s}
}

func (h *PagoHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePagoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	resp, err := h.Service.CreateOrder(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPagosDeshabilitados):
			utils.Error(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, services.ErrSinAnticipo):
			utils.Error(w, http.StatusUnprocessableEntity, err.Error())
		default:
			utils.Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

func (h *PagoHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPagoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	pago, err := h.Service.VerifyPayment(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrFirmaInvalida) {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, pago)
}

// Webhook receives asynchronous payment events. The signature is
// verified over the raw body before any parsing.
func (h *PagoHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Cannot read body")
		return
	}
	if !h.Service.VerifyWebhookSignature(body, r.Header.Get("X-Razorpay-Signature")) {
		utils.Error(w, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	var payload struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity map[string]interface{} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	if err := h.Service.ProcessWebhook(r.Context(), payload.Event, payload.Payload.Payment.Entity); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.Message(w, http.StatusOK, "ok")
}

func (h *PagoHandler) ListByReparacion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid reparacion id")
		return
	}
	pagos, err := h.Service.ListByReparacion(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, pagos)
}
