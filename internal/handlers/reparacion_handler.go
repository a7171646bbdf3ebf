package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"taller-backend/internal/models"
	"taller-backend/internal/services"
	"taller-backend/pkg/utils"
)

type ReparacionHandler struct {
	Service *services.ReparacionService
	PDF     *services.PDFService
}

func NewReparacionHandler(s *services.ReparacionService, pdf *services.PDFService) *ReparacionHandler {
	return &ReparacionHandler{Service: s, PDF: pdf}
}

func (h *ReparacionHandler) List(w http.ResponseWriter, r *http.Request) {
	estado := r.URL.Query().Get("estado")
	if r.URL.Query().Get("incluir_detalles") == "true" {
		detalles, err := h.Service.ListDetalle(r.Context(), estado)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, detalles)
		return
	}
	reparaciones, err := h.Service.List(r.Context(), estado)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, reparaciones)
}

func (h *ReparacionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid reparacion id")
		return
	}
	if r.URL.Query().Get("incluir_detalles") == "true" {
		detalle, err := h.Service.GetDetalle(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusNotFound, "Reparacion no encontrada")
			return
		}
		utils.JSON(w, http.StatusOK, detalle)
		return
	}
	rep, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Reparacion no encontrada")
		return
	}
	utils.JSON(w, http.StatusOK, rep)
}

// CrearCompleta accepts the assembled wizard submission in one call.
func (h *ReparacionHandler) CrearCompleta(w http.ResponseWriter, r *http.Request) {
	var req models.CrearReparacionCompletaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	rep, err := h.Service.CrearCompleta(r.Context(), &req)
	if err != nil {
		utils.Error(w, submissionStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, rep)
}

func (h *ReparacionHandler) ActualizarCompleta(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid reparacion id")
		return
	}
	var req models.CrearReparacionCompletaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	rep, err := h.Service.ActualizarCompleta(r.Context(), id, &req)
	if err != nil {
		utils.Error(w, submissionStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, rep)
}

func (h *ReparacionHandler) CambiarEstado(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid reparacion id")
		return
	}
	var req struct {
		Estado string `json:"estado"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.Service.CambiarEstado(r.Context(), id, req.Estado); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.Message(w, http.StatusOK, "Estado actualizado")
}

// PresupuestoPDF streams the printable quote for an order.
func (h *ReparacionHandler) PresupuestoPDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid reparacion id")
		return
	}
	pdf, err := h.PDF.GeneratePresupuestoPDF(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=presupuesto_%d.pdf", id))
	w.Write(pdf)
}

func submissionStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrClienteInvalido),
		errors.Is(err, services.ErrSinTerminales),
		errors.Is(err, services.ErrSubmisionIncompleta):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
