package handlers

import (
	"net/http"

	"taller-backend/internal/services"
	"taller-backend/pkg/utils"
)

type SugerenciaHandler struct {
	Service *services.SugerenciaService
}

func NewSugerenciaHandler(s *services.SugerenciaService) *SugerenciaHandler {
	return &SugerenciaHandler{Service: s}
}

func (h *SugerenciaHandler) Clientes(w http.ResponseWriter, r *http.Request) {
	sugerencias, err := h.Service.Clientes(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, sugerencias)
}

func (h *SugerenciaHandler) Dispositivos(w http.ResponseWriter, r *http.Request) {
	sugerencias, err := h.Service.Dispositivos(r.Context(), r.URL.Query().Get("cliente_dni"))
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, sugerencias)
}

func (h *SugerenciaHandler) Plantillas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	marca, modelo := q.Get("marca"), q.Get("modelo")
	if marca == "" || modelo == "" {
		utils.Error(w, http.StatusBadRequest, "marca and modelo parameters are required")
		return
	}
	sugerencias, err := h.Service.Plantillas(r.Context(), marca, modelo, q.Get("cliente_dni"))
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, sugerencias)
}

// Refrescar drops the cached history snapshot.
func (h *SugerenciaHandler) Refrescar(w http.ResponseWriter, r *http.Request) {
	h.Service.Refrescar()
	utils.Message(w, http.StatusOK, "Historial refrescado")
}
