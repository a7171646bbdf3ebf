package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"taller-backend/internal/models"
	"taller-backend/internal/services"
	"taller-backend/pkg/utils"
)

type ClienteHandler struct {
	Service *services.ClienteService
}

func NewClienteHandler(s *services.ClienteService) *ClienteHandler {
	return &ClienteHandler{Service: s}
}

func (h *ClienteHandler) GetCliente(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid cliente id")
		return
	}
	cliente, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Cliente no encontrado")
		return
	}
	utils.JSON(w, http.StatusOK, cliente)
}

// Buscar resolves one customer by dni, telefono or email query param.
func (h *ClienteHandler) Buscar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cliente, err := h.Service.Buscar(r.Context(), q.Get("dni"), q.Get("telefono"), q.Get("email"))
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Cliente no encontrado")
		return
	}
	utils.JSON(w, http.StatusOK, cliente)
}

func (h *ClienteHandler) BuscarPorNombre(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	clientes, err := h.Service.BuscarPorNombre(r.Context(), term)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, clientes)
}

func (h *ClienteHandler) Guardar(w http.ResponseWriter, r *http.Request) {
	var cliente models.Cliente
	if err := json.NewDecoder(r.Body).Decode(&cliente); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.Service.Guardar(r.Context(), &cliente); err != nil {
		if errors.Is(err, services.ErrClienteInvalido) {
			utils.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, cliente)
}
