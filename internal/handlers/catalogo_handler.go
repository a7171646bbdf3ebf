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
	"taller-backend/internal/storage"
	"taller-backend/pkg/utils"
)

const maxIconSize = 2 << 20 // 2 MiB

type CatalogoHandler struct {
	Service *services.CatalogoService
	Iconos  *storage.IconStore
}

func NewCatalogoHandler(s *services.CatalogoService, iconos *storage.IconStore) *CatalogoHandler {
	return &CatalogoHandler{Service: s, Iconos: iconos}
}

func (h *CatalogoHandler) ListMarcas(w http.ResponseWriter, r *http.Request) {
	marcas, err := h.Service.ListMarcas(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, marcas)
}

// marcaForm reads a brand payload from either a JSON body or a
// multipart form with an optional icon file. Writes the error response
// itself and returns false on failure.
func (h *CatalogoHandler) marcaForm(w http.ResponseWriter, r *http.Request, req *models.CreateMarcaRequest) bool {
	contentType := r.Header.Get("Content-Type")
	if len(contentType) >= 19 && contentType[:19] == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxIconSize); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid multipart form")
			return false
		}
		req.Nombre = r.FormValue("nombre")

		if file, header, err := r.FormFile("icono"); err == nil {
			defer file.Close()
			if h.Iconos == nil {
				utils.Error(w, http.StatusServiceUnavailable, "Icon storage is not configured")
				return false
			}
			data, err := io.ReadAll(io.LimitReader(file, maxIconSize+1))
			if err != nil || len(data) > maxIconSize {
				utils.Error(w, http.StatusBadRequest, "Icon too large")
				return false
			}
			url, err := h.Iconos.UploadIcono(r.Context(), req.Nombre, header.Filename, data)
			if err != nil {
				utils.Error(w, http.StatusInternalServerError, err.Error())
				return false
			}
			req.IconoURL = url
		}
		return true
	}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *CatalogoHandler) CreateMarca(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMarcaRequest
	if !h.marcaForm(w, r, &req) {
		return
	}

	marca, err := h.Service.CreateMarca(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrMarcaDuplicada) {
			utils.Error(w, http.StatusConflict, err.Error())
			return
		}
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, marca)
}

func (h *CatalogoHandler) UpdateMarca(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid marca id")
		return
	}
	var req models.CreateMarcaRequest
	if !h.marcaForm(w, r, &req) {
		return
	}
	m := models.Marca{ID: id, Nombre: req.Nombre, IconoURL: req.IconoURL}
	if err := h.Service.UpdateMarca(r.Context(), &m); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, m)
}

func (h *CatalogoHandler) DeleteMarca(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid marca id")
		return
	}
	if err := h.Service.DeleteMarca(r.Context(), id); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.Message(w, http.StatusOK, "Marca eliminada")
}

func (h *CatalogoHandler) ListModelos(w http.ResponseWriter, r *http.Request) {
	marcaID, err := strconv.Atoi(mux.Vars(r)["marcaId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid marca id")
		return
	}
	modelos, err := h.Service.ListModelos(r.Context(), marcaID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, modelos)
}

func (h *CatalogoHandler) CreateModelo(w http.ResponseWriter, r *http.Request) {
	var req models.CreateModeloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	modelo, err := h.Service.CreateModelo(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrModeloDuplicado) {
			utils.Error(w, http.StatusConflict, err.Error())
			return
		}
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, modelo)
}

func (h *CatalogoHandler) UpdateModelo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid modelo id")
		return
	}
	var m models.Modelo
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	m.ID = id
	if err := h.Service.UpdateModelo(r.Context(), &m); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, m)
}

func (h *CatalogoHandler) DeleteModelo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid modelo id")
		return
	}
	if err := h.Service.DeleteModelo(r.Context(), id); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.Message(w, http.StatusOK, "Modelo eliminado")
}

func (h *CatalogoHandler) ListEstados(w http.ResponseWriter, r *http.Request) {
	estados, err := h.Service.ListEstados(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, estados)
}

func (h *CatalogoHandler) CreateEstado(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEstadoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	estado, err := h.Service.CreateEstado(r.Context(), &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, estado)
}

func (h *CatalogoHandler) UpdateEstado(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid estado id")
		return
	}
	var e models.Estado
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	e.ID = id
	if err := h.Service.UpdateEstado(r.Context(), &e); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, e)
}

func (h *CatalogoHandler) DeleteEstado(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid estado id")
		return
	}
	if err := h.Service.DeleteEstado(r.Context(), id); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.Message(w, http.StatusOK, "Estado eliminado")
}

func (h *CatalogoHandler) ListAverias(w http.ResponseWriter, r *http.Request) {
	averias, err := h.Service.ListAverias(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, averias)
}

func (h *CatalogoHandler) CreateAveria(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAveriaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	averia, err := h.Service.CreateAveria(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrAveriaDuplicada) {
			utils.Error(w, http.StatusConflict, err.Error())
			return
		}
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, averia)
}

// ListIntervenciones filters by optional modelo_id and averia_id query
// params. An intervention scoped to no model matches every model.
func (h *CatalogoHandler) ListIntervenciones(w http.ResponseWriter, r *http.Request) {
	modeloID := queryInt(r, "modelo_id")
	averiaID := queryInt(r, "averia_id")
	intervenciones, err := h.Service.ListIntervenciones(r.Context(), modeloID, averiaID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, intervenciones)
}

func (h *CatalogoHandler) CreateIntervencion(w http.ResponseWriter, r *http.Request) {
	var req models.CreateIntervencionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	iv, err := h.Service.CreateIntervencion(r.Context(), &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, iv)
}

func (h *CatalogoHandler) SugerirIntervenciones(w http.ResponseWriter, r *http.Request) {
	averiaID := queryInt(r, "averia_id")
	modeloID := queryInt(r, "modelo_id")
	limit := 5
	if v := queryInt(r, "limit"); v != nil {
		limit = *v
	}
	intervenciones, err := h.Service.SugerirIntervenciones(r.Context(), averiaID, modeloID, limit)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, intervenciones)
}

func (h *CatalogoHandler) ListPlantillas(w http.ResponseWriter, r *http.Request) {
	plantillas, err := h.Service.ListPlantillas(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, plantillas)
}

func (h *CatalogoHandler) CreatePlantilla(w http.ResponseWriter, r *http.Request) {
	var p models.PlantillaReparacion
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.Service.CreatePlantilla(r.Context(), &p); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, p)
}

func (h *CatalogoHandler) RegistrarUsoPlantilla(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid plantilla id")
		return
	}
	if err := h.Service.RegistrarUsoPlantilla(r.Context(), id); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.Message(w, http.StatusOK, "Uso registrado")
}

func queryInt(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}
