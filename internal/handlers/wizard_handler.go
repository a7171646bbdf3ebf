package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"taller-backend/internal/models"
	"taller-backend/internal/services"
	"taller-backend/internal/wizard"
	"taller-backend/pkg/utils"
)

// WizardHandler exposes the order-wizard sessions over HTTP. Each
// terminal in the shop drives its own session; the session holds the
// canonical state and the handler is a thin translation layer.
type WizardHandler struct {
	Manager      *wizard.Manager
	Reparaciones *services.ReparacionService
}

func NewWizardHandler(manager *wizard.Manager, reparaciones *services.ReparacionService) *WizardHandler {
	return &WizardHandler{Manager: manager, Reparaciones: reparaciones}
}

type abrirSesionRequest struct {
	OrdenID  *int   `json:"orden_id,omitempty"`
	Variante string `json:"variante,omitempty"` // "full" or "compact"
}

type sesionResponse struct {
	SesionID           string                       `json:"sesion_id"`
	PasoActual         int                          `json:"paso_actual"`
	Cliente            models.ClienteData           `json:"cliente"`
	ClienteValido      bool                         `json:"cliente_valido"`
	Dispositivos       []models.DispositivoGuardado `json:"dispositivos"`
	Terminales         []models.TerminalCompleto    `json:"terminales"`
	Totales            models.TotalesGlobales       `json:"totales"`
	CambiosSinGuardar  bool                         `json:"cambios_sin_guardar"`
	BorradorDisponible *models.DraftSnapshot        `json:"borrador_disponible,omitempty"`
}

func estadoSesion(s *wizard.Session, draft *models.DraftSnapshot) sesionResponse {
	snap := s.Snapshot()
	return sesionResponse{
		SesionID:           s.ID,
		PasoActual:         snap.PasoActual,
		Cliente:            snap.ClienteData,
		ClienteValido:      snap.ClienteValido,
		Dispositivos:       snap.DispositivosAgregados,
		Terminales:         snap.TerminalesCompletos,
		Totales:            s.Totales(),
		CambiosSinGuardar:  s.ComputeDirty(),
		BorradorDisponible: draft,
	}
}

// Abrir opens a wizard session. With orden_id it hydrates the session
// from the stored order for editing; without it the session starts
// blank. A recoverable draft, when present, is offered but not applied.
func (h *WizardHandler) Abrir(w http.ResponseWriter, r *http.Request) {
	var req abrirSesionRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	variant := models.FullClientForm
	if req.Variante == string(models.CompactClientForm) {
		variant = models.CompactClientForm
	}

	result, err := h.Manager.Open(r.Context(), variant, req.OrdenID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.OrdenID != nil {
		if err := h.hydrate(r, result.Session, *req.OrdenID); err != nil {
			h.Manager.Close(result.Session.ID)
			utils.Error(w, http.StatusNotFound, "Reparacion no encontrada")
			return
		}
	}

	utils.JSON(w, http.StatusCreated, estadoSesion(result.Session, result.Draft))
}

// hydrate replays a stored order into a fresh session through the
// session's own mutation API, then re-captures the baseline so the
// session starts clean.
func (h *WizardHandler) hydrate(r *http.Request, s *wizard.Session, ordenID int) error {
	detalle, err := h.Reparaciones.GetDetalle(r.Context(), ordenID)
	if err != nil {
		return err
	}
	s.SetCliente(models.ClienteData{
		Nombre: detalle.Cliente.Nombre, Apellidos: detalle.Cliente.Apellidos,
		DNI: detalle.Cliente.DNI, Telefono: detalle.Cliente.Telefono,
		Email: detalle.Cliente.Email, Direccion: detalle.Cliente.Direccion,
		Ciudad: detalle.Cliente.Ciudad, CodigoPostal: detalle.Cliente.CodigoPostal,
	})
	for _, t := range detalle.Terminales {
		if err := s.AgregarDispositivo(t.Dispositivo); err != nil {
			return err
		}
		if t.Diagnostico != nil {
			if err := s.EditarDiagnostico(t.Dispositivo.Ref, *t.Diagnostico); err != nil {
				return err
			}
		}
		if t.Presupuesto != nil {
			if err := s.EditarPresupuesto(t.Dispositivo.Ref, *t.Presupuesto); err != nil {
				return err
			}
		}
		s.CommitTerminal(t.Dispositivo.Ref)
	}
	s.CaptureBaseline()
	return nil
}

func (h *WizardHandler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id := mux.Vars(r)["id"]
	s, ok := h.Manager.Get(id)
	if !ok {
		utils.Error(w, http.StatusNotFound, "Sesion no encontrada")
		return nil, false
	}
	return s, true
}

func (h *WizardHandler) Estado(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, estadoSesion(s, nil))
}

func (h *WizardHandler) Cerrar(w http.ResponseWriter, r *http.Request) {
	h.Manager.Close(mux.Vars(r)["id"])
	utils.Message(w, http.StatusOK, "Sesion cerrada")
}

func (h *WizardHandler) SetCliente(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var c models.ClienteData
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.SetCliente(c)
	utils.JSON(w, http.StatusOK, estadoSesion(s, nil))
}

type cambiarPasoRequest struct {
	Paso int `json:"paso"`
}

// CambiarPaso moves the wizard. Backward moves always succeed; a
// blocked forward move returns 409 with the reason.
func (h *WizardHandler) CambiarPaso(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req cambiarPasoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var err error
	if req.Paso == 0 {
		err = s.Avanzar()
	} else {
		err = s.IrAPaso(req.Paso)
	}
	if err != nil {
		var stepErr *wizard.StepError
		if errors.As(err, &stepErr) {
			utils.Error(w, http.StatusConflict, stepErr.Motivo)
			return
		}
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, estadoSesion(s, nil))
}

func (h *WizardHandler) AgregarDispositivo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var d models.DispositivoGuardado
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.AgregarDispositivo(d); err != nil {
		utils.Error(w, wizardStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, estadoSesion(s, nil))
}

func (h *WizardHandler) ActualizarDispositivo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var d models.DispositivoGuardado
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.ActualizarDispositivo(d); err != nil {
		utils.Error(w, wizardStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, estadoSesion(s, nil))
}

func (h *WizardHandler) EliminarDispositivo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var ref models.DispositivoRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.EliminarDispositivo(ref); err != nil {
		utils.Error(w, wizardStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, estadoSesion(s, nil))
}

type seleccionyRef struct {
	Ref models.DispositivoRef `json:"ref"`
}

// SeleccionarTerminal switches the active terminal. The previous
// terminal's pending edits are committed first; the response carries
// the loaded diagnosis and quote for the newly active terminal.
func (h *WizardHandler) SeleccionarTerminal(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req seleccionyRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	diag, pres, err := s.SeleccionarTerminal(req.Ref)
	if err != nil {
		utils.Error(w, wizardStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"diagnostico": diag,
		"presupuesto": pres,
	})
}

type editarDiagnosticoRequest struct {
	Ref         models.DispositivoRef  `json:"ref"`
	Diagnostico models.DiagnosticoData `json:"diagnostico"`
}

func (h *WizardHandler) EditarDiagnostico(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req editarDiagnosticoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.EditarDiagnostico(req.Ref, req.Diagnostico); err != nil {
		utils.Error(w, wizardStatus(err), err.Error())
		return
	}
	utils.Message(w, http.StatusOK, "Diagnostico actualizado")
}

type editarPresupuestoRequest struct {
	Ref         models.DispositivoRef  `json:"ref"`
	Presupuesto models.PresupuestoData `json:"presupuesto"`
}

func (h *WizardHandler) EditarPresupuesto(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req editarPresupuestoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Presupuesto.Reflatten()
	if err := s.EditarPresupuesto(req.Ref, req.Presupuesto); err != nil {
		utils.Error(w, wizardStatus(err), err.Error())
		return
	}
	utils.Message(w, http.StatusOK, "Presupuesto actualizado")
}

func (h *WizardHandler) CommitTerminal(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req seleccionyRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.CommitTerminal(req.Ref)
	utils.JSON(w, http.StatusOK, estadoSesion(s, nil))
}

func (h *WizardHandler) Totales(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, s.Totales())
}

func (h *WizardHandler) RecuperarBorrador(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.Manager.RecoverDraft(r.Context(), s.ID); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, estadoSesion(s, nil))
}

func (h *WizardHandler) DescartarBorrador(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.Manager.DiscardDraft(r.Context(), s.ID); err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.Message(w, http.StatusOK, "Borrador descartado")
}

type confirmarRequest struct {
	Notas string `json:"notas,omitempty"`
}

// Confirmar assembles the submission, persists it (create or update
// depending on how the session was opened) and clears the draft.
func (h *WizardHandler) Confirmar(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req confirmarRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	payload, err := s.BuildSubmission(req.Notas)
	if err != nil {
		var stepErr *wizard.StepError
		if errors.As(err, &stepErr) {
			utils.Error(w, http.StatusConflict, stepErr.Motivo)
			return
		}
		utils.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var rep *models.Reparacion
	if s.OrdenID != nil {
		rep, err = h.Reparaciones.ActualizarCompleta(r.Context(), *s.OrdenID, payload)
	} else {
		rep, err = h.Reparaciones.CrearCompleta(r.Context(), payload)
	}
	if err != nil {
		utils.Error(w, submissionStatus(err), err.Error())
		return
	}

	if err := h.Manager.ClearAfterSubmit(r.Context(), s.ID); err != nil {
		// The order is already persisted; a leftover draft only means
		// one extra recovery prompt.
		utils.JSON(w, http.StatusCreated, rep)
		return
	}
	utils.JSON(w, http.StatusCreated, rep)
}

func wizardStatus(err error) int {
	switch {
	case errors.Is(err, wizard.ErrIMEIDuplicado):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrDispositivoInvalido):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrTerminalNoExiste):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrSesionCerrada):
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}
