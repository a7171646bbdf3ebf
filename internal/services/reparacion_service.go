package services

import (
	"context"
	"errors"

	"taller-backend/internal/metrics"
	"taller-backend/internal/models"
	"taller-backend/internal/repositories"
	"taller-backend/internal/wizard"
)

var (
	ErrSubmisionIncompleta = errors.New("la orden tiene terminales sin diagnostico o presupuesto completo")
	ErrSinTerminales       = errors.New("la orden necesita al menos un terminal")
)

// ReparacionService accepts assembled wizard submissions and serves the
// order listings. Totals are always recomputed server-side before
// persisting; the client's figures are never trusted.
type ReparacionService struct {
	repo        *repositories.ReparacionRepository
	sugerencias *SugerenciaService
}

func NewReparacionService(repo *repositories.ReparacionRepository, sugerencias *SugerenciaService) *ReparacionService {
	return &ReparacionService{repo: repo, sugerencias: sugerencias}
}

func (s *ReparacionService) List(ctx context.Context, estado string) ([]*models.Reparacion, error) {
	return s.repo.List(ctx, estado)
}

// ListDetalle expands every listed order with its customer and
// terminal records. One extra round-trip per order; the order book of
// a single shop stays small enough for that.
func (s *ReparacionService) ListDetalle(ctx context.Context, estado string) ([]*models.ReparacionDetalle, error) {
	reparaciones, err := s.repo.List(ctx, estado)
	if err != nil {
		return nil, err
	}
	detalles := make([]*models.ReparacionDetalle, 0, len(reparaciones))
	for _, rep := range reparaciones {
		detalle, err := s.repo.GetDetalle(ctx, rep.ID)
		if err != nil {
			return nil, err
		}
		detalles = append(detalles, detalle)
	}
	return detalles, nil
}

func (s *ReparacionService) Get(ctx context.Context, id int) (*models.Reparacion, error) {
	return s.repo.Get(ctx, id)
}

func (s *ReparacionService) GetDetalle(ctx context.Context, id int) (*models.ReparacionDetalle, error) {
	return s.repo.GetDetalle(ctx, id)
}

func (s *ReparacionService) CrearCompleta(ctx context.Context, req *models.CrearReparacionCompletaRequest) (*models.Reparacion, error) {
	if err := s.validar(req); err != nil {
		return nil, err
	}
	req.Totales = wizard.DeriveTotals(req.Terminales)
	rep, err := s.repo.CreateCompleta(ctx, req)
	if err != nil {
		return nil, err
	}
	metrics.OrdenesCreadasTotal.Inc()
	s.sugerencias.Refrescar()
	return rep, nil
}

func (s *ReparacionService) ActualizarCompleta(ctx context.Context, id int, req *models.CrearReparacionCompletaRequest) (*models.Reparacion, error) {
	if err := s.validar(req); err != nil {
		return nil, err
	}
	req.Totales = wizard.DeriveTotals(req.Terminales)
	rep, err := s.repo.UpdateCompleta(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.sugerencias.Refrescar()
	return rep, nil
}

func (s *ReparacionService) CambiarEstado(ctx context.Context, id int, estado string) error {
	if estado == "" {
		return errors.New("estado es obligatorio")
	}
	return s.repo.UpdateEstado(ctx, id, estado)
}

// validar re-checks every wizard gate on the submitted payload: valid
// client, at least one valid device with a unique IMEI, and a complete
// diagnosis and quote on every terminal.
func (s *ReparacionService) validar(req *models.CrearReparacionCompletaRequest) error {
	if !wizard.ClienteValido(req.Cliente, models.FullClientForm) {
		return ErrClienteInvalido
	}
	if len(req.Terminales) == 0 {
		return ErrSinTerminales
	}
	devices := make([]models.DispositivoGuardado, 0, len(req.Terminales))
	for _, t := range req.Terminales {
		devices = append(devices, t.Dispositivo)
	}
	if !wizard.DispositivosValidos(devices) {
		return errors.New("la orden contiene dispositivos incompletos")
	}
	for _, d := range devices {
		if wizard.IMEIDuplicado(devices, d.IMEI, d.Ref) {
			return wizard.ErrIMEIDuplicado
		}
	}
	for _, t := range req.Terminales {
		if !t.DiagnosticoCompletado || !t.PresupuestoCompletado {
			return ErrSubmisionIncompleta
		}
	}
	return nil
}
