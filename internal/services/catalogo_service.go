package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taller-backend/internal/cache"
	"taller-backend/internal/models"
	"taller-backend/internal/repositories"
)

var (
	ErrMarcaDuplicada  = errors.New("ya existe una marca con ese nombre")
	ErrModeloDuplicado = errors.New("ya existe un modelo con ese nombre para esta marca")
	ErrAveriaDuplicada = errors.New("ya existe una averia con ese nombre")
)

// CatalogoService owns the reference collections the wizard reads:
// brands, models, statuses, faults, interventions and templates.
// Listings go through Redis; every write invalidates the affected keys.
type CatalogoService struct {
	Marcas         *repositories.MarcaRepository
	Modelos        *repositories.ModeloRepository
	Estados        *repositories.EstadoRepository
	Averias        *repositories.AveriaRepository
	Intervenciones *repositories.IntervencionRepository
	Plantillas     *repositories.PlantillaRepository
}

func NewCatalogoService(marcas *repositories.MarcaRepository, modelos *repositories.ModeloRepository,
	estados *repositories.EstadoRepository, averias *repositories.AveriaRepository,
	intervenciones *repositories.IntervencionRepository, plantillas *repositories.PlantillaRepository) *CatalogoService {
	return &CatalogoService{
		Marcas: marcas, Modelos: modelos, Estados: estados,
		Averias: averias, Intervenciones: intervenciones, Plantillas: plantillas,
	}
}

func (s *CatalogoService) ListMarcas(ctx context.Context) ([]*models.Marca, error) {
	var cached []*models.Marca
	if cache.GetJSON(ctx, cache.MarcasKey, &cached) {
		return cached, nil
	}
	marcas, err := s.Marcas.List(ctx)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, cache.MarcasKey, marcas)
	return marcas, nil
}

func (s *CatalogoService) CreateMarca(ctx context.Context, req *models.CreateMarcaRequest) (*models.Marca, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, errors.New("el nombre de la marca es obligatorio")
	}
	exists, err := s.Marcas.ExistsByNombre(ctx, nombre)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrMarcaDuplicada
	}
	marca := &models.Marca{Nombre: nombre, IconoURL: req.IconoURL, Activa: true}
	if err := s.Marcas.Create(ctx, marca); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.MarcasKey)
	return marca, nil
}

func (s *CatalogoService) UpdateMarca(ctx context.Context, m *models.Marca) error {
	if err := s.Marcas.Update(ctx, m); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.MarcasKey)
	return nil
}

func (s *CatalogoService) DeleteMarca(ctx context.Context, id int) error {
	if err := s.Marcas.Delete(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.MarcasKey, fmt.Sprintf(cache.ModelosKeyFmt, id))
	return nil
}

func (s *CatalogoService) ListModelos(ctx context.Context, marcaID int) ([]*models.Modelo, error) {
	key := fmt.Sprintf(cache.ModelosKeyFmt, marcaID)
	var cached []*models.Modelo
	if cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}
	modelos, err := s.Modelos.ListByMarca(ctx, marcaID)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, key, modelos)
	return modelos, nil
}

func (s *CatalogoService) CreateModelo(ctx context.Context, req *models.CreateModeloRequest) (*models.Modelo, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, errors.New("el nombre del modelo es obligatorio")
	}
	if req.MarcaID <= 0 {
		return nil, errors.New("marca_id es obligatorio")
	}
	exists, err := s.Modelos.ExistsByNombre(ctx, req.MarcaID, nombre)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrModeloDuplicado
	}
	modelo := &models.Modelo{MarcaID: req.MarcaID, Nombre: nombre, Anio: req.Anio, Activo: true}
	if err := s.Modelos.Create(ctx, modelo); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, fmt.Sprintf(cache.ModelosKeyFmt, req.MarcaID))
	return modelo, nil
}

func (s *CatalogoService) UpdateModelo(ctx context.Context, m *models.Modelo) error {
	actual, err := s.Modelos.Get(ctx, m.ID)
	if err != nil {
		return err
	}
	if err := s.Modelos.Update(ctx, m); err != nil {
		return err
	}
	m.MarcaID = actual.MarcaID
	cache.Invalidate(ctx, fmt.Sprintf(cache.ModelosKeyFmt, actual.MarcaID))
	return nil
}

func (s *CatalogoService) DeleteModelo(ctx context.Context, id int) error {
	modelo, err := s.Modelos.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Modelos.Delete(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, fmt.Sprintf(cache.ModelosKeyFmt, modelo.MarcaID))
	return nil
}

func (s *CatalogoService) ListEstados(ctx context.Context) ([]*models.Estado, error) {
	var cached []*models.Estado
	if cache.GetJSON(ctx, cache.EstadosKey, &cached) {
		return cached, nil
	}
	estados, err := s.Estados.List(ctx)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, cache.EstadosKey, estados)
	return estados, nil
}

func (s *CatalogoService) CreateEstado(ctx context.Context, req *models.CreateEstadoRequest) (*models.Estado, error) {
	if strings.TrimSpace(req.Nombre) == "" {
		return nil, errors.New("el nombre del estado es obligatorio")
	}
	estado := &models.Estado{Nombre: strings.TrimSpace(req.Nombre), Color: req.Color, Orden: req.Orden}
	if err := s.Estados.Create(ctx, estado); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.EstadosKey)
	return estado, nil
}

func (s *CatalogoService) UpdateEstado(ctx context.Context, e *models.Estado) error {
	if err := s.Estados.Update(ctx, e); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.EstadosKey)
	return nil
}

func (s *CatalogoService) DeleteEstado(ctx context.Context, id int) error {
	if err := s.Estados.Delete(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.EstadosKey)
	return nil
}

func (s *CatalogoService) ListAverias(ctx context.Context) ([]*models.Averia, error) {
	return s.Averias.List(ctx)
}

func (s *CatalogoService) CreateAveria(ctx context.Context, req *models.CreateAveriaRequest) (*models.Averia, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, errors.New("el nombre de la averia es obligatorio")
	}
	exists, err := s.Averias.ExistsByNombre(ctx, nombre)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAveriaDuplicada
	}
	averia := &models.Averia{Nombre: nombre, Descripcion: req.Descripcion}
	if err := s.Averias.Create(ctx, averia); err != nil {
		return nil, err
	}
	return averia, nil
}

func (s *CatalogoService) ListIntervenciones(ctx context.Context, modeloID, averiaID *int) ([]*models.Intervencion, error) {
	return s.Intervenciones.ListFiltradas(ctx, modeloID, averiaID)
}

func (s *CatalogoService) CreateIntervencion(ctx context.Context, req *models.CreateIntervencionRequest) (*models.Intervencion, error) {
	if strings.TrimSpace(req.Nombre) == "" {
		return nil, errors.New("el nombre de la intervencion es obligatorio")
	}
	if req.Precio < 0 {
		return nil, errors.New("el precio no puede ser negativo")
	}
	if req.Tipo != "mano_obra" && req.Tipo != "repuesto" {
		return nil, errors.New("tipo debe ser 'mano_obra' o 'repuesto'")
	}
	iv := &models.Intervencion{
		Nombre: strings.TrimSpace(req.Nombre), Descripcion: req.Descripcion,
		Precio: req.Precio, Tipo: req.Tipo, AveriaID: req.AveriaID, ModeloID: req.ModeloID,
	}
	if err := s.Intervenciones.Create(ctx, iv); err != nil {
		return nil, err
	}
	return iv, nil
}

func (s *CatalogoService) SugerirIntervenciones(ctx context.Context, averiaID, modeloID *int, limit int) ([]*models.Intervencion, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.Intervenciones.Sugerencias(ctx, averiaID, modeloID, limit)
}

func (s *CatalogoService) ListPlantillas(ctx context.Context) (*models.PlantillasResponse, error) {
	var cached models.PlantillasResponse
	if cache.GetJSON(ctx, cache.PlantillasKey, &cached) {
		return &cached, nil
	}
	plantillas, err := s.Plantillas.List(ctx)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, cache.PlantillasKey, plantillas)
	return plantillas, nil
}

func (s *CatalogoService) CreatePlantilla(ctx context.Context, p *models.PlantillaReparacion) error {
	if strings.TrimSpace(p.Nombre) == "" {
		return errors.New("el nombre de la plantilla es obligatorio")
	}
	if len(p.Averias) == 0 {
		return errors.New("la plantilla necesita al menos una averia")
	}
	if err := s.Plantillas.Create(ctx, p); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.PlantillasKey)
	return nil
}

// RegistrarUsoPlantilla bumps a template's usage counter when the
// wizard applies it to a diagnosis.
func (s *CatalogoService) RegistrarUsoPlantilla(ctx context.Context, id int) error {
	if err := s.Plantillas.IncrementUso(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.PlantillasKey)
	return nil
}
