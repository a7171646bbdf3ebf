package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taller-backend/internal/models"
	"taller-backend/internal/repositories"
	"taller-backend/internal/timeutil"
)

const (
	maxSugerenciasPlantilla = 4
	ventanaClienteReciente  = 30 * 24 * time.Hour
)

// SugerenciaService ranks customers, devices and repair templates from
// prior-order history. The history snapshot is cached in memory and
// refreshed on demand; the rankings themselves are pure functions over
// it.
type SugerenciaService struct {
	reparaciones *repositories.ReparacionRepository
	averias      *repositories.AveriaRepository
	plantillas   *repositories.PlantillaRepository

	mu        sync.Mutex
	historial []*models.ReparacionHistorial
	cargado   bool
}

func NewSugerenciaService(reparaciones *repositories.ReparacionRepository,
	averias *repositories.AveriaRepository, plantillas *repositories.PlantillaRepository) *SugerenciaService {
	return &SugerenciaService{reparaciones: reparaciones, averias: averias, plantillas: plantillas}
}

func (s *SugerenciaService) cargarHistorial(ctx context.Context) ([]*models.ReparacionHistorial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cargado {
		return s.historial, nil
	}
	historial, err := s.reparaciones.Historial(ctx)
	if err != nil {
		return nil, err
	}
	s.historial = historial
	s.cargado = true
	return historial, nil
}

// Refrescar drops the cached history so the next query reloads it.
func (s *SugerenciaService) Refrescar() {
	s.mu.Lock()
	s.cargado = false
	s.historial = nil
	s.mu.Unlock()
}

func (s *SugerenciaService) Clientes(ctx context.Context) ([]models.SugerenciaCliente, error) {
	historial, err := s.cargarHistorial(ctx)
	if err != nil {
		return nil, err
	}
	return RankClientes(historial, timeutil.Now()), nil
}

func (s *SugerenciaService) Dispositivos(ctx context.Context, clienteDNI string) ([]models.SugerenciaDispositivo, error) {
	historial, err := s.cargarHistorial(ctx)
	if err != nil {
		return nil, err
	}
	return RankDispositivos(historial, clienteDNI), nil
}

// Plantillas suggests faults for an exact model, backfilled from the
// selected customer's own history when the model yields fewer than
// four.
func (s *SugerenciaService) Plantillas(ctx context.Context, marca, modelo, clienteDNI string) ([]models.SugerenciaPlantilla, error) {
	porModelo, err := s.averias.SugerenciasPorModelo(ctx, marca, modelo)
	if err != nil {
		return nil, err
	}
	var porCliente map[string]int
	if clienteDNI != "" {
		porCliente, err = s.plantillas.UsoPorCliente(ctx, clienteDNI)
		if err != nil {
			return nil, err
		}
	}
	return CombinarPlantillas(porModelo, porCliente), nil
}

type clienteAcum struct {
	nombre string
	count  int
	ultima time.Time
}

// RankClientes groups prior repairs by DNI. Customers with more than
// one repair are 'frecuente', ranked by count descending with ties
// broken by most recent repair; customers with exactly one repair in
// the last 30 days are 'reciente' and trail the frequent group.
// History rows arrive one per (repair, device), so a multi-device
// repair counts once per order id, not once per row.
func RankClientes(historial []*models.ReparacionHistorial, ahora time.Time) []models.SugerenciaCliente {
	porDNI := make(map[string]*clienteAcum)
	contadas := make(map[int]bool)
	var orden []string
	for _, h := range historial {
		acum, ok := porDNI[h.ClienteDNI]
		if !ok {
			acum = &clienteAcum{nombre: h.ClienteNombre}
			porDNI[h.ClienteDNI] = acum
			orden = append(orden, h.ClienteDNI)
		}
		if !contadas[h.ID] {
			contadas[h.ID] = true
			acum.count++
		}
		if h.Fecha.After(acum.ultima) {
			acum.ultima = h.Fecha
			acum.nombre = h.ClienteNombre
		}
	}

	var frecuentes, recientes []models.SugerenciaCliente
	for _, dni := range orden {
		acum := porDNI[dni]
		switch {
		case acum.count > 1:
			frecuentes = append(frecuentes, models.SugerenciaCliente{
				DNI: dni, Nombre: acum.nombre, Reparaciones: acum.count,
				UltimaVisita: acum.ultima, Tipo: "frecuente",
				Confianza: confianza(70, 5, acum.count, 95),
			})
		case ahora.Sub(acum.ultima) <= ventanaClienteReciente:
			recientes = append(recientes, models.SugerenciaCliente{
				DNI: dni, Nombre: acum.nombre, Reparaciones: 1,
				UltimaVisita: acum.ultima, Tipo: "reciente",
				Confianza: confianza(60, 8, 1, 95),
			})
		}
	}

	sort.SliceStable(frecuentes, func(i, j int) bool {
		if frecuentes[i].Reparaciones != frecuentes[j].Reparaciones {
			return frecuentes[i].Reparaciones > frecuentes[j].Reparaciones
		}
		return frecuentes[i].UltimaVisita.After(frecuentes[j].UltimaVisita)
	})
	sort.SliceStable(recientes, func(i, j int) bool {
		return recientes[i].UltimaVisita.After(recientes[j].UltimaVisita)
	})
	return append(frecuentes, recientes...)
}

// RankDispositivos groups prior repair devices by (marca, modelo) and
// ranks by occurrence. With a customer selected, that customer's own
// devices come first and are suppressed from the popular tail.
func RankDispositivos(historial []*models.ReparacionHistorial, clienteDNI string) []models.SugerenciaDispositivo {
	type acum struct {
		marca, modelo string
		count         int
	}
	contar := func(filtroDNI string) []*acum {
		porClave := make(map[string]*acum)
		var orden []string
		for _, h := range historial {
			if filtroDNI != "" && h.ClienteDNI != filtroDNI {
				continue
			}
			clave := strings.ToLower(h.Marca) + "|" + strings.ToLower(h.Modelo)
			a, ok := porClave[clave]
			if !ok {
				a = &acum{marca: h.Marca, modelo: h.Modelo}
				porClave[clave] = a
				orden = append(orden, clave)
			}
			a.count++
		}
		out := make([]*acum, 0, len(orden))
		for _, clave := range orden {
			out = append(out, porClave[clave])
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
		return out
	}

	var sugerencias []models.SugerenciaDispositivo
	vistos := make(map[string]bool)
	if clienteDNI != "" {
		for _, a := range contar(clienteDNI) {
			vistos[strings.ToLower(a.marca)+"|"+strings.ToLower(a.modelo)] = true
			sugerencias = append(sugerencias, models.SugerenciaDispositivo{
				Marca: a.marca, Modelo: a.modelo, Count: a.count,
				Origen: "cliente", Confianza: confianza(60, 8, a.count, 95),
			})
		}
	}
	for _, a := range contar("") {
		if vistos[strings.ToLower(a.marca)+"|"+strings.ToLower(a.modelo)] {
			continue
		}
		sugerencias = append(sugerencias, models.SugerenciaDispositivo{
			Marca: a.marca, Modelo: a.modelo, Count: a.count,
			Origen: "popular", Confianza: confianza(60, 8, a.count, 95),
		})
	}
	return sugerencias
}

// CombinarPlantillas merges model-specific fault counts with the
// customer's own usage counts. Model matches rank by count descending,
// ties alphabetical, confidence min(95, 80+3xcount); customer backfill
// uses min(85, 60+10xcount) and skips faults already suggested. The
// combined list is capped at four, sorted by confidence descending.
func CombinarPlantillas(porModelo []models.SugerenciaPlantilla, porCliente map[string]int) []models.SugerenciaPlantilla {
	sugerencias := make([]models.SugerenciaPlantilla, 0, maxSugerenciasPlantilla)
	vistas := make(map[string]bool)

	modelo := append([]models.SugerenciaPlantilla(nil), porModelo...)
	sort.SliceStable(modelo, func(i, j int) bool {
		if modelo[i].Count != modelo[j].Count {
			return modelo[i].Count > modelo[j].Count
		}
		return modelo[i].Averia < modelo[j].Averia
	})
	for _, sug := range modelo {
		if len(sugerencias) == maxSugerenciasPlantilla {
			break
		}
		sug.Origen = "modelo"
		sug.Confianza = confianza(80, 3, sug.Count, 95)
		vistas[strings.ToLower(sug.Averia)] = true
		sugerencias = append(sugerencias, sug)
	}

	if len(sugerencias) < maxSugerenciasPlantilla && len(porCliente) > 0 {
		backfill := make([]models.SugerenciaPlantilla, 0, len(porCliente))
		for averia, count := range porCliente {
			if vistas[strings.ToLower(averia)] {
				continue
			}
			backfill = append(backfill, models.SugerenciaPlantilla{
				Averia: averia, Count: count, Origen: "cliente",
				Confianza: confianza(60, 10, count, 85),
			})
		}
		sort.SliceStable(backfill, func(i, j int) bool {
			if backfill[i].Count != backfill[j].Count {
				return backfill[i].Count > backfill[j].Count
			}
			return backfill[i].Averia < backfill[j].Averia
		})
		for _, sug := range backfill {
			if len(sugerencias) == maxSugerenciasPlantilla {
				break
			}
			sugerencias = append(sugerencias, sug)
		}
	}

	sort.SliceStable(sugerencias, func(i, j int) bool {
		return sugerencias[i].Confianza > sugerencias[j].Confianza
	})
	return sugerencias
}

func confianza(base, paso, count, techo int) int {
	c := base + paso*count
	if c > techo {
		return techo
	}
	return c
}
