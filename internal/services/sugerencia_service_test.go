package services

import (
	"testing"
	"time"

	"taller-backend/internal/models"
)

func historialDePrueba(ahora time.Time) []*models.ReparacionHistorial {
	return []*models.ReparacionHistorial{
		{ID: 1, ClienteDNI: "12345678Z", ClienteNombre: "Ana Gomez", Marca: "Apple", Modelo: "iPhone 12", Averias: []string{"Pantalla rota"}, Fecha: ahora.AddDate(0, -2, 0)},
		{ID: 2, ClienteDNI: "12345678Z", ClienteNombre: "Ana Gomez", Marca: "Apple", Modelo: "iPhone 12", Averias: []string{"Bateria"}, Fecha: ahora.AddDate(0, -1, 0)},
		{ID: 3, ClienteDNI: "00000000T", ClienteNombre: "Luis Ruiz", Marca: "Samsung", Modelo: "Galaxy S21", Averias: []string{"Pantalla rota"}, Fecha: ahora.AddDate(0, 0, -10)},
		{ID: 4, ClienteDNI: "X1234567L", ClienteNombre: "Marta Sanz", Marca: "Xiaomi", Modelo: "Redmi Note 10", Averias: []string{"Conector de carga"}, Fecha: ahora.AddDate(0, -3, 0)},
	}
}

func TestRankClientes(t *testing.T) {
	ahora := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	sugerencias := RankClientes(historialDePrueba(ahora), ahora)

	if len(sugerencias) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(sugerencias))
	}

	t.Run("frequent customer ranks first", func(t *testing.T) {
		if sugerencias[0].DNI != "12345678Z" || sugerencias[0].Tipo != "frecuente" {
			t.Fatalf("expected frequent Ana Gomez first, got %+v", sugerencias[0])
		}
		if sugerencias[0].Reparaciones != 2 {
			t.Fatalf("expected 2 repairs, got %d", sugerencias[0].Reparaciones)
		}
		if sugerencias[0].Confianza != 80 {
			t.Fatalf("expected confidence 80, got %d", sugerencias[0].Confianza)
		}
	})

	t.Run("single recent repair yields recent customer", func(t *testing.T) {
		if sugerencias[1].DNI != "00000000T" || sugerencias[1].Tipo != "reciente" {
			t.Fatalf("expected recent Luis Ruiz, got %+v", sugerencias[1])
		}
	})

	t.Run("single old repair is excluded", func(t *testing.T) {
		for _, s := range sugerencias {
			if s.DNI == "X1234567L" {
				t.Fatalf("customer with one repair 3 months ago should not be suggested")
			}
		}
	})
}

func TestRankClientesTieBreakByRecency(t *testing.T) {
	ahora := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	historial := []*models.ReparacionHistorial{
		{ID: 10, ClienteDNI: "A", ClienteNombre: "Cliente A", Fecha: ahora.AddDate(0, -6, 0)},
		{ID: 11, ClienteDNI: "A", ClienteNombre: "Cliente A", Fecha: ahora.AddDate(0, -5, 0)},
		{ID: 12, ClienteDNI: "B", ClienteNombre: "Cliente B", Fecha: ahora.AddDate(0, -4, 0)},
		{ID: 13, ClienteDNI: "B", ClienteNombre: "Cliente B", Fecha: ahora.AddDate(0, -1, 0)},
	}
	sugerencias := RankClientes(historial, ahora)
	if len(sugerencias) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(sugerencias))
	}
	if sugerencias[0].DNI != "B" {
		t.Fatalf("equal counts should rank the more recent customer first, got %s", sugerencias[0].DNI)
	}
}

func TestRankClientesCountsRepairsNotDevices(t *testing.T) {
	ahora := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	// One repair with two devices comes back as two history rows with the
	// same order id; it must count as a single repair.
	historial := []*models.ReparacionHistorial{
		{ID: 7, ClienteDNI: "12345678Z", ClienteNombre: "Ana Gomez", Marca: "Apple", Modelo: "iPhone 12", Fecha: ahora.AddDate(0, 0, -5)},
		{ID: 7, ClienteDNI: "12345678Z", ClienteNombre: "Ana Gomez", Marca: "Samsung", Modelo: "Galaxy S21", Fecha: ahora.AddDate(0, 0, -5)},
	}
	sugerencias := RankClientes(historial, ahora)
	if len(sugerencias) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(sugerencias))
	}
	if sugerencias[0].Tipo != "reciente" {
		t.Fatalf("a single multi-device repair must not make the customer frecuente, got %s", sugerencias[0].Tipo)
	}
	if sugerencias[0].Reparaciones != 1 {
		t.Fatalf("expected 1 repair, got %d", sugerencias[0].Reparaciones)
	}
}

func TestRankDispositivos(t *testing.T) {
	ahora := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	historial := historialDePrueba(ahora)

	t.Run("without customer ranks by global count", func(t *testing.T) {
		sugerencias := RankDispositivos(historial, "")
		if len(sugerencias) != 3 {
			t.Fatalf("expected 3 device groups, got %d", len(sugerencias))
		}
		if sugerencias[0].Marca != "Apple" || sugerencias[0].Count != 2 {
			t.Fatalf("expected Apple iPhone 12 with count 2 first, got %+v", sugerencias[0])
		}
		if sugerencias[0].Origen != "popular" {
			t.Fatalf("expected origen popular, got %s", sugerencias[0].Origen)
		}
	})

	t.Run("selected customer's devices come first without duplicates", func(t *testing.T) {
		sugerencias := RankDispositivos(historial, "00000000T")
		if sugerencias[0].Modelo != "Galaxy S21" || sugerencias[0].Origen != "cliente" {
			t.Fatalf("expected customer's Galaxy S21 first, got %+v", sugerencias[0])
		}
		vistos := make(map[string]int)
		for _, s := range sugerencias {
			vistos[s.Marca+"|"+s.Modelo]++
		}
		if vistos["Samsung|Galaxy S21"] != 1 {
			t.Fatalf("customer device duplicated in popular tail")
		}
	})
}

func TestCombinarPlantillas(t *testing.T) {
	t.Run("model matches use the model confidence formula", func(t *testing.T) {
		porModelo := []models.SugerenciaPlantilla{
			{Averia: "Pantalla rota", Count: 3},
			{Averia: "Bateria", Count: 3},
			{Averia: "Altavoz", Count: 1},
		}
		sugerencias := CombinarPlantillas(porModelo, nil)
		if len(sugerencias) != 3 {
			t.Fatalf("expected 3 suggestions, got %d", len(sugerencias))
		}
		// count ties break alphabetically
		if sugerencias[0].Averia != "Bateria" || sugerencias[1].Averia != "Pantalla rota" {
			t.Fatalf("tie not broken alphabetically: %+v", sugerencias)
		}
		if sugerencias[0].Confianza != 89 {
			t.Fatalf("expected min(95, 80+3x3)=89, got %d", sugerencias[0].Confianza)
		}
		if sugerencias[2].Confianza != 83 {
			t.Fatalf("expected 80+3x1=83, got %d", sugerencias[2].Confianza)
		}
	})

	t.Run("confidence is capped at 95", func(t *testing.T) {
		sugerencias := CombinarPlantillas([]models.SugerenciaPlantilla{{Averia: "Pantalla rota", Count: 10}}, nil)
		if sugerencias[0].Confianza != 95 {
			t.Fatalf("expected cap 95, got %d", sugerencias[0].Confianza)
		}
	})

	t.Run("customer history backfills up to four without duplicates", func(t *testing.T) {
		porModelo := []models.SugerenciaPlantilla{
			{Averia: "Pantalla rota", Count: 2},
		}
		porCliente := map[string]int{
			"pantalla rota":     5,
			"Bateria":           2,
			"Conector de carga": 1,
			"Altavoz":           1,
			"Microfono":         1,
		}
		sugerencias := CombinarPlantillas(porModelo, porCliente)
		if len(sugerencias) != 4 {
			t.Fatalf("expected cap of 4, got %d", len(sugerencias))
		}
		for _, s := range sugerencias[1:] {
			if s.Averia == "pantalla rota" {
				t.Fatalf("duplicate fault from customer backfill")
			}
			if s.Origen != "cliente" {
				t.Fatalf("backfill origen should be cliente, got %s", s.Origen)
			}
		}
		// min(85, 60+10x2)=80 for Bateria
		var bateria *models.SugerenciaPlantilla
		for i := range sugerencias {
			if sugerencias[i].Averia == "Bateria" {
				bateria = &sugerencias[i]
			}
		}
		if bateria == nil || bateria.Confianza != 80 {
			t.Fatalf("expected Bateria backfill with confidence 80, got %+v", bateria)
		}
	})

	t.Run("result is sorted by confidence descending", func(t *testing.T) {
		sugerencias := CombinarPlantillas(
			[]models.SugerenciaPlantilla{{Averia: "Altavoz", Count: 1}},
			map[string]int{"Pantalla rota": 3},
		)
		for i := 1; i < len(sugerencias); i++ {
			if sugerencias[i].Confianza > sugerencias[i-1].Confianza {
				t.Fatalf("not sorted by confidence: %+v", sugerencias)
			}
		}
	})
}
