package wizard

import (
	"reflect"

	"taller-backend/internal/models"
)

// Baseline is the captured "original" state a session is compared
// against to decide whether it holds unsaved changes. It is re-captured
// after a successful submission.
type Baseline struct {
	Cliente      models.ClienteData
	Dispositivos []models.DispositivoGuardado
	Terminales   []models.TerminalCompleto
}

// ComputeDirty reports whether the session differs from its baseline.
// A session that is loading or submitting is never dirty; mid-flight
// state must not arm the navigate-away protection.
func (s *Session) ComputeDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Loading || s.Submitting {
		return false
	}
	if s.original == nil {
		return s.holdsSignificantData()
	}
	if s.Cliente != s.original.Cliente {
		return true
	}
	if !devicesEqual(s.Dispositivos, s.original.Dispositivos) {
		return true
	}
	return !reflect.DeepEqual(s.Terminales, s.original.Terminales)
}

func devicesEqual(a, b []models.DispositivoGuardado) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// CaptureBaseline records the current state as the new "original".
func (s *Session) CaptureBaseline() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.original = &Baseline{
		Cliente:      s.Cliente,
		Dispositivos: append([]models.DispositivoGuardado(nil), s.Dispositivos...),
		Terminales:   cloneTerminales(s.Terminales),
	}
}

func cloneTerminales(in []models.TerminalCompleto) []models.TerminalCompleto {
	out := make([]models.TerminalCompleto, len(in))
	for i, t := range in {
		if t.Diagnostico != nil {
			d := *t.Diagnostico
			d.ProblemasReportados = append([]string(nil), t.Diagnostico.ProblemasReportados...)
			t.Diagnostico = &d
		}
		if t.Presupuesto != nil {
			p := *t.Presupuesto
			p.Items = append([]models.PresupuestoItem(nil), t.Presupuesto.Items...)
			p.PresupuestoPorAveria = make([]models.GrupoAveria, len(t.Presupuesto.PresupuestoPorAveria))
			for j, g := range t.Presupuesto.PresupuestoPorAveria {
				g.Items = append([]models.PresupuestoItem(nil), g.Items...)
				p.PresupuestoPorAveria[j] = g
			}
			t.Presupuesto = &p
		}
		out[i] = t
	}
	return out
}
