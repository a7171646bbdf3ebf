package wizard

import "fmt"

// Wizard steps. Each order walks them in sequence; backward moves are
// always allowed to any previously-unlocked step.
const (
	PasoCliente      = 1
	PasoDispositivos = 2
	PasoDiagnostico  = 3
	PasoPresupuesto  = 4
	PasoResumen      = 5
)

// StepError carries the user-visible warning shown when a forward move
// is blocked by its guard.
type StepError struct {
	Paso   int
	Motivo string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("paso %d bloqueado: %s", e.Paso, e.Motivo)
}

// maxStepUnlocked returns the highest step whose guard currently
// passes. Guards are cumulative, so steps beyond the first failing
// guard stay locked.
func (s *Session) maxStepUnlocked() int {
	if !s.ClienteValido {
		return PasoCliente
	}
	if !DispositivosValidos(s.Dispositivos) {
		return PasoDispositivos
	}
	for _, t := range s.Terminales {
		if !t.DiagnosticoCompletado {
			return PasoDiagnostico
		}
	}
	for _, t := range s.Terminales {
		if !t.PresupuestoCompletado {
			return PasoPresupuesto
		}
	}
	return PasoResumen
}

// IrAPaso moves the session to the given step. Backward moves always
// succeed; forward moves past the first failing guard return a
// StepError naming what is missing.
func (s *Session) IrAPaso(paso int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.irAPasoLocked(paso)
}

// Avanzar moves to the next step, subject to the same guards.
func (s *Session) Avanzar() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.irAPasoLocked(s.PasoActual + 1)
}

func (s *Session) irAPasoLocked(paso int) error {
	if paso < PasoCliente || paso > PasoResumen {
		return &StepError{Paso: paso, Motivo: "paso inexistente"}
	}
	if paso <= s.PasoActual {
		s.PasoActual = paso
		s.notifyChange()
		return nil
	}
	unlocked := s.maxStepUnlocked()
	if paso > unlocked {
		return &StepError{Paso: paso, Motivo: motivoBloqueo(unlocked)}
	}
	s.PasoActual = paso
	s.notifyChange()
	return nil
}

func motivoBloqueo(unlocked int) string {
	switch unlocked {
	case PasoCliente:
		return "los datos del cliente no son validos"
	case PasoDispositivos:
		return "hace falta al menos un dispositivo valido"
	case PasoDiagnostico:
		return "todos los terminales necesitan un diagnostico completado"
	case PasoPresupuesto:
		return "todos los terminales necesitan un presupuesto completado"
	}
	return "paso no disponible"
}
