package models

import "time"

// DraftVersion marks the current snapshot layout. Snapshots with a
// different version are treated as absent.
const DraftVersion = 2

// DraftSnapshot is the auto-saved wizard state for one order session.
type DraftSnapshot struct {
	Timestamp             time.Time             `json:"timestamp"`
	PasoActual            int                   `json:"paso_actual"`
	ClienteData           ClienteData           `json:"cliente_data"`
	ClienteValido         bool                  `json:"cliente_valido"`
	DispositivosAgregados []DispositivoGuardado `json:"dispositivos_agregados"`
	DispositivosValidos   bool                  `json:"dispositivos_validos"`
	TerminalesCompletos   []TerminalCompleto    `json:"terminales_completos"`
	Version               int                   `json:"version"`
}
