package models

import "time"

// Reparacion is a persisted repair order header.
type Reparacion struct {
	ID          int        `json:"id"`
	Numero      string     `json:"numero"`
	ClienteID   int        `json:"cliente_id"`
	Estado      string     `json:"estado"`
	Subtotal    float64    `json:"subtotal"`
	Descuento   float64    `json:"descuento"`
	Total       float64    `json:"total"`
	Anticipo    float64    `json:"anticipo"`
	Notas       string     `json:"notas,omitempty"`
	FechaCierre *time.Time `json:"fecha_cierre,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ReparacionDetalle is a full order: header plus client and terminals.
type ReparacionDetalle struct {
	Reparacion
	Cliente    Cliente            `json:"cliente"`
	Terminales []TerminalCompleto `json:"terminales"`
}

// CrearReparacionCompletaRequest is the atomic submission payload
// assembled by the wizard: client, every terminal, and the computed
// totals, sent in one call.
type CrearReparacionCompletaRequest struct {
	Cliente    ClienteData        `json:"cliente"`
	Terminales []TerminalCompleto `json:"terminales"`
	Totales    TotalesGlobales    `json:"totales"`
	Notas      string             `json:"notas,omitempty"`
}

// ReparacionHistorial is one prior completed repair as consumed by the
// suggestion engines.
type ReparacionHistorial struct {
	ID            int       `json:"id"`
	ClienteDNI    string    `json:"cliente_dni"`
	ClienteNombre string    `json:"cliente_nombre"`
	Marca         string    `json:"marca"`
	Modelo        string    `json:"modelo"`
	Averias       []string  `json:"averias"`
	Fecha         time.Time `json:"fecha"`
}
