package models

import "time"

// DiagnosticoData is the diagnosis captured for one terminal. A
// diagnosis counts as complete only when it reports at least one fault.
type DiagnosticoData struct {
	TipoServicio        string   `json:"tipo_servicio"`
	ProblemasReportados []string `json:"problemas_reportados"`
	SintomasAdicionales string   `json:"sintomas_adicionales,omitempty"`
	Prioridad           string   `json:"prioridad,omitempty"`
	RequiereBackup      bool     `json:"requiere_backup,omitempty"`
	PatronDesbloqueo    string   `json:"patron_desbloqueo,omitempty"`
	ObservacionesTec    string   `json:"observaciones_tecnicas,omitempty"`
}

// PresupuestoItem is one priced line of a quote.
type PresupuestoItem struct {
	Concepto       string  `json:"concepto"`
	Precio         float64 `json:"precio"`
	Cantidad       int     `json:"cantidad"`
	IntervencionID *int    `json:"intervencion_id,omitempty"`
	Tipo           string  `json:"tipo,omitempty"` // 'mano_obra' or 'repuesto'
}

// GrupoAveria groups quote lines under the fault they address.
type GrupoAveria struct {
	Averia string            `json:"averia"`
	Items  []PresupuestoItem `json:"items"`
}

// PresupuestoData is the quote for one terminal. Items is always the
// flattened union of PresupuestoPorAveria; callers mutate the grouped
// structure and rebuild Items through Reflatten, never the reverse.
type PresupuestoData struct {
	Items                []PresupuestoItem `json:"items"`
	PresupuestoPorAveria []GrupoAveria     `json:"presupuesto_por_averia"`
	Descuento            float64           `json:"descuento"`
	TipoDescuento        string            `json:"tipo_descuento"` // 'porcentaje' or 'cantidad'
	NotasPresupuesto     string            `json:"notas_presupuesto,omitempty"`
	ValidezDias          int               `json:"validez_dias,omitempty"`
	RequiereAnticipo     bool              `json:"requiere_anticipo"`
	PorcentajeAnticipo   float64           `json:"porcentaje_anticipo,omitempty"`
}

// Reflatten rebuilds Items from the grouped structure.
func (p *PresupuestoData) Reflatten() {
	items := make([]PresupuestoItem, 0)
	for _, g := range p.PresupuestoPorAveria {
		items = append(items, g.Items...)
	}
	p.Items = items
}

// Subtotal returns the raw sum of precio x cantidad over all lines.
func (p *PresupuestoData) Subtotal() float64 {
	var sum float64
	for _, it := range p.Items {
		sum += it.Precio * float64(it.Cantidad)
	}
	return sum
}

// DescuentoAbsoluto resolves the discount to a currency amount against
// this quote's own subtotal.
func (p *PresupuestoData) DescuentoAbsoluto() float64 {
	if p.TipoDescuento == "porcentaje" {
		return p.Subtotal() * p.Descuento / 100
	}
	return p.Descuento
}

// TerminalCompleto bundles one device with its diagnosis and quote.
// One terminal exists per device in the order.
type TerminalCompleto struct {
	Dispositivo             DispositivoGuardado `json:"dispositivo"`
	Diagnostico             *DiagnosticoData    `json:"diagnostico"`
	Presupuesto             *PresupuestoData    `json:"presupuesto"`
	DiagnosticoCompletado   bool                `json:"diagnostico_completado"`
	PresupuestoCompletado   bool                `json:"presupuesto_completado"`
	FechaUltimaModificacion time.Time           `json:"fecha_ultima_modificacion"`
}

// TotalesGlobales is derived from all terminal quotes and never persisted.
type TotalesGlobales struct {
	Subtotal                 float64 `json:"subtotal"`
	Descuento                float64 `json:"descuento"`
	Total                    float64 `json:"total"`
	Anticipo                 float64 `json:"anticipo"`
	TerminalesConPresupuesto int     `json:"terminales_con_presupuesto"`
}
