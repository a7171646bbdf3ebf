package wizard

import "taller-backend/internal/models"

// DeriveTotals recomputes the order totals from every terminal with a
// completed quote. The deposit base for each terminal is the global
// order total, not the terminal's own subtotal: the shop applies a
// single order-wide deposit policy.
func DeriveTotals(terminales []models.TerminalCompleto) models.TotalesGlobales {
	var t models.TotalesGlobales
	for _, term := range terminales {
		if !term.PresupuestoCompletado || term.Presupuesto == nil {
			continue
		}
		t.TerminalesConPresupuesto++
		t.Subtotal += term.Presupuesto.Subtotal()
		t.Descuento += term.Presupuesto.DescuentoAbsoluto()
	}
	t.Total = t.Subtotal - t.Descuento

	for _, term := range terminales {
		if !term.PresupuestoCompletado || term.Presupuesto == nil {
			continue
		}
		if term.Presupuesto.RequiereAnticipo {
			t.Anticipo += t.Total * term.Presupuesto.PorcentajeAnticipo / 100
		}
	}
	return t
}
