package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"

	"taller-backend/internal/repositories"
	"taller-backend/internal/timeutil"
)

// PDFService renders printable quote sheets for repair orders.
type PDFService struct {
	Reparaciones *repositories.ReparacionRepository
}

func NewPDFService(reparaciones *repositories.ReparacionRepository) *PDFService {
	return &PDFService{Reparaciones: reparaciones}
}

// GeneratePresupuestoPDF renders the full order quote: customer box,
// one section per terminal with its fault list and priced lines, and
// the global totals.
func (s *PDFService) GeneratePresupuestoPDF(ctx context.Context, reparacionID int) ([]byte, error) {
	detalle, err := s.Reparaciones.GetDetalle(ctx, reparacionID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, fmt.Sprintf("Presupuesto de reparacion %s", detalle.Numero), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generado: %s", timeutil.Now().Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Customer box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Datos del cliente", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Nombre: %s %s", detalle.Cliente.Nombre, detalle.Cliente.Apellidos), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("DNI: %s", detalle.Cliente.DNI), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Telefono: %s", detalle.Cliente.Telefono), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Email: %s", detalle.Cliente.Email), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	for i, terminal := range detalle.Terminales {
		d := terminal.Dispositivo
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(190, 8, fmt.Sprintf("Terminal %d: %s %s", i+1, d.Marca, d.Modelo), "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(95, 6, fmt.Sprintf("IMEI: %s", d.IMEI), "LB", 0, "L", false, 0, "")
		averias := ""
		if terminal.Diagnostico != nil {
			for j, a := range terminal.Diagnostico.ProblemasReportados {
				if j > 0 {
					averias += ", "
				}
				averias += a
			}
		}
		if len(averias) > 50 {
			averias = averias[:47] + "..."
		}
		pdf.CellFormat(95, 6, fmt.Sprintf("Averias: %s", averias), "RB", 1, "L", false, 0, "")

		if terminal.Presupuesto != nil && len(terminal.Presupuesto.Items) > 0 {
			pdf.SetFont("Arial", "B", 10)
			pdf.SetFillColor(200, 200, 200)
			pdf.CellFormat(95, 7, "Concepto", "1", 0, "C", true, 0, "")
			pdf.CellFormat(25, 7, "Cantidad", "1", 0, "C", true, 0, "")
			pdf.CellFormat(35, 7, "Precio", "1", 0, "C", true, 0, "")
			pdf.CellFormat(35, 7, "Importe", "1", 1, "C", true, 0, "")

			pdf.SetFont("Arial", "", 10)
			for _, item := range terminal.Presupuesto.Items {
				concepto := item.Concepto
				if len(concepto) > 45 {
					concepto = concepto[:42] + "..."
				}
				pdf.CellFormat(95, 6, concepto, "1", 0, "L", false, 0, "")
				pdf.CellFormat(25, 6, fmt.Sprintf("%d", item.Cantidad), "1", 0, "C", false, 0, "")
				pdf.CellFormat(35, 6, fmt.Sprintf("%.2f EUR", item.Precio), "1", 0, "R", false, 0, "")
				pdf.CellFormat(35, 6, fmt.Sprintf("%.2f EUR", item.Precio*float64(item.Cantidad)), "1", 1, "R", false, 0, "")
			}
			if terminal.Presupuesto.ValidezDias > 0 {
				pdf.SetFont("Arial", "I", 9)
				pdf.CellFormat(190, 5, fmt.Sprintf("Presupuesto valido %d dias", terminal.Presupuesto.ValidezDias), "", 1, "R", false, 0, "")
			}
		}
		pdf.Ln(4)
	}

	// Totals
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(190, 8, "Totales", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(63, 8, fmt.Sprintf("Subtotal: %.2f EUR", detalle.Subtotal), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 8, fmt.Sprintf("Descuento: %.2f EUR", detalle.Descuento), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 8, fmt.Sprintf("Total: %.2f EUR", detalle.Total), "1", 1, "C", false, 0, "")

	if detalle.Anticipo > 0 {
		pdf.SetFillColor(255, 235, 200)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 10, fmt.Sprintf("Anticipo requerido: %.2f EUR", detalle.Anticipo), "1", 1, "C", true, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
