package infra

// pdf.go: customer account statement (estado de cuenta) using go-pdf/fpdf.
// A4 portrait with:
//   - Business name header and customer block
//   - Summary (saldo, total cargos, total pagos, días de mora)
//   - Movement table in chronological order with the running balance
//
// The output file is saved to storagePath/estado_cuenta_{cliente}_{fecha}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuentacorriente/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// EstadoCuentaPDF is everything the statement renderer needs.
type EstadoCuentaPDF struct {
	Negocio     string
	ClienteID   string
	Cliente     string
	Documento   string
	Estado      string
	Posicion    string
	Saldo       decimal.Decimal
	TotalCargos decimal.Decimal
	TotalPagos  decimal.Decimal
	DiasMora    int
	Movimientos []model.MovimientoCuenta
	GeneradoEn  time.Time
}

var etiquetasTipo = map[string]string{
	model.MovimientoCargo:     "Cargo",
	model.MovimientoPago:      "Pago",
	model.MovimientoAjuste:    "Ajuste",
	model.MovimientoDescuento: "Descuento",
	model.MovimientoInteres:   "Interés",
}

// GenerarEstadoCuentaPDF writes the statement PDF and returns its path.
// storagePath is created if needed.
func GenerarEstadoCuentaPDF(ec EstadoCuentaPDF, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	if ec.GeneradoEn.IsZero() {
		ec.GeneradoEn = time.Now()
	}

	fileName := fmt.Sprintf("estado_cuenta_%s_%s.pdf", ec.ClienteID, ec.GeneradoEn.Format("20060102_150405"))
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Página %d/{nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, tr(ec.Negocio), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Estado de Cuenta Corriente", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Emitido: "+ec.GeneradoEn.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Cliente ──────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, tr("Cliente: "+ec.Cliente), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if ec.Documento != "" {
		pdf.CellFormat(contentW, 5, tr("Documento: "+ec.Documento), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 5, tr("Estado de la cuenta: "+ec.Estado), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// ── Resumen ──────────────────────────────────────────────────────────────
	half := contentW / 2
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(half, 6, "Total cargos", "1", 0, "L", true, 0, "")
	pdf.CellFormat(half, 6, tr(FormatearMonto(ec.TotalCargos)), "1", 1, "R", false, 0, "")
	pdf.CellFormat(half, 6, "Total pagos", "1", 0, "L", true, 0, "")
	pdf.CellFormat(half, 6, tr(FormatearMonto(ec.TotalPagos)), "1", 1, "R", false, 0, "")
	pdf.CellFormat(half, 6, tr("Días de mora"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(half, 6, fmt.Sprintf("%d", ec.DiasMora), "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(half, 7, tr(etiquetaPosicion(ec.Posicion)), "1", 0, "L", true, 0, "")
	pdf.CellFormat(half, 7, tr(FormatearMonto(ec.Saldo.Abs())), "1", 1, "R", false, 0, "")
	pdf.Ln(5)

	// ── Movimientos ──────────────────────────────────────────────────────────
	cols := []struct {
		titulo string
		ancho  float64
		align  string
	}{
		{"Fecha", contentW * 0.14, "L"},
		{"Tipo", contentW * 0.12, "L"},
		{"Descripción", contentW * 0.44, "L"},
		{"Monto", contentW * 0.15, "R"},
		{"Saldo", contentW * 0.15, "R"},
	}
	pdf.SetFont("Helvetica", "B", 8)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(c.ancho, 6, tr(c.titulo), "B", ln, c.align, false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 8)
	if len(ec.Movimientos) == 0 {
		pdf.CellFormat(contentW, 6, "Sin movimientos", "", 1, "C", false, 0, "")
	}
	for _, m := range ec.Movimientos {
		desc := m.Descripcion
		if r := []rune(desc); len(r) > 55 {
			desc = string(r[:54]) + "..."
		}
		tipo := etiquetasTipo[m.Tipo]
		if tipo == "" {
			tipo = m.Tipo
		}
		pdf.CellFormat(cols[0].ancho, 5, m.CreatedAt.Format("02/01/2006"), "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1].ancho, 5, tr(tipo), "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[2].ancho, 5, tr(desc), "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[3].ancho, 5, tr(FormatearMonto(m.Monto)), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[4].ancho, 5, tr(FormatearMonto(m.SaldoPosterior)), "", 1, "R", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func etiquetaPosicion(posicion string) string {
	switch strings.ToLower(posicion) {
	case "customer_owes":
		return "Saldo deudor"
	case "business_owes":
		return "Saldo a favor del cliente"
	default:
		return "Cuenta saldada"
	}
}
