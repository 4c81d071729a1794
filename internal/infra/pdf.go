package infra

// pdf.go: documento de la orden de trabajo con go-pdf/fpdf.
// Página 1: datos del cliente y equipo, falla, líneas, totales.
// Página 2: informe técnico con fotos antes/después y firma de quien retira.

import (
	"bytes"
	"fmt"
	"strings"

	"servitec/internal/calculo"
	"servitec/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ImagenAnexo es una imagen ya descargada para el anexo.
type ImagenAnexo struct {
	Titulo string
	Tipo   string // "JPG" | "PNG"
	Datos  []byte
}

// DocumentoOrden reúne lo necesario para imprimir una OT.
type DocumentoOrden struct {
	Negocio  string
	Orden    *model.OrdenTrabajo
	Cliente  *model.Cliente
	Equipo   string
	TasaIVA  decimal.Decimal
	Imagenes []ImagenAnexo
}

// GenerarOrdenPDF renderiza el documento de dos páginas en memoria.
func GenerarOrdenPDF(doc DocumentoOrden) ([]byte, error) {
	o := doc.Orden
	if o == nil {
		return nil, fmt.Errorf("pdf: orden nil")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(15, 15, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Página 1 ─────────────────────────────────────────────────────────────
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW*0.6, 9, tr(doc.Negocio), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.4, 9, o.Codigo, "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW*0.6, 5, tr("Orden de trabajo"), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.4, 5, o.CreatedAt.Format("02/01/2006 15:04"), "", 1, "R", false, 0, "")
	pdf.Ln(3)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(3)

	campo := func(label, valor string) {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(38, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(contentW-38, 6, tr(valor), "", "L", false)
	}

	if doc.Cliente != nil {
		campo("Cliente:", doc.Cliente.DisplayName())
		if doc.Cliente.RUT != "" {
			campo("RUT:", doc.Cliente.RUT)
		}
		if doc.Cliente.Telefono != "" || doc.Cliente.Email != "" {
			campo("Contacto:", strings.TrimSpace(doc.Cliente.Telefono+"  "+doc.Cliente.Email))
		}
	}
	campo("Equipo:", doc.Equipo)
	campo("Estado:", o.Estado)
	campo("Modalidad:", o.Modalidad)
	campo("Técnico:", o.Tecnico)
	if o.FechaEstimada != nil {
		campo("Entrega estimada:", o.FechaEstimada.Format("02/01/2006"))
	}
	campo("Falla reportada:", o.Falla)
	pdf.Ln(4)

	// ── Líneas ───────────────────────────────────────────────────────────────
	col1 := contentW * 0.50
	col2 := contentW * 0.15
	col3 := contentW * 0.10
	col4 := contentW * 0.25

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(col1, 7, tr("Descripción"), "B", 0, "L", true, 0, "")
	pdf.CellFormat(col2, 7, "Tipo", "B", 0, "L", true, 0, "")
	pdf.CellFormat(col3, 7, "Cant", "B", 0, "C", true, 0, "")
	pdf.CellFormat(col4, 7, "Subtotal", "B", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, it := range o.Items {
		pdf.CellFormat(col1, 6, tr(truncar(it.Nombre, 55)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, tr(it.Tipo), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 6, fmt.Sprintf("%d", it.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col4, 6, FormatCLP(it.Subtotal()), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Totales ──────────────────────────────────────────────────────────────
	gravado := o.TipoDocumento == "" || calculo.EsGravado(o.TipoDocumento)
	desglose := calculo.DesglosarTotal(o.CostoTotal, doc.TasaIVA, gravado)
	total := func(label, valor string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(col1+col2+col3, 6, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, valor, "", 1, "R", false, 0, "")
	}
	total("Neto:", FormatCLP(desglose.Neto), false)
	total("IVA:", FormatCLP(desglose.IVA), false)
	total("TOTAL:", FormatCLP(desglose.Total), true)

	if o.MetodoPago != "" || o.NumeroDocumento != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("Pago: %s   Documento: %s %s", o.MetodoPago, o.TipoDocumento, o.NumeroDocumento)), "", 1, "L", false, 0, "")
	}

	// ── Página 2: informe técnico ────────────────────────────────────────────
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 8, tr("Informe técnico "+o.Codigo), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	campo("Diagnóstico:", o.Diagnostico)
	campo("Solución:", o.Solucion)
	campo("Observaciones:", o.Observaciones)
	pdf.Ln(4)

	imgW := (contentW - 10) / 2
	x := 15.0
	y := pdf.GetY()
	for i, img := range doc.Imagenes {
		if len(img.Datos) == 0 {
			continue
		}
		name := fmt.Sprintf("anexo-%d", i)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: img.Tipo}, bytes.NewReader(img.Datos))
		if pdf.Err() {
			// imagen corrupta: se omite el anexo y se sigue con el resto
			pdf.ClearError()
			continue
		}
		pdf.SetXY(x, y)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(imgW, 5, tr(img.Titulo), "", 2, "L", false, 0, "")
		pdf.ImageOptions(name, x, y+6, imgW, 0, false, fpdf.ImageOptions{ImageType: img.Tipo}, 0, "")
		if x > 15 {
			x = 15
			y += imgW*0.8 + 12
		} else {
			x += imgW + 10
		}
	}

	if o.NombreReceptor != "" {
		pdf.SetXY(15, 250)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW, 5, tr("Recibido conforme por: "+o.NombreReceptor), "T", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatCLP formatea pesos chilenos: $1.234.567.
func FormatCLP(v decimal.Decimal) string {
	s := v.Round(0).Abs().String()
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if v.IsNegative() {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

func truncar(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
