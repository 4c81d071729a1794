// Package calculo contiene la aritmética de montos del negocio: desglose de
// IVA, comisiones de técnicos, gross-up de boletas de honorarios y el
// emparejamiento de repuestos con equipos.
//
// Todos los montos están en pesos enteros; cada resultado se redondea a 0
// decimales con redondeo estándar (mitad lejos del cero).
package calculo

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TasaIVADefault es la tasa de IVA vigente (19%).
var TasaIVADefault = decimal.NewFromFloat(0.19)

// Tipos de documento tributario.
const (
	DocBoleta           = "boleta"
	DocFactura          = "factura"
	DocVoucher          = "voucher"
	DocBoletaHonorarios = "boleta_honorarios"
	DocSinDocumento     = "sin_documento"
)

var documentosGravados = map[string]bool{
	DocBoleta:  true,
	DocFactura: true,
	DocVoucher: true,
}

// EsGravado indica si el tipo de documento lleva IVA incluido en el total.
func EsGravado(tipoDocumento string) bool {
	return documentosGravados[strings.ToLower(strings.TrimSpace(tipoDocumento))]
}

// Desglose separa un monto en neto + IVA = total.
type Desglose struct {
	Neto  decimal.Decimal `json:"neto"`
	IVA   decimal.Decimal `json:"iva"`
	Total decimal.Decimal `json:"total"`
}

// DesglosarTotal trata total como IVA incluido.
// Gravado: neto = round(total / (1+tasa)), iva = total - neto.
// No gravado: neto = total, iva = 0.
func DesglosarTotal(total, tasa decimal.Decimal, gravado bool) Desglose {
	total = total.Round(0)
	if !gravado {
		return Desglose{Neto: total, IVA: decimal.Zero, Total: total}
	}
	neto := total.Div(decimal.NewFromInt(1).Add(tasa)).Round(0)
	return Desglose{Neto: neto, IVA: total.Sub(neto), Total: total}
}

// DesdeNeto recalcula iva = round(neto * tasa) y total = neto + iva.
func DesdeNeto(neto, tasa decimal.Decimal, gravado bool) Desglose {
	neto = neto.Round(0)
	if !gravado {
		return Desglose{Neto: neto, IVA: decimal.Zero, Total: neto}
	}
	iva := neto.Mul(tasa).Round(0)
	return Desglose{Neto: neto, IVA: iva, Total: neto.Add(iva)}
}

// Campo identifica cuál de los montos editó el usuario por última vez.
type Campo string

const (
	CampoTotal    Campo = "total"
	CampoNeto     Campo = "neto"
	CampoRecibido Campo = "recibido"
)

// Valido reporta si c es uno de los campos editables.
func (c Campo) Valido() bool {
	return c == CampoTotal || c == CampoNeto || c == CampoRecibido
}

// Edicion describe una edición de montos en un movimiento de flujo de caja.
// Total y Recibido llevan los valores vigentes antes de la edición.
type Edicion struct {
	Campo     Campo
	Valor     decimal.Decimal
	Tasa      decimal.Decimal
	Gravado   bool
	Ecommerce bool
	Total     decimal.Decimal
	Recibido  decimal.Decimal
}

// Montos es el resultado completo de una derivación.
type Montos struct {
	Desglose
	Recibido decimal.Decimal `json:"recibido"`
	Comision decimal.Decimal `json:"comision"`
}

// Derivar recalcula los dos montos no editados a partir del editado.
// En ventas e-commerce el total es el ancla: editar lo recibido solo mueve
// la comisión de la plataforma (comisión = total - recibido).
func Derivar(e Edicion) Montos {
	var m Montos
	switch e.Campo {
	case CampoNeto:
		m.Desglose = DesdeNeto(e.Valor, e.Tasa, e.Gravado)
	case CampoRecibido:
		m.Desglose = DesglosarTotal(e.Total, e.Tasa, e.Gravado)
		e.Recibido = e.Valor
	default:
		m.Desglose = DesglosarTotal(e.Valor, e.Tasa, e.Gravado)
	}

	if !e.Ecommerce {
		m.Recibido = m.Total
		m.Comision = decimal.Zero
		return m
	}
	m.Recibido = e.Recibido.Round(0)
	if m.Recibido.IsZero() && e.Campo != CampoRecibido {
		m.Recibido = m.Total
	}
	m.Comision = m.Total.Sub(m.Recibido)
	return m
}
