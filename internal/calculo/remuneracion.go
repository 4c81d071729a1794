package calculo

import "github.com/shopspring/decimal"

// Tasas por defecto de la liquidación de técnicos.
var (
	TasaComisionDefault  = decimal.NewFromFloat(0.5)
	TasaRetencionDefault = decimal.NewFromFloat(0.1375)
)

// ComisionServicio quita el IVA al bruto de mano de obra y aplica la tasa de
// comisión: neto = round(bruto/(1+iva)), comisión = round(neto*tasa).
func ComisionServicio(brutoServicio, tasaIVA, tasaComision decimal.Decimal) (neto, comision decimal.Decimal) {
	neto = brutoServicio.Div(decimal.NewFromInt(1).Add(tasaIVA)).Round(0)
	comision = neto.Mul(tasaComision).Round(0)
	return neto, comision
}

// Honorarios es el desglose de una boleta de honorarios.
type Honorarios struct {
	Bruto    decimal.Decimal `json:"bruto"`
	Retenido decimal.Decimal `json:"retenido"`
	Liquido  decimal.Decimal `json:"liquido"`
}

// GrossUp calcula el bruto de una boleta de honorarios cuyo líquido, tras la
// retención, debe ser liquido. El líquido resultante puede diferir en ±1 por
// redondeo.
func GrossUp(liquido, tasaRetencion decimal.Decimal) Honorarios {
	one := decimal.NewFromInt(1)
	if tasaRetencion.GreaterThanOrEqual(one) || tasaRetencion.IsNegative() {
		tasaRetencion = decimal.Zero
	}
	bruto := liquido.Div(one.Sub(tasaRetencion)).Round(0)
	retenido := bruto.Mul(tasaRetencion).Round(0)
	return Honorarios{Bruto: bruto, Retenido: retenido, Liquido: bruto.Sub(retenido)}
}
