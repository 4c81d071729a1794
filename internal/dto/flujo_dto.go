package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// GuardarFlujoRequest: Campo indica cuál de total/neto/recibido editó el
// usuario y Valor su nuevo valor; los otros montos se derivan.
type GuardarFlujoRequest struct {
	Fecha           *time.Time      `json:"fecha"`
	Tipo            string          `json:"tipo"             validate:"required,oneof=ingreso egreso"`
	Categoria       string          `json:"categoria"        validate:"required"`
	Descripcion     string          `json:"descripcion"      validate:"max=500"`
	MetodoPago      string          `json:"metodo_pago"      validate:"omitempty,oneof=efectivo transferencia debito credito mercado_pago"`
	TipoDocumento   string          `json:"tipo_documento"   validate:"omitempty,oneof=boleta factura voucher boleta_honorarios sin_documento"`
	NumeroDocumento string          `json:"numero_documento"`
	EsEcommerce     bool            `json:"es_ecommerce"`
	Campo           string          `json:"campo"            validate:"omitempty,oneof=total neto recibido"`
	Valor           decimal.Decimal `json:"valor"            validate:"min=0"`
	Total           decimal.Decimal `json:"total"`
	Recibido        decimal.Decimal `json:"recibido"`
	ClienteID       *string         `json:"cliente_id"       validate:"omitempty,uuid"`
}

type FlujoFilter struct {
	Mes       string `form:"mes"` // YYYY-MM
	Tipo      string `form:"tipo"`
	Categoria string `form:"categoria"`
	Estado    string `form:"estado"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type FlujoResponse struct {
	ID                 string          `json:"id"`
	Fecha              time.Time       `json:"fecha"`
	Tipo               string          `json:"tipo"`
	Categoria          string          `json:"categoria"`
	Descripcion        string          `json:"descripcion"`
	MetodoPago         string          `json:"metodo_pago"`
	MontoNeto          decimal.Decimal `json:"monto_neto"`
	MontoIVA           decimal.Decimal `json:"monto_iva"`
	MontoTotal         decimal.Decimal `json:"monto_total"`
	TipoDocumento      string          `json:"tipo_documento"`
	NumeroDocumento    string          `json:"numero_documento"`
	EsEcommerce        bool            `json:"es_ecommerce"`
	MontoRecibido      decimal.Decimal `json:"monto_recibido"`
	ComisionPlataforma decimal.Decimal `json:"comision_plataforma"`
	Estado             string          `json:"estado"`
	URLDocumento       string          `json:"url_documento"`
	ClienteID          *string         `json:"cliente_id"`
	OrdenID            *string         `json:"orden_id"`
	Referencia         *string         `json:"referencia"`
}

type FlujoListResponse struct {
	Data       []FlujoResponse `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// DashboardResponse agrega los indicadores de un mes.
type DashboardResponse struct {
	Mes                 string           `json:"mes"`
	OrdenesPorEstado    map[string]int64 `json:"ordenes_por_estado"`
	OrdenesAbiertas     int64            `json:"ordenes_abiertas"`
	Ingresos            decimal.Decimal  `json:"ingresos"`
	Egresos             decimal.Decimal  `json:"egresos"`
	Resultado           decimal.Decimal  `json:"resultado"`
	IVADebito           decimal.Decimal  `json:"iva_debito"`
	IVACredito          decimal.Decimal  `json:"iva_credito"`
	IVAPorPagar         decimal.Decimal  `json:"iva_por_pagar"`
	PendienteCobro      decimal.Decimal  `json:"pendiente_cobro"`
	ItemsBajoMinimo     int64            `json:"items_bajo_minimo"`
	ComisionesEcommerce decimal.Decimal  `json:"comisiones_ecommerce"`
}
