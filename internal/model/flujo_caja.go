package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Dirección del movimiento.
const (
	FlujoIngreso = "ingreso"
	FlujoEgreso  = "egreso"
)

// Estado de liquidación del movimiento.
const (
	FlujoPendiente  = "pendiente"
	FlujoConfirmado = "confirmado"
)

// Categorías tributarias de ingreso.
const (
	CatVentaServicio = "venta_servicio"
	CatVentaProducto = "venta_producto"
	CatOtroIngreso   = "otro_ingreso"
)

// Categorías tributarias de egreso.
const (
	CatCompraMercaderia = "compra_mercaderia"
	CatRemuneraciones   = "remuneraciones"
	CatArriendo         = "arriendo"
	CatServiciosBasicos = "servicios_basicos"
	CatComisiones       = "comisiones_plataforma"
	CatImpuestos        = "impuestos"
	CatOtroEgreso       = "otro_egreso"
)

var categoriasPorTipo = map[string]map[string]bool{
	FlujoIngreso: {
		CatVentaServicio: true,
		CatVentaProducto: true,
		CatOtroIngreso:   true,
	},
	FlujoEgreso: {
		CatCompraMercaderia: true,
		CatRemuneraciones:   true,
		CatArriendo:         true,
		CatServiciosBasicos: true,
		CatComisiones:       true,
		CatImpuestos:        true,
		CatOtroEgreso:       true,
	},
}

// CategoriaValida reporta si la categoría corresponde a la dirección.
func CategoriaValida(tipo, categoria string) bool {
	return categoriasPorTipo[tipo][categoria]
}

// Métodos de pago.
const (
	PagoEfectivo      = "efectivo"
	PagoTransferencia = "transferencia"
	PagoDebito        = "debito"
	PagoCredito       = "credito"
	PagoMercadoPago   = "mercado_pago"
)

var pagosDiferidos = map[string]bool{
	PagoDebito:      true,
	PagoCredito:     true,
	PagoMercadoPago: true,
}

// EstadoPorMetodoPago: tarjetas y billeteras se liquidan después, quedan
// pendientes hasta que se confirme el abono.
func EstadoPorMetodoPago(metodo string) string {
	if pagosDiferidos[metodo] {
		return FlujoPendiente
	}
	return FlujoConfirmado
}

// MovimientoFlujo es una entrada del libro de flujo de caja.
// Referencia es única: OT-000123 para cierres de orden, OC-<id> para compras,
// o la llave enviada por el cliente en el POS.
type MovimientoFlujo struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Fecha              time.Time       `gorm:"not null;index"`
	Tipo               string          `gorm:"type:varchar(10);not null;index"`
	Categoria          string          `gorm:"type:varchar(40);not null;index"`
	Descripcion        string          `gorm:"type:text"`
	MetodoPago         string          `gorm:"type:varchar(20)"`
	MontoNeto          decimal.Decimal `gorm:"type:decimal(14,0);not null"`
	MontoIVA           decimal.Decimal `gorm:"type:decimal(14,0);not null"`
	MontoTotal         decimal.Decimal `gorm:"type:decimal(14,0);not null"`
	TipoDocumento      string          `gorm:"type:varchar(30)"`
	NumeroDocumento    string
	EsEcommerce        bool            `gorm:"not null;default:false"`
	MontoRecibido      decimal.Decimal `gorm:"type:decimal(14,0);not null;default:0"`
	ComisionPlataforma decimal.Decimal `gorm:"type:decimal(14,0);not null;default:0"`
	Estado             string          `gorm:"type:varchar(12);not null;default:'confirmado';index"`
	URLDocumento       string
	Items              datatypes.JSON `gorm:"type:jsonb"`
	ClienteID          *uuid.UUID     `gorm:"type:uuid;index"`
	OrdenID            *uuid.UUID     `gorm:"type:uuid;index"`
	Referencia         *string        `gorm:"type:varchar(80);uniqueIndex"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName overrides GORM's default pluralization.
func (MovimientoFlujo) TableName() string { return "flujo_caja" }
