package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemCompraRequest struct {
	ItemID      string          `json:"item_id"      validate:"required,uuid"`
	Cantidad    int             `json:"cantidad"     validate:"required,min=1"`
	CostoCompra decimal.Decimal `json:"costo_compra" validate:"min=0"`
}

type CrearOrdenCompraRequest struct {
	Proveedor         string              `json:"proveedor"          validate:"required,min=2,max=150"`
	Items             []ItemCompraRequest `json:"items"              validate:"required,min=1,dive"`
	CodigoSeguimiento string              `json:"codigo_seguimiento"`
	URLSeguimiento    string              `json:"url_seguimiento"    validate:"omitempty,url"`
	FechaEstimada     *time.Time          `json:"fecha_estimada"`
	MetodoPago        string              `json:"metodo_pago"`
	TipoDocumento     string              `json:"tipo_documento"     validate:"omitempty,oneof=boleta factura voucher boleta_honorarios sin_documento"`
	NumeroDocumento   string              `json:"numero_documento"`
}

type ItemCompraResponse struct {
	ItemID      string          `json:"item_id"`
	Nombre      string          `json:"nombre"`
	Cantidad    int             `json:"cantidad"`
	CostoCompra decimal.Decimal `json:"costo_compra"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrdenCompraResponse struct {
	ID                string               `json:"id"`
	Proveedor         string               `json:"proveedor"`
	Items             []ItemCompraResponse `json:"items"`
	CostoTotal        decimal.Decimal      `json:"costo_total"`
	CodigoSeguimiento string               `json:"codigo_seguimiento"`
	URLSeguimiento    string               `json:"url_seguimiento"`
	FechaEstimada     *time.Time           `json:"fecha_estimada"`
	Estado            string               `json:"estado"`
	RecibidoAt        *time.Time           `json:"recibido_at"`
	CreatedAt         time.Time            `json:"created_at"`
}

type RecepcionCompraResponse struct {
	Orden OrdenCompraResponse `json:"orden"`
	Stock []ResultadoStock    `json:"stock"`
}
