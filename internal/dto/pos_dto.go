package dto

import "github.com/shopspring/decimal"

type LineaPOSRequest struct {
	ItemID         string           `json:"item_id"         validate:"required,uuid"`
	Cantidad       int              `json:"cantidad"        validate:"required,min=1"`
	PrecioUnitario *decimal.Decimal `json:"precio_unitario"` // nil = precio de lista
}

type CheckoutRequest struct {
	Items           []LineaPOSRequest `json:"items"            validate:"required,min=1,dive"`
	Bodega          string            `json:"bodega"`
	MetodoPago      string            `json:"metodo_pago"      validate:"required,oneof=efectivo transferencia debito credito mercado_pago"`
	TipoDocumento   string            `json:"tipo_documento"   validate:"omitempty,oneof=boleta factura voucher sin_documento"`
	NumeroDocumento string            `json:"numero_documento"`
	ClienteID       *string           `json:"cliente_id"       validate:"omitempty,uuid"`
	EsEcommerce     bool              `json:"es_ecommerce"`
	MontoRecibido   *decimal.Decimal  `json:"monto_recibido"`
	// Referencia es una llave de idempotencia generada por el cliente.
	Referencia *string `json:"referencia" validate:"omitempty,max=80"`
}

type CheckoutResponse struct {
	Movimiento FlujoResponse    `json:"movimiento"`
	Stock      []ResultadoStock `json:"stock"`
	Duplicado  bool             `json:"duplicado"`
}
