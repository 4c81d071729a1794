package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tasas ajustables por el operador. Nil = valor por defecto configurado.
type TasasRemuneracion struct {
	Comision  *decimal.Decimal `json:"tasa_comision"  form:"tasa_comision"`
	IVA       *decimal.Decimal `json:"tasa_iva"       form:"tasa_iva"`
	Retencion *decimal.Decimal `json:"tasa_retencion" form:"tasa_retencion"`
}

type LiquidacionRequest struct {
	Tecnico string `form:"tecnico" json:"tecnico" validate:"required"`
	Mes     string `form:"mes"     json:"mes"     validate:"required,datetime=2006-01"`
	TasasRemuneracion
}

type PagarRemuneracionRequest struct {
	Tecnico         string   `json:"tecnico"          validate:"required"`
	Mes             string   `json:"mes"              validate:"required,datetime=2006-01"`
	OrdenIDs        []string `json:"orden_ids"        validate:"required,min=1,dive,uuid"`
	MetodoPago      string   `json:"metodo_pago"      validate:"omitempty,oneof=efectivo transferencia"`
	NumeroDocumento string   `json:"numero_documento"`
	TasasRemuneracion
}

type TasasAplicadas struct {
	Comision  decimal.Decimal `json:"tasa_comision"`
	IVA       decimal.Decimal `json:"tasa_iva"`
	Retencion decimal.Decimal `json:"tasa_retencion"`
}

type OrdenComisionResponse struct {
	OrdenID       string          `json:"orden_id"`
	Codigo        string          `json:"codigo"`
	Cliente       string          `json:"cliente"`
	Fecha         time.Time       `json:"fecha"`
	CostoTotal    decimal.Decimal `json:"costo_total"`
	BrutoServicio decimal.Decimal `json:"bruto_servicio"`
	NetoServicio  decimal.Decimal `json:"neto_servicio"`
	Comision      decimal.Decimal `json:"comision"`
}

type HonorariosResponse struct {
	Bruto    decimal.Decimal `json:"bruto"`
	Retenido decimal.Decimal `json:"retenido"`
	Liquido  decimal.Decimal `json:"liquido"`
}

type LiquidacionResponse struct {
	Tecnico       string                  `json:"tecnico"`
	Mes           string                  `json:"mes"`
	Tasas         TasasAplicadas          `json:"tasas"`
	Ordenes       []OrdenComisionResponse `json:"ordenes"`
	TotalComision decimal.Decimal         `json:"total_comision"`
	Honorarios    HonorariosResponse      `json:"honorarios"`
}

type PagoRemuneracionResponse struct {
	Movimiento     FlujoResponse      `json:"movimiento"`
	OrdenesPagadas []string           `json:"ordenes_pagadas"`
	Honorarios     HonorariosResponse `json:"honorarios"`
}
