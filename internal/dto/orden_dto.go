package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemOrdenRequest struct {
	ItemID         *string         `json:"item_id"         validate:"omitempty,uuid"`
	Nombre         string          `json:"nombre"          validate:"required,max=200"`
	Tipo           string          `json:"tipo"            validate:"omitempty,oneof=Repuesto Accesorio Servicio"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
	Cantidad       int             `json:"cantidad"        validate:"required,min=1"`
}

// GuardarOrdenRequest sirve para crear y para actualizar: la orden se
// reemplaza completa con lo enviado (última escritura gana).
type GuardarOrdenRequest struct {
	ClienteID      string             `json:"cliente_id"       validate:"omitempty,uuid"`
	ModeloEquipoID *string            `json:"modelo_equipo_id" validate:"omitempty,uuid"`
	Estado         string             `json:"estado"`
	Modalidad      string             `json:"modalidad"        validate:"omitempty,oneof=Local Terreno"`
	TipoTrabajo    string             `json:"tipo_trabajo"`
	Falla          string             `json:"falla"`
	NotasInternas  string             `json:"notas_internas"`
	Tecnico        string             `json:"tecnico"`
	FechaInicio    *time.Time         `json:"fecha_inicio"`
	FechaEstimada  *time.Time         `json:"fecha_estimada"`
	Items          []ItemOrdenRequest `json:"items"            validate:"dive"`
	Bodega         string             `json:"bodega"`

	MetodoPago      string `json:"metodo_pago"`
	TipoDocumento   string `json:"tipo_documento"`
	NumeroDocumento string `json:"numero_documento"`

	Diagnostico    string `json:"diagnostico"`
	Solucion       string `json:"solucion"`
	Observaciones  string `json:"observaciones"`
	NombreReceptor string `json:"nombre_receptor"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type OrdenFilter struct {
	Estado    string `form:"estado"`
	ClienteID string `form:"cliente_id"`
	Tecnico   string `form:"tecnico"`
	Q         string `form:"q"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemOrdenResponse struct {
	ItemID         *string         `json:"item_id"`
	Nombre         string          `json:"nombre"`
	Tipo           string          `json:"tipo"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Cantidad       int             `json:"cantidad"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type OrdenResponse struct {
	ID              string              `json:"id"`
	Codigo          string              `json:"codigo"`
	ClienteID       string              `json:"cliente_id"`
	Cliente         string              `json:"cliente"`
	ModeloEquipoID  *string             `json:"modelo_equipo_id"`
	Equipo          string              `json:"equipo"`
	Estado          string              `json:"estado"`
	Modalidad       string              `json:"modalidad"`
	TipoTrabajo     string              `json:"tipo_trabajo"`
	Falla           string              `json:"falla"`
	NotasInternas   string              `json:"notas_internas"`
	Tecnico         string              `json:"tecnico"`
	FechaInicio     *time.Time          `json:"fecha_inicio"`
	FechaEstimada   *time.Time          `json:"fecha_estimada"`
	Items           []ItemOrdenResponse `json:"items"`
	CostoTotal      decimal.Decimal     `json:"costo_total"`
	Bodega          string              `json:"bodega"`
	MetodoPago      string              `json:"metodo_pago"`
	TipoDocumento   string              `json:"tipo_documento"`
	NumeroDocumento string              `json:"numero_documento"`
	URLDocumento    string              `json:"url_documento"`
	Diagnostico     string              `json:"diagnostico"`
	Solucion        string              `json:"solucion"`
	Observaciones   string              `json:"observaciones"`
	FotoAntesURL    string              `json:"foto_antes_url"`
	FotoDespuesURL  string              `json:"foto_despues_url"`
	NombreReceptor  string              `json:"nombre_receptor"`
	FirmaURL        string              `json:"firma_url"`
	StockDescontado bool                `json:"stock_descontado"`
	TecnicoPagado   bool                `json:"tecnico_pagado"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type OrdenListResponse struct {
	Data       []OrdenResponse `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// Resultado del asiento de ingreso al cerrar una orden.
const (
	IngresoCreado    = "creado"
	IngresoExistente = "existente"
	// IngresoFallido: la orden se guardó pero el asiento no; el próximo
	// guardado en Finalizado y Pagado lo reintenta.
	IngresoFallido = "fallido"
)

// GuardarOrdenResponse informa los efectos secundarios del guardado.
type GuardarOrdenResponse struct {
	Orden   OrdenResponse    `json:"orden"`
	Stock   []ResultadoStock `json:"stock,omitempty"`
	Ingreso string           `json:"ingreso,omitempty"`
}

// TrackerResponse expone solo campos públicos de la orden.
type TrackerResponse struct {
	Encontrado    bool       `json:"encontrado"`
	Codigo        string     `json:"codigo,omitempty"`
	Estado        string     `json:"estado,omitempty"`
	Paso          int        `json:"paso,omitempty"`
	Equipo        string     `json:"equipo,omitempty"`
	Falla         string     `json:"falla,omitempty"`
	Modalidad     string     `json:"modalidad,omitempty"`
	FechaInicio   *time.Time `json:"fecha_inicio,omitempty"`
	FechaEstimada *time.Time `json:"fecha_estimada,omitempty"`
	Actualizado   *time.Time `json:"actualizado,omitempty"`
}
