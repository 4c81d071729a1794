package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearItemRequest struct {
	Nombre      string          `json:"nombre"       validate:"required,min=2,max=200"`
	Tipo        string          `json:"tipo"         validate:"required,oneof=Repuesto Accesorio Servicio"`
	SKU         *string         `json:"sku"          validate:"omitempty,max=60"`
	PrecioVenta decimal.Decimal `json:"precio_venta" validate:"min=0"`
	PrecioCosto decimal.Decimal `json:"precio_costo" validate:"min=0"`
	StockMinimo int             `json:"stock_minimo" validate:"min=0"`
	Compatibles []string        `json:"compatibles"`
	// Stock inicial por bodega
	Stock map[string]int `json:"stock"`
}

type ActualizarItemRequest struct {
	Nombre      *string          `json:"nombre"       validate:"omitempty,min=2,max=200"`
	Tipo        *string          `json:"tipo"         validate:"omitempty,oneof=Repuesto Accesorio Servicio"`
	SKU         *string          `json:"sku"          validate:"omitempty,max=60"`
	PrecioVenta *decimal.Decimal `json:"precio_venta"`
	PrecioCosto *decimal.Decimal `json:"precio_costo"`
	StockMinimo *int             `json:"stock_minimo" validate:"omitempty,min=0"`
	Compatibles *[]string        `json:"compatibles"`
}

type AjustarStockRequest struct {
	Cantidad int    `json:"cantidad" validate:"required,ne=0"`
	Bodega   string `json:"bodega"   validate:"required"`
	Motivo   string `json:"motivo"`
}

// LineaStock es una línea de un descuento o restauración en lote.
type LineaStock struct {
	ItemID   string `json:"item_id"  validate:"required,uuid"`
	Nombre   string `json:"nombre"`
	Tipo     string `json:"tipo"`
	Cantidad int    `json:"cantidad" validate:"required,min=1"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ItemFilter struct {
	Tipo      string `form:"tipo"`
	Q         string `form:"q"`
	StockBajo bool   `form:"stock_bajo"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type MovimientoStockFilter struct {
	ItemID string `form:"item_id"`
	Tipo   string `form:"tipo"`
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemResponse struct {
	ID          string          `json:"id"`
	Nombre      string          `json:"nombre"`
	Tipo        string          `json:"tipo"`
	SKU         *string         `json:"sku"`
	PrecioVenta decimal.Decimal `json:"precio_venta"`
	PrecioCosto decimal.Decimal `json:"precio_costo"`
	StockMinimo int             `json:"stock_minimo"`
	Compatibles []string        `json:"compatibles"`
	Stock       map[string]int  `json:"stock"`
	StockTotal  int             `json:"stock_total"`
	BajoMinimo  bool            `json:"bajo_minimo"`
}

type ItemListResponse struct {
	Data       []ItemResponse `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// ResultadoStock es el resultado de un ajuste dentro de un lote. Un lote puede
// aplicarse parcialmente; cada línea informa su propio éxito o error.
type ResultadoStock struct {
	ItemID     string `json:"item_id"`
	Nombre     string `json:"nombre"`
	Cantidad   int    `json:"cantidad"`
	OK         bool   `json:"ok"`
	StockNuevo int    `json:"stock_nuevo,omitempty"`
	Error      string `json:"error,omitempty"`
}

type AlertaStockResponse struct {
	ItemID      string `json:"item_id"`
	Nombre      string `json:"nombre"`
	StockTotal  int    `json:"stock_total"`
	StockMinimo int    `json:"stock_minimo"`
	Faltante    int    `json:"faltante"`
}

type MovimientoStockResponse struct {
	ID            string    `json:"id"`
	ItemID        string    `json:"item_id"`
	ItemNombre    string    `json:"item_nombre"`
	Bodega        string    `json:"bodega"`
	Tipo          string    `json:"tipo"`
	Cantidad      int       `json:"cantidad"`
	StockAnterior int       `json:"stock_anterior"`
	StockNuevo    int       `json:"stock_nuevo"`
	Referencia    string    `json:"referencia"`
	CreatedAt     time.Time `json:"created_at"`
}

type MovimientoStockListResponse struct {
	Data  []MovimientoStockResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}

// ImportResponse resume la carga de una planilla.
type ImportResponse struct {
	Creados      int      `json:"creados"`
	Actualizados int      `json:"actualizados"`
	Errores      []string `json:"errores"`
}
