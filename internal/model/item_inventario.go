package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Tipos de ítem de inventario. Los servicios no tienen stock físico.
const (
	TipoRepuesto  = "Repuesto"
	TipoAccesorio = "Accesorio"
	TipoServicio  = "Servicio"
)

// Bodegas conocidas. Bodega Local es la bodega por defecto para órdenes de
// trabajo y recepción de compras.
const (
	BodegaLocal        = "Bodega Local"
	BodegaMercadoLibre = "Mercado Libre"
	BodegaMercadoFull  = "Mercado Full"
)

// Bodegas lista las bodegas en el orden en que se muestran y exportan.
var Bodegas = []string{BodegaLocal, BodegaMercadoLibre, BodegaMercadoFull}

// ItemInventario es un repuesto, accesorio o servicio vendible.
// Compatibles guarda nombres de equipo en texto libre ("iPhone 13").
type ItemInventario struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string                      `gorm:"index;not null"`
	Tipo        string                      `gorm:"type:varchar(20);not null;index"`
	SKU         *string                     `gorm:"uniqueIndex"`
	PrecioVenta decimal.Decimal             `gorm:"type:decimal(14,0);not null;default:0"`
	PrecioCosto decimal.Decimal             `gorm:"type:decimal(14,0);not null;default:0"`
	StockMinimo int                         `gorm:"not null;default:0"`
	Compatibles datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Stock []StockBodega `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

// TableName overrides GORM's default pluralization.
func (ItemInventario) TableName() string { return "items_inventario" }

// EsServicio reporta si el ítem es mano de obra (sin stock).
func (i *ItemInventario) EsServicio() bool { return i.Tipo == TipoServicio }

// StockEn devuelve la cantidad en una bodega (0 si no hay registro).
func (i *ItemInventario) StockEn(bodega string) int {
	for _, s := range i.Stock {
		if s.Bodega == bodega {
			return s.Cantidad
		}
	}
	return 0
}

// StockTotal suma las cantidades de todas las bodegas. Es el valor que se
// compara contra StockMinimo.
func (i *ItemInventario) StockTotal() int {
	total := 0
	for _, s := range i.Stock {
		total += s.Cantidad
	}
	return total
}

// StockPorBodega devuelve el stock como mapa bodega -> cantidad.
func (i *ItemInventario) StockPorBodega() map[string]int {
	m := make(map[string]int, len(i.Stock))
	for _, s := range i.Stock {
		m[s.Bodega] = s.Cantidad
	}
	return m
}

// BajoMinimo reporta si un ítem físico quedó bajo su umbral.
func (i *ItemInventario) BajoMinimo() bool {
	return !i.EsServicio() && i.StockTotal() < i.StockMinimo
}

// StockBodega es la cantidad de un ítem en una bodega.
type StockBodega struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_item_bodega"`
	Bodega    string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_stock_item_bodega"`
	Cantidad  int       `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName overrides GORM's default pluralization.
func (StockBodega) TableName() string { return "stock_bodegas" }
