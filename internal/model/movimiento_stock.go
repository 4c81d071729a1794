package model

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de movimiento de stock.
const (
	MovOrdenTrabajo    = "orden_trabajo"
	MovVentaPOS        = "venta_pos"
	MovRecepcionCompra = "recepcion_compra"
	MovAjusteManual    = "ajuste_manual"
	MovRestauracion    = "restauracion"
)

// MovimientoStock registra cada cambio de stock de un ítem en una bodega.
// Se crea en la misma sentencia lógica que el ajuste.
type MovimientoStock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Bodega        string    `gorm:"type:varchar(40);not null"`
	Tipo          string    `gorm:"not null"`
	Cantidad      int       `gorm:"not null"` // positive = entrada, negative = salida
	StockAnterior int       `gorm:"not null"`
	StockNuevo    int       `gorm:"not null"`
	Referencia    string    `gorm:"index"` // OT-000123, OC-..., pos:<id>
	CreatedAt     time.Time

	Item *ItemInventario `gorm:"foreignKey:ItemID"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
