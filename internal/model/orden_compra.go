package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Estados de una orden de compra a proveedor.
const (
	CompraPendiente = "Pendiente"
	CompraRecibida  = "Recibido"
)

// ItemCompra es una línea de compra valorizada a costo.
type ItemCompra struct {
	ItemID      uuid.UUID       `json:"item_id"`
	Nombre      string          `json:"nombre"`
	Cantidad    int             `json:"cantidad"`
	CostoCompra decimal.Decimal `json:"costo_compra"`
}

// Subtotal = costo de compra × cantidad.
func (i ItemCompra) Subtotal() decimal.Decimal {
	return i.CostoCompra.Mul(decimal.NewFromInt(int64(i.Cantidad)))
}

// OrdenCompra registra mercadería pedida a un proveedor. Al crearla se
// registra el egreso; al recibirla entra el stock a Bodega Local.
type OrdenCompra struct {
	ID                uuid.UUID                       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Proveedor         string                          `gorm:"not null;index"`
	Items             datatypes.JSONSlice[ItemCompra] `gorm:"type:jsonb"`
	CostoTotal        decimal.Decimal                 `gorm:"type:decimal(14,0);not null;default:0"`
	CodigoSeguimiento string
	URLSeguimiento    string
	FechaEstimada     *time.Time
	Estado            string `gorm:"type:varchar(20);not null;default:'Pendiente';index"`
	RecibidoAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName overrides GORM's default pluralization.
func (OrdenCompra) TableName() string { return "ordenes_compra" }

// Referencia es la llave de idempotencia del egreso asociado.
func (o *OrdenCompra) Referencia() string { return "OC-" + o.ID.String() }
