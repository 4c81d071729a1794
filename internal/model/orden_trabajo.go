package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Estados de una orden de trabajo. Cualquier estado puede fijarse desde
// cualquier otro; los efectos secundarios dependen del estado al guardar.
const (
	EstadoEnCola              = "En cola"
	EstadoTrabajando          = "Trabajando"
	EstadoRevisionCoordinador = "Revisión del Coordinador"
	EstadoEsperandoRepuesto   = "Esperando Repuesto"
	EstadoNotificadoNoPagado  = "Notificado y no pagado"
	EstadoPagadoNoRetirado    = "Pagado y no retirado"
	EstadoRetiradoNoPagado    = "Retirado y no pagado"
	EstadoFinalizadoPagado    = "Finalizado y Pagado"
	EstadoCancelado           = "Cancelado"
)

// EstadosOrden en el orden de progresión esperado.
var EstadosOrden = []string{
	EstadoEnCola,
	EstadoTrabajando,
	EstadoRevisionCoordinador,
	EstadoEsperandoRepuesto,
	EstadoNotificadoNoPagado,
	EstadoPagadoNoRetirado,
	EstadoRetiradoNoPagado,
	EstadoFinalizadoPagado,
	EstadoCancelado,
}

var pasoTracker = map[string]int{
	EstadoEnCola:              1,
	EstadoTrabajando:          2,
	EstadoRevisionCoordinador: 3,
	EstadoEsperandoRepuesto:   3,
	EstadoNotificadoNoPagado:  3,
	EstadoPagadoNoRetirado:    3,
	EstadoRetiradoNoPagado:    3,
	EstadoFinalizadoPagado:    4,
	EstadoCancelado:           4,
}

// PasoTracker mapea un estado al paso 1..4 del seguimiento público.
func PasoTracker(estado string) int {
	if p, ok := pasoTracker[estado]; ok {
		return p
	}
	return 1
}

// EstadoValido reporta si estado es uno de los estados conocidos.
func EstadoValido(estado string) bool {
	_, ok := pasoTracker[estado]
	return ok
}

// RequiereDatosFiscales indica si en este estado se capturan documento,
// número, método de pago y respaldo.
func RequiereDatosFiscales(estado string) bool {
	return estado != EstadoEnCola && estado != EstadoTrabajando
}

// Modalidades de atención.
const (
	ModalidadLocal   = "Local"
	ModalidadTerreno = "Terreno"
)

// ItemOrden es una línea de la orden. Tipo puede venir vacío en órdenes
// antiguas; en ese caso se resuelve contra el inventario.
type ItemOrden struct {
	ItemID         *uuid.UUID      `json:"item_id,omitempty"`
	Nombre         string          `json:"nombre"`
	Tipo           string          `json:"tipo,omitempty"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Cantidad       int             `json:"cantidad"`
}

// Subtotal = precio unitario × cantidad.
func (i ItemOrden) Subtotal() decimal.Decimal {
	return i.PrecioUnitario.Mul(decimal.NewFromInt(int64(i.Cantidad)))
}

// OrdenTrabajo (OT) es la unidad de seguimiento de una reparación.
type OrdenTrabajo struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero         int        `gorm:"uniqueIndex;not null"`
	Codigo         string     `gorm:"type:varchar(20);uniqueIndex;not null"`
	ClienteID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ModeloEquipoID *uuid.UUID `gorm:"type:uuid;index"`
	Estado         string     `gorm:"type:varchar(40);not null;index"`
	Modalidad      string     `gorm:"type:varchar(10);not null;default:'Local'"`
	TipoTrabajo    string
	Falla          string `gorm:"type:text;not null"`
	NotasInternas  string `gorm:"type:text"`
	Tecnico        string `gorm:"index"`
	FechaInicio    *time.Time
	FechaEstimada  *time.Time

	Items      datatypes.JSONSlice[ItemOrden] `gorm:"type:jsonb"`
	CostoTotal decimal.Decimal                `gorm:"type:decimal(14,0);not null;default:0"`
	Bodega     string                         `gorm:"type:varchar(40);not null;default:'Bodega Local'"`

	// Datos fiscales
	MetodoPago      string
	TipoDocumento   string
	NumeroDocumento string
	URLDocumento    string

	// Informe técnico
	Diagnostico    string `gorm:"type:text"`
	Solucion       string `gorm:"type:text"`
	Observaciones  string `gorm:"type:text"`
	FotoAntesURL   string
	FotoDespuesURL string
	NombreReceptor string
	FirmaURL       string

	StockDescontado bool `gorm:"not null;default:false"`
	TecnicoPagado   bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Cliente      *Cliente      `gorm:"foreignKey:ClienteID"`
	ModeloEquipo *ModeloEquipo `gorm:"foreignKey:ModeloEquipoID"`
}

// TableName overrides GORM's default pluralization.
func (OrdenTrabajo) TableName() string { return "ordenes_trabajo" }

// CodigoOrden formatea el código legible de una OT a partir de su número.
func CodigoOrden(numero int) string { return fmt.Sprintf("OT-%06d", numero) }

// RecalcularTotal fija CostoTotal = Σ precio × cantidad.
func (o *OrdenTrabajo) RecalcularTotal() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	o.CostoTotal = total
}
