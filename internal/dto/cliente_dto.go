package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type GuardarClienteRequest struct {
	Tipo           string `json:"tipo"            validate:"required,oneof=Particular Empresa"`
	NombreCompleto string `json:"nombre_completo" validate:"required_if=Tipo Particular,max=150"`
	RazonSocial    string `json:"razon_social"    validate:"required_if=Tipo Empresa,max=150"`
	NombreContacto string `json:"nombre_contacto" validate:"max=150"`
	RUT            string `json:"rut"             validate:"max=15"`
	Email          string `json:"email"           validate:"omitempty,email"`
	Telefono       string `json:"telefono"        validate:"max=30"`
	Region         string `json:"region"`
	Comuna         string `json:"comuna"`
	Direccion      string `json:"direccion"`
	Notas          string `json:"notas"`
}

type ClienteFilter struct {
	Q     string `form:"q"`
	Tipo  string `form:"tipo"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type ClienteResponse struct {
	ID             string    `json:"id"`
	Tipo           string    `json:"tipo"`
	Nombre         string    `json:"nombre"`
	NombreCompleto string    `json:"nombre_completo"`
	RazonSocial    string    `json:"razon_social"`
	NombreContacto string    `json:"nombre_contacto"`
	RUT            string    `json:"rut"`
	Email          string    `json:"email"`
	Telefono       string    `json:"telefono"`
	Region         string    `json:"region"`
	Comuna         string    `json:"comuna"`
	Direccion      string    `json:"direccion"`
	Notas          string    `json:"notas"`
	CreatedAt      time.Time `json:"created_at"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type HistorialClienteResponse struct {
	Cliente      ClienteResponse `json:"cliente"`
	Ordenes      []OrdenResponse `json:"ordenes"`
	Movimientos  []FlujoResponse `json:"movimientos"`
	TotalOrdenes decimal.Decimal `json:"total_ordenes"`
	TotalVentas  decimal.Decimal `json:"total_ventas"`
	LTV          decimal.Decimal `json:"ltv"`
}
