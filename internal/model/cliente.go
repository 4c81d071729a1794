package model

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de cliente.
const (
	ClienteParticular = "Particular"
	ClienteEmpresa    = "Empresa"
)

// Cliente del taller. Las empresas se muestran por razón social.
type Cliente struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo           string    `gorm:"type:varchar(20);not null;default:'Particular'"`
	NombreCompleto string    `gorm:"index"`
	RazonSocial    string    `gorm:"index"`
	NombreContacto string
	RUT            string `gorm:"index"`
	Email          string
	Telefono       string
	Region         string
	Comuna         string
	Direccion      string
	Notas          string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DisplayName es el nombre con que se identifica al cliente en listados y
// en descripciones del flujo de caja.
func (c *Cliente) DisplayName() string {
	if c.Tipo == ClienteEmpresa && c.RazonSocial != "" {
		return c.RazonSocial
	}
	return c.NombreCompleto
}
