package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ModeloEquipo es una entrada del catálogo de equipos (celular, notebook...).
type ModeloEquipo struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo      string    `gorm:"not null"`
	Marca     string    `gorm:"not null;uniqueIndex:idx_modelo_marca_modelo"`
	Modelo    string    `gorm:"not null;uniqueIndex:idx_modelo_marca_modelo"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides GORM's default pluralization.
func (ModeloEquipo) TableName() string { return "modelos_equipo" }

// Descripcion = "<marca> <modelo>", la cadena usada para compatibilidad.
func (m *ModeloEquipo) Descripcion() string {
	return strings.TrimSpace(m.Marca + " " + m.Modelo)
}
