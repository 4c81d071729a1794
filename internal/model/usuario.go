package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles en orden jerárquico: tecnico < coordinador < admin.
const (
	RolTecnico     = "tecnico"
	RolCoordinador = "coordinador"
	RolAdmin       = "admin"
)

var nivelRol = map[string]int{
	RolTecnico:     1,
	RolCoordinador: 2,
	RolAdmin:       3,
}

// NivelRol devuelve la posición del rol en la jerarquía (0 si es desconocido).
func NivelRol(rol string) int { return nivelRol[rol] }

// Usuario es el perfil de una persona del taller.
// Nombre es el que aparece en el campo Tecnico de las órdenes.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null"`
	Activo       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
