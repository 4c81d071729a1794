// Package sesion define la identidad resuelta de quien hace una petición.
// El middleware de autenticación la construye a partir del JWT y la deja en
// el context.Context de la request; los servicios la reciben explícitamente.
package sesion

import (
	"context"

	"servitec/internal/model"

	"github.com/google/uuid"
)

// Sesion es el usuario autenticado de la petición en curso.
type Sesion struct {
	UsuarioID uuid.UUID
	Username  string
	Nombre    string
	Rol       string
}

// Puede reporta si el rol de la sesión alcanza el nivel de minRol.
func (s Sesion) Puede(minRol string) bool {
	nivel := model.NivelRol(s.Rol)
	return nivel > 0 && nivel >= model.NivelRol(minRol)
}

// SoloPropias es verdadero para técnicos: ven únicamente las órdenes
// asignadas a su nombre.
func (s Sesion) SoloPropias() bool {
	return s.Rol == model.RolTecnico
}

type ctxKey struct{}

// NewContext devuelve una copia de ctx que transporta s.
func NewContext(ctx context.Context, s Sesion) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext recupera la sesión; ok es false en rutas públicas.
func FromContext(ctx context.Context) (Sesion, bool) {
	s, ok := ctx.Value(ctxKey{}).(Sesion)
	return s, ok
}
