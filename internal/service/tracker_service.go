package service

import (
	"context"
	"strings"

	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/repository"
)

// TrackerService atiende la consulta pública del estado de una orden.
type TrackerService interface {
	Buscar(ctx context.Context, codigo string) (*dto.TrackerResponse, error)
}

type trackerService struct {
	ordenes repository.OrdenRepository
}

func NewTrackerService(ordenes repository.OrdenRepository) TrackerService {
	return &trackerService{ordenes: ordenes}
}

// candidatosCodigo: primero el código tal cual; luego con el prefijo OT-
// agregado si falta, o quitado si está.
func candidatosCodigo(codigo string) []string {
	c := strings.ToUpper(strings.TrimSpace(codigo))
	if c == "" {
		return nil
	}
	if strings.HasPrefix(c, "OT-") {
		return []string{c, strings.TrimPrefix(c, "OT-")}
	}
	return []string{c, "OT-" + c}
}

// Buscar devuelve Encontrado=false (sin error) cuando no hay coincidencias.
func (s *trackerService) Buscar(ctx context.Context, codigo string) (*dto.TrackerResponse, error) {
	for _, c := range candidatosCodigo(codigo) {
		o, err := s.ordenes.FindByCodigo(ctx, c)
		if err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		return trackerToResponse(o), nil
	}
	return &dto.TrackerResponse{Encontrado: false}, nil
}

func trackerToResponse(o *model.OrdenTrabajo) *dto.TrackerResponse {
	actualizado := o.UpdatedAt
	resp := &dto.TrackerResponse{
		Encontrado:    true,
		Codigo:        o.Codigo,
		Estado:        o.Estado,
		Paso:          model.PasoTracker(o.Estado),
		Falla:         o.Falla,
		Modalidad:     o.Modalidad,
		FechaInicio:   o.FechaInicio,
		FechaEstimada: o.FechaEstimada,
		Actualizado:   &actualizado,
	}
	if o.ModeloEquipo != nil {
		resp.Equipo = o.ModeloEquipo.Descripcion()
	}
	return resp
}
