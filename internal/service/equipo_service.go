package service

import (
	"context"
	"strings"

	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/repository"

	"github.com/google/uuid"
)

type EquipoService interface {
	Crear(ctx context.Context, req dto.GuardarModeloRequest) (*dto.ModeloResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.GuardarModeloRequest) (*dto.ModeloResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ModeloResponse, error)
	Listar(ctx context.Context, q string) ([]dto.ModeloResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type equipoService struct {
	repo repository.EquipoRepository
}

func NewEquipoService(repo repository.EquipoRepository) EquipoService {
	return &equipoService{repo: repo}
}

// aplicarModelo copia el request recortado. Marca y modelo forman la llave
// única del catálogo; ninguno de los tres campos puede quedar vacío.
func aplicarModelo(m *model.ModeloEquipo, req dto.GuardarModeloRequest) error {
	tipo, marca, modelo := strings.TrimSpace(req.Tipo), strings.TrimSpace(req.Marca), strings.TrimSpace(req.Modelo)
	var faltan []string
	if tipo == "" {
		faltan = append(faltan, "tipo")
	}
	if marca == "" {
		faltan = append(faltan, "marca")
	}
	if modelo == "" {
		faltan = append(faltan, "modelo")
	}
	if len(faltan) > 0 {
		return &ErrCamposFaltantes{Campos: faltan}
	}
	m.Tipo, m.Marca, m.Modelo = tipo, marca, modelo
	return nil
}

func (s *equipoService) Crear(ctx context.Context, req dto.GuardarModeloRequest) (*dto.ModeloResponse, error) {
	m := &model.ModeloEquipo{}
	if err := aplicarModelo(m, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	resp := modeloToResponse(m)
	return &resp, nil
}

func (s *equipoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.GuardarModeloRequest) (*dto.ModeloResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "modelo de equipo")
	}
	if err := aplicarModelo(m, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	resp := modeloToResponse(m)
	return &resp, nil
}

func (s *equipoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ModeloResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "modelo de equipo")
	}
	resp := modeloToResponse(m)
	return &resp, nil
}

func (s *equipoService) Listar(ctx context.Context, q string) ([]dto.ModeloResponse, error) {
	modelos, err := s.repo.List(ctx, strings.TrimSpace(q))
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ModeloResponse, len(modelos))
	for i := range modelos {
		resp[i] = modeloToResponse(&modelos[i])
	}
	return resp, nil
}

func (s *equipoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return noEncontrado(err, "modelo de equipo")
	}
	return s.repo.Delete(ctx, id)
}

func modeloToResponse(m *model.ModeloEquipo) dto.ModeloResponse {
	return dto.ModeloResponse{
		ID:          m.ID.String(),
		Tipo:        m.Tipo,
		Marca:       m.Marca,
		Modelo:      m.Modelo,
		Descripcion: m.Descripcion(),
	}
}
