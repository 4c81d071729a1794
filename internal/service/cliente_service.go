package service

import (
	"context"
	"strings"

	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.GuardarClienteRequest) (*dto.ClienteResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.GuardarClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	// Historial reúne órdenes y movimientos del cliente con su valor de vida
	// (LTV): órdenes Finalizado y Pagado más ventas no ligadas a una orden.
	Historial(ctx context.Context, id uuid.UUID) (*dto.HistorialClienteResponse, error)
}

type clienteService struct {
	clientes repository.ClienteRepository
	ordenes  repository.OrdenRepository
	flujo    repository.FlujoRepository
}

func NewClienteService(clientes repository.ClienteRepository, ordenes repository.OrdenRepository, flujo repository.FlujoRepository) ClienteService {
	return &clienteService{clientes: clientes, ordenes: ordenes, flujo: flujo}
}

func aplicarCliente(c *model.Cliente, req dto.GuardarClienteRequest) {
	c.Tipo = req.Tipo
	c.NombreCompleto = strings.TrimSpace(req.NombreCompleto)
	c.RazonSocial = strings.TrimSpace(req.RazonSocial)
	c.NombreContacto = strings.TrimSpace(req.NombreContacto)
	c.RUT = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(req.RUT), ".", ""))
	c.Email = strings.ToLower(strings.TrimSpace(req.Email))
	c.Telefono = strings.TrimSpace(req.Telefono)
	c.Region = req.Region
	c.Comuna = req.Comuna
	c.Direccion = req.Direccion
	c.Notas = req.Notas
}

func (s *clienteService) Crear(ctx context.Context, req dto.GuardarClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{}
	aplicarCliente(c, req)
	if err := s.clientes.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.GuardarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.clientes.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	aplicarCliente(c, req)
	if err := s.clientes.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.clientes.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	clientes, total, err := s.clientes.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ClienteResponse, len(clientes))
	for i := range clientes {
		data[i] = clienteToResponse(&clientes[i])
	}
	return &dto.ClienteListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *clienteService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.clientes.FindByID(ctx, id); err != nil {
		return noEncontrado(err, "cliente")
	}
	ordenes, err := s.ordenes.ListPorCliente(ctx, id)
	if err != nil {
		return err
	}
	if len(ordenes) > 0 {
		return invalido("el cliente tiene %d ordenes de trabajo", len(ordenes))
	}
	return s.clientes.Delete(ctx, id)
}

func (s *clienteService) Historial(ctx context.Context, id uuid.UUID) (*dto.HistorialClienteResponse, error) {
	c, err := s.clientes.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "cliente")
	}
	ordenes, err := s.ordenes.ListPorCliente(ctx, id)
	if err != nil {
		return nil, err
	}
	movs, err := s.flujo.ListPorCliente(ctx, id, c.DisplayName())
	if err != nil {
		return nil, err
	}

	resp := &dto.HistorialClienteResponse{
		Cliente:      clienteToResponse(c),
		Ordenes:      make([]dto.OrdenResponse, len(ordenes)),
		Movimientos:  make([]dto.FlujoResponse, len(movs)),
		TotalOrdenes: decimal.Zero,
		TotalVentas:  decimal.Zero,
	}
	for i := range ordenes {
		o := &ordenes[i]
		o.Cliente = c
		resp.Ordenes[i] = ordenToResponse(o)
		if o.Estado == model.EstadoFinalizadoPagado {
			resp.TotalOrdenes = resp.TotalOrdenes.Add(o.CostoTotal)
		}
	}
	for i := range movs {
		m := &movs[i]
		resp.Movimientos[i] = flujoToResponse(m)
		// los ingresos de una orden ya cuentan en TotalOrdenes
		if m.Tipo == model.FlujoIngreso && m.OrdenID == nil {
			resp.TotalVentas = resp.TotalVentas.Add(m.MontoTotal)
		}
	}
	resp.LTV = resp.TotalOrdenes.Add(resp.TotalVentas)
	return resp, nil
}

func clienteToResponse(c *model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:             c.ID.String(),
		Tipo:           c.Tipo,
		Nombre:         c.DisplayName(),
		NombreCompleto: c.NombreCompleto,
		RazonSocial:    c.RazonSocial,
		NombreContacto: c.NombreContacto,
		RUT:            c.RUT,
		Email:          c.Email,
		Telefono:       c.Telefono,
		Region:         c.Region,
		Comuna:         c.Comuna,
		Direccion:      c.Direccion,
		Notas:          c.Notas,
		CreatedAt:      c.CreatedAt,
	}
}
