package service_test

import (
	"context"
	"testing"

	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCliente_CrearNormalizaDatos(t *testing.T) {
	svc := service.NewClienteService(newStubClienteRepo(), newStubOrdenRepo(nil), newStubFlujoRepo())

	c, err := svc.Crear(context.Background(), dto.GuardarClienteRequest{
		Tipo: model.ClienteEmpresa, RazonSocial: " Comercial Andes SpA ", NombreContacto: "Pedro",
		RUT: "76.123.456-k", Email: " Compras@Andes.CL ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Comercial Andes SpA", c.Nombre)
	assert.Equal(t, "76123456-K", c.RUT)
	assert.Equal(t, "compras@andes.cl", c.Email)
}

func TestCliente_NoSeEliminaConOrdenes(t *testing.T) {
	clientes := newStubClienteRepo()
	ordenes := newStubOrdenRepo(clientes)
	svc := service.NewClienteService(clientes, ordenes, newStubFlujoRepo())
	conOrden := clientes.agregar("María Pérez", "maria@example.com")
	sinOrden := clientes.agregar("José Soto", "")
	ordenes.agregar(&model.OrdenTrabajo{ClienteID: conOrden.ID, Estado: model.EstadoEnCola})

	err := svc.Eliminar(context.Background(), conOrden.ID)
	assert.ErrorIs(t, err, service.ErrDatosInvalidos)

	require.NoError(t, svc.Eliminar(context.Background(), sinOrden.ID))
	_, err = svc.Obtener(context.Background(), sinOrden.ID)
	assert.ErrorIs(t, err, service.ErrNoEncontrado)

	assert.ErrorIs(t, svc.Eliminar(context.Background(), uuid.New()), service.ErrNoEncontrado)
}

func TestCliente_HistorialCalculaLTV(t *testing.T) {
	clientes := newStubClienteRepo()
	ordenes := newStubOrdenRepo(clientes)
	flujo := newStubFlujoRepo()
	svc := service.NewClienteService(clientes, ordenes, flujo)
	ctx := context.Background()

	c := clientes.agregar("María Pérez", "maria@example.com")
	pagada := ordenes.agregar(&model.OrdenTrabajo{ClienteID: c.ID, Estado: model.EstadoFinalizadoPagado, CostoTotal: d(7000)})
	ordenes.agregar(&model.OrdenTrabajo{ClienteID: c.ID, Estado: model.EstadoTrabajando, CostoTotal: d(3000)})

	ref := pagada.Codigo
	require.NoError(t, flujo.Create(ctx, nil, &model.MovimientoFlujo{
		Tipo: model.FlujoIngreso, Categoria: model.CatVentaServicio, ClienteID: &c.ID, OrdenID: &pagada.ID,
		Referencia: &ref, MontoTotal: d(7000),
	}))
	require.NoError(t, flujo.Create(ctx, nil, &model.MovimientoFlujo{
		Tipo: model.FlujoIngreso, Categoria: model.CatVentaProducto, ClienteID: &c.ID, MontoTotal: d(5000),
	}))
	require.NoError(t, flujo.Create(ctx, nil, &model.MovimientoFlujo{
		Tipo: model.FlujoIngreso, Categoria: model.CatVentaProducto, Descripcion: "Venta a María Pérez", MontoTotal: d(2000),
	}))
	require.NoError(t, flujo.Create(ctx, nil, &model.MovimientoFlujo{
		Tipo: model.FlujoEgreso, Categoria: model.CatOtroEgreso, ClienteID: &c.ID, MontoTotal: d(900),
	}))

	h, err := svc.Historial(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, h.Ordenes, 2)
	assert.Len(t, h.Movimientos, 4)
	assert.True(t, h.TotalOrdenes.Equal(d(7000)))
	assert.True(t, h.TotalVentas.Equal(d(7000)), "total ventas = %s", h.TotalVentas)
	assert.True(t, h.LTV.Equal(d(14000)))
}
