package service_test

import (
	"context"
	"testing"

	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPOS() (service.POSService, *stubItemRepo, *stubFlujoRepo) {
	items := newStubItemRepo()
	flujo := newStubFlujoRepo()
	inv := service.NewInventarioService(items, &stubMovStockRepo{items: items}, newStubEquipoRepo(), model.BodegaLocal)
	return service.NewPOSService(items, flujo, inv, newStubCache(), tasaIVA, model.BodegaLocal), items, flujo
}

func TestPOS_CheckoutRegistraIngresoYDescuentaStock(t *testing.T) {
	svc, items, flujo := newPOS()
	cable := items.agregar("Cable USB-C", model.TipoAccesorio, 5990, map[string]int{model.BodegaLocal: 10})
	servicio := items.agregar("Instalación de lámina", model.TipoServicio, 3000, nil)

	resp, err := svc.Checkout(context.Background(), dto.CheckoutRequest{
		Items: []dto.LineaPOSRequest{
			{ItemID: cable.ID.String(), Cantidad: 2},
			{ItemID: servicio.ID.String(), Cantidad: 1},
		},
		MetodoPago: model.PagoEfectivo,
	})
	require.NoError(t, err)

	assert.False(t, resp.Duplicado)
	assert.True(t, resp.Movimiento.MontoTotal.Equal(d(14980)), "total = %s", resp.Movimiento.MontoTotal)
	assert.Equal(t, model.CatVentaProducto, resp.Movimiento.Categoria)
	assert.Equal(t, "boleta", resp.Movimiento.TipoDocumento)
	assert.Contains(t, resp.Movimiento.Descripcion, "2x Cable USB-C")
	require.Len(t, resp.Stock, 1)
	assert.True(t, resp.Stock[0].OK)
	assert.Equal(t, 8, items.stock(cable.ID, model.BodegaLocal))
	assert.Len(t, flujo.todos(), 1)
	assert.Equal(t, model.MovVentaPOS, items.movimientos()[0].Tipo)
}

func TestPOS_ReferenciaRepetidaNoDuplica(t *testing.T) {
	svc, items, flujo := newPOS()
	cable := items.agregar("Cable USB-C", model.TipoAccesorio, 5990, map[string]int{model.BodegaLocal: 10})
	ref := "caja1-0001"
	req := dto.CheckoutRequest{
		Items:      []dto.LineaPOSRequest{{ItemID: cable.ID.String(), Cantidad: 1}},
		MetodoPago: model.PagoDebito,
		Referencia: &ref,
	}

	primera, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	segunda, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, primera.Duplicado)
	assert.True(t, segunda.Duplicado)
	assert.Equal(t, primera.Movimiento.ID, segunda.Movimiento.ID)
	assert.Len(t, flujo.todos(), 1)
	assert.Equal(t, 9, items.stock(cable.ID, model.BodegaLocal))
	assert.Equal(t, model.FlujoPendiente, primera.Movimiento.Estado)
	assert.Equal(t, "POS-caja1-0001", items.movimientos()[0].Referencia)
}

func TestPOS_StockInsuficienteSumaLineasDelMismoItem(t *testing.T) {
	svc, items, flujo := newPOS()
	cable := items.agregar("Cable USB-C", model.TipoAccesorio, 5990, map[string]int{model.BodegaLocal: 3, model.BodegaMercadoLibre: 10})

	_, err := svc.Checkout(context.Background(), dto.CheckoutRequest{
		Items: []dto.LineaPOSRequest{
			{ItemID: cable.ID.String(), Cantidad: 2},
			{ItemID: cable.ID.String(), Cantidad: 2},
		},
		MetodoPago: model.PagoEfectivo,
	})
	assert.ErrorIs(t, err, service.ErrStockInsuficiente)
	assert.Empty(t, flujo.todos())
	assert.Equal(t, 3, items.stock(cable.ID, model.BodegaLocal))
}

func TestPOS_VentaEcommerceCalculaComision(t *testing.T) {
	svc, items, _ := newPOS()
	funda := items.agregar("Funda", model.TipoAccesorio, 10000, map[string]int{model.BodegaMercadoFull: 4})
	recibido := decimal.NewFromInt(8500)

	resp, err := svc.Checkout(context.Background(), dto.CheckoutRequest{
		Items:         []dto.LineaPOSRequest{{ItemID: funda.ID.String(), Cantidad: 1}},
		Bodega:        model.BodegaMercadoFull,
		MetodoPago:    model.PagoMercadoPago,
		EsEcommerce:   true,
		MontoRecibido: &recibido,
	})
	require.NoError(t, err)
	assert.True(t, resp.Movimiento.MontoRecibido.Equal(d(8500)))
	assert.True(t, resp.Movimiento.ComisionPlataforma.Equal(d(1500)))
	assert.Equal(t, 3, items.stock(funda.ID, model.BodegaMercadoFull))
}

func TestPOS_PrecioManualYBodegaDesconocida(t *testing.T) {
	svc, items, _ := newPOS()
	cable := items.agregar("Cable USB-C", model.TipoAccesorio, 5990, map[string]int{model.BodegaLocal: 3})
	precio := decimal.NewFromInt(5000)

	resp, err := svc.Checkout(context.Background(), dto.CheckoutRequest{
		Items:         []dto.LineaPOSRequest{{ItemID: cable.ID.String(), Cantidad: 1, PrecioUnitario: &precio}},
		MetodoPago:    model.PagoEfectivo,
		TipoDocumento: "factura",
	})
	require.NoError(t, err)
	assert.True(t, resp.Movimiento.MontoTotal.Equal(d(5000)))
	assert.True(t, resp.Movimiento.MontoNeto.Equal(d(4202)))

	_, err = svc.Checkout(context.Background(), dto.CheckoutRequest{
		Items:      []dto.LineaPOSRequest{{ItemID: cable.ID.String(), Cantidad: 1}},
		Bodega:     "Bodega Norte",
		MetodoPago: model.PagoEfectivo,
	})
	assert.ErrorIs(t, err, service.ErrDatosInvalidos)
}
