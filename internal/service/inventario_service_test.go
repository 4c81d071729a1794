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

func newInventario() (service.InventarioService, *stubItemRepo, *stubEquipoRepo) {
	items := newStubItemRepo()
	equipos := newStubEquipoRepo()
	return service.NewInventarioService(items, &stubMovStockRepo{items: items}, equipos, model.BodegaLocal), items, equipos
}

func TestInventario_CrearConStockInicial(t *testing.T) {
	svc, items, _ := newInventario()
	sku := "  BAT-IP11 "

	it, err := svc.Crear(context.Background(), dto.CrearItemRequest{
		Nombre: "Batería iPhone 11", Tipo: model.TipoRepuesto, SKU: &sku,
		PrecioVenta: d(25000), StockMinimo: 2,
		Compatibles: []string{" iPhone 11 ", ""},
		Stock:       map[string]int{model.BodegaLocal: 3, model.BodegaMercadoLibre: 1},
	})
	require.NoError(t, err)

	require.NotNil(t, it.SKU)
	assert.Equal(t, "BAT-IP11", *it.SKU)
	assert.Equal(t, []string{"iPhone 11"}, it.Compatibles)
	assert.Equal(t, 4, it.StockTotal)
	assert.Equal(t, 3, it.Stock[model.BodegaLocal])
	assert.False(t, it.BajoMinimo)
	assert.Len(t, items.movimientos(), 2)
}

func TestInventario_CrearBodegaDesconocida(t *testing.T) {
	svc, _, _ := newInventario()
	_, err := svc.Crear(context.Background(), dto.CrearItemRequest{
		Nombre: "Batería", Tipo: model.TipoRepuesto, Stock: map[string]int{"Bodega Norte": 1},
	})
	assert.ErrorIs(t, err, service.ErrDatosInvalidos)
}

func TestInventario_AjusteManual(t *testing.T) {
	svc, items, _ := newInventario()
	bat := items.agregar("Batería", model.TipoRepuesto, 25000, map[string]int{model.BodegaLocal: 2})
	mano := items.agregar("Diagnóstico", model.TipoServicio, 5000, nil)
	ctx := context.Background()

	res, err := svc.AjustarStock(ctx, bat.ID, dto.AjustarStockRequest{Cantidad: -2, Bodega: model.BodegaLocal, Motivo: "merma"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.StockNuevo)
	assert.Equal(t, "merma", items.movimientos()[0].Referencia)

	_, err = svc.AjustarStock(ctx, bat.ID, dto.AjustarStockRequest{Cantidad: -1, Bodega: model.BodegaLocal})
	assert.ErrorIs(t, err, service.ErrStockInsuficiente)

	_, err = svc.AjustarStock(ctx, mano.ID, dto.AjustarStockRequest{Cantidad: 1, Bodega: model.BodegaLocal})
	assert.ErrorIs(t, err, service.ErrDatosInvalidos)

	_, err = svc.AjustarStock(ctx, uuid.New(), dto.AjustarStockRequest{Cantidad: 1, Bodega: model.BodegaLocal})
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}

func TestInventario_DescontarLoteInformaCadaLinea(t *testing.T) {
	svc, items, _ := newInventario()
	a := items.agregar("Pantalla", model.TipoRepuesto, 1000, map[string]int{model.BodegaLocal: 5})
	b := items.agregar("Flex", model.TipoRepuesto, 1000, map[string]int{model.BodegaLocal: 1})
	mano := items.agregar("Mano de obra", model.TipoServicio, 1000, nil)

	res := svc.DescontarStock(context.Background(), []dto.LineaStock{
		{ItemID: a.ID.String(), Nombre: a.Nombre, Tipo: model.TipoRepuesto, Cantidad: 2},
		{ItemID: b.ID.String(), Nombre: b.Nombre, Tipo: model.TipoRepuesto, Cantidad: 3},
		{ItemID: mano.ID.String(), Nombre: mano.Nombre, Tipo: model.TipoServicio, Cantidad: 1},
		{ItemID: uuid.NewString(), Nombre: "Borrado", Cantidad: 1},
	}, model.BodegaLocal, model.MovOrdenTrabajo, "OT-000042")

	require.Len(t, res, 3)
	assert.True(t, res[0].OK)
	assert.Equal(t, -2, res[0].Cantidad)
	assert.False(t, res[1].OK)
	assert.NotEmpty(t, res[1].Error)
	assert.False(t, res[2].OK, "ítem sin tipo que no existe en inventario")
	assert.Equal(t, 3, items.stock(a.ID, model.BodegaLocal))
	assert.Equal(t, 1, items.stock(b.ID, model.BodegaLocal))
}

func TestInventario_RestaurarDevuelveAlaBodega(t *testing.T) {
	svc, items, _ := newInventario()
	a := items.agregar("Pantalla", model.TipoRepuesto, 1000, map[string]int{model.BodegaMercadoLibre: 1})
	lineas := []dto.LineaStock{{ItemID: a.ID.String(), Tipo: model.TipoRepuesto, Cantidad: 1}}

	svc.DescontarStock(context.Background(), lineas, model.BodegaMercadoLibre, model.MovOrdenTrabajo, "OT-1")
	assert.Equal(t, 0, items.stock(a.ID, model.BodegaMercadoLibre))
	res := svc.RestaurarStock(context.Background(), lineas, model.BodegaMercadoLibre, "OT-1")
	require.Len(t, res, 1)
	assert.True(t, res[0].OK)
	assert.Equal(t, 1, items.stock(a.ID, model.BodegaMercadoLibre))
	assert.Equal(t, model.MovRestauracion, items.movimientos()[1].Tipo)
}

func TestInventario_AlertasYCompatibles(t *testing.T) {
	svc, items, equipos := newInventario()
	bajo := items.agregar("Batería iPhone 13", model.TipoRepuesto, 1000, map[string]int{model.BodegaLocal: 1})
	items.mu.Lock()
	items.items[bajo.ID].StockMinimo = 3
	items.items[bajo.ID].Compatibles = []string{"iPhone 13", "iPhone 13 Pro"}
	items.mu.Unlock()
	items.agregar("Batería Galaxy S21", model.TipoRepuesto, 1000, map[string]int{model.BodegaLocal: 10})
	items.agregar("Diagnóstico", model.TipoServicio, 5000, nil)
	modelo := equipos.agregar("Celular", "Apple", "iPhone 13")

	alertas, err := svc.Alertas(context.Background())
	require.NoError(t, err)
	require.Len(t, alertas, 1)
	assert.Equal(t, 2, alertas[0].Faltante)

	compat, err := svc.Compatibles(context.Background(), modelo.ID)
	require.NoError(t, err)
	nombres := make([]string, len(compat))
	for i, c := range compat {
		nombres[i] = c.Nombre
	}
	assert.ElementsMatch(t, []string{"Batería iPhone 13", "Diagnóstico"}, nombres)

	_, err = svc.Compatibles(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}

func TestInventario_MovimientosPorItem(t *testing.T) {
	svc, items, _ := newInventario()
	a := items.agregar("Pantalla", model.TipoRepuesto, 1000, map[string]int{model.BodegaLocal: 5})
	b := items.agregar("Flex", model.TipoRepuesto, 1000, map[string]int{model.BodegaLocal: 5})
	_, err := svc.AjustarStock(context.Background(), a.ID, dto.AjustarStockRequest{Cantidad: 1, Bodega: model.BodegaLocal})
	require.NoError(t, err)
	_, err = svc.AjustarStock(context.Background(), b.ID, dto.AjustarStockRequest{Cantidad: 1, Bodega: model.BodegaLocal})
	require.NoError(t, err)

	resp, err := svc.Movimientos(context.Background(), dto.MovimientoStockFilter{ItemID: a.ID.String(), Page: 1, Limit: 50})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 6, resp.Data[0].StockNuevo)

	_, err = svc.Movimientos(context.Background(), dto.MovimientoStockFilter{ItemID: "x"})
	assert.ErrorIs(t, err, service.ErrDatosInvalidos)
}
