package model_test

import (
	"testing"

	"servitec/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPasoTracker(t *testing.T) {
	assert.Equal(t, 1, model.PasoTracker(model.EstadoEnCola))
	assert.Equal(t, 2, model.PasoTracker(model.EstadoTrabajando))
	for _, e := range []string{
		model.EstadoRevisionCoordinador, model.EstadoEsperandoRepuesto,
		model.EstadoNotificadoNoPagado, model.EstadoPagadoNoRetirado, model.EstadoRetiradoNoPagado,
	} {
		assert.Equal(t, 3, model.PasoTracker(e), e)
	}
	assert.Equal(t, 4, model.PasoTracker(model.EstadoFinalizadoPagado))
	assert.Equal(t, 4, model.PasoTracker(model.EstadoCancelado))
	assert.Equal(t, 1, model.PasoTracker("Desconocido"))
}

func TestRequiereDatosFiscales(t *testing.T) {
	assert.False(t, model.RequiereDatosFiscales(model.EstadoEnCola))
	assert.False(t, model.RequiereDatosFiscales(model.EstadoTrabajando))
	assert.True(t, model.RequiereDatosFiscales(model.EstadoNotificadoNoPagado))
	assert.True(t, model.RequiereDatosFiscales(model.EstadoFinalizadoPagado))
}

func TestStockTotal(t *testing.T) {
	item := model.ItemInventario{
		Tipo:        model.TipoRepuesto,
		StockMinimo: 10,
		Stock: []model.StockBodega{
			{Bodega: model.BodegaLocal, Cantidad: 3},
			{Bodega: model.BodegaMercadoLibre, Cantidad: 4},
			{Bodega: model.BodegaMercadoFull, Cantidad: 2},
		},
	}
	total := 0
	for _, c := range item.StockPorBodega() {
		total += c
	}
	assert.Equal(t, 9, item.StockTotal())
	assert.Equal(t, total, item.StockTotal())
	assert.Equal(t, 4, item.StockEn(model.BodegaMercadoLibre))
	assert.Equal(t, 0, item.StockEn("Otra"))
	assert.True(t, item.BajoMinimo())

	servicio := model.ItemInventario{Tipo: model.TipoServicio, StockMinimo: 5}
	assert.False(t, servicio.BajoMinimo())
}

func TestRecalcularTotal(t *testing.T) {
	o := model.OrdenTrabajo{Items: []model.ItemOrden{
		{Nombre: "Pantalla", Tipo: model.TipoRepuesto, PrecioUnitario: decimal.NewFromInt(1000), Cantidad: 2},
		{Nombre: "Mano de obra", Tipo: model.TipoServicio, PrecioUnitario: decimal.NewFromInt(5000), Cantidad: 1},
	}}
	o.RecalcularTotal()
	assert.True(t, o.CostoTotal.Equal(decimal.NewFromInt(7000)))
}

func TestCodigoOrdenYDisplayName(t *testing.T) {
	assert.Equal(t, "OT-000123", model.CodigoOrden(123))

	emp := model.Cliente{Tipo: model.ClienteEmpresa, RazonSocial: "Acme SpA", NombreCompleto: "Juan"}
	assert.Equal(t, "Acme SpA", emp.DisplayName())
	per := model.Cliente{Tipo: model.ClienteParticular, NombreCompleto: "Ana Pérez"}
	assert.Equal(t, "Ana Pérez", per.DisplayName())

	eq := model.ModeloEquipo{Marca: "Apple", Modelo: "iPhone 13 Pro"}
	assert.Equal(t, "Apple iPhone 13 Pro", eq.Descripcion())
}

func TestEstadoPorMetodoPago(t *testing.T) {
	assert.Equal(t, model.FlujoPendiente, model.EstadoPorMetodoPago(model.PagoDebito))
	assert.Equal(t, model.FlujoPendiente, model.EstadoPorMetodoPago(model.PagoMercadoPago))
	assert.Equal(t, model.FlujoConfirmado, model.EstadoPorMetodoPago(model.PagoEfectivo))
	assert.True(t, model.CategoriaValida(model.FlujoIngreso, model.CatVentaServicio))
	assert.False(t, model.CategoriaValida(model.FlujoEgreso, model.CatVentaServicio))
}
