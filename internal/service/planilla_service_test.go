package service_test

import (
	"context"
	"strings"
	"testing"

	"servitec/internal/model"
	"servitec/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// planilla arma un libro de una hoja a partir de filas de texto.
func planilla(t *testing.T, filas ...[]string) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for i, fila := range filas {
		for j, v := range fila {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	return f
}

func TestPlanilla_ExportarEImportarEquipos(t *testing.T) {
	equipos := newStubEquipoRepo()
	equipos.agregar("Celular", "Apple", "iPhone 13")
	svc := service.NewPlanillaService(equipos, newStubItemRepo())

	f, err := svc.ExportarEquipos(context.Background())
	require.NoError(t, err)
	rows, err := f.GetRows("Equipos")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"TIPO", "MARCA", "MODELO"}, rows[0])
	assert.Equal(t, []string{"Celular", "Apple", "iPhone 13"}, rows[1])

	res, err := svc.ImportarEquipos(context.Background(), planilla(t,
		[]string{"Marca", "Modelo", "Tipo"},
		[]string{"apple", "IPHONE 13", "Celular"},
		[]string{"Samsung", "Galaxy S21", "Celular"},
		[]string{"Motorola", "", "Celular"},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Creados)
	assert.Equal(t, 1, res.Actualizados)
	require.Len(t, res.Errores, 1)
	assert.True(t, strings.HasPrefix(res.Errores[0], "fila 4:"), res.Errores[0])
}

func TestPlanilla_ImportarEquiposSinColumnas(t *testing.T) {
	svc := service.NewPlanillaService(newStubEquipoRepo(), newStubItemRepo())
	_, err := svc.ImportarEquipos(context.Background(), planilla(t, []string{"MARCA", "TIPO"}))
	assert.ErrorIs(t, err, service.ErrDatosInvalidos)

	_, err = svc.ImportarEquipos(context.Background(), excelize.NewFile())
	assert.ErrorIs(t, err, service.ErrDatosInvalidos)
}

func TestPlanilla_ImportarInventarioActualizaPorSKU(t *testing.T) {
	items := newStubItemRepo()
	svc := service.NewPlanillaService(newStubEquipoRepo(), items)
	ctx := context.Background()

	existente := items.agregar("Batería iPhone 11", model.TipoRepuesto, 20000, map[string]int{model.BodegaLocal: 4, model.BodegaMercadoLibre: 2})
	sku := "BAT-IP11"
	items.mu.Lock()
	items.items[existente.ID].SKU = &sku
	items.mu.Unlock()

	res, err := svc.ImportarInventario(ctx, planilla(t,
		[]string{"NOMBRE", "TIPO", "SKU", "PRECIO_VENTA", "COSTO", "STOCK_MINIMO", "BODEGA LOCAL", "MERCADO LIBRE", "COMPATIBILIDAD"},
		[]string{"Batería iPhone 11 original", "repuesto", "BAT-IP11", "$24.990", "12000", "2", "7", "", "iPhone 11; iPhone 11 Pro"},
		[]string{"Lámina de vidrio", "Accesorio", "", "3990", "", "", "15", "3", ""},
		[]string{"Diagnóstico", "SERVICIO", "", "5000", "", "", "9", "", ""},
		[]string{"Otro", "Consumible", "", "100", "", "", "", "", ""},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Creados)
	assert.Equal(t, 1, res.Actualizados)
	require.Len(t, res.Errores, 1)
	assert.Contains(t, res.Errores[0], "fila 5 (Otro)")

	act, err := items.FindByID(ctx, existente.ID)
	require.NoError(t, err)
	assert.Equal(t, "Batería iPhone 11 original", act.Nombre)
	assert.True(t, act.PrecioVenta.Equal(d(24990)))
	assert.Equal(t, 2, act.StockMinimo)
	assert.Equal(t, []string{"iPhone 11", "iPhone 11 Pro"}, []string(act.Compatibles))
	assert.Equal(t, 7, act.StockEn(model.BodegaLocal))
	assert.Equal(t, 2, act.StockEn(model.BodegaMercadoLibre), "celda vacía no toca el stock")

	movs := items.movimientos()
	var deltaLocal int
	for _, m := range movs {
		if m.ItemID == existente.ID {
			deltaLocal += m.Cantidad
			assert.Equal(t, "planilla", m.Referencia)
		}
	}
	assert.Equal(t, 3, deltaLocal)

	todos, err := items.ListAll(ctx)
	require.NoError(t, err)
	for _, it := range todos {
		if it.Tipo == model.TipoServicio {
			assert.Zero(t, it.StockTotal(), "los servicios no llevan stock")
		}
	}
}

func TestPlanilla_ExportarInventario(t *testing.T) {
	items := newStubItemRepo()
	items.agregar("Cable USB-C", model.TipoAccesorio, 5990, map[string]int{model.BodegaMercadoFull: 6})
	svc := service.NewPlanillaService(newStubEquipoRepo(), items)

	f, err := svc.ExportarInventario(context.Background())
	require.NoError(t, err)
	rows, err := f.GetRows("Inventario")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "NOMBRE", rows[0][0])
	assert.Equal(t, "COMPATIBILIDAD", rows[0][len(rows[0])-1])

	idx := -1
	for i, h := range rows[0] {
		if h == strings.ToUpper(model.BodegaMercadoFull) {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "Cable USB-C", rows[1][0])
	assert.Equal(t, "5990", rows[1][3])
	assert.Equal(t, "6", rows[1][idx])
}
