package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Encabezados de las planillas. La importación ubica las columnas por
// nombre, así que el orden puede variar.
var (
	columnasEquipos    = []string{"TIPO", "MARCA", "MODELO"}
	columnasInventario = append(
		[]string{"NOMBRE", "TIPO", "SKU", "PRECIO_VENTA", "COSTO", "STOCK_MINIMO"},
		append(bodegasMayus(), "COMPATIBILIDAD")...,
	)
)

func bodegasMayus() []string {
	out := make([]string, len(model.Bodegas))
	for i, b := range model.Bodegas {
		out[i] = strings.ToUpper(b)
	}
	return out
}

// PlanillaService importa y exporta catálogos en formato xlsx.
type PlanillaService interface {
	ExportarEquipos(ctx context.Context) (*excelize.File, error)
	ImportarEquipos(ctx context.Context, f *excelize.File) (*dto.ImportResponse, error)
	ExportarInventario(ctx context.Context) (*excelize.File, error)
	ImportarInventario(ctx context.Context, f *excelize.File) (*dto.ImportResponse, error)
}

type planillaService struct {
	equipos repository.EquipoRepository
	items   repository.ItemRepository
}

func NewPlanillaService(equipos repository.EquipoRepository, items repository.ItemRepository) PlanillaService {
	return &planillaService{equipos: equipos, items: items}
}

// nuevaPlanilla crea un libro con una hoja y encabezados en negrita.
func nuevaPlanilla(hoja string, columnas []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", hoja); err != nil {
		return nil, err
	}
	estilo, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range columnas {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(hoja, cell, h)
		f.SetCellStyle(hoja, cell, cell, estilo)
		f.SetColWidth(hoja, col, col, 18)
	}
	return f, nil
}

func setFila(f *excelize.File, hoja string, fila int, valores ...interface{}) {
	for i, v := range valores {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(hoja, fmt.Sprintf("%s%d", col, fila), v)
	}
}

// leerFilas devuelve las filas de la primera hoja con el índice de cada
// encabezado conocido.
func leerFilas(f *excelize.File, requeridas ...string) ([][]string, map[string]int, error) {
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("leer planilla: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, invalido("la planilla está vacía")
	}
	idx := make(map[string]int)
	for i, h := range rows[0] {
		idx[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, r := range requeridas {
		if _, ok := idx[r]; !ok {
			return nil, nil, invalido("falta la columna %s", r)
		}
	}
	return rows[1:], idx, nil
}

func celda(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseMonto acepta "$12.990", "12990" y "12990,0".
func parseMonto(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer("$", "", ".", "", " ", "").Replace(s)
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(0), nil
}

// ── Equipos ───────────────────────────────────────────────────────────────────

func (s *planillaService) ExportarEquipos(ctx context.Context) (*excelize.File, error) {
	modelos, err := s.equipos.List(ctx, "")
	if err != nil {
		return nil, err
	}
	const hoja = "Equipos"
	f, err := nuevaPlanilla(hoja, columnasEquipos)
	if err != nil {
		return nil, err
	}
	for i, m := range modelos {
		setFila(f, hoja, i+2, m.Tipo, m.Marca, m.Modelo)
	}
	return f, nil
}

func (s *planillaService) ImportarEquipos(ctx context.Context, f *excelize.File) (*dto.ImportResponse, error) {
	rows, idx, err := leerFilas(f, columnasEquipos...)
	if err != nil {
		return nil, err
	}
	resp := &dto.ImportResponse{Errores: []string{}}
	for i, row := range rows {
		n := i + 2
		m := &model.ModeloEquipo{
			Tipo:   celda(row, idx, "TIPO"),
			Marca:  celda(row, idx, "MARCA"),
			Modelo: celda(row, idx, "MODELO"),
		}
		if m.Marca == "" && m.Modelo == "" && m.Tipo == "" {
			continue
		}
		if m.Marca == "" || m.Modelo == "" {
			resp.Errores = append(resp.Errores, fmt.Sprintf("fila %d: marca y modelo son obligatorios", n))
			continue
		}
		creado, err := s.equipos.Upsert(ctx, m)
		if err != nil {
			resp.Errores = append(resp.Errores, fmt.Sprintf("fila %d: %v", n, err))
			continue
		}
		if creado {
			resp.Creados++
		} else {
			resp.Actualizados++
		}
	}
	log.Info().Int("creados", resp.Creados).Int("actualizados", resp.Actualizados).
		Int("errores", len(resp.Errores)).Msg("planilla: equipos importados")
	return resp, nil
}

// ── Inventario ────────────────────────────────────────────────────────────────

func (s *planillaService) ExportarInventario(ctx context.Context) (*excelize.File, error) {
	items, err := s.items.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	const hoja = "Inventario"
	f, err := nuevaPlanilla(hoja, columnasInventario)
	if err != nil {
		return nil, err
	}
	for i := range items {
		it := &items[i]
		sku := ""
		if it.SKU != nil {
			sku = *it.SKU
		}
		fila := []interface{}{
			it.Nombre, it.Tipo, sku,
			it.PrecioVenta.IntPart(), it.PrecioCosto.IntPart(), it.StockMinimo,
		}
		for _, b := range model.Bodegas {
			fila = append(fila, it.StockEn(b))
		}
		fila = append(fila, strings.Join(it.Compatibles, ", "))
		setFila(f, hoja, i+2, fila...)
	}
	return f, nil
}

// ImportarInventario crea o actualiza ítems. Un SKU existente actualiza el
// ítem; las columnas de bodega fijan el stock con un ajuste por la
// diferencia, y una celda vacía deja el stock como está.
func (s *planillaService) ImportarInventario(ctx context.Context, f *excelize.File) (*dto.ImportResponse, error) {
	rows, idx, err := leerFilas(f, "NOMBRE", "TIPO")
	if err != nil {
		return nil, err
	}
	resp := &dto.ImportResponse{Errores: []string{}}
	for i, row := range rows {
		n := i + 2
		nombre := celda(row, idx, "NOMBRE")
		if nombre == "" {
			continue
		}
		creado, err := s.importarItem(ctx, row, idx)
		if err != nil {
			resp.Errores = append(resp.Errores, fmt.Sprintf("fila %d (%s): %v", n, nombre, err))
			continue
		}
		if creado {
			resp.Creados++
		} else {
			resp.Actualizados++
		}
	}
	log.Info().Int("creados", resp.Creados).Int("actualizados", resp.Actualizados).
		Int("errores", len(resp.Errores)).Msg("planilla: inventario importado")
	return resp, nil
}

func (s *planillaService) importarItem(ctx context.Context, row []string, idx map[string]int) (bool, error) {
	tipo := celda(row, idx, "TIPO")
	switch strings.ToLower(tipo) {
	case "", "repuesto":
		tipo = model.TipoRepuesto
	case "accesorio":
		tipo = model.TipoAccesorio
	case "servicio":
		tipo = model.TipoServicio
	default:
		return false, fmt.Errorf("tipo desconocido %q", tipo)
	}
	venta, err := parseMonto(celda(row, idx, "PRECIO_VENTA"))
	if err != nil {
		return false, fmt.Errorf("precio de venta inválido")
	}
	costo, err := parseMonto(celda(row, idx, "COSTO"))
	if err != nil {
		return false, fmt.Errorf("costo inválido")
	}
	minimo := 0
	if v := celda(row, idx, "STOCK_MINIMO"); v != "" {
		if minimo, err = strconv.Atoi(v); err != nil || minimo < 0 {
			return false, fmt.Errorf("stock mínimo inválido")
		}
	}
	var compat []string
	if v := celda(row, idx, "COMPATIBILIDAD"); v != "" {
		compat = limpiarCompatibles(strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' }))
	}

	var item *model.ItemInventario
	sku := limpiarSKU(strPtr(celda(row, idx, "SKU")))
	if sku != nil {
		existente, err := s.items.FindBySKU(ctx, *sku)
		if err == nil {
			item = existente
		} else if !repository.IsNotFound(err) {
			return false, err
		}
	}
	creado := item == nil
	if creado {
		item = &model.ItemInventario{SKU: sku}
	}
	item.Nombre = celda(row, idx, "NOMBRE")
	item.Tipo = tipo
	item.PrecioVenta = venta
	item.PrecioCosto = costo
	item.StockMinimo = minimo
	if compat != nil || creado {
		item.Compatibles = compat
	}

	if creado {
		err = s.items.Create(ctx, item)
	} else {
		err = s.items.Update(ctx, item)
	}
	if err != nil {
		return false, err
	}
	if item.EsServicio() {
		return creado, nil
	}

	for _, b := range model.Bodegas {
		v := celda(row, idx, strings.ToUpper(b))
		if v == "" {
			continue
		}
		cant, err := strconv.Atoi(v)
		if err != nil || cant < 0 {
			return creado, fmt.Errorf("stock inválido en %s", b)
		}
		delta := cant - item.StockEn(b)
		if delta == 0 {
			continue
		}
		if _, _, err := s.items.AjustarStock(ctx, nil, repository.AjusteStock{
			ItemID: item.ID, Bodega: b, Delta: delta, Tipo: model.MovAjusteManual, Referencia: "planilla",
		}); err != nil {
			return creado, err
		}
	}
	return creado, nil
}
