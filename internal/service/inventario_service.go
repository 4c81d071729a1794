package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"servitec/internal/calculo"
	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type InventarioService interface {
	Crear(ctx context.Context, req dto.CrearItemRequest) (*dto.ItemResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarItemRequest) (*dto.ItemResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error)
	Listar(ctx context.Context, filter dto.ItemFilter) (*dto.ItemListResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	AjustarStock(ctx context.Context, id uuid.UUID, req dto.AjustarStockRequest) (*dto.ResultadoStock, error)
	// DescontarStock y RestaurarStock aplican un lote de ajustes en paralelo.
	// Las líneas de servicio se omiten. El lote puede quedar aplicado en forma
	// parcial; cada línea informa su resultado.
	DescontarStock(ctx context.Context, lineas []dto.LineaStock, bodega, tipo, referencia string) []dto.ResultadoStock
	RestaurarStock(ctx context.Context, lineas []dto.LineaStock, bodega, referencia string) []dto.ResultadoStock
	// Las variantes Tx aplican el lote dentro de tx, en orden y de a un ítem:
	// si tx se revierte, los ajustes se revierten con ella.
	DescontarStockTx(ctx context.Context, tx *gorm.DB, lineas []dto.LineaStock, bodega, tipo, referencia string) []dto.ResultadoStock
	RestaurarStockTx(ctx context.Context, tx *gorm.DB, lineas []dto.LineaStock, bodega, referencia string) []dto.ResultadoStock
	IngresarStock(ctx context.Context, lineas []dto.LineaStock, bodega, tipo, referencia string) []dto.ResultadoStock
	Alertas(ctx context.Context) ([]dto.AlertaStockResponse, error)
	Compatibles(ctx context.Context, modeloID uuid.UUID) ([]dto.ItemResponse, error)
	Movimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error)
}

type inventarioService struct {
	items         repository.ItemRepository
	movimientos   repository.MovimientoStockRepository
	equipos       repository.EquipoRepository
	bodegaDefault string
}

func NewInventarioService(
	items repository.ItemRepository,
	movimientos repository.MovimientoStockRepository,
	equipos repository.EquipoRepository,
	bodegaDefault string,
) InventarioService {
	if bodegaDefault == "" {
		bodegaDefault = model.BodegaLocal
	}
	return &inventarioService{items: items, movimientos: movimientos, equipos: equipos, bodegaDefault: bodegaDefault}
}

func bodegaValida(b string) bool {
	for _, x := range model.Bodegas {
		if x == b {
			return true
		}
	}
	return false
}

func (s *inventarioService) bodega(b string) (string, error) {
	if b == "" {
		return s.bodegaDefault, nil
	}
	if !bodegaValida(b) {
		return "", invalido("bodega desconocida %q", b)
	}
	return b, nil
}

// ── CRUD ──────────────────────────────────────────────────────────────────────

func (s *inventarioService) Crear(ctx context.Context, req dto.CrearItemRequest) (*dto.ItemResponse, error) {
	for b, cant := range req.Stock {
		if !bodegaValida(b) {
			return nil, invalido("bodega desconocida %q", b)
		}
		if cant < 0 {
			return nil, invalido("stock inicial negativo en %s", b)
		}
	}
	item := &model.ItemInventario{
		Nombre:      strings.TrimSpace(req.Nombre),
		Tipo:        req.Tipo,
		SKU:         limpiarSKU(req.SKU),
		PrecioVenta: req.PrecioVenta.Round(0),
		PrecioCosto: req.PrecioCosto.Round(0),
		StockMinimo: req.StockMinimo,
		Compatibles: limpiarCompatibles(req.Compatibles),
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	if !item.EsServicio() {
		for _, b := range model.Bodegas {
			cant := req.Stock[b]
			if cant == 0 {
				continue
			}
			if _, _, err := s.items.AjustarStock(ctx, nil, repository.AjusteStock{
				ItemID: item.ID, Bodega: b, Delta: cant, Tipo: model.MovAjusteManual, Referencia: "stock inicial",
			}); err != nil {
				return nil, err
			}
		}
	}
	return s.Obtener(ctx, item.ID)
}

func (s *inventarioService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarItemRequest) (*dto.ItemResponse, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "item")
	}
	if req.Nombre != nil {
		item.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Tipo != nil {
		item.Tipo = *req.Tipo
	}
	if req.SKU != nil {
		item.SKU = limpiarSKU(req.SKU)
	}
	if req.PrecioVenta != nil {
		item.PrecioVenta = req.PrecioVenta.Round(0)
	}
	if req.PrecioCosto != nil {
		item.PrecioCosto = req.PrecioCosto.Round(0)
	}
	if req.StockMinimo != nil {
		item.StockMinimo = *req.StockMinimo
	}
	if req.Compatibles != nil {
		item.Compatibles = limpiarCompatibles(*req.Compatibles)
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *inventarioService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "item")
	}
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *inventarioService) Listar(ctx context.Context, filter dto.ItemFilter) (*dto.ItemListResponse, error) {
	items, total, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ItemResponse, len(items))
	for i := range items {
		data[i] = itemToResponse(&items[i])
	}
	return &dto.ItemListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

func (s *inventarioService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.items.FindByID(ctx, id); err != nil {
		return noEncontrado(err, "item")
	}
	return s.items.Delete(ctx, id)
}

// ── Stock ─────────────────────────────────────────────────────────────────────

func (s *inventarioService) AjustarStock(ctx context.Context, id uuid.UUID, req dto.AjustarStockRequest) (*dto.ResultadoStock, error) {
	bodega, err := s.bodega(req.Bodega)
	if err != nil {
		return nil, err
	}
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "item")
	}
	if item.EsServicio() {
		return nil, invalido("los servicios no llevan stock")
	}
	ref := strings.TrimSpace(req.Motivo)
	if ref == "" {
		ref = "ajuste manual"
	}
	_, nuevo, err := s.items.AjustarStock(ctx, nil, repository.AjusteStock{
		ItemID: id, Bodega: bodega, Delta: req.Cantidad, Tipo: model.MovAjusteManual, Referencia: ref,
	})
	if err != nil {
		return nil, err
	}
	return &dto.ResultadoStock{
		ItemID: id.String(), Nombre: item.Nombre, Cantidad: req.Cantidad, OK: true, StockNuevo: nuevo,
	}, nil
}

func (s *inventarioService) DescontarStock(ctx context.Context, lineas []dto.LineaStock, bodega, tipo, referencia string) []dto.ResultadoStock {
	return s.aplicarLote(ctx, nil, lineas, bodega, tipo, referencia, -1)
}

func (s *inventarioService) RestaurarStock(ctx context.Context, lineas []dto.LineaStock, bodega, referencia string) []dto.ResultadoStock {
	return s.aplicarLote(ctx, nil, lineas, bodega, model.MovRestauracion, referencia, 1)
}

func (s *inventarioService) DescontarStockTx(ctx context.Context, tx *gorm.DB, lineas []dto.LineaStock, bodega, tipo, referencia string) []dto.ResultadoStock {
	return s.aplicarLote(ctx, tx, lineas, bodega, tipo, referencia, -1)
}

func (s *inventarioService) RestaurarStockTx(ctx context.Context, tx *gorm.DB, lineas []dto.LineaStock, bodega, referencia string) []dto.ResultadoStock {
	return s.aplicarLote(ctx, tx, lineas, bodega, model.MovRestauracion, referencia, 1)
}

func (s *inventarioService) IngresarStock(ctx context.Context, lineas []dto.LineaStock, bodega, tipo, referencia string) []dto.ResultadoStock {
	return s.aplicarLote(ctx, nil, lineas, bodega, tipo, referencia, 1)
}

type lineaAjuste struct {
	id     uuid.UUID
	nombre string
	cant   int
	err    string
}

// aplicarLote ajusta cada línea y arma su resultado. Sin tx los ítems se
// ajustan en paralelo, cada uno en su transacción. Con tx se ajustan uno a
// uno ordenados por id, porque tx es una sola conexión y el orden fijo de los
// bloqueos evita deadlocks entre lotes concurrentes.
func (s *inventarioService) aplicarLote(ctx context.Context, tx *gorm.DB, lineas []dto.LineaStock, bodega, tipo, referencia string, signo int) []dto.ResultadoStock {
	if bodega == "" {
		bodega = s.bodegaDefault
	}
	pendientes := s.resolverLineas(ctx, lineas)
	if tx != nil {
		sort.SliceStable(pendientes, func(i, j int) bool {
			return pendientes[i].id.String() < pendientes[j].id.String()
		})
	}
	resultados := make([]dto.ResultadoStock, len(pendientes))

	ajustar := func(i int, l lineaAjuste) {
		_, nuevo, err := s.items.AjustarStock(ctx, tx, repository.AjusteStock{
			ItemID: l.id, Bodega: bodega, Delta: l.cant * signo, Tipo: tipo, Referencia: referencia,
		})
		if err != nil {
			log.Error().Err(err).
				Str("item_id", l.id.String()).
				Str("bodega", bodega).
				Str("referencia", referencia).
				Msg("inventario: ajuste de stock fallido")
			resultados[i].Error = err.Error()
			return
		}
		resultados[i].OK = true
		resultados[i].StockNuevo = nuevo
	}

	var wg sync.WaitGroup
	for i, l := range pendientes {
		resultados[i] = dto.ResultadoStock{ItemID: l.id.String(), Nombre: l.nombre, Cantidad: l.cant * signo}
		if l.err != "" {
			resultados[i].Error = l.err
			continue
		}
		if tx != nil {
			ajustar(i, l)
			continue
		}
		wg.Add(1)
		go func(i int, l lineaAjuste) {
			defer wg.Done()
			ajustar(i, l)
		}(i, l)
	}
	wg.Wait()
	return resultados
}

// resolverLineas descarta servicios y líneas sin ítem de inventario. Las
// líneas sin tipo (órdenes antiguas) se resuelven contra el inventario.
func (s *inventarioService) resolverLineas(ctx context.Context, lineas []dto.LineaStock) []lineaAjuste {
	var sinTipo []uuid.UUID
	ids := make([]uuid.UUID, len(lineas))
	for i, l := range lineas {
		id, err := uuid.Parse(l.ItemID)
		if err != nil {
			continue
		}
		ids[i] = id
		if l.Tipo == "" {
			sinTipo = append(sinTipo, id)
		}
	}

	tipos := make(map[uuid.UUID]string)
	if len(sinTipo) > 0 {
		items, err := s.items.FindByIDs(ctx, sinTipo)
		if err != nil {
			log.Warn().Err(err).Msg("inventario: no se pudo resolver el tipo de las líneas")
		}
		for _, it := range items {
			tipos[it.ID] = it.Tipo
		}
	}

	out := make([]lineaAjuste, 0, len(lineas))
	for i, l := range lineas {
		if ids[i] == uuid.Nil || l.Cantidad <= 0 {
			continue
		}
		tipo := l.Tipo
		if tipo == "" {
			t, ok := tipos[ids[i]]
			if !ok {
				out = append(out, lineaAjuste{id: ids[i], nombre: l.Nombre, cant: l.Cantidad, err: "item no encontrado en inventario"})
				continue
			}
			tipo = t
		}
		if tipo == model.TipoServicio {
			continue
		}
		out = append(out, lineaAjuste{id: ids[i], nombre: l.Nombre, cant: l.Cantidad})
	}
	return out
}

func (s *inventarioService) Alertas(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	items, err := s.items.ListBajoMinimo(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.AlertaStockResponse, 0, len(items))
	for i := range items {
		it := &items[i]
		if !it.BajoMinimo() {
			continue
		}
		resp = append(resp, dto.AlertaStockResponse{
			ItemID:      it.ID.String(),
			Nombre:      it.Nombre,
			StockTotal:  it.StockTotal(),
			StockMinimo: it.StockMinimo,
			Faltante:    it.StockMinimo - it.StockTotal(),
		})
	}
	return resp, nil
}

func (s *inventarioService) Compatibles(ctx context.Context, modeloID uuid.UUID) ([]dto.ItemResponse, error) {
	modelo, err := s.equipos.FindByID(ctx, modeloID)
	if err != nil {
		return nil, noEncontrado(err, "modelo de equipo")
	}
	items, err := s.items.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	dispositivo := modelo.Descripcion()
	resp := make([]dto.ItemResponse, 0)
	for i := range items {
		it := &items[i]
		if calculo.EsCompatible(it.EsServicio(), it.Compatibles, dispositivo) {
			resp = append(resp, itemToResponse(it))
		}
	}
	return resp, nil
}

func (s *inventarioService) Movimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error) {
	f := repository.MovimientoStockFilter{Tipo: filter.Tipo, Page: filter.Page, Limit: filter.Limit}
	if filter.ItemID != "" {
		id, err := uuid.Parse(filter.ItemID)
		if err != nil {
			return nil, invalido("item_id no es un UUID")
		}
		f.ItemID = &id
	}
	movs, total, err := s.movimientos.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovimientoStockResponse, len(movs))
	for i, m := range movs {
		data[i] = dto.MovimientoStockResponse{
			ID:            m.ID.String(),
			ItemID:        m.ItemID.String(),
			Bodega:        m.Bodega,
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Referencia:    m.Referencia,
			CreatedAt:     m.CreatedAt,
		}
		if m.Item != nil {
			data[i].ItemNombre = m.Item.Nombre
		}
	}
	return &dto.MovimientoStockListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func itemToResponse(it *model.ItemInventario) dto.ItemResponse {
	compat := []string(it.Compatibles)
	if compat == nil {
		compat = []string{}
	}
	return dto.ItemResponse{
		ID:          it.ID.String(),
		Nombre:      it.Nombre,
		Tipo:        it.Tipo,
		SKU:         it.SKU,
		PrecioVenta: it.PrecioVenta,
		PrecioCosto: it.PrecioCosto,
		StockMinimo: it.StockMinimo,
		Compatibles: compat,
		Stock:       it.StockPorBodega(),
		StockTotal:  it.StockTotal(),
		BajoMinimo:  it.BajoMinimo(),
	}
}

func limpiarSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	v := strings.TrimSpace(*sku)
	if v == "" {
		return nil
	}
	return &v
}

func limpiarCompatibles(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// lineasDeOrden convierte las líneas de una OT al formato de lote de stock.
func lineasDeOrden(items []model.ItemOrden) []dto.LineaStock {
	out := make([]dto.LineaStock, 0, len(items))
	for _, it := range items {
		if it.ItemID == nil {
			continue
		}
		out = append(out, dto.LineaStock{ItemID: it.ItemID.String(), Nombre: it.Nombre, Tipo: it.Tipo, Cantidad: it.Cantidad})
	}
	return out
}
