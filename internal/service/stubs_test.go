package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/repository"
	"servitec/internal/service"
	"servitec/internal/sesion"
	"servitec/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	_ repository.ItemRepository            = (*stubItemRepo)(nil)
	_ repository.MovimientoStockRepository = (*stubMovStockRepo)(nil)
	_ repository.FlujoRepository           = (*stubFlujoRepo)(nil)
	_ repository.OrdenRepository           = (*stubOrdenRepo)(nil)
	_ repository.ClienteRepository         = (*stubClienteRepo)(nil)
	_ repository.EquipoRepository          = (*stubEquipoRepo)(nil)
	_ repository.CompraRepository          = (*stubCompraRepo)(nil)
	_ repository.DashboardRepository       = (*stubDashboardRepo)(nil)
	_ repository.UsuarioRepository         = (*stubUsuarioRepo)(nil)
	_ service.CacheJSON                    = (*stubCache)(nil)
	_ service.DespachadorDocumentos        = (*stubDispatcher)(nil)
	_ worker.Archivos                      = (*stubArchivos)(nil)
)

var tasaIVA = decimal.NewFromFloat(0.19)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

var (
	sesAdmin = sesion.Sesion{UsuarioID: uuid.New(), Username: "admin", Nombre: "Admin", Rol: model.RolAdmin}
	sesCoord = sesion.Sesion{UsuarioID: uuid.New(), Username: "coord", Nombre: "Carla", Rol: model.RolCoordinador}
)

func sesTecnico(nombre string) sesion.Sesion {
	return sesion.Sesion{UsuarioID: uuid.New(), Username: strings.ToLower(nombre), Nombre: nombre, Rol: model.RolTecnico}
}

// ── In-memory ItemRepository stub ────────────────────────────────────────────

type stubItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.ItemInventario
	movs  []model.MovimientoStock
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[uuid.UUID]*model.ItemInventario)}
}

func copiarItem(it *model.ItemInventario) *model.ItemInventario {
	c := *it
	c.Stock = append([]model.StockBodega(nil), it.Stock...)
	c.Compatibles = append([]string(nil), it.Compatibles...)
	return &c
}

// agregar registra un ítem con stock inicial por bodega.
func (r *stubItemRepo) agregar(nombre, tipo string, precio int64, stock map[string]int) *model.ItemInventario {
	it := &model.ItemInventario{ID: uuid.New(), Nombre: nombre, Tipo: tipo, PrecioVenta: d(precio)}
	for b, c := range stock {
		it.Stock = append(it.Stock, model.StockBodega{ID: uuid.New(), ItemID: it.ID, Bodega: b, Cantidad: c})
	}
	r.mu.Lock()
	r.items[it.ID] = it
	r.mu.Unlock()
	return copiarItem(it)
}

func (r *stubItemRepo) stock(id uuid.UUID, bodega string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].StockEn(bodega)
}

func (r *stubItemRepo) movimientos() []model.MovimientoStock {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.MovimientoStock(nil), r.movs...)
}

func (r *stubItemRepo) Create(_ context.Context, item *model.ItemInventario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.SKU != nil {
		for _, it := range r.items {
			if it.SKU != nil && *it.SKU == *item.SKU {
				return repository.ErrDuplicado
			}
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = copiarItem(item)
	return nil
}

func (r *stubItemRepo) Update(_ context.Context, item *model.ItemInventario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.items[item.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c := copiarItem(item)
	c.Stock = prev.Stock
	r.items[item.ID] = c
	return nil
}

func (r *stubItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ItemInventario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copiarItem(it), nil
}

func (r *stubItemRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.ItemInventario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ItemInventario
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			out = append(out, *copiarItem(it))
		}
	}
	return out, nil
}

func (r *stubItemRepo) FindBySKU(_ context.Context, sku string) (*model.ItemInventario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.SKU != nil && *it.SKU == sku {
			return copiarItem(it), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubItemRepo) List(ctx context.Context, _ dto.ItemFilter) ([]model.ItemInventario, int64, error) {
	all, _ := r.ListAll(ctx)
	return all, int64(len(all)), nil
}

func (r *stubItemRepo) ListAll(_ context.Context) ([]model.ItemInventario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ItemInventario, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, *copiarItem(it))
	}
	return out, nil
}

func (r *stubItemRepo) ListBajoMinimo(ctx context.Context) ([]model.ItemInventario, error) {
	all, _ := r.ListAll(ctx)
	var out []model.ItemInventario
	for _, it := range all {
		if it.BajoMinimo() {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *stubItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *stubItemRepo) AjustarStock(_ context.Context, _ *gorm.DB, a repository.AjusteStock) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[a.ItemID]
	if !ok {
		return 0, 0, gorm.ErrRecordNotFound
	}
	idx := -1
	for i, s := range it.Stock {
		if s.Bodega == a.Bodega {
			idx = i
		}
	}
	if idx < 0 {
		it.Stock = append(it.Stock, model.StockBodega{ID: uuid.New(), ItemID: it.ID, Bodega: a.Bodega})
		idx = len(it.Stock) - 1
	}
	anterior := it.Stock[idx].Cantidad
	nuevo := anterior + a.Delta
	if nuevo < 0 {
		return anterior, anterior, repository.ErrStockInsuficiente
	}
	it.Stock[idx].Cantidad = nuevo
	r.movs = append(r.movs, model.MovimientoStock{
		ID: uuid.New(), ItemID: a.ItemID, Bodega: a.Bodega, Tipo: a.Tipo, Cantidad: a.Delta,
		StockAnterior: anterior, StockNuevo: nuevo, Referencia: a.Referencia, CreatedAt: time.Now(),
	})
	return anterior, nuevo, nil
}

func (r *stubItemRepo) DB() *gorm.DB { return nil }

// ── In-memory MovimientoStockRepository stub ─────────────────────────────────

type stubMovStockRepo struct{ items *stubItemRepo }

func (r *stubMovStockRepo) List(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	var out []model.MovimientoStock
	for _, m := range r.items.movimientos() {
		if f.ItemID != nil && m.ItemID != *f.ItemID {
			continue
		}
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovStockRepo) ListPorReferencia(_ context.Context, ref string) ([]model.MovimientoStock, error) {
	var out []model.MovimientoStock
	for _, m := range r.items.movimientos() {
		if m.Referencia == ref {
			out = append(out, m)
		}
	}
	return out, nil
}

// ── In-memory FlujoRepository stub ───────────────────────────────────────────

type stubFlujoRepo struct {
	mu      sync.Mutex
	movs    map[uuid.UUID]*model.MovimientoFlujo
	orden   []uuid.UUID
	failIdm error
	failNew error
}

func newStubFlujoRepo() *stubFlujoRepo {
	return &stubFlujoRepo{movs: make(map[uuid.UUID]*model.MovimientoFlujo)}
}

func (r *stubFlujoRepo) todos() []model.MovimientoFlujo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.MovimientoFlujo, 0, len(r.orden))
	for _, id := range r.orden {
		if m, ok := r.movs[id]; ok {
			out = append(out, *m)
		}
	}
	return out
}

func (r *stubFlujoRepo) porRef(ref string) *model.MovimientoFlujo {
	for _, m := range r.movs {
		if m.Referencia != nil && *m.Referencia == ref {
			return m
		}
	}
	return nil
}

func (r *stubFlujoRepo) insertar(m *model.MovimientoFlujo) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	c := *m
	r.movs[m.ID] = &c
	r.orden = append(r.orden, m.ID)
}

func (r *stubFlujoRepo) Create(_ context.Context, _ *gorm.DB, m *model.MovimientoFlujo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNew != nil {
		return r.failNew
	}
	if m.Referencia != nil && r.porRef(*m.Referencia) != nil {
		return repository.ErrDuplicado
	}
	r.insertar(m)
	return nil
}

func (r *stubFlujoRepo) CreateIdempotente(_ context.Context, _ *gorm.DB, m *model.MovimientoFlujo) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failIdm != nil {
		return false, r.failIdm
	}
	if m.Referencia != nil {
		if prev := r.porRef(*m.Referencia); prev != nil {
			*m = *prev
			return false, nil
		}
	}
	r.insertar(m)
	return true, nil
}

func (r *stubFlujoRepo) Update(_ context.Context, m *model.MovimientoFlujo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.movs[m.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *m
	r.movs[m.ID] = &c
	return nil
}

func (r *stubFlujoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.MovimientoFlujo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *m
	return &c, nil
}

func (r *stubFlujoRepo) FindByReferencia(_ context.Context, _ *gorm.DB, ref string) (*model.MovimientoFlujo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.porRef(ref)
	if m == nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *m
	return &c, nil
}

func (r *stubFlujoRepo) List(_ context.Context, f repository.FlujoFilter) ([]model.MovimientoFlujo, int64, error) {
	var out []model.MovimientoFlujo
	for _, m := range r.todos() {
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		if f.Desde != nil && m.Fecha.Before(*f.Desde) {
			continue
		}
		if f.Hasta != nil && !m.Fecha.Before(*f.Hasta) {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubFlujoRepo) ListPorCliente(_ context.Context, clienteID uuid.UUID, nombre string) ([]model.MovimientoFlujo, error) {
	var out []model.MovimientoFlujo
	for _, m := range r.todos() {
		if (m.ClienteID != nil && *m.ClienteID == clienteID) || (nombre != "" && strings.Contains(m.Descripcion, nombre)) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubFlujoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.movs, id)
	return nil
}

func (r *stubFlujoRepo) DB() *gorm.DB { return nil }

// ── In-memory OrdenRepository stub ───────────────────────────────────────────

type stubOrdenRepo struct {
	mu       sync.Mutex
	ordenes  map[uuid.UUID]*model.OrdenTrabajo
	seq      int
	clientes *stubClienteRepo
}

func newStubOrdenRepo(clientes *stubClienteRepo) *stubOrdenRepo {
	return &stubOrdenRepo{ordenes: make(map[uuid.UUID]*model.OrdenTrabajo), clientes: clientes}
}

func (r *stubOrdenRepo) copia(o *model.OrdenTrabajo) *model.OrdenTrabajo {
	c := *o
	c.Items = append([]model.ItemOrden(nil), o.Items...)
	if r.clientes != nil {
		if cl, err := r.clientes.FindByID(context.Background(), o.ClienteID); err == nil {
			c.Cliente = cl
		}
	}
	return &c
}

// agregar inserta una orden ya armada (sin pasar por el servicio).
func (r *stubOrdenRepo) agregar(o *model.OrdenTrabajo) *model.OrdenTrabajo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	r.seq++
	if o.Codigo == "" {
		o.Numero = r.seq
		o.Codigo = model.CodigoOrden(r.seq)
	}
	c := *o
	r.ordenes[o.ID] = &c
	return o
}

func (r *stubOrdenRepo) get(id uuid.UUID) *model.OrdenTrabajo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copia(r.ordenes[id])
}

func (r *stubOrdenRepo) Create(_ context.Context, _ *gorm.DB, o *model.OrdenTrabajo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	c := *o
	r.ordenes[o.ID] = &c
	return nil
}

func (r *stubOrdenRepo) Update(_ context.Context, _ *gorm.DB, o *model.OrdenTrabajo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ordenes[o.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	o.UpdatedAt = time.Now()
	c := *o
	c.Cliente, c.ModeloEquipo = nil, nil
	r.ordenes[o.ID] = &c
	return nil
}

func (r *stubOrdenRepo) FindByID(_ context.Context, id uuid.UUID) (*model.OrdenTrabajo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.ordenes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.copia(o), nil
}

func (r *stubOrdenRepo) FindByIDForUpdate(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.OrdenTrabajo, error) {
	return r.FindByID(ctx, id)
}

func (r *stubOrdenRepo) FindByCodigo(_ context.Context, codigo string) (*model.OrdenTrabajo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.ordenes {
		if o.Codigo == codigo {
			return r.copia(o), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrdenRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.OrdenTrabajo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OrdenTrabajo
	for _, id := range ids {
		if o, ok := r.ordenes[id]; ok {
			out = append(out, *r.copia(o))
		}
	}
	return out, nil
}

func (r *stubOrdenRepo) List(_ context.Context, f dto.OrdenFilter) ([]model.OrdenTrabajo, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OrdenTrabajo
	for _, o := range r.ordenes {
		if f.Tecnico != "" && o.Tecnico != f.Tecnico {
			continue
		}
		if f.Estado != "" && o.Estado != f.Estado {
			continue
		}
		out = append(out, *r.copia(o))
	}
	return out, int64(len(out)), nil
}

func (r *stubOrdenRepo) ListPorCliente(_ context.Context, clienteID uuid.UUID) ([]model.OrdenTrabajo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OrdenTrabajo
	for _, o := range r.ordenes {
		if o.ClienteID == clienteID {
			out = append(out, *r.copia(o))
		}
	}
	return out, nil
}

func (r *stubOrdenRepo) ListLiquidables(_ context.Context, tecnico string, desde, hasta time.Time) ([]model.OrdenTrabajo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OrdenTrabajo
	for _, o := range r.ordenes {
		if o.Tecnico != tecnico || o.Estado != model.EstadoFinalizadoPagado || o.TecnicoPagado {
			continue
		}
		if o.CreatedAt.Before(desde) || !o.CreatedAt.Before(hasta) {
			continue
		}
		out = append(out, *r.copia(o))
	}
	return out, nil
}

func (r *stubOrdenRepo) MarcarTecnicoPagado(_ context.Context, _ *gorm.DB, ids []uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if o, ok := r.ordenes[id]; ok && !o.TecnicoPagado {
			o.TecnicoPagado = true
			n++
		}
	}
	return n, nil
}

func (r *stubOrdenRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ordenes, id)
	return nil
}

func (r *stubOrdenRepo) NextNumero(_ context.Context, _ *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *stubOrdenRepo) DB() *gorm.DB { return nil }

// ── In-memory ClienteRepository stub ─────────────────────────────────────────

type stubClienteRepo struct {
	mu       sync.Mutex
	clientes map[uuid.UUID]*model.Cliente
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) agregar(nombre, email string) *model.Cliente {
	c := &model.Cliente{ID: uuid.New(), Tipo: model.ClienteParticular, NombreCompleto: nombre, Email: email}
	r.mu.Lock()
	r.clientes[c.ID] = c
	r.mu.Unlock()
	return c
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClienteRepo) List(_ context.Context, _ dto.ClienteFilter) ([]model.Cliente, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Cliente
	for _, c := range r.clientes {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubClienteRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clientes, id)
	return nil
}

// ── In-memory EquipoRepository stub ──────────────────────────────────────────

type stubEquipoRepo struct {
	mu      sync.Mutex
	modelos map[uuid.UUID]*model.ModeloEquipo
}

func newStubEquipoRepo() *stubEquipoRepo {
	return &stubEquipoRepo{modelos: make(map[uuid.UUID]*model.ModeloEquipo)}
}

func (r *stubEquipoRepo) agregar(tipo, marca, modelo string) *model.ModeloEquipo {
	m := &model.ModeloEquipo{ID: uuid.New(), Tipo: tipo, Marca: marca, Modelo: modelo}
	r.mu.Lock()
	r.modelos[m.ID] = m
	r.mu.Unlock()
	return m
}

// duplicado emula el índice único (marca, modelo). Llamar con mu tomado.
func (r *stubEquipoRepo) duplicado(m *model.ModeloEquipo) bool {
	for _, e := range r.modelos {
		if e.ID != m.ID && e.Marca == m.Marca && e.Modelo == m.Modelo {
			return true
		}
	}
	return false
}

func (r *stubEquipoRepo) Create(_ context.Context, m *model.ModeloEquipo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.duplicado(m) {
		return repository.ErrDuplicado
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	c := *m
	r.modelos[m.ID] = &c
	return nil
}

func (r *stubEquipoRepo) Update(_ context.Context, m *model.ModeloEquipo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.duplicado(m) {
		return repository.ErrDuplicado
	}
	c := *m
	r.modelos[m.ID] = &c
	return nil
}

func (r *stubEquipoRepo) Upsert(_ context.Context, m *model.ModeloEquipo) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.modelos {
		if strings.EqualFold(e.Marca, m.Marca) && strings.EqualFold(e.Modelo, m.Modelo) {
			e.Tipo = m.Tipo
			m.ID = e.ID
			return false, nil
		}
	}
	m.ID = uuid.New()
	c := *m
	r.modelos[m.ID] = &c
	return true, nil
}

func (r *stubEquipoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ModeloEquipo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modelos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *m
	return &c, nil
}

func (r *stubEquipoRepo) List(_ context.Context, q string) ([]model.ModeloEquipo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ModeloEquipo
	for _, m := range r.modelos {
		if q == "" || strings.Contains(strings.ToLower(m.Descripcion()), strings.ToLower(q)) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubEquipoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modelos, id)
	return nil
}

// ── In-memory CompraRepository stub ──────────────────────────────────────────

type stubCompraRepo struct {
	mu      sync.Mutex
	compras map[uuid.UUID]*model.OrdenCompra
}

func newStubCompraRepo() *stubCompraRepo {
	return &stubCompraRepo{compras: make(map[uuid.UUID]*model.OrdenCompra)}
}

func (r *stubCompraRepo) Create(_ context.Context, _ *gorm.DB, oc *model.OrdenCompra) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	oc.CreatedAt = time.Now()
	c := *oc
	r.compras[oc.ID] = &c
	return nil
}

func (r *stubCompraRepo) FindByID(_ context.Context, id uuid.UUID) (*model.OrdenCompra, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oc, ok := r.compras[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *oc
	return &c, nil
}

func (r *stubCompraRepo) List(_ context.Context, estado string) ([]model.OrdenCompra, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OrdenCompra
	for _, oc := range r.compras {
		if estado == "" || oc.Estado == estado {
			out = append(out, *oc)
		}
	}
	return out, nil
}

func (r *stubCompraRepo) MarcarRecibida(_ context.Context, _ *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oc, ok := r.compras[id]
	if !ok || oc.Estado != model.CompraPendiente {
		return false, nil
	}
	oc.Estado = model.CompraRecibida
	oc.RecibidoAt = &at
	return true, nil
}

func (r *stubCompraRepo) DeletePendiente(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oc, ok := r.compras[id]
	if !ok || oc.Estado != model.CompraPendiente {
		return false, nil
	}
	delete(r.compras, id)
	return true, nil
}

func (r *stubCompraRepo) DB() *gorm.DB { return nil }

// ── DashboardRepository stub ─────────────────────────────────────────────────

type stubDashboardRepo struct {
	mu    sync.Mutex
	stats repository.EstadisticasMes
	calls int
}

func (r *stubDashboardRepo) Estadisticas(_ context.Context, _, _ time.Time) (*repository.EstadisticasMes, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	s := r.stats
	return &s, nil
}

// ── In-memory UsuarioRepository stub ─────────────────────────────────────────

type stubUsuarioRepo struct {
	mu       sync.Mutex
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.usuarios {
		if e.Username == u.Username {
			return repository.ErrDuplicado
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	c := *u
	r.usuarios[u.ID] = &c
	return nil
}

func (r *stubUsuarioRepo) FindByLogin(_ context.Context, login string) (*model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.usuarios {
		if !u.Activo {
			continue
		}
		if u.Username == login || (u.Email != nil && strings.EqualFold(*u.Email, login)) {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *u
	return &c, nil
}

func (r *stubUsuarioRepo) List(_ context.Context, incluirInactivos bool) ([]model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Usuario
	for _, u := range r.usuarios {
		if u.Activo || incluirInactivos {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) ListTecnicos(_ context.Context) ([]model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Usuario
	for _, u := range r.usuarios {
		if u.Activo && u.Rol == model.RolTecnico {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *u
	r.usuarios[u.ID] = &c
	return nil
}

func (r *stubUsuarioRepo) SetActivo(_ context.Context, id uuid.UUID, activo bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usuarios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = activo
	return nil
}

// ── Cache / dispatcher / storage stubs ───────────────────────────────────────

type stubCache struct {
	mu           sync.Mutex
	data         map[string][]byte
	invalidacion int
}

func newStubCache() *stubCache { return &stubCache{data: make(map[string][]byte)} }

func (c *stubCache) GetJSON(_ context.Context, key string, dst interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(b, dst)
}

func (c *stubCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = b
	c.mu.Unlock()
	return nil
}

func (c *stubCache) InvalidatePattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidacion++
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type stubDispatcher struct {
	mu   sync.Mutex
	jobs []worker.DocumentoJobPayload
}

func (s *stubDispatcher) EnqueueDocumento(_ context.Context, p worker.DocumentoJobPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, p)
	return nil
}

func (s *stubDispatcher) encolados() []worker.DocumentoJobPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]worker.DocumentoJobPayload(nil), s.jobs...)
}

type stubArchivos struct {
	mu      sync.Mutex
	subidos map[string][]byte
}

func newStubArchivos() *stubArchivos { return &stubArchivos{subidos: make(map[string][]byte)} }

func (s *stubArchivos) Upload(_ context.Context, carpeta, nombre string, r io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	url := "http://storage.local/" + carpeta + "/" + nombre
	s.mu.Lock()
	s.subidos[url] = b
	s.mu.Unlock()
	return url, nil
}

func (s *stubArchivos) Download(_ context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.subidos[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return bytes.Clone(b), nil
}
