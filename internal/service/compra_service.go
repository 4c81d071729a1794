package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"servitec/internal/calculo"
	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CompraService interface {
	// Crear registra la orden de compra y su egreso en una sola transacción.
	Crear(ctx context.Context, req dto.CrearOrdenCompraRequest) (*dto.OrdenCompraResponse, error)
	// Recibir ingresa la mercadería a Bodega Local. Una segunda recepción
	// devuelve ErrOrdenCompraRecibida.
	Recibir(ctx context.Context, id uuid.UUID) (*dto.RecepcionCompraResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.OrdenCompraResponse, error)
	Listar(ctx context.Context, estado string) ([]dto.OrdenCompraResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type compraService struct {
	compras    repository.CompraRepository
	items      repository.ItemRepository
	flujo      repository.FlujoRepository
	inventario InventarioService
	cache      CacheJSON
	tasaIVA    decimal.Decimal
}

func NewCompraService(
	compras repository.CompraRepository,
	items repository.ItemRepository,
	flujo repository.FlujoRepository,
	inventario InventarioService,
	cache CacheJSON,
	tasaIVA decimal.Decimal,
) CompraService {
	return &compraService{
		compras:    compras,
		items:      items,
		flujo:      flujo,
		inventario: inventario,
		cache:      cache,
		tasaIVA:    tasaIVA,
	}
}

func (s *compraService) Crear(ctx context.Context, req dto.CrearOrdenCompraRequest) (*dto.OrdenCompraResponse, error) {
	ids := make([]uuid.UUID, len(req.Items))
	for i, l := range req.Items {
		id, err := uuid.Parse(l.ItemID)
		if err != nil {
			return nil, invalido("item_id %q no es un UUID", l.ItemID)
		}
		ids[i] = id
	}
	encontrados, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	nombres := make(map[uuid.UUID]string, len(encontrados))
	for _, it := range encontrados {
		if it.EsServicio() {
			return nil, invalido("%s es un servicio y no se compra", it.Nombre)
		}
		nombres[it.ID] = it.Nombre
	}

	oc := &model.OrdenCompra{
		ID:                uuid.New(),
		Proveedor:         strings.TrimSpace(req.Proveedor),
		CodigoSeguimiento: req.CodigoSeguimiento,
		URLSeguimiento:    req.URLSeguimiento,
		FechaEstimada:     req.FechaEstimada,
		Estado:            model.CompraPendiente,
	}
	for i, l := range req.Items {
		nombre, ok := nombres[ids[i]]
		if !ok {
			return nil, fmt.Errorf("item %s: %w", l.ItemID, ErrNoEncontrado)
		}
		oc.Items = append(oc.Items, model.ItemCompra{
			ItemID: ids[i], Nombre: nombre, Cantidad: l.Cantidad, CostoCompra: l.CostoCompra.Round(0),
		})
	}
	oc.CostoTotal = decimal.Zero
	for _, it := range oc.Items {
		oc.CostoTotal = oc.CostoTotal.Add(it.Subtotal())
	}

	tipoDoc := req.TipoDocumento
	if tipoDoc == "" {
		tipoDoc = calculo.DocFactura
	}
	d := calculo.DesglosarTotal(oc.CostoTotal, s.tasaIVA, calculo.EsGravado(tipoDoc))
	snapshot, _ := json.Marshal(oc.Items)
	ref := oc.Referencia()
	egreso := &model.MovimientoFlujo{
		Fecha:           time.Now(),
		Tipo:            model.FlujoEgreso,
		Categoria:       model.CatCompraMercaderia,
		Descripcion:     "Compra a " + oc.Proveedor,
		MetodoPago:      req.MetodoPago,
		MontoNeto:       d.Neto,
		MontoIVA:        d.IVA,
		MontoTotal:      d.Total,
		MontoRecibido:   d.Total,
		TipoDocumento:   tipoDoc,
		NumeroDocumento: req.NumeroDocumento,
		Estado:          model.EstadoPorMetodoPago(req.MetodoPago),
		Items:           datatypes.JSON(snapshot),
		Referencia:      &ref,
	}

	err = runTx(ctx, s.compras.DB(), func(tx *gorm.DB) error {
		if err := s.compras.Create(ctx, tx, oc); err != nil {
			return err
		}
		return s.flujo.Create(ctx, tx, egreso)
	})
	if err != nil {
		return nil, err
	}
	invalidarDashboard(ctx, s.cache)
	resp := compraToResponse(oc)
	return &resp, nil
}

func (s *compraService) Recibir(ctx context.Context, id uuid.UUID) (*dto.RecepcionCompraResponse, error) {
	oc, err := s.compras.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "orden de compra")
	}
	if oc.Estado == model.CompraRecibida {
		return nil, ErrOrdenCompraRecibida
	}
	ahora := time.Now()
	ok, err := s.compras.MarcarRecibida(ctx, nil, id, ahora)
	if err != nil {
		return nil, err
	}
	if !ok {
		// otra petición la recibió entre la lectura y el update
		return nil, ErrOrdenCompraRecibida
	}
	oc.Estado = model.CompraRecibida
	oc.RecibidoAt = &ahora

	lineas := make([]dto.LineaStock, len(oc.Items))
	for i, it := range oc.Items {
		lineas[i] = dto.LineaStock{ItemID: it.ItemID.String(), Nombre: it.Nombre, Cantidad: it.Cantidad}
	}
	res := s.inventario.IngresarStock(ctx, lineas, model.BodegaLocal, model.MovRecepcionCompra, oc.Referencia())
	for _, r := range res {
		if !r.OK {
			log.Warn().Str("orden_compra", id.String()).Str("item_id", r.ItemID).Str("error", r.Error).
				Msg("compras: línea no ingresada a bodega")
		}
	}
	return &dto.RecepcionCompraResponse{Orden: compraToResponse(oc), Stock: res}, nil
}

func (s *compraService) Obtener(ctx context.Context, id uuid.UUID) (*dto.OrdenCompraResponse, error) {
	oc, err := s.compras.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "orden de compra")
	}
	resp := compraToResponse(oc)
	return &resp, nil
}

func (s *compraService) Listar(ctx context.Context, estado string) ([]dto.OrdenCompraResponse, error) {
	ocs, err := s.compras.List(ctx, estado)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.OrdenCompraResponse, len(ocs))
	for i := range ocs {
		resp[i] = compraToResponse(&ocs[i])
	}
	return resp, nil
}

// Eliminar solo borra órdenes pendientes; el egreso ya registrado se
// mantiene y se anula desde el flujo de caja si corresponde.
func (s *compraService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.compras.FindByID(ctx, id); err != nil {
		return noEncontrado(err, "orden de compra")
	}
	ok, err := s.compras.DeletePendiente(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOrdenCompraRecibida
	}
	return nil
}

func compraToResponse(oc *model.OrdenCompra) dto.OrdenCompraResponse {
	items := make([]dto.ItemCompraResponse, len(oc.Items))
	for i, it := range oc.Items {
		items[i] = dto.ItemCompraResponse{
			ItemID:      it.ItemID.String(),
			Nombre:      it.Nombre,
			Cantidad:    it.Cantidad,
			CostoCompra: it.CostoCompra,
			Subtotal:    it.Subtotal(),
		}
	}
	return dto.OrdenCompraResponse{
		ID:                oc.ID.String(),
		Proveedor:         oc.Proveedor,
		Items:             items,
		CostoTotal:        oc.CostoTotal,
		CodigoSeguimiento: oc.CodigoSeguimiento,
		URLSeguimiento:    oc.URLSeguimiento,
		FechaEstimada:     oc.FechaEstimada,
		Estado:            oc.Estado,
		RecibidoAt:        oc.RecibidoAt,
		CreatedAt:         oc.CreatedAt,
	}
}
