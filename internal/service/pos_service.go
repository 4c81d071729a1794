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
)

type POSService interface {
	// Checkout registra una venta de mostrador: un ingreso en el flujo de caja
	// y el descuento de stock de cada línea física.
	Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type posService struct {
	items         repository.ItemRepository
	flujo         repository.FlujoRepository
	inventario    InventarioService
	cache         CacheJSON
	tasaIVA       decimal.Decimal
	bodegaDefault string
}

func NewPOSService(
	items repository.ItemRepository,
	flujo repository.FlujoRepository,
	inventario InventarioService,
	cache CacheJSON,
	tasaIVA decimal.Decimal,
	bodegaDefault string,
) POSService {
	if bodegaDefault == "" {
		bodegaDefault = model.BodegaLocal
	}
	return &posService{
		items:         items,
		flujo:         flujo,
		inventario:    inventario,
		cache:         cache,
		tasaIVA:       tasaIVA,
		bodegaDefault: bodegaDefault,
	}
}

type lineaVenta struct {
	Nombre         string          `json:"nombre"`
	Tipo           string          `json:"tipo"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

func (s *posService) Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	bodega := req.Bodega
	if bodega == "" {
		bodega = s.bodegaDefault
	}
	if !bodegaValida(bodega) {
		return nil, invalido("bodega desconocida %q", bodega)
	}
	clienteID, err := parseUUIDOpcional(req.ClienteID, "cliente_id")
	if err != nil {
		return nil, err
	}

	var ref *string
	if req.Referencia != nil && strings.TrimSpace(*req.Referencia) != "" {
		ref = strPtr("POS-" + strings.TrimSpace(*req.Referencia))
		if prev, err := s.flujo.FindByReferencia(ctx, nil, *ref); err == nil {
			return &dto.CheckoutResponse{Movimiento: flujoToResponse(prev), Stock: []dto.ResultadoStock{}, Duplicado: true}, nil
		} else if !repository.IsNotFound(err) {
			return nil, err
		}
	}

	// 1. Resolver ítems y validar stock en la bodega
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
	porID := make(map[uuid.UUID]*model.ItemInventario, len(encontrados))
	for i := range encontrados {
		porID[encontrados[i].ID] = &encontrados[i]
	}

	pedido := make(map[uuid.UUID]int)
	lineas := make([]lineaVenta, len(req.Items))
	stock := make([]dto.LineaStock, len(req.Items))
	total := decimal.Zero
	for i, l := range req.Items {
		item, ok := porID[ids[i]]
		if !ok {
			return nil, fmt.Errorf("item %s: %w", l.ItemID, ErrNoEncontrado)
		}
		precio := item.PrecioVenta
		if l.PrecioUnitario != nil {
			precio = l.PrecioUnitario.Round(0)
		}
		if precio.IsNegative() {
			return nil, invalido("precio negativo en %s", item.Nombre)
		}
		sub := precio.Mul(decimal.NewFromInt(int64(l.Cantidad)))
		lineas[i] = lineaVenta{Nombre: item.Nombre, Tipo: item.Tipo, Cantidad: l.Cantidad, PrecioUnitario: precio, Subtotal: sub}
		stock[i] = dto.LineaStock{ItemID: item.ID.String(), Nombre: item.Nombre, Tipo: item.Tipo, Cantidad: l.Cantidad}
		total = total.Add(sub)

		if !item.EsServicio() {
			pedido[item.ID] += l.Cantidad
			if disp := item.StockEn(bodega); pedido[item.ID] > disp {
				return nil, fmt.Errorf("%w: %s tiene %d en %s", ErrStockInsuficiente, item.Nombre, disp, bodega)
			}
		}
	}

	// 2. Ingreso en el flujo de caja
	tipoDoc := req.TipoDocumento
	if tipoDoc == "" {
		tipoDoc = calculo.DocBoleta
	}
	recibido := decimal.Zero
	if req.MontoRecibido != nil {
		recibido = *req.MontoRecibido
	}
	montos := calculo.Derivar(calculo.Edicion{
		Campo:     calculo.CampoTotal,
		Valor:     total,
		Tasa:      s.tasaIVA,
		Gravado:   calculo.EsGravado(tipoDoc),
		Ecommerce: req.EsEcommerce,
		Recibido:  recibido,
	})
	snapshot, _ := json.Marshal(lineas)

	m := &model.MovimientoFlujo{
		Fecha:              time.Now(),
		Tipo:               model.FlujoIngreso,
		Categoria:          model.CatVentaProducto,
		Descripcion:        descripcionVenta(lineas),
		MetodoPago:         req.MetodoPago,
		MontoNeto:          montos.Neto,
		MontoIVA:           montos.IVA,
		MontoTotal:         montos.Total,
		MontoRecibido:      montos.Recibido,
		ComisionPlataforma: montos.Comision,
		TipoDocumento:      tipoDoc,
		NumeroDocumento:    req.NumeroDocumento,
		EsEcommerce:        req.EsEcommerce,
		Estado:             model.EstadoPorMetodoPago(req.MetodoPago),
		Items:              datatypes.JSON(snapshot),
		ClienteID:          clienteID,
		Referencia:         ref,
	}
	creado, err := s.flujo.CreateIdempotente(ctx, nil, m)
	if err != nil {
		return nil, err
	}
	if !creado {
		return &dto.CheckoutResponse{Movimiento: flujoToResponse(m), Stock: []dto.ResultadoStock{}, Duplicado: true}, nil
	}
	invalidarDashboard(ctx, s.cache)

	// 3. Descuento de stock, una goroutine por línea
	refStock := m.ID.String()
	if ref != nil {
		refStock = *ref
	}
	resultados := s.inventario.DescontarStock(ctx, stock, bodega, model.MovVentaPOS, refStock)
	for _, r := range resultados {
		if !r.OK {
			log.Warn().Str("movimiento", m.ID.String()).Str("item_id", r.ItemID).Str("error", r.Error).
				Msg("pos: venta registrada con stock no descontado")
		}
	}

	return &dto.CheckoutResponse{Movimiento: flujoToResponse(m), Stock: resultados}, nil
}

func descripcionVenta(lineas []lineaVenta) string {
	partes := make([]string, len(lineas))
	for i, l := range lineas {
		partes[i] = fmt.Sprintf("%dx %s", l.Cantidad, l.Nombre)
	}
	d := "Venta POS: " + strings.Join(partes, ", ")
	if r := []rune(d); len(r) > 480 {
		d = string(r[:479]) + "…"
	}
	return d
}
