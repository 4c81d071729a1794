package service

import (
	"context"
	"fmt"
	"time"

	"servitec/internal/calculo"
	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RemuneracionService interface {
	// Liquidacion lista las órdenes pagables del técnico en el mes y calcula
	// la comisión de cada una sobre el neto de sus servicios.
	Liquidacion(ctx context.Context, req dto.LiquidacionRequest) (*dto.LiquidacionResponse, error)
	// Resumen calcula la liquidación restringida a las órdenes elegidas.
	Resumen(ctx context.Context, req dto.PagarRemuneracionRequest) (*dto.LiquidacionResponse, error)
	// Pagar registra el egreso por el líquido y marca las órdenes pagadas,
	// ambos en una transacción.
	Pagar(ctx context.Context, req dto.PagarRemuneracionRequest) (*dto.PagoRemuneracionResponse, error)
}

type remuneracionService struct {
	ordenes   repository.OrdenRepository
	items     repository.ItemRepository
	flujo     repository.FlujoRepository
	cache     CacheJSON
	comision  decimal.Decimal
	iva       decimal.Decimal
	retencion decimal.Decimal
}

// NewRemuneracionService recibe las tasas por defecto; cada request puede
// sobreescribirlas.
func NewRemuneracionService(
	ordenes repository.OrdenRepository,
	items repository.ItemRepository,
	flujo repository.FlujoRepository,
	cache CacheJSON,
	comision, iva, retencion decimal.Decimal,
) RemuneracionService {
	return &remuneracionService{
		ordenes:   ordenes,
		items:     items,
		flujo:     flujo,
		cache:     cache,
		comision:  comision,
		iva:       iva,
		retencion: retencion,
	}
}

func (s *remuneracionService) tasas(t dto.TasasRemuneracion) (dto.TasasAplicadas, error) {
	out := dto.TasasAplicadas{Comision: s.comision, IVA: s.iva, Retencion: s.retencion}
	if t.Comision != nil {
		out.Comision = *t.Comision
	}
	if t.IVA != nil {
		out.IVA = *t.IVA
	}
	if t.Retencion != nil {
		out.Retencion = *t.Retencion
	}
	uno := decimal.NewFromInt(1)
	if out.Comision.IsNegative() || out.Comision.GreaterThan(uno) {
		return out, invalido("tasa de comisión fuera de rango")
	}
	if out.IVA.IsNegative() {
		return out, invalido("tasa de IVA negativa")
	}
	if out.Retencion.IsNegative() || out.Retencion.GreaterThanOrEqual(uno) {
		return out, invalido("tasa de retención fuera de rango")
	}
	return out, nil
}

func (s *remuneracionService) Liquidacion(ctx context.Context, req dto.LiquidacionRequest) (*dto.LiquidacionResponse, error) {
	return s.calcular(ctx, req.Tecnico, req.Mes, nil, req.TasasRemuneracion)
}

func (s *remuneracionService) Resumen(ctx context.Context, req dto.PagarRemuneracionRequest) (*dto.LiquidacionResponse, error) {
	ids, err := parseIDs(req.OrdenIDs)
	if err != nil {
		return nil, err
	}
	return s.calcular(ctx, req.Tecnico, req.Mes, ids, req.TasasRemuneracion)
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	vistos := make(map[uuid.UUID]bool, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, invalido("orden_id %q no es un UUID", r)
		}
		if !vistos[id] {
			vistos[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// calcular arma la liquidación. Con seleccion != nil solo incluye esas
// órdenes y exige que todas sean liquidables.
func (s *remuneracionService) calcular(ctx context.Context, tecnico, mes string, seleccion []uuid.UUID, t dto.TasasRemuneracion) (*dto.LiquidacionResponse, error) {
	tasas, err := s.tasas(t)
	if err != nil {
		return nil, err
	}
	desde, hasta, err := rangoMes(mes)
	if err != nil {
		return nil, err
	}
	ordenes, err := s.ordenes.ListLiquidables(ctx, tecnico, desde, hasta)
	if err != nil {
		return nil, err
	}

	if seleccion != nil {
		porID := make(map[uuid.UUID]model.OrdenTrabajo, len(ordenes))
		for _, o := range ordenes {
			porID[o.ID] = o
		}
		elegidas := make([]model.OrdenTrabajo, 0, len(seleccion))
		for _, id := range seleccion {
			o, ok := porID[id]
			if !ok {
				return nil, invalido("la orden %s no es liquidable para %s en %s", id, tecnico, mes)
			}
			elegidas = append(elegidas, o)
		}
		ordenes = elegidas
	}

	tipos, err := s.tiposSinResolver(ctx, ordenes)
	if err != nil {
		return nil, err
	}

	resp := &dto.LiquidacionResponse{
		Tecnico:       tecnico,
		Mes:           mes,
		Tasas:         tasas,
		Ordenes:       make([]dto.OrdenComisionResponse, 0, len(ordenes)),
		TotalComision: decimal.Zero,
	}
	for _, o := range ordenes {
		bruto := brutoServicio(o.Items, tipos)
		neto, com := calculo.ComisionServicio(bruto, tasas.IVA, tasas.Comision)
		fila := dto.OrdenComisionResponse{
			OrdenID:       o.ID.String(),
			Codigo:        o.Codigo,
			Fecha:         o.CreatedAt,
			CostoTotal:    o.CostoTotal,
			BrutoServicio: bruto,
			NetoServicio:  neto,
			Comision:      com,
		}
		if o.Cliente != nil {
			fila.Cliente = o.Cliente.DisplayName()
		}
		resp.Ordenes = append(resp.Ordenes, fila)
		resp.TotalComision = resp.TotalComision.Add(com)
	}
	h := calculo.GrossUp(resp.TotalComision, tasas.Retencion)
	resp.Honorarios = dto.HonorariosResponse{Bruto: h.Bruto, Retenido: h.Retenido, Liquido: h.Liquido}
	return resp, nil
}

// tiposSinResolver busca en inventario el tipo de las líneas que no lo
// guardaron.
func (s *remuneracionService) tiposSinResolver(ctx context.Context, ordenes []model.OrdenTrabajo) (map[uuid.UUID]string, error) {
	var ids []uuid.UUID
	for _, o := range ordenes {
		for _, it := range o.Items {
			if it.Tipo == "" && it.ItemID != nil {
				ids = append(ids, *it.ItemID)
			}
		}
	}
	tipos := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return tipos, nil
	}
	items, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		tipos[it.ID] = it.Tipo
	}
	return tipos, nil
}

func brutoServicio(items []model.ItemOrden, tipos map[uuid.UUID]string) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		tipo := it.Tipo
		if tipo == "" && it.ItemID != nil {
			tipo = tipos[*it.ItemID]
		}
		if tipo == model.TipoServicio {
			total = total.Add(it.Subtotal())
		}
	}
	return total
}

func (s *remuneracionService) Pagar(ctx context.Context, req dto.PagarRemuneracionRequest) (*dto.PagoRemuneracionResponse, error) {
	liq, err := s.Resumen(ctx, req)
	if err != nil {
		return nil, err
	}
	if !liq.Honorarios.Liquido.IsPositive() {
		return nil, invalido("las órdenes seleccionadas no generan comisión")
	}

	ids := make([]uuid.UUID, len(liq.Ordenes))
	codigos := make([]string, len(liq.Ordenes))
	for i, o := range liq.Ordenes {
		ids[i] = uuid.MustParse(o.OrdenID)
		codigos[i] = o.Codigo
	}

	metodo := req.MetodoPago
	if metodo == "" {
		metodo = model.PagoTransferencia
	}
	h := liq.Honorarios
	egreso := &model.MovimientoFlujo{
		Fecha:     time.Now(),
		Tipo:      model.FlujoEgreso,
		Categoria: model.CatRemuneraciones,
		Descripcion: fmt.Sprintf("Honorarios %s %s (bruto %s, retención %s)",
			req.Tecnico, req.Mes, h.Bruto.StringFixed(0), h.Retenido.StringFixed(0)),
		MetodoPago:      metodo,
		MontoNeto:       h.Liquido,
		MontoIVA:        decimal.Zero,
		MontoTotal:      h.Liquido,
		MontoRecibido:   h.Liquido,
		TipoDocumento:   calculo.DocBoletaHonorarios,
		NumeroDocumento: req.NumeroDocumento,
		Estado:          model.EstadoPorMetodoPago(metodo),
	}

	err = runTx(ctx, s.ordenes.DB(), func(tx *gorm.DB) error {
		if err := s.flujo.Create(ctx, tx, egreso); err != nil {
			return err
		}
		n, err := s.ordenes.MarcarTecnicoPagado(ctx, tx, ids)
		if err != nil {
			return err
		}
		if int(n) != len(ids) {
			return invalido("%d de %d órdenes ya estaban pagadas", len(ids)-int(n), len(ids))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidarDashboard(ctx, s.cache)
	log.Info().Str("tecnico", req.Tecnico).Str("mes", req.Mes).Int("ordenes", len(ids)).
		Str("liquido", h.Liquido.String()).Msg("remuneraciones: pago registrado")

	return &dto.PagoRemuneracionResponse{
		Movimiento:     flujoToResponse(egreso),
		OrdenesPagadas: codigos,
		Honorarios:     h,
	}, nil
}
