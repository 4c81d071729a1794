package repository

import (
	"context"
	"time"

	"servitec/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EstadisticasMes es el resultado crudo del agregado mensual.
type EstadisticasMes struct {
	OrdenesPorEstado    map[string]int64
	OrdenesAbiertas     int64
	Ingresos            decimal.Decimal
	Egresos             decimal.Decimal
	IVADebito           decimal.Decimal
	IVACredito          decimal.Decimal
	PendienteCobro      decimal.Decimal
	ComisionesEcommerce decimal.Decimal
	ItemsBajoMinimo     int64
}

type DashboardRepository interface {
	Estadisticas(ctx context.Context, desde, hasta time.Time) (*EstadisticasMes, error)
}

type dashboardRepo struct{ db *gorm.DB }

func NewDashboardRepository(db *gorm.DB) DashboardRepository { return &dashboardRepo{db: db} }

func (r *dashboardRepo) Estadisticas(ctx context.Context, desde, hasta time.Time) (*EstadisticasMes, error) {
	db := r.db.WithContext(ctx)
	stats := &EstadisticasMes{OrdenesPorEstado: make(map[string]int64)}

	var porEstado []struct {
		Estado string
		Total  int64
	}
	if err := db.Raw(`
		SELECT estado, COUNT(*) AS total
		FROM ordenes_trabajo
		WHERE created_at >= ? AND created_at < ?
		GROUP BY estado`, desde, hasta).Scan(&porEstado).Error; err != nil {
		return nil, err
	}
	for _, e := range porEstado {
		stats.OrdenesPorEstado[e.Estado] = e.Total
	}

	if err := db.Raw(`
		SELECT COUNT(*) FROM ordenes_trabajo WHERE estado NOT IN (?, ?)`,
		model.EstadoFinalizadoPagado, model.EstadoCancelado).Scan(&stats.OrdenesAbiertas).Error; err != nil {
		return nil, err
	}

	var flujo struct {
		Ingresos       decimal.Decimal
		Egresos        decimal.Decimal
		IVADebito      decimal.Decimal
		IVACredito     decimal.Decimal
		PendienteCobro decimal.Decimal
		Comisiones     decimal.Decimal
	}
	if err := db.Raw(`
		SELECT
		  COALESCE(SUM(monto_total) FILTER (WHERE tipo = 'ingreso'), 0)                          AS ingresos,
		  COALESCE(SUM(monto_total) FILTER (WHERE tipo = 'egreso'), 0)                           AS egresos,
		  COALESCE(SUM(monto_iva)   FILTER (WHERE tipo = 'ingreso'), 0)                          AS iva_debito,
		  COALESCE(SUM(monto_iva)   FILTER (WHERE tipo = 'egreso'), 0)                           AS iva_credito,
		  COALESCE(SUM(monto_total) FILTER (WHERE tipo = 'ingreso' AND estado = 'pendiente'), 0) AS pendiente_cobro,
		  COALESCE(SUM(comision_plataforma) FILTER (WHERE es_ecommerce), 0)                      AS comisiones
		FROM flujo_caja
		WHERE fecha >= ? AND fecha < ?`, desde, hasta).Scan(&flujo).Error; err != nil {
		return nil, err
	}
	stats.Ingresos = flujo.Ingresos
	stats.Egresos = flujo.Egresos
	stats.IVADebito = flujo.IVADebito
	stats.IVACredito = flujo.IVACredito
	stats.PendienteCobro = flujo.PendienteCobro
	stats.ComisionesEcommerce = flujo.Comisiones

	if err := db.Raw(`
		SELECT COUNT(*) FROM (
		  SELECT i.id
		  FROM items_inventario i
		  LEFT JOIN stock_bodegas s ON s.item_id = i.id
		  WHERE i.tipo <> ?
		  GROUP BY i.id
		  HAVING COALESCE(SUM(s.cantidad), 0) < i.stock_minimo
		) bajo`, model.TipoServicio).Scan(&stats.ItemsBajoMinimo).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
