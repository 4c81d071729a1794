package repository

import (
	"context"
	"strings"
	"time"

	"servitec/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FlujoFilter filtra el libro de flujo de caja. Desde/Hasta acotan la fecha
// del movimiento en [Desde, Hasta).
type FlujoFilter struct {
	Desde     *time.Time
	Hasta     *time.Time
	Tipo      string
	Categoria string
	Estado    string
	Page      int
	Limit     int
}

type FlujoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, m *model.MovimientoFlujo) error
	// CreateIdempotente inserta solo si no existe otro movimiento con la
	// misma Referencia. Si ya existía, m queda con el movimiento existente y
	// creado es false.
	CreateIdempotente(ctx context.Context, tx *gorm.DB, m *model.MovimientoFlujo) (creado bool, err error)
	Update(ctx context.Context, m *model.MovimientoFlujo) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MovimientoFlujo, error)
	FindByReferencia(ctx context.Context, tx *gorm.DB, referencia string) (*model.MovimientoFlujo, error)
	List(ctx context.Context, filter FlujoFilter) ([]model.MovimientoFlujo, int64, error)
	// ListPorCliente trae los movimientos ligados al cliente por id o, en
	// registros antiguos, por su nombre en la descripción.
	ListPorCliente(ctx context.Context, clienteID uuid.UUID, nombre string) ([]model.MovimientoFlujo, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DB() *gorm.DB
}

type flujoRepo struct{ db *gorm.DB }

func NewFlujoRepository(db *gorm.DB) FlujoRepository { return &flujoRepo{db: db} }

func (r *flujoRepo) DB() *gorm.DB { return r.db }

func (r *flujoRepo) Create(ctx context.Context, tx *gorm.DB, m *model.MovimientoFlujo) error {
	return traducir(conn(r.db, tx).WithContext(ctx).Create(m).Error)
}

func (r *flujoRepo) CreateIdempotente(ctx context.Context, tx *gorm.DB, m *model.MovimientoFlujo) (bool, error) {
	if m.Referencia == nil {
		return true, r.Create(ctx, tx, m)
	}
	db := conn(r.db, tx).WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "referencia"}},
		DoNothing: true,
	}).Create(m)
	if res.Error != nil {
		if !esViolacionUnica(res.Error) {
			return false, res.Error
		}
	} else if res.RowsAffected > 0 {
		return true, nil
	}

	existente, err := r.FindByReferencia(ctx, tx, *m.Referencia)
	if err != nil {
		return false, err
	}
	*m = *existente
	return false, nil
}

func (r *flujoRepo) Update(ctx context.Context, m *model.MovimientoFlujo) error {
	return traducir(r.db.WithContext(ctx).Save(m).Error)
}

func (r *flujoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.MovimientoFlujo, error) {
	var m model.MovimientoFlujo
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *flujoRepo) FindByReferencia(ctx context.Context, tx *gorm.DB, referencia string) (*model.MovimientoFlujo, error) {
	var m model.MovimientoFlujo
	err := conn(r.db, tx).WithContext(ctx).Where("referencia = ?", referencia).First(&m).Error
	return &m, err
}

func (r *flujoRepo) List(ctx context.Context, filter FlujoFilter) ([]model.MovimientoFlujo, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoFlujo{})
	if filter.Desde != nil {
		q = q.Where("fecha >= ?", *filter.Desde)
	}
	if filter.Hasta != nil {
		q = q.Where("fecha < ?", *filter.Hasta)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.Categoria != "" {
		q = q.Where("categoria = ?", filter.Categoria)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginar(filter.Page, filter.Limit, 50, 500)

	var movs []model.MovimientoFlujo
	err := q.Order("fecha DESC, created_at DESC").Offset(offset).Limit(limit).Find(&movs).Error
	return movs, total, err
}

func (r *flujoRepo) ListPorCliente(ctx context.Context, clienteID uuid.UUID, nombre string) ([]model.MovimientoFlujo, error) {
	var movs []model.MovimientoFlujo
	q := r.db.WithContext(ctx).Where("cliente_id = ?", clienteID)
	if n := strings.TrimSpace(nombre); n != "" {
		q = q.Or("cliente_id IS NULL AND descripcion ILIKE ?", contiene(n))
	}
	err := q.Order("fecha DESC").Find(&movs).Error
	return movs, err
}

func (r *flujoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.MovimientoFlujo{}, "id = ?", id).Error
}
