package repository

import (
	"context"
	"strings"
	"time"

	"servitec/internal/dto"
	"servitec/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrdenRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.OrdenTrabajo) error
	Update(ctx context.Context, tx *gorm.DB, o *model.OrdenTrabajo) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.OrdenTrabajo, error)
	// FindByIDForUpdate bloquea la fila hasta el fin de la transacción.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.OrdenTrabajo, error)
	FindByCodigo(ctx context.Context, codigo string) (*model.OrdenTrabajo, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.OrdenTrabajo, error)
	List(ctx context.Context, filter dto.OrdenFilter) ([]model.OrdenTrabajo, int64, error)
	ListPorCliente(ctx context.Context, clienteID uuid.UUID) ([]model.OrdenTrabajo, error)
	// ListLiquidables: órdenes Finalizado y Pagado del técnico, sin pagar,
	// creadas en [desde, hasta).
	ListLiquidables(ctx context.Context, tecnico string, desde, hasta time.Time) ([]model.OrdenTrabajo, error)
	MarcarTecnicoPagado(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	NextNumero(ctx context.Context, tx *gorm.DB) (int, error)
	DB() *gorm.DB
}

type ordenRepo struct{ db *gorm.DB }

func NewOrdenRepository(db *gorm.DB) OrdenRepository { return &ordenRepo{db: db} }

func (r *ordenRepo) DB() *gorm.DB { return r.db }

func (r *ordenRepo) Create(ctx context.Context, tx *gorm.DB, o *model.OrdenTrabajo) error {
	return traducir(conn(r.db, tx).WithContext(ctx).Omit(clause.Associations).Create(o).Error)
}

func (r *ordenRepo) Update(ctx context.Context, tx *gorm.DB, o *model.OrdenTrabajo) error {
	return traducir(conn(r.db, tx).WithContext(ctx).Omit(clause.Associations).Save(o).Error)
}

func (r *ordenRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.OrdenTrabajo, error) {
	var o model.OrdenTrabajo
	err := r.db.WithContext(ctx).Preload("Cliente").Preload("ModeloEquipo").First(&o, "id = ?", id).Error
	return &o, err
}

func (r *ordenRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.OrdenTrabajo, error) {
	var o model.OrdenTrabajo
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, "id = ?", id).Error
	return &o, err
}

func (r *ordenRepo) FindByCodigo(ctx context.Context, codigo string) (*model.OrdenTrabajo, error) {
	var o model.OrdenTrabajo
	err := r.db.WithContext(ctx).Preload("ModeloEquipo").
		Where("UPPER(codigo) = UPPER(?)", strings.TrimSpace(codigo)).
		First(&o).Error
	return &o, err
}

func (r *ordenRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.OrdenTrabajo, error) {
	var ordenes []model.OrdenTrabajo
	if len(ids) == 0 {
		return ordenes, nil
	}
	err := r.db.WithContext(ctx).Preload("Cliente").Where("id IN ?", ids).Find(&ordenes).Error
	return ordenes, err
}

func (r *ordenRepo) List(ctx context.Context, filter dto.OrdenFilter) ([]model.OrdenTrabajo, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.OrdenTrabajo{})
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Tecnico != "" {
		q = q.Where("tecnico = ?", filter.Tecnico)
	}
	if s := strings.TrimSpace(filter.Q); s != "" {
		like := contiene(s)
		q = q.Where("codigo ILIKE ? OR falla ILIKE ? OR cliente_id IN (?)", like, like,
			r.db.Model(&model.Cliente{}).Select("id").
				Where("nombre_completo ILIKE ? OR razon_social ILIKE ?", like, like))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginar(filter.Page, filter.Limit, 20, 100)

	var ordenes []model.OrdenTrabajo
	err := q.Preload("Cliente").Preload("ModeloEquipo").
		Order("numero DESC").
		Offset(offset).Limit(limit).
		Find(&ordenes).Error
	return ordenes, total, err
}

func (r *ordenRepo) ListPorCliente(ctx context.Context, clienteID uuid.UUID) ([]model.OrdenTrabajo, error) {
	var ordenes []model.OrdenTrabajo
	err := r.db.WithContext(ctx).Preload("ModeloEquipo").
		Where("cliente_id = ?", clienteID).
		Order("created_at DESC").Find(&ordenes).Error
	return ordenes, err
}

func (r *ordenRepo) ListLiquidables(ctx context.Context, tecnico string, desde, hasta time.Time) ([]model.OrdenTrabajo, error) {
	var ordenes []model.OrdenTrabajo
	err := r.db.WithContext(ctx).Preload("Cliente").
		Where("tecnico = ? AND estado = ? AND tecnico_pagado = false", tecnico, model.EstadoFinalizadoPagado).
		Where("created_at >= ? AND created_at < ?", desde, hasta).
		Order("created_at ASC").Find(&ordenes).Error
	return ordenes, err
}

func (r *ordenRepo) MarcarTecnicoPagado(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error) {
	res := conn(r.db, tx).WithContext(ctx).Model(&model.OrdenTrabajo{}).
		Where("id IN ? AND tecnico_pagado = false", ids).
		Update("tecnico_pagado", true)
	return res.RowsAffected, res.Error
}

func (r *ordenRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return conn(r.db, tx).WithContext(ctx).Delete(&model.OrdenTrabajo{}, "id = ?", id).Error
}

func (r *ordenRepo) NextNumero(ctx context.Context, tx *gorm.DB) (int, error) {
	// Uses a PostgreSQL sequence for atomic order number generation
	var num int
	err := conn(r.db, tx).WithContext(ctx).Raw("SELECT nextval('ordenes_trabajo_numero_seq')").Scan(&num).Error
	return num, err
}
