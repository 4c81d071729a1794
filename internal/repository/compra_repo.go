package repository

import (
	"context"
	"time"

	"servitec/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompraRepository interface {
	Create(ctx context.Context, tx *gorm.DB, oc *model.OrdenCompra) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.OrdenCompra, error)
	List(ctx context.Context, estado string) ([]model.OrdenCompra, error)
	// MarcarRecibida pasa la orden de Pendiente a Recibido. Devuelve false si
	// otra petición ya la había recibido.
	MarcarRecibida(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error)
	DeletePendiente(ctx context.Context, id uuid.UUID) (bool, error)
	DB() *gorm.DB
}

type compraRepo struct{ db *gorm.DB }

func NewCompraRepository(db *gorm.DB) CompraRepository { return &compraRepo{db: db} }

func (r *compraRepo) DB() *gorm.DB { return r.db }

func (r *compraRepo) Create(ctx context.Context, tx *gorm.DB, oc *model.OrdenCompra) error {
	return conn(r.db, tx).WithContext(ctx).Create(oc).Error
}

func (r *compraRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.OrdenCompra, error) {
	var oc model.OrdenCompra
	err := r.db.WithContext(ctx).First(&oc, "id = ?", id).Error
	return &oc, err
}

func (r *compraRepo) List(ctx context.Context, estado string) ([]model.OrdenCompra, error) {
	var ocs []model.OrdenCompra
	q := r.db.WithContext(ctx)
	if estado != "" {
		q = q.Where("estado = ?", estado)
	}
	err := q.Order("created_at DESC").Find(&ocs).Error
	return ocs, err
}

func (r *compraRepo) MarcarRecibida(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	res := conn(r.db, tx).WithContext(ctx).Model(&model.OrdenCompra{}).
		Where("id = ? AND estado = ?", id, model.CompraPendiente).
		Updates(map[string]interface{}{"estado": model.CompraRecibida, "recibido_at": at})
	return res.RowsAffected > 0, res.Error
}

func (r *compraRepo) DeletePendiente(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND estado = ?", id, model.CompraPendiente).
		Delete(&model.OrdenCompra{})
	return res.RowsAffected > 0, res.Error
}
