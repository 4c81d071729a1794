package repository

import (
	"context"
	"fmt"
	"strings"

	"servitec/internal/dto"
	"servitec/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AjusteStock describe un cambio de stock de un ítem en una bodega.
type AjusteStock struct {
	ItemID     uuid.UUID
	Bodega     string
	Delta      int // positive = entrada, negative = salida
	Tipo       string
	Referencia string
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.ItemInventario) error
	Update(ctx context.Context, item *model.ItemInventario) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ItemInventario, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ItemInventario, error)
	FindBySKU(ctx context.Context, sku string) (*model.ItemInventario, error)
	List(ctx context.Context, filter dto.ItemFilter) ([]model.ItemInventario, int64, error)
	ListAll(ctx context.Context) ([]model.ItemInventario, error)
	ListBajoMinimo(ctx context.Context) ([]model.ItemInventario, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// AjustarStock aplica el ajuste de forma atómica para un ítem y registra
	// el movimiento. Devuelve el stock de la bodega antes y después.
	AjustarStock(ctx context.Context, tx *gorm.DB, a AjusteStock) (anterior, nuevo int, err error)
	DB() *gorm.DB
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) DB() *gorm.DB { return r.db }

func (r *itemRepo) Create(ctx context.Context, item *model.ItemInventario) error {
	return traducir(r.db.WithContext(ctx).Create(item).Error)
}

// Update guarda los atributos del ítem. El stock solo cambia vía AjustarStock.
func (r *itemRepo) Update(ctx context.Context, item *model.ItemInventario) error {
	return traducir(r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error)
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ItemInventario, error) {
	var item model.ItemInventario
	err := r.db.WithContext(ctx).Preload("Stock").First(&item, "id = ?", id).Error
	return &item, err
}

func (r *itemRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ItemInventario, error) {
	var items []model.ItemInventario
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Preload("Stock").Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *itemRepo) FindBySKU(ctx context.Context, sku string) (*model.ItemInventario, error) {
	var item model.ItemInventario
	err := r.db.WithContext(ctx).Preload("Stock").Where("sku = ?", sku).First(&item).Error
	return &item, err
}

func (r *itemRepo) bajoMinimoSubquery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("items_inventario i").
		Select("i.id").
		Joins("LEFT JOIN stock_bodegas s ON s.item_id = i.id").
		Where("i.tipo <> ?", model.TipoServicio).
		Group("i.id").
		Having("COALESCE(SUM(s.cantidad), 0) < i.stock_minimo")
}

func (r *itemRepo) List(ctx context.Context, filter dto.ItemFilter) ([]model.ItemInventario, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ItemInventario{})
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if s := strings.TrimSpace(filter.Q); s != "" {
		like := contiene(s)
		q = q.Where("nombre ILIKE ? OR sku ILIKE ? OR compatibles::text ILIKE ?", like, like, like)
	}
	if filter.StockBajo {
		q = q.Where("id IN (?)", r.bajoMinimoSubquery(ctx))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginar(filter.Page, filter.Limit, 50, 500)

	var items []model.ItemInventario
	err := q.Preload("Stock").Order("nombre ASC").Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}

func (r *itemRepo) ListAll(ctx context.Context) ([]model.ItemInventario, error) {
	var items []model.ItemInventario
	err := r.db.WithContext(ctx).Preload("Stock").Order("nombre ASC").Find(&items).Error
	return items, err
}

func (r *itemRepo) ListBajoMinimo(ctx context.Context) ([]model.ItemInventario, error) {
	var items []model.ItemInventario
	err := r.db.WithContext(ctx).Preload("Stock").
		Where("id IN (?)", r.bajoMinimoSubquery(ctx)).
		Order("nombre ASC").Find(&items).Error
	return items, err
}

func (r *itemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ItemInventario{}, "id = ?", id).Error
}

// AjustarStock: asegura la fila (item, bodega), la bloquea con FOR UPDATE,
// valida que no quede negativa y escribe el movimiento, todo en una misma
// transacción. Con tx no nil corre en un savepoint de tx: un ajuste fallido
// no aborta la transacción externa y los exitosos se confirman con ella.
func (r *itemRepo) AjustarStock(ctx context.Context, tx *gorm.DB, a AjusteStock) (int, int, error) {
	var anterior, nuevo int
	fn := func(tx *gorm.DB) error {
		fila := model.StockBodega{ItemID: a.ItemID, Bodega: a.Bodega}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "bodega"}},
			DoNothing: true,
		}).Create(&fila).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("item_id = ? AND bodega = ?", a.ItemID, a.Bodega).
			First(&fila).Error; err != nil {
			return err
		}

		anterior = fila.Cantidad
		nuevo = anterior + a.Delta
		if nuevo < 0 {
			return fmt.Errorf("%w: %s tiene %d en %s", ErrStockInsuficiente, a.ItemID, anterior, a.Bodega)
		}

		if err := tx.Model(&model.StockBodega{}).
			Where("id = ?", fila.ID).
			Update("cantidad", gorm.Expr("cantidad + ?", a.Delta)).Error; err != nil {
			return err
		}

		return tx.Create(&model.MovimientoStock{
			ItemID:        a.ItemID,
			Bodega:        a.Bodega,
			Tipo:          a.Tipo,
			Cantidad:      a.Delta,
			StockAnterior: anterior,
			StockNuevo:    nuevo,
			Referencia:    a.Referencia,
		}).Error
	}

	var err error
	if tx != nil {
		err = tx.WithContext(ctx).Transaction(fn)
	} else {
		err = r.db.WithContext(ctx).Transaction(fn)
	}
	return anterior, nuevo, err
}
