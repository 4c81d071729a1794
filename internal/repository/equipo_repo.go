package repository

import (
	"context"

	"servitec/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EquipoRepository interface {
	Create(ctx context.Context, m *model.ModeloEquipo) error
	Update(ctx context.Context, m *model.ModeloEquipo) error
	// Upsert crea el modelo o actualiza el tipo si marca+modelo ya existen.
	Upsert(ctx context.Context, m *model.ModeloEquipo) (creado bool, err error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.ModeloEquipo, error)
	List(ctx context.Context, q string) ([]model.ModeloEquipo, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type equipoRepo struct{ db *gorm.DB }

func NewEquipoRepository(db *gorm.DB) EquipoRepository { return &equipoRepo{db: db} }

func (r *equipoRepo) Create(ctx context.Context, m *model.ModeloEquipo) error {
	return traducir(r.db.WithContext(ctx).Create(m).Error)
}

func (r *equipoRepo) Update(ctx context.Context, m *model.ModeloEquipo) error {
	return traducir(r.db.WithContext(ctx).Save(m).Error)
}

func (r *equipoRepo) Upsert(ctx context.Context, m *model.ModeloEquipo) (bool, error) {
	var existente model.ModeloEquipo
	err := r.db.WithContext(ctx).
		Where("marca = ? AND modelo = ?", m.Marca, m.Modelo).
		First(&existente).Error
	creado := IsNotFound(err)
	if err != nil && !creado {
		return false, err
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "marca"}, {Name: "modelo"}},
		DoUpdates: clause.AssignmentColumns([]string{"tipo", "updated_at"}),
	}).Create(m).Error
	return creado, traducir(err)
}

func (r *equipoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ModeloEquipo, error) {
	var m model.ModeloEquipo
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *equipoRepo) List(ctx context.Context, q string) ([]model.ModeloEquipo, error) {
	var modelos []model.ModeloEquipo
	db := r.db.WithContext(ctx)
	if q != "" {
		like := contiene(q)
		db = db.Where("marca ILIKE ? OR modelo ILIKE ? OR tipo ILIKE ?", like, like, like)
	}
	err := db.Order("marca ASC, modelo ASC").Find(&modelos).Error
	return modelos, err
}

func (r *equipoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ModeloEquipo{}, "id = ?", id).Error
}
