package infra

import (
	"fmt"

	"servitec/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (sequences, expression indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations crea el esquema completo. También lo usan las pruebas de
// integración contra un Postgres efímero.
func RunMigrations(db *gorm.DB) error {
	if err := applyPreMigrationPatches(db); err != nil {
		return fmt.Errorf("pre-migration patches: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Cliente{},
		&model.ModeloEquipo{},
		&model.ItemInventario{},
		&model.StockBodega{},
		&model.MovimientoStock{},
		&model.OrdenTrabajo{},
		&model.OrdenCompra{},
		&model.MovimientoFlujo{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applyPreMigrationPatches prepares objects AutoMigrate relies on.
func applyPreMigrationPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"pgcrypto for gen_random_uuid on PG < 13",
			`CREATE EXTENSION IF NOT EXISTS pgcrypto`},
		{"order number sequence",
			`CREATE SEQUENCE IF NOT EXISTS ordenes_trabajo_numero_seq START 1`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("pre-patch %q: %w", p.descr, err)
		}
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// fully handle on its own. Each statement uses IF NOT EXISTS semantics so
// re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// lookup by code is case-insensitive (public tracker)
		`CREATE INDEX IF NOT EXISTS idx_ordenes_trabajo_codigo_upper
		    ON ordenes_trabajo (UPPER(codigo))`,
		// payroll query
		`CREATE INDEX IF NOT EXISTS idx_ordenes_trabajo_liquidables
		    ON ordenes_trabajo (tecnico, created_at)
		    WHERE estado = 'Finalizado y Pagado' AND tecnico_pagado = false`,
		`CREATE INDEX IF NOT EXISTS idx_flujo_caja_fecha_tipo
		    ON flujo_caja (fecha, tipo)`,
		`CREATE INDEX IF NOT EXISTS idx_items_inventario_compatibles
		    ON items_inventario USING gin (compatibles jsonb_path_ops)`,
		`ALTER SEQUENCE ordenes_trabajo_numero_seq OWNED BY ordenes_trabajo.numero`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
