package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"servitec/internal/repository"
	"servitec/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Errores de dominio ────────────────────────────────────────────────────────
// Los handlers los traducen a códigos HTTP con errors.Is / errors.As.

var (
	ErrNoEncontrado        = errors.New("registro no encontrado")
	ErrPermisoDenegado     = errors.New("permisos insuficientes")
	ErrDatosInvalidos      = errors.New("datos invalidos")
	ErrOrdenCompraRecibida = errors.New("la orden de compra ya fue recibida")
	ErrStockInsuficiente   = repository.ErrStockInsuficiente
	ErrDuplicado           = repository.ErrDuplicado
)

// ErrCamposFaltantes lista los campos obligatorios que vinieron vacíos.
// La operación se aborta antes de tocar la base.
type ErrCamposFaltantes struct {
	Campos []string
}

func (e *ErrCamposFaltantes) Error() string {
	return "faltan campos obligatorios: " + strings.Join(e.Campos, ", ")
}

func invalido(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDatosInvalidos, fmt.Sprintf(format, args...))
}

// noEncontrado envuelve gorm.ErrRecordNotFound con ErrNoEncontrado.
func noEncontrado(err error, que string) error {
	if repository.IsNotFound(err) {
		return fmt.Errorf("%s: %w", que, ErrNoEncontrado)
	}
	return err
}

// ── Dependencias externas ─────────────────────────────────────────────────────

// Almacenamiento es el bucket de archivos (documentos, fotos, firmas).
type Almacenamiento interface {
	Upload(ctx context.Context, carpeta, nombreOriginal string, r io.Reader, size int64, contentType string) (string, error)
}

// DespachadorDocumentos encola la generación del PDF de una orden.
type DespachadorDocumentos interface {
	EnqueueDocumento(ctx context.Context, payload worker.DocumentoJobPayload) error
}

// CacheJSON es el subconjunto de infra.Cache que usan los servicios.
type CacheJSON interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	InvalidatePattern(ctx context.Context, pattern string) error
}

// Archivo es un archivo recibido en un multipart.
type Archivo struct {
	Nombre      string
	ContentType string
	Size        int64
	Contenido   io.Reader
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// runTx ejecuta fn dentro de una transacción. Con db nil (repositorios en
// memoria de los tests) llama fn(nil) directamente.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// rangoMes convierte "YYYY-MM" en [inicio de mes, inicio del mes siguiente)
// en hora local.
func rangoMes(mes string) (time.Time, time.Time, error) {
	desde, err := time.ParseInLocation("2006-01", mes, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, invalido("mes %q, formato esperado YYYY-MM", mes)
	}
	return desde, desde.AddDate(0, 1, 0), nil
}

func parseUUIDOpcional(s *string, campo string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, invalido("%s no es un UUID", campo)
	}
	return &id, nil
}

func uuidStrPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func strPtr(s string) *string { return &s }
