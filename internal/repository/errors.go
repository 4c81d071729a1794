package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrStockInsuficiente se devuelve cuando un ajuste dejaría la bodega en negativo.
	ErrStockInsuficiente = errors.New("stock insuficiente")
	// ErrDuplicado envuelve violaciones de unicidad (SKU, código, referencia).
	ErrDuplicado = errors.New("registro duplicado")
)

// esViolacionUnica detecta SQLSTATE 23505 (unique_violation).
func esViolacionUnica(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// traducir mapea errores del driver a errores del dominio.
func traducir(err error) error {
	if err == nil {
		return nil
	}
	if esViolacionUnica(err) {
		return errors.Join(ErrDuplicado, err)
	}
	return err
}

// IsNotFound reporta si err corresponde a una fila inexistente.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// conn elige la transacción si existe, o la conexión base.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

func paginar(page, limit, defLimit, maxLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defLimit
	}
	return page, limit, (page - 1) * limit
}

var escapeLike = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contiene arma el patrón ILIKE de búsqueda por subcadena. Los comodines
// de s se escapan, así "50%" o "a_b" se buscan literalmente.
func contiene(s string) string {
	return "%" + escapeLike.Replace(s) + "%"
}
