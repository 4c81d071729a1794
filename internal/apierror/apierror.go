// Package apierror define los cuerpos de error que ve el cliente de la API.
// Los handlers responden solo con estos tipos; los errores internos (SQL,
// Redis, MinIO) se registran en el log y nunca viajan en la respuesta.
package apierror

// APIError es el cuerpo de toda respuesta 4xx/5xx: {"detail": "..."}.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError agrega el detalle por campo cuando falla el binding o
// el validador: {"detail": "...", "fields": {"campo": "regla"}}.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
