package handler

import (
	"errors"
	"net/http"
	"reflect"

	"servitec/internal/apierror"
	"servitec/internal/middleware"
	"servitec/internal/service"
	"servitec/internal/sesion"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// maxArchivo es el tamaño máximo de fotos, firmas y documentos subidos.
const maxArchivo = 10 << 20

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds the JSON body and runs go-playground/validator tags.
// On failure it writes the response; the caller must return immediately.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// sesionDe devuelve la sesión resuelta por middleware.JWTAuth.
func sesionDe(c *gin.Context) (sesion.Sesion, bool) {
	ses, ok := middleware.GetSesion(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
	}
	return ses, ok
}

// responderError traduce los errores de dominio a códigos HTTP. Lo que no es
// un error de dominio se registra y sale como 500 sin detalle.
func responderError(c *gin.Context, err error) {
	var faltan *service.ErrCamposFaltantes
	switch {
	case errors.As(err, &faltan):
		fields := make(map[string]string, len(faltan.Campos))
		for _, f := range faltan.Campos {
			fields[f] = "required"
		}
		c.JSON(http.StatusUnprocessableEntity, &apierror.ValidationError{Detail: faltan.Error(), Fields: fields})
	case errors.Is(err, service.ErrNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrCredenciales):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
	case errors.Is(err, service.ErrPermisoDenegado):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrDuplicado), errors.Is(err, service.ErrOrdenCompraRecibida):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrStockInsuficiente), errors.Is(err, service.ErrDatosInvalidos):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	default:
		log.Error().Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("handler: error interno")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}

// archivoDesdeForm abre el archivo del campo "archivo" de un multipart.
// El llamador debe invocar la función de cierre devuelta.
func archivoDesdeForm(c *gin.Context) (service.Archivo, func(), bool) {
	fh, err := c.FormFile("archivo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Falta el campo archivo"))
		return service.Archivo{}, nil, false
	}
	if fh.Size > maxArchivo {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("El archivo supera los 10 MB"))
		return service.Archivo{}, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("No se pudo leer el archivo"))
		return service.Archivo{}, nil, false
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return service.Archivo{
		Nombre:      fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
		Contenido:   f,
	}, func() { f.Close() }, true
}
