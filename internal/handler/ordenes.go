package handler

import (
	"fmt"
	"net/http"

	"servitec/internal/dto"
	"servitec/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdenesHandler struct{ svc service.OrdenService }

func NewOrdenesHandler(svc service.OrdenService) *OrdenesHandler {
	return &OrdenesHandler{svc: svc}
}

// Crear godoc
// @Summary Crea una orden de trabajo
// @Description Un técnico sólo puede crear órdenes a su nombre.
// @Tags ordenes
// @Accept json
// @Produce json
// @Param body body dto.GuardarOrdenRequest true "Orden"
// @Success 201 {object} dto.GuardarOrdenResponse
// @Failure 422 {object} apierror.ValidationError
// @Security BearerAuth
// @Router /v1/ordenes [post]
func (h *OrdenesHandler) Crear(c *gin.Context) {
	ses, ok := sesionDe(c)
	if !ok {
		return
	}
	var req dto.GuardarOrdenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req, ses)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Actualizar godoc
// @Summary Guarda la orden completa y aplica los efectos del estado
// @Description Al pasar a "Finalizado y Pagado" descuenta stock y registra el ingreso; al cancelar restaura el stock.
// @Tags ordenes
// @Accept json
// @Produce json
// @Param id path string true "ID de la orden"
// @Param body body dto.GuardarOrdenRequest true "Orden"
// @Success 200 {object} dto.GuardarOrdenResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/ordenes/{id} [put]
func (h *OrdenesHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ses, ok := sesionDe(c)
	if !ok {
		return
	}
	var req dto.GuardarOrdenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req, ses)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ses, ok := sesionDe(c)
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id, ses)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) Listar(c *gin.Context) {
	ses, ok := sesionDe(c)
	if !ok {
		return
	}
	var filter dto.OrdenFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter, ses)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubirArchivo recibe un multipart con el campo "archivo". El parámetro
// :tipo es foto_antes, foto_despues, firma o documento.
func (h *OrdenesHandler) SubirArchivo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ses, ok := sesionDe(c)
	if !ok {
		return
	}
	archivo, cerrar, ok := archivoDesdeForm(c)
	if !ok {
		return
	}
	defer cerrar()

	resp, err := h.svc.SubirArchivo(c.Request.Context(), id, c.Param("tipo"), archivo, ses)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF godoc
// @Summary Documento PDF de la orden
// @Tags ordenes
// @Produce application/pdf
// @Param id path string true "ID de la orden"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/ordenes/{id}/pdf [get]
func (h *OrdenesHandler) PDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ses, ok := sesionDe(c)
	if !ok {
		return
	}
	pdf, nombre, err := h.svc.PDF(c.Request.Context(), id, ses)
	if err != nil {
		responderError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, nombre))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// EnviarDocumento encola el PDF para envío por correo al cliente.
func (h *OrdenesHandler) EnviarDocumento(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ses, ok := sesionDe(c)
	if !ok {
		return
	}
	if err := h.svc.EnviarDocumento(c.Request.Context(), id, ses); err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"encolado": true})
}
