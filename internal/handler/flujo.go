package handler

import (
	"net/http"
	"time"

	"servitec/internal/dto"
	"servitec/internal/service"

	"github.com/gin-gonic/gin"
)

type FlujoHandler struct{ svc service.FlujoService }

func NewFlujoHandler(svc service.FlujoService) *FlujoHandler { return &FlujoHandler{svc: svc} }

// Crear godoc
// @Summary Registra un movimiento del flujo de caja
// @Description Campo indica qué monto se ingresó (total, neto o recibido); el resto se deriva con la tasa de IVA.
// @Tags flujo
// @Accept json
// @Produce json
// @Param body body dto.GuardarFlujoRequest true "Movimiento"
// @Success 201 {object} dto.FlujoResponse
// @Failure 422 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/flujo [post]
func (h *FlujoHandler) Crear(c *gin.Context) {
	var req dto.GuardarFlujoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *FlujoHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.GuardarFlujoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlujoHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlujoHandler) Listar(c *gin.Context) {
	var filter dto.FlujoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlujoHandler) Eliminar(c *gin.Context) {
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

// Confirmar marca como confirmado un ingreso pendiente (pago con tarjeta).
func (h *FlujoHandler) Confirmar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Confirmar(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlujoHandler) SubirDocumento(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	archivo, cerrar, ok := archivoDesdeForm(c)
	if !ok {
		return
	}
	defer cerrar()

	resp, err := h.svc.SubirDocumento(c.Request.Context(), id, archivo)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Dashboard godoc
// @Summary Resumen mensual del flujo de caja
// @Tags flujo
// @Produce json
// @Param mes query string false "Mes YYYY-MM (por defecto el actual)"
// @Success 200 {object} dto.DashboardResponse
// @Failure 422 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/flujo/dashboard [get]
func (h *FlujoHandler) Dashboard(c *gin.Context) {
	mes := c.DefaultQuery("mes", time.Now().Format("2006-01"))
	resp, err := h.svc.Dashboard(c.Request.Context(), mes)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
