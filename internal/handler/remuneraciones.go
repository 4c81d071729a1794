package handler

import (
	"net/http"

	"servitec/internal/dto"
	"servitec/internal/service"

	"github.com/gin-gonic/gin"
)

type RemuneracionesHandler struct{ svc service.RemuneracionService }

func NewRemuneracionesHandler(svc service.RemuneracionService) *RemuneracionesHandler {
	return &RemuneracionesHandler{svc: svc}
}

// Liquidacion godoc
// @Summary Órdenes liquidables de un técnico en el mes
// @Description Un técnico sólo puede consultar su propia liquidación.
// @Tags remuneraciones
// @Produce json
// @Param tecnico query string true "Nombre del técnico"
// @Param mes query string true "Mes YYYY-MM"
// @Param tasa_comision query number false "Tasa de comisión"
// @Param tasa_iva query number false "Tasa de IVA"
// @Param tasa_retencion query number false "Tasa de retención"
// @Success 200 {object} dto.LiquidacionResponse
// @Security BearerAuth
// @Router /v1/remuneraciones/liquidacion [get]
func (h *RemuneracionesHandler) Liquidacion(c *gin.Context) {
	ses, ok := sesionDe(c)
	if !ok {
		return
	}
	if ses.SoloPropias() && c.Query("tecnico") != ses.Nombre {
		c.Request.URL.RawQuery = forzarTecnico(c, ses.Nombre)
	}
	var req dto.LiquidacionRequest
	if !bindQuery(c, &req) {
		return
	}
	resp, err := h.svc.Liquidacion(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func forzarTecnico(c *gin.Context, nombre string) string {
	q := c.Request.URL.Query()
	q.Set("tecnico", nombre)
	return q.Encode()
}

// Resumen calcula la liquidación sólo de las órdenes seleccionadas, sin pagar.
func (h *RemuneracionesHandler) Resumen(c *gin.Context) {
	var req dto.PagarRemuneracionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Resumen(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Pagar godoc
// @Summary Paga la comisión de las órdenes seleccionadas
// @Description Registra un egreso por el líquido (boleta de honorarios) y marca las órdenes como pagadas al técnico.
// @Tags remuneraciones
// @Accept json
// @Produce json
// @Param body body dto.PagarRemuneracionRequest true "Pago"
// @Success 201 {object} dto.PagoRemuneracionResponse
// @Failure 422 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/remuneraciones/pagar [post]
func (h *RemuneracionesHandler) Pagar(c *gin.Context) {
	var req dto.PagarRemuneracionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Pagar(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
