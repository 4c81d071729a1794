package handler

import (
	"net/http"

	"servitec/internal/dto"
	"servitec/internal/service"

	"github.com/gin-gonic/gin"
)

type POSHandler struct{ svc service.POSService }

func NewPOSHandler(svc service.POSService) *POSHandler { return &POSHandler{svc: svc} }

// Checkout godoc
// @Summary Venta de mostrador
// @Description Registra el ingreso y descuenta stock. Una referencia repetida devuelve la venta original con duplicado=true.
// @Tags pos
// @Accept json
// @Produce json
// @Param body body dto.CheckoutRequest true "Venta"
// @Success 201 {object} dto.CheckoutResponse
// @Success 200 {object} dto.CheckoutResponse
// @Failure 422 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/pos/checkout [post]
func (h *POSHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Checkout(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	status := http.StatusCreated
	if resp.Duplicado {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}
