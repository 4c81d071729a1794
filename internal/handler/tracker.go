package handler

import (
	"net/http"

	"servitec/internal/service"

	"github.com/gin-gonic/gin"
)

// TrackerHandler sirve la consulta pública del estado de una orden.
// No requiere autenticación y no tiene efectos.
type TrackerHandler struct{ svc service.TrackerService }

func NewTrackerHandler(svc service.TrackerService) *TrackerHandler {
	return &TrackerHandler{svc: svc}
}

// Buscar godoc
// @Summary Estado público de una orden
// @Description Acepta el código con o sin prefijo OT-. Responde 404 con encontrado=false si no existe.
// @Tags tracker
// @Produce json
// @Param codigo path string true "Código de la orden"
// @Success 200 {object} dto.TrackerResponse
// @Failure 404 {object} dto.TrackerResponse
// @Router /v1/tracker/{codigo} [get]
func (h *TrackerHandler) Buscar(c *gin.Context) {
	resp, err := h.svc.Buscar(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		responderError(c, err)
		return
	}
	if !resp.Encontrado {
		c.JSON(http.StatusNotFound, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
