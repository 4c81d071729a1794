package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"servitec/internal/apierror"
	"servitec/internal/dto"
	"servitec/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PlanillasHandler descarga y carga los catálogos de equipos e inventario
// como planillas xlsx.
type PlanillasHandler struct{ svc service.PlanillaService }

func NewPlanillasHandler(svc service.PlanillaService) *PlanillasHandler {
	return &PlanillasHandler{svc: svc}
}

func (h *PlanillasHandler) ExportarEquipos(c *gin.Context) {
	h.exportar(c, "equipos", h.svc.ExportarEquipos)
}

func (h *PlanillasHandler) ExportarInventario(c *gin.Context) {
	h.exportar(c, "inventario", h.svc.ExportarInventario)
}

// ImportarEquipos godoc
// @Summary Carga masiva de modelos de equipo
// @Description Columnas TIPO, MARCA y MODELO. Marca y modelo existentes se actualizan.
// @Tags planillas
// @Accept multipart/form-data
// @Produce json
// @Param archivo formData file true "Planilla xlsx"
// @Success 200 {object} dto.ImportResponse
// @Failure 422 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/planillas/equipos [post]
func (h *PlanillasHandler) ImportarEquipos(c *gin.Context) {
	h.importar(c, h.svc.ImportarEquipos)
}

// ImportarInventario godoc
// @Summary Carga masiva del inventario
// @Description Un SKU existente actualiza el ítem. Las columnas de bodega fijan el stock; una celda vacía lo deja igual.
// @Tags planillas
// @Accept multipart/form-data
// @Produce json
// @Param archivo formData file true "Planilla xlsx"
// @Success 200 {object} dto.ImportResponse
// @Failure 422 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/planillas/inventario [post]
func (h *PlanillasHandler) ImportarInventario(c *gin.Context) {
	h.importar(c, h.svc.ImportarInventario)
}

func (h *PlanillasHandler) exportar(c *gin.Context, nombre string, fn func(context.Context) (*excelize.File, error)) {
	f, err := fn(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	defer f.Close()

	archivo := fmt.Sprintf("%s-%s.xlsx", nombre, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, archivo))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Error().Err(err).Str("planilla", nombre).Msg("planillas: error al escribir xlsx")
	}
}

func (h *PlanillasHandler) importar(c *gin.Context, fn func(context.Context, *excelize.File) (*dto.ImportResponse, error)) {
	archivo, cerrar, ok := archivoDesdeForm(c)
	if !ok {
		return
	}
	defer cerrar()

	f, err := excelize.OpenReader(archivo.Contenido)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("El archivo no es una planilla xlsx valida"))
		return
	}
	defer f.Close()

	resp, err := fn(c.Request.Context(), f)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
