package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"servitec/internal/dto"
	"servitec/internal/middleware"
	"servitec/internal/model"
	"servitec/internal/service"
	"servitec/internal/sesion"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func init() { gin.SetMode(gin.TestMode) }

// Los stubs embeben la interfaz del servicio: sólo implementan lo que cada
// prueba usa y cualquier otra llamada hace panic.

type stubTracker struct {
	service.TrackerService
	resp *dto.TrackerResponse
}

func (s *stubTracker) Buscar(context.Context, string) (*dto.TrackerResponse, error) {
	return s.resp, nil
}

type stubPOS struct {
	service.POSService
	duplicado bool
	llamadas  int
}

func (s *stubPOS) Checkout(context.Context, dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	s.llamadas++
	return &dto.CheckoutResponse{Stock: []dto.ResultadoStock{}, Duplicado: s.duplicado}, nil
}

type stubRemuneraciones struct {
	service.RemuneracionService
	recibido dto.LiquidacionRequest
}

func (s *stubRemuneraciones) Liquidacion(_ context.Context, req dto.LiquidacionRequest) (*dto.LiquidacionResponse, error) {
	s.recibido = req
	return &dto.LiquidacionResponse{}, nil
}

type stubAuth struct {
	service.AuthService
	desactivados []uuid.UUID
}

func (s *stubAuth) DesactivarUsuario(_ context.Context, id uuid.UUID) error {
	s.desactivados = append(s.desactivados, id)
	return nil
}

type stubPlanillas struct {
	service.PlanillaService
}

func (s *stubPlanillas) ExportarEquipos(context.Context) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "TIPO"); err != nil {
		return nil, err
	}
	return f, nil
}

// conSesion simula lo que deja middleware.JWTAuth en el contexto.
func conSesion(ses sesion.Sesion) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.SesionKey, ses)
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── responderError ───────────────────────────────────────────────────────────

func TestResponderError_MapeaErroresDeDominio(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"no encontrado", fmt.Errorf("orden: %w", service.ErrNoEncontrado), http.StatusNotFound},
		{"credenciales", service.ErrCredenciales, http.StatusUnauthorized},
		{"permiso", service.ErrPermisoDenegado, http.StatusForbidden},
		{"duplicado", service.ErrDuplicado, http.StatusConflict},
		{"compra recibida", service.ErrOrdenCompraRecibida, http.StatusConflict},
		{"stock", fmt.Errorf("item: %w", service.ErrStockInsuficiente), http.StatusUnprocessableEntity},
		{"datos", fmt.Errorf("%w: bodega", service.ErrDatosInvalidos), http.StatusUnprocessableEntity},
		{"campos", &service.ErrCamposFaltantes{Campos: []string{"falla"}}, http.StatusUnprocessableEntity},
		{"interno", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			responderError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestResponderError_CamposFaltantesListaLosCampos(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	responderError(c, &service.ErrCamposFaltantes{Campos: []string{"cliente_id", "tecnico"}})

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"cliente_id": "required", "tecnico": "required"}, body.Fields)
}

func TestResponderError_InternoNoExponeDetalle(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	responderError(c, errors.New("pq: password authentication failed"))
	assert.NotContains(t, w.Body.String(), "password")
}

// ── Tracker ──────────────────────────────────────────────────────────────────

func TestTracker_NoEncontradoResponde404ConCuerpo(t *testing.T) {
	r := gin.New()
	r.GET("/v1/tracker/:codigo", NewTrackerHandler(&stubTracker{resp: &dto.TrackerResponse{}}).Buscar)

	w := doJSON(r, http.MethodGet, "/v1/tracker/OT-999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"encontrado":false}`, w.Body.String())
}

func TestTracker_Encontrado(t *testing.T) {
	r := gin.New()
	svc := &stubTracker{resp: &dto.TrackerResponse{Encontrado: true, Codigo: "OT-000123", Estado: model.EstadoTrabajando, Paso: 2}}
	r.GET("/v1/tracker/:codigo", NewTrackerHandler(svc).Buscar)

	w := doJSON(r, http.MethodGet, "/v1/tracker/123", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"paso":2`)
}

// ── POS ──────────────────────────────────────────────────────────────────────

func checkoutValido() map[string]interface{} {
	return map[string]interface{}{
		"items":       []map[string]interface{}{{"item_id": uuid.NewString(), "cantidad": 1}},
		"metodo_pago": "efectivo",
	}
}

func TestPOS_CheckoutNuevo201(t *testing.T) {
	r := gin.New()
	r.POST("/checkout", NewPOSHandler(&stubPOS{}).Checkout)

	w := doJSON(r, http.MethodPost, "/checkout", checkoutValido())
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestPOS_CheckoutDuplicado200(t *testing.T) {
	r := gin.New()
	r.POST("/checkout", NewPOSHandler(&stubPOS{duplicado: true}).Checkout)

	w := doJSON(r, http.MethodPost, "/checkout", checkoutValido())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"duplicado":true`)
}

func TestPOS_CheckoutInvalido422SinLlamarServicio(t *testing.T) {
	svc := &stubPOS{}
	r := gin.New()
	r.POST("/checkout", NewPOSHandler(svc).Checkout)

	body := checkoutValido()
	body["metodo_pago"] = "cheque"
	w := doJSON(r, http.MethodPost, "/checkout", body)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "MetodoPago")
	assert.Zero(t, svc.llamadas)
}

func TestPOS_JSONMalformado400(t *testing.T) {
	r := gin.New()
	r.POST("/checkout", NewPOSHandler(&stubPOS{}).Checkout)

	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ── Remuneraciones ───────────────────────────────────────────────────────────

func TestLiquidacion_TecnicoSoloVeLaPropia(t *testing.T) {
	svc := &stubRemuneraciones{}
	r := gin.New()
	r.GET("/liq", conSesion(sesion.Sesion{UsuarioID: uuid.New(), Nombre: "Luis", Rol: model.RolTecnico}),
		NewRemuneracionesHandler(svc).Liquidacion)

	w := doJSON(r, http.MethodGet, "/liq?tecnico=Ana&mes=2026-03", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Luis", svc.recibido.Tecnico)
	assert.Equal(t, "2026-03", svc.recibido.Mes)
}

func TestLiquidacion_CoordinadorEligeTecnico(t *testing.T) {
	svc := &stubRemuneraciones{}
	r := gin.New()
	r.GET("/liq", conSesion(sesion.Sesion{UsuarioID: uuid.New(), Nombre: "Marta", Rol: model.RolCoordinador}),
		NewRemuneracionesHandler(svc).Liquidacion)

	w := doJSON(r, http.MethodGet, "/liq?tecnico=Ana&mes=2026-03&tasa_comision=0.4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana", svc.recibido.Tecnico)
	require.NotNil(t, svc.recibido.Comision)
	assert.Equal(t, "0.4", svc.recibido.Comision.String())
}

func TestLiquidacion_MesInvalido422(t *testing.T) {
	r := gin.New()
	r.GET("/liq", conSesion(sesion.Sesion{Rol: model.RolAdmin}), NewRemuneracionesHandler(&stubRemuneraciones{}).Liquidacion)

	w := doJSON(r, http.MethodGet, "/liq?tecnico=Ana&mes=marzo", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// ── Usuarios ─────────────────────────────────────────────────────────────────

func TestDesactivar_NoPermiteElPropioUsuario(t *testing.T) {
	yo := uuid.New()
	svc := &stubAuth{}
	r := gin.New()
	r.DELETE("/usuarios/:id", conSesion(sesion.Sesion{UsuarioID: yo, Rol: model.RolAdmin}), NewUsuariosHandler(svc).Desactivar)

	w := doJSON(r, http.MethodDelete, "/usuarios/"+yo.String(), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, svc.desactivados)

	otro := uuid.New()
	w = doJSON(r, http.MethodDelete, "/usuarios/"+otro.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []uuid.UUID{otro}, svc.desactivados)
}

func TestParseID_Invalido400(t *testing.T) {
	r := gin.New()
	r.DELETE("/usuarios/:id", conSesion(sesion.Sesion{Rol: model.RolAdmin}), NewUsuariosHandler(&stubAuth{}).Desactivar)

	w := doJSON(r, http.MethodDelete, "/usuarios/no-es-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ── Planillas ────────────────────────────────────────────────────────────────

func TestPlanillas_ExportarDescargaXlsx(t *testing.T) {
	r := gin.New()
	r.GET("/planillas/equipos", NewPlanillasHandler(&stubPlanillas{}).ExportarEquipos)

	w := doJSON(r, http.MethodGet, "/planillas/equipos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "equipos-")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	v, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "TIPO", v)
}

func TestPlanillas_ImportarSinArchivo400(t *testing.T) {
	r := gin.New()
	r.POST("/planillas/equipos", NewPlanillasHandler(&stubPlanillas{}).ImportarEquipos)

	w := doJSON(r, http.MethodPost, "/planillas/equipos", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
