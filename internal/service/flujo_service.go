package service

import (
	"context"
	"strings"
	"time"

	"servitec/internal/calculo"
	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	dashboardTTL    = 5 * time.Minute
	dashboardPrefix = "dashboard:"
)

type FlujoService interface {
	Crear(ctx context.Context, req dto.GuardarFlujoRequest) (*dto.FlujoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.GuardarFlujoRequest) (*dto.FlujoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.FlujoResponse, error)
	Listar(ctx context.Context, filter dto.FlujoFilter) (*dto.FlujoListResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	Confirmar(ctx context.Context, id uuid.UUID) (*dto.FlujoResponse, error)
	SubirDocumento(ctx context.Context, id uuid.UUID, archivo Archivo) (*dto.FlujoResponse, error)
	Dashboard(ctx context.Context, mes string) (*dto.DashboardResponse, error)
}

type flujoService struct {
	repo      repository.FlujoRepository
	dashboard repository.DashboardRepository
	storage   Almacenamiento
	cache     CacheJSON
	tasaIVA   decimal.Decimal
}

func NewFlujoService(
	repo repository.FlujoRepository,
	dashboard repository.DashboardRepository,
	storage Almacenamiento,
	cache CacheJSON,
	tasaIVA decimal.Decimal,
) FlujoService {
	return &flujoService{repo: repo, dashboard: dashboard, storage: storage, cache: cache, tasaIVA: tasaIVA}
}

// invalidarDashboard descarta los agregados cacheados. Un fallo de Redis no
// interrumpe la escritura que lo provocó.
func invalidarDashboard(ctx context.Context, cache CacheJSON) {
	if cache == nil {
		return
	}
	if err := cache.InvalidatePattern(ctx, dashboardPrefix+"*"); err != nil {
		log.Warn().Err(err).Msg("flujo: no se pudo invalidar el cache del dashboard")
	}
}

// ── CRUD ──────────────────────────────────────────────────────────────────────

func (s *flujoService) Crear(ctx context.Context, req dto.GuardarFlujoRequest) (*dto.FlujoResponse, error) {
	m := &model.MovimientoFlujo{}
	if err := s.aplicar(m, req, true); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, nil, m); err != nil {
		return nil, err
	}
	invalidarDashboard(ctx, s.cache)
	resp := flujoToResponse(m)
	return &resp, nil
}

func (s *flujoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.GuardarFlujoRequest) (*dto.FlujoResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "movimiento")
	}
	if err := s.aplicar(m, req, false); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	invalidarDashboard(ctx, s.cache)
	resp := flujoToResponse(m)
	return &resp, nil
}

// aplicar vuelca el request sobre m y deriva los montos a partir del campo
// editado.
func (s *flujoService) aplicar(m *model.MovimientoFlujo, req dto.GuardarFlujoRequest, nuevo bool) error {
	if !model.CategoriaValida(req.Tipo, req.Categoria) {
		return invalido("la categoria %q no corresponde a un %s", req.Categoria, req.Tipo)
	}
	campo := calculo.Campo(req.Campo)
	if campo == "" {
		campo = calculo.CampoTotal
	}
	if campo == calculo.CampoRecibido && !req.EsEcommerce {
		return invalido("el monto recibido solo se edita en ventas e-commerce")
	}
	clienteID, err := parseUUIDOpcional(req.ClienteID, "cliente_id")
	if err != nil {
		return err
	}

	total, recibido := req.Total, req.Recibido
	if !nuevo {
		if total.IsZero() {
			total = m.MontoTotal
		}
		if recibido.IsZero() {
			recibido = m.MontoRecibido
		}
	}
	montos := calculo.Derivar(calculo.Edicion{
		Campo:     campo,
		Valor:     req.Valor,
		Tasa:      s.tasaIVA,
		Gravado:   calculo.EsGravado(req.TipoDocumento),
		Ecommerce: req.EsEcommerce,
		Total:     total,
		Recibido:  recibido,
	})
	if montos.Total.IsNegative() || montos.Comision.IsNegative() {
		return invalido("los montos no pueden quedar negativos")
	}

	if req.Fecha != nil {
		m.Fecha = *req.Fecha
	} else if nuevo {
		m.Fecha = time.Now()
	}
	if nuevo || req.MetodoPago != m.MetodoPago {
		m.Estado = model.EstadoPorMetodoPago(req.MetodoPago)
	}
	m.Tipo = req.Tipo
	m.Categoria = req.Categoria
	m.Descripcion = strings.TrimSpace(req.Descripcion)
	m.MetodoPago = req.MetodoPago
	m.TipoDocumento = req.TipoDocumento
	m.NumeroDocumento = req.NumeroDocumento
	m.EsEcommerce = req.EsEcommerce
	m.MontoNeto = montos.Neto
	m.MontoIVA = montos.IVA
	m.MontoTotal = montos.Total
	m.MontoRecibido = montos.Recibido
	m.ComisionPlataforma = montos.Comision
	m.ClienteID = clienteID
	return nil
}

func (s *flujoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.FlujoResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "movimiento")
	}
	resp := flujoToResponse(m)
	return &resp, nil
}

func (s *flujoService) Listar(ctx context.Context, filter dto.FlujoFilter) (*dto.FlujoListResponse, error) {
	f := repository.FlujoFilter{
		Tipo:      filter.Tipo,
		Categoria: filter.Categoria,
		Estado:    filter.Estado,
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	if filter.Mes != "" {
		desde, hasta, err := rangoMes(filter.Mes)
		if err != nil {
			return nil, err
		}
		f.Desde, f.Hasta = &desde, &hasta
	}
	movs, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.FlujoResponse, len(movs))
	for i := range movs {
		data[i] = flujoToResponse(&movs[i])
	}
	return &dto.FlujoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

func (s *flujoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return noEncontrado(err, "movimiento")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	invalidarDashboard(ctx, s.cache)
	return nil
}

func (s *flujoService) Confirmar(ctx context.Context, id uuid.UUID) (*dto.FlujoResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "movimiento")
	}
	if m.Estado != model.FlujoConfirmado {
		m.Estado = model.FlujoConfirmado
		if err := s.repo.Update(ctx, m); err != nil {
			return nil, err
		}
		invalidarDashboard(ctx, s.cache)
	}
	resp := flujoToResponse(m)
	return &resp, nil
}

func (s *flujoService) SubirDocumento(ctx context.Context, id uuid.UUID, archivo Archivo) (*dto.FlujoResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "movimiento")
	}
	if s.storage == nil {
		return nil, invalido("almacenamiento de archivos no configurado")
	}
	url, err := s.storage.Upload(ctx, "flujo/"+m.ID.String(), archivo.Nombre, archivo.Contenido, archivo.Size, archivo.ContentType)
	if err != nil {
		return nil, err
	}
	m.URLDocumento = url
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	resp := flujoToResponse(m)
	return &resp, nil
}

// ── Dashboard ─────────────────────────────────────────────────────────────────

func (s *flujoService) Dashboard(ctx context.Context, mes string) (*dto.DashboardResponse, error) {
	if mes == "" {
		mes = time.Now().Format("2006-01")
	}
	desde, hasta, err := rangoMes(mes)
	if err != nil {
		return nil, err
	}

	key := dashboardPrefix + mes
	if s.cache != nil {
		var cached dto.DashboardResponse
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	st, err := s.dashboard.Estadisticas(ctx, desde, hasta)
	if err != nil {
		return nil, err
	}
	resp := &dto.DashboardResponse{
		Mes:                 mes,
		OrdenesPorEstado:    st.OrdenesPorEstado,
		OrdenesAbiertas:     st.OrdenesAbiertas,
		Ingresos:            st.Ingresos,
		Egresos:             st.Egresos,
		Resultado:           st.Ingresos.Sub(st.Egresos),
		IVADebito:           st.IVADebito,
		IVACredito:          st.IVACredito,
		IVAPorPagar:         st.IVADebito.Sub(st.IVACredito),
		PendienteCobro:      st.PendienteCobro,
		ItemsBajoMinimo:     st.ItemsBajoMinimo,
		ComisionesEcommerce: st.ComisionesEcommerce,
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, resp, dashboardTTL); err != nil {
			log.Warn().Err(err).Str("mes", mes).Msg("flujo: no se pudo cachear el dashboard")
		}
	}
	return resp, nil
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func flujoToResponse(m *model.MovimientoFlujo) dto.FlujoResponse {
	return dto.FlujoResponse{
		ID:                 m.ID.String(),
		Fecha:              m.Fecha,
		Tipo:               m.Tipo,
		Categoria:          m.Categoria,
		Descripcion:        m.Descripcion,
		MetodoPago:         m.MetodoPago,
		MontoNeto:          m.MontoNeto,
		MontoIVA:           m.MontoIVA,
		MontoTotal:         m.MontoTotal,
		TipoDocumento:      m.TipoDocumento,
		NumeroDocumento:    m.NumeroDocumento,
		EsEcommerce:        m.EsEcommerce,
		MontoRecibido:      m.MontoRecibido,
		ComisionPlataforma: m.ComisionPlataforma,
		Estado:             m.Estado,
		URLDocumento:       m.URLDocumento,
		ClienteID:          uuidStrPtr(m.ClienteID),
		OrdenID:            uuidStrPtr(m.OrdenID),
		Referencia:         m.Referencia,
	}
}
