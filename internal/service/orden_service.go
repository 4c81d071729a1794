package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"servitec/internal/calculo"
	"servitec/internal/dto"
	"servitec/internal/model"
	"servitec/internal/repository"
	"servitec/internal/sesion"
	"servitec/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tipos de archivo adjuntables a una orden.
const (
	ArchivoFotoAntes   = "foto_antes"
	ArchivoFotoDespues = "foto_despues"
	ArchivoFirma       = "firma"
	ArchivoDocumento   = "documento"
)

type OrdenService interface {
	Crear(ctx context.Context, req dto.GuardarOrdenRequest, s sesion.Sesion) (*dto.GuardarOrdenResponse, error)
	// Actualizar guarda la orden completa y aplica los efectos del estado:
	// descuento de stock e ingreso al finalizar, restauración al cancelar.
	Actualizar(ctx context.Context, id uuid.UUID, req dto.GuardarOrdenRequest, s sesion.Sesion) (*dto.GuardarOrdenResponse, error)
	Obtener(ctx context.Context, id uuid.UUID, s sesion.Sesion) (*dto.OrdenResponse, error)
	Listar(ctx context.Context, filter dto.OrdenFilter, s sesion.Sesion) (*dto.OrdenListResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	SubirArchivo(ctx context.Context, id uuid.UUID, tipo string, archivo Archivo, s sesion.Sesion) (*dto.OrdenResponse, error)
	PDF(ctx context.Context, id uuid.UUID, s sesion.Sesion) ([]byte, string, error)
	EnviarDocumento(ctx context.Context, id uuid.UUID, s sesion.Sesion) error
}

type ordenService struct {
	ordenes    repository.OrdenRepository
	clientes   repository.ClienteRepository
	equipos    repository.EquipoRepository
	flujo      repository.FlujoRepository
	inventario InventarioService
	archivos   worker.Archivos
	dispatcher DespachadorDocumentos
	cache      CacheJSON
	tasaIVA    decimal.Decimal
	negocio    string
}

func NewOrdenService(
	ordenes repository.OrdenRepository,
	clientes repository.ClienteRepository,
	equipos repository.EquipoRepository,
	flujo repository.FlujoRepository,
	inventario InventarioService,
	archivos worker.Archivos,
	dispatcher DespachadorDocumentos,
	cache CacheJSON,
	tasaIVA decimal.Decimal,
	negocio string,
) OrdenService {
	return &ordenService{
		ordenes:    ordenes,
		clientes:   clientes,
		equipos:    equipos,
		flujo:      flujo,
		inventario: inventario,
		archivos:   archivos,
		dispatcher: dispatcher,
		cache:      cache,
		tasaIVA:    tasaIVA,
		negocio:    negocio,
	}
}

// ── Validación ────────────────────────────────────────────────────────────────

func camposFaltantes(req dto.GuardarOrdenRequest) error {
	var faltan []string
	if strings.TrimSpace(req.ClienteID) == "" {
		faltan = append(faltan, "cliente_id")
	}
	if req.ModeloEquipoID == nil || strings.TrimSpace(*req.ModeloEquipoID) == "" {
		faltan = append(faltan, "modelo_equipo_id")
	}
	if strings.TrimSpace(req.Falla) == "" {
		faltan = append(faltan, "falla")
	}
	if strings.TrimSpace(req.Tecnico) == "" {
		faltan = append(faltan, "tecnico")
	}
	if len(faltan) > 0 {
		return &ErrCamposFaltantes{Campos: faltan}
	}
	return nil
}

// puedeVer aplica la regla de visibilidad: un técnico solo accede a sus
// órdenes; para él una orden ajena no existe.
func puedeVer(o *model.OrdenTrabajo, s sesion.Sesion) error {
	if s.SoloPropias() && o.Tecnico != s.Nombre {
		return fmt.Errorf("orden: %w", ErrNoEncontrado)
	}
	return nil
}

// aplicarRequest copia el request sobre la orden. Los datos fiscales solo se
// toman en los estados que los capturan.
func (s *ordenService) aplicarRequest(ctx context.Context, o *model.OrdenTrabajo, req dto.GuardarOrdenRequest, ses sesion.Sesion) error {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return invalido("cliente_id no es un UUID")
	}
	modeloID, err := parseUUIDOpcional(req.ModeloEquipoID, "modelo_equipo_id")
	if err != nil {
		return err
	}
	if o.ClienteID != clienteID {
		if _, err := s.clientes.FindByID(ctx, clienteID); err != nil {
			return noEncontrado(err, "cliente")
		}
	}
	if modeloID != nil && (o.ModeloEquipoID == nil || *o.ModeloEquipoID != *modeloID) {
		if _, err := s.equipos.FindByID(ctx, *modeloID); err != nil {
			return noEncontrado(err, "modelo de equipo")
		}
	}

	items := make([]model.ItemOrden, len(req.Items))
	for i, it := range req.Items {
		itemID, err := parseUUIDOpcional(it.ItemID, "items.item_id")
		if err != nil {
			return err
		}
		items[i] = model.ItemOrden{
			ItemID:         itemID,
			Nombre:         strings.TrimSpace(it.Nombre),
			Tipo:           it.Tipo,
			PrecioUnitario: it.PrecioUnitario.Round(0),
			Cantidad:       it.Cantidad,
		}
	}

	bodega := req.Bodega
	if bodega == "" {
		bodega = o.Bodega
	}
	if bodega == "" {
		bodega = model.BodegaLocal
	}
	if !bodegaValida(bodega) {
		return invalido("bodega desconocida %q", bodega)
	}

	o.ClienteID = clienteID
	o.ModeloEquipoID = modeloID
	o.Modalidad = req.Modalidad
	if o.Modalidad == "" {
		o.Modalidad = model.ModalidadLocal
	}
	o.TipoTrabajo = req.TipoTrabajo
	o.Falla = strings.TrimSpace(req.Falla)
	o.NotasInternas = req.NotasInternas
	o.Tecnico = strings.TrimSpace(req.Tecnico)
	if ses.SoloPropias() {
		o.Tecnico = ses.Nombre
	}
	o.FechaInicio = req.FechaInicio
	o.FechaEstimada = req.FechaEstimada
	o.Items = items
	o.Bodega = bodega
	o.Diagnostico = req.Diagnostico
	o.Solucion = req.Solucion
	o.Observaciones = req.Observaciones
	o.NombreReceptor = req.NombreReceptor

	if model.RequiereDatosFiscales(o.Estado) {
		o.MetodoPago = req.MetodoPago
		o.TipoDocumento = req.TipoDocumento
		o.NumeroDocumento = req.NumeroDocumento
	}
	o.RecalcularTotal()
	return nil
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *ordenService) Crear(ctx context.Context, req dto.GuardarOrdenRequest, ses sesion.Sesion) (*dto.GuardarOrdenResponse, error) {
	if ses.SoloPropias() && strings.TrimSpace(req.Tecnico) == "" {
		req.Tecnico = ses.Nombre
	}
	if err := camposFaltantes(req); err != nil {
		return nil, err
	}

	o := &model.OrdenTrabajo{Estado: model.EstadoEnCola}
	if err := s.aplicarRequest(ctx, o, req, ses); err != nil {
		return nil, err
	}

	err := runTx(ctx, s.ordenes.DB(), func(tx *gorm.DB) error {
		n, err := s.ordenes.NextNumero(ctx, tx)
		if err != nil {
			return fmt.Errorf("numerar orden: %w", err)
		}
		o.Numero = n
		o.Codigo = model.CodigoOrden(n)
		return s.ordenes.Create(ctx, tx, o)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("orden", o.Codigo).Str("tecnico", o.Tecnico).Msg("orden creada")

	resp, err := s.respuesta(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &dto.GuardarOrdenResponse{Orden: *resp}, nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────

func (s *ordenService) Actualizar(ctx context.Context, id uuid.UUID, req dto.GuardarOrdenRequest, ses sesion.Sesion) (*dto.GuardarOrdenResponse, error) {
	if err := camposFaltantes(req); err != nil {
		return nil, err
	}
	estado := req.Estado
	if !model.EstadoValido(estado) {
		return nil, invalido("estado desconocido %q", estado)
	}

	var (
		out         dto.GuardarOrdenResponse
		recienCerro bool
	)
	err := runTx(ctx, s.ordenes.DB(), func(tx *gorm.DB) error {
		o, err := s.ordenes.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return noEncontrado(err, "orden")
		}
		if err := puedeVer(o, ses); err != nil {
			return err
		}
		anterior := o.Estado
		// Lo que se descontó al cerrar es lo que hay que devolver, aunque
		// el request traiga otras líneas u otra bodega.
		descontadas, bodegaDescontada := lineasDeOrden(o.Items), o.Bodega
		o.Estado = estado
		if err := s.aplicarRequest(ctx, o, req, ses); err != nil {
			return err
		}
		if o.StockDescontado && estado != model.EstadoCancelado && o.Bodega != bodegaDescontada {
			return invalido("la orden ya descontó stock de %s; no se puede cambiar la bodega", bodegaDescontada)
		}

		// Los ajustes de stock van en tx junto con el flag StockDescontado:
		// si el guardado falla, ambos se revierten.
		if estado == model.EstadoFinalizadoPagado {
			if !o.StockDescontado {
				out.Stock = s.inventario.DescontarStockTx(ctx, tx, lineasDeOrden(o.Items), o.Bodega, model.MovOrdenTrabajo, o.Codigo)
				// El flag se fija aunque alguna línea haya fallado: las
				// fallidas se informan y se corrigen con un ajuste manual.
				o.StockDescontado = true
			}
			out.Ingreso = s.registrarIngreso(ctx, o)
			recienCerro = anterior != model.EstadoFinalizadoPagado
		}

		if estado == model.EstadoCancelado && o.StockDescontado {
			out.Stock = s.inventario.RestaurarStockTx(ctx, tx, descontadas, bodegaDescontada, o.Codigo)
			o.StockDescontado = false
		}

		return s.ordenes.Update(ctx, tx, o)
	})
	if err != nil {
		return nil, err
	}

	if recienCerro {
		s.encolarDocumento(ctx, id, true)
	}
	resp, err := s.respuesta(ctx, id)
	if err != nil {
		return nil, err
	}
	out.Orden = *resp
	return &out, nil
}

// registrarIngreso inserta el ingreso de la orden si aún no existe. La
// llave Referencia = código de la orden impide duplicados aunque se guarde
// varias veces.
func (s *ordenService) registrarIngreso(ctx context.Context, o *model.OrdenTrabajo) string {
	tipoDoc := o.TipoDocumento
	if tipoDoc == "" {
		tipoDoc = calculo.DocBoleta
	}
	d := calculo.DesglosarTotal(o.CostoTotal, s.tasaIVA, calculo.EsGravado(tipoDoc))

	descripcion := o.Codigo
	if c, err := s.clientes.FindByID(ctx, o.ClienteID); err == nil {
		descripcion = fmt.Sprintf("%s - %s", o.Codigo, c.DisplayName())
	}
	snapshot, _ := json.Marshal(o.Items)
	ref := o.Codigo
	clienteID, ordenID := o.ClienteID, o.ID

	m := &model.MovimientoFlujo{
		Fecha:           time.Now(),
		Tipo:            model.FlujoIngreso,
		Categoria:       model.CatVentaServicio,
		Descripcion:     descripcion,
		MetodoPago:      o.MetodoPago,
		MontoNeto:       d.Neto,
		MontoIVA:        d.IVA,
		MontoTotal:      d.Total,
		MontoRecibido:   d.Total,
		TipoDocumento:   tipoDoc,
		NumeroDocumento: o.NumeroDocumento,
		Estado:          model.EstadoPorMetodoPago(o.MetodoPago),
		URLDocumento:    o.URLDocumento,
		Items:           datatypes.JSON(snapshot),
		ClienteID:       &clienteID,
		OrdenID:         &ordenID,
		Referencia:      &ref,
	}
	creado, err := s.flujo.CreateIdempotente(ctx, nil, m)
	if err != nil {
		log.Error().Err(err).Str("orden", o.Codigo).Msg("orden: no se pudo registrar el ingreso")
		return dto.IngresoFallido
	}
	if !creado {
		return dto.IngresoExistente
	}
	invalidarDashboard(ctx, s.cache)
	return dto.IngresoCreado
}

func (s *ordenService) encolarDocumento(ctx context.Context, id uuid.UUID, enviarMail bool) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.EnqueueDocumento(ctx, worker.DocumentoJobPayload{OrdenID: id, EnviarMail: enviarMail}); err != nil {
		log.Warn().Err(err).Str("orden_id", id.String()).Msg("orden: no se pudo encolar el documento")
	}
}

// ── Lectura ───────────────────────────────────────────────────────────────────

func (s *ordenService) respuesta(ctx context.Context, id uuid.UUID) (*dto.OrdenResponse, error) {
	o, err := s.ordenes.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "orden")
	}
	resp := ordenToResponse(o)
	return &resp, nil
}

func (s *ordenService) Obtener(ctx context.Context, id uuid.UUID, ses sesion.Sesion) (*dto.OrdenResponse, error) {
	o, err := s.ordenes.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "orden")
	}
	if err := puedeVer(o, ses); err != nil {
		return nil, err
	}
	resp := ordenToResponse(o)
	return &resp, nil
}

func (s *ordenService) Listar(ctx context.Context, filter dto.OrdenFilter, ses sesion.Sesion) (*dto.OrdenListResponse, error) {
	if ses.SoloPropias() {
		filter.Tecnico = ses.Nombre
	}
	ordenes, total, err := s.ordenes.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.OrdenResponse, len(ordenes))
	for i := range ordenes {
		data[i] = ordenToResponse(&ordenes[i])
	}
	return &dto.OrdenListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// ── Eliminar ──────────────────────────────────────────────────────────────────

func (s *ordenService) Eliminar(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.ordenes.DB(), func(tx *gorm.DB) error {
		o, err := s.ordenes.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return noEncontrado(err, "orden")
		}
		if o.StockDescontado {
			res := s.inventario.RestaurarStockTx(ctx, tx, lineasDeOrden(o.Items), o.Bodega, o.Codigo)
			for _, r := range res {
				if !r.OK {
					log.Warn().Str("orden", o.Codigo).Str("item_id", r.ItemID).Str("error", r.Error).
						Msg("orden: stock no restaurado al eliminar")
				}
			}
		}
		return s.ordenes.Delete(ctx, tx, id)
	})
}

// ── Archivos ──────────────────────────────────────────────────────────────────

func (s *ordenService) SubirArchivo(ctx context.Context, id uuid.UUID, tipo string, archivo Archivo, ses sesion.Sesion) (*dto.OrdenResponse, error) {
	o, err := s.ordenes.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "orden")
	}
	if err := puedeVer(o, ses); err != nil {
		return nil, err
	}

	var destino *string
	switch tipo {
	case ArchivoFotoAntes:
		destino = &o.FotoAntesURL
	case ArchivoFotoDespues:
		destino = &o.FotoDespuesURL
	case ArchivoFirma:
		destino = &o.FirmaURL
	case ArchivoDocumento:
		destino = &o.URLDocumento
	default:
		return nil, invalido("tipo de archivo %q", tipo)
	}
	if s.archivos == nil {
		return nil, invalido("almacenamiento de archivos no configurado")
	}

	url, err := s.archivos.Upload(ctx, "ordenes/"+o.Codigo, archivo.Nombre, archivo.Contenido, archivo.Size, archivo.ContentType)
	if err != nil {
		return nil, err
	}
	*destino = url
	if err := s.ordenes.Update(ctx, nil, o); err != nil {
		return nil, err
	}
	resp := ordenToResponse(o)
	return &resp, nil
}

func (s *ordenService) PDF(ctx context.Context, id uuid.UUID, ses sesion.Sesion) ([]byte, string, error) {
	o, err := s.ordenes.FindByID(ctx, id)
	if err != nil {
		return nil, "", noEncontrado(err, "orden")
	}
	if err := puedeVer(o, ses); err != nil {
		return nil, "", err
	}
	pdf, err := worker.RenderOrden(ctx, s.archivos, o, s.negocio, s.tasaIVA)
	if err != nil {
		return nil, "", err
	}
	return pdf, o.Codigo + ".pdf", nil
}

func (s *ordenService) EnviarDocumento(ctx context.Context, id uuid.UUID, ses sesion.Sesion) error {
	o, err := s.ordenes.FindByID(ctx, id)
	if err != nil {
		return noEncontrado(err, "orden")
	}
	if err := puedeVer(o, ses); err != nil {
		return err
	}
	if s.dispatcher == nil {
		return fmt.Errorf("cola de documentos no disponible")
	}
	return s.dispatcher.EnqueueDocumento(ctx, worker.DocumentoJobPayload{OrdenID: id, EnviarMail: true})
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func ordenToResponse(o *model.OrdenTrabajo) dto.OrdenResponse {
	items := make([]dto.ItemOrdenResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = dto.ItemOrdenResponse{
			ItemID:         uuidStrPtr(it.ItemID),
			Nombre:         it.Nombre,
			Tipo:           it.Tipo,
			PrecioUnitario: it.PrecioUnitario,
			Cantidad:       it.Cantidad,
			Subtotal:       it.Subtotal(),
		}
	}
	resp := dto.OrdenResponse{
		ID:              o.ID.String(),
		Codigo:          o.Codigo,
		ClienteID:       o.ClienteID.String(),
		ModeloEquipoID:  uuidStrPtr(o.ModeloEquipoID),
		Estado:          o.Estado,
		Modalidad:       o.Modalidad,
		TipoTrabajo:     o.TipoTrabajo,
		Falla:           o.Falla,
		NotasInternas:   o.NotasInternas,
		Tecnico:         o.Tecnico,
		FechaInicio:     o.FechaInicio,
		FechaEstimada:   o.FechaEstimada,
		Items:           items,
		CostoTotal:      o.CostoTotal,
		Bodega:          o.Bodega,
		MetodoPago:      o.MetodoPago,
		TipoDocumento:   o.TipoDocumento,
		NumeroDocumento: o.NumeroDocumento,
		URLDocumento:    o.URLDocumento,
		Diagnostico:     o.Diagnostico,
		Solucion:        o.Solucion,
		Observaciones:   o.Observaciones,
		FotoAntesURL:    o.FotoAntesURL,
		FotoDespuesURL:  o.FotoDespuesURL,
		NombreReceptor:  o.NombreReceptor,
		FirmaURL:        o.FirmaURL,
		StockDescontado: o.StockDescontado,
		TecnicoPagado:   o.TecnicoPagado,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.Cliente != nil {
		resp.Cliente = o.Cliente.DisplayName()
	}
	if o.ModeloEquipo != nil {
		resp.Equipo = o.ModeloEquipo.Descripcion()
	}
	return resp
}
