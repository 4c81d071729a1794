package worker

// Procesa jobs de QueueDocumento: arma el PDF de la orden con sus fotos,
// lo sube al storage y, si el cliente tiene email, encola el envío.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"servitec/internal/infra"
	"servitec/internal/model"
	"servitec/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DocumentoJobPayload identifica la orden cuyo PDF se debe generar.
type DocumentoJobPayload struct {
	OrdenID    uuid.UUID `json:"orden_id"`
	EnviarMail bool      `json:"enviar_mail"`
}

// Archivos sube y descarga archivos del bucket.
type Archivos interface {
	Upload(ctx context.Context, carpeta, nombreOriginal string, r io.Reader, size int64, contentType string) (string, error)
	Descargador
}

// EncoladorEmail es la parte del Dispatcher que usa este worker.
type EncoladorEmail interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type DocumentoWorker struct {
	ordenes  repository.OrdenRepository
	archivos Archivos
	emails   EncoladorEmail
	negocio  string
	tasaIVA  decimal.Decimal
}

func NewDocumentoWorker(
	ordenes repository.OrdenRepository,
	archivos Archivos,
	emails EncoladorEmail,
	negocio string,
	tasaIVA decimal.Decimal,
) *DocumentoWorker {
	return &DocumentoWorker{
		ordenes:  ordenes,
		archivos: archivos,
		emails:   emails,
		negocio:  negocio,
		tasaIVA:  tasaIVA,
	}
}

func (w *DocumentoWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload DocumentoJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("documento_worker: invalid payload")
		return nil
	}

	orden, err := w.ordenes.FindByID(ctx, payload.OrdenID)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Warn().Str("orden_id", payload.OrdenID.String()).Msg("documento_worker: orden eliminada, skipping")
			return nil
		}
		return fmt.Errorf("documento_worker: load orden: %w", err)
	}

	pdf, err := RenderOrden(ctx, w.archivos, orden, w.negocio, w.tasaIVA)
	if err != nil {
		return fmt.Errorf("documento_worker: %w", err)
	}

	nombre := orden.Codigo + ".pdf"
	url, err := w.archivos.Upload(ctx, "ordenes/"+orden.Codigo, nombre, bytes.NewReader(pdf), int64(len(pdf)), "application/pdf")
	if err != nil {
		return fmt.Errorf("documento_worker: %w", err)
	}
	log.Info().Str("codigo", orden.Codigo).Str("url", url).Msg("documento_worker: pdf generado")

	if !payload.EnviarMail || orden.Cliente == nil || orden.Cliente.Email == "" || w.emails == nil {
		return nil
	}
	return w.emails.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail:  orden.Cliente.Email,
		Subject:  fmt.Sprintf("%s - Orden %s", w.negocio, orden.Codigo),
		Body:     fmt.Sprintf("Estimado/a %s,\n\nAdjuntamos el documento de su orden %s (estado: %s).\n\nSaludos,\n%s", orden.Cliente.DisplayName(), orden.Codigo, orden.Estado, w.negocio),
		PDFURL:   url,
		Filename: nombre,
	})
}

// RenderOrden arma el PDF de la orden descargando fotos y firma del
// storage. También lo usa la descarga directa del PDF desde la API.
func RenderOrden(ctx context.Context, archivos Descargador, orden *model.OrdenTrabajo, negocio string, tasaIVA decimal.Decimal) ([]byte, error) {
	equipo := ""
	if orden.ModeloEquipo != nil {
		equipo = orden.ModeloEquipo.Descripcion()
	}
	doc := infra.DocumentoOrden{
		Negocio: negocio,
		Orden:   orden,
		Cliente: orden.Cliente,
		Equipo:  equipo,
		TasaIVA: tasaIVA,
	}
	for _, a := range []struct{ titulo, url string }{
		{"Antes", orden.FotoAntesURL},
		{"Después", orden.FotoDespuesURL},
		{"Firma", orden.FirmaURL},
	} {
		if img, ok := descargarImagen(ctx, archivos, a.titulo, a.url); ok {
			doc.Imagenes = append(doc.Imagenes, img)
		}
	}
	return infra.GenerarOrdenPDF(doc)
}

// descargarImagen falla en silencio: un anexo que no se puede leer no impide
// generar el documento.
func descargarImagen(ctx context.Context, archivos Descargador, titulo, url string) (infra.ImagenAnexo, bool) {
	if url == "" {
		return infra.ImagenAnexo{}, false
	}
	tipo := tipoImagen(url)
	if tipo == "" {
		return infra.ImagenAnexo{}, false
	}
	if archivos == nil {
		return infra.ImagenAnexo{}, false
	}
	data, err := archivos.Download(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("documento_worker: anexo no disponible")
		return infra.ImagenAnexo{}, false
	}
	return infra.ImagenAnexo{Titulo: titulo, Tipo: tipo, Datos: data}, true
}

func tipoImagen(url string) string {
	switch strings.ToLower(path.Ext(url)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".png":
		return "PNG"
	}
	return ""
}
