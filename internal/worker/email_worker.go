package worker

// Processes email jobs from QueueEmail: downloads the stored PDF and sends it
// to the customer as an attachment.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail  string `json:"to_email"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	PDFURL   string `json:"pdf_url"`
	Filename string `json:"filename"`
}

// EnviadorCorreo envía un correo con un PDF adjunto.
type EnviadorCorreo interface {
	SendDocumento(to, subject, body, filename string, pdf []byte) error
}

// Descargador obtiene archivos ya subidos al storage.
type Descargador interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	mailer  EnviadorCorreo
	storage Descargador
}

// NewEmailWorker creates an EmailWorker with the provided SMTP mailer.
func NewEmailWorker(mailer EnviadorCorreo, storage Descargador) *EmailWorker {
	return &EmailWorker{mailer: mailer, storage: storage}
}

// Process sends an email with the PDF as attachment. A malformed payload or
// an empty recipient is dropped without error: retrying would not fix it.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	var pdf []byte
	if payload.PDFURL != "" {
		data, err := w.storage.Download(ctx, payload.PDFURL)
		if err != nil {
			return fmt.Errorf("email_worker: download pdf: %w", err)
		}
		pdf = data
	}

	if err := w.mailer.SendDocumento(payload.ToEmail, payload.Subject, payload.Body, payload.Filename, pdf); err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: documento sent successfully")
	return nil
}
