package worker

// email_worker.go
// Processes email jobs from QueueEmail.
// Sends account statement PDFs to customers via SMTP, through the circuit
// breaker so an unreachable relay fails fast.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cuentacorriente/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail   string `json:"to_email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	PDFPath   string `json:"pdf_path"`
	ClienteID string `json:"cliente_id,omitempty"`
}

// StatementSender is satisfied by *infra.Mailer.
type StatementSender interface {
	SendEstadoCuenta(to, subject, body, pdfPath string) error
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	mailer StatementSender
	cb     *infra.CircuitBreaker
}

// NewEmailWorker creates an EmailWorker with the provided SMTP mailer.
func NewEmailWorker(mailer StatementSender, cb *infra.CircuitBreaker) *EmailWorker {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return &EmailWorker{mailer: mailer, cb: cb}
}

// Process sends the e-mail with the statement PDF attached.
// Malformed payloads are dropped (retrying cannot fix them); send failures
// are returned so the pool retries and eventually dead-letters the job.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	err := w.cb.Execute(func() error {
		return w.mailer.SendEstadoCuenta(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
	})
	if err != nil {
		if errors.Is(err, infra.ErrCircuitOpen) {
			log.Warn().Str("to", payload.ToEmail).Msg("email_worker: SMTP circuit open")
		} else {
			log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		}
		return fmt.Errorf("email_worker: %w", err)
	}
	log.Info().Str("to", payload.ToEmail).Str("cliente_id", payload.ClienteID).Msg("email_worker: estado de cuenta sent")
	return nil
}
