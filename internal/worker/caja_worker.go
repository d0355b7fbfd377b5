package worker

// caja_worker.go
// Records collected account payments as an ingreso in the cashier's open
// cash register session. Runs after the payment committed: a failure here
// never affects the account balance.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cuentacorriente/internal/model"
	"cuentacorriente/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CobroCajaPayload is the job envelope sent to QueueCaja.
type CobroCajaPayload struct {
	MovimientoID string          `json:"movimiento_id"`
	UsuarioID    string          `json:"usuario_id"`
	MetodoPagoID string          `json:"metodo_pago_id,omitempty"`
	Monto        decimal.Decimal `json:"monto"`
	Descripcion  string          `json:"descripcion"`
}

type CajaWorker struct {
	cajaRepo repository.CajaRepository
}

func NewCajaWorker(cajaRepo repository.CajaRepository) *CajaWorker {
	return &CajaWorker{cajaRepo: cajaRepo}
}

// Process is idempotent on MovimientoID: a re-delivered job that already
// produced its cash movement is a no-op.
func (w *CajaWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p CobroCajaPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("caja_worker: invalid payload")
		return nil
	}
	movID, err := uuid.Parse(p.MovimientoID)
	if err != nil {
		log.Error().Str("movimiento_id", p.MovimientoID).Msg("caja_worker: invalid movimiento_id")
		return nil
	}
	usuarioID, err := uuid.Parse(p.UsuarioID)
	if err != nil {
		log.Warn().Str("movimiento_id", p.MovimientoID).Msg("caja_worker: payment without user, skipping")
		return nil
	}
	if !p.Monto.IsPositive() {
		log.Error().Str("movimiento_id", p.MovimientoID).Str("monto", p.Monto.String()).Msg("caja_worker: non-positive amount")
		return nil
	}

	sesion, err := w.cajaRepo.FindSesionAbiertaPorUsuario(ctx, usuarioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().
				Str("usuario_id", p.UsuarioID).
				Str("movimiento_id", p.MovimientoID).
				Msg("caja_worker: no open cash session, payment not registered in caja")
			return nil
		}
		return fmt.Errorf("caja_worker: find session: %w", err)
	}

	exists, err := w.cajaRepo.ExisteMovimientoPorReferencia(ctx, model.MovimientoCajaCobroCuenta, movID)
	if err != nil {
		return fmt.Errorf("caja_worker: check reference: %w", err)
	}
	if exists {
		log.Debug().Str("movimiento_id", p.MovimientoID).Msg("caja_worker: already registered")
		return nil
	}

	mov := &model.MovimientoCaja{
		SesionCajaID: sesion.ID,
		Tipo:         model.MovimientoCajaCobroCuenta,
		Monto:        p.Monto,
		Descripcion:  p.Descripcion,
		ReferenciaID: &movID,
	}
	if p.MetodoPagoID != "" {
		if mid, err := uuid.Parse(p.MetodoPagoID); err == nil {
			mov.MetodoPagoID = &mid
		}
	}
	if err := w.cajaRepo.CreateMovimiento(ctx, mov); err != nil {
		return fmt.Errorf("caja_worker: create movement: %w", err)
	}
	log.Info().
		Str("sesion_caja_id", sesion.ID.String()).
		Str("movimiento_id", p.MovimientoID).
		Str("monto", p.Monto.StringFixed(2)).
		Msg("caja_worker: cobro de cuenta corriente registrado")
	return nil
}
