package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cuentacorriente/internal/infra"
	"cuentacorriente/internal/model"
	"cuentacorriente/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CalcularDiasMora returns the whole days elapsed since the oldest debit that
// is still unpaid. Credits settle debits oldest first, so the unpaid debits are
// the most recent ones adding up to saldo. debitos are the debit movements in
// descending secuencia order (at least until they cover saldo).
func CalcularDiasMora(saldo decimal.Decimal, debitos []model.MovimientoCuenta, ahora time.Time) int {
	if !saldo.IsPositive() || len(debitos) == 0 {
		return 0
	}
	masAntiguo := &debitos[len(debitos)-1]
	acumulado := decimal.Zero
	for i := range debitos {
		acumulado = acumulado.Add(debitos[i].Monto)
		if acumulado.GreaterThanOrEqual(saldo) {
			masAntiguo = &debitos[i]
			break
		}
	}
	dias := int(ahora.Sub(masAntiguo.CreatedAt).Hours() / 24)
	if dias < 0 {
		return 0
	}
	return dias
}

// ── Mora job ──────────────────────────────────────────────────────────────────

// Mora recomputes días de mora outside of movement application (time passes
// without movements) and auto-suspends accounts past DiasSuspension.
type Mora struct {
	ledger         *Ledger
	cuentas        repository.CuentaRepository
	diasSuspension int
	stats          *statsCache
}

// NewMora builds the job. diasSuspension 0 disables auto-suspension.
func NewMora(ledger *Ledger, cuentas repository.CuentaRepository, diasSuspension int, stats *statsCache) *Mora {
	return &Mora{ledger: ledger, cuentas: cuentas, diasSuspension: diasSuspension, stats: stats}
}

// RecalcularMora walks every account with debt. One account failing does not
// stop the pass; the first error is returned at the end.
func (m *Mora) RecalcularMora(ctx context.Context) (revisadas, suspendidas int, err error) {
	ids, err := m.cuentas.ListClienteIDsConSaldo(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("listando cuentas con saldo: %w", err)
	}

	var firstErr error
	for _, clienteID := range ids {
		if ctx.Err() != nil {
			return revisadas, suspendidas, ctx.Err()
		}
		suspendida, err := m.RecalcularCuenta(ctx, clienteID)
		if err != nil {
			log.Error().Err(err).Str("cliente_id", clienteID.String()).Msg("mora: recalculation failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		revisadas++
		if suspendida {
			suspendidas++
		}
	}
	if revisadas > 0 {
		m.stats.invalidar(ctx)
	}
	return revisadas, suspendidas, firstErr
}

// RecalcularCuenta refreshes one account under its row lock and reports
// whether it was suspended by this pass.
func (m *Mora) RecalcularCuenta(ctx context.Context, clienteID uuid.UUID) (bool, error) {
	suspendida := false
	err := m.ledger.conCuenta(ctx, clienteID, false, func(tx *gorm.DB, c *model.CuentaCorriente) error {
		suspendida = false
		dias := 0
		if c.Saldo.IsPositive() {
			debitos, err := m.cuentas.ListDebitosPendientesTx(tx, c.ID, c.Saldo)
			if err != nil {
				return err
			}
			dias = CalcularDiasMora(c.Saldo, debitos, m.ledger.now())
		}

		cambio := dias != c.DiasMora
		c.DiasMora = dias
		if m.diasSuspension > 0 && dias > m.diasSuspension && c.Estado == model.EstadoCuentaActiva {
			c.Estado = model.EstadoCuentaSuspendida
			suspendida = true
			cambio = true
		}
		if !cambio {
			return nil
		}
		return m.cuentas.UpdateTx(tx, c)
	})
	if errors.Is(err, ErrCuentaNoEncontrada) {
		return false, nil
	}
	if suspendida && err == nil {
		infra.CuentasSuspendidasMora.Inc()
		log.Warn().Str("cliente_id", clienteID.String()).Int("limite_dias", m.diasSuspension).Msg("mora: cuenta suspendida automáticamente")
	}
	return suspendida, err
}
