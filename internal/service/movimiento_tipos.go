package service

import (
	"cuentacorriente/internal/model"

	"github.com/shopspring/decimal"
)

// reglaMovimiento describes how a movement type affects the balance.
type reglaMovimiento struct {
	// signo is +1 (increases debt), -1 (reduces debt) or 0 when the caller's
	// sign is kept (ajuste).
	signo int
	// bloqueadoEnSuspension rejects the type on a suspended account.
	bloqueadoEnSuspension bool
	requiereMetodoPago    bool
	// liquidaDeuda: bringing the balance to zero or below with this type is a
	// full payment (reactivation, pending sales completed).
	liquidaDeuda       bool
	descripcionDefault string
}

var reglasMovimiento = map[string]reglaMovimiento{
	model.MovimientoCargo:     {signo: 1, bloqueadoEnSuspension: true, descripcionDefault: "Cargo en cuenta corriente"},
	model.MovimientoInteres:   {signo: 1, descripcionDefault: "Interés por mora"},
	model.MovimientoAjuste:    {signo: 0, descripcionDefault: "Ajuste de saldo"},
	model.MovimientoPago:      {signo: -1, requiereMetodoPago: true, liquidaDeuda: true, descripcionDefault: "Pago recibido"},
	model.MovimientoDescuento: {signo: -1, liquidaDeuda: true, descripcionDefault: "Descuento"},
}

// efectoFirmado validates monto for the type and returns the signed effect on
// the balance.
func (r reglaMovimiento) efectoFirmado(monto decimal.Decimal) (decimal.Decimal, error) {
	monto = monto.Round(2)
	if r.signo == 0 {
		if monto.IsZero() {
			return decimal.Zero, ErrAjusteCero
		}
		return monto, nil
	}
	if !monto.IsPositive() {
		return decimal.Zero, ErrMontoInvalido
	}
	if r.signo < 0 {
		return monto.Neg(), nil
	}
	return monto, nil
}
