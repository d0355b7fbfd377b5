package service

import (
	"cuentacorriente/internal/model"

	"github.com/shopspring/decimal"
)

// Posición neta de una cuenta.
const (
	PosicionClienteDebe = "customer_owes"
	PosicionNegocioDebe = "business_owes"
	PosicionSaldada     = "settled"
)

// ResumenCuenta aggregates a statement's movements.
type ResumenCuenta struct {
	TotalCargos  decimal.Decimal // cargos + intereses
	TotalPagos   decimal.Decimal // pagos + descuentos
	TotalAjustes decimal.Decimal // signed sum of ajustes
	SaldoActual  decimal.Decimal
	Posicion     string
}

func Resumir(cuenta *model.CuentaCorriente, movs []model.MovimientoCuenta) ResumenCuenta {
	r := ResumenCuenta{
		TotalCargos:  decimal.Zero,
		TotalPagos:   decimal.Zero,
		TotalAjustes: decimal.Zero,
		SaldoActual:  cuenta.Saldo,
		Posicion:     PosicionDe(cuenta.Saldo),
	}
	for i := range movs {
		m := &movs[i]
		switch m.Tipo {
		case model.MovimientoCargo, model.MovimientoInteres:
			r.TotalCargos = r.TotalCargos.Add(m.Magnitud())
		case model.MovimientoPago, model.MovimientoDescuento:
			r.TotalPagos = r.TotalPagos.Add(m.Magnitud())
		case model.MovimientoAjuste:
			r.TotalAjustes = r.TotalAjustes.Add(m.Monto)
		}
	}
	return r
}

func PosicionDe(saldo decimal.Decimal) string {
	switch {
	case saldo.IsPositive():
		return PosicionClienteDebe
	case saldo.IsNegative():
		return PosicionNegocioDebe
	default:
		return PosicionSaldada
	}
}
