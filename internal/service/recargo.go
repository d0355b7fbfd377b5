package service

import (
	"github.com/shopspring/decimal"
)

// Tipos de recargo.
const (
	RecargoPorcentaje = "porcentaje"
	RecargoFijo       = "fijo"
)

var cien = decimal.NewFromInt(100)

// CalcularRecargo returns the surcharge for a balance: a percentage of saldo
// rounded to cents, or the fixed valor. valor must be > 0; a result <= 0
// (percentage of a settled or credit balance) is ErrRecargoInvalido.
func CalcularRecargo(saldo decimal.Decimal, tipo string, valor decimal.Decimal) (decimal.Decimal, error) {
	if !valor.IsPositive() {
		return decimal.Zero, ErrMontoInvalido
	}
	var monto decimal.Decimal
	switch tipo {
	case RecargoPorcentaje:
		monto = saldo.Mul(valor).Div(cien).Round(2)
	case RecargoFijo:
		monto = valor.Round(2)
	default:
		return decimal.Zero, ErrTipoRecargoInvalido
	}
	if !monto.IsPositive() {
		return decimal.Zero, ErrRecargoInvalido
	}
	return monto, nil
}

func descripcionRecargo(tipo string, valor decimal.Decimal) string {
	if tipo == RecargoPorcentaje {
		return "Recargo por mora (" + valor.String() + "%)"
	}
	return "Recargo por mora ($" + valor.StringFixed(2) + ")"
}
