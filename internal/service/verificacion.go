package service

import (
	"fmt"

	"cuentacorriente/internal/model"

	"github.com/shopspring/decimal"
)

// VerificacionCadena reports whether an account's movements form an unbroken
// chain that ends at the stored balance.
type VerificacionCadena struct {
	Valida         bool
	Movimientos    int
	SaldoCuenta    decimal.Decimal
	SaldoCalculado decimal.Decimal
	// PrimerQuiebre is the secuencia of the first inconsistent movement.
	PrimerQuiebre *int64
	Errores       []string
}

// VerificarCadena checks, in order: consecutive secuencia numbers, each
// saldo_anterior equal to the previous saldo_posterior (0 for the first),
// saldo_posterior = saldo_anterior + monto, the sum of montos equal to the
// account saldo, and ultima_secuencia pointing at the last movement.
func VerificarCadena(cuenta *model.CuentaCorriente, movs []model.MovimientoCuenta) *VerificacionCadena {
	v := &VerificacionCadena{
		Movimientos:    len(movs),
		SaldoCuenta:    cuenta.Saldo,
		SaldoCalculado: decimal.Zero,
	}
	quiebre := func(sec int64, format string, args ...interface{}) {
		if v.PrimerQuiebre == nil {
			s := sec
			v.PrimerQuiebre = &s
		}
		v.Errores = append(v.Errores, fmt.Sprintf("secuencia %d: ", sec)+fmt.Sprintf(format, args...))
	}

	previo := decimal.Zero
	for i := range movs {
		m := &movs[i]
		if m.Secuencia != int64(i+1) {
			quiebre(m.Secuencia, "se esperaba secuencia %d", i+1)
		}
		if !m.SaldoAnterior.Equal(previo) {
			quiebre(m.Secuencia, "saldo_anterior %s no coincide con el saldo previo %s", m.SaldoAnterior, previo)
		}
		if !m.SaldoAnterior.Add(m.Monto).Equal(m.SaldoPosterior) {
			quiebre(m.Secuencia, "saldo_posterior %s != saldo_anterior %s + monto %s", m.SaldoPosterior, m.SaldoAnterior, m.Monto)
		}
		v.SaldoCalculado = v.SaldoCalculado.Add(m.Monto)
		previo = m.SaldoPosterior
	}

	if !v.SaldoCalculado.Equal(cuenta.Saldo) {
		v.Errores = append(v.Errores, fmt.Sprintf("la suma de movimientos %s no coincide con el saldo %s", v.SaldoCalculado, cuenta.Saldo))
	}
	if !previo.Equal(cuenta.Saldo) {
		v.Errores = append(v.Errores, fmt.Sprintf("el último saldo_posterior %s no coincide con el saldo %s", previo, cuenta.Saldo))
	}
	if cuenta.UltimaSecuencia != int64(len(movs)) {
		v.Errores = append(v.Errores, fmt.Sprintf("ultima_secuencia %d con %d movimientos", cuenta.UltimaSecuencia, len(movs)))
	}
	v.Valida = len(v.Errores) == 0
	return v
}
