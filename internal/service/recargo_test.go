package service

import (
	"context"
	"testing"

	"cuentacorriente/internal/dto"
	"cuentacorriente/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcularRecargo(t *testing.T) {
	tests := []struct {
		name    string
		saldo   string
		tipo    string
		valor   string
		want    string
		wantErr error
	}{
		{"porcentaje redondea a centavos", "150.55", RecargoPorcentaje, "10", "15.06", nil},
		{"porcentaje con decimales", "1000", RecargoPorcentaje, "2.5", "25", nil},
		{"fijo ignora el saldo", "10", RecargoFijo, "99.999", "100", nil},
		{"porcentaje de saldo cero", "0", RecargoPorcentaje, "10", "", ErrRecargoInvalido},
		{"porcentaje de saldo a favor", "-50", RecargoPorcentaje, "10", "", ErrRecargoInvalido},
		{"porcentaje que redondea a cero", "0.01", RecargoPorcentaje, "1", "", ErrRecargoInvalido},
		{"valor cero", "100", RecargoFijo, "0", "", ErrMontoInvalido},
		{"valor negativo", "100", RecargoPorcentaje, "-5", "", ErrMontoInvalido},
		{"tipo desconocido", "100", "mensual", "5", "", ErrTipoRecargoInvalido},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalcularRecargo(dec(tt.saldo), tt.tipo, dec(tt.valor))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assertDec(t, tt.want, got)
		})
	}
}

func TestDescripcionRecargo(t *testing.T) {
	assert.Equal(t, "Recargo por mora (10%)", descripcionRecargo(RecargoPorcentaje, dec("10")))
	assert.Equal(t, "Recargo por mora ($250.00)", descripcionRecargo(RecargoFijo, dec("250")))
}

func TestAplicarRecargo_RegistraInteresSobreElSaldo(t *testing.T) {
	e := nuevoEntorno(t)
	e.cargo(t, "150.55")

	resp, err := e.svc.AplicarRecargo(context.Background(), e.cliente.ID, &e.usuario.ID, dto.AplicarRecargoRequest{
		Tipo:  RecargoPorcentaje,
		Valor: dec("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.MovimientoInteres, resp.Movimiento.Tipo)
	assertDec(t, "15.06", resp.Movimiento.Monto)
	assert.Equal(t, "Recargo por mora (10%)", resp.Movimiento.Descripcion)
	require.NotNil(t, resp.Movimiento.ReferenciaTipo)
	assert.Equal(t, model.ReferenciaRecargo, *resp.Movimiento.ReferenciaTipo)
	assertDec(t, "165.61", resp.Cuenta.Saldo)
	assertDec(t, "165.61", e.cuenta(t).Saldo)
}

func TestAplicarRecargo_FijoConDescripcion(t *testing.T) {
	e := nuevoEntorno(t)
	e.cargo(t, "10")

	resp, err := e.svc.AplicarRecargo(context.Background(), e.cliente.ID, nil, dto.AplicarRecargoRequest{
		Tipo:        RecargoFijo,
		Valor:       dec("500"),
		Descripcion: "Gastos de gestión",
	})
	require.NoError(t, err)
	assert.Equal(t, "Gastos de gestión", resp.Movimiento.Descripcion)
	assertDec(t, "510", resp.Cuenta.Saldo)
}

func TestAplicarRecargo_SuspendidaSePermite(t *testing.T) {
	e := nuevoEntorno(t)
	e.cargo(t, "100")
	e.setEstado(t, model.EstadoCuentaSuspendida)

	_, err := e.svc.AplicarRecargo(context.Background(), e.cliente.ID, nil, dto.AplicarRecargoRequest{
		Tipo: RecargoPorcentaje, Valor: dec("5"),
	})
	require.NoError(t, err)
	assertDec(t, "105", e.cuenta(t).Saldo)
}

func TestAplicarRecargo_Errores(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	req := dto.AplicarRecargoRequest{Tipo: RecargoPorcentaje, Valor: dec("10")}

	_, err := e.svc.AplicarRecargo(ctx, e.cliente.ID, nil, req)
	assert.ErrorIs(t, err, ErrCuentaNoEncontrada, "no account is created for a surcharge")

	e.cargo(t, "50")
	e.pago(t, "50")
	_, err = e.svc.AplicarRecargo(ctx, e.cliente.ID, nil, req)
	assert.ErrorIs(t, err, ErrRecargoInvalido)
	assert.Len(t, e.movimientos(t), 2, "nothing written")

	_, err = e.svc.AplicarRecargo(ctx, e.cliente.ID, nil, dto.AplicarRecargoRequest{Tipo: "x", Valor: dec("1")})
	assert.ErrorIs(t, err, ErrTipoRecargoInvalido)

	e.setEstado(t, model.EstadoCuentaCerrada)
	_, err = e.svc.AplicarRecargo(ctx, e.cliente.ID, nil, dto.AplicarRecargoRequest{Tipo: RecargoFijo, Valor: dec("1")})
	assert.ErrorIs(t, err, ErrCuentaCerrada)
}
