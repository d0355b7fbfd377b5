package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"cuentacorriente/internal/model"
	"cuentacorriente/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSincronizar_CreaCargosFaltantesUnaSolaVez(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	v1 := testutil.SeedVentaCC(t, e.db, e.cliente.ID, "V-0001", dec("100"), time.Now().Add(-48*time.Hour))
	v2 := testutil.SeedVentaCC(t, e.db, e.cliente.ID, "V-0002", dec("50.25"), time.Now().Add(-24*time.Hour))

	res, err := e.svc.SincronizarCargos(ctx, e.cliente.ID, &e.usuario.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CargosCreados)
	assertDec(t, "150.25", res.MontoTotal)
	require.Len(t, res.Ventas, 2)
	assert.Equal(t, v1.ID.String(), res.Ventas[0].VentaID, "oldest sale first")
	assert.Equal(t, v2.ID.String(), res.Ventas[1].VentaID)

	movs := e.movimientos(t)
	require.Len(t, movs, 2)
	assert.Equal(t, "Venta V-0001", movs[0].Descripcion)
	require.NotNil(t, movs[0].Notas)
	assert.Equal(t, notaConciliacion, *movs[0].Notas)
	require.NotNil(t, movs[0].ReferenciaTipo)
	assert.Equal(t, model.ReferenciaVenta, *movs[0].ReferenciaTipo)
	assert.Equal(t, v1.ID, *movs[0].ReferenciaID)
	assert.Equal(t, e.usuario.ID, *movs[0].CreadoPorID)

	again, err := e.svc.SincronizarCargos(ctx, e.cliente.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, again.CargosCreados)
	assert.True(t, again.MontoTotal.IsZero())
	assert.Len(t, e.movimientos(t), 2)
}

func TestSincronizar_OmiteVentasInvalidasSinFrenarElResto(t *testing.T) {
	e := nuevoEntorno(t)
	testutil.SeedVentaCC(t, e.db, e.cliente.ID, "V-0001", dec("0"), time.Now().Add(-2*time.Hour))
	testutil.SeedVentaCC(t, e.db, e.cliente.ID, "V-0002", dec("30"), time.Now().Add(-time.Hour))
	testutil.SeedVentaCC(t, e.db, e.cliente.ID, "  ", dec("12"), time.Now().Add(-30*time.Minute))

	res, err := e.svc.SincronizarCargos(context.Background(), e.cliente.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CargosCreados)
	assert.Equal(t, 2, res.Omitidas, "zero total and blank numero are both skipped")
	assertDec(t, "30", e.cuenta(t).Saldo)
}

func TestSincronizar_ConcurrenteCargaLaVentaUnaSolaVez(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	venta := seedVenta(t, e, "V-0001", "75.40")
	const n = 10

	var wg sync.WaitGroup
	creados := make(chan int, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.svc.SincronizarCargos(ctx, e.cliente.ID, nil)
			errs <- err
			if err == nil {
				creados <- res.CargosCreados
			}
		}()
	}
	wg.Wait()
	close(errs)
	close(creados)

	for err := range errs {
		require.NoError(t, err)
	}
	total := 0
	for c := range creados {
		total += c
	}
	assert.Equal(t, 1, total)

	movs := e.movimientos(t)
	require.Len(t, movs, 1)
	assert.Equal(t, venta.ID, *movs[0].ReferenciaID)
	assertDec(t, "75.40", e.cuenta(t).Saldo)

	ver, err := e.svc.VerificarCadena(ctx, e.cliente.ID)
	require.NoError(t, err)
	assert.True(t, ver.Valida, ver.Errores)
}

func TestSincronizar_RespetaCargosYaRegistrados(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	v := seedVenta(t, e, "V-0001", "80")
	seedVenta(t, e, "V-0002", "20")

	_, err := e.svc.RegistrarCargo(ctx, e.cliente.ID, nil, registrarCargoReq("80", v.ID.String()))
	require.NoError(t, err)

	res, err := e.svc.SincronizarCargos(ctx, e.cliente.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CargosCreados)
	assertDec(t, "100", e.cuenta(t).Saldo)
}

func TestSincronizar_CuentaSuspendidaIgualRegistraLaVenta(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.cargo(t, "10")
	e.setEstado(t, model.EstadoCuentaSuspendida)
	seedVenta(t, e, "V-0009", "45")

	res, err := e.svc.SincronizarCargos(ctx, e.cliente.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CargosCreados)
	c := e.cuenta(t)
	assertDec(t, "55", c.Saldo)
	assert.Equal(t, model.EstadoCuentaSuspendida, c.Estado)
}

func TestSincronizar_IgnoraVentasNoPendientesOContado(t *testing.T) {
	e := nuevoEntorno(t)
	completada := seedVenta(t, e, "V-0001", "10")
	require.NoError(t, e.db.Model(completada).Update("estado", model.EstadoVentaCompletada).Error)
	contado := seedVenta(t, e, "V-0002", "10")
	require.NoError(t, e.db.Model(contado).Update("es_cuenta_corriente", false).Error)

	res, err := e.svc.SincronizarCargos(context.Background(), e.cliente.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, res.CargosCreados)
}

func TestSincronizar_ClienteInexistente(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.svc.SincronizarCargos(context.Background(), e.usuario.ID, nil)
	assert.ErrorIs(t, err, ErrClienteNoEncontrado)
}
