//go:build integration

package router

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cuentacorriente/internal/config"
	"cuentacorriente/internal/dto"
	"cuentacorriente/internal/infra"
	"cuentacorriente/internal/middleware"
	"cuentacorriente/internal/model"
	"cuentacorriente/internal/repository"
	"cuentacorriente/internal/service"
	"cuentacorriente/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

type e2eEnv struct {
	server   *httptest.Server
	db       *gorm.DB
	admin    string
	cajero   string
	cajeroID uuid.UUID
	cliente  uuid.UUID
	metodo   uuid.UUID
}

func setupE2E(t *testing.T) *e2eEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("cuentas_test"),
		tcPostgres.WithUsername("cuentas"),
		tcPostgres.WithPassword("cuentas"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pgC) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(rdC) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "e2e-secret",
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
		BusinessName:       "Almacén E2E",
		SyncOnStatement:    true,
		MoraDiasSuspension: 30,
		LedgerMaxRetries:   5,
		StatsCacheTTLSecs:  60,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	env := &e2eEnv{db: db, cajeroID: uuid.New(), cliente: uuid.New(), metodo: uuid.New()}
	require.NoError(t, db.Exec(`INSERT INTO usuarios (id, username, nombre, rol) VALUES (?, 'cajero1', 'Cajero Uno', 'cajero')`, env.cajeroID).Error)
	require.NoError(t, db.Exec(`INSERT INTO clientes (id, nombre, apellido, email) VALUES (?, 'Ana', 'García', 'ana@example.com')`, env.cliente).Error)
	require.NoError(t, db.Exec(`INSERT INTO metodos_pago (id, codigo, nombre) VALUES (?, 'efectivo', 'Efectivo')`, env.metodo).Error)
	require.NoError(t, db.Exec(`INSERT INTO sesion_cajas (punto_de_venta, usuario_id, monto_inicial) VALUES (1, ?, 0)`, env.cajeroID).Error)

	cuentaRepo := repository.NewCuentaRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	ledger := service.NewLedger(cuentaRepo, repository.NewClienteRepository(db), repository.NewMetodoPagoRepository(db), ventaRepo,
		service.LedgerConfig{MaxRetries: cfg.LedgerMaxRetries})
	svc := service.NewCuentaService(ledger, cuentaRepo, repository.NewClienteRepository(db), ventaRepo, worker.NewDispatcher(rdb), rdb, cfg)

	workerCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	pool := worker.NewPool(rdb)
	pool.Handle(worker.JobCaja, worker.NewCajaWorker(repository.NewCajaRepository(db)).Process)
	pool.Start(workerCtx, cfg.WorkerPoolSize)

	env.server = httptest.NewServer(New(cfg, db, rdb, svc))
	t.Cleanup(env.server.Close)

	env.admin, err = middleware.NewToken(cfg.JWTSecret, uuid.NewString(), "admin", "administrador", time.Hour)
	require.NoError(t, err)
	env.cajero, err = middleware.NewToken(cfg.JWTSecret, env.cajeroID.String(), "cajero1", "cajero", time.Hour)
	require.NoError(t, err)
	return env
}

func (e *e2eEnv) do(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func (e *e2eEnv) path(suffix string) string {
	return "/v1/cuentas/" + e.cliente.String() + suffix
}

func TestE2E_CicloCargoPagoEstado(t *testing.T) {
	e := setupE2E(t)

	require.NoError(t, e.db.Exec(`INSERT INTO ventas (numero_venta, cliente_id, total, es_cuenta_corriente, fecha_venta)
		VALUES ('V-0001', ?, 1500.00, TRUE, NOW() - INTERVAL '2 days')`, e.cliente).Error)

	// Statement reconciles the on-account sale into a cargo.
	resp := e.do(t, http.MethodGet, e.path(""), nil, e.cajero)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var estado dto.EstadoCuentaResponse
	decode(t, resp, &estado)
	require.Len(t, estado.Movimientos, 1)
	assert.True(t, estado.Cuenta.Saldo.Equal(decimal.NewFromInt(1500)))
	assert.Zero(t, estado.Cuenta.DiasMora, "mora counts from the cargo, not the sale")

	// Partial then full payment.
	resp = e.do(t, http.MethodPost, e.path("/pagos"), map[string]any{"monto": "500", "metodo_pago_id": e.metodo}, e.cajero)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, e.path("/pagos"), map[string]any{"monto": "1000", "metodo_pago_id": e.metodo}, e.cajero)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var op dto.OperacionResponse
	decode(t, resp, &op)
	assert.True(t, op.Cuenta.Saldo.IsZero())
	assert.Equal(t, 0, op.Cuenta.DiasMora)
	assert.EqualValues(t, 1, op.VentasCompletadas)

	var estadoVenta string
	require.NoError(t, e.db.Raw(`SELECT estado FROM ventas WHERE numero_venta = 'V-0001'`).Scan(&estadoVenta).Error)
	assert.Equal(t, model.EstadoVentaCompletada, estadoVenta)

	// Both payments reach the cashier's open session through the worker.
	assert.Eventually(t, func() bool {
		var n int64
		e.db.Model(&model.MovimientoCaja{}).Where("tipo = ?", model.MovimientoCajaCobroCuenta).Count(&n)
		return n == 2
	}, 10*time.Second, 100*time.Millisecond)

	resp = e.do(t, http.MethodGet, e.path("/verificacion"), nil, e.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ver dto.VerificacionResponse
	decode(t, resp, &ver)
	assert.True(t, ver.Valida, ver.Errores)
	assert.Equal(t, 3, ver.Movimientos)
}

func TestE2E_MovimientosConcurrentesMantienenLaCadena(t *testing.T) {
	e := setupE2E(t)
	const n = 20

	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var resp *http.Response
			if i%2 == 0 {
				resp = e.do(t, http.MethodPost, e.path("/cargos"), map[string]any{"monto": "10.10", "descripcion": fmt.Sprintf("cargo %d", i)}, e.cajero)
			} else {
				resp = e.do(t, http.MethodPost, e.path("/pagos"), map[string]any{"monto": "5.05", "metodo_pago_id": e.metodo}, e.cajero)
			}
			codes[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, c := range codes {
		if c == http.StatusCreated {
			ok++
		} else {
			assert.Equal(t, http.StatusServiceUnavailable, c, "only contention may reject a valid movement")
		}
	}

	resp := e.do(t, http.MethodGet, e.path("/verificacion"), nil, e.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ver dto.VerificacionResponse
	decode(t, resp, &ver)
	assert.True(t, ver.Valida, ver.Errores)
	assert.Equal(t, ok, ver.Movimientos)
}

func TestE2E_CargosConcurrentesDeLaMismaVenta(t *testing.T) {
	e := setupE2E(t)
	ventaID := uuid.New()
	require.NoError(t, e.db.Exec(`INSERT INTO ventas (id, numero_venta, cliente_id, total, es_cuenta_corriente)
		VALUES (?, 'V-0200', ?, 250, TRUE)`, ventaID, e.cliente).Error)
	const n = 10

	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := e.do(t, http.MethodPost, e.path("/cargos"), map[string]any{"monto": "250", "venta_id": ventaID}, e.cajero)
			codes[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	creados := 0
	for _, c := range codes {
		if c == http.StatusCreated {
			creados++
			continue
		}
		assert.Equal(t, http.StatusConflict, c)
	}
	assert.Equal(t, 1, creados)

	var cargos int64
	require.NoError(t, e.db.Model(&model.MovimientoCuenta{}).
		Where("referencia_tipo = ? AND referencia_id = ?", model.ReferenciaVenta, ventaID).
		Count(&cargos).Error)
	assert.EqualValues(t, 1, cargos)

	resp := e.do(t, http.MethodGet, e.path("/verificacion"), nil, e.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ver dto.VerificacionResponse
	decode(t, resp, &ver)
	assert.True(t, ver.Valida, ver.Errores)
	assert.True(t, ver.SaldoCuenta.Equal(decimal.NewFromInt(250)))
}

func TestE2E_CargoDuplicadoPorVentaYSuspension(t *testing.T) {
	e := setupE2E(t)
	ventaID := uuid.New()
	require.NoError(t, e.db.Exec(`INSERT INTO ventas (id, numero_venta, cliente_id, total, es_cuenta_corriente)
		VALUES (?, 'V-0100', ?, 80, TRUE)`, ventaID, e.cliente).Error)

	cargo := map[string]any{"monto": "80", "venta_id": ventaID}
	resp := e.do(t, http.MethodPost, e.path("/cargos"), cargo, e.cajero)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, e.path("/cargos"), cargo, e.cajero)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, e.path("/sincronizar"), nil, e.cajero)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sinc dto.SincronizacionResponse
	decode(t, resp, &sinc)
	assert.Zero(t, sinc.CargosCreados)

	resp = e.do(t, http.MethodPost, e.path("/suspender"), nil, e.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, e.path("/cargos"), map[string]any{"monto": "1"}, e.cajero)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, e.path("/pagos"), map[string]any{"monto": "80", "metodo_pago_id": e.metodo}, e.cajero)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var op dto.OperacionResponse
	decode(t, resp, &op)
	assert.Equal(t, model.EstadoCuentaActiva, op.Cuenta.Estado, "full payment lifts the suspension")
}
