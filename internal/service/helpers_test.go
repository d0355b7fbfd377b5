package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"cuentacorriente/internal/config"
	"cuentacorriente/internal/dto"
	"cuentacorriente/internal/model"
	"cuentacorriente/internal/repository"
	"cuentacorriente/internal/testutil"
	"cuentacorriente/internal/worker"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeJobs records enqueued jobs instead of pushing them to Redis.
type fakeJobs struct {
	mu     sync.Mutex
	emails []worker.EmailJobPayload
	cobros []worker.CobroCajaPayload
	err    error
}

func (f *fakeJobs) EnqueueEmail(_ context.Context, p worker.EmailJobPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.emails = append(f.emails, p)
	return nil
}

func (f *fakeJobs) EnqueueCobroCaja(_ context.Context, p worker.CobroCajaPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.cobros = append(f.cobros, p)
	return nil
}

type entorno struct {
	db      *gorm.DB
	cuentas repository.CuentaRepository
	ledger  *Ledger
	svc     CuentaService
	jobs    *fakeJobs
	cfg     *config.Config
	cliente *model.Cliente
	metodo  *model.MetodoPago
	usuario *model.Usuario
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	db := testutil.NewDB(t)

	cuentas := repository.NewCuentaRepository(db)
	clientes := repository.NewClienteRepository(db)
	ventas := repository.NewVentaRepository(db)
	ledger := NewLedger(cuentas, clientes, repository.NewMetodoPagoRepository(db), ventas, LedgerConfig{MaxRetries: 2})

	cfg := &config.Config{
		SyncOnStatement:    true,
		MoraDiasSuspension: 30,
		PDFStoragePath:     t.TempDir(),
		BusinessName:       "Almacén Test",
	}
	jobs := &fakeJobs{}

	return &entorno{
		db:      db,
		cuentas: cuentas,
		ledger:  ledger,
		svc:     NewCuentaService(ledger, cuentas, clientes, ventas, jobs, nil, cfg),
		jobs:    jobs,
		cfg:     cfg,
		cliente: testutil.SeedCliente(t, db, "Ana", "García"),
		metodo:  testutil.SeedMetodoPago(t, db, "efectivo"),
		usuario: testutil.SeedUsuario(t, db, "cajero1", "cajero"),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (e *entorno) cargo(t *testing.T, monto string) *ResultadoMovimiento {
	t.Helper()
	res, err := e.ledger.AplicarMovimiento(context.Background(), Operacion{
		ClienteID: e.cliente.ID,
		Tipo:      model.MovimientoCargo,
		Monto:     dec(monto),
	})
	require.NoError(t, err)
	return res
}

func (e *entorno) pago(t *testing.T, monto string) *ResultadoMovimiento {
	t.Helper()
	res, err := e.ledger.AplicarMovimiento(context.Background(), Operacion{
		ClienteID:    e.cliente.ID,
		Tipo:         model.MovimientoPago,
		Monto:        dec(monto),
		MetodoPagoID: &e.metodo.ID,
		UsuarioID:    &e.usuario.ID,
	})
	require.NoError(t, err)
	return res
}

func (e *entorno) cuenta(t *testing.T) *model.CuentaCorriente {
	t.Helper()
	c, err := e.cuentas.FindByClienteID(context.Background(), e.cliente.ID)
	require.NoError(t, err)
	return c
}

func (e *entorno) movimientos(t *testing.T) []model.MovimientoCuenta {
	t.Helper()
	c := e.cuenta(t)
	movs, err := e.cuentas.ListMovimientos(context.Background(), c.ID)
	require.NoError(t, err)
	return movs
}

func (e *entorno) setEstado(t *testing.T, estado string) {
	t.Helper()
	require.NoError(t, e.db.Model(&model.CuentaCorriente{}).
		Where("cliente_id = ?", e.cliente.ID).
		Update("estado", estado).Error)
}

func seedCliente(t *testing.T, e *entorno, nombre string) *model.Cliente {
	t.Helper()
	return testutil.SeedCliente(t, e.db, nombre, "Pérez")
}

// seedVenta creates a pending on-account sale dated one hour ago.
func seedVenta(t *testing.T, e *entorno, numero, total string) *model.Venta {
	t.Helper()
	return testutil.SeedVentaCC(t, e.db, e.cliente.ID, numero, dec(total), time.Now().Add(-time.Hour))
}

func registrarCargoReq(monto, ventaID string) dto.RegistrarCargoRequest {
	req := dto.RegistrarCargoRequest{Monto: dec(monto)}
	if ventaID != "" {
		req.VentaID = &ventaID
	}
	return req
}

func ptr[T any](v T) *T { return &v }
