package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"cuentacorriente/internal/infra"
	"cuentacorriente/internal/model"
	"cuentacorriente/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Operacion is a single movement to apply to a customer's account.
type Operacion struct {
	ClienteID      uuid.UUID
	Tipo           string
	Monto          decimal.Decimal // unsigned, except for ajuste
	Descripcion    string
	Notas          *string
	ReferenciaTipo string
	ReferenciaID   *uuid.UUID
	MetodoPagoID   *uuid.UUID
	UsuarioID      *uuid.UUID
	// ValidarLimite rejects the movement when it would leave the balance above
	// a non-zero credit limit.
	ValidarLimite bool
	// Conciliacion marks charges for sales that already happened: they are
	// recorded even on a suspended account.
	Conciliacion bool
}

// ResultadoMovimiento is the committed movement and the account after it.
type ResultadoMovimiento struct {
	Movimiento *model.MovimientoCuenta
	Cuenta     *model.CuentaCorriente
	// VentasCompletadas counts on-account sales settled by a full payment.
	VentasCompletadas int64
}

// ObservadorMovimiento runs after a movement's transaction committed.
type ObservadorMovimiento func(ctx context.Context, r *ResultadoMovimiento)

// LedgerConfig holds tunables; zero values take the defaults.
type LedgerConfig struct {
	MaxRetries int
	Backoff    time.Duration
	// LockTimeout bounds the wait for the account row lock (postgres only).
	LockTimeout time.Duration
}

// Ledger is the only writer of customer_accounts and account_movements.
// Every mutation runs in one transaction holding the account row lock, so
// movements of one account are totally ordered while different accounts
// proceed in parallel.
type Ledger struct {
	cuentas  repository.CuentaRepository
	clientes repository.ClienteRepository
	metodos  repository.MetodoPagoRepository
	ventas   repository.VentaRepository

	maxRetries   int
	backoff      time.Duration
	lockTimeout  time.Duration
	now          func() time.Time
	observadores []ObservadorMovimiento
}

func NewLedger(
	cuentas repository.CuentaRepository,
	clientes repository.ClienteRepository,
	metodos repository.MetodoPagoRepository,
	ventas repository.VentaRepository,
	cfg LedgerConfig,
) *Ledger {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 50 * time.Millisecond
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 5 * time.Second
	}
	return &Ledger{
		cuentas:     cuentas,
		clientes:    clientes,
		metodos:     metodos,
		ventas:      ventas,
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.Backoff,
		lockTimeout: cfg.LockTimeout,
		now:         time.Now,
	}
}

// AlConfirmar registers an observer called after every committed movement.
// Not safe to call once the ledger is serving requests.
func (l *Ledger) AlConfirmar(obs ObservadorMovimiento) {
	l.observadores = append(l.observadores, obs)
}

// runTx executes fn inside a GORM transaction bound to ctx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// ── AplicarMovimiento ─────────────────────────────────────────────────────────
//   1. Validate type, amount and payment method (outside the TX)
//   2. BEGIN TX: get-or-create account, SELECT … FOR UPDATE
//   3. Compute snapshots, insert movement, update account
//   4. COMMIT (retried as a whole on lock/serialization contention)
//   5. Notify observers

func (l *Ledger) AplicarMovimiento(ctx context.Context, op Operacion) (*ResultadoMovimiento, error) {
	if err := l.validarOperacion(ctx, &op); err != nil {
		return nil, err
	}

	var res *ResultadoMovimiento
	err := l.conCuenta(ctx, op.ClienteID, true, func(tx *gorm.DB, cuenta *model.CuentaCorriente) error {
		r, err := l.aplicarTx(tx, cuenta, op)
		res = r
		return err
	})
	if err != nil {
		return nil, err
	}
	l.notificar(ctx, res)
	return res, nil
}

func (l *Ledger) validarOperacion(ctx context.Context, op *Operacion) error {
	regla, ok := reglasMovimiento[op.Tipo]
	if !ok {
		return ErrTipoMovimientoInvalido
	}
	if _, err := regla.efectoFirmado(op.Monto); err != nil {
		return err
	}
	if regla.requiereMetodoPago {
		if op.MetodoPagoID == nil || *op.MetodoPagoID == uuid.Nil {
			return ErrMetodoPagoRequerido
		}
		if l.metodos != nil {
			exists, err := l.metodos.Exists(ctx, *op.MetodoPagoID)
			if err != nil {
				return fmt.Errorf("verificando método de pago: %w", err)
			}
			if !exists {
				return ErrMetodoPagoInexistente
			}
		}
	}
	return nil
}

// aplicarTx appends one movement to a locked account. It must run inside the
// transaction that holds the lock on cuenta.
func (l *Ledger) aplicarTx(tx *gorm.DB, cuenta *model.CuentaCorriente, op Operacion) (*ResultadoMovimiento, error) {
	regla, ok := reglasMovimiento[op.Tipo]
	if !ok {
		return nil, ErrTipoMovimientoInvalido
	}
	efecto, err := regla.efectoFirmado(op.Monto)
	if err != nil {
		return nil, err
	}

	switch cuenta.Estado {
	case model.EstadoCuentaCerrada:
		return nil, ErrCuentaCerrada
	case model.EstadoCuentaSuspendida:
		if regla.bloqueadoEnSuspension && !op.Conciliacion {
			return nil, ErrCuentaSuspendida
		}
	}

	anterior := cuenta.Saldo
	posterior := anterior.Add(efecto)
	if op.ValidarLimite && cuenta.LimiteCredito.IsPositive() && posterior.GreaterThan(cuenta.LimiteCredito) {
		return nil, ErrLimiteCreditoExcedido
	}

	ahora := l.now()
	mov := &model.MovimientoCuenta{
		CuentaID:       cuenta.ID,
		Secuencia:      cuenta.UltimaSecuencia + 1,
		Tipo:           op.Tipo,
		Monto:          efecto,
		SaldoAnterior:  anterior,
		SaldoPosterior: posterior,
		Descripcion:    truncarDescripcion(op.Descripcion, regla.descripcionDefault),
		Notas:          op.Notas,
		ReferenciaID:   op.ReferenciaID,
		MetodoPagoID:   op.MetodoPagoID,
		CreadoPorID:    op.UsuarioID,
		CreatedAt:      ahora,
	}
	if op.ReferenciaTipo != "" {
		rt := op.ReferenciaTipo
		mov.ReferenciaTipo = &rt
	}
	if !regla.requiereMetodoPago {
		mov.MetodoPagoID = nil
	}

	if err := l.cuentas.CreateMovimientoTx(tx, mov); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if op.Tipo == model.MovimientoCargo && op.ReferenciaID != nil {
				return nil, ErrCargoDuplicado
			}
			return nil, fmt.Errorf("%w: secuencia %d ya registrada", ErrConcurrencia, mov.Secuencia)
		}
		return nil, fmt.Errorf("insertando movimiento: %w", err)
	}

	cuenta.Saldo = posterior
	cuenta.UltimaSecuencia = mov.Secuencia
	switch op.Tipo {
	case model.MovimientoPago:
		cuenta.FechaUltimoPago = &ahora
	case model.MovimientoCargo:
		cuenta.FechaUltimaCompra = &ahora
	}

	res := &ResultadoMovimiento{Movimiento: mov, Cuenta: cuenta}

	if posterior.IsPositive() {
		debitos, err := l.cuentas.ListDebitosPendientesTx(tx, cuenta.ID, posterior)
		if err != nil {
			return nil, fmt.Errorf("recalculando mora: %w", err)
		}
		cuenta.DiasMora = CalcularDiasMora(posterior, debitos, ahora)
	} else {
		cuenta.DiasMora = 0
		// Full payment: the debt that existed is settled. A negative ajuste
		// only corrects the balance.
		if regla.liquidaDeuda && anterior.IsPositive() {
			if cuenta.Estado == model.EstadoCuentaSuspendida {
				cuenta.Estado = model.EstadoCuentaActiva
			}
			if l.ventas != nil {
				n, err := l.ventas.MarcarCompletadasTx(tx, cuenta.ClienteID, cuenta.ID)
				if err != nil {
					return nil, fmt.Errorf("completando ventas: %w", err)
				}
				res.VentasCompletadas = n
			}
		}
	}

	if err := l.cuentas.UpdateTx(tx, cuenta); err != nil {
		return nil, fmt.Errorf("actualizando cuenta: %w", err)
	}
	return res, nil
}

func (l *Ledger) notificar(ctx context.Context, res *ResultadoMovimiento) {
	if res == nil {
		return
	}
	infra.MovimientosAplicados.WithLabelValues(res.Movimiento.Tipo).Inc()
	for _, obs := range l.observadores {
		obs(ctx, res)
	}
}

// ── Locking ───────────────────────────────────────────────────────────────────

// conCuenta runs fn in a transaction holding the account row lock. When crear
// is true a missing account is created (after checking the customer exists);
// otherwise a missing account yields ErrCuentaNoEncontrada. Transient
// contention re-runs the whole transaction.
func (l *Ledger) conCuenta(ctx context.Context, clienteID uuid.UUID, crear bool, fn func(tx *gorm.DB, c *model.CuentaCorriente) error) error {
	return l.conReintentos(ctx, func() error {
		return runTx(ctx, l.cuentas.DB(), func(tx *gorm.DB) error {
			if err := l.limitarEsperaLock(tx); err != nil {
				return err
			}
			cuenta, err := l.bloquearCuenta(tx, clienteID, crear)
			if err != nil {
				return err
			}
			return fn(tx, cuenta)
		})
	})
}

func (l *Ledger) bloquearCuenta(tx *gorm.DB, clienteID uuid.UUID, crear bool) (*model.CuentaCorriente, error) {
	cuenta, err := l.cuentas.FindByClienteIDForUpdateTx(tx, clienteID)
	if err == nil {
		return cuenta, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !crear {
		return nil, ErrCuentaNoEncontrada
	}

	exists, err := l.clientes.ExistsTx(tx, clienteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrClienteNoEncontrado
	}
	if err := l.cuentas.CreateIfNotExistsTx(tx, clienteID); err != nil {
		return nil, fmt.Errorf("creando cuenta: %w", err)
	}
	log.Info().Str("cliente_id", clienteID.String()).Msg("cuenta corriente creada")
	return l.cuentas.FindByClienteIDForUpdateTx(tx, clienteID)
}

func (l *Ledger) limitarEsperaLock(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", l.lockTimeout.Milliseconds())).Error
}

// ── Retries ───────────────────────────────────────────────────────────────────

// SQLSTATEs worth re-running the transaction for.
var codigosContencion = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available (lock_timeout)
}

func esContencion(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return codigosContencion[pgErr.Code]
	}
	return false
}

func (l *Ledger) conReintentos(ctx context.Context, fn func() error) error {
	for intento := 0; ; intento++ {
		err := fn()
		if err == nil || !esContencion(err) {
			return err
		}
		if intento >= l.maxRetries {
			infra.LedgerConflictos.Inc()
			log.Warn().Err(err).Int("intentos", intento+1).Msg("ledger: reintentos agotados")
			return fmt.Errorf("%w: %v", ErrConcurrencia, err)
		}
		infra.LedgerReintentos.Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(computeRetryBackoff(l.backoff, intento)):
		}
	}
}

// computeRetryBackoff doubles base on each attempt, capped at 2s.
func computeRetryBackoff(base time.Duration, intento int) time.Duration {
	d := base << intento
	if d <= 0 || d > 2*time.Second {
		return 2 * time.Second
	}
	return d
}

func truncarDescripcion(desc, def string) string {
	if desc == "" {
		desc = def
	}
	if utf8.RuneCountInString(desc) <= 200 {
		return desc
	}
	return string([]rune(desc)[:200])
}
