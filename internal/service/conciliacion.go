package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cuentacorriente/internal/infra"
	"cuentacorriente/internal/model"
	"cuentacorriente/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const notaConciliacion = "Cargo generado por sincronización"

// VentaSincronizada is a sale that received its missing cargo.
type VentaSincronizada struct {
	VentaID      uuid.UUID
	NumeroVenta  string
	Monto        decimal.Decimal
	MovimientoID uuid.UUID
}

// ResultadoSincronizacion summarizes one reconciliation pass.
type ResultadoSincronizacion struct {
	CargosCreados int
	MontoTotal    decimal.Decimal
	Ventas        []VentaSincronizada
	// Omitidas counts sales that could not be charged (bad data or errors).
	Omitidas int
}

// Conciliador makes sure every pending on-account sale has exactly one cargo.
type Conciliador struct {
	ledger *Ledger
	ventas repository.VentaRepository
}

func NewConciliador(ledger *Ledger, ventas repository.VentaRepository) *Conciliador {
	return &Conciliador{ledger: ledger, ventas: ventas}
}

// errVentaYaCargada stops a per-sale transaction without writing.
var errVentaYaCargada = errors.New("venta ya cargada")

// SincronizarCargosFaltantes creates the cargo of every pending on-account
// sale of the customer that does not have one yet. Each sale is its own
// atomic unit (lock, check, insert), so a bad sale never blocks the rest and
// running it again creates nothing.
func (c *Conciliador) SincronizarCargosFaltantes(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID) (*ResultadoSincronizacion, error) {
	res := &ResultadoSincronizacion{MontoTotal: decimal.Zero, Ventas: []VentaSincronizada{}}

	ventas, err := c.ventas.ListPendientesCuentaCorriente(ctx, clienteID)
	if err != nil {
		return nil, fmt.Errorf("listando ventas pendientes: %w", err)
	}

	for i := range ventas {
		v := &ventas[i]
		if !v.Total.IsPositive() || strings.TrimSpace(v.NumeroVenta) == "" {
			log.Warn().
				Str("venta_id", v.ID.String()).
				Str("numero_venta", v.NumeroVenta).
				Str("total", v.Total.String()).
				Msg("conciliacion: venta con datos inválidos, omitida")
			infra.ConciliacionErrores.Inc()
			res.Omitidas++
			continue
		}

		mov, err := c.cargarVenta(ctx, clienteID, v, usuarioID)
		switch {
		case err == nil:
			res.CargosCreados++
			res.MontoTotal = res.MontoTotal.Add(mov.Monto)
			res.Ventas = append(res.Ventas, VentaSincronizada{
				VentaID: v.ID, NumeroVenta: v.NumeroVenta, Monto: mov.Monto, MovimientoID: mov.ID,
			})
			infra.CargosSincronizados.Inc()
		case errors.Is(err, errVentaYaCargada), errors.Is(err, ErrCargoDuplicado):
			// already present
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return res, err
		default:
			log.Error().Err(err).
				Str("cliente_id", clienteID.String()).
				Str("venta_id", v.ID.String()).
				Msg("conciliacion: no se pudo registrar el cargo de la venta")
			infra.ConciliacionErrores.Inc()
			res.Omitidas++
		}
	}

	if res.CargosCreados > 0 {
		log.Info().
			Str("cliente_id", clienteID.String()).
			Int("cargos", res.CargosCreados).
			Str("monto", res.MontoTotal.StringFixed(2)).
			Msg("conciliacion: cargos faltantes registrados")
	}
	return res, nil
}

func (c *Conciliador) cargarVenta(ctx context.Context, clienteID uuid.UUID, v *model.Venta, usuarioID *uuid.UUID) (*model.MovimientoCuenta, error) {
	nota := notaConciliacion
	ventaID := v.ID
	op := Operacion{
		ClienteID:      clienteID,
		Tipo:           model.MovimientoCargo,
		Monto:          v.Total,
		Descripcion:    "Venta " + v.NumeroVenta,
		Notas:          &nota,
		ReferenciaTipo: model.ReferenciaVenta,
		ReferenciaID:   &ventaID,
		UsuarioID:      usuarioID,
		Conciliacion:   true,
	}

	var res *ResultadoMovimiento
	err := c.ledger.conCuenta(ctx, clienteID, true, func(tx *gorm.DB, cuenta *model.CuentaCorriente) error {
		res = nil
		cargadas, err := c.ledger.cuentas.ListVentasConCargoTx(tx, cuenta.ID)
		if err != nil {
			return err
		}
		for _, id := range cargadas {
			if id == v.ID {
				return errVentaYaCargada
			}
		}
		r, err := c.ledger.aplicarTx(tx, cuenta, op)
		res = r
		return err
	})
	if err != nil {
		return nil, err
	}
	c.ledger.notificar(ctx, res)
	return res.Movimiento, nil
}
