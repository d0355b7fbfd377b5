package service

import "errors"

// Validation errors (HTTP 422 / 400).
var (
	ErrMontoInvalido          = errors.New("el monto debe ser mayor a cero")
	ErrAjusteCero             = errors.New("el monto del ajuste no puede ser cero")
	ErrTipoMovimientoInvalido = errors.New("tipo de movimiento inválido")
	ErrMetodoPagoRequerido    = errors.New("el método de pago es obligatorio para registrar un pago")
	ErrMetodoPagoInexistente  = errors.New("el método de pago no existe o está inactivo")
	ErrTipoRecargoInvalido    = errors.New("tipo de recargo inválido: use 'porcentaje' o 'fijo'")
	ErrRecargoInvalido        = errors.New("el recargo calculado debe ser mayor a cero")
	ErrEstadoInvalido         = errors.New("estado de cuenta inválido")
	ErrLimiteInvalido         = errors.New("el límite de crédito no puede ser negativo")
	ErrEmailRequerido         = errors.New("el cliente no tiene email registrado, indique uno")
	ErrVentaIDInvalido        = errors.New("venta_id no es un identificador válido")
)

// State conflicts (HTTP 409).
var (
	ErrCuentaSuspendida      = errors.New("la cuenta del cliente está suspendida, no se pueden agregar cargos")
	ErrCuentaCerrada         = errors.New("la cuenta del cliente está cerrada")
	ErrCuentaConSaldo        = errors.New("no se puede cerrar una cuenta con saldo distinto de cero")
	ErrLimiteCreditoExcedido = errors.New("el cargo supera el límite de crédito del cliente")
	ErrCargoDuplicado        = errors.New("la venta ya tiene un cargo registrado en la cuenta")
)

// Not found (HTTP 404).
var (
	ErrClienteNoEncontrado = errors.New("cliente no encontrado")
	ErrCuentaNoEncontrada  = errors.New("el cliente no tiene cuenta corriente")
)

// ErrConcurrencia is returned when the account stayed contended after every
// retry. Nothing was written (HTTP 503, safe to retry).
var ErrConcurrencia = errors.New("la cuenta está siendo modificada por otra operación, intente nuevamente")

// ErrEnvioNoDisponible: the job queue is not wired (HTTP 503).
var ErrEnvioNoDisponible = errors.New("el envío de emails no está disponible")
