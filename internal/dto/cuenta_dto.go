package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// CuentaFilter is bound from query string of GET /v1/cuentas.
type CuentaFilter struct {
	Estado   string `form:"estado"    validate:"omitempty,oneof=activa suspendida cerrada all"`
	ConDeuda bool   `form:"con_deuda"`
	EnMora   bool   `form:"en_mora"`
	Search   string `form:"search"    validate:"max=100"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CuentaListResponse struct {
	Data       []CuentaResponse `json:"data"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// RegistrarCargoRequest records a charge outside the sales flow (e.g. a sale
// registered by another system). VentaID links it to the sale so
// reconciliation does not charge it twice.
type RegistrarCargoRequest struct {
	Monto       decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	Descripcion string          `json:"descripcion" validate:"omitempty,max=200"`
	VentaID     *string         `json:"venta_id"    validate:"omitempty,uuid"`
	Notas       *string         `json:"notas"       validate:"omitempty,max=500"`
}

type RegistrarPagoRequest struct {
	Monto        decimal.Decimal `json:"monto"          validate:"required,gt=0"`
	MetodoPagoID string          `json:"metodo_pago_id" validate:"required,uuid"`
	Descripcion  string          `json:"descripcion"    validate:"omitempty,max=200"`
	Notas        *string         `json:"notas"          validate:"omitempty,max=500"`
}

// RegistrarAjusteRequest: tipo ajuste takes a signed non-zero monto,
// tipo descuento a positive one.
type RegistrarAjusteRequest struct {
	Tipo        string          `json:"tipo"        validate:"required,oneof=ajuste descuento"`
	Monto       decimal.Decimal `json:"monto"       validate:"required"`
	Descripcion string          `json:"descripcion" validate:"required,min=3,max=200"`
	Notas       *string         `json:"notas"       validate:"omitempty,max=500"`
}

type AplicarRecargoRequest struct {
	Tipo        string          `json:"tipo"        validate:"required,oneof=porcentaje fijo"`
	Valor       decimal.Decimal `json:"valor"       validate:"required,gt=0"`
	Descripcion string          `json:"descripcion" validate:"omitempty,max=200"`
}

// ActualizarCuentaRequest: nil fields are left unchanged.
type ActualizarCuentaRequest struct {
	LimiteCredito *decimal.Decimal `json:"limite_credito"`
	Estado        *string          `json:"estado" validate:"omitempty,oneof=activa suspendida cerrada"`
}

// EnviarEstadoCuentaRequest: Email overrides the customer's address on file.
type EnviarEstadoCuentaRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CuentaResponse struct {
	ID                string           `json:"id"`
	ClienteID         string           `json:"cliente_id"`
	ClienteNombre     string           `json:"cliente_nombre,omitempty"`
	Saldo             decimal.Decimal  `json:"saldo"`
	LimiteCredito     decimal.Decimal  `json:"limite_credito"`
	CreditoDisponible *decimal.Decimal `json:"credito_disponible,omitempty"`
	Estado            string           `json:"estado"`
	DiasMora          int              `json:"dias_mora"`
	Posicion          string           `json:"posicion"`
	FechaUltimoPago   *string          `json:"fecha_ultimo_pago,omitempty"`
	FechaUltimaCompra *string          `json:"fecha_ultima_compra,omitempty"`
	CreatedAt         string           `json:"created_at"`
	UpdatedAt         string           `json:"updated_at"`
}

type MovimientoResponse struct {
	ID             string          `json:"id"`
	Secuencia      int64           `json:"secuencia"`
	Tipo           string          `json:"tipo"`
	Monto          decimal.Decimal `json:"monto"`
	SaldoAnterior  decimal.Decimal `json:"saldo_anterior"`
	SaldoPosterior decimal.Decimal `json:"saldo_posterior"`
	Descripcion    string          `json:"descripcion"`
	Notas          *string         `json:"notas,omitempty"`
	ReferenciaTipo *string         `json:"referencia_tipo,omitempty"`
	ReferenciaID   *string         `json:"referencia_id,omitempty"`
	MetodoPagoID   *string         `json:"metodo_pago_id,omitempty"`
	MetodoPago     *string         `json:"metodo_pago,omitempty"`
	CreadoPorID    *string         `json:"creado_por_id,omitempty"`
	CreadoPor      *string         `json:"creado_por,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

// OperacionResponse is returned by every write endpoint.
type OperacionResponse struct {
	Movimiento        MovimientoResponse `json:"movimiento"`
	Cuenta            CuentaResponse     `json:"cuenta"`
	VentasCompletadas int64              `json:"ventas_completadas,omitempty"`
}

type ResumenResponse struct {
	TotalCargos  decimal.Decimal `json:"total_cargos"`
	TotalPagos   decimal.Decimal `json:"total_pagos"`
	TotalAjustes decimal.Decimal `json:"total_ajustes"`
	SaldoActual  decimal.Decimal `json:"saldo_actual"`
	Posicion     string          `json:"posicion"`
}

type EstadoCuentaResponse struct {
	Cuenta      CuentaResponse       `json:"cuenta"`
	Movimientos []MovimientoResponse `json:"movimientos"`
	Resumen     ResumenResponse      `json:"resumen"`
}

type VentaSincronizadaResponse struct {
	VentaID      string          `json:"venta_id"`
	NumeroVenta  string          `json:"numero_venta"`
	Monto        decimal.Decimal `json:"monto"`
	MovimientoID string          `json:"movimiento_id"`
}

type SincronizacionResponse struct {
	CargosCreados int                         `json:"cargos_creados"`
	MontoTotal    decimal.Decimal             `json:"monto_total"`
	Ventas        []VentaSincronizadaResponse `json:"ventas"`
	Omitidas      int                         `json:"omitidas"`
}

type VentaPendienteResponse struct {
	ID          string          `json:"id"`
	NumeroVenta string          `json:"numero_venta"`
	Total       decimal.Decimal `json:"total"`
	FechaVenta  string          `json:"fecha_venta"`
	TieneCargo  bool            `json:"tiene_cargo"`
}

type AlertaMoraResponse struct {
	ClienteID     string          `json:"cliente_id"`
	ClienteNombre string          `json:"cliente_nombre"`
	Saldo         decimal.Decimal `json:"saldo"`
	DiasMora      int             `json:"dias_mora"`
	Estado        string          `json:"estado"`
	// Severidad: "leve" (< 30 días), "moderada" (30-59), "grave" (>= 60)
	Severidad string `json:"severidad"`
}

type EstadisticasResponse struct {
	TotalCuentas       int64           `json:"total_cuentas"`
	CuentasActivas     int64           `json:"cuentas_activas"`
	CuentasSuspendidas int64           `json:"cuentas_suspendidas"`
	CuentasConDeuda    int64           `json:"cuentas_con_deuda"`
	DeudaTotal         decimal.Decimal `json:"deuda_total"`
	DeudaPromedio      decimal.Decimal `json:"deuda_promedio"`
	CuentasEnMora      int64           `json:"cuentas_en_mora"`
	DeudaEnMora        decimal.Decimal `json:"deuda_en_mora"`
}

type VerificacionResponse struct {
	ClienteID      string          `json:"cliente_id"`
	Valida         bool            `json:"valida"`
	Movimientos    int             `json:"movimientos"`
	SaldoCuenta    decimal.Decimal `json:"saldo_cuenta"`
	SaldoCalculado decimal.Decimal `json:"saldo_calculado"`
	PrimerQuiebre  *int64          `json:"primer_quiebre,omitempty"`
	Errores        []string        `json:"errores"`
}

type EnvioEstadoCuentaResponse struct {
	Email    string `json:"email"`
	Encolado bool   `json:"encolado"`
}
