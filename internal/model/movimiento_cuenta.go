package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tipos de movimiento de cuenta corriente.
const (
	MovimientoCargo     = "cargo"
	MovimientoPago      = "pago"
	MovimientoAjuste    = "ajuste"
	MovimientoDescuento = "descuento"
	MovimientoInteres   = "interes"
)

// Tipos de referencia externa.
const (
	ReferenciaVenta   = "venta"
	ReferenciaPago    = "pago"
	ReferenciaRecargo = "recargo"
	ReferenciaManual  = "manual"
)

// MovimientoCuenta is an immutable entry of the customer account ledger.
// Monto carries the signed effect on the balance (cargo/interes positive,
// pago/descuento negative, ajuste either sign), so that
// SaldoPosterior = SaldoAnterior + Monto and Secuencia n+1 starts where n ended.
// Movements are never modified or deleted; corrections are new ajustes.
type MovimientoCuenta struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CuentaID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_account_movements_secuencia,priority:1;uniqueIndex:uq_account_movements_referencia,priority:1;index:idx_account_movements_cuenta_fecha,priority:1"`
	Secuencia      int64           `gorm:"not null;uniqueIndex:uq_account_movements_secuencia,priority:2"`
	Tipo           string          `gorm:"type:varchar(20);not null;index;uniqueIndex:uq_account_movements_referencia,priority:2"`
	Monto          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SaldoAnterior  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SaldoPosterior decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Descripcion    string          `gorm:"type:varchar(200);not null"`
	Notas          *string
	// ReferenciaTipo + ReferenciaID point at the originating entity (e.g. venta).
	// Lookup only, never an ownership relation.
	ReferenciaTipo *string    `gorm:"type:varchar(50);uniqueIndex:uq_account_movements_referencia,priority:3"`
	ReferenciaID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_account_movements_referencia,priority:4"`
	MetodoPagoID   *uuid.UUID `gorm:"type:uuid"`
	CreadoPorID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time  `gorm:"index:idx_account_movements_cuenta_fecha,priority:2"`

	MetodoPago *MetodoPago `gorm:"foreignKey:MetodoPagoID"`
	CreadoPor  *Usuario    `gorm:"foreignKey:CreadoPorID"`
}

// TableName overrides GORM's default pluralization (movimiento_cuentas → account_movements).
func (MovimientoCuenta) TableName() string { return "account_movements" }

func (m *MovimientoCuenta) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Magnitud returns the unsigned amount of the movement.
func (m *MovimientoCuenta) Magnitud() decimal.Decimal { return m.Monto.Abs() }
