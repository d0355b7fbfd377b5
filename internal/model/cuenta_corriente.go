package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Estados de una cuenta corriente.
const (
	EstadoCuentaActiva     = "activa"
	EstadoCuentaSuspendida = "suspendida"
	EstadoCuentaCerrada    = "cerrada"
)

// CuentaCorriente is the per-customer aggregate of the account ledger.
// Saldo > 0 means the customer owes the business, Saldo < 0 means the business
// owes the customer. Saldo is a projection of the movement chain and is only
// written by the ledger, inside the same transaction as the movement insert.
type CuentaCorriente struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClienteID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_customer_accounts_cliente"`
	Saldo         decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0;index"`
	LimiteCredito decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"` // 0 = sin limite
	Estado        string          `gorm:"type:varchar(20);not null;default:'activa';index"`
	// DiasMora is derived from the oldest unpaid charge; recomputed on every
	// movement and by the mora job.
	DiasMora          int `gorm:"not null;default:0;index"`
	FechaUltimoPago   *time.Time
	FechaUltimaCompra *time.Time
	// UltimaSecuencia is the Secuencia of the most recent movement (0 = none).
	UltimaSecuencia int64 `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Cliente *Cliente `gorm:"foreignKey:ClienteID"`
}

// TableName keeps the historical table name shared with the reporting module.
func (CuentaCorriente) TableName() string { return "customer_accounts" }

func (c *CuentaCorriente) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
