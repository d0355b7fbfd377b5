package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de venta relevantes para la cuenta corriente.
const (
	EstadoVentaPendiente  = "pendiente"
	EstadoVentaCompletada = "completada"
	EstadoVentaAnulada    = "anulada"
)

// Venta is the subset of the sales module's table the ledger needs.
// A sale with EsCuentaCorriente=true and Estado "pendiente" must have exactly
// one cargo movement in its customer's account.
type Venta struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	NumeroVenta       string          `gorm:"type:varchar(30);not null"`
	ClienteID         *uuid.UUID      `gorm:"type:uuid;index"`
	Total             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado            string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	EsCuentaCorriente bool            `gorm:"not null;default:false"`
	FechaVenta        time.Time       `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Venta) TableName() string { return "ventas" }
