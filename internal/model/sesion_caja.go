package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tipo de movimiento de caja generado por un cobro de cuenta corriente.
const MovimientoCajaCobroCuenta = "cobro_cuenta_corriente"

// SesionCaja is the open/closed cash register session owned by the cash
// register module. Payments received on account are recorded as an ingreso
// in the session the cashier has open.
// Estado: "abierta" | "cerrada"
type SesionCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PuntoDeVenta int             `gorm:"not null;index"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado       string          `gorm:"type:varchar(20);not null;default:'abierta'"`
	OpenedAt     time.Time
	ClosedAt     *time.Time
}

func (SesionCaja) TableName() string { return "sesion_cajas" }

func (s *SesionCaja) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// MovimientoCaja is an immutable event in the cash register ledger.
// ReferenciaID links a cobro_cuenta_corriente to the MovimientoCuenta it mirrors;
// the worker checks it before inserting so a re-delivered job is a no-op.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo         string          `gorm:"type:varchar(30);not null"`
	MetodoPagoID *uuid.UUID      `gorm:"type:uuid"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion  string          `gorm:"not null"`
	ReferenciaID *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt    time.Time
}

func (MovimientoCaja) TableName() string { return "movimiento_cajas" }

func (m *MovimientoCaja) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
