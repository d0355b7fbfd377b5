package model

import (
	"time"

	"github.com/google/uuid"
)

// Usuario stores system users with role-based access.
// Rol: "cajero" | "supervisor" | "administrador"
// Owned by the auth module; here it only resolves MovimientoCuenta.CreadoPor.
type Usuario struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username string    `gorm:"uniqueIndex;not null"`
	Nombre   string    `gorm:"not null"`
	Email    *string
	Rol      string `gorm:"type:varchar(20);not null"`
	// PuntoDeVenta restricts a cashier to a specific register; nil = all registers
	PuntoDeVenta *int
	Activo       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Usuario) TableName() string { return "usuarios" }
