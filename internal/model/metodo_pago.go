package model

import "github.com/google/uuid"

// MetodoPago is owned by the configuration module (efectivo, transferencia, ...).
type MetodoPago struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Codigo string    `gorm:"type:varchar(20);uniqueIndex;not null"`
	Nombre string    `gorm:"not null"`
	Activo bool      `gorm:"not null;default:true"`
}

// TableName overrides GORM's default pluralization (metodo_pagos → metodos_pago).
func (MetodoPago) TableName() string { return "metodos_pago" }
