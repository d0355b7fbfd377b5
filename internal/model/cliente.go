package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is owned by the customers module; the account ledger only reads it
// (existence check, statement header, search by name, statement e-mail).
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre    string    `gorm:"not null"`
	Apellido  string
	Documento *string
	Email     *string
	Telefono  *string
	Activo    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NombreCompleto returns "Nombre Apellido" without trailing blanks.
func (c *Cliente) NombreCompleto() string {
	if c.Apellido == "" {
		return c.Nombre
	}
	return c.Nombre + " " + c.Apellido
}

func (Cliente) TableName() string { return "clientes" }
