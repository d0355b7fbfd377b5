// Package testutil opens throwaway sqlite databases carrying the ledger schema
// and seeds the collaborator rows (clientes, métodos de pago, ventas) tests need.
package testutil

import (
	"testing"
	"time"

	"cuentacorriente/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns an in-memory sqlite database migrated with every model.
// The pool is pinned to one connection: each sqlite :memory: connection is
// its own database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Usuario{},
		&model.Cliente{},
		&model.MetodoPago{},
		&model.Venta{},
		&model.CuentaCorriente{},
		&model.MovimientoCuenta{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
	))
	return db
}

func SeedCliente(t testing.TB, db *gorm.DB, nombre, apellido string) *model.Cliente {
	t.Helper()
	email := nombre + "@example.com"
	c := &model.Cliente{ID: uuid.New(), Nombre: nombre, Apellido: apellido, Email: &email, Activo: true}
	require.NoError(t, db.Create(c).Error)
	return c
}

func SeedMetodoPago(t testing.TB, db *gorm.DB, codigo string) *model.MetodoPago {
	t.Helper()
	m := &model.MetodoPago{ID: uuid.New(), Codigo: codigo, Nombre: codigo, Activo: true}
	require.NoError(t, db.Create(m).Error)
	return m
}

func SeedUsuario(t testing.TB, db *gorm.DB, username, rol string) *model.Usuario {
	t.Helper()
	u := &model.Usuario{ID: uuid.New(), Username: username, Nombre: username, Rol: rol, Activo: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedVentaCC creates a pending on-account sale for the customer.
func SeedVentaCC(t testing.TB, db *gorm.DB, clienteID uuid.UUID, numero string, total decimal.Decimal, fecha time.Time) *model.Venta {
	t.Helper()
	v := &model.Venta{
		ID:                uuid.New(),
		NumeroVenta:       numero,
		ClienteID:         &clienteID,
		Total:             total,
		Estado:            model.EstadoVentaPendiente,
		EsCuentaCorriente: true,
		FechaVenta:        fecha,
	}
	require.NoError(t, db.Create(v).Error)
	return v
}
