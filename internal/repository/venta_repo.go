package repository

import (
	"context"
	"time"

	"cuentacorriente/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VentaRepository is the read side of the sales module the ledger needs, plus
// the single state change it is allowed to make (settling on-account sales).
type VentaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	// ListPendientesCuentaCorriente returns the customer's on-account sales
	// still pending, oldest first.
	ListPendientesCuentaCorriente(ctx context.Context, clienteID uuid.UUID) ([]model.Venta, error)
	// MarcarCompletadasTx settles the customer's pending on-account sales that
	// already have a cargo in the account. Sales without a cargo stay pending
	// so reconciliation still picks them up.
	MarcarCompletadasTx(tx *gorm.DB, clienteID, cuentaID uuid.UUID) (int64, error)
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) ListPendientesCuentaCorriente(ctx context.Context, clienteID uuid.UUID) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).
		Where("cliente_id = ? AND es_cuenta_corriente = ? AND estado = ?", clienteID, true, model.EstadoVentaPendiente).
		Order("fecha_venta ASC").Order("numero_venta ASC").
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) MarcarCompletadasTx(tx *gorm.DB, clienteID, cuentaID uuid.UUID) (int64, error) {
	conCargo := tx.Session(&gorm.Session{NewDB: true}).
		Model(&model.MovimientoCuenta{}).
		Select("referencia_id").
		Where("cuenta_id = ? AND tipo = ? AND referencia_tipo = ?", cuentaID, model.MovimientoCargo, model.ReferenciaVenta)

	res := tx.Model(&model.Venta{}).
		Where("cliente_id = ? AND es_cuenta_corriente = ? AND estado = ? AND id IN (?)",
			clienteID, true, model.EstadoVentaPendiente, conCargo).
		Updates(map[string]interface{}{
			"estado":     model.EstadoVentaCompletada,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}
