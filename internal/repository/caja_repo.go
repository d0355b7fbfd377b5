package repository

import (
	"context"

	"cuentacorriente/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CajaRepository covers the part of the cash register module a collected
// account payment touches: the cashier's open session and its movements.
type CajaRepository interface {
	CreateSesion(ctx context.Context, s *model.SesionCaja) error
	FindSesionAbiertaPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.SesionCaja, error)
	CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error
	ExisteMovimientoPorReferencia(ctx context.Context, tipo string, referenciaID uuid.UUID) (bool, error)
	ListMovimientos(ctx context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error)
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) CreateSesion(ctx context.Context, s *model.SesionCaja) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *cajaRepo) FindSesionAbiertaPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("usuario_id = ? AND estado = 'abierta'", usuarioID).
		Order("opened_at DESC").
		First(&s).Error
	return &s, err
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cajaRepo) ExisteMovimientoPorReferencia(ctx context.Context, tipo string, referenciaID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.MovimientoCaja{}).
		Where("tipo = ? AND referencia_id = ?", tipo, referenciaID).
		Count(&n).Error
	return n > 0, err
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).Where("sesion_caja_id = ?", sesionCajaID).Order("created_at ASC").Find(&movs).Error
	return movs, err
}
