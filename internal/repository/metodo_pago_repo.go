package repository

import (
	"context"

	"cuentacorriente/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MetodoPagoRepository interface {
	// Exists reports whether an active payment method with that id exists.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]model.MetodoPago, error)
}

type metodoPagoRepo struct{ db *gorm.DB }

func NewMetodoPagoRepository(db *gorm.DB) MetodoPagoRepository { return &metodoPagoRepo{db: db} }

func (r *metodoPagoRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.MetodoPago{}).
		Where("id = ? AND activo = ?", id, true).
		Count(&n).Error
	return n > 0, err
}

func (r *metodoPagoRepo) List(ctx context.Context) ([]model.MetodoPago, error) {
	var metodos []model.MetodoPago
	err := r.db.WithContext(ctx).Where("activo = ?", true).Order("nombre").Find(&metodos).Error
	return metodos, err
}
