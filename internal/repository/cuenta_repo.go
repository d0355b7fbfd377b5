package repository

import (
	"context"
	"strings"

	"cuentacorriente/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CuentaFilter defines filters for listing customer accounts.
type CuentaFilter struct {
	Estado   string
	ConDeuda bool
	EnMora   bool
	// Search matches the customer's "nombre apellido" (case-insensitive).
	Search string
	Page   int
	Limit  int
}

// CuentaStats is the aggregate row behind the accounts dashboard.
type CuentaStats struct {
	TotalCuentas       int64
	CuentasActivas     int64
	CuentasSuspendidas int64
	CuentasConDeuda    int64
	DeudaTotal         decimal.Decimal
	CuentasEnMora      int64
	DeudaEnMora        decimal.Decimal
}

type CuentaRepository interface {
	DB() *gorm.DB // exposes the DB for transaction creation in service layer

	FindByClienteID(ctx context.Context, clienteID uuid.UUID) (*model.CuentaCorriente, error)
	// FindByClienteIDForUpdateTx reads the account row under SELECT … FOR UPDATE.
	FindByClienteIDForUpdateTx(tx *gorm.DB, clienteID uuid.UUID) (*model.CuentaCorriente, error)
	// CreateIfNotExistsTx inserts an empty active account, doing nothing when
	// the customer already has one (concurrent first movements race here).
	CreateIfNotExistsTx(tx *gorm.DB, clienteID uuid.UUID) error
	UpdateTx(tx *gorm.DB, c *model.CuentaCorriente) error

	CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCuenta) error
	ListMovimientos(ctx context.Context, cuentaID uuid.UUID) ([]model.MovimientoCuenta, error)
	// ListDebitosPendientesTx walks the account's debits newest first and
	// stops once they add up to saldo: those are the ones still unpaid.
	ListDebitosPendientesTx(tx *gorm.DB, cuentaID uuid.UUID, saldo decimal.Decimal) ([]model.MovimientoCuenta, error)
	// ListVentasConCargoTx returns the sale IDs that already have a cargo.
	ListVentasConCargoTx(tx *gorm.DB, cuentaID uuid.UUID) ([]uuid.UUID, error)

	List(ctx context.Context, filter CuentaFilter) ([]model.CuentaCorriente, int64, error)
	ListDeudores(ctx context.Context, limit int) ([]model.CuentaCorriente, error)
	ListEnMora(ctx context.Context, minDias int) ([]model.CuentaCorriente, error)
	ListClienteIDsConSaldo(ctx context.Context) ([]uuid.UUID, error)
	Stats(ctx context.Context) (*CuentaStats, error)
}

type cuentaRepo struct{ db *gorm.DB }

func NewCuentaRepository(db *gorm.DB) CuentaRepository { return &cuentaRepo{db: db} }

func (r *cuentaRepo) DB() *gorm.DB { return r.db }

// ── Account row ───────────────────────────────────────────────────────────────

func (r *cuentaRepo) FindByClienteID(ctx context.Context, clienteID uuid.UUID) (*model.CuentaCorriente, error) {
	var c model.CuentaCorriente
	err := r.db.WithContext(ctx).Preload("Cliente").Where("cliente_id = ?", clienteID).First(&c).Error
	return &c, err
}

func (r *cuentaRepo) FindByClienteIDForUpdateTx(tx *gorm.DB, clienteID uuid.UUID) (*model.CuentaCorriente, error) {
	var c model.CuentaCorriente
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cliente_id = ?", clienteID).
		First(&c).Error
	return &c, err
}

func (r *cuentaRepo) CreateIfNotExistsTx(tx *gorm.DB, clienteID uuid.UUID) error {
	c := &model.CuentaCorriente{
		ClienteID:     clienteID,
		Saldo:         decimal.Zero,
		LimiteCredito: decimal.Zero,
		Estado:        model.EstadoCuentaActiva,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cliente_id"}},
		DoNothing: true,
	}).Create(c).Error
}

func (r *cuentaRepo) UpdateTx(tx *gorm.DB, c *model.CuentaCorriente) error {
	return tx.Omit(clause.Associations).Save(c).Error
}

// ── Movements ─────────────────────────────────────────────────────────────────

func (r *cuentaRepo) CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCuenta) error {
	return tx.Omit(clause.Associations).Create(m).Error
}

func (r *cuentaRepo) ListMovimientos(ctx context.Context, cuentaID uuid.UUID) ([]model.MovimientoCuenta, error) {
	var movs []model.MovimientoCuenta
	err := r.db.WithContext(ctx).
		Preload("MetodoPago").
		Preload("CreadoPor").
		Where("cuenta_id = ?", cuentaID).
		Order("secuencia ASC").
		Find(&movs).Error
	return movs, err
}

func (r *cuentaRepo) ListDebitosPendientesTx(tx *gorm.DB, cuentaID uuid.UUID, saldo decimal.Decimal) ([]model.MovimientoCuenta, error) {
	if !saldo.IsPositive() {
		return nil, nil
	}
	rows, err := tx.Model(&model.MovimientoCuenta{}).
		Where("cuenta_id = ? AND monto > 0", cuentaID).
		Order("secuencia DESC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var debitos []model.MovimientoCuenta
	acumulado := decimal.Zero
	for rows.Next() {
		var m model.MovimientoCuenta
		if err := tx.ScanRows(rows, &m); err != nil {
			return nil, err
		}
		debitos = append(debitos, m)
		acumulado = acumulado.Add(m.Monto)
		if acumulado.GreaterThanOrEqual(saldo) {
			break
		}
	}
	return debitos, rows.Err()
}

func (r *cuentaRepo) ListVentasConCargoTx(tx *gorm.DB, cuentaID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.Model(&model.MovimientoCuenta{}).
		Where("cuenta_id = ? AND tipo = ? AND referencia_tipo = ? AND referencia_id IS NOT NULL",
			cuentaID, model.MovimientoCargo, model.ReferenciaVenta).
		Pluck("referencia_id", &ids).Error
	return ids, err
}

// ── Listings ──────────────────────────────────────────────────────────────────

func (r *cuentaRepo) List(ctx context.Context, filter CuentaFilter) ([]model.CuentaCorriente, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.CuentaCorriente{})
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("customer_accounts.estado = ?", filter.Estado)
	}
	if filter.ConDeuda {
		q = q.Where("customer_accounts.saldo > 0")
	}
	if filter.EnMora {
		q = q.Where("customer_accounts.saldo > 0 AND customer_accounts.dias_mora > 0")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Joins("JOIN clientes ON clientes.id = customer_accounts.cliente_id").
			Where("LOWER(clientes.nombre || ' ' || clientes.apellido) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var cuentas []model.CuentaCorriente
	err := q.Preload("Cliente").
		Order("customer_accounts.saldo DESC").
		Order("customer_accounts.id").
		Offset(offset).Limit(limit).
		Find(&cuentas).Error
	return cuentas, total, err
}

func (r *cuentaRepo) ListDeudores(ctx context.Context, limit int) ([]model.CuentaCorriente, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	var cuentas []model.CuentaCorriente
	err := r.db.WithContext(ctx).Preload("Cliente").
		Where("saldo > 0").
		Order("saldo DESC").Order("id").
		Limit(limit).
		Find(&cuentas).Error
	return cuentas, err
}

func (r *cuentaRepo) ListEnMora(ctx context.Context, minDias int) ([]model.CuentaCorriente, error) {
	if minDias < 1 {
		minDias = 1
	}
	var cuentas []model.CuentaCorriente
	err := r.db.WithContext(ctx).Preload("Cliente").
		Where("saldo > 0 AND dias_mora >= ?", minDias).
		Order("dias_mora DESC").Order("saldo DESC").
		Find(&cuentas).Error
	return cuentas, err
}

// ListClienteIDsConSaldo returns customers whose aging may need recomputing:
// any positive balance, or a non-zero dias_mora left over.
func (r *cuentaRepo) ListClienteIDsConSaldo(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.CuentaCorriente{}).
		Where("saldo > 0 OR dias_mora > 0").
		Order("cliente_id").
		Pluck("cliente_id", &ids).Error
	return ids, err
}

func (r *cuentaRepo) Stats(ctx context.Context) (*CuentaStats, error) {
	var row CuentaStats
	err := r.db.WithContext(ctx).Model(&model.CuentaCorriente{}).Select(`
		COUNT(*) AS total_cuentas,
		COALESCE(SUM(CASE WHEN estado = 'activa' THEN 1 ELSE 0 END), 0) AS cuentas_activas,
		COALESCE(SUM(CASE WHEN estado = 'suspendida' THEN 1 ELSE 0 END), 0) AS cuentas_suspendidas,
		COALESCE(SUM(CASE WHEN saldo > 0 THEN 1 ELSE 0 END), 0) AS cuentas_con_deuda,
		COALESCE(SUM(CASE WHEN saldo > 0 THEN saldo ELSE 0 END), 0) AS deuda_total,
		COALESCE(SUM(CASE WHEN saldo > 0 AND dias_mora > 0 THEN 1 ELSE 0 END), 0) AS cuentas_en_mora,
		COALESCE(SUM(CASE WHEN saldo > 0 AND dias_mora > 0 THEN saldo ELSE 0 END), 0) AS deuda_en_mora`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
