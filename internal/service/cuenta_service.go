package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cuentacorriente/internal/config"
	"cuentacorriente/internal/dto"
	"cuentacorriente/internal/infra"
	"cuentacorriente/internal/model"
	"cuentacorriente/internal/repository"
	"cuentacorriente/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CuentaService interface {
	RegistrarCargo(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID, req dto.RegistrarCargoRequest) (*dto.OperacionResponse, error)
	RegistrarPago(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID, req dto.RegistrarPagoRequest) (*dto.OperacionResponse, error)
	RegistrarAjuste(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID, req dto.RegistrarAjusteRequest) (*dto.OperacionResponse, error)
	AplicarRecargo(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID, req dto.AplicarRecargoRequest) (*dto.OperacionResponse, error)
	SincronizarCargos(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID) (*dto.SincronizacionResponse, error)

	ObtenerEstadoCuenta(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID) (*dto.EstadoCuentaResponse, error)
	GenerarEstadoCuentaPDF(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID) (string, error)
	EnviarEstadoCuenta(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID, req dto.EnviarEstadoCuentaRequest) (*dto.EnvioEstadoCuentaResponse, error)
	ListarVentasPendientes(ctx context.Context, clienteID uuid.UUID) ([]dto.VentaPendienteResponse, error)
	VerificarCadena(ctx context.Context, clienteID uuid.UUID) (*dto.VerificacionResponse, error)

	Suspender(ctx context.Context, clienteID uuid.UUID) (*dto.CuentaResponse, error)
	Activar(ctx context.Context, clienteID uuid.UUID) (*dto.CuentaResponse, error)
	ActualizarCuenta(ctx context.Context, clienteID uuid.UUID, req dto.ActualizarCuentaRequest) (*dto.CuentaResponse, error)

	Listar(ctx context.Context, filter dto.CuentaFilter) (*dto.CuentaListResponse, error)
	ListarDeudores(ctx context.Context, limit int) ([]dto.CuentaResponse, error)
	AlertasMora(ctx context.Context) ([]dto.AlertaMoraResponse, error)
	ObtenerEstadisticas(ctx context.Context) (*dto.EstadisticasResponse, error)
	RecalcularMora(ctx context.Context) (revisadas, suspendidas int, err error)
}

// JobEnqueuer is satisfied by *worker.Dispatcher.
type JobEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
	EnqueueCobroCaja(ctx context.Context, payload worker.CobroCajaPayload) error
}

type cuentaService struct {
	ledger      *Ledger
	conciliador *Conciliador
	mora        *Mora
	cuentas     repository.CuentaRepository
	clientes    repository.ClienteRepository
	ventas      repository.VentaRepository
	jobs        JobEnqueuer
	stats       *statsCache
	cfg         *config.Config
}

// NewCuentaService wires the account facade. jobs and rdb may be nil: payments
// are then not mirrored into the cash register, statements cannot be e-mailed
// and statistics are read from the database every time.
func NewCuentaService(
	ledger *Ledger,
	cuentas repository.CuentaRepository,
	clientes repository.ClienteRepository,
	ventas repository.VentaRepository,
	jobs JobEnqueuer,
	rdb *redis.Client,
	cfg *config.Config,
) CuentaService {
	stats := newStatsCache(rdb, time.Duration(cfg.StatsCacheTTLSecs)*time.Second)
	s := &cuentaService{
		ledger:      ledger,
		conciliador: NewConciliador(ledger, ventas),
		mora:        NewMora(ledger, cuentas, cfg.MoraDiasSuspension, stats),
		cuentas:     cuentas,
		clientes:    clientes,
		ventas:      ventas,
		jobs:        jobs,
		stats:       stats,
		cfg:         cfg,
	}

	ledger.AlConfirmar(func(ctx context.Context, _ *ResultadoMovimiento) {
		s.stats.invalidar(ctx)
	})
	if jobs != nil {
		ledger.AlConfirmar(s.registrarCobroEnCaja)
	}
	return s
}

// registrarCobroEnCaja enqueues the cash register ingreso of a committed pago.
// The payment is already durable; a queue failure is only logged.
func (s *cuentaService) registrarCobroEnCaja(ctx context.Context, r *ResultadoMovimiento) {
	mov := r.Movimiento
	if mov.Tipo != model.MovimientoPago || mov.CreadoPorID == nil {
		return
	}
	payload := worker.CobroCajaPayload{
		MovimientoID: mov.ID.String(),
		UsuarioID:    mov.CreadoPorID.String(),
		Monto:        mov.Magnitud(),
		Descripcion:  mov.Descripcion,
	}
	if mov.MetodoPagoID != nil {
		payload.MetodoPagoID = mov.MetodoPagoID.String()
	}
	if err := s.jobs.EnqueueCobroCaja(ctx, payload); err != nil {
		log.Error().Err(err).
			Str("movimiento_id", mov.ID.String()).
			Msg("cuentas: no se pudo encolar el cobro en caja")
	}
}

// ── Movements ─────────────────────────────────────────────────────────────────

func (s *cuentaService) RegistrarCargo(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID, req dto.RegistrarCargoRequest) (*dto.OperacionResponse, error) {
	op := Operacion{
		ClienteID:     clienteID,
		Tipo:          model.MovimientoCargo,
		Monto:         req.Monto,
		Descripcion:   req.Descripcion,
		Notas:         req.Notas,
		UsuarioID:     usuarioID,
		ValidarLimite: true,
	}
	if req.VentaID != nil {
		ventaID, err := uuid.Parse(*req.VentaID)
		if err != nil {
			return nil, ErrVentaIDInvalido
		}
		op.ReferenciaTipo = model.ReferenciaVenta
		op.ReferenciaID = &ventaID
	}
	return s.aplicar(ctx, op)
}

func (s *cuentaService) RegistrarPago(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID, req dto.RegistrarPagoRequest) (*dto.OperacionResponse, error) {
	metodoID, err := uuid.Parse(req.MetodoPagoID)
	if err != nil {
		return nil, ErrMetodoPagoRequerido
	}
	return s.aplicar(ctx, Operacion{
		ClienteID:      clienteID,
		Tipo:           model.MovimientoPago,
		Monto:          req.Monto,
		Descripcion:    req.Descripcion,
		Notas:          req.Notas,
		ReferenciaTipo: model.ReferenciaPago,
		MetodoPagoID:   &metodoID,
		UsuarioID:      usuarioID,
	})
}

// RegistrarAjuste records a manual correction: an ajuste keeps the caller's
// sign, a descuento always reduces the debt.
func (s *cuentaService) RegistrarAjuste(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID, req dto.RegistrarAjusteRequest) (*dto.OperacionResponse, error) {
	if req.Tipo != model.MovimientoAjuste && req.Tipo != model.MovimientoDescuento {
		return nil, ErrTipoMovimientoInvalido
	}
	return s.aplicar(ctx, Operacion{
		ClienteID:      clienteID,
		Tipo:           req.Tipo,
		Monto:          req.Monto,
		Descripcion:    req.Descripcion,
		Notas:          req.Notas,
		ReferenciaTipo: model.ReferenciaManual,
		UsuarioID:      usuarioID,
	})
}

func (s *cuentaService) aplicar(ctx context.Context, op Operacion) (*dto.OperacionResponse, error) {
	res, err := s.ledger.AplicarMovimiento(ctx, op)
	if err != nil {
		return nil, err
	}
	return toOperacionResponse(res), nil
}

// AplicarRecargo computes the surcharge from the balance read under the row
// lock, so a concurrent movement cannot change the base between the two.
func (s *cuentaService) AplicarRecargo(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID, req dto.AplicarRecargoRequest) (*dto.OperacionResponse, error) {
	if req.Tipo != RecargoPorcentaje && req.Tipo != RecargoFijo {
		return nil, ErrTipoRecargoInvalido
	}
	if !req.Valor.IsPositive() {
		return nil, ErrMontoInvalido
	}
	desc := req.Descripcion
	if desc == "" {
		desc = descripcionRecargo(req.Tipo, req.Valor)
	}

	var res *ResultadoMovimiento
	err := s.ledger.conCuenta(ctx, clienteID, false, func(tx *gorm.DB, cuenta *model.CuentaCorriente) error {
		res = nil
		monto, err := CalcularRecargo(cuenta.Saldo, req.Tipo, req.Valor)
		if err != nil {
			return err
		}
		r, err := s.ledger.aplicarTx(tx, cuenta, Operacion{
			ClienteID:      clienteID,
			Tipo:           model.MovimientoInteres,
			Monto:          monto,
			Descripcion:    desc,
			ReferenciaTipo: model.ReferenciaRecargo,
			UsuarioID:      usuarioID,
		})
		res = r
		return err
	})
	if err != nil {
		return nil, err
	}
	s.ledger.notificar(ctx, res)
	return toOperacionResponse(res), nil
}

func (s *cuentaService) SincronizarCargos(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID) (*dto.SincronizacionResponse, error) {
	if err := s.clienteExiste(ctx, clienteID); err != nil {
		return nil, err
	}
	res, err := s.conciliador.SincronizarCargosFaltantes(ctx, clienteID, usuarioID)
	if err != nil {
		return nil, err
	}
	resp := &dto.SincronizacionResponse{
		CargosCreados: res.CargosCreados,
		MontoTotal:    res.MontoTotal,
		Ventas:        make([]dto.VentaSincronizadaResponse, 0, len(res.Ventas)),
		Omitidas:      res.Omitidas,
	}
	for _, v := range res.Ventas {
		resp.Ventas = append(resp.Ventas, dto.VentaSincronizadaResponse{
			VentaID:      v.VentaID.String(),
			NumeroVenta:  v.NumeroVenta,
			Monto:        v.Monto,
			MovimientoID: v.MovimientoID.String(),
		})
	}
	return resp, nil
}

// ── Statement ─────────────────────────────────────────────────────────────────

type estadoCuenta struct {
	cuenta  *model.CuentaCorriente
	movs    []model.MovimientoCuenta
	resumen ResumenCuenta
}

// cargarEstado reads the statement. With SyncOnStatement on, missing charges
// are created first; that step never makes the read fail.
func (s *cuentaService) cargarEstado(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID) (*estadoCuenta, error) {
	if err := s.clienteExiste(ctx, clienteID); err != nil {
		return nil, err
	}
	if s.cfg.SyncOnStatement {
		if _, err := s.conciliador.SincronizarCargosFaltantes(ctx, clienteID, usuarioID); err != nil {
			log.Warn().Err(err).Str("cliente_id", clienteID.String()).Msg("cuentas: sincronización previa al estado de cuenta falló")
		}
	}

	cuenta, err := s.buscarCuenta(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	movs, err := s.cuentas.ListMovimientos(ctx, cuenta.ID)
	if err != nil {
		return nil, fmt.Errorf("listando movimientos: %w", err)
	}
	return &estadoCuenta{cuenta: cuenta, movs: movs, resumen: Resumir(cuenta, movs)}, nil
}

func (s *cuentaService) ObtenerEstadoCuenta(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID) (*dto.EstadoCuentaResponse, error) {
	ec, err := s.cargarEstado(ctx, clienteID, usuarioID)
	if err != nil {
		return nil, err
	}
	resp := &dto.EstadoCuentaResponse{
		Cuenta:      toCuentaResponse(ec.cuenta),
		Movimientos: make([]dto.MovimientoResponse, 0, len(ec.movs)),
		Resumen: dto.ResumenResponse{
			TotalCargos:  ec.resumen.TotalCargos,
			TotalPagos:   ec.resumen.TotalPagos,
			TotalAjustes: ec.resumen.TotalAjustes,
			SaldoActual:  ec.resumen.SaldoActual,
			Posicion:     ec.resumen.Posicion,
		},
	}
	for i := range ec.movs {
		resp.Movimientos = append(resp.Movimientos, toMovimientoResponse(&ec.movs[i]))
	}
	return resp, nil
}

func (s *cuentaService) GenerarEstadoCuentaPDF(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID) (string, error) {
	ec, err := s.cargarEstado(ctx, clienteID, usuarioID)
	if err != nil {
		return "", err
	}
	return s.renderPDF(ec)
}

func (s *cuentaService) renderPDF(ec *estadoCuenta) (string, error) {
	datos := infra.EstadoCuentaPDF{
		Negocio:     s.cfg.BusinessName,
		ClienteID:   ec.cuenta.ClienteID.String(),
		Estado:      ec.cuenta.Estado,
		Posicion:    ec.resumen.Posicion,
		Saldo:       ec.cuenta.Saldo,
		TotalCargos: ec.resumen.TotalCargos,
		TotalPagos:  ec.resumen.TotalPagos,
		DiasMora:    ec.cuenta.DiasMora,
		Movimientos: ec.movs,
		GeneradoEn:  s.ledger.now(),
	}
	if c := ec.cuenta.Cliente; c != nil {
		datos.Cliente = c.NombreCompleto()
		if c.Documento != nil {
			datos.Documento = *c.Documento
		}
	}
	path, err := infra.GenerarEstadoCuentaPDF(datos, s.cfg.PDFStoragePath)
	if err != nil {
		return "", fmt.Errorf("generando PDF: %w", err)
	}
	return path, nil
}

// EnviarEstadoCuenta renders the PDF now and hands the delivery to the e-mail
// worker; SMTP failures are retried there, not reported here.
func (s *cuentaService) EnviarEstadoCuenta(ctx context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID, req dto.EnviarEstadoCuentaRequest) (*dto.EnvioEstadoCuentaResponse, error) {
	if s.jobs == nil {
		return nil, ErrEnvioNoDisponible
	}
	ec, err := s.cargarEstado(ctx, clienteID, usuarioID)
	if err != nil {
		return nil, err
	}

	destino := ""
	if req.Email != nil {
		destino = *req.Email
	} else if ec.cuenta.Cliente != nil && ec.cuenta.Cliente.Email != nil {
		destino = *ec.cuenta.Cliente.Email
	}
	if destino == "" {
		return nil, ErrEmailRequerido
	}

	path, err := s.renderPDF(ec)
	if err != nil {
		return nil, err
	}

	nombre := ""
	if ec.cuenta.Cliente != nil {
		nombre = ec.cuenta.Cliente.NombreCompleto()
	}
	job := worker.EmailJobPayload{
		ToEmail: destino,
		Subject: "Estado de cuenta - " + s.cfg.BusinessName,
		Body: fmt.Sprintf("Hola %s,\n\nAdjuntamos su estado de cuenta. Saldo actual: %s.\n\n%s",
			nombre, infra.FormatearMonto(ec.cuenta.Saldo), s.cfg.BusinessName),
		PDFPath:   path,
		ClienteID: clienteID.String(),
	}
	if err := s.jobs.EnqueueEmail(ctx, job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvioNoDisponible, err)
	}
	log.Info().Str("cliente_id", clienteID.String()).Str("email", destino).Msg("cuentas: estado de cuenta encolado")
	return &dto.EnvioEstadoCuentaResponse{Email: destino, Encolado: true}, nil
}

func (s *cuentaService) ListarVentasPendientes(ctx context.Context, clienteID uuid.UUID) ([]dto.VentaPendienteResponse, error) {
	if err := s.clienteExiste(ctx, clienteID); err != nil {
		return nil, err
	}
	ventas, err := s.ventas.ListPendientesCuentaCorriente(ctx, clienteID)
	if err != nil {
		return nil, fmt.Errorf("listando ventas pendientes: %w", err)
	}

	cargadas := map[uuid.UUID]bool{}
	cuenta, err := s.cuentas.FindByClienteID(ctx, clienteID)
	switch {
	case err == nil:
		ids, err := s.cuentas.ListVentasConCargoTx(s.cuentas.DB().WithContext(ctx), cuenta.ID)
		if err != nil {
			return nil, fmt.Errorf("listando cargos de ventas: %w", err)
		}
		for _, id := range ids {
			cargadas[id] = true
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	resp := make([]dto.VentaPendienteResponse, 0, len(ventas))
	for _, v := range ventas {
		resp = append(resp, dto.VentaPendienteResponse{
			ID:          v.ID.String(),
			NumeroVenta: v.NumeroVenta,
			Total:       v.Total,
			FechaVenta:  v.FechaVenta.Format(time.RFC3339),
			TieneCargo:  cargadas[v.ID],
		})
	}
	return resp, nil
}

func (s *cuentaService) VerificarCadena(ctx context.Context, clienteID uuid.UUID) (*dto.VerificacionResponse, error) {
	cuenta, err := s.buscarCuenta(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	movs, err := s.cuentas.ListMovimientos(ctx, cuenta.ID)
	if err != nil {
		return nil, fmt.Errorf("listando movimientos: %w", err)
	}
	v := VerificarCadena(cuenta, movs)
	if !v.Valida {
		log.Error().Str("cliente_id", clienteID.String()).Strs("errores", v.Errores).Msg("cuentas: cadena de movimientos inconsistente")
	}
	errores := v.Errores
	if errores == nil {
		errores = []string{}
	}
	return &dto.VerificacionResponse{
		ClienteID:      clienteID.String(),
		Valida:         v.Valida,
		Movimientos:    v.Movimientos,
		SaldoCuenta:    v.SaldoCuenta,
		SaldoCalculado: v.SaldoCalculado,
		PrimerQuiebre:  v.PrimerQuiebre,
		Errores:        errores,
	}, nil
}

// ── Status ────────────────────────────────────────────────────────────────────

func (s *cuentaService) Suspender(ctx context.Context, clienteID uuid.UUID) (*dto.CuentaResponse, error) {
	return s.cambiarEstado(ctx, clienteID, model.EstadoCuentaSuspendida)
}

func (s *cuentaService) Activar(ctx context.Context, clienteID uuid.UUID) (*dto.CuentaResponse, error) {
	return s.cambiarEstado(ctx, clienteID, model.EstadoCuentaActiva)
}

func (s *cuentaService) cambiarEstado(ctx context.Context, clienteID uuid.UUID, estado string) (*dto.CuentaResponse, error) {
	return s.actualizar(ctx, clienteID, func(c *model.CuentaCorriente) error {
		if c.Estado == model.EstadoCuentaCerrada {
			return ErrCuentaCerrada
		}
		c.Estado = estado
		return nil
	})
}

func (s *cuentaService) ActualizarCuenta(ctx context.Context, clienteID uuid.UUID, req dto.ActualizarCuentaRequest) (*dto.CuentaResponse, error) {
	if req.LimiteCredito != nil && req.LimiteCredito.IsNegative() {
		return nil, ErrLimiteInvalido
	}
	if req.Estado != nil {
		switch *req.Estado {
		case model.EstadoCuentaActiva, model.EstadoCuentaSuspendida, model.EstadoCuentaCerrada:
		default:
			return nil, ErrEstadoInvalido
		}
	}
	return s.actualizar(ctx, clienteID, func(c *model.CuentaCorriente) error {
		if c.Estado == model.EstadoCuentaCerrada {
			return ErrCuentaCerrada
		}
		if req.LimiteCredito != nil {
			c.LimiteCredito = req.LimiteCredito.Round(2)
		}
		if req.Estado != nil {
			if *req.Estado == model.EstadoCuentaCerrada && !c.Saldo.IsZero() {
				return ErrCuentaConSaldo
			}
			c.Estado = *req.Estado
		}
		return nil
	})
}

// actualizar is a read-modify-write of the account row under its lock.
func (s *cuentaService) actualizar(ctx context.Context, clienteID uuid.UUID, fn func(c *model.CuentaCorriente) error) (*dto.CuentaResponse, error) {
	var cuenta *model.CuentaCorriente
	err := s.ledger.conCuenta(ctx, clienteID, false, func(tx *gorm.DB, c *model.CuentaCorriente) error {
		anterior := c.Estado
		if err := fn(c); err != nil {
			return err
		}
		if err := s.cuentas.UpdateTx(tx, c); err != nil {
			return fmt.Errorf("actualizando cuenta: %w", err)
		}
		if anterior != c.Estado {
			log.Info().
				Str("cliente_id", clienteID.String()).
				Str("de", anterior).
				Str("a", c.Estado).
				Msg("cuentas: cambio de estado")
		}
		cuenta = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.stats.invalidar(ctx)
	resp := toCuentaResponse(cuenta)
	return &resp, nil
}

// ── Listings ──────────────────────────────────────────────────────────────────

func (s *cuentaService) Listar(ctx context.Context, filter dto.CuentaFilter) (*dto.CuentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	cuentas, total, err := s.cuentas.List(ctx, repository.CuentaFilter{
		Estado:   filter.Estado,
		ConDeuda: filter.ConDeuda,
		EnMora:   filter.EnMora,
		Search:   filter.Search,
		Page:     filter.Page,
		Limit:    filter.Limit,
	})
	if err != nil {
		return nil, err
	}

	data := make([]dto.CuentaResponse, 0, len(cuentas))
	for i := range cuentas {
		data = append(data, toCuentaResponse(&cuentas[i]))
	}
	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &dto.CuentaListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *cuentaService) ListarDeudores(ctx context.Context, limit int) ([]dto.CuentaResponse, error) {
	cuentas, err := s.cuentas.ListDeudores(ctx, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CuentaResponse, 0, len(cuentas))
	for i := range cuentas {
		resp = append(resp, toCuentaResponse(&cuentas[i]))
	}
	return resp, nil
}

func (s *cuentaService) AlertasMora(ctx context.Context) ([]dto.AlertaMoraResponse, error) {
	cuentas, err := s.cuentas.ListEnMora(ctx, 1)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.AlertaMoraResponse, 0, len(cuentas))
	for i := range cuentas {
		c := &cuentas[i]
		a := dto.AlertaMoraResponse{
			ClienteID: c.ClienteID.String(),
			Saldo:     c.Saldo,
			DiasMora:  c.DiasMora,
			Estado:    c.Estado,
			Severidad: severidadMora(c.DiasMora),
		}
		if c.Cliente != nil {
			a.ClienteNombre = c.Cliente.NombreCompleto()
		}
		resp = append(resp, a)
	}
	return resp, nil
}

func severidadMora(dias int) string {
	switch {
	case dias >= 60:
		return "grave"
	case dias >= 30:
		return "moderada"
	default:
		return "leve"
	}
}

func (s *cuentaService) ObtenerEstadisticas(ctx context.Context) (*dto.EstadisticasResponse, error) {
	cached, version, ok := s.stats.get(ctx)
	if ok {
		return cached, nil
	}
	st, err := s.cuentas.Stats(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.EstadisticasResponse{
		TotalCuentas:       st.TotalCuentas,
		CuentasActivas:     st.CuentasActivas,
		CuentasSuspendidas: st.CuentasSuspendidas,
		CuentasConDeuda:    st.CuentasConDeuda,
		DeudaTotal:         st.DeudaTotal.Round(2),
		DeudaPromedio:      decimal.Zero,
		CuentasEnMora:      st.CuentasEnMora,
		DeudaEnMora:        st.DeudaEnMora.Round(2),
	}
	if st.CuentasConDeuda > 0 {
		resp.DeudaPromedio = st.DeudaTotal.Div(decimal.NewFromInt(st.CuentasConDeuda)).Round(2)
	}
	s.stats.set(ctx, version, resp)
	return resp, nil
}

func (s *cuentaService) RecalcularMora(ctx context.Context) (int, int, error) {
	return s.mora.RecalcularMora(ctx)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *cuentaService) clienteExiste(ctx context.Context, clienteID uuid.UUID) error {
	if _, err := s.clientes.FindByID(ctx, clienteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClienteNoEncontrado
		}
		return err
	}
	return nil
}

func (s *cuentaService) buscarCuenta(ctx context.Context, clienteID uuid.UUID) (*model.CuentaCorriente, error) {
	cuenta, err := s.cuentas.FindByClienteID(ctx, clienteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCuentaNoEncontrada
		}
		return nil, err
	}
	return cuenta, nil
}

func toOperacionResponse(r *ResultadoMovimiento) *dto.OperacionResponse {
	return &dto.OperacionResponse{
		Movimiento:        toMovimientoResponse(r.Movimiento),
		Cuenta:            toCuentaResponse(r.Cuenta),
		VentasCompletadas: r.VentasCompletadas,
	}
}

func toCuentaResponse(c *model.CuentaCorriente) dto.CuentaResponse {
	resp := dto.CuentaResponse{
		ID:            c.ID.String(),
		ClienteID:     c.ClienteID.String(),
		Saldo:         c.Saldo,
		LimiteCredito: c.LimiteCredito,
		Estado:        c.Estado,
		DiasMora:      c.DiasMora,
		Posicion:      PosicionDe(c.Saldo),
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     c.UpdatedAt.Format(time.RFC3339),
	}
	if c.Cliente != nil {
		resp.ClienteNombre = c.Cliente.NombreCompleto()
	}
	if c.LimiteCredito.IsPositive() {
		disp := c.LimiteCredito.Sub(c.Saldo)
		if disp.IsNegative() {
			disp = decimal.Zero
		}
		resp.CreditoDisponible = &disp
	}
	if c.FechaUltimoPago != nil {
		f := c.FechaUltimoPago.Format(time.RFC3339)
		resp.FechaUltimoPago = &f
	}
	if c.FechaUltimaCompra != nil {
		f := c.FechaUltimaCompra.Format(time.RFC3339)
		resp.FechaUltimaCompra = &f
	}
	return resp
}

func toMovimientoResponse(m *model.MovimientoCuenta) dto.MovimientoResponse {
	resp := dto.MovimientoResponse{
		ID:             m.ID.String(),
		Secuencia:      m.Secuencia,
		Tipo:           m.Tipo,
		Monto:          m.Monto,
		SaldoAnterior:  m.SaldoAnterior,
		SaldoPosterior: m.SaldoPosterior,
		Descripcion:    m.Descripcion,
		Notas:          m.Notas,
		ReferenciaTipo: m.ReferenciaTipo,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
	if m.ReferenciaID != nil {
		id := m.ReferenciaID.String()
		resp.ReferenciaID = &id
	}
	if m.MetodoPagoID != nil {
		id := m.MetodoPagoID.String()
		resp.MetodoPagoID = &id
	}
	if m.MetodoPago != nil {
		nombre := m.MetodoPago.Nombre
		resp.MetodoPago = &nombre
	}
	if m.CreadoPorID != nil {
		id := m.CreadoPorID.String()
		resp.CreadoPorID = &id
	}
	if m.CreadoPor != nil {
		nombre := m.CreadoPor.Nombre
		resp.CreadoPor = &nombre
	}
	return resp
}
