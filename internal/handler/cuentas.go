package handler

import (
	"net/http"
	"path/filepath"
	"strconv"

	"cuentacorriente/internal/apierror"
	"cuentacorriente/internal/dto"
	"cuentacorriente/internal/service"

	"github.com/gin-gonic/gin"
)

type CuentasHandler struct{ svc service.CuentaService }

func NewCuentasHandler(svc service.CuentaService) *CuentasHandler {
	return &CuentasHandler{svc: svc}
}

// Listar godoc
// @Summary      Listar cuentas corrientes
// @Description  Lista paginada de cuentas, ordenada por saldo descendente.
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Param        estado    query string false "activa | suspendida | cerrada | all"
// @Param        con_deuda query bool   false "Solo cuentas con saldo > 0"
// @Param        en_mora   query bool   false "Solo cuentas con días de mora"
// @Param        search    query string false "Nombre o apellido del cliente"
// @Param        page      query int    false "Página (default 1)"
// @Param        limit     query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.CuentaListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/cuentas [get]
func (h *CuentasHandler) Listar(c *gin.Context) {
	var filter dto.CuentaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Filtro invalido: "+err.Error()))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err, "Error al listar cuentas")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Estadisticas godoc
// @Summary      Estadísticas de cuentas corrientes
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.EstadisticasResponse
// @Router       /v1/cuentas/estadisticas [get]
func (h *CuentasHandler) Estadisticas(c *gin.Context) {
	resp, err := h.svc.ObtenerEstadisticas(c.Request.Context())
	if err != nil {
		responderError(c, err, "Error al obtener estadisticas")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deudores godoc
// @Summary      Principales deudores
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Cantidad (default 50)"
// @Success      200 {array} dto.CuentaResponse
// @Router       /v1/cuentas/deudores [get]
func (h *CuentasHandler) Deudores(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	resp, err := h.svc.ListarDeudores(c.Request.Context(), limit)
	if err != nil {
		responderError(c, err, "Error al listar deudores")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AlertasMora godoc
// @Summary      Cuentas en mora
// @Description  Cuentas con saldo y días de mora, de mayor a menor atraso.
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.AlertaMoraResponse
// @Router       /v1/cuentas/alertas-mora [get]
func (h *CuentasHandler) AlertasMora(c *gin.Context) {
	resp, err := h.svc.AlertasMora(c.Request.Context())
	if err != nil {
		responderError(c, err, "Error al listar alertas de mora")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EstadoCuenta godoc
// @Summary      Estado de cuenta del cliente
// @Description  Cuenta, movimientos en orden cronológico y resumen. Antes de leer registra los cargos faltantes de ventas en cuenta corriente.
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string true "UUID del cliente"
// @Success      200 {object} dto.EstadoCuentaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cuentas/{cliente_id} [get]
func (h *CuentasHandler) EstadoCuenta(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerEstadoCuenta(c.Request.Context(), clienteID, usuarioActual(c))
	if err != nil {
		responderError(c, err, "Error al obtener el estado de cuenta")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DescargarPDF godoc
// @Summary      Estado de cuenta en PDF
// @Tags         cuentas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        cliente_id path string true "UUID del cliente"
// @Success      200 {file} binary
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cuentas/{cliente_id}/pdf [get]
func (h *CuentasHandler) DescargarPDF(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	path, err := h.svc.GenerarEstadoCuentaPDF(c.Request.Context(), clienteID, usuarioActual(c))
	if err != nil {
		responderError(c, err, "Error al generar el PDF")
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// EnviarEstadoCuenta godoc
// @Summary      Enviar estado de cuenta por email
// @Description  Genera el PDF y encola el envío. El email del body reemplaza al registrado en el cliente.
// @Tags         cuentas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string                        true  "UUID del cliente"
// @Param        body       body dto.EnviarEstadoCuentaRequest false "Destinatario"
// @Success      202 {object} dto.EnvioEstadoCuentaResponse
// @Failure      422 {object} apierror.APIError
// @Failure      503 {object} apierror.APIError
// @Router       /v1/cuentas/{cliente_id}/enviar [post]
func (h *CuentasHandler) EnviarEstadoCuenta(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	var req dto.EnviarEstadoCuentaRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.EnviarEstadoCuenta(c.Request.Context(), clienteID, usuarioActual(c), req)
	if err != nil {
		responderError(c, err, "Error al enviar el estado de cuenta")
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// VentasPendientes godoc
// @Summary      Ventas en cuenta corriente pendientes
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string true "UUID del cliente"
// @Success      200 {array} dto.VentaPendienteResponse
// @Router       /v1/cuentas/{cliente_id}/pendientes [get]
func (h *CuentasHandler) VentasPendientes(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListarVentasPendientes(c.Request.Context(), clienteID)
	if err != nil {
		responderError(c, err, "Error al listar ventas pendientes")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Verificar godoc
// @Summary      Verificar la cadena de movimientos
// @Description  Recalcula la cadena de saldos y la compara con el saldo de la cuenta.
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string true "UUID del cliente"
// @Success      200 {object} dto.VerificacionResponse
// @Router       /v1/cuentas/{cliente_id}/verificacion [get]
func (h *CuentasHandler) Verificar(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.VerificarCadena(c.Request.Context(), clienteID)
	if err != nil {
		responderError(c, err, "Error al verificar la cuenta")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarCargo godoc
// @Summary      Registrar cargo
// @Description  Suma deuda a la cuenta. Crea la cuenta si el cliente no tiene una. Respeta el límite de crédito.
// @Tags         cuentas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string                    true "UUID del cliente"
// @Param        body       body dto.RegistrarCargoRequest true "Cargo"
// @Success      201 {object} dto.OperacionResponse
// @Failure      409 {object} apierror.APIError
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/cuentas/{cliente_id}/cargos [post]
func (h *CuentasHandler) RegistrarCargo(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	var req dto.RegistrarCargoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarCargo(c.Request.Context(), clienteID, usuarioActual(c), req)
	if err != nil {
		responderError(c, err, "Error al registrar el cargo")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RegistrarPago godoc
// @Summary      Registrar pago
// @Description  Descuenta deuda. Un pago que salda la cuenta reactiva una cuenta suspendida y completa las ventas pendientes.
// @Tags         cuentas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string                   true "UUID del cliente"
// @Param        body       body dto.RegistrarPagoRequest true "Pago"
// @Success      201 {object} dto.OperacionResponse
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/cuentas/{cliente_id}/pagos [post]
func (h *CuentasHandler) RegistrarPago(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	var req dto.RegistrarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarPago(c.Request.Context(), clienteID, usuarioActual(c), req)
	if err != nil {
		responderError(c, err, "Error al registrar el pago")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AplicarRecargo godoc
// @Summary      Aplicar recargo por mora
// @Description  Porcentaje del saldo actual o monto fijo. Cada llamada genera un nuevo movimiento de interés.
// @Tags         cuentas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string                    true "UUID del cliente"
// @Param        body       body dto.AplicarRecargoRequest true "Recargo"
// @Success      201 {object} dto.OperacionResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/cuentas/{cliente_id}/recargos [post]
func (h *CuentasHandler) AplicarRecargo(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	var req dto.AplicarRecargoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AplicarRecargo(c.Request.Context(), clienteID, usuarioActual(c), req)
	if err != nil {
		responderError(c, err, "Error al aplicar el recargo")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RegistrarAjuste godoc
// @Summary      Registrar ajuste o descuento
// @Tags         cuentas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string                     true "UUID del cliente"
// @Param        body       body dto.RegistrarAjusteRequest true "Ajuste"
// @Success      201 {object} dto.OperacionResponse
// @Router       /v1/cuentas/{cliente_id}/ajustes [post]
func (h *CuentasHandler) RegistrarAjuste(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	var req dto.RegistrarAjusteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarAjuste(c.Request.Context(), clienteID, usuarioActual(c), req)
	if err != nil {
		responderError(c, err, "Error al registrar el ajuste")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Sincronizar godoc
// @Summary      Sincronizar cargos faltantes
// @Description  Registra el cargo de cada venta en cuenta corriente pendiente que todavía no lo tiene. Idempotente.
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string true "UUID del cliente"
// @Success      200 {object} dto.SincronizacionResponse
// @Router       /v1/cuentas/{cliente_id}/sincronizar [post]
func (h *CuentasHandler) Sincronizar(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.SincronizarCargos(c.Request.Context(), clienteID, usuarioActual(c))
	if err != nil {
		responderError(c, err, "Error al sincronizar cargos")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Actualizar cuenta
// @Description  Cambia el límite de crédito y/o el estado. Solo se cierra una cuenta con saldo cero.
// @Tags         cuentas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string                      true "UUID del cliente"
// @Param        body       body dto.ActualizarCuentaRequest true "Cambios"
// @Success      200 {object} dto.CuentaResponse
// @Router       /v1/cuentas/{cliente_id} [patch]
func (h *CuentasHandler) Actualizar(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	var req dto.ActualizarCuentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarCuenta(c.Request.Context(), clienteID, req)
	if err != nil {
		responderError(c, err, "Error al actualizar la cuenta")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Suspender godoc
// @Summary      Suspender cuenta
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string true "UUID del cliente"
// @Success      200 {object} dto.CuentaResponse
// @Router       /v1/cuentas/{cliente_id}/suspender [post]
func (h *CuentasHandler) Suspender(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.Suspender(c.Request.Context(), clienteID)
	if err != nil {
		responderError(c, err, "Error al suspender la cuenta")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Activar godoc
// @Summary      Activar cuenta
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id path string true "UUID del cliente"
// @Success      200 {object} dto.CuentaResponse
// @Router       /v1/cuentas/{cliente_id}/activar [post]
func (h *CuentasHandler) Activar(c *gin.Context) {
	clienteID, ok := clienteIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.Activar(c.Request.Context(), clienteID)
	if err != nil {
		responderError(c, err, "Error al activar la cuenta")
		return
	}
	c.JSON(http.StatusOK, resp)
}
