package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cuentacorriente/internal/apierror"
	"cuentacorriente/internal/dto"
	"cuentacorriente/internal/middleware"
	"cuentacorriente/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// fakeCuentas implements the methods the tests exercise; the embedded nil
// interface panics on anything else.
type fakeCuentas struct {
	service.CuentaService

	err       error
	usuarioID *uuid.UUID
	cargo     dto.RegistrarCargoRequest
	envio     dto.EnviarEstadoCuentaRequest
	filtro    dto.CuentaFilter
	pdfPath   string
}

func (f *fakeCuentas) RegistrarCargo(_ context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID, req dto.RegistrarCargoRequest) (*dto.OperacionResponse, error) {
	f.usuarioID = usuarioID
	f.cargo = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.OperacionResponse{
		Movimiento: dto.MovimientoResponse{Tipo: "cargo", Monto: req.Monto},
		Cuenta:     dto.CuentaResponse{ClienteID: clienteID.String(), Saldo: req.Monto},
	}, nil
}

func (f *fakeCuentas) RegistrarPago(_ context.Context, _ uuid.UUID, _ *uuid.UUID, req dto.RegistrarPagoRequest) (*dto.OperacionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.OperacionResponse{Movimiento: dto.MovimientoResponse{Tipo: "pago", Monto: req.Monto.Neg()}}, nil
}

func (f *fakeCuentas) ObtenerEstadoCuenta(_ context.Context, clienteID uuid.UUID, usuarioID *uuid.UUID) (*dto.EstadoCuentaResponse, error) {
	f.usuarioID = usuarioID
	if f.err != nil {
		return nil, f.err
	}
	return &dto.EstadoCuentaResponse{Cuenta: dto.CuentaResponse{ClienteID: clienteID.String()}, Movimientos: []dto.MovimientoResponse{}}, nil
}

func (f *fakeCuentas) GenerarEstadoCuentaPDF(context.Context, uuid.UUID, *uuid.UUID) (string, error) {
	return f.pdfPath, f.err
}

func (f *fakeCuentas) EnviarEstadoCuenta(_ context.Context, _ uuid.UUID, _ *uuid.UUID, req dto.EnviarEstadoCuentaRequest) (*dto.EnvioEstadoCuentaResponse, error) {
	f.envio = req
	if f.err != nil {
		return nil, f.err
	}
	email := "cliente@example.com"
	if req.Email != nil {
		email = *req.Email
	}
	return &dto.EnvioEstadoCuentaResponse{Email: email, Encolado: true}, nil
}

func (f *fakeCuentas) Listar(_ context.Context, filter dto.CuentaFilter) (*dto.CuentaListResponse, error) {
	f.filtro = filter
	return &dto.CuentaListResponse{Data: []dto.CuentaResponse{}, Page: filter.Page, Limit: filter.Limit}, f.err
}

func newTestRouter(svc service.CuentaService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewCuentasHandler(svc)
	g := r.Group("/v1/cuentas", middleware.JWTAuth(testSecret))
	g.GET("", h.Listar)
	g.GET("/:cliente_id", h.EstadoCuenta)
	g.GET("/:cliente_id/pdf", h.DescargarPDF)
	g.POST("/:cliente_id/enviar", h.EnviarEstadoCuenta)
	g.POST("/:cliente_id/cargos", h.RegistrarCargo)
	g.POST("/:cliente_id/pagos", h.RegistrarPago)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path, body string, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	token, err := middleware.NewToken(testSecret, userID.String(), "cajero1", "cajero", time.Hour)
	require.NoError(t, err)

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegistrarCargo_Created(t *testing.T) {
	svc := &fakeCuentas{}
	r := newTestRouter(svc)
	clienteID, userID := uuid.New(), uuid.New()

	w := doRequest(t, r, http.MethodPost, "/v1/cuentas/"+clienteID.String()+"/cargos",
		`{"monto": "150.50", "descripcion": "Fiado"}`, userID)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp dto.OperacionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, clienteID.String(), resp.Cuenta.ClienteID)
	assert.True(t, resp.Cuenta.Saldo.Equal(decimal.RequireFromString("150.5")))

	require.NotNil(t, svc.usuarioID, "the acting user comes from the token")
	assert.Equal(t, userID, *svc.usuarioID)
	assert.Equal(t, "Fiado", svc.cargo.Descripcion)
}

func TestRegistrarCargo_Validacion(t *testing.T) {
	r := newTestRouter(&fakeCuentas{})
	path := "/v1/cuentas/" + uuid.NewString() + "/cargos"

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"json roto", `{"monto":`, http.StatusBadRequest},
		{"monto cero", `{"monto": 0}`, http.StatusUnprocessableEntity},
		{"monto negativo", `{"monto": -5}`, http.StatusUnprocessableEntity},
		{"venta_id no uuid", `{"monto": 5, "venta_id": "abc"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, r, http.MethodPost, path, tt.body, uuid.New())
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := doRequest(t, r, http.MethodPost, "/v1/cuentas/no-uuid/cargos", `{"monto": 5}`, uuid.New())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResponderError_MapeoDeEstados(t *testing.T) {
	tests := []struct {
		err    error
		status int
		codigo string
	}{
		{service.ErrMontoInvalido, http.StatusUnprocessableEntity, apierror.CodigoValidacion},
		{service.ErrMetodoPagoInexistente, http.StatusUnprocessableEntity, apierror.CodigoValidacion},
		{service.ErrVentaIDInvalido, http.StatusUnprocessableEntity, apierror.CodigoValidacion},
		{service.ErrCuentaSuspendida, http.StatusConflict, apierror.CodigoConflicto},
		{service.ErrLimiteCreditoExcedido, http.StatusConflict, apierror.CodigoConflicto},
		{service.ErrCargoDuplicado, http.StatusConflict, apierror.CodigoConflicto},
		{service.ErrClienteNoEncontrado, http.StatusNotFound, apierror.CodigoNoEncontrado},
		{service.ErrCuentaNoEncontrada, http.StatusNotFound, apierror.CodigoNoEncontrado},
		{fmt.Errorf("%w: deadlock", service.ErrConcurrencia), http.StatusServiceUnavailable, apierror.CodigoReintentar},
		{errors.New("pq: connection reset"), http.StatusInternalServerError, apierror.CodigoInterno},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := newTestRouter(&fakeCuentas{err: tt.err})
			w := doRequest(t, r, http.MethodPost, "/v1/cuentas/"+uuid.NewString()+"/pagos",
				fmt.Sprintf(`{"monto": 10, "metodo_pago_id": %q}`, uuid.NewString()), uuid.New())
			assert.Equal(t, tt.status, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["detail"])
			assert.Equal(t, tt.codigo, body["codigo"])
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, body["detail"], "pq:", "internal errors are not leaked")
			}
		})
	}
}

func TestRegistrarPago_ConcurrenciaPideReintentar(t *testing.T) {
	r := newTestRouter(&fakeCuentas{err: service.ErrConcurrencia})
	w := doRequest(t, r, http.MethodPost, "/v1/cuentas/"+uuid.NewString()+"/pagos",
		fmt.Sprintf(`{"monto": 10, "metodo_pago_id": %q}`, uuid.NewString()), uuid.New())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestEstadoCuenta(t *testing.T) {
	svc := &fakeCuentas{}
	r := newTestRouter(svc)
	clienteID := uuid.New()

	w := doRequest(t, r, http.MethodGet, "/v1/cuentas/"+clienteID.String(), "", uuid.New())
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.EstadoCuentaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, clienteID.String(), resp.Cuenta.ClienteID)
}

func TestEstadoCuenta_SinToken(t *testing.T) {
	r := newTestRouter(&fakeCuentas{})
	req := httptest.NewRequest(http.MethodGet, "/v1/cuentas/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDescargarPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estado_cuenta_test.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.3 test"), 0o644))
	r := newTestRouter(&fakeCuentas{pdfPath: path})

	w := doRequest(t, r, http.MethodGet, "/v1/cuentas/"+uuid.NewString()+"/pdf", "", uuid.New())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "estado_cuenta_test.pdf")
	assert.Equal(t, "%PDF-1.3 test", w.Body.String())
}

func TestEnviarEstadoCuenta(t *testing.T) {
	svc := &fakeCuentas{}
	r := newTestRouter(svc)
	path := "/v1/cuentas/" + uuid.NewString() + "/enviar"

	w := doRequest(t, r, http.MethodPost, path, "", uuid.New())
	require.Equal(t, http.StatusAccepted, w.Code, "body is optional")
	assert.Nil(t, svc.envio.Email)

	w = doRequest(t, r, http.MethodPost, path, `{"email": "otro@example.com"}`, uuid.New())
	require.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, svc.envio.Email)
	assert.Equal(t, "otro@example.com", *svc.envio.Email)

	w = doRequest(t, r, http.MethodPost, path, `{"email": "no-es-email"}`, uuid.New())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	r = newTestRouter(&fakeCuentas{err: service.ErrEnvioNoDisponible})
	w = doRequest(t, r, http.MethodPost, path, "", uuid.New())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListar_Filtros(t *testing.T) {
	svc := &fakeCuentas{}
	r := newTestRouter(svc)

	w := doRequest(t, r, http.MethodGet, "/v1/cuentas?estado=suspendida&con_deuda=true&en_mora=true&search=ana&page=2&limit=10", "", uuid.New())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "suspendida", svc.filtro.Estado)
	assert.True(t, svc.filtro.ConDeuda)
	assert.True(t, svc.filtro.EnMora)
	assert.Equal(t, "ana", svc.filtro.Search)
	assert.Equal(t, 2, svc.filtro.Page)
	assert.Equal(t, 10, svc.filtro.Limit)

	w = doRequest(t, r, http.MethodGet, "/v1/cuentas?estado=borrada", "", uuid.New())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
