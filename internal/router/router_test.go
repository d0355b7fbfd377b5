package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cuentacorriente/internal/config"
	"cuentacorriente/internal/dto"
	"cuentacorriente/internal/middleware"
	"cuentacorriente/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCuentas struct{ service.CuentaService }

func (stubCuentas) Listar(_ context.Context, f dto.CuentaFilter) (*dto.CuentaListResponse, error) {
	return &dto.CuentaListResponse{Data: []dto.CuentaResponse{}, Page: f.Page, Limit: f.Limit}, nil
}

func (stubCuentas) RegistrarAjuste(context.Context, uuid.UUID, *uuid.UUID, dto.RegistrarAjusteRequest) (*dto.OperacionResponse, error) {
	return &dto.OperacionResponse{}, nil
}

func (stubCuentas) ObtenerEstadisticas(context.Context) (*dto.EstadisticasResponse, error) {
	return &dto.EstadisticasResponse{}, nil
}

func (stubCuentas) VerificarCadena(_ context.Context, clienteID uuid.UUID) (*dto.VerificacionResponse, error) {
	return &dto.VerificacionResponse{ClienteID: clienteID.String(), Valida: true, Errores: []string{}}, nil
}

func TestRoleGates(t *testing.T) {
	cfg := &config.Config{Env: "test", JWTSecret: "secret"}
	r := New(cfg, nil, nil, stubCuentas{})
	cliente := uuid.NewString()
	ajuste := `{"tipo":"ajuste","monto":5,"descripcion":"corrección"}`

	tests := []struct {
		name   string
		rol    string
		method string
		path   string
		body   string
		want   int
	}{
		{"cajero no lista cuentas", "cajero", http.MethodGet, "/v1/cuentas", "", http.StatusForbidden},
		{"supervisor lista cuentas", "supervisor", http.MethodGet, "/v1/cuentas", "", http.StatusOK},
		{"supervisor ve estadísticas", "supervisor", http.MethodGet, "/v1/cuentas/estadisticas", "", http.StatusOK},
		{"supervisor no ajusta", "supervisor", http.MethodPost, "/v1/cuentas/" + cliente + "/ajustes", ajuste, http.StatusForbidden},
		{"administrador ajusta", "administrador", http.MethodPost, "/v1/cuentas/" + cliente + "/ajustes", ajuste, http.StatusCreated},
		{"cajero no verifica", "cajero", http.MethodGet, "/v1/cuentas/" + cliente + "/verificacion", "", http.StatusForbidden},
		{"administrador verifica", "administrador", http.MethodGet, "/v1/cuentas/" + cliente + "/verificacion", "", http.StatusOK},
		{"rol desconocido", "repositor", http.MethodGet, "/v1/cuentas/estadisticas", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := middleware.NewToken(cfg.JWTSecret, uuid.NewString(), "u", tt.rol, time.Minute)
			require.NoError(t, err)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestTokenVencidoOFirmadoConOtraClave(t *testing.T) {
	cfg := &config.Config{Env: "test", JWTSecret: "secret"}
	r := New(cfg, nil, nil, stubCuentas{})

	vencido, err := middleware.NewToken(cfg.JWTSecret, uuid.NewString(), "u", "administrador", -time.Minute)
	require.NoError(t, err)
	ajeno, err := middleware.NewToken("otra-clave", uuid.NewString(), "u", "administrador", time.Minute)
	require.NoError(t, err)

	for _, token := range []string{vencido, ajeno, "basura"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/cuentas", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}
