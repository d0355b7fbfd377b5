package handler

import (
	"errors"
	"net/http"
	"reflect"

	"cuentacorriente/internal/apierror"
	"cuentacorriente/internal/middleware"
	"cuentacorriente/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// clienteIDParam parses :cliente_id, writing a 400 when it is not a UUID.
func clienteIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("cliente_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("cliente_id invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// usuarioActual returns the acting user from the JWT claims, nil when the
// token carries no valid user_id.
func usuarioActual(c *gin.Context) *uuid.UUID {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return nil
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil
	}
	return &id
}

var (
	erroresValidacion = []error{
		service.ErrMontoInvalido,
		service.ErrAjusteCero,
		service.ErrTipoMovimientoInvalido,
		service.ErrMetodoPagoRequerido,
		service.ErrMetodoPagoInexistente,
		service.ErrTipoRecargoInvalido,
		service.ErrEstadoInvalido,
		service.ErrLimiteInvalido,
		service.ErrEmailRequerido,
		service.ErrVentaIDInvalido,
	}
	erroresConflicto = []error{
		service.ErrCuentaSuspendida,
		service.ErrCuentaCerrada,
		service.ErrCuentaConSaldo,
		service.ErrLimiteCreditoExcedido,
		service.ErrCargoDuplicado,
		service.ErrRecargoInvalido,
	}
	erroresNoEncontrado = []error{
		service.ErrClienteNoEncontrado,
		service.ErrCuentaNoEncontrada,
	}
)

func esAlguno(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// responderError maps service errors to HTTP statuses. Unknown errors are
// logged and answered with a generic message.
func responderError(c *gin.Context, err error, fallback string) {
	switch {
	case esAlguno(err, erroresValidacion):
		c.JSON(http.StatusUnprocessableEntity, apierror.Con(apierror.CodigoValidacion, err.Error()))
	case esAlguno(err, erroresConflicto):
		c.JSON(http.StatusConflict, apierror.Con(apierror.CodigoConflicto, err.Error()))
	case esAlguno(err, erroresNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.Con(apierror.CodigoNoEncontrado, err.Error()))
	case errors.Is(err, service.ErrConcurrencia), errors.Is(err, service.ErrEnvioNoDisponible):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, apierror.Con(apierror.CodigoReintentar, err.Error()))
	default:
		log.Error().
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Err(err).
			Msg(fallback)
		c.JSON(http.StatusInternalServerError, apierror.Con(apierror.CodigoInterno, fallback))
	}
}
