package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cuentacorriente/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// StatusClientClosedRequest is answered (and logged) when the POS hangs up
// before the ledger transaction finishes. Nobody reads the body.
const StatusClientClosedRequest = 499

// SQLSTATEs that mean the account row was busy, not that the request was wrong.
var codigosOcupado = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57014": true, // query_canceled (statement_timeout)
}

// clasificar maps an error that escaped the handlers to a status and a safe
// envelope. Driver text never reaches the client.
func clasificar(err error) (int, *apierror.APIError) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, apierror.Con(apierror.CodigoCancelado, "Solicitud cancelada")
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, apierror.Con(apierror.CodigoReintentar, "La cuenta está ocupada, reintente")
	case errors.As(err, &pgErr) && codigosOcupado[pgErr.Code]:
		return http.StatusServiceUnavailable, apierror.Con(apierror.CodigoReintentar, "La cuenta está ocupada, reintente")
	}
	return http.StatusInternalServerError, apierror.Con(apierror.CodigoInterno, "Error interno del servidor")
}

func abortar(c *gin.Context, status int, body *apierror.APIError) {
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.AbortWithStatusJSON(status, body)
}

// ErrorHandler answers errors pushed with c.Error. Contention on the account
// row becomes a retryable 503.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, body := clasificar(err)
		ev := log.Error()
		if status != http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Str("cliente_id", c.Param("cliente_id")).
			Int("status", status).
			Err(err).
			Msg("unhandled error")

		if c.Writer.Written() {
			return
		}
		abortar(c, status, body)
	}
}

// Recovery turns panics into JSON responses. GORM rolls the ledger
// transaction back before re-panicking, so the account is left as it was; a
// panic carrying a contention error is still answered as retryable.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}
			status, body := http.StatusInternalServerError, apierror.Con(apierror.CodigoInterno, "Error interno del servidor")
			if err, ok := r.(error); ok {
				status, body = clasificar(err)
			}
			log.Error().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("path", c.FullPath()).
				Str("cliente_id", c.Param("cliente_id")).
				Interface("panic", r).
				Msg("panic recovered")
			abortar(c, status, body)
		}()
		c.Next()
	}
}

// Logger logs each request with method, path, status, latency, and request_id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
