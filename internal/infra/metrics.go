package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── Ledger ────────────────────────────────────────────────────────────────────

// MovimientosAplicados counts committed account movements by tipo.
var MovimientosAplicados = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cuentas",
	Name:      "movimientos_aplicados_total",
	Help:      "Movimientos de cuenta corriente confirmados, por tipo",
}, []string{"tipo"})

// LedgerReintentos counts transactions re-run after a transient lock/serialization error.
var LedgerReintentos = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cuentas",
	Name:      "ledger_reintentos_total",
	Help:      "Reintentos de transacción por contención en la cuenta",
})

// LedgerConflictos counts operations that exhausted their retries.
var LedgerConflictos = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cuentas",
	Name:      "ledger_conflictos_total",
	Help:      "Operaciones abandonadas tras agotar los reintentos",
})

var CargosSincronizados = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cuentas",
	Name:      "cargos_sincronizados_total",
	Help:      "Cargos creados por la conciliación de ventas en cuenta corriente",
})

var ConciliacionErrores = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cuentas",
	Name:      "conciliacion_errores_total",
	Help:      "Ventas que la conciliación no pudo registrar",
})

var CuentasSuspendidasMora = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cuentas",
	Name:      "suspendidas_por_mora_total",
	Help:      "Cuentas suspendidas automáticamente por días de mora",
})

// ── Workers ───────────────────────────────────────────────────────────────────

// JobsProcesados counts background jobs by queue and resultado (ok | error | dlq).
var JobsProcesados = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cuentas",
	Name:      "jobs_procesados_total",
	Help:      "Jobs procesados por los workers",
}, []string{"queue", "resultado"})

var CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "cuentas",
	Name:      "circuit_breaker_state",
	Help:      "Estado del circuit breaker (0=closed, 1=open, 2=half-open)",
}, []string{"name"})

// ── HTTP ──────────────────────────────────────────────────────────────────────

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "cuentas",
	Name:      "http_request_duration_seconds",
	Help:      "Latencia de las requests HTTP",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})
