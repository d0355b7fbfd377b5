package router

import (
	"time"

	"cuentacorriente/internal/config"
	"cuentacorriente/internal/handler"
	"cuentacorriente/internal/middleware"
	"cuentacorriente/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New returns the configured Gin engine. Services are built in main
// (composition root) because the worker pool and mora job share them.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, cuentaSvc service.CuentaService) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	cuentasH := handler.NewCuentasHandler(cuentaSvc)

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	todos := middleware.RequireRole("cajero", "supervisor", "administrador")
	gestion := middleware.RequireRole("supervisor", "administrador")
	admin := middleware.RequireRole("administrador")

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		cuentas := v1.Group("/cuentas")
		{
			// Static segments are registered before /:cliente_id.
			cuentas.GET("", gestion, cuentasH.Listar)
			cuentas.GET("/estadisticas", gestion, cuentasH.Estadisticas)
			cuentas.GET("/deudores", gestion, cuentasH.Deudores)
			cuentas.GET("/alertas-mora", gestion, cuentasH.AlertasMora)

			cuentas.GET("/:cliente_id", todos, cuentasH.EstadoCuenta)
			cuentas.GET("/:cliente_id/pdf", todos, cuentasH.DescargarPDF)
			cuentas.GET("/:cliente_id/pendientes", todos, cuentasH.VentasPendientes)
			cuentas.GET("/:cliente_id/verificacion", admin, cuentasH.Verificar)
			cuentas.POST("/:cliente_id/enviar", gestion, cuentasH.EnviarEstadoCuenta)

			cuentas.POST("/:cliente_id/cargos", todos, cuentasH.RegistrarCargo)
			cuentas.POST("/:cliente_id/pagos", todos, cuentasH.RegistrarPago)
			cuentas.POST("/:cliente_id/sincronizar", todos, cuentasH.Sincronizar)
			cuentas.POST("/:cliente_id/recargos", gestion, cuentasH.AplicarRecargo)
			cuentas.POST("/:cliente_id/ajustes", admin, cuentasH.RegistrarAjuste)

			cuentas.PATCH("/:cliente_id", admin, cuentasH.Actualizar)
			cuentas.POST("/:cliente_id/suspender", gestion, cuentasH.Suspender)
			cuentas.POST("/:cliente_id/activar", gestion, cuentasH.Activar)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
