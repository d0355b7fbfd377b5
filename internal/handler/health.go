package handler

import (
	"context"
	"net/http"
	"time"

	"cuentacorriente/internal/infra"
	"cuentacorriente/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type migracionesStatus struct {
	Version uint   `json:"version"`
	Dirty   bool   `json:"dirty"`
	Estado  string `json:"estado"` // ok | sin_migrar | dirty | error
}

// Health reports whether the ledger can take movements: postgres reachable
// with a clean schema, Redis reachable. Queue backlogs are informative only;
// a growing jobs:caja DLQ means payments missing from cash sessions, not an
// unhealthy API. Errors are logged, never returned.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		mig := migracionesStatus{Estado: "error"}
		if dbStatus == "connected" {
			mig = estadoMigraciones(ctx, db)
		}

		redisStatus := "connected"
		var colas []worker.QueueStatus
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else if colas, err = worker.QueuesStatus(ctx, rdb); err != nil {
			log.Warn().Err(err).Msg("health: queue status")
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" || mig.Estado == "dirty" || mig.Estado == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":          status == http.StatusOK,
			"db":          dbStatus,
			"redis":       redisStatus,
			"migraciones": mig,
			"colas":       colas,
		})
	}
}

func estadoMigraciones(ctx context.Context, db *gorm.DB) migracionesStatus {
	version, dirty, ok, err := infra.MigrationVersion(ctx, db)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("health: schema version")
		return migracionesStatus{Estado: "error"}
	case !ok:
		return migracionesStatus{Estado: "sin_migrar"}
	case dirty:
		return migracionesStatus{Version: version, Dirty: true, Estado: "dirty"}
	}
	return migracionesStatus{Version: version, Estado: "ok"}
}
