package worker

// mora_cron.go
// Background goroutine that periodically recomputes días de mora for every
// account with debt and auto-suspends the ones past the configured threshold.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// MoraRecalculador is satisfied by *service.Mora and service.CuentaService.
type MoraRecalculador interface {
	RecalcularMora(ctx context.Context) (revisadas, suspendidas int, err error)
}

// StartMoraCron runs one pass right away and then one every interval.
// It respects the context for graceful shutdown.
func StartMoraCron(ctx context.Context, r MoraRecalculador, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("mora_cron: started")
		runMora(ctx, r)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("mora_cron: shutting down")
				return
			case <-ticker.C:
				runMora(ctx, r)
			}
		}
	}()
}

func runMora(ctx context.Context, r MoraRecalculador) {
	start := time.Now()
	revisadas, suspendidas, err := r.RecalcularMora(ctx)
	if err != nil {
		log.Error().Err(err).Msg("mora_cron: recalculation failed")
		return
	}
	log.Info().
		Int("revisadas", revisadas).
		Int("suspendidas", suspendidas).
		Dur("elapsed", time.Since(start)).
		Msg("mora_cron: pass completed")
}
