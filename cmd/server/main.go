package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cuentacorriente/internal/config"
	"cuentacorriente/internal/infra"
	"cuentacorriente/internal/repository"
	"cuentacorriente/internal/router"
	"cuentacorriente/internal/service"
	"cuentacorriente/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.MigrateOnStart {
		if err := infra.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Composition root ─────────────────────────────────────────────────────
	cuentaRepo := repository.NewCuentaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	metodoPagoRepo := repository.NewMetodoPagoRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)

	dispatcher := worker.NewDispatcher(rdb)
	ledger := service.NewLedger(cuentaRepo, clienteRepo, metodoPagoRepo, ventaRepo, service.LedgerConfig{
		MaxRetries: cfg.LedgerMaxRetries,
	})
	cuentaSvc := service.NewCuentaService(ledger, cuentaRepo, clienteRepo, ventaRepo, dispatcher, rdb, cfg)

	// Worker pool: statement e-mails and cash register entries for payments.
	mailer := infra.NewMailer(cfg)
	if !mailer.Configurado() {
		log.Warn().Msg("SMTP_HOST not set: statement e-mails will fail and end in the DLQ")
	}
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	pool := worker.NewPool(rdb)
	pool.Handle(worker.JobEmail, worker.NewEmailWorker(mailer, smtpCB).Process)
	pool.Handle(worker.JobCaja, worker.NewCajaWorker(cajaRepo).Process)
	pool.Start(ctx, cfg.WorkerPoolSize)

	if cfg.MoraIntervaloHoras > 0 {
		worker.StartMoraCron(ctx, cuentaSvc, time.Duration(cfg.MoraIntervaloHoras)*time.Hour)
	}

	r := router.New(cfg, db, rdb, cuentaSvc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("cuentas corrientes listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
