package cli

import (
	"fmt"
	"os"
	"time"

	"cuentacorriente/internal/config"
	"cuentacorriente/internal/infra"
	"cuentacorriente/internal/repository"
	"cuentacorriente/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "cuentasctl",
	Short:         "Administración de cuentas corrientes",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		if v, _ := cmd.Flags().GetBool("verbose"); !v {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log at info level")
}

// Execute runs the root command and prints the error, if any, to stderr.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

// entorno holds what most subcommands need. rdb is nil when Redis is not
// reachable; only the dlq command requires it.
type entorno struct {
	cfg    *config.Config
	db     *gorm.DB
	rdb    *redis.Client
	cuenta service.CuentaService
}

func abrirEntorno() (*entorno, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis no disponible, se omite la caché de estadísticas")
		rdb = nil
	}

	cuentaRepo := repository.NewCuentaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	ledger := service.NewLedger(cuentaRepo, clienteRepo, repository.NewMetodoPagoRepository(db), ventaRepo,
		service.LedgerConfig{MaxRetries: cfg.LedgerMaxRetries})

	return &entorno{
		cfg:    cfg,
		db:     db,
		rdb:    rdb,
		cuenta: service.NewCuentaService(ledger, cuentaRepo, clienteRepo, ventaRepo, nil, rdb, cfg),
	}, nil
}
