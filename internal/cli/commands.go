package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"cuentacorriente/internal/config"
	"cuentacorriente/internal/infra"
	"cuentacorriente/internal/middleware"
	"cuentacorriente/internal/repository"
	"cuentacorriente/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(moraCmd)
	rootCmd.AddCommand(verificarCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(dlqCmd)
	moraCmd.AddCommand(moraRecalcularCmd)
	dlqCmd.AddCommand(dlqListarCmd, dlqReencolarCmd)

	tokenCmd.Flags().String("rol", "", "Overrides the user's role (cajero | supervisor | administrador)")
	tokenCmd.Flags().Duration("ttl", 8*time.Hour, "Token lifetime")
	dlqListarCmd.Flags().Int64("limite", 20, "Entries to show, newest first")
	dlqReencolarCmd.Flags().Int("max", 100, "Entries to move back")
}

// ─── migrate ────────────────────────────────────────────────────────────────

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones SQL embebidas",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := infra.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := infra.RunMigrations(db); err != nil {
			return err
		}
		fmt.Println("migraciones aplicadas")
		return nil
	},
}

// ─── mora ───────────────────────────────────────────────────────────────────

var moraCmd = &cobra.Command{
	Use:   "mora",
	Short: "Días de mora y suspensión automática",
}

var moraRecalcularCmd = &cobra.Command{
	Use:   "recalcular",
	Short: "Recalcula los días de mora de todas las cuentas con deuda",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := abrirEntorno()
		if err != nil {
			return err
		}
		revisadas, suspendidas, err := env.cuenta.RecalcularMora(cmd.Context())
		fmt.Printf("cuentas revisadas: %d\ncuentas suspendidas: %d\n", revisadas, suspendidas)
		return err
	},
}

// ─── verificar ──────────────────────────────────────────────────────────────

var errCadenaInvalida = errors.New("cadena de movimientos inconsistente")

var verificarCmd = &cobra.Command{
	Use:   "verificar CLIENTE_ID",
	Short: "Verifica la cadena de saldos de una cuenta",
	Long: `Recorre los movimientos de la cuenta y comprueba que las secuencias sean
consecutivas, que cada saldo anterior coincida con el posterior del movimiento
previo y que la suma final coincida con el saldo de la cuenta.
Sale con código distinto de cero si encuentra un quiebre.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clienteID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("cliente_id inválido: %w", err)
		}
		env, err := abrirEntorno()
		if err != nil {
			return err
		}
		v, err := env.cuenta.VerificarCadena(cmd.Context(), clienteID)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
		if !v.Valida {
			return errCadenaInvalida
		}
		return nil
	},
}

// ─── token ──────────────────────────────────────────────────────────────────

var tokenCmd = &cobra.Command{
	Use:   "token USUARIO_ID",
	Short: "Emite un JWT de prueba firmado con JWT_SECRET",
	Long: `Emite un token para un usuario existente. El username y el rol se leen de
la tabla usuarios; --rol permite reemplazar el rol.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		usuarioID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("usuario_id inválido: %w", err)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET no configurado")
		}
		db, err := infra.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		u, err := repository.NewUsuarioRepository(db).FindByID(cmd.Context(), usuarioID)
		if err != nil {
			return fmt.Errorf("usuario %s: %w", usuarioID, err)
		}
		if !u.Activo {
			return fmt.Errorf("usuario %s inactivo", u.Username)
		}

		rol := u.Rol
		if r, _ := cmd.Flags().GetString("rol"); r != "" {
			rol = r
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")
		tok, err := middleware.NewToken(cfg.JWTSecret, u.ID.String(), u.Username, rol, ttl)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

// ─── dlq ────────────────────────────────────────────────────────────────────

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Muestra los trabajos pendientes y fallidos de cada cola",
	RunE: func(_ *cobra.Command, _ []string) error {
		return conRedis(func(ctx context.Context, rdb *redis.Client) error {
			st, err := worker.QueuesStatus(ctx, rdb)
			if err != nil {
				return err
			}
			fmt.Println("COLA\tPENDIENTES\tFALLIDOS")
			for _, q := range st {
				fmt.Printf("%s\t%d\t%d\n", q.Queue, q.Pending, q.Failed)
			}
			return nil
		})
	},
}

var dlqListarCmd = &cobra.Command{
	Use:   "listar COLA",
	Short: "Lista los trabajos fallidos de una cola (caja | email)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cola, err := nombreCola(args[0])
		if err != nil {
			return err
		}
		limite, _ := cmd.Flags().GetInt64("limite")
		return conRedis(func(ctx context.Context, rdb *redis.Client) error {
			entries, err := worker.ListDLQ(ctx, rdb, cola, limite)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			for _, e := range entries {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var dlqReencolarCmd = &cobra.Command{
	Use:   "reencolar COLA",
	Short: "Devuelve los trabajos fallidos a su cola, los más viejos primero",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cola, err := nombreCola(args[0])
		if err != nil {
			return err
		}
		n, _ := cmd.Flags().GetInt("max")
		return conRedis(func(ctx context.Context, rdb *redis.Client) error {
			movidos, err := worker.RequeueDLQ(ctx, rdb, cola, n)
			fmt.Printf("%d trabajos reencolados en %s\n", movidos, cola)
			return err
		})
	},
}

// nombreCola accepts "caja", "email" or the full queue name.
func nombreCola(arg string) (string, error) {
	for _, q := range worker.Queues {
		if arg == q || "jobs:"+arg == q {
			return q, nil
		}
	}
	return "", fmt.Errorf("cola desconocida %q (caja | email)", arg)
}

func conRedis(fn func(ctx context.Context, rdb *redis.Client) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return fn(ctx, rdb)
}
