package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rebeliceyang/lazychart/internal/chartserver"
	"github.com/rebeliceyang/lazychart/internal/logging"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var (
		addr   string
		driver string
		dsn    string
		seed   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chart data backend",
		Long: `Serve POST /api/v1/chart/data against a SQLite or Postgres datasource.

Datasources are addressed as "<table>__table" in a query definition.`,
		Example: `  # Serve the demo birth_names table from a local SQLite file
  lazychart serve --seed

  # Serve a Postgres database
  lazychart serve --driver postgres --dsn postgres://localhost/examples`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if driver != "" {
				cfg.Server.Driver = driver
			}
			if dsn != "" {
				cfg.Server.DSN = dsn
			}

			logger := logging.NewConsole(cfg.Log.Level)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src, err := chartserver.Open(ctx, cfg.Server.Driver, cfg.Server.DSN)
			if err != nil {
				return fmt.Errorf("failed to open datasource: %w", err)
			}
			defer src.Close()

			if seed {
				if err := chartserver.Seed(ctx, src); err != nil {
					return fmt.Errorf("failed to seed datasource: %w", err)
				}
				logger.Info().Msg("seeded birth_names")
			}

			token := cfg.Server.AuthToken
			if env := os.Getenv("LAZYCHART_SERVER_TOKEN"); env != "" {
				token = env
			}

			srv := chartserver.New(src, chartserver.Options{
				DefaultRowLimit: cfg.Server.DefaultRowLimit,
				SamplesRowLimit: cfg.Server.SamplesRowLimit,
				AuthToken:       token,
				Logger:          logger,
			})
			return srv.Start(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8088)")
	cmd.Flags().StringVar(&driver, "driver", "", "datasource driver (sqlite3|postgres)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "datasource DSN")
	cmd.Flags().BoolVar(&seed, "seed", false, "create and fill the birth_names demo table")

	_ = cmd.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sqlite3", "postgres"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
