// Package cli provides the command-line interface for lazychart.
package cli

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/rebeliceyang/lazychart/internal/app"
	"github.com/rebeliceyang/lazychart/internal/chartdata"
	"github.com/rebeliceyang/lazychart/internal/config"
	"github.com/rebeliceyang/lazychart/internal/credentials"
	"github.com/rebeliceyang/lazychart/internal/datapanel"
	"github.com/rebeliceyang/lazychart/internal/logging"
	"github.com/rebeliceyang/lazychart/internal/querydef"
	"github.com/rebeliceyang/lazychart/internal/storage"
	"github.com/rebeliceyang/lazychart/internal/ui/components"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var Version = "0.1.0"

var (
	cfgFile     string
	queryFlag   string
	backendFlag string
	cfg         *config.Config
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lazychart",
		Short: "lazychart - terminal viewer for chart query data",
		Long: `lazychart runs a chart query definition against a chart data backend
and shows the chart status with a collapsible data panel listing the
query's results and the underlying sample rows.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}
			if queryFlag != "" {
				cfg.General.QueryFile = queryFlag
			}
			if backendFlag != "" {
				cfg.Backend.URL = backendFlag
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/lazychart/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&queryFlag, "query", "q", "", "query definition file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "chart data backend URL")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewFetchCommand())
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewHistoryCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func runTUI(cmd *cobra.Command) error {
	logger, closer, err := logging.NewFile(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer closer.Close()

	formData, err := querydef.Load(cfg.General.QueryFile)
	if err != nil {
		return err
	}

	var store datapanel.Store
	var history components.HistoryRecorder
	if st, err := storage.NewStore(cfg.Storage.Path, cfg.Storage.HistoryMaxEntries); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Storage.Path).Msg("state store unavailable, panel state will not persist")
		store = storage.NewMemoryStore()
	} else {
		defer st.Close()
		store = st
		if cfg.Storage.HistoryEnabled {
			history = st
		}
	}

	ctx := cmd.Context()
	var reloads <-chan querydef.Reload
	if cfg.General.WatchQuery {
		delay := time.Duration(cfg.General.ReloadDelay) * time.Millisecond
		reloads, err = querydef.Watch(ctx, cfg.General.QueryFile, delay, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("query file watch disabled")
			reloads = nil
		}
	}

	exportDir, err := os.Getwd()
	if err != nil {
		exportDir = "."
	}

	var zones *zone.Manager
	if cfg.UI.MouseEnabled {
		zones = zone.New()
	}

	a := app.New(formData, app.Options{
		Config:    cfg,
		QueryFile: cfg.General.QueryFile,
		Fetcher:   newClient(logger),
		Store:     store,
		History:   history,
		Reloads:   reloads,
		OnCollapseChange: func(name string) {
			logger.Debug().Str("open_panel", name).Msg("panel collapse changed")
		},
		ExportDir: exportDir,
		Logger:    logger,
		Zones:     zones,
	})

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	p := tea.NewProgram(a, opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// newClient builds the backend client, attaching a stored token if one exists
func newClient(logger zerolog.Logger) *chartdata.Client {
	opts := []chartdata.Option{chartdata.WithLogger(logger)}
	if token := lookupToken(logger); token != "" {
		opts = append(opts, chartdata.WithToken(token))
	}
	timeout := time.Duration(cfg.Backend.Timeout) * time.Millisecond
	return chartdata.NewClient(cfg.Backend.URL, timeout, opts...)
}

func lookupToken(logger zerolog.Logger) string {
	if token := os.Getenv("LAZYCHART_TOKEN"); token != "" {
		return token
	}
	store, err := openTokenStore()
	if err != nil {
		logger.Debug().Err(err).Msg("keyring unavailable")
		return ""
	}
	token, err := store.Get(cfg.Backend.URL, cfg.Backend.Username)
	if err != nil {
		logger.Debug().Err(err).Str("backend", cfg.Backend.URL).Msg("no stored token")
		return ""
	}
	return token
}

func openTokenStore() (*credentials.TokenStore, error) {
	dir, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}
	return credentials.NewTokenStore(dir)
}
