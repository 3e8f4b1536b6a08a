// Package cli implements the stocklens command tree.
package cli

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"StockLens/internal/analytics"
	"StockLens/internal/analyzer"
	"StockLens/internal/collector"
	"StockLens/internal/config"
	"StockLens/internal/recorder"
)

const defaultConfigPath = "configs/config.yaml"

// app carries state shared by subcommands after config is loaded.
type app struct {
	configPath string
	debug      bool
	cfg        *config.Config
	logger     *zap.Logger
}

// NewRootCmd creates the root command.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "stocklens",
		Short: "StockLens - stock analytics service",
		Long: `StockLens fetches daily price history and derives moving averages,
volatility, recent extremes and a trend label for a symbol. It serves the
results over HTTP, reports on a watchlist via Telegram and runs one-off
analyses from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cfgPath := defaultConfigPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", cfgPath, "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newAnalyzeCmd(a))
	rootCmd.AddCommand(newVersionCmd(version))
	return rootCmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if a.debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "config validation")
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// newService wires fetcher, engine and recorder from config. The returned
// recorder must be closed by the caller.
func (a *app) newService() (*analyzer.Service, recorder.Recorder, error) {
	cfg := a.cfg
	fetcher, err := collector.NewFetcher(cfg.DataSource.Source, cfg.DataSource.BaseURL,
		cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Retries)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("data source selected", zap.String("source", fetcher.Name()))

	engine, err := analytics.NewEngine(cfg.Analysis)
	if err != nil {
		return nil, nil, errors.Wrap(err, "analysis options")
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, a.logger)
		if err != nil {
			a.logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
		}
	}

	svc := analyzer.New(collector.NewCollector(fetcher, a.logger), engine, rec, a.logger)
	return svc, rec, nil
}
