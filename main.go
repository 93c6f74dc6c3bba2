package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reddit-ingest/common"
	"reddit-ingest/config"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	dbPath     string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "reddit-ingest",
		Short:         "Load Reddit archive dumps into SQLite",
		Long:          "Stream zstd-compressed Reddit comment and submission dumps into SQLite, then sample and export the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "configuration file (yaml or json)")
	flags.StringVar(&a.dbPath, "db", "", "database path, overrides db_path")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error, overrides log.level")

	root.AddCommand(
		a.ingestCmd(),
		a.sampleCmd(),
		a.exportCmd(),
		a.serveCmd(),
		a.runsCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = common.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(a.logger)
	return nil
}
