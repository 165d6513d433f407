// Command focusctl runs the home focus core from the command line: one-off
// arbitration of a snapshot, fixture replay, decision log inspection, the
// narrative gRPC service, and session gate flags.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/home-focus/go-core/internal/config"
	"github.com/danielpatrickdp/home-focus/go-core/internal/logging"
	"github.com/danielpatrickdp/home-focus/go-core/internal/state"
)

var version = "dev"

// #region app

// app carries what PersistentPreRunE resolves for every subcommand.
type app struct {
	cfgFile string
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "focusctl",
		Short:         "Home focus narrative and navigation core",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")
	root.PersistentFlags().String("db", "", "SQLite path (overrides storage.path)")

	root.AddCommand(
		arbitrateCmd(a),
		replayCmd(a),
		inspectCmd(a),
		serveCmd(a),
		sessionCmd(a),
		gateCmd(a),
		tabCmd(a),
		versionCmd(),
	)
	return root
}

func (a *app) initConfig(cmd *cobra.Command) error {
	v, err := config.NewViper(a.cfgFile)
	if err != nil {
		return err
	}
	flags := cmd.Root().PersistentFlags()
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", flags.Lookup("log-format"))
	if db := flags.Lookup("db"); db != nil && db.Changed {
		v.Set("storage.path", db.Value.String())
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

func (a *app) openStore() (*state.Store, error) {
	store, err := state.NewStore(a.cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", a.cfg.Storage.Path, err)
	}
	return store, nil
}

// #endregion app

// #region main

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			slog.Debug("focusctl version", "version", version)
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// #endregion main
