// Package cli implements the kbedit command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"kbedit/internal/config"
	"kbedit/internal/log"
)

var (
	configPath string
	logLevel   string
)

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "kbedit",
		Short:         "Edit knowledge-base articles as typed blocks",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&configPath, "config", "", "Path to the config file (default ~/.kbedit/config.toml).")
	pflags.StringVar(&logLevel, "log-level", "", "Override the configured log level.")

	cmd.AddCommand(mcpCmd())
	cmd.AddCommand(createCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(revisionsCmd())

	return &cmd
}

// Execute runs the root command and returns the process exit code.
func Execute(version string) int {
	root := Root()
	root.Version = version
	defer log.Flush()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

// loadConfig reads the config file and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if err := log.Set(level); err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}
	return cfg, nil
}

// withRuntime loads config, opens storage, and runs fn with the services.
func withRuntime(ctx context.Context, fn func(*runtime) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := openRuntime(ctx, cfg, log.Get())
	if err != nil {
		return err
	}
	defer rt.Close(context.WithoutCancel(ctx))
	return fn(rt)
}
