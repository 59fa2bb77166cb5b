// Package cli wires the laneshift commands.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/Versifine/laneshift/internal/config"
	"github.com/Versifine/laneshift/internal/logger"
)

const defaultConfigPath = "configs/config.yaml"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string

	// Config is loaded in PersistentPreRunE.
	Config *config.Config
	// configFound is false when the default path was absent and defaults
	// are in use.
	configFound bool
}

// NewRootCommand creates the root command for the laneshift CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "laneshift",
		Short: "laneshift - lane runner control core",
		Long:  "Reconciles keyboard, touch and pointer input into a lane-change intent and drives a damped lane controller.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd.Flags().Changed("config"))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", defaultConfigPath, "config file (.yaml, .yml or .toml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging.level (debug|info|warn|error)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewLanesCommand(opts))

	return cmd
}

// load reads the config. A missing file at the default path falls back to
// DefaultConfig; an explicit --config must exist.
func (o *RootOptions) load(explicit bool) error {
	cfg, err := config.Load(o.ConfigPath)
	switch {
	case err == nil:
		o.configFound = true
	case !explicit && errors.Is(err, fs.ErrNotExist):
		cfg = config.DefaultConfig()
	default:
		return fmt.Errorf("load config: %w", err)
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	o.Config = cfg

	lc := cfg.LoggerConfig()
	if lc.File == "" {
		lc.Output = os.Stderr
	}
	if err := logger.Init(lc); err != nil {
		logger.L().Warn("Falling back to stderr logging", "error", err)
	}
	return nil
}
