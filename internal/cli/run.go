package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Versifine/laneshift/internal/config"
	"github.com/Versifine/laneshift/internal/console"
	"github.com/Versifine/laneshift/internal/event"
	"github.com/Versifine/laneshift/internal/input"
	"github.com/Versifine/laneshift/internal/logger"
	"github.com/Versifine/laneshift/internal/loop"
	"github.com/Versifine/laneshift/internal/motion"
)

type RunOptions struct {
	*RootOptions
	Watch bool
}

// NewRunCommand creates the interactive run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the control core from this terminal",
		Long: `Drive the control core from the keyboard and mouse of this terminal.

A/D and the arrow keys pulse a held key; dragging with the left mouse button
acts as a touch contact. Press : for commands and Ctrl-C to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runInteractive(ctx, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "reload the config file when it changes")
	return cmd
}

// core is the wired control core shared by the interactive host.
type core struct {
	terminal *console.Terminal
	source   *input.Source
	ctrl     *motion.Controller
	bus      *event.Bus
	runner   *loop.Runner
}

func newCore(cfg *config.Config, fd int, log *slog.Logger) *core {
	term := console.NewTerminal(fd, cfg.KeyPulse())
	src := input.NewSource(term, cfg.InputOptions(log))
	ctrl := motion.NewController(cfg.MotionOptions())
	bus := event.NewBus()

	lo := cfg.LoopOptions()
	lo.Bus = bus
	lo.Logger = log
	return &core{
		terminal: term,
		source:   src,
		ctrl:     ctrl,
		bus:      bus,
		runner:   loop.NewRunner(src, ctrl, lo),
	}
}

// apply pushes a reloaded config into the running core and announces it.
func (c *core) apply(path string, cfg *config.Config, log *slog.Logger) {
	c.runner.Do(func() {
		c.source.Reconfigure(cfg.InputOptions(log))
		c.ctrl.Tune(cfg.Motion.MaxHorizontalSpeed, cfg.Motion.VelocityBlend)
	})
	c.bus.Publish(event.EventConfigReloaded, event.ConfigReloadedEvent{Path: path})
}

func runInteractive(ctx context.Context, opts *RunOptions) error {
	log := logger.L()
	cfg := opts.Config

	c := newCore(cfg, int(os.Stdin.Fd()), log)
	defer c.source.Dispose()
	defer c.bus.Close()
	defer c.runner.Close()

	c.bus.Subscribe(event.EventConfigReloaded, func(raw any) {
		e := raw.(event.ConfigReloadedEvent)
		log.Debug("Core retuned", "path", e.Path)
	})

	if opts.Watch && opts.configFound {
		w, err := config.NewWatcher(opts.ConfigPath, cfg, log)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer w.Close()
		w.OnChange(func(next *config.Config) { c.apply(opts.ConfigPath, next, log) })
	}

	con := console.NewConsole(c.runner, c.source, c.terminal, console.Options{Logger: log})
	return con.Start(ctx)
}
