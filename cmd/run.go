package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	cobra "github.com/spf13/cobra"
	zap "go.uber.org/zap"

	config "github.com/berth-automation/berth/config"
	container "github.com/berth-automation/berth/internal/container"
	domain "github.com/berth-automation/berth/internal/domain"
	gate "github.com/berth-automation/berth/internal/gate"
	logger "github.com/berth-automation/berth/internal/logger"
	ui "github.com/berth-automation/berth/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the phase cycle until stopped",
	Long: `Run the Departure, Approach and Handling phases in a loop. Each phase
polls its region until the counter reads two positive numbers and then
dispatches its action sequence.

The run ends on the stop key (X11), SIGINT/SIGTERM, esc/q in the monitor,
or after --cycles full cycles. A failed input dispatch ends it with an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		return runAutomation(cmd.Context(), cmd.OutOrStdout(), currentConfig(), opts)
	},
}

type runOptions struct {
	container.Options
	TUI  bool
	Skip []string
}

func runOptionsFromFlags(cmd *cobra.Command) (runOptions, error) {
	tui, _ := cmd.Flags().GetBool("tui")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	backend, _ := cmd.Flags().GetString("backend")
	cycles, _ := cmd.Flags().GetInt("cycles")
	skip, _ := cmd.Flags().GetStringSlice("skip")
	if cycles < -1 {
		return runOptions{}, fmt.Errorf("--cycles must be zero or positive, got %d", cycles)
	}

	return runOptions{
		Options: container.Options{
			Backend: backend,
			DryRun:  dryRun,
			Cycles:  cycles,
		},
		TUI:  tui,
		Skip: skip,
	}, nil
}

// applySkips returns a copy of cfg with the named phases skipped
func applySkips(cfg *config.Config, names []string) (*config.Config, error) {
	if len(names) == 0 {
		return cfg, nil
	}
	out := *cfg
	for _, name := range names {
		p, err := domain.ParsePhase(name)
		if err != nil {
			return nil, fmt.Errorf("--skip: %w", err)
		}
		out.SkipPhase(p)
	}
	return &out, nil
}

func runAutomation(ctx context.Context, out io.Writer, cfg *config.Config, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := applySkips(cfg, opts.Skip)
	if err != nil {
		return err
	}

	if opts.TUI && cfg.Logging.File == "" {
		// the monitor owns the terminal
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		logOpts := loggerOptions(cfg.Logging)
		logOpts.File = filepath.Join(filepath.Dir(config.DefaultConfigPath), "berth.log")
		if err := logger.Init(verbose, logOpts); err != nil {
			return fmt.Errorf("failed to redirect logs for the monitor: %w", err)
		}
	}

	services, err := container.NewServiceContainer(cfg, opts.Options)
	if err != nil {
		return err
	}
	defer services.Close()

	plan, err := container.BuildPlan(cfg, opts.Cycles)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	release := services.StartListeners(ctx)
	defer release()

	ctx = logger.ContextWithLogger(ctx, services.GetLogger())
	if services.GetDispatcher().DryRun() {
		logger.FromContext(ctx).Info("Dry run, input is logged instead of sent")
	}

	if opts.TUI {
		err = runWithMonitor(ctx, services, plan)
	} else {
		err = services.GetEngine().Run(ctx, plan)
	}

	signal := services.GetStopSignal()
	stopped := wasStopped(ctx, signal)
	if stopped {
		logger.FromContext(ctx).Info("Run stopped", zap.String("reason", signal.Reason()))
	}
	return finishRun(out, err, stopped)
}

func runWithMonitor(ctx context.Context, services *container.ServiceContainer, plan gate.Plan) error {
	bus := services.GetEventBus()
	monitor := ui.NewMonitor(bus.Subscribe(64), services.GetStopSignal(), ui.MonitorOptions{
		RunID:   bus.RunID(),
		Backend: services.GetDisplayInfo().Name,
		DryRun:  services.GetDispatcher().DryRun(),
	})

	return superviseMonitor(ctx,
		func(ctx context.Context) error { return services.GetEngine().Run(ctx, plan) },
		func(ctx context.Context) error { return ui.Run(ctx, monitor) },
	)
}

// superviseMonitor runs the engine in the background while show owns the
// terminal. The monitor may miss the final event when its buffer is full, so
// its context is cancelled as soon as the engine returns.
func superviseMonitor(ctx context.Context, run, show func(context.Context) error) error {
	monitorCtx, closeMonitor := context.WithCancel(ctx)
	defer closeMonitor()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx)
		closeMonitor()
	}()

	if err := show(monitorCtx); err != nil {
		logger.FromContext(ctx).Warn("Monitor exited, run continues without it", zap.Error(err))
	}
	return <-done
}

// wasStopped also counts a cancelled ctx whose watcher has not set the
// signal yet
func wasStopped(ctx context.Context, s domain.StopChecker) bool {
	return s.Stopped() || ctx.Err() != nil
}

// finishRun maps the engine result onto the command result
func finishRun(out io.Writer, err error, stopped bool) error {
	if err == nil && stopped {
		err = domain.ErrStopped
	}

	switch {
	case err == nil:
		fmt.Fprintln(out, "Finished.")
		return nil
	case errors.Is(err, domain.ErrStopped):
		fmt.Fprintln(out, "Stopped.")
		return nil
	case domain.IsDispatchError(err):
		logger.Error("Run aborted by a failed dispatch", "error", err)
		return fmt.Errorf("run aborted: %w", err)
	default:
		return err
	}
}

func init() {
	runCmd.Flags().Bool("tui", false, "show the live monitor")
	runCmd.Flags().Bool("dry-run", false, "log input actions instead of sending them")
	runCmd.Flags().String("backend", "", "display backend (x11, native, replay); detected when empty")
	runCmd.Flags().StringSlice("skip", nil, "phases to skip (departure, approach, handling)")
	runCmd.Flags().Int("cycles", -1, "stop after this many full cycles; 0 runs until stopped, -1 uses the config")
	rootCmd.AddCommand(runCmd)
}
