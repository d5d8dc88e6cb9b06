package container

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	zap "go.uber.org/zap"

	config "github.com/berth-automation/berth/config"
	capture "github.com/berth-automation/berth/internal/capture"
	dispatch "github.com/berth-automation/berth/internal/dispatch"
	display "github.com/berth-automation/berth/internal/display"
	x11 "github.com/berth-automation/berth/internal/display/x11"
	domain "github.com/berth-automation/berth/internal/domain"
	events "github.com/berth-automation/berth/internal/events"
	gate "github.com/berth-automation/berth/internal/gate"
	logger "github.com/berth-automation/berth/internal/logger"
	ocr "github.com/berth-automation/berth/internal/ocr"
	reader "github.com/berth-automation/berth/internal/reader"
	stop "github.com/berth-automation/berth/internal/stop"

	_ "github.com/berth-automation/berth/internal/display/native"
	_ "github.com/berth-automation/berth/internal/display/replay"
)

// Options are command-line overrides applied on top of the config
type Options struct {
	Backend string
	DryRun  bool
	// Cycles overrides timing.cycles when non-negative
	Cycles int
	// Sinks are added to the event bus alongside the configured ones
	Sinks []events.Sink
}

// ServiceContainer manages all application dependencies
type ServiceContainer struct {
	config *config.Config

	controller  display.Controller
	displayInfo display.DisplayInfo

	capturer   *capture.Capturer
	dumper     *capture.Dumper
	recognizer ocr.Recognizer
	reader     *reader.Reader
	dispatcher *dispatch.Dispatcher

	signal *stop.Signal
	bus    *events.Bus
	engine *gate.Engine
}

// NewServiceContainer opens the display backend and wires the pipeline
func NewServiceContainer(cfg *config.Config, opts Options) (*ServiceContainer, error) {
	c := &ServiceContainer{
		config: cfg,
		signal: stop.New(),
	}

	if err := c.initializeDisplay(opts); err != nil {
		return nil, err
	}
	if err := c.initializeReader(); err != nil {
		c.Close()
		return nil, err
	}
	c.initializeDispatcher(opts)
	c.initializeEvents(opts)

	c.engine = gate.NewEngine(c.reader, c.dispatcher, c.signal, c.bus, gate.Options{
		MaxAttempts: cfg.Gate.MaxAttempts,
		RetryDelay:  cfg.RetryDelay(),
	})

	return c, nil
}

func (c *ServiceContainer) initializeDisplay(opts Options) error {
	backend := opts.Backend
	if backend == "" {
		backend = c.config.Display.Backend
	}

	name := c.config.Display.Name
	if backend == "replay" {
		name = c.config.Display.Image
	}

	controller, info, err := display.Open(backend, name)
	if err != nil {
		return fmt.Errorf("failed to open display: %w", err)
	}

	c.controller = controller
	c.displayInfo = info
	c.capturer = capture.NewCapturer(controller, c.config.Display.AllDisplays)
	logger.Info("Display backend ready", "backend", info.Name)
	return nil
}

func (c *ServiceContainer) initializeReader() error {
	if dir := c.config.Debug.DumpDir; dir != "" {
		dumper, err := capture.NewDumper(dir, c.config.Debug.Keep)
		if err != nil {
			return err
		}
		c.dumper = dumper
		c.capturer.WithDumper(dumper)
	}

	recognizer, err := NewRecognizer(c.config.OCR)
	if err != nil {
		return err
	}
	c.recognizer = recognizer

	c.reader = reader.New(c.capturer, recognizer, c.dumper, ReaderOptions(c.config.OCR))
	return nil
}

func (c *ServiceContainer) initializeDispatcher(opts Options) {
	if opts.DryRun {
		c.dispatcher = dispatch.NewDryRun()
		return
	}
	c.dispatcher = dispatch.New(c.controller)
}

func (c *ServiceContainer) initializeEvents(opts Options) {
	sinks := append([]events.Sink{events.NewLogSink(logger.L(context.Background()))}, ConfiguredSinks(c.config.Events)...)
	sinks = append(sinks, opts.Sinks...)
	c.bus = events.NewBus("", sinks...)
}

// NewRecognizer creates the configured text engine
func NewRecognizer(cfg config.OCRConfig) (ocr.Recognizer, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", "tesseract":
		return ocr.NewTesseract(ocr.TesseractOptions{
			Language:    cfg.Language,
			PageSegMode: cfg.PageSegMode,
			Whitelist:   cfg.Whitelist,
		})
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Engine)
	}
}

// ReaderOptions maps the OCR config onto the reader pipeline
func ReaderOptions(cfg config.OCRConfig) reader.Options {
	return reader.Options{
		Preprocess: ocr.PreprocessOptions{
			Scale:     cfg.Scale,
			Contrast:  cfg.Contrast,
			Sharpness: cfg.Sharpness,
			Invert:    cfg.Invert,
			Filter:    cfg.Filter,
		},
		Disambiguate: cfg.Disambiguate,
		Ink: ocr.InkOptions{
			Threshold: cfg.InkThreshold,
			Ratio:     cfg.InkRatio,
		},
	}
}

// ConfiguredSinks creates the enabled external sinks. A sink that cannot be
// created is logged and left out.
func ConfiguredSinks(cfg config.EventsConfig) []events.Sink {
	var sinks []events.Sink

	if cfg.Redis.Enabled {
		sink, err := events.NewRedisSink(events.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			logger.Warn("Redis event sink disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			sinks = append(sinks, sink)
		}
	}

	if cfg.Telegram.Enabled {
		sink, err := events.NewTelegramSink(events.TelegramOptions{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
		})
		if err != nil {
			logger.Warn("Telegram event sink disabled", "error", err)
		} else {
			sinks = append(sinks, sink)
		}
	}

	return sinks
}

// BuildPlan turns the configured phases into an executable plan
func BuildPlan(cfg *config.Config, cycles int) (gate.Plan, error) {
	opts := cfg.DragOptions()

	startup, err := dispatch.ParseSequence(cfg.Timing.Startup, opts)
	if err != nil {
		return gate.Plan{}, fmt.Errorf("timing.startup: %w", err)
	}

	plan := gate.Plan{
		Startup:       startup,
		Phases:        make(map[domain.Phase]gate.PhaseSpec, len(domain.Phases)),
		BetweenPhases: cfg.BetweenPhases(),
		Cycles:        cfg.Timing.Cycles,
	}
	if cycles >= 0 {
		plan.Cycles = cycles
	}

	for _, p := range domain.Phases {
		spec, err := buildPhase(cfg, p, opts)
		if err != nil {
			return gate.Plan{}, fmt.Errorf("phases.%s: %w", p, err)
		}
		plan.Phases[p] = spec
	}

	return plan, nil
}

func buildPhase(cfg *config.Config, p domain.Phase, opts dispatch.ParseOptions) (gate.PhaseSpec, error) {
	pc := cfg.Phase(p)
	spec := gate.PhaseSpec{Phase: p, Skip: pc.Skip}
	if pc.Skip {
		return spec, nil
	}

	var err error
	if spec.Region, err = cfg.Region(pc.Region); err != nil {
		return spec, err
	}
	if spec.Select, err = dispatch.ParseSequence(pc.Select, opts); err != nil {
		return spec, fmt.Errorf("select: %w", err)
	}
	if spec.Actions, err = dispatch.ParseSequence(pc.Actions, opts); err != nil {
		return spec, fmt.Errorf("actions: %w", err)
	}
	spec.Settle = time.Duration(pc.SettleMs) * time.Millisecond

	if pc.Secondary.Region != "" {
		region, err := cfg.Region(pc.Secondary.Region)
		if err != nil {
			return spec, fmt.Errorf("secondary: %w", err)
		}
		spec.Secondary = &gate.SecondaryCheck{
			Region: region,
			Gate:   gate.SecondaryGate{Threshold: pc.Secondary.Threshold},
		}
	}

	return spec, nil
}

// StartListeners starts every configured stop trigger. The returned function
// releases them.
func (c *ServiceContainer) StartListeners(ctx context.Context) func() {
	c.signal.WatchContext(ctx)

	var releases []func()
	if c.config.Stop.Signals {
		releases = append(releases, c.signal.NotifyOnSignals())
	}

	if x, ok := c.controller.(*x11.Controller); ok && c.config.Stop.Key != "" {
		listenCtx, cancel := context.WithCancel(ctx)
		releases = append(releases, cancel)
		listener := x.KeyListener(c.config.Stop.Key)
		go func() {
			if err := listener.Listen(listenCtx, c.signal); err != nil {
				logger.Warn("Stop key listener unavailable", "key", c.config.Stop.Key, "error", err)
			}
		}()
		logger.Info("Press the stop key to end the run", "key", c.config.Stop.Key)
	}

	return func() {
		for _, release := range releases {
			release()
		}
	}
}

// Close releases the display, the engine and the event sinks
func (c *ServiceContainer) Close() {
	if c.bus != nil {
		if err := c.bus.Close(); err != nil {
			logger.Warn("Failed to close event bus", "error", err)
		}
	}
	if closer, ok := c.recognizer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close OCR engine", "error", err)
		}
	}
	if c.controller != nil {
		if err := c.controller.Close(); err != nil {
			logger.Warn("Failed to close display", "error", err)
		}
	}
}

// GetConfig returns the configuration
func (c *ServiceContainer) GetConfig() *config.Config { return c.config }

// GetDisplayInfo returns the opened backend's description
func (c *ServiceContainer) GetDisplayInfo() display.DisplayInfo { return c.displayInfo }

// GetController returns the opened display controller
func (c *ServiceContainer) GetController() display.Controller { return c.controller }

// GetReader returns the region reader
func (c *ServiceContainer) GetReader() *reader.Reader { return c.reader }

// GetDumper returns the raster dumper, nil when dumps are disabled
func (c *ServiceContainer) GetDumper() *capture.Dumper { return c.dumper }

// GetDispatcher returns the input dispatcher
func (c *ServiceContainer) GetDispatcher() *dispatch.Dispatcher { return c.dispatcher }

// GetStopSignal returns the run's stop signal
func (c *ServiceContainer) GetStopSignal() *stop.Signal { return c.signal }

// GetEventBus returns the event bus
func (c *ServiceContainer) GetEventBus() *events.Bus { return c.bus }

// GetEngine returns the gate engine
func (c *ServiceContainer) GetEngine() *gate.Engine { return c.engine }

// GetLogger returns the process logger with the run id attached
func (c *ServiceContainer) GetLogger() *zap.Logger {
	return logger.L(context.Background()).With(zap.String("run_id", c.bus.RunID()))
}
