package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	dispatch "github.com/berth-automation/berth/internal/dispatch"
	domain "github.com/berth-automation/berth/internal/domain"
	logger "github.com/berth-automation/berth/internal/logger"
	viper "github.com/spf13/viper"
	gotenv "github.com/subosito/gotenv"
	yaml "gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is where the configuration is looked up when --config is not given
	DefaultConfigPath = ".berth/config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. BERTH_GATE_MAX_ATTEMPTS
	EnvPrefix = "BERTH"
)

// Config represents the berth configuration
type Config struct {
	Display DisplayConfig           `yaml:"display" mapstructure:"display"`
	Capture CaptureConfig           `yaml:"capture" mapstructure:"capture"`
	OCR     OCRConfig               `yaml:"ocr" mapstructure:"ocr"`
	Regions map[string]RegionConfig `yaml:"regions" mapstructure:"regions"`
	Phases  PhasesConfig            `yaml:"phases" mapstructure:"phases"`
	Gate    GateConfig              `yaml:"gate" mapstructure:"gate"`
	Timing  TimingConfig            `yaml:"timing" mapstructure:"timing"`
	Stop    StopConfig              `yaml:"stop" mapstructure:"stop"`
	Debug   DebugConfig             `yaml:"debug" mapstructure:"debug"`
	Events  EventsConfig            `yaml:"events" mapstructure:"events"`
	Logging LoggingConfig           `yaml:"logging" mapstructure:"logging"`
}

// DisplayConfig selects the screen/input backend
type DisplayConfig struct {
	Backend     string `yaml:"backend" mapstructure:"backend"`
	Name        string `yaml:"name" mapstructure:"name"`
	AllDisplays bool   `yaml:"all_displays" mapstructure:"all_displays"`
	Image       string `yaml:"image" mapstructure:"image"`
}

// CaptureConfig holds the points-to-pixels conversion
type CaptureConfig struct {
	Scale int `yaml:"scale" mapstructure:"scale"`
}

// OCRConfig holds recognition preprocessing and engine settings
type OCRConfig struct {
	Engine       string  `yaml:"engine" mapstructure:"engine"`
	Scale        int     `yaml:"scale" mapstructure:"scale"`
	Contrast     float64 `yaml:"contrast" mapstructure:"contrast"`
	Sharpness    float64 `yaml:"sharpness" mapstructure:"sharpness"`
	Invert       bool    `yaml:"invert" mapstructure:"invert"`
	Filter       string  `yaml:"filter" mapstructure:"filter"`
	Language     string  `yaml:"language" mapstructure:"language"`
	PageSegMode  int     `yaml:"page_seg_mode" mapstructure:"page_seg_mode"`
	Whitelist    string  `yaml:"whitelist" mapstructure:"whitelist"`
	Disambiguate bool    `yaml:"disambiguate" mapstructure:"disambiguate"`
	InkThreshold uint8   `yaml:"ink_threshold" mapstructure:"ink_threshold"`
	InkRatio     float64 `yaml:"ink_ratio" mapstructure:"ink_ratio"`
}

// RegionConfig is a monitored screen area in logical points
type RegionConfig struct {
	TopLeft     domain.Point `yaml:"top_left" mapstructure:"top_left"`
	BottomRight domain.Point `yaml:"bottom_right" mapstructure:"bottom_right"`
}

// PhasesConfig holds one entry per phase of the cycle
type PhasesConfig struct {
	Departure PhaseConfig `yaml:"departure" mapstructure:"departure"`
	Approach  PhaseConfig `yaml:"approach" mapstructure:"approach"`
	Handling  PhaseConfig `yaml:"handling" mapstructure:"handling"`
}

// PhaseConfig describes how one phase is gated and what it dispatches
type PhaseConfig struct {
	Skip      bool                `yaml:"skip" mapstructure:"skip"`
	Region    string              `yaml:"region" mapstructure:"region"`
	Select    []string            `yaml:"select" mapstructure:"select"`
	Actions   []string            `yaml:"actions" mapstructure:"actions"`
	SettleMs  int                 `yaml:"settle_ms" mapstructure:"settle_ms"`
	Secondary SecondaryGateConfig `yaml:"secondary" mapstructure:"secondary"`
}

// SecondaryGateConfig is an extra precondition read from its own region.
// It is disabled when Region is empty.
type SecondaryGateConfig struct {
	Region    string `yaml:"region" mapstructure:"region"`
	Threshold int    `yaml:"threshold" mapstructure:"threshold"`
}

// GateConfig bounds the poll loop
type GateConfig struct {
	MaxAttempts  int `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelayMs int `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
}

// TimingConfig holds inter-phase delays and drag pacing
type TimingConfig struct {
	BetweenPhasesMs int      `yaml:"between_phases_ms" mapstructure:"between_phases_ms"`
	Startup         []string `yaml:"startup" mapstructure:"startup"`
	DragSteps       int      `yaml:"drag_steps" mapstructure:"drag_steps"`
	DragHoldMs      int      `yaml:"drag_hold_ms" mapstructure:"drag_hold_ms"`
	DragStepMs      int      `yaml:"drag_step_ms" mapstructure:"drag_step_ms"`
	Cycles          int      `yaml:"cycles" mapstructure:"cycles"`
}

// StopConfig configures the cancellation triggers
type StopConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Signals bool   `yaml:"signals" mapstructure:"signals"`
}

// DebugConfig enables raster dumps of capture stages
type DebugConfig struct {
	DumpDir string `yaml:"dump_dir" mapstructure:"dump_dir"`
	Keep    int    `yaml:"keep" mapstructure:"keep"`
}

// EventsConfig configures event sinks besides the log
type EventsConfig struct {
	Redis    RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Telegram TelegramConfig `yaml:"telegram" mapstructure:"telegram"`
}

// RedisConfig publishes every event as JSON on a channel
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	Channel  string `yaml:"channel" mapstructure:"channel"`
}

// TelegramConfig notifies a chat when the run ends
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Token   string `yaml:"token" mapstructure:"token"`
	ChatID  int64  `yaml:"chat_id" mapstructure:"chat_id"`
}

// LoggingConfig configures the process logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the configuration the UI was originally tuned with
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			Backend:     "",
			AllDisplays: true,
		},
		Capture: CaptureConfig{
			Scale: 2,
		},
		OCR: OCRConfig{
			Engine:       "tesseract",
			Scale:        10,
			Contrast:     1.6,
			Sharpness:    1.2,
			Invert:       false,
			Filter:       "lanczos",
			Language:     "eng",
			PageSegMode:  7,
			Whitelist:    "0123456789/",
			Disambiguate: false,
			InkThreshold: 160,
			InkRatio:     1.15,
		},
		Regions: map[string]RegionConfig{
			"approach":  {TopLeft: domain.Point{X: 1403, Y: 619}, BottomRight: domain.Point{X: 1430, Y: 626}},
			"handling":  {TopLeft: domain.Point{X: 1403, Y: 650}, BottomRight: domain.Point{X: 1430, Y: 656}},
			"departure": {TopLeft: domain.Point{X: 1403, Y: 678}, BottomRight: domain.Point{X: 1430, Y: 688}},
			"crew":      {TopLeft: domain.Point{X: 1001, Y: 622}, BottomRight: domain.Point{X: 1027, Y: 632}},
		},
		Phases: PhasesConfig{
			Departure: PhaseConfig{
				Region: "departure",
				Select: []string{"c:1407,695", "w:200"},
				Actions: []string{
					"c:1350,605", "w:200",
					"c:871,861", "w:200",
					"c:1061,790", "w:200",
				},
			},
			Approach: PhaseConfig{
				Region: "approach",
				Select: []string{"c:1405,633", "w:200"},
				Actions: []string{
					"c:1350,605", "w:200",
					"c:871,861", "w:200",
					"c:979,857", "w:200",
					"c:871,861", "w:1500",
					"c:871,861", "w:200",
				},
			},
			Handling: PhaseConfig{
				Region: "handling",
				Select: []string{"c:1408,665", "w:200"},
				Actions: []string{
					"c:1350,605", "w:200",
					"c:871,861", "w:1000",
					"c:1061,790", "w:1500",
					"c:871,861", "w:200",
					"c:1133,759 w:1 *20",
					"c:1134,790", "w:200",
					"c:871,861",
				},
				SettleMs: 5000,
				Secondary: SecondaryGateConfig{
					Region:    "crew",
					Threshold: 11,
				},
			},
		},
		Gate: GateConfig{
			MaxAttempts:  10,
			RetryDelayMs: 200,
		},
		Timing: TimingConfig{
			BetweenPhasesMs: 100,
			Startup:         []string{"c:1250,642"},
			DragSteps:       16,
			DragHoldMs:      180,
			DragStepMs:      45,
			Cycles:          0,
		},
		Stop: StopConfig{
			Key:     "Escape",
			Signals: true,
		},
		Debug: DebugConfig{
			DumpDir: "",
			Keep:    30,
		},
		Events: EventsConfig{
			Redis: RedisConfig{
				Enabled: false,
				Addr:    "localhost:6379",
				Channel: "berth:events",
			},
			Telegram: TelegramConfig{
				Enabled: false,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, an optional .env file, the
// YAML file at configPath and BERTH_* environment overrides
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to load .env file", "error", err)
	}

	v, err := NewViper(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return cfg, nil
}

// NewViper returns a viper instance seeded with DefaultConfig and merged with
// the file at configPath when it exists
func NewViper(configPath string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to seed default config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Debug("Config file not found, using default configuration", "path", configPath)
		return v, nil
	}

	v.SetConfigFile(configPath)
	if err := v.MergeInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	logger.Debug("Loaded config file", "path", configPath)
	return v, nil
}

// SaveConfig writes the configuration as YAML
func (c *Config) SaveConfig(configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	logger.Debug("Saved config", "path", configPath, "size", buf.Len())
	return nil
}

// Region resolves a named region into pixel-convertible form
func (c *Config) Region(name string) (domain.Region, error) {
	rc, ok := c.Regions[strings.ToLower(name)]
	if !ok {
		return domain.Region{}, fmt.Errorf("unknown region %q", name)
	}
	return domain.Region{
		Name:  strings.ToLower(name),
		A:     rc.TopLeft,
		B:     rc.BottomRight,
		Scale: c.Capture.Scale,
	}, nil
}

// RegionNames returns the configured region names sorted
func (c *Config) RegionNames() []string {
	names := make([]string, 0, len(c.Regions))
	for name := range c.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Phase returns the configuration of one phase
func (c *Config) Phase(p domain.Phase) PhaseConfig {
	switch p {
	case domain.PhaseApproach:
		return c.Phases.Approach
	case domain.PhaseHandling:
		return c.Phases.Handling
	default:
		return c.Phases.Departure
	}
}

// SkipPhase marks a phase as skipped
func (c *Config) SkipPhase(p domain.Phase) {
	switch p {
	case domain.PhaseApproach:
		c.Phases.Approach.Skip = true
	case domain.PhaseHandling:
		c.Phases.Handling.Skip = true
	default:
		c.Phases.Departure.Skip = true
	}
}

// DragOptions returns the slow-drag pacing used when parsing op sequences
func (c *Config) DragOptions() dispatch.ParseOptions {
	return dispatch.ParseOptions{
		DragSteps: c.Timing.DragSteps,
		DragHold:  time.Duration(c.Timing.DragHoldMs) * time.Millisecond,
		DragStep:  time.Duration(c.Timing.DragStepMs) * time.Millisecond,
	}
}

// RetryDelay returns the fixed delay between poll attempts
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Gate.RetryDelayMs) * time.Millisecond
}

// BetweenPhases returns the pause between consecutive phases
func (c *Config) BetweenPhases() time.Duration {
	return time.Duration(c.Timing.BetweenPhasesMs) * time.Millisecond
}

func (c *Config) checkRegion(name string) error {
	r, err := c.Region(name)
	if err != nil {
		return err
	}
	if r.Empty() {
		return fmt.Errorf("region %q has no area", r.Name)
	}
	return nil
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Capture.Scale < 1 {
		errs = append(errs, fmt.Errorf("capture.scale must be a positive integer, got %d", c.Capture.Scale))
	}
	if c.OCR.Scale < 1 {
		errs = append(errs, fmt.Errorf("ocr.scale must be a positive integer, got %d", c.OCR.Scale))
	}
	if c.OCR.Contrast <= 0 {
		errs = append(errs, fmt.Errorf("ocr.contrast must be positive, got %g", c.OCR.Contrast))
	}
	if c.OCR.Sharpness <= 0 {
		errs = append(errs, fmt.Errorf("ocr.sharpness must be positive, got %g", c.OCR.Sharpness))
	}
	switch c.OCR.Filter {
	case "", "lanczos", "catmullrom":
	default:
		errs = append(errs, fmt.Errorf("ocr.filter must be lanczos or catmullrom, got %q", c.OCR.Filter))
	}
	if c.Gate.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("gate.max_attempts must be at least 1, got %d", c.Gate.MaxAttempts))
	}
	if c.Gate.RetryDelayMs < 0 || c.Timing.BetweenPhasesMs < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if c.Timing.Cycles < 0 {
		errs = append(errs, fmt.Errorf("timing.cycles must not be negative, got %d", c.Timing.Cycles))
	}

	opts := c.DragOptions()
	if _, err := dispatch.ParseSequence(c.Timing.Startup, opts); err != nil {
		errs = append(errs, fmt.Errorf("timing.startup: %w", err))
	}

	for _, p := range domain.Phases {
		pc := c.Phase(p)
		if pc.Skip {
			continue
		}
		if err := c.checkRegion(pc.Region); err != nil {
			errs = append(errs, fmt.Errorf("phases.%s.region: %w", p, err))
		}
		if _, err := dispatch.ParseSequence(pc.Select, opts); err != nil {
			errs = append(errs, fmt.Errorf("phases.%s.select: %w", p, err))
		}
		if _, err := dispatch.ParseSequence(pc.Actions, opts); err != nil {
			errs = append(errs, fmt.Errorf("phases.%s.actions: %w", p, err))
		}
		if pc.SettleMs < 0 {
			errs = append(errs, fmt.Errorf("phases.%s.settle_ms must not be negative", p))
		}
		if pc.Secondary.Region != "" {
			if err := c.checkRegion(pc.Secondary.Region); err != nil {
				errs = append(errs, fmt.Errorf("phases.%s.secondary.region: %w", p, err))
			}
		}
	}

	if c.Events.Redis.Enabled && c.Events.Redis.Channel == "" {
		errs = append(errs, errors.New("events.redis.channel is required when redis is enabled"))
	}
	if c.Events.Telegram.Enabled && (c.Events.Telegram.Token == "" || c.Events.Telegram.ChatID == 0) {
		errs = append(errs, errors.New("events.telegram requires token and chat_id when enabled"))
	}

	return errors.Join(errs...)
}
