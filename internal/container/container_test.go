package container

import (
	"testing"
	"time"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	config "github.com/berth-automation/berth/config"
	dispatch "github.com/berth-automation/berth/internal/dispatch"
	domain "github.com/berth-automation/berth/internal/domain"
)

func TestBuildPlan_Defaults(t *testing.T) {
	cfg := config.DefaultConfig()

	plan, err := BuildPlan(cfg, -1)
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, plan.BetweenPhases)
	assert.Equal(t, 0, plan.Cycles)
	require.Len(t, plan.Startup, 1)
	assert.Equal(t, dispatch.KindClick, plan.Startup[0].Kind)
	require.Len(t, plan.Phases, 3)

	departure := plan.Phases[domain.PhaseDeparture]
	assert.Equal(t, "departure", departure.Region.Name)
	assert.Nil(t, departure.Secondary)
	assert.Len(t, departure.Select, 2)
	assert.Len(t, departure.Actions, 6)

	handling := plan.Phases[domain.PhaseHandling]
	assert.Equal(t, 5*time.Second, handling.Settle)
	require.NotNil(t, handling.Secondary)
	assert.Equal(t, "crew", handling.Secondary.Region.Name)
	assert.Equal(t, 11, handling.Secondary.Gate.Threshold)
	assert.Equal(t, 2, handling.Secondary.Region.Scale)
}

func TestBuildPlan_CyclesOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Timing.Cycles = 5

	plan, err := BuildPlan(cfg, -1)
	require.NoError(t, err)
	assert.Equal(t, 5, plan.Cycles)

	plan, err = BuildPlan(cfg, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Cycles)
}

func TestBuildPlan_SkippedPhase(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Phases.Approach.Skip = true
	cfg.Phases.Approach.Region = "nowhere"

	plan, err := BuildPlan(cfg, -1)
	require.NoError(t, err)
	assert.True(t, plan.Phases[domain.PhaseApproach].Skip)
	assert.Empty(t, plan.Phases[domain.PhaseApproach].Actions)
}

func TestBuildPlan_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{
			name:    "Unknown region",
			mutate:  func(c *config.Config) { c.Phases.Departure.Region = "bridge" },
			wantErr: "phases.departure",
		},
		{
			name:    "Bad startup",
			mutate:  func(c *config.Config) { c.Timing.Startup = []string{"x:1"} },
			wantErr: "timing.startup",
		},
		{
			name:    "Bad secondary region",
			mutate:  func(c *config.Config) { c.Phases.Handling.Secondary.Region = "cabin" },
			wantErr: "secondary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			_, err := BuildPlan(cfg, -1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReaderOptions(t *testing.T) {
	cfg := config.DefaultConfig().OCR
	cfg.Disambiguate = true

	opts := ReaderOptions(cfg)
	assert.Equal(t, 10, opts.Preprocess.Scale)
	assert.Equal(t, "lanczos", opts.Preprocess.Filter)
	assert.True(t, opts.Disambiguate)
	assert.Equal(t, uint8(160), opts.Ink.Threshold)
}

func TestNewRecognizer_UnknownEngine(t *testing.T) {
	_, err := NewRecognizer(config.OCRConfig{Engine: "paddle"})
	assert.Error(t, err)
}

func TestConfiguredSinks(t *testing.T) {
	cfg := config.DefaultConfig().Events
	assert.Empty(t, ConfiguredSinks(cfg))

	cfg.Telegram = config.TelegramConfig{Enabled: true, Token: "123:abc", ChatID: 42}
	cfg.Redis = config.RedisConfig{Enabled: true, Addr: "127.0.0.1:1", Channel: "c"}
	sinks := ConfiguredSinks(cfg)
	require.Len(t, sinks, 1, "unreachable redis is left out")
	assert.Equal(t, "telegram", sinks[0].Name())
}
