package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	config "github.com/berth-automation/berth/config"
	domain "github.com/berth-automation/berth/internal/domain"
	stop "github.com/berth-automation/berth/internal/stop"
)

func TestFinishRun(t *testing.T) {
	backendErr := errors.New("xtest gone")

	tests := []struct {
		name     string
		err      error
		stopped  bool
		wantOut  string
		wantErr  bool
		dispatch bool
	}{
		{name: "Cycle limit reached", wantOut: "Finished."},
		{name: "Stopped", stopped: true, wantOut: "Stopped."},
		{name: "Stopped sentinel", err: domain.ErrStopped, wantOut: "Stopped."},
		{
			name:     "Dispatch failure",
			err:      &domain.DispatchError{Phase: "handling", Op: 2, Desc: "c:1,1", Err: backendErr},
			stopped:  true,
			wantErr:  true,
			dispatch: true,
		},
		{name: "Other error", err: errors.New("display lost"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := finishRun(&out, tt.err, tt.stopped)

			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, out.String())
				if tt.dispatch {
					assert.ErrorIs(t, err, backendErr)
					assert.True(t, domain.IsDispatchError(err))
				}
				return
			}

			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestRunFlags(t *testing.T) {
	require.NoError(t, runCmd.Flags().Set("dry-run", "true"))
	require.NoError(t, runCmd.Flags().Set("cycles", "3"))
	require.NoError(t, runCmd.Flags().Set("backend", "replay"))
	require.NoError(t, runCmd.Flags().Set("skip", "approach"))
	t.Cleanup(func() {
		_ = runCmd.Flags().Set("dry-run", "false")
		_ = runCmd.Flags().Set("cycles", "-1")
		_ = runCmd.Flags().Set("backend", "")
	})

	opts, err := runOptionsFromFlags(runCmd)
	require.NoError(t, err)
	assert.True(t, opts.DryRun)
	assert.Equal(t, 3, opts.Cycles)
	assert.Equal(t, "replay", opts.Backend)
	assert.Equal(t, []string{"approach"}, opts.Skip)
	assert.False(t, opts.TUI)

	require.NoError(t, runCmd.Flags().Set("cycles", "-4"))
	_, err = runOptionsFromFlags(runCmd)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, out.String(), "berth version "+version)
	assert.Equal(t, version, GetVersionInfo().Version)
}

func TestWasStopped(t *testing.T) {
	t.Run("running", func(t *testing.T) {
		assert.False(t, wasStopped(context.Background(), stop.New()))
	})

	t.Run("signal set", func(t *testing.T) {
		sig := stop.New()
		sig.Set("esc")
		assert.True(t, wasStopped(context.Background(), sig))
	})

	t.Run("context cancelled before the signal is set", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sig := stop.New()

		assert.True(t, wasStopped(ctx, sig))

		var out bytes.Buffer
		require.NoError(t, finishRun(&out, nil, wasStopped(ctx, sig)))
		assert.Equal(t, "Stopped.\n", out.String())
	})
}

func TestApplySkips(t *testing.T) {
	cfg := config.DefaultConfig()

	same, err := applySkips(cfg, nil)
	require.NoError(t, err)
	assert.Same(t, cfg, same)

	skipped, err := applySkips(cfg, []string{"Approach", " handling "})
	require.NoError(t, err)
	assert.True(t, skipped.Phases.Approach.Skip)
	assert.True(t, skipped.Phases.Handling.Skip)
	assert.False(t, skipped.Phases.Departure.Skip)
	assert.False(t, cfg.Phases.Approach.Skip, "input config is not changed")

	_, err = applySkips(cfg, []string{"docking"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--skip")
}

func TestSuperviseMonitor_EngineReturnClosesMonitor(t *testing.T) {
	engineErr := errors.New("dispatch failed")

	shown := make(chan struct{})
	err := superviseMonitor(context.Background(),
		func(ctx context.Context) error {
			<-shown
			return engineErr
		},
		func(ctx context.Context) error {
			close(shown)
			// a monitor that never saw a terminal event
			<-ctx.Done()
			return nil
		},
	)

	assert.ErrorIs(t, err, engineErr)
}

func TestSuperviseMonitor_MonitorFailureWaitsForEngine(t *testing.T) {
	finished := false
	err := superviseMonitor(context.Background(),
		func(ctx context.Context) error {
			finished = true
			return nil
		},
		func(ctx context.Context) error { return errors.New("no tty") },
	)

	require.NoError(t, err)
	assert.True(t, finished)
}
