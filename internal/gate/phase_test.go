package gate

import (
	"testing"
	"time"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	domain "github.com/berth-automation/berth/internal/domain"
	events "github.com/berth-automation/berth/internal/events"
	logger "github.com/berth-automation/berth/internal/logger"
)

func departureSpec() PhaseSpec {
	return PhaseSpec{
		Phase:   domain.PhaseDeparture,
		Region:  departureRegion,
		Select:  selectSeq,
		Actions: actionSeq,
	}
}

func handlingSpec(threshold int) PhaseSpec {
	return PhaseSpec{
		Phase:   domain.PhaseHandling,
		Region:  handlingRegion,
		Select:  selectSeq,
		Actions: actionSeq,
		Settle:  5 * time.Second,
		Secondary: &SecondaryCheck{
			Region: crewRegion,
			Gate:   SecondaryGate{Threshold: threshold},
		},
	}
}

func TestRunPhase_DispatchesUntilListClear(t *testing.T) {
	te := createTestEngine(10)
	te.reader.script("departure", pair(3, 10), pair(2, 10), pair(0, 10))

	report, err := te.RunPhase(logger.NopContext(), departureSpec())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Iterations)
	assert.Equal(t, domain.PollExhausted, report.Poll)
	assert.Equal(t, domain.GatePass, report.Outcome)
	assert.Equal(t, []string{
		"departure c:1,1",
		"departure c:2,2 w:200",
		"departure c:2,2 w:200",
	}, te.dispatcher.seqs())
	assert.Equal(t, 2, te.events.count(events.TypeDispatched))
	assert.Equal(t, 1, te.events.count(events.TypePhaseFinished))
}

func TestRunPhase_NoDataEndsPhase(t *testing.T) {
	te := createTestEngine(3)
	te.reader.script("departure", noPair())

	report, err := te.RunPhase(logger.NopContext(), departureSpec())
	require.NoError(t, err)
	assert.Equal(t, domain.PollNoData, report.Poll)
	assert.Equal(t, domain.GatePass, report.Outcome)
	assert.Zero(t, report.Iterations)
	assert.Len(t, te.dispatcher.calls, 1, "select only")
}

func TestRunPhase_SecondaryGate(t *testing.T) {
	t.Run("delta equal to threshold fails without dispatch", func(t *testing.T) {
		te := createTestEngine(10)
		te.reader.script("handling", pair(5, 8))
		te.reader.script("crew", pair(4, 15))

		report, err := te.RunPhase(logger.NopContext(), handlingSpec(11))
		require.NoError(t, err)

		assert.Equal(t, domain.GateFail, report.Outcome)
		assert.Zero(t, report.Iterations)
		assert.Equal(t, []string{"handling c:1,1"}, te.dispatcher.seqs())
		assert.Equal(t, 1, te.events.count(events.TypeGateFailed))
	})

	t.Run("checked before every dispatch", func(t *testing.T) {
		te := createTestEngine(10)
		te.reader.script("handling", pair(5, 8))
		te.reader.script("crew", pair(1, 20), pair(2, 20), pair(9, 20))

		report, err := te.RunPhase(logger.NopContext(), handlingSpec(11))
		require.NoError(t, err)

		assert.Equal(t, domain.GateFail, report.Outcome)
		assert.Equal(t, 2, report.Iterations)
		assert.Equal(t, 3, te.reader.calls["crew"])
		assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, te.waiter.sleeps)
	})

	t.Run("unreadable crew count fails", func(t *testing.T) {
		te := createTestEngine(10)
		te.reader.script("handling", pair(5, 8))
		te.reader.script("crew", noPair())

		report, err := te.RunPhase(logger.NopContext(), handlingSpec(11))
		require.NoError(t, err)
		assert.Equal(t, domain.GateFail, report.Outcome)
		assert.Equal(t, 1, te.reader.calls["crew"])
	})
}

func TestRunPhase_DispatchFailureIsFatal(t *testing.T) {
	te := createTestEngine(10)
	te.reader.script("departure", pair(3, 10))
	te.dispatcher.failOn = actionSeq.String()

	report, err := te.RunPhase(logger.NopContext(), departureSpec())
	require.Error(t, err)
	assert.True(t, domain.IsDispatchError(err))
	assert.Zero(t, report.Iterations)
}

func TestRunPhase_Stop(t *testing.T) {
	t.Run("stop after a dispatch ends the loop", func(t *testing.T) {
		te := createTestEngine(10)
		te.reader.script("departure", pair(3, 10))
		te.dispatcher.onAction = func(n int) { te.waiter.stop() }

		report, err := te.RunPhase(logger.NopContext(), departureSpec())
		require.NoError(t, err)
		assert.True(t, report.Stopped())
		assert.Equal(t, 1, report.Iterations)
		assert.Equal(t, domain.GateContinue, report.Outcome)
	})

	t.Run("stop wakes the settle pause", func(t *testing.T) {
		te := createTestEngine(10)
		te.reader.script("handling", pair(5, 8))
		te.reader.script("crew", pair(1, 20))
		te.waiter.stopOnSleep = 1

		report, err := te.RunPhase(logger.NopContext(), handlingSpec(11))
		require.NoError(t, err)
		assert.True(t, report.Stopped())
		assert.Equal(t, 1, report.Iterations)
	})

	t.Run("already stopped dispatches nothing", func(t *testing.T) {
		te := createTestEngine(10)
		te.waiter.stop()

		report, err := te.RunPhase(logger.NopContext(), departureSpec())
		require.NoError(t, err)
		assert.True(t, report.Stopped())
		assert.Empty(t, te.dispatcher.calls)
	})
}
