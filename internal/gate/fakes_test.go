package gate

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	dispatch "github.com/berth-automation/berth/internal/dispatch"
	domain "github.com/berth-automation/berth/internal/domain"
	events "github.com/berth-automation/berth/internal/events"
)

// scriptedReader replays readings per region, repeating the last one
type scriptedReader struct {
	scripts map[string][]domain.Reading
	calls   map[string]int
}

func newScriptedReader() *scriptedReader {
	return &scriptedReader{scripts: map[string][]domain.Reading{}, calls: map[string]int{}}
}

func (r *scriptedReader) script(region string, readings ...domain.Reading) {
	for i := range readings {
		readings[i].Region = region
	}
	r.scripts[region] = readings
}

func (r *scriptedReader) Read(ctx context.Context, region domain.Region) domain.Reading {
	n := r.calls[region.Name]
	r.calls[region.Name]++
	script := r.scripts[region.Name]
	if len(script) == 0 {
		return domain.Reading{Region: region.Name}
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	return script[n]
}

func pair(l, r int) domain.Reading {
	return domain.Reading{Pair: domain.NumericPair{Left: l, Right: r}, HasPair: true}
}

func noPair() domain.Reading {
	return domain.Reading{Text: "??"}
}

type fakeWaiter struct {
	stopped atomic.Bool
	done    chan struct{}
	sleeps  []time.Duration
	// stopOnSleep stops the signal when the n-th sleep starts (1-based)
	stopOnSleep int
}

func newFakeWaiter() *fakeWaiter {
	return &fakeWaiter{done: make(chan struct{})}
}

func (w *fakeWaiter) Stopped() bool         { return w.stopped.Load() }
func (w *fakeWaiter) Done() <-chan struct{} { return w.done }

func (w *fakeWaiter) Reason() string {
	if w.Stopped() {
		return "stop key"
	}
	return ""
}

func (w *fakeWaiter) stop() {
	if w.stopped.CompareAndSwap(false, true) {
		close(w.done)
	}
}

func (w *fakeWaiter) Sleep(ctx context.Context, d time.Duration) bool {
	w.sleeps = append(w.sleeps, d)
	if w.stopOnSleep > 0 && len(w.sleeps) == w.stopOnSleep {
		w.stop()
	}
	return !w.Stopped() && ctx.Err() == nil
}

type dispatchCall struct {
	phase string
	seq   string
}

type fakeDispatcher struct {
	calls    []dispatchCall
	failOn   string
	onAction func(n int)
	actions  int
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, phase string, seq dispatch.Sequence) error {
	if len(seq) == 0 {
		return nil
	}
	d.calls = append(d.calls, dispatchCall{phase: phase, seq: seq.String()})
	if d.failOn != "" && seq.String() == d.failOn {
		return &domain.DispatchError{Phase: phase, Op: 0, Desc: seq[0].String(), Err: errors.New("backend gone")}
	}
	if seq.String() == actionSeq.String() {
		d.actions++
		if d.onAction != nil {
			d.onAction(d.actions)
		}
	}
	return nil
}

func (d *fakeDispatcher) seqs() []string {
	out := make([]string, len(d.calls))
	for i, c := range d.calls {
		out[i] = c.phase + " " + c.seq
	}
	return out
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) {
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []events.Type {
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) count(t events.Type) int {
	n := 0
	for _, e := range p.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

var (
	departureRegion = domain.Region{Name: "departure", A: domain.Point{X: 0, Y: 0}, B: domain.Point{X: 10, Y: 10}, Scale: 1}
	approachRegion  = domain.Region{Name: "approach", A: domain.Point{X: 0, Y: 0}, B: domain.Point{X: 10, Y: 10}, Scale: 1}
	handlingRegion  = domain.Region{Name: "handling", A: domain.Point{X: 0, Y: 0}, B: domain.Point{X: 10, Y: 10}, Scale: 1}
	crewRegion      = domain.Region{Name: "crew", A: domain.Point{X: 0, Y: 0}, B: domain.Point{X: 10, Y: 10}, Scale: 1}

	selectSeq = dispatch.Sequence{dispatch.Click(1, 1)}
	actionSeq = dispatch.Sequence{dispatch.Click(2, 2), dispatch.Wait(200)}
)

type testEngine struct {
	*Engine
	reader     *scriptedReader
	waiter     *fakeWaiter
	dispatcher *fakeDispatcher
	events     *recordingPublisher
}

func createTestEngine(maxAttempts int) *testEngine {
	te := &testEngine{
		reader:     newScriptedReader(),
		waiter:     newFakeWaiter(),
		dispatcher: &fakeDispatcher{},
		events:     &recordingPublisher{},
	}
	te.Engine = NewEngine(te.reader, te.dispatcher, te.waiter, te.events, Options{
		MaxAttempts: maxAttempts,
		RetryDelay:  200 * time.Millisecond,
	})
	return te
}
