// README: Debounced recompute trigger coalescing pickup/drop edits into route lookups.
package quote

import (
	"context"
	"sync"
	"time"

	"transporter/internal/types"
)

// DefaultQuietPeriod is how long edits must pause before a lookup is issued.
const DefaultQuietPeriod = 1000 * time.Millisecond

type State int

const (
	StateIdle State = iota
	StatePending
	StateInFlight
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	default:
		return "idle"
	}
}

// LookupFunc resolves a route. It may block; it runs on its own goroutine.
type LookupFunc func(ctx context.Context, pickup, drop types.RoutePoint) (types.RouteResult, error)

// Outcome is published once per completed lookup that was not superseded.
type Outcome struct {
	Seq    uint64
	Pickup types.RoutePoint
	Drop   types.RoutePoint
	Route  *types.RouteResult
	Err    error
}

type TriggerOption func(*Trigger)

func WithClock(c Clock) TriggerOption {
	return func(t *Trigger) { t.clock = c }
}

// Trigger is Idle until an edit arrives, Pending while the quiet period runs and
// InFlight while a lookup is outstanding. An edit during InFlight does not cancel the
// call; it starts another Pending cycle. Completions are published in request order:
// a result that arrives after a later request's result is dropped.
type Trigger struct {
	quiet   time.Duration
	clock   Clock
	lookup  LookupFunc
	publish func(Outcome)

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	pickup    types.RoutePoint
	drop      types.RoutePoint
	timer     Timer
	gen       uint64
	pending   bool
	inFlight  int
	issued    uint64
	published uint64
	closed    bool

	// held across the stale check and the publish call, and by Close; taken before mu
	pubMu sync.Mutex
}

func NewTrigger(quiet time.Duration, lookup LookupFunc, publish func(Outcome), opts ...TriggerOption) *Trigger {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &Trigger{
		quiet:   quiet,
		clock:   realClock{},
		lookup:  lookup,
		publish: publish,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Trigger) SetPickup(p types.RoutePoint) {
	t.edit(func() { t.pickup = p })
}

func (t *Trigger) SetDrop(p types.RoutePoint) {
	t.edit(func() { t.drop = p })
}

func (t *Trigger) edit(apply func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	apply()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.pending = true
	t.timer = t.clock.AfterFunc(t.quiet, func() { t.fire(gen) })
}

func (t *Trigger) fire(gen uint64) {
	t.mu.Lock()
	if t.closed || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.pending = false
	t.timer = nil
	if t.pickup.Empty() || t.drop.Empty() {
		// Incomplete input: nothing is looked up and earlier results stay as they are.
		t.mu.Unlock()
		return
	}
	t.issued++
	seq := t.issued
	t.inFlight++
	pickup, drop := t.pickup, t.drop
	t.mu.Unlock()

	go t.run(seq, pickup, drop)
}

func (t *Trigger) run(seq uint64, pickup, drop types.RoutePoint) {
	route, err := t.lookup(t.ctx, pickup, drop)

	t.pubMu.Lock()
	defer t.pubMu.Unlock()

	t.mu.Lock()
	t.inFlight--
	stale := t.closed || seq < t.published
	if !stale {
		t.published = seq
	}
	t.mu.Unlock()
	if stale {
		return
	}

	out := Outcome{Seq: seq, Pickup: pickup, Drop: drop, Err: err}
	if err == nil {
		out.Route = &route
	}
	t.publish(out)
}

func (t *Trigger) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.pending:
		return StatePending
	case t.inFlight > 0:
		return StateInFlight
	default:
		return StateIdle
	}
}

// Issued reports how many lookups have been started.
func (t *Trigger) Issued() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.issued
}

// Close stops the timer and discards anything still pending or in flight. It waits for a
// publish that is already running, so no publish happens after Close returns. Close must
// not be called from the publish callback.
func (t *Trigger) Close() {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.cancel()
}
