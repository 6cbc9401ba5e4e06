package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"

	"greenbowl/tracker"
)

// Listener phases. Exactly one source is live at a time; the handoff from
// the order feed to the delivery feed is close-then-open, never both.
const (
	PhaseSeeding  = "seeding"
	PhaseOrder    = "order"
	PhaseDelivery = "delivery"
	PhaseDone     = "done"
	PhaseFailed   = "failed"
)

const (
	eventSeedOrder    = "seed-order"
	eventSeedDelivery = "seed-delivery"
	eventSeedFailed   = "seed-failed"
	eventHandoff      = "handoff"
	eventTerminal     = "terminal"
)

// SeedFunc is the one-shot REST fetch that populates the session before any
// live feed is opened.
type SeedFunc func(ctx context.Context) (tracker.StatusUpdate, error)

// Config wires a Listener to its collaborators.
type Config struct {
	OrderID        string
	Session        *tracker.Session
	Seed           SeedFunc
	OrderSource    Source
	DeliverySource Source

	// OnChange is invoked after every applied update and on connection-state
	// changes, with a fresh snapshot. Optional.
	OnChange func(tracker.Snapshot)

	// Reconnect policy. Zero values get the defaults below.
	BackoffStep time.Duration // default 1s, added per attempt
	BackoffMax  time.Duration // default 5s cap
	MaxAttempts int           // default 5 per source
}

// Listener keeps live connectivity to whichever status source is currently
// authoritative and feeds every inbound update into the session.
type Listener struct {
	cfg     Config
	machine *fsm.FSM

	mu       sync.Mutex
	cancel   context.CancelFunc
	connLost bool
	lastErr  error
}

var errRetriesExhausted = errors.New("reconnect attempts exhausted")

// NewListener creates a listener for one tracking session.
func NewListener(cfg Config) *Listener {
	if cfg.BackoffStep <= 0 {
		cfg.BackoffStep = time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}

	l := &Listener{cfg: cfg}
	l.machine = fsm.NewFSM(
		PhaseSeeding,
		fsm.Events{
			{Name: eventSeedOrder, Src: []string{PhaseSeeding}, Dst: PhaseOrder},
			{Name: eventSeedDelivery, Src: []string{PhaseSeeding}, Dst: PhaseDelivery},
			{Name: eventSeedFailed, Src: []string{PhaseSeeding}, Dst: PhaseFailed},
			{Name: eventHandoff, Src: []string{PhaseOrder}, Dst: PhaseDelivery},
			{Name: eventTerminal, Src: []string{PhaseSeeding, PhaseOrder, PhaseDelivery}, Dst: PhaseDone},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Printf("tracker %s: %s -> %s", cfg.OrderID, e.Src, e.Dst)
			},
		},
	)
	return l
}

// Phase returns the listener's current phase.
func (l *Listener) Phase() string { return l.machine.Current() }

// ConnectionLost reports whether reconnection was exhausted. The session
// keeps its last known state; this only drives the UI indicator.
func (l *Listener) ConnectionLost() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connLost
}

// Stop tears down the live connection and any pending reconnect timer.
// Safe to call from any goroutine and on every exit path.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run seeds the session, then follows the order feed and hands off to the
// delivery feed once the restaurant side is complete. It returns when a
// terminal milestone is reached, reconnection is exhausted, or ctx is
// cancelled. A seed failure is the only error return; the view shows a
// full error page and no feed is ever opened.
func (l *Listener) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()

	upd, err := l.cfg.Seed(ctx)
	if err != nil {
		_ = l.machine.Event(ctx, eventSeedFailed)
		return fmt.Errorf("seed order %s: %w", l.cfg.OrderID, err)
	}
	l.cfg.Session.ApplyUpdate(upd)
	l.notify()

	snap := l.cfg.Session.Snapshot()
	switch {
	case snap.Terminal:
		_ = l.machine.Event(ctx, eventTerminal)
		return nil
	case snap.ShowDeliverySection:
		// The order side already finished before we mounted.
		_ = l.machine.Event(ctx, eventSeedDelivery)
	default:
		_ = l.machine.Event(ctx, eventSeedOrder)
	}

	for {
		var src Source
		switch l.machine.Current() {
		case PhaseOrder:
			src = l.cfg.OrderSource
		case PhaseDelivery:
			src = l.cfg.DeliverySource
		default:
			return nil
		}

		if err := l.followSource(ctx, src); err != nil {
			if errors.Is(err, errRetriesExhausted) {
				l.setConnLost(err)
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// followSource keeps one source connected, reconnecting with bounded linear
// backoff, until the phase advances, ctx is cancelled, or retries run out.
func (l *Listener) followSource(ctx context.Context, src Source) error {
	phase := l.machine.Current()
	attempt := 0

	for {
		srcCtx, stop := context.WithCancel(ctx)
		var delivered atomic.Bool
		h := func(u tracker.StatusUpdate) {
			// A source that lost authority mid-flight must not touch state.
			if l.machine.Current() != phase {
				return
			}
			delivered.Store(true)
			l.apply(ctx, u, phase, stop)
		}

		err := src.Run(srcCtx, l.cfg.OrderID, h)
		stop()
		if err == nil || ctx.Err() != nil {
			// Clean shutdown: parent cancelled, or apply() closed the source
			// on handoff/terminal.
			return nil
		}

		if delivered.Load() {
			attempt = 0
		}
		attempt++
		if attempt > l.cfg.MaxAttempts {
			return fmt.Errorf("%s source: %w: %v", src.Name(), errRetriesExhausted, err)
		}
		if !l.backoff(ctx, src.Name(), attempt, err) {
			return nil
		}
	}
}

func (l *Listener) apply(ctx context.Context, u tracker.StatusUpdate, phase string, stop func()) {
	l.cfg.Session.ApplyUpdate(u)
	l.notify()

	snap := l.cfg.Session.Snapshot()
	if snap.Terminal {
		_ = l.machine.Event(ctx, eventTerminal)
		stop()
		return
	}
	if phase == PhaseOrder && snap.ShowDeliverySection {
		// Restaurant side is done. Close this feed before the loop opens the
		// delivery feed.
		_ = l.machine.Event(ctx, eventHandoff)
		stop()
	}
}

// backoff waits attempt*step capped at max. Returns false if ctx was
// cancelled during the wait.
func (l *Listener) backoff(ctx context.Context, name string, attempt int, cause error) bool {
	delay := time.Duration(attempt) * l.cfg.BackoffStep
	if delay > l.cfg.BackoffMax {
		delay = l.cfg.BackoffMax
	}
	log.Printf("tracker %s: %s feed lost (%v), reconnect %d/%d in %v",
		l.cfg.OrderID, name, cause, attempt, l.cfg.MaxAttempts, delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (l *Listener) setConnLost(err error) {
	l.mu.Lock()
	l.connLost = true
	l.lastErr = err
	l.mu.Unlock()
	log.Printf("tracker %s: giving up: %v", l.cfg.OrderID, err)
	l.notify()
}

func (l *Listener) notify() {
	if l.cfg.OnChange != nil {
		l.cfg.OnChange(l.cfg.Session.Snapshot())
	}
}
