package sandbox

import (
	"context"
	"sync"
	"time"
)

// Runner drives a World on its own goroutine at a fixed tick rate and
// publishes a snapshot after every tick. Frontends that do not own the game
// loop (terminal, stream server) use it instead of calling Step themselves.
type Runner struct {
	world    *World
	interval time.Duration
	snaps    chan *Snapshot

	mu       sync.Mutex
	onReport []func(Report)
}

// NewRunner wraps w. tps <= 0 falls back to the configured tick rate.
func NewRunner(w *World, tps int) *Runner {
	if tps <= 0 {
		tps = w.settings.Const.TickRate
	}
	return &Runner{
		world:    w,
		interval: time.Second / time.Duration(tps),
		snaps:    make(chan *Snapshot, 1),
	}
}

// Submit queues a command for the next tick
func (r *Runner) Submit(cmd Command) { r.world.Submit(cmd) }

// Snapshots yields the latest snapshot. Stale ones are replaced, never queued.
func (r *Runner) Snapshots() <-chan *Snapshot { return r.snaps }

// OnReport registers a callback run on the simulation goroutine after each tick
func (r *Runner) OnReport(fn func(Report)) {
	r.mu.Lock()
	r.onReport = append(r.onReport, fn)
	r.mu.Unlock()
}

// Run ticks until ctx is done
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.step()
		}
	}
}

func (r *Runner) step() {
	rep := r.world.Step()

	r.mu.Lock()
	callbacks := r.onReport
	r.mu.Unlock()
	for _, fn := range callbacks {
		fn(rep)
	}

	r.publish(r.world.Snapshot())
}

// publish replaces any unread snapshot with snap
func (r *Runner) publish(snap *Snapshot) {
	select {
	case r.snaps <- snap:
		return
	default:
	}
	select {
	case <-r.snaps:
	default:
	}
	select {
	case r.snaps <- snap:
	default:
		// Channel full, drop
	}
}
