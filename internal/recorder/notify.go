package recorder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"macrorec/internal/player"
)

// Sink receives change notifications on the notifier's pump goroutine.
type Sink interface {
	// StructureChanged reports that sections, steps or gaps changed.
	StructureChanged()
	// PlaybackPosition reports a replay step (or gap, step == -1) being
	// entered or left.
	PlaybackPosition(section, step int, entering bool)
}

// Sinks fans notifications out to several sinks in order.
type Sinks []Sink

func (s Sinks) StructureChanged() {
	for _, sink := range s {
		sink.StructureChanged()
	}
}

func (s Sinks) PlaybackPosition(section, step int, entering bool) {
	for _, sink := range s {
		sink.PlaybackPosition(section, step, entering)
	}
}

// Notifier decouples producers (editing operations, hook callbacks, replay)
// from the presentation layer. Structure changes are coalesced to at most one
// per interval, with a trailing notification so the final state is always
// reported. Playback positions are queued without limit and never dropped.
type Notifier struct {
	limiter *rate.Limiter
	pending atomic.Bool
	changed chan struct{}

	mu        sync.Mutex
	positions []player.Position
	posReady  chan struct{}
}

// NewNotifier creates a notifier emitting at most one structure change per
// interval. A non-positive interval disables coalescing.
func NewNotifier(interval time.Duration) *Notifier {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Notifier{
		limiter:  rate.NewLimiter(limit, 1),
		changed:  make(chan struct{}, 1),
		posReady: make(chan struct{}, 1),
	}
}

// Changed requests a structure-changed notification.
func (n *Notifier) Changed() {
	if n.limiter.Allow() {
		n.signalChanged()
		return
	}
	if !n.pending.CompareAndSwap(false, true) {
		return
	}
	delay := n.limiter.Reserve().Delay()
	time.AfterFunc(delay, func() {
		n.pending.Store(false)
		n.signalChanged()
	})
}

func (n *Notifier) signalChanged() {
	select {
	case n.changed <- struct{}{}:
	default:
	}
}

// Position queues a playback position notification.
func (n *Notifier) Position(p player.Position) {
	n.mu.Lock()
	n.positions = append(n.positions, p)
	n.mu.Unlock()
	select {
	case n.posReady <- struct{}{}:
	default:
	}
}

// Run delivers notifications to sink until ctx is done. Only one Run may be
// active at a time.
func (n *Notifier) Run(ctx context.Context, sink Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.changed:
			sink.StructureChanged()
		case <-n.posReady:
			n.mu.Lock()
			batch := n.positions
			n.positions = nil
			n.mu.Unlock()
			for _, p := range batch {
				sink.PlaybackPosition(p.Section, p.Step, p.Entering)
			}
		}
	}
}
