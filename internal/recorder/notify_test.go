package recorder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"macrorec/internal/player"
)

type countingSink struct {
	mu        sync.Mutex
	changes   int
	positions []player.Position
}

func (s *countingSink) StructureChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes++
}

func (s *countingSink) PlaybackPosition(section, step int, entering bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = append(s.positions, player.Position{Section: section, Step: step, Entering: entering})
}

func (s *countingSink) changeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changes
}

func (s *countingSink) positionList() []player.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]player.Position(nil), s.positions...)
}

func runNotifier(t *testing.T, n *Notifier, sink Sink) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Run(ctx, sink)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestNotifierCoalescesBursts(t *testing.T) {
	n := NewNotifier(80 * time.Millisecond)
	sink := &countingSink{}
	runNotifier(t, n, sink)

	for i := 0; i < 50; i++ {
		n.Changed()
	}

	assert.Eventually(t, func() bool { return sink.changeCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return sink.changeCount() > 2 }, 150*time.Millisecond, 10*time.Millisecond)
}

func TestNotifierWithoutIntervalDeliversEveryChange(t *testing.T) {
	n := NewNotifier(0)
	sink := &countingSink{}
	runNotifier(t, n, sink)

	n.Changed()
	assert.Eventually(t, func() bool { return sink.changeCount() == 1 }, time.Second, 5*time.Millisecond)
	n.Changed()
	assert.Eventually(t, func() bool { return sink.changeCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestNotifierNeverDropsPositions(t *testing.T) {
	n := NewNotifier(time.Hour)
	var want []player.Position
	for i := 0; i < 1000; i++ {
		p := player.Position{Section: i / 10, Step: i % 10, Entering: i%2 == 0}
		want = append(want, p)
		n.Position(p)
	}

	sink := &countingSink{}
	runNotifier(t, n, sink)
	assert.Eventually(t, func() bool { return len(sink.positionList()) == 1000 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, want, sink.positionList())
}

func TestSinksFanOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	s := Sinks{a, b}
	s.StructureChanged()
	s.PlaybackPosition(1, -1, true)
	assert.Equal(t, 1, a.changeCount())
	assert.Equal(t, 1, b.changeCount())
	assert.Equal(t, []player.Position{{Section: 1, Step: -1, Entering: true}}, b.positionList())
}

func TestCoreNotifiesAfterEdits(t *testing.T) {
	c, _ := newTestCore(t)
	sink := &countingSink{}
	runNotifier(t, c.Notifier(), sink)

	c.AddSection("A")
	assert.Eventually(t, func() bool { return sink.changeCount() >= 1 }, time.Second, 5*time.Millisecond)
}
