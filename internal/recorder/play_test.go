package recorder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrorec/internal/input/inputtest"
	"macrorec/internal/macro"
	"macrorec/internal/player"
)

func TestPlayUsesSnapshot(t *testing.T) {
	inj := &inputtest.Injector{}
	c, _ := newTestCore(t, WithInjector(inj))
	c.Replace(macro.Macro{Sections: []macro.Section{{Name: "A", Steps: []macro.Step{
		macro.KeyPress{Key: "a"},
		macro.Millis(50),
		macro.KeyRelease{Key: "a"},
	}}}})

	done := make(chan error, 1)
	go func() { done <- c.Play(context.Background()) }()

	require.Eventually(t, c.IsPlaying, time.Second, time.Millisecond)
	c.ClearAll()

	require.NoError(t, <-done)
	assert.Equal(t, []string{"down a", "up a"}, inj.Calls())
	assert.False(t, c.IsPlaying())
}

func TestPlayRejectsConcurrentRun(t *testing.T) {
	c, _ := newTestCore(t)
	c.Replace(macro.Macro{Sections: []macro.Section{{Steps: []macro.Step{
		macro.Delay{Amount: 10, Unit: macro.UnitSeconds},
	}}}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Play(ctx) }()
	require.Eventually(t, c.IsPlaying, time.Second, time.Millisecond)

	assert.ErrorIs(t, c.Play(context.Background()), ErrAlreadyPlaying)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Play did not stop")
	}
}

func TestPlayAndRecordExcludeEachOther(t *testing.T) {
	c, _ := newTestCore(t)
	c.AddSection("A")
	require.NoError(t, c.StartRecording(0))
	assert.ErrorIs(t, c.Play(context.Background()), ErrRecording)
	assert.False(t, c.IsPlaying())
	c.StopRecording()

	c.AddDelayStep(0, 10_000)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Play(ctx) }()
	require.Eventually(t, c.IsPlaying, time.Second, time.Millisecond)

	assert.ErrorIs(t, c.StartRecording(0), ErrAlreadyPlaying)
	assert.False(t, c.IsRecording())
	cancel()
	<-done
}

func TestPlayRoutesPositionsToNotifier(t *testing.T) {
	c, _ := newTestCore(t)
	c.Replace(macro.Macro{Sections: []macro.Section{{Steps: []macro.Step{macro.KeyPress{Key: "a"}}}}})
	sink := &countingSink{}
	runNotifier(t, c.Notifier(), sink)

	require.NoError(t, c.Play(context.Background()))
	assert.Eventually(t, func() bool {
		got := sink.positionList()
		return len(got) == 2 && got[0] == player.Position{Section: 0, Step: 0, Entering: true}
	}, time.Second, 5*time.Millisecond)
}
