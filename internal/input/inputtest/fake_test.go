package inputtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopReleasesBlockedSend(t *testing.T) {
	c := NewCapture()
	require.NoError(t, c.Start())
	for i := 0; i < cap(c.events); i++ {
		c.Key("a", i%2 == 0, int64(i))
	}

	sent := make(chan struct{})
	go func() {
		c.Key("b", true, 0)
		close(sent)
	}()

	stopped := make(chan struct{})
	go func() {
		assert.NoError(t, c.Stop())
		close(stopped)
	}()

	for _, ch := range []chan struct{}{sent, stopped} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("Send and Stop deadlocked")
		}
	}

	n := 0
	for range c.Events() {
		n++
	}
	assert.GreaterOrEqual(t, n, cap(c.events))
	assert.True(t, c.Stopped())

	c.Key("c", true, 0)
}

func TestInjectorRecordsCalls(t *testing.T) {
	inj := &Injector{FailOn: "mup left"}
	require.NoError(t, inj.KeyDown("a"))
	require.NoError(t, inj.MouseMove(3, 4))
	assert.Error(t, inj.MouseUp("left"))
	assert.Equal(t, []string{"down a", "move 3,4", "mup left"}, inj.Calls())
}
