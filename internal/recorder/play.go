package recorder

import (
	"context"
	"errors"
	"log"

	"macrorec/internal/player"
)

var (
	// ErrAlreadyPlaying is returned by Play while another replay is
	// running and by StartRecording while any replay is running.
	ErrAlreadyPlaying = errors.New("recorder: playback already running")

	// ErrRecording is returned by Play while a recording is running.
	ErrRecording = errors.New("recorder: recording in progress")
)

// Play replays a snapshot of the current macro. Edits made while it runs do
// not affect the replay. Positions are delivered through the notifier.
func (c *Core) Play(ctx context.Context) error {
	if !c.playing.CompareAndSwap(false, true) {
		return ErrAlreadyPlaying
	}
	defer c.playing.Store(false)

	c.mu.Lock()
	recording := c.session != nil
	c.mu.Unlock()
	if recording {
		return ErrRecording
	}

	snap := c.Snapshot()
	p := player.New(c.injector, player.WithObserver(c.notifier.Position))

	log.Printf("Player: replaying %d sections, %d steps", len(snap.Sections), snap.StepCount())
	err := p.Play(ctx, snap)
	switch {
	case err == nil:
		log.Printf("Player: replay finished")
	case ctx.Err() != nil:
		log.Printf("Player: replay interrupted")
	default:
		log.Printf("Player: replay failed: %v", err)
	}
	return err
}

// IsPlaying reports whether Play is running.
func (c *Core) IsPlaying() bool {
	return c.playing.Load()
}
