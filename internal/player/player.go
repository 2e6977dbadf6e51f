// Package player replays a macro through an input.Injector.
package player

import (
	"context"
	"fmt"
	"log"
	"time"

	"macrorec/internal/input"
	"macrorec/internal/macro"
)

// GapStep is the Step value of a Position that marks the wait between two
// sections.
const GapStep = -1

// Position is a replay progress event. Section and Step index the step
// being executed; for a gap Step is GapStep and Section is the section just
// finished.
type Position struct {
	Section  int  `json:"section"`
	Step     int  `json:"step"`
	Entering bool `json:"entering"`
}

// Player executes macros. It holds no macro state and can run several
// replays sequentially.
type Player struct {
	injector input.Injector
	observe  func(Position)
}

// Option configures a Player
type Option func(*Player)

// WithObserver registers fn to receive every Position, in order, on the
// replay goroutine.
func WithObserver(fn func(Position)) Option {
	return func(p *Player) {
		p.observe = fn
	}
}

// New creates a player injecting through inj
func New(inj input.Injector, opts ...Option) *Player {
	p := &Player{injector: inj}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play replays m. It returns ctx.Err() as soon as ctx is done, the first
// injection error wrapped, or nil once every step has run. m must not be
// modified while Play runs.
func (p *Player) Play(ctx context.Context, m macro.Macro) error {
	for si, section := range m.Sections {
		for i, step := range section.Steps {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.emit(si, i, true)
			if err := p.execute(ctx, step); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("section %d step %d (%s): %w", si, i, step.Type(), err)
			}
			p.emit(si, i, false)
		}

		if si == len(m.Sections)-1 || si >= len(m.Gaps) {
			continue
		}
		if gap := m.Gaps[si]; gap > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.emit(si, GapStep, true)
			if err := sleep(ctx, macro.Millis(gap).Duration()); err != nil {
				return err
			}
			p.emit(si, GapStep, false)
		}
	}
	return ctx.Err()
}

func (p *Player) execute(ctx context.Context, step macro.Step) error {
	switch s := step.(type) {
	case macro.Delay:
		return sleep(ctx, s.Duration())
	case macro.KeyPress:
		return p.injector.KeyDown(s.Key)
	case macro.KeyRelease:
		return p.injector.KeyUp(s.Key)
	case macro.MousePress:
		if err := p.injector.MouseMove(s.X, s.Y); err != nil {
			return err
		}
		return p.injector.MouseDown(string(s.Button))
	case macro.MouseRelease:
		if err := p.injector.MouseMove(s.X, s.Y); err != nil {
			return err
		}
		return p.injector.MouseUp(string(s.Button))
	default:
		log.Printf("Player: skipping unknown step type %q", step.Type())
		return nil
	}
}

func (p *Player) emit(section, step int, entering bool) {
	if p.observe != nil {
		p.observe(Position{Section: section, Step: step, Entering: entering})
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
