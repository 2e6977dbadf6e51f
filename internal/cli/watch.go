package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"macrorec/internal/macro"
	"macrorec/internal/network"
	"macrorec/internal/protocol"
)

// eventPrinter writes one line per server notification.
type eventPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *eventPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func (p *eventPrinter) attach(c *network.WSClient) {
	c.OnChanged = func(m macro.Macro) {
		p.printf("changed: %d section(s), %d step(s), %s\n", len(m.Sections), m.StepCount(), m.TotalDuration())
	}
	c.OnStatus = func(s protocol.Status) {
		p.printf("status: recording=%t playing=%t sections=%d steps=%d\n", s.Recording, s.Playing, s.Sections, s.Steps)
	}
	c.OnRecording = func(r protocol.RecordingPayload) {
		if r.Active {
			p.printf("recording: section %d\n", r.Section+1)
			return
		}
		p.printf("recording: stopped\n")
	}
	c.OnPlayback = func(r protocol.PlaybackPayload) {
		if r.Error != "" {
			p.printf("playback: %s (%s)\n", r.State, r.Error)
			return
		}
		p.printf("playback: %s\n", r.State)
	}
	c.OnPosition = func(pos protocol.PositionPayload) {
		if !pos.Entering {
			return
		}
		if pos.Step < 0 {
			p.printf("position: gap after section %d\n", pos.Section+1)
			return
		}
		p.printf("position: section %d step %d\n", pos.Section+1, pos.Step+1)
	}
}

func newWatchCmd(load configLoader) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w"},
		Short:   "Follow a running macrorec serve and print its notifications",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := load()
			if err != nil {
				return err
			}
			cfg := mgr.Get()
			if addr == "" {
				addr = net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.API.Port))
			}

			c := network.NewWSClient(addr, cfg.API.Token)
			(&eventPrinter{w: cmd.OutOrStdout()}).attach(c)

			err = c.Run(cmd.Context())
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Server address (host:port); defaults to the configured API port on loopback")
	return cmd
}
