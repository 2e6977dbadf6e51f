// Package app wires the recorder core to its hooks, the API server, the
// macro file watcher and the tray menu.
package app

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"macrorec/internal/api"
	"macrorec/internal/config"
	"macrorec/internal/hotkey"
	"macrorec/internal/input"
	"macrorec/internal/macro"
	"macrorec/internal/osutils"
	"macrorec/internal/protocol"
	"macrorec/internal/recorder"
	"macrorec/internal/watcher"
)

// ErrRecording is returned by Play while a recording is running.
var ErrRecording = recorder.ErrRecording

// PlaybackResult describes how a replay ended.
type PlaybackResult struct {
	// Interrupted is set when the replay was stopped by the interrupt
	// hotkey or StopPlayback before it finished.
	Interrupted bool
	// Err is an injection failure, nil otherwise.
	Err error
}

// State reports how a replay ended as a protocol playback state.
func (r PlaybackResult) State() string {
	switch {
	case r.Err != nil:
		return protocol.PlaybackFailed
	case r.Interrupted:
		return protocol.PlaybackInterrupted
	default:
		return protocol.PlaybackFinished
	}
}

// App is the running application.
type App struct {
	cfg           *config.Manager
	core          *recorder.Core
	api           *api.Server
	hotkeyCapture recorder.CaptureFactory
	watchDebounce time.Duration
	keepAwake     func(context.Context)

	mu             sync.Mutex
	cancelPlay     context.CancelFunc
	onPlaybackDone func(PlaybackResult)
	onStateChanged func()
	extraSinks     []recorder.Sink
}

// Option configures an App
type Option func(*App, *[]recorder.Option)

// WithCaptureFactory sets the capture used for recording.
func WithCaptureFactory(f recorder.CaptureFactory) Option {
	return func(a *App, ro *[]recorder.Option) {
		*ro = append(*ro, recorder.WithCaptureFactory(f))
	}
}

// WithHotkeyCapture sets the capture the interrupt hotkey listens on.
func WithHotkeyCapture(f recorder.CaptureFactory) Option {
	return func(a *App, ro *[]recorder.Option) {
		a.hotkeyCapture = f
	}
}

// WithInjector sets the injector used for replay.
func WithInjector(inj input.Injector) Option {
	return func(a *App, ro *[]recorder.Option) {
		*ro = append(*ro, recorder.WithInjector(inj))
	}
}

// WithWatchDebounce sets the macro file watcher's quiet period.
func WithWatchDebounce(d time.Duration) Option {
	return func(a *App, ro *[]recorder.Option) {
		a.watchDebounce = d
	}
}

// WithKeepAwake sets the function that holds off system sleep while a
// replay runs. It returns once the hold is in place and releases it when
// ctx is done.
func WithKeepAwake(fn func(ctx context.Context)) Option {
	return func(a *App, ro *[]recorder.Option) {
		a.keepAwake = fn
	}
}

// New creates the application from configuration. The API server is
// created, but not started, when enabled in cfg.
func New(cfgMgr *config.Manager, opts ...Option) *App {
	cfg := cfgMgr.Get()
	a := &App{
		cfg:           cfgMgr,
		watchDebounce: watcher.DefaultDebounce,
		keepAwake:     osutils.KeepAwake,
	}

	captureMouse := cfg.Recording.CaptureMouse
	ro := []recorder.Option{
		recorder.WithCaptureFactory(func() (input.Capture, error) {
			return input.NewCapture(captureMouse), nil
		}),
		recorder.WithNotifyInterval(time.Duration(cfg.General.NotifyIntervalMs) * time.Millisecond),
		recorder.WithDropTrailingClick(cfg.Recording.DropTrailingClick),
	}
	if cfg.General.DefaultSectionName != "" {
		ro = append(ro, recorder.WithDefaultSectionName(cfg.General.DefaultSectionName))
	}
	for _, opt := range opts {
		opt(a, &ro)
	}
	if a.hotkeyCapture == nil {
		a.hotkeyCapture = func() (input.Capture, error) { return input.NewCapture(false), nil }
	}

	a.core = recorder.New(ro...)
	if cfg.API.Enabled {
		a.api = api.NewServer(a.core, a, cfg.API.Token)
	}
	return a
}

// Core returns the recorder core for direct editing.
func (a *App) Core() *recorder.Core {
	return a.core
}

// API returns the API server, or nil when disabled.
func (a *App) API() *api.Server {
	return a.api
}

// OnPlaybackDone registers a callback for the end of each replay.
func (a *App) OnPlaybackDone(fn func(PlaybackResult)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onPlaybackDone = fn
}

// OnStateChanged registers a callback for recording or playback starting
// or stopping.
func (a *App) OnStateChanged(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onStateChanged = fn
}

// AddSink adds a receiver for core notifications. It must be called
// before Run.
func (a *App) AddSink(s recorder.Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.extraSinks = append(a.extraSinks, s)
}

func (a *App) stateChanged() {
	a.mu.Lock()
	fn := a.onStateChanged
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (a *App) macroPath() string {
	return a.cfg.Get().General.MacroPath
}

// StartRecording records into section.
func (a *App) StartRecording(section int) error {
	if err := a.core.StartRecording(section); err != nil {
		return err
	}
	if a.core.IsRecording() {
		a.broadcastRecording()
		a.stateChanged()
	}
	return nil
}

// StopRecording ends the active recording, if any.
func (a *App) StopRecording() {
	if !a.core.IsRecording() {
		return
	}
	a.core.StopRecording()
	a.broadcastRecording()
	a.stateChanged()
}

func (a *App) broadcastRecording() {
	if a.api == nil {
		return
	}
	a.api.BroadcastRecording(protocol.RecordingPayload{
		Active:  a.core.IsRecording(),
		Section: a.core.ActiveSection(),
		Session: a.core.SessionID(),
	})
}

// Play starts a replay in the background.
func (a *App) Play() error {
	_, err := a.StartPlayback()
	return err
}

// StartPlayback starts a replay in the background and returns a channel
// that receives its result. The interrupt hotkey is listened for while the
// replay runs.
func (a *App) StartPlayback() (<-chan PlaybackResult, error) {
	a.mu.Lock()
	if a.cancelPlay != nil {
		a.mu.Unlock()
		return nil, recorder.ErrAlreadyPlaying
	}
	if a.core.IsRecording() {
		a.mu.Unlock()
		return nil, ErrRecording
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelPlay = cancel
	a.mu.Unlock()

	var interrupted atomic.Bool
	stop := func() {
		interrupted.Store(true)
		cancel()
	}
	a.listenInterrupt(ctx, stop)
	if a.keepAwake != nil {
		a.keepAwake(ctx)
	}

	if a.api != nil {
		a.api.BroadcastPlayback(protocol.PlaybackPayload{State: protocol.PlaybackStarted})
	}
	a.stateChanged()

	results := make(chan PlaybackResult, 1)
	go func() {
		err := a.core.Play(ctx)
		cancel()

		result := PlaybackResult{}
		switch {
		case errors.Is(err, context.Canceled):
			result.Interrupted = true
		case err != nil:
			result.Err = err
		case interrupted.Load():
			result.Interrupted = true
		}

		a.mu.Lock()
		a.cancelPlay = nil
		done := a.onPlaybackDone
		a.mu.Unlock()

		if a.api != nil {
			p := protocol.PlaybackPayload{State: result.State()}
			if result.Err != nil {
				p.Error = result.Err.Error()
			}
			a.api.BroadcastPlayback(p)
		}
		if done != nil {
			done(result)
		}
		a.stateChanged()
		results <- result
	}()
	return results, nil
}

// InterruptHotkey returns the chord that stops a replay.
func (a *App) InterruptHotkey() string {
	return a.cfg.Get().General.InterruptHotkey
}

// listenInterrupt runs the interrupt hotkey listener until ctx is done.
func (a *App) listenInterrupt(ctx context.Context, stop func()) {
	chord := a.InterruptHotkey()
	if chord == "" {
		return
	}
	hk := hotkey.NewManager()
	if _, err := hk.Register(chord, stop); err != nil {
		log.Printf("App: invalid interrupt hotkey %q: %v", chord, err)
		return
	}
	capture, err := a.hotkeyCapture()
	if err != nil {
		log.Printf("App: interrupt hotkey unavailable: %v", err)
		return
	}
	go func() {
		if err := hk.Listen(ctx, capture); err != nil {
			log.Printf("App: interrupt hotkey unavailable: %v", err)
		}
	}()
}

// StopPlayback interrupts a running replay.
func (a *App) StopPlayback() {
	a.mu.Lock()
	cancel := a.cancelPlay
	a.mu.Unlock()
	if cancel != nil {
		log.Printf("App: stopping playback")
		cancel()
	}
}

// Save writes the macro to the configured macro file.
func (a *App) Save() error {
	return a.core.SaveFile(a.macroPath())
}

// Load replaces the macro with the configured macro file.
func (a *App) Load() error {
	return a.core.LoadFile(a.macroPath())
}

// Status summarizes the recorder.
func (a *App) Status() protocol.Status {
	snap := a.core.Snapshot()
	return protocol.Status{
		Recording:     a.core.IsRecording(),
		ActiveSection: a.core.ActiveSection(),
		Session:       a.core.SessionID(),
		Playing:       a.core.IsPlaying(),
		Sections:      len(snap.Sections),
		Steps:         snap.StepCount(),
		TotalMs:       snap.TotalDuration().Milliseconds(),
		MacroPath:     a.macroPath(),
	}
}

// reloadIfChanged loads path unless its content matches what was last
// saved or loaded, or a recording is running.
func (a *App) reloadIfChanged(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Watcher: read %s: %v", path, err)
		return
	}
	fp, err := macro.FingerprintBytes(data)
	if err != nil {
		log.Printf("Watcher: ignoring unparsable %s: %v", path, err)
		return
	}
	if fp == a.core.LastFingerprint() {
		return
	}
	if a.core.IsRecording() {
		log.Printf("Watcher: %s changed during recording, not reloading", path)
		return
	}
	if err := a.core.LoadFile(path); err != nil {
		log.Printf("Watcher: reload failed: %v", err)
		return
	}
	log.Printf("Watcher: reloaded %s", path)
}

// Run loads the macro file and serves notifications, the API and the file
// watcher until ctx is done. Recording and replay are stopped on return.
func (a *App) Run(ctx context.Context) error {
	cfg := a.cfg.Get()

	if err := a.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("App: %v", err)
	}

	a.mu.Lock()
	sinks := append(recorder.Sinks(nil), a.extraSinks...)
	a.mu.Unlock()

	var wg sync.WaitGroup

	if a.api != nil {
		sinks = append(sinks, a.api)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.api.Start(ctx, cfg.API.Port); err != nil {
				log.Printf("App: continuing without API server: %v", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.core.Notifier().Run(ctx, sinks)
	}()

	if cfg.General.WatchMacroFile && cfg.General.MacroPath != "" {
		w, err := watcher.New(cfg.General.MacroPath, a.reloadIfChanged, watcher.WithDebounce(a.watchDebounce))
		if err != nil {
			log.Printf("App: macro file watcher disabled: %v", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.Run(ctx)
			}()
		}
	}

	<-ctx.Done()

	a.StopPlayback()
	a.StopRecording()
	if a.api != nil {
		a.api.Close()
	}
	wg.Wait()
	return nil
}
