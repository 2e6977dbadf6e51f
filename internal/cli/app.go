package cli

import (
	"macrorec/internal/app"
	"macrorec/internal/config"
)

type configLoader func() (*config.Manager, error)

// appOptions converts the backend overrides into app options.
func (o Options) appOptions() []app.Option {
	var opts []app.Option
	if o.Capture != nil {
		opts = append(opts, app.WithCaptureFactory(o.Capture))
	}
	if o.HotkeyCapture != nil {
		opts = append(opts, app.WithHotkeyCapture(o.HotkeyCapture))
	}
	if o.Injector != nil {
		opts = append(opts, app.WithInjector(o.Injector))
	}
	return opts
}

// headlessApp builds an app bound to file with the API server and the file
// watcher off.
func headlessApp(load configLoader, file string, o Options) (*app.App, error) {
	mgr, err := load()
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()
	cfg.General.MacroPath = file
	cfg.General.WatchMacroFile = false
	cfg.API.Enabled = false
	mgr.Set(cfg)
	return app.New(mgr, o.appOptions()...), nil
}
