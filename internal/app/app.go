// Package app assembles the controller: config, logging, stores, actuator,
// history, the occurrence engine, and the HTTP surface, all running under
// one supervisor.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"ampsched/internal/actuator"
	"ampsched/internal/api"
	"ampsched/internal/config"
	"ampsched/internal/engine"
	"ampsched/internal/history"
	"ampsched/internal/runtime/supervisor"
	"ampsched/internal/store"
	logx "ampsched/pkg/logx"
)

type App struct {
	cfg *config.Config

	logs *logx.Service
	log  logx.Logger

	sched   *store.ScheduleStore
	tracks  *store.TrackStore
	watcher *store.Watcher
	gw      actuator.Gateway
	hist    history.Store
	eng     *engine.Service
	http    *api.Server

	sup *supervisor.Supervisor
}

// New loads the config file and wires every component. Nothing runs until
// Start.
func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, root := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	a := &App{cfg: cfg, logs: logs, log: root.With(logx.String("component", "app"))}
	if err := a.wire(); err != nil {
		_ = logs.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire() error {
	cfg := a.cfg
	root := a.logs.Logger()

	a.sched = store.NewScheduleStore(cfg.Store.SchedulesFile, root.With(logx.String("component", "store")))
	a.tracks = store.NewTrackStore(cfg.Store.SongsFile, cfg.Store.SongsDir, root.With(logx.String("component", "tracks")))

	debounce, err := config.ParseDurationOrDefault("store.watch_debounce", cfg.Store.WatchDebounce, 500*time.Millisecond)
	if err != nil {
		return err
	}
	a.watcher = store.NewWatcher(a.sched, debounce, root.With(logx.String("component", "watch")))

	sendTimeout, err := config.ParseDurationOrDefault("actuator.send_timeout", cfg.Actuator.SendTimeout, 2*time.Second)
	if err != nil {
		return err
	}
	a.gw, err = actuator.Open(actuator.Config{
		Driver:      cfg.Actuator.Driver,
		SerialPort:  cfg.Actuator.Serial.Port,
		BaudRate:    cfg.Actuator.Serial.BaudRate,
		GPIOPin:     cfg.Actuator.GPIO.Pin,
		ActiveLow:   cfg.Actuator.GPIO.ActiveLow,
		RatePerSec:  cfg.Actuator.RatePerSec,
		Burst:       cfg.Actuator.Burst,
		SendTimeout: sendTimeout,
	}, root.With(logx.String("component", "actuator")))
	if err != nil {
		return fmt.Errorf("open actuator: %w", err)
	}

	if cfg.History != nil {
		busy, err := config.ParseDurationOrDefault("history.busy_timeout", cfg.History.BusyTimeout, 0)
		if err != nil {
			return err
		}
		path := cfg.History.Path
		if path == "" {
			path = filepath.Join(cfg.Store.Dir, "triggers.log")
		}
		a.hist, err = history.Open(history.Config{
			Driver:      cfg.History.Driver,
			Path:        path,
			BusyTimeout: busy,
		}, root.With(logx.String("component", "history")))
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
	}

	engCfg, err := engineConfig(cfg.Engine)
	if err != nil {
		return err
	}
	a.eng = engine.New(engCfg, engine.Options{
		Store:   a.sched,
		Watcher: a.watcher,
		Gateway: a.gw,
		History: a.hist,
	}, root.With(logx.String("component", "engine")))

	if cfg.HTTP.Enabled {
		rt, err := config.ParseDurationOrDefault("http.read_timeout", cfg.HTTP.ReadTimeout, 0)
		if err != nil {
			return err
		}
		wt, err := config.ParseDurationOrDefault("http.write_timeout", cfg.HTTP.WriteTimeout, 0)
		if err != nil {
			return err
		}
		a.http = api.New(api.Options{
			Addr:         cfg.HTTP.Addr,
			ReadTimeout:  rt,
			WriteTimeout: wt,
			Engine:       a.eng,
			Tracks:       a.tracks,
			Gateway:      a.gw,
			History:      a.hist,
		}, root.With(logx.String("component", "http")))
	}

	return nil
}

func engineConfig(raw config.EngineConfig) (engine.Config, error) {
	tick, err := config.ParseDurationOrDefault("engine.tick_interval", raw.TickInterval, 0)
	if err != nil {
		return engine.Config{}, err
	}
	lead, err := config.ParseDurationOrDefault("engine.lead_time", raw.LeadTime, 0)
	if err != nil {
		return engine.Config{}, err
	}
	retention, err := config.ParseDurationOrDefault("engine.triggered_retention", raw.TriggeredRetention, 0)
	if err != nil {
		return engine.Config{}, err
	}
	every, err := config.ParseDurationOrDefault("engine.reconcile_every", raw.ReconcileEvery, 0)
	if err != nil {
		return engine.Config{}, err
	}

	cfg := engine.Config{
		Enabled:            raw.Enabled == nil || *raw.Enabled,
		Timezone:           raw.Timezone,
		TickInterval:       tick,
		ToleranceSec:       raw.ToleranceSec,
		LeadTime:           lead,
		TriggeredRetention: retention,
		ReconcileEvery:     every,
		NoneRepeatDaily:    raw.NoneRepeatDaily == nil || *raw.NoneRepeatDaily,
	}
	return cfg, nil
}

// Start launches the engine, the store watcher, and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.logs.Logger().With(logx.String("component", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)

	if a.eng.Enabled() {
		a.eng.Start(a.sup.Context())
		a.sup.GoRestart("store.watch", a.watcher.Run)
	} else {
		a.log.Warn("engine disabled by config; schedules will not trigger")
	}

	if a.http != nil {
		a.sup.GoRestart("http.serve", a.http.Serve)
	}

	a.log.Info("controller started",
		logx.String("schedules", a.sched.Path()),
		logx.String("actuator", a.cfg.Actuator.Driver))
	return nil
}

// Stop shuts everything down in dependency order, bounded by ctx.
func (a *App) Stop(ctx context.Context) error {
	if a.sup != nil {
		_ = a.sup.Stop(ctx)
	}
	a.eng.Stop(ctx)

	if a.hist != nil {
		_ = a.hist.Close()
	}
	if a.gw != nil {
		_ = a.gw.Close()
	}
	a.log.Info("controller stopped")
	return a.logs.Close()
}

// Supervisor exposes the runtime supervisor for diagnostics.
func (a *App) Supervisor() *supervisor.Supervisor { return a.sup }
