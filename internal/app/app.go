// Package app wires config, logging, the flow store, the execution engine
// and the scheduler into one lifecycle.
package app

import (
	"context"
	"sync"

	"flowcron/internal/config"
	"flowcron/internal/exec"
	"flowcron/internal/sched"
	"flowcron/internal/store"
	logx "flowcron/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log      logx.Logger
	logClose func() error

	store  store.Store
	engine *exec.Engine
	sched  *sched.Service

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	bg      sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	log, logClose, err := logx.New(logx.Config{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
		File: logx.FileConfig{
			Enabled: cfg.Log.File.Enabled,
			Path:    cfg.Log.File.Path,
		},
	})
	if err != nil {
		return nil, err
	}
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	st, err := store.Open(store.Config{
		Backend:     cfg.Store.Backend,
		Path:        cfg.Store.Path,
		BusyTimeout: cfg.Store.BusyTimeout(),
	}, log.With(logx.String("comp", "store")))
	if err != nil {
		_ = logClose()
		return nil, err
	}

	engine := exec.New(exec.Config{
		Timeout:     cfg.Exec.Timeout(),
		RatePerSec:  cfg.Exec.RatePerSec,
		HistorySize: cfg.Exec.HistorySize,
	}, log.With(logx.String("comp", "exec")))

	schedSvc := sched.NewService(sched.Config{
		Enabled:      cfg.Scheduler.Enabled,
		Timezone:     cfg.Scheduler.Timezone,
		TickInterval: cfg.Scheduler.TickInterval(),
	}, st, engine, log.With(logx.String("comp", "sched")))

	return &App{
		cfgm:     cfgm,
		log:      log.With(logx.String("comp", "app")),
		logClose: logClose,
		store:    st,
		engine:   engine,
		sched:    schedSvc,
	}, nil
}

// Engine exposes the action registry so the host can register actions before
// Start.
func (a *App) Engine() *exec.Engine { return a.engine }

// Store exposes the flow store for host-side flow management.
func (a *App) Store() store.Store { return a.store }

// Logger returns the app-scoped logger.
func (a *App) Logger() logx.Logger { return a.log }

func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	a.started = true

	bgCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	// Config hot reload: watch the file and apply scheduler changes live.
	updates := a.cfgm.Subscribe(1)
	a.bg.Add(2)
	go func() {
		defer a.bg.Done()
		_ = a.cfgm.Watch(bgCtx)
	}()
	go func() {
		defer a.bg.Done()
		for {
			select {
			case <-bgCtx.Done():
				return
			case cfg, ok := <-updates:
				if !ok {
					return
				}
				if cfg == nil {
					continue
				}
				a.sched.Apply(sched.Config{
					Enabled:      cfg.Scheduler.Enabled,
					Timezone:     cfg.Scheduler.Timezone,
					TickInterval: cfg.Scheduler.TickInterval(),
				})
				a.log.Info("scheduler config applied",
					logx.Bool("enabled", cfg.Scheduler.Enabled),
					logx.String("tz", cfg.Scheduler.Timezone))
			}
		}
	}()

	a.sched.Start(bgCtx)
	a.log.Info("app started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return nil
	}
	a.started = false

	a.sched.Stop(ctx)
	if a.cancel != nil {
		a.cancel()
	}
	a.bg.Wait()

	err := a.store.Close()
	if a.logClose != nil {
		_ = a.logClose()
	}
	return err
}
