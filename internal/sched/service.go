package sched

import (
	"context"
	"strings"
	"sync"
	"time"

	logx "flowcron/pkg/logx"
)

type Config struct {
	Enabled      bool
	Timezone     string        // IANA TZ, e.g. "Asia/Jakarta"; empty = local
	TickInterval time.Duration // 0 = one minute
}

// Service runs a Driver on an interval-aligned ticker. Ticks line up with
// wall-clock minute boundaries so minute keys are stable across restarts.
type Service struct {
	mu  sync.Mutex
	cfg Config
	loc *time.Location

	log    logx.Logger
	driver *Driver

	stopCh chan struct{}
	done   chan struct{}
}

func NewService(cfg Config, store Store, exec Executor, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{cfg: cfg, log: log}
	s.loc = loadLocation(cfg.Timezone, log)

	d := NewDriver(store, exec, log)
	d.now = func() time.Time { return time.Now().In(s.location()) }
	s.driver = d
	return s
}

// Driver exposes the underlying driver for manual ticks (tests, admin
// tooling).
func (s *Service) Driver() *Driver { return s.driver }

// Apply updates the runtime config. Enable/disable and timezone changes take
// effect on the next tick; no restart is needed because every tick reads the
// config fresh.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oldTZ := strings.TrimSpace(s.cfg.Timezone)
	newTZ := strings.TrimSpace(cfg.Timezone)
	s.cfg = cfg
	if oldTZ != newTZ {
		s.loc = loadLocation(newTZ, s.log)
	}
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	// TickInterval is fixed for the lifetime of the loop; Apply only changes
	// Enabled and Timezone.
	interval := s.intervalLocked()
	go s.run(ctx, s.stopCh, s.done, interval)
	s.log.Info("scheduler started",
		logx.Duration("interval", interval),
		logx.String("tz", s.loc.String()))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	stop, done := s.stopCh, s.done
	s.stopCh = nil
	s.done = nil
	s.mu.Unlock()

	close(stop)
	select {
	case <-done:
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}

func (s *Service) run(ctx context.Context, stopCh, done chan struct{}, interval time.Duration) {
	defer close(done)

	timer := time.NewTimer(untilNextBoundary(time.Now(), interval))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-timer.C:
		}

		if s.enabled() {
			rep, err := s.driver.Tick(ctx)
			if err != nil {
				s.log.Error("tick failed", logx.Err(err))
			} else {
				s.log.Debug("tick",
					logx.String("minute_key", rep.MinuteKey),
					logx.Int("evaluated", rep.Evaluated),
					logx.Int("completed", rep.Completed),
					logx.Int("failed", rep.Failed),
					logx.Int("deduped", rep.Deduped),
					logx.Int("skipped", rep.Skipped))
			}
		}

		timer.Reset(untilNextBoundary(time.Now(), interval))
	}
}

func (s *Service) enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

func (s *Service) intervalLocked() time.Duration {
	if s.cfg.TickInterval > 0 {
		return s.cfg.TickInterval
	}
	return time.Minute
}

func (s *Service) location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc
}

// untilNextBoundary returns the wait until the next interval boundary, with
// a small floor so a tick that lands exactly on the boundary doesn't spin.
func untilNextBoundary(now time.Time, interval time.Duration) time.Duration {
	d := time.Until(now.Truncate(interval).Add(interval))
	if d < time.Millisecond {
		d = interval
	}
	return d
}

func loadLocation(tz string, log logx.Logger) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("invalid timezone, falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}
