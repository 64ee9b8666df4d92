package engine

import (
	"context"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"ampsched/internal/actuator"
	"ampsched/internal/history"
	"ampsched/internal/store"
	logx "ampsched/pkg/logx"
)

// Config controls the engine service.
type Config struct {
	Enabled  bool
	Timezone string // IANA TZ, e.g. "Asia/Jakarta"

	TickInterval       time.Duration // default 1s
	ToleranceSec       int           // symmetric lookup window, default 1
	LeadTime           time.Duration // ON this long before start, default 2m
	TriggeredRetention time.Duration // dedup record lifetime, default 2m
	ReconcileEvery     time.Duration // periodic sweep, default 1m

	NoneRepeatDaily bool
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.ToleranceSec < 0 {
		c.ToleranceSec = 0
	}
	if c.ToleranceSec == 0 {
		c.ToleranceSec = 1
	}
	if c.LeadTime <= 0 {
		c.LeadTime = 2 * time.Minute
	}
	if c.TriggeredRetention <= 0 {
		c.TriggeredRetention = 2 * time.Minute
	}
	if c.ReconcileEvery <= 0 {
		c.ReconcileEvery = time.Minute
	}
	return c
}

// Service owns the temporal index, the triggered record, and the
// reconciliation loop. All shared state lives behind mu; the index is
// swapped wholesale, never patched in place.
type Service struct {
	cfg   Config
	log   logx.Logger
	clock Clock
	loc   *time.Location

	sched   *store.ScheduleStore
	watcher *store.Watcher
	gw      actuator.Gateway
	hist    history.Store

	mu        sync.Mutex
	idx       *temporalIndex
	triggered map[string]time.Time
	lastGC    time.Time

	rebuilding   atomic.Bool
	tickBusy     atomic.Bool
	reconcileReq chan struct{}

	lastReconcile   atomic.Int64 // unix milli
	reconcileTook   atomic.Int64 // micros
	droppedRebuilds atomic.Uint64

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	wg        sync.WaitGroup
	c         *cron.Cron
}

// Options carries the collaborators the engine consumes.
type Options struct {
	Store   *store.ScheduleStore
	Watcher *store.Watcher // optional; nil when store watching is off
	Gateway actuator.Gateway
	History history.Store // optional
	Clock   Clock         // optional; defaults to the system clock
}

func New(cfg Config, opts Options, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = cfg.withDefaults()
	clk := opts.Clock
	if clk == nil {
		clk = RealClock()
	}
	s := &Service{
		cfg:          cfg,
		log:          log,
		clock:        clk,
		loc:          loadLocation(cfg.Timezone, log),
		sched:        opts.Store,
		watcher:      opts.Watcher,
		gw:           opts.Gateway,
		hist:         opts.History,
		idx:          newTemporalIndex(),
		triggered:    map[string]time.Time{},
		reconcileReq: make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
	}
	if s.watcher != nil {
		s.watcher.OnChange(s.RequestReconcile)
	}
	return s
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

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Location returns the engine's trigger timezone.
func (s *Service) Location() *time.Location { return s.loc }

// Start launches the tick driver, the reconcile worker, and the periodic
// sweeps. Safe to call once; the initial reconcile runs before the first
// tick can observe an empty index for long.
func (s *Service) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.reconcile()

		s.wg.Add(2)
		go s.tickLoop(ctx)
		go s.reconcileLoop(ctx)

		s.c = cron.New(cron.WithLocation(s.loc))
		_, _ = s.c.AddFunc("@every "+s.cfg.ReconcileEvery.String(), s.RequestReconcile)
		// Nightly pass right after midnight so yesterday's occurrences are
		// swept even on a quiet box.
		_, _ = s.c.AddFunc("1 0 * * *", s.RequestReconcile)
		s.c.Start()

		s.log.Info("engine started",
			logx.String("tz", s.loc.String()),
			logx.Duration("tick", s.cfg.TickInterval),
			logx.Duration("lead", s.cfg.LeadTime),
			logx.Int("tolerance_sec", s.cfg.ToleranceSec))
	})
}

// Stop halts the periodic drivers. In-flight tick work self-terminates.
func (s *Service) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.c != nil {
			<-s.c.Stop().Done()
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
		}
		s.log.Info("engine stopped")
	})
}

func (s *Service) tickLoop(ctx context.Context) {
	defer s.wg.Done()
	t := time.NewTicker(s.cfg.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-t.C:
			// Ticks never overlap: if the previous tick's work is still
			// running, this beat is skipped, not queued.
			if !s.tickBusy.CompareAndSwap(false, true) {
				continue
			}
			s.safeTick(ctx)
			s.tickBusy.Store(false)
		}
	}
}

// safeTick survives any single tick's panic; the driver continues on the
// next beat.
func (s *Service) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in tick",
				logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()
	s.Tick(ctx, s.clock.Now())
}

func (s *Service) reconcileLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-s.reconcileReq:
			s.reconcile()
		}
	}
}

// RequestReconcile schedules a reconciliation pass. Requests coalesce: at
// most one is pending at a time.
func (s *Service) RequestReconcile() {
	select {
	case s.reconcileReq <- struct{}{}:
	default:
	}
}

// ForceReconcile runs a reconciliation synchronously. Used by the CRUD
// layer after direct store mutations performed outside the engine.
func (s *Service) ForceReconcile() {
	s.reconcile()
}
