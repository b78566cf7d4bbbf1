package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaizee-khan/shadow-ai-main/internal/dispatch"
	"github.com/shaizee-khan/shadow-ai-main/internal/parse"
	"github.com/shaizee-khan/shadow-ai-main/internal/storage"
	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

type Service struct {
	store  storage.Store
	parser *parse.Parser
	disp   *dispatch.Dispatcher
	log    logx.Logger

	mu        sync.Mutex
	cfg       Config
	pollSpec  PollSpec
	c         *cron.Cron
	prodStop  chan struct{}
	stopCh    chan struct{}
	started   bool
	stopped   bool
	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup

	tick chan struct{}

	// deferred timers, keyed by task id; versions guard against callbacks
	// from timers that were since replaced or cancelled
	tmu      sync.Mutex
	timers   map[int64]*time.Timer
	timerVer map[int64]uint64
	timerSeq atomic.Uint64

	smu        sync.Mutex
	lastScan   time.Time
	scanErrors uint64
	executed   uint64
}

// New builds the scheduler. parser may be nil, in which case natural-language
// requests fail softly with a structured result.
func New(store storage.Store, parser *parse.Parser, disp *dispatch.Dispatcher, cfg Config, log logx.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("scheduler: store is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if disp == nil {
		disp = dispatch.New(log)
	}
	spec, err := ParsePollSpec(cfg.Poll)
	if err != nil {
		return nil, err
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = defaultErrorBackoff
	}
	return &Service{
		store:    store,
		parser:   parser,
		disp:     disp,
		log:      log,
		cfg:      cfg,
		pollSpec: spec,
		tick:     make(chan struct{}, 1),
		timers:   map[int64]*time.Timer{},
		timerVer: map[int64]uint64{},
	}, nil
}

// Start begins background work: the poll producer, the scan loop, and timer
// rebuild for short-horizon rows. It may be called once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.runCtx, s.runCancel = context.WithCancel(context.Background())
	if err := s.startProducerLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.wg.Add(1)
	go s.scanLoop()
	poll := s.pollSpec.Raw
	s.mu.Unlock()

	// Catch up right away: due rows persisted before a restart must not wait
	// out a full poll interval, and short-horizon rows get their timers back.
	s.rebuildTimers(ctx)
	s.kick()

	s.log.Info("scheduler started", logx.String("poll", poll))
	return nil
}

// Stop halts background work within the bound of ctx. Persisted Active rows
// are left untouched; they are re-discovered on the next Start.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.stopCh)
	s.stopProducerLocked()
	cancel := s.runCancel
	s.mu.Unlock()

	s.clearAllTimers()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		cancel()
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
	cancel()
	s.log.Info("scheduler stopped")
	return nil
}

// Apply updates the runtime knobs; a changed poll cadence restarts the
// producer. Safe to call while running.
func (s *Service) Apply(cfg Config) error {
	spec, err := ParsePollSpec(cfg.Poll)
	if err != nil {
		return err
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = defaultErrorBackoff
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.pollSpec
	s.cfg = cfg
	s.pollSpec = spec
	if !s.started || s.stopped || spec == old {
		return nil
	}
	s.stopProducerLocked()
	if err := s.startProducerLocked(); err != nil {
		return err
	}
	s.log.Info("poll cadence changed", logx.String("poll", spec.Raw))
	return nil
}

// Snapshot reports diagnostic state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	running := s.started && !s.stopped
	poll := s.pollSpec.Raw
	s.mu.Unlock()

	s.tmu.Lock()
	timers := len(s.timers)
	s.tmu.Unlock()

	s.smu.Lock()
	defer s.smu.Unlock()
	return Snapshot{
		Running:        running,
		Poll:           poll,
		DeferredTimers: timers,
		LastScan:       s.lastScan,
		ScanErrors:     s.scanErrors,
		Executed:       s.executed,
	}
}

// ---- poll producer ----

// startProducerLocked arms the tick source for the current poll spec.
// Call with s.mu held.
func (s *Service) startProducerLocked() error {
	s.prodStop = make(chan struct{})
	switch s.pollSpec.Kind {
	case SpecCron:
		c := cron.New(cron.WithParser(pollParser))
		if _, err := c.AddFunc(s.pollSpec.Raw, s.kick); err != nil {
			return fmt.Errorf("register poll spec: %w", err)
		}
		s.c = c
		c.Start()
	default:
		stop := s.prodStop
		stopCh := s.stopCh
		every := s.pollSpec.Every
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			tk := time.NewTicker(every)
			defer tk.Stop()
			for {
				select {
				case <-stop:
					return
				case <-stopCh:
					return
				case <-tk.C:
					s.kick()
				}
			}
		}()
	}
	return nil
}

// stopProducerLocked tears down the tick source. Call with s.mu held.
func (s *Service) stopProducerLocked() {
	if s.prodStop != nil {
		close(s.prodStop)
		s.prodStop = nil
	}
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
}

// kick requests a scan without blocking; a pending request is enough.
func (s *Service) kick() {
	select {
	case s.tick <- struct{}{}:
	default:
	}
}

func (s *Service) scanLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.tick:
			if err := s.scan(s.runCtx); err != nil {
				s.log.Error("poll scan failed", logx.Err(err))
				s.smu.Lock()
				s.scanErrors++
				s.smu.Unlock()
				// back off before honoring further ticks; the loop itself
				// never dies on an iteration error
				select {
				case <-s.stopCh:
					return
				case <-time.After(s.errorBackoff()):
				}
			}
		}
	}
}

func (s *Service) scan(ctx context.Context) error {
	now := time.Now()
	due, err := s.store.Pending(ctx, now)
	if err != nil {
		return fmt.Errorf("pending scan: %w", err)
	}
	for _, t := range due {
		select {
		case <-s.stopCh:
			return nil
		default:
		}
		s.execute(ctx, t)
	}
	s.smu.Lock()
	s.lastScan = now
	s.smu.Unlock()
	return nil
}

func (s *Service) errorBackoff() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.ErrorBackoff
}

// ---- execution ----

// execute claims one pending task and runs it through dispatch. The claim is
// a conditional store transition, so a task reached by both a deferred timer
// and a poll cycle still fires once.
func (s *Service) execute(ctx context.Context, t *storage.Task) {
	claimed, err := s.store.MarkActive(ctx, t.ID)
	if err != nil {
		s.log.Error("task claim failed", logx.Int64("id", t.ID), logx.Err(err))
		return
	}
	if !claimed {
		// cancelled, or another path got there first
		return
	}
	s.clearTimer(t.ID)
	t.Status = storage.StatusActive

	s.log.Info("executing task",
		logx.Int64("id", t.ID),
		logx.String("type", string(t.Type)),
		logx.String("title", t.Title))

	dctx := ctx
	var cancel context.CancelFunc
	if d := s.dispatchTimeout(); d > 0 {
		dctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	if err := s.disp.Dispatch(dctx, t.Clone()); err != nil {
		s.log.Error("task dispatch failed", logx.Int64("id", t.ID), logx.Err(err))
		if uerr := s.store.UpdateStatus(ctx, t.ID, storage.StatusFailed); uerr != nil {
			s.log.Error("failed-status write failed", logx.Int64("id", t.ID), logx.Err(uerr))
		}
		return
	}

	if uerr := s.store.UpdateStatus(ctx, t.ID, storage.StatusCompleted); uerr != nil {
		s.log.Error("completed-status write failed", logx.Int64("id", t.ID), logx.Err(uerr))
		return
	}
	s.smu.Lock()
	s.executed++
	s.smu.Unlock()

	s.spawnSuccessor(ctx, t)
}

// spawnSuccessor persists the next occurrence of a recurring task. The
// completed row is never rescheduled in place.
func (s *Service) spawnSuccessor(ctx context.Context, t *storage.Task) {
	next, ok := t.Recurrence.Next(t.ScheduledAt)
	if !ok {
		return
	}
	nt := t.Clone()
	nt.ID = 0
	nt.ScheduledAt = next
	nt.CreatedAt = time.Now()
	nt.Status = storage.StatusPending

	id, err := s.store.Save(ctx, nt)
	if err != nil {
		s.log.Error("recurrence save failed",
			logx.Int64("completed_id", t.ID),
			logx.String("recurrence", string(t.Recurrence)),
			logx.Err(err))
		return
	}
	s.log.Info("recurring task rescheduled",
		logx.Int64("id", id),
		logx.Time("at", next),
		logx.String("recurrence", string(t.Recurrence)))
	s.maybeDefer(nt)
}

func (s *Service) dispatchTimeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.DispatchTimeout
}

// ---- deferred timers ----

func (s *Service) timerHorizon() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.TimerHorizon > 0 {
		return s.cfg.TimerHorizon
	}
	return s.pollSpec.horizon()
}

// maybeDefer arms a precise timer for a task due before the next poll tick.
func (s *Service) maybeDefer(t *storage.Task) {
	s.mu.Lock()
	running := s.started && !s.stopped
	s.mu.Unlock()
	if !running {
		return
	}

	delay := time.Until(t.ScheduledAt)
	if delay <= 0 || delay > s.timerHorizon() {
		return
	}

	id := t.ID
	ver := s.timerSeq.Add(1)
	s.tmu.Lock()
	if old, ok := s.timers[id]; ok {
		old.Stop()
	}
	s.timerVer[id] = ver
	s.timers[id] = time.AfterFunc(delay, func() { s.timerFired(id, ver) })
	s.tmu.Unlock()

	s.log.Debug("deferred timer armed", logx.Int64("id", id), logx.Duration("delay", delay))
}

func (s *Service) timerFired(id int64, ver uint64) {
	s.tmu.Lock()
	if s.timerVer[id] != ver {
		s.tmu.Unlock()
		return
	}
	delete(s.timers, id)
	delete(s.timerVer, id)
	s.tmu.Unlock()

	s.mu.Lock()
	stopCh := s.stopCh
	ctx := s.runCtx
	stopped := s.stopped
	s.mu.Unlock()
	if stopped || stopCh == nil {
		return
	}

	// Timers are never authoritative: re-read the row and only run work the
	// store still considers pending.
	t, err := s.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("deferred timer lookup failed", logx.Int64("id", id), logx.Err(err))
		}
		return
	}
	if t.Status != storage.StatusPending {
		return
	}
	s.execute(ctx, t)
}

func (s *Service) clearTimer(id int64) {
	s.tmu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	delete(s.timerVer, id)
	s.tmu.Unlock()
}

func (s *Service) clearAllTimers() {
	s.tmu.Lock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
		delete(s.timerVer, id)
	}
	s.tmu.Unlock()
}

// rebuildTimers re-arms deferred timers for short-horizon pending rows.
func (s *Service) rebuildTimers(ctx context.Context) {
	now := time.Now()
	soon, err := s.store.Pending(ctx, now.Add(s.timerHorizon()))
	if err != nil {
		s.log.Warn("timer rebuild scan failed", logx.Err(err))
		return
	}
	for _, t := range soon {
		if t.ScheduledAt.After(now) {
			s.maybeDefer(t)
		}
	}
}
