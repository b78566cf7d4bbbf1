// Package app wires configuration, logging, storage, parsing and the
// scheduler into a single runnable daemon.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shaizee-khan/shadow-ai-main/internal/config"
	"github.com/shaizee-khan/shadow-ai-main/internal/dispatch"
	"github.com/shaizee-khan/shadow-ai-main/internal/parse"
	"github.com/shaizee-khan/shadow-ai-main/internal/reasoning"
	"github.com/shaizee-khan/shadow-ai-main/internal/scheduler"
	"github.com/shaizee-khan/shadow-ai-main/internal/storage"
	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

type App struct {
	cfgPath string

	log  logx.Logger
	logs *logx.Service

	store  storage.Store
	disp   *dispatch.Dispatcher
	parser *parse.Parser
	sched  *scheduler.Service

	watchCancel context.CancelFunc
	stopOnce    sync.Once
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(cfg.Logging.Logx())
	log = log.With(logx.String("comp", "app"))

	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	disp := dispatch.New(log.With(logx.String("comp", "dispatch")))

	parser, err := buildParser(cfg.Parser, log)
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	schedCfg, err := schedulerConfig(cfg.Scheduler)
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}
	sched, err := scheduler.New(store, parser, disp, schedCfg,
		log.With(logx.String("comp", "scheduler")))
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	return &App{
		cfgPath: cfgPath,
		log:     log,
		logs:    logSvc,
		store:   store,
		disp:    disp,
		parser:  parser,
		sched:   sched,
	}, nil
}

// Scheduler exposes the task operations for callers registering handlers or
// scheduling work.
func (a *App) Scheduler() *scheduler.Service { return a.sched }

func (a *App) Start(ctx context.Context) error {
	if err := a.sched.Start(ctx); err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	a.watchCancel = cancel
	if err := config.Watch(watchCtx, a.cfgPath, a.log.With(logx.String("comp", "config")), a.applyConfig); err != nil {
		// Hot reload is best effort; a broken watcher never blocks startup.
		a.log.Warn("config watch unavailable", logx.Err(err))
	}

	a.log.Info("app started")
	return nil
}

// applyConfig hot-applies a validated reload. Storage changes require a
// restart and are ignored here.
func (a *App) applyConfig(cfg *config.Config) {
	a.logs.Apply(cfg.Logging.Logx())

	schedCfg, err := schedulerConfig(cfg.Scheduler)
	if err != nil {
		a.log.Warn("reload: bad scheduler config; keeping current", logx.Err(err))
		return
	}
	if err := a.sched.Apply(schedCfg); err != nil {
		a.log.Warn("reload: scheduler apply failed", logx.Err(err))
		return
	}
	a.log.Info("config reloaded")
}

func (a *App) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.log.Info("stopping")

		if a.watchCancel != nil {
			a.watchCancel()
		}

		a.step(ctx, "scheduler", 3*time.Second, func(c context.Context) error {
			return a.sched.Stop(c)
		})
		a.step(ctx, "storage", 2*time.Second, func(context.Context) error {
			return a.store.Close()
		})

		a.log.Info("stopped")
		_ = a.logs.Close()
	})
	return nil
}

// step runs one shutdown stage with an upper bound so a stalled component
// cannot block the whole stop.
func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	stepCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			return
		}
		a.log.Debug("stop step done", logx.String("name", name),
			logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Duration("elapsed", time.Since(start)))
	}
}

func schedulerConfig(c config.SchedulerConfig) (scheduler.Config, error) {
	backoff, err := config.ParseDurationField("scheduler.error_backoff", c.ErrorBackoff)
	if err != nil {
		return scheduler.Config{}, err
	}
	horizon, err := config.ParseDurationField("scheduler.timer_horizon", c.TimerHorizon)
	if err != nil {
		return scheduler.Config{}, err
	}
	dispatchTimeout, err := config.ParseDurationField("scheduler.dispatch_timeout", c.DispatchTimeout)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{
		Poll:            c.Poll,
		ErrorBackoff:    backoff,
		TimerHorizon:    horizon,
		DispatchTimeout: dispatchTimeout,
	}, nil
}

func buildParser(c config.ParserConfig, log logx.Logger) (*parse.Parser, error) {
	strategies := make([]parse.Strategy, 0, 2)

	if c.AI.Enabled {
		timeout, err := config.ParseDurationField("parser.ai.timeout", c.AI.Timeout)
		if err != nil {
			return nil, err
		}
		client, err := reasoning.New(reasoning.Config{
			BaseURL: c.AI.BaseURL,
			APIKey:  c.AI.APIKey,
			Model:   c.AI.Model,
			Timeout: timeout,
		}, log.With(logx.String("comp", "reasoning")))
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, parse.NewAI(client, parse.AIConfig{
			Timeout:    timeout,
			RatePerSec: c.AI.RatePerSec,
		}, log.With(logx.String("comp", "parse.ai"))))
	}

	strategies = append(strategies,
		parse.NewPattern(c.DefaultLanguage, log.With(logx.String("comp", "parse.pattern"))))

	return parse.New(log.With(logx.String("comp", "parse")), strategies...), nil
}
