package scene

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler registers a cron entry for every scene carrying a non-empty
// cron_expr, invoking Execute on that schedule. A still-running invocation
// is never re-entered: the next tick is skipped with a logged warning
// rather than queued, since overlapping scene executions would contend
// over the same nodes.
type Scheduler struct {
	logger   *slog.Logger
	executor *Executor
	cron     *cron.Cron
}

// NewScheduler creates a Scheduler bound to executor.
func NewScheduler(logger *slog.Logger, executor *Executor) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger:   logger.With(slog.String("component", "scene_scheduler")),
		executor: executor,
		cron:     cron.New(),
	}
}

// Build registers every configured cron scene. Called once before Start.
func (s *Scheduler) Build() error {
	for _, name := range s.executor.Names() {
		cfg, ok := s.executor.Config(name)
		if !ok || cfg.CronExpr == "" {
			continue
		}
		sceneName := name
		_, err := s.cron.AddFunc(cfg.CronExpr, func() {
			s.trigger(sceneName)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) trigger(name string) {
	if !s.executor.TryBeginRun(name) {
		s.logger.Warn("skipping cron trigger, scene still running", slog.String("scene", name))
		return
	}
	defer s.executor.EndRun(name)

	if err := s.executor.Execute(context.Background(), name); err != nil {
		s.logger.Warn("cron-triggered scene finished with errors", slog.String("scene", name), slog.Any("error", err))
	}
}

// Start begins the cron scheduler's internal goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Shutdown stops the cron scheduler, waiting for any in-flight entry's
// trigger callback to return.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
