package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wenchangshou/devicectl/internal/dependency"
	"github.com/wenchangshou/devicectl/internal/event"
	"github.com/wenchangshou/devicectl/internal/node"
	"github.com/wenchangshou/devicectl/internal/protocol"
)

// Resolver is the subset of dependency.Resolver the scheduler needs to
// re-check a deferred task's readiness.
type Resolver interface {
	Resolve(ctx context.Context, id node.ID, value protocol.Value, strategy dependency.Strategy) (dependency.Outcome, error)
}

// Writer dispatches an already-ready write to its channel and updates node
// state. Implemented by the controller facade.
type Writer interface {
	Dispatch(ctx context.Context, id node.ID, value protocol.Value) error
}

// Scheduler is the single background worker draining the deferred-task
// queue at a fixed tick. It is single-threaded by design: concurrent ticks
// would race on predicate evaluation against the same node state.
type Scheduler struct {
	logger     *slog.Logger
	bus        *event.Bus
	resolver   Resolver
	writer     Writer
	tick       time.Duration
	timeout    time.Duration
	maxRetries int

	mu    sync.Mutex
	queue []Task

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Scheduler with default tick (500ms), timeout (5s), and
// max_retries (3).
func New(logger *slog.Logger, bus *event.Bus, resolver Resolver, writer Writer) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger:     logger.With(slog.String("component", "task_scheduler")),
		bus:        bus,
		resolver:   resolver,
		writer:     writer,
		tick:       defaultTick,
		timeout:    defaultTimeout,
		maxRetries: defaultMaxRetries,
	}
}

// SetWriter binds the dispatch writer after construction, for the common
// case where the writer (the controller facade) itself depends on the
// scheduler.
func (s *Scheduler) SetWriter(writer Writer) {
	s.writer = writer
}

// Enqueue appends a deferred task to the FIFO queue and returns its ID. The
// scheduler never dedupes tasks targeting the same global_id.
func (s *Scheduler) Enqueue(id node.ID, value protocol.Value) string {
	task := newTask(id, value)
	s.mu.Lock()
	s.queue = append(s.queue, task)
	s.mu.Unlock()
	return task.TaskID
}

// Start launches the background worker. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(workerCtx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drainOnce(ctx)
		}
	}
}

// drainOnce processes every task present in the queue at the moment it is
// called, exactly once each, per spec.md's per-tick drain semantics.
func (s *Scheduler) drainOnce(ctx context.Context) {
	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()

	var requeue []Task
	for _, task := range pending {
		done, keep := s.step(ctx, task)
		if !done && keep {
			requeue = append(requeue, incrementAttempts(task))
		}
	}

	if len(requeue) > 0 {
		s.mu.Lock()
		s.queue = append(requeue, s.queue...)
		s.mu.Unlock()
	}
}

func incrementAttempts(t Task) Task {
	t.Attempts++
	return t
}

// step evaluates one task. done=true means the task was terminated (either
// dispatched successfully or dropped); keep is only consulted when
// done=false and tells the caller whether to re-enqueue with attempts++.
//
// TaskCompleted.Reason is a closed set: Timeout, Exhausted, Shutdown,
// DependencyCycle. A cycle is the one resolver failure that is terminal
// and reported as such; every other resolver or dispatch failure is
// logged and treated as not-yet-ready, so the task keeps retrying until
// it ages out (Timeout) or exhausts its retries (Exhausted) rather than
// completing under a reason outside that set.
func (s *Scheduler) step(ctx context.Context, task Task) (done bool, keep bool) {
	outcome, err := s.resolver.Resolve(ctx, task.GlobalID, task.Value, dependency.StrategyEnforce)
	if err != nil {
		var resolverErr *dependency.ResolverError
		if errors.As(err, &resolverErr) && resolverErr.Kind == dependency.ErrorCycle {
			s.complete(task, false, "DependencyCycle")
			return true, false
		}
		if s.logger != nil {
			s.logger.Warn("deferred task resolve failed, will retry",
				slog.String("task_id", task.TaskID),
				slog.Any("error", err),
			)
		}
		return s.retryOrDrop(task)
	}

	if outcome.Result == dependency.ResolvedReady {
		if err := s.writer.Dispatch(ctx, task.GlobalID, task.Value); err != nil {
			if s.logger != nil {
				s.logger.Warn("deferred task dispatch failed, will retry",
					slog.String("task_id", task.TaskID),
					slog.Any("error", err),
				)
			}
			return s.retryOrDrop(task)
		}
		s.complete(task, true, "")
		return true, false
	}

	return s.retryOrDrop(task)
}

// retryOrDrop applies the timeout/max_retries bounds shared by every
// retriable outcome (unmet predicates, non-cycle resolver errors, dispatch
// failures).
func (s *Scheduler) retryOrDrop(task Task) (done bool, keep bool) {
	if time.Since(task.CreatedAt) >= s.timeout {
		s.complete(task, false, "Timeout")
		return true, false
	}
	if task.Attempts >= s.maxRetries {
		s.complete(task, false, "Exhausted")
		return true, false
	}
	return false, true
}

func (s *Scheduler) complete(task Task, success bool, reason string) {
	if s.bus != nil {
		s.bus.Publish(event.TaskCompleted{TaskID: task.TaskID, Success: success, Reason: reason})
	}
	if s.logger != nil && !success {
		s.logger.Warn("deferred task dropped",
			slog.String("task_id", task.TaskID),
			slog.Int64("global_id", int64(task.GlobalID)),
			slog.String("reason", reason),
			slog.Int("attempts", task.Attempts),
		)
	}
}

// Shutdown stops the worker, waits for the in-flight tick (if any) to
// finish, then drops every task still outstanding in the queue, emitting
// TaskCompleted{success=false, reason=Shutdown} for each.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()
	for _, task := range pending {
		s.complete(task, false, "Shutdown")
	}
	return nil
}

// QueueLen reports the current queue depth, used by tests.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
