package scene

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wenchangshou/devicectl/internal/dependency"
	"github.com/wenchangshou/devicectl/internal/event"
)

// Executor runs named scenes. It holds no lock spanning a scene's steps:
// concurrent executions of different scenes (or re-entrant calls into the
// facade from elsewhere) are never blocked by an in-progress scene.
type Executor struct {
	logger *slog.Logger
	bus    *event.Bus
	writer dependency.NodeWriter

	mu     sync.RWMutex
	scenes map[string]Config

	running sync.Map // name -> struct{}, guards against overlapping cron triggers
}

// New creates an Executor.
func New(logger *slog.Logger, bus *event.Bus, writer dependency.NodeWriter) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		logger: logger.With(slog.String("component", "scene_executor")),
		bus:    bus,
		writer: writer,
		scenes: map[string]Config{},
	}
}

// SetWriter binds the node writer after construction, for the common case
// where the writer (the controller facade) itself depends on the executor.
func (e *Executor) SetWriter(writer dependency.NodeWriter) {
	e.writer = writer
}

// Load registers every configured scene, keyed by name.
func (e *Executor) Load(configs []Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, cfg := range configs {
		if _, exists := e.scenes[cfg.Name]; exists {
			return fmt.Errorf("duplicate scene name %q", cfg.Name)
		}
		e.scenes[cfg.Name] = cfg
	}
	return nil
}

// Config returns a scene's configuration.
func (e *Executor) Config(name string) (Config, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cfg, ok := e.scenes[name]
	return cfg, ok
}

// Names lists every configured scene, for the cron scheduler to register
// against.
func (e *Executor) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.scenes))
	for name := range e.scenes {
		names = append(names, name)
	}
	return names
}

// TryBeginRun marks a scene as in-flight, returning false if it is already
// running -- used by the cron scheduler to coalesce overlapping triggers.
func (e *Executor) TryBeginRun(name string) bool {
	_, alreadyRunning := e.running.LoadOrStore(name, struct{}{})
	return !alreadyRunning
}

// EndRun clears a scene's in-flight marker.
func (e *Executor) EndRun(name string) {
	e.running.Delete(name)
}

// Execute runs a named scene to completion: for each step, write with
// strategy=enforce, wait delay_after_ms, continue. A step failure is
// recorded but does not abort the scene unless abort_on_error is set.
func (e *Executor) Execute(ctx context.Context, name string) error {
	cfg, ok := e.Config(name)
	if !ok {
		return fmt.Errorf("unknown scene %q", name)
	}

	if e.bus != nil {
		e.bus.Publish(event.SceneStarted{Name: name})
	}

	success := true
	for _, step := range cfg.Steps {
		if ctx.Err() != nil {
			success = false
			break
		}
		if err := e.writer.WriteNode(ctx, step.GlobalID, step.TargetValue, dependency.StrategyEnforce); err != nil {
			success = false
			if e.logger != nil {
				e.logger.Warn("scene step failed",
					slog.String("scene", name),
					slog.Int64("global_id", int64(step.GlobalID)),
					slog.Any("error", err),
				)
			}
			if cfg.AbortOnError {
				break
			}
		}
		if step.DelayAfterMS > 0 {
			select {
			case <-time.After(time.Duration(step.DelayAfterMS) * time.Millisecond):
			case <-ctx.Done():
				success = false
			}
		}
	}

	if e.bus != nil {
		e.bus.Publish(event.SceneCompleted{Name: name, Success: success})
	}
	if !success {
		return fmt.Errorf("scene %q completed with step failures", name)
	}
	return nil
}
