// Package notify subscribes to the event bus and forwards selected
// critical events (channel disconnects, failed tasks, failed scenes) to
// external alerting channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wenchangshou/devicectl/internal/event"
)

// Target delivers a single alert message to one external channel.
type Target interface {
	Notify(ctx context.Context, message string) error
}

// Sink is the Notification Sink: an event-bus subscriber that forwards
// ChannelDisconnected, failed TaskCompleted, and failed SceneCompleted
// events to every configured Target.
type Sink struct {
	logger   *slog.Logger
	bus      *event.Bus
	targets  []Target
	receiver *event.Receiver

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Sink. It has no effect until Start is called.
func New(logger *slog.Logger, bus *event.Bus, targets ...Target) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		logger:  logger.With(slog.String("component", "notify_sink")),
		bus:     bus,
		targets: targets,
	}
}

// Start subscribes to the event bus and begins forwarding alerts in the
// background. A no-op when there are no targets configured.
func (s *Sink) Start(ctx context.Context) {
	if len(s.targets) == 0 {
		return
	}
	s.receiver = s.bus.Subscribe()
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx)
}

func (s *Sink) run(ctx context.Context) {
	defer close(s.done)
	for {
		evt, ok := s.receiver.Receive(ctx)
		if !ok {
			return
		}
		message, forward := s.render(evt)
		if !forward {
			continue
		}
		for _, target := range s.targets {
			if err := target.Notify(ctx, message); err != nil {
				s.logger.Warn("notification delivery failed", slog.Any("error", err))
			}
		}
	}
}

func (s *Sink) render(evt event.Event) (string, bool) {
	switch e := evt.(type) {
	case event.ChannelDisconnected:
		return fmt.Sprintf("channel %d disconnected: %s", e.ChannelID, e.Reason), true
	case event.TaskCompleted:
		if e.Success {
			return "", false
		}
		return fmt.Sprintf("deferred task %s failed: %s", e.TaskID, e.Reason), true
	case event.SceneCompleted:
		if e.Success {
			return "", false
		}
		return fmt.Sprintf("scene %q completed with step failures", e.Name), true
	default:
		return "", false
	}
}

// Shutdown stops forwarding and unsubscribes from the event bus.
func (s *Sink) Shutdown(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.receiver.Close()
	return nil
}
