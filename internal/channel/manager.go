package channel

import (
	"context"
	"log/slog"
	"time"

	"github.com/wenchangshou/devicectl/internal/event"
	"github.com/wenchangshou/devicectl/internal/protocol"
)

// probeInterval is how often the manager re-probes channels it last saw as
// disconnected, so that a recovered channel surfaces a ChannelConnected
// event even without new traffic being dispatched to it.
const probeInterval = 10 * time.Second

// Manager builds a Registry from configuration at startup and keeps its
// connectivity markers current between dispatches. Configuration is
// immutable once built: there is no hot-reload path, matching the
// config-is-loaded-once model the rest of the process assumes.
type Manager struct {
	logger   *slog.Logger
	bus      *event.Bus
	registry *Registry

	factories map[protocol.Kind]protocol.Factory

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a Manager wired to bus for connectivity events and
// factories for resolving protocol_kind to a concrete protocol.Instance.
func NewManager(log *slog.Logger, bus *event.Bus, factories map[protocol.Kind]protocol.Factory) *Manager {
	if log == nil {
		log = slog.Default()
	}
	logger := log.With(slog.String("component", "channel_manager"))
	return &Manager{
		logger:    logger,
		bus:       bus,
		registry:  NewRegistry(logger, bus),
		factories: factories,
	}
}

// Registry returns the built channel registry used for dispatch.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Build constructs one protocol instance per enabled channel config.
func (m *Manager) Build(configs []Config) error {
	return m.registry.Build(configs, m.factories)
}

// Start launches the background connectivity prober. It returns immediately;
// the prober runs until ctx is cancelled or Shutdown is called.
func (m *Manager) Start(ctx context.Context) {
	probeCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.probeLoop(probeCtx)
}

func (m *Manager) probeLoop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeDisconnected(ctx)
		}
	}
}

func (m *Manager) probeDisconnected(ctx context.Context) {
	for _, status := range m.registry.StatusSnapshot() {
		if status.Connectivity != ConnectivityDisconnected {
			continue
		}
		e, ok := m.registry.lookup(status.ChannelID)
		if !ok {
			continue
		}
		prober, ok := e.instance.(protocol.ConnectivityProber)
		if !ok {
			continue
		}
		id := status.ChannelID
		_, _ = m.registry.dispatch(ctx, e, id, func(dctx context.Context) (protocol.Value, error) {
			return protocol.Value{}, prober.ConnectivityProbe(dctx)
		})
	}
}

// Shutdown stops the connectivity prober and waits for it to exit.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.cancel == nil {
		return nil
	}
	m.cancel()
	select {
	case <-m.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
