package node

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wenchangshou/devicectl/internal/event"
	"github.com/wenchangshou/devicectl/internal/protocol"
)

type record struct {
	mu     sync.RWMutex
	config Config
	state  State
}

// Manager owns every node's config and runtime state for the process
// lifetime. Each node has its own lock so concurrent updates on distinct
// nodes never contend; a read of all_states_snapshot is consistent
// per-entry but not globally.
type Manager struct {
	logger *slog.Logger
	bus    *event.Bus

	mu      sync.RWMutex
	records map[ID]*record
}

// NewManager creates an empty Manager.
func NewManager(logger *slog.Logger, bus *event.Bus) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:  logger.With(slog.String("component", "node_manager")),
		bus:     bus,
		records: map[ID]*record{},
	}
}

// Load populates the manager from configuration. It is called once at
// startup; node configuration is immutable afterward.
func (m *Manager) Load(configs []Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cfg := range configs {
		if _, exists := m.records[cfg.GlobalID]; exists {
			return fmt.Errorf("duplicate global_id %d", cfg.GlobalID)
		}
		m.records[cfg.GlobalID] = &record{config: cfg}
	}
	return nil
}

func (m *Manager) lookup(id ID) (*record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	return r, ok
}

// Config returns the configuration for a node.
func (m *Manager) Config(id ID) (Config, bool) {
	r, ok := m.lookup(id)
	if !ok {
		return Config{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config, true
}

// State returns the current runtime state for a node.
func (m *Manager) State(id ID) (State, bool) {
	r, ok := m.lookup(id)
	if !ok {
		return State{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state, true
}

// ResolveChannelAndDevice returns the channel and device identifiers a
// node's writes/reads should target.
func (m *Manager) ResolveChannelAndDevice(id ID) (channelID int64, deviceID int64, ok bool) {
	cfg, ok := m.Config(id)
	if !ok {
		return 0, 0, false
	}
	return cfg.ChannelID, cfg.DeviceID, true
}

// SetValue updates a node's current value, returning the previous value.
// A NodeStateChanged event is emitted only when new != old.
func (m *Manager) SetValue(id ID, value protocol.Value) (protocol.Value, error) {
	r, ok := m.lookup(id)
	if !ok {
		return protocol.Value{}, fmt.Errorf("unknown node %d", id)
	}
	r.mu.Lock()
	prev := r.state.CurrentValue
	// A node's CurrentValue starts at the zero Value (Kind == ""), which is
	// not a real observed value. Without this check, the very first write
	// of a numerically-zero value (Int64Value(0), FloatValue(0),
	// BoolValue(false)) would compute changed=false via Equal's AsFloat
	// fallback and silently never initialize the node's state.
	changed := prev.Kind == "" || !prev.Equal(value)
	if changed {
		r.state.CurrentValue = value
		r.state.LastUpdate = time.Now()
	}
	r.mu.Unlock()

	if changed && m.bus != nil {
		m.bus.Publish(event.NodeStateChanged{GlobalID: int64(id), Old: prev, New: value, Field: "value"})
	}
	return prev, nil
}

// SetOnline updates a node's online flag, emitting NodeStateChanged on
// transition.
func (m *Manager) SetOnline(id ID, online bool) error {
	r, ok := m.lookup(id)
	if !ok {
		return fmt.Errorf("unknown node %d", id)
	}
	r.mu.Lock()
	prev := r.state.Online
	changed := prev != online
	if changed {
		r.state.Online = online
		r.state.LastUpdate = time.Now()
	}
	r.mu.Unlock()

	if changed && m.bus != nil {
		m.bus.Publish(event.NodeStateChanged{
			GlobalID: int64(id),
			Old:      protocol.BoolValue(prev),
			New:      protocol.BoolValue(online),
			Field:    "online",
		})
	}
	return nil
}

// AllStatesSnapshot returns every node's config and state. The result is
// consistent per-entry, not globally: concurrent writers may be observed
// partway through their own updates relative to each other.
func (m *Manager) AllStatesSnapshot() []Snapshot {
	m.mu.RLock()
	recs := make([]*record, 0, len(m.records))
	for _, r := range m.records {
		recs = append(recs, r)
	}
	m.mu.RUnlock()

	out := make([]Snapshot, 0, len(recs))
	for _, r := range recs {
		r.mu.RLock()
		out = append(out, Snapshot{Config: r.config, State: r.state})
		r.mu.RUnlock()
	}
	return out
}

// Has reports whether a node with the given ID exists.
func (m *Manager) Has(id ID) bool {
	_, ok := m.lookup(id)
	return ok
}
