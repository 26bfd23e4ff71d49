package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/wenchangshou/devicectl/internal/event"
	"github.com/wenchangshou/devicectl/internal/protocol"
)

// defaultDispatchTimeout bounds a single protocol call when a channel has
// no DispatchTimeoutMS configured.
const defaultDispatchTimeout = 3 * time.Second

// entry is the runtime state the registry holds for one built channel: its
// config, the live protocol instance, and a dedicated mutex that serializes
// every dispatch against that instance.
type entry struct {
	cfg      Config
	instance protocol.Instance

	mu           sync.Mutex
	connectivity Connectivity
	lastError    string
	updatedAt    time.Time
}

// Registry owns every protocol instance and serializes access per channel.
// Concurrent dispatches targeting the same channel queue behind entry.mu;
// dispatches on different channels proceed in parallel. A Registry is built
// once from a slice of Config and is immutable afterward except for the
// connectivity bookkeeping each dispatch updates.
type Registry struct {
	logger *slog.Logger
	bus    *event.Bus

	mu       sync.RWMutex
	channels map[ID]*entry
}

// NewRegistry creates an empty Registry. Build populates it.
func NewRegistry(logger *slog.Logger, bus *event.Bus) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger.With(slog.String("component", "channel_registry")),
		bus:      bus,
		channels: map[ID]*entry{},
	}
}

// Build constructs one protocol instance per enabled Config using factories,
// keyed by protocol kind. It returns a Configuration-class error describing
// every failed channel rather than stopping at the first one, since an
// operator fixing a typo'd config wants the full list in one pass.
func (r *Registry) Build(configs []Config, factories map[protocol.Kind]protocol.Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failures []string
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		if _, exists := r.channels[cfg.ChannelID]; exists {
			failures = append(failures, fmt.Sprintf("channel %d: duplicate channel_id", cfg.ChannelID))
			continue
		}
		factory, ok := factories[cfg.ProtocolKind]
		if !ok {
			failures = append(failures, fmt.Sprintf("channel %d: unknown protocol_kind %q", cfg.ChannelID, cfg.ProtocolKind))
			continue
		}
		instance, err := factory(cfg.Parameters)
		if err != nil {
			failures = append(failures, fmt.Sprintf("channel %d: %v", cfg.ChannelID, err))
			continue
		}
		r.channels[cfg.ChannelID] = &entry{
			cfg:          cfg,
			instance:     instance,
			connectivity: ConnectivityUnknown,
			updatedAt:    time.Time{},
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("channel registry build: %d channel(s) failed: %v", len(failures), failures)
	}
	return nil
}

func (r *Registry) lookup(id ID) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.channels[id]
	return e, ok
}

func (e *entry) timeout() time.Duration {
	if e.cfg.DispatchTimeoutMS > 0 {
		return time.Duration(e.cfg.DispatchTimeoutMS) * time.Millisecond
	}
	return defaultDispatchTimeout
}

// dispatch serializes call behind the channel's mutex, applies the dispatch
// timeout, and updates connectivity bookkeeping around the result.
func (r *Registry) dispatch(ctx context.Context, e *entry, channelID ID, call func(context.Context) (protocol.Value, error)) (protocol.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	dctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	value, err := call(dctx)
	now := time.Now()
	if err != nil {
		e.connectivity = ConnectivityDisconnected
		e.lastError = err.Error()
		e.updatedAt = now
		if r.bus != nil {
			r.bus.Publish(event.ChannelDisconnected{ChannelID: int64(channelID), Reason: err.Error()})
		}
		return protocol.Value{}, err
	}

	wasDisconnected := e.connectivity == ConnectivityDisconnected || e.connectivity == ConnectivityUnknown
	e.connectivity = ConnectivityConnected
	e.lastError = ""
	e.updatedAt = now
	if wasDisconnected && r.bus != nil {
		r.bus.Publish(event.ChannelConnected{ChannelID: int64(channelID)})
	}
	return value, nil
}

// DispatchWrite serializes a write against the channel's protocol instance.
func (r *Registry) DispatchWrite(ctx context.Context, id ID, deviceID int64, value protocol.Value) error {
	e, ok := r.lookup(id)
	if !ok {
		return fmt.Errorf("unknown channel %d", id)
	}
	_, err := r.dispatch(ctx, e, id, func(dctx context.Context) (protocol.Value, error) {
		return protocol.Value{}, e.instance.Write(dctx, deviceID, value)
	})
	return err
}

// DispatchRead serializes a read against the channel's protocol instance.
func (r *Registry) DispatchRead(ctx context.Context, id ID, deviceID int64) (protocol.Value, error) {
	e, ok := r.lookup(id)
	if !ok {
		return protocol.Value{}, fmt.Errorf("unknown channel %d", id)
	}
	return r.dispatch(ctx, e, id, func(dctx context.Context) (protocol.Value, error) {
		return e.instance.Read(dctx, deviceID)
	})
}

// DispatchExecute serializes an arbitrary command against the channel.
func (r *Registry) DispatchExecute(ctx context.Context, id ID, command string, params map[string]any) (protocol.Value, error) {
	e, ok := r.lookup(id)
	if !ok {
		return protocol.Value{}, fmt.Errorf("unknown channel %d", id)
	}
	return r.dispatch(ctx, e, id, func(dctx context.Context) (protocol.Value, error) {
		return e.instance.Execute(dctx, command, params)
	})
}

// DispatchMethod serializes a named method invocation against the channel,
// gracefully degrading to NotSupported when the instance lacks MethodCaller.
func (r *Registry) DispatchMethod(ctx context.Context, id ID, name string, arguments map[string]any) (protocol.Value, error) {
	e, ok := r.lookup(id)
	if !ok {
		return protocol.Value{}, fmt.Errorf("unknown channel %d", id)
	}
	return r.dispatch(ctx, e, id, func(dctx context.Context) (protocol.Value, error) {
		return protocol.CallMethod(dctx, e.instance, name, arguments)
	})
}

// EnumerateMethods lists the methods a channel's protocol instance exposes.
func (r *Registry) EnumerateMethods(id ID) ([]protocol.Method, error) {
	e, ok := r.lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown channel %d", id)
	}
	return protocol.DescribeMethods(e.instance), nil
}

// StatusSnapshot returns a point-in-time view of every built channel.
func (r *Registry) StatusSnapshot() []Status {
	r.mu.RLock()
	ids := make([]ID, 0, len(r.channels))
	entries := make([]*entry, 0, len(r.channels))
	for id, e := range r.channels {
		ids = append(ids, id)
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]Status, 0, len(entries))
	for i, e := range entries {
		e.mu.Lock()
		out = append(out, Status{
			ChannelID:    ids[i],
			ProtocolKind: e.cfg.ProtocolKind,
			Connectivity: e.connectivity,
			LastError:    e.lastError,
			UpdatedAt:    e.updatedAt,
		})
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out
}

// Has reports whether a channel with the given ID was built.
func (r *Registry) Has(id ID) bool {
	_, ok := r.lookup(id)
	return ok
}
