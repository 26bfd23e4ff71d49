// Package controller implements the Controller Facade: the single entry
// point that owns every other component for the process lifetime and
// sequences the write path (resolver -> channel dispatch -> node state ->
// event emission) and the read path (channel dispatch -> scale -> node
// state -> return).
package controller

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/wenchangshou/devicectl/internal/channel"
	"github.com/wenchangshou/devicectl/internal/dependency"
	"github.com/wenchangshou/devicectl/internal/event"
	"github.com/wenchangshou/devicectl/internal/node"
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/scene"
)

// SceneRunner is the subset of scene.Executor the facade drives.
type SceneRunner interface {
	Execute(ctx context.Context, name string) error
	Config(name string) (scene.Config, bool)
}

// Resolver is the subset of dependency.Resolver the facade drives.
type Resolver interface {
	Resolve(ctx context.Context, id node.ID, value protocol.Value, strategy dependency.Strategy) (dependency.Outcome, error)
}

// Shutdowner is implemented by every long-running collaborator the facade
// tears down on Shutdown.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Facade is the Controller Facade. It exclusively owns the channel
// manager, node manager, resolver, scene executor, task scheduler, and
// event bus for the process lifetime.
type Facade struct {
	logger *slog.Logger

	channels *channel.Manager
	nodes    *node.Manager
	resolver Resolver
	scenes   SceneRunner
	bus      *event.Bus

	collaborators []Shutdowner
}

// New assembles a Facade from already-constructed collaborators. Process
// Assembly (internal/app) is responsible for construction order and for
// passing shutdownable collaborators in the order they should be torn
// down.
func New(logger *slog.Logger, channels *channel.Manager, nodes *node.Manager, resolver Resolver, scenes SceneRunner, bus *event.Bus, shutdownInOrder ...Shutdowner) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{
		logger:        logger.With(slog.String("component", "controller")),
		channels:      channels,
		nodes:         nodes,
		resolver:      resolver,
		scenes:        scenes,
		bus:           bus,
		collaborators: shutdownInOrder,
	}
}

// WriteRequest is one entry of write_many.
type WriteRequest struct {
	GlobalID node.ID
	Value    protocol.Value
	Strategy dependency.Strategy
}

// WriteResult pairs a write_many entry with its outcome.
type WriteResult struct {
	GlobalID node.ID
	Err      error
}

// ReadResult pairs a read_many entry with its outcome.
type ReadResult struct {
	GlobalID node.ID
	Value    protocol.Value
	Err      error
}

// BatchReadItem names one heterogeneous batch_read target.
type BatchReadItem struct {
	Name      string
	ChannelID channel.ID
	DeviceID  int64
}

// BatchReadResult pairs a batch_read entry with its outcome.
type BatchReadResult struct {
	Name  string
	Value protocol.Value
	Err   error
}

// WriteNode resolves id's dependencies under strategy, dispatches the
// write once ready, and updates node state. It also implements
// dependency.NodeWriter and scheduler.Writer so the resolver and scheduler
// can drive writes without importing this package.
func (f *Facade) WriteNode(ctx context.Context, id node.ID, value protocol.Value, strategy dependency.Strategy) error {
	if !f.nodes.Has(id) {
		return newError(KindUnknownNode, "write_node", nil)
	}

	outcome, err := f.resolver.Resolve(ctx, id, value, strategy)
	if err != nil {
		var resolverErr *dependency.ResolverError
		if errors.As(err, &resolverErr) && resolverErr.Kind == dependency.ErrorCycle {
			return newError(KindDependencyCycle, resolverErr.Message, err)
		}
		return newError(KindConfiguration, "dependency resolution failed", err)
	}

	switch outcome.Result {
	case dependency.ResolvedReady:
		return f.Dispatch(ctx, id, value)
	case dependency.ResolvedBlocked:
		if strategy == dependency.StrategyQueue {
			return nil // accepted as a deferred task, not a failure
		}
		return newError(KindDependencyUnmet, "unmet dependency predicates", nil)
	default:
		return newError(KindConfiguration, "unknown resolver outcome", nil)
	}
}

// Dispatch performs the leaf write: channel dispatch followed by node
// state update. It assumes the caller already confirmed readiness and is
// the Writer the task scheduler uses to flush deferred tasks.
func (f *Facade) Dispatch(ctx context.Context, id node.ID, value protocol.Value) error {
	channelID, deviceID, ok := f.nodes.ResolveChannelAndDevice(id)
	if !ok {
		return newError(KindUnknownNode, "dispatch", nil)
	}
	if err := f.channels.Registry().DispatchWrite(ctx, channel.ID(channelID), deviceID, value); err != nil {
		return newError(KindProtocolError, "write dispatch failed", err)
	}
	if _, err := f.nodes.SetValue(id, value); err != nil {
		return newError(KindUnknownNode, "node state update failed", err)
	}
	return nil
}

// ReadNode dispatches a read, applies the configured scale multiplier, and
// updates node state before returning.
func (f *Facade) ReadNode(ctx context.Context, id node.ID) (protocol.Value, error) {
	cfg, ok := f.nodes.Config(id)
	if !ok {
		return protocol.Value{}, newError(KindUnknownNode, "read_node", nil)
	}
	raw, err := f.channels.Registry().DispatchRead(ctx, channel.ID(cfg.ChannelID), cfg.DeviceID)
	if err != nil {
		return protocol.Value{}, newError(KindProtocolError, "read dispatch failed", err)
	}
	value := raw
	if cfg.Scale != nil {
		value = raw.Scale(*cfg.Scale)
	}
	if _, err := f.nodes.SetValue(id, value); err != nil {
		return protocol.Value{}, newError(KindUnknownNode, "node state update failed", err)
	}
	return value, nil
}

// WriteMany writes every entry independently and concurrently; one entry's
// failure never aborts the others, and the per-channel registry lock
// already serializes anything that actually shares hardware.
func (f *Facade) WriteMany(ctx context.Context, reqs []WriteRequest) []WriteResult {
	out := make([]WriteResult, len(reqs))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		group.Go(func() error {
			strategy := req.Strategy
			if strategy == "" {
				strategy = dependency.StrategyEnforce
			}
			err := f.WriteNode(groupCtx, req.GlobalID, req.Value, strategy)
			out[i] = WriteResult{GlobalID: req.GlobalID, Err: err}
			return nil
		})
	}
	_ = group.Wait() // member goroutines never return a non-nil error; failures live in out[i].Err
	return out
}

// ReadMany reads every entry independently and concurrently.
func (f *Facade) ReadMany(ctx context.Context, ids []node.ID) []ReadResult {
	out := make([]ReadResult, len(ids))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		group.Go(func() error {
			value, err := f.ReadNode(groupCtx, id)
			out[i] = ReadResult{GlobalID: id, Value: value, Err: err}
			return nil
		})
	}
	_ = group.Wait()
	return out
}

// BatchRead reads across heterogeneous channels directly (bypassing node
// configuration), for callers addressing a channel/device pair that has
// no corresponding configured node. Failures are per-item.
func (f *Facade) BatchRead(ctx context.Context, items []BatchReadItem) []BatchReadResult {
	out := make([]BatchReadResult, len(items))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		group.Go(func() error {
			value, err := f.channels.Registry().DispatchRead(groupCtx, item.ChannelID, item.DeviceID)
			if err != nil {
				err = newError(KindProtocolError, "batch read failed", err)
			}
			out[i] = BatchReadResult{Name: item.Name, Value: value, Err: err}
			return nil
		})
	}
	_ = group.Wait()
	return out
}

// ExecuteScene runs a named scene to completion.
func (f *Facade) ExecuteScene(ctx context.Context, name string) error {
	if _, ok := f.scenes.Config(name); !ok {
		return newError(KindUnknownScene, "execute_scene", nil)
	}
	if err := f.scenes.Execute(ctx, name); err != nil {
		return newError(KindProtocolError, "scene completed with step failures", err)
	}
	return nil
}

// ExecuteCommand dispatches a vendor-defined command directly to a channel.
func (f *Facade) ExecuteCommand(ctx context.Context, channelID channel.ID, command string, params map[string]any) (protocol.Value, error) {
	value, err := f.channels.Registry().DispatchExecute(ctx, channelID, command, params)
	if err != nil {
		if errors.Is(err, protocol.ErrNotSupported) {
			return protocol.Value{}, newError(KindNotSupported, "execute_command", err)
		}
		return protocol.Value{}, newError(KindProtocolError, "execute_command failed", err)
	}
	return value, nil
}

// CallMethod dispatches a named, adapter-specific method to a channel.
func (f *Facade) CallMethod(ctx context.Context, channelID channel.ID, name string, args map[string]any) (protocol.Value, error) {
	value, err := f.channels.Registry().DispatchMethod(ctx, channelID, name, args)
	if err != nil {
		if errors.Is(err, protocol.ErrNotSupported) {
			return protocol.Value{}, newError(KindNotSupported, "call_method", err)
		}
		return protocol.Value{}, newError(KindProtocolError, "call_method failed", err)
	}
	return value, nil
}

// DescribeMethods lists the methods a channel's protocol instance exposes.
func (f *Facade) DescribeMethods(channelID channel.ID) ([]protocol.Method, error) {
	methods, err := f.channels.Registry().EnumerateMethods(channelID)
	if err != nil {
		return nil, newError(KindUnknownChannel, "describe_methods", err)
	}
	return methods, nil
}

// StatusAllChannels returns a snapshot of every channel's connectivity.
func (f *Facade) StatusAllChannels() []channel.Status {
	return f.channels.Registry().StatusSnapshot()
}

// StateAllNodes returns a snapshot of every node's config and state.
func (f *Facade) StateAllNodes() []node.Snapshot {
	return f.nodes.AllStatesSnapshot()
}

// SubscribeEvents returns a new event receiver. Events emitted before this
// call returns are never delivered to it.
func (f *Facade) SubscribeEvents() *event.Receiver {
	return f.bus.Subscribe()
}

// Shutdown tears down every collaborator in the order supplied to New,
// then closes the event bus. Idempotent.
func (f *Facade) Shutdown(ctx context.Context) error {
	for _, c := range f.collaborators {
		if err := c.Shutdown(ctx); err != nil {
			f.logger.Warn("collaborator shutdown failed", slog.Any("error", err))
		}
	}
	f.bus.Close()
	return nil
}
