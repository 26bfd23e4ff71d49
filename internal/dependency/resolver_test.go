package dependency

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenchangshou/devicectl/internal/node"
	"github.com/wenchangshou/devicectl/internal/protocol"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func boolPtr(b bool) *bool { return &b }

// recordingWriter implements NodeWriter by writing straight through to a
// node.Manager, recording every call it was asked to perform.
type recordingWriter struct {
	nodes *node.Manager
	calls []node.ID
}

func (w *recordingWriter) WriteNode(ctx context.Context, id node.ID, value protocol.Value, strategy Strategy) error {
	w.calls = append(w.calls, id)
	_, err := w.nodes.SetValue(id, value)
	return err
}

func newNodes(t *testing.T, configs []node.Config) *node.Manager {
	t.Helper()
	mgr := node.NewManager(newTestLogger(), nil)
	require.NoError(t, mgr.Load(configs))
	return mgr
}

func TestResolveEnforceReadyWithNoPredicates(t *testing.T) {
	nodes := newNodes(t, []node.Config{{GlobalID: 1}})
	r := New(nodes, nil, nil)

	outcome, err := r.Resolve(context.Background(), 1, protocol.Int64Value(1), StrategyEnforce)
	require.NoError(t, err)
	assert.Equal(t, ResolvedReady, outcome.Result)
}

func TestResolveEnforceBlockedOnUnmetValuePredicate(t *testing.T) {
	value := protocol.Int64Value(1)
	nodes := newNodes(t, []node.Config{
		{GlobalID: 1, Dependency: []node.Predicate{{RefID: 2, EqualsValue: &value}}},
		{GlobalID: 2},
	})
	r := New(nodes, nil, nil)

	outcome, err := r.Resolve(context.Background(), 1, protocol.Int64Value(1), StrategyEnforce)
	require.NoError(t, err)
	assert.Equal(t, ResolvedBlocked, outcome.Result)
	assert.Equal(t, []node.ID{2}, outcome.Unmet)
}

func TestResolveEnforceBlockedOnUnmetOnlinePredicate(t *testing.T) {
	nodes := newNodes(t, []node.Config{
		{GlobalID: 1, Dependency: []node.Predicate{{RefID: 2, RequiresOnline: boolPtr(true)}}},
		{GlobalID: 2},
	})
	r := New(nodes, nil, nil)

	outcome, err := r.Resolve(context.Background(), 1, protocol.Int64Value(1), StrategyEnforce)
	require.NoError(t, err)
	assert.Equal(t, ResolvedBlocked, outcome.Result)
}

func TestResolveEnforceUnknownPredicateTargetErrors(t *testing.T) {
	value := protocol.Int64Value(1)
	nodes := newNodes(t, []node.Config{
		{GlobalID: 1, Dependency: []node.Predicate{{RefID: 99, EqualsValue: &value}}},
	})
	r := New(nodes, nil, nil)

	_, err := r.Resolve(context.Background(), 1, protocol.Int64Value(1), StrategyEnforce)
	assert.Error(t, err)
}

func TestResolveAutoFulfillsSingleHop(t *testing.T) {
	value := protocol.Int64Value(1)
	nodes := newNodes(t, []node.Config{
		{GlobalID: 1, Dependency: []node.Predicate{
			{RefID: 2, EqualsValue: &value, Strategy: node.StrategyAuto},
		}},
		{GlobalID: 2},
	})
	writer := &recordingWriter{nodes: nodes}
	r := New(nodes, writer, nil)

	outcome, err := r.Resolve(context.Background(), 1, protocol.Int64Value(1), StrategyAuto)
	require.NoError(t, err)
	assert.Equal(t, ResolvedReady, outcome.Result)
	assert.Equal(t, []node.ID{2}, writer.calls)

	state, ok := nodes.State(2)
	require.True(t, ok)
	assert.True(t, state.CurrentValue.Equal(value))
}

func TestResolveAutoNeverFulfillsOnlinePredicates(t *testing.T) {
	nodes := newNodes(t, []node.Config{
		{GlobalID: 1, Dependency: []node.Predicate{
			{RefID: 2, RequiresOnline: boolPtr(true), Strategy: node.StrategyAuto},
		}},
		{GlobalID: 2},
	})
	writer := &recordingWriter{nodes: nodes}
	r := New(nodes, writer, nil)

	outcome, err := r.Resolve(context.Background(), 1, protocol.Int64Value(1), StrategyAuto)
	require.NoError(t, err)
	assert.Equal(t, ResolvedBlocked, outcome.Result)
	assert.Empty(t, writer.calls, "online predicates must never be auto-fulfilled")
}

func TestResolveAutoChainsThroughMultipleHops(t *testing.T) {
	v2 := protocol.Int64Value(2)
	v3 := protocol.Int64Value(3)
	nodes := newNodes(t, []node.Config{
		{GlobalID: 1, Dependency: []node.Predicate{{RefID: 2, EqualsValue: &v2, Strategy: node.StrategyAuto}}},
		{GlobalID: 2, Dependency: []node.Predicate{{RefID: 3, EqualsValue: &v3, Strategy: node.StrategyAuto}}},
		{GlobalID: 3},
	})
	writer := &recordingWriter{nodes: nodes}
	r := New(nodes, writer, nil)

	outcome, err := r.Resolve(context.Background(), 1, protocol.Int64Value(1), StrategyAuto)
	require.NoError(t, err)
	assert.Equal(t, ResolvedReady, outcome.Result)
	// node 3 must be satisfied before node 2's own write is issued
	assert.Equal(t, []node.ID{3, 2}, writer.calls)
}

func TestResolveAutoDetectsCycle(t *testing.T) {
	v1 := protocol.Int64Value(1)
	v2 := protocol.Int64Value(1)
	nodes := newNodes(t, []node.Config{
		{GlobalID: 1, Dependency: []node.Predicate{{RefID: 2, EqualsValue: &v2, Strategy: node.StrategyAuto}}},
		{GlobalID: 2, Dependency: []node.Predicate{{RefID: 1, EqualsValue: &v1, Strategy: node.StrategyAuto}}},
	})
	writer := &recordingWriter{nodes: nodes}
	r := New(nodes, writer, nil)

	_, err := r.Resolve(context.Background(), 1, protocol.Int64Value(1), StrategyAuto)
	require.Error(t, err)
	var resolverErr *ResolverError
	require.ErrorAs(t, err, &resolverErr)
	assert.Equal(t, ErrorCycle, resolverErr.Kind)
}

type fakeEnqueuer struct {
	taskID string
}

func (f *fakeEnqueuer) Enqueue(id node.ID, value protocol.Value) string {
	return f.taskID
}

func TestResolveQueueEnqueuesOnUnmetPredicate(t *testing.T) {
	value := protocol.Int64Value(1)
	nodes := newNodes(t, []node.Config{
		{GlobalID: 1, Dependency: []node.Predicate{{RefID: 2, EqualsValue: &value}}},
		{GlobalID: 2},
	})
	scheduler := &fakeEnqueuer{taskID: "task-123"}
	r := New(nodes, nil, scheduler)

	outcome, err := r.Resolve(context.Background(), 1, protocol.Int64Value(1), StrategyQueue)
	require.NoError(t, err)
	assert.Equal(t, ResolvedBlocked, outcome.Result)
	assert.Equal(t, "task-123", outcome.TaskID)
}

func TestResolveQueueWithoutSchedulerErrors(t *testing.T) {
	value := protocol.Int64Value(1)
	nodes := newNodes(t, []node.Config{
		{GlobalID: 1, Dependency: []node.Predicate{{RefID: 2, EqualsValue: &value}}},
		{GlobalID: 2},
	})
	r := New(nodes, nil, nil)

	_, err := r.Resolve(context.Background(), 1, protocol.Int64Value(1), StrategyQueue)
	assert.Error(t, err)
}

func TestSetWriterAndSetSchedulerBindAfterConstruction(t *testing.T) {
	nodes := newNodes(t, []node.Config{{GlobalID: 1}})
	r := New(nodes, nil, nil)

	writer := &recordingWriter{nodes: nodes}
	scheduler := &fakeEnqueuer{taskID: "t"}
	r.SetWriter(writer)
	r.SetScheduler(scheduler)

	assert.Same(t, writer, r.writer.(*recordingWriter))
	assert.Same(t, scheduler, r.scheduler.(*fakeEnqueuer))
}
