package controller

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenchangshou/devicectl/internal/channel"
	"github.com/wenchangshou/devicectl/internal/dependency"
	"github.com/wenchangshou/devicectl/internal/event"
	"github.com/wenchangshou/devicectl/internal/node"
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/mock"
	"github.com/wenchangshou/devicectl/internal/scene"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mockFactories() map[protocol.Kind]protocol.Factory {
	return map[protocol.Kind]protocol.Factory{protocol.KindMock: mock.New}
}

// stubScenes is a minimal SceneRunner for facade tests that never need a
// real scene executor.
type stubScenes struct {
	configs map[string]scene.Config
	err     error
}

func (s *stubScenes) Config(name string) (scene.Config, bool) {
	cfg, ok := s.configs[name]
	return cfg, ok
}

func (s *stubScenes) Execute(ctx context.Context, name string) error {
	return s.err
}

func newFacadeForTest(t *testing.T, nodeConfigs []node.Config, channelConfigs []channel.Config) *Facade {
	t.Helper()
	logger := newTestLogger()
	bus := event.New(logger)

	channels := channel.NewManager(logger, bus, mockFactories())
	require.NoError(t, channels.Build(channelConfigs))

	nodes := node.NewManager(logger, bus)
	require.NoError(t, nodes.Load(nodeConfigs))

	resolver := dependency.New(nodes, nil, nil)
	scenes := &stubScenes{configs: map[string]scene.Config{}}

	f := New(logger, channels, nodes, resolver, scenes, bus)
	resolver.SetWriter(f)
	return f
}

func TestWriteNodeThenReadNodeRoundTrips(t *testing.T) {
	f := newFacadeForTest(t,
		[]node.Config{{GlobalID: 1, ChannelID: 1, DeviceID: 42}},
		[]channel.Config{{ChannelID: 1, Enabled: true, ProtocolKind: protocol.KindMock}},
	)

	ctx := context.Background()
	require.NoError(t, f.WriteNode(ctx, 1, protocol.Int64Value(7), dependency.StrategyEnforce))

	value, err := f.ReadNode(ctx, 1)
	require.NoError(t, err)
	assert.True(t, value.Equal(protocol.Int64Value(7)))
}

func TestWriteNodeUnknownNodeFails(t *testing.T) {
	f := newFacadeForTest(t, nil, nil)
	err := f.WriteNode(context.Background(), 99, protocol.Int64Value(1), dependency.StrategyEnforce)
	require.Error(t, err)
	var facadeErr *Error
	require.ErrorAs(t, err, &facadeErr)
	assert.Equal(t, KindUnknownNode, facadeErr.Kind)
}

func TestWriteManyPreservesOrderAndIsolatesFailures(t *testing.T) {
	f := newFacadeForTest(t,
		[]node.Config{
			{GlobalID: 1, ChannelID: 1, DeviceID: 1},
			{GlobalID: 2, ChannelID: 2, DeviceID: 2}, // channel 2 does not exist -> must fail
			{GlobalID: 3, ChannelID: 1, DeviceID: 3},
		},
		[]channel.Config{{ChannelID: 1, Enabled: true, ProtocolKind: protocol.KindMock}},
	)

	reqs := []WriteRequest{
		{GlobalID: 1, Value: protocol.Int64Value(10)},
		{GlobalID: 2, Value: protocol.Int64Value(20)},
		{GlobalID: 3, Value: protocol.Int64Value(30)},
	}
	results := f.WriteMany(context.Background(), reqs)

	require.Len(t, results, 3)
	assert.Equal(t, node.ID(1), results[0].GlobalID)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, node.ID(2), results[1].GlobalID)
	assert.Error(t, results[1].Err, "node 2 targets a channel that was never built")
	assert.Equal(t, node.ID(3), results[2].GlobalID)
	assert.NoError(t, results[2].Err, "node 3's failure-adjacent sibling must not abort it")
}

func TestReadManyPreservesOrderAndIsolatesFailures(t *testing.T) {
	f := newFacadeForTest(t,
		[]node.Config{
			{GlobalID: 1, ChannelID: 1, DeviceID: 1},
			{GlobalID: 2, ChannelID: 99, DeviceID: 2},
		},
		[]channel.Config{{ChannelID: 1, Enabled: true, ProtocolKind: protocol.KindMock}},
	)

	results := f.ReadMany(context.Background(), []node.ID{1, 2})
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
}

func TestBatchReadPreservesOrderAndIsolatesFailures(t *testing.T) {
	f := newFacadeForTest(t, nil,
		[]channel.Config{{ChannelID: 1, Enabled: true, ProtocolKind: protocol.KindMock}},
	)

	items := []BatchReadItem{
		{Name: "a", ChannelID: 1, DeviceID: 1},
		{Name: "b", ChannelID: 99, DeviceID: 1},
	}
	results := f.BatchRead(context.Background(), items)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Name)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "b", results[1].Name)
	assert.Error(t, results[1].Err)
}

func TestExecuteSceneUnknownSceneFails(t *testing.T) {
	f := newFacadeForTest(t, nil, nil)
	err := f.ExecuteScene(context.Background(), "missing")
	require.Error(t, err)
	var facadeErr *Error
	require.ErrorAs(t, err, &facadeErr)
	assert.Equal(t, KindUnknownScene, facadeErr.Kind)
}

func TestShutdownClosesEventBusAndIsIdempotent(t *testing.T) {
	f := newFacadeForTest(t, nil, nil)
	recv := f.SubscribeEvents()
	require.NoError(t, f.Shutdown(context.Background()))
	_, ok := recv.Receive(context.Background())
	assert.False(t, ok, "Receive must report a closed bus after Shutdown")
	require.NoError(t, f.Shutdown(context.Background()))
}
