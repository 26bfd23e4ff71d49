package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenchangshou/devicectl/internal/event"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingTarget struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (t *recordingTarget) Notify(ctx context.Context, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, message)
	return t.err
}

func (t *recordingTarget) received() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.messages))
	copy(out, t.messages)
	return out
}

func TestSinkForwardsChannelDisconnected(t *testing.T) {
	bus := event.New(newTestLogger())
	target := &recordingTarget{}
	sink := New(newTestLogger(), bus, target)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink.Start(ctx)
	defer func() { require.NoError(t, sink.Shutdown(context.Background())) }()

	bus.Publish(event.ChannelDisconnected{ChannelID: 1, Reason: "timeout"})

	assert.Eventually(t, func() bool { return len(target.received()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, target.received()[0], "channel 1 disconnected")
}

func TestSinkSkipsSuccessfulTaskAndSceneEvents(t *testing.T) {
	bus := event.New(newTestLogger())
	target := &recordingTarget{}
	sink := New(newTestLogger(), bus, target)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink.Start(ctx)
	defer func() { require.NoError(t, sink.Shutdown(context.Background())) }()

	bus.Publish(event.TaskCompleted{TaskID: "t1", Success: true})
	bus.Publish(event.SceneCompleted{Name: "evening", Success: true})
	bus.Publish(event.TaskCompleted{TaskID: "t2", Success: false, Reason: "Timeout"})

	assert.Eventually(t, func() bool { return len(target.received()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, target.received()[0], "t2")
}

func TestSinkWithNoTargetsNeverSubscribes(t *testing.T) {
	bus := event.New(newTestLogger())
	sink := New(newTestLogger(), bus)

	sink.Start(context.Background())
	require.NoError(t, sink.Shutdown(context.Background()))
}

func TestSinkDeliversToEveryTarget(t *testing.T) {
	bus := event.New(newTestLogger())
	a, b := &recordingTarget{}, &recordingTarget{}
	sink := New(newTestLogger(), bus, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink.Start(ctx)
	defer func() { require.NoError(t, sink.Shutdown(context.Background())) }()

	bus.Publish(event.ChannelDisconnected{ChannelID: 5, Reason: "down"})

	assert.Eventually(t, func() bool {
		return len(a.received()) == 1 && len(b.received()) == 1
	}, time.Second, 5*time.Millisecond)
}
