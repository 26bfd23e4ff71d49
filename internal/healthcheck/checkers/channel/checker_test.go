package channelchecker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenchangshou/devicectl/internal/channel"
	"github.com/wenchangshou/devicectl/internal/healthcheck"
	"github.com/wenchangshou/devicectl/internal/protocol"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubObserver struct {
	statuses []channel.Status
}

func (o *stubObserver) StatusAllChannels() []channel.Status {
	return o.statuses
}

func TestListChecksMapsConnectivityToStatus(t *testing.T) {
	observer := &stubObserver{statuses: []channel.Status{
		{ChannelID: 2, ProtocolKind: protocol.KindMock, Connectivity: channel.ConnectivityConnected, UpdatedAt: time.Now()},
		{ChannelID: 1, ProtocolKind: protocol.KindMock, Connectivity: channel.ConnectivityDisconnected, LastError: "timeout"},
		{ChannelID: 3, ProtocolKind: protocol.KindMock, Connectivity: channel.ConnectivityUnknown},
	}}
	c := NewChecker(newTestLogger(), observer)

	checks := c.ListChecks(context.Background())
	require.Len(t, checks, 3)

	// Sorted by channel ID ascending.
	assert.Equal(t, healthcheck.StatusError, checks[0].Status)
	assert.Equal(t, "timeout", checks[0].Detail)
	assert.Equal(t, healthcheck.StatusOK, checks[1].Status)
	assert.Equal(t, healthcheck.StatusUnknown, checks[2].Status)
}

func TestListChecksWithNoChannelsReturnsEmpty(t *testing.T) {
	c := NewChecker(newTestLogger(), &stubObserver{})
	checks := c.ListChecks(context.Background())
	assert.Empty(t, checks)
}

func TestListChecksWithNilObserverWarns(t *testing.T) {
	c := NewChecker(newTestLogger(), nil)
	checks := c.ListChecks(context.Background())
	require.Len(t, checks, 1)
	assert.Equal(t, healthcheck.StatusWarn, checks[0].Status)
}

func TestListChecksWithCancelledContextReturnsEmpty(t *testing.T) {
	c := NewChecker(newTestLogger(), &stubObserver{statuses: []channel.Status{
		{ChannelID: 1, Connectivity: channel.ConnectivityConnected},
	}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	checks := c.ListChecks(ctx)
	assert.Empty(t, checks)
}
