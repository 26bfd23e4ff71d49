package channelchecker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/wenchangshou/devicectl/internal/channel"
	"github.com/wenchangshou/devicectl/internal/healthcheck"
)

const checkTypeChannelConnection = "channel.connection"

// ConnectionObserver reads runtime channel connectivity.
type ConnectionObserver interface {
	StatusAllChannels() []channel.Status
}

// Checker evaluates channel connectivity health checks.
type Checker struct {
	logger   *slog.Logger
	observer ConnectionObserver
}

// NewChecker creates a channel health checker.
func NewChecker(log *slog.Logger, observer ConnectionObserver) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger:   log.With(slog.String("checker", "healthcheck_channel")),
		observer: observer,
	}
}

// ListChecks evaluates every configured channel's connectivity.
func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return []healthcheck.CheckResult{}
	}
	if c.observer == nil {
		if c.logger != nil {
			c.logger.Warn("channel healthcheck dependency is unavailable")
		}
		return []healthcheck.CheckResult{
			{
				ID:      checkTypeChannelConnection + ".service",
				Type:    checkTypeChannelConnection,
				Status:  healthcheck.StatusWarn,
				Summary: "Channel checker service is not available.",
				Detail:  "connection observer is nil",
			},
		}
	}

	statuses := c.observer.StatusAllChannels()
	if len(statuses) == 0 {
		return []healthcheck.CheckResult{}
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].ChannelID < statuses[j].ChannelID
	})

	checks := make([]healthcheck.CheckResult, 0, len(statuses))
	for _, status := range statuses {
		item := healthcheck.CheckResult{
			ID:       fmt.Sprintf("%s.%d", checkTypeChannelConnection, status.ChannelID),
			Type:     checkTypeChannelConnection,
			Subtitle: fmt.Sprintf("%s (%d)", status.ProtocolKind, status.ChannelID),
			Status:   healthcheck.StatusError,
			Summary:  fmt.Sprintf("Channel %d connection is down.", status.ChannelID),
			Metadata: map[string]any{
				"channel_id":    status.ChannelID,
				"protocol_kind": status.ProtocolKind,
				"connectivity":  status.Connectivity,
			},
		}
		if !status.UpdatedAt.IsZero() {
			item.Metadata["updated_at"] = status.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		switch status.Connectivity {
		case channel.ConnectivityConnected:
			item.Status = healthcheck.StatusOK
			item.Summary = fmt.Sprintf("Channel %d is connected.", status.ChannelID)
		case channel.ConnectivityUnknown:
			item.Status = healthcheck.StatusUnknown
			item.Summary = fmt.Sprintf("Channel %d has not been probed yet.", status.ChannelID)
		default:
			if status.LastError != "" {
				item.Summary = fmt.Sprintf("Channel %d connection failed.", status.ChannelID)
				item.Detail = status.LastError
			}
		}
		checks = append(checks, item)
	}
	return checks
}
