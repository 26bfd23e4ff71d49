// Package channel owns every protocol instance and serializes access per
// channel: concurrent dispatches on the same channel are serialized,
// dispatches on different channels run in parallel.
package channel

import (
	"time"

	"github.com/wenchangshou/devicectl/internal/protocol"
)

// ID is a positive integer, unique and immutable after startup.
type ID int64

// Connectivity is a channel's observed reachability marker.
type Connectivity string

const (
	ConnectivityUnknown      Connectivity = "unknown"
	ConnectivityConnected    Connectivity = "connected"
	ConnectivityDisconnected Connectivity = "disconnected"
)

// Config is the immutable-after-load configuration for one channel.
type Config struct {
	ChannelID          ID
	Enabled            bool
	ProtocolKind       protocol.Kind
	Description        string
	Parameters         map[string]any
	DispatchTimeoutMS  int64 // 0 means use the registry default
	NotifyOnDisconnect bool
}

// Status is the read-only snapshot returned by a status query.
type Status struct {
	ChannelID    ID
	ProtocolKind protocol.Kind
	Connectivity Connectivity
	LastError    string
	UpdatedAt    time.Time
}
