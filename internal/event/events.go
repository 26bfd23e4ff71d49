// Package event implements the process-internal broadcast of state-change
// notifications: a bounded, multi-producer multi-consumer bus where slow
// subscribers lose intermediate events and receive a lag marker rather than
// blocking publishers.
package event

import "github.com/wenchangshou/devicectl/internal/protocol"

// Event is the tagged variant over every notification the bus carries.
// Lagged is bus-internal and never produced by domain components.
type Event interface {
	eventMarker()
}

// NodeStateChanged is emitted whenever a node's current value or online
// flag transitions; Old is always distinct from New.
type NodeStateChanged struct {
	GlobalID int64
	Old      protocol.Value
	New      protocol.Value
	Field    string // "value" or "online"
}

func (NodeStateChanged) eventMarker() {}

// ChannelConnected is emitted when a channel's connectivity marker
// transitions from disconnected/unknown to connected.
type ChannelConnected struct {
	ChannelID int64
}

func (ChannelConnected) eventMarker() {}

// ChannelDisconnected is emitted on every protocol error observed by the
// channel registry.
type ChannelDisconnected struct {
	ChannelID int64
	Reason    string
}

func (ChannelDisconnected) eventMarker() {}

// TaskCompleted is emitted exactly once per deferred task.
type TaskCompleted struct {
	TaskID  string
	Success bool
	Reason  string // "", "Timeout", "Exhausted", "Shutdown", "DependencyCycle"
}

func (TaskCompleted) eventMarker() {}

// SceneStarted is emitted at scene entry.
type SceneStarted struct {
	Name string
}

func (SceneStarted) eventMarker() {}

// SceneCompleted is emitted at scene exit; Success is the conjunction of
// per-step successes.
type SceneCompleted struct {
	Name    string
	Success bool
}

func (SceneCompleted) eventMarker() {}

// Lagged is delivered to a subscriber in place of events it could not keep
// up with; Dropped counts how many events were lost since the last
// successful delivery to this subscriber.
type Lagged struct {
	Dropped int
}

func (Lagged) eventMarker() {}
