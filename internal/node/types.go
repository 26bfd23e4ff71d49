// Package node holds every node's configuration and runtime state, keyed
// by global ID, and emits state-change events on transition.
package node

import (
	"time"

	"github.com/wenchangshou/devicectl/internal/protocol"
)

// ID identifies a node; unique across the whole configuration.
type ID int64

// DependencyStrategy names how a dependency predicate is resolved when
// unmet at write time.
type DependencyStrategy string

const (
	StrategyAuto   DependencyStrategy = "auto"
	StrategyManual DependencyStrategy = "manual"
)

// Predicate gates a write on another node's observed state. Exactly one of
// EqualsValue or RequiresOnline is set.
type Predicate struct {
	RefID          ID
	EqualsValue    *protocol.Value
	RequiresOnline *bool
	Strategy       DependencyStrategy
}

// Config is the immutable-after-load configuration for one node.
type Config struct {
	GlobalID   ID
	ChannelID  int64
	DeviceID   int64
	Alias      string
	Scale      *float64
	Dependency []Predicate
}

// State is the mutable runtime state tracked for one node.
type State struct {
	CurrentValue protocol.Value
	Online       bool
	LastUpdate   time.Time
}

// Snapshot pairs a node's config and state for read APIs.
type Snapshot struct {
	Config Config
	State  State
}
