// Package scene executes and schedules named, ordered sequences of node
// writes.
package scene

import (
	"github.com/wenchangshou/devicectl/internal/node"
	"github.com/wenchangshou/devicectl/internal/protocol"
)

// Step is one write within a scene.
type Step struct {
	GlobalID     node.ID
	TargetValue  protocol.Value
	DelayAfterMS int64
}

// Config describes a named scene.
type Config struct {
	Name         string
	AbortOnError bool
	CronExpr     string // empty means the scene is only invoked on demand
	Steps        []Step
}
