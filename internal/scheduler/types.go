// Package scheduler runs the single background worker that periodically
// re-evaluates deferred writes whose dependencies were unmet at submission
// time.
package scheduler

import (
	"time"

	"github.com/google/uuid"
	"github.com/wenchangshou/devicectl/internal/node"
	"github.com/wenchangshou/devicectl/internal/protocol"
)

// defaultTick is how often the worker drains the queue.
const defaultTick = 500 * time.Millisecond

// defaultTimeout bounds how long a task may remain blocked before it is
// dropped with reason Timeout.
const defaultTimeout = 5 * time.Second

// defaultMaxRetries bounds how many re-enqueue attempts a task gets before
// it is dropped with reason Exhausted.
const defaultMaxRetries = 3

// Task is a deferred write awaiting its dependencies.
type Task struct {
	TaskID    string
	GlobalID  node.ID
	Value     protocol.Value
	Attempts  int
	CreatedAt time.Time
}

func newTask(id node.ID, value protocol.Value) Task {
	return Task{
		TaskID:    uuid.NewString(),
		GlobalID:  id,
		Value:     value,
		CreatedAt: time.Now(),
	}
}
