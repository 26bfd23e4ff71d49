// Package dependency evaluates a node's dependency predicates against
// observed state and, depending on strategy, either reports whether a write
// is ready, recursively auto-fulfills unmet predicates, or hands the write
// off to the task scheduler as a deferred task.
package dependency

import (
	"fmt"

	"github.com/wenchangshou/devicectl/internal/node"
)

// Strategy selects how an unmet predicate is handled.
type Strategy string

const (
	StrategyEnforce Strategy = "enforce"
	StrategyAuto    Strategy = "auto"
	StrategyQueue   Strategy = "queue"
)

// maxAutoDepth bounds auto-fulfillment recursion chains.
const maxAutoDepth = 8

// Result tags the outcome of a resolve call.
type Result string

const (
	ResolvedReady   Result = "ready"
	ResolvedBlocked Result = "blocked"
)

// Outcome is returned by Resolve.
type Outcome struct {
	Result Result
	Unmet  []node.ID
	TaskID string // populated when strategy=queue enqueued a DeferredTask
}

// ErrorKind tags a ResolverError.
type ErrorKind string

const (
	ErrorCycle ErrorKind = "Cycle"
)

// ResolverError is returned when resolution itself fails, as opposed to
// predicates simply being unmet.
type ResolverError struct {
	Kind    ErrorKind
	Message string
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("resolver error (%s): %s", e.Kind, e.Message)
}
