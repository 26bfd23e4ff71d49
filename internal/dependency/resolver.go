package dependency

import (
	"context"
	"fmt"

	"github.com/wenchangshou/devicectl/internal/node"
	"github.com/wenchangshou/devicectl/internal/protocol"
)

// NodeWriter performs the write+dispatch for a node once its own
// dependencies are satisfied. It is implemented by the controller facade
// so the resolver can recursively request auto-fulfillment of a referenced
// node without importing the facade package.
type NodeWriter interface {
	WriteNode(ctx context.Context, id node.ID, value protocol.Value, strategy Strategy) error
}

// TaskEnqueuer hands an unmet write off to the task scheduler under
// strategy=queue. It returns the enqueued task's ID.
type TaskEnqueuer interface {
	Enqueue(id node.ID, value protocol.Value) string
}

// Resolver evaluates dependency predicates against node.Manager state.
type Resolver struct {
	nodes     *node.Manager
	writer    NodeWriter
	scheduler TaskEnqueuer
}

// New creates a Resolver. writer and scheduler may be nil if the caller
// never exercises the auto or queue strategies respectively.
func New(nodes *node.Manager, writer NodeWriter, scheduler TaskEnqueuer) *Resolver {
	return &Resolver{nodes: nodes, writer: writer, scheduler: scheduler}
}

// SetWriter binds the node writer after construction, for the common case
// where the writer (the controller facade) itself depends on the resolver.
func (r *Resolver) SetWriter(writer NodeWriter) {
	r.writer = writer
}

// SetScheduler binds the task enqueuer after construction.
func (r *Resolver) SetScheduler(scheduler TaskEnqueuer) {
	r.scheduler = scheduler
}

// Resolve evaluates id's dependency predicates for an intended value under
// strategy. Evaluation order follows configuration order; predicates are a
// conjunction.
func (r *Resolver) Resolve(ctx context.Context, id node.ID, value protocol.Value, strategy Strategy) (Outcome, error) {
	switch strategy {
	case StrategyEnforce:
		unmet, err := r.unmetPredicates(id)
		if err != nil {
			return Outcome{}, err
		}
		if len(unmet) == 0 {
			return Outcome{Result: ResolvedReady}, nil
		}
		return Outcome{Result: ResolvedBlocked, Unmet: unmet}, nil

	case StrategyAuto:
		visited := map[node.ID]bool{id: true}
		if err := r.autoFulfill(ctx, id, visited, 0); err != nil {
			return Outcome{}, err
		}
		unmet, err := r.unmetPredicates(id)
		if err != nil {
			return Outcome{}, err
		}
		if len(unmet) == 0 {
			return Outcome{Result: ResolvedReady}, nil
		}
		return Outcome{Result: ResolvedBlocked, Unmet: unmet}, nil

	case StrategyQueue:
		unmet, err := r.unmetPredicates(id)
		if err != nil {
			return Outcome{}, err
		}
		if len(unmet) == 0 {
			return Outcome{Result: ResolvedReady}, nil
		}
		if r.scheduler == nil {
			return Outcome{}, fmt.Errorf("dependency: queue strategy requires a scheduler")
		}
		taskID := r.scheduler.Enqueue(id, value)
		return Outcome{Result: ResolvedBlocked, Unmet: unmet, TaskID: taskID}, nil

	default:
		return Outcome{}, fmt.Errorf("dependency: unknown strategy %q", strategy)
	}
}

// unmetPredicates evaluates id's predicates in configuration order,
// returning the ref_id of every predicate currently unsatisfied.
func (r *Resolver) unmetPredicates(id node.ID) ([]node.ID, error) {
	cfg, ok := r.nodes.Config(id)
	if !ok {
		return nil, fmt.Errorf("unknown node %d", id)
	}

	var unmet []node.ID
	for _, pred := range cfg.Dependency {
		satisfied, err := r.predicateSatisfied(pred)
		if err != nil {
			return nil, err
		}
		if !satisfied {
			unmet = append(unmet, pred.RefID)
		}
	}
	return unmet, nil
}

func (r *Resolver) predicateSatisfied(pred node.Predicate) (bool, error) {
	state, ok := r.nodes.State(pred.RefID)
	if !ok {
		return false, fmt.Errorf("dependency references unknown node %d", pred.RefID)
	}
	if pred.RequiresOnline != nil {
		return state.Online == *pred.RequiresOnline, nil
	}
	if pred.EqualsValue != nil {
		return state.CurrentValue.Equal(*pred.EqualsValue), nil
	}
	return true, nil
}

// autoFulfill recursively brings every unmet value-predicate of id to its
// required value. Online predicates are never auto-fulfilled -- they only
// block, since they reflect physical reality rather than a settable value.
func (r *Resolver) autoFulfill(ctx context.Context, id node.ID, visited map[node.ID]bool, depth int) error {
	if depth >= maxAutoDepth {
		return &ResolverError{Kind: ErrorCycle, Message: fmt.Sprintf("max auto-fulfillment depth (%d) exceeded at node %d", maxAutoDepth, id)}
	}

	cfg, ok := r.nodes.Config(id)
	if !ok {
		return fmt.Errorf("unknown node %d", id)
	}

	for _, pred := range cfg.Dependency {
		if pred.Strategy != node.StrategyAuto {
			continue
		}
		if pred.RequiresOnline != nil {
			continue // online predicates are never auto-fulfilled
		}
		if pred.EqualsValue == nil {
			continue
		}
		satisfied, err := r.predicateSatisfied(pred)
		if err != nil {
			return err
		}
		if satisfied {
			continue
		}
		if visited[pred.RefID] {
			return &ResolverError{Kind: ErrorCycle, Message: fmt.Sprintf("cycle detected at node %d", pred.RefID)}
		}
		if r.writer == nil {
			return fmt.Errorf("dependency: auto strategy requires a node writer")
		}
		visited[pred.RefID] = true
		// Bring the referenced node's own dependencies into line first --
		// this is the recursive part of auto-fulfillment -- before issuing
		// the write that satisfies this predicate.
		if err := r.autoFulfill(ctx, pred.RefID, visited, depth+1); err != nil {
			return err
		}
		if err := r.writer.WriteNode(ctx, pred.RefID, *pred.EqualsValue, StrategyEnforce); err != nil {
			return err
		}
	}
	return nil
}
