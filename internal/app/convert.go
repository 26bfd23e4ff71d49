// Package app is Process Assembly: it wires every component together with
// go.uber.org/fx and owns construction/teardown order.
package app

import (
	"fmt"

	"github.com/wenchangshou/devicectl/internal/channel"
	"github.com/wenchangshou/devicectl/internal/config"
	"github.com/wenchangshou/devicectl/internal/node"
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/scene"
)

func toChannelConfigs(in []config.ChannelConfig) []channel.Config {
	out := make([]channel.Config, 0, len(in))
	for _, c := range in {
		out = append(out, channel.Config{
			ChannelID:          channel.ID(c.ChannelID),
			Enabled:            c.Enabled,
			ProtocolKind:       protocol.Kind(c.ProtocolKind),
			Description:        c.Description,
			Parameters:         c.Parameters,
			DispatchTimeoutMS:  c.DispatchTimeoutMS,
			NotifyOnDisconnect: c.NotifyOnDisconnect,
		})
	}
	return out
}

func toNodeConfigs(in []config.NodeConfig) ([]node.Config, error) {
	out := make([]node.Config, 0, len(in))
	for _, n := range in {
		deps, err := toPredicates(n.Dependency)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", n.GlobalID, err)
		}
		out = append(out, node.Config{
			GlobalID:   node.ID(n.GlobalID),
			ChannelID:  n.ChannelID,
			DeviceID:   n.DeviceID,
			Alias:      n.Alias,
			Scale:      n.Scale,
			Dependency: deps,
		})
	}
	return out, nil
}

func toPredicates(in []config.DependencyPredicate) ([]node.Predicate, error) {
	out := make([]node.Predicate, 0, len(in))
	for _, p := range in {
		pred := node.Predicate{
			RefID:          node.ID(p.RefID),
			RequiresOnline: p.RequiresOnline,
			Strategy:       node.DependencyStrategy(p.Strategy),
		}
		if p.EqualsValue != nil {
			value, err := toValue(*p.EqualsValue)
			if err != nil {
				return nil, err
			}
			pred.EqualsValue = &value
		}
		out = append(out, pred)
	}
	return out, nil
}

// toValue converts a JSON-decoded any (float64, bool) into a protocol.Value.
// Integral floats decode as ValueInt so equals_value predicates compare
// cleanly against integer device readings.
func toValue(raw any) (protocol.Value, error) {
	switch v := raw.(type) {
	case bool:
		return protocol.BoolValue(v), nil
	case float64:
		if v == float64(int64(v)) {
			return protocol.Int64Value(int64(v)), nil
		}
		return protocol.FloatValue(v), nil
	default:
		return protocol.Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

func toSceneConfigs(in []config.SceneConfig) ([]scene.Config, error) {
	out := make([]scene.Config, 0, len(in))
	for _, s := range in {
		steps := make([]scene.Step, 0, len(s.Steps))
		for _, step := range s.Steps {
			value, err := toValue(step.TargetValue)
			if err != nil {
				return nil, fmt.Errorf("scene %q step %d: %w", s.Name, step.GlobalID, err)
			}
			steps = append(steps, scene.Step{
				GlobalID:     node.ID(step.GlobalID),
				TargetValue:  value,
				DelayAfterMS: step.DelayAfterMS,
			})
		}
		out = append(out, scene.Config{
			Name:         s.Name,
			AbortOnError: s.AbortOnError,
			CronExpr:     s.CronExpr,
			Steps:        steps,
		})
	}
	return out, nil
}
