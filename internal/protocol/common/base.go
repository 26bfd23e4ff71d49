// Package common holds the shared in-memory register backing the thinner
// protocol adapters. Hardware-facing wire formats are out of scope for this
// module; what each adapter owns is parameter validation and
// the common execute/read/write surface, so the registry and resolver
// exercise identical code paths regardless of protocol_kind.
package common

import (
	"context"
	"fmt"
	"sync"

	"github.com/wenchangshou/devicectl/internal/protocol"
)

// Register is a per-adapter-instance map of device_id -> last written
// value, standing in for the vendor wire transaction. Safe for concurrent
// use, though the channel registry already serializes mutating calls.
type Register struct {
	name string

	mu     sync.Mutex
	values map[int64]protocol.Value
}

// NewRegister creates an empty in-memory register labelled name for error
// messages (e.g. "pjlink", "modbus").
func NewRegister(name string) *Register {
	return &Register{name: name, values: make(map[int64]protocol.Value)}
}

// Write stores the value for deviceID. The vendor adapters use it as is;
// only the mock adapter wraps it, adding a simulated delay and forced
// failures.
func (r *Register) Write(_ context.Context, deviceID int64, value protocol.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[deviceID] = value
	return nil
}

// Read returns the last written value for deviceID, or a ProtocolError if
// the device was never written.
func (r *Register) Read(_ context.Context, deviceID int64) (protocol.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[deviceID]
	if !ok {
		return protocol.Value{}, protocol.NewProtocolError(
			fmt.Sprintf("%s: device %d has no recorded value", r.name, deviceID), nil)
	}
	return v, nil
}

// Execute has no vendor commands beyond read/write in the common stub;
// unrecognised commands report NotSupported rather than silently no-op'ing.
func (r *Register) Execute(_ context.Context, command string, _ map[string]any) (protocol.Value, error) {
	return protocol.Value{}, fmt.Errorf("%s: command %q: %w", r.name, command, protocol.ErrNotSupported)
}

// RequireString extracts a required string parameter, reporting
// ErrInvalidParameters with the protocol name and key when absent.
func RequireString(name string, parameters map[string]any, key string) (string, error) {
	raw, ok := parameters[key]
	if !ok {
		return "", fmt.Errorf("%s: missing parameter %q: %w", name, key, protocol.ErrInvalidParameters)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s: parameter %q must be a non-empty string: %w", name, key, protocol.ErrInvalidParameters)
	}
	return s, nil
}

// OptionalInt extracts an optional integer parameter (JSON numbers decode
// as float64), falling back to def when absent.
func OptionalInt(parameters map[string]any, key string, def int64) int64 {
	raw, ok := parameters[key]
	if !ok {
		return def
	}
	switch v := raw.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return def
	}
}
