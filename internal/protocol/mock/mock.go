// Package mock implements protocol.Instance entirely in memory. It is the
// reference adapter: every capability is fully simulated, including an
// optional artificial dispatch delay and forced-failure toggle used to
// exercise the channel registry's serialization and connectivity-marker
// behavior in tests.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/common"
)

// Parameters configures a mock instance:
//
//	{"delay_ms": 1000, "fail_writes": false, "initial": {"1": 0}}
type Parameters struct {
	DelayMS    int64
	FailWrites bool
	Initial    map[int64]protocol.Value
}

// Instance is the in-memory mock protocol adapter.
type Instance struct {
	*common.Register

	mu         sync.Mutex
	delay      time.Duration
	failWrites bool
	calls      []string
}

// New constructs a mock Instance. parameters["delay_ms"] simulates I/O
// latency; parameters["fail_writes"] forces every Write to return a
// ProtocolError, used to drive connectivity-marker transitions in tests.
func New(parameters map[string]any) (protocol.Instance, error) {
	reg := common.NewRegister("mock")
	inst := &Instance{
		Register: reg,
		delay:    time.Duration(common.OptionalInt(parameters, "delay_ms", 0)) * time.Millisecond,
	}
	if fail, ok := parameters["fail_writes"].(bool); ok {
		inst.failWrites = fail
	}
	if initial, ok := parameters["initial"].(map[string]any); ok {
		for k, v := range initial {
			var deviceID int64
			if _, err := fmt.Sscanf(k, "%d", &deviceID); err != nil {
				continue
			}
			if f, ok := v.(float64); ok {
				_ = reg.Write(context.Background(), deviceID, protocol.FloatValue(f))
			}
		}
	}
	return inst, nil
}

func (i *Instance) sleep(ctx context.Context) error {
	if i.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(i.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Write simulates a hardware write after the configured delay.
func (i *Instance) Write(ctx context.Context, deviceID int64, value protocol.Value) error {
	if err := i.sleep(ctx); err != nil {
		return err
	}
	i.mu.Lock()
	i.calls = append(i.calls, fmt.Sprintf("write(%d,%s)", deviceID, value))
	fail := i.failWrites
	i.mu.Unlock()
	if fail {
		return protocol.NewProtocolError("mock: simulated write failure", nil)
	}
	return i.Register.Write(ctx, deviceID, value)
}

// Read simulates a hardware read after the configured delay.
func (i *Instance) Read(ctx context.Context, deviceID int64) (protocol.Value, error) {
	if err := i.sleep(ctx); err != nil {
		return protocol.Value{}, err
	}
	return i.Register.Read(ctx, deviceID)
}

// CallMethod supports a single diagnostic method, "ping", returning 1.
func (i *Instance) CallMethod(_ context.Context, name string, _ map[string]any) (protocol.Value, error) {
	if name != "ping" {
		return protocol.Value{}, protocol.ErrNotSupported
	}
	return protocol.Int64Value(1), nil
}

// DescribeMethods lists the mock adapter's only custom method.
func (i *Instance) DescribeMethods() []protocol.Method {
	return []protocol.Method{{Name: "ping", Description: "returns 1 if the adapter is reachable"}}
}

// ConnectivityProbe always succeeds unless writes are forced to fail.
func (i *Instance) ConnectivityProbe(_ context.Context) error {
	i.mu.Lock()
	fail := i.failWrites
	i.mu.Unlock()
	if fail {
		return protocol.NewProtocolError("mock: simulated probe failure", nil)
	}
	return nil
}

// Calls returns the ordered log of write invocations, used by tests to
// assert per-channel serialization ordering.
func (i *Instance) Calls() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, len(i.calls))
	copy(out, i.calls)
	return out
}
