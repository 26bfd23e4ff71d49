// Package computercontrol implements the protocol.Instance contract for
// controlling a managed computer node (power state, wake-on-LAN, agent
// heartbeat). The agent wire protocol is out of scope for this module
// and is stubbed through the shared in-memory register.
package computercontrol

import (
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/common"
)

const name = "computer_control"

// New validates computer-control parameters ({"host": "...", "mac": "..."}).
func New(parameters map[string]any) (protocol.Instance, error) {
	if _, err := common.RequireString(name, parameters, "host"); err != nil {
		return nil, err
	}
	return common.NewRegister(name), nil
}
