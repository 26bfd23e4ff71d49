// Package modbus implements the protocol.Instance contract for direct
// Modbus TCP/RTU device control. Parameter validation requires only a
// non-empty "host"; port and unit_id are not checked. Register-level
// encoding is stubbed through the shared in-memory register.
package modbus

import (
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/common"
)

const name = "modbus"

// New validates Modbus connection parameters
// ({"host": "...", "port": 502, "unit_id": 1}).
func New(parameters map[string]any) (protocol.Instance, error) {
	if _, err := common.RequireString(name, parameters, "host"); err != nil {
		return nil, err
	}
	return common.NewRegister(name), nil
}
