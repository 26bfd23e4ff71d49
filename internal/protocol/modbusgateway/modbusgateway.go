// Package modbusgateway implements the protocol.Instance contract for
// devices reached through a Modbus/TCP-to-RTU gateway, where a single
// gateway host multiplexes several downstream slave addresses. Gateway
// framing is stubbed through the shared in-memory register.
package modbusgateway

import (
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/common"
)

const name = "modbus_gateway"

// New validates gateway connection parameters
// ({"gateway_host": "...", "gateway_port": 502, "slave_id": 1}).
func New(parameters map[string]any) (protocol.Instance, error) {
	if _, err := common.RequireString(name, parameters, "gateway_host"); err != nil {
		return nil, err
	}
	return common.NewRegister(name), nil
}
