// Package novastar implements the protocol.Instance contract for Novastar
// LED-wall sending/receiving card control. Vendor SDK framing is stubbed
// through the shared in-memory register.
package novastar

import (
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/common"
)

const name = "novastar"

// New validates Novastar connection parameters ({"host": "...", "port": 5200}).
func New(parameters map[string]any) (protocol.Instance, error) {
	if _, err := common.RequireString(name, parameters, "host"); err != nil {
		return nil, err
	}
	return common.NewRegister(name), nil
}
