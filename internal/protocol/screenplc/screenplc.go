// Package screenplc implements the protocol.Instance contract for a
// motorized-screen PLC (rack/slot addressed, Siemens-style). PLC tag
// encoding is stubbed through the shared in-memory register.
package screenplc

import (
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/common"
)

const name = "screen_plc"

// New validates screen PLC parameters ({"host": "...", "rack": 0, "slot": 1}).
func New(parameters map[string]any) (protocol.Instance, error) {
	if _, err := common.RequireString(name, parameters, "host"); err != nil {
		return nil, err
	}
	return common.NewRegister(name), nil
}
