// Package pjlink implements the protocol.Instance contract for PJLink
// projector control. Parameter validation requires only a non-empty "host";
// other connection keys (port, password) are not checked. The wire-level
// PJLink command encoding is stubbed through the shared in-memory register.
package pjlink

import (
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/common"
)

const name = "pjlink"

// New validates PJLink connection parameters ({"host": "...", "port": 4352})
// and returns a protocol.Instance backed by the common in-memory register.
func New(parameters map[string]any) (protocol.Instance, error) {
	if _, err := common.RequireString(name, parameters, "host"); err != nil {
		return nil, err
	}
	return common.NewRegister(name), nil
}
