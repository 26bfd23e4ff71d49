// Package hssequencer implements the protocol.Instance contract for HS
// relay/power sequencer modules. Vendor framing is out of scope for this
// module and is stubbed through the shared in-memory register.
package hssequencer

import (
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/common"
)

const name = "hs_sequencer"

// New validates HS sequencer parameters ({"address": "..."}).
func New(parameters map[string]any) (protocol.Instance, error) {
	if _, err := common.RequireString(name, parameters, "address"); err != nil {
		return nil, err
	}
	return common.NewRegister(name), nil
}
