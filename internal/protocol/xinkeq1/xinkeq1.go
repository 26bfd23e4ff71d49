// Package xinkeq1 implements the protocol.Instance contract for the Xinke
// Q1 power sequencer line. Vendor framing is out of scope for this module
// and is stubbed through the shared in-memory register.
package xinkeq1

import (
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/common"
)

const name = "xinke_q1"

// New validates Xinke Q1 connection parameters ({"address": "..."}).
func New(parameters map[string]any) (protocol.Instance, error) {
	if _, err := common.RequireString(name, parameters, "address"); err != nil {
		return nil, err
	}
	return common.NewRegister(name), nil
}
