// Package custom implements the protocol.Instance contract for operator-
// defined, site-specific integrations that don't warrant a dedicated
// package. It accepts any opaque parameters map without validation and is
// backed by the shared in-memory register: read/write store and return
// values per device, while execute and call_method report NotSupported.
package custom

import (
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/common"
)

const name = "custom"

// New accepts any parameters map and ignores its contents.
func New(_ map[string]any) (protocol.Instance, error) {
	return common.NewRegister(name), nil
}
