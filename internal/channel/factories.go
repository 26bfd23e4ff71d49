package channel

import (
	"github.com/wenchangshou/devicectl/internal/protocol"
	"github.com/wenchangshou/devicectl/internal/protocol/computercontrol"
	"github.com/wenchangshou/devicectl/internal/protocol/custom"
	"github.com/wenchangshou/devicectl/internal/protocol/hssequencer"
	"github.com/wenchangshou/devicectl/internal/protocol/mock"
	"github.com/wenchangshou/devicectl/internal/protocol/modbus"
	"github.com/wenchangshou/devicectl/internal/protocol/modbusgateway"
	"github.com/wenchangshou/devicectl/internal/protocol/novastar"
	"github.com/wenchangshou/devicectl/internal/protocol/pjlink"
	"github.com/wenchangshou/devicectl/internal/protocol/screenplc"
	"github.com/wenchangshou/devicectl/internal/protocol/xinkeq1"
)

// DefaultFactories returns the built-in protocol_kind to protocol.Factory
// mapping. Every entry in protocol.Kinds must have a factory here.
func DefaultFactories() map[protocol.Kind]protocol.Factory {
	return map[protocol.Kind]protocol.Factory{
		protocol.KindMock:            mock.New,
		protocol.KindPJLink:          pjlink.New,
		protocol.KindModbus:          modbus.New,
		protocol.KindModbusGateway:   modbusgateway.New,
		protocol.KindXinkeQ1:         xinkeq1.New,
		protocol.KindComputerControl: computercontrol.New,
		protocol.KindScreenPLC:       screenplc.New,
		protocol.KindHSSequencer:     hssequencer.New,
		protocol.KindNovastar:        novastar.New,
		protocol.KindCustom:          custom.New,
	}
}
