package demux

import "github.com/asticode/go-astiav"

// Packet is one demuxed compressed packet. Raw points at the demuxer's reused
// packet buffer, so a Packet must be fully consumed before the next ReadPacket.
type Packet struct {
	Raw         *astiav.Packet
	StreamIndex int
	// Pts is the presentation timestamp converted to seconds, 0 when the
	// container provided none.
	Pts float64
}
