package ddp

import "github.com/appletalk/ddpcore/common/buf"

// Packet is an in-flight DDP frame: header bytes and payload in one
// contiguous pooled allocation, plus the out-of-band bookkeeping the
// send/receive/forward paths need (spec.md §3 "Packet"). A Packet is
// owned by exactly one holder at a time — a socket's receive queue, the
// link-layer handoff, or a transient forward path — and Release()
// returns its backing buffer to the pool.
type Packet struct {
	buffer *buf.Buffer

	// Dev is the device this packet arrived on (receive path) or will
	// be sent from (send path).
	Dev DeviceID

	// LinkOffset is how many bytes at the front of buffer are reserved
	// for a link-layer header the core does not itself populate; DDP
	// header bytes start at LinkOffset.
	LinkOffset int

	// From is the sender address attached by the receive path, consumed
	// by NetCore.Recv to populate the peer returned alongside the
	// payload (spec.md §4.E recv).
	From SocketAddr
}

// NewPacket allocates a packet sized for a DDP frame of headerPayloadLen
// bytes (header included) plus linkOverhead bytes of link-layer
// header room in front of it.
func NewPacket(headerPayloadLen, linkOverhead int) *Packet {
	b := buf.NewWithSize(int32(headerPayloadLen + linkOverhead))
	b.Extend(int32(headerPayloadLen + linkOverhead))
	return &Packet{buffer: b, LinkOffset: linkOverhead}
}

// FromFrame wraps an already-received frame (no link-layer header
// prefix: the link layer has already stripped it) in a Packet, taking
// ownership of frame.
func FromFrame(frame []byte, dev DeviceID) *Packet {
	b := buf.FromBytes(frame)
	return &Packet{buffer: b, Dev: dev}
}

// DDPBytes returns the DDP header+payload region of the packet,
// skipping any reserved link-layer header room.
func (p *Packet) DDPBytes() []byte {
	return p.buffer.Bytes()[p.LinkOffset:]
}

// Len returns the length of the DDP header+payload region.
func (p *Packet) Len() int {
	return int(p.buffer.Len()) - p.LinkOffset
}

// Release returns the packet's buffer to the pool. Safe to call once;
// callers must not touch the packet afterward.
func (p *Packet) Release() {
	if p == nil {
		return
	}
	p.buffer.Release()
}

// Clone duplicates the packet's DDP bytes into a new, independently
// owned Packet — used for the broadcast fan-out in spec.md §4.F step 6,
// where the original is looped back and a clone goes out over AARP.
func (p *Packet) Clone() *Packet {
	ddp := p.DDPBytes()
	cp := make([]byte, len(ddp))
	copy(cp, ddp)
	np := FromFrame(cp, p.Dev)
	return np
}
