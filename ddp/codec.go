package ddp

import (
	"encoding/binary"

	"github.com/appletalk/ddpcore/common/errors"
)

// HeaderLen is the size in bytes of the extended DDP header
// (spec.md §4.A).
const HeaderLen = 13

// MaxPayload is the largest payload a datagram may carry.
const MaxPayload = 586

// MaxDatagram is HeaderLen + MaxPayload, the largest whole frame.
const MaxDatagram = HeaderLen + MaxPayload

// MaxHops is the TTL ceiling; a frame already at MaxHops is dropped
// rather than forwarded (spec.md §4.G step 5).
const MaxHops = 15

// Header is the in-memory, host-order form of the 13-byte extended DDP
// header. Parse/Put translate to and from the packed big-endian wire
// form; nothing outside this file should touch the packed bytes
// directly (spec.md §9: "byte-order punning...must be replaced by
// explicit bit-field packing/unpacking").
type Header struct {
	Hops     uint8 // 4 bits, [0,15]
	Length   uint16 // 10 bits, total datagram length including header
	Checksum uint16
	DestNet  Net
	SrcNet   Net
	DestNode Node
	SrcNode  Node
	DestPort Port
	SrcPort  Port
	Type     uint8
}

// ParseHeader decodes the first HeaderLen bytes of b into a Header. It
// does not validate Length against len(b); callers apply the §4.G
// trimming rules themselves.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, errors.New("ddp: frame shorter than header").OfKind(errors.KindInvalid)
	}
	word := binary.BigEndian.Uint16(b[0:2])
	var h Header
	h.Hops = uint8(word >> 10 & 0xF)
	h.Length = word & 0x03FF
	h.Checksum = binary.BigEndian.Uint16(b[2:4])
	h.DestNet = Net(binary.BigEndian.Uint16(b[4:6]))
	h.SrcNet = Net(binary.BigEndian.Uint16(b[6:8]))
	h.DestNode = Node(b[8])
	h.SrcNode = Node(b[9])
	h.DestPort = Port(b[10])
	h.SrcPort = Port(b[11])
	h.Type = b[12]
	return h, nil
}

// Put serializes h into the first HeaderLen bytes of b, packing
// hops/length/pad back into the big-endian first word.
func (h Header) Put(b []byte) {
	word := uint16(h.Hops&0xF)<<10 | h.Length&0x03FF
	binary.BigEndian.PutUint16(b[0:2], word)
	binary.BigEndian.PutUint16(b[2:4], h.Checksum)
	binary.BigEndian.PutUint16(b[4:6], uint16(h.DestNet))
	binary.BigEndian.PutUint16(b[6:8], uint16(h.SrcNet))
	b[8] = byte(h.DestNode)
	b[9] = byte(h.SrcNode)
	b[10] = byte(h.DestPort)
	b[11] = byte(h.SrcPort)
	b[12] = h.Type
}

// normalizeFirstWord decodes the packed hops/length/pad word from b
// without modifying b; it is the explicit, alias-safe replacement for
// the original's in-place 16-bit byte swap. Writing its result back
// with putFirstWord and decoding again yields the same values
// (spec.md §8).
func normalizeFirstWord(b []byte) (hops uint8, length uint16) {
	word := binary.BigEndian.Uint16(b[0:2])
	hops = uint8(word >> 10 & 0xF)
	length = word & 0x03FF
	return hops, length
}

func putFirstWord(b []byte, hops uint8, length uint16) {
	word := uint16(hops&0xF)<<10 | length&0x03FF
	binary.BigEndian.PutUint16(b[0:2], word)
}

// Checksum computes the repo-faithful DDP checksum over payload, which
// must be b[4:n] — everything after hops/length/checksum (spec.md
// §4.A). A final sum of 0 is reported as 0xFFFF, since a wire value of
// 0 means "not checksummed".
func Checksum(payload []byte) uint16 {
	var s uint32
	for _, c := range payload {
		s += uint32(c)
		s = (s << 1) | (s >> 15)
		s &= 0xFFFF
	}
	if s == 0 {
		return 0xFFFF
	}
	return uint16(s)
}

// VerifyChecksum reports whether frame's stored checksum is absent (0,
// meaning "skip verification") or matches a recomputed checksum over
// frame[4:length].
func VerifyChecksum(frame []byte, stored uint16, length int) bool {
	if stored == 0 {
		return true
	}
	if length > len(frame) {
		length = len(frame)
	}
	if length < 4 {
		return false
	}
	return Checksum(frame[4:length]) == stored
}
