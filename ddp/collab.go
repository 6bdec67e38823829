package ddp

import "context"

// DeliveryResult is the outcome of an AARP-mediated transmission.
type DeliveryResult int

const (
	Delivered DeliveryResult = iota
	Dropped
)

// LinkLayer is the external collaborator that performs link-layer send/
// receive registration (spec.md §1 "Out of scope / external
// collaborators"). The core never constructs frames on the wire itself
// beyond the 13-byte DDP header plus payload; LinkLayer is responsible
// for SNAP encapsulation (SNAP id 08:00:07:80:9B) and for invoking the
// registered receive callback when a frame demuxes to this protocol.
type LinkLayer interface {
	// SendDDP hands a fully-formed DDP frame (header+payload, host-
	// order fields already normalized to wire order) to dev for
	// transmission to the given hardware address.
	SendDDP(ctx context.Context, dev DeviceID, frame []byte, targetHW HardwareAddr) error

	// RegisterSNAPClient installs recv as the callback for inbound
	// frames demuxed to the given SNAP client id (DDP's stable
	// identifier within the SNAP organizational space).
	RegisterSNAPClient(id uint32, recv func(dev DeviceID, frame []byte)) error
}

// AARP is the external collaborator resolving (net, node) to a
// hardware address and carrying probe/send traffic (spec.md §1, §4.B,
// §4.F step 9).
type AARP interface {
	// SendProbe emits one AARP probe for addr on dev, used during
	// interface address assignment (spec.md §4.B).
	SendProbe(ctx context.Context, dev DeviceID, addr NetAddr) error

	// SendDDP resolves target's hardware address on dev and hands off
	// frame, or reports Dropped if resolution/transmission failed.
	// AARP is presumed to queue and retry internally; the core never
	// blocks or propagates Dropped to the sending socket (spec.md §4.F
	// step 9, §7 propagation policy).
	SendDDP(ctx context.Context, dev DeviceID, frame []byte, target NetAddr) (DeliveryResult, error)
}

// DeviceID names an Ethernet device the way the link layer and AARP
// collaborators do (e.g. "eth0").
type DeviceID string

// HardwareAddr is a 6-byte Ethernet MAC.
type HardwareAddr [6]byte

// AARPMulticastMAC is the multicast MAC AARP resolution requests are
// sent to (spec.md §6).
var AARPMulticastMAC = HardwareAddr{0x09, 0x00, 0x00, 0xFF, 0xFF, 0xFF}

// DeviceRegistry is the external Ethernet device registry collaborator
// (spec.md §1: "dev_by_name", "dev_multicast_add").
type DeviceRegistry interface {
	// DevByName resolves a device name to its hardware address and MTU
	// overhead (link-layer header size added on top of the DDP frame).
	DevByName(name DeviceID) (hw HardwareAddr, linkOverhead int, ok bool)

	// MulticastAdd joins dev to the multicast group mac, used to
	// install the AARP multicast MAC on SetIfaceAddr (spec.md §4.H).
	MulticastAdd(dev DeviceID, mac HardwareAddr) error
}
