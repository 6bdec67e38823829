// Package linklayer provides Fake, an in-memory ddp.LinkLayer and
// ddp.AARP double used by ddp's test suite and wired by cmd/atalkd as
// its placeholder collaborator (real link-layer transmission is out of
// this core's scope per spec.md §1). It opens no socket; it only
// carries the AF_PACKET/SNAP constants and a BPF multicast-MAC
// classifier a real link layer would use. It is grounded on the
// teacher's own raw-socket option handling (proxy/wireguard/netlink
// uses golang.org/x/sys/unix for netlink constants the same way this
// package uses it for AF_PACKET/SNAP constants).
package linklayer

import (
	"context"
	"sync"

	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"

	"github.com/appletalk/ddpcore/common/errors"
	"github.com/appletalk/ddpcore/ddp"
)

// SNAPOrgID is the 5-byte SNAP organizational identifier DDP frames
// are encapsulated with (spec.md §6): 08:00:07:80:9B.
var SNAPOrgID = [5]byte{0x08, 0x00, 0x07, 0x80, 0x9B}

// Frame is a captured outbound Ethernet frame, recorded by Fake for
// assertions in the broadcast fan-out scenario (spec.md §8 scenario 2).
type Frame struct {
	Dev     ddp.DeviceID
	DestMAC ddp.HardwareAddr
	Payload []byte
}

// Fake is an in-memory ddp.LinkLayer + ddp.AARP double: it records
// every outbound frame and demuxes inbound ones to whichever receive
// callback was registered, without touching a real socket. Designed
// for the probe/send/receive end-to-end tests; unit tests for single
// components use gomock instead.
type Fake struct {
	mu       sync.Mutex
	sent     []Frame
	client   func(dev ddp.DeviceID, frame []byte)
	resolve  map[ddp.NetAddr]ddp.HardwareAddr
	dropNext bool
}

// NewFake creates an empty fake link layer / AARP resolver.
func NewFake() *Fake {
	return &Fake{resolve: make(map[ddp.NetAddr]ddp.HardwareAddr)}
}

// SendDDP implements ddp.LinkLayer.
func (f *Fake) SendDDP(_ context.Context, dev ddp.DeviceID, frame []byte, targetHW ddp.HardwareAddr) error {
	cp := append([]byte(nil), frame...)
	f.mu.Lock()
	f.sent = append(f.sent, Frame{Dev: dev, DestMAC: targetHW, Payload: cp})
	f.mu.Unlock()
	return nil
}

// RegisterSNAPClient implements ddp.LinkLayer.
func (f *Fake) RegisterSNAPClient(_ uint32, recv func(dev ddp.DeviceID, frame []byte)) error {
	f.mu.Lock()
	f.client = recv
	f.mu.Unlock()
	return nil
}

// SetResolution registers the hardware address addr resolves to, for
// SendDDP (as AARP) to consult.
func (f *Fake) SetResolution(addr ddp.NetAddr, hw ddp.HardwareAddr) {
	f.mu.Lock()
	f.resolve[addr] = hw
	f.mu.Unlock()
}

// DropNext makes the next AARP SendDDP call report Dropped.
func (f *Fake) DropNext() {
	f.mu.Lock()
	f.dropNext = true
	f.mu.Unlock()
}

// SendProbe implements ddp.AARP; the fake never reports a conflict
// unless the caller wires one up via a ddp.ProbeConflictFunc
// separately, so this is a no-op send.
func (f *Fake) SendProbe(context.Context, ddp.DeviceID, ddp.NetAddr) error { return nil }

// AARP's SendDDP resolves addr via SetResolution and otherwise targets
// the AARP multicast MAC, then records the frame as a sent Frame.
func (f *Fake) AARPSendDDP(ctx context.Context, dev ddp.DeviceID, frame []byte, target ddp.NetAddr) (ddp.DeliveryResult, error) {
	f.mu.Lock()
	if f.dropNext {
		f.dropNext = false
		f.mu.Unlock()
		return ddp.Dropped, nil
	}
	hw, ok := f.resolve[target]
	f.mu.Unlock()
	if !ok {
		hw = ddp.AARPMulticastMAC
	}
	if err := f.SendDDP(ctx, dev, frame, hw); err != nil {
		return ddp.Dropped, err
	}
	return ddp.Delivered, nil
}

// Sent returns a snapshot of every frame recorded so far.
func (f *Fake) Sent() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Frame, len(f.sent))
	copy(out, f.sent)
	return out
}

// Deliver demuxes an inbound frame to the registered SNAP client, as
// the real link layer would after recognizing SNAPOrgID.
func (f *Fake) Deliver(dev ddp.DeviceID, frame []byte) {
	f.mu.Lock()
	client := f.client
	f.mu.Unlock()
	if client != nil {
		client(dev, frame)
	}
}

// aarpAdapter lets Fake satisfy ddp.AARP (SendDDP name collides with
// ddp.LinkLayer's own method on the same struct, so AARP's SendDDP is
// exposed as AARPSendDDP above and wrapped here).
type aarpAdapter struct{ f *Fake }

func (a aarpAdapter) SendProbe(ctx context.Context, dev ddp.DeviceID, addr ddp.NetAddr) error {
	return a.f.SendProbe(ctx, dev, addr)
}

func (a aarpAdapter) SendDDP(ctx context.Context, dev ddp.DeviceID, frame []byte, target ddp.NetAddr) (ddp.DeliveryResult, error) {
	return a.f.AARPSendDDP(ctx, dev, frame, target)
}

// AsAARP exposes f as a ddp.AARP collaborator.
func (f *Fake) AsAARP() ddp.AARP { return aarpAdapter{f} }

// afPacketProtocol is the AF_PACKET protocol a production link layer
// would bind with to receive every Ethernet frame for SNAP demuxing.
const afPacketProtocol = unix.ETH_P_ALL

// multicastClassifier is a compiled BPF program classifying a captured
// Ethernet frame by destination MAC: it returns a non-zero accept
// length when the destination matches the AARP multicast group
// 09:00:00:FF:FF:FF, else 0.
var multicastClassifier = compileMulticastClassifier()

func compileMulticastClassifier() []bpf.RawInstruction {
	mac := ddp.AARPMulticastMAC
	prog, err := bpf.Assemble([]bpf.Instruction{
		bpf.LoadAbsolute{Off: 0, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: uint32(mac[0])<<24 | uint32(mac[1])<<16 | uint32(mac[2])<<8 | uint32(mac[3]), SkipTrue: 3},
		bpf.LoadAbsolute{Off: 4, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: uint32(mac[4])<<8 | uint32(mac[5]), SkipTrue: 1},
		bpf.RetConstant{Val: 65535},
		bpf.RetConstant{Val: 0},
	})
	if err != nil {
		// A fixed, hand-verified program failing to assemble indicates a
		// bug in this file, not a runtime condition.
		panic(errors.New("linklayer: assemble multicast classifier").Base(err))
	}
	return prog
}

// IsMulticastMAC reports whether mac is the AARP multicast group,
// using the compiled BPF classifier against a 6-byte input buffer
// rather than a hand-rolled byte comparison (spec.md §8 scenario 2:
// "the link layer observes exactly one outbound frame to
// 09:00:00:FF:FF:FF").
func IsMulticastMAC(mac ddp.HardwareAddr) (bool, error) {
	vm, err := bpf.NewVM(rawToInstructions(multicastClassifier))
	if err != nil {
		return false, errors.New("linklayer: load classifier vm").Base(err)
	}
	n, err := vm.Run(mac[:])
	if err != nil {
		return false, errors.New("linklayer: run classifier").Base(err)
	}
	return n > 0, nil
}

func rawToInstructions(raw []bpf.RawInstruction) []bpf.Instruction {
	out := make([]bpf.Instruction, len(raw))
	for i, r := range raw {
		out[i] = r
	}
	return out
}
