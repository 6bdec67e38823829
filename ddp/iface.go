package ddp

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/appletalk/ddpcore/common/errors"
)

// Status is the lifecycle state of an Interface (spec.md §3).
type Status int

const (
	StatusProbing Status = iota
	StatusProbeFail
	StatusStable
	StatusLoopback
)

func (s Status) String() string {
	switch s {
	case StatusProbing:
		return "probing"
	case StatusProbeFail:
		return "probe-fail"
	case StatusStable:
		return "stable"
	case StatusLoopback:
		return "loopback"
	default:
		return "unknown"
	}
}

// Stats are the read-only per-interface counters supplementing the
// distilled spec from the original source's tx/rx accounting
// (SPEC_FULL.md "Supplemented features" #4).
type Stats struct {
	TxPackets uint64
	RxPackets uint64
	TxErrors  uint64
}

// Interface is a registered DDP-speaking Ethernet interface (spec.md §3).
type Interface struct {
	Dev     DeviceID
	HWAddr  HardwareAddr
	Address NetAddr
	Nets    NetRange
	Status  Status
	Loop    bool // true for the loopback pseudo-interface

	mu    sync.Mutex
	stats Stats
}

func (i *Interface) snapshotStats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stats
}

func (i *Interface) addTx(n uint64)  { i.mu.Lock(); i.stats.TxPackets += n; i.mu.Unlock() }
func (i *Interface) addRx(n uint64)  { i.mu.Lock(); i.stats.RxPackets += n; i.mu.Unlock() }
func (i *Interface) addTxErr(n uint64) { i.mu.Lock(); i.stats.TxErrors += n; i.mu.Unlock() }

// AARPRetransmitLimit is the number of probes sent per candidate
// address before moving to the next candidate (spec.md §4.B).
const AARPRetransmitLimit = 3

// probeRetransmitInterval is the ~100ms spacing between probe
// retransmissions (spec.md §4.B, §5).
const probeRetransmitInterval = 100 * time.Millisecond

// InterfaceTable holds the registered interfaces, in insertion order
// (spec.md §3 "order is observable only via listing").
type InterfaceTable struct {
	mu    sync.RWMutex
	ifs   []*Interface
}

// NewInterfaceTable creates an empty interface table.
func NewInterfaceTable() *InterfaceTable {
	return &InterfaceTable{}
}

// List returns a snapshot of the registered interfaces in insertion
// order, safe for the control surface's listing endpoint to read
// without blocking mutations for long (spec.md §4.H).
func (t *InterfaceTable) List() []*Interface {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Interface, len(t.ifs))
	copy(out, t.ifs)
	return out
}

// FindByDev returns the interface registered on dev, if any.
func (t *InterfaceTable) FindByDev(dev DeviceID) *Interface {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, i := range t.ifs {
		if i.Dev == dev {
			return i
		}
	}
	return nil
}

// FindAnyNet matches an interface on dev whose address node equals
// node, or any interface on dev when node is BCast (spec.md §4.B
// find_any_net).
func (t *InterfaceTable) FindAnyNet(node Node, dev DeviceID) *Interface {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, i := range t.ifs {
		if i.Dev != dev || i.Status != StatusStable && i.Status != StatusLoopback {
			continue
		}
		if i.Address.Node == node || node == BCast {
			return i
		}
	}
	return nil
}

// FindExact matches the interface whose address is exactly (net, node),
// across all interfaces (spec.md §4.B find_exact).
func (t *InterfaceTable) FindExact(net Net, node Node) *Interface {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, i := range t.ifs {
		if (i.Status == StatusStable || i.Status == StatusLoopback) && i.Address.Net == net && i.Address.Node == node {
			return i
		}
	}
	return nil
}

// Primary returns the first non-loopback stable interface, else the
// first usable (stable or loopback) interface, else nil (spec.md §4.B
// primary()).
func (t *InterfaceTable) Primary() *Interface {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var firstAny *Interface
	for _, i := range t.ifs {
		if i.Status != StatusStable && i.Status != StatusLoopback {
			continue
		}
		if firstAny == nil {
			firstAny = i
		}
		if !i.Loop {
			return i
		}
	}
	return firstAny
}

// remove deletes the interface registered on dev, if present. It takes
// the table's write lock itself.
func (t *InterfaceTable) remove(dev DeviceID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for idx, i := range t.ifs {
		if i.Dev == dev {
			t.ifs = append(t.ifs[:idx], t.ifs[idx+1:]...)
			return
		}
	}
}

// Prober abstracts the AARP probe round-trip so Add can be driven by a
// fake clock/AARP in tests (spec.md §4.B).
type Prober interface {
	SendProbe(ctx context.Context, dev DeviceID, addr NetAddr) error
}

// ProbeConflictFunc reports whether the most recent probe observed a
// conflict. In a real deployment this is driven by AARP's "who-has"
// response; it is injected so tests can script conflicts deterministically
// (spec.md §8 scenario 6).
type ProbeConflictFunc func(addr NetAddr) bool

// Add runs the probe algorithm and installs the interface on success
// (spec.md §4.B). hw is the underlying device's hardware address;
// loopback interfaces should set loop=true to skip probing entirely.
func (t *InterfaceTable) Add(ctx context.Context, dev DeviceID, hw HardwareAddr, nets NetRange, prober Prober, conflict ProbeConflictFunc, loop bool) (*Interface, error) {
	iface := &Interface{Dev: dev, HWAddr: hw, Nets: nets, Status: StatusProbing}

	if loop {
		iface.Status = StatusLoopback
		iface.Loop = true
		iface.Address = NetAddr{Net: nets.FirstNet, Node: 1}
		t.mu.Lock()
		t.ifs = append(t.ifs, iface)
		t.mu.Unlock()
		return iface, nil
	}

	width := nets.Width() + 1
	if width <= 0 {
		return nil, errors.New("ddp: empty net range").OfKind(errors.KindInvalid)
	}

	// The interface is visible in Probing status for the duration of the
	// probe, so a concurrent set-iface on the same device observes it
	// and is rejected with an AddressInUse error instead of racing a
	// second probe; there is no separate Busy error kind.
	t.mu.Lock()
	t.ifs = append(t.ifs, iface)
	t.mu.Unlock()

	offset := rand.Intn(width)

	for n := 0; n < width; n++ {
		candidateNet := Net(int(nets.FirstNet) + (offset+n)%width)
		for node := 1; node <= 253; node++ {
			addr := NetAddr{Net: candidateNet, Node: Node(node)}
			for attempt := 0; attempt < AARPRetransmitLimit; attempt++ {
				if err := prober.SendProbe(ctx, dev, addr); err != nil {
					t.remove(dev)
					return nil, err
				}
				select {
				case <-ctx.Done():
					t.remove(dev)
					return nil, errors.New("ddp: probe cancelled").OfKind(errors.KindInterrupted).Base(ctx.Err())
				case <-time.After(probeRetransmitInterval):
				}
			}
			sawConflict := conflict != nil && conflict(addr)
			if !sawConflict {
				iface.Address = addr
				iface.Status = StatusStable
				return iface, nil
			}
		}
	}

	t.remove(dev)
	return nil, errors.New("ddp: address probe exhausted ", nets.FirstNet, "-", nets.LastNet).OfKind(errors.KindAddressInUse)
}

// Drop removes the interface registered on dev (spec.md §4.B drop()).
func (t *InterfaceTable) Drop(dev DeviceID) {
	t.remove(dev)
}
