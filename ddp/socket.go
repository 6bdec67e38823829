package ddp

import (
	"context"
	"sync"

	"github.com/appletalk/ddpcore/common/errors"
	"github.com/appletalk/ddpcore/common/signal"
)

// SockType distinguishes datagram sockets (payload-only recv) from raw
// sockets (whole-datagram recv) — spec.md §3, §4.E.
type SockType int

const (
	SockDgram SockType = iota
	SockRaw
)

// SockState is the socket lifecycle (spec.md §4.E):
// unbound -> bound -> connected -> closed, bound -> closed, unbound ->
// closed.
type SockState int

const (
	StateUnbound SockState = iota
	StateBound
	StateConnected
	StateClosed
)

// SockFlags are the per-socket behavior bits (spec.md §3).
type SockFlags struct {
	Broadcast  bool
	NoChecksum bool
	Debug      bool
}

// DefaultRcvBufBytes is the default receive queue byte budget
// (spec.md §4.E).
const DefaultRcvBufBytes = 32 * 1024

// Socket is a DDP endpoint (spec.md §3, §4.E). Each socket owns its own
// mutex guarding its mutable fields, queue, and error slot — the
// tables' own locks only ever protect the tables (spec.md §5).
type Socket struct {
	Type SockType

	// RawType optionally restricts a raw socket's receive match to a
	// single ddp_type (SPEC_FULL.md supplemented feature #2). nil means
	// unrestricted.
	RawType *uint8

	mu         sync.Mutex
	Local      SocketAddr
	peer       SocketAddr
	state      SockState
	flags      SockFlags
	rcvQueue   []*Packet
	rcvBytes   int
	rcvBufCap  int
	sndBufCap  int
	lastError  error
	ownerRefs  int

	notify *signal.Notifier
}

// NewSocket creates a socket of the given type in state Unbound
// (spec.md §4.E open). typ must be SockDgram or SockRaw.
func NewSocket(typ SockType) (*Socket, error) {
	if typ != SockDgram && typ != SockRaw {
		return nil, errors.New("ddp: unsupported socket type").OfKind(errors.KindInvalid)
	}
	return &Socket{
		Type:      typ,
		rcvBufCap: DefaultRcvBufBytes,
		notify:    signal.NewNotifier(),
	}, nil
}

// State returns the socket's current lifecycle state.
func (s *Socket) State() SockState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Flags returns a copy of the socket's behavior flags
// (SPEC_FULL.md supplemented feature #5, getsockopt-equivalent).
func (s *Socket) Flags() SockFlags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags
}

// SetFlags replaces the socket's behavior flags
// (SPEC_FULL.md supplemented feature #5, setsockopt-equivalent).
func (s *Socket) SetFlags(f SockFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = f
}

// Peer returns the connected peer address and whether the socket is
// connected.
func (s *Socket) Peer() (SocketAddr, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer, s.state == StateConnected
}

// bind transitions Unbound -> Bound after validating addr against the
// interface table and the socket table's uniqueness invariant
// (spec.md §4.E bind).
func (s *Socket) bind(addr SocketAddr, ifaces *InterfaceTable, socks *SocketTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnbound {
		return errors.New("ddp: socket already bound").OfKind(errors.KindAddressInUse)
	}
	if (addr.Net != 0 || addr.Node != 0) && IsReservedNode(addr.Node) {
		return errors.New("ddp: reserved node cannot be bound").OfKind(errors.KindBadFamily)
	}
	if addr.Net != 0 || addr.Node != 0 {
		if ifaces.FindExact(addr.Net, addr.Node) == nil {
			return errors.New("ddp: bind address ", addr, " not ours").OfKind(errors.KindAddressUnavailable)
		}
	} else {
		primary := ifaces.Primary()
		if primary == nil {
			return errors.New("ddp: no primary interface").OfKind(errors.KindAddressUnavailable)
		}
		addr.Net = primary.Address.Net
		addr.Node = primary.Address.Node
	}

	if addr.Port == AnyPort {
		p, ok := socks.LowestFreeEphemeralPort(addr.Net, addr.Node)
		if !ok {
			return errors.New("ddp: autobind range exhausted").OfKind(errors.KindNoPort)
		}
		addr.Port = p
	}

	s.Local = addr
	if !socks.Insert(s) {
		return errors.New("ddp: address ", addr, " already bound").OfKind(errors.KindAddressInUse)
	}
	s.state = StateBound
	return nil
}

// autobind picks (primary().net, primary().node) and the lowest free
// ephemeral port, binding the socket (spec.md §4.E Autobind).
func (s *Socket) autobind(ifaces *InterfaceTable, socks *SocketTable) error {
	s.mu.Lock()
	unbound := s.state == StateUnbound
	s.mu.Unlock()
	if !unbound {
		return nil
	}

	primary := ifaces.Primary()
	if primary == nil {
		return errors.New("ddp: autobind: no primary interface").OfKind(errors.KindAddressUnavailable)
	}
	return s.bind(SocketAddr{Net: primary.Address.Net, Node: primary.Address.Node, Port: AnyPort}, ifaces, socks)
}

// connect records peer and transitions Bound/Unbound -> Connected
// (spec.md §4.E connect). connected is a pure convenience: it does not
// reject packets from other peers on receive.
func (s *Socket) connect(peer SocketAddr, ifaces *InterfaceTable, socks *SocketTable) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if state == StateUnbound {
		if err := s.autobind(ifaces, socks); err != nil {
			return errors.New("ddp: connect: autobind failed").Base(err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return errors.New("ddp: connect on closed socket").OfKind(errors.KindShutdown)
	}
	s.peer = peer
	s.state = StateConnected
	return nil
}

// getname returns the peer address, or an error if peer was requested
// but the socket is not connected (spec.md §4.E getname).
func (s *Socket) getname(wantPeer bool) (SocketAddr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wantPeer {
		if s.state != StateConnected {
			return SocketAddr{}, errors.New("ddp: getname: not connected").OfKind(errors.KindNotConnected)
		}
		return s.peer, nil
	}
	return s.Local, nil
}

// enqueue delivers p into the socket's receive queue if it fits within
// rcvBufCap, silently dropping it otherwise (spec.md §4.E Receive
// delivery: "datagram loss is silent"). A wakeup is signalled on every
// successful enqueue.
func (s *Socket) enqueue(p *Packet) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		p.Release()
		return
	}
	if s.rcvBytes+p.Len() > s.rcvBufCap {
		s.mu.Unlock()
		p.Release()
		return
	}
	s.rcvQueue = append(s.rcvQueue, p)
	s.rcvBytes += p.Len()
	s.mu.Unlock()
	s.notify.Signal()
}

// dequeue pops the oldest queued packet, if any.
func (s *Socket) dequeue() (*Packet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rcvQueue) == 0 {
		return nil, false
	}
	p := s.rcvQueue[0]
	s.rcvQueue = s.rcvQueue[1:]
	s.rcvBytes -= p.Len()
	return p, true
}

// recv implements spec.md §4.E recv: it returns the latched
// asynchronous error if one is pending, else the oldest queued packet.
// When nonBlocking is set, an empty queue yields WouldBlock
// immediately; otherwise recv waits on the socket's notifier until a
// packet arrives, the socket is closed (Shutdown), or ctx is cancelled
// (Interrupted).
func (s *Socket) recv(ctx context.Context, nonBlocking bool) (*Packet, error) {
	if err := s.takeLatchedError(); err != nil {
		return nil, err
	}

	for {
		if p, ok := s.dequeue(); ok {
			return p, nil
		}

		if s.State() == StateClosed {
			return nil, errors.New("ddp: recv on closed socket").OfKind(errors.KindShutdown)
		}

		if nonBlocking {
			return nil, errors.New("ddp: recv: queue empty").OfKind(errors.KindWouldBlock)
		}

		select {
		case <-s.notify.Wait():
		case <-ctx.Done():
			return nil, errors.New("ddp: recv interrupted").OfKind(errors.KindInterrupted).Base(ctx.Err())
		}
	}
}

// latchError stores err to be returned once on the next recv, then
// cleared (spec.md §7 "Per-socket asynchronous errors").
func (s *Socket) latchError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
}

func (s *Socket) takeLatchedError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.lastError
	s.lastError = nil
	return err
}

// addRef/release implement the deferred-destruction refcount described
// in spec.md §5: a socket with outstanding references (queued packets
// still in transit) is not torn down until they drain.
func (s *Socket) addRef() {
	s.mu.Lock()
	s.ownerRefs++
	s.mu.Unlock()
}

func (s *Socket) release() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerRefs--
	return s.ownerRefs
}

func (s *Socket) refCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownerRefs
}

// markClosed transitions the socket to Closed and releases every
// queued packet (spec.md §4.E close: "closing the socket releases
// them").
func (s *Socket) markClosed() []*Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	drained := s.rcvQueue
	s.rcvQueue = nil
	s.rcvBytes = 0
	return drained
}
