package ddp

import (
	"context"
	"sync"

	"github.com/appletalk/ddpcore/common/errors"
	"github.com/appletalk/ddpcore/common/traceid"
)

// ensureTrace tags ctx with a correlation id if it does not already
// carry one, so every log line emitted through errors.Log* while
// servicing one Send or Receive call shares a prefix (mirrors the
// teacher's session.NewID() pattern). Control-surface calls are not
// tagged, and returned errors do not carry the id.
func ensureTrace(ctx context.Context) context.Context {
	if _, ok := traceid.FromContext(ctx); ok {
		return ctx
	}
	return traceid.WithContext(ctx, traceid.New())
}

// NetCore owns the three tables that make up the DDP stack's shared
// state (spec.md §5). There is no single global lock: each table
// guards itself. Code that must touch more than one table acquires
// them in the fixed order interfaces -> routes -> sockets, to avoid
// deadlock between the send/receive paths and the control surface
// (spec.md §5 "lock ordering").
type NetCore struct {
	Interfaces *InterfaceTable
	Routes     *RouteTable
	Sockets    *SocketTable

	Link LinkLayer
	AARP AARP

	// drainMu serializes deferred-destruction bookkeeping; it is
	// orthogonal to the three tables' own locks.
	drainMu sync.Mutex
	draining map[*Socket]int
}

// NewNetCore wires up an empty stack bound to the given link-layer and
// AARP implementations.
func NewNetCore(link LinkLayer, aarp AARP) *NetCore {
	return &NetCore{
		Interfaces: NewInterfaceTable(),
		Routes:     NewRouteTable(),
		Sockets:    NewSocketTable(),
		Link:       link,
		AARP:       aarp,
		draining:   make(map[*Socket]int),
	}
}

// OpenSocket creates a new, unbound socket of the given type
// (spec.md §4.E open).
func (c *NetCore) OpenSocket(typ SockType) (*Socket, error) {
	return NewSocket(typ)
}

// Bind binds s to addr (spec.md §4.E bind).
func (c *NetCore) Bind(s *Socket, addr SocketAddr) error {
	return s.bind(addr, c.Interfaces, c.Sockets)
}

// Connect connects s to peer, autobinding first if necessary
// (spec.md §4.E connect).
func (c *NetCore) Connect(s *Socket, peer SocketAddr) error {
	return s.connect(peer, c.Interfaces, c.Sockets)
}

// GetSockName/GetPeerName implement spec.md §4.E getname.
func (c *NetCore) GetSockName(s *Socket) (SocketAddr, error) { return s.getname(false) }
func (c *NetCore) GetPeerName(s *Socket) (SocketAddr, error) { return s.getname(true) }

// Recv implements spec.md §4.E recv: it copies the next available
// datagram (whole frame for raw sockets, payload only for dgram) into
// buf, returning the number of bytes copied and the sender's address.
// A buffer shorter than the datagram silently truncates, matching
// datagram-socket semantics elsewhere in the stack.
func (c *NetCore) Recv(ctx context.Context, s *Socket, buf []byte, nonBlocking bool) (int, SocketAddr, error) {
	p, err := s.recv(ctx, nonBlocking)
	if err != nil {
		return 0, SocketAddr{}, err
	}
	defer p.Release()

	n := copy(buf, p.DDPBytes())
	return n, p.From, nil
}

// errNetUnreachable is returned by routing lookups that find nothing
// usable (spec.md §7).
func errNetUnreachable(msg string) error {
	return errors.New(msg).OfKind(errors.KindNetUnreachable)
}
