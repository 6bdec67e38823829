// Package ddp implements the userland core of the AppleTalk Datagram
// Delivery Protocol: wire codec, interface/route/socket tables, and
// the send/receive/forward dispatch that ties them together. Link-
// layer transmission and AARP address resolution are external
// collaborators, described by the interfaces in collab.go.
package ddp

import "fmt"

// Node sentinels (spec.md §3).
const (
	AnyNode Node = 0x00
	BCast   Node = 0xFF
	// NodeReservedHigh is the other reserved node value; node 0x00
	// (AnyNode) and 0xFE must never be bound to a socket or assigned
	// to an interface address.
	NodeReservedHigh Node = 0xFE
)

// AnyNet is the "unspecified network" sentinel.
const AnyNet Net = 0x0000

// ANYPORT means "let autobind choose".
const AnyPort Port = 0

// Ephemeral port range used by autobind (spec.md §3).
const (
	EphemeralPortFirst Port = 0x80
	EphemeralPortLast  Port = 0xFE
)

// Net is a 16-bit AppleTalk network number, big-endian on the wire.
type Net uint16

// Node is the 8-bit host identifier within a Net.
type Node uint8

// Port is the 8-bit socket port within a Node.
type Port uint8

// NetAddr is a (net, node) pair.
type NetAddr struct {
	Net  Net
	Node Node
}

func (a NetAddr) String() string {
	return fmt.Sprintf("%d.%d", a.Net, a.Node)
}

// IsBroadcastNode reports whether the node component addresses every
// host on the network.
func (a NetAddr) IsBroadcastNode() bool { return a.Node == BCast }

// SocketAddr is a (net, node, port) tuple, the key space of the socket
// table (spec.md §4.D) and the address exchanged with bind/connect/
// sendto/recvfrom.
type SocketAddr struct {
	Net  Net
	Node Node
	Port Port
}

func (a SocketAddr) String() string {
	return fmt.Sprintf("%d.%d.%d", a.Net, a.Node, a.Port)
}

// NetAddr projects the net/node component of a SocketAddr.
func (a SocketAddr) NetAddr() NetAddr {
	return NetAddr{Net: a.Net, Node: a.Node}
}

// IsReservedNode reports whether node is one of the two values that
// must never be bound to a socket or assigned as an interface address
// (spec.md §3: "the pair node=0x00 and node=0xFE are reserved").
func IsReservedNode(n Node) bool {
	return n == AnyNode || n == NodeReservedHigh
}

// IsEphemeralPort reports whether p lies in the autobind range
// [0x80, 0xFE].
func IsEphemeralPort(p Port) bool {
	return p >= EphemeralPortFirst && p <= EphemeralPortLast
}

// NetRange is an inclusive range of networks served by one interface.
type NetRange struct {
	FirstNet Net
	LastNet  Net
	Phase    uint8
}

// IsRouterlessSentinel reports whether this range is the [0x0000,
// 0xFFFE] "routerless initial state" sentinel (spec.md §3, §4.H).
func (r NetRange) IsRouterlessSentinel() bool {
	return r.FirstNet == 0x0000 && r.LastNet == 0xFFFE
}

// Contains reports whether net falls within the inclusive range.
func (r NetRange) Contains(n Net) bool {
	return n >= r.FirstNet && n <= r.LastNet
}

// Width returns last-first, the number of networks beyond the first
// one covered by this range.
func (r NetRange) Width() int {
	return int(r.LastNet) - int(r.FirstNet)
}
