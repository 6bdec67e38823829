package ddp

import "sync"

// socketKey is the (net, node, port) key the socket table indexes on
// (spec.md §4.D).
type socketKey struct {
	net  Net
	node Node
	port Port
}

func keyOf(a SocketAddr) socketKey {
	return socketKey{net: a.Net, node: a.Node, port: a.Port}
}

// SocketTable is the set of bound DDP endpoints keyed by (net, node,
// port); keys are unique only among sockets not in state Unbound
// (spec.md §4.D). The teacher models comparable lookup tables as plain
// maps guarded by one mutex (app/router/route_cache.go's sharded
// RWMutex pattern, collapsed here to a single map since the socket
// table is orders of magnitude smaller than a routing cache).
type SocketTable struct {
	mu      sync.RWMutex
	byKey   map[socketKey]*Socket
}

// NewSocketTable creates an empty socket table.
func NewSocketTable() *SocketTable {
	return &SocketTable{byKey: make(map[socketKey]*Socket)}
}

// FindExact requires all three address components to match
// (spec.md §4.D).
func (t *SocketTable) FindExact(addr SocketAddr) (*Socket, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byKey[keyOf(addr)]
	return s, ok
}

// Insert registers s under its current Local address. The caller must
// have already verified the tuple is free (spec.md invariant: unique
// among bound sockets) — Insert itself re-checks under the table lock
// and reports false on a race loss.
func (t *SocketTable) Insert(s *Socket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := keyOf(s.Local)
	if _, exists := t.byKey[k]; exists {
		return false
	}
	t.byKey[k] = s
	return true
}

// Remove deletes whichever socket is registered under addr, if any.
func (t *SocketTable) Remove(addr SocketAddr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byKey, keyOf(addr))
}

// Search relaxes net as spec.md §4.D describes: a socket matches a
// packet destined to dest when its port matches and either the (net,
// node) match exactly, or dest is the this-net broadcast (net=0,
// node=BCast) and the socket's net matches the receiving interface's
// net. Raw sockets additionally filter on ddp_type if RawType is set
// (SPEC_FULL.md supplemented feature #2).
func (t *SocketTable) Search(dest SocketAddr, atif *Interface, ddpType uint8) (*Socket, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.byKey {
		if s.Local.Port != dest.Port {
			continue
		}
		match := (dest.Net == s.Local.Net && dest.Node == s.Local.Node) ||
			(dest.Net == 0 && dest.Node == BCast && atif != nil && s.Local.Net == atif.Address.Net)
		if !match {
			continue
		}
		if s.Type == SockRaw && s.RawType != nil && *s.RawType != ddpType {
			continue
		}
		return s, true
	}
	return nil, false
}

// List snapshots every socket currently registered, for the control
// surface's listing endpoint (spec.md §6).
func (t *SocketTable) List() []*Socket {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Socket, 0, len(t.byKey))
	for _, s := range t.byKey {
		out = append(out, s)
	}
	return out
}

// LowestFreeEphemeralPort returns the lowest unused port in
// [EphemeralPortFirst, EphemeralPortLast] for the given (net, node), or
// ok=false if the range is exhausted (spec.md §4.E autobind).
func (t *SocketTable) LowestFreeEphemeralPort(net Net, node Node) (Port, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for p := EphemeralPortFirst; ; p++ {
		k := socketKey{net: net, node: node, port: p}
		if _, exists := t.byKey[k]; !exists {
			return p, true
		}
		if p == EphemeralPortLast {
			return 0, false
		}
	}
}
