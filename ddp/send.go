package ddp

import (
	"context"

	"github.com/appletalk/ddpcore/common/errors"
)

// Send implements the datagram send path (spec.md §4.F). explicitDest is
// nil when the caller relies on a connected peer. flags currently
// recognizes none; any non-zero value is rejected.
func (c *NetCore) Send(ctx context.Context, s *Socket, payload []byte, explicitDest *SocketAddr, flags uint32) (int, error) {
	ctx = ensureTrace(ctx)

	if flags != 0 {
		return 0, errors.New("ddp: send: unsupported flags").OfKind(errors.KindInvalid)
	}
	if len(payload) > MaxPayload {
		return 0, errors.New("ddp: send: payload exceeds ", MaxPayload, " bytes").OfKind(errors.KindMsgTooBig)
	}

	// Step 1: resolve destination.
	var dest SocketAddr
	if explicitDest != nil {
		dest = *explicitDest
	} else {
		peer, connected := s.Peer()
		if !connected {
			return 0, errors.New("ddp: send: no destination and not connected").OfKind(errors.KindNotConnected)
		}
		dest = peer
	}

	flagsCopy := s.Flags()
	if dest.Node == BCast && !flagsCopy.Broadcast {
		return 0, errors.New("ddp: send: broadcast requires SO_BROADCAST-equivalent flag").OfKind(errors.KindPermissionDenied)
	}

	// Step 2: autobind if needed.
	if s.State() == StateUnbound {
		if err := s.autobind(c.Interfaces, c.Sockets); err != nil {
			return 0, err
		}
	}

	// Step 3: route selection.
	var route *Route
	if dest.Net != 0 || dest.Node == AnyNode {
		r, ok := c.Routes.Find(dest.NetAddr())
		if !ok {
			return 0, errNetUnreachable("ddp: send: no route to " + dest.NetAddr().String())
		}
		route = r
	} else {
		r, ok := c.Routes.Find(NetAddr{Net: s.Local.Net, Node: 0})
		if !ok {
			return 0, errNetUnreachable("ddp: send: no intra-net route for " + s.Local.NetAddr().String())
		}
		route = r
	}

	iface := c.Interfaces.FindByDev(route.Dev)
	if iface == nil {
		return 0, errNetUnreachable("ddp: send: route device " + string(route.Dev) + " not registered")
	}

	var linkOverhead int
	if reg, ok := c.Link.(DeviceRegistry); ok {
		if _, lo, ok := reg.DevByName(route.Dev); ok {
			linkOverhead = lo
		}
	}

	// Step 4: allocate and fill header.
	pkt := NewPacket(HeaderLen+len(payload), linkOverhead)
	pkt.Dev = route.Dev
	ddp := pkt.DDPBytes()
	copy(ddp[HeaderLen:], payload)

	h := Header{
		Hops:     0,
		Length:   uint16(HeaderLen + len(payload)),
		DestNet:  dest.Net,
		SrcNet:   s.Local.Net,
		DestNode: dest.Node,
		SrcNode:  s.Local.Node,
		DestPort: dest.Port,
		SrcPort:  s.Local.Port,
		Type:     0,
	}

	// Step 5: checksum.
	if !flagsCopy.NoChecksum {
		h.Put(ddp)
		h.Checksum = Checksum(ddp[4:HeaderLen+len(payload)])
	}
	h.Put(ddp)

	loopback := iface.Loop
	broadcastNotGateway := dest.Node == BCast && !route.Flags.Gateway && !iface.Loop

	// Step 6: broadcast fan-out. Permission was already checked above,
	// so every BCast destination that reaches here is allowed to fan out.
	if broadcastNotGateway {
		clone := pkt.Clone()
		result, err := c.AARP.SendDDP(ctx, route.Dev, clone.DDPBytes(), dest.NetAddr())
		if err != nil || result == Dropped {
			iface.addTxErr(1)
		} else {
			iface.addTx(1)
		}
		clone.Release()
		loopback = true
	}

	// Step 7: loopback.
	if loopback {
		c.deliverLocal(pkt)
		return len(payload), nil
	}

	// Step 8: gateway substitution.
	aarpTarget := dest.NetAddr()
	if route.Flags.Gateway {
		aarpTarget = route.Gateway
	}

	// Step 9: hand off via AARP; delivery failures are not propagated.
	result, err := c.AARP.SendDDP(ctx, route.Dev, pkt.DDPBytes(), aarpTarget)
	if err != nil || result == Dropped {
		iface.addTxErr(1)
	} else {
		iface.addTx(1)
	}
	pkt.Release()

	return len(payload), nil
}
