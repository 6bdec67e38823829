package ddp

import "context"

// Receive is the link layer's entry point for an inbound, already
// decapsulated DDP frame (spec.md §4.G). It takes ownership of frame.
func (c *NetCore) Receive(ctx context.Context, dev DeviceID, frame []byte) {
	c.receivePacket(ensureTrace(ctx), FromFrame(frame, dev))
}

// deliverLocal re-enters the receive path for a packet the send path
// produced itself (spec.md §4.F step 7 loopback). The packet has
// already been addressed and checksummed; the receive path's own
// checksum check is a no-op for a correctly-built frame.
func (c *NetCore) deliverLocal(pkt *Packet) {
	c.receivePacket(context.Background(), pkt)
}

// receivePacket runs spec.md §4.G steps 1-6 against pkt.
func (c *NetCore) receivePacket(ctx context.Context, pkt *Packet) {
	ddp := pkt.DDPBytes()

	// Step 1.
	if len(ddp) < HeaderLen {
		pkt.Release()
		return
	}

	// Step 2: normalize first word, trim to declared length.
	_, length := normalizeFirstWord(ddp)
	n := len(ddp)
	if int(length) < n {
		n = int(length)
	}
	if n < HeaderLen {
		pkt.Release()
		return
	}
	ddp = ddp[:n]
	pkt.buffer.Resize(0, int32(pkt.LinkOffset+n))

	h, err := ParseHeader(ddp)
	if err != nil {
		pkt.Release()
		return
	}

	// Step 3: checksum.
	if !VerifyChecksum(ddp, h.Checksum, n) {
		pkt.Release()
		return
	}

	dest := SocketAddr{Net: h.DestNet, Node: h.DestNode, Port: h.DestPort}

	// Step 4: interface match.
	var iface *Interface
	if h.DestNet == 0 {
		iface = c.Interfaces.FindAnyNet(h.DestNode, pkt.Dev)
	} else {
		iface = c.Interfaces.FindExact(h.DestNet, h.DestNode)
	}

	if iface == nil {
		c.forward(ctx, pkt, ddp, h)
		return
	}

	iface.addRx(1)

	// Step 6: local delivery.
	src := SocketAddr{Net: h.SrcNet, Node: h.SrcNode, Port: h.SrcPort}
	sock, ok := c.Sockets.Search(dest, iface, h.Type)
	if !ok {
		pkt.Release()
		return
	}

	deliverToSocket(sock, pkt, src, h)
}

// forward implements spec.md §4.G step 5: no local interface matched,
// so look up a route and either drop (no route, or TTL exhausted) or
// hand off with hops incremented.
func (c *NetCore) forward(ctx context.Context, pkt *Packet, ddp []byte, h Header) {
	target := NetAddr{Net: h.DestNet, Node: h.DestNode}
	route, ok := c.Routes.Find(target)
	if !ok || h.Hops >= MaxHops {
		pkt.Release()
		return
	}

	newHops := h.Hops + 1
	putFirstWord(ddp, newHops, h.Length)

	aarpTarget := target
	if route.Flags.Gateway {
		aarpTarget = route.Gateway
	}

	result, err := c.AARP.SendDDP(ctx, route.Dev, ddp, aarpTarget)
	if iface := c.Interfaces.FindByDev(route.Dev); iface != nil {
		if err != nil || result == Dropped {
			iface.addTxErr(1)
		} else {
			iface.addTx(1)
		}
	}
	pkt.Release()
}

// deliverToSocket applies the raw-vs-dgram payload split and enqueues
// onto sock's receive queue (spec.md §4.E "Raw vs dgram").
func deliverToSocket(sock *Socket, pkt *Packet, src SocketAddr, h Header) {
	pkt.From = src
	if sock.Type == SockRaw {
		sock.enqueue(pkt)
		return
	}

	ddp := pkt.DDPBytes()
	payload := ddp[HeaderLen:]
	payloadPkt := FromFrame(append([]byte(nil), payload...), pkt.Dev)
	payloadPkt.From = src
	pkt.Release()
	sock.enqueue(payloadPkt)
}
