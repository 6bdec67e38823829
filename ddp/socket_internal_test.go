package ddp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appletalk/ddpcore/common/errors"
)

type noopProber struct{}

func (noopProber) SendProbe(context.Context, DeviceID, NetAddr) error { return nil }

func primaryIfaceTable(t *testing.T) *InterfaceTable {
	t.Helper()
	table := NewInterfaceTable()
	nets := NetRange{FirstNet: 1000, LastNet: 1000, Phase: 2}
	_, err := table.Add(context.Background(), "eth0", HardwareAddr{}, nets, noopProber{}, nil, false)
	require.NoError(t, err)
	return table
}

func TestSocketNewRejectsBadType(t *testing.T) {
	_, err := NewSocket(SockType(99))
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalid, errors.GetKind(err))
}

func TestSocketBindExplicitAddress(t *testing.T) {
	ifaces := primaryIfaceTable(t)
	socks := NewSocketTable()
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	addr := SocketAddr{Net: 1000, Node: 1, Port: 128}
	require.NoError(t, s.bind(addr, ifaces, socks))
	assert.Equal(t, StateBound, s.State())
	assert.Equal(t, addr, s.Local)
}

func TestSocketBindRejectsDoubleBind(t *testing.T) {
	ifaces := primaryIfaceTable(t)
	socks := NewSocketTable()
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	addr := SocketAddr{Net: 1000, Node: 1, Port: 128}
	require.NoError(t, s.bind(addr, ifaces, socks))

	err = s.bind(addr, ifaces, socks)
	require.Error(t, err)
	assert.Equal(t, errors.KindAddressInUse, errors.GetKind(err))
}

func TestSocketBindRejectsForeignAddress(t *testing.T) {
	ifaces := primaryIfaceTable(t)
	socks := NewSocketTable()
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	err = s.bind(SocketAddr{Net: 2000, Node: 5, Port: 128}, ifaces, socks)
	require.Error(t, err)
	assert.Equal(t, errors.KindAddressUnavailable, errors.GetKind(err))
}

func TestSocketBindRejectsReservedNode(t *testing.T) {
	ifaces := primaryIfaceTable(t)
	socks := NewSocketTable()
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	err = s.bind(SocketAddr{Net: 1000, Node: AnyNode, Port: 128}, ifaces, socks)
	require.Error(t, err)
	assert.Equal(t, errors.KindBadFamily, errors.GetKind(err))
}

func TestSocketBindWildcardUsesPrimaryAndAssignsEphemeralPort(t *testing.T) {
	ifaces := primaryIfaceTable(t)
	socks := NewSocketTable()
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	require.NoError(t, s.bind(SocketAddr{Port: AnyPort}, ifaces, socks))
	assert.EqualValues(t, 1000, s.Local.Net)
	assert.True(t, IsEphemeralPort(s.Local.Port))
}

func TestSocketAutobindOnlyWhenUnbound(t *testing.T) {
	ifaces := primaryIfaceTable(t)
	socks := NewSocketTable()
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	require.NoError(t, s.autobind(ifaces, socks))
	assert.Equal(t, StateBound, s.State())
	bound := s.Local

	require.NoError(t, s.autobind(ifaces, socks))
	assert.Equal(t, bound, s.Local)
}

func TestSocketConnectAutobindsAndTransitions(t *testing.T) {
	ifaces := primaryIfaceTable(t)
	socks := NewSocketTable()
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	peer := SocketAddr{Net: 1000, Node: 9, Port: 200}
	require.NoError(t, s.connect(peer, ifaces, socks))
	assert.Equal(t, StateConnected, s.State())

	got, ok := s.Peer()
	require.True(t, ok)
	assert.Equal(t, peer, got)
}

func TestSocketConnectRejectsClosed(t *testing.T) {
	ifaces := primaryIfaceTable(t)
	socks := NewSocketTable()
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)
	require.NoError(t, s.bind(SocketAddr{Port: AnyPort}, ifaces, socks))
	s.markClosed()

	err = s.connect(SocketAddr{Net: 1000, Node: 9, Port: 200}, ifaces, socks)
	require.Error(t, err)
	assert.Equal(t, errors.KindShutdown, errors.GetKind(err))
}

func TestSocketGetnamePeerRequiresConnected(t *testing.T) {
	ifaces := primaryIfaceTable(t)
	socks := NewSocketTable()
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)
	require.NoError(t, s.bind(SocketAddr{Port: AnyPort}, ifaces, socks))

	_, err = s.getname(true)
	require.Error(t, err)
	assert.Equal(t, errors.KindNotConnected, errors.GetKind(err))

	local, err := s.getname(false)
	require.NoError(t, err)
	assert.Equal(t, s.Local, local)
}

func TestSocketEnqueueDequeueFIFO(t *testing.T) {
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	p1 := NewPacket(HeaderLen, 0)
	p2 := NewPacket(HeaderLen, 0)
	s.enqueue(p1)
	s.enqueue(p2)

	got1, ok := s.dequeue()
	require.True(t, ok)
	assert.Same(t, p1, got1)

	got2, ok := s.dequeue()
	require.True(t, ok)
	assert.Same(t, p2, got2)

	_, ok = s.dequeue()
	assert.False(t, ok)
}

func TestSocketEnqueueDropsWhenOverCapacity(t *testing.T) {
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	huge := NewPacket(DefaultRcvBufBytes+1, 0)
	s.enqueue(huge)

	_, ok := s.dequeue()
	assert.False(t, ok)
}

func TestSocketEnqueueDropsOnClosed(t *testing.T) {
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)
	s.markClosed()

	s.enqueue(NewPacket(HeaderLen, 0))
	_, ok := s.dequeue()
	assert.False(t, ok)
}

func TestSocketRecvNonBlockingWouldBlock(t *testing.T) {
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	_, err = s.recv(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, errors.KindWouldBlock, errors.GetKind(err))
}

func TestSocketRecvBlocksUntilEnqueue(t *testing.T) {
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	p := NewPacket(HeaderLen, 0)
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.enqueue(p)
	}()

	got, err := s.recv(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, p, got)
}

func TestSocketRecvInterruptedByContext(t *testing.T) {
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err = s.recv(ctx, false)
	require.Error(t, err)
	assert.Equal(t, errors.KindInterrupted, errors.GetKind(err))
}

func TestSocketRecvShutdownAfterClose(t *testing.T) {
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)
	s.markClosed()

	_, err = s.recv(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, errors.KindShutdown, errors.GetKind(err))
}

func TestSocketRecvReturnsLatchedErrorOnce(t *testing.T) {
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)
	sentinel := assert.AnError
	s.latchError(sentinel)

	_, err = s.recv(context.Background(), true)
	assert.Equal(t, sentinel, err)

	_, err = s.recv(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, errors.KindWouldBlock, errors.GetKind(err))
}

func TestSocketRefCounting(t *testing.T) {
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	s.addRef()
	s.addRef()
	assert.Equal(t, 2, s.refCount())
	assert.Equal(t, 1, s.release())
	assert.Equal(t, 0, s.release())
}

func TestSocketFlagsRoundTrip(t *testing.T) {
	s, err := NewSocket(SockDgram)
	require.NoError(t, err)

	f := SockFlags{Broadcast: true, NoChecksum: true}
	s.SetFlags(f)
	assert.Equal(t, f, s.Flags())
}
