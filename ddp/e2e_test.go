package ddp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appletalk/ddpcore/common/errors"
	"github.com/appletalk/ddpcore/ddp"
	"github.com/appletalk/ddpcore/linklayer"
)

// TestScenarioLoopbackEcho mirrors spec.md §8 scenario 1: a loopback
// interface at 65280.1, a dgram socket bound to 65280.1.200, sendto
// itself, recv yields the payload and the sender's own address.
func TestScenarioLoopbackEcho(t *testing.T) {
	fake := linklayer.NewFake()
	c := ddp.NewNetCore(fake, fake.AsAARP())
	nets := ddp.NetRange{FirstNet: 65280, LastNet: 65280, Phase: 2}
	_, err := c.Interfaces.Add(context.Background(), "lo", ddp.HardwareAddr{}, nets, &stubProber{}, nil, true)
	require.NoError(t, err)
	require.NoError(t, c.Routes.Add(&ddp.Route{Target: ddp.NetAddr{Net: 65280}, Dev: "lo", Flags: ddp.RouteFlags{Up: true}}, c.Interfaces, false))

	s, err := c.OpenSocket(ddp.SockDgram)
	require.NoError(t, err)
	addr := ddp.SocketAddr{Net: 65280, Node: 1, Port: 200}
	require.NoError(t, c.Bind(s, addr))

	_, err = c.Send(context.Background(), s, []byte("hi"), &addr, 0)
	require.NoError(t, err)

	buf := make([]byte, 32)
	n, peer, err := c.Recv(context.Background(), s, buf, false)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf[:n]))
	assert.Equal(t, addr, peer)
}

// TestScenarioAutobindExhaustion mirrors spec.md §8 scenario 4: 127
// dgram sockets autobind in order through the ephemeral range
// 0x80..0xFE, and a 128th send fails NoPort.
func TestScenarioAutobindExhaustion(t *testing.T) {
	fake := linklayer.NewFake()
	c := ddp.NewNetCore(fake, fake.AsAARP())
	nets := ddp.NetRange{FirstNet: 1000, LastNet: 1000, Phase: 2}
	_, err := c.Interfaces.Add(context.Background(), "eth0", ddp.HardwareAddr{}, nets, &stubProber{}, nil, false)
	require.NoError(t, err)
	require.NoError(t, c.Routes.Add(&ddp.Route{Target: ddp.NetAddr{Net: 1000}, Dev: "eth0", Flags: ddp.RouteFlags{Up: true}}, c.Interfaces, false))

	dest := ddp.SocketAddr{Net: 1000, Node: 9, Port: 200}

	wantPort := int(ddp.EphemeralPortFirst)
	for i := 0; i < int(ddp.EphemeralPortLast-ddp.EphemeralPortFirst)+1; i++ {
		s, err := c.OpenSocket(ddp.SockDgram)
		require.NoError(t, err)
		_, err = c.Send(context.Background(), s, []byte("x"), &dest, 0)
		require.NoError(t, err, "send %d", i)
		assert.EqualValues(t, wantPort, s.Local.Port, "autobind order at iteration %d", i)
		wantPort++
	}

	s, err := c.OpenSocket(ddp.SockDgram)
	require.NoError(t, err)
	_, err = c.Send(context.Background(), s, []byte("x"), &dest, 0)
	require.Error(t, err)
	assert.Equal(t, errors.KindNoPort, errors.GetKind(err))
}
