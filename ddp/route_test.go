package ddp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appletalk/ddpcore/common/errors"
	"github.com/appletalk/ddpcore/ddp"
)

func stableIface(t *testing.T, dev ddp.DeviceID, net ddp.Net) (*ddp.InterfaceTable, *ddp.Interface) {
	t.Helper()
	table := ddp.NewInterfaceTable()
	nets := ddp.NetRange{FirstNet: net, LastNet: net, Phase: 2}
	iface, err := table.Add(context.Background(), dev, ddp.HardwareAddr{}, nets, &stubProber{}, nil, false)
	require.NoError(t, err)
	return table, iface
}

func TestRouteTableAddDirectAndFind(t *testing.T) {
	ifaces, _ := stableIface(t, "eth0", 1000)
	rt := ddp.NewRouteTable()

	r := &ddp.Route{Target: ddp.NetAddr{Net: 1000}, Dev: "eth0", Flags: ddp.RouteFlags{Up: true}}
	require.NoError(t, rt.Add(r, ifaces, false))

	got, ok := rt.Find(ddp.NetAddr{Net: 1000, Node: 5})
	require.True(t, ok)
	assert.Same(t, r, got)
}

func TestRouteTableAddGatewayRequiresReachability(t *testing.T) {
	ifaces := ddp.NewInterfaceTable()
	rt := ddp.NewRouteTable()

	r := &ddp.Route{Target: ddp.NetAddr{Net: 2000}, Gateway: ddp.NetAddr{Net: 1000, Node: 9}, Flags: ddp.RouteFlags{Up: true, Gateway: true}}
	err := rt.Add(r, ifaces, false)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalid, errors.GetKind(err))
}

func TestRouteTableAddGatewayReachableSucceeds(t *testing.T) {
	ifaces, iface := stableIface(t, "eth0", 1000)
	rt := ddp.NewRouteTable()

	r := &ddp.Route{
		Target:  ddp.NetAddr{Net: 2000},
		Gateway: iface.Address,
		Flags:   ddp.RouteFlags{Up: true, Gateway: true},
	}
	require.NoError(t, rt.Add(r, ifaces, false))

	got, ok := rt.Find(ddp.NetAddr{Net: 2000, Node: 1})
	require.True(t, ok)
	assert.True(t, got.Flags.Gateway)
}

func TestRouteTableUpdateSameKey(t *testing.T) {
	ifaces, _ := stableIface(t, "eth0", 1000)
	rt := ddp.NewRouteTable()

	r1 := &ddp.Route{Target: ddp.NetAddr{Net: 1000}, Dev: "eth0", Flags: ddp.RouteFlags{Up: true}}
	require.NoError(t, rt.Add(r1, ifaces, false))

	r2 := &ddp.Route{Target: ddp.NetAddr{Net: 1000}, Dev: "eth1", Flags: ddp.RouteFlags{Up: true}}
	require.NoError(t, rt.Add(r2, ifaces, false))

	assert.Len(t, rt.List(), 1)
	got, ok := rt.Find(ddp.NetAddr{Net: 1000, Node: 1})
	require.True(t, ok)
	assert.Same(t, r2, got)
}

func TestRouteTableDefaultFallback(t *testing.T) {
	ifaces, _ := stableIface(t, "eth0", 1000)
	rt := ddp.NewRouteTable()

	def := &ddp.Route{Dev: "eth0", Flags: ddp.RouteFlags{Up: true}}
	require.NoError(t, rt.Add(def, ifaces, true))

	got, ok := rt.Find(ddp.NetAddr{Net: 9999, Node: 1})
	require.True(t, ok)
	assert.Same(t, def, got)

	_, ok = rt.Default()
	assert.True(t, ok)
}

func TestRouteTableDel(t *testing.T) {
	ifaces, _ := stableIface(t, "eth0", 1000)
	rt := ddp.NewRouteTable()

	r := &ddp.Route{Target: ddp.NetAddr{Net: 1000}, Dev: "eth0", Flags: ddp.RouteFlags{Up: true}}
	require.NoError(t, rt.Add(r, ifaces, false))

	assert.True(t, rt.Del(ddp.NetAddr{Net: 1000}, false))
	_, ok := rt.Find(ddp.NetAddr{Net: 1000, Node: 1})
	assert.False(t, ok)
	assert.False(t, rt.Del(ddp.NetAddr{Net: 1000}, false))
}

func TestRouteTableDeviceDownClearsRoutesAndDefault(t *testing.T) {
	ifaces, _ := stableIface(t, "eth0", 1000)
	rt := ddp.NewRouteTable()

	r := &ddp.Route{Target: ddp.NetAddr{Net: 1000}, Dev: "eth0", Flags: ddp.RouteFlags{Up: true}}
	require.NoError(t, rt.Add(r, ifaces, false))
	def := &ddp.Route{Dev: "eth0", Flags: ddp.RouteFlags{Up: true}}
	require.NoError(t, rt.Add(def, ifaces, true))

	rt.DeviceDown("eth0")

	_, ok := rt.Find(ddp.NetAddr{Net: 1000, Node: 1})
	assert.False(t, ok)
	_, ok = rt.Default()
	assert.False(t, ok)
}

func TestRouteTableListDefaultFirst(t *testing.T) {
	ifaces, _ := stableIface(t, "eth0", 1000)
	rt := ddp.NewRouteTable()

	r := &ddp.Route{Target: ddp.NetAddr{Net: 1000}, Dev: "eth0", Flags: ddp.RouteFlags{Up: true}}
	require.NoError(t, rt.Add(r, ifaces, false))
	def := &ddp.Route{Dev: "eth0", Flags: ddp.RouteFlags{Up: true}}
	require.NoError(t, rt.Add(def, ifaces, true))

	list := rt.List()
	require.Len(t, list, 2)
	assert.Same(t, def, list[0])
	assert.Same(t, r, list[1])
}
