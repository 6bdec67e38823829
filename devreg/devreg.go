// Package devreg implements the ddp.DeviceRegistry collaborator
// against real Ethernet links via netlink, grounded on the teacher's
// own netlink.Handle wrapper (proxy/wireguard/netlink in the example
// corpus) but using the high-level vishvananda/netlink API rather than
// hand-built generic-netlink attribute trees, since dev_by_name/
// dev_multicast_add need nothing WireGuard-specific.
package devreg

import (
	"github.com/vishvananda/netlink"

	"github.com/appletalk/ddpcore/common/errors"
	"github.com/appletalk/ddpcore/ddp"
)

// LinkOverheadEthernet is the 802.2 SNAP encapsulation overhead added
// on top of a DDP frame: 6+6 MAC addresses, 2 length, 3 LLC, 5 SNAP OUI
// and ether-type.
const LinkOverheadEthernet = 6 + 6 + 2 + 3 + 5

// Registry resolves device names against the host's netlink link
// table (spec.md §1 "dev_by_name", "dev_multicast_add").
type Registry struct {
	handle *netlink.Handle
}

// New opens a netlink handle for device lookups.
func New() (*Registry, error) {
	h, err := netlink.NewHandle()
	if err != nil {
		return nil, errors.New("devreg: open netlink handle").Base(err)
	}
	return &Registry{handle: h}, nil
}

// Close releases the underlying netlink handle.
func (r *Registry) Close() error {
	r.handle.Close()
	return nil
}

// DevByName implements ddp.DeviceRegistry.
func (r *Registry) DevByName(name ddp.DeviceID) (ddp.HardwareAddr, int, bool) {
	link, err := r.handle.LinkByName(string(name))
	if err != nil {
		return ddp.HardwareAddr{}, 0, false
	}
	attrs := link.Attrs()
	if attrs.HardwareAddr == nil || len(attrs.HardwareAddr) != 6 {
		return ddp.HardwareAddr{}, 0, false
	}
	var hw ddp.HardwareAddr
	copy(hw[:], attrs.HardwareAddr)
	return hw, LinkOverheadEthernet, true
}

// MulticastAdd implements ddp.DeviceRegistry. It puts dev into
// all-multicast mode so frames addressed to the AARP multicast MAC
// 09:00:00:FF:FF:FF reach the link layer's SNAP demuxer; per-MAC
// receive filtering (classic SIOCADDMULTI) is a driver-level detail
// the core does not need to reproduce once all-multicast is set.
func (r *Registry) MulticastAdd(dev ddp.DeviceID, mac ddp.HardwareAddr) error {
	link, err := r.handle.LinkByName(string(dev))
	if err != nil {
		return errors.New("devreg: multicast-add: no such device ", dev).Base(err)
	}
	if err := r.handle.LinkSetAllmulticastOn(link); err != nil {
		return errors.New("devreg: multicast-add: enable all-multicast on ", dev).Base(err)
	}
	return nil
}
