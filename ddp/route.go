package ddp

import (
	"sync"

	"github.com/appletalk/ddpcore/common/errors"
)

// RouteFlags is the flag set on a Route (spec.md §3).
type RouteFlags struct {
	Up      bool
	Host    bool
	Gateway bool
}

// Route is a host or net route (spec.md §3).
type Route struct {
	Target  NetAddr
	Gateway NetAddr
	Dev     DeviceID
	Flags   RouteFlags
}

// IsHostRoute reports whether r matches a full (net, node) rather than
// net alone.
func (r *Route) IsHostRoute() bool { return r.Flags.Host }

// RouteTable holds host/net routes plus a distinguished default slot
// (spec.md §3, §4.C). Routes are scanned in insertion order.
type RouteTable struct {
	mu      sync.RWMutex
	routes  []*Route
	defRoute *Route
}

// NewRouteTable creates an empty route table.
func NewRouteTable() *RouteTable {
	return &RouteTable{}
}

// Find looks up a route for target, falling back to the default route,
// per spec.md §4.C:
//  1. Scan in insertion order for an up route matching net (and node,
//     for host routes).
//  2. Else return the default route if set.
//  3. Else none.
func (t *RouteTable) Find(target NetAddr) (*Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.routes {
		if !r.Flags.Up {
			continue
		}
		if r.Target.Net != target.Net {
			continue
		}
		if r.Flags.Host && r.Target.Node != target.Node {
			continue
		}
		return r, true
	}
	if t.defRoute != nil && t.defRoute.Dev != "" {
		return t.defRoute, true
	}
	return nil, false
}

// Default returns the distinguished default route, if set.
func (t *RouteTable) Default() (*Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.defRoute == nil {
		return nil, false
	}
	return t.defRoute, true
}

// directlyReachable reports whether ga is directly reachable through
// some interface: ga.Net within the interface's net range, or ga
// equals the interface's address exactly (spec.md §4.C Create).
func directlyReachable(ifaces *InterfaceTable, ga NetAddr) bool {
	for _, i := range ifaces.List() {
		if i.Status != StatusStable && i.Status != StatusLoopback {
			continue
		}
		if i.Nets.Contains(ga.Net) || i.Address == ga {
			return true
		}
	}
	return false
}

// Add installs or updates r. If r.Dev is empty, the gateway must be
// directly reachable via some registered interface (spec.md §4.C
// Create). A default route is installed by setting asDefault.
func (t *RouteTable) Add(r *Route, ifaces *InterfaceTable, asDefault bool) error {
	if r.Dev == "" && !directlyReachable(ifaces, r.Gateway) {
		return errors.New("ddp: gateway ", r.Gateway, " not directly reachable").OfKind(errors.KindInvalid)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if asDefault {
		t.defRoute = r
		return nil
	}

	for idx, existing := range t.routes {
		if sameRouteKey(existing, r) {
			t.routes[idx] = r
			return nil
		}
	}
	t.routes = append(t.routes, r)
	return nil
}

func sameRouteKey(a, b *Route) bool {
	if a.Flags.Host != b.Flags.Host || a.Flags.Gateway != b.Flags.Gateway {
		return false
	}
	if a.Target.Net != b.Target.Net {
		return false
	}
	if a.Flags.Host && a.Target.Node != b.Target.Node {
		return false
	}
	return true
}

// Del removes the first route matching target (spec.md §4.C Delete):
// net always compared, node compared only when the route being removed
// is a gateway route.
func (t *RouteTable) Del(target NetAddr, gateway bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.defRoute != nil && t.defRoute.Target.Net == target.Net {
		t.defRoute = nil
		return true
	}

	for idx, r := range t.routes {
		if r.Target.Net != target.Net {
			continue
		}
		if gateway && r.Target.Node != target.Node {
			continue
		}
		t.routes = append(t.routes[:idx], t.routes[idx+1:]...)
		return true
	}
	return false
}

// DeviceDown removes every route whose device matches dev, and clears
// the default route if it pointed at dev (spec.md §4.C Device-down).
func (t *RouteTable) DeviceDown(dev DeviceID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.routes[:0]
	for _, r := range t.routes {
		if r.Dev != dev {
			kept = append(kept, r)
		}
	}
	t.routes = kept

	if t.defRoute != nil && t.defRoute.Dev == dev {
		t.defRoute = nil
	}
}

// List returns the routes for the control surface's listing endpoint,
// default first, then insertion order (spec.md §6).
func (t *RouteTable) List() []*Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Route, 0, len(t.routes)+1)
	if t.defRoute != nil {
		out = append(out, t.defRoute)
	}
	out = append(out, t.routes...)
	return out
}
