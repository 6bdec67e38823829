// Package config loads the static interface/route bring-up file
// consumed by cmd/atalkd, grounded on the teacher's main/toml loader
// (main/toml/toml.go), which feeds a parsed document into the core at
// startup the same way this package feeds ddp.NetCore.
package config

import (
	"io"

	"github.com/pelletier/go-toml"

	"github.com/appletalk/ddpcore/common/errors"
	"github.com/appletalk/ddpcore/ddp"
)

// IfaceConfig describes one interface to bring up via SetIfaceAddr.
type IfaceConfig struct {
	Dev      string `toml:"dev"`
	FirstNet uint16 `toml:"first_net"`
	LastNet  uint16 `toml:"last_net"`
	Phase    uint8  `toml:"phase"`
}

// RouteConfig describes one static route to install via AddRoute.
type RouteConfig struct {
	TargetNet   uint16 `toml:"target_net"`
	GatewayNet  uint16 `toml:"gateway_net"`
	GatewayNode uint8  `toml:"gateway_node"`
	Dev         string `toml:"dev"`
	Gateway     bool   `toml:"gateway"`
	Default     bool   `toml:"default"`
}

// Config is the top-level document shape.
type Config struct {
	Interfaces []IfaceConfig `toml:"interface"`
	Routes     []RouteConfig `toml:"route"`
}

// Load parses a TOML bring-up document from r.
func Load(r io.Reader) (*Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New("config: read").Base(err)
	}
	var c Config
	if err := toml.Unmarshal(b, &c); err != nil {
		return nil, errors.New("config: decode toml").Base(err)
	}
	return &c, nil
}

// NetRange converts an IfaceConfig's range fields to a ddp.NetRange.
func (i IfaceConfig) NetRange() ddp.NetRange {
	return ddp.NetRange{FirstNet: ddp.Net(i.FirstNet), LastNet: ddp.Net(i.LastNet), Phase: i.Phase}
}

// Route converts a RouteConfig to a ddp.Route.
func (r RouteConfig) Route() *ddp.Route {
	return &ddp.Route{
		Target:  ddp.NetAddr{Net: ddp.Net(r.TargetNet)},
		Gateway: ddp.NetAddr{Net: ddp.Net(r.GatewayNet), Node: ddp.Node(r.GatewayNode)},
		Dev:     ddp.DeviceID(r.Dev),
		Flags:   ddp.RouteFlags{Up: true, Gateway: r.Gateway},
	}
}
