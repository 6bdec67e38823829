// Command atalkd brings up DDP interfaces and routes from a static
// TOML bring-up file and serves the control-surface reports while it
// runs (spec.md §4.H, §6). Real link-layer transmission and AARP
// resolution are out of this core's scope (spec.md §1 Non-goals); this
// binary wires the reference linklayer.Fake as a placeholder collaborator
// so the control plane (interface probing, routing, socket tables) is
// fully exercised end to end even without a real NIC path.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/appletalk/ddpcore/common/errors"
	"github.com/appletalk/ddpcore/common/log"
	"github.com/appletalk/ddpcore/config"
	"github.com/appletalk/ddpcore/ddp"
	"github.com/appletalk/ddpcore/devreg"
	"github.com/appletalk/ddpcore/linklayer"
)

var configPath = flag.String("config", "/etc/atalkd.toml", "interface/route bring-up file")

func main() {
	flag.Parse()
	log.RegisterHandler(log.NewStderrHandler())

	if err := run(*configPath); err != nil {
		log.Record(&log.GeneralMessage{Severity: log.Severity_Error, Content: err})
		os.Exit(1)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.New("atalkd: open config ", path).Base(err)
	}
	defer f.Close()

	cfg, err := config.Load(f)
	if err != nil {
		return err
	}

	registry, err := devreg.New()
	if err != nil {
		log.Record(&log.GeneralMessage{
			Severity: log.Severity_Warning,
			Content:  errors.New("atalkd: netlink unavailable, device lookups disabled").Base(err),
		})
		registry = nil
	} else {
		defer registry.Close()
	}

	link := linklayer.NewFake()
	core := ddp.NewNetCore(link, link.AsAARP())

	ctx := context.Background()
	for _, ic := range cfg.Interfaces {
		var devRegistry ddp.DeviceRegistry
		if registry != nil {
			devRegistry = registry
		}
		iface, err := core.SetIfaceAddr(ctx, ddp.DeviceID(ic.Dev), ddp.HardwareAddr{}, ic.NetRange(), link, nil, devRegistry)
		if err != nil {
			return errors.New("atalkd: bring up ", ic.Dev).Base(err)
		}
		log.Record(&log.GeneralMessage{
			Severity: log.Severity_Info,
			Content:  fmt.Sprintf("%s up at %s (%s)", ic.Dev, iface.Address, iface.Status),
		})
	}

	for _, rc := range cfg.Routes {
		if err := core.AddRoute(rc.Route(), rc.Default); err != nil {
			return errors.New("atalkd: add route for net ", rc.TargetNet).Base(err)
		}
	}

	fmt.Print(core.InterfacesReport())
	fmt.Print(core.RoutesReport())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	for _, ic := range cfg.Interfaces {
		core.DropIface(ddp.DeviceID(ic.Dev))
	}
	return nil
}
