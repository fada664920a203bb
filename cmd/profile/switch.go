package main

import "github.com/sarchlab/akita/v4/sim"

// switchConn is a zero-latency sim.Connection that routes messages by the
// RemotePort name registered at PlugIn time, the same minimal N-port
// router cachesim uses to wire its demo hierarchy together.
type switchConn struct {
	sim.HookableBase

	name  string
	ports map[sim.RemotePort]sim.Port
}

func newSwitch(name string) *switchConn {
	return &switchConn{
		name:  name,
		ports: make(map[sim.RemotePort]sim.Port),
	}
}

func (s *switchConn) Name() string {
	return s.name
}

func (s *switchConn) PlugIn(port sim.Port) {
	s.ports[port.AsRemote()] = port
	port.SetConnection(s)
}

func (s *switchConn) Unplug(port sim.Port) {
	delete(s.ports, port.AsRemote())
}

func (s *switchConn) NotifyAvailable(port sim.Port) {}

func (s *switchConn) NotifySend() {
	for _, p := range s.ports {
		s.forward(p)
	}
}

func (s *switchConn) forward(p sim.Port) {
	for {
		msg := p.PeekOutgoing()
		if msg == nil {
			return
		}

		dst, ok := s.ports[msg.Meta().Dst]
		if !ok {
			panic("profile: unknown destination port " + string(msg.Meta().Dst))
		}

		if err := dst.Deliver(msg); err != nil {
			return
		}
		p.RetrieveOutgoing()
	}
}
