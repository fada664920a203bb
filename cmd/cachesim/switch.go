package main

import "github.com/sarchlab/akita/v4/sim"

// Switch is a zero-latency sim.Connection that routes messages by the
// RemotePort name registered at PlugIn time, generalizing
// noc/wiring.Wire's two-port forwarding to an arbitrary number of ports.
type Switch struct {
	sim.HookableBase

	name  string
	ports map[sim.RemotePort]sim.Port
}

// NewSwitch creates an empty Switch.
func NewSwitch(name string) *Switch {
	return &Switch{
		name:  name,
		ports: make(map[sim.RemotePort]sim.Port),
	}
}

// Name returns the switch's name.
func (s *Switch) Name() string {
	return s.name
}

// PlugIn registers port under its own remote name.
func (s *Switch) PlugIn(port sim.Port) {
	s.ports[port.AsRemote()] = port
	port.SetConnection(s)
}

// Unplug removes port's registration.
func (s *Switch) Unplug(port sim.Port) {
	delete(s.ports, port.AsRemote())
}

// NotifyAvailable is a no-op: the switch forwards synchronously and never
// holds a message the destination refused.
func (s *Switch) NotifyAvailable(port sim.Port) {}

// NotifySend drains every port's outgoing buffer, delivering each message
// to the port registered under its destination name.
func (s *Switch) NotifySend() {
	for _, p := range s.ports {
		s.forward(p)
	}
}

func (s *Switch) forward(p sim.Port) {
	for {
		msg := p.PeekOutgoing()
		if msg == nil {
			return
		}

		dst, ok := s.ports[msg.Meta().Dst]
		if !ok {
			panic("cachesim: unknown destination port " + string(msg.Meta().Dst))
		}

		if err := dst.Deliver(msg); err != nil {
			return
		}
		p.RetrieveOutgoing()
	}
}
