package cache

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// link bundles a live port with the bookkeeping the dispatcher needs to
// route a CacheMsg across it.
type link struct {
	Kind   LinkKind
	ID     int
	Port   sim.Port
	Remote sim.RemotePort
}

// Comp is the coherent cache controller, wired as a direct sim.Component
// rather than a ticking pipeline: every request follows a re-entrant
// handler -> self-event -> dispatcher chain rather than being polled on a
// fixed clock edge (spec §9, "deep dispatch chains").
type Comp struct {
	sim.HookableBase

	name string
	ports map[string]sim.Port

	Engine sim.Engine
	Freq   sim.Freq

	config *Config
	layout addressLayout
	rows   []*Row

	loads       *LoadTable
	invalidates *InvalidateTable
	supplies    *SupplyTable
	directory   *Directory
	bus         SnoopBus

	listener Listener
	stats    Stats

	upstream    []link
	downstream  *link
	snoop       *link
	directoryLk *link
	prefetcher  *link

	// outbox holds messages that failed to send and are waiting for a
	// NotifyPortFree retry.
	outbox map[sim.Port][]sim.Msg

	// busTickets indexes outstanding snoop-bus requests by the key handed
	// to the SnoopBus arbiter (spec §4, "snoop-bus queue adapter").
	busTickets map[string]*busTicket
	busSeq     uint64

	// sawCPURequest records whether a ReadReq/WriteReq has ever arrived,
	// the fallback L1-role detector spec §4.3 describes. Config.IsL1, when
	// set, overrides this entirely (spec §9's L1-detection open question).
	sawCPURequest bool

	// fetchCallbacks holds the continuation for an Up-direction load begun
	// by fetchBlock, run once the upstream holder's data arrives.
	fetchCallbacks map[uint64]func()
}

// IsL1 reports whether this cache talks directly to a CPU, either because
// Config.IsL1 says so explicitly or because a CPU request has been
// observed (spec §4.3, §9).
func (c *Comp) IsL1() bool {
	if c.config.IsL1 {
		return true
	}
	return c.sawCPURequest
}

// Name returns the component's name.
func (c *Comp) Name() string { return c.name }

// AddPort registers a port under name, for use by a builder.
func (c *Comp) AddPort(name string, port sim.Port) {
	if c.ports == nil {
		c.ports = make(map[string]sim.Port)
	}
	c.ports[name] = port
}

// GetPortByName returns a previously registered port.
func (c *Comp) GetPortByName(name string) sim.Port {
	port, ok := c.ports[name]
	if !ok {
		panic(fmt.Sprintf("cache: port %q not found on %s", name, c.name))
	}
	return port
}

// Ports returns every port registered on the component.
func (c *Comp) Ports() []sim.Port {
	ports := make([]sim.Port, 0, len(c.ports))
	for _, port := range c.ports {
		ports = append(ports, port)
	}
	return ports
}

// NotifyRecv is called by a port when a message has arrived on it. The
// component schedules a self-event at the current time to drain and
// dispatch the port's messages rather than handling them inline, keeping
// every state transition on the event queue.
func (c *Comp) NotifyRecv(port sim.Port) {
	l, ok := c.linkForPort(port)
	if !ok {
		return
	}

	msg := port.PeekIncoming()
	if msg == nil {
		return
	}

	now := c.Engine.CurrentTime()
	evt := newSelfEvent(now, c, selfRowRetry)
	evt.port = port
	evt.source = l.Kind
	evt.linkID = l.ID
	c.Engine.Schedule(evt)
}

// NotifyPortFree is called by a port when outgoing capacity frees up,
// letting the component retry the oldest message parked in its outbox for
// that port. Only that one message is retried per call.
func (c *Comp) NotifyPortFree(port sim.Port) {
	queue := c.outbox[port]
	if len(queue) == 0 {
		return
	}
	msg := queue[0]
	if port.Send(msg) == nil {
		c.outbox[port] = queue[1:]
	}
}

func (c *Comp) linkForPort(port sim.Port) (link, bool) {
	for _, l := range c.upstream {
		if l.Port == port {
			return l, true
		}
	}
	if c.downstream != nil && c.downstream.Port == port {
		return *c.downstream, true
	}
	if c.snoop != nil && c.snoop.Port == port {
		return *c.snoop, true
	}
	if c.directoryLk != nil && c.directoryLk.Port == port {
		return *c.directoryLk, true
	}
	if c.prefetcher != nil && c.prefetcher.Port == port {
		return *c.prefetcher, true
	}
	return link{}, false
}

// send transmits msg over port, parking it in the outbox for a
// NotifyPortFree-driven retry if the port's outgoing buffer is full.
func (c *Comp) send(port sim.Port, msg sim.Msg) {
	if err := port.Send(msg); err != nil {
		if c.outbox == nil {
			c.outbox = make(map[sim.Port][]sim.Msg)
		}
		c.outbox[port] = append(c.outbox[port], msg)
	}
}

// scheduleSelf schedules a selfEvent of the given kind after delay cycles
// of the component's clock.
func (c *Comp) scheduleSelf(kind selfEventKind, delay uint64) *selfEvent {
	now := c.Engine.CurrentTime()
	t := c.Freq.NCyclesLater(int(delay), now)
	evt := newSelfEvent(t, c, kind)
	c.Engine.Schedule(evt)
	return evt
}

// SetDirectoryPeers replaces the directory's peer snapshot (spec's
// SUPPLEMENTED FEATURES).
func (c *Comp) SetDirectoryPeers(peers []Peer) {
	c.directory.SetPeers(peers)
}

// Stats returns a copy of the accumulated statistics (spec §6).
func (c *Comp) Stats() Stats {
	return c.stats
}

// BlockSnapshot is a read-only view of one resident block, for external
// introspection (statsserver's /blocks endpoint).
type BlockSnapshot struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	BaseAddr uint64 `json:"base_addr"`
	Status   string `json:"status"`
	Locked   bool   `json:"locked"`
}

// Snapshot returns every non-Invalid block currently resident, for
// debugging and monitoring.
func (c *Comp) Snapshot() []BlockSnapshot {
	var out []BlockSnapshot
	for _, row := range c.rows {
		for i := range row.Blocks {
			b := &row.Blocks[i]
			if b.Status == Invalid {
				continue
			}
			out = append(out, BlockSnapshot{
				Row:      b.Row,
				Col:      b.Col,
				BaseAddr: b.BaseAddr,
				Status:   b.Status.String(),
				Locked:   b.IsLocked(),
			})
		}
	}
	return out
}
