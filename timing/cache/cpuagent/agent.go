// Package cpuagent provides a synthetic CPU traffic generator that issues
// CacheMsg read/write requests against an upstream cache port, replacing
// the cycle-accurate core model's role with a minimal driver for
// exercising timing/cache end to end.
package cpuagent

import (
	"log"
	"math/rand"
	"reflect"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/m2sim/timing/cache"
)

// Stats tracks the traffic an Agent has generated.
type Stats struct {
	ReadsSent      uint64
	WritesSent     uint64
	ReadsComplete  uint64
	WritesComplete uint64
}

// Agent is a TickingComponent that drives ReadReq/WriteReq traffic into a
// cache's upstream port, in the idiom of
// mem/acceptancetests/memaccessagent.MemAccessAgent.
type Agent struct {
	*sim.TickingComponent

	CachePort sim.Port
	MaxAddr   uint64
	BlockSize int

	ReadsLeft  int
	WritesLeft int

	pending map[string]uint64

	port  sim.Port
	ports map[string]sim.Port
	rng   *rand.Rand

	stats Stats
}

// AddPort registers a port under name. Defined directly on Agent, rather
// than relying on the embedded TickingComponent's own (unreachable) port
// map, so GetPortByName resolves what NewAgent actually wires.
func (a *Agent) AddPort(name string, port sim.Port) {
	if a.ports == nil {
		a.ports = make(map[string]sim.Port)
	}
	a.ports[name] = port
}

// GetPortByName returns a previously registered port.
func (a *Agent) GetPortByName(name string) sim.Port {
	port, ok := a.ports[name]
	if !ok {
		log.Panicf("cpuagent: port %q not found on %s", name, a.Name())
	}
	return port
}

// Tick retrieves at most one response waiting on the port and issues the
// next request, if any are left. A request is issued whether or not
// another one is still pending for the same address.
func (a *Agent) Tick() bool {
	progress := a.processResponses()

	if a.ReadsLeft == 0 && a.WritesLeft == 0 {
		return progress
	}

	if a.shouldRead() {
		return a.issueRead() || progress
	}
	return a.issueWrite() || progress
}

func (a *Agent) shouldRead() bool {
	if a.ReadsLeft == 0 {
		return false
	}
	if a.WritesLeft == 0 {
		return true
	}
	return a.rng.Float64() > 0.5
}

func (a *Agent) issueRead() bool {
	addr := a.randomAddr()
	req := cache.CacheMsgBuilder{}.
		WithSrc(a.port.AsRemote()).
		WithDst(a.CachePort.AsRemote()).
		WithCmd(cache.ReadReq).
		WithAddr(addr).
		WithBaseAddr(addr - addr%uint64(a.BlockSize)).
		WithSize(4).
		Build()

	if err := a.port.Send(req); err != nil {
		return false
	}
	a.pending[req.ID] = addr
	a.ReadsLeft--
	a.stats.ReadsSent++
	return true
}

func (a *Agent) issueWrite() bool {
	addr := a.randomAddr()
	payload := make([]byte, 4)
	a.rng.Read(payload)

	req := cache.CacheMsgBuilder{}.
		WithSrc(a.port.AsRemote()).
		WithDst(a.CachePort.AsRemote()).
		WithCmd(cache.WriteReq).
		WithAddr(addr).
		WithBaseAddr(addr - addr%uint64(a.BlockSize)).
		WithSize(4).
		WithPayload(payload).
		Build()

	if err := a.port.Send(req); err != nil {
		return false
	}
	a.pending[req.ID] = addr
	a.WritesLeft--
	a.stats.WritesSent++
	return true
}

func (a *Agent) randomAddr() uint64 {
	return a.rng.Uint64() % a.MaxAddr
}

func (a *Agent) processResponses() bool {
	msg := a.port.RetrieveIncoming()
	if msg == nil {
		return false
	}

	rsp, ok := msg.(*cache.CacheMsg)
	if !ok {
		log.Panicf("cpuagent: unexpected message type %s", reflect.TypeOf(msg))
	}

	delete(a.pending, rsp.RspTo)

	switch rsp.Cmd {
	case cache.ReadReq:
		a.stats.ReadsComplete++
	case cache.WriteReq:
		a.stats.WritesComplete++
	}
	return true
}

// Stats returns a copy of the agent's traffic counters.
func (a *Agent) Stats() Stats {
	return a.stats
}

// NewAgent creates an Agent wired to cachePort, with numReads reads and
// numWrites writes left to issue against addresses below maxAddr.
func NewAgent(name string, engine sim.Engine, cachePort sim.Port, maxAddr uint64, blockSize, numReads, numWrites int) *Agent {
	a := &Agent{
		CachePort:  cachePort,
		MaxAddr:    maxAddr,
		BlockSize:  blockSize,
		ReadsLeft:  numReads,
		WritesLeft: numWrites,
		pending:    make(map[string]uint64),
		rng:        rand.New(rand.NewSource(1)),
	}
	a.TickingComponent = sim.NewTickingComponent(name, engine, 1*sim.GHz, a)

	a.port = sim.NewPort(a, 4, 4, name+".Port")
	a.AddPort("Cache", a.port)

	return a
}
