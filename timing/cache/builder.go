package cache

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// portBufCapacity bounds every port's incoming/outgoing buffer.
const portBufCapacity = 16

// Builder constructs a Comp from a fluent sequence of With* calls, in the
// idiom of mem/cache/writeevict's Builder.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
	config *Config

	listener Listener

	downstreamRemote sim.RemotePort
	snoopRemote      sim.RemotePort
	directoryRemote  sim.RemotePort
	prefetcherRemote sim.RemotePort

	bus SnoopBus

	peers []Peer
}

// MakeBuilder returns a Builder seeded with L1 defaults.
func MakeBuilder() Builder {
	return Builder{
		freq:   1 * sim.GHz,
		config: DefaultL1Config(),
	}
}

// WithEngine sets the event-driven simulation engine the cache uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency the cache's self-link scheduling works at.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithConfig sets the cache's configuration, replacing the L1 defaults.
func (b Builder) WithConfig(config *Config) Builder {
	b.config = config
	return b
}

// WithListener sets the prefetcher/trace listener directly, bypassing
// Config.Prefetcher's registry lookup.
func (b Builder) WithListener(listener Listener) Builder {
	b.listener = listener
	return b
}

// WithDownstream sets the remote port of the next lower cache.
func (b Builder) WithDownstream(remote sim.RemotePort) Builder {
	b.downstreamRemote = remote
	return b
}

// WithSnoop sets the remote port of the snoop bus endpoint and the
// arbiter adapter the cache requests bus time from.
func (b Builder) WithSnoop(remote sim.RemotePort, bus SnoopBus) Builder {
	b.snoopRemote = remote
	b.bus = bus
	return b
}

// WithDirectory sets the remote port of the directory network endpoint.
func (b Builder) WithDirectory(remote sim.RemotePort) Builder {
	b.directoryRemote = remote
	return b
}

// WithPrefetcher sets the remote port of an external prefetcher link.
func (b Builder) WithPrefetcher(remote sim.RemotePort) Builder {
	b.prefetcherRemote = remote
	return b
}

// WithDirectoryPeers sets the directory's initial peer snapshot.
func (b Builder) WithDirectoryPeers(peers []Peer) Builder {
	b.peers = peers
	return b
}

// Build constructs the Comp, wiring every configured link and table.
func (b Builder) Build(name string) *Comp {
	b.assertAllRequiredInformationIsAvailable()

	if err := b.config.Validate(); err != nil {
		panic(err)
	}

	listener := b.listener
	if listener == nil {
		var err error
		listener, err = resolveListener(b.config.Prefetcher)
		if err != nil {
			panic(err)
		}
	}

	c := &Comp{
		name:          name,
		Engine:        b.engine,
		Freq:          b.freq,
		config:        b.config,
		layout:        newAddressLayout(b.config.NumRows, b.config.BlockSize),
		loads:         NewLoadTable(),
		invalidates:   NewInvalidateTable(),
		supplies:      NewSupplyTable(),
		directory:     NewDirectory(),
		listener:      listener,
		sawCPURequest: b.config.IsL1,
	}

	c.rows = make([]*Row, b.config.NumRows)
	for i := range c.rows {
		c.rows[i] = NewRow(i, b.config.NumWays, b.config.BlockSize)
	}

	if len(b.peers) > 0 {
		c.directory.SetPeers(b.peers)
	}

	b.createPorts(c)

	if b.bus != nil {
		c.bus = b.bus
	} else if c.snoop != nil {
		c.bus = NewFIFOArbiter(c.onBusGrant)
	}

	return c
}

func (b Builder) assertAllRequiredInformationIsAvailable() {
	if b.engine == nil {
		panic("cache: builder requires an engine, use WithEngine")
	}
	if b.config == nil {
		panic("cache: builder requires a configuration, use WithConfig")
	}
}

// createPorts allocates every configured link's port and registers it on
// the component, plus every upstream link named in Config.NumUpstream.
func (b Builder) createPorts(c *Comp) {
	for i := 0; i < b.config.NumUpstream; i++ {
		name := fmt.Sprintf("%s.Upstream%d", c.name, i)
		port := sim.NewPort(c, portBufCapacity, portBufCapacity, name)
		c.AddPort(fmt.Sprintf("Upstream%d", i), port)
		c.upstream = append(c.upstream, link{Kind: Upstream, ID: i, Port: port})
	}

	if b.downstreamRemote != "" {
		port := sim.NewPort(c, portBufCapacity, portBufCapacity, c.name+".Downstream")
		c.AddPort("Downstream", port)
		c.downstream = &link{Kind: Downstream, Port: port, Remote: b.downstreamRemote}
	}

	if b.snoopRemote != "" {
		port := sim.NewPort(c, portBufCapacity, portBufCapacity, c.name+".Snoop")
		c.AddPort("Snoop", port)
		c.snoop = &link{Kind: Snoop, Port: port, Remote: b.snoopRemote}
	}

	if b.directoryRemote != "" {
		port := sim.NewPort(c, portBufCapacity, portBufCapacity, c.name+".Directory")
		c.AddPort("Directory", port)
		c.directoryLk = &link{Kind: DirectoryLink, Port: port, Remote: b.directoryRemote}
	}

	if b.prefetcherRemote != "" {
		port := sim.NewPort(c, portBufCapacity, portBufCapacity, c.name+".Prefetcher")
		c.AddPort("Prefetcher", port)
		c.prefetcher = &link{Kind: Prefetcher, Port: port, Remote: b.prefetcherRemote}
	}
}
