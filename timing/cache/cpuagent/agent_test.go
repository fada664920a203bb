package cpuagent

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/m2sim/timing/cache"
)

// fakeCache is a minimal sim.Component standing in for the upstream cache
// port an Agent drives traffic into, recording every request it receives
// and optionally answering it.
type fakeCache struct {
	sim.HookableBase

	port     sim.Port
	received []*cache.CacheMsg
	onRecv   func(msg *cache.CacheMsg)
}

func newFakeCache() *fakeCache {
	f := &fakeCache{}
	f.port = sim.NewPort(f, 4, 4, "FakeCache.Port")
	return f
}

func (f *fakeCache) Name() string            { return "FakeCache" }
func (f *fakeCache) Handle(_ sim.Event) error { return nil }

func (f *fakeCache) NotifyRecv(port sim.Port) {
	for {
		msg := port.RetrieveIncoming()
		if msg == nil {
			return
		}
		cm := msg.(*cache.CacheMsg)
		f.received = append(f.received, cm)
		if f.onRecv != nil {
			f.onRecv(cm)
		}
	}
}

func (f *fakeCache) NotifyPortFree(_ sim.Port) {}

func (f *fakeCache) AddPort(_ string, port sim.Port) { f.port = port }

func (f *fakeCache) GetPortByName(_ string) sim.Port { return f.port }

func (f *fakeCache) Ports() []sim.Port { return []sim.Port{f.port} }

type directWire struct {
	sim.HookableBase
	a, b sim.Port
}

func plugDirect(a, b sim.Port) *directWire {
	w := &directWire{a: a, b: b}
	a.SetConnection(w)
	b.SetConnection(w)
	return w
}

func (w *directWire) Name() string { return "DirectWire" }

func (w *directWire) PlugIn(_ sim.Port)        {}
func (w *directWire) Unplug(_ sim.Port)        {}
func (w *directWire) NotifyAvailable(_ sim.Port) {}

func (w *directWire) NotifySend() {
	w.forward(w.a, w.b)
	w.forward(w.b, w.a)
}

func (w *directWire) forward(from, to sim.Port) {
	for {
		msg := from.PeekOutgoing()
		if msg == nil {
			return
		}
		if err := to.Deliver(msg); err != nil {
			return
		}
		from.RetrieveOutgoing()
	}
}

var _ = Describe("Agent", func() {
	var (
		engine sim.Engine
		fc     *fakeCache
		agent  *Agent
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		fc = newFakeCache()
		agent = NewAgent("CPU", engine, fc.port, 0x10000, 64, 3, 0)
		plugDirect(agent.GetPortByName("Cache"), fc.port)
	})

	It("exposes its wired port by name and panics on an unknown one", func() {
		Expect(agent.GetPortByName("Cache")).NotTo(BeNil())
		Expect(func() { agent.GetPortByName("Nope") }).To(Panic())
	})

	It("issues reads until none are left, tracking pending requests", func() {
		for i := 0; i < 3; i++ {
			progressed := agent.Tick()
			Expect(progressed).To(BeTrue())
		}

		Expect(agent.ReadsLeft).To(Equal(0))
		Expect(agent.Stats().ReadsSent).To(Equal(uint64(3)))
		Expect(fc.received).To(HaveLen(3))
		for _, m := range fc.received {
			Expect(m.Cmd).To(Equal(cache.ReadReq))
		}
	})

	It("reports no progress once every read is issued and no response is pending", func() {
		for i := 0; i < 3; i++ {
			agent.Tick()
		}

		Expect(agent.Tick()).To(BeFalse())
	})

	It("completes a pending read when its response arrives", func() {
		fc.onRecv = func(msg *cache.CacheMsg) {
			rsp := cache.CacheMsgBuilder{}.
				WithSrc(msg.Dst).
				WithDst(msg.Src).
				WithCmd(cache.ReadReq).
				WithRspTo(msg.ID).
				Build()
			_ = fc.port.Send(rsp)
		}

		agent.Tick() // issues the first read, fakeCache answers synchronously
		Expect(engine.Run()).To(Succeed())

		Expect(agent.Tick()).To(BeTrue())
		Expect(agent.Stats().ReadsComplete).To(Equal(uint64(1)))
	})
})
