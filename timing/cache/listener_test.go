package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/akita/v4/sim"
)

var _ = Describe("Listener notifications", func() {
	var (
		mockCtrl *gomock.Controller
		listener *MockListener
		engine   sim.Engine
		network  *testNetwork
		c        *Comp
		cpu      *endpoint
		mem      *endpoint
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		listener = NewMockListener(mockCtrl)

		engine = sim.NewSerialEngine()
		network = newTestNetwork()

		cpu = newEndpoint("CPU")
		mem = newEndpoint("Mem")

		cfg := &Config{
			NumWays:     2,
			NumRows:     2,
			BlockSize:   64,
			Mode:        "STANDARD",
			AccessTime:  4,
			NumUpstream: 1,
			IsL1:        true,
		}

		c = MakeBuilder().
			WithEngine(engine).
			WithConfig(cfg).
			WithDownstream(mem.port.AsRemote()).
			WithListener(listener).
			Build("L1")

		network.PlugIn(cpu.port)
		network.PlugIn(c.GetPortByName("Upstream0"))
		network.PlugIn(c.GetPortByName("Downstream"))
		network.PlugIn(mem.port)

		mem.onRecv = func(msg *CacheMsg) {
			if msg.Cmd != RequestData {
				return
			}
			payload := make([]byte, msg.Size)
			rsp := CacheMsgBuilder{}.
				WithSrc(msg.Dst).
				WithDst(msg.Src).
				WithCmd(SupplyData).
				WithRspTo(msg.ID).
				WithBaseAddr(msg.BaseAddr).
				WithSize(msg.Size).
				WithPayload(payload).
				Build()
			_ = mem.port.Send(rsp)
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("notifies OnFill once the missing block installs, then OnAccess for the replayed request", func() {
		gomock.InOrder(
			listener.EXPECT().OnFill(uint64(0x100)),
			listener.EXPECT().OnAccess(uint64(0x100), false, true),
		)

		req := CacheMsgBuilder{}.
			WithSrc(cpu.port.AsRemote()).
			WithDst(c.GetPortByName("Upstream0").AsRemote()).
			WithCmd(ReadReq).
			WithAddr(0x100).
			WithBaseAddr(0x100).
			WithSize(4).
			Build()

		Expect(cpu.port.Send(req)).To(BeNil())
		Expect(engine.Run()).To(Succeed())
	})
})
