package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"
)

var _ = Describe("CacheMsgBuilder", func() {
	It("builds a message carrying every configured field", func() {
		msg := CacheMsgBuilder{}.
			WithSrc("CPU.Port").
			WithDst("L1.Upstream0").
			WithCmd(WriteReq).
			WithRspTo("req-1").
			WithAddr(0x1004).
			WithBaseAddr(0x1000).
			WithSize(4).
			WithFlags(FlagLocked).
			WithPayload([]byte{9, 9}).
			WithLinkID(2).
			WithUpstreamLinkIdx(1).
			Build()

		Expect(msg.Src).To(Equal(sim.RemotePort("CPU.Port")))
		Expect(msg.Dst).To(Equal(sim.RemotePort("L1.Upstream0")))
		Expect(msg.Cmd).To(Equal(WriteReq))
		Expect(msg.RspTo).To(Equal("req-1"))
		Expect(msg.Addr).To(Equal(uint64(0x1004)))
		Expect(msg.BaseAddr).To(Equal(uint64(0x1000)))
		Expect(msg.Size).To(Equal(4))
		Expect(msg.Flags.Has(FlagLocked)).To(BeTrue())
		Expect(msg.Payload).To(Equal([]byte{9, 9}))
		Expect(msg.LinkID).To(Equal(2))
		Expect(msg.UpstreamLinkIdx).To(Equal(1))
		Expect(msg.ID).NotTo(BeEmpty())
	})

	It("gives every built message a fresh ID", func() {
		a := CacheMsgBuilder{}.WithCmd(ReadReq).Build()
		b := CacheMsgBuilder{}.WithCmd(ReadReq).Build()

		Expect(a.ID).NotTo(Equal(b.ID))
	})

	It("clones with a new ID but the same payload", func() {
		original := CacheMsgBuilder{}.WithCmd(ReadReq).WithPayload([]byte{1, 2, 3}).Build()
		clone := original.Clone().(*CacheMsg)

		Expect(clone.ID).NotTo(Equal(original.ID))
		Expect(clone.Payload).To(Equal(original.Payload))
		Expect(clone.GetRspTo()).To(Equal(original.RspTo))
	})
})

var _ = Describe("Flags", func() {
	It("reports Has only when every bit in the mask is set", func() {
		f := FlagLocked | FlagDelayed

		Expect(f.Has(FlagLocked)).To(BeTrue())
		Expect(f.Has(FlagDelayed)).To(BeTrue())
		Expect(f.Has(FlagWriteback)).To(BeFalse())
		Expect(f.Has(FlagLocked | FlagWriteback)).To(BeFalse())
	})
})
