package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Directory", func() {
	var dir *Directory

	BeforeEach(func() {
		dir = NewDirectory()
	})

	It("reports no target when no peers are configured", func() {
		_, ok := dir.Target(0x100)
		Expect(ok).To(BeFalse())
	})

	It("targets the single peer whose interval contains the address", func() {
		dir.SetPeers([]Peer{
			{Name: "Low", LowAddress: 0, HighAddress: 0x1000},
			{Name: "High", LowAddress: 0x1000, HighAddress: 0},
		})

		p, ok := dir.Target(0x500)
		Expect(ok).To(BeTrue())
		Expect(p.Name).To(Equal("Low"))

		p, ok = dir.Target(0x2000)
		Expect(ok).To(BeTrue())
		Expect(p.Name).To(Equal("High"))
	})

	It("picks the first peer in list order whose interval contains the address", func() {
		dir.SetPeers([]Peer{
			{Name: "First", LowAddress: 0, HighAddress: 0x1000},
			{Name: "Second", LowAddress: 0, HighAddress: 0x1000},
		})

		p, ok := dir.Target(0x500)
		Expect(ok).To(BeTrue())
		Expect(p.Name).To(Equal("First"))
	})

	It("matches an interleaved peer only within its stripe of the interleave period", func() {
		dir.SetPeers([]Peer{
			{Name: "Bank0", LowAddress: 0, HighAddress: 0x10000, InterleavingSize: 64, InterleavingStep: 128},
		})

		_, ok := dir.Target(0)
		Expect(ok).To(BeTrue())

		_, ok = dir.Target(63)
		Expect(ok).To(BeTrue())

		_, ok = dir.Target(64)
		Expect(ok).To(BeFalse())

		_, ok = dir.Target(127)
		Expect(ok).To(BeFalse())

		p, ok := dir.Target(128)
		Expect(ok).To(BeTrue())
		Expect(p.Name).To(Equal("Bank0"))
	})

	It("skips a peer whose interval contains the address but whose stripe does not match, falling through to a later peer", func() {
		dir.SetPeers([]Peer{
			{Name: "Bank0", LowAddress: 0, HighAddress: 0x10000, InterleavingSize: 64, InterleavingStep: 128},
			{Name: "Catchall", LowAddress: 0, HighAddress: 0x10000},
		})

		p, ok := dir.Target(64)
		Expect(ok).To(BeTrue())
		Expect(p.Name).To(Equal("Catchall"))

		p, ok = dir.Target(0)
		Expect(ok).To(BeTrue())
		Expect(p.Name).To(Equal("Bank0"))
	})

	It("returns every configured peer for a broadcast", func() {
		peers := []Peer{
			{Name: "A"},
			{Name: "B"},
		}
		dir.SetPeers(peers)

		Expect(dir.Broadcast()).To(HaveLen(2))
	})
})
