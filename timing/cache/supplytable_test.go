package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SupplyTable", func() {
	var table *SupplyTable

	BeforeEach(func() {
		table = NewSupplyTable()
	})

	It("starts a fresh supply and reports it as in progress", func() {
		_, started := table.Start(0x100, "PeerA")
		Expect(started).To(BeTrue())
		Expect(table.InProgress(0x100, "PeerA")).To(BeTrue())
	})

	It("refuses a second start for the same (addr, peer) while one is underway", func() {
		table.Start(0x100, "PeerA")
		_, started := table.Start(0x100, "PeerA")
		Expect(started).To(BeFalse())
	})

	It("tracks (addr, peer) pairs independently", func() {
		table.Start(0x100, "PeerA")
		_, started := table.Start(0x100, "PeerB")
		Expect(started).To(BeTrue())
	})

	It("allows a fresh start once the prior supply finishes", func() {
		table.Start(0x100, "PeerA")
		table.Finish(0x100, "PeerA")

		Expect(table.InProgress(0x100, "PeerA")).To(BeFalse())

		_, started := table.Start(0x100, "PeerA")
		Expect(started).To(BeTrue())
	})

	It("cancels every in-progress supply for an address and clears its bus ticket", func() {
		entryA, _ := table.Start(0x100, "PeerA")
		entryA.BusTicket = &busTicket{}
		table.Start(0x100, "PeerB")
		table.Start(0x200, "PeerA")

		var canceled []*busTicket
		table.CancelAllForAddr(0x100, func(t *busTicket) { canceled = append(canceled, t) })

		Expect(table.InProgress(0x100, "PeerA")).To(BeFalse())
		Expect(table.InProgress(0x100, "PeerB")).To(BeFalse())
		Expect(table.InProgress(0x200, "PeerA")).To(BeTrue())
		Expect(canceled).To(HaveLen(1))
		Expect(entryA.BusTicket).To(BeNil())
	})

	It("allows a new start for a canceled entry even without Finish", func() {
		table.Start(0x100, "PeerA")
		table.CancelAllForAddr(0x100, func(*busTicket) {})

		_, started := table.Start(0x100, "PeerA")
		Expect(started).To(BeTrue())
	})
})
