package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("InvalidateTable", func() {
	var table *InvalidateTable

	BeforeEach(func() {
		table = NewInvalidateTable()
	})

	It("settles immediately when a broadcast reaches nobody", func() {
		completed := false
		table.Begin(0x100, 0, 0, true, Exclusive, true, func() { completed = true })
		table.Settle(0x100)

		Expect(completed).To(BeTrue())
		Expect(table.InProgress(0x100)).To(BeFalse())
	})

	It("waits for every expected ACK before completing", func() {
		completed := false
		e := table.Begin(0x100, 0, 0, true, Exclusive, true, func() { completed = true })
		e.ExpectACK()
		e.ExpectACK()

		table.Settle(0x100)
		Expect(completed).To(BeFalse())

		Expect(table.ACK(0x100)).To(BeTrue())
		Expect(completed).To(BeFalse())
		Expect(table.InProgress(0x100)).To(BeTrue())

		Expect(table.ACK(0x100)).To(BeTrue())
		Expect(completed).To(BeTrue())
		Expect(table.InProgress(0x100)).To(BeFalse())
	})

	It("reports false acking an address with no outstanding invalidation", func() {
		Expect(table.ACK(0x999)).To(BeFalse())
	})

	It("ACKs an already-settled idempotent entry without re-running completion", func() {
		calls := 0
		e := table.Begin(0x100, 0, 0, true, Exclusive, true, func() { calls++ })
		e.ExpectACK()

		Expect(table.ACK(0x100)).To(BeTrue())
		Expect(calls).To(Equal(1))

		Expect(table.ACK(0x100)).To(BeFalse())
		Expect(calls).To(Equal(1))
	})

	It("cancels a cancelable entry and removes it", func() {
		table.Begin(0x100, 0, 0, true, Exclusive, true, func() {})

		e, ok := table.Cancel(0x100)
		Expect(ok).To(BeTrue())
		Expect(e.BaseAddr).To(Equal(uint64(0x100)))
		Expect(table.InProgress(0x100)).To(BeFalse())
	})

	It("refuses to cancel a non-cancelable entry", func() {
		table.Begin(0x100, 0, 0, true, Exclusive, false, func() {})

		_, ok := table.Cancel(0x100)
		Expect(ok).To(BeFalse())
		Expect(table.InProgress(0x100)).To(BeTrue())
	})

	It("drops an entry unconditionally regardless of CanCancel", func() {
		table.Begin(0x100, 0, 0, true, Exclusive, false, func() {})

		e, ok := table.Drop(0x100)
		Expect(ok).To(BeTrue())
		Expect(e.BaseAddr).To(Equal(uint64(0x100)))
		Expect(table.InProgress(0x100)).To(BeFalse())
	})
})
